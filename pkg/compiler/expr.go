package compiler

import (
	"strconv"

	"github.com/crowlang/crow/pkg/chunk"
	"github.com/crowlang/crow/pkg/lexer"
	"github.com/crowlang/crow/pkg/object"
)

// expression parses and compiles one expression at PrecAssignment, the
// loosest precedence above a bare statement.
func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence is the Pratt driver: run precedence's prefix
// parselet, then keep consuming infix operators as long as the next
// token's rule binds at least as tightly as precedence.
func (c *Compiler) parsePrecedence(precedence Precedence) {
	c.advance()
	prefix := getRule(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := precedence <= PrecAssignment
	prefix(c, canAssign)

	for precedence <= getRule(c.current.Type).precedence {
		c.advance()
		infix := getRule(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(lexer.TokenEqual) {
		c.error("Invalid assignment target.")
	}
}

func grouping(c *Compiler, canAssign bool) {
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after expression.")
}

func call(c *Compiler, canAssign bool) {
	argCount := c.argumentList()
	c.emitOpByte(chunk.OpCall, byte(argCount))
	c.adjustForArgs(argCount)
}

func dot(c *Compiler, canAssign bool) {
	c.consume(lexer.TokenIdentifier, "Expect property name after '.'.")
	name := c.stringConstant(c.previous.Lexeme)
	switch {
	case canAssign && c.match(lexer.TokenEqual):
		c.expression()
		c.emitOpUint16(chunk.OpSetProperty, name)
	case c.match(lexer.TokenLeftParen):
		argCount := c.argumentList()
		c.emitInvoke(chunk.OpInvoke, name, argCount)
	default:
		c.emitOpUint16(chunk.OpGetProperty, name)
	}
}

func (c *Compiler) argumentList() int {
	count := 0
	if !c.check(lexer.TokenRightParen) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRightParen, "Expect ')' after arguments.")
	return count
}

func unary(c *Compiler, canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case lexer.TokenBang:
		c.emitOp(chunk.OpNot)
	case lexer.TokenMinus:
		if !c.tryFuse(chunk.OpConstantOne, chunk.OpConstantNegativeOne) {
			c.emitOp(chunk.OpNegate)
		}
	}
}

func binary(c *Compiler, canAssign bool) {
	opType := c.previous.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case lexer.TokenPlus:
		if !c.tryFuse(chunk.OpConstantOne, chunk.OpAddOne) {
			c.emitOp(chunk.OpAdd)
		}
	case lexer.TokenMinus:
		if !c.tryFuse(chunk.OpConstantOne, chunk.OpSubtractOne) {
			c.emitOp(chunk.OpSubtract)
		}
	case lexer.TokenStar:
		if !c.tryFuse(chunk.OpConstantTwo, chunk.OpMultiplyTwo) {
			c.emitOp(chunk.OpMultiply)
		}
	case lexer.TokenSlash:
		c.emitOp(chunk.OpDivide)
	case lexer.TokenEqualEqual:
		if !c.tryFuse(chunk.OpConstantZero, chunk.OpEqualZero) {
			c.emitOp(chunk.OpEqual)
		}
	case lexer.TokenBangEqual:
		c.emitOp(chunk.OpNotEqual)
	case lexer.TokenGreater:
		c.emitOp(chunk.OpGreater)
	case lexer.TokenGreaterEqual:
		c.emitOp(chunk.OpGreaterEqual)
	case lexer.TokenLess:
		c.emitOp(chunk.OpLess)
	case lexer.TokenLessEqual:
		c.emitOp(chunk.OpLessEqual)
	}
}

// ternary compiles `cond ? then : else` as a conditional jump over the
// then-branch plus an unconditional jump over the else-branch, balanced
// so that exactly one of the two branches' values ends up
// on the stack regardless of which arm runs.
func ternary(c *Compiler, canAssign bool) {
	thenJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(PrecConditional)
	elseJump := c.emitJump(chunk.OpJump)

	c.patchJump(thenJump)
	c.emitOp(chunk.OpPop)
	c.consume(lexer.TokenColon, "Expect ':' after then branch of ternary expression.")
	c.parsePrecedence(PrecAssignment)

	c.patchJump(elseJump)
}

// and_ short-circuits: if the left operand is falsey, its value (still
// on the stack) is the whole expression's value and the right operand
// is never evaluated.
func and_(c *Compiler, canAssign bool) {
	endJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

// or_ is and_'s mirror: if the left operand is truthy, skip the right
// operand entirely.
func or_(c *Compiler, canAssign bool) {
	elseJump := c.emitJump(chunk.OpJumpIfFalse)
	endJump := c.emitJump(chunk.OpJump)
	c.patchJump(elseJump)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func literal(c *Compiler, canAssign bool) {
	switch c.previous.Type {
	case lexer.TokenFalse:
		c.emitOp(chunk.OpFalse)
	case lexer.TokenNil:
		c.emitOp(chunk.OpNil)
	case lexer.TokenTrue:
		c.emitOp(chunk.OpTrue)
	}
}

func number(c *Compiler, canAssign bool) {
	v, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitNumber(v)
}

// stringLiteral handles a plain (non-interpolated) TOKEN_STRING: the
// lexeme still carries its surrounding quotes.
func stringLiteral(c *Compiler, canAssign bool) {
	raw := c.previous.Lexeme
	text := unescapeString(raw[1 : len(raw)-1])
	str := c.heap.InternString(text)
	c.emitConstantValue(object.FromString(str))
}

// interpolateLiteral compiles "a${x}b${y}c" as "a"+str(x)+"b"+str(y)+"c":
// the scanner hands the compiler a TOKEN_INTERPOLATE for every segment
// up to and including the one ending in the next `${`, terminated by a
// plain TOKEN_STRING for the tail. Since neither token type has an
// infix rule, parsePrecedence always stops right before one, so each
// embedded expression's own expression() call naturally leaves the
// following segment token as c.current for this loop to advance into.
// Each embedded expression is wrapped in the `str` native so OP_ADD
// always concatenates strings.
func interpolateLiteral(c *Compiler, canAssign bool) {
	c.emitStringSegment(c.previous, false)
	for c.previous.Type != lexer.TokenString {
		c.namedVariable(lexer.Token{Type: lexer.TokenIdentifier, Lexeme: "str"}, false)
		c.expression()
		c.emitOpByte(chunk.OpCall, 1)
		c.adjustForArgs(1)
		c.emitOp(chunk.OpAdd)

		if !c.check(lexer.TokenString) && !c.check(lexer.TokenInterpolate) {
			c.errorAtCurrent("Expect string continuation after interpolated expression.")
			return
		}
		c.advance()
		c.emitStringSegment(c.previous, true)
	}
}

// emitStringSegment pushes one literal chunk of an interpolated
// string (stripping the quote/brace delimiters the scanner left on
// the lexeme) and, unless it's the first segment, concatenates it
// onto the result built so far.
func (c *Compiler) emitStringSegment(tok lexer.Token, concat bool) {
	raw := tok.Lexeme
	var text string
	if tok.Type == lexer.TokenString {
		text = unescapeString(raw[1 : len(raw)-1])
	} else {
		text = unescapeString(raw[1 : len(raw)-2])
	}
	str := c.heap.InternString(text)
	c.emitConstantValue(object.FromString(str))
	if concat {
		c.emitOp(chunk.OpAdd)
	}
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func this_(c *Compiler, canAssign bool) {
	if c.cc == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.namedVariable(lexer.Token{Type: lexer.TokenThis, Lexeme: "this"}, false)
}

func super_(c *Compiler, canAssign bool) {
	if c.cc == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.cc.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}
	c.consume(lexer.TokenDot, "Expect '.' after 'super'.")
	c.consume(lexer.TokenIdentifier, "Expect superclass method name.")
	name := c.stringConstant(c.previous.Lexeme)

	c.namedVariable(lexer.Token{Type: lexer.TokenThis, Lexeme: "this"}, false)
	if c.match(lexer.TokenLeftParen) {
		argCount := c.argumentList()
		c.namedVariable(lexer.Token{Type: lexer.TokenIdentifier, Lexeme: "super"}, false)
		c.emitInvoke(chunk.OpSuperInvoke, name, argCount)
	} else {
		c.namedVariable(lexer.Token{Type: lexer.TokenIdentifier, Lexeme: "super"}, false)
		c.emitOpUint16(chunk.OpGetSuper, name)
	}
}
