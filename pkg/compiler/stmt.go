package compiler

import (
	"github.com/crowlang/crow/pkg/chunk"
	"github.com/crowlang/crow/pkg/lexer"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(lexer.TokenClass):
		c.classDeclaration()
	case c.match(lexer.TokenFun):
		c.funDeclaration()
	case c.match(lexer.TokenVar):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) funDeclaration() {
	global, isGlobal := c.parseVariable("Expect function name.")
	name := c.previous.Lexeme
	c.markInitialized()
	c.function(funcTypeFunction, name)
	c.defineVariable(global, isGlobal)
}

func (c *Compiler) varDeclaration() {
	global, isGlobal := c.parseVariable("Expect variable name.")
	if c.match(lexer.TokenEqual) {
		c.expression()
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.consume(lexer.TokenSemicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global, isGlobal)
}

func (c *Compiler) statement() {
	switch {
	case c.match(lexer.TokenPrint):
		c.printStatement()
	case c.match(lexer.TokenIf):
		c.ifStatement()
	case c.match(lexer.TokenReturn):
		c.returnStatement()
	case c.match(lexer.TokenWhile):
		c.whileStatement()
	case c.match(lexer.TokenFor):
		c.forStatement()
	case c.match(lexer.TokenSwitch):
		c.switchStatement()
	case c.match(lexer.TokenContinue):
		c.continueStatement()
	case c.match(lexer.TokenLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(lexer.TokenRightBrace) && !c.check(lexer.TokenEOF) {
		c.declaration()
	}
	c.consume(lexer.TokenRightBrace, "Expect '}' after block.")
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after expression.")
	c.emitOp(chunk.OpPop)
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after value.")
	c.emitOp(chunk.OpPrint)
}

func (c *Compiler) returnStatement() {
	if c.fc.funcType == funcTypeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(lexer.TokenSemicolon) {
		c.emitReturn()
		return
	}
	if c.fc.funcType == funcTypeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after return value.")
	c.emitOp(chunk.OpReturn)
}

func (c *Compiler) ifStatement() {
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.statement()

	elseJump := c.emitJump(chunk.OpJump)
	c.patchJump(thenJump)
	c.emitBranchPop()

	if c.match(lexer.TokenElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

// enterLoop arms `continue` for the duration of compiling a loop body,
// saving/restoring the enclosing loop's state so nested loops resolve
// `continue` against the innermost one.
func (c *Compiler) enterLoop(loopStart int) func() {
	prevStart, prevDepth, prevHas := c.fc.loopStart, c.fc.loopScopeDepth, c.fc.hasLoop
	c.fc.loopStart, c.fc.loopScopeDepth, c.fc.hasLoop = loopStart, c.fc.scopeDepth, true
	return func() {
		c.fc.loopStart, c.fc.loopScopeDepth, c.fc.hasLoop = prevStart, prevDepth, prevHas
	}
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.fc.function.Chunk.Code)
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)

	leaveLoop := c.enterLoop(loopStart)
	c.statement()
	leaveLoop()

	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	c.emitBranchPop()
}

// forStatement desugars the three-clause form into the same
// init/condition/jump-over-increment/body/loop shape the while loop
// uses. When an increment clause is present, `continue`'s target
// (loopStart, captured by enterLoop right before the body) is
// reassigned to it, so `continue` falls through the increment before
// re-testing the condition -- exactly what the body's own closing
// emitLoop does.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'for'.")
	switch {
	case c.match(lexer.TokenSemicolon):
	case c.match(lexer.TokenVar):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.fc.function.Chunk.Code)
	exitJump := -1
	if !c.match(lexer.TokenSemicolon) {
		c.expression()
		c.consume(lexer.TokenSemicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(chunk.OpJumpIfFalse)
		c.emitOp(chunk.OpPop)
	}

	if !c.check(lexer.TokenRightParen) {
		bodyJump := c.emitJump(chunk.OpJump)
		incrementStart := len(c.fc.function.Chunk.Code)
		c.expression()
		c.emitOp(chunk.OpPop)
		c.consume(lexer.TokenRightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	} else {
		c.consume(lexer.TokenRightParen, "Expect ')' after for clauses.")
	}

	leaveLoop := c.enterLoop(loopStart)
	c.statement()
	leaveLoop()

	c.emitLoop(loopStart)
	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitBranchPop()
	}
	c.endScope()
}

// continueStatement closes upvalues captured by locals the loop body
// has introduced so far -- leaving them open, a value held past a
// `continue` would observe the slot changing out from under it on the
// next iteration -- and then loops back to the innermost loop's
// test/increment.
func (c *Compiler) continueStatement() {
	if !c.fc.hasLoop {
		c.error("Can't use 'continue' outside of a loop.")
		c.consume(lexer.TokenSemicolon, "Expect ';' after 'continue'.")
		return
	}
	popped := 0
	for i := c.fc.localCount - 1; i >= 0 && c.fc.locals[i].depth > c.fc.loopScopeDepth; i-- {
		if c.fc.locals[i].isCaptured {
			c.emitOp(chunk.OpCloseUpvalue)
		} else {
			c.emitOp(chunk.OpPop)
		}
		popped++
	}
	c.emitLoop(c.fc.loopStart)
	// Control never falls through a continue; code after it still sees
	// these locals on the stack.
	c.fc.stackHeight += popped
	c.consume(lexer.TokenSemicolon, "Expect ';' after 'continue'.")
}

// switchStatement compiles a C-style switch over reference equality
// (OP_EQUAL): the discriminant is evaluated once and duplicated for
// each `case` comparison, popped once matched (or once unmatched, at
// the end, if no case and no default claimed it). At most one
// `default`, and it must be the last clause.
func (c *Compiler) switchStatement() {
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'switch'.")
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after switch expression.")
	c.consume(lexer.TokenLeftBrace, "Expect '{' before switch body.")

	// Running height with the discriminant on top; the per-case
	// false-path merges below rebase onto this, since the true path's
	// pops have already unwound the linear count by then.
	base := c.fc.stackHeight

	if !c.check(lexer.TokenCase) && !c.check(lexer.TokenDefault) {
		c.emitOp(chunk.OpPop)
		c.consume(lexer.TokenRightBrace, "Expect '}' after switch body.")
		return
	}

	var endJumps []int
	sawDefault := false
	prevCaseSkip := -1

	for c.check(lexer.TokenCase) || c.check(lexer.TokenDefault) {
		if c.match(lexer.TokenCase) {
			if sawDefault {
				c.error("Can't have a case after the default case.")
			}
			if prevCaseSkip != -1 {
				c.patchJump(prevCaseSkip)
				c.fc.stackHeight = base + 1 // discriminant + comparison result
				c.emitOp(chunk.OpPop)
			}
			c.emitOp(chunk.OpDup)
			c.expression()
			c.emitOp(chunk.OpEqual)
			c.consume(lexer.TokenColon, "Expect ':' after case value.")
			prevCaseSkip = c.emitJump(chunk.OpJumpIfFalse)
			c.emitOp(chunk.OpPop) // comparison result, true path
			c.emitOp(chunk.OpPop) // matched discriminant
		} else {
			c.consume(lexer.TokenDefault, "Expect 'case' or 'default'.")
			if sawDefault {
				c.error("Can't have more than one default case.")
			}
			sawDefault = true
			if prevCaseSkip != -1 {
				c.patchJump(prevCaseSkip)
				c.fc.stackHeight = base + 1
				c.emitOp(chunk.OpPop)
				prevCaseSkip = -1
			}
			c.emitOp(chunk.OpPop) // discriminant, unconditionally reached
			c.consume(lexer.TokenColon, "Expect ':' after 'default'.")
		}
		for !c.check(lexer.TokenCase) && !c.check(lexer.TokenDefault) && !c.check(lexer.TokenRightBrace) {
			c.statement()
		}
		endJumps = append(endJumps, c.emitJump(chunk.OpJump))
	}

	if prevCaseSkip != -1 {
		c.patchJump(prevCaseSkip)
		c.fc.stackHeight = base + 1
		c.emitOp(chunk.OpPop) // comparison result, false path
		c.emitOp(chunk.OpPop) // discriminant, unmatched by any case
	}

	c.consume(lexer.TokenRightBrace, "Expect '}' after switch body.")
	for _, j := range endJumps {
		c.patchJump(j)
	}
}
