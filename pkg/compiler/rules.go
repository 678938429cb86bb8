package compiler

import "github.com/crowlang/crow/pkg/lexer"

// rules is the fixed Pratt parse-rule table: one entry per TokenType,
// giving its prefix parselet (how to start an expression with this
// token), its infix parselet (how to continue a left-hand expression
// once this token follows it), and the binding precedence used to
// decide whether parsePrecedence should keep consuming infix
// operators.
var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.TokenLeftParen:    {prefix: grouping, infix: call, precedence: PrecCall},
		lexer.TokenDot:          {infix: dot, precedence: PrecCall},
		lexer.TokenMinus:        {prefix: unary, infix: binary, precedence: PrecTerm},
		lexer.TokenPlus:         {infix: binary, precedence: PrecTerm},
		lexer.TokenSlash:        {infix: binary, precedence: PrecFactor},
		lexer.TokenStar:         {infix: binary, precedence: PrecFactor},
		lexer.TokenQuestion:     {infix: ternary, precedence: PrecConditional},
		lexer.TokenBang:         {prefix: unary},
		lexer.TokenBangEqual:    {infix: binary, precedence: PrecEquality},
		lexer.TokenEqualEqual:   {infix: binary, precedence: PrecEquality},
		lexer.TokenGreater:      {infix: binary, precedence: PrecComparison},
		lexer.TokenGreaterEqual: {infix: binary, precedence: PrecComparison},
		lexer.TokenLess:         {infix: binary, precedence: PrecComparison},
		lexer.TokenLessEqual:    {infix: binary, precedence: PrecComparison},
		lexer.TokenIdentifier:   {prefix: variable},
		lexer.TokenString:       {prefix: stringLiteral},
		lexer.TokenInterpolate:  {prefix: interpolateLiteral},
		lexer.TokenNumber:       {prefix: number},
		lexer.TokenAnd:          {infix: and_, precedence: PrecAnd},
		lexer.TokenFalse:        {prefix: literal},
		lexer.TokenNil:          {prefix: literal},
		lexer.TokenOr:           {infix: or_, precedence: PrecOr},
		lexer.TokenSuper:        {prefix: super_},
		lexer.TokenThis:         {prefix: this_},
		lexer.TokenTrue:         {prefix: literal},
	}
}

// getRule returns t's parse rule, or the zero rule (no prefix, no
// infix, PrecNone) for tokens that never start or continue an
// expression.
func getRule(t lexer.TokenType) parseRule {
	return rules[t]
}
