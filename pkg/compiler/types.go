package compiler

import (
	"github.com/crowlang/crow/pkg/chunk"
	"github.com/crowlang/crow/pkg/object"
)

const (
	maxLocals   = 256
	maxUpvalues = 256
)

// funcType distinguishes how a compiled function's slot 0 and implicit
// return behave: a script has no callee slot worth naming, a plain
// function names it "" (inaccessible), and methods/initializers name
// it "this" and read it back via the dedicated GET_THIS opcode.
type funcType int

const (
	funcTypeScript funcType = iota
	funcTypeFunction
	funcTypeMethod
	funcTypeInitializer
)

type localVar struct {
	name       string
	depth      int // -1 while the declaring initializer is still compiling
	isCaptured bool
}

type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcCompiler is one record in the compiler stack, one per function
// currently being compiled: everything needed to finish compiling one
// function body and fold the result back into its enclosing function.
type funcCompiler struct {
	enclosing *funcCompiler
	function  *object.Function
	funcType  funcType

	locals     [maxLocals]localVar
	localCount int
	upvalues   [maxUpvalues]upvalueRef
	scopeDepth int

	loopStart      int
	loopScopeDepth int
	hasLoop        bool

	stringConstants map[string]int

	stackHeight int
	peakHeight  int

	// Peephole-fusion tracking: the most recently emitted
	// small-constant push, still sitting at the end of the code buffer,
	// that an immediately following arithmetic opcode may fuse with.
	hasLastPush bool
	lastPushOp  chunk.OpCode
	lastPushAt  int
}

// classCompiler tracks the class currently being compiled, chained so
// nested class declarations (a method body containing another class
// declaration as a statement) resolve `super` against the right one.
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Precedence orders Crow's binary/ternary operators from loosest to
// tightest binding, per the fixed Pratt rule table.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecConditional // ternary ?:
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}
