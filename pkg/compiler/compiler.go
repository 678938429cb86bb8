// Package compiler implements Crow's single-pass Pratt compiler: it
// consumes a token stream from pkg/lexer and emits directly into a
// pkg/chunk.Chunk, with no intermediate AST. Lexical scope (locals,
// upvalues, globals) is resolved as each identifier is parsed, and a
// static pass tracks the peak operand-stack depth so pkg/vm knows how
// much to grow its value stack before calling into compiled code.
package compiler

import (
	"fmt"
	"io"
	"strings"

	"github.com/crowlang/crow/pkg/chunk"
	"github.com/crowlang/crow/pkg/globals"
	"github.com/crowlang/crow/pkg/lexer"
	"github.com/crowlang/crow/pkg/object"
	"github.com/crowlang/crow/pkg/value"
)

// Heap is the subset of the VM's allocator the compiler depends on.
// Every object the compiler creates -- the Function for each nested
// definition, every interned string constant -- must be allocated
// through it, so the GC's object list and string-intern pool stay
// accurate even if a collection runs mid-compilation (functions still
// under construction are kept reachable because the VM also marks
// whatever the current Compiler's function stack holds, see
// Functions below).
type Heap interface {
	NewFunction() *object.Function
	InternString(s string) *object.String
}

// Compiler compiles one source text into a top-level script Function.
// It is single-use: construct with New, call Compile once.
type Compiler struct {
	scanner *lexer.Scanner
	globals *globals.Globals
	heap    Heap
	stderr  io.Writer

	previous  lexer.Token
	current   lexer.Token
	hadError  bool
	panicMode bool

	fc *funcCompiler
	cc *classCompiler
}

// New prepares a Compiler over source. The returned Compiler has
// already primed its token lookahead; call Compile to run it.
func New(source string, g *globals.Globals, heap Heap, stderr io.Writer) *Compiler {
	c := &Compiler{scanner: lexer.New(source), globals: g, heap: heap, stderr: stderr}
	c.pushFuncCompiler(funcTypeScript, "")
	c.advance()
	return c
}

// Compile parses and compiles the whole token stream, returning the
// top-level script Function. The second result is false if any
// compile error was reported, in which case the caller must not run
// the returned function (the embedding interface's COMPILE_ERROR).
func (c *Compiler) Compile() (*object.Function, bool) {
	for !c.match(lexer.TokenEOF) {
		c.declaration()
	}
	popped := c.endFunctionCompiler()
	return popped.function, !c.hadError
}

// Functions returns the Function under construction at every level of
// the compiler stack, innermost first -- pkg/vm's GC walks this as
// part of its root set while a compile is in progress, so a collection
// can't reclaim a half-built function or its constants.
func (c *Compiler) Functions() []*object.Function {
	var out []*object.Function
	for fc := c.fc; fc != nil; fc = fc.enclosing {
		out = append(out, fc.function)
	}
	return out
}

// --- function-compiler stack -------------------------------------------------

func (c *Compiler) pushFuncCompiler(ftype funcType, name string) {
	fn := c.heap.NewFunction()
	fc := &funcCompiler{
		enclosing:       c.fc,
		function:        fn,
		funcType:        ftype,
		stringConstants: make(map[string]int),
	}
	// Slot 0 always holds the callee; methods and initializers name it
	// "this" so ordinary name resolution finds it (see namedVariable).
	if ftype == funcTypeMethod || ftype == funcTypeInitializer {
		fc.locals[0] = localVar{name: "this", depth: 0}
	} else {
		fc.locals[0] = localVar{name: "", depth: 0}
	}
	fc.localCount = 1
	c.fc = fc
	// The name is interned only after fn is on the compiler stack,
	// where the GC's root walk (Functions) can see it: InternString may
	// collect.
	if name != "" {
		fn.Name = c.heap.InternString(name)
	}
}

// endFunctionCompiler closes out the current function: it emits the
// implicit trailing return, records the static stack-depth analysis
// result onto the Function's Chunk, and pops the compiler stack. It
// returns the popped record so the caller (function, Compile) can
// still reach the finished Function and its captured upvalue list.
func (c *Compiler) endFunctionCompiler() *funcCompiler {
	c.emitReturn()
	c.fc.function.Chunk.Slots = c.fc.peakHeight
	popped := c.fc
	c.fc = c.fc.enclosing
	return popped
}

func (c *Compiler) emitReturn() {
	if c.fc.funcType == funcTypeInitializer {
		c.emitOp(chunk.OpGetThis)
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.emitOp(chunk.OpReturn)
}

// function compiles a nested function or method body: parameters,
// then a brace-delimited block, wrapping the finished Function in an
// OP_CLOSURE instruction with its upvalue-capture list.
func (c *Compiler) function(ftype funcType, name string) {
	c.pushFuncCompiler(ftype, name)
	c.beginScope()
	c.consume(lexer.TokenLeftParen, "Expect '(' after function name.")
	if !c.check(lexer.TokenRightParen) {
		for {
			c.fc.function.Arity++
			if c.fc.function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			global, isGlobal := c.parseVariable("Expect parameter name.")
			c.defineVariable(global, isGlobal)
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRightParen, "Expect ')' after parameters.")
	c.consume(lexer.TokenLeftBrace, "Expect '{' before function body.")
	c.block()

	popped := c.endFunctionCompiler()
	idx := c.makeConstant(object.FromFunction(popped.function))
	c.emitOpUint16(chunk.OpClosure, idx)
	for i := 0; i < popped.function.UpvalueCount; i++ {
		if popped.upvalues[i].isLocal {
			c.writeByte(1)
		} else {
			c.writeByte(0)
		}
		c.writeByte(popped.upvalues[i].index)
	}
}

func (c *Compiler) method() {
	c.consume(lexer.TokenIdentifier, "Expect method name.")
	name := c.previous.Lexeme
	nameConstant := c.stringConstant(name)
	ftype := funcTypeMethod
	if name == "init" {
		ftype = funcTypeInitializer
	}
	c.function(ftype, name)
	c.emitOpUint16(chunk.OpMethod, nameConstant)
}

func (c *Compiler) classDeclaration() {
	c.consume(lexer.TokenIdentifier, "Expect class name.")
	className := c.previous
	nameConstant := c.stringConstant(className.Lexeme)
	c.declareVariable()

	var global uint16
	isGlobal := c.fc.scopeDepth == 0
	if isGlobal {
		global = c.globalSlot(className.Lexeme)
	}
	c.emitOpUint16(chunk.OpClass, nameConstant)
	c.defineVariable(global, isGlobal)

	cc := &classCompiler{enclosing: c.cc}
	c.cc = cc

	if c.match(lexer.TokenLess) {
		c.consume(lexer.TokenIdentifier, "Expect superclass name.")
		c.namedVariable(c.previous, false)
		if c.previous.Lexeme == className.Lexeme {
			c.error("A class can't inherit from itself.")
		}
		c.beginScope()
		c.addLocal("super")
		c.markInitialized()
		c.namedVariable(className, false)
		c.emitOp(chunk.OpInherit)
		cc.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(lexer.TokenLeftBrace, "Expect '{' before class body.")
	for !c.check(lexer.TokenRightBrace) && !c.check(lexer.TokenEOF) {
		c.method()
	}
	c.consume(lexer.TokenRightBrace, "Expect '}' after class body.")
	c.emitOp(chunk.OpPop)

	if cc.hasSuperclass {
		c.endScope()
	}
	c.cc = cc.enclosing
}

// --- scope, locals, upvalues, globals ---------------------------------------

func (c *Compiler) beginScope() { c.fc.scopeDepth++ }

func (c *Compiler) endScope() {
	c.fc.scopeDepth--
	for c.fc.localCount > 0 && c.fc.locals[c.fc.localCount-1].depth > c.fc.scopeDepth {
		if c.fc.locals[c.fc.localCount-1].isCaptured {
			c.emitOp(chunk.OpCloseUpvalue)
		} else {
			c.emitOp(chunk.OpPop)
		}
		c.fc.localCount--
	}
}

func (c *Compiler) addLocal(name string) {
	if c.fc.localCount == maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fc.locals[c.fc.localCount] = localVar{name: name, depth: -1}
	c.fc.localCount++
}

func (c *Compiler) declareVariable() {
	if c.fc.scopeDepth == 0 {
		return
	}
	name := c.previous.Lexeme
	for i := c.fc.localCount - 1; i >= 0; i-- {
		l := &c.fc.locals[i]
		if l.depth != -1 && l.depth < c.fc.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

// parseVariable consumes a name token and declares it. The second
// result is true for a global (the first is then its globals-table
// slot); false means a local, already declared in place.
func (c *Compiler) parseVariable(msg string) (uint16, bool) {
	c.consume(lexer.TokenIdentifier, msg)
	c.declareVariable()
	if c.fc.scopeDepth > 0 {
		return 0, false
	}
	return c.globalSlot(c.previous.Lexeme), true
}

func (c *Compiler) globalSlot(name string) uint16 {
	return uint16(c.globals.Intern(name))
}

func (c *Compiler) markInitialized() {
	if c.fc.scopeDepth == 0 {
		return
	}
	c.fc.locals[c.fc.localCount-1].depth = c.fc.scopeDepth
}

func (c *Compiler) defineVariable(global uint16, isGlobal bool) {
	if !isGlobal {
		c.markInitialized()
		return
	}
	c.emitOpUint16(chunk.OpDefineGlobal, global)
}

func (c *Compiler) resolveLocal(fc *funcCompiler, name string) int {
	for i := fc.localCount - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (c *Compiler) resolveUpvalue(fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if local := c.resolveLocal(fc.enclosing, name); local != -1 {
		fc.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(fc, byte(local), true)
	}
	if up := c.resolveUpvalue(fc.enclosing, name); up != -1 {
		return c.addUpvalue(fc, byte(up), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(fc *funcCompiler, index byte, isLocal bool) int {
	count := fc.function.UpvalueCount
	for i := 0; i < count; i++ {
		if fc.upvalues[i].index == index && fc.upvalues[i].isLocal == isLocal {
			return i
		}
	}
	if count == maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues[count] = upvalueRef{index: index, isLocal: isLocal}
	fc.function.UpvalueCount++
	return count
}

// namedVariable resolves tok as local, upvalue, or (falling through)
// global, and emits the matching GET or SET -- or, for slot 0 of a
// method/initializer, the dedicated GET_THIS opcode.
func (c *Compiler) namedVariable(tok lexer.Token, canAssign bool) {
	if slot := c.resolveLocal(c.fc, tok.Lexeme); slot != -1 {
		if slot == 0 && c.fc.locals[0].name == "this" {
			// this_ always calls in with canAssign=false; a stray '='
			// after it is left for parsePrecedence's generic "Invalid
			// assignment target" check to catch.
			c.emitOp(chunk.OpGetThis)
			return
		}
		if canAssign && c.match(lexer.TokenEqual) {
			c.expression()
			c.emitOpByte(chunk.OpSetLocal, byte(slot))
		} else {
			c.emitOpByte(chunk.OpGetLocal, byte(slot))
		}
		return
	}
	if up := c.resolveUpvalue(c.fc, tok.Lexeme); up != -1 {
		if canAssign && c.match(lexer.TokenEqual) {
			c.expression()
			c.emitOpByte(chunk.OpSetUpvalue, byte(up))
		} else {
			c.emitOpByte(chunk.OpGetUpvalue, byte(up))
		}
		return
	}
	idx := c.globalSlot(tok.Lexeme)
	if canAssign && c.match(lexer.TokenEqual) {
		c.expression()
		c.emitOpUint16(chunk.OpSetGlobal, idx)
	} else {
		c.emitOpUint16(chunk.OpGetGlobal, idx)
	}
}

// --- token stream & error reporting ------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Next()
		if c.current.Type != lexer.TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t lexer.TokenType) bool { return c.current.Type == t }

func (c *Compiler) match(t lexer.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t lexer.TokenType, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) error(msg string) { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }

func (c *Compiler) errorAt(tok lexer.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	fmt.Fprintf(c.stderr, "[line %d] Error", tok.Line)
	switch tok.Type {
	case lexer.TokenEOF:
		fmt.Fprint(c.stderr, " at end")
	case lexer.TokenError:
		// lexeme IS the message; nothing more to name.
	default:
		fmt.Fprintf(c.stderr, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(c.stderr, ": %s\n", msg)
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != lexer.TokenEOF {
		if c.previous.Type == lexer.TokenSemicolon {
			return
		}
		switch c.current.Type {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn,
			lexer.TokenSwitch:
			return
		}
		c.advance()
	}
}

// --- emission and static stack-depth analysis --------------------------------

func (c *Compiler) writeByte(b byte) {
	c.fc.function.Chunk.Write(b, c.previous.Line)
}

func (c *Compiler) writeUint16(v uint16) {
	c.fc.function.Chunk.WriteUint16(v, c.previous.Line)
}

// emitOp appends op and applies its static stack-effect entry. It
// also clears the peephole-fusion tracking set by emitSmall; callers
// that need an op tracked as a fusable source re-arm it right after.
func (c *Compiler) emitOp(op chunk.OpCode) {
	c.writeByte(byte(op))
	c.applyUsage(op)
	c.fc.hasLastPush = false
}

func (c *Compiler) emitOpByte(op chunk.OpCode, operand byte) {
	c.emitOp(op)
	c.writeByte(operand)
}

func (c *Compiler) emitOpUint16(op chunk.OpCode, operand uint16) {
	c.emitOp(op)
	c.writeUint16(operand)
}

// emitInvoke appends INVOKE/SUPER_INVOKE's two operands (a name
// constant plus an argument count) and corrects for the arguments the
// opcode's table entry doesn't itself account for (see adjustForArgs).
func (c *Compiler) emitInvoke(op chunk.OpCode, name uint16, argCount int) {
	c.emitOp(op)
	c.writeUint16(name)
	c.writeByte(byte(argCount))
	c.adjustForArgs(argCount)
}

// adjustForArgs corrects CALL/INVOKE/SUPER_INVOKE's height bookkeeping
// for the arguments they pop: each argument's own push already bumped
// peakHeight correctly, so only the running height needs unwinding,
// by argCount (the table entries for these opcodes leave the arguments
// out -- 0 for CALL and INVOKE, -1 for SUPER_INVOKE's popped
// superclass -- so this is applied once, here, uniformly).
func (c *Compiler) adjustForArgs(argCount int) {
	c.fc.stackHeight -= argCount
}

func (c *Compiler) applyUsage(op chunk.OpCode) {
	u := usageOf(op)
	before := c.fc.stackHeight
	if peak := before + u.peak; peak > c.fc.peakHeight {
		c.fc.peakHeight = peak
	}
	c.fc.stackHeight = before + u.delta
}

// emitSmall appends one of the small-integer constant-push opcodes
// and arms it as a peephole-fusion source for an immediately
// following arithmetic opcode (see tryFuse).
func (c *Compiler) emitSmall(op chunk.OpCode) {
	c.emitOp(op)
	c.fc.hasLastPush = true
	c.fc.lastPushOp = op
	c.fc.lastPushAt = len(c.fc.function.Chunk.Code) - 1
}

func (c *Compiler) canFuse(src chunk.OpCode) bool {
	return c.fc.hasLastPush && c.fc.lastPushOp == src &&
		c.fc.lastPushAt == len(c.fc.function.Chunk.Code)-1
}

// tryFuse rewrites an armed small-constant push into fused in place
// of emitting the arithmetic opcode that would otherwise follow it.
// It reports whether a fusion happened.
func (c *Compiler) tryFuse(src, fused chunk.OpCode) bool {
	if !c.canFuse(src) {
		return false
	}
	c.fc.function.Chunk.Code[c.fc.lastPushAt] = byte(fused)
	// The armed push's +1 was already applied; correct the running
	// height to the fused opcode's own net effect (0 for the fused
	// binary ops, +1 for CONSTANT_NEGATIVE_ONE).
	c.fc.stackHeight += usageOf(fused).delta - usageOf(src).delta
	c.fc.hasLastPush = false
	return true
}

// emitBranchPop emits an OP_POP that runs on an alternative control
// path whose operand the running height already counted as popped on
// the other path, so its delta must not be applied twice.
func (c *Compiler) emitBranchPop() {
	c.emitOp(chunk.OpPop)
	c.fc.stackHeight++
}

func (c *Compiler) emitJump(op chunk.OpCode) int {
	c.emitOp(op)
	c.writeByte(0xff)
	c.writeByte(0xff)
	return len(c.fc.function.Chunk.Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.fc.function.Chunk.Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
	}
	code := c.fc.function.Chunk.Code
	code[offset] = byte(jump)
	code[offset+1] = byte(jump >> 8)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(chunk.OpLoop)
	offset := len(c.fc.function.Chunk.Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.writeByte(byte(offset))
	c.writeByte(byte(offset >> 8))
}

func (c *Compiler) makeConstant(v value.Value) uint16 {
	idx := c.fc.function.Chunk.AddConstant(v)
	if idx > 0xffff {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return uint16(idx)
}

func (c *Compiler) emitConstantValue(v value.Value) {
	c.emitOpUint16(chunk.OpConstant, c.makeConstant(v))
}

// emitNumber implements the small-constant peephole: literal values
// in {0,1,2,3,4,5} get a dedicated one-byte opcode (and are armed as
// a fusion source) instead of a constants-pool entry; -1 is handled
// separately, by unary negation fusing with OP_CONSTANT_ONE.
func (c *Compiler) emitNumber(v float64) {
	switch v {
	case 0:
		c.emitSmall(chunk.OpConstantZero)
	case 1:
		c.emitSmall(chunk.OpConstantOne)
	case 2:
		c.emitSmall(chunk.OpConstantTwo)
	case 3:
		c.emitSmall(chunk.OpConstantThree)
	case 4:
		c.emitSmall(chunk.OpConstantFour)
	case 5:
		c.emitSmall(chunk.OpConstantFive)
	default:
		c.emitConstantValue(value.Number(v))
	}
}

// stringConstant dedups name constants (property/method/class names)
// within the function currently compiling, so a name repeated in one
// body costs one pool entry. String literals are added through
// emitConstantValue and are not deduplicated. The
// String object itself still goes through the shared interner, so
// equal strings compare equal by identity at runtime regardless of
// which chunk's constant pool holds them.
func (c *Compiler) stringConstant(s string) uint16 {
	if idx, ok := c.fc.stringConstants[s]; ok {
		return uint16(idx)
	}
	str := c.heap.InternString(s)
	idx := int(c.makeConstant(object.FromString(str)))
	c.fc.stringConstants[s] = idx
	return uint16(idx)
}

// unescapeString expands the minimal backslash-escape set Crow string
// literals support (\n \t \r \\ \" \$, the last so `\${` can spell a
// literal dollar-brace without starting an interpolation).
func unescapeString(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case '$':
				b.WriteByte('$')
			default:
				b.WriteByte('\\')
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}
