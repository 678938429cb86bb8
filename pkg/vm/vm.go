// Package vm implements Crow's stack-based bytecode interpreter: the
// call-frame machinery, the operand stack (growable, with upvalue
// rebasing on reallocation), the switch-dispatch instruction loop, and
// the tri-color mark-sweep collector (gc.go) that cooperates with it.
// pkg/vm is also where pkg/compiler's Heap interface is implemented,
// since every Crow object -- whether allocated while compiling or
// while running -- has to be tracked by the same GC.
package vm

import (
	"io"
	"time"
	"unsafe"

	"github.com/crowlang/crow/pkg/chunk"
	"github.com/crowlang/crow/pkg/compiler"
	"github.com/crowlang/crow/pkg/globals"
	"github.com/crowlang/crow/pkg/object"
	"github.com/crowlang/crow/pkg/table"
	"github.com/crowlang/crow/pkg/value"
)

// InterpretResult reports how an Interpret call ended; cmd/crow maps
// these onto process exit codes 0/65/70.
type InterpretResult int

const (
	ResultOK InterpretResult = iota
	ResultCompileError
	ResultRuntimeError
)

const initialStackCapacity = 256

// CallFrame is one live call's bookkeeping: which Closure is running,
// where its instruction pointer is in that closure's Chunk, and where
// its local-variable window starts in the shared value stack.
//
// slotsBase is an index into vm.stack rather than a raw pointer:
// indices stay valid across a stack reallocation for free, so only
// Upvalue.Location (which must be a real pointer -- it's read and
// written through directly by GET_UPVALUE/SET_UPVALUE without the
// owning frame in scope) needs the rebasing dance in
// ensureStackCapacity.
type CallFrame struct {
	closure   *object.Closure
	ip        int
	slotsBase int
}

// VM is one Crow interpreter instance: its value stack, call frames,
// heap (the intrusive allocation list, string-intern pool, and GC
// state), and global-variable table. A VM is reused across a REPL
// session's successive Interpret calls, which is why globals and the
// intern table live on it rather than being rebuilt per call.
type VM struct {
	stack    []value.Value
	stackTop int

	frames     [maxFrames]CallFrame
	frameCount int

	openUpvalues *object.Upvalue

	globals *globals.Globals
	strings *table.Table

	objects        *object.Obj
	grayStack      []*object.Obj
	bytesAllocated uintptr
	nextGC         uintptr
	gcFactor       float64
	initString     *object.String

	// StressGC forces a collection on every single allocation instead
	// of waiting for bytesAllocated to cross nextGC -- wired to
	// .crow.toml's [gc] stress key (cmd/crow/config.go).
	StressGC bool

	compiler  *compiler.Compiler
	lastError *RuntimeError
	startedAt time.Time

	stdout io.Writer
	stderr io.Writer
}

// Options configures a new VM; the zero value is every default.
type Options struct {
	InitialHeapBytes uintptr
	// GCGrowthFactor scales the next collection threshold from the
	// bytes surviving the last one; values at or below 1 (including
	// the zero value) fall back to the default doubling.
	GCGrowthFactor float64
	StressGC       bool
}

// New returns a ready-to-use VM writing program output to stdout and
// error/diagnostic output to stderr.
func New(stdout, stderr io.Writer, opts Options) *VM {
	vm := &VM{
		globals:   globals.New(),
		strings:   table.New(),
		nextGC:    initialNextGC,
		gcFactor:  2,
		StressGC:  opts.StressGC,
		startedAt: time.Now(),
		stdout:    stdout,
		stderr:    stderr,
	}
	if opts.InitialHeapBytes > 0 {
		vm.nextGC = opts.InitialHeapBytes
	}
	if opts.GCGrowthFactor > 1 {
		vm.gcFactor = opts.GCGrowthFactor
	}
	vm.initString = vm.InternString("init")
	vm.defineNatives()
	return vm
}

// Compile compiles source against this VM's heap and globals without
// running it. The compiler is registered as a GC root for the
// duration, so a collection mid-compile can't reclaim functions still
// under construction.
func (vm *VM) Compile(source string) (*object.Function, bool) {
	c := compiler.New(source, vm.globals, vm, vm.stderr)
	vm.compiler = c
	fn, ok := c.Compile()
	vm.compiler = nil
	return fn, ok
}

// Interpret compiles source and, if compilation succeeds, runs it to
// completion (or to its first runtime error).
func (vm *VM) Interpret(source string) InterpretResult {
	vm.lastError = nil
	fn, ok := vm.Compile(source)
	if !ok {
		return ResultCompileError
	}
	// Root fn across the closure allocation: with the compiler gone it
	// isn't reachable from anywhere else yet, and NewClosure can
	// collect.
	vm.push(object.FromFunction(fn))
	closure := vm.NewClosure(fn)
	vm.pop()
	vm.push(object.FromClosure(closure))
	if !vm.call(closure, 0) {
		return ResultRuntimeError
	}
	return vm.run()
}

// --- stack primitives --------------------------------------------------------

// ensureStackCapacity grows the value stack so at least extra more
// slots are available above stackTop, rebasing every open upvalue's
// Location if the backing array moved. Called with the Chunk's
// static Slots count before every call, and defensively (with extra=1)
// from push so no instruction can overflow it even if slot accounting
// were ever conservative in the wrong direction.
func (vm *VM) ensureStackCapacity(extra int) {
	needed := vm.stackTop + extra
	if needed <= len(vm.stack) {
		return
	}
	newCap := len(vm.stack)
	if newCap == 0 {
		newCap = initialStackCapacity
	}
	for newCap < needed {
		newCap *= 2
	}
	old := vm.stack
	newStack := make([]value.Value, newCap)
	copy(newStack, old[:vm.stackTop])
	vm.stack = newStack
	if len(old) > 0 {
		vm.rebaseUpvalues(&old[0], &newStack[0])
	}
}

func (vm *VM) rebaseUpvalues(oldBase, newBase *value.Value) {
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		uv.Location = rebase(oldBase, newBase, uv.Location)
	}
}

func rebase(oldBase, newBase, loc *value.Value) *value.Value {
	var zero value.Value
	size := unsafe.Sizeof(zero)
	offset := (uintptr(unsafe.Pointer(loc)) - uintptr(unsafe.Pointer(oldBase))) / size
	return (*value.Value)(unsafe.Pointer(uintptr(unsafe.Pointer(newBase)) + offset*size))
}

func (vm *VM) push(v value.Value) {
	vm.ensureStackCapacity(1)
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// --- bytecode reads -----------------------------------------------------------

func (vm *VM) readByte(frame *CallFrame) byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (vm *VM) readUint16(frame *CallFrame) uint16 {
	lo := vm.readByte(frame)
	hi := vm.readByte(frame)
	return uint16(lo) | uint16(hi)<<8
}

func (vm *VM) readConstant(frame *CallFrame) value.Value {
	return frame.closure.Function.Chunk.Constants[vm.readUint16(frame)]
}

func (vm *VM) readString(frame *CallFrame) *object.String {
	return object.AsString(vm.readConstant(frame))
}

// --- arithmetic helpers ---------------------------------------------------

// binaryAdd implements OP_ADD's dynamic dispatch: two numbers add
// numerically, and anything involving a string concatenates (the
// non-string side coerced the same way the `str` native renders it).
// ADD_ONE reuses this with b fixed to Number(1), since the fusion is
// purely a dispatch-count optimization, not a type specialization --
// "abc" + 1 still has to concatenate, not add.
func (vm *VM) binaryAdd(a, b value.Value) (value.Value, bool) {
	switch {
	case a.IsNumber() && b.IsNumber():
		return value.Number(a.AsNumber() + b.AsNumber()), true
	case object.IsString(a) || object.IsString(b):
		s := object.Stringify(a) + object.Stringify(b)
		return object.FromString(vm.InternString(s)), true
	default:
		return value.Nil, false
	}
}

// --- main interpreter loop ----------------------------------------------------

func (vm *VM) run() InterpretResult {
	frame := &vm.frames[vm.frameCount-1]

	for {
		op := chunk.OpCode(vm.readByte(frame))
		switch op {

		case chunk.OpConstant:
			vm.push(vm.readConstant(frame))
		case chunk.OpNil:
			vm.push(value.Nil)
		case chunk.OpTrue:
			vm.push(value.True)
		case chunk.OpFalse:
			vm.push(value.False)
		case chunk.OpPop:
			vm.pop()
		case chunk.OpDup:
			vm.push(vm.peek(0))

		case chunk.OpConstantNegativeOne:
			vm.push(value.Number(-1))
		case chunk.OpConstantZero:
			vm.push(value.Number(0))
		case chunk.OpConstantOne:
			vm.push(value.Number(1))
		case chunk.OpConstantTwo:
			vm.push(value.Number(2))
		case chunk.OpConstantThree:
			vm.push(value.Number(3))
		case chunk.OpConstantFour:
			vm.push(value.Number(4))
		case chunk.OpConstantFive:
			vm.push(value.Number(5))

		case chunk.OpGetLocal:
			slot := vm.readByte(frame)
			vm.push(vm.stack[frame.slotsBase+int(slot)])
		case chunk.OpSetLocal:
			slot := vm.readByte(frame)
			vm.stack[frame.slotsBase+int(slot)] = vm.peek(0)

		case chunk.OpGetGlobal:
			idx := int(vm.readUint16(frame))
			v := vm.globals.Get(idx)
			if v.IsUndefined() {
				return vm.runtimeError("Undefined variable '%s'.", vm.globals.NameAt(idx))
			}
			vm.push(v)
		case chunk.OpDefineGlobal:
			idx := int(vm.readUint16(frame))
			vm.globals.Set(idx, vm.pop())
		case chunk.OpSetGlobal:
			idx := int(vm.readUint16(frame))
			if vm.globals.Get(idx).IsUndefined() {
				return vm.runtimeError("Undefined variable '%s'.", vm.globals.NameAt(idx))
			}
			vm.globals.Set(idx, vm.peek(0))

		case chunk.OpGetUpvalue:
			slot := vm.readByte(frame)
			vm.push(*frame.closure.Upvalues[slot].Location)
		case chunk.OpSetUpvalue:
			slot := vm.readByte(frame)
			*frame.closure.Upvalues[slot].Location = vm.peek(0)

		case chunk.OpGetThis:
			vm.push(vm.stack[frame.slotsBase])

		case chunk.OpGetProperty:
			name := vm.readString(frame)
			if !object.IsInstance(vm.peek(0)) {
				return vm.runtimeError("Only instances have properties.")
			}
			inst := object.AsInstance(vm.peek(0))
			if v, ok := inst.Fields.Get(object.FromString(name), name.Hash); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if !vm.bindMethod(inst.Class, name) {
				return ResultRuntimeError
			}

		case chunk.OpSetProperty:
			name := vm.readString(frame)
			if !object.IsInstance(vm.peek(1)) {
				return vm.runtimeError("Only instances have fields.")
			}
			inst := object.AsInstance(vm.peek(1))
			inst.Fields.Set(object.FromString(name), name.Hash, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)

		case chunk.OpGetSuper:
			name := vm.readString(frame)
			superclass := object.AsClass(vm.pop())
			if !vm.bindMethod(superclass, name) {
				return ResultRuntimeError
			}

		case chunk.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(a.Equal(b)))
		case chunk.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(!a.Equal(b)))
		case chunk.OpEqualZero:
			a := vm.pop()
			vm.push(value.Bool(a.Equal(value.Number(0))))

		case chunk.OpGreater, chunk.OpLess, chunk.OpGreaterEqual, chunk.OpLessEqual:
			b, a := vm.pop(), vm.pop()
			if !a.IsNumber() || !b.IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			x, y := a.AsNumber(), b.AsNumber()
			var result bool
			switch op {
			case chunk.OpGreater:
				result = x > y
			case chunk.OpLess:
				result = x < y
			case chunk.OpGreaterEqual:
				result = x >= y
			case chunk.OpLessEqual:
				result = x <= y
			}
			vm.push(value.Bool(result))

		case chunk.OpAdd:
			b, a := vm.pop(), vm.pop()
			result, ok := vm.binaryAdd(a, b)
			if !ok {
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}
			vm.push(result)
		case chunk.OpAddOne:
			a := vm.pop()
			result, ok := vm.binaryAdd(a, value.Number(1))
			if !ok {
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}
			vm.push(result)

		case chunk.OpSubtract:
			b, a := vm.pop(), vm.pop()
			if !a.IsNumber() || !b.IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.push(value.Number(a.AsNumber() - b.AsNumber()))
		case chunk.OpSubtractOne:
			a := vm.pop()
			if !a.IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.push(value.Number(a.AsNumber() - 1))

		case chunk.OpMultiply:
			b, a := vm.pop(), vm.pop()
			if !a.IsNumber() || !b.IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.push(value.Number(a.AsNumber() * b.AsNumber()))
		case chunk.OpMultiplyTwo:
			a := vm.pop()
			if !a.IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.push(value.Number(a.AsNumber() * 2))

		case chunk.OpDivide:
			b, a := vm.pop(), vm.pop()
			if !a.IsNumber() || !b.IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			vm.push(value.Number(a.AsNumber() / b.AsNumber()))

		case chunk.OpNot:
			vm.push(value.Bool(vm.pop().IsFalsey()))
		case chunk.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(value.Number(-vm.pop().AsNumber()))

		case chunk.OpPrint:
			io.WriteString(vm.stdout, object.Stringify(vm.pop()))
			io.WriteString(vm.stdout, "\n")

		case chunk.OpJump:
			offset := vm.readUint16(frame)
			frame.ip += int(offset)
		case chunk.OpJumpIfFalse:
			offset := vm.readUint16(frame)
			if vm.peek(0).IsFalsey() {
				frame.ip += int(offset)
			}
		case chunk.OpLoop:
			offset := vm.readUint16(frame)
			frame.ip -= int(offset)

		case chunk.OpCall:
			argCount := int(vm.readByte(frame))
			if !vm.callValue(vm.peek(argCount), argCount) {
				return ResultRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case chunk.OpInvoke:
			name := vm.readString(frame)
			argCount := int(vm.readByte(frame))
			if !vm.invoke(name, argCount) {
				return ResultRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case chunk.OpSuperInvoke:
			name := vm.readString(frame)
			argCount := int(vm.readByte(frame))
			superclass := object.AsClass(vm.pop())
			if !vm.invokeFromClass(superclass, name, argCount) {
				return ResultRuntimeError
			}
			frame = &vm.frames[vm.frameCount-1]

		case chunk.OpClosure:
			fn := object.AsFunction(vm.readConstant(frame))
			closure := vm.NewClosure(fn)
			vm.push(object.FromClosure(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte(frame)
				index := vm.readByte(frame)
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(&vm.stack[frame.slotsBase+int(index)])
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case chunk.OpCloseUpvalue:
			vm.closeUpvalues(&vm.stack[vm.stackTop-1])
			vm.pop()

		case chunk.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(&vm.stack[frame.slotsBase])
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return ResultOK
			}
			vm.stackTop = frame.slotsBase
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case chunk.OpClass:
			name := vm.readString(frame)
			vm.push(object.FromClass(vm.NewClass(name)))

		case chunk.OpInherit:
			superclassVal := vm.peek(1)
			if !object.IsClass(superclassVal) {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := object.AsClass(vm.peek(0))
			object.AsClass(superclassVal).Methods.AddAll(subclass.Methods)
			vm.pop()

		case chunk.OpMethod:
			name := vm.readString(frame)
			method := object.AsClosure(vm.peek(0))
			class := object.AsClass(vm.peek(1))
			class.Methods.Set(object.FromString(name), name.Hash, object.FromClosure(method))
			vm.pop()

		default:
			return vm.runtimeError("Unknown opcode %d.", byte(op))
		}
	}
}
