package vm

import (
	"unsafe"

	"github.com/crowlang/crow/pkg/object"
	"github.com/crowlang/crow/pkg/value"
)

// maxFrames bounds recursion depth; exceeding it is how Crow reports
// "Stack overflow." rather than letting the Go call stack (there is
// none here -- this is an explicit frame array) or the value stack
// grow without limit.
const maxFrames = 1000

// callValue implements OP_CALL's dispatch: a Closure is invoked
// directly, a Class constructs an Instance (routing through its init
// method if it has one), a BoundMethod substitutes its receiver for
// the callee slot and calls its underlying Closure, and a Native is
// invoked in Go directly against the argument slice. Anything else is
// not callable.
func (vm *VM) callValue(callee value.Value, argCount int) bool {
	if !callee.IsObj() {
		vm.runtimeError("Can only call functions and classes.")
		return false
	}
	switch object.TypeOf(callee.ObjPtr()) {
	case object.TypeClosure:
		return vm.call(object.AsClosure(callee), argCount)
	case object.TypeClass:
		class := object.AsClass(callee)
		inst := vm.NewInstance(class)
		vm.stack[vm.stackTop-argCount-1] = object.FromInstance(inst)
		if initVal, ok := class.Methods.Get(object.FromString(vm.initString), vm.initString.Hash); ok {
			return vm.call(object.AsClosure(initVal), argCount)
		}
		if argCount != 0 {
			vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			return false
		}
		return true
	case object.TypeBoundMethod:
		bound := object.AsBoundMethod(callee)
		vm.stack[vm.stackTop-argCount-1] = bound.Receiver
		return vm.call(bound.Method, argCount)
	case object.TypeNative:
		native := object.AsNative(callee)
		if argCount != native.Arity {
			vm.runtimeError("Expected %d arguments but got %d.", native.Arity, argCount)
			return false
		}
		args := vm.stack[vm.stackTop-argCount : vm.stackTop]
		result, ok := native.Fn(args)
		if !ok {
			vm.runtimeError("%s", object.Stringify(result))
			return false
		}
		vm.stackTop -= argCount + 1
		vm.push(result)
		return true
	default:
		vm.runtimeError("Can only call functions and classes.")
		return false
	}
}

// call pushes a new frame for closure, after checking its arity and
// growing the value stack to whatever its static slot analysis
// reserved.
func (vm *VM) call(closure *object.Closure, argCount int) bool {
	if argCount != closure.Function.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
		return false
	}
	if vm.frameCount == maxFrames {
		vm.runtimeError("Stack overflow.")
		return false
	}
	vm.ensureStackCapacity(closure.Function.Chunk.Slots)
	frame := &vm.frames[vm.frameCount]
	frame.closure = closure
	frame.ip = 0
	frame.slotsBase = vm.stackTop - argCount - 1
	vm.frameCount++
	return true
}

// invoke implements OP_INVOKE's fast path: a field that happens to
// hold a callable value shadows a same-named method (matching
// OP_GET_PROPERTY's own field-before-method lookup order), otherwise
// the receiver's class method table is searched directly without
// allocating a BoundMethod.
func (vm *VM) invoke(name *object.String, argCount int) bool {
	receiver := vm.peek(argCount)
	if !object.IsInstance(receiver) {
		vm.runtimeError("Only instances have methods.")
		return false
	}
	inst := object.AsInstance(receiver)
	if field, ok := inst.Fields.Get(object.FromString(name), name.Hash); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(inst.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *object.Class, name *object.String, argCount int) bool {
	method, ok := class.Methods.Get(object.FromString(name), name.Hash)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	return vm.call(object.AsClosure(method), argCount)
}

// bindMethod looks up name on class, binds it to the value currently
// on top of the stack (the instance for OP_GET_PROPERTY, `this` for
// OP_GET_SUPER), and replaces that value with the BoundMethod.
func (vm *VM) bindMethod(class *object.Class, name *object.String) bool {
	method, ok := class.Methods.Get(object.FromString(name), name.Hash)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	bound := vm.NewBoundMethod(vm.peek(0), object.AsClosure(method))
	vm.pop()
	vm.push(object.FromBoundMethod(bound))
	return true
}

// captureUpvalue returns the open upvalue for local, creating one if
// none exists yet. vm.openUpvalues stays sorted by strictly
// decreasing stack address so closeUpvalues can stop at the first
// upvalue below the cutoff instead of walking the whole list.
func (vm *VM) captureUpvalue(local *value.Value) *object.Upvalue {
	var prev *object.Upvalue
	cur := vm.openUpvalues
	for cur != nil && uintptr(unsafe.Pointer(cur.Location)) > uintptr(unsafe.Pointer(local)) {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Location == local {
		return cur
	}
	created := vm.NewUpvalue(local)
	created.Next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue whose Location is at or
// above from, used both when a scope's locals go out of scope and
// when a frame returns.
func (vm *VM) closeUpvalues(from *value.Value) {
	for vm.openUpvalues != nil && uintptr(unsafe.Pointer(vm.openUpvalues.Location)) >= uintptr(unsafe.Pointer(from)) {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.Next
	}
}
