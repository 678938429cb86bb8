package vm

import (
	"unsafe"

	"github.com/crowlang/crow/pkg/object"
	"github.com/crowlang/crow/pkg/value"
)

// initialNextGC is the byte threshold that triggers the VM's first
// collection: 1 MiB, chosen so a collection isn't provoked by the
// handful of allocations every program does before it gets
// interesting.
const initialNextGC = 1 << 20

// track links obj into the VM's intrusive allocation list and charges
// its estimated size against bytesAllocated, collecting first if
// StressGC is set or the running total has crossed nextGC. Every
// allocator below (and InternString) must route its result through
// here before handing the object to any caller that might itself
// allocate -- see the push-before-further-allocation discipline each
// call site documents.
func (vm *VM) track(obj *object.Obj) {
	size := objectSize(obj)
	vm.bytesAllocated += size
	// Collect before linking obj, so this pass never sees (and never
	// sweeps) the object still under construction. collectGarbage
	// recomputes bytesAllocated from survivors, so obj's own size is
	// re-added after.
	if vm.StressGC || vm.bytesAllocated > vm.nextGC {
		vm.collectGarbage()
		vm.bytesAllocated += size
	}
	obj.Next = vm.objects
	vm.objects = obj
}

func objectSize(obj *object.Obj) uintptr {
	switch obj.Type {
	case object.TypeString:
		s := (*object.String)(unsafe.Pointer(obj))
		return unsafe.Sizeof(*s) + uintptr(len(s.Chars))
	case object.TypeFunction:
		return unsafe.Sizeof(object.Function{})
	case object.TypeClosure:
		c := (*object.Closure)(unsafe.Pointer(obj))
		return unsafe.Sizeof(*c) + uintptr(cap(c.Upvalues))*unsafe.Sizeof((*object.Upvalue)(nil))
	case object.TypeUpvalue:
		return unsafe.Sizeof(object.Upvalue{})
	case object.TypeClass:
		return unsafe.Sizeof(object.Class{})
	case object.TypeInstance:
		return unsafe.Sizeof(object.Instance{})
	case object.TypeBoundMethod:
		return unsafe.Sizeof(object.BoundMethod{})
	case object.TypeNative:
		return unsafe.Sizeof(object.Native{})
	default:
		return unsafe.Sizeof(object.Obj{})
	}
}

// NewFunction satisfies compiler.Heap.
func (vm *VM) NewFunction() *object.Function {
	fn := object.NewFunction()
	vm.track(&fn.Obj)
	return fn
}

// InternString satisfies compiler.Heap and is also pkg/vm's own
// string constructor: every Crow string, whether it came from a
// literal, a concatenation, or stringifying a value, goes through
// here so equal contents always share one allocation.
func (vm *VM) InternString(s string) *object.String {
	hash := object.HashString(s)
	if found, ok := vm.strings.FindString(hash, func(key value.Value) bool {
		return object.AsString(key).Chars == s
	}); ok {
		return object.AsString(found)
	}
	str := object.NewString(s, hash)
	// Root str on the VM stack before track(), since track() itself
	// may cross the GC threshold and collect -- at that point str
	// isn't reachable from anywhere else yet.
	vm.push(object.FromString(str))
	vm.track(&str.Obj)
	vm.strings.Set(object.FromString(str), hash, value.True)
	vm.pop()
	return str
}

func (vm *VM) NewClosure(fn *object.Function) *object.Closure {
	c := object.NewClosure(fn)
	vm.track(&c.Obj)
	return c
}

func (vm *VM) NewUpvalue(slot *value.Value) *object.Upvalue {
	uv := object.NewUpvalue(slot)
	vm.track(&uv.Obj)
	return uv
}

func (vm *VM) NewClass(name *object.String) *object.Class {
	c := object.NewClass(name)
	vm.track(&c.Obj)
	return c
}

func (vm *VM) NewInstance(class *object.Class) *object.Instance {
	inst := object.NewInstance(class)
	vm.track(&inst.Obj)
	return inst
}

func (vm *VM) NewBoundMethod(receiver value.Value, method *object.Closure) *object.BoundMethod {
	b := object.NewBoundMethod(receiver, method)
	vm.track(&b.Obj)
	return b
}

func (vm *VM) NewNative(name string, arity int, fn object.NativeFn) *object.Native {
	n := object.NewNative(name, arity, fn)
	vm.track(&n.Obj)
	return n
}

// collectGarbage runs one full tri-color mark-sweep pass: mark every
// root, trace from gray to black until nothing gray remains, drop
// unreachable keys from the string-intern pool (so the pool itself
// doesn't keep a string alive that nothing else reaches), then sweep
// the intrusive object list and recompute bytesAllocated from the
// survivors.
func (vm *VM) collectGarbage() {
	vm.markRoots()
	vm.traceReferences()
	vm.sweepStrings()
	vm.sweepObjects()
	vm.nextGC = uintptr(float64(vm.bytesAllocated) * vm.gcFactor)
}

func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(&vm.frames[i].closure.Obj)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		vm.markObject(&uv.Obj)
	}
	for _, v := range vm.globals.Values() {
		vm.markValue(v)
	}
	if vm.initString != nil {
		vm.markObject(&vm.initString.Obj)
	}
	if vm.compiler != nil {
		for _, fn := range vm.compiler.Functions() {
			vm.markObject(&fn.Obj)
		}
	}
}

func (vm *VM) markValue(v value.Value) {
	if v.IsObj() {
		vm.markObject(object.HeaderOf(v.ObjPtr()))
	}
}

func (vm *VM) markObject(obj *object.Obj) {
	if obj == nil || obj.Marked {
		return
	}
	obj.Marked = true
	vm.grayStack = append(vm.grayStack, obj)
}

func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		obj := vm.grayStack[len(vm.grayStack)-1]
		vm.grayStack = vm.grayStack[:len(vm.grayStack)-1]
		vm.blacken(obj)
	}
}

func (vm *VM) blacken(obj *object.Obj) {
	switch obj.Type {
	case object.TypeFunction:
		fn := (*object.Function)(unsafe.Pointer(obj))
		if fn.Name != nil {
			vm.markObject(&fn.Name.Obj)
		}
		for _, c := range fn.Chunk.Constants {
			vm.markValue(c)
		}
	case object.TypeClosure:
		c := (*object.Closure)(unsafe.Pointer(obj))
		vm.markObject(&c.Function.Obj)
		for _, uv := range c.Upvalues {
			if uv != nil {
				vm.markObject(&uv.Obj)
			}
		}
	case object.TypeUpvalue:
		uv := (*object.Upvalue)(unsafe.Pointer(obj))
		vm.markValue(uv.Closed)
	case object.TypeClass:
		cl := (*object.Class)(unsafe.Pointer(obj))
		vm.markObject(&cl.Name.Obj)
		cl.Methods.Iterate(func(key, val value.Value) {
			vm.markValue(key)
			vm.markValue(val)
		})
	case object.TypeInstance:
		inst := (*object.Instance)(unsafe.Pointer(obj))
		vm.markObject(&inst.Class.Obj)
		inst.Fields.Iterate(func(key, val value.Value) {
			vm.markValue(key)
			vm.markValue(val)
		})
	case object.TypeBoundMethod:
		b := (*object.BoundMethod)(unsafe.Pointer(obj))
		vm.markValue(b.Receiver)
		vm.markObject(&b.Method.Obj)
	case object.TypeString, object.TypeNative:
		// No outgoing references.
	}
}

func (vm *VM) sweepStrings() {
	vm.strings.RemoveUnmarked(func(key value.Value) bool {
		return object.HeaderOf(key.ObjPtr()).Marked
	})
}

// sweepObjects unlinks every unmarked object from the allocation list
// (Go's own collector reclaims the memory once nothing else points at
// it) and clears the mark bit on survivors, tallying their size into
// the VM's new bytesAllocated total as it goes.
func (vm *VM) sweepObjects() {
	var prev *object.Obj
	var total uintptr
	obj := vm.objects
	for obj != nil {
		if obj.Marked {
			obj.Marked = false
			total += objectSize(obj)
			prev = obj
			obj = obj.Next
			continue
		}
		next := obj.Next
		if prev == nil {
			vm.objects = next
		} else {
			prev.Next = next
		}
		obj = next
	}
	vm.bytesAllocated = total
}
