package vm

import (
	"time"

	"github.com/crowlang/crow/pkg/object"
	"github.com/crowlang/crow/pkg/value"
)

// defineNatives installs the VM's built-in native functions into
// globals, so source code sees them as ordinary (already-defined)
// global names from the first line it runs.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", 0, vm.nativeClock)
	vm.defineNative("str", 1, vm.nativeStr)
}

func (vm *VM) defineNative(name string, arity int, fn object.NativeFn) {
	native := vm.NewNative(name, arity, fn)
	idx := vm.globals.Intern(name)
	vm.globals.Set(idx, object.FromNative(native))
}

// nativeClock returns elapsed seconds since the VM started. Process
// CPU time (what C's clock() reports) has no portable Go equivalent
// without reaching for OS-specific syscalls (e.g. getrusage), which
// would cost this single native its cross-platform build -- wall-clock
// elapsed time is the practical stand-in, close enough for the timing
// scripts this native exists for.
func (vm *VM) nativeClock(args []value.Value) (value.Value, bool) {
	return value.Number(time.Since(vm.startedAt).Seconds()), true
}

// nativeStr renders its argument exactly as `print` would.
func (vm *VM) nativeStr(args []value.Value) (value.Value, bool) {
	s := object.Stringify(args[0])
	return object.FromString(vm.InternString(s)), true
}
