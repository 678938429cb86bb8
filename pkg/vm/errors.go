package vm

import (
	"fmt"
	"strings"
)

// StackFrame is one entry of a runtime error's captured call stack:
// the function name (or "script" for top-level code) and the source
// line that frame was executing when the error was raised.
type StackFrame struct {
	Function string
	Line     int
}

// RuntimeError carries a runtime failure and the call stack at the
// moment it was raised, innermost frame first.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

// Error implements the error interface, rendering the message followed
// by one "[line L] in name" line per frame.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.StackTrace {
		fmt.Fprintf(&b, "\n[line %d] in %s", f.Line, f.Function)
	}
	return b.String()
}

// runtimeError captures the current call stack into a RuntimeError,
// writes it to stderr, resets the VM to an empty stack so a REPL
// session can keep going, and returns ResultRuntimeError.
func (vm *VM) runtimeError(format string, args ...any) InterpretResult {
	err := &RuntimeError{Message: fmt.Sprintf(format, args...)}
	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Function
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		err.StackTrace = append(err.StackTrace, StackFrame{
			Function: name,
			Line:     fn.Chunk.GetLine(frame.ip - 1),
		})
	}
	vm.lastError = err
	fmt.Fprintln(vm.stderr, err.Error())
	vm.resetStack()
	return ResultRuntimeError
}

// LastError returns the RuntimeError the most recent Interpret call
// ended with, or nil if it completed without one.
func (vm *VM) LastError() *RuntimeError { return vm.lastError }

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}
