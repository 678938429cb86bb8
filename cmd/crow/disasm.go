package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crowlang/crow/pkg/chunk"
	"github.com/crowlang/crow/pkg/object"
	"github.com/crowlang/crow/pkg/vm"
)

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file>",
		Short: "Compile a Crow source file and print its bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "crow: %s\n", err)
				os.Exit(exitIOError)
			}

			machine := vm.New(os.Stdout, os.Stderr, vm.Options{})
			fn, ok := machine.Compile(string(source))
			if !ok {
				os.Exit(exitCompileError)
			}
			printFunction(fn, "<script>")
			return nil
		},
	}
}

// printFunction disassembles fn and then every nested function
// reachable through its constant pool, so a single `crow disasm`
// invocation shows every chunk a program compiles to, not just the
// top-level one.
func printFunction(fn *object.Function, name string) {
	upvalues := func(constantIndex int) int {
		c := fn.Chunk.Constants[constantIndex]
		if object.IsFunction(c) {
			return object.AsFunction(c).UpvalueCount
		}
		return 0
	}
	fmt.Print(chunk.Disassemble(fn.Chunk, name, upvalues))
	fmt.Println()

	for _, c := range fn.Chunk.Constants {
		if !object.IsFunction(c) {
			continue
		}
		nested := object.AsFunction(c)
		nestedName := "<fn>"
		if nested.Name != nil {
			nestedName = nested.Name.Chars
		}
		printFunction(nested, nestedName)
	}
}
