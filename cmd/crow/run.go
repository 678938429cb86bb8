package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crowlang/crow/pkg/vm"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and run a Crow source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := vmOptions()
			if err != nil {
				fmt.Fprintf(os.Stderr, "crow: %s\n", err)
				os.Exit(exitIOError)
			}
			runFile(args[0], opts)
			return nil
		},
	}
}

// runFile interprets one source file and exits with the interpreter's
// result code; it never returns.
func runFile(path string, opts vm.Options) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crow: %s\n", err)
		os.Exit(exitIOError)
	}
	machine := vm.New(os.Stdout, os.Stderr, opts)
	result := machine.Interpret(string(source))
	os.Exit(resultExitCode(result))
}
