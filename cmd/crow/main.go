// Command crow is Crow's CLI driver: run a script file, start a REPL,
// or disassemble a compiled chunk. Exit codes: 0 success, 65 compile
// error, 70 runtime error, 74 I/O error.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crowlang/crow/pkg/vm"
)

const (
	exitOK           = 0
	exitCompileError = 65
	exitRuntimeError = 70
	exitIOError      = 74
)

var (
	flagStressGC   bool
	flagHeapMB     int
	flagGCFactor   float64
	flagConfigPath string
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitIOError)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crow [file]",
		Short: "Crow is a bytecode interpreter for a small class-based scripting language",
		Args:  cobra.MaximumNArgs(1),
		// Bare `crow` starts the REPL and `crow PATH` runs a file, the
		// same two modes the subcommands spell out explicitly.
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := vmOptions()
			if err != nil {
				fmt.Fprintf(os.Stderr, "crow: %s\n", err)
				os.Exit(exitIOError)
			}
			if len(args) == 0 {
				runREPL(opts)
				return nil
			}
			runFile(args[0], opts)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&flagStressGC, "stress-gc", false, "collect garbage on every allocation (debugging)")
	root.PersistentFlags().IntVar(&flagHeapMB, "heap-mb", 0, "initial GC heap threshold in MiB (0 uses the built-in default)")
	root.PersistentFlags().Float64Var(&flagGCFactor, "gc-factor", 0, "GC heap growth factor after each collection (values <= 1 keep the default doubling)")
	root.PersistentFlags().StringVar(&flagConfigPath, "config", ".crow.toml", "path to an optional TOML config file")

	root.AddCommand(newRunCmd(), newReplCmd(), newDisasmCmd(), newVersionCmd())
	return root
}

// vmOptions merges .crow.toml (if present) with any flags the caller
// passed explicitly; flags win over the config file.
func vmOptions() (vm.Options, error) {
	cfg, err := loadConfig(flagConfigPath)
	if err != nil {
		return vm.Options{}, err
	}
	opts := vm.Options{
		InitialHeapBytes: uintptr(cfg.GC.InitialHeapBytes),
		GCGrowthFactor:   cfg.GC.GCGrowthFactor,
		StressGC:         cfg.GC.Stress,
	}
	if flagHeapMB > 0 {
		opts.InitialHeapBytes = uintptr(flagHeapMB) << 20
	}
	if flagGCFactor > 1 {
		opts.GCGrowthFactor = flagGCFactor
	}
	if flagStressGC {
		opts.StressGC = true
	}
	return opts, nil
}

func resultExitCode(result vm.InterpretResult) int {
	switch result {
	case vm.ResultCompileError:
		return exitCompileError
	case vm.ResultRuntimeError:
		return exitRuntimeError
	default:
		return exitOK
	}
}
