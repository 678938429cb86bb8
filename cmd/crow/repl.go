package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crowlang/crow/pkg/vm"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive Crow session",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := vmOptions()
			if err != nil {
				return err
			}
			runREPL(opts)
			return nil
		},
	}
}

// runREPL hosts a persistent VM across the whole session, so globals
// and class declarations from one input remain visible to the next.
// An input is complete once its braces balance back to zero and it
// ends with a semicolon or closing brace.
func runREPL(opts vm.Options) {
	fmt.Println("crow REPL")
	fmt.Println("Type ':help' for help, ':quit' or ':exit' to exit")
	fmt.Println()

	machine := vm.New(os.Stdout, os.Stderr, opts)
	scanner := bufio.NewScanner(os.Stdin)

	var buf strings.Builder
	depth := 0

	for {
		if buf.Len() == 0 {
			fmt.Print("crow> ")
		} else {
			fmt.Print("....> ")
		}

		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		if buf.Len() == 0 {
			switch strings.TrimSpace(line) {
			case ":quit", ":exit":
				fmt.Println("Goodbye!")
				return
			case ":help":
				printREPLHelp()
				continue
			case "":
				continue
			}
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		depth += strings.Count(line, "{") - strings.Count(line, "}")

		trimmed := strings.TrimSpace(buf.String())
		complete := depth <= 0 && (strings.HasSuffix(trimmed, ";") || strings.HasSuffix(trimmed, "}"))
		if !complete {
			continue
		}

		machine.Interpret(buf.String())
		buf.Reset()
		depth = 0
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "crow: %s\n", err)
	}
}

func printREPLHelp() {
	fmt.Println("crow REPL help")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  :help     Show this help message")
	fmt.Println("  :quit     Exit the REPL")
	fmt.Println("  :exit     Exit the REPL")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  - Enter statements and press Enter; they run once complete")
	fmt.Println("  - Variables and classes persist across statements")
	fmt.Println()
	fmt.Println("Example:")
	fmt.Println("  crow> var x = 42;")
	fmt.Println("  crow> print x + 8;")
	fmt.Println()
}
