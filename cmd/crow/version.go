package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const crowVersion = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the crow version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("crow version %s\n", crowVersion)
			return nil
		},
	}
}
