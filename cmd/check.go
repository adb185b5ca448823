package cmd

import (
	"fmt"
	"os"

	"algc/internal/compiler"

	"github.com/spf13/cobra"
)

// check: run the analyzer and report diagnostics without emitting IR
var CheckCmd = &cobra.Command{
	Use:   "check [file.alg]",
	Short: "Run semantic analysis only and report diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		srcPath := args[0]

		content, err := os.ReadFile(srcPath)
		if err != nil {
			return fmt.Errorf("reading source: %w", err)
		}

		diags := compiler.Check(string(content))
		if len(diags) == 0 {
			fmt.Println("no issues found")
			return nil
		}

		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.String())
		}
		return fmt.Errorf("%d issue(s) found in %s", len(diags), srcPath)
	},
}
