package cmd

import (
	"github.com/spf13/cobra"
)

var outDir string

var rootCmd = &cobra.Command{
	Use:   "algc",
	Short: "algc — compiler from .alg sources to LLVM IR",
	Long: `algc compiles .alg source files to textual LLVM IR.

Commands:
  build  Compile a (.alg) source file into (.ll) LLVM IR
  check  Run semantic analysis only and report diagnostics
`,
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "out", "output directory for build artifacts")

	rootCmd.AddCommand(BuildCmd, CheckCmd)
}
