package cmd

import (
	"fmt"

	"algc/internal/compiler"

	"github.com/spf13/cobra"
)

// build: compile a source file and write the IR
var BuildCmd = &cobra.Command{
	Use:   "build [file.alg]",
	Short: "Compile a (.alg) source file into (.ll) LLVM IR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		srcPath := args[0]

		outFile, err := compiler.CompileAndWrite(srcPath, outDir)
		if err != nil {
			return err
		}

		fmt.Printf("wrote %s\n", outFile)
		return nil
	},
}
