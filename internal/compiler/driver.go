package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"algc/internal/compiler/analyzer"
	"algc/internal/compiler/ast"
	"algc/internal/compiler/codegen"
	"algc/internal/compiler/diag"
	"algc/internal/compiler/lexer"
	"algc/internal/compiler/parser"

	"github.com/llir/llvm/ir"
)

// Compile runs the full pipeline over source text: parse, analyze, generate.
// The returned diagnostics merge all three stages. Any diagnostic means the
// module is not emittable and the compile failed, even though every pass ran
// to completion.
func Compile(source string) (*ir.Module, []diag.Diagnostic) {
	prog, parseDiags := parseProgram(source)

	var all []diag.Diagnostic
	all = append(all, parseDiags...)
	all = append(all, analyzer.New().Analyze(prog)...)

	module, genDiags := codegen.New().Generate(prog)
	all = append(all, genDiags...)

	return module, all
}

// Check runs only the front half of the pipeline: parse plus semantic
// analysis.
func Check(source string) []diag.Diagnostic {
	prog, parseDiags := parseProgram(source)

	var all []diag.Diagnostic
	all = append(all, parseDiags...)
	all = append(all, analyzer.New().Analyze(prog)...)
	return all
}

// CompileAndWrite compiles srcPath and writes the textual IR next to it
// under outDir, returning the output path.
func CompileAndWrite(srcPath, outDir string) (string, error) {
	if err := validateExtension(srcPath); err != nil {
		return "", err
	}

	content, err := readSource(srcPath)
	if err != nil {
		return "", err
	}

	module, diags := Compile(content)
	if len(diags) > 0 {
		return "", fmt.Errorf("compilation of %s failed:\n%s", srcPath, renderDiagnostics(diags))
	}

	if err := codegen.Verify(module); err != nil {
		return "", fmt.Errorf("malformed module for %s: %w", srcPath, err)
	}

	return writeOutput(module, srcPath, outDir)
}

func validateExtension(srcPath string) error {
	if filepath.Ext(srcPath) != ".alg" {
		return fmt.Errorf("source file must have a .alg extension, got %q", srcPath)
	}
	return nil
}

func readSource(srcPath string) (string, error) {
	content, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return string(content), nil
}

func parseProgram(source string) (*ast.Program, []diag.Diagnostic) {
	p := parser.New(lexer.New(source))
	prog := p.ParseProgram()
	return prog, p.Diagnostics()
}

func renderDiagnostics(diags []diag.Diagnostic) string {
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = "  " + d.String()
	}
	return strings.Join(lines, "\n")
}

func writeOutput(module *ir.Module, srcPath, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	outFile := filepath.Join(outDir, base+".ll")

	if err := os.WriteFile(outFile, []byte(module.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing output: %w", err)
	}
	return outFile, nil
}
