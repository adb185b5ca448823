package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
)

// Verify checks the well-formedness invariant this generator can actually
// break: every basic block of every defined function must end in exactly one
// terminator. Declarations (no body) are skipped.
func Verify(m *ir.Module) error {
	for _, fn := range m.Funcs {
		if len(fn.Blocks) == 0 {
			continue
		}
		for _, block := range fn.Blocks {
			if block.Term == nil {
				return fmt.Errorf("function %q: block %q has no terminator", fn.Name(), block.Name())
			}
		}
	}
	return nil
}
