package symbols

import "algc/internal/compiler/types"

// Kind distinguishes data symbols from callable symbols.
type Kind int

const (
	KindVariable Kind = iota
	KindProcedure
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindProcedure:
		return "procedure"
	case KindFunction:
		return "function"
	}
	return "unknown"
}

type SymbolInfo struct {
	Name string
	Kind Kind
	Type *types.Type

	// --- Callable specific info ---
	ParamTypes []*types.Type
	ReturnType *types.Type // functions only, nil for procedures
	Builtin    bool        // pre-registered output routine
}

// IsArray reports whether the symbol holds array-typed storage.
func (s *SymbolInfo) IsArray() bool {
	return s.Type != nil && s.Type.Kind == types.KindArray
}

// IsFunctionValued reports whether the symbol is a variable holding a
// callable handle (as opposed to a declared procedure or function).
func (s *SymbolInfo) IsFunctionValued() bool {
	return s.Kind == KindVariable && s.Type != nil && s.Type.Kind == types.KindFunction
}
