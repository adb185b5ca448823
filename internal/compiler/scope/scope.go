package scope

import (
	"fmt"

	"algc/internal/compiler/symbols"
)

// Scope is one lexical mapping layer. Layers link outward, so popping the
// innermost layer restores every name it shadowed.
type Scope struct {
	Symbols map[string]*symbols.SymbolInfo
	Outer   *Scope
	Name    string
}

func NewScope(outer *Scope, name string) *Scope {
	return &Scope{
		Symbols: make(map[string]*symbols.SymbolInfo),
		Outer:   outer,
		Name:    name,
	}
}

// Define adds a symbol to this scope level only. It returns an error if the
// name already exists at this level; shadowing an outer scope is legal.
func (s *Scope) Define(name string, info *symbols.SymbolInfo) error {
	if _, exists := s.Symbols[name]; exists {
		return fmt.Errorf("symbol '%s' already declared in this scope", name)
	}
	s.Symbols[name] = info
	return nil
}

// Lookup searches from this scope outward, innermost hit wins.
func (s *Scope) Lookup(name string) (*symbols.SymbolInfo, bool) {
	for sc := s; sc != nil; sc = sc.Outer {
		if info, ok := sc.Symbols[name]; ok {
			return info, true
		}
	}
	return nil, false
}

// LookupCurrent checks this scope level only.
func (s *Scope) LookupCurrent(name string) (*symbols.SymbolInfo, bool) {
	info, ok := s.Symbols[name]
	return info, ok
}

// Stack owns the chain of scopes for one traversal. Each compilation builds
// its own Stack; nothing here is process-global.
type Stack struct {
	current *Scope
}

func NewStack() *Stack {
	return &Stack{current: NewScope(nil, "global")}
}

// Enter pushes a fresh mapping layer.
func (st *Stack) Enter(name string) {
	st.current = NewScope(st.current, name)
}

// Exit pops the innermost layer. Bindings it shadowed become visible again;
// names it introduced disappear. Popping the global scope is a no-op.
func (st *Stack) Exit() {
	if st.current.Outer != nil {
		st.current = st.current.Outer
	}
}

// Declare binds name in the current scope.
func (st *Stack) Declare(name string, info *symbols.SymbolInfo) error {
	return st.current.Define(name, info)
}

// Lookup resolves name against the full scope chain.
func (st *Stack) Lookup(name string) (*symbols.SymbolInfo, bool) {
	return st.current.Lookup(name)
}

// LookupCurrent resolves name against the innermost scope only.
func (st *Stack) LookupCurrent(name string) (*symbols.SymbolInfo, bool) {
	return st.current.LookupCurrent(name)
}

// Depth returns the number of layers, the global scope included.
func (st *Stack) Depth() int {
	n := 0
	for sc := st.current; sc != nil; sc = sc.Outer {
		n++
	}
	return n
}
