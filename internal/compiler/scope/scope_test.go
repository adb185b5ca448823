package scope

import (
	"testing"

	"algc/internal/compiler/symbols"
	"algc/internal/compiler/types"
)

func variable(name string, t *types.Type) *symbols.SymbolInfo {
	return &symbols.SymbolInfo{Name: name, Kind: symbols.KindVariable, Type: t}
}

func TestShadowingAndRestore(t *testing.T) {
	st := NewStack()

	if err := st.Declare("x", variable("x", types.IntType)); err != nil {
		t.Fatalf("Declare(x) at global failed: %v", err)
	}

	st.Enter("block")
	if err := st.Declare("x", variable("x", types.RealType)); err != nil {
		t.Fatalf("Declare(x) in inner scope failed: %v", err)
	}

	info, ok := st.Lookup("x")
	if !ok {
		t.Fatal("Lookup(x) in inner scope failed")
	}
	if !info.Type.Is(types.Real) {
		t.Errorf("inner x expected=real, got=%s", info.Type)
	}

	st.Exit()

	info, ok = st.Lookup("x")
	if !ok {
		t.Fatal("Lookup(x) after Exit failed")
	}
	if !info.Type.Is(types.Int) {
		t.Errorf("restored x expected=int, got=%s", info.Type)
	}
}

func TestDuplicateDeclaration(t *testing.T) {
	st := NewStack()

	if err := st.Declare("x", variable("x", types.IntType)); err != nil {
		t.Fatalf("first Declare(x) failed: %v", err)
	}
	if err := st.Declare("x", variable("x", types.RealType)); err == nil {
		t.Fatal("second Declare(x) at same level expected an error")
	}

	// First declaration wins.
	info, _ := st.Lookup("x")
	if !info.Type.Is(types.Int) {
		t.Errorf("x after duplicate Declare expected=int, got=%s", info.Type)
	}
}

func TestInnerNamesDisappearOnExit(t *testing.T) {
	st := NewStack()

	st.Enter("block")
	if err := st.Declare("y", variable("y", types.IntType)); err != nil {
		t.Fatalf("Declare(y) failed: %v", err)
	}
	st.Exit()

	if _, ok := st.Lookup("y"); ok {
		t.Error("Lookup(y) after Exit expected to fail")
	}
}

func TestLookupCurrent(t *testing.T) {
	st := NewStack()

	if err := st.Declare("x", variable("x", types.IntType)); err != nil {
		t.Fatalf("Declare(x) failed: %v", err)
	}
	st.Enter("block")

	if _, ok := st.Lookup("x"); !ok {
		t.Error("Lookup(x) through the chain expected to succeed")
	}
	if _, ok := st.LookupCurrent("x"); ok {
		t.Error("LookupCurrent(x) in inner scope expected to fail")
	}
}

func TestDepthAndGlobalExit(t *testing.T) {
	st := NewStack()
	if st.Depth() != 1 {
		t.Fatalf("fresh stack Depth() expected=1, got=%d", st.Depth())
	}

	st.Enter("a")
	st.Enter("b")
	if st.Depth() != 3 {
		t.Fatalf("Depth() after two Enters expected=3, got=%d", st.Depth())
	}

	st.Exit()
	st.Exit()
	st.Exit() // popping the global scope is a no-op
	if st.Depth() != 1 {
		t.Fatalf("Depth() after exits expected=1, got=%d", st.Depth())
	}
}
