package types

import (
	"fmt"
	"strings"
)

// Kind discriminates the closed set of static types.
type Kind int

const (
	KindSimple Kind = iota
	KindArray
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindArray:
		return "array"
	case KindFunction:
		return "function"
	}
	return "unknown"
}

// Primitive enumerates the simple types.
type Primitive int

const (
	Int Primitive = iota
	Real
	String
)

func (p Primitive) String() string {
	switch p {
	case Int:
		return "int"
	case Real:
		return "real"
	case String:
		return "string"
	}
	return "unknown"
}

// Bounds is one array dimension, inclusive on both ends.
type Bounds struct {
	Lower int
	Upper int
}

// Size returns the element count of the dimension.
func (b Bounds) Size() int {
	return b.Upper - b.Lower + 1
}

// Type is the static type descriptor carried through both compiler passes.
// Exactly one of the kind-specific field groups is meaningful.
type Type struct {
	Kind      Kind
	Primitive Primitive // KindSimple

	Dims []Bounds // KindArray
	Elem *Type    // KindArray

	Params []*Type // KindFunction
	Return *Type   // KindFunction, nil for procedures
}

// Singletons for the simple types. Descriptors are never mutated after
// construction, so sharing is safe.
var (
	IntType    = &Type{Kind: KindSimple, Primitive: Int}
	RealType   = &Type{Kind: KindSimple, Primitive: Real}
	StringType = &Type{Kind: KindSimple, Primitive: String}
)

func NewArray(dims []Bounds, elem *Type) *Type {
	return &Type{Kind: KindArray, Dims: dims, Elem: elem}
}

func NewFunction(params []*Type, ret *Type) *Type {
	return &Type{Kind: KindFunction, Params: params, Return: ret}
}

// IsNumeric reports whether t is int or real.
func (t *Type) IsNumeric() bool {
	return t != nil && t.Kind == KindSimple && (t.Primitive == Int || t.Primitive == Real)
}

// Is reports whether t is the given simple type.
func (t *Type) Is(p Primitive) bool {
	return t != nil && t.Kind == KindSimple && t.Primitive == p
}

// Equal implements the type-equality rule shared by both passes: simple
// types must match on primitive, while arrays and functions are compared
// by outer kind only. That shortcut is deliberate; it may be tightened to
// structural equality but never loosened.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == KindSimple {
		return a.Primitive == b.Primitive
	}
	return true
}

func (t *Type) String() string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case KindSimple:
		return t.Primitive.String()
	case KindArray:
		dims := make([]string, len(t.Dims))
		for i, d := range t.Dims {
			dims[i] = fmt.Sprintf("%d..%d", d.Lower, d.Upper)
		}
		return fmt.Sprintf("array[%s] of %s", strings.Join(dims, ","), t.Elem)
	case KindFunction:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.String()
		}
		s := "func(" + strings.Join(params, ", ") + ")"
		if t.Return != nil {
			s += ": " + t.Return.String()
		}
		return s
	}
	return "unknown"
}
