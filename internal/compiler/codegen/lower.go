package codegen

import (
	"algc/internal/compiler/types"

	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// llType maps a static type descriptor onto its storage representation:
// int -> i64, real -> double, string -> i8*, arrays -> one contiguous nested
// array aggregate, function values -> a callable-handle pointer.
func llType(t *types.Type) lltypes.Type {
	if t == nil {
		return lltypes.Void
	}
	switch t.Kind {
	case types.KindSimple:
		switch t.Primitive {
		case types.Real:
			return lltypes.Double
		case types.String:
			return lltypes.NewPointer(lltypes.I8)
		default:
			return lltypes.I64
		}
	case types.KindArray:
		cur := llType(t.Elem)
		for i := len(t.Dims) - 1; i >= 0; i-- {
			size := t.Dims[i].Size()
			if size < 1 {
				// Empty ranges were already diagnosed; clamp so the
				// aggregate stays addressable.
				size = 1
			}
			cur = lltypes.NewArray(uint64(size), cur)
		}
		return cur
	case types.KindFunction:
		return lltypes.NewPointer(llSignature(t))
	}
	return lltypes.Void
}

// llSignature maps a Function descriptor onto the IR function type.
func llSignature(t *types.Type) *lltypes.FuncType {
	params := make([]lltypes.Type, len(t.Params))
	for i, p := range t.Params {
		params[i] = llType(p)
	}
	var ret lltypes.Type = lltypes.Void
	if t.Return != nil {
		ret = llType(t.Return)
	}
	return lltypes.NewFunc(ret, params...)
}

// zeroValue is the default return synthesized when a routine body falls
// through without a terminator.
func zeroValue(t *types.Type) constant.Constant {
	switch {
	case t == nil:
		return constant.NewInt(lltypes.I64, 0)
	case t.Is(types.Real):
		return constant.NewFloat(lltypes.Double, 0)
	case t.Is(types.Int):
		return constant.NewInt(lltypes.I64, 0)
	case t.Is(types.String):
		return constant.NewNull(lltypes.NewPointer(lltypes.I8))
	case t.Kind == types.KindFunction:
		return constant.NewNull(lltypes.NewPointer(llSignature(t)))
	default:
		return constant.NewZeroInitializer(llType(t))
	}
}

// oneValue is the implicit loop step. It returns nil for non-numeric types.
func oneValue(t *types.Type) constant.Constant {
	switch {
	case t.Is(types.Int):
		return constant.NewInt(lltypes.I64, 1)
	case t.Is(types.Real):
		return constant.NewFloat(lltypes.Double, 1)
	default:
		return nil
	}
}

// adaptCallable reinterprets a callable handle's representation when it does
// not already match the target pointer type. Representation only, never a
// numeric coercion.
func (g *Generator) adaptCallable(v value.Value, want lltypes.Type) value.Value {
	if v.Type().Equal(want) {
		return v
	}
	return g.block.NewBitCast(v, want)
}
