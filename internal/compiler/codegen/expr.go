package codegen

import (
	"fmt"

	"algc/internal/compiler/ast"
	"algc/internal/compiler/diag"
	"algc/internal/compiler/types"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genExpression lowers an expression and returns the value together with its
// authoritative static type. A nil value means lowering was abandoned after
// a diagnostic; callers skip the enclosing statement.
func (g *Generator) genExpression(expr ast.Expression) (value.Value, *types.Type) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return constant.NewInt(lltypes.I64, e.Value), types.IntType

	case *ast.RealLiteral:
		return constant.NewFloat(lltypes.Double, e.Value), types.RealType

	case *ast.StringLiteral:
		return g.stringPointer(e.Value), types.StringType

	case *ast.GroupedExpression:
		return g.genExpression(e.Expression)

	case *ast.Identifier:
		return g.genIdentifier(e)

	case *ast.BinaryExpression:
		if e.Token.IsRelOp() {
			return g.genComparison(e)
		}
		return g.genArithmetic(e)

	case *ast.CallExpression:
		return g.genCall(e)

	case *ast.IndexExpression:
		return g.genIndexLoad(e)
	}
	return nil, nil
}

// genValue lowers an expression that sits in a value position. A nil value
// without a fresh diagnostic means a well-formed but valueless call (a
// procedure, or the built-in output routine) was used as a value, which is a
// TypeMismatch of its own.
func (g *Generator) genValue(expr ast.Expression) (value.Value, *types.Type) {
	before := g.diags.Len()
	v, t := g.genExpression(expr)
	if v == nil && g.diags.Len() == before {
		g.report(diag.TypeMismatch, expr.GetToken(), "expression produces no value")
	}
	return v, t
}

// genIdentifier loads a plain variable's cell, or yields a declared
// function's callable handle as a first-class value. Procedures are not
// values; only the function table's entries with a return type qualify
// (a registered routine without one was declared proc).
func (g *Generator) genIdentifier(e *ast.Identifier) (value.Value, *types.Type) {
	if b, ok := g.bindings.lookup(e.Value); ok {
		return g.block.NewLoad(llType(b.typ), b.storage), b.typ
	}
	if entry, ok := g.funcs[e.Value]; ok {
		if entry.returnType == nil {
			g.report(diag.KindMismatch, e.Token,
				"'%s' is a procedure and cannot be used as a value", e.Value)
			return nil, nil
		}
		return entry.fn, types.NewFunction(entry.paramTypes, entry.returnType)
	}
	g.report(diag.UnresolvedIdentifier, e.Token, "undeclared identifier '%s'", e.Value)
	return nil, nil
}

// genArithmetic lowers one step of the left-folded operand sequence. The
// running left type and the right type must be identical (int-int or
// real-real); a mismatch is a hard TypeMismatch, never a coercion
// opportunity. The uniform operand type selects integer or float forms.
func (g *Generator) genArithmetic(e *ast.BinaryExpression) (value.Value, *types.Type) {
	left, leftType := g.genValue(e.Left)
	if left == nil {
		return nil, nil
	}
	right, rightType := g.genValue(e.Right)
	if right == nil {
		return nil, nil
	}

	if !leftType.IsNumeric() {
		g.report(diag.TypeMismatch, e.Left.GetToken(),
			"left operand of '%s' must be numeric, got %s", e.Operator, leftType)
		return nil, nil
	}
	if !rightType.IsNumeric() {
		g.report(diag.TypeMismatch, e.Right.GetToken(),
			"right operand of '%s' must be numeric, got %s", e.Operator, rightType)
		return nil, nil
	}
	if !types.Equal(leftType, rightType) {
		g.report(diag.TypeMismatch, e.Token,
			"operands of '%s' have mixed types %s and %s; no implicit widening",
			e.Operator, leftType, rightType)
		return nil, nil
	}

	if leftType.Is(types.Real) {
		switch e.Operator {
		case "+":
			return g.block.NewFAdd(left, right), types.RealType
		case "-":
			return g.block.NewFSub(left, right), types.RealType
		case "*":
			return g.block.NewFMul(left, right), types.RealType
		case "/":
			return g.block.NewFDiv(left, right), types.RealType
		}
	} else {
		switch e.Operator {
		case "+":
			return g.block.NewAdd(left, right), types.IntType
		case "-":
			return g.block.NewSub(left, right), types.IntType
		case "*":
			return g.block.NewMul(left, right), types.IntType
		case "/":
			return g.block.NewSDiv(left, right), types.IntType
		}
	}
	g.report(diag.InternalError, e.Token, "unknown arithmetic operator %q", e.Operator)
	return nil, nil
}

// genComparison lowers a relational expression. Operand types must be
// identical; the single-bit result is widened to the default integer
// representation since the language has no distinct boolean type.
func (g *Generator) genComparison(e *ast.BinaryExpression) (value.Value, *types.Type) {
	left, leftType := g.genValue(e.Left)
	if left == nil {
		return nil, nil
	}
	right, rightType := g.genValue(e.Right)
	if right == nil {
		return nil, nil
	}

	if !types.Equal(leftType, rightType) {
		g.report(diag.IncomparableTypes, e.Token, "cannot compare %s with %s", leftType, rightType)
		return nil, nil
	}
	if leftType.Kind != types.KindSimple {
		g.report(diag.IncomparableTypes, e.Token, "cannot compare values of type %s", leftType)
		return nil, nil
	}

	var bit value.Value
	if leftType.Is(types.Real) {
		bit = g.block.NewFCmp(fpredFor(e.Operator), left, right)
	} else {
		bit = g.block.NewICmp(ipredFor(e.Operator), left, right)
	}
	return g.block.NewZExt(bit, lltypes.I64), types.IntType
}

func ipredFor(op string) enum.IPred {
	switch op {
	case "=":
		return enum.IPredEQ
	case "<>":
		return enum.IPredNE
	case "<":
		return enum.IPredSLT
	case "<=":
		return enum.IPredSLE
	case ">":
		return enum.IPredSGT
	default:
		return enum.IPredSGE
	}
}

func fpredFor(op string) enum.FPred {
	switch op {
	case "=":
		return enum.FPredOEQ
	case "<>":
		return enum.FPredONE
	case "<":
		return enum.FPredOLT
	case "<=":
		return enum.FPredOLE
	case ">":
		return enum.FPredOGT
	default:
		return enum.FPredOGE
	}
}

// genIndexLoad lowers m[i, j]: element addressing plus a load.
func (g *Generator) genIndexLoad(e *ast.IndexExpression) (value.Value, *types.Type) {
	b, ok := g.bindings.lookup(e.Base.Value)
	if !ok {
		g.report(diag.UnresolvedIdentifier, e.Base.Token, "undeclared identifier '%s'", e.Base.Value)
		return nil, nil
	}
	if b.typ == nil || b.typ.Kind != types.KindArray {
		g.report(diag.KindMismatch, e.Base.Token, "'%s' is not an array", e.Base.Value)
		return nil, nil
	}
	if len(e.Indices) != len(b.typ.Dims) {
		g.report(diag.TypeMismatch, e.Base.Token,
			"'%s' has %d dimension(s), got %d index expression(s)",
			e.Base.Value, len(b.typ.Dims), len(e.Indices))
		return nil, nil
	}

	addr := g.elementAddress(b, e.Indices)
	if addr == nil {
		return nil, nil
	}
	return g.block.NewLoad(llType(b.typ.Elem), addr), b.typ.Elem
}

// genCall resolves a call in priority order: the built-in output routine,
// a callable bound in the binding table, then a globally declared routine.
func (g *Generator) genCall(e *ast.CallExpression) (value.Value, *types.Type) {
	if e.Callee.Value == "print" {
		return g.genPrint(e)
	}

	if b, ok := g.bindings.lookup(e.Callee.Value); ok {
		return g.genIndirectCall(e, b)
	}

	if entry, ok := g.funcs[e.Callee.Value]; ok {
		return g.genDirectCall(e, entry)
	}

	g.report(diag.UnknownCallee, e.Callee.Token, "call to undeclared routine '%s'", e.Callee.Value)
	return nil, nil
}

// genPrint lowers the built-in output routine. The printf format is chosen
// by the argument's static value type: real prints %f, string %s, everything
// else %d.
func (g *Generator) genPrint(e *ast.CallExpression) (value.Value, *types.Type) {
	if len(e.Arguments) != 1 {
		g.report(diag.TypeMismatch, e.Callee.Token,
			"'print' takes exactly one argument, got %d", len(e.Arguments))
		return nil, nil
	}

	arg, argType := g.genValue(e.Arguments[0])
	if arg == nil {
		return nil, nil
	}
	if argType == nil || argType.Kind != types.KindSimple {
		g.report(diag.TypeMismatch, e.Arguments[0].GetToken(),
			"cannot print a value of type %s", argType)
		return nil, nil
	}

	var format string
	switch argType.Primitive {
	case types.Real:
		format = "%f\n"
	case types.String:
		format = "%s\n"
	default:
		format = "%d\n"
	}
	g.block.NewCall(g.printf, g.stringPointer(format), arg)
	return nil, nil
}

// genDirectCall lowers a call to a globally declared routine: evaluate the
// arguments, adapt any function-valued argument to the parameter's callable
// pointer representation, call directly.
func (g *Generator) genDirectCall(e *ast.CallExpression, entry *funcEntry) (value.Value, *types.Type) {
	if len(e.Arguments) != len(entry.paramTypes) {
		g.report(diag.TypeMismatch, e.Callee.Token,
			"'%s' expects %d argument(s), got %d",
			e.Callee.Value, len(entry.paramTypes), len(e.Arguments))
		return nil, nil
	}

	args := make([]value.Value, 0, len(e.Arguments))
	for i, argExpr := range e.Arguments {
		arg, argType := g.genValue(argExpr)
		if arg == nil {
			return nil, nil
		}
		if !types.Equal(argType, entry.paramTypes[i]) {
			g.report(diag.TypeMismatch, argExpr.GetToken(),
				"argument %d of '%s' has type %s, want %s",
				i+1, e.Callee.Value, argType, entry.paramTypes[i])
			return nil, nil
		}
		if argType.Kind == types.KindFunction {
			arg = g.adaptCallable(arg, llType(entry.paramTypes[i]))
		}
		args = append(args, arg)
	}

	result := g.block.NewCall(entry.fn, args...)
	if entry.returnType == nil {
		return nil, nil
	}
	return result, entry.returnType
}

// genIndirectCall lowers a call through a function-valued binding. The call
// signature is recovered in priority order: (a) the binding's declared
// Function type, (b) the loaded handle's own type, (c) a signature
// synthesized from the actual argument types with a default integer return.
// Tier (c) is an unsound last resort and is always flagged.
func (g *Generator) genIndirectCall(e *ast.CallExpression, b *binding) (value.Value, *types.Type) {
	if b.typ == nil || b.typ.Kind != types.KindFunction {
		g.report(diag.KindMismatch, e.Callee.Token, "'%s' is not callable", e.Callee.Value)
		return nil, nil
	}

	handle := g.block.NewLoad(llType(b.typ), b.storage)

	args := make([]value.Value, 0, len(e.Arguments))
	argLLTypes := make([]lltypes.Type, 0, len(e.Arguments))
	for i, argExpr := range e.Arguments {
		arg, argType := g.genValue(argExpr)
		if arg == nil {
			return nil, nil
		}
		if i < len(b.typ.Params) && !types.Equal(argType, b.typ.Params[i]) {
			g.report(diag.TypeMismatch, argExpr.GetToken(),
				"argument %d of '%s' has type %s, want %s",
				i+1, e.Callee.Value, argType, b.typ.Params[i])
			return nil, nil
		}
		args = append(args, arg)
		argLLTypes = append(argLLTypes, arg.Type())
	}
	if len(e.Arguments) != len(b.typ.Params) {
		g.report(diag.TypeMismatch, e.Callee.Token,
			"'%s' expects %d argument(s), got %d",
			e.Callee.Value, len(b.typ.Params), len(e.Arguments))
		return nil, nil
	}

	sig, retType := g.recoverSignature(e, b, handle, argLLTypes)

	// Adapt the handle's representation if it does not already match the
	// resolved signature.
	var callee value.Value = handle
	want := lltypes.NewPointer(sig)
	if !handle.Type().Equal(want) {
		callee = g.block.NewBitCast(handle, want)
	}

	result := g.block.NewCall(callee, args...)
	if retType == nil {
		return nil, nil
	}
	return result, retType
}

// recoverSignature implements the three-tier signature recovery for
// higher-order calls.
func (g *Generator) recoverSignature(e *ast.CallExpression, b *binding, handle value.Value, argLLTypes []lltypes.Type) (*lltypes.FuncType, *types.Type) {
	// Tier (a): the binding carries its full static Function descriptor.
	// Every binding this generator creates does, so the tiers below fire
	// only if that invariant is ever relaxed.
	if b.typ != nil && b.typ.Kind == types.KindFunction {
		return llSignature(b.typ), b.typ.Return
	}

	// Tier (b): the loaded handle's own IR type.
	if ptr, ok := handle.Type().(*lltypes.PointerType); ok {
		if fnType, ok := ptr.ElemType.(*lltypes.FuncType); ok {
			var ret *types.Type
			if !fnType.RetType.Equal(lltypes.Void) {
				ret = types.IntType
			}
			return fnType, ret
		}
	}

	// Tier (c): synthesize from the actual argument shapes with a default
	// integer return. Unsound; never to be extended.
	g.report(diag.UnsoundSignature, e.Callee.Token,
		"signature of '%s' recovered from argument shapes; the call may be unsound", e.Callee.Value)
	return lltypes.NewFunc(lltypes.I64, argLLTypes...), types.IntType
}

// stringPointer returns a pointer into pooled literal storage, creating the
// global on first use of each distinct text.
func (g *Generator) stringPointer(text string) value.Value {
	global, ok := g.strPool[text]
	if !ok {
		g.strCount++
		global = g.module.NewGlobalDef(fmt.Sprintf("str_%d", g.strCount),
			constant.NewCharArrayFromString(text+"\x00"))
		g.strPool[text] = global
	}
	elemType := global.Type().(*lltypes.PointerType).ElemType
	zero := constant.NewInt(lltypes.I32, 0)
	gep := g.block.NewGetElementPtr(elemType, global, zero, zero)
	gep.InBounds = true
	return gep
}
