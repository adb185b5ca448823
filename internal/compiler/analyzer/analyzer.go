package analyzer

import (
	"algc/internal/compiler/ast"
	"algc/internal/compiler/diag"
	"algc/internal/compiler/scope"
	"algc/internal/compiler/symbols"
	"algc/internal/compiler/token"
	"algc/internal/compiler/types"
)

// Analyzer is the read-only semantic pass. It owns one ScopeStack, resolves
// every identifier, infers expression types bottom-up and checks the static
// type rules. It never aborts: every finding is appended as a diagnostic and
// the traversal continues, so one run surfaces as many problems as possible.
type Analyzer struct {
	scopes *scope.Stack
	diags  diag.List

	// Enclosing routine context for return checks. Saved and restored
	// around every routine body.
	returnType *types.Type
	inRoutine  bool

	imports []string
}

func New() *Analyzer {
	a := &Analyzer{scopes: scope.NewStack()}
	// The global scope pre-registers the built-in output routine. It takes
	// one argument of any printable type.
	a.scopes.Declare("print", &symbols.SymbolInfo{
		Name:    "print",
		Kind:    symbols.KindProcedure,
		Builtin: true,
	})
	return a
}

// Analyze walks the program and returns every diagnostic found.
func (a *Analyzer) Analyze(prog *ast.Program) []diag.Diagnostic {
	for _, stmt := range prog.Statements {
		a.checkStatement(stmt)
	}
	return a.diags.All()
}

// Imports lists the import paths seen, in source order.
func (a *Analyzer) Imports() []string {
	return a.imports
}

func (a *Analyzer) report(code diag.Code, tok token.Token, format string, args ...any) {
	a.diags.Add(code, tok.Line, tok.Column, format, args...)
}

func (a *Analyzer) checkStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		a.checkVarDeclaration(s)
	case *ast.RoutineDeclaration:
		a.checkRoutineDeclaration(s)
	case *ast.ImportDeclaration:
		a.imports = append(a.imports, s.Path)
	case *ast.BlockStatement:
		a.scopes.Enter("block")
		for _, inner := range s.Statements {
			a.checkStatement(inner)
		}
		a.scopes.Exit()
	case *ast.AssignStatement:
		a.checkAssignStatement(s)
	case *ast.IfStatement:
		condType := a.requireValue(s.Condition)
		if condType != nil && condType.Kind != types.KindSimple {
			a.report(diag.TypeMismatch, s.Condition.GetToken(),
				"condition must have a simple type, got %s", condType)
		}
		a.checkStatement(s.Then)
		if s.Else != nil {
			a.checkStatement(s.Else)
		}
	case *ast.ForStatement:
		a.checkForStatement(s)
	case *ast.ReturnStatement:
		a.checkReturnStatement(s)
	case *ast.ExpressionStatement:
		if s.Expression != nil {
			a.inferExpression(s.Expression)
		}
	}
}

func (a *Analyzer) checkVarDeclaration(s *ast.VarDeclaration) {
	t := s.Type.Resolved
	if t != nil && t.Kind == types.KindArray {
		for _, d := range t.Dims {
			if d.Size() < 1 {
				a.report(diag.DeclarationError, s.Name.Token,
					"array dimension %d..%d of '%s' is empty", d.Lower, d.Upper, s.Name.Value)
			}
		}
	}

	info := &symbols.SymbolInfo{Name: s.Name.Value, Kind: symbols.KindVariable, Type: t}
	if err := a.scopes.Declare(s.Name.Value, info); err != nil {
		// First declaration wins; the existing binding stays.
		a.report(diag.DeclarationError, s.Name.Token, "%s", err.Error())
	}
}

func (a *Analyzer) checkRoutineDeclaration(s *ast.RoutineDeclaration) {
	paramTypes := make([]*types.Type, len(s.Parameters))
	for i, p := range s.Parameters {
		paramTypes[i] = p.Type.Resolved
	}

	var retType *types.Type
	kind := symbols.KindProcedure
	if s.IsFunction() {
		retType = s.ReturnType.Resolved
		kind = symbols.KindFunction
	}

	info := &symbols.SymbolInfo{
		Name:       s.Name.Value,
		Kind:       kind,
		Type:       types.NewFunction(paramTypes, retType),
		ParamTypes: paramTypes,
		ReturnType: retType,
	}
	// Declared before the body is checked so recursive self-calls resolve.
	if err := a.scopes.Declare(s.Name.Value, info); err != nil {
		a.report(diag.DeclarationError, s.Name.Token, "%s", err.Error())
	}

	a.scopes.Enter(s.Name.Value)
	for _, p := range s.Parameters {
		pInfo := &symbols.SymbolInfo{Name: p.Name.Value, Kind: symbols.KindVariable, Type: p.Type.Resolved}
		if err := a.scopes.Declare(p.Name.Value, pInfo); err != nil {
			a.report(diag.DeclarationError, p.Name.Token, "%s", err.Error())
		}
	}

	savedReturn, savedIn := a.returnType, a.inRoutine
	a.returnType, a.inRoutine = retType, true
	for _, inner := range s.Body.Statements {
		a.checkStatement(inner)
	}
	a.returnType, a.inRoutine = savedReturn, savedIn
	a.scopes.Exit()
}

func (a *Analyzer) checkAssignStatement(s *ast.AssignStatement) {
	info, ok := a.scopes.Lookup(s.Target.Value)
	if !ok {
		a.report(diag.UnresolvedIdentifier, s.Target.Token, "undeclared identifier '%s'", s.Target.Value)
		a.inferExpression(s.Value) // still surface problems in the RHS
		return
	}
	if info.Kind != symbols.KindVariable {
		a.report(diag.KindMismatch, s.Target.Token,
			"'%s' is a %s, not a variable", s.Target.Value, info.Kind)
		a.inferExpression(s.Value)
		return
	}

	valueType := a.requireValue(s.Value)

	if len(s.Indices) > 0 {
		if info.Type == nil || info.Type.Kind != types.KindArray {
			a.report(diag.KindMismatch, s.Target.Token, "'%s' is not an array", s.Target.Value)
			return
		}
		if len(s.Indices) != len(info.Type.Dims) {
			a.report(diag.TypeMismatch, s.Target.Token,
				"'%s' has %d dimension(s), got %d index expression(s)",
				s.Target.Value, len(info.Type.Dims), len(s.Indices))
		}
		for _, idx := range s.Indices {
			idxType := a.requireValue(idx)
			if idxType != nil && !idxType.Is(types.Int) {
				a.report(diag.TypeMismatch, idx.GetToken(), "array index must be int, got %s", idxType)
			}
		}
		if valueType != nil && !types.Equal(valueType, info.Type.Elem) {
			a.report(diag.TypeMismatch, s.Token,
				"cannot store %s into element of type %s", valueType, info.Type.Elem)
		}
		return
	}

	// Scalar assignment requires exact type equality, no numeric coercion.
	if valueType != nil && !types.Equal(valueType, info.Type) {
		a.report(diag.TypeMismatch, s.Token,
			"cannot assign %s to '%s' of type %s", valueType, s.Target.Value, info.Type)
	}
}

func (a *Analyzer) checkForStatement(s *ast.ForStatement) {
	info, ok := a.scopes.Lookup(s.Var.Value)
	if !ok {
		a.report(diag.UnresolvedIdentifier, s.Var.Token,
			"loop variable '%s' must be declared before the loop", s.Var.Value)
	} else if info.Kind != symbols.KindVariable {
		a.report(diag.KindMismatch, s.Var.Token, "'%s' is a %s, not a variable", s.Var.Value, info.Kind)
		info = nil
	} else if info.Type != nil && !info.Type.IsNumeric() {
		// The latch adds the step and compares with <=; only int and real
		// support that.
		a.report(diag.TypeMismatch, s.Var.Token,
			"loop variable '%s' must be numeric, got %s", s.Var.Value, info.Type)
		info = nil
	}

	initType := a.requireValue(s.Init)
	finalType := a.requireValue(s.Final)
	var stepType *types.Type
	if s.Step != nil {
		stepType = a.requireValue(s.Step)
		// The loop latch is ascending regardless of step sign; a constant
		// non-positive step can never terminate.
		if lit, isLit := s.Step.(*ast.IntegerLiteral); isLit && lit.Value <= 0 {
			a.report(diag.TypeMismatch, s.Step.GetToken(),
				"loop step must be a positive value, got %d", lit.Value)
		}
	}

	if info != nil && ok && info.Type != nil {
		for _, pair := range []struct {
			t    *types.Type
			e    ast.Expression
			what string
		}{{initType, s.Init, "initial bound"}, {stepType, s.Step, "step"}, {finalType, s.Final, "final bound"}} {
			if pair.t != nil && pair.e != nil && !types.Equal(pair.t, info.Type) {
				a.report(diag.TypeMismatch, pair.e.GetToken(),
					"loop %s has type %s, loop variable '%s' has type %s",
					pair.what, pair.t, s.Var.Value, info.Type)
			}
		}
	}

	a.checkStatement(s.Body)
}

func (a *Analyzer) checkReturnStatement(s *ast.ReturnStatement) {
	var valueType *types.Type
	if s.ReturnValue != nil {
		valueType = a.requireValue(s.ReturnValue)
	}

	if !a.inRoutine {
		// Top-level code runs in the synthesized entry routine, which
		// returns the default integer.
		if valueType != nil && !valueType.Is(types.Int) {
			a.report(diag.TypeMismatch, s.Token, "top-level return must be int, got %s", valueType)
		}
		return
	}

	if a.returnType == nil {
		if s.ReturnValue != nil {
			a.report(diag.TypeMismatch, s.Token, "procedure cannot return a value")
		}
		return
	}

	if s.ReturnValue == nil {
		a.report(diag.TypeMismatch, s.Token, "function must return a value of type %s", a.returnType)
		return
	}
	if valueType != nil && !types.Equal(valueType, a.returnType) {
		a.report(diag.TypeMismatch, s.Token,
			"cannot return %s from function returning %s", valueType, a.returnType)
	}
}

// requireValue infers an expression that sits in a value position. A nil type
// without a fresh diagnostic means a well-formed but valueless call (a
// procedure, or the built-in output routine) was used as a value, which is a
// TypeMismatch of its own.
func (a *Analyzer) requireValue(expr ast.Expression) *types.Type {
	before := a.diags.Len()
	t := a.inferExpression(expr)
	if t == nil && a.diags.Len() == before {
		a.report(diag.TypeMismatch, expr.GetToken(), "expression produces no value")
	}
	return t
}

// inferExpression computes an expression's static type bottom-up, reporting
// any violation it sees. A nil result means the type could not be
// established; callers suppress follow-on checks in that case so one error
// is not reported as five.
func (a *Analyzer) inferExpression(expr ast.Expression) *types.Type {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return types.IntType
	case *ast.RealLiteral:
		return types.RealType
	case *ast.StringLiteral:
		return types.StringType
	case *ast.GroupedExpression:
		return a.inferExpression(e.Expression)
	case *ast.Identifier:
		return a.inferIdentifier(e)
	case *ast.BinaryExpression:
		return a.inferBinary(e)
	case *ast.CallExpression:
		return a.inferCall(e)
	case *ast.IndexExpression:
		return a.inferIndex(e)
	}
	return nil
}

func (a *Analyzer) inferIdentifier(e *ast.Identifier) *types.Type {
	info, ok := a.scopes.Lookup(e.Value)
	if !ok {
		a.report(diag.UnresolvedIdentifier, e.Token, "undeclared identifier '%s'", e.Value)
		return nil
	}
	switch info.Kind {
	case symbols.KindVariable:
		return info.Type
	case symbols.KindFunction:
		// A bare function name is a first-class callable value.
		return info.Type
	default:
		a.report(diag.KindMismatch, e.Token, "'%s' is a %s and cannot be used as a value", e.Value, info.Kind)
		return nil
	}
}

func (a *Analyzer) inferBinary(e *ast.BinaryExpression) *types.Type {
	leftType := a.requireValue(e.Left)
	rightType := a.requireValue(e.Right)

	if e.Token.IsRelOp() {
		// Both operands of a comparison must have identical inferred type.
		if leftType != nil && rightType != nil && !types.Equal(leftType, rightType) {
			a.report(diag.IncomparableTypes, e.Token,
				"cannot compare %s with %s", leftType, rightType)
		}
		// Comparison results are represented as the default integer.
		return types.IntType
	}

	// Arithmetic: each operand must individually be numeric.
	ok := true
	if leftType != nil && !leftType.IsNumeric() {
		a.report(diag.TypeMismatch, e.Left.GetToken(),
			"left operand of '%s' must be numeric, got %s", e.Operator, leftType)
		ok = false
	}
	if rightType != nil && !rightType.IsNumeric() {
		a.report(diag.TypeMismatch, e.Right.GetToken(),
			"right operand of '%s' must be numeric, got %s", e.Operator, rightType)
		ok = false
	}
	if !ok || leftType == nil || rightType == nil {
		return nil
	}
	if !types.Equal(leftType, rightType) {
		a.report(diag.MixedTypeArithmetic, e.Token,
			"mixed int/real operands of '%s'; no implicit widening", e.Operator)
		return nil
	}
	return leftType
}

func (a *Analyzer) inferCall(e *ast.CallExpression) *types.Type {
	info, ok := a.scopes.Lookup(e.Callee.Value)
	if !ok {
		a.report(diag.UnknownCallee, e.Callee.Token, "call to undeclared routine '%s'", e.Callee.Value)
		for _, arg := range e.Arguments {
			a.inferExpression(arg)
		}
		return nil
	}

	if info.Builtin {
		if len(e.Arguments) != 1 {
			a.report(diag.TypeMismatch, e.Callee.Token,
				"'%s' takes exactly one argument, got %d", e.Callee.Value, len(e.Arguments))
		}
		for _, arg := range e.Arguments {
			argType := a.requireValue(arg)
			if argType != nil && argType.Kind != types.KindSimple {
				a.report(diag.TypeMismatch, arg.GetToken(), "cannot print a value of type %s", argType)
			}
		}
		return nil
	}

	var paramTypes []*types.Type
	var retType *types.Type
	switch {
	case info.Kind == symbols.KindFunction || info.Kind == symbols.KindProcedure:
		paramTypes, retType = info.ParamTypes, info.ReturnType
	case info.IsFunctionValued():
		paramTypes, retType = info.Type.Params, info.Type.Return
	default:
		a.report(diag.KindMismatch, e.Callee.Token, "'%s' is not callable", e.Callee.Value)
		for _, arg := range e.Arguments {
			a.inferExpression(arg)
		}
		return nil
	}

	if len(e.Arguments) != len(paramTypes) {
		a.report(diag.TypeMismatch, e.Callee.Token,
			"'%s' expects %d argument(s), got %d", e.Callee.Value, len(paramTypes), len(e.Arguments))
	}
	for i, arg := range e.Arguments {
		argType := a.requireValue(arg)
		if i < len(paramTypes) && argType != nil && !types.Equal(argType, paramTypes[i]) {
			a.report(diag.TypeMismatch, arg.GetToken(),
				"argument %d of '%s' has type %s, want %s", i+1, e.Callee.Value, argType, paramTypes[i])
		}
	}
	return retType
}

func (a *Analyzer) inferIndex(e *ast.IndexExpression) *types.Type {
	info, ok := a.scopes.Lookup(e.Base.Value)
	if !ok {
		a.report(diag.UnresolvedIdentifier, e.Base.Token, "undeclared identifier '%s'", e.Base.Value)
		return nil
	}
	if info.Kind != symbols.KindVariable || info.Type == nil || info.Type.Kind != types.KindArray {
		a.report(diag.KindMismatch, e.Base.Token, "'%s' is not an array", e.Base.Value)
		return nil
	}
	if len(e.Indices) != len(info.Type.Dims) {
		a.report(diag.TypeMismatch, e.Base.Token,
			"'%s' has %d dimension(s), got %d index expression(s)",
			e.Base.Value, len(info.Type.Dims), len(e.Indices))
	}
	for _, idx := range e.Indices {
		idxType := a.requireValue(idx)
		if idxType != nil && !idxType.Is(types.Int) {
			a.report(diag.TypeMismatch, idx.GetToken(), "array index must be int, got %s", idxType)
		}
	}
	return info.Type.Elem
}
