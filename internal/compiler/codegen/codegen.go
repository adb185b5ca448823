package codegen

import (
	"fmt"

	"algc/internal/compiler/ast"
	"algc/internal/compiler/diag"
	"algc/internal/compiler/token"
	"algc/internal/compiler/types"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// binding is one entry of the generator's binding table: the storage cell a
// name resolves to together with its authoritative static type. Instruction
// selection dispatches on the static type, never on the cell's IR type.
type binding struct {
	storage value.Value
	typ     *types.Type
}

// bindingScope mirrors the ScopeStack's shadow/restore discipline for the
// generator's own table.
type bindingScope struct {
	names map[string]*binding
	outer *bindingScope
}

func (s *bindingScope) lookup(name string) (*binding, bool) {
	for sc := s; sc != nil; sc = sc.outer {
		if b, ok := sc.names[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// funcEntry is one entry of the function table. It is registered before the
// function's own body is generated so recursive self-calls resolve; sibling
// routines declared later are not yet present (no forward references).
//
// The table is flat and outlives the declaring scope: a nested routine stays
// callable after its enclosing body ends, and reusing any routine name is a
// DeclarationError even where the scoped binding table would allow shadowing.
type funcEntry struct {
	fn         *ir.Func
	paramTypes []*types.Type
	returnType *types.Type // nil for procedures
}

// Generator is the IR-lowering pass. It owns its own binding table and
// function table and drives the llir/llvm builder to emit a module. On
// error it abandons the offending statement or expression only and
// continues with siblings; any diagnostic means the module must be treated
// as a failed compile by the caller.
type Generator struct {
	module   *ir.Module
	printf   *ir.Func
	bindings *bindingScope
	funcs    map[string]*funcEntry
	diags    diag.List

	// Insertion context. Saved and restored as one unit around every
	// nested routine body so code resumes exactly where the enclosing
	// body left off.
	fn         *ir.Func
	block      *ir.Block
	returnType *types.Type
	isFunction bool
	inRoutine  bool

	strPool    map[string]*ir.Global
	strCount   int
	blockCount int
}

func New() *Generator {
	m := ir.NewModule()

	printf := m.NewFunc("printf", lltypes.I32, ir.NewParam("", lltypes.NewPointer(lltypes.I8)))
	printf.Sig.Variadic = true

	return &Generator{
		module:   m,
		printf:   printf,
		bindings: &bindingScope{names: make(map[string]*binding)},
		funcs:    make(map[string]*funcEntry),
		strPool:  make(map[string]*ir.Global),
	}
}

// Diagnostics returns everything reported during generation.
func (g *Generator) Diagnostics() []diag.Diagnostic {
	return g.diags.All()
}

func (g *Generator) report(code diag.Code, tok token.Token, format string, args ...any) {
	g.diags.Add(code, tok.Line, tok.Column, format, args...)
}

func (g *Generator) enterScope() {
	g.bindings = &bindingScope{names: make(map[string]*binding), outer: g.bindings}
}

func (g *Generator) exitScope() {
	if g.bindings.outer != nil {
		g.bindings = g.bindings.outer
	}
}

func (g *Generator) newBlock(prefix string) *ir.Block {
	g.blockCount++
	return g.fn.NewBlock(fmt.Sprintf("%s_%d", prefix, g.blockCount))
}

// Generate lowers the program into an IR module. Top-level code lands in a
// synthesized zero-argument entry routine; if control falls through without
// a terminator an implicit zero return is added.
func (g *Generator) Generate(prog *ast.Program) (*ir.Module, []diag.Diagnostic) {
	mainFn := g.module.NewFunc("main", lltypes.I32)
	g.fn = mainFn
	g.block = mainFn.NewBlock("entry")

	for _, stmt := range prog.Statements {
		g.genStatement(stmt)
	}

	if g.block.Term == nil {
		g.block.NewRet(constant.NewInt(lltypes.I32, 0))
	}
	return g.module, g.diags.All()
}

func (g *Generator) genStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		g.genVarDeclaration(s)
	case *ast.RoutineDeclaration:
		g.genRoutineDeclaration(s)
	case *ast.ImportDeclaration:
		// Imports are resolved by the surrounding toolchain, nothing to lower.
	case *ast.BlockStatement:
		g.enterScope()
		for _, inner := range s.Statements {
			g.genStatement(inner)
		}
		g.exitScope()
	case *ast.AssignStatement:
		g.genAssign(s)
	case *ast.IfStatement:
		g.genIf(s)
	case *ast.ForStatement:
		g.genFor(s)
	case *ast.ReturnStatement:
		g.genReturn(s)
	case *ast.ExpressionStatement:
		if s.Expression != nil {
			g.genExpression(s.Expression)
		}
	}
}

// genVarDeclaration allocates one storage cell per name, sized by its type
// descriptor. Arrays get a single contiguous multi-dimensional cell,
// function-typed locals a callable-handle-sized cell. Shadowing an outer
// binding is handled by the scope chain; redeclaring in the same scope is an
// error and the first declaration wins.
func (g *Generator) genVarDeclaration(s *ast.VarDeclaration) {
	t := s.Type.Resolved
	if t != nil && t.Kind == types.KindArray {
		for _, d := range t.Dims {
			if d.Size() < 1 {
				g.report(diag.DeclarationError, s.Name.Token,
					"array dimension %d..%d of '%s' is empty", d.Lower, d.Upper, s.Name.Value)
			}
		}
	}

	if _, exists := g.bindings.names[s.Name.Value]; exists {
		g.report(diag.DeclarationError, s.Name.Token,
			"symbol '%s' already declared in this scope", s.Name.Value)
		return
	}

	cell := g.block.NewAlloca(llType(t))
	g.bindings.names[s.Name.Value] = &binding{storage: cell, typ: t}
}

// genRoutineDeclaration registers the routine's signature before generating
// its body (recursive self-calls resolve against the fresh entry), spills
// every parameter into a pass-by-value cell, and synthesizes a default
// return if the final block lacks a terminator. The enclosing insertion
// context is saved and restored as one unit.
func (g *Generator) genRoutineDeclaration(s *ast.RoutineDeclaration) {
	if _, exists := g.funcs[s.Name.Value]; exists {
		g.report(diag.DeclarationError, s.Name.Token,
			"routine '%s' already declared", s.Name.Value)
		return
	}

	paramTypes := make([]*types.Type, len(s.Parameters))
	irParams := make([]*ir.Param, len(s.Parameters))
	for i, p := range s.Parameters {
		paramTypes[i] = p.Type.Resolved
		irParams[i] = ir.NewParam(p.Name.Value, llType(p.Type.Resolved))
	}

	var retType *types.Type
	var llRet lltypes.Type = lltypes.Void
	if s.IsFunction() {
		retType = s.ReturnType.Resolved
		llRet = llType(retType)
	}

	irName := s.Name.Value
	if irName == "main" {
		// The synthesized entry routine owns that name.
		irName = "user_main"
	}
	fn := g.module.NewFunc(irName, llRet, irParams...)
	g.funcs[s.Name.Value] = &funcEntry{fn: fn, paramTypes: paramTypes, returnType: retType}

	savedFn, savedBlock := g.fn, g.block
	savedRet, savedIsFn, savedIn := g.returnType, g.isFunction, g.inRoutine

	g.fn = fn
	g.block = fn.NewBlock("entry")
	g.returnType = retType
	g.isFunction = s.IsFunction()
	g.inRoutine = true

	g.enterScope()
	for i, p := range fn.Params {
		cell := g.block.NewAlloca(p.Type())
		g.block.NewStore(p, cell)
		g.bindings.names[s.Parameters[i].Name.Value] = &binding{storage: cell, typ: paramTypes[i]}
	}

	for _, inner := range s.Body.Statements {
		g.genStatement(inner)
	}

	if g.block.Term == nil {
		if retType == nil {
			g.block.NewRet(nil)
		} else {
			g.block.NewRet(zeroValue(retType))
		}
	}
	g.exitScope()

	g.fn, g.block = savedFn, savedBlock
	g.returnType, g.isFunction, g.inRoutine = savedRet, savedIsFn, savedIn
}

func (g *Generator) genAssign(s *ast.AssignStatement) {
	b, ok := g.bindings.lookup(s.Target.Value)
	if !ok {
		if _, isRoutine := g.funcs[s.Target.Value]; isRoutine {
			g.report(diag.KindMismatch, s.Target.Token,
				"'%s' is a routine, not a variable", s.Target.Value)
		} else {
			g.report(diag.UnresolvedIdentifier, s.Target.Token,
				"undeclared identifier '%s'", s.Target.Value)
		}
		return
	}

	val, valType := g.genValue(s.Value)
	if val == nil {
		return
	}

	if len(s.Indices) > 0 {
		g.genIndexedStore(s, b, val, valType)
		return
	}

	// Exact type equality, no implicit numeric coercion. On mismatch
	// nothing is emitted for this statement.
	if !types.Equal(valType, b.typ) {
		g.report(diag.TypeMismatch, s.Token,
			"cannot assign %s to '%s' of type %s", valType, s.Target.Value, b.typ)
		return
	}
	g.block.NewStore(val, b.storage)
}

// genIndexedStore computes the element address with a leading zero index
// followed by one adjusted index per dimension. Surface indices are 1-based;
// addressing is 0-based.
func (g *Generator) genIndexedStore(s *ast.AssignStatement, b *binding, val value.Value, valType *types.Type) {
	if b.typ == nil || b.typ.Kind != types.KindArray {
		g.report(diag.KindMismatch, s.Target.Token, "'%s' is not an array", s.Target.Value)
		return
	}
	if len(s.Indices) != len(b.typ.Dims) {
		g.report(diag.TypeMismatch, s.Target.Token,
			"'%s' has %d dimension(s), got %d index expression(s)",
			s.Target.Value, len(b.typ.Dims), len(s.Indices))
		return
	}

	addr := g.elementAddress(b, s.Indices)
	if addr == nil {
		return
	}
	if !types.Equal(valType, b.typ.Elem) {
		g.report(diag.TypeMismatch, s.Token,
			"cannot store %s into element of type %s", valType, b.typ.Elem)
		return
	}
	g.block.NewStore(val, addr)
}

// elementAddress lowers the index expressions, shifts each from 1-based to
// 0-based, and emits the getelementptr.
func (g *Generator) elementAddress(b *binding, indices []ast.Expression) value.Value {
	gepIndices := []value.Value{constant.NewInt(lltypes.I64, 0)}
	for _, idxExpr := range indices {
		idx, idxType := g.genValue(idxExpr)
		if idx == nil {
			return nil
		}
		if !idxType.Is(types.Int) {
			g.report(diag.TypeMismatch, idxExpr.GetToken(), "array index must be int, got %s", idxType)
			return nil
		}
		adjusted := g.block.NewSub(idx, constant.NewInt(lltypes.I64, 1))
		gepIndices = append(gepIndices, adjusted)
	}
	gep := g.block.NewGetElementPtr(llType(b.typ), b.storage, gepIndices...)
	gep.InBounds = true
	return gep
}

// genIf lowers the arms into dedicated blocks. A "then" and a "merge" block
// always exist; an "else" block only when the arm does. Arms that still lack
// a terminator fall through to merge; arms ending in a return already have
// one. Positioning resumes at merge unconditionally.
func (g *Generator) genIf(s *ast.IfStatement) {
	cond := g.genCondition(s.Condition)
	if cond == nil {
		return
	}

	thenBlock := g.newBlock("if_then")
	var elseBlock *ir.Block
	if s.Else != nil {
		elseBlock = g.newBlock("if_else")
	}
	mergeBlock := g.newBlock("if_merge")

	if elseBlock != nil {
		g.block.NewCondBr(cond, thenBlock, elseBlock)
	} else {
		g.block.NewCondBr(cond, thenBlock, mergeBlock)
	}

	g.block = thenBlock
	g.genStatement(s.Then)
	if g.block.Term == nil {
		g.block.NewBr(mergeBlock)
	}

	if elseBlock != nil {
		g.block = elseBlock
		g.genStatement(s.Else)
		if g.block.Term == nil {
			g.block.NewBr(mergeBlock)
		}
	}

	g.block = mergeBlock
}

// genCondition evaluates the condition and synthesizes a not-equal-to-zero
// comparison in the condition's own static type. Comparisons already widen
// their single-bit result to the default integer, so every incoming value is
// a full-width simple value.
func (g *Generator) genCondition(expr ast.Expression) value.Value {
	v, t := g.genValue(expr)
	if v == nil {
		return nil
	}
	if t == nil || t.Kind != types.KindSimple {
		g.report(diag.TypeMismatch, expr.GetToken(), "condition must have a simple type, got %s", t)
		return nil
	}
	switch t.Primitive {
	case types.Real:
		return g.block.NewFCmp(enum.FPredONE, v, constant.NewFloat(lltypes.Double, 0))
	case types.String:
		return g.block.NewICmp(enum.IPredNE, v, constant.NewNull(lltypes.NewPointer(lltypes.I8)))
	default:
		return g.block.NewICmp(enum.IPredNE, v, constant.NewInt(lltypes.I64, 0))
	}
}

// genFor lowers the counting loop. The loop variable must already be
// declared. Step (default constant 1) and the final bound are evaluated
// once, before the loop. The latch is "updated value <= final bound"
// regardless of step sign; that ascending semantics is deliberate and
// documented.
func (g *Generator) genFor(s *ast.ForStatement) {
	b, ok := g.bindings.lookup(s.Var.Value)
	if !ok {
		g.report(diag.UnresolvedIdentifier, s.Var.Token,
			"loop variable '%s' must be declared before the loop", s.Var.Value)
		return
	}
	// The latch adds the step and compares with <=; only int and real
	// support that.
	if !b.typ.IsNumeric() {
		g.report(diag.TypeMismatch, s.Var.Token,
			"loop variable '%s' must be numeric, got %s", s.Var.Value, b.typ)
		return
	}

	initVal, initType := g.genValue(s.Init)
	if initVal == nil {
		return
	}
	if !types.Equal(initType, b.typ) {
		g.report(diag.TypeMismatch, s.Init.GetToken(),
			"loop initial bound has type %s, loop variable '%s' has type %s", initType, s.Var.Value, b.typ)
		return
	}
	g.block.NewStore(initVal, b.storage)

	var stepVal value.Value
	if s.Step != nil {
		var stepType *types.Type
		stepVal, stepType = g.genValue(s.Step)
		if stepVal == nil {
			return
		}
		if !types.Equal(stepType, b.typ) {
			g.report(diag.TypeMismatch, s.Step.GetToken(),
				"loop step has type %s, loop variable '%s' has type %s", stepType, s.Var.Value, b.typ)
			return
		}
		if lit, isLit := s.Step.(*ast.IntegerLiteral); isLit && lit.Value <= 0 {
			g.report(diag.TypeMismatch, s.Step.GetToken(),
				"loop step must be a positive value, got %d", lit.Value)
			return
		}
	} else {
		stepVal = oneValue(b.typ)
	}

	finalVal, finalType := g.genValue(s.Final)
	if finalVal == nil {
		return
	}
	if !types.Equal(finalType, b.typ) {
		g.report(diag.TypeMismatch, s.Final.GetToken(),
			"loop final bound has type %s, loop variable '%s' has type %s", finalType, s.Var.Value, b.typ)
		return
	}

	loopBlock := g.newBlock("loop")
	afterBlock := g.newBlock("afterloop")

	g.block.NewBr(loopBlock)
	g.block = loopBlock
	g.genStatement(s.Body)

	if g.block.Term == nil {
		current := g.block.NewLoad(llType(b.typ), b.storage)
		var next value.Value
		var cont value.Value
		if b.typ.Is(types.Real) {
			next = g.block.NewFAdd(current, stepVal)
			g.block.NewStore(next, b.storage)
			cont = g.block.NewFCmp(enum.FPredOLE, next, finalVal)
		} else {
			next = g.block.NewAdd(current, stepVal)
			g.block.NewStore(next, b.storage)
			cont = g.block.NewICmp(enum.IPredSLE, next, finalVal)
		}
		g.block.NewCondBr(cont, loopBlock, afterBlock)
	}
	g.block = afterBlock
}

func (g *Generator) genReturn(s *ast.ReturnStatement) {
	var val value.Value
	var valType *types.Type
	if s.ReturnValue != nil {
		val, valType = g.genValue(s.ReturnValue)
		if val == nil {
			return
		}
	}

	if !g.inRoutine {
		// Top-level return leaves the synthesized entry routine.
		if val == nil {
			g.block.NewRet(constant.NewInt(lltypes.I32, 0))
			return
		}
		if !valType.Is(types.Int) {
			g.report(diag.TypeMismatch, s.Token, "top-level return must be int, got %s", valType)
			return
		}
		g.block.NewRet(g.block.NewTrunc(val, lltypes.I32))
		return
	}

	if g.isFunction && g.returnType == nil {
		// The save/restore discipline around routine bodies guarantees a
		// return-type context inside functions; reaching this is a bug.
		g.report(diag.InternalError, s.Token, "missing expected-return-type context")
		return
	}

	if g.returnType == nil {
		if val != nil {
			g.report(diag.TypeMismatch, s.Token, "procedure cannot return a value")
			return
		}
		g.block.NewRet(nil)
		return
	}

	if val == nil {
		g.report(diag.TypeMismatch, s.Token, "function must return a value of type %s", g.returnType)
		return
	}
	if !types.Equal(valType, g.returnType) {
		g.report(diag.TypeMismatch, s.Token,
			"cannot return %s from function returning %s", valType, g.returnType)
		return
	}
	g.block.NewRet(val)
}
