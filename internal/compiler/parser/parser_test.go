package parser

import (
	"testing"

	"algc/internal/compiler/ast"
	"algc/internal/compiler/diag"
	"algc/internal/compiler/lexer"
	"algc/internal/compiler/types"

	"github.com/go-test/deep"
)

// checkParserErrors is a common helper function for parser tests.
func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errors := p.Errors()
	if len(errors) == 0 {
		return
	}

	t.Errorf("Parser has %d errors:", len(errors))
	for i, msg := range errors {
		t.Errorf("   Error %d: %q", i+1, msg)
	}
	t.FailNow()
}

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(lexer.New(input))
	program := p.ParseProgram()
	checkParserErrors(t, p)
	if program == nil {
		t.Fatalf("ParseProgram() returned nil")
	}
	return program
}

func TestVarDeclarations(t *testing.T) {
	tests := []struct {
		input        string
		expectedName string
		expectedType *types.Type
	}{
		{"var x: int;", "x", types.IntType},
		{"var r: real;", "r", types.RealType},
		{"var s: string;", "s", types.StringType},
		{
			"var m: array[1..3, 1..3] of real;",
			"m",
			types.NewArray([]types.Bounds{{Lower: 1, Upper: 3}, {Lower: 1, Upper: 3}}, types.RealType),
		},
		{
			"var b: array[-2..2] of int;",
			"b",
			types.NewArray([]types.Bounds{{Lower: -2, Upper: 2}}, types.IntType),
		},
		{
			"var h: func(int, real): int;",
			"h",
			types.NewFunction([]*types.Type{types.IntType, types.RealType}, types.IntType),
		},
		{
			"var cb: func();",
			"cb",
			types.NewFunction(nil, nil),
		},
	}

	for _, tt := range tests {
		program := parse(t, tt.input)

		if len(program.Statements) != 1 {
			t.Fatalf("program.Statements expected=1 statement, got=%d", len(program.Statements))
		}
		decl, ok := program.Statements[0].(*ast.VarDeclaration)
		if !ok {
			t.Fatalf("program.Statements[0] is not *ast.VarDeclaration. got=%T", program.Statements[0])
		}
		if decl.Name.Value != tt.expectedName {
			t.Errorf("decl.Name.Value expected=%q, got=%q", tt.expectedName, decl.Name.Value)
		}
		if diff := deep.Equal(decl.Type.Resolved, tt.expectedType); diff != nil {
			t.Errorf("resolved type of %q differs: %v", tt.input, diff)
		}
	}
}

func TestFunctionDeclaration(t *testing.T) {
	input := `
func add(a: int, b: int): int begin
  return a + b;
end
`
	program := parse(t, input)

	if len(program.Statements) != 1 {
		t.Fatalf("program.Statements expected=1 statement, got=%d", len(program.Statements))
	}
	decl, ok := program.Statements[0].(*ast.RoutineDeclaration)
	if !ok {
		t.Fatalf("program.Statements[0] is not *ast.RoutineDeclaration. got=%T", program.Statements[0])
	}

	if decl.Name.Value != "add" {
		t.Errorf("decl.Name.Value expected='add', got=%q", decl.Name.Value)
	}
	if !decl.IsFunction() {
		t.Error("decl.IsFunction() expected=true")
	}
	if len(decl.Parameters) != 2 {
		t.Fatalf("decl.Parameters expected=2, got=%d", len(decl.Parameters))
	}
	if decl.Parameters[0].Name.Value != "a" || decl.Parameters[1].Name.Value != "b" {
		t.Errorf("parameter names expected=a, b, got=%q, %q",
			decl.Parameters[0].Name.Value, decl.Parameters[1].Name.Value)
	}
	if !decl.ReturnType.Resolved.Is(types.Int) {
		t.Errorf("return type expected=int, got=%s", decl.ReturnType.Resolved)
	}
	if len(decl.Body.Statements) != 1 {
		t.Fatalf("decl.Body.Statements expected=1, got=%d", len(decl.Body.Statements))
	}

	ret, ok := decl.Body.Statements[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("body statement is not *ast.ReturnStatement. got=%T", decl.Body.Statements[0])
	}
	if ret.ReturnValue.String() != "(a + b)" {
		t.Errorf("return value expected='(a + b)', got=%q", ret.ReturnValue.String())
	}
}

func TestProcedureDeclaration(t *testing.T) {
	input := `
proc report(msg: string) begin
  print(msg);
end
`
	program := parse(t, input)

	decl, ok := program.Statements[0].(*ast.RoutineDeclaration)
	if !ok {
		t.Fatalf("program.Statements[0] is not *ast.RoutineDeclaration. got=%T", program.Statements[0])
	}
	if decl.IsFunction() {
		t.Error("decl.IsFunction() expected=false for proc")
	}
	if decl.ReturnType != nil {
		t.Errorf("decl.ReturnType expected=nil, got=%v", decl.ReturnType)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x := 1 + 2 * 3;", "x := (1 + (2 * 3));"},
		{"x := 1 * 2 + 3;", "x := ((1 * 2) + 3);"},
		{"x := (1 + 2) * 3;", "x := (((1 + 2)) * 3);"},
		{"x := 10 - 2 - 3;", "x := ((10 - 2) - 3);"},
		{"x := a + b < c * d;", "x := ((a + b) < (c * d));"},
		{"x := a <> b;", "x := (a <> b);"},
		{"x := f(1, 2) + m[3];", "x := (f(1, 2) + m[3]);"},
	}

	for _, tt := range tests {
		program := parse(t, tt.input)

		if len(program.Statements) != 1 {
			t.Fatalf("program.Statements expected=1 statement, got=%d", len(program.Statements))
		}
		if got := program.Statements[0].String(); got != tt.expected {
			t.Errorf("String() expected=%q, got=%q", tt.expected, got)
		}
	}
}

func TestIfElseStatement(t *testing.T) {
	input := `if x < 10 then x := x + 1; else x := 0;`
	program := parse(t, input)

	stmt, ok := program.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("program.Statements[0] is not *ast.IfStatement. got=%T", program.Statements[0])
	}
	if stmt.Condition.String() != "(x < 10)" {
		t.Errorf("condition expected='(x < 10)', got=%q", stmt.Condition.String())
	}
	if _, ok := stmt.Then.(*ast.AssignStatement); !ok {
		t.Errorf("then arm is not *ast.AssignStatement. got=%T", stmt.Then)
	}
	if stmt.Else == nil {
		t.Fatal("stmt.Else expected to be present")
	}
}

func TestForStatement(t *testing.T) {
	input := `for i := 1 step 2 until 10 do print(i);`
	program := parse(t, input)

	stmt, ok := program.Statements[0].(*ast.ForStatement)
	if !ok {
		t.Fatalf("program.Statements[0] is not *ast.ForStatement. got=%T", program.Statements[0])
	}
	if stmt.Var.Value != "i" {
		t.Errorf("loop variable expected='i', got=%q", stmt.Var.Value)
	}
	if stmt.Init.String() != "1" || stmt.Step.String() != "2" || stmt.Final.String() != "10" {
		t.Errorf("loop bounds expected=1/2/10, got=%s/%s/%s",
			stmt.Init.String(), stmt.Step.String(), stmt.Final.String())
	}
}

func TestForStatementWithoutStep(t *testing.T) {
	input := `for i := 1 until 10 do print(i);`
	program := parse(t, input)

	stmt, ok := program.Statements[0].(*ast.ForStatement)
	if !ok {
		t.Fatalf("program.Statements[0] is not *ast.ForStatement. got=%T", program.Statements[0])
	}
	if stmt.Step != nil {
		t.Errorf("stmt.Step expected=nil, got=%v", stmt.Step)
	}
}

func TestIndexedAssignment(t *testing.T) {
	input := `m[i, j + 1] := 42;`
	program := parse(t, input)

	stmt, ok := program.Statements[0].(*ast.AssignStatement)
	if !ok {
		t.Fatalf("program.Statements[0] is not *ast.AssignStatement. got=%T", program.Statements[0])
	}
	if stmt.Target.Value != "m" {
		t.Errorf("target expected='m', got=%q", stmt.Target.Value)
	}
	if len(stmt.Indices) != 2 {
		t.Fatalf("stmt.Indices expected=2, got=%d", len(stmt.Indices))
	}
	if stmt.Indices[1].String() != "(j + 1)" {
		t.Errorf("second index expected='(j + 1)', got=%q", stmt.Indices[1].String())
	}
}

func TestCallStatement(t *testing.T) {
	input := `apply(f, 10);`
	program := parse(t, input)

	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("program.Statements[0] is not *ast.ExpressionStatement. got=%T", program.Statements[0])
	}
	call, ok := stmt.Expression.(*ast.CallExpression)
	if !ok {
		t.Fatalf("stmt.Expression is not *ast.CallExpression. got=%T", stmt.Expression)
	}
	if call.Callee.Value != "apply" {
		t.Errorf("callee expected='apply', got=%q", call.Callee.Value)
	}
	if len(call.Arguments) != 2 {
		t.Errorf("call.Arguments expected=2, got=%d", len(call.Arguments))
	}
}

func TestImportDeclaration(t *testing.T) {
	input := `import "mathlib";`
	program := parse(t, input)

	stmt, ok := program.Statements[0].(*ast.ImportDeclaration)
	if !ok {
		t.Fatalf("program.Statements[0] is not *ast.ImportDeclaration. got=%T", program.Statements[0])
	}
	if stmt.Path != "mathlib" {
		t.Errorf("import path expected='mathlib', got=%q", stmt.Path)
	}
}

func TestSyntaxErrorRecovery(t *testing.T) {
	// The bad declaration must not hide the valid statement after it.
	input := `var ;
x := 1;`

	p := New(lexer.New(input))
	program := p.ParseProgram()

	diags := p.Diagnostics()
	if len(diags) == 0 {
		t.Fatal("expected at least one syntax diagnostic")
	}
	for _, d := range diags {
		if d.Code != diag.SyntaxError {
			t.Errorf("diagnostic code expected=%s, got=%s", diag.SyntaxError, d.Code)
		}
	}

	if len(program.Statements) != 1 {
		t.Fatalf("program.Statements expected=1 recovered statement, got=%d", len(program.Statements))
	}
	if _, ok := program.Statements[0].(*ast.AssignStatement); !ok {
		t.Errorf("recovered statement is not *ast.AssignStatement. got=%T", program.Statements[0])
	}
}

func TestDiagnosticsCarryPositions(t *testing.T) {
	input := "\n\nvar 1: int;"

	p := New(lexer.New(input))
	p.ParseProgram()

	diags := p.Diagnostics()
	if len(diags) == 0 {
		t.Fatal("expected a syntax diagnostic")
	}
	if diags[0].Line != 3 {
		t.Errorf("diagnostic line expected=3, got=%d", diags[0].Line)
	}
}
