package ast

import (
	"bytes"
	"fmt"
	"strings"

	"algc/internal/compiler/token"
	"algc/internal/compiler/types"
)

// --- Interfaces ---

type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
}

// --- Program ---

type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// --- Type syntax ---

// TypeNode carries the type descriptor the parser resolved from the type
// syntax. Bounds are constant expressions, so resolution happens at parse
// time and both passes read the same descriptor.
type TypeNode struct {
	Token    token.Token
	Resolved *types.Type
}

func (tn *TypeNode) TokenLiteral() string { return tn.Token.Literal }
func (tn *TypeNode) String() string {
	if tn.Resolved == nil {
		return "?"
	}
	return tn.Resolved.String()
}

// --- Statements ---

// VarDeclaration -> var x: int;
type VarDeclaration struct {
	Token token.Token // var
	Name  *Identifier
	Type  *TypeNode
}

func (vd *VarDeclaration) statementNode()       {}
func (vd *VarDeclaration) TokenLiteral() string { return vd.Token.Literal }
func (vd *VarDeclaration) String() string {
	return fmt.Sprintf("var %s: %s;", vd.Name.String(), vd.Type.String())
}

type Parameter struct {
	Name *Identifier
	Type *TypeNode
}

func (p *Parameter) String() string {
	return p.Name.String() + ": " + p.Type.String()
}

// RoutineDeclaration -> proc name(a: int) begin ... end
// or func name(a: int): int begin ... end. ReturnType is nil for procedures.
type RoutineDeclaration struct {
	Token      token.Token // proc or func
	Name       *Identifier
	Parameters []*Parameter
	ReturnType *TypeNode
	Body       *BlockStatement
}

func (rd *RoutineDeclaration) statementNode()       {}
func (rd *RoutineDeclaration) TokenLiteral() string { return rd.Token.Literal }
func (rd *RoutineDeclaration) IsFunction() bool     { return rd.ReturnType != nil }
func (rd *RoutineDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString(rd.TokenLiteral() + " " + rd.Name.String() + "(")
	params := []string{}
	for _, p := range rd.Parameters {
		params = append(params, p.String())
	}
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(")")
	if rd.ReturnType != nil {
		out.WriteString(": " + rd.ReturnType.String())
	}
	out.WriteString(" ")
	out.WriteString(rd.Body.String())
	return out.String()
}

// ImportDeclaration -> import "name";
type ImportDeclaration struct {
	Token token.Token // import
	Path  string
}

func (id *ImportDeclaration) statementNode()       {}
func (id *ImportDeclaration) TokenLiteral() string { return id.Token.Literal }
func (id *ImportDeclaration) String() string {
	return fmt.Sprintf("import %q;", id.Path)
}

// BlockStatement -> begin statement... end
type BlockStatement struct {
	Token      token.Token // begin
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("begin\n")
	for _, s := range bs.Statements {
		out.WriteString("\t" + s.String() + "\n")
	}
	out.WriteString("end")
	return out.String()
}

// AssignStatement -> x := e; or m[i, j] := e;
type AssignStatement struct {
	Token   token.Token // :=
	Target  *Identifier
	Indices []Expression // nil for scalar targets
	Value   Expression
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) String() string {
	var out bytes.Buffer
	out.WriteString(as.Target.String())
	if len(as.Indices) > 0 {
		idx := []string{}
		for _, e := range as.Indices {
			idx = append(idx, e.String())
		}
		out.WriteString("[" + strings.Join(idx, ", ") + "]")
	}
	out.WriteString(" := ")
	out.WriteString(as.Value.String())
	out.WriteString(";")
	return out.String()
}

// IfStatement -> if cond then S [else S]
type IfStatement struct {
	Token     token.Token // if
	Condition Expression
	Then      Statement
	Else      Statement // nil when absent
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if " + is.Condition.String() + " then " + is.Then.String())
	if is.Else != nil {
		out.WriteString(" else " + is.Else.String())
	}
	return out.String()
}

// ForStatement -> for i := e1 [step e2] until e3 do S
type ForStatement struct {
	Token token.Token // for
	Var   *Identifier
	Init  Expression
	Step  Expression // nil means constant 1
	Final Expression
	Body  Statement
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) String() string {
	var out bytes.Buffer
	out.WriteString("for " + fs.Var.String() + " := " + fs.Init.String())
	if fs.Step != nil {
		out.WriteString(" step " + fs.Step.String())
	}
	out.WriteString(" until " + fs.Final.String() + " do " + fs.Body.String())
	return out.String()
}

// ReturnStatement -> return expression;
type ReturnStatement struct {
	Token       token.Token
	ReturnValue Expression // nil for bare return
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) String() string {
	var out bytes.Buffer
	out.WriteString("return")
	if rs.ReturnValue != nil {
		out.WriteString(" " + rs.ReturnValue.String())
	}
	out.WriteString(";")
	return out.String()
}

// ExpressionStatement wraps an expression used as a statement (a call).
type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String() + ";"
	}
	return ";"
}

// --- Expressions ---

// Identifier -> varName
type Identifier struct {
	Token token.Token // IDENT
	Value string
}

func (i *Identifier) expressionNode()       {}
func (i *Identifier) TokenLiteral() string  { return i.Token.Literal }
func (i *Identifier) String() string        { return i.Value }
func (i *Identifier) GetToken() token.Token { return i.Token }

// IntegerLiteral -> 123
type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()       {}
func (il *IntegerLiteral) TokenLiteral() string  { return il.Token.Literal }
func (il *IntegerLiteral) String() string        { return il.Token.Literal }
func (il *IntegerLiteral) GetToken() token.Token { return il.Token }

// RealLiteral -> 1.5
type RealLiteral struct {
	Token token.Token
	Value float64
}

func (rl *RealLiteral) expressionNode()       {}
func (rl *RealLiteral) TokenLiteral() string  { return rl.Token.Literal }
func (rl *RealLiteral) String() string        { return rl.Token.Literal }
func (rl *RealLiteral) GetToken() token.Token { return rl.Token }

// StringLiteral -> "hello"
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Literal }
func (sl *StringLiteral) String() string        { return fmt.Sprintf("%q", sl.Value) }
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }

// BinaryExpression -> (left op right), arithmetic or relational.
type BinaryExpression struct {
	Token    token.Token // the operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (be *BinaryExpression) expressionNode()      {}
func (be *BinaryExpression) TokenLiteral() string { return be.Token.Literal }
func (be *BinaryExpression) String() string {
	return "(" + be.Left.String() + " " + be.Operator + " " + be.Right.String() + ")"
}
func (be *BinaryExpression) GetToken() token.Token { return be.Token }

// GroupedExpression -> (expression)
type GroupedExpression struct {
	Token      token.Token // '('
	Expression Expression
}

func (ge *GroupedExpression) expressionNode()      {}
func (ge *GroupedExpression) TokenLiteral() string { return ge.Token.Literal }
func (ge *GroupedExpression) String() string {
	return "(" + ge.Expression.String() + ")"
}
func (ge *GroupedExpression) GetToken() token.Token { return ge.Token }

// CallExpression -> callee(arg1, arg2)
type CallExpression struct {
	Token     token.Token // the callee name token
	Callee    *Identifier
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	args := []string{}
	for _, a := range ce.Arguments {
		args = append(args, a.String())
	}
	return ce.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}
func (ce *CallExpression) GetToken() token.Token { return ce.Token }

// IndexExpression -> m[i, j]
type IndexExpression struct {
	Token   token.Token // the base name token
	Base    *Identifier
	Indices []Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) String() string {
	idx := []string{}
	for _, e := range ie.Indices {
		idx = append(idx, e.String())
	}
	return ie.Base.String() + "[" + strings.Join(idx, ", ") + "]"
}
func (ie *IndexExpression) GetToken() token.Token { return ie.Token }
