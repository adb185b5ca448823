package parser

import (
	"strconv"

	"algc/internal/compiler/ast"
	"algc/internal/compiler/diag"
	"algc/internal/compiler/lexer"
	"algc/internal/compiler/token"
	"algc/internal/compiler/types"
)

// Parser is a recursive-descent parser over the grammar's productions:
// program, declarations (var, proc, func, import), statements (assignment,
// if, for, call, return, block) and expressions layered as
// expression -> simple_expr -> term -> factor.
//
// Convention: every parse function is entered with curTok at the first token
// of its production and, on success, leaves curTok at the first token after
// it. On failure it reports a diagnostic and returns nil; the caller
// resynchronizes at the next statement boundary.
type Parser struct {
	l       *lexer.Lexer
	curTok  token.Token
	peekTok token.Token
	diags   diag.List
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	// Prime curTok and peekTok.
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) addError(tok token.Token, format string, args ...any) {
	p.diags.Add(diag.SyntaxError, tok.Line, tok.Column, format, args...)
}

// Diagnostics returns every syntax error found so far.
func (p *Parser) Diagnostics() []diag.Diagnostic {
	return p.diags.All()
}

// Errors renders the diagnostics as strings.
func (p *Parser) Errors() []string {
	return p.diags.Messages()
}

// expect reports an error unless curTok has the wanted type.
func (p *Parser) expect(tt token.TokenType) bool {
	if p.curTok.Type == tt {
		return true
	}
	p.addError(p.curTok, "expected %s, got %s (%q)", tt, p.curTok.Type, p.curTok.Literal)
	return false
}

// ParseProgram parses until EOF, resynchronizing after bad statements so one
// error does not hide the rest of the file.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.curTok.Type != token.TokenEOF {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		} else {
			p.synchronize()
		}
	}
	return prog
}

// synchronize skips to just past the next semicolon, or to a token that can
// begin a statement.
func (p *Parser) synchronize() {
	for p.curTok.Type != token.TokenEOF {
		if p.curTok.Type == token.TokenSemicolon {
			p.next()
			return
		}
		switch p.curTok.Type {
		case token.TokenVar, token.TokenProc, token.TokenFunc, token.TokenImport,
			token.TokenBegin, token.TokenEnd, token.TokenIf, token.TokenFor, token.TokenReturn:
			return
		}
		p.next()
	}
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curTok.Type {
	case token.TokenVar:
		return p.parseVarDeclaration()
	case token.TokenProc, token.TokenFunc:
		return p.parseRoutineDeclaration()
	case token.TokenImport:
		return p.parseImportDeclaration()
	case token.TokenBegin:
		return p.parseBlockStatement()
	case token.TokenIf:
		return p.parseIfStatement()
	case token.TokenFor:
		return p.parseForStatement()
	case token.TokenReturn:
		return p.parseReturnStatement()
	case token.TokenIdent:
		return p.parseIdentStatement()
	default:
		p.addError(p.curTok, "unexpected token %s (%q) at statement start", p.curTok.Type, p.curTok.Literal)
		return nil
	}
}

// parseVarDeclaration -> var name: type;
func (p *Parser) parseVarDeclaration() ast.Statement {
	varTok := p.curTok
	p.next()

	if !p.expect(token.TokenIdent) {
		return nil
	}
	name := &ast.Identifier{Token: p.curTok, Value: p.curTok.Literal}
	p.next()

	if !p.expect(token.TokenColon) {
		return nil
	}
	p.next()

	typeNode := p.parseTypeNode()
	if typeNode == nil {
		return nil
	}

	if !p.expect(token.TokenSemicolon) {
		return nil
	}
	p.next()

	return &ast.VarDeclaration{Token: varTok, Name: name, Type: typeNode}
}

// parseTypeNode -> int | real | string
//               | array[l..u {, l..u}] of type
//               | func(type {, type}) [: type]
func (p *Parser) parseTypeNode() *ast.TypeNode {
	tok := p.curTok

	switch p.curTok.Type {
	case token.TokenTypeLiteral:
		var t *types.Type
		switch p.curTok.Literal {
		case "int":
			t = types.IntType
		case "real":
			t = types.RealType
		case "string":
			t = types.StringType
		default:
			p.addError(p.curTok, "unknown type %q", p.curTok.Literal)
			return nil
		}
		p.next()
		return &ast.TypeNode{Token: tok, Resolved: t}

	case token.TokenArray:
		p.next()
		if !p.expect(token.TokenLBracket) {
			return nil
		}
		p.next()

		var dims []types.Bounds
		for {
			b, ok := p.parseBounds()
			if !ok {
				return nil
			}
			dims = append(dims, b)
			if p.curTok.Type != token.TokenComma {
				break
			}
			p.next()
		}

		if !p.expect(token.TokenRBracket) {
			return nil
		}
		p.next()
		if !p.expect(token.TokenOf) {
			return nil
		}
		p.next()

		elem := p.parseTypeNode()
		if elem == nil {
			return nil
		}
		return &ast.TypeNode{Token: tok, Resolved: types.NewArray(dims, elem.Resolved)}

	case token.TokenFunc:
		p.next()
		if !p.expect(token.TokenLParen) {
			return nil
		}
		p.next()

		var params []*types.Type
		if p.curTok.Type != token.TokenRParen {
			for {
				pt := p.parseTypeNode()
				if pt == nil {
					return nil
				}
				params = append(params, pt.Resolved)
				if p.curTok.Type != token.TokenComma {
					break
				}
				p.next()
			}
		}
		if !p.expect(token.TokenRParen) {
			return nil
		}
		p.next()

		var ret *types.Type
		if p.curTok.Type == token.TokenColon {
			p.next()
			rt := p.parseTypeNode()
			if rt == nil {
				return nil
			}
			ret = rt.Resolved
		}
		return &ast.TypeNode{Token: tok, Resolved: types.NewFunction(params, ret)}

	default:
		p.addError(p.curTok, "expected a type, got %s (%q)", p.curTok.Type, p.curTok.Literal)
		return nil
	}
}

// parseBounds -> constInt .. constInt
func (p *Parser) parseBounds() (types.Bounds, bool) {
	lower, ok := p.parseConstInt()
	if !ok {
		return types.Bounds{}, false
	}
	if !p.expect(token.TokenDotDot) {
		return types.Bounds{}, false
	}
	p.next()
	upper, ok := p.parseConstInt()
	if !ok {
		return types.Bounds{}, false
	}
	return types.Bounds{Lower: lower, Upper: upper}, true
}

// parseConstInt -> [-] INT. Array bounds are constant expressions evaluated
// at declaration time; an optionally signed integer literal is the supported
// form.
func (p *Parser) parseConstInt() (int, bool) {
	neg := false
	if p.curTok.Type == token.TokenMinus {
		neg = true
		p.next()
	}
	if !p.expect(token.TokenInt) {
		return 0, false
	}
	v, err := strconv.Atoi(p.curTok.Literal)
	if err != nil {
		p.addError(p.curTok, "invalid integer literal %q", p.curTok.Literal)
		return 0, false
	}
	p.next()
	if neg {
		v = -v
	}
	return v, true
}

// parseRoutineDeclaration -> proc name(params) body
//                         | func name(params): type body
func (p *Parser) parseRoutineDeclaration() ast.Statement {
	declTok := p.curTok
	isFunc := p.curTok.Type == token.TokenFunc
	p.next()

	if !p.expect(token.TokenIdent) {
		return nil
	}
	name := &ast.Identifier{Token: p.curTok, Value: p.curTok.Literal}
	p.next()

	if !p.expect(token.TokenLParen) {
		return nil
	}
	p.next()

	var params []*ast.Parameter
	if p.curTok.Type != token.TokenRParen {
		for {
			param := p.parseParameter()
			if param == nil {
				return nil
			}
			params = append(params, param)
			if p.curTok.Type != token.TokenComma {
				break
			}
			p.next()
		}
	}
	if !p.expect(token.TokenRParen) {
		return nil
	}
	p.next()

	var retType *ast.TypeNode
	if isFunc {
		if !p.expect(token.TokenColon) {
			return nil
		}
		p.next()
		retType = p.parseTypeNode()
		if retType == nil {
			return nil
		}
	}

	if !p.expect(token.TokenBegin) {
		return nil
	}
	body := p.parseBlockStatement()
	if body == nil {
		return nil
	}
	block, ok := body.(*ast.BlockStatement)
	if !ok {
		return nil
	}

	return &ast.RoutineDeclaration{
		Token:      declTok,
		Name:       name,
		Parameters: params,
		ReturnType: retType,
		Body:       block,
	}
}

func (p *Parser) parseParameter() *ast.Parameter {
	if !p.expect(token.TokenIdent) {
		return nil
	}
	name := &ast.Identifier{Token: p.curTok, Value: p.curTok.Literal}
	p.next()

	if !p.expect(token.TokenColon) {
		return nil
	}
	p.next()

	typeNode := p.parseTypeNode()
	if typeNode == nil {
		return nil
	}
	return &ast.Parameter{Name: name, Type: typeNode}
}

// parseImportDeclaration -> import "name";
func (p *Parser) parseImportDeclaration() ast.Statement {
	importTok := p.curTok
	p.next()

	if !p.expect(token.TokenString) {
		return nil
	}
	path := p.curTok.Literal
	p.next()

	if !p.expect(token.TokenSemicolon) {
		return nil
	}
	p.next()

	return &ast.ImportDeclaration{Token: importTok, Path: path}
}

// parseBlockStatement -> begin statement... end [;]
func (p *Parser) parseBlockStatement() ast.Statement {
	beginTok := p.curTok
	p.next()

	block := &ast.BlockStatement{Token: beginTok}
	for p.curTok.Type != token.TokenEnd && p.curTok.Type != token.TokenEOF {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		} else {
			p.synchronize()
		}
	}

	if !p.expect(token.TokenEnd) {
		return nil
	}
	p.next()
	if p.curTok.Type == token.TokenSemicolon {
		p.next()
	}
	return block
}

// parseIfStatement -> if expression then statement [else statement]
func (p *Parser) parseIfStatement() ast.Statement {
	ifTok := p.curTok
	p.next()

	cond := p.parseExpression()
	if cond == nil {
		return nil
	}

	if !p.expect(token.TokenThen) {
		return nil
	}
	p.next()

	then := p.parseStatement()
	if then == nil {
		return nil
	}

	var elseStmt ast.Statement
	if p.curTok.Type == token.TokenElse {
		p.next()
		elseStmt = p.parseStatement()
		if elseStmt == nil {
			return nil
		}
	}

	return &ast.IfStatement{Token: ifTok, Condition: cond, Then: then, Else: elseStmt}
}

// parseForStatement -> for name := expr [step expr] until expr do statement
func (p *Parser) parseForStatement() ast.Statement {
	forTok := p.curTok
	p.next()

	if !p.expect(token.TokenIdent) {
		return nil
	}
	loopVar := &ast.Identifier{Token: p.curTok, Value: p.curTok.Literal}
	p.next()

	if !p.expect(token.TokenAssign) {
		return nil
	}
	p.next()

	initExpr := p.parseExpression()
	if initExpr == nil {
		return nil
	}

	var step ast.Expression
	if p.curTok.Type == token.TokenStep {
		p.next()
		step = p.parseExpression()
		if step == nil {
			return nil
		}
	}

	if !p.expect(token.TokenUntil) {
		return nil
	}
	p.next()

	final := p.parseExpression()
	if final == nil {
		return nil
	}

	if !p.expect(token.TokenDo) {
		return nil
	}
	p.next()

	body := p.parseStatement()
	if body == nil {
		return nil
	}

	return &ast.ForStatement{Token: forTok, Var: loopVar, Init: initExpr, Step: step, Final: final, Body: body}
}

// parseReturnStatement -> return [expression];
func (p *Parser) parseReturnStatement() ast.Statement {
	retTok := p.curTok
	p.next()

	var value ast.Expression
	if p.curTok.Type != token.TokenSemicolon {
		value = p.parseExpression()
		if value == nil {
			return nil
		}
	}

	if !p.expect(token.TokenSemicolon) {
		return nil
	}
	p.next()

	return &ast.ReturnStatement{Token: retTok, ReturnValue: value}
}

// parseIdentStatement handles the statements that begin with an identifier:
// scalar assignment, indexed assignment and call statements.
func (p *Parser) parseIdentStatement() ast.Statement {
	identTok := p.curTok
	name := &ast.Identifier{Token: identTok, Value: identTok.Literal}
	p.next()

	switch p.curTok.Type {
	case token.TokenLParen:
		args, ok := p.parseArguments()
		if !ok {
			return nil
		}
		if !p.expect(token.TokenSemicolon) {
			return nil
		}
		p.next()
		return &ast.ExpressionStatement{
			Token:      identTok,
			Expression: &ast.CallExpression{Token: identTok, Callee: name, Arguments: args},
		}

	case token.TokenLBracket:
		indices, ok := p.parseIndexList()
		if !ok {
			return nil
		}
		assignTok := p.curTok
		if !p.expect(token.TokenAssign) {
			return nil
		}
		p.next()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		if !p.expect(token.TokenSemicolon) {
			return nil
		}
		p.next()
		return &ast.AssignStatement{Token: assignTok, Target: name, Indices: indices, Value: value}

	case token.TokenAssign:
		assignTok := p.curTok
		p.next()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		if !p.expect(token.TokenSemicolon) {
			return nil
		}
		p.next()
		return &ast.AssignStatement{Token: assignTok, Target: name, Value: value}

	default:
		p.addError(p.curTok, "expected ':=', '[' or '(' after identifier %q", name.Value)
		return nil
	}
}

// parseArguments -> ( [expression {, expression}] )
func (p *Parser) parseArguments() ([]ast.Expression, bool) {
	p.next() // consume '('

	var args []ast.Expression
	if p.curTok.Type == token.TokenRParen {
		p.next()
		return args, true
	}

	for {
		arg := p.parseExpression()
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
		if p.curTok.Type != token.TokenComma {
			break
		}
		p.next()
	}

	if !p.expect(token.TokenRParen) {
		return nil, false
	}
	p.next()
	return args, true
}

// parseIndexList -> [ expression {, expression} ]
func (p *Parser) parseIndexList() ([]ast.Expression, bool) {
	p.next() // consume '['

	var indices []ast.Expression
	for {
		idx := p.parseExpression()
		if idx == nil {
			return nil, false
		}
		indices = append(indices, idx)
		if p.curTok.Type != token.TokenComma {
			break
		}
		p.next()
	}

	if !p.expect(token.TokenRBracket) {
		return nil, false
	}
	p.next()
	return indices, true
}

// --- Expressions ---

// parseExpression -> simple_expr [relop simple_expr]
func (p *Parser) parseExpression() ast.Expression {
	left := p.parseSimpleExpr()
	if left == nil {
		return nil
	}

	if p.curTok.IsRelOp() {
		opTok := p.curTok
		p.next()
		right := p.parseSimpleExpr()
		if right == nil {
			return nil
		}
		return &ast.BinaryExpression{Token: opTok, Left: left, Operator: opTok.Literal, Right: right}
	}
	return left
}

// parseSimpleExpr -> term {(+|-) term}
func (p *Parser) parseSimpleExpr() ast.Expression {
	left := p.parseTerm()
	if left == nil {
		return nil
	}

	for p.curTok.Type == token.TokenPlus || p.curTok.Type == token.TokenMinus {
		opTok := p.curTok
		p.next()
		right := p.parseTerm()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpression{Token: opTok, Left: left, Operator: opTok.Literal, Right: right}
	}
	return left
}

// parseTerm -> factor {(*|/) factor}
func (p *Parser) parseTerm() ast.Expression {
	left := p.parseFactor()
	if left == nil {
		return nil
	}

	for p.curTok.Type == token.TokenAsterisk || p.curTok.Type == token.TokenSlash {
		opTok := p.curTok
		p.next()
		right := p.parseFactor()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpression{Token: opTok, Left: left, Operator: opTok.Literal, Right: right}
	}
	return left
}

// parseFactor -> INT | REAL | STRING | ident | ident(args) | ident[indices]
//             | (expression)
func (p *Parser) parseFactor() ast.Expression {
	switch p.curTok.Type {
	case token.TokenInt:
		tok := p.curTok
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.addError(tok, "invalid integer literal %q", tok.Literal)
			return nil
		}
		p.next()
		return &ast.IntegerLiteral{Token: tok, Value: v}

	case token.TokenReal:
		tok := p.curTok
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addError(tok, "invalid real literal %q", tok.Literal)
			return nil
		}
		p.next()
		return &ast.RealLiteral{Token: tok, Value: v}

	case token.TokenString:
		tok := p.curTok
		p.next()
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}

	case token.TokenLParen:
		tok := p.curTok
		p.next()
		inner := p.parseExpression()
		if inner == nil {
			return nil
		}
		if !p.expect(token.TokenRParen) {
			return nil
		}
		p.next()
		return &ast.GroupedExpression{Token: tok, Expression: inner}

	case token.TokenIdent:
		tok := p.curTok
		name := &ast.Identifier{Token: tok, Value: tok.Literal}
		p.next()
		switch p.curTok.Type {
		case token.TokenLParen:
			args, ok := p.parseArguments()
			if !ok {
				return nil
			}
			return &ast.CallExpression{Token: tok, Callee: name, Arguments: args}
		case token.TokenLBracket:
			indices, ok := p.parseIndexList()
			if !ok {
				return nil
			}
			return &ast.IndexExpression{Token: tok, Base: name, Indices: indices}
		default:
			return name
		}

	default:
		p.addError(p.curTok, "unexpected token %s (%q) in expression", p.curTok.Type, p.curTok.Literal)
		return nil
	}
}
