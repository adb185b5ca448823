package lexer

import (
	"testing"

	"algc/internal/compiler/token"
)

func TestNextToken(t *testing.T) {
	input := `var count: int;
count := 3 + 4 * 2;
if count <= 10 then count := count - 1;
// a comment the lexer must skip
var m: array[1..3, 1..3] of real;
m[1, 2] := 2.5;
print("done");
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.TokenVar, "var"},
		{token.TokenIdent, "count"},
		{token.TokenColon, ":"},
		{token.TokenTypeLiteral, "int"},
		{token.TokenSemicolon, ";"},

		{token.TokenIdent, "count"},
		{token.TokenAssign, ":="},
		{token.TokenInt, "3"},
		{token.TokenPlus, "+"},
		{token.TokenInt, "4"},
		{token.TokenAsterisk, "*"},
		{token.TokenInt, "2"},
		{token.TokenSemicolon, ";"},

		{token.TokenIf, "if"},
		{token.TokenIdent, "count"},
		{token.TokenLtEq, "<="},
		{token.TokenInt, "10"},
		{token.TokenThen, "then"},
		{token.TokenIdent, "count"},
		{token.TokenAssign, ":="},
		{token.TokenIdent, "count"},
		{token.TokenMinus, "-"},
		{token.TokenInt, "1"},
		{token.TokenSemicolon, ";"},

		{token.TokenVar, "var"},
		{token.TokenIdent, "m"},
		{token.TokenColon, ":"},
		{token.TokenArray, "array"},
		{token.TokenLBracket, "["},
		{token.TokenInt, "1"},
		{token.TokenDotDot, ".."},
		{token.TokenInt, "3"},
		{token.TokenComma, ","},
		{token.TokenInt, "1"},
		{token.TokenDotDot, ".."},
		{token.TokenInt, "3"},
		{token.TokenRBracket, "]"},
		{token.TokenOf, "of"},
		{token.TokenTypeLiteral, "real"},
		{token.TokenSemicolon, ";"},

		{token.TokenIdent, "m"},
		{token.TokenLBracket, "["},
		{token.TokenInt, "1"},
		{token.TokenComma, ","},
		{token.TokenInt, "2"},
		{token.TokenRBracket, "]"},
		{token.TokenAssign, ":="},
		{token.TokenReal, "2.5"},
		{token.TokenSemicolon, ";"},

		{token.TokenIdent, "print"},
		{token.TokenLParen, "("},
		{token.TokenString, "done"},
		{token.TokenRParen, ")"},
		{token.TokenSemicolon, ";"},

		{token.TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - wrong token type. expected=%q, got=%q (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - wrong literal. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestRealVersusRange(t *testing.T) {
	// "1.5" is one real literal; "1..3" is int, dotdot, int.
	input := `1.5 1..3`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.TokenReal, "1.5"},
		{token.TokenInt, "1"},
		{token.TokenDotDot, ".."},
		{token.TokenInt, "3"},
		{token.TokenEOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - wrong token type. expected=%q, got=%q (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - wrong literal. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestRelationalOperators(t *testing.T) {
	input := `= <> < <= > >=`

	expected := []token.TokenType{
		token.TokenEq, token.TokenNotEq, token.TokenLt,
		token.TokenLtEq, token.TokenGt, token.TokenGtEq,
		token.TokenEOF,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tests[%d] - wrong token type. expected=%q, got=%q", i, want, tok.Type)
		}
		if want != token.TokenEOF && !tok.IsRelOp() {
			t.Errorf("tests[%d] - IsRelOp() expected=true for %q", i, tok.Type)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"no closing quote`)

	tok := l.NextToken()
	if tok.Type != token.TokenIllegal {
		t.Fatalf("wrong token type. expected=%q, got=%q", token.TokenIllegal, tok.Type)
	}
	if tok.Literal != "no closing quote" {
		t.Errorf("wrong literal. expected=%q, got=%q", "no closing quote", tok.Literal)
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	input := "var\n  x := 1;"

	l := New(input)

	varTok := l.NextToken()
	if varTok.Line != 1 || varTok.Column != 1 {
		t.Errorf("'var' position expected=1:1, got=%d:%d", varTok.Line, varTok.Column)
	}

	xTok := l.NextToken()
	if xTok.Line != 2 || xTok.Column != 3 {
		t.Errorf("'x' position expected=2:3, got=%d:%d", xTok.Line, xTok.Column)
	}
}
