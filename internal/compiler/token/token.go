package token

type TokenType string

const (
	// Single character tokens
	TokenLParen    TokenType = "LPAREN"    // (
	TokenRParen    TokenType = "RPAREN"    // )
	TokenLBracket  TokenType = "LBRACKET"  // [
	TokenRBracket  TokenType = "RBRACKET"  // ]
	TokenPlus      TokenType = "PLUS"      // +
	TokenMinus     TokenType = "MINUS"     // -
	TokenAsterisk  TokenType = "ASTERISK"  // *
	TokenSlash     TokenType = "SLASH"     // /
	TokenColon     TokenType = "COLON"     // :
	TokenSemicolon TokenType = "SEMICOLON" // ;
	TokenComma     TokenType = "COMMA"     // ,
	TokenEq        TokenType = "EQ"        // =

	// Multi character operators
	TokenAssign TokenType = "ASSIGN"  // :=
	TokenNotEq  TokenType = "NOT_EQ"  // <>
	TokenLt     TokenType = "LT"      // <
	TokenLtEq   TokenType = "LT_EQ"   // <=
	TokenGt     TokenType = "GT"      // >
	TokenGtEq   TokenType = "GT_EQ"   // >=
	TokenDotDot TokenType = "DOT_DOT" // ..

	// Keywords
	TokenVar    TokenType = "VAR"    // var
	TokenProc   TokenType = "PROC"   // proc
	TokenFunc   TokenType = "FUNC"   // func
	TokenBegin  TokenType = "BEGIN"  // begin
	TokenEnd    TokenType = "END"    // end
	TokenIf     TokenType = "IF"     // if
	TokenThen   TokenType = "THEN"   // then
	TokenElse   TokenType = "ELSE"   // else
	TokenFor    TokenType = "FOR"    // for
	TokenStep   TokenType = "STEP"   // step
	TokenUntil  TokenType = "UNTIL"  // until
	TokenDo     TokenType = "DO"     // do
	TokenReturn TokenType = "RETURN" // return
	TokenImport TokenType = "IMPORT" // import
	TokenArray  TokenType = "ARRAY"  // array
	TokenOf     TokenType = "OF"     // of

	// Literals & Identifiers
	TokenString TokenType = "STRING" // "..."
	TokenInt    TokenType = "INT"    // 43
	TokenReal   TokenType = "REAL"   // 4.3
	TokenIdent  TokenType = "IDENT"  // Identifier (e.g. variable name)

	// Types (int, real, string are lexed as TokenTypeLiteral)
	TokenTypeLiteral TokenType = "TYPE_LITERAL"

	// Special
	TokenEOF     TokenType = "EOF"
	TokenIllegal TokenType = "ILLEGAL"
)

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// IsRelOp reports whether the token is a relational comparison operator.
func (t Token) IsRelOp() bool {
	switch t.Type {
	case TokenEq, TokenNotEq, TokenLt, TokenLtEq, TokenGt, TokenGtEq:
		return true
	}
	return false
}

// keywords maps identifier strings to their corresponding token types.
var keywords = map[string]TokenType{
	"var":    TokenVar,
	"proc":   TokenProc,
	"func":   TokenFunc,
	"begin":  TokenBegin,
	"end":    TokenEnd,
	"if":     TokenIf,
	"then":   TokenThen,
	"else":   TokenElse,
	"for":    TokenFor,
	"step":   TokenStep,
	"until":  TokenUntil,
	"do":     TokenDo,
	"return": TokenReturn,
	"import": TokenImport,
	"array":  TokenArray,
	"of":     TokenOf,
	"int":    TokenTypeLiteral,
	"real":   TokenTypeLiteral,
	"string": TokenTypeLiteral,
}

// LookupIdent checks if an identifier is a keyword, returning the keyword's
// token type or TokenIdent if it's not a keyword.
func LookupIdent(ident string) TokenType {
	if tokType, ok := keywords[ident]; ok {
		return tokType
	}
	return TokenIdent
}
