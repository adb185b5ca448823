package lexer

import "algc/internal/compiler/token"

type Lexer struct {
	input        string
	position     int  // current char index
	readPosition int  // next char index
	ch           byte // current char

	line   int // current line number (1-indexed)
	column int // current column number (1-indexed)
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// readChar advances the lexer's position and updates the current character.
// It handles EOF and tracks line/column numbers.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NULL (EOF)
	} else {
		l.ch = l.input[l.readPosition]
	}

	l.position = l.readPosition
	l.readPosition++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else if l.ch != 0 {
		l.column++
	}
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	startLine := l.line
	startCol := l.column

	switch l.ch {
	case '/':
		if l.peekChar() == '/' {
			l.readComment()
			return l.NextToken()
		}
		return l.single(token.TokenSlash, startLine, startCol)
	case '(':
		return l.single(token.TokenLParen, startLine, startCol)
	case ')':
		return l.single(token.TokenRParen, startLine, startCol)
	case '[':
		return l.single(token.TokenLBracket, startLine, startCol)
	case ']':
		return l.single(token.TokenRBracket, startLine, startCol)
	case '+':
		return l.single(token.TokenPlus, startLine, startCol)
	case '-':
		return l.single(token.TokenMinus, startLine, startCol)
	case '*':
		return l.single(token.TokenAsterisk, startLine, startCol)
	case ';':
		return l.single(token.TokenSemicolon, startLine, startCol)
	case ',':
		return l.single(token.TokenComma, startLine, startCol)
	case '=':
		return l.single(token.TokenEq, startLine, startCol)
	case ':':
		if l.peekChar() == '=' {
			return l.double(token.TokenAssign, startLine, startCol)
		}
		return l.single(token.TokenColon, startLine, startCol)
	case '<':
		if l.peekChar() == '=' {
			return l.double(token.TokenLtEq, startLine, startCol)
		}
		if l.peekChar() == '>' {
			return l.double(token.TokenNotEq, startLine, startCol)
		}
		return l.single(token.TokenLt, startLine, startCol)
	case '>':
		if l.peekChar() == '=' {
			return l.double(token.TokenGtEq, startLine, startCol)
		}
		return l.single(token.TokenGt, startLine, startCol)
	case '.':
		if l.peekChar() == '.' {
			return l.double(token.TokenDotDot, startLine, startCol)
		}
		tok := l.newToken(token.TokenIllegal, string(l.ch), startLine, startCol)
		l.readChar()
		return tok
	case '"':
		return l.readString(startLine, startCol)
	case 0:
		return token.Token{Type: token.TokenEOF, Literal: "", Line: startLine, Column: startCol}
	default:
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			return l.newToken(token.LookupIdent(ident), ident, startLine, startCol)
		}
		if isDigit(l.ch) {
			return l.readNumber(startLine, startCol)
		}
		tok := l.newToken(token.TokenIllegal, string(l.ch), startLine, startCol)
		l.readChar()
		return tok
	}
}

func (l *Lexer) single(tokenType token.TokenType, line, col int) token.Token {
	tok := l.newToken(tokenType, string(l.ch), line, col)
	l.readChar()
	return tok
}

func (l *Lexer) double(tokenType token.TokenType, line, col int) token.Token {
	first := l.ch
	l.readChar()
	tok := l.newToken(tokenType, string(first)+string(l.ch), line, col)
	l.readChar()
	return tok
}

func (l *Lexer) newToken(tokenType token.TokenType, literal string, line, col int) token.Token {
	return token.Token{Type: tokenType, Literal: literal, Line: line, Column: col}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\n' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readString(startLine, startCol int) token.Token {
	start := l.position + 1 // skip opening "
	l.readChar()

	for l.ch != '"' && l.ch != 0 {
		l.readChar()
	}

	if l.ch == 0 {
		// Unterminated string: surface what was read, parser reports position.
		lit := l.input[start:l.position]
		return token.Token{Type: token.TokenIllegal, Literal: lit, Line: startLine, Column: startCol}
	}

	lit := l.input[start:l.position]
	l.readChar() // consume closing "
	return token.Token{Type: token.TokenString, Literal: lit, Line: startLine, Column: startCol}
}

// readNumber lexes an integer or, if a decimal point directly followed by a
// digit appears, a real literal. A '.' followed by another '.' belongs to a
// range bound (1..3) and is left for the next token.
func (l *Lexer) readNumber(startLine, startCol int) token.Token {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume '.'
		for isDigit(l.ch) {
			l.readChar()
		}
		return token.Token{Type: token.TokenReal, Literal: l.input[start:l.position], Line: startLine, Column: startCol}
	}

	return token.Token{Type: token.TokenInt, Literal: l.input[start:l.position], Line: startLine, Column: startCol}
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
