package diag

import "fmt"

// Code classifies a diagnostic. The set is closed; callers switch on it.
type Code string

const (
	DeclarationError     Code = "DeclarationError"
	UnresolvedIdentifier Code = "UnresolvedIdentifier"
	KindMismatch         Code = "KindMismatch"
	TypeMismatch         Code = "TypeMismatch"
	MixedTypeArithmetic  Code = "MixedTypeArithmetic"
	IncomparableTypes    Code = "IncomparableTypes"
	UnknownCallee        Code = "UnknownCallee"
	UnsoundSignature     Code = "UnsoundSignature"
	SyntaxError          Code = "SyntaxError"
	InternalError        Code = "InternalError"
)

// Diagnostic is one structured finding. Line/Column are 1-based; zero means
// no source location is known.
type Diagnostic struct {
	Code    Code
	Message string
	Line    int
	Column  int
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// List accumulates diagnostics for one pass. Passes never abort on a
// diagnostic; they append and continue.
type List struct {
	diags []Diagnostic
}

func (l *List) Add(code Code, line, col int, format string, args ...any) {
	l.diags = append(l.diags, Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  col,
	})
}

func (l *List) All() []Diagnostic {
	return l.diags
}

func (l *List) Empty() bool {
	return len(l.diags) == 0
}

func (l *List) Len() int {
	return len(l.diags)
}

// CountCode returns how many diagnostics carry the given code.
func (l *List) CountCode(code Code) int {
	n := 0
	for _, d := range l.diags {
		if d.Code == code {
			n++
		}
	}
	return n
}

// Messages renders every diagnostic, mostly for CLI output and tests.
func (l *List) Messages() []string {
	out := make([]string, len(l.diags))
	for i, d := range l.diags {
		out[i] = d.String()
	}
	return out
}
