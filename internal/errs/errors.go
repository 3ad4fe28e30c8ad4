// Package errs defines the small typed-error hierarchy used where the
// FHIRPath core must return a Go error rather than collect a
// diagnostic: Fast-mode parsing and the evaluator's short list of
// fatal runtime violations (spec.md §7).
package errs

import (
	"errors"
	"fmt"
)

// Sentinel kind markers, matched via errors.Is against the Error
// returned by this package's constructors.
var (
	ErrLexical   = errors.New("lexical error")
	ErrSyntax    = errors.New("syntax error")
	ErrSemantic  = errors.New("semantic error")
	ErrEvaluation = errors.New("evaluation error")
	ErrInternal  = errors.New("internal error")
)

// Error is a stable-coded error belonging to one of the five kinds
// spec.md §7 names. Code mirrors the teacher's DiagnosticCode string
// constant convention, translated here into Go's typed-error idiom
// since these particular failures must be caught by a Go error return
// instead of collected as diagnostics.
type Error struct {
	kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.kind }

func Lexical(code, format string, a ...any) *Error {
	return &Error{kind: ErrLexical, Code: code, Message: fmt.Sprintf(format, a...)}
}

func Syntax(code, format string, a ...any) *Error {
	return &Error{kind: ErrSyntax, Code: code, Message: fmt.Sprintf(format, a...)}
}

func Semantic(code, format string, a ...any) *Error {
	return &Error{kind: ErrSemantic, Code: code, Message: fmt.Sprintf(format, a...)}
}

func Evaluation(code, format string, a ...any) *Error {
	return &Error{kind: ErrEvaluation, Code: code, Message: fmt.Sprintf(format, a...)}
}

func Internal(code, format string, a ...any) *Error {
	return &Error{kind: ErrInternal, Code: code, Message: fmt.Sprintf(format, a...)}
}
