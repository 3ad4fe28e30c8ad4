// Package diagnostic holds the severity-tagged, range-carrying problem
// reports produced by the lexer, parser, and analyzer.
package diagnostic

import "github.com/kpumuk/fhirpath/internal/text"

// Severity classifies how serious a diagnostic is.
type Severity uint8

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Source identifies which pass produced a diagnostic.
type Source string

const (
	SourceLexer    Source = "lexer"
	SourceParser   Source = "parser"
	SourceAnalyzer Source = "analyzer"
)

// Related carries a secondary location attached to a diagnostic, such
// as the opening delimiter matching an unclosed group.
type Related struct {
	Message string
	Span    text.Span
}

// Diagnostic is a single problem report.
type Diagnostic struct {
	Code     Code
	Message  string
	Severity Severity
	Span     text.Span
	Source   Source
	Related  []Related
}

func (d Diagnostic) String() string {
	return string(d.Code) + ": " + d.Message
}
