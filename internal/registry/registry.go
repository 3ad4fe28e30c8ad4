package registry

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/lexer"
)

type tokenForm struct {
	tok  lexer.TokenKind
	form Form
}

// Registry is the process-wide catalog described by spec.md §4.4. It
// is built once by New (or the package-level Default) and treated as
// read-only thereafter; Clear exists for tests only and must not run
// concurrently with parse/analyze/evaluate (spec.md §5).
//
// Operators and functions are kept in separate name tables: FHIRPath
// has genuine overlaps between a keyword-operator spelling and a
// function name (e.g. the infix `contains` operator vs. the
// string-method `contains()` function), disambiguated by the parser
// purely by call syntax, never by a shared namespace.
type Registry struct {
	byOperatorName map[string]*Operation
	byFunctionName map[string]*Operation
	byTokenForm    map[tokenForm]*Operation
	precedence     map[lexer.TokenKind]int
	keywords       map[string]struct{}
	literals       []*Operation
}

// New builds and populates a fresh registry.
func New() *Registry {
	r := &Registry{
		byOperatorName: make(map[string]*Operation),
		byFunctionName: make(map[string]*Operation),
		byTokenForm:    make(map[tokenForm]*Operation),
		precedence:     make(map[lexer.TokenKind]int),
		keywords:       make(map[string]struct{}),
	}
	registerOperators(r)
	registerFunctions(r)
	registerLiterals(r)
	return r
}

var defaultRegistry = New()

// Default returns the process-wide singleton registry.
func Default() *Registry { return defaultRegistry }

// Clear reinitializes the process-wide singleton to its startup state.
// Test-only (spec.md §5); never call this while a parse/analyze/
// evaluate call may be in flight on another goroutine.
func Clear() { defaultRegistry = New() }

// Register adds or replaces an operation entry.
func (r *Registry) Register(op *Operation) {
	switch op.Kind {
	case KindOperator:
		r.byTokenForm[tokenForm{op.Token, op.Form}] = op
		// A token's infix entry owns its precedence, so a prefix form
		// (e.g. unary '-') never overrides the binary one.
		if _, set := r.precedence[op.Token]; !set || op.Form == FormInfix {
			r.precedence[op.Token] = op.Precedence
		}
		if op.Name != "" {
			r.keywords[op.Name] = struct{}{}
			r.byOperatorName[op.Name] = op
		}
	case KindFunction:
		r.byFunctionName[op.Name] = op
	case KindLiteral:
		r.literals = append(r.literals, op)
	}
}

// Get resolves a function by name, used for FunctionCall dispatch and
// debug tools.
func (r *Registry) Get(name string) (*Operation, bool) {
	op, ok := r.byFunctionName[name]
	return op, ok
}

// GetOperator resolves an operator by its registry name (e.g. "+",
// "and", "contains"), distinct from a same-named function.
func (r *Registry) GetOperator(name string) (*Operation, bool) {
	op, ok := r.byOperatorName[name]
	return op, ok
}

// GetByToken resolves the operator registered for a token in a given
// syntactic form.
func (r *Registry) GetByToken(tok lexer.TokenKind, form Form) (*Operation, bool) {
	op, ok := r.byTokenForm[tokenForm{tok, form}]
	return op, ok
}

// Precedence returns the binding power of an operator token: that of
// its infix entry when it has one, else of its only registered form
// (spec.md §4.5). The parser reads each entry's own Precedence through
// GetByToken instead.
func (r *Registry) Precedence(tok lexer.TokenKind) (int, bool) {
	p, ok := r.precedence[tok]
	return p, ok
}

// IsKeyword reports whether word is a reserved keyword spelling.
func (r *Registry) IsKeyword(word string) bool {
	_, ok := r.keywords[word]
	return ok
}

// AllFunctions returns every registered Function entry.
func (r *Registry) AllFunctions() []*Operation {
	out := make([]*Operation, 0, len(r.byFunctionName))
	for _, op := range r.byFunctionName {
		out = append(out, op)
	}
	return out
}

// OperatorsByForm returns every registered Operator entry for a form.
func (r *Registry) OperatorsByForm(form Form) []*Operation {
	var out []*Operation
	for k, op := range r.byTokenForm {
		if k.form == form {
			out = append(out, op)
		}
	}
	return out
}

// Literals returns the ordered list of literal matchers (first match
// wins), per spec.md §4.4.
func (r *Registry) Literals() []*Operation { return r.literals }

// MatchLiteral tries every registered literal matcher against lexeme
// (first match wins) and reports the LiteralKind it parsed as, without
// requiring a caller to already know which literal form a raw lexeme
// is (spec.md §6, "match_literal(text)").
func (r *Registry) MatchLiteral(lexeme, unit string) (ast.LiteralKind, bool) {
	for _, lit := range r.literals {
		if _, err := lit.ParseLiteral(lexeme, unit); err == nil {
			if len(lit.LiteralKinds) > 0 {
				return lit.LiteralKinds[0], true
			}
		}
	}
	return 0, false
}
