package parser

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/diagnostic"
	"github.com/kpumuk/fhirpath/internal/errs"
	"github.com/kpumuk/fhirpath/internal/lexer"
	"github.com/kpumuk/fhirpath/internal/registry"
	"github.com/kpumuk/fhirpath/internal/text"
)

// syncTokens are the token kinds Diagnostic/Validate mode resynchronizes
// on: the closing delimiters an enclosing construct is already waiting
// for, a list separator, `|`, `and`, `or`, or end of input (spec.md
// §4.5, Glossary "Sync point"). Any other binary-operator boundary is
// recognized generically in atSyncPoint via a registry lookup rather
// than enumerated here.
var syncTokens = map[lexer.TokenKind]bool{
	lexer.TokenRParen:   true,
	lexer.TokenRBracket: true,
	lexer.TokenRBrace:   true,
	lexer.TokenComma:    true,
	lexer.TokenPipe:     true,
	lexer.TokenKwAnd:    true,
	lexer.TokenKwOr:     true,
	lexer.TokenEOF:      true,
}

// fastAbort unwinds Fast-mode parsing to the top-level Parse call on
// the first syntax problem.
type fastAbort struct{ err error }

// stdAbort unwinds Standard-mode parsing to the top-level Parse call
// on the first fatal syntax problem, after the diagnostic has already
// been recorded.
type stdAbort struct{}

type parser struct {
	src       []byte
	tokens    []lexer.Token
	pos       int
	mode      Mode
	registry  *registry.Registry
	collector *diagnostic.Collector
	// partial records whether error recovery spliced at least one
	// Error/Incomplete node into the tree (Diagnostic/Validate mode
	// only); surfaced as Result.IsPartial (spec.md §4.5's "is_partial").
	partial bool
}

// Result is everything one Parse call can produce, across all four
// modes (spec.md §4.5's StandardResult/DiagnosticResult/ValidateResult
// family collapsed into one struct whose mode-specific fields are left
// at their zero value outside the mode that populates them): AST and
// Diagnostics are common to every mode but Validate (which leaves AST
// nil); IsPartial and Ranges are populated only in Diagnostic mode;
// Valid is meaningful only in Validate mode.
type Result struct {
	AST         ast.Node
	Diagnostics []diagnostic.Diagnostic
	HasErrors   bool
	// IsPartial reports whether the tree contains at least one
	// Error/Incomplete recovery node (Diagnostic mode only).
	IsPartial bool
	// Ranges maps each node reachable from AST to its source span, for
	// callers that want range lookup without walking the tree
	// themselves (Diagnostic mode only; spec.md §6's "ranges" map).
	Ranges map[ast.Node]text.Span
	// Valid reports whether parsing produced zero error-severity
	// diagnostics (Validate mode's "valid" field; also meaningful, if
	// redundant with HasErrors, in the other modes).
	Valid bool
}

// Parse tokenizes and parses src in the given mode. The returned error
// is non-nil only in Fast mode; Standard/Diagnostic/Validate report
// problems exclusively through Result.Diagnostics (spec.md §4.5,
// SPEC_FULL.md §1's error-handling split).
func Parse(src []byte, opts Options) (Result, error) {
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}

	lexResult := lexer.Lex(src)
	var collector *diagnostic.Collector
	if opts.Mode != ModeFast {
		collector = diagnostic.NewCollector(opts.MaxErrors)
		for _, d := range lexResult.Diagnostics {
			collector.Add(lexDiagnostic(d))
		}
	} else if len(lexResult.Diagnostics) > 0 {
		d := lexResult.Diagnostics[0]
		return Result{}, errs.Lexical(string(d.Code), "%s", d.Message)
	}

	p := &parser{src: src, tokens: lexResult.Tokens, registry: reg, mode: opts.Mode, collector: collector}

	switch opts.Mode {
	case ModeFast:
		return p.parseFast()
	case ModeStandard:
		return p.parseStandard()
	default:
		return p.parseWithRecovery(opts.Mode == ModeValidate)
	}
}

func hasErrorSeverity(diags []diagnostic.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diagnostic.SeverityError {
			return true
		}
	}
	return false
}

func (p *parser) parseFast() (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			ab, ok := r.(fastAbort)
			if !ok {
				panic(r)
			}
			res, err = Result{}, ab.err
		}
	}()
	node := p.parseExpr(0)
	if !p.atEOF() {
		p.fail(diagnostic.UnexpectedToken("expression", p.currentLexeme(), p.peek().Span))
	}
	return Result{AST: node, Valid: true}, nil
}

func (p *parser) parseStandard() (Result, error) {
	var node ast.Node
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(stdAbort); !ok {
					panic(r)
				}
			}
		}()
		node = p.parseExpr(0)
		if !p.atEOF() {
			p.fail(diagnostic.UnexpectedToken("expression", p.currentLexeme(), p.peek().Span))
		}
	}()
	diags := p.collector.All()
	return Result{AST: node, Diagnostics: diags, HasErrors: hasErrorSeverity(diags), Valid: !hasErrorSeverity(diags)}, nil
}

func (p *parser) parseWithRecovery(discardTree bool) (Result, error) {
	node := p.parseExpr(0)
	if !p.atEOF() {
		p.collector.Add(diagnostic.UnexpectedToken("expression", p.currentLexeme(), p.peek().Span))
	}
	diags := p.collector.All()
	hasErrors := hasErrorSeverity(diags)
	if discardTree {
		return Result{Diagnostics: diags, HasErrors: hasErrors, Valid: !hasErrors}, nil
	}
	ranges := make(map[ast.Node]text.Span)
	ast.Walk(node, func(n ast.Node) { ranges[n] = n.Range() })
	return Result{
		AST: node, Diagnostics: diags, HasErrors: hasErrors,
		IsPartial: p.partial, Ranges: ranges, Valid: !hasErrors,
	}, nil
}

func lexDiagnostic(d lexer.Diagnostic) diagnostic.Diagnostic {
	code := diagnostic.CodeInvalidCharacter
	switch d.Code {
	case lexer.DiagnosticUnterminatedString:
		code = diagnostic.CodeUnterminatedString
	case lexer.DiagnosticInvalidEscape:
		code = diagnostic.CodeInvalidEscape
	case lexer.DiagnosticUnterminatedDelimited:
		code = diagnostic.CodeUnterminatedDelimitedIden
	case lexer.DiagnosticInvalidDateTimeLiteral:
		code = diagnostic.CodeInvalidDateTimeLiteral
	}
	return diagnostic.Diagnostic{
		Code: code, Message: d.Message, Severity: diagnostic.SeverityError,
		Span: d.Span, Source: diagnostic.SourceParser,
	}
}

// fail records (or throws, in Fast/Standard mode) a syntax problem and
// returns a placeholder Error node for Diagnostic/Validate mode to
// splice into the tree in the failing position.
func (p *parser) fail(d diagnostic.Diagnostic) ast.Node {
	switch p.mode {
	case ModeFast:
		panic(fastAbort{errs.Syntax(string(d.Code), "%s", d.Message)})
	case ModeStandard:
		p.collector.Add(d)
		panic(stdAbort{})
	default:
		p.collector.Add(d)
		p.partial = true
		return p.synchronize(d)
	}
}

// synchronize skips tokens until a sync point (a token in syncTokens,
// such as a closing delimiter, comma or EOF, or any infix operator
// token; see atSyncPoint) without consuming it, so the caller's own
// delimiter-matching logic can proceed as though nothing happened.
func (p *parser) synchronize(d diagnostic.Diagnostic) ast.Node {
	for !p.atSyncPoint() {
		p.advance()
	}
	return ast.NewError(d.Span, nil, p.currentLexeme(), d.Message)
}

// atSyncPoint additionally covers the general "binary-operator
// boundary" sync class by asking the registry whether the upcoming
// token is any infix operator, rather than hardcoding every operator
// token in syncTokens.
func (p *parser) atSyncPoint() bool {
	tok := p.peek()
	if syncTokens[tok.Kind] {
		return true
	}
	_, ok := p.registry.GetByToken(tok.Kind, registry.FormInfix)
	return ok
}

func (p *parser) peek() lexer.Token { return p.tokens[p.pos] }

func (p *parser) peekAt(delta int) lexer.Token {
	i := p.pos + delta
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != lexer.TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) atEOF() bool { return p.peek().Kind == lexer.TokenEOF }

func (p *parser) text(sp text.Span) string { return string(p.src[sp.Start:sp.End]) }

func (p *parser) currentLexeme() string {
	tok := p.peek()
	if tok.Kind == lexer.TokenEOF {
		return "<end of expression>"
	}
	return p.text(tok.Span)
}

// expect consumes the next token if it matches kind, reporting
// diagnostic d otherwise (without consuming the unexpected token).
func (p *parser) expect(kind lexer.TokenKind, d diagnostic.Diagnostic) (lexer.Token, bool) {
	if p.peek().Kind == kind {
		return p.advance(), true
	}
	p.fail(d)
	return lexer.Token{}, false
}

func spanFrom(start text.Span, end text.Span) text.Span {
	return text.Span{Start: start.Start, End: end.End}
}
