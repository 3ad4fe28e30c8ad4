// Package registry is the single source of truth for operators,
// functions, and literals: their precedences, keywords, and the three
// lifecycle methods (analyze, evaluate, compile) every entry carries
// (spec.md §4.4). It is populated once at process start and treated
// as immutable read-only shared state thereafter (spec.md §5).
//
// Grounded on aundis-formula's `types.go` SyntaxKind enum + per-token
// lookup-table idiom for the operator/precedence tables, and on
// termfx-morfx's `internal/registry` singleton-with-package-level-
// accessors pattern for the registry shape itself (see DESIGN.md).
package registry

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/diagnostic"
	"github.com/kpumuk/fhirpath/internal/lexer"
	"github.com/kpumuk/fhirpath/internal/model"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

// Kind discriminates the Operation tagged union (spec.md §3).
type Kind uint8

const (
	KindOperator Kind = iota + 1
	KindFunction
	KindLiteral
)

// Form is the syntactic position an Operator entry occupies. The same
// token may have one entry per form it supports (e.g. '-' is both
// Prefix and Infix) — spec.md §8 property 7.
type Form uint8

const (
	FormPrefix Form = iota + 1
	FormInfix
	FormPostfix
)

// Associativity controls how a Pratt parser folds a run of same-
// precedence infix operators.
type Associativity uint8

const (
	LeftAssoc Associativity = iota
	RightAssoc
)

// ParamKind distinguishes how a function parameter's argument node is
// handled: a pre-evaluated value, an unevaluated expression thunk
// (spec.md §9, "lazy function arguments"), or a type-specifier parsed
// as a type name rather than a general expression.
type ParamKind uint8

const (
	ParamValue ParamKind = iota
	ParamExpression
	ParamTypeSpecifier
)

// Param describes one declared function parameter (spec.md §3,
// "Operation (registry entry)").
type Param struct {
	Name      string
	Kind      ParamKind
	Optional  bool
	Singleton bool
}

// OutputCardinality is the declarative cardinality rule the analyzer
// applies to a function's result type (spec.md §4.6).
type OutputCardinality uint8

const (
	CardinalitySingleton OutputCardinality = iota
	CardinalityCollection
	CardinalityPreserveInput
	CardinalityAllSingleton
)

// CompiledFn is the closure shape spec.md §4.9 compiles every node to.
type CompiledFn func(rc *runtime.Context) (value.Collection, error)

// Interpreter is the minimal callback surface a registry entry's
// Evaluate needs to recursively evaluate an argument expression node,
// without this package depending on internal/evaluator (dependency
// inversion: evaluator depends on registry, never the reverse).
type Interpreter interface {
	Eval(n ast.Node, rc *runtime.Context) (value.Collection, *runtime.Context, error)
	// Trace reports a trace() call to the evaluator's injected Tracer.
	Trace(name string, values value.Collection)
}

// AnalyzeMode mirrors spec.md §4.6/§6's Strict vs Lenient analysis mode.
type AnalyzeMode uint8

const (
	Lenient AnalyzeMode = iota
	Strict
)

// Analyzer is the minimal callback surface a registry entry's Analyze
// needs: recursively analyzing a child node, resolving types through
// the bound model provider, and publishing/restoring the iteration
// variables ($this/$index/$total) that where/select/all/exists/repeat
// and aggregate() scope (spec.md §4.6).
type Analyzer interface {
	AnalyzeNode(n ast.Node, input model.TypeInfo) (model.TypeInfo, error)
	Provider() model.Provider
	Mode() AnalyzeMode
	PushScope()
	PopScope()
	Publish(name string, t model.TypeInfo)
	Diagnose(d diagnostic.Diagnostic)
}

// Compiler is the minimal callback surface a registry entry's Compile
// needs to recursively lower a child node to a closure.
type Compiler interface {
	CompileNode(n ast.Node) (CompiledFn, error)
}

// EvaluateFn is an Operation's runtime semantics. args are the raw
// syntax-tree argument nodes (never pre-evaluated by the caller) so
// that lazy/short-circuiting entries (iif, and/or, where, repeat, ...)
// control their own evaluation order (spec.md §4.8). The returned
// context lets defineVariable-style entries extend scope for whatever
// follows in the navigation chain.
type EvaluateFn func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error)

// AnalyzeFn is an Operation's static semantics (spec.md §4.6).
type AnalyzeFn func(an Analyzer, input model.TypeInfo, args []ast.Node) (model.TypeInfo, error)

// CompileFn lowers an Operation call to a closure (spec.md §4.9).
type CompileFn func(c Compiler, args []ast.Node) (CompiledFn, error)

// LiteralParseFn parses a literal's raw lexeme (plus, for quantities,
// its unit suffix) into a runtime Value.
type LiteralParseFn func(lexeme, unit string) (value.Value, error)

// Operation is the tagged union of Operator, Function, and Literal
// registry entries (spec.md §3). Only the fields relevant to Kind are
// meaningful; this replaces the source's kind-discriminator-plus-
// shared-interface with a single sum type, per spec.md §9.
type Operation struct {
	Kind Kind
	Name string

	// Operator fields.
	Token       lexer.TokenKind
	Form        Form
	Precedence  int
	Assoc       Associativity
	EndToken    lexer.TokenKind
	HasEndToken bool
	Special     bool

	// Function fields.
	Notation          string
	InputConstraint   string
	Params            []Param
	PropagatesEmpty   bool
	Deterministic     bool
	OutputCardinality OutputCardinality

	// Literal fields.
	LiteralKinds []ast.LiteralKind
	ParseLiteral LiteralParseFn

	Analyze  AnalyzeFn
	Evaluate EvaluateFn
	Compile  CompileFn
}
