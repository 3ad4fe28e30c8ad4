// Package fhirpath is the public surface of the FHIRPath expression
// engine: parse, analyze, evaluate, and compile an expression against
// the pipeline spec.md §2 lays out. Grounded on the teacher's
// cmd/*/cli.go one-function-per-verb shape (see DESIGN.md), adapted
// from a CLI entry point to a library entry point — every verb here is
// a thin, documented wrapper over its internal/* package rather than a
// flag-parsing main().
package fhirpath

import (
	"github.com/kpumuk/fhirpath/internal/analyzer"
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/compiler"
	"github.com/kpumuk/fhirpath/internal/diagnostic"
	"github.com/kpumuk/fhirpath/internal/evaluator"
	"github.com/kpumuk/fhirpath/internal/model"
	"github.com/kpumuk/fhirpath/internal/parser"
	"github.com/kpumuk/fhirpath/internal/registry"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/text"
	"github.com/kpumuk/fhirpath/internal/value"
)

// Aliases give external callers a name for types that live in internal
// packages, without this package re-declaring their shape.
type (
	// Node is a syntax-tree node produced by Parse (spec.md §3).
	Node = ast.Node
	// Span is a half-open byte-offset source range (spec.md §4.1).
	Span = text.Span
	// Diagnostic is one parse/analyze problem (spec.md §7).
	Diagnostic = diagnostic.Diagnostic
	// Severity classifies a Diagnostic.
	Severity = diagnostic.Severity
	// Provider is the host model-provider contract Analyze consumes
	// (spec.md §4.10).
	Provider = model.Provider
	// TypeInfo is the type descriptor Analyze attaches to each Node.
	TypeInfo = model.TypeInfo
	// Collection is an ordered FHIRPath result set (spec.md §3).
	Collection = value.Collection
	// Value is a single FHIRPath value within a Collection.
	Value = value.Value
	// AnalyzeMode selects Lenient or Strict analysis (spec.md §4.6).
	AnalyzeMode = registry.AnalyzeMode
	// ParseMode selects one of the four parsing strategies (spec.md §4.5).
	ParseMode = parser.Mode
	// Registry is the operator/function/literal catalog (spec.md §4.4).
	Registry = registry.Registry
	// CompiledFn is the closure shape spec.md §4.9 compiles every node to.
	CompiledFn = registry.CompiledFn
	// Tracer receives trace() calls made during Evaluate/Execute.
	Tracer = evaluator.Tracer
	// TracerFunc adapts a plain function to Tracer.
	TracerFunc = evaluator.TracerFunc
)

// Re-exported constants so callers never need to import an internal
// package directly to select a mode.
const (
	Lenient = registry.Lenient
	Strict  = registry.Strict

	ModeFast       = parser.ModeFast
	ModeStandard   = parser.ModeStandard
	ModeDiagnostic = parser.ModeDiagnostic
	ModeValidate   = parser.ModeValidate
)

// DefaultRegistry returns the process-wide registry populated once at
// startup and treated as immutable thereafter (spec.md §5); safe to
// share across goroutines as read-only.
func DefaultRegistry() *Registry { return registry.Default() }

// AnyProvider is the degenerate Provider a caller with no host model
// can pass to Analyze; every property resolves to Any (spec.md §4.10).
func AnyProvider() Provider { return model.AnyModelProvider{} }

// ParseOptions configures Parse.
type ParseOptions struct {
	Mode ParseMode
	// MaxErrors caps the diagnostics collector retains; <= 0 is
	// unbounded. Ignored in Fast mode.
	MaxErrors int
	// Registry supplies operator/function/literal metadata; nil uses
	// DefaultRegistry().
	Registry *Registry
}

// ParseResult is Parse's outcome (spec.md §6). IsPartial and Ranges are
// populated only in ModeDiagnostic; Valid is meaningful in every mode
// but is the only field ModeValidate's "no AST" shape still carries.
type ParseResult struct {
	AST         Node
	Diagnostics []Diagnostic
	HasErrors   bool
	IsPartial   bool
	Ranges      map[Node]Span
	Valid       bool
}

// Parse tokenizes and parses source in the requested mode. The
// returned error is non-nil only in Fast mode, where the first syntax
// problem throws instead of being collected (spec.md §4.5, §7).
func Parse(source string, opts ParseOptions) (ParseResult, error) {
	res, err := parser.Parse([]byte(source), parser.Options{
		Mode: opts.Mode, MaxErrors: opts.MaxErrors, Registry: opts.Registry,
	})
	if err != nil {
		return ParseResult{}, err
	}
	return ParseResult{
		AST: res.AST, Diagnostics: res.Diagnostics, HasErrors: res.HasErrors,
		IsPartial: res.IsPartial, Ranges: res.Ranges, Valid: res.Valid,
	}, nil
}

// ParseForEvaluation is Fast-mode, throw-on-error parsing for call
// sites that already trust the input (spec.md §6).
func ParseForEvaluation(source string, reg *Registry) (Node, error) {
	res, err := parser.Parse([]byte(source), parser.Options{Mode: parser.ModeFast, Registry: reg})
	return res.AST, err
}

// AnalyzeOptions configures Analyze.
type AnalyzeOptions struct {
	Registry *Registry
	// Provider resolves types/properties; nil uses AnyProvider().
	Provider Provider
	Mode     AnalyzeMode
	// InputType seeds the root node's input type; nil means
	// unconstrained (the universal Any type).
	InputType *TypeInfo
}

// AnalyzeResult is Analyze's outcome (spec.md §6).
type AnalyzeResult = analyzer.Result

// Analyze walks root, annotating every node's TypeInfo and collecting
// diagnostics; it never returns a Go error (spec.md §4.6, §7) — every
// expression-level problem surfaces as a Diagnostic instead.
func Analyze(root Node, opts AnalyzeOptions) AnalyzeResult {
	return analyzer.Analyze(root, analyzer.Options{
		Registry: opts.Registry, Provider: opts.Provider, Mode: opts.Mode, InputType: opts.InputType,
	})
}

// EvaluateOptions configures Evaluate and CompiledExpression.Execute.
type EvaluateOptions struct {
	Registry *Registry
	// Variables seeds %-sigiled user variables bound at the root
	// context, before evaluation begins.
	Variables map[string]Collection
	// Tracer receives trace() calls; nil discards them.
	Tracer Tracer
}

func rootContext(input Collection, variables map[string]Collection) *runtime.Context {
	rc := runtime.NewRoot(input)
	for name, v := range variables {
		rc = rc.SetVariable(name, v, true)
	}
	return rc
}

// Evaluate walks root against input, returning the result collection
// (spec.md §4.8, §6).
func Evaluate(root Node, input Collection, opts EvaluateOptions) (Collection, error) {
	ev := evaluator.New(evaluator.Options{Registry: opts.Registry, Tracer: opts.Tracer})
	out, _, err := ev.Eval(root, rootContext(input, opts.Variables))
	return out, err
}

// EvaluateSource parses source in Fast mode, then evaluates it — a
// convenience combining ParseForEvaluation and Evaluate (spec.md §6).
func EvaluateSource(source string, input Collection, opts EvaluateOptions) (Collection, error) {
	root, err := ParseForEvaluation(source, opts.Registry)
	if err != nil {
		return nil, err
	}
	return Evaluate(root, input, opts)
}

// CompiledExpression is the reusable result of Compile: a closure over
// runtime context (spec.md §4.9), plus whatever result type/cardinality
// a prior Analyze call inferred for it, for a caller that wants to skip
// re-running Analyze on every Execute.
type CompiledExpression struct {
	fn          CompiledFn
	resultType  *TypeInfo
	isSingleton bool
}

// CompileOptions configures Compile.
type CompileOptions struct {
	Registry *Registry
	Tracer   Tracer
	// ResultType/IsSingleton optionally carry a prior Analyze call's
	// inferred output type onto the returned CompiledExpression.
	ResultType  *TypeInfo
	IsSingleton bool
}

// Compile lowers root to a CompiledExpression (spec.md §4.9, §6).
func Compile(root Node, opts CompileOptions) (*CompiledExpression, error) {
	fn, err := compiler.Compile(root, compiler.Options{Registry: opts.Registry, Tracer: opts.Tracer})
	if err != nil {
		return nil, err
	}
	return &CompiledExpression{fn: fn, resultType: opts.ResultType, isSingleton: opts.IsSingleton}, nil
}

// Execute runs the compiled closure against input, binding variables
// into a fresh root context first (spec.md §6, "compiled.execute").
func (c *CompiledExpression) Execute(input Collection, variables map[string]Collection) (Collection, error) {
	return c.fn(rootContext(input, variables))
}

// ResultType returns the output type Analyze inferred for this
// expression, or nil if Compile was never given one.
func (c *CompiledExpression) ResultType() *TypeInfo { return c.resultType }

// IsSingleton reports whether Analyze determined this expression
// always yields at most one element.
func (c *CompiledExpression) IsSingleton() bool { return c.isSingleton }
