// Package analyzer implements the type analyzer (spec.md §4.6): a
// single-pass post-parse walker that annotates each ast.Node with a
// model.TypeInfo, dispatching operator/function semantics through the
// registry's declarative output-type/cardinality rules and the
// iteration-aware Analyze overrides (where/select/all/exists/repeat)
// the registry already carries. Grounded on funvibe-funxy's
// internal/analyzer/analyzer.go walker shape and its position-keyed
// diagnostic dedup, trimmed from that file's multi-pass type-inference
// machinery down to the single declarative pass spec.md §4.6 actually
// specifies — the model provider is authoritative, never inferred
// (see DESIGN.md).
package analyzer

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/diagnostic"
	"github.com/kpumuk/fhirpath/internal/model"
	"github.com/kpumuk/fhirpath/internal/registry"
	"github.com/kpumuk/fhirpath/internal/text"
)

// Options configures one Analyze call.
type Options struct {
	// Registry supplies operator/function metadata; nil uses registry.Default().
	Registry *registry.Registry
	// Provider resolves types and properties; nil uses model.AnyModelProvider{}.
	Provider model.Provider
	// Mode controls whether an unknown property is a warning (Lenient,
	// the default) or an error (Strict) — spec.md §4.6.
	Mode registry.AnalyzeMode
	// InputType seeds the root node's input type; a TypeInfo named
	// model.AnyTypeName (the universal "no constraint" type) is used
	// when absent.
	InputType *model.TypeInfo
}

// Result is the outcome of one Analyze call (spec.md §6).
type Result struct {
	AST               ast.Node
	Diagnostics       []diagnostic.Diagnostic
	ResultType        *model.TypeInfo
	ResultIsSingleton bool
}

// scope is one entry of the analyzer's save/restore stack for
// iteration-scoped system variables ($this/$index/$total), mirroring
// runtime.Context's parent-pointer chain but at analysis time, where
// there is only ever one active chain rather than one per evaluation
// frame.
type scope struct {
	vars map[string]model.TypeInfo
}

// analyzer is the walker state for one Analyze call.
type analyzer struct {
	registry  *registry.Registry
	provider  model.Provider
	mode      registry.AnalyzeMode
	collector *diagnostic.Collector
	scopes    []scope
}

var _ registry.Analyzer = (*analyzer)(nil)

// Analyze walks root, annotating every node's TypeInfo via
// ast.Node.SetType, and returns the collected diagnostics plus the
// root's inferred result type (spec.md §4.6, §6).
func Analyze(root ast.Node, opts Options) Result {
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}
	provider := opts.Provider
	if provider == nil {
		provider = model.AnyModelProvider{}
	}
	input := model.TypeInfo{Name: model.AnyTypeName}
	if opts.InputType != nil {
		input = *opts.InputType
	}

	a := &analyzer{
		registry:  reg,
		provider:  provider,
		mode:      opts.Mode,
		collector: diagnostic.NewCollector(0),
	}

	if root == nil {
		return Result{}
	}

	t, err := a.AnalyzeNode(root, input)
	if err != nil {
		// AnalyzeNode only returns an error for programmer-facing
		// registry misconfiguration (spec.md §7 InternalError); a
		// user-visible expression problem is always a diagnostic
		// instead, never a Go error, per SPEC_FULL.md §1.
		a.collector.Add(diagnostic.Diagnostic{
			Code: "INTERNAL_ERROR", Message: err.Error(),
			Severity: diagnostic.SeverityError, Span: root.Range(), Source: diagnostic.SourceAnalyzer,
		})
	}

	return Result{
		AST:               root,
		Diagnostics:       a.collector.All(),
		ResultType:        &t,
		ResultIsSingleton: t.IsSingleton,
	}
}

func (a *analyzer) Provider() model.Provider         { return a.provider }
func (a *analyzer) Mode() registry.AnalyzeMode        { return a.mode }
func (a *analyzer) Diagnose(d diagnostic.Diagnostic) { a.collector.Add(d) }

// PushScope/PopScope/Publish implement the save/restore discipline
// spec.md §4.6 requires for iteration functions: a nested where()
// inside a select() must not leak its own $this/$index binding back
// to the outer one once analysis of its argument completes.
func (a *analyzer) PushScope() {
	a.scopes = append(a.scopes, scope{vars: map[string]model.TypeInfo{}})
}

func (a *analyzer) PopScope() { a.scopes = a.scopes[:len(a.scopes)-1] }

func (a *analyzer) Publish(name string, t model.TypeInfo) {
	if len(a.scopes) == 0 {
		return
	}
	a.scopes[len(a.scopes)-1].vars[name] = t
}

func (a *analyzer) lookupSystemVar(name string) (model.TypeInfo, bool) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if t, ok := a.scopes[i].vars[name]; ok {
			return t, true
		}
	}
	return model.TypeInfo{}, false
}

// AnalyzeNode dispatches per node variant, implementing
// registry.Analyzer so registry entries can recursively analyze their
// own child/argument nodes without this package being imported back
// (dependency inversion — see DESIGN.md).
func (a *analyzer) AnalyzeNode(n ast.Node, input model.TypeInfo) (model.TypeInfo, error) {
	if n == nil {
		return input, nil
	}
	var t model.TypeInfo
	var err error
	switch node := n.(type) {
	case *ast.Literal:
		t = a.analyzeLiteral(node)
	case *ast.Identifier:
		t = a.analyzeIdentifier(node, input)
	case *ast.Variable:
		t = a.analyzeVariable(node, input)
	case *ast.Unary:
		t, err = a.analyzeOperator(node.Op, input, []ast.Node{node.Operand})
	case *ast.Binary:
		t, err = a.analyzeBinary(node, input)
	case *ast.FunctionCall:
		t, err = a.analyzeFunctionCall(node, input)
	case *ast.Index:
		t, err = a.analyzeIndex(node, input)
	case *ast.CollectionLiteral:
		t = a.analyzeCollectionLiteral(node, input)
	case *ast.Union:
		t = a.analyzeUnion(node, input)
	case *ast.MembershipTest:
		t = a.analyzeMembershipTest(node, input)
	case *ast.TypeCast:
		t = a.analyzeTypeCast(node, input)
	case *ast.TypeReference:
		t = a.resolveTypeReference(*node, node.Range())
	case *ast.Error, *ast.Incomplete:
		t = model.TypeInfo{Name: model.AnyTypeName}
	default:
		t = model.TypeInfo{Name: model.AnyTypeName}
	}
	if err != nil {
		return model.TypeInfo{}, err
	}
	n.SetType(t)
	return t, nil
}

func (a *analyzer) analyzeLiteral(n *ast.Literal) model.TypeInfo {
	name := map[ast.LiteralKind]string{
		ast.LiteralBoolean:  "Boolean",
		ast.LiteralInteger:  "Integer",
		ast.LiteralDecimal:  "Decimal",
		ast.LiteralString:   "String",
		ast.LiteralDate:     "Date",
		ast.LiteralDateTime: "DateTime",
		ast.LiteralTime:     "Time",
		ast.LiteralQuantity: "Quantity",
	}[n.LiteralKind]
	return model.TypeInfo{Namespace: "System", Name: name, IsSingleton: true}
}

// analyzeIdentifier resolves a bare property/type name against input
// via the model provider; an unresolved property is a warning in
// Lenient mode, an error in Strict mode (spec.md §4.6).
func (a *analyzer) analyzeIdentifier(n *ast.Identifier, input model.TypeInfo) model.TypeInfo {
	if input.Type != nil {
		if prop, ok := a.provider.PropertyType(input.Type, n.Name); ok {
			return prop
		}
	}
	severity := diagnostic.SeverityWarning
	if a.mode == registry.Strict {
		severity = diagnostic.SeverityError
	}
	typeName := input.Name
	if typeName == "" {
		typeName = model.AnyTypeName
	}
	a.collector.Add(diagnostic.UnknownProperty(n.Name, typeName, severity, n.Range()))
	return model.TypeInfo{Name: model.AnyTypeName}
}

func (a *analyzer) analyzeVariable(n *ast.Variable, input model.TypeInfo) model.TypeInfo {
	if n.VarKind == ast.VariableSpecial {
		switch n.Name {
		case "this":
			if t, ok := a.lookupSystemVar("this"); ok {
				return t
			}
			return input
		case "index":
			if t, ok := a.lookupSystemVar("index"); ok {
				return t
			}
			return model.TypeInfo{Namespace: "System", Name: "Integer", IsSingleton: true}
		case "total":
			if t, ok := a.lookupSystemVar("total"); ok {
				return t
			}
			return model.TypeInfo{Name: model.AnyTypeName}
		}
	}
	// A user/environment variable's type is unknown to the core; a host
	// could extend Provider to type %-variables, but spec.md §4.10 does
	// not name such a hook, so these stay Any.
	return model.TypeInfo{Name: model.AnyTypeName}
}

// analyzeBinary handles navigation (left then right against left's
// type) and dispatches every other binary operator through the
// registry (spec.md §4.6, "Navigation").
func (a *analyzer) analyzeBinary(n *ast.Binary, input model.TypeInfo) (model.TypeInfo, error) {
	if n.Op == "." {
		leftType, err := a.AnalyzeNode(n.Left, input)
		if err != nil {
			return model.TypeInfo{}, err
		}
		rightType, err := a.AnalyzeNode(n.Right, leftType)
		if err != nil {
			return model.TypeInfo{}, err
		}
		return rightType, nil
	}
	return a.analyzeOperator(n.Op, input, []ast.Node{n.Left, n.Right})
}

// analyzeOperator resolves name in the registry's operator table and
// runs its declarative rule (or a custom Analyze override, if the
// entry supplies one).
func (a *analyzer) analyzeOperator(name string, input model.TypeInfo, args []ast.Node) (model.TypeInfo, error) {
	op, ok := a.registry.GetOperator(name)
	if !ok {
		return model.TypeInfo{Name: model.AnyTypeName}, nil
	}
	return a.runOperation(op, input, args)
}

// analyzeFunctionCall resolves a FunctionCall by name; an unknown
// function is an analyzer error (not merely a warning — spec.md §4.6
// "Dispatch to the registry's analyze method").
func (a *analyzer) analyzeFunctionCall(n *ast.FunctionCall, input model.TypeInfo) (model.TypeInfo, error) {
	op, ok := a.registry.Get(n.Callee)
	if !ok {
		a.collector.Add(diagnostic.UnknownFunction(n.Callee, n.Range()))
		return model.TypeInfo{Name: model.AnyTypeName}, nil
	}
	a.checkArity(op.Name, op.Params, len(n.Args), n.Range())
	return a.runOperation(op, input, n.Args)
}

// checkArity reports WRONG_ARITY when a call supplies fewer arguments
// than the declared non-optional parameter count, or more arguments
// than declared at all (spec.md §4.6, "checks parameter count").
func (a *analyzer) checkArity(name string, params []registry.Param, got int, span text.Span) {
	required := 0
	for _, p := range params {
		if !p.Optional {
			required++
		}
	}
	if got < required || got > len(params) {
		a.collector.Add(diagnostic.WrongArity(name, len(params), got, span))
	}
}

// runOperation applies a registry entry's Analyze override if present,
// else the default declarative rule: propagates_empty never changes
// the *type* at analysis time (only evaluation folds empty through),
// the singleton-argument constraint is advisory (the analyzer records
// no diagnostic for it beyond arity — cardinality is primarily an
// evaluation-time concern per spec.md §4.8's fatal-violation list),
// and the output type/cardinality follow the entry's declared rule.
func (a *analyzer) runOperation(op *registry.Operation, input model.TypeInfo, args []ast.Node) (model.TypeInfo, error) {
	if op.Analyze != nil {
		return op.Analyze(a, input, args)
	}
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if _, err := a.AnalyzeNode(arg, input); err != nil {
			return model.TypeInfo{}, err
		}
	}
	return a.defaultOutputType(op, input), nil
}

// defaultOutputType computes a function/operator's result TypeInfo
// from its declared OutputCardinality rule (spec.md §4.6): the type
// identity itself stays Any absent a more specific per-function rule,
// since the registry's declarative contract names only a cardinality
// rule, not a type-transform rule, for the bulk of the ~80 operations.
func (a *analyzer) defaultOutputType(op *registry.Operation, input model.TypeInfo) model.TypeInfo {
	switch op.OutputCardinality {
	case registry.CardinalityPreserveInput:
		return input
	case registry.CardinalitySingleton:
		return model.TypeInfo{Name: model.AnyTypeName, IsSingleton: true}
	case registry.CardinalityAllSingleton:
		t := input
		t.IsSingleton = true
		return t
	default: // CardinalityCollection
		return model.TypeInfo{Name: model.AnyTypeName, IsSingleton: false}
	}
}

func (a *analyzer) analyzeIndex(n *ast.Index, input model.TypeInfo) (model.TypeInfo, error) {
	exprType, err := a.AnalyzeNode(n.Expr, input)
	if err != nil {
		return model.TypeInfo{}, err
	}
	if _, err := a.AnalyzeNode(n.Index, input); err != nil {
		return model.TypeInfo{}, err
	}
	exprType.IsSingleton = true
	return exprType, nil
}

func (a *analyzer) analyzeCollectionLiteral(n *ast.CollectionLiteral, input model.TypeInfo) model.TypeInfo {
	var types []model.TypeRef
	for _, el := range n.Elements {
		t, err := a.AnalyzeNode(el, input)
		if err != nil {
			continue
		}
		if t.Type != nil {
			types = append(types, t.Type)
		}
	}
	return a.commonTypeOf(types)
}

// analyzeUnion infers each operand's element type and asks the model
// provider for a common supertype (spec.md §4.6, "Union").
func (a *analyzer) analyzeUnion(n *ast.Union, input model.TypeInfo) model.TypeInfo {
	var types []model.TypeRef
	for _, operand := range n.Operands {
		t, err := a.AnalyzeNode(operand, input)
		if err != nil {
			continue
		}
		if t.Type != nil {
			types = append(types, t.Type)
		}
	}
	return a.commonTypeOf(types)
}

func (a *analyzer) commonTypeOf(types []model.TypeRef) model.TypeInfo {
	if len(types) == 0 {
		return model.TypeInfo{Name: model.AnyTypeName}
	}
	common, ok := a.provider.CommonType(types)
	if !ok {
		return model.TypeInfo{Name: model.AnyTypeName}
	}
	return model.TypeInfo{Type: common, Name: a.provider.TypeName(common)}
}

// analyzeMembershipTest/analyzeTypeCast both resolve their type
// operand via resolveTypeReference and analyze the left expression;
// `is` always yields Boolean, `as` yields T (narrowed, still
// singleton since both operators require a singleton operand at
// evaluation time — spec.md §4.8).
func (a *analyzer) analyzeMembershipTest(n *ast.MembershipTest, input model.TypeInfo) model.TypeInfo {
	if _, err := a.AnalyzeNode(n.Expr, input); err != nil {
		return model.TypeInfo{Namespace: "System", Name: "Boolean", IsSingleton: true}
	}
	a.resolveTypeReference(n.TypeName, n.TypeName.Range())
	return model.TypeInfo{Namespace: "System", Name: "Boolean", IsSingleton: true}
}

func (a *analyzer) analyzeTypeCast(n *ast.TypeCast, input model.TypeInfo) model.TypeInfo {
	if _, err := a.AnalyzeNode(n.Expr, input); err != nil {
		return model.TypeInfo{Name: model.AnyTypeName, IsSingleton: true}
	}
	t := a.resolveTypeReference(n.TypeName, n.TypeName.Range())
	t.IsSingleton = true
	return t
}

// resolveTypeReference looks up a (possibly namespaced) type name
// through the model provider, reporting UNKNOWN_TYPE when it cannot
// be resolved at all.
func (a *analyzer) resolveTypeReference(n ast.TypeReference, span text.Span) model.TypeInfo {
	name := n.Name
	full := name
	if n.Namespace != "" {
		full = n.Namespace + "." + name
	}
	ref, ok := a.provider.ResolveType(full)
	if !ok {
		ref, ok = a.provider.ResolveType(name)
	}
	if !ok {
		a.collector.Add(diagnostic.UnknownType(full, span))
		return model.TypeInfo{Namespace: n.Namespace, Name: name}
	}
	return model.TypeInfo{Type: ref, Namespace: n.Namespace, Name: a.provider.TypeName(ref)}
}
