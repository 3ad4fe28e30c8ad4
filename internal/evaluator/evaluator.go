// Package evaluator implements the tree-walking evaluator (spec.md
// §4.8) that drives ast.Node evaluation against a runtime.Context.
// Evaluator implements registry.Interpreter so every registry entry's
// Evaluate closure can recursively evaluate its own argument nodes
// through the same dispatch this package uses for the tree itself —
// dependency inversion: this package depends on registry, never the
// reverse (see DESIGN.md).
package evaluator

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/errs"
	"github.com/kpumuk/fhirpath/internal/registry"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

// Tracer receives one call per trace() invocation encountered during
// evaluation. A nil Tracer (the default) discards them, mirroring the
// teacher's injectable-seam style for logging/IO edges.
type Tracer interface {
	Trace(name string, values value.Collection)
}

// TracerFunc adapts a plain function to Tracer.
type TracerFunc func(name string, values value.Collection)

// Trace calls f.
func (f TracerFunc) Trace(name string, values value.Collection) { f(name, values) }

// Options configures one Evaluator.
type Options struct {
	// Registry supplies operator/function/literal metadata; nil uses
	// registry.Default().
	Registry *registry.Registry
	// Tracer receives trace() calls; nil discards them.
	Tracer Tracer
}

// Evaluator walks an ast.Node tree against a runtime.Context.
type Evaluator struct {
	registry *registry.Registry
	tracer   Tracer
}

// New builds an Evaluator from opts.
func New(opts Options) *Evaluator {
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}
	return &Evaluator{registry: reg, tracer: opts.Tracer}
}

var _ registry.Interpreter = (*Evaluator)(nil)

// Trace reports name/values to the injected Tracer, if any.
func (e *Evaluator) Trace(name string, values value.Collection) {
	if e.tracer != nil {
		e.tracer.Trace(name, values)
	}
}

// Eval evaluates n against rc, returning the result collection and the
// context a caller should use for whatever follows n in its enclosing
// navigation chain — ordinarily rc itself, but a wider frame when n (or
// something n navigates through) is a defineVariable() call extending
// scope for the rest of the chain (spec.md §4.7).
func (e *Evaluator) Eval(n ast.Node, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	switch node := n.(type) {
	case *ast.Literal:
		return e.evalLiteral(node, rc)
	case *ast.Identifier:
		return e.evalIdentifier(node, rc)
	case *ast.Variable:
		return e.evalVariable(node, rc)
	case *ast.Unary:
		out, err := e.evalOperator(node.Op, rc, rc.Input(), []ast.Node{node.Operand})
		return out, rc, err
	case *ast.Binary:
		return e.evalBinary(node, rc)
	case *ast.FunctionCall:
		return e.evalFunctionCall(node, rc)
	case *ast.Index:
		return e.evalIndex(node, rc)
	case *ast.CollectionLiteral:
		return e.evalCollectionLiteral(node, rc)
	case *ast.Union:
		return e.evalUnion(node, rc)
	case *ast.MembershipTest:
		return e.evalMembershipTest(node, rc)
	case *ast.TypeCast:
		return e.evalTypeCast(node, rc)
	case *ast.Error:
		return nil, rc, errs.Evaluation("RECOVERED_ERROR_NODE", "cannot evaluate a recovered syntax error (%s)", node.Message)
	case *ast.Incomplete:
		return nil, rc, errs.Evaluation("INCOMPLETE_NODE", "cannot evaluate an incomplete parse result")
	default:
		return nil, rc, errs.Internal("UNKNOWN_NODE", "evaluator: unhandled node type %T", n)
	}
}

// evalOperator looks up a non-navigation operator by its registry name
// and invokes its Evaluate closure with interp bound to e.
func (e *Evaluator) evalOperator(name string, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, error) {
	op, ok := e.registry.GetOperator(name)
	if !ok || op.Evaluate == nil {
		return nil, errs.Internal("UNKNOWN_OPERATOR", "evaluator: no evaluable operator registered for %q", name)
	}
	out, _, err := op.Evaluate(e, rc, input, args)
	return out, err
}

func (e *Evaluator) evalBinary(n *ast.Binary, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	if n.Op == "." {
		return e.evalNavigation(n, rc)
	}
	out, err := e.evalOperator(n.Op, rc, rc.Input(), []ast.Node{n.Left, n.Right})
	return out, rc, err
}

// evalNavigation implements the `.` operator: evaluate the left side,
// then evaluate the right side with input/focus narrowed to the left
// side's result. Both sides may extend scope (defineVariable), so the
// context returned threads forward across the whole chain.
func (e *Evaluator) evalNavigation(n *ast.Binary, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	left, leftRC, err := e.Eval(n.Left, rc)
	if err != nil {
		return nil, rc, err
	}
	stepRC := leftRC.WithInput(left)
	result, resultRC, err := e.Eval(n.Right, stepRC)
	if err != nil {
		return nil, rc, err
	}
	return result, resultRC, nil
}

func (e *Evaluator) evalFunctionCall(n *ast.FunctionCall, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	op, ok := e.registry.Get(n.Callee)
	if !ok {
		return nil, rc, errs.Evaluation("UNKNOWN_FUNCTION", "unknown function %s()", n.Callee)
	}
	if op.Evaluate == nil {
		return nil, rc, errs.Internal("UNIMPLEMENTED_FUNCTION", "function %s() has no evaluator", n.Callee)
	}
	input := rc.Input()
	if op.PropagatesEmpty && len(input) == 0 {
		return value.Empty, rc, nil
	}
	return op.Evaluate(e, rc, input, n.Args)
}

func (e *Evaluator) evalIndex(n *ast.Index, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	base, baseRC, err := e.Eval(n.Expr, rc)
	if err != nil {
		return nil, rc, err
	}
	idxColl, err := evalScalarArg(e, baseRC, n.Index)
	if err != nil {
		return nil, rc, err
	}
	if len(idxColl) == 0 {
		return value.Empty, baseRC, nil
	}
	if idxColl[0].Kind != value.KindInteger {
		return nil, rc, errs.Evaluation("TYPE_MISMATCH", "index expression must evaluate to an Integer, got %s", idxColl[0].Kind)
	}
	i := idxColl[0].AsInt()
	if i < 0 || int(i) >= len(base) {
		return value.Empty, baseRC, nil
	}
	return value.Of(base[i]), baseRC, nil
}

func evalScalarArg(e *Evaluator, rc *runtime.Context, n ast.Node) (value.Collection, error) {
	v, _, err := e.Eval(n, rc)
	return v, err
}

func (e *Evaluator) evalCollectionLiteral(n *ast.CollectionLiteral, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	var out value.Collection
	for _, el := range n.Elements {
		v, _, err := e.Eval(el, rc)
		if err != nil {
			return nil, rc, err
		}
		out = append(out, v...)
	}
	return out, rc, nil
}

func (e *Evaluator) evalUnion(n *ast.Union, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	var out value.Collection
	for _, operand := range n.Operands {
		v, _, err := e.Eval(operand, rc)
		if err != nil {
			return nil, rc, err
		}
		for _, item := range v {
			if !value.ContainsEqual(out, item) {
				out = append(out, item)
			}
		}
	}
	return out, rc, nil
}
