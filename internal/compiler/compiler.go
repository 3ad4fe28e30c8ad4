// Package compiler lowers a syntax tree to a closure over runtime
// context (spec.md §4.9): `compile(ast) → CompiledExpression` whose
// `fn` field composes per-node closures rather than re-walking the
// tree on every execution. No registry entry currently overrides
// Operation.Compile, so this package's generic fallback — calling the
// entry's Evaluate through a small Interpreter shim that itself
// recompiles on demand — is what every call site uses; an entry is
// free to set Compile for a hand-tuned lowering without this package
// changing. Grounded on the closure-returns-closure construction the
// teacher's internal/format package uses for formatting-policy
// callbacks (see DESIGN.md), generalized here to full expression
// compilation.
package compiler

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/errs"
	"github.com/kpumuk/fhirpath/internal/registry"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

// Options configures one Compile call.
type Options struct {
	// Registry supplies operator/function/literal metadata; nil uses
	// registry.Default().
	Registry *registry.Registry
	// Tracer receives trace() calls made during execution of the
	// compiled closure, mirroring the evaluator's injectable seam.
	Tracer Tracer
}

// Tracer receives one call per trace() invocation reached while
// executing a compiled closure.
type Tracer interface {
	Trace(name string, values value.Collection)
}

type compiler struct {
	registry *registry.Registry
	tracer   Tracer
}

var _ registry.Compiler = (*compiler)(nil)

// Compile lowers root to a CompiledFn per spec.md §4.9.
func Compile(root ast.Node, opts Options) (registry.CompiledFn, error) {
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}
	c := &compiler{registry: reg, tracer: opts.Tracer}
	return c.CompileNode(root)
}

// CompileNode implements registry.Compiler, letting a custom
// Operation.Compile recursively lower its own argument subtrees.
func (c *compiler) CompileNode(n ast.Node) (registry.CompiledFn, error) {
	switch node := n.(type) {
	case *ast.Literal:
		return c.compileLiteral(node)
	case *ast.Identifier:
		return c.compileIdentifier(node), nil
	case *ast.Variable:
		return c.compileVariable(node), nil
	case *ast.Unary:
		return c.compileUnary(node)
	case *ast.Binary:
		return c.compileBinary(node)
	case *ast.FunctionCall:
		return c.compileFunctionCall(node)
	case *ast.Index:
		return c.compileIndex(node)
	case *ast.CollectionLiteral:
		return c.compileCollectionLiteral(node)
	case *ast.Union:
		return c.compileUnion(node)
	case *ast.MembershipTest:
		return c.compileMembershipTest(node)
	case *ast.TypeCast:
		return c.compileTypeCast(node)
	case *ast.Error:
		return nil, errs.Internal("COMPILE_ERROR_NODE", "cannot compile a recovered syntax error node")
	case *ast.Incomplete:
		return nil, errs.Internal("COMPILE_INCOMPLETE_NODE", "cannot compile an incomplete parse result")
	default:
		return nil, errs.Internal("COMPILE_UNKNOWN_NODE", "compiler: unhandled node type %T", n)
	}
}

// shim adapts *compiler to registry.Interpreter so an Operation's
// Evaluate closure — written once against the tree-walking evaluator's
// callback shape — runs unchanged under compilation. Its Eval compiles
// the node and executes the result immediately; the context returned
// is always the one it was given, since CompiledFn carries no
// scope-extension channel (a defineVariable() reached only through
// compiled execution does not extend scope for what follows it in the
// same navigation chain — see DESIGN.md).
type shim struct{ c *compiler }

func (s shim) Eval(n ast.Node, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	fn, err := s.c.CompileNode(n)
	if err != nil {
		return nil, rc, err
	}
	out, err := fn(rc)
	return out, rc, err
}

func (s shim) Trace(name string, values value.Collection) {
	if s.c.tracer != nil {
		s.c.tracer.Trace(name, values)
	}
}

// compileLiteral re-parses the literal's lexeme once, at compile time,
// and closes over the resulting constant value: nothing is allocated
// per-invocation beyond the single-element collection returned.
func (c *compiler) compileLiteral(n *ast.Literal) (registry.CompiledFn, error) {
	for _, lit := range c.registry.Literals() {
		for _, k := range lit.LiteralKinds {
			if k != n.LiteralKind {
				continue
			}
			v, err := lit.ParseLiteral(n.Lexeme, n.Unit)
			if err != nil {
				return nil, errs.Evaluation("INVALID_LITERAL", "%s", err.Error())
			}
			out := value.Of(v)
			return func(rc *runtime.Context) (value.Collection, error) {
				return out, nil
			}, nil
		}
	}
	return nil, errs.Internal("UNKNOWN_LITERAL_KIND", "compiler: no literal matcher for kind %d", n.LiteralKind)
}

// compileIdentifier mirrors the evaluator's property-navigation
// lookup, re-run against whatever input rc carries at execution time.
func (c *compiler) compileIdentifier(n *ast.Identifier) registry.CompiledFn {
	name := n.Name
	return func(rc *runtime.Context) (value.Collection, error) {
		var out value.Collection
		for _, v := range rc.Input() {
			if v.Kind != value.KindObject || v.AsObject() == nil {
				continue
			}
			obj := v.AsObject()
			if children, ok := obj.Get(name); ok {
				out = append(out, children...)
				continue
			}
			if obj.TypeName() == name {
				out = append(out, v)
			}
		}
		return out, nil
	}
}

// compileVariable mirrors the evaluator's $this/$index/$total/%var
// resolution.
func (c *compiler) compileVariable(n *ast.Variable) registry.CompiledFn {
	kind, name := n.VarKind, n.Name
	return func(rc *runtime.Context) (value.Collection, error) {
		if kind == ast.VariableSpecial {
			switch name {
			case "this":
				if v, ok := rc.This(); ok {
					return v, nil
				}
				return rc.Input(), nil
			case "index":
				if v, ok := rc.Index(); ok {
					return v, nil
				}
				return value.Empty, nil
			case "total":
				if v, ok := rc.Total(); ok {
					return v, nil
				}
				return value.Empty, nil
			}
		}
		if v, ok := rc.Variable(name); ok {
			return v, nil
		}
		return nil, errs.Evaluation("UNDEFINED_VARIABLE", "undefined variable %%%s", name)
	}
}

// compileUnary looks up the prefix operator once, at compile time, and
// defers to its Evaluate closure through the interpreter shim (unary
// operators have a single operand node, never pre-evaluated, so laziness
// is unaffected).
func (c *compiler) compileUnary(n *ast.Unary) (registry.CompiledFn, error) {
	op, ok := c.registry.GetOperator(n.Op)
	if !ok || op.Evaluate == nil {
		return nil, errs.Internal("UNKNOWN_OPERATOR", "compiler: no evaluable operator registered for %q", n.Op)
	}
	args := []ast.Node{n.Operand}
	s := shim{c}
	return func(rc *runtime.Context) (value.Collection, error) {
		out, _, err := op.Evaluate(s, rc, rc.Input(), args)
		return out, err
	}, nil
}

// compileBinary compiles navigation (`.`) as spec.md §4.9 specifies —
// `ctx → r(ctx.with_input(l(ctx)))` — and every other binary operator
// by deferring to its Evaluate closure.
func (c *compiler) compileBinary(n *ast.Binary) (registry.CompiledFn, error) {
	if n.Op == "." {
		leftFn, err := c.CompileNode(n.Left)
		if err != nil {
			return nil, err
		}
		rightFn, err := c.CompileNode(n.Right)
		if err != nil {
			return nil, err
		}
		return func(rc *runtime.Context) (value.Collection, error) {
			left, err := leftFn(rc)
			if err != nil {
				return nil, err
			}
			return rightFn(rc.WithInput(left))
		}, nil
	}

	op, ok := c.registry.GetOperator(n.Op)
	if !ok || op.Evaluate == nil {
		return nil, errs.Internal("UNKNOWN_OPERATOR", "compiler: no evaluable operator registered for %q", n.Op)
	}
	args := []ast.Node{n.Left, n.Right}
	s := shim{c}
	return func(rc *runtime.Context) (value.Collection, error) {
		out, _, err := op.Evaluate(s, rc, rc.Input(), args)
		return out, err
	}, nil
}

// compileFunctionCall resolves the callee once, at compile time, and
// applies the propagates-empty short-circuit before deferring to
// Evaluate — the same trivial optimization the analyzer's type
// annotations would otherwise justify computing per call.
func (c *compiler) compileFunctionCall(n *ast.FunctionCall) (registry.CompiledFn, error) {
	op, ok := c.registry.Get(n.Callee)
	if !ok {
		return nil, errs.Evaluation("UNKNOWN_FUNCTION", "unknown function %s()", n.Callee)
	}
	if op.Evaluate == nil {
		return nil, errs.Internal("UNIMPLEMENTED_FUNCTION", "function %s() has no evaluator", n.Callee)
	}
	s := shim{c}
	args := n.Args
	propagatesEmpty := op.PropagatesEmpty
	return func(rc *runtime.Context) (value.Collection, error) {
		input := rc.Input()
		if propagatesEmpty && len(input) == 0 {
			return value.Empty, nil
		}
		out, _, err := op.Evaluate(s, rc, input, args)
		return out, err
	}, nil
}

// compileIndex compiles `expr[index]`. The index subexpression runs
// against the original context rather than the base result's context,
// matching the evaluator's treatment when no scope-extension is in
// play; compiled execution never threads scope extension regardless
// (see the shim's doc comment).
func (c *compiler) compileIndex(n *ast.Index) (registry.CompiledFn, error) {
	baseFn, err := c.CompileNode(n.Expr)
	if err != nil {
		return nil, err
	}
	idxFn, err := c.CompileNode(n.Index)
	if err != nil {
		return nil, err
	}
	return func(rc *runtime.Context) (value.Collection, error) {
		base, err := baseFn(rc)
		if err != nil {
			return nil, err
		}
		idxColl, err := idxFn(rc)
		if err != nil {
			return nil, err
		}
		if len(idxColl) == 0 {
			return value.Empty, nil
		}
		if idxColl[0].Kind != value.KindInteger {
			return nil, errs.Evaluation("TYPE_MISMATCH", "index expression must evaluate to an Integer, got %s", idxColl[0].Kind)
		}
		i := idxColl[0].AsInt()
		if i < 0 || int(i) >= len(base) {
			return value.Empty, nil
		}
		return value.Of(base[i]), nil
	}, nil
}

// compileCollectionLiteral compiles each element once and concatenates
// their results in source order at execution time.
func (c *compiler) compileCollectionLiteral(n *ast.CollectionLiteral) (registry.CompiledFn, error) {
	fns := make([]registry.CompiledFn, len(n.Elements))
	for i, el := range n.Elements {
		fn, err := c.CompileNode(el)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return func(rc *runtime.Context) (value.Collection, error) {
		var out value.Collection
		for _, fn := range fns {
			v, err := fn(rc)
			if err != nil {
				return nil, err
			}
			out = append(out, v...)
		}
		return out, nil
	}, nil
}

// compileUnion compiles each operand once and deduplicates across all
// of them at execution time, matching evalUnion.
func (c *compiler) compileUnion(n *ast.Union) (registry.CompiledFn, error) {
	fns := make([]registry.CompiledFn, len(n.Operands))
	for i, operand := range n.Operands {
		fn, err := c.CompileNode(operand)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return func(rc *runtime.Context) (value.Collection, error) {
		var out value.Collection
		for _, fn := range fns {
			v, err := fn(rc)
			if err != nil {
				return nil, err
			}
			for _, item := range v {
				if !value.ContainsEqual(out, item) {
					out = append(out, item)
				}
			}
		}
		return out, nil
	}, nil
}

// compileMembershipTest compiles `expr is T`.
func (c *compiler) compileMembershipTest(n *ast.MembershipTest) (registry.CompiledFn, error) {
	exprFn, err := c.CompileNode(n.Expr)
	if err != nil {
		return nil, err
	}
	typ := n.TypeName
	return func(rc *runtime.Context) (value.Collection, error) {
		v, err := exprFn(rc)
		if err != nil {
			return nil, err
		}
		switch len(v) {
		case 0:
			return value.Empty, nil
		case 1:
			return value.Of(value.Bool(value.MatchesType(v[0], typ.Namespace, typ.Name))), nil
		default:
			return nil, errs.Evaluation("CARDINALITY_VIOLATION", "is requires a singleton operand, got %d elements", len(v))
		}
	}, nil
}

// compileTypeCast compiles `expr as T`.
func (c *compiler) compileTypeCast(n *ast.TypeCast) (registry.CompiledFn, error) {
	exprFn, err := c.CompileNode(n.Expr)
	if err != nil {
		return nil, err
	}
	typ := n.TypeName
	return func(rc *runtime.Context) (value.Collection, error) {
		v, err := exprFn(rc)
		if err != nil {
			return nil, err
		}
		switch len(v) {
		case 0:
			return value.Empty, nil
		case 1:
			if value.MatchesType(v[0], typ.Namespace, typ.Name) {
				return v, nil
			}
			return value.Empty, nil
		default:
			return nil, errs.Evaluation("CARDINALITY_VIOLATION", "as requires a singleton operand, got %d elements", len(v))
		}
	}, nil
}
