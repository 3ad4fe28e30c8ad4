package evaluator

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/errs"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

// matchesType reports whether v's runtime type matches typ, delegating
// to value.MatchesType (shared with the registry's ofType()).
func matchesType(v value.Value, typ ast.TypeReference) bool {
	return value.MatchesType(v, typ.Namespace, typ.Name)
}

// evalMembershipTest implements `expr is T`: a singleton type-check
// that itself propagates empty (spec.md §4.8, "is").
func (e *Evaluator) evalMembershipTest(n *ast.MembershipTest, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	c, exprRC, err := e.Eval(n.Expr, rc)
	if err != nil {
		return nil, rc, err
	}
	switch len(c) {
	case 0:
		return value.Empty, exprRC, nil
	case 1:
		return value.Of(value.Bool(matchesType(c[0], n.TypeName))), exprRC, nil
	default:
		return nil, rc, errs.Evaluation("CARDINALITY_VIOLATION", "is requires a singleton operand, got %d elements", len(c))
	}
}

// evalTypeCast implements `expr as T`: a singleton type filter that
// yields the operand unchanged when it matches T, else empty (spec.md
// §4.8, "as").
func (e *Evaluator) evalTypeCast(n *ast.TypeCast, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	c, exprRC, err := e.Eval(n.Expr, rc)
	if err != nil {
		return nil, rc, err
	}
	switch len(c) {
	case 0:
		return value.Empty, exprRC, nil
	case 1:
		if matchesType(c[0], n.TypeName) {
			return c, exprRC, nil
		}
		return value.Empty, exprRC, nil
	default:
		return nil, rc, errs.Evaluation("CARDINALITY_VIOLATION", "as requires a singleton operand, got %d elements", len(c))
	}
}
