package evaluator

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/errs"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

// evalLiteral re-parses a Literal node's raw lexeme through the
// registry's literal-matcher table, the evaluator-facing half of the
// "Literal (registry entry)" contract spec.md §3 describes.
func (e *Evaluator) evalLiteral(n *ast.Literal, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	for _, lit := range e.registry.Literals() {
		for _, k := range lit.LiteralKinds {
			if k != n.LiteralKind {
				continue
			}
			v, err := lit.ParseLiteral(n.Lexeme, n.Unit)
			if err != nil {
				return nil, rc, errs.Evaluation("INVALID_LITERAL", "%s", err.Error())
			}
			return value.Of(v), rc, nil
		}
	}
	return nil, rc, errs.Internal("UNKNOWN_LITERAL_KIND", "evaluator: no literal matcher for kind %d", n.LiteralKind)
}

// evalIdentifier navigates from the context's current input by
// property name. A bare identifier that names none of the current
// input's properties but matches an item's own model type name acts
// as a type-qualified root (e.g. `Patient.birthDate` against a bundle
// entry whose resourceType is Patient), rather than an error.
func (e *Evaluator) evalIdentifier(n *ast.Identifier, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	var out value.Collection
	for _, v := range rc.Input() {
		if v.Kind != value.KindObject || v.AsObject() == nil {
			continue
		}
		obj := v.AsObject()
		if children, ok := obj.Get(n.Name); ok {
			out = append(out, children...)
			continue
		}
		if obj.TypeName() == n.Name {
			out = append(out, v)
		}
	}
	return out, rc, nil
}

// evalVariable resolves a `$`-sigiled iteration variable or a
// `%`-sigiled user/environment variable (spec.md §4.7).
func (e *Evaluator) evalVariable(n *ast.Variable, rc *runtime.Context) (value.Collection, *runtime.Context, error) {
	if n.VarKind == ast.VariableSpecial {
		switch n.Name {
		case "this":
			if v, ok := rc.This(); ok {
				return v, rc, nil
			}
			return rc.Input(), rc, nil
		case "index":
			if v, ok := rc.Index(); ok {
				return v, rc, nil
			}
			return value.Empty, rc, nil
		case "total":
			if v, ok := rc.Total(); ok {
				return v, rc, nil
			}
			return value.Empty, rc, nil
		}
	}
	if v, ok := rc.Variable(n.Name); ok {
		return v, rc, nil
	}
	return nil, rc, errs.Evaluation("UNDEFINED_VARIABLE", "undefined variable %%%s", n.Name)
}
