package registry

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/model"
	"github.com/kpumuk/fhirpath/internal/value"
)

// childrenOf returns the immediate named children of an Object value,
// in provider-declared order; non-Object values contribute nothing.
func childrenOf(v value.Value) value.Collection {
	if v.Kind != value.KindObject || v.AsObject() == nil {
		return nil
	}
	obj := v.AsObject()
	var out value.Collection
	for _, name := range objectChildNames(obj) {
		if kids, ok := obj.Get(name); ok {
			out = append(out, kids...)
		}
	}
	return out
}

// objectChildNames is a seam for providers that can enumerate their own
// property names; falls back to nothing when the provider's Object
// does not expose enumeration (spec.md §4.10 leaves traversal order to
// the host model, so children()/descendants() are best-effort without
// one).
func objectChildNames(obj value.Object) []string {
	if enumerable, ok := obj.(interface{ PropertyNames() []string }); ok {
		return enumerable.PropertyNames()
	}
	return nil
}

// childrenTypeAnalyze implements spec.md §4.6's "children() returns
// the union of element types of the input type (deduplicated)": it
// delegates entirely to the model provider's ChildrenType, which is
// already responsible for deduplicating a complex type's element set.
func childrenTypeAnalyze(an Analyzer, input model.TypeInfo, args []ast.Node) (model.TypeInfo, error) {
	if input.Type == nil {
		return model.TypeInfo{Name: model.AnyTypeName}, nil
	}
	union, ok := an.Provider().ChildrenType(input.Type)
	if !ok {
		return model.TypeInfo{Name: model.AnyTypeName}, nil
	}
	return model.TypeInfo{Type: union, Name: an.Provider().TypeName(union), IsUnion: true}, nil
}

func registerTreeFunctions(r *Registry) {
	r.Register(&Operation{Kind: KindFunction, Name: "children", OutputCardinality: CardinalityCollection,
		Analyze: childrenTypeAnalyze,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			var out value.Collection
			for _, v := range input {
				out = append(out, childrenOf(v)...)
			}
			return out, nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "descendants", OutputCardinality: CardinalityCollection,
		Analyze: childrenTypeAnalyze,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			var out value.Collection
			frontier := input
			for len(frontier) > 0 {
				var next value.Collection
				for _, v := range frontier {
					next = append(next, childrenOf(v)...)
				}
				out = append(out, next...)
				frontier = next
			}
			return out, nil
		})})
}
