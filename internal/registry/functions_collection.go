package registry

import "github.com/kpumuk/fhirpath/internal/value"

func registerCollectionFunctions(r *Registry) {
	r.Register(&Operation{Kind: KindFunction, Name: "union", Params: []Param{{Name: "other", Kind: ParamValue}},
		OutputCardinality: CardinalityCollection,
		Evaluate: oneValueArgEval(func(input, arg value.Collection) (value.Collection, error) {
			return value.Distinct(value.Concat(input, arg)), nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "combine", Params: []Param{{Name: "other", Kind: ParamValue}},
		OutputCardinality: CardinalityCollection,
		Evaluate: oneValueArgEval(func(input, arg value.Collection) (value.Collection, error) {
			return value.Concat(input, arg), nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "intersect", Params: []Param{{Name: "other", Kind: ParamValue}},
		OutputCardinality: CardinalityCollection,
		Evaluate: oneValueArgEval(func(input, arg value.Collection) (value.Collection, error) {
			var out value.Collection
			for _, v := range value.Distinct(input) {
				if value.ContainsEqual(arg, v) {
					out = append(out, v)
				}
			}
			return out, nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "exclude", Params: []Param{{Name: "other", Kind: ParamValue}},
		OutputCardinality: CardinalityCollection,
		Evaluate: oneValueArgEval(func(input, arg value.Collection) (value.Collection, error) {
			var out value.Collection
			for _, v := range input {
				if !value.ContainsEqual(arg, v) {
					out = append(out, v)
				}
			}
			return out, nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "distinct", OutputCardinality: CardinalityCollection,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			return value.Distinct(input), nil
		})})
}
