package registry

import (
	"github.com/kpumuk/fhirpath/internal/errs"
	"github.com/kpumuk/fhirpath/internal/value"
)

func registerSubsettingFunctions(r *Registry) {
	r.Register(&Operation{Kind: KindFunction, Name: "first", OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			if len(input) == 0 {
				return value.Empty, nil
			}
			return value.Of(input[0]), nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "last", OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			if len(input) == 0 {
				return value.Empty, nil
			}
			return value.Of(input[len(input)-1]), nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "tail", OutputCardinality: CardinalityCollection,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			if len(input) <= 1 {
				return value.Empty, nil
			}
			return append(value.Collection{}, input[1:]...), nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "skip", Params: []Param{{Name: "num", Kind: ParamValue, Singleton: true}},
		OutputCardinality: CardinalityCollection,
		Evaluate: oneValueArgEval(func(input, arg value.Collection) (value.Collection, error) {
			n, ok, err := argInt(arg)
			if err != nil || !ok {
				return input, err
			}
			if n < 0 {
				n = 0
			}
			if int(n) >= len(input) {
				return value.Empty, nil
			}
			return append(value.Collection{}, input[n:]...), nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "take", Params: []Param{{Name: "num", Kind: ParamValue, Singleton: true}},
		OutputCardinality: CardinalityCollection,
		Evaluate: oneValueArgEval(func(input, arg value.Collection) (value.Collection, error) {
			n, ok, err := argInt(arg)
			if err != nil || !ok || n <= 0 {
				return value.Empty, err
			}
			if int(n) > len(input) {
				n = int64(len(input))
			}
			return append(value.Collection{}, input[:n]...), nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "single", OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			switch len(input) {
			case 0:
				return value.Empty, nil
			case 1:
				return value.Of(input[0]), nil
			default:
				return nil, errs.Evaluation("CARDINALITY_VIOLATION", "single() expects at most one item, got %d", len(input))
			}
		})})
}
