package registry

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

func registerExistenceFunctions(r *Registry) {
	r.Register(&Operation{Kind: KindFunction, Name: "empty", OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			return value.Of(value.Bool(len(input) == 0)), nil
		})})

	r.Register(&Operation{
		Kind: KindFunction, Name: "exists",
		Params:          []Param{{Name: "criteria", Kind: ParamExpression, Optional: true, Singleton: true}},
		OutputCardinality: CardinalitySingleton,
		Analyze:         iterationAnalyze,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			if len(args) == 0 || args[0] == nil {
				return value.Of(value.Bool(len(input) > 0)), rc, nil
			}
			found := false
			err := iterateElements(interp, rc, input, args[0], func(elem value.Value, idx int, result value.Collection) error {
				if !found && value.ToBool3(result) == value.Bool3True {
					found = true
				}
				return nil
			})
			return value.Of(value.Bool(found)), rc, err
		}})

	r.Register(&Operation{
		Kind: KindFunction, Name: "all",
		Params:          []Param{{Name: "criteria", Kind: ParamExpression, Singleton: true}},
		OutputCardinality: CardinalitySingleton,
		Analyze:         iterationAnalyze,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			ok := true
			err := iterateElements(interp, rc, input, args[0], func(elem value.Value, idx int, result value.Collection) error {
				if value.ToBool3(result) != value.Bool3True {
					ok = false
				}
				return nil
			})
			return value.Of(value.Bool(ok)), rc, err
		}})

	registerAllAnyBoolean(r, "allTrue", true, true)
	registerAllAnyBoolean(r, "anyTrue", false, true)
	registerAllAnyBoolean(r, "allFalse", true, false)
	registerAllAnyBoolean(r, "anyFalse", false, false)

	r.Register(&Operation{Kind: KindFunction, Name: "count", OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			return value.Of(value.Int(int64(len(input)))), nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "isDistinct", OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			return value.Of(value.Bool(len(value.Distinct(input)) == len(input))), nil
		})})
}

// registerAllAnyBoolean builds allTrue/anyTrue/allFalse/anyFalse: each
// folds the Boolean elements with "all" or "any" quantification against
// a target truth value; non-Boolean elements are skipped, not rejected.
func registerAllAnyBoolean(r *Registry, name string, all, target bool) {
	r.Register(&Operation{Kind: KindFunction, Name: name, OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			for _, v := range input {
				if v.Kind != value.KindBoolean {
					continue
				}
				if all && v.AsBool() != target {
					return value.Of(value.Bool(false)), nil
				}
				if !all && v.AsBool() == target {
					return value.Of(value.Bool(true)), nil
				}
			}
			return value.Of(value.Bool(all)), nil
		})})
}
