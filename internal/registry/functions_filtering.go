package registry

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/diagnostic"
	"github.com/kpumuk/fhirpath/internal/model"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

// iterateElements evaluates expr once per element of input, in a
// fresh iterator context binding $this/$index to that element
// (spec.md §4.8, where/select). f receives the per-element result and
// decides what to accumulate.
func iterateElements(interp Interpreter, rc *runtime.Context, input value.Collection, expr ast.Node, f func(elem value.Value, idx int, result value.Collection) error) error {
	for i, elem := range input {
		iterCtx := rc.WithIterator(elem, i)
		result, _, err := interp.Eval(expr, iterCtx)
		if err != nil {
			return err
		}
		if err := f(elem, i, result); err != nil {
			return err
		}
	}
	return nil
}

func registerFilteringFunctions(r *Registry) {
	r.Register(&Operation{
		Kind: KindFunction, Name: "where",
		Params:            []Param{{Name: "criteria", Kind: ParamExpression, Singleton: true}},
		OutputCardinality: CardinalityPreserveInput,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			var out value.Collection
			err := iterateElements(interp, rc, input, args[0], func(elem value.Value, idx int, result value.Collection) error {
				if value.ToBool3(result) == value.Bool3True {
					out = append(out, elem)
				}
				return nil
			})
			return out, rc, err
		},
		Analyze: iterationAnalyze,
	})

	r.Register(&Operation{
		Kind: KindFunction, Name: "select",
		Params:            []Param{{Name: "projection", Kind: ParamExpression, Singleton: true}},
		OutputCardinality: CardinalityCollection,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			var out value.Collection
			err := iterateElements(interp, rc, input, args[0], func(elem value.Value, idx int, result value.Collection) error {
				out = append(out, result...)
				return nil
			})
			return out, rc, err
		},
		Analyze: iterationAnalyze,
	})

	r.Register(&Operation{
		Kind: KindFunction, Name: "repeat",
		Params:            []Param{{Name: "projection", Kind: ParamExpression, Singleton: true}},
		OutputCardinality: CardinalityCollection,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			collected := append(value.Collection{}, input...)
			frontier := input
			for len(frontier) > 0 {
				var delta value.Collection
				err := iterateElements(interp, rc, frontier, args[0], func(elem value.Value, idx int, result value.Collection) error {
					for _, v := range result {
						if !value.ContainsEqual(collected, v) && !value.ContainsEqual(delta, v) {
							delta = append(delta, v)
						}
					}
					return nil
				})
				if err != nil {
					return nil, rc, err
				}
				if len(delta) == 0 {
					break
				}
				collected = append(collected, delta...)
				frontier = delta
			}
			return collected, rc, nil
		},
		Analyze: iterationAnalyze,
	})

	r.Register(&Operation{
		Kind: KindFunction, Name: "ofType",
		Params:            []Param{{Name: "type", Kind: ParamTypeSpecifier}},
		OutputCardinality: CardinalityCollection,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			namespace, typeName := typeRefParts(args[0])
			var out value.Collection
			for _, v := range input {
				if value.MatchesType(v, namespace, typeName) {
					out = append(out, v)
				}
			}
			return out, rc, nil
		},
		Analyze: ofTypeAnalyze,
	})
}

func typeRefParts(n ast.Node) (namespace, name string) {
	switch t := n.(type) {
	case *ast.TypeReference:
		return t.Namespace, t.Name
	case *ast.Identifier:
		return "", t.Name
	default:
		return "", ""
	}
}

// iterationAnalyze publishes $this (element type, singleton) and
// $index (Integer, singleton) before analyzing the expression
// argument, via a scoped save/restore so nested iterations compose
// (spec.md §4.6).
func iterationAnalyze(an Analyzer, input model.TypeInfo, args []ast.Node) (model.TypeInfo, error) {
	an.PushScope()
	defer an.PopScope()
	elemType := input
	elemType.IsSingleton = true
	an.Publish("this", elemType)
	an.Publish("index", model.TypeInfo{Name: "Integer", IsSingleton: true})
	if len(args) > 0 {
		if _, err := an.AnalyzeNode(args[0], elemType); err != nil {
			return model.TypeInfo{}, err
		}
	}
	return input, nil
}

// ofTypeAnalyze warns when a union input's ofType(T) names a type not
// among that union's recorded Choices (spec.md §4.6, "ofType(T) ...
// emits a warning when T is not among the choices").
func ofTypeAnalyze(an Analyzer, input model.TypeInfo, args []ast.Node) (model.TypeInfo, error) {
	if len(args) == 0 {
		return model.TypeInfo{Name: model.AnyTypeName}, nil
	}
	_, typeName := typeRefParts(args[0])
	if input.IsUnion && len(input.Choices) > 0 {
		found := false
		for _, choice := range input.Choices {
			if an.Provider().TypeName(choice) == typeName {
				found = true
				break
			}
		}
		if !found {
			an.Diagnose(diagnostic.InvalidTypeFilter(typeName, input.Name, args[0].Range()))
		}
	}
	return model.TypeInfo{Name: model.AnyTypeName}, nil
}
