package registry

import (
	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/errs"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

func registerFunctions(r *Registry) {
	registerExistenceFunctions(r)
	registerSubsettingFunctions(r)
	registerFilteringFunctions(r)
	registerCollectionFunctions(r)
	registerStringFunctions(r)
	registerMathFunctions(r)
	registerConversionFunctions(r)
	registerTreeFunctions(r)
	registerUtilityFunctions(r)
}

// noArgEval adapts a pure input->output collection function (no
// arguments, no context extension) to EvaluateFn.
func noArgEval(f func(input value.Collection) (value.Collection, error)) EvaluateFn {
	return func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
		out, err := f(input)
		return out, rc, err
	}
}

// oneValueArgEval adapts a function taking the input plus one eagerly
// evaluated argument collection.
func oneValueArgEval(f func(input, arg value.Collection) (value.Collection, error)) EvaluateFn {
	return func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
		var arg value.Collection
		if len(args) > 0 {
			v, err := evalArg(interp, rc, args[0])
			if err != nil {
				return nil, rc, err
			}
			arg = v
		}
		out, err := f(input, arg)
		return out, rc, err
	}
}

// inputString requires the input to be a singleton String, returning
// ok=false (not an error) for empty input, matching the propagates-
// empty convention of spec.md §4.8's string function bank.
func inputString(input value.Collection) (s string, ok bool, err error) {
	v, has, err := singletonOrEmpty(input)
	if err != nil {
		return "", false, err
	}
	if !has {
		return "", false, nil
	}
	if v.Kind != value.KindString {
		return "", false, errs.Evaluation("TYPE_MISMATCH", "expected a String input, got %s", v.Kind)
	}
	return v.AsString(), true, nil
}

// argString extracts a singleton String from an already-evaluated
// argument collection.
func argString(arg value.Collection) (s string, ok bool, err error) {
	v, has, err := singletonOrEmpty(arg)
	if err != nil {
		return "", false, err
	}
	if !has {
		return "", false, nil
	}
	if v.Kind != value.KindString {
		return "", false, errs.Evaluation("TYPE_MISMATCH", "expected a String argument, got %s", v.Kind)
	}
	return v.AsString(), true, nil
}

// argInt extracts a singleton Integer from an already-evaluated
// argument collection.
func argInt(arg value.Collection) (n int64, ok bool, err error) {
	v, has, err := singletonOrEmpty(arg)
	if err != nil {
		return 0, false, err
	}
	if !has {
		return 0, false, nil
	}
	if v.Kind != value.KindInteger {
		return 0, false, errs.Evaluation("TYPE_MISMATCH", "expected an Integer argument, got %s", v.Kind)
	}
	return v.AsInt(), true, nil
}

// stringFn builds a String->String (or ->Boolean, ->Integer, ...)
// function of zero or more String/Integer arguments, propagating
// empty whenever the input is not a singleton String.
func stringFn(name string, paramCount int, f func(s string, args []value.Collection) (value.Collection, error)) *Operation {
	params := make([]Param, paramCount)
	for i := range params {
		params[i] = Param{Name: "arg", Kind: ParamValue}
	}
	return &Operation{
		Kind: KindFunction, Name: name, InputConstraint: "String", Params: params,
		PropagatesEmpty: true, Deterministic: true,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			s, ok, err := inputString(input)
			if err != nil || !ok {
				return value.Empty, rc, err
			}
			evaluated := make([]value.Collection, len(args))
			for i, a := range args {
				v, err := evalArg(interp, rc, a)
				if err != nil {
					return nil, rc, err
				}
				evaluated[i] = v
			}
			out, err := f(s, evaluated)
			return out, rc, err
		},
	}
}
