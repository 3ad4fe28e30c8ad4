package registry

import (
	"math"

	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/errs"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

// numericFn builds a function over a singleton numeric input (spec.md
// §4.4's math bank), propagating empty per spec.md §8 property 1.
func numericFn(name string, argCount int, f func(d value.Decimal, args []value.Collection) (value.Value, error)) *Operation {
	params := make([]Param, argCount)
	for i := range params {
		params[i] = Param{Name: "arg", Kind: ParamValue}
	}
	return &Operation{
		Kind: KindFunction, Name: name, InputConstraint: "Decimal|Integer", Params: params,
		PropagatesEmpty: true, Deterministic: true, OutputCardinality: CardinalitySingleton,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			v, ok, err := singletonOrEmpty(input)
			if err != nil {
				return nil, rc, err
			}
			if !ok {
				return value.Empty, rc, nil
			}
			if !v.IsNumeric() {
				return nil, rc, errs.Evaluation("TYPE_MISMATCH", "%s requires a numeric input, got %s", name, v.Kind)
			}
			evaluated := make([]value.Collection, len(args))
			for i, a := range args {
				av, err := evalArg(interp, rc, a)
				if err != nil {
					return nil, rc, err
				}
				evaluated[i] = av
			}
			result, err := f(v.DecimalValue(), evaluated)
			if err != nil {
				return nil, rc, err
			}
			if result.Kind == 0 {
				return value.Empty, rc, nil
			}
			return value.Of(result), rc, nil
		},
	}
}

func registerMathFunctions(r *Registry) {
	r.Register(numericFn("abs", 0, func(d value.Decimal, args []value.Collection) (value.Value, error) {
		return value.Dec(d.Abs()), nil
	}))
	r.Register(numericFn("ceiling", 0, func(d value.Decimal, args []value.Collection) (value.Value, error) {
		return value.Int(d.Ceil().IntPart()), nil
	}))
	r.Register(numericFn("floor", 0, func(d value.Decimal, args []value.Collection) (value.Value, error) {
		return value.Int(d.Floor().IntPart()), nil
	}))
	r.Register(numericFn("truncate", 0, func(d value.Decimal, args []value.Collection) (value.Value, error) {
		return value.Int(d.Truncate(0).IntPart()), nil
	}))
	r.Register(numericFn("round", 1, func(d value.Decimal, args []value.Collection) (value.Value, error) {
		places := int64(0)
		if len(args) > 0 {
			if n, ok, err := argInt(args[0]); err != nil {
				return value.Value{}, err
			} else if ok {
				places = n
			}
		}
		return value.Dec(d.Round(int32(places))), nil
	}))
	r.Register(numericFn("sqrt", 0, func(d value.Decimal, args []value.Collection) (value.Value, error) {
		f, _ := d.Float64()
		if f < 0 {
			return value.Value{}, nil
		}
		return value.Dec(value.DecimalFromFloatApprox(math.Sqrt(f))), nil
	}))
	r.Register(numericFn("exp", 0, func(d value.Decimal, args []value.Collection) (value.Value, error) {
		f, _ := d.Float64()
		return value.Dec(value.DecimalFromFloatApprox(math.Exp(f))), nil
	}))
	r.Register(numericFn("ln", 0, func(d value.Decimal, args []value.Collection) (value.Value, error) {
		f, _ := d.Float64()
		if f <= 0 {
			return value.Value{}, nil
		}
		return value.Dec(value.DecimalFromFloatApprox(math.Log(f))), nil
	}))
	r.Register(numericFn("log", 1, func(d value.Decimal, args []value.Collection) (value.Value, error) {
		base := 10.0
		if len(args) > 0 {
			if bv, ok, err := singletonOrEmpty(args[0]); err == nil && ok && bv.IsNumeric() {
				base, _ = bv.DecimalValue().Float64()
			}
		}
		f, _ := d.Float64()
		if f <= 0 || base <= 0 || base == 1 {
			return value.Value{}, nil
		}
		return value.Dec(value.DecimalFromFloatApprox(math.Log(f) / math.Log(base))), nil
	}))
	r.Register(numericFn("power", 1, func(d value.Decimal, args []value.Collection) (value.Value, error) {
		if len(args) == 0 {
			return value.Value{}, nil
		}
		ev, ok, err := singletonOrEmpty(args[0])
		if err != nil || !ok || !ev.IsNumeric() {
			return value.Value{}, err
		}
		return value.Dec(d.Pow(ev.DecimalValue())), nil
	}))
}
