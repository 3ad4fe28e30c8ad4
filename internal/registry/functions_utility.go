package registry

import (
	"time"

	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/errs"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

// Clock supplies the current instant to now()/today()/timeOfDay(),
// injectable so tests get deterministic results (SPEC_FULL.md §3).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// activeClock is the process-wide Clock; SetClock exists for tests
// only, mirroring Registry's own Default/Clear test seam.
var activeClock Clock = systemClock{}

// SetClock overrides the process-wide Clock. Test-only.
func SetClock(c Clock) { activeClock = c }

func dateTimeFromTime(t time.Time, precision value.Precision) value.DateTimeValue {
	v := value.DateTimeValue{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond(),
		Precision: precision,
	}
	_, offset := t.Zone()
	v.HasOffset = true
	if offset == 0 {
		v.OffsetIsUTC = true
	} else {
		v.OffsetMinute = offset / 60
	}
	return v
}

func registerUtilityFunctions(r *Registry) {
	r.Register(&Operation{
		Kind: KindFunction, Name: "iif",
		Params: []Param{
			{Name: "criterion", Kind: ParamExpression, Singleton: true},
			{Name: "trueResult", Kind: ParamExpression},
			{Name: "otherwiseResult", Kind: ParamExpression, Optional: true},
		},
		PropagatesEmpty:   false,
		OutputCardinality: CardinalityCollection,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			cond, _, err := interp.Eval(args[0], rc)
			if err != nil {
				return nil, rc, err
			}
			var branch ast.Node
			switch value.ToBool3(cond) {
			case value.Bool3True:
				branch = args[1]
			case value.Bool3False, value.Bool3Unknown:
				if len(args) > 2 {
					branch = args[2]
				}
			}
			if branch == nil {
				return value.Empty, rc, nil
			}
			out, _, err := interp.Eval(branch, rc)
			return out, rc, err
		},
	})

	r.Register(&Operation{
		Kind: KindFunction, Name: "defineVariable",
		Params: []Param{
			{Name: "name", Kind: ParamValue, Singleton: true},
			{Name: "expr", Kind: ParamExpression, Optional: true},
		},
		OutputCardinality: CardinalityPreserveInput,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			nameArg, err := evalArg(interp, rc, args[0])
			if err != nil {
				return nil, rc, err
			}
			name, ok, err := argString(nameArg)
			if err != nil || !ok {
				return nil, rc, errs.Evaluation("BAD_ARGUMENT", "defineVariable() requires a String name")
			}
			bound := input
			if len(args) > 1 {
				bound, err = evalArg(interp, rc, args[1])
				if err != nil {
					return nil, rc, err
				}
			}
			next := rc.SetVariable(name, bound, false)
			return input, next, nil
		},
	})

	r.Register(&Operation{
		Kind: KindFunction, Name: "trace",
		Params:            []Param{{Name: "name", Kind: ParamValue, Singleton: true}, {Name: "projection", Kind: ParamExpression, Optional: true}},
		OutputCardinality: CardinalityPreserveInput,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			nameArg, err := evalArg(interp, rc, args[0])
			if err != nil {
				return nil, rc, err
			}
			name, ok, err := argString(nameArg)
			if err != nil || !ok {
				name = ""
			}
			traced := input
			if len(args) > 1 {
				var out value.Collection
				err := iterateElements(interp, rc, input, args[1], func(elem value.Value, idx int, result value.Collection) error {
					out = append(out, result...)
					return nil
				})
				if err != nil {
					return nil, rc, err
				}
				traced = out
			}
			interp.Trace(name, traced)
			return input, rc, nil
		},
	})

	r.Register(&Operation{
		Kind: KindFunction, Name: "aggregate",
		Params: []Param{
			{Name: "aggregator", Kind: ParamExpression, Singleton: true},
			{Name: "init", Kind: ParamValue, Optional: true},
		},
		OutputCardinality: CardinalitySingleton,
		Evaluate: func(interp Interpreter, rc *runtime.Context, input value.Collection, args []ast.Node) (value.Collection, *runtime.Context, error) {
			var total value.Collection
			if len(args) > 1 {
				v, err := evalArg(interp, rc, args[1])
				if err != nil {
					return nil, rc, err
				}
				total = v
			}
			for i, elem := range input {
				iterCtx := rc.WithIterator(elem, i).WithTotal(total)
				result, _, err := interp.Eval(args[0], iterCtx)
				if err != nil {
					return nil, rc, err
				}
				total = result
			}
			return total, rc, nil
		},
	})

	r.Register(&Operation{Kind: KindFunction, Name: "now", OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			return value.Of(value.DateTimeOf(dateTimeFromTime(activeClock.Now(), value.PrecisionMillisecond))), nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "today", OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			return value.Of(value.DateOf(dateTimeFromTime(activeClock.Now(), value.PrecisionDay))), nil
		})})

	r.Register(&Operation{Kind: KindFunction, Name: "timeOfDay", OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			return value.Of(value.TimeOf(dateTimeFromTime(activeClock.Now(), value.PrecisionMillisecond))), nil
		})})

	registerDateComponentExtractors(r)
}

// dateComponentFn builds a yearOf()-style extractor over a Date,
// DateTime, or Time singleton input, propagating empty when the field
// is below the value's recorded precision (e.g. hour() on a Date).
func dateComponentFn(name string, minPrecision value.Precision, get func(value.DateTimeValue) int64) *Operation {
	return &Operation{Kind: KindFunction, Name: name, InputConstraint: "Date|DateTime|Time",
		PropagatesEmpty: true, Deterministic: true, OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			v, ok, err := singletonOrEmpty(input)
			if err != nil || !ok {
				return value.Empty, err
			}
			if v.Kind != value.KindDate && v.Kind != value.KindDateTime && v.Kind != value.KindTime {
				return nil, errs.Evaluation("TYPE_MISMATCH", "%s() requires a Date, DateTime, or Time input, got %s", name, v.Kind)
			}
			dt := v.AsDateTime()
			if dt.Precision < minPrecision {
				return value.Empty, nil
			}
			return value.Of(value.Int(get(dt))), nil
		})}
}

func registerDateComponentExtractors(r *Registry) {
	r.Register(dateComponentFn("yearOf", value.PrecisionYear, func(d value.DateTimeValue) int64 { return int64(d.Year) }))
	r.Register(dateComponentFn("monthOf", value.PrecisionMonth, func(d value.DateTimeValue) int64 { return int64(d.Month) }))
	r.Register(dateComponentFn("dayOf", value.PrecisionDay, func(d value.DateTimeValue) int64 { return int64(d.Day) }))
	r.Register(dateComponentFn("hourOf", value.PrecisionHour, func(d value.DateTimeValue) int64 { return int64(d.Hour) }))
	r.Register(dateComponentFn("minuteOf", value.PrecisionMinute, func(d value.DateTimeValue) int64 { return int64(d.Minute) }))
	r.Register(dateComponentFn("secondOf", value.PrecisionSecond, func(d value.DateTimeValue) int64 { return int64(d.Second) }))
	r.Register(dateComponentFn("millisecondOf", value.PrecisionMillisecond, func(d value.DateTimeValue) int64 { return int64(d.Nanosecond / 1_000_000) }))
	r.Register(&Operation{Kind: KindFunction, Name: "timezoneOffsetOf", InputConstraint: "Date|DateTime|Time",
		PropagatesEmpty: true, Deterministic: true, OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			v, ok, err := singletonOrEmpty(input)
			if err != nil || !ok {
				return value.Empty, err
			}
			dt := v.AsDateTime()
			if !dt.HasOffset {
				return value.Empty, nil
			}
			offsetMinutes := dt.OffsetMinute
			if dt.OffsetIsUTC {
				offsetMinutes = 0
			}
			return value.Of(value.Dec(value.DecimalFromFloatApprox(float64(offsetMinutes) / 60.0))), nil
		})})
}
