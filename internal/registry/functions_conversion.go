package registry

import (
	"strconv"
	"strings"

	"github.com/kpumuk/fhirpath/internal/value"
)

// convertFn builds a to<Type>() function: empty input yields empty,
// a successful conversion yields the converted singleton, a failed
// conversion yields empty (conversions never raise a fatal error;
// convertsTo<Type>() is the boolean-test counterpart).
func convertFn(name string, convert func(v value.Value) (value.Value, bool)) *Operation {
	return &Operation{Kind: KindFunction, Name: name, PropagatesEmpty: true, Deterministic: true, OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			v, ok, err := singletonOrEmpty(input)
			if err != nil || !ok {
				return value.Empty, err
			}
			out, ok := convert(v)
			if !ok {
				return value.Empty, nil
			}
			return value.Of(out), nil
		})}
}

func convertsToFn(name string, convert func(v value.Value) (value.Value, bool)) *Operation {
	return &Operation{Kind: KindFunction, Name: name, PropagatesEmpty: true, Deterministic: true, OutputCardinality: CardinalitySingleton,
		Evaluate: noArgEval(func(input value.Collection) (value.Collection, error) {
			v, ok, err := singletonOrEmpty(input)
			if err != nil || !ok {
				return value.Empty, err
			}
			_, convertible := convert(v)
			return value.Of(value.Bool(convertible)), nil
		})}
}

func toStringValue(v value.Value) (value.Value, bool) {
	if v.Kind == value.KindString {
		return v, true
	}
	return value.Str(v.String()), true
}

func toIntegerValue(v value.Value) (value.Value, bool) {
	switch v.Kind {
	case value.KindInteger:
		return v, true
	case value.KindDecimal:
		if v.AsDecimal().Equal(v.AsDecimal().Truncate(0)) {
			return value.Int(v.AsDecimal().IntPart()), true
		}
		return value.Value{}, false
	case value.KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.AsString()), 10, 64)
		if err != nil {
			return value.Value{}, false
		}
		return value.Int(n), true
	case value.KindBoolean:
		if v.AsBool() {
			return value.Int(1), true
		}
		return value.Int(0), true
	default:
		return value.Value{}, false
	}
}

func toDecimalValue(v value.Value) (value.Value, bool) {
	switch v.Kind {
	case value.KindDecimal:
		return v, true
	case value.KindInteger:
		return value.Dec(v.DecimalValue()), true
	case value.KindString:
		d, err := value.ParseDecimal(strings.TrimSpace(v.AsString()))
		if err != nil {
			return value.Value{}, false
		}
		return value.Dec(d), true
	case value.KindBoolean:
		if v.AsBool() {
			return value.Dec(value.DecimalFromInt(1)), true
		}
		return value.Dec(value.DecimalFromInt(0)), true
	default:
		return value.Value{}, false
	}
}

func toBooleanValue(v value.Value) (value.Value, bool) {
	switch v.Kind {
	case value.KindBoolean:
		return v, true
	case value.KindString:
		switch strings.ToLower(strings.TrimSpace(v.AsString())) {
		case "true", "t", "yes", "y", "1", "1.0":
			return value.Bool(true), true
		case "false", "f", "no", "n", "0", "0.0":
			return value.Bool(false), true
		default:
			return value.Value{}, false
		}
	case value.KindInteger:
		if v.AsInt() == 1 {
			return value.Bool(true), true
		}
		if v.AsInt() == 0 {
			return value.Bool(false), true
		}
		return value.Value{}, false
	default:
		return value.Value{}, false
	}
}

func toQuantityValue(v value.Value) (value.Value, bool) {
	switch v.Kind {
	case value.KindQuantity:
		return v, true
	case value.KindInteger, value.KindDecimal:
		return value.QuantityOf(value.Quantity{Value: v.DecimalValue(), Unit: "1"}), true
	case value.KindString:
		parts := strings.Fields(v.AsString())
		if len(parts) == 0 {
			return value.Value{}, false
		}
		d, err := value.ParseDecimal(parts[0])
		if err != nil {
			return value.Value{}, false
		}
		unit := "1"
		if len(parts) > 1 {
			unit = value.CanonicalUnit(strings.Trim(parts[1], "'"))
		}
		return value.QuantityOf(value.Quantity{Value: d, Unit: unit}), true
	default:
		return value.Value{}, false
	}
}

func toDateValue(v value.Value) (value.Value, bool) {
	switch v.Kind {
	case value.KindDate:
		return v, true
	case value.KindDateTime:
		return value.DateOf(v.AsDateTime()), true
	case value.KindString:
		d, err := value.ParseDate("@" + v.AsString())
		if err != nil {
			return value.Value{}, false
		}
		return value.DateOf(d), true
	default:
		return value.Value{}, false
	}
}

func toDateTimeValue(v value.Value) (value.Value, bool) {
	switch v.Kind {
	case value.KindDateTime:
		return v, true
	case value.KindDate:
		return value.DateTimeOf(v.AsDateTime()), true
	case value.KindString:
		d, err := value.ParseDateTime("@" + v.AsString())
		if err != nil {
			return value.Value{}, false
		}
		return value.DateTimeOf(d), true
	default:
		return value.Value{}, false
	}
}

func toTimeValue(v value.Value) (value.Value, bool) {
	switch v.Kind {
	case value.KindTime:
		return v, true
	case value.KindString:
		d, err := value.ParseTime("@T" + v.AsString())
		if err != nil {
			return value.Value{}, false
		}
		return value.TimeOf(d), true
	default:
		return value.Value{}, false
	}
}

func registerConversionFunctions(r *Registry) {
	conversions := []struct {
		name    string
		convert func(value.Value) (value.Value, bool)
	}{
		{"String", toStringValue},
		{"Integer", toIntegerValue},
		{"Decimal", toDecimalValue},
		{"Boolean", toBooleanValue},
		{"Quantity", toQuantityValue},
		{"Date", toDateValue},
		{"DateTime", toDateTimeValue},
		{"Time", toTimeValue},
	}
	for _, c := range conversions {
		r.Register(convertFn("to"+c.name, c.convert))
		r.Register(convertsToFn("convertsTo"+c.name, c.convert))
	}
}
