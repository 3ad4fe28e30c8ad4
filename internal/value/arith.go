package value

import (
	"errors"
	"fmt"
)

// ErrIncompatibleOperands is returned by arithmetic/comparison helpers
// when the two operand kinds cannot be combined at all (as opposed to
// a condition the language defines as "yields empty", e.g. division by
// zero — spec.md §4.8).
var ErrIncompatibleOperands = errors.New("incompatible operand types")

// Add implements `+`: numeric addition, String concatenation when
// either operand is a String, and an error for any other category
// mix (spec.md §4.8).
func Add(a, b Value) (Value, error) {
	switch {
	case a.Kind == KindString || b.Kind == KindString:
		if a.Kind != KindString || b.Kind != KindString {
			return Value{}, fmt.Errorf("%w: cannot add %s and %s", ErrIncompatibleOperands, a.Kind, b.Kind)
		}
		return Str(a.str + b.str), nil
	case a.IsNumeric() && b.IsNumeric():
		return widenNumeric(a, b, func(x, y Decimal) Decimal { return x.Add(y) }, func(x, y int64) int64 { return x + y }), nil
	case a.Kind == KindQuantity && b.Kind == KindQuantity:
		if a.quantity.Unit != b.quantity.Unit {
			return Value{}, fmt.Errorf("%w: mismatched quantity units %q and %q", ErrIncompatibleOperands, a.quantity.Unit, b.quantity.Unit)
		}
		return QuantityOf(Quantity{Value: a.quantity.Value.Add(b.quantity.Value), Unit: a.quantity.Unit}), nil
	default:
		return Value{}, fmt.Errorf("%w: cannot add %s and %s", ErrIncompatibleOperands, a.Kind, b.Kind)
	}
}

// Concatenate implements `&`: null-safe string concatenation, treating
// an empty operand (represented by the caller as the zero Value with
// Kind 0) as the empty string rather than propagating empty, unlike `+`.
func Concatenate(a, b Value, aEmpty, bEmpty bool) (Value, error) {
	as, bs := "", ""
	if !aEmpty {
		if a.Kind != KindString {
			return Value{}, fmt.Errorf("%w: '&' requires String operands, got %s", ErrIncompatibleOperands, a.Kind)
		}
		as = a.str
	}
	if !bEmpty {
		if b.Kind != KindString {
			return Value{}, fmt.Errorf("%w: '&' requires String operands, got %s", ErrIncompatibleOperands, b.Kind)
		}
		bs = b.str
	}
	return Str(as + bs), nil
}

// Sub implements `-`.
func Sub(a, b Value) (Value, error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Value{}, fmt.Errorf("%w: cannot subtract %s and %s", ErrIncompatibleOperands, a.Kind, b.Kind)
	}
	return widenNumeric(a, b, func(x, y Decimal) Decimal { return x.Sub(y) }, func(x, y int64) int64 { return x - y }), nil
}

// Mul implements `*`.
func Mul(a, b Value) (Value, error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Value{}, fmt.Errorf("%w: cannot multiply %s and %s", ErrIncompatibleOperands, a.Kind, b.Kind)
	}
	return widenNumeric(a, b, func(x, y Decimal) Decimal { return x.Mul(y) }, func(x, y int64) int64 { return x * y }), nil
}

// Div implements `/`: always produces a Decimal (FHIRPath division is
// never integer division); division by zero yields ok=false, which
// the evaluator maps to an empty result (spec.md §4.8), not an error.
func Div(a, b Value) (result Value, ok bool, err error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Value{}, false, fmt.Errorf("%w: cannot divide %s by %s", ErrIncompatibleOperands, a.Kind, b.Kind)
	}
	if b.DecimalValue().IsZero() {
		return Value{}, false, nil
	}
	return Dec(a.DecimalValue().DivRound(b.DecimalValue(), 16)), true, nil
}

// IntDiv implements `div`: integer-only division; non-integer operands
// or division by zero yield ok=false (empty result).
func IntDiv(a, b Value) (result Value, ok bool, err error) {
	if a.Kind != KindInteger || b.Kind != KindInteger {
		return Value{}, false, fmt.Errorf("%w: 'div' requires Integer operands, got %s and %s", ErrIncompatibleOperands, a.Kind, b.Kind)
	}
	if b.integer == 0 {
		return Value{}, false, nil
	}
	return Int(a.integer / b.integer), true, nil
}

// Mod implements `mod`: integer-only remainder; division by zero
// yields ok=false (empty result).
func Mod(a, b Value) (result Value, ok bool, err error) {
	if a.Kind != KindInteger || b.Kind != KindInteger {
		return Value{}, false, fmt.Errorf("%w: 'mod' requires Integer operands, got %s and %s", ErrIncompatibleOperands, a.Kind, b.Kind)
	}
	if b.integer == 0 {
		return Value{}, false, nil
	}
	return Int(a.integer % b.integer), true, nil
}

// Negate implements unary `-`.
func Negate(a Value) (Value, error) {
	switch a.Kind {
	case KindInteger:
		return Int(-a.integer), nil
	case KindDecimal:
		return Dec(a.decimal.Neg()), nil
	case KindQuantity:
		return QuantityOf(Quantity{Value: a.quantity.Value.Neg(), Unit: a.quantity.Unit}), nil
	default:
		return Value{}, fmt.Errorf("%w: cannot negate %s", ErrIncompatibleOperands, a.Kind)
	}
}

func widenNumeric(a, b Value, decOp func(x, y Decimal) Decimal, intOp func(x, y int64) int64) Value {
	if a.Kind == KindInteger && b.Kind == KindInteger {
		return Int(intOp(a.integer, b.integer))
	}
	return Dec(decOp(a.DecimalValue(), b.DecimalValue()))
}

// Compare orders two single values per spec.md §4.8 ("per-type
// ordering"); ok is false when the two values are not comparable
// (different incompatible categories), which the evaluator maps to an
// empty result.
func Compare(a, b Value) (cmp int, ok bool) {
	switch {
	case a.IsNumeric() && b.IsNumeric():
		return a.DecimalValue().Cmp(b.DecimalValue()), true
	case a.Kind == KindString && b.Kind == KindString:
		switch {
		case a.str < b.str:
			return -1, true
		case a.str > b.str:
			return 1, true
		default:
			return 0, true
		}
	case a.Kind == KindBoolean && b.Kind == KindBoolean:
		switch {
		case a.boolean == b.boolean:
			return 0, true
		case !a.boolean:
			return -1, true
		default:
			return 1, true
		}
	case (a.Kind == KindDate || a.Kind == KindDateTime || a.Kind == KindTime) && a.Kind == b.Kind:
		return a.dt.Compare(b.dt)
	case a.Kind == KindQuantity && b.Kind == KindQuantity && a.quantity.Unit == b.quantity.Unit:
		return a.quantity.Value.Cmp(b.quantity.Value), true
	default:
		return 0, false
	}
}
