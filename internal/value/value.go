// Package value implements the FHIRPath runtime data model: the Value
// union and the Collection aggregate (spec.md §3).
package value

import (
	"fmt"
	"strings"
)

// Kind discriminates the Value union.
type Kind uint8

const (
	KindBoolean Kind = iota + 1
	KindInteger
	KindDecimal
	KindString
	KindDate
	KindDateTime
	KindTime
	KindQuantity
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindDecimal:
		return "Decimal"
	case KindString:
		return "String"
	case KindDate:
		return "Date"
	case KindDateTime:
		return "DateTime"
	case KindTime:
		return "Time"
	case KindQuantity:
		return "Quantity"
	case KindObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// Object is the opaque, model-defined record type. A host's data model
// implements this to let the evaluator navigate named children without
// the core ever knowing the concrete record shape (spec.md §3, §4.10).
type Object interface {
	// TypeName returns the model type name of this object (e.g. "Patient").
	TypeName() string
	// Get returns the named child as a Collection; ok is false if the
	// property does not exist on this object at all (as distinct from
	// existing but being empty).
	Get(name string) (children Collection, ok bool)
}

// Value is a single element of the FHIRPath data model union. Exactly
// one of the typed fields is meaningful, selected by Kind; this models
// spec.md §3's tagged union using a single struct instead of an
// interface hierarchy, since the field set is small, fixed, and
// performance-sensitive (every navigation step constructs values).
type Value struct {
	Kind Kind

	boolean  bool
	integer  int64
	decimal  Decimal
	str      string
	dt       DateTimeValue
	quantity Quantity
	object   Object
}

// Bool constructs a Boolean value.
func Bool(b bool) Value { return Value{Kind: KindBoolean, boolean: b} }

// Int constructs an Integer value.
func Int(i int64) Value { return Value{Kind: KindInteger, integer: i} }

// Dec constructs a Decimal value.
func Dec(d Decimal) Value { return Value{Kind: KindDecimal, decimal: d} }

// Str constructs a String value.
func Str(s string) Value { return Value{Kind: KindString, str: s} }

// DateOf constructs a Date value.
func DateOf(d DateTimeValue) Value { return Value{Kind: KindDate, dt: d} }

// DateTimeOf constructs a DateTime value.
func DateTimeOf(d DateTimeValue) Value { return Value{Kind: KindDateTime, dt: d} }

// TimeOf constructs a Time value.
func TimeOf(d DateTimeValue) Value { return Value{Kind: KindTime, dt: d} }

// QuantityOf constructs a Quantity value.
func QuantityOf(q Quantity) Value { return Value{Kind: KindQuantity, quantity: q} }

// ObjectOf constructs an Object value wrapping a host-supplied record.
func ObjectOf(o Object) Value { return Value{Kind: KindObject, object: o} }

func (v Value) AsBool() bool              { return v.boolean }
func (v Value) AsInt() int64              { return v.integer }
func (v Value) AsDecimal() Decimal        { return v.decimal }
func (v Value) AsString() string          { return v.str }
func (v Value) AsDateTime() DateTimeValue { return v.dt }
func (v Value) AsQuantity() Quantity      { return v.quantity }
func (v Value) AsObject() Object          { return v.object }

// IsNumeric reports whether v is an Integer or Decimal.
func (v Value) IsNumeric() bool { return v.Kind == KindInteger || v.Kind == KindDecimal }

// DecimalValue returns v's numeric content widened to Decimal,
// regardless of whether v is an Integer or a Decimal.
func (v Value) DecimalValue() Decimal {
	if v.Kind == KindInteger {
		return DecimalFromInt(v.integer)
	}
	return v.decimal
}

func (v Value) String() string {
	switch v.Kind {
	case KindBoolean:
		return fmt.Sprintf("%t", v.boolean)
	case KindInteger:
		return fmt.Sprintf("%d", v.integer)
	case KindDecimal:
		return v.decimal.String()
	case KindString:
		return v.str
	case KindDate, KindDateTime, KindTime:
		return v.dt.String()
	case KindQuantity:
		return v.quantity.String()
	case KindObject:
		if v.object == nil {
			return "<object>"
		}
		return fmt.Sprintf("<%s>", v.object.TypeName())
	default:
		return "<empty>"
	}
}

// Collection is an ordered, duplicate-preserving sequence of values —
// the sole first-class aggregate (spec.md §3). A nil or zero-length
// Collection is the empty collection, representing both "no value" and
// "unknown" per the language's three-valued logic.
type Collection []Value

// Empty is the canonical empty collection.
var Empty Collection

// Of builds a Collection from a variadic value list.
func Of(vs ...Value) Collection { return Collection(vs) }

// IsEmpty reports whether the collection has no elements.
func (c Collection) IsEmpty() bool { return len(c) == 0 }

// IsSingleton reports whether the collection has exactly one element.
func (c Collection) IsSingleton() bool { return len(c) == 1 }

// Single returns the sole element of a singleton collection. Callers
// must check IsSingleton first; behavior on a non-singleton collection
// is undefined (the evaluator enforces the singleton contract before
// calling this, per spec.md §4.8's single()/fatal-violation list).
func (c Collection) Single() Value { return c[0] }

// Concat concatenates collections in order, flattening one level
// (spec.md §3, "Navigation over a collection flattens one level of
// nesting"; also used directly by collection-literal evaluation).
func Concat(cs ...Collection) Collection {
	total := 0
	for _, c := range cs {
		total += len(c)
	}
	out := make(Collection, 0, total)
	for _, c := range cs {
		out = append(out, c...)
	}
	return out
}

func (c Collection) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
