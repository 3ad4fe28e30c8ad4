package value

// Equal implements FHIRPath equality (`=`) between two single values:
// same Kind, same content, with numeric widening between Integer and
// Decimal and precision-sensitive DateTime comparison. Collections
// compare element-wise and order-sensitively via CollectionEqual
// (spec.md §4.8, "equality on collections is order-sensitive and
// element-wise").
func Equal(a, b Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		return a.DecimalValue().Equal(b.DecimalValue())
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindBoolean:
		return a.boolean == b.boolean
	case KindString:
		return a.str == b.str
	case KindDate, KindDateTime, KindTime:
		return a.dt.Equal(b.dt)
	case KindQuantity:
		return a.quantity.Unit == b.quantity.Unit && a.quantity.Value.Equal(b.quantity.Value)
	case KindObject:
		return a.object == b.object
	default:
		return false
	}
}

// CollectionEqual compares two collections element-wise, in order.
func CollectionEqual(a, b Collection) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// ContainsEqual reports whether any element of c equals v.
func ContainsEqual(c Collection, v Value) bool {
	for _, e := range c {
		if Equal(e, v) {
			return true
		}
	}
	return false
}

// Distinct removes equal duplicates, keeping first occurrence order —
// used by the `|`/union operator and `distinct()` (spec.md §4.8).
func Distinct(c Collection) Collection {
	out := make(Collection, 0, len(c))
	for _, v := range c {
		if !ContainsEqual(out, v) {
			out = append(out, v)
		}
	}
	return out
}
