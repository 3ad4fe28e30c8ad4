package value

// SystemTypeName maps a primitive Value's Kind to its System.* type
// name; KindObject has no System name (callers use the Object's own
// TypeName instead).
func SystemTypeName(k Kind) string {
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
	default:
		return ""
	}
}

// MatchesType reports whether v's runtime type matches the
// (optionally namespaced) type name, the rule shared by `is`/`as` and
// ofType(): a System.* name matches a primitive Value whose Kind maps
// to it; any other name matches an Object Value whose model TypeName
// equals it. A non-empty namespace further constrains the match:
// "System" excludes Object values, anything else excludes primitives.
func MatchesType(v Value, namespace, name string) bool {
	if v.Kind == KindObject {
		if namespace == "System" {
			return false
		}
		return v.AsObject() != nil && v.AsObject().TypeName() == name
	}
	sysName := SystemTypeName(v.Kind)
	if sysName == "" {
		return false
	}
	if namespace != "" && namespace != "System" {
		return false
	}
	return sysName == name
}
