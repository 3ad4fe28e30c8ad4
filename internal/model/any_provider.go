package model

// anyTypeRef is the sentinel TypeRef used by AnyModelProvider. It is
// unexported because callers must never depend on its shape — only on
// the Provider contract.
type anyTypeRef struct{ name string }

// AnyTypeName is the universal type every value is assignable to/from
// under AnyModelProvider.
const AnyTypeName = "Any"

// AnyModelProvider is the degenerate Provider used when a caller
// supplies none: every resolvable name maps to the same opaque "Any"
// type, and every navigation or type test against it succeeds. It
// exists because spec.md §1 places "loaders of model schemas" out of
// scope — analysis and evaluation must still function without a real
// model attached, e.g. for expression linting with no bound data
// model.
type AnyModelProvider struct{}

var anyType = anyTypeRef{name: AnyTypeName}

func (AnyModelProvider) ResolveType(name string) (TypeRef, bool) {
	return anyTypeRef{name: name}, true
}

func (AnyModelProvider) PropertyType(typ TypeRef, name string) (TypeInfo, bool) {
	return TypeInfo{Type: anyType, IsSingleton: false, Name: AnyTypeName}, true
}

func (AnyModelProvider) IsAssignable(from, to TypeRef) bool { return true }

func (AnyModelProvider) TypeName(typ TypeRef) string {
	if ref, ok := typ.(anyTypeRef); ok && ref.name != "" {
		return ref.name
	}
	return AnyTypeName
}

func (AnyModelProvider) IsCollectionType(typ TypeRef) bool { return false }

func (AnyModelProvider) CommonType(types []TypeRef) (TypeRef, bool) {
	return anyType, true
}

func (AnyModelProvider) ChildrenType(parent TypeRef) (TypeRef, bool) {
	return anyType, true
}

func (AnyModelProvider) ElementNames(typ TypeRef) ([]string, bool) { return nil, false }
