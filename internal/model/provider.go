// Package model defines the opaque model-provider contract consumed by
// the type analyzer (spec.md §4.10). The core never introspects the
// internal shape of a TypeRef; only the provider implementation does.
package model

// TypeRef is an opaque handle to a model type. The core treats it as a
// black box; only a ModelProvider implementation assigns it meaning.
type TypeRef any

// TypeInfo is the type descriptor attached to syntax-tree nodes by the
// analyzer (spec.md §3). Choices and Elements are populated only for
// union/complex types respectively.
type TypeInfo struct {
	Type        TypeRef
	IsSingleton bool
	Namespace   string
	Name        string
	IsUnion     bool
	Choices     []TypeRef
	Elements    []string
}

// Provider is the external, model-agnostic type-resolution and
// property-navigation contract (spec.md §4.10). A host FHIR/v2/CDA
// model implements this; the core never ships a concrete model.
type Provider interface {
	// ResolveType resolves a (possibly namespaced) type name to an
	// opaque type reference, or reports ok=false if unknown.
	ResolveType(name string) (ref TypeRef, ok bool)
	// PropertyType resolves a named property of typ.
	PropertyType(typ TypeRef, name string) (prop TypeInfo, ok bool)
	// IsAssignable reports whether a value of type `from` may be used
	// where `to` is expected (used by `is`/`as`/`ofType`).
	IsAssignable(from, to TypeRef) bool
	// TypeName returns the human-readable name of typ.
	TypeName(typ TypeRef) string
	// IsCollectionType reports whether typ is inherently a collection
	// (as opposed to the cardinality tracked separately in TypeInfo).
	IsCollectionType(typ TypeRef) bool
	// CommonType returns the narrowest common supertype of types, or
	// ok=false if none exists in the model (used by union inference).
	CommonType(types []TypeRef) (common TypeRef, ok bool)
	// ChildrenType returns the union of all element types of parent
	// (used by children()).
	ChildrenType(parent TypeRef) (union TypeRef, ok bool)
	// ElementNames optionally lists the named children of typ.
	ElementNames(typ TypeRef) ([]string, bool)
}
