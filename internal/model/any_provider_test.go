package model

import "testing"

func TestAnyModelProviderResolvesEveryName(t *testing.T) {
	t.Parallel()

	var p Provider = AnyModelProvider{}

	ref, ok := p.ResolveType("Patient")
	if !ok {
		t.Fatal("ResolveType should never report unknown under AnyModelProvider")
	}
	if got := p.TypeName(ref); got != "Patient" {
		t.Errorf("TypeName(ResolveType(Patient)) = %q, want %q", got, "Patient")
	}
}

func TestAnyModelProviderPropertyAlwaysResolvesToAny(t *testing.T) {
	t.Parallel()

	var p Provider = AnyModelProvider{}
	ref, _ := p.ResolveType("Patient")

	info, ok := p.PropertyType(ref, "whatever")
	if !ok {
		t.Fatal("PropertyType should always succeed under AnyModelProvider")
	}
	if info.Name != AnyTypeName {
		t.Errorf("PropertyType(...).Name = %q, want %q", info.Name, AnyTypeName)
	}
	if info.IsSingleton {
		t.Error("PropertyType(...).IsSingleton = true, want false (cardinality is unknown)")
	}
}

func TestAnyModelProviderIsAssignableAlwaysTrue(t *testing.T) {
	t.Parallel()

	var p Provider = AnyModelProvider{}
	a, _ := p.ResolveType("Patient")
	b, _ := p.ResolveType("Observation")
	if !p.IsAssignable(a, b) {
		t.Error("IsAssignable should always be true under AnyModelProvider")
	}
}

func TestAnyModelProviderElementNamesUnknown(t *testing.T) {
	t.Parallel()

	var p Provider = AnyModelProvider{}
	ref, _ := p.ResolveType("Patient")
	if _, ok := p.ElementNames(ref); ok {
		t.Error("ElementNames should report ok=false: AnyModelProvider has no structural knowledge")
	}
}
