package runtime

import (
	"testing"

	"github.com/kpumuk/fhirpath/internal/value"
)

func TestChildWritesDoNotMutateParent(t *testing.T) {
	t.Parallel()

	root := NewRoot(value.Of(value.Int(1)))
	child := root.SetVariable("x", value.Of(value.Int(5)), false)

	if _, ok := root.Variable("x"); ok {
		t.Fatal("parent sees child's variable binding")
	}
	if v, ok := child.Variable("x"); !ok || v.Single().AsInt() != 5 {
		t.Fatalf("child.Variable(x) = %v, %v; want 5, true", v, ok)
	}
}

func TestVariableLookupTraversesParentChain(t *testing.T) {
	t.Parallel()

	root := NewRoot(nil)
	mid := root.SetVariable("x", value.Of(value.Str("outer")), false)
	leaf := mid.Child()

	v, ok := leaf.Variable("x")
	if !ok || v.Single().AsString() != "outer" {
		t.Fatalf("leaf.Variable(x) = %v, %v; want \"outer\", true via ancestor", v, ok)
	}
	// Both with and without the leading '%' sigil resolve the same binding.
	if v2, ok := leaf.Variable("%x"); !ok || !value.Equal(v.Single(), v2.Single()) {
		t.Fatalf("leaf.Variable(%%x) = %v, %v; want match for unsigiled lookup", v2, ok)
	}
}

func TestSetVariableRedefinitionIsNoOpByDefault(t *testing.T) {
	t.Parallel()

	root := NewRoot(nil)
	first := root.SetVariable("x", value.Of(value.Int(1)), false)
	second := first.SetVariable("x", value.Of(value.Int(2)), false)

	if second != first {
		t.Fatal("redefining an existing binding without allowRedefinition should return the same context reference")
	}
	v, _ := second.Variable("x")
	if v.Single().AsInt() != 1 {
		t.Fatalf("Variable(x) = %d, want 1 (original binding preserved)", v.Single().AsInt())
	}
}

func TestSetVariableRedefinitionAllowed(t *testing.T) {
	t.Parallel()

	root := NewRoot(nil)
	first := root.SetVariable("x", value.Of(value.Int(1)), false)
	second := first.SetVariable("x", value.Of(value.Int(2)), true)

	v, _ := second.Variable("x")
	if v.Single().AsInt() != 2 {
		t.Fatalf("Variable(x) = %d, want 2 after allowed redefinition", v.Single().AsInt())
	}
}

func TestSetVariableRejectsReservedNames(t *testing.T) {
	t.Parallel()

	root := NewRoot(value.Of(value.Int(1)))
	for _, name := range []string{"context", "resource", "rootResource", "ucum", "%context"} {
		got := root.SetVariable(name, value.Of(value.Int(99)), true)
		if got != root {
			t.Errorf("SetVariable(%q, ..., true) mutated a reserved name; want no-op", name)
		}
	}
}

func TestWithIteratorSavesAndRestoresThisAndIndex(t *testing.T) {
	t.Parallel()

	root := NewRoot(nil)
	outer := root.WithIterator(value.Str("outer"), 0)

	if _, ok := outer.This(); !ok {
		t.Fatal("outer.This() missing")
	}

	inner := outer.WithIterator(value.Str("inner"), 1)
	innerThis, _ := inner.This()
	if innerThis.Single().AsString() != "inner" {
		t.Fatalf("inner $this = %q, want \"inner\"", innerThis.Single().AsString())
	}
	innerIdx, _ := inner.Index()
	if innerIdx.Single().AsInt() != 1 {
		t.Fatalf("inner $index = %d, want 1", innerIdx.Single().AsInt())
	}

	// Leaving the inner scope (i.e., looking at `outer` again rather
	// than `inner`) still reports outer's own $this/$index: nesting
	// never mutates an ancestor frame.
	outerThis, _ := outer.This()
	if outerThis.Single().AsString() != "outer" {
		t.Fatalf("outer $this = %q, want \"outer\" (unaffected by inner iteration)", outerThis.Single().AsString())
	}
	outerIdx, _ := outer.Index()
	if outerIdx.Single().AsInt() != 0 {
		t.Fatalf("outer $index = %d, want 0", outerIdx.Single().AsInt())
	}
}

func TestWithTotalVisibleThroughNestedIteration(t *testing.T) {
	t.Parallel()

	root := NewRoot(nil)
	withTotal := root.WithTotal(value.Of(value.Int(10)))
	nested := withTotal.WithIterator(value.Str("x"), 0)

	total, ok := nested.Total()
	if !ok || total.Single().AsInt() != 10 {
		t.Fatalf("nested.Total() = %v, %v; want 10, true (visible through iteration scope)", total, ok)
	}
}

func TestWithInputDefaultsFocusToInput(t *testing.T) {
	t.Parallel()

	root := NewRoot(value.Of(value.Int(1)))
	child := root.WithInput(value.Of(value.Str("new")))

	if child.Input().Single().AsString() != "new" {
		t.Fatal("WithInput did not set Input")
	}
	if child.Focus().Single().AsString() != "new" {
		t.Fatal("WithInput without an explicit focus should default focus to the new input")
	}
}

func TestWithInputExplicitFocus(t *testing.T) {
	t.Parallel()

	root := NewRoot(nil)
	child := root.WithInput(value.Of(value.Int(1)), value.Of(value.Int(2)))

	if child.Input().Single().AsInt() != 1 {
		t.Fatal("Input mismatch")
	}
	if child.Focus().Single().AsInt() != 2 {
		t.Fatal("explicit focus argument was not honored")
	}
}

func TestNewRootSeedsReservedEnvReferences(t *testing.T) {
	t.Parallel()

	input := value.Of(value.Int(42))
	root := NewRoot(input)

	for _, name := range []string{"context", "resource", "rootResource"} {
		v, ok := root.Variable(name)
		if !ok || v.Single().AsInt() != 42 {
			t.Errorf("Variable(%q) = %v, %v; want the root input", name, v, ok)
		}
	}
}
