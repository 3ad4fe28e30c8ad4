package ast

import (
	"testing"

	"github.com/kpumuk/fhirpath/internal/text"
)

func TestNewUnionFlattensNestedUnions(t *testing.T) {
	sp := text.Span{Start: 0, End: 1}
	a := NewIdentifier(sp, "a")
	b := NewIdentifier(sp, "b")
	c := NewIdentifier(sp, "c")
	inner := NewUnion(sp, []Node{a, b})
	outer := NewUnion(sp, []Node{inner, c})

	if len(outer.Operands) != 3 {
		t.Fatalf("Operands = %d, want 3 (flattened)", len(outer.Operands))
	}
	for _, op := range outer.Operands {
		if _, isUnion := op.(*Union); isUnion {
			t.Fatalf("outer union should not contain a nested Union operand")
		}
	}
}

func TestSetTypeAndRangeRoundTrip(t *testing.T) {
	sp := text.Span{Start: 2, End: 5}
	id := NewIdentifier(sp, "name")
	if id.Range() != sp {
		t.Fatalf("Range() = %v, want %v", id.Range(), sp)
	}
	if id.Type() != nil {
		t.Fatalf("Type() should be nil before analysis")
	}
}
