package diagnostic

import (
	"testing"

	"github.com/kpumuk/fhirpath/internal/text"
)

func TestCollectorDedup(t *testing.T) {
	c := NewCollector(0)
	d := Diagnostic{Code: CodeUnexpectedToken, Span: text.Span{Start: 3, End: 4}}
	c.Add(d)
	c.Add(d)
	if got := c.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
}

func TestCollectorMaxErrors(t *testing.T) {
	c := NewCollector(2)
	for i := 0; i < 5; i++ {
		c.Add(Diagnostic{
			Code: CodeUnexpectedToken,
			Span: text.Span{Start: text.ByteOffset(i), End: text.ByteOffset(i + 1)},
		})
	}
	if got := c.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3 (2 + 1 summary)", got)
	}
}

func TestCollectorHasErrors(t *testing.T) {
	c := NewCollector(0)
	c.Add(Diagnostic{Code: CodeUnknownProperty, Severity: SeverityWarning, Span: text.Span{Start: 0, End: 1}})
	if c.HasErrors() {
		t.Fatalf("HasErrors() = true, want false for warning-only collector")
	}
	c.Add(Diagnostic{Code: CodeUnexpectedToken, Severity: SeverityError, Span: text.Span{Start: 1, End: 2}})
	if !c.HasErrors() {
		t.Fatalf("HasErrors() = false, want true")
	}
}

func TestSortOrdersBySpanStart(t *testing.T) {
	diags := []Diagnostic{
		{Code: "B", Span: text.Span{Start: 5, End: 6}},
		{Code: "A", Span: text.Span{Start: 1, End: 2}},
	}
	Sort(diags)
	if diags[0].Code != "A" {
		t.Fatalf("Sort did not order by span start: got %v", diags)
	}
}
