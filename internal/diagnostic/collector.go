package diagnostic

import (
	"fmt"
	"sort"
)

// Collector accumulates diagnostics during a single parse/analyze pass.
// It is append-only, deduplicates diagnostics sharing (code, span.Start),
// and optionally caps the number of diagnostics retained.
type Collector struct {
	MaxErrors int

	diags []Diagnostic
	seen  map[string]struct{}
	capped bool
	// suppressed counts the diagnostics dropped after the cap was reached.
	suppressed int
}

// NewCollector builds a Collector. maxErrors <= 0 means unbounded.
func NewCollector(maxErrors int) *Collector {
	return &Collector{
		MaxErrors: maxErrors,
		seen:      make(map[string]struct{}),
	}
}

// Add appends a diagnostic unless it duplicates one already collected
// for the same (code, span.Start), or the MaxErrors cap has already
// been reached (in which case a single MULTIPLE_ERRORS summary is
// appended the first time the cap is exceeded, and its count is
// updated on every later suppressed diagnostic).
func (c *Collector) Add(d Diagnostic) {
	if c == nil {
		return
	}
	key := fmt.Sprintf("%s:%d", d.Code, d.Span.Start)
	if _, dup := c.seen[key]; dup {
		return
	}
	c.seen[key] = struct{}{}

	if c.MaxErrors > 0 && len(c.diags) >= c.MaxErrors {
		c.suppressed++
		if !c.capped {
			c.capped = true
			c.diags = append(c.diags, MultipleErrors(c.suppressed, d.Span))
		} else {
			last := len(c.diags) - 1
			c.diags[last] = MultipleErrors(c.suppressed, c.diags[last].Span)
		}
		return
	}
	c.diags = append(c.diags, d)
}

// Len returns the number of diagnostics collected so far.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.diags)
}

// HasErrors reports whether any collected diagnostic has Error severity.
func (c *Collector) HasErrors() bool {
	if c == nil {
		return false
	}
	for _, d := range c.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// All returns a sorted snapshot of every diagnostic collected.
func (c *Collector) All() []Diagnostic {
	if c == nil {
		return nil
	}
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	Sort(out)
	return out
}

// Errors returns a sorted snapshot of only Error-severity diagnostics.
func (c *Collector) Errors() []Diagnostic {
	if c == nil {
		return nil
	}
	out := make([]Diagnostic, 0, len(c.diags))
	for _, d := range c.diags {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	Sort(out)
	return out
}

// Sort orders diagnostics deterministically: by span start, then span
// end, then severity, then code, then message.
func Sort(diags []Diagnostic) {
	if len(diags) < 2 {
		return
	}
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		if a.Span.End != b.Span.End {
			return a.Span.End < b.Span.End
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}
