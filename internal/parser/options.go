// Package parser implements the FHIRPath recursive-descent, Pratt-
// precedence expression parser (spec.md §4.5), in four modes trading
// off strictness against diagnostic richness.
package parser

import "github.com/kpumuk/fhirpath/internal/registry"

// Mode selects one of the four parsing strategies spec.md §4.5 names.
type Mode uint8

const (
	// Fast throws on the first syntax problem and collects no
	// diagnostics at all; for call sites that already trust the input
	// (e.g. compiled, previously-validated expressions).
	ModeFast Mode = iota
	// Standard collects diagnostics but aborts parsing at the first
	// fatal syntax error, returning whatever was built so far.
	ModeStandard
	// Diagnostic recovers from errors at sync points, producing a
	// complete tree that may contain ast.Error/ast.Incomplete nodes.
	ModeDiagnostic
	// Validate behaves like Diagnostic but discards the tree, useful
	// for a pure "is this syntactically valid" check.
	ModeValidate
)

// Options configures one Parse call.
type Options struct {
	Mode Mode
	// MaxErrors caps the number of diagnostics the collector retains;
	// <= 0 means unbounded. Ignored in Fast mode.
	MaxErrors int
	// Registry supplies operator/function/literal metadata; nil uses
	// registry.Default().
	Registry *registry.Registry
}
