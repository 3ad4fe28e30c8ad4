package value

import (
	"github.com/shopspring/decimal"
)

// Decimal is the arbitrary-precision numeric type required by spec.md
// §7 ("must not silently promote to binary floating point"), backed by
// github.com/shopspring/decimal — the decimal library grounded across
// the retrieval pack's cue-lang/cue, grafana/tempo, aundis/formula, and
// opentofu/opentofu manifests.
type Decimal = decimal.Decimal

// DecimalFromInt widens an Integer to Decimal.
func DecimalFromInt(i int64) Decimal { return decimal.NewFromInt(i) }

// ParseDecimal parses a FHIRPath decimal literal lexeme.
func ParseDecimal(s string) (Decimal, error) { return decimal.NewFromString(s) }

// DecimalZero is the additive identity.
var DecimalZero = decimal.Zero

// DecimalFromFloatApprox widens a float64 to Decimal for the
// transcendental math functions (sqrt/exp/ln/log) that have no exact
// decimal algorithm, and for timezoneOffsetOf's fractional hours;
// spec.md §9 flags IEEE-754 doubles as a known limitation of the
// source, so this conversion is confined to these narrow corners
// rather than used throughout the value model.
func DecimalFromFloatApprox(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }
