package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/value"
)

// registerLiterals populates the ordered literal-matcher list (spec.md
// §4.4): each entry's ParseLiteral turns a Literal node's raw lexeme
// (and, for quantities, its unit suffix) into a runtime Value. The
// lexer already distinguishes literal kinds by token shape; these
// parse functions are the "parse function" half of spec.md §3's
// Literal registry-entry contract, invoked by the evaluator/compiler
// against the raw lexeme ast.Literal nodes retain.
func registerLiterals(r *Registry) {
	r.Register(&Operation{Kind: KindLiteral, Name: "boolean", LiteralKinds: []ast.LiteralKind{ast.LiteralBoolean},
		ParseLiteral: func(lexeme, unit string) (value.Value, error) {
			if lexeme != "true" && lexeme != "false" {
				return value.Value{}, fmt.Errorf("invalid boolean literal %q", lexeme)
			}
			return value.Bool(lexeme == "true"), nil
		}})
	r.Register(&Operation{Kind: KindLiteral, Name: "integer", LiteralKinds: []ast.LiteralKind{ast.LiteralInteger},
		ParseLiteral: func(lexeme, unit string) (value.Value, error) {
			n, err := strconv.ParseInt(lexeme, 10, 64)
			if err != nil {
				return value.Value{}, err
			}
			return value.Int(n), nil
		}})
	r.Register(&Operation{Kind: KindLiteral, Name: "decimal", LiteralKinds: []ast.LiteralKind{ast.LiteralDecimal},
		ParseLiteral: func(lexeme, unit string) (value.Value, error) {
			d, err := value.ParseDecimal(lexeme)
			if err != nil {
				return value.Value{}, err
			}
			return value.Dec(d), nil
		}})
	r.Register(&Operation{Kind: KindLiteral, Name: "string", LiteralKinds: []ast.LiteralKind{ast.LiteralString},
		ParseLiteral: func(lexeme, unit string) (value.Value, error) {
			if len(lexeme) < 2 || lexeme[0] != '\'' || lexeme[len(lexeme)-1] != '\'' {
				return value.Value{}, fmt.Errorf("invalid string literal %q", lexeme)
			}
			return value.Str(unescapeString(lexeme)), nil
		}})
	r.Register(&Operation{Kind: KindLiteral, Name: "date", LiteralKinds: []ast.LiteralKind{ast.LiteralDate},
		ParseLiteral: func(lexeme, unit string) (value.Value, error) {
			d, err := value.ParseDate(lexeme)
			if err != nil {
				return value.Value{}, err
			}
			return value.DateOf(d), nil
		}})
	r.Register(&Operation{Kind: KindLiteral, Name: "datetime", LiteralKinds: []ast.LiteralKind{ast.LiteralDateTime},
		ParseLiteral: func(lexeme, unit string) (value.Value, error) {
			d, err := value.ParseDateTime(lexeme)
			if err != nil {
				return value.Value{}, err
			}
			return value.DateTimeOf(d), nil
		}})
	r.Register(&Operation{Kind: KindLiteral, Name: "time", LiteralKinds: []ast.LiteralKind{ast.LiteralTime},
		ParseLiteral: func(lexeme, unit string) (value.Value, error) {
			d, err := value.ParseTime(lexeme)
			if err != nil {
				return value.Value{}, err
			}
			return value.TimeOf(d), nil
		}})
	r.Register(&Operation{Kind: KindLiteral, Name: "quantity", LiteralKinds: []ast.LiteralKind{ast.LiteralQuantity},
		ParseLiteral: func(lexeme, unit string) (value.Value, error) {
			d, err := value.ParseDecimal(lexeme)
			if err != nil {
				return value.Value{}, err
			}
			return value.QuantityOf(value.Quantity{Value: d, Unit: value.CanonicalUnit(trimQuotes(unit))}), nil
		}})
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

// unescapeString decodes the escape sequences of a single-quoted
// FHIRPath string lexeme (the lexer validates escape shape; this is
// the evaluator/compiler-facing decode step).
func unescapeString(lexeme string) string {
	body := lexeme
	if len(body) >= 2 && body[0] == '\'' && body[len(body)-1] == '\'' {
		body = body[1 : len(body)-1]
	}
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i == len(body)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'f':
			b.WriteByte('\f')
		case '\'', '"', '`', '\\', '/':
			b.WriteByte(body[i])
		case 'u':
			if i+4 < len(body) {
				if n, err := strconv.ParseUint(body[i+1:i+5], 16, 32); err == nil {
					b.WriteRune(rune(n))
					i += 4
					continue
				}
			}
			b.WriteByte('u')
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String()
}
