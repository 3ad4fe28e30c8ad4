package registry

import (
	"testing"

	"github.com/kpumuk/fhirpath/internal/lexer"
)

// TestRegistryTokenFormIsUnique verifies spec.md §8 property 7: every
// operator token has at most one entry per syntactic form it declares,
// and GetByToken resolves exactly that entry.
func TestRegistryTokenFormIsUnique(t *testing.T) {
	t.Parallel()

	r := New()
	seen := make(map[tokenForm]*Operation)
	for _, form := range []Form{FormPrefix, FormInfix, FormPostfix} {
		for _, op := range r.OperatorsByForm(form) {
			key := tokenForm{op.Token, form}
			if prior, dup := seen[key]; dup && prior != op {
				t.Fatalf("token %v form %v has more than one entry: %q and %q", op.Token, form, prior.Name, op.Name)
			}
			seen[key] = op
		}
	}
}

// TestRegistryPrecedenceMatchesReferenceTable spot-checks the
// precedence ordering spec.md §4.5 specifies: navigation binds
// tightest, implies loosest, and the arithmetic/comparison/logical
// bands nest in the conventional order.
func TestRegistryPrecedenceMatchesReferenceTable(t *testing.T) {
	t.Parallel()

	r := Default()
	prec := func(tok lexer.TokenKind) int {
		p, ok := r.Precedence(tok)
		if !ok {
			t.Fatalf("no precedence registered for token %v", tok)
		}
		return p
	}

	dot := prec(lexer.TokenDot)
	star := prec(lexer.TokenStar)
	plus := prec(lexer.TokenPlus)
	lt := prec(lexer.TokenLt)
	and := prec(lexer.TokenKwAnd)
	implies := prec(lexer.TokenKwImplies)

	if !(dot > star && star > plus && plus > lt && lt > and && and > implies) {
		t.Fatalf("precedence ordering violated: dot=%d star=%d plus=%d lt=%d and=%d implies=%d",
			dot, star, plus, lt, and, implies)
	}
}

// TestRegistryGetDistinguishesOperatorFromFunctionNamespace verifies
// the `contains` operator/function split documented on Registry: the
// infix keyword and the string-method function share a spelling but
// live in separate name tables.
func TestRegistryGetDistinguishesOperatorFromFunctionNamespace(t *testing.T) {
	t.Parallel()

	r := Default()
	if _, ok := r.GetOperator("contains"); !ok {
		t.Fatal("expected an operator entry named \"contains\"")
	}
	if _, ok := r.Get("contains"); !ok {
		t.Fatal("expected a function entry named \"contains\"")
	}
}

func TestRegistryIsKeyword(t *testing.T) {
	t.Parallel()

	r := Default()
	for _, kw := range []string{"and", "or", "xor", "implies", "div", "mod", "is", "as", "contains", "in"} {
		if !r.IsKeyword(kw) {
			t.Errorf("IsKeyword(%q) = false, want true", kw)
		}
	}
	if r.IsKeyword("where") {
		t.Error("IsKeyword(\"where\") = true, want false (function names are not reserved keywords)")
	}
}

func TestRegistryMatchLiteral(t *testing.T) {
	t.Parallel()

	r := Default()
	if _, ok := r.MatchLiteral("true", ""); !ok {
		t.Error("MatchLiteral(\"true\") did not match any literal")
	}
	if _, ok := r.MatchLiteral("42", ""); !ok {
		t.Error("MatchLiteral(\"42\") did not match any literal")
	}
	if _, ok := r.MatchLiteral("not-a-literal!!", ""); ok {
		t.Error("MatchLiteral matched garbage input")
	}
}

func TestRegistryClearResetsToStartupState(t *testing.T) {
	before := len(Default().AllFunctions())
	Clear()
	after := len(Default().AllFunctions())
	if before != after {
		t.Fatalf("function count changed after Clear: before=%d after=%d", before, after)
	}
}
