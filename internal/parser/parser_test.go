package parser

import (
	"testing"

	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/diagnostic"
)

func TestParseFastThrowsOnFirstError(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("Patient.where(active = true"), Options{Mode: ModeFast})
	if err == nil {
		t.Fatal("expected a Go error in Fast mode, got nil")
	}
}

func TestParseStandardAbortsButReturnsDiagnostics(t *testing.T) {
	t.Parallel()

	res, err := Parse([]byte("Patient.where(active = true"), Options{Mode: ModeStandard})
	if err != nil {
		t.Fatalf("unexpected Go error in Standard mode: %v", err)
	}
	if !res.HasErrors {
		t.Fatal("HasErrors = false, want true")
	}
	if len(res.Diagnostics) == 0 {
		t.Fatal("expected at least one diagnostic")
	}
}

func TestParseDiagnosticRecoversUnclosedParenthesis(t *testing.T) {
	t.Parallel()

	// Spec scenario E6: exactly one UNCLOSED_PARENTHESIS, a partial
	// tree, and the `where` Function node still present.
	res, err := Parse([]byte("Patient.where(active = true"), Options{Mode: ModeDiagnostic})
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !res.IsPartial {
		t.Fatal("IsPartial = false, want true")
	}
	var unclosed int
	for _, d := range res.Diagnostics {
		if d.Code == diagnostic.CodeUnclosedParenthesis {
			unclosed++
		}
	}
	if unclosed != 1 {
		t.Fatalf("got %d UNCLOSED_PARENTHESIS diagnostics, want 1 (all: %+v)", unclosed, res.Diagnostics)
	}
	if res.AST == nil {
		t.Fatal("AST is nil, want a partial tree")
	}
	found := false
	ast.Walk(res.AST, func(n ast.Node) {
		if fn, ok := n.(*ast.FunctionCall); ok && fn.Callee == "where" {
			found = true
		}
	})
	if !found {
		t.Fatal("expected a Function node named \"where\" in the partial tree")
	}
}

func TestParseDiagnosticDoubleDot(t *testing.T) {
	t.Parallel()

	// Spec scenario E5.
	res, err := Parse([]byte("Patient..name"), Options{Mode: ModeDiagnostic})
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want exactly 1 (all: %+v)", len(res.Diagnostics), res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if d.Code != diagnostic.CodeInvalidOperator {
		t.Fatalf("code = %s, want %s", d.Code, diagnostic.CodeInvalidOperator)
	}
	wantStart := "Invalid '..' operator"
	if len(d.Message) < len(wantStart) || d.Message[:len(wantStart)] != wantStart {
		t.Fatalf("message = %q, want prefix %q", d.Message, wantStart)
	}
	// The diagnostic's range spans both dots: "Patient" is 7 bytes, the
	// two dots occupy byte offsets [7, 9).
	if d.Span.Start != 7 || d.Span.End != 9 {
		t.Fatalf("span = %+v, want [7, 9)", d.Span)
	}
	// Parsing still produces a navigable tree (single dot skipped, parse continues).
	bin, ok := res.AST.(*ast.Binary)
	if !ok || bin.Op != "." {
		t.Fatalf("AST = %T, want *ast.Binary navigation", res.AST)
	}
}

func TestParseValidateDiscardsTree(t *testing.T) {
	t.Parallel()

	res, err := Parse([]byte("Patient.name"), Options{Mode: ModeValidate})
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if res.AST != nil {
		t.Fatalf("AST = %v, want nil in Validate mode", res.AST)
	}
	if !res.Valid {
		t.Fatal("Valid = false for a syntactically valid expression")
	}

	res, err = Parse([]byte("Patient.where("), Options{Mode: ModeValidate})
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if res.Valid {
		t.Fatal("Valid = true for a syntactically invalid expression")
	}
	if len(res.Diagnostics) == 0 {
		t.Fatal("expected at least one diagnostic")
	}
}

func TestParseNavigationIsLeftAssociative(t *testing.T) {
	t.Parallel()

	res, err := Parse([]byte("a.b.c"), Options{Mode: ModeFast})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	top, ok := res.AST.(*ast.Binary)
	if !ok || top.Op != "." {
		t.Fatalf("top node = %T, want navigation Binary", res.AST)
	}
	left, ok := top.Left.(*ast.Binary)
	if !ok || left.Op != "." {
		t.Fatalf("left child = %T, want nested navigation Binary (a.b)", top.Left)
	}
	if id, ok := left.Left.(*ast.Identifier); !ok || id.Name != "a" {
		t.Fatalf("innermost left = %#v, want Identifier(a)", left.Left)
	}
	if id, ok := top.Right.(*ast.Identifier); !ok || id.Name != "c" {
		t.Fatalf("top right = %#v, want Identifier(c)", top.Right)
	}
}

func TestParseUnionFlattensNAry(t *testing.T) {
	t.Parallel()

	res, err := Parse([]byte("1 | 2 | 3"), Options{Mode: ModeFast})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	u, ok := res.AST.(*ast.Union)
	if !ok {
		t.Fatalf("AST = %T, want *ast.Union", res.AST)
	}
	if len(u.Operands) != 3 {
		t.Fatalf("got %d operands, want 3 (flattened)", len(u.Operands))
	}
	for _, op := range u.Operands {
		if _, nested := op.(*ast.Union); nested {
			t.Fatal("Union operand is itself a Union; must be flat")
		}
	}
}

func TestParseEmptyIndexDiagnostic(t *testing.T) {
	t.Parallel()

	res, err := Parse([]byte("x[]"), Options{Mode: ModeDiagnostic})
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == diagnostic.CodeEmptyIndex {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an EMPTY_INDEX diagnostic, got %+v", res.Diagnostics)
	}
}

func TestParseTrailingCommaDiagnostic(t *testing.T) {
	t.Parallel()

	res, err := Parse([]byte("foo(1, 2,)"), Options{Mode: ModeDiagnostic})
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == diagnostic.CodeTrailingComma {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a TRAILING_COMMA diagnostic, got %+v", res.Diagnostics)
	}
}

func TestParseIsAsAcceptBareAndParenthesizedTypeName(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"x is T", "x is (T)"} {
		res, err := Parse([]byte(src), Options{Mode: ModeFast})
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", src, err)
		}
		if _, ok := res.AST.(*ast.MembershipTest); !ok {
			t.Fatalf("Parse(%q) AST = %T, want *ast.MembershipTest", src, res.AST)
		}
	}
}
