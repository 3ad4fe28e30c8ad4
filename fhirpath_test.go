package fhirpath

import (
	"testing"

	"github.com/kpumuk/fhirpath/internal/ast"
	"github.com/kpumuk/fhirpath/internal/diagnostic"
	"github.com/kpumuk/fhirpath/internal/value"
)

// fakeObject is a minimal value.Object double for the end-to-end
// scenarios spec.md §8 names, exercised here against the public API
// rather than any internal package directly.
type fakeObject struct {
	typeName string
	props    map[string]Collection
}

func (o *fakeObject) TypeName() string { return o.typeName }

func (o *fakeObject) Get(name string) (Collection, bool) {
	c, ok := o.props[name]
	return c, ok
}

func humanName(given ...string) Value {
	vals := make(Collection, len(given))
	for i, g := range given {
		vals[i] = value.Str(g)
	}
	return value.ObjectOf(&fakeObject{typeName: "HumanName", props: map[string]Collection{"given": vals}})
}

func evalE2E(t *testing.T, src string, input Collection) Collection {
	t.Helper()
	out, err := EvaluateSource(src, input, EvaluateOptions{})
	if err != nil {
		t.Fatalf("EvaluateSource(%q) error: %v", src, err)
	}
	return out
}

func strings(c Collection) []string {
	out := make([]string, len(c))
	for i, v := range c {
		out[i] = v.AsString()
	}
	return out
}

// E1: name.given on { name: [{ given: ["Peter","James"] }, { given: ["Jim"] }] }.
func TestE1NavigationFlattensRepeatingFields(t *testing.T) {
	t.Parallel()

	root := value.Of(value.ObjectOf(&fakeObject{
		typeName: "Person",
		props: map[string]Collection{
			"name": value.Of(humanName("Peter", "James"), humanName("Jim")),
		},
	}))

	got := strings(evalE2E(t, "name.given", root))
	want := []string{"Peter", "James", "Jim"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// E2: Patient.name.where(use = 'official').given on a Patient with an
// official and a nickname HumanName.
func TestE2WhereFiltersBeforeProjection(t *testing.T) {
	t.Parallel()

	official := value.ObjectOf(&fakeObject{typeName: "HumanName", props: map[string]Collection{
		"use": value.Of(value.Str("official")), "given": value.Of(value.Str("Peter")),
	}})
	nickname := value.ObjectOf(&fakeObject{typeName: "HumanName", props: map[string]Collection{
		"use": value.Of(value.Str("nickname")), "given": value.Of(value.Str("Jim")),
	}})
	patient := value.Of(value.ObjectOf(&fakeObject{
		typeName: "Patient",
		props:    map[string]Collection{"name": value.Of(official, nickname)},
	}))

	got := strings(evalE2E(t, "Patient.name.where(use = 'official').given", patient))
	if len(got) != 1 || got[0] != "Peter" {
		t.Fatalf("got %v, want [Peter]", got)
	}
}

// E3: iif(true, true, (1 | 2).toString()) with empty input must never
// evaluate the else branch (laziness).
func TestE3IifIsLazy(t *testing.T) {
	t.Parallel()

	got := evalE2E(t, "iif(true, true, (1 | 2).toString())", nil)
	if len(got) != 1 || !got[0].AsBool() {
		t.Fatalf("got %v, want [true]", got)
	}
}

// E4: defineVariable('x', 5).select(%x).
func TestE4DefineVariableScopesToSelect(t *testing.T) {
	t.Parallel()

	singleton := value.Of(value.ObjectOf(&fakeObject{typeName: "Any"}))
	got := evalE2E(t, "defineVariable('x', 5).select(%x)", singleton)
	if len(got) != 1 || got[0].AsInt() != 5 {
		t.Fatalf("got %v, want [5]", got)
	}

	got = evalE2E(t, "defineVariable('x', 5).select(%x)", nil)
	if len(got) != 0 {
		t.Fatalf("got %v, want [] on empty input", got)
	}
}

// E5: Patient..name in Diagnostic mode produces exactly one
// INVALID_OPERATOR diagnostic spanning both dots.
func TestE5DoubleDotDiagnostic(t *testing.T) {
	t.Parallel()

	res, err := Parse("Patient..name", ParseOptions{Mode: ModeDiagnostic})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1 (all: %+v)", len(res.Diagnostics), res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if d.Code != diagnostic.CodeInvalidOperator {
		t.Fatalf("code = %s, want INVALID_OPERATOR", d.Code)
	}
	want := "Invalid '..' operator"
	if len(d.Message) < len(want) || d.Message[:len(want)] != want {
		t.Fatalf("message = %q, want prefix %q", d.Message, want)
	}
}

// E6: Patient.where(active = true (unclosed) in Diagnostic mode:
// exactly one UNCLOSED_PARENTHESIS, a partial result, and the `where`
// Function node surviving in the tree.
func TestE6UnclosedParenthesisRecovery(t *testing.T) {
	t.Parallel()

	res, err := Parse("Patient.where(active = true", ParseOptions{Mode: ModeDiagnostic})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !res.IsPartial {
		t.Fatal("IsPartial = false, want true")
	}
	count := 0
	for _, d := range res.Diagnostics {
		if d.Code == diagnostic.CodeUnclosedParenthesis {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("got %d UNCLOSED_PARENTHESIS diagnostics, want 1", count)
	}
	if res.AST == nil {
		t.Fatal("expected a partial AST, got nil")
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

// E7: three-valued logic truth tables for `and`/`or` over {true, false, empty}.
func TestE7ThreeValuedLogic(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		want []bool
	}{
		{"true and {}", nil},
		{"false and {}", []bool{false}},
		{"{} or true", []bool{true}},
		{"{} or {}", nil},
	}
	for _, tc := range cases {
		got := evalE2E(t, tc.src, nil)
		if tc.want == nil {
			if len(got) != 0 {
				t.Errorf("%s = %v, want []", tc.src, got)
			}
			continue
		}
		if len(got) != 1 || got[0].AsBool() != tc.want[0] {
			t.Errorf("%s = %v, want %v", tc.src, got, tc.want)
		}
	}
}

// E8: union deduplicates, combine preserves duplicates.
func TestE8UnionVsCombine(t *testing.T) {
	t.Parallel()

	got := evalE2E(t, "(1 | 1 | 2).count()", nil)
	if len(got) != 1 || got[0].AsInt() != 2 {
		t.Fatalf("(1|1|2).count() = %v, want [2]", got)
	}

	got = evalE2E(t, "(1 | 1 | 2).combine({3}).count()", nil)
	if len(got) != 1 || got[0].AsInt() != 4 {
		t.Fatalf("(1|1|2).combine({3}).count() = %v, want [4]", got)
	}
}

func TestCompileAndExecuteMatchesEvaluate(t *testing.T) {
	t.Parallel()

	node, err := ParseForEvaluation("1 + 2 * 3", nil)
	if err != nil {
		t.Fatalf("ParseForEvaluation error: %v", err)
	}
	compiled, err := Compile(node, CompileOptions{})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	out, err := compiled.Execute(nil, nil)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(out) != 1 || out[0].AsInt() != 7 {
		t.Fatalf("Execute(1+2*3) = %v, want [7]", out)
	}
}

func TestAnalyzeAnnotatesWithAnyProviderByDefault(t *testing.T) {
	t.Parallel()

	node, err := ParseForEvaluation("1 + 2", nil)
	if err != nil {
		t.Fatalf("ParseForEvaluation error: %v", err)
	}
	res := Analyze(node, AnalyzeOptions{})
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}
}
