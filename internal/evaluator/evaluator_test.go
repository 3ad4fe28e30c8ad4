package evaluator

import (
	"testing"

	"github.com/kpumuk/fhirpath/internal/parser"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

// fakeObject is a minimal value.Object for exercising navigation
// without a real model provider.
type fakeObject struct {
	typeName string
	props    map[string]value.Collection
}

func (o *fakeObject) TypeName() string { return o.typeName }

func (o *fakeObject) Get(name string) (value.Collection, bool) {
	c, ok := o.props[name]
	return c, ok
}

func patient(name ...string) value.Value {
	var names value.Collection
	for _, n := range name {
		names = append(names, value.ObjectOf(&fakeObject{
			typeName: "HumanName",
			props:    map[string]value.Collection{"text": value.Of(value.Str(n))},
		}))
	}
	return value.ObjectOf(&fakeObject{
		typeName: "Patient",
		props: map[string]value.Collection{
			"name":    names,
			"active":  value.Of(value.Bool(true)),
			"contact": nil,
		},
	})
}

func evalSrc(t *testing.T, src string, input value.Collection) value.Collection {
	t.Helper()
	parseRes, err := parser.Parse([]byte(src), parser.Options{Mode: parser.ModeFast})
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	out, _, err := New(Options{}).Eval(parseRes.AST, runtime.NewRoot(input))
	if err != nil {
		t.Fatalf("Eval(%q) error: %v", src, err)
	}
	return out
}

func TestEvalArithmeticAndComparison(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		want value.Collection
	}{
		{"1 + 2", value.Of(value.Int(3))},
		{"2 * 3 + 1", value.Of(value.Int(7))},
		{"10 div 3", value.Of(value.Int(3))},
		{"10 mod 3", value.Of(value.Int(1))},
		{"1 < 2", value.Of(value.Bool(true))},
		{"1 = 1", value.Of(value.Bool(true))},
		{"'a' & 'b'", value.Of(value.Str("ab"))},
		{"true and false", value.Of(value.Bool(false))},
		{"true or false", value.Of(value.Bool(true))},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			t.Parallel()
			got := evalSrc(t, tc.src, nil)
			if len(got) != len(tc.want) || (len(got) == 1 && got[0].String() != tc.want[0].String()) {
				t.Fatalf("%s = %v, want %v", tc.src, got, tc.want)
			}
		})
	}
}

func TestEvalNavigation(t *testing.T) {
	t.Parallel()

	input := value.Of(patient("Alice", "Bob"))

	got := evalSrc(t, "name.text", input)
	if len(got) != 2 || got[0].AsString() != "Alice" || got[1].AsString() != "Bob" {
		t.Fatalf("name.text = %v", got)
	}

	got = evalSrc(t, "active", input)
	if len(got) != 1 || !got[0].AsBool() {
		t.Fatalf("active = %v", got)
	}

	got = evalSrc(t, "contact", input)
	if len(got) != 0 {
		t.Fatalf("contact = %v, want empty", got)
	}
}

func TestEvalWhereSelectFiltering(t *testing.T) {
	t.Parallel()

	input := value.Of(patient("Alice", "Bob"))

	got := evalSrc(t, "name.where(text = 'Bob').text", input)
	if len(got) != 1 || got[0].AsString() != "Bob" {
		t.Fatalf("where filter = %v", got)
	}

	got = evalSrc(t, "name.select(text)", input)
	if len(got) != 2 {
		t.Fatalf("select = %v", got)
	}
}

func TestEvalDefineVariablePropagatesAcrossNavigation(t *testing.T) {
	t.Parallel()

	input := value.Of(patient("Alice"))
	got := evalSrc(t, "name.first().defineVariable('n', text).select(%n)", input)
	if len(got) != 1 || got[0].AsString() != "Alice" {
		t.Fatalf("defineVariable chain = %v", got)
	}
}

func TestEvalIsAndAsTypeChecks(t *testing.T) {
	t.Parallel()

	input := value.Of(patient("Alice"))

	got := evalSrc(t, "name.first() is HumanName", input)
	if len(got) != 1 || !got[0].AsBool() {
		t.Fatalf("is HumanName = %v", got)
	}

	got = evalSrc(t, "1 is Integer", nil)
	if len(got) != 1 || !got[0].AsBool() {
		t.Fatalf("is Integer = %v", got)
	}

	got = evalSrc(t, "1 is String", nil)
	if len(got) != 1 || got[0].AsBool() {
		t.Fatalf("is String should be false, got %v", got)
	}
}

func TestEvalUnionDeduplicates(t *testing.T) {
	t.Parallel()

	got := evalSrc(t, "(1 | 2 | 1 | 3)", nil)
	if len(got) != 3 {
		t.Fatalf("union = %v, want 3 distinct elements", got)
	}
}

func TestEvalIndexAndSubsetting(t *testing.T) {
	t.Parallel()

	input := value.Of(patient("Alice", "Bob"))

	got := evalSrc(t, "name[1].text", input)
	if len(got) != 1 || got[0].AsString() != "Bob" {
		t.Fatalf("index = %v", got)
	}

	got = evalSrc(t, "name.count()", input)
	if len(got) != 1 || got[0].AsInt() != 2 {
		t.Fatalf("count = %v", got)
	}
}

func TestEvalTraceCallsTracer(t *testing.T) {
	t.Parallel()

	var gotName string
	var gotValues value.Collection
	tracer := TracerFunc(func(name string, values value.Collection) {
		gotName = name
		gotValues = values
	})

	parseRes, err := parser.Parse([]byte("true.trace('flag')"), parser.Options{Mode: parser.ModeFast})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	out, _, err := New(Options{Tracer: tracer}).Eval(parseRes.AST, runtime.NewRoot(nil))
	if err != nil {
		t.Fatalf("Eval error: %v", err)
	}
	if len(out) != 1 || !out[0].AsBool() {
		t.Fatalf("trace() should pass its input through unchanged, got %v", out)
	}
	if gotName != "flag" || len(gotValues) != 1 || !gotValues[0].AsBool() {
		t.Fatalf("Tracer did not receive the traced value: name=%q values=%v", gotName, gotValues)
	}
}

func TestEvalAggregateSum(t *testing.T) {
	t.Parallel()

	got := evalSrc(t, "(1 | 2 | 3).aggregate($this + $total, 0)", nil)
	if len(got) != 1 || got[0].AsInt() != 6 {
		t.Fatalf("aggregate sum = %v, want 6", got)
	}
}
