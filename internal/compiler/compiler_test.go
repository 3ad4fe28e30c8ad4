package compiler

import (
	"testing"

	"github.com/kpumuk/fhirpath/internal/parser"
	"github.com/kpumuk/fhirpath/internal/runtime"
	"github.com/kpumuk/fhirpath/internal/value"
)

// fakeObject is a minimal value.Object for exercising compiled
// navigation without a real model provider, mirroring the evaluator
// package's own test double.
type fakeObject struct {
	typeName string
	props    map[string]value.Collection
}

func (o *fakeObject) TypeName() string { return o.typeName }

func (o *fakeObject) Get(name string) (value.Collection, bool) {
	c, ok := o.props[name]
	return c, ok
}

func execSrc(t *testing.T, src string, input value.Collection) value.Collection {
	t.Helper()
	res, err := parser.Parse([]byte(src), parser.Options{Mode: parser.ModeFast})
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	fn, err := Compile(res.AST, Options{})
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", src, err)
	}
	out, err := fn(runtime.NewRoot(input))
	if err != nil {
		t.Fatalf("execute(%q) error: %v", src, err)
	}
	return out
}

func TestCompileLiterals(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		want value.Value
	}{
		{"true", value.Bool(true)},
		{"1", value.Int(1)},
		{"'hello'", value.Str("hello")},
	}
	for _, tc := range cases {
		out := execSrc(t, tc.src, nil)
		if len(out) != 1 || !value.Equal(out[0], tc.want) {
			t.Errorf("execute(%q) = %v, want [%v]", tc.src, out, tc.want)
		}
	}
}

func TestCompileArithmetic(t *testing.T) {
	t.Parallel()

	out := execSrc(t, "2 + 3 * 4", nil)
	if len(out) != 1 || out[0].AsInt() != 14 {
		t.Fatalf("execute(2 + 3 * 4) = %v, want [14]", out)
	}
}

func TestCompileNavigationFlattensOneLevel(t *testing.T) {
	t.Parallel()

	names := value.Of(
		value.ObjectOf(&fakeObject{typeName: "HumanName", props: map[string]value.Collection{
			"given": value.Of(value.Str("Peter"), value.Str("James")),
		}}),
		value.ObjectOf(&fakeObject{typeName: "HumanName", props: map[string]value.Collection{
			"given": value.Of(value.Str("Jim")),
		}}),
	)
	root := value.Of(value.ObjectOf(&fakeObject{typeName: "Person", props: map[string]value.Collection{
		"name": names,
	}}))

	out := execSrc(t, "name.given", root)
	want := []string{"Peter", "James", "Jim"}
	if len(out) != len(want) {
		t.Fatalf("execute(name.given) = %v, want %v", out, want)
	}
	for i, w := range want {
		if out[i].AsString() != w {
			t.Errorf("out[%d] = %q, want %q", i, out[i].AsString(), w)
		}
	}
}

func TestCompileWhereFiltersByIteratorContext(t *testing.T) {
	t.Parallel()

	items := value.Of(value.Int(1), value.Int(2), value.Int(3), value.Int(4))
	out := execSrc(t, "where($this > 2)", items)
	if len(out) != 2 || out[0].AsInt() != 3 || out[1].AsInt() != 4 {
		t.Fatalf("execute(where($this > 2)) = %v, want [3 4]", out)
	}
}

func TestCompileUnionDeduplicates(t *testing.T) {
	t.Parallel()

	out := execSrc(t, "(1 | 1 | 2).count()", nil)
	if len(out) != 1 || out[0].AsInt() != 2 {
		t.Fatalf("execute((1|1|2).count()) = %v, want [2]", out)
	}
}

func TestCompileIndex(t *testing.T) {
	t.Parallel()

	out := execSrc(t, "{10, 20, 30}[1]", nil)
	if len(out) != 1 || out[0].AsInt() != 20 {
		t.Fatalf("execute({10,20,30}[1]) = %v, want [20]", out)
	}

	out = execSrc(t, "{10, 20, 30}[99]", nil)
	if len(out) != 0 {
		t.Fatalf("out-of-range index = %v, want empty", out)
	}
}

func TestCompileMembershipTestAndTypeCast(t *testing.T) {
	t.Parallel()

	out := execSrc(t, "1 is Integer", nil)
	if len(out) != 1 || !out[0].AsBool() {
		t.Fatalf("execute(1 is Integer) = %v, want [true]", out)
	}

	out = execSrc(t, "1 as Integer", nil)
	if len(out) != 1 || out[0].AsInt() != 1 {
		t.Fatalf("execute(1 as Integer) = %v, want [1]", out)
	}

	out = execSrc(t, "'x' as Integer", nil)
	if len(out) != 0 {
		t.Fatalf("execute('x' as Integer) = %v, want empty", out)
	}
}

func TestCompileUnknownFunctionErrors(t *testing.T) {
	t.Parallel()

	res, err := parser.Parse([]byte("thisDoesNotExist()"), parser.Options{Mode: parser.ModeFast})
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if _, err := Compile(res.AST, Options{}); err == nil {
		t.Fatal("expected an error compiling an unknown function call")
	}
}
