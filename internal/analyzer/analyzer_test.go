package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpumuk/fhirpath/internal/diagnostic"
	"github.com/kpumuk/fhirpath/internal/model"
	"github.com/kpumuk/fhirpath/internal/parser"
	"github.com/kpumuk/fhirpath/internal/registry"
)

// fakeProvider is a minimal model.Provider over a fixed property/union
// table, for exercising analysis without a real host model.
type fakeProvider struct {
	properties map[string]map[string]model.TypeInfo
	unions     map[string][]model.TypeRef
}

func (p *fakeProvider) ResolveType(name string) (model.TypeRef, bool) {
	if _, ok := p.properties[name]; ok {
		return name, true
	}
	return nil, false
}

func (p *fakeProvider) PropertyType(typ model.TypeRef, name string) (model.TypeInfo, bool) {
	props, ok := p.properties[typ.(string)]
	if !ok {
		return model.TypeInfo{}, false
	}
	t, ok := props[name]
	return t, ok
}

func (p *fakeProvider) IsAssignable(from, to model.TypeRef) bool { return from == to }
func (p *fakeProvider) TypeName(typ model.TypeRef) string        { return typ.(string) }
func (p *fakeProvider) IsCollectionType(model.TypeRef) bool      { return false }

func (p *fakeProvider) CommonType(types []model.TypeRef) (model.TypeRef, bool) {
	if len(types) == 0 {
		return nil, false
	}
	first := types[0]
	for _, t := range types[1:] {
		if t != first {
			return nil, false
		}
	}
	return first, true
}

func (p *fakeProvider) ChildrenType(parent model.TypeRef) (model.TypeRef, bool) {
	union, ok := p.unions[parent.(string)]
	if !ok {
		return nil, false
	}
	return union, true
}

func (p *fakeProvider) ElementNames(typ model.TypeRef) ([]string, bool) {
	props, ok := p.properties[typ.(string)]
	if !ok {
		return nil, false
	}
	names := make([]string, 0, len(props))
	for n := range props {
		names = append(names, n)
	}
	return names, true
}

func patientProvider() *fakeProvider {
	return &fakeProvider{
		properties: map[string]map[string]model.TypeInfo{
			"Patient": {
				"active": {Namespace: "System", Name: "Boolean", IsSingleton: true},
				"name":   {Type: "HumanName", Name: "HumanName", IsSingleton: false},
			},
			"HumanName": {
				"text": {Namespace: "System", Name: "String", IsSingleton: true},
			},
		},
	}
}

func analyzeSrc(t *testing.T, src string, input model.TypeInfo, provider model.Provider) Result {
	t.Helper()
	parseRes, err := parser.Parse([]byte(src), parser.Options{Mode: parser.ModeFast})
	require.NoError(t, err)
	return Analyze(parseRes.AST, Options{Provider: provider, InputType: &input})
}

func TestAnalyzeLiteralTypes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		src  string
		name string
	}{
		{"true", "Boolean"},
		{"1", "Integer"},
		{"1.5", "Decimal"},
		{"'hi'", "String"},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			t.Parallel()
			res := analyzeSrc(t, tc.src, model.TypeInfo{Name: model.AnyTypeName}, model.AnyModelProvider{})
			require.NotNil(t, res.ResultType)
			assert.Equal(t, tc.name, res.ResultType.Name)
			assert.True(t, res.ResultIsSingleton)
			assert.Empty(t, res.Diagnostics)
		})
	}
}

func TestAnalyzeNavigationResolvesPropertyTypes(t *testing.T) {
	t.Parallel()

	provider := patientProvider()
	patient := model.TypeInfo{Type: "Patient", Name: "Patient"}

	res := analyzeSrc(t, "active", patient, provider)
	require.NotNil(t, res.ResultType)
	assert.Equal(t, "Boolean", res.ResultType.Name)
	assert.True(t, res.ResultIsSingleton)

	res = analyzeSrc(t, "name.text", patient, provider)
	require.NotNil(t, res.ResultType)
	assert.Equal(t, "String", res.ResultType.Name)
}

func TestAnalyzeUnknownPropertyEmitsDiagnostic(t *testing.T) {
	t.Parallel()

	res := analyzeSrc(t, "bogus", model.TypeInfo{Type: "Patient", Name: "Patient"}, patientProvider())
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diagnostic.CodeUnknownProperty, res.Diagnostics[0].Code)
	assert.Equal(t, diagnostic.SeverityWarning, res.Diagnostics[0].Severity)
}

func TestAnalyzeStrictModeElevatesUnknownPropertyToError(t *testing.T) {
	t.Parallel()

	parseRes, err := parser.Parse([]byte("bogus"), parser.Options{Mode: parser.ModeFast})
	require.NoError(t, err)
	input := model.TypeInfo{Type: "Patient", Name: "Patient"}
	res := Analyze(parseRes.AST, Options{Provider: patientProvider(), Mode: registry.Strict, InputType: &input})
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diagnostic.SeverityError, res.Diagnostics[0].Severity)
}

func TestAnalyzeUnknownFunctionEmitsDiagnostic(t *testing.T) {
	t.Parallel()

	res := analyzeSrc(t, "bogus()", model.TypeInfo{Name: model.AnyTypeName}, model.AnyModelProvider{})
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diagnostic.CodeUnknownFunction, res.Diagnostics[0].Code)
}

func TestAnalyzeWrongArityEmitsDiagnostic(t *testing.T) {
	t.Parallel()

	// substring() takes a required start (+ optional length); no args is wrong arity.
	res := analyzeSrc(t, "'x'.substring()", model.TypeInfo{Name: model.AnyTypeName}, model.AnyModelProvider{})
	require.NotEmpty(t, res.Diagnostics)
	var found bool
	for _, d := range res.Diagnostics {
		if d.Code == diagnostic.CodeWrongArity {
			found = true
		}
	}
	assert.True(t, found, "expected a WRONG_ARITY diagnostic, got %+v", res.Diagnostics)
}

func TestAnalyzeIterationPublishesThisAndIndex(t *testing.T) {
	t.Parallel()

	provider := patientProvider()
	patient := model.TypeInfo{Type: "Patient", Name: "Patient", IsSingleton: false}

	// where($this.active) should resolve `active` against the element
	// type (Patient), not emit an unknown-property warning.
	res := analyzeSrc(t, "where($this.active)", patient, provider)
	assert.Empty(t, res.Diagnostics)
}

func TestAnalyzeOfTypeWarnsOnChoiceNotInUnion(t *testing.T) {
	t.Parallel()

	provider := patientProvider()
	union := model.TypeInfo{IsUnion: true, Name: "Choice", Choices: []model.TypeRef{"Patient"}}

	res := analyzeSrc(t, "ofType(HumanName)", union, provider)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diagnostic.CodeInvalidTypeFilter, res.Diagnostics[0].Code)
}
