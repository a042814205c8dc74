package convert

import (
	"testing"

	"github.com/cottand/tysolve/booleq"
	"github.com/cottand/tysolve/internal/tyerr"
	"github.com/cottand/tysolve/pytd"
	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const builtinsSrc = `
name: __builtin__
classes:
  - name: object
  - name: NoneType
    parents: [object]
  - name: int
    parents: [object]
    methods:
      - name: __add__
        signatures:
          - params: [self, {other: int}]
            return: int
  - name: bool
    parents: [int]
  - name: str
    parents: [object]
    methods:
      - name: upper
        signatures:
          - params: [self]
            return: str
  - name: list
    template: [T]
    parents: [object]
    methods:
      - name: append
        signatures:
          - params: [{self: "list[T]"}, {x: T}]
            return: NoneType
  - name: dict
    template: [K, V]
    parents: [object]
    methods:
      - name: keys
        signatures:
          - params: [self]
            return: "list[K]"
functions:
  - name: len
    signatures:
      - params: [{x: object}]
        return: int
`

func builtins() *pytd.Unit {
	return pytd.MustParseUnit(builtinsSrc)
}

func paramType(t *testing.T, u *pytd.Unit, function string) pytd.Type {
	t.Helper()
	for _, f := range u.Functions {
		if f.Name == function {
			require.NotEmpty(t, f.Signatures)
			require.NotEmpty(t, f.Signatures[0].Params)
			return f.Signatures[0].Params[0].Type
		}
	}
	require.Failf(t, "function not found", "%s", function)
	return nil
}

func TestUnknownResolvesToCompatibleClass(t *testing.T) {
	ast := pytd.MustParseUnit(`
name: test
classes:
  - name: A
    parents: [object]
    methods:
      - name: foo
        signatures:
          - params: [self]
            return: int
  - name: B
    parents: [object]
    methods:
      - name: bar
        signatures:
          - params: [self]
            return: int
  - name: ~unknown1
    methods:
      - name: foo
        signatures:
          - params: [self]
            return: ~unknown2
functions:
  - name: f
    signatures:
      - params: [{x: ~unknown1}]
        return: ~unknown2
`)
	solution, errs := Solve(ast, builtins(), Settings{})
	require.False(t, errs.HasError(), errs)
	assert.Equal(t, []string{"A"}, solution.Mapping.Values("~unknown1"))
	assert.Equal(t, []string{"bool", "int"}, solution.Mapping.Values("~unknown2"))

	result, errs := Convert(ast, builtins(), Settings{})
	require.False(t, errs.HasError(), errs)
	assert.Equal(t, pytd.NamedType{Name: "A"}, paramType(t, result, "f"))
	assert.Equal(t, "def f(x: A) -> bool or int", pytd.PrintFunction(result.Functions[0]))
	for _, c := range result.Classes {
		assert.True(t, pytd.IsComplete(c.Name), c.Name)
	}
}

func TestParallelMatchingGivesSameSolution(t *testing.T) {
	ast := pytd.MustParseUnit(`
classes:
  - name: ~unknown1
    methods:
      - name: upper
        signatures:
          - params: [self]
            return: ~unknown2
  - name: ~unknown3
    methods:
      - name: append
        signatures:
          - params: [self, {x: ~unknown1}]
            return: ~unknown4
`)
	sequential, errs := Solve(ast, builtins(), Settings{})
	require.False(t, errs.HasError())
	parallel, errs := Solve(ast, builtins(), Settings{Parallelism: 4})
	require.False(t, errs.HasError())
	assert.Equal(t, sequential.Mapping.AsMap(), parallel.Mapping.AsMap())
	assert.Equal(t, []string{"str"}, parallel.Mapping.Values("~unknown1"))
	assert.Equal(t, []string{"list"}, parallel.Mapping.Values("~unknown3"))
}

func TestFlawedPartialClass(t *testing.T) {
	ast := pytd.MustParseUnit(`
classes:
  - name: ~str
    methods:
      - name: upper
        signatures:
          - params: [self, {x: int}]
            return: str
`)
	_, errs := Solve(ast, builtins(), Settings{})
	require.True(t, errs.HasError())
	require.Len(t, errs.Errors(), 1)
	flawed, ok := errs.Errors()[0].(tyerr.FlawedClass)
	require.True(t, ok, "%T", errs.Errors()[0])
	assert.Equal(t, "~str", flawed.Partial)
	assert.Equal(t, "str", flawed.Complete)
	assert.True(t, tyerr.IsFlawedQuery(flawed))
	assert.Equal(t, "(E001) ~str can never be str", tyerr.FormatWithCode(flawed))
}

func TestPartialClassConstrainsUnknowns(t *testing.T) {
	ast := pytd.MustParseUnit(`
classes:
  - name: ~list
    methods:
      - name: append
        signatures:
          - params: [self, {x: ~unknown1}]
            return: ~unknown2
`)
	solution, errs := Solve(ast, builtins(), Settings{})
	require.False(t, errs.HasError(), errs)
	assert.Equal(t, []string{"NoneType"}, solution.Mapping.Values("~unknown2"))
	assert.Empty(t, solution.Local.Classes)
}

func TestFlawedCall(t *testing.T) {
	ast := pytd.MustParseUnit(`
functions:
  - name: f
    signatures:
      - params: [{x: int}]
        return: str
  - name: ~f
    signatures:
      - params: [{x: "int or str"}]
        return: ~unknown1
`)
	_, errs := Solve(ast, builtins(), Settings{})
	require.Len(t, errs.Errors(), 1)
	flawed, ok := errs.Errors()[0].(tyerr.FlawedCall)
	require.True(t, ok, "%T", errs.Errors()[0])
	assert.Equal(t, "~f", flawed.Function)
	assert.Equal(t, "(x: str) -> ~unknown1", flawed.Signature)
	assert.Equal(t, "bad call ~f(x: str) -> ~unknown1", flawed.Error())
}

func TestCallRecordPinsReturn(t *testing.T) {
	ast := pytd.MustParseUnit(`
functions:
  - name: f
    signatures:
      - params: [{x: int}]
        return: str
  - name: ~f
    signatures:
      - params: [{x: bool}]
        return: ~unknown1
  - name: ~len
    signatures:
      - params: [{x: ~unknown2}]
        return: ~unknown3
`)
	solution, errs := Solve(ast, builtins(), Settings{})
	require.False(t, errs.HasError(), errs)
	assert.Equal(t, []string{"str"}, solution.Mapping.Values("~unknown1"))
	assert.Equal(t, []string{"bool", "int"}, solution.Mapping.Values("~unknown3"))
	require.Len(t, solution.Local.Functions, 1)
	assert.Equal(t, "f", solution.Local.Functions[0].Name)
}

func TestTemplateParameterIsResolved(t *testing.T) {
	ast := pytd.MustParseUnit(`
classes:
  - name: ~unknown1
    methods:
      - name: append
        signatures:
          - params: [self, {x: int}]
            return: ~unknown2
functions:
  - name: f
    signatures:
      - params: [{x: ~unknown1}]
        return: ~unknown2
`)
	solution, errs := Solve(ast, builtins(), Settings{})
	require.False(t, errs.HasError(), errs)
	assert.Equal(t, []string{"list"}, solution.Mapping.Values("~unknown1"))
	assert.Equal(t, []string{"int"}, solution.Mapping.Values("~unknown1.list.T"))

	result, errs := Convert(ast, builtins(), Settings{})
	require.False(t, errs.HasError(), errs)
	expected := pytd.HomogeneousContainerType{Base: pytd.NamedType{Name: "list"}, Element: pytd.NamedType{Name: "int"}}
	if diff := cmp.Diff(pytd.Type(expected), paramType(t, result, "f")); diff != "" {
		t.Errorf("unexpected parameter type (-want +got):\n%s", diff)
	}
	assert.Equal(t, "def f(x: list[int, ...]) -> NoneType", pytd.PrintFunction(result.Functions[0]))
}

func TestUnmatchedUnknownIsAnything(t *testing.T) {
	ast := pytd.MustParseUnit(`
classes:
  - name: ~unknown1
    methods:
      - name: frobnicate
        signatures:
          - params: [self]
            return: NoneType
functions:
  - name: f
    signatures:
      - params: [{x: ~unknown1}]
        return: ~unknown2
`)
	result, errs := Convert(ast, builtins(), Settings{})
	require.False(t, errs.HasError(), errs)
	assert.Equal(t, "def f(x: ?) -> ?", pytd.PrintFunction(result.Functions[0]))
}

func mapping(values map[string][]string) booleq.Assignment {
	ret := make(booleq.Assignment, len(values))
	for k, vs := range values {
		ret[k] = set.From(vs)
	}
	return ret
}

func TestConvertStringType(t *testing.T) {
	lookup := pytd.NewLookup(builtins())
	solved := mapping(map[string][]string{
		"~unknown1":        {"dict"},
		"~unknown1.dict.K": {"str"},
		"~unknown1.dict.V": {"int", "str"},
		"~unknown2":        {"list"},
		"~unknown2.list.T": {"list"},
		"~unknown3":        {"int", booleq.AnyValue},
		"~unknown4":        {},
	})
	testCases := []struct {
		name     string
		unknown  string
		maxDepth int
		expected string
	}{
		{name: "generic", unknown: "~unknown1", expected: "dict[str, int or str]"},
		{name: "nested parameters stop at the maximum depth", unknown: "~unknown2", expected: "list[list[?, ...], ...]"},
		{name: "deeper maximum depth", unknown: "~unknown2", maxDepth: 2, expected: "list[list[list[?, ...], ...], ...]"},
		{name: "unconstrained", unknown: "~unknown3", expected: "?"},
		{name: "no candidates", unknown: "~unknown4", expected: "?"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProjector(solved, lookup, Settings{MaxDepth: tc.maxDepth})
			actual := p.ConvertStringTypeList(solved.Values(tc.unknown), tc.unknown, 0)
			assert.Equal(t, tc.expected, pytd.PrintType(actual))
		})
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	lookup := pytd.NewLookup(builtins())
	for _, name := range []string{"int", "str", "NoneType", "object"} {
		p := NewProjector(mapping(map[string][]string{"~unknown1": {name}}), lookup, Settings{})
		projected := p.ConvertStringTypeList([]string{name}, "~unknown1", 0)
		actual, ok := pytd.BaseName(projected)
		require.True(t, ok)
		assert.Equal(t, name, actual)
		assert.False(t, p.Errors().HasError())
	}
}

func TestProjectionReportsUnresolvedNames(t *testing.T) {
	p := NewProjector(mapping(map[string][]string{"~unknown1": {"Missing"}}), pytd.NewLookup(builtins()), Settings{})
	local := pytd.MustParseUnit(`
constants:
  - name: x
    type: ~unknown1
`)
	result := p.InsertSolution(local)
	assert.Equal(t, pytd.Type(pytd.AnythingType{}), result.Constants[0].Type)
	require.Len(t, p.Errors().Errors(), 1)
	assert.False(t, tyerr.IsFlawedQuery(p.Errors().Errors()[0]))
}

func TestExtractLocal(t *testing.T) {
	ast := pytd.MustParseUnit(`
name: test
constants:
  - name: x
    type: int
  - name: ~unknown3
    type: int
classes:
  - name: A
  - name: ~A
  - name: ~unknown1
functions:
  - name: f
    signatures:
      - params: []
        return: int
  - name: ~f
    signatures:
      - params: []
        return: int
`)
	local := ExtractLocal(ast)
	assert.Equal(t, "test", local.Name)
	require.Len(t, local.Classes, 1)
	assert.Equal(t, "A", local.Classes[0].Name)
	require.Len(t, local.Functions, 1)
	assert.Equal(t, "f", local.Functions[0].Name)
	require.Len(t, local.Constants, 1)
	assert.Equal(t, "x", local.Constants[0].Name)
}

func TestLocalClassShadowsTemplatedBuiltin(t *testing.T) {
	ast := pytd.MustParseUnit(`
classes:
  - name: list
    parents: [object]
    methods:
      - name: frob
        signatures:
          - params: [self]
            return: NoneType
  - name: ~unknown1
    methods:
      - name: frob
        signatures:
          - params: [self]
            return: ~unknown2
functions:
  - name: f
    signatures:
      - params: [{x: ~unknown1}]
        return: ~unknown2
`)
	solution, errs := Solve(ast, builtins(), Settings{})
	require.False(t, errs.HasError(), errs)
	assert.Equal(t, []string{"list"}, solution.Mapping.Values("~unknown1"))

	result, errs := Convert(ast, builtins(), Settings{})
	require.False(t, errs.HasError(), errs)
	assert.Equal(t, pytd.Type(pytd.NamedType{Name: "list"}), paramType(t, result, "f"))
	assert.Equal(t, "def f(x: list) -> NoneType", pytd.PrintFunction(result.Functions[0]))
}

func TestCallRecordMatchesEveryDeclaration(t *testing.T) {
	ast := pytd.MustParseUnit(`
functions:
  - name: len
    signatures:
      - params: [{x: int}, {y: int}]
        return: int
  - name: ~len
    signatures:
      - params: [{x: int}, {y: int}]
        return: ~unknown1
`)
	_, errs := Solve(ast, builtins(), Settings{})
	require.Len(t, errs.Errors(), 1, "the builtin len takes a single argument")
	flawed, ok := errs.Errors()[0].(tyerr.FlawedCall)
	require.True(t, ok, "%T", errs.Errors()[0])
	assert.Equal(t, "~len", flawed.Function)
	assert.Equal(t, "(x: int, y: int) -> ~unknown1", flawed.Signature)
}
