package pytd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamePartition(t *testing.T) {
	testCases := []struct {
		name                       string
		unknown, partial, complete bool
	}{
		{name: "~unknown3", unknown: true},
		{name: "~unknown3.list.T", unknown: true},
		{name: "~list", partial: true},
		{name: "list", complete: true},
		{name: "int", complete: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.unknown, IsUnknown(tc.name))
			assert.Equal(t, tc.partial, IsPartial(tc.name))
			assert.Equal(t, tc.complete, IsComplete(tc.name))
		})
	}
	assert.Equal(t, "list", UnpackPartialName(PartialName("list")))
}

func TestParseType(t *testing.T) {
	testCases := []struct {
		src      string
		params   []string
		expected Type
	}{
		{src: "int", expected: NamedType{Name: "int"}},
		{src: "?", expected: AnythingType{}},
		{src: "nothing", expected: NothingType{}},
		{src: "T", params: []string{"T"}, expected: TypeParameter{Name: "T"}},
		{src: "~unknown1", expected: NamedType{Name: "~unknown1"}},
		{
			src:      "int or str",
			expected: UnionType{Types: []Type{NamedType{Name: "int"}, NamedType{Name: "str"}}},
		},
		{
			src:      "list[int, ...]",
			expected: HomogeneousContainerType{Base: NamedType{Name: "list"}, Element: NamedType{Name: "int"}},
		},
		{
			src:    "dict[str, T]",
			params: []string{"T"},
			expected: GenericType{
				Base:       NamedType{Name: "dict"},
				Parameters: []Type{NamedType{Name: "str"}, TypeParameter{Name: "T"}},
			},
		},
		{
			src: "list[(int or str), ...]",
			expected: HomogeneousContainerType{
				Base:    NamedType{Name: "list"},
				Element: UnionType{Types: []Type{NamedType{Name: "int"}, NamedType{Name: "str"}}},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			actual, err := ParseType(tc.src, tc.params...)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, src := range []string{"", "list[", "int or", "dict[int, str, ...]", "]"} {
		t.Run(src, func(t *testing.T) {
			_, err := ParseType(src)
			assert.Error(t, err)
		})
	}
}

func TestPrintTypeRoundTrip(t *testing.T) {
	for _, src := range []string{
		"int",
		"?",
		"nothing",
		"int or str",
		"list[int, ...]",
		"dict[str, list[int, ...]]",
	} {
		t.Run(src, func(t *testing.T) {
			assert.Equal(t, src, PrintType(MustParseType(src)))
		})
	}
}

func TestJoinTypes(t *testing.T) {
	testCases := []struct {
		name     string
		types    []Type
		expected string
	}{
		{name: "empty", types: nil, expected: "nothing"},
		{name: "single", types: []Type{NamedType{"int"}}, expected: "int"},
		{name: "sorted", types: []Type{NamedType{"str"}, NamedType{"int"}}, expected: "int or str"},
		{name: "duplicates", types: []Type{NamedType{"int"}, NamedType{"str"}, NamedType{"int"}}, expected: "int or str"},
		{name: "nested", types: []Type{MustParseType("int or str"), MustParseType("float or int")}, expected: "float or int or str"},
		{name: "nothing dropped", types: []Type{NothingType{}, NamedType{"int"}}, expected: "int"},
		{name: "anything absorbs", types: []Type{NamedType{"int"}, AnythingType{}}, expected: "?"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, PrintType(JoinTypes(tc.types...)))
		})
	}
}

const fixture = `
name: test
constants:
  - name: x
    type: ~unknown1
functions:
  - name: f
    signatures:
      - params: [{a: int or str}, {b: "?"}]
        return: ~unknown2
classes:
  - name: list
    template: [T]
    parents: [object]
    methods:
      - name: append
        signatures:
          - params: [{self: "list[T]"}, {x: T}]
            return: NoneType
  - name: object
`

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit([]byte(fixture))
	require.NoError(t, err)

	expected := &Unit{
		Name:      "test",
		Constants: []Constant{{Name: "x", Type: NamedType{Name: "~unknown1"}}},
		Functions: []Function{{
			Name: "f",
			Signatures: []Signature{{
				Params: []Parameter{
					{Name: "a", Type: UnionType{Types: []Type{NamedType{Name: "int"}, NamedType{Name: "str"}}}},
					{Name: "b", Type: AnythingType{}},
				},
				Return:   NamedType{Name: "~unknown2"},
				Template: []TypeParameter{},
			}},
		}},
		Classes: []Class{
			{
				Name:     "list",
				Parents:  []Type{NamedType{Name: "object"}},
				Template: []TypeParameter{{Name: "T"}},
				Methods: []Function{{
					Name: "append",
					Signatures: []Signature{{
						Params: []Parameter{
							{Name: "self", Type: GenericType{Base: NamedType{Name: "list"}, Parameters: []Type{TypeParameter{Name: "T"}}}},
							{Name: "x", Type: TypeParameter{Name: "T"}},
						},
						Return:   NamedType{Name: "NoneType"},
						Template: []TypeParameter{},
					}},
				}},
				Constants: []Constant{},
			},
			{
				Name:      "object",
				Parents:   []Type{},
				Template:  []TypeParameter{},
				Methods:   []Function{},
				Constants: []Constant{},
			},
		},
	}
	if diff := cmp.Diff(expected, u); diff != "" {
		t.Errorf("unexpected unit (-want +got):\n%s", diff)
	}
}

func TestParseUnitBadType(t *testing.T) {
	_, err := ParseUnit([]byte(`
functions:
  - name: f
    signatures:
      - params: [{a: "list["}]
`))
	assert.ErrorContains(t, err, "function f")
}

func TestPrint(t *testing.T) {
	u := MustParseUnit(fixture)
	expected := `x = ...  # type: ~unknown1

def f(a: int or str, b: ?) -> ~unknown2

class list(Generic[T], object):
    def append(self: list[T], x: T) -> NoneType

class object:
    pass`
	assert.Equal(t, expected, Print(u))
}

func TestPrintUntypedSelf(t *testing.T) {
	u := MustParseUnit(`
classes:
  - name: A
    methods:
      - name: foo
        signatures:
          - params: [self, {x: int}]
            return: int
functions:
  - name: g
    signatures:
      - params: [x]
        return: int
`)
	assert.Equal(t, `def g(x: object) -> int

class A:
    def foo(self, x: int) -> int`, Print(u))
}

func TestLookup(t *testing.T) {
	builtins := MustParseUnit(fixture)
	local := &Unit{Classes: []Class{{Name: "list"}, {Name: "Foo"}}}
	lookup := NewLookup(builtins, local)

	list, ok := lookup.Class("list")
	require.True(t, ok)
	assert.Len(t, list.Template, 1, "first unit wins")

	_, ok = lookup.Class("Foo")
	assert.True(t, ok)

	_, ok = lookup.Class("f")
	assert.False(t, ok, "f is a function")
	_, ok = lookup.Function("f")
	assert.True(t, ok)

	_, ok = lookup.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"Foo", "f", "list", "object", "x"}, lookup.Names())
}

func TestReplaceTypes(t *testing.T) {
	u := MustParseUnit(fixture)
	replaced := ReplaceTypes(u, map[string]Type{
		"~unknown1": NamedType{Name: "int"},
		"~unknown2": MustParseType("int or str"),
	})
	assert.Equal(t, NamedType{Name: "int"}, replaced.Constants[0].Type)
	assert.Equal(t, "int or str", PrintType(replaced.Functions[0].Signatures[0].Return))
	// the input is untouched
	assert.Equal(t, NamedType{Name: "~unknown1"}, u.Constants[0].Type)
}

func TestRemoveDuplicates(t *testing.T) {
	u := &Unit{Functions: []Function{{
		Name: "f",
		Signatures: []Signature{
			{Params: []Parameter{{Name: "x", Type: MustParseType("int or int")}}, Return: NamedType{Name: "str"}},
			{Params: []Parameter{{Name: "x", Type: NamedType{Name: "int"}}}, Return: NamedType{Name: "str"}},
		},
	}}}
	assert.Equal(t, "def f(x: int) -> str", Print(RemoveDuplicates(u)))
}

func TestDefaceUnresolved(t *testing.T) {
	lookup := NewLookup(&Unit{Classes: []Class{{Name: "int"}, {Name: "list"}}})
	u := &Unit{Constants: []Constant{
		{Name: "a", Type: NamedType{Name: "int"}},
		{Name: "b", Type: NamedType{Name: "Missing"}},
		{Name: "c", Type: MustParseType("list[Missing, ...]")},
		{Name: "d", Type: MustParseType("Missing[int]")},
		{Name: "e", Type: MustParseType("~unknown4")},
	}}
	defaced := DefaceUnresolved(u, UnknownPrefix, lookup)
	assert.Equal(t, `a = ...  # type: int
b = ...  # type: ?
c = ...  # type: list[?, ...]
d = ...  # type: ?
e = ...  # type: ?`, Print(defaced))
}

func TestExpandSignatures(t *testing.T) {
	fn := Function{Name: "f", Signatures: []Signature{{
		Params: []Parameter{
			{Name: "x", Type: MustParseType("int or float")},
			{Name: "y", Type: MustParseType("str or bytes")},
		},
		Return: NamedType{Name: "NoneType"},
	}}}
	expanded := ExpandSignatures(fn)
	assert.Equal(t, `def f(x: int, y: str) -> NoneType
def f(x: int, y: bytes) -> NoneType
def f(x: float, y: str) -> NoneType
def f(x: float, y: bytes) -> NoneType`, PrintFunction(expanded))
}
