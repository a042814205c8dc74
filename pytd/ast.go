// Package pytd holds the typed declarations the solver reads and writes:
// classes, functions and constants whose types may mention unknowns.
//
// Nodes are values and are never modified after construction. References
// between classes are by name, resolved through a Lookup.
package pytd

// Type is one of the closed set of type nodes below
type Type interface {
	isType()
}

var (
	_ Type = NamedType{}
	_ Type = UnionType{}
	_ Type = GenericType{}
	_ Type = HomogeneousContainerType{}
	_ Type = AnythingType{}
	_ Type = NothingType{}
	_ Type = TypeParameter{}
)

// NamedType refers to a class (or an unknown) by name
type NamedType struct {
	Name string
}

// UnionType is "A or B or ...". Use JoinTypes to build one.
type UnionType struct {
	Types []Type
}

// GenericType is a class applied to one type argument per template parameter, e.g. dict[str, int]
type GenericType struct {
	Base       NamedType
	Parameters []Type
}

// HomogeneousContainerType is a class with a single parameter, e.g. list[int, ...]
type HomogeneousContainerType struct {
	Base    NamedType
	Element Type
}

// AnythingType is "?", the top type
type AnythingType struct{}

// NothingType is the bottom type
type NothingType struct{}

// TypeParameter is a template parameter such as T in list[T]
type TypeParameter struct {
	Name string
}

func (NamedType) isType()                {}
func (UnionType) isType()                {}
func (GenericType) isType()              {}
func (HomogeneousContainerType) isType() {}
func (AnythingType) isType()             {}
func (NothingType) isType()              {}
func (TypeParameter) isType()            {}

type Parameter struct {
	Name string
	Type Type
}

type Signature struct {
	Params []Parameter
	Return Type
	// HasOptional is true for signatures ending in "...", which accept extra arguments
	HasOptional bool
	Template    []TypeParameter
}

// Function is a set of overloaded signatures
type Function struct {
	Name       string
	Signatures []Signature
}

type Constant struct {
	Name string
	Type Type
}

type Class struct {
	Name      string
	Parents   []Type
	Template  []TypeParameter
	Methods   []Function
	Constants []Constant
}

// Unit is a module: the root of the tree
type Unit struct {
	Name      string
	Constants []Constant
	Functions []Function
	Classes   []Class
}

// Entity is a top level declaration of a Unit
type Entity interface {
	EntityName() string
	isEntity()
}

var (
	_ Entity = (*Class)(nil)
	_ Entity = (*Function)(nil)
	_ Entity = (*Constant)(nil)
)

func (c *Class) EntityName() string    { return c.Name }
func (f *Function) EntityName() string { return f.Name }
func (c *Constant) EntityName() string { return c.Name }
func (*Class) isEntity()               {}
func (*Function) isEntity()            {}
func (*Constant) isEntity()            {}

// Method returns the method called name declared directly on c
func (c *Class) Method(name string) (*Function, bool) {
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return &c.Methods[i], true
		}
	}
	return nil, false
}

// Constant returns the class-level constant called name declared directly on c
func (c *Class) Constant(name string) (*Constant, bool) {
	for i := range c.Constants {
		if c.Constants[i].Name == name {
			return &c.Constants[i], true
		}
	}
	return nil, false
}

// ParentNames returns the names of the classes c inherits from
func (c *Class) ParentNames() []string {
	names := make([]string, 0, len(c.Parents))
	for _, p := range c.Parents {
		switch p := p.(type) {
		case NamedType:
			names = append(names, p.Name)
		case GenericType:
			names = append(names, p.Base.Name)
		case HomogeneousContainerType:
			names = append(names, p.Base.Name)
		}
	}
	return names
}

// BaseName returns the name of the class t refers to, if any
func BaseName(t Type) (string, bool) {
	switch t := t.(type) {
	case NamedType:
		return t.Name, true
	case GenericType:
		return t.Base.Name, true
	case HomogeneousContainerType:
		return t.Base.Name, true
	default:
		return "", false
	}
}
