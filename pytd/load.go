package pytd

import (
	"fmt"
	"os"
	"slices"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// The YAML form of a unit mirrors the AST, with types written as type
// expressions and parameters as single-entry mappings:
//
//	classes:
//	  - name: list
//	    template: [T]
//	    parents: [object]
//	    methods:
//	      - name: append
//	        signatures:
//	          - params: [{self: "list[T]"}, {x: T}]
//	            return: NoneType

type yamlParam struct {
	Name string
	Type string
}

func (p *yamlParam) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		p.Name, p.Type = node.Value, "object"
		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: parameter must have exactly one name", node.Line)
		}
		p.Name, p.Type = node.Content[0].Value, node.Content[1].Value
		return nil
	default:
		return fmt.Errorf("line %d: parameter must be a name or a single 'name: type' mapping", node.Line)
	}
}

type yamlSignature struct {
	Params   []yamlParam `yaml:"params"`
	Return   string      `yaml:"return"`
	Optional bool        `yaml:"optional"`
	Template []string    `yaml:"template"`
}

type yamlFunction struct {
	Name       string          `yaml:"name"`
	Signatures []yamlSignature `yaml:"signatures"`
}

type yamlConstant struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type yamlClass struct {
	Name      string         `yaml:"name"`
	Template  []string       `yaml:"template"`
	Parents   []string       `yaml:"parents"`
	Methods   []yamlFunction `yaml:"methods"`
	Constants []yamlConstant `yaml:"constants"`
}

type yamlUnit struct {
	Name      string         `yaml:"name"`
	Constants []yamlConstant `yaml:"constants"`
	Functions []yamlFunction `yaml:"functions"`
	Classes   []yamlClass    `yaml:"classes"`
}

func typeParams(names []string) []TypeParameter {
	ret := make([]TypeParameter, len(names))
	for i, n := range names {
		ret[i] = TypeParameter{Name: n}
	}
	return ret
}

func (y yamlSignature) build(scope []string) (Signature, error) {
	scope = append(slices.Clip(scope), y.Template...)
	params := make([]Parameter, len(y.Params))
	for i, p := range y.Params {
		t, err := ParseType(p.Type, scope...)
		if err != nil {
			return Signature{}, errors.Wrapf(err, "parameter %s", p.Name)
		}
		params[i] = Parameter{Name: p.Name, Type: t}
	}
	ret := y.Return
	if ret == "" {
		ret = "NoneType"
	}
	retType, err := ParseType(ret, scope...)
	if err != nil {
		return Signature{}, errors.Wrap(err, "return type")
	}
	return Signature{
		Params:      params,
		Return:      retType,
		HasOptional: y.Optional,
		Template:    typeParams(y.Template),
	}, nil
}

func (y yamlFunction) build(scope []string) (Function, error) {
	sigs := make([]Signature, len(y.Signatures))
	for i, s := range y.Signatures {
		sig, err := s.build(scope)
		if err != nil {
			return Function{}, errors.Wrapf(err, "function %s", y.Name)
		}
		sigs[i] = sig
	}
	return Function{Name: y.Name, Signatures: sigs}, nil
}

func buildConstants(ys []yamlConstant, scope []string) ([]Constant, error) {
	ret := make([]Constant, len(ys))
	for i, c := range ys {
		t, err := ParseType(c.Type, scope...)
		if err != nil {
			return nil, errors.Wrapf(err, "constant %s", c.Name)
		}
		ret[i] = Constant{Name: c.Name, Type: t}
	}
	return ret, nil
}

func (y yamlClass) build() (Class, error) {
	parents := make([]Type, len(y.Parents))
	for i, p := range y.Parents {
		t, err := ParseType(p, y.Template...)
		if err != nil {
			return Class{}, errors.Wrapf(err, "class %s", y.Name)
		}
		parents[i] = t
	}
	methods := make([]Function, len(y.Methods))
	for i, m := range y.Methods {
		fn, err := m.build(y.Template)
		if err != nil {
			return Class{}, errors.Wrapf(err, "class %s", y.Name)
		}
		methods[i] = fn
	}
	constants, err := buildConstants(y.Constants, y.Template)
	if err != nil {
		return Class{}, errors.Wrapf(err, "class %s", y.Name)
	}
	return Class{
		Name:      y.Name,
		Parents:   parents,
		Template:  typeParams(y.Template),
		Methods:   methods,
		Constants: constants,
	}, nil
}

// ParseUnit decodes the YAML form of a unit
func ParseUnit(src []byte) (*Unit, error) {
	var y yamlUnit
	if err := yaml.Unmarshal(src, &y); err != nil {
		return nil, errors.Wrap(err, "decoding unit")
	}
	constants, err := buildConstants(y.Constants, nil)
	if err != nil {
		return nil, err
	}
	functions := make([]Function, len(y.Functions))
	for i, f := range y.Functions {
		if functions[i], err = f.build(nil); err != nil {
			return nil, err
		}
	}
	classes := make([]Class, len(y.Classes))
	for i, c := range y.Classes {
		if classes[i], err = c.build(); err != nil {
			return nil, err
		}
	}
	return &Unit{Name: y.Name, Constants: constants, Functions: functions, Classes: classes}, nil
}

// MustParseUnit is ParseUnit for fixtures known to be valid
func MustParseUnit(src string) *Unit {
	u, err := ParseUnit([]byte(src))
	if err != nil {
		panic(err)
	}
	return u
}

// LoadUnitFile reads the YAML unit at path
func LoadUnitFile(path string) (*Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	u, err := ParseUnit(src)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return u, nil
}
