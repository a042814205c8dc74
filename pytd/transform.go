package pytd

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/cottand/tysolve/internal/log"
	xset "github.com/xtgo/set"
)

var logger = log.DefaultLogger.With("section", "pytd")

// MapType rebuilds t bottom-up, calling f on every node after its children
// have been mapped
func MapType(t Type, f func(Type) Type) Type {
	switch t := t.(type) {
	case NamedType, TypeParameter, AnythingType, NothingType:
		return f(t)
	case UnionType:
		members := make([]Type, len(t.Types))
		for i, m := range t.Types {
			members[i] = MapType(m, f)
		}
		return f(UnionType{Types: members})
	case GenericType:
		params := make([]Type, len(t.Parameters))
		for i, p := range t.Parameters {
			params[i] = MapType(p, f)
		}
		return f(GenericType{Base: t.Base, Parameters: params})
	case HomogeneousContainerType:
		return f(HomogeneousContainerType{Base: t.Base, Element: MapType(t.Element, f)})
	default:
		panic(fmt.Sprintf("unexpected type %T", t))
	}
}

func mapSignature(sig Signature, f func(Type) Type) Signature {
	params := make([]Parameter, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = Parameter{Name: p.Name, Type: MapType(p.Type, f)}
	}
	return Signature{
		Params:      params,
		Return:      MapType(sig.Return, f),
		HasOptional: sig.HasOptional,
		Template:    sig.Template,
	}
}

func mapFunction(fn Function, f func(Type) Type) Function {
	sigs := make([]Signature, len(fn.Signatures))
	for i, sig := range fn.Signatures {
		sigs[i] = mapSignature(sig, f)
	}
	return Function{Name: fn.Name, Signatures: sigs}
}

func mapConstants(constants []Constant, f func(Type) Type) []Constant {
	ret := make([]Constant, len(constants))
	for i, c := range constants {
		ret[i] = Constant{Name: c.Name, Type: MapType(c.Type, f)}
	}
	return ret
}

func mapClass(c Class, f func(Type) Type) Class {
	parents := make([]Type, len(c.Parents))
	for i, p := range c.Parents {
		parents[i] = MapType(p, f)
	}
	methods := make([]Function, len(c.Methods))
	for i, m := range c.Methods {
		methods[i] = mapFunction(m, f)
	}
	return Class{
		Name:      c.Name,
		Parents:   parents,
		Template:  c.Template,
		Methods:   methods,
		Constants: mapConstants(c.Constants, f),
	}
}

// MapTypes returns a copy of u where every type has been rebuilt with MapType
func (u *Unit) MapTypes(f func(Type) Type) *Unit {
	functions := make([]Function, len(u.Functions))
	for i, fn := range u.Functions {
		functions[i] = mapFunction(fn, f)
	}
	classes := make([]Class, len(u.Classes))
	for i, c := range u.Classes {
		classes[i] = mapClass(c, f)
	}
	return &Unit{
		Name:      u.Name,
		Constants: mapConstants(u.Constants, f),
		Functions: functions,
		Classes:   classes,
	}
}

// ReplaceTypes replaces every NamedType whose name is in mapping
func ReplaceTypes(u *Unit, mapping map[string]Type) *Unit {
	return u.MapTypes(func(t Type) Type {
		if named, ok := t.(NamedType); ok {
			if replacement, ok := mapping[named.Name]; ok {
				return replacement
			}
		}
		return t
	})
}

// byKey sorts types by their printed form
type byKey struct {
	types []Type
	keys  []string
}

func (b byKey) Len() int           { return len(b.types) }
func (b byKey) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byKey) Swap(i, j int) {
	b.types[i], b.types[j] = b.types[j], b.types[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

// JoinTypes returns the union of types: nested unions are flattened,
// duplicates and nothing are dropped, and anything absorbs everything else.
// The members of the result are sorted.
func JoinTypes(types ...Type) Type {
	var flat []Type
	var flatten func(Type)
	flatten = func(t Type) {
		switch t := t.(type) {
		case UnionType:
			for _, m := range t.Types {
				flatten(m)
			}
		case NothingType:
		default:
			flat = append(flat, t)
		}
	}
	for _, t := range types {
		flatten(t)
	}

	data := byKey{types: flat, keys: make([]string, len(flat))}
	for i, t := range flat {
		if _, ok := t.(AnythingType); ok {
			return AnythingType{}
		}
		data.keys[i] = PrintType(t)
	}
	sort.Sort(data)
	n := xset.Uniq(data)
	flat = data.types[:n]

	switch len(flat) {
	case 0:
		return NothingType{}
	case 1:
		return flat[0]
	default:
		return UnionType{Types: flat}
	}
}

func signatureKey(sig Signature) string {
	return PrintSignature(sig)
}

// RemoveDuplicates joins every union in u, and removes signatures of a
// function that are identical to an earlier one
func RemoveDuplicates(u *Unit) *Unit {
	ret := u.MapTypes(func(t Type) Type {
		if union, ok := t.(UnionType); ok {
			return JoinTypes(union.Types...)
		}
		return t
	})
	dedupe := func(fn Function) Function {
		seen := make(map[string]struct{}, len(fn.Signatures))
		sigs := make([]Signature, 0, len(fn.Signatures))
		for _, sig := range fn.Signatures {
			key := signatureKey(sig)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			sigs = append(sigs, sig)
		}
		return Function{Name: fn.Name, Signatures: sigs}
	}
	for i, fn := range ret.Functions {
		ret.Functions[i] = dedupe(fn)
	}
	for i := range ret.Classes {
		for j, m := range ret.Classes[i].Methods {
			ret.Classes[i].Methods[j] = dedupe(m)
		}
	}
	return ret
}

// DefaceUnresolved replaces every named type that is not a class in any of
// the lookups with anything. Names starting with quietPrefix are replaced
// without logging.
func DefaceUnresolved(u *Unit, quietPrefix string, lookups ...*Lookup) *Unit {
	resolves := func(name string) bool {
		return slices.ContainsFunc(lookups, func(l *Lookup) bool {
			_, ok := l.Class(name)
			return ok
		})
	}
	return u.MapTypes(func(t Type) Type {
		switch t := t.(type) {
		case NamedType:
			if resolves(t.Name) {
				return t
			}
			if quietPrefix == "" || !strings.HasPrefix(t.Name, quietPrefix) {
				logger.Warn("setting unresolved type to ?", "name", t.Name)
			}
			return AnythingType{}
		case GenericType:
			if !resolves(t.Base.Name) {
				return AnythingType{}
			}
		case HomogeneousContainerType:
			if !resolves(t.Base.Name) {
				return AnythingType{}
			}
		}
		return t
	})
}

// ExpandSignatures splits every signature whose parameters are unions into
// the cartesian product of signatures with one member per parameter
func ExpandSignatures(fn Function) Function {
	var expanded []Signature
	for _, sig := range fn.Signatures {
		combos := [][]Parameter{{}}
		for _, p := range sig.Params {
			options := []Type{p.Type}
			if union, ok := p.Type.(UnionType); ok {
				options = union.Types
			}
			next := make([][]Parameter, 0, len(combos)*len(options))
			for _, combo := range combos {
				for _, option := range options {
					params := append(slices.Clip(combo), Parameter{Name: p.Name, Type: option})
					next = append(next, params)
				}
			}
			combos = next
		}
		for _, params := range combos {
			expanded = append(expanded, Signature{
				Params:      params,
				Return:      sig.Return,
				HasOptional: sig.HasOptional,
				Template:    sig.Template,
			})
		}
	}
	if len(expanded) > len(fn.Signatures) {
		logger.Debug("expanded signatures", "function", fn.Name, slog.Int("from", len(fn.Signatures)), slog.Int("to", len(expanded)))
	}
	return Function{Name: fn.Name, Signatures: expanded}
}
