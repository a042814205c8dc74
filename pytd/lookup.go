package pytd

import (
	"strings"

	"github.com/benbjohnson/immutable"
)

type entityKind uint8

const (
	_ entityKind = iota
	kindClass
	kindFunction
	kindConstant
)

type nameComparer struct{}

func (nameComparer) Compare(a, b string) int { return strings.Compare(a, b) }

// ref is an index into the arena of a Lookup
type ref struct {
	kind       entityKind
	unit, item int
}

// Lookup is a symbol table over one or more units. Entities are kept in the
// units they come from and referred to by index, so classes that mention
// each other need no back-patching.
//
// When several units declare the same name, the unit passed first wins.
type Lookup struct {
	units []*Unit
	index *immutable.SortedMap[string, ref]
}

func NewLookup(units ...*Unit) *Lookup {
	b := immutable.NewSortedMapBuilder[string, ref](nameComparer{})
	put := func(name string, r ref) {
		if _, ok := b.Get(name); !ok {
			b.Set(name, r)
		}
	}
	for u, unit := range units {
		for i, c := range unit.Classes {
			put(c.Name, ref{kind: kindClass, unit: u, item: i})
		}
		for i, f := range unit.Functions {
			put(f.Name, ref{kind: kindFunction, unit: u, item: i})
		}
		for i, c := range unit.Constants {
			put(c.Name, ref{kind: kindConstant, unit: u, item: i})
		}
	}
	return &Lookup{units: units, index: b.Map()}
}

// Lookup returns the entity called name
func (l *Lookup) Lookup(name string) (Entity, bool) {
	r, ok := l.index.Get(name)
	if !ok {
		return nil, false
	}
	unit := l.units[r.unit]
	switch r.kind {
	case kindClass:
		return &unit.Classes[r.item], true
	case kindFunction:
		return &unit.Functions[r.item], true
	case kindConstant:
		return &unit.Constants[r.item], true
	default:
		return nil, false
	}
}

// Class returns the class called name, if name is a class
func (l *Lookup) Class(name string) (*Class, bool) {
	e, ok := l.Lookup(name)
	if !ok {
		return nil, false
	}
	c, ok := e.(*Class)
	return c, ok
}

// Function returns the module-level function called name, if name is a function
func (l *Lookup) Function(name string) (*Function, bool) {
	e, ok := l.Lookup(name)
	if !ok {
		return nil, false
	}
	f, ok := e.(*Function)
	return f, ok
}

// Classes returns every class of every unit, in unit order
func (l *Lookup) Classes() []*Class {
	var ret []*Class
	for _, unit := range l.units {
		for i := range unit.Classes {
			ret = append(ret, &unit.Classes[i])
		}
	}
	return ret
}

// Names returns all the names in the table, sorted
func (l *Lookup) Names() []string {
	ret := make([]string, 0, l.index.Len())
	itr := l.index.Iterator()
	for !itr.Done() {
		name, _, _ := itr.Next()
		ret = append(ret, name)
	}
	return ret
}

// Concat returns a unit with the declarations of all units, in order
func Concat(name string, units ...*Unit) *Unit {
	ret := &Unit{Name: name}
	for _, u := range units {
		ret.Constants = append(ret.Constants, u.Constants...)
		ret.Functions = append(ret.Functions, u.Functions...)
		ret.Classes = append(ret.Classes, u.Classes...)
	}
	return ret
}
