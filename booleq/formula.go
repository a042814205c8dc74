// Package booleq implements boolean equations over variables that range over
// sets of string values, and a solver that narrows those sets to a fixpoint.
package booleq

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/benbjohnson/immutable"
)

// Formula is an immutable boolean term. Formulas are canonicalised on
// construction, so two formulas are equal if and only if their Key is equal.
type Formula interface {
	fmt.Stringer
	// Key is the canonical encoding of the formula. It is order independent
	// for the children of And and Or, and symmetric for Eq.
	Key() string
	Hash() uint64
	isFormula()
}

var (
	_ Formula = constant{}
	_ Formula = Eq{}
	_ Formula = And{}
	_ Formula = Or{}
)

// Equal reports whether two formulas are structurally the same after canonicalisation
func Equal(a, b Formula) bool {
	return a.Key() == b.Key()
}

func hashKey(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

type constant struct {
	value bool
}

var (
	True  Formula = constant{value: true}
	False Formula = constant{value: false}
)

func (c constant) isFormula() {}
func (c constant) Key() string {
	if c.value {
		return "TRUE"
	}
	return "FALSE"
}
func (c constant) String() string { return c.Key() }
func (c constant) Hash() uint64   { return hashKey(c.Key()) }

// Eq is the atom left == right. Both sides are names: the solver decides
// whether a name is a variable (it was registered) or a literal value.
//
// Eq is symmetric: NewEq(a, b) and NewEq(b, a) are equal and hash the same,
// but each remembers its own orientation for printing and for pivot extraction
// when no variable set is known.
type Eq struct {
	left, right string
}

func NewEq(left, right string) Formula {
	return Eq{left: left, right: right}
}

func (e Eq) isFormula()    {}
func (e Eq) Left() string  { return e.left }
func (e Eq) Right() string { return e.right }

func (e Eq) Key() string {
	a, b := e.left, e.right
	if b < a {
		a, b = b, a
	}
	return "eq(" + strconv.Quote(a) + "," + strconv.Quote(b) + ")"
}

func (e Eq) String() string { return e.left + " == " + e.right }
func (e Eq) Hash() uint64   { return hashKey(e.Key()) }

type keyComparer struct{}

func (keyComparer) Compare(a, b string) int { return strings.Compare(a, b) }

// children holds the members of a junction keyed (and therefore ordered and
// de-duplicated) by their canonical Key
type children = *immutable.SortedMap[string, Formula]

// junction is the shared representation of And and Or
type junction struct {
	members children
	key     string
}

func newJunction(op string, members children) junction {
	sb := &strings.Builder{}
	sb.WriteString(op)
	sb.WriteString("(")
	itr := members.Iterator()
	first := true
	for !itr.Done() {
		k, _, _ := itr.Next()
		if !first {
			sb.WriteString(",")
		}
		first = false
		sb.WriteString(k)
	}
	sb.WriteString(")")
	return junction{members: members, key: sb.String()}
}

// Children returns the members in canonical order
func (j junction) Children() []Formula {
	ret := make([]Formula, 0, j.members.Len())
	itr := j.members.Iterator()
	for !itr.Done() {
		_, f, _ := itr.Next()
		ret = append(ret, f)
	}
	return ret
}

func (j junction) Key() string  { return j.key }
func (j junction) Hash() uint64 { return hashKey(j.key) }

func (j junction) show(sep string) string {
	parts := make([]string, 0, j.members.Len())
	for _, c := range j.Children() {
		parts = append(parts, c.String())
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// And is a conjunction of at least two distinct formulas, none of which is
// a constant or another And
type And struct {
	junction
}

func (a And) isFormula()     {}
func (a And) String() string { return a.show(" & ") }

// Or is a disjunction of at least two distinct formulas, none of which is
// a constant or another Or
type Or struct {
	junction
}

func (o Or) isFormula()     {}
func (o Or) String() string { return o.show(" | ") }

// NewAnd builds the conjunction of formulas: nested conjunctions are flattened,
// duplicates and TRUE are dropped, and any FALSE makes the whole term FALSE.
func NewAnd(formulas ...Formula) Formula {
	b := immutable.NewSortedMapBuilder[string, Formula](keyComparer{})
	for _, f := range formulas {
		switch f := f.(type) {
		case constant:
			if !f.value {
				return False
			}
		case And:
			for _, c := range f.Children() {
				b.Set(c.Key(), c)
			}
		default:
			b.Set(f.Key(), f)
		}
	}
	members := b.Map()
	switch members.Len() {
	case 0:
		return True
	case 1:
		_, only, _ := members.Iterator().Next()
		return only
	}
	return And{newJunction("and", members)}
}

// NewOr builds the disjunction of formulas: nested disjunctions are flattened,
// duplicates and FALSE are dropped, and any TRUE makes the whole term TRUE.
func NewOr(formulas ...Formula) Formula {
	b := immutable.NewSortedMapBuilder[string, Formula](keyComparer{})
	for _, f := range formulas {
		switch f := f.(type) {
		case constant:
			if f.value {
				return True
			}
		case Or:
			for _, c := range f.Children() {
				b.Set(c.Key(), c)
			}
		default:
			b.Set(f.Key(), f)
		}
	}
	members := b.Map()
	switch members.Len() {
	case 0:
		return False
	case 1:
		_, only, _ := members.Iterator().Next()
		return only
	}
	return Or{newJunction("or", members)}
}

// Atoms calls yield for every Eq contained in f
func Atoms(f Formula, yield func(Eq)) {
	switch f := f.(type) {
	case Eq:
		yield(f)
	case And:
		for _, c := range f.Children() {
			Atoms(c, yield)
		}
	case Or:
		for _, c := range f.Children() {
			Atoms(c, yield)
		}
	}
}
