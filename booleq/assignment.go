package booleq

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/hashicorp/go-set/v3"
)

// AnyValue is the value a variable takes when it is bound to "anything".
// Consumers of an Assignment should read a domain containing AnyValue as
// unconstrained.
const AnyValue = "?"

// Assignment maps every variable to the set of values it may still take.
//
// During solving, variables that are constrained to be equal share the same
// underlying set. Assignments handed out by Solver.Solve never share sets.
type Assignment map[string]*set.Set[string]

// Variables tells formulas which names are variables. A nil Variables
// means every atom is read as Eq(variable, literal).
type Variables interface {
	IsVariable(name string) bool
}

var _ Variables = Assignment(nil)

func (a Assignment) IsVariable(name string) bool {
	_, ok := a[name]
	return ok
}

// Values returns the sorted values of variable
func (a Assignment) Values(variable string) []string {
	ret := []string{}
	if values := a[variable]; values != nil {
		for v := range values.Items() {
			ret = append(ret, v)
		}
	}
	slices.Sort(ret)
	return ret
}

// Copy returns a deep copy where no two variables share a set
func (a Assignment) Copy() Assignment {
	ret := make(Assignment, len(a))
	for k, v := range a {
		ret[k] = v.Copy()
	}
	return ret
}

// AsMap returns the assignment as plain sorted slices, mostly useful for tests and printing
func (a Assignment) AsMap() map[string][]string {
	ret := make(map[string][]string, len(a))
	for k := range a {
		ret[k] = a.Values(k)
	}
	return ret
}

func (a Assignment) String() string {
	sb := &strings.Builder{}
	for i, k := range slices.Sorted(maps.Keys(a)) {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s: {%s}", k, strings.Join(a.Values(k), ", ")))
	}
	return "{" + sb.String() + "}"
}

// Pivots maps variables to the values a formula could pin them to
type Pivots map[string]*set.Set[string]

// ExtractPivots returns, for every variable, the values the formula could
// force it to take if the formula is to hold.
//
// And intersects the values of the variables its children share, Or keeps
// the variables every child mentions and unites their values. An atom between
// two variables pins neither of them.
func ExtractPivots(f Formula, vars Variables) Pivots {
	switch f := f.(type) {
	case constant:
		return Pivots{}
	case Eq:
		variable, literal, ok := classify(f, vars)
		if !ok || literal == "" {
			return Pivots{}
		}
		return Pivots{variable: set.From([]string{literal})}
	case And:
		ret := Pivots{}
		for _, c := range f.Children() {
			for v, values := range ExtractPivots(c, vars) {
				if existing, ok := ret[v]; ok {
					ret[v] = intersect(existing, values)
				} else {
					ret[v] = values
				}
			}
		}
		return ret
	case Or:
		var ret Pivots
		for _, c := range f.Children() {
			pivots := ExtractPivots(c, vars)
			if ret == nil {
				ret = pivots
				continue
			}
			for v, values := range ret {
				other, ok := pivots[v]
				if !ok {
					delete(ret, v)
					continue
				}
				values.InsertSet(other)
			}
		}
		if ret == nil {
			return Pivots{}
		}
		return ret
	default:
		panic(fmt.Sprintf("unexpected formula %T", f))
	}
}

// classify splits an atom into its variable and its literal. literal is empty
// when both sides are variables, and ok is false when neither side is.
func classify(e Eq, vars Variables) (variable, literal string, ok bool) {
	if vars == nil {
		return e.left, e.right, true
	}
	leftVar, rightVar := vars.IsVariable(e.left), vars.IsVariable(e.right)
	switch {
	case leftVar && rightVar:
		return e.left, "", true
	case leftVar:
		return e.left, e.right, true
	case rightVar:
		return e.right, e.left, true
	default:
		return "", "", false
	}
}

func intersect(a, b *set.Set[string]) *set.Set[string] {
	ret := set.New[string](min(a.Size(), b.Size()))
	for v := range a.Items() {
		if b.Contains(v) {
			ret.Insert(v)
		}
	}
	return ret
}

// Simplify reduces f given the values each variable may still take.
// Every atom of f must mention at least one variable of domains.
func Simplify(f Formula, domains Assignment) Formula {
	switch f := f.(type) {
	case constant:
		return f
	case Eq:
		variable, literal, ok := classify(f, domains)
		if !ok {
			panic(InvariantViolation{Op: "simplify", Reason: fmt.Sprintf("no registered variable in %s", f)})
		}
		if literal != "" {
			if domains[variable].Contains(literal) {
				return f
			}
			return False
		}
		common := intersect(domains[f.left], domains[f.right])
		switch common.Size() {
		case 0:
			return False
		case 1:
			value := common.Slice()[0]
			return NewAnd(NewEq(f.left, value), NewEq(f.right, value))
		default:
			return f
		}
	case And:
		simplified := make([]Formula, 0, f.members.Len())
		for _, c := range f.Children() {
			s := Simplify(c, domains)
			if s == False {
				return False
			}
			simplified = append(simplified, s)
		}
		return NewAnd(simplified...)
	case Or:
		simplified := make([]Formula, 0, f.members.Len())
		for _, c := range f.Children() {
			s := Simplify(c, domains)
			if s == True {
				return True
			}
			simplified = append(simplified, s)
		}
		return NewOr(simplified...)
	default:
		panic(fmt.Sprintf("unexpected formula %T", f))
	}
}

// Holds reports whether f is certain to be true given domains: every atom it
// relies on compares variables that have a single possible value.
func Holds(f Formula, domains Assignment) bool {
	switch f := f.(type) {
	case constant:
		return f.value
	case Eq:
		variable, literal, ok := classify(f, domains)
		if !ok {
			return false
		}
		if literal != "" {
			values := domains[variable]
			return values.Size() == 1 && values.Contains(literal)
		}
		left, right := domains[f.left], domains[f.right]
		return left.Size() == 1 && left.Equal(right)
	case And:
		for _, c := range f.Children() {
			if !Holds(c, domains) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range f.Children() {
			if Holds(c, domains) {
				return true
			}
		}
		return false
	default:
		panic(fmt.Sprintf("unexpected formula %T", f))
	}
}
