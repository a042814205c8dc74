package typematch

import (
	"slices"

	"github.com/cottand/tysolve/pytd"
	"github.com/hashicorp/go-set/v3"
)

// hierarchy is the class graph of the complete classes of a lookup
type hierarchy struct {
	lookup *pytd.Lookup
	// subclasses[c] holds every class that inherits from c, directly or not, sorted
	subclasses map[string][]string
}

func newHierarchy(lookup *pytd.Lookup) *hierarchy {
	children := make(map[string][]string)
	for _, c := range lookup.Classes() {
		if !pytd.IsComplete(c.Name) {
			continue
		}
		for _, parent := range c.ParentNames() {
			children[parent] = append(children[parent], c.Name)
		}
	}
	h := &hierarchy{lookup: lookup, subclasses: make(map[string][]string)}
	for name := range children {
		h.subclasses[name] = allSubclasses(name, children)
	}
	return h
}

func allSubclasses(name string, children map[string][]string) []string {
	seen := set.New[string](len(children[name]))
	stack := slices.Clone(children[name])
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !seen.Insert(c) {
			continue
		}
		stack = append(stack, children[c]...)
	}
	ret := seen.Slice()
	slices.Sort(ret)
	return ret
}

// AllSubclasses maps every class of the units to all the classes inheriting from it
func AllSubclasses(units ...*pytd.Unit) map[string][]string {
	return newHierarchy(pytd.NewLookup(units...)).subclasses
}

// mro returns c followed by its ancestors, depth first, without repetitions
func (h *hierarchy) mro(c *pytd.Class) []*pytd.Class {
	var ret []*pytd.Class
	seen := set.New[string](4)
	var visit func(*pytd.Class)
	visit = func(c *pytd.Class) {
		if !seen.Insert(c.Name) {
			return
		}
		ret = append(ret, c)
		for _, parent := range c.ParentNames() {
			if p, ok := h.lookup.Class(parent); ok {
				visit(p)
			}
		}
	}
	visit(c)
	return ret
}

// isSubclass reports whether sub is super or inherits from it
func (h *hierarchy) isSubclass(sub, super string) bool {
	if sub == super || super == "object" {
		return true
	}
	return slices.Contains(h.subclasses[super], sub)
}

func (h *hierarchy) findMethod(c *pytd.Class, name string) (*pytd.Function, bool) {
	for _, ancestor := range h.mro(c) {
		if m, ok := ancestor.Method(name); ok {
			return m, true
		}
	}
	return nil, false
}

func (h *hierarchy) findConstant(c *pytd.Class, name string) (*pytd.Constant, bool) {
	for _, ancestor := range h.mro(c) {
		if constant, ok := ancestor.Constant(name); ok {
			return constant, true
		}
	}
	return nil, false
}
