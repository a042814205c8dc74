package convert

import (
	"slices"

	"github.com/cottand/tysolve/booleq"
	"github.com/cottand/tysolve/internal/tyerr"
	"github.com/cottand/tysolve/pytd"
	"github.com/cottand/tysolve/typematch"
	"github.com/cottand/tysolve/util"
)

// Projector turns the class names of a solution back into pytd types
type Projector struct {
	mapping  booleq.Assignment
	lookup   *pytd.Lookup
	maxDepth int
	errs     *tyerr.Errors
}

func NewProjector(mapping booleq.Assignment, lookup *pytd.Lookup, settings Settings) *Projector {
	return &Projector{mapping: mapping, lookup: lookup, maxDepth: settings.withDefaults().MaxDepth}
}

// Errors returns the candidate names that could not be found in the lookup
func (p *Projector) Errors() *tyerr.Errors {
	return p.errs
}

// ConvertStringType returns the type named name, as a possible class of
// unknown. Template parameters are resolved from the solution down to the
// maximum depth, and are anything below it.
func (p *Projector) ConvertStringType(name, unknown string, depth int) pytd.Type {
	base := pytd.NamedType{Name: name}
	cls, ok := p.lookup.Class(name)
	if !ok {
		p.errs = p.errs.With(tyerr.New(tyerr.UnresolvedType{Name: name}))
		return base
	}
	if len(cls.Template) == 0 {
		return base
	}
	params := make([]pytd.Type, len(cls.Template))
	for i, t := range cls.Template {
		variable := typematch.ParameterVariable(unknown, name, t.Name)
		if p.mapping.IsVariable(variable) && depth < p.maxDepth {
			params[i] = p.ConvertStringTypeList(p.mapping.Values(variable), unknown, depth+1)
		} else {
			params[i] = pytd.AnythingType{}
		}
	}
	if len(params) == 1 {
		return pytd.HomogeneousContainerType{Base: base, Element: params[0]}
	}
	return pytd.GenericType{Base: base, Parameters: params}
}

// ConvertStringTypeList joins the types of names. No names, or the
// unconstrained value among them, is anything rather than nothing.
func (p *Projector) ConvertStringTypeList(names []string, unknown string, depth int) pytd.Type {
	if len(names) == 0 || slices.Contains(names, booleq.AnyValue) {
		return pytd.AnythingType{}
	}
	types := make([]pytd.Type, len(names))
	for i, name := range names {
		types[i] = p.ConvertStringType(name, unknown, depth)
	}
	return pytd.JoinTypes(types...)
}

// Types returns the type each unknown of the solution resolves to
func (p *Projector) Types() map[string]pytd.Type {
	ret := make(map[string]pytd.Type, len(p.mapping))
	for _, unknown := range util.SortedKeys(p.mapping) {
		ret[unknown] = p.ConvertStringTypeList(p.mapping.Values(unknown), unknown, 0)
	}
	return ret
}

// InsertSolution replaces the unknowns of u with the types they were solved
// to. Names that still do not resolve in the lookup become anything.
func (p *Projector) InsertSolution(u *pytd.Unit) *pytd.Unit {
	ret := pytd.ReplaceTypes(u, p.Types())
	ret = pytd.RemoveDuplicates(ret)
	return pytd.DefaceUnresolved(ret, pytd.UnknownPrefix, p.lookup)
}
