// Package typematch decides under which assignment of unknowns one class or
// function can stand in for another, and phrases the answer as a booleq.Formula.
package typematch

import (
	"fmt"

	"github.com/cottand/tysolve/booleq"
	"github.com/cottand/tysolve/internal/log"
	"github.com/cottand/tysolve/pytd"
)

var logger = log.DefaultLogger.With("section", "typematch")

// Subst maps the template parameters of the class being matched against to
// the types they stand for: anything, or a solver variable for the parameter.
type Subst map[string]pytd.Type

// TypeMatch matches declarations structurally. Unknowns are solver
// variables; complete class names are literal values.
//
// A TypeMatch only reads its lookup, so it is safe for concurrent use.
type TypeMatch struct {
	*hierarchy
}

func New(lookup *pytd.Lookup) *TypeMatch {
	return &TypeMatch{hierarchy: newHierarchy(lookup)}
}

// TypeParameter names the solver variable standing for param of complete
// when unknown turns out to be complete
func (m *TypeMatch) TypeParameter(unknown, complete *pytd.Class, param pytd.TypeParameter) pytd.NamedType {
	return pytd.NamedType{Name: ParameterVariable(unknown.Name, complete.Name, param.Name)}
}

// ParameterVariable is the name of the variable for parameter param of
// class candidate, as a possible identity of unknown
func ParameterVariable(unknown, candidate, param string) string {
	return unknown + "." + candidate + "." + param
}

func stripSelf(fn *pytd.Function) *pytd.Function {
	sigs := make([]pytd.Signature, len(fn.Signatures))
	for i, sig := range fn.Signatures {
		sigs[i] = sig
		if len(sig.Params) > 0 {
			sigs[i].Params = sig.Params[1:]
		}
	}
	return &pytd.Function{Name: fn.Name, Signatures: sigs}
}

// MatchClassAgainstClass returns the condition under which left has every
// method and constant of right that left uses, with compatible signatures
func (m *TypeMatch) MatchClassAgainstClass(left, right *pytd.Class, subst Subst) booleq.Formula {
	terms := make([]booleq.Formula, 0, len(left.Methods)+len(left.Constants))
	for i := range left.Methods {
		method := &left.Methods[i]
		other, ok := m.findMethod(right, method.Name)
		if !ok {
			logger.Debug("method not found", "method", method.Name, "left", left.Name, "right", right.Name)
			return booleq.False
		}
		terms = append(terms, m.MatchFunctionAgainstFunction(stripSelf(method), stripSelf(other), subst))
	}
	for _, constant := range left.Constants {
		other, ok := m.findConstant(right, constant.Name)
		if !ok {
			return booleq.False
		}
		terms = append(terms, m.MatchTypeAgainstType(constant.Type, other.Type, subst))
	}
	return booleq.NewAnd(terms...)
}

// MatchFunctionAgainstFunction requires every signature of left to match right
func (m *TypeMatch) MatchFunctionAgainstFunction(left, right *pytd.Function, subst Subst) booleq.Formula {
	terms := make([]booleq.Formula, len(left.Signatures))
	for i, sig := range left.Signatures {
		terms[i] = m.MatchSignatureAgainstFunction(sig, right, subst)
	}
	return booleq.NewAnd(terms...)
}

// MatchSignatureAgainstFunction requires sig to match at least one overload of f
func (m *TypeMatch) MatchSignatureAgainstFunction(sig pytd.Signature, f *pytd.Function, subst Subst) booleq.Formula {
	options := make([]booleq.Formula, len(f.Signatures))
	for i, other := range f.Signatures {
		options[i] = m.MatchSignatureAgainstSignature(sig, other, subst)
	}
	return booleq.NewOr(options...)
}

// MatchSignatureAgainstSignature matches the arguments of a use (left) with
// the parameters of a declaration (right), and their return types
func (m *TypeMatch) MatchSignatureAgainstSignature(left, right pytd.Signature, subst Subst) booleq.Formula {
	if len(left.Params) < len(right.Params) {
		return booleq.False
	}
	if len(left.Params) > len(right.Params) && !right.HasOptional {
		return booleq.False
	}
	terms := make([]booleq.Formula, 0, len(right.Params)+1)
	for i, p := range right.Params {
		terms = append(terms, m.MatchTypeAgainstType(left.Params[i].Type, p.Type, subst))
	}
	terms = append(terms, m.MatchTypeAgainstType(left.Return, right.Return, subst))
	return booleq.NewAnd(terms...)
}

// className returns the class a type refers to, reading call records as the class they were recorded on
func className(t pytd.Type) (string, bool) {
	name, ok := pytd.BaseName(t)
	if !ok {
		return "", false
	}
	if pytd.IsPartial(name) {
		name = pytd.UnpackPartialName(name)
	}
	return name, true
}

func typeParameters(t pytd.Type) []pytd.Type {
	switch t := t.(type) {
	case pytd.GenericType:
		return t.Parameters
	case pytd.HomogeneousContainerType:
		return []pytd.Type{t.Element}
	default:
		return nil
	}
}

// MatchTypeAgainstType returns the condition under which a value of type
// left is acceptable where right is expected
func (m *TypeMatch) MatchTypeAgainstType(left, right pytd.Type, subst Subst) booleq.Formula {
	if param, ok := right.(pytd.TypeParameter); ok {
		bound, ok := subst[param.Name]
		if !ok {
			return booleq.True
		}
		return m.matchAgainstBinding(left, bound, subst)
	}

	switch l := left.(type) {
	case pytd.AnythingType, pytd.NothingType, pytd.TypeParameter:
		return booleq.True
	case pytd.UnionType:
		terms := make([]booleq.Formula, len(l.Types))
		for i, member := range l.Types {
			terms[i] = m.MatchTypeAgainstType(member, right, subst)
		}
		return booleq.NewAnd(terms...)
	}
	switch right := right.(type) {
	case pytd.AnythingType:
		return booleq.True
	case pytd.NothingType:
		return booleq.False
	case pytd.UnionType:
		options := make([]booleq.Formula, len(right.Types))
		for i, member := range right.Types {
			options[i] = m.MatchTypeAgainstType(left, member, subst)
		}
		return booleq.NewOr(options...)
	}

	leftName, ok := className(left)
	if !ok {
		panic(fmt.Sprintf("unexpected type %T", left))
	}
	rightName, ok := className(right)
	if !ok {
		panic(fmt.Sprintf("unexpected type %T", right))
	}
	leftUnknown, rightUnknown := pytd.IsUnknown(leftName), pytd.IsUnknown(rightName)
	switch {
	case leftUnknown && rightUnknown:
		return booleq.NewEq(leftName, rightName)
	case leftUnknown:
		options := []booleq.Formula{booleq.NewEq(leftName, rightName)}
		for _, sub := range m.subclasses[rightName] {
			options = append(options, booleq.NewEq(leftName, sub))
		}
		return booleq.NewOr(options...)
	case rightUnknown:
		return booleq.NewEq(rightName, leftName)
	}

	if !m.isSubclass(leftName, rightName) {
		return booleq.False
	}
	leftParams, rightParams := typeParameters(left), typeParameters(right)
	if leftName != rightName || len(leftParams) != len(rightParams) {
		return booleq.True
	}
	terms := make([]booleq.Formula, len(leftParams))
	for i := range leftParams {
		terms[i] = m.MatchTypeAgainstType(leftParams[i], rightParams[i], subst)
	}
	return booleq.NewAnd(terms...)
}

// matchAgainstBinding matches left against what a template parameter is bound to
func (m *TypeMatch) matchAgainstBinding(left, bound pytd.Type, subst Subst) booleq.Formula {
	variable, ok := bound.(pytd.NamedType)
	if !ok || !pytd.IsUnknown(variable.Name) {
		return m.MatchTypeAgainstType(left, bound, subst)
	}
	switch left := left.(type) {
	case pytd.AnythingType:
		return booleq.NewEq(variable.Name, booleq.AnyValue)
	case pytd.NothingType, pytd.TypeParameter:
		return booleq.True
	case pytd.UnionType:
		options := make([]booleq.Formula, len(left.Types))
		for i, member := range left.Types {
			options[i] = m.matchAgainstBinding(member, bound, subst)
		}
		return booleq.NewOr(options...)
	}
	name, ok := className(left)
	if !ok {
		panic(fmt.Sprintf("unexpected type %T", left))
	}
	return booleq.NewEq(variable.Name, name)
}
