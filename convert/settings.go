package convert

import (
	"github.com/cottand/tysolve/booleq"
	"github.com/cottand/tysolve/pytd"
	"github.com/cottand/tysolve/typematch"
)

// DefaultMaxDepth is how deep template parameters of a solution are resolved.
// The generator only registers variables for the first level.
const DefaultMaxDepth = 1

// Matcher answers structural questions about pairs of declarations.
// Implementations must be safe for concurrent use when Settings.Parallelism > 1.
type Matcher interface {
	TypeParameter(unknown, complete *pytd.Class, param pytd.TypeParameter) pytd.NamedType
	MatchClassAgainstClass(left, right *pytd.Class, subst typematch.Subst) booleq.Formula
	MatchFunctionAgainstFunction(left, right *pytd.Function, subst typematch.Subst) booleq.Formula
	MatchSignatureAgainstFunction(sig pytd.Signature, f *pytd.Function, subst typematch.Subst) booleq.Formula
}

var _ Matcher = (*typematch.TypeMatch)(nil)

type Settings struct {
	// NewMatcher builds the matcher for the declarations of lookup.
	// The default is typematch.New
	NewMatcher func(lookup *pytd.Lookup) Matcher
	// MaxDepth bounds how many levels of template parameters are resolved
	// when projecting a solution. Zero means DefaultMaxDepth
	MaxDepth int
	// Parallelism is how many matcher invocations may run at once.
	// 0 or 1 match sequentially
	Parallelism int
}

func (s Settings) withDefaults() Settings {
	if s.NewMatcher == nil {
		s.NewMatcher = func(lookup *pytd.Lookup) Matcher { return typematch.New(lookup) }
	}
	if s.MaxDepth <= 0 {
		s.MaxDepth = DefaultMaxDepth
	}
	if s.Parallelism < 1 {
		s.Parallelism = 1
	}
	return s
}
