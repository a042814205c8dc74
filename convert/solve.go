// Package convert turns the structural types inferred for a program into
// nominal ones: it generates boolean equations relating every ~unknown to
// the classes it could be, solves them, and writes the answer back into the AST.
package convert

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/cottand/tysolve/booleq"
	"github.com/cottand/tysolve/internal/log"
	"github.com/cottand/tysolve/internal/tyerr"
	"github.com/cottand/tysolve/pytd"
	"github.com/cottand/tysolve/typematch"
	"github.com/cottand/tysolve/util"
	"github.com/hashicorp/go-set/v3"
	"golang.org/x/sync/errgroup"
)

var logger = log.DefaultLogger.With("section", "convert")

// mappingCutoff is how many possible types per unknown are logged
const mappingCutoff = 12

// TypeSolver builds the equation system of a unit with unknowns and solves it
type TypeSolver struct {
	ast, builtins *pytd.Unit
	settings      Settings
}

func NewTypeSolver(ast, builtins *pytd.Unit, settings Settings) *TypeSolver {
	return &TypeSolver{ast: ast, builtins: builtins, settings: settings.withDefaults()}
}

// equation is one matcher invocation, and what to do with its outcome.
// match may run concurrently with other equations, record never does.
type equation struct {
	match  func() booleq.Formula
	record func(solver *booleq.Solver, formula booleq.Formula) tyerr.TyError
}

// partition splits entities into unknowns, partials and completes, by name
func partition[E any](entities []E, name func(*E) string) (unknowns, partials, completes []*E) {
	for i := range entities {
		e := &entities[i]
		switch n := name(e); {
		case pytd.IsUnknown(n):
			unknowns = append(unknowns, e)
		case pytd.IsPartial(n):
			partials = append(partials, e)
		default:
			completes = append(completes, e)
		}
	}
	return unknowns, partials, completes
}

// referencedUnknowns returns the unknowns a unit mentions in its types
func referencedUnknowns(u *pytd.Unit) []string {
	var names []string
	u.MapTypes(func(t pytd.Type) pytd.Type {
		if named, ok := t.(pytd.NamedType); ok && pytd.IsUnknown(named.Name) {
			names = append(names, named.Name)
		}
		return t
	})
	slices.Sort(names)
	return slices.Compact(names)
}

func (ts *TypeSolver) matchUnknownAgainstComplete(m Matcher, unknown, complete *pytd.Class) equation {
	subst := make(typematch.Subst, len(complete.Template))
	var params []string
	for _, p := range complete.Template {
		param := m.TypeParameter(unknown, complete, p)
		subst[p.Name] = param
		params = append(params, param.Name)
	}
	return equation{
		match: func() booleq.Formula {
			return m.MatchClassAgainstClass(unknown, complete, subst)
		},
		record: func(solver *booleq.Solver, formula booleq.Formula) tyerr.TyError {
			if formula != booleq.False {
				// the template of complete has to be solved too
				for _, p := range params {
					solver.RegisterVariable(p)
				}
			}
			solver.Implies(booleq.NewEq(unknown.Name, complete.Name), formula)
			return nil
		},
	}
}

func (ts *TypeSolver) matchPartialAgainstComplete(m Matcher, partial, complete *pytd.Class) equation {
	// what a call record saw for a template parameter says nothing about
	// which instance of complete was used
	subst := make(typematch.Subst, len(complete.Template))
	for _, p := range complete.Template {
		subst[p.Name] = pytd.AnythingType{}
	}
	return equation{
		match: func() booleq.Formula {
			return m.MatchClassAgainstClass(partial, complete, subst)
		},
		record: func(solver *booleq.Solver, formula booleq.Formula) tyerr.TyError {
			if formula == booleq.False {
				return tyerr.New(tyerr.FlawedClass{Partial: partial.Name, Complete: complete.Name})
			}
			solver.AlwaysTrue(formula)
			return nil
		},
	}
}

func (ts *TypeSolver) matchCallRecord(m Matcher, call, complete *pytd.Function) equation {
	return equation{
		match: func() booleq.Formula {
			return m.MatchFunctionAgainstFunction(call, complete, typematch.Subst{})
		},
		record: func(solver *booleq.Solver, formula booleq.Formula) tyerr.TyError {
			if formula != booleq.False {
				solver.AlwaysTrue(formula)
				return nil
			}
			faulty := ""
			for _, sig := range pytd.ExpandSignatures(*call).Signatures {
				if m.MatchSignatureAgainstFunction(sig, complete, typematch.Subst{}) == booleq.False {
					faulty = pytd.PrintSignature(sig)
					break
				}
			}
			return tyerr.New(tyerr.FlawedCall{Function: call.Name, Signature: faulty})
		},
	}
}

// equations lists every matcher invocation needed to solve the unknowns of ts.ast
func (ts *TypeSolver) equations(m Matcher, lookup *pytd.Lookup, solver *booleq.Solver) []equation {
	unknowns, partials, _ := partition(ts.ast.Classes, func(c *pytd.Class) string { return c.Name })
	for _, u := range unknowns {
		solver.RegisterVariable(u.Name)
	}
	for _, name := range referencedUnknowns(ts.ast) {
		if !solver.IsVariable(name) {
			logger.Debug("unknown has no class", "name", name)
			solver.RegisterVariable(name)
		}
	}

	var eqs []equation
	seen := set.New[string](len(ts.builtins.Classes))
	for _, complete := range lookup.Classes() {
		// a local class shadows a builtin of the same name
		if !pytd.IsComplete(complete.Name) || !seen.Insert(complete.Name) {
			continue
		}
		for _, unknown := range unknowns {
			eqs = append(eqs, ts.matchUnknownAgainstComplete(m, unknown, complete))
		}
		for _, partial := range partials {
			if pytd.UnpackPartialName(partial.Name) == complete.Name {
				eqs = append(eqs, ts.matchPartialAgainstComplete(m, partial, complete))
			}
		}
	}

	_, calls, localFunctions := partition(ts.ast.Functions, func(f *pytd.Function) string { return f.Name })
	for _, call := range calls {
		declared := pytd.UnpackPartialName(call.Name)
		matched := false
		// a call record must fit every declaration of its name, local or builtin
		for _, complete := range slices.Concat(localFunctions, builtinFunctions(ts.builtins)) {
			if complete.Name == declared {
				eqs = append(eqs, ts.matchCallRecord(m, call, complete))
				matched = true
			}
		}
		if !matched {
			logger.Debug("call record without declaration", "function", call.Name)
		}
	}
	return eqs
}

func builtinFunctions(u *pytd.Unit) []*pytd.Function {
	ret := make([]*pytd.Function, len(u.Functions))
	for i := range u.Functions {
		ret[i] = &u.Functions[i]
	}
	return ret
}

// matchAll runs the matcher of every equation, at most ts.settings.Parallelism at a time.
// Formulas are returned in the order of eqs.
func (ts *TypeSolver) matchAll(eqs []equation) []booleq.Formula {
	formulas := make([]booleq.Formula, len(eqs))
	if ts.settings.Parallelism == 1 {
		for i, eq := range eqs {
			formulas[i] = eq.match()
		}
		return formulas
	}
	var g errgroup.Group
	g.SetLimit(ts.settings.Parallelism)
	for i, eq := range eqs {
		g.Go(func() error {
			formulas[i] = eq.match()
			return nil
		})
	}
	_ = g.Wait()
	return formulas
}

// Solve returns the possible classes of every unknown, and of the template
// parameters of those classes. Call records that contradict their
// declaration are reported as errors and do not constrain the solution.
func (ts *TypeSolver) Solve() (booleq.Assignment, *tyerr.Errors) {
	lookup := pytd.NewLookup(ts.ast, ts.builtins)
	m := ts.settings.NewMatcher(lookup)
	solver := booleq.NewSolver()

	eqs := ts.equations(m, lookup, solver)
	var errs *tyerr.Errors
	for i, formula := range ts.matchAll(eqs) {
		if err := eqs[i].record(solver, formula); err != nil {
			logger.Info("flawed query", "error", err.Error())
			errs = errs.With(err)
		}
	}

	logger.Info("equations to solve", "equations", solver.String())
	mapping := solver.Solve()
	logMapping(mapping)
	return mapping, errs
}

func logMapping(mapping booleq.Assignment) {
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, unknown := range util.SortedKeys(mapping) {
		possible := mapping.Values(unknown)
		if len(possible) > mappingCutoff {
			logger.Debug("possible types", "unknown", unknown,
				"types", strings.Join(possible[:mappingCutoff], ", ")+", ...", "total", len(possible))
			continue
		}
		logger.Debug("possible types", "unknown", unknown, "types", strings.Join(possible, ", "))
	}
}

// Solution is the outcome of solving a unit
type Solution struct {
	// Mapping holds the possible classes of every unknown
	Mapping booleq.Assignment
	// Local holds the complete declarations of the solved unit
	Local *pytd.Unit
}

// Solve solves the unknowns of ast against its own classes and builtins
func Solve(ast, builtins *pytd.Unit, settings Settings) (Solution, *tyerr.Errors) {
	mapping, errs := NewTypeSolver(ast, builtins, settings).Solve()
	return Solution{Mapping: mapping, Local: ExtractLocal(ast)}, errs
}

// ExtractLocal returns the declarations of u that are neither unknowns nor call records
func ExtractLocal(u *pytd.Unit) *pytd.Unit {
	ret := &pytd.Unit{Name: u.Name}
	for _, c := range u.Classes {
		if pytd.IsComplete(c.Name) {
			ret.Classes = append(ret.Classes, c)
		}
	}
	for _, f := range u.Functions {
		if pytd.IsComplete(f.Name) {
			ret.Functions = append(ret.Functions, f)
		}
	}
	for _, c := range u.Constants {
		if pytd.IsComplete(c.Name) {
			ret.Constants = append(ret.Constants, c)
		}
	}
	return ret
}
