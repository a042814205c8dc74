package booleq

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cottand/tysolve/internal/log"
	"github.com/hashicorp/go-set/v3"
)

var logger = log.DefaultLogger.With("section", "booleq")

// InvariantViolation is the panic value for misuse of a Solver. It signals a
// bug in whoever built the equations, never a property of the equations.
type InvariantViolation struct {
	Op     string
	Reason string
}

func (e InvariantViolation) Error() string {
	return fmt.Sprintf("booleq: invariant violated in %s: %s", e.Op, e.Reason)
}

type implication struct {
	lhs, rhs Formula
}

// Solver accumulates implications and ground truths over registered
// variables, and computes which values each variable can take.
//
// A Solver is not safe for concurrent use. After the first call to Solve it
// is frozen: any further registration or constraint panics.
type Solver struct {
	variables *set.TreeSet[string]
	// implications[variable][value] must hold whenever variable == value
	implications map[string]map[string]Formula
	// other holds implications whose left hand side is not a single
	// variable == literal atom
	other       []implication
	groundTruth []Formula

	result Assignment
}

func NewSolver() *Solver {
	return &Solver{
		variables:    set.NewTreeSet[string](cmp.Compare[string]),
		implications: make(map[string]map[string]Formula),
	}
}

func (s *Solver) checkNotSolved(op string) {
	if s.result != nil {
		panic(InvariantViolation{Op: op, Reason: "solver is frozen after Solve"})
	}
}

// RegisterVariable adds name to the variables the solver assigns values to
func (s *Solver) RegisterVariable(name string) {
	s.checkNotSolved("RegisterVariable")
	s.variables.Insert(name)
}

func (s *Solver) IsVariable(name string) bool {
	return s.variables.Contains(name)
}

// Implies records that rhs holds whenever lhs does. lhs is usually an atom
// Eq(variable, value).
func (s *Solver) Implies(lhs, rhs Formula) {
	s.checkNotSolved("Implies")
	if eq, ok := lhs.(Eq); ok {
		variable, literal, ok := classify(eq, s)
		if !ok {
			panic(InvariantViolation{Op: "Implies", Reason: fmt.Sprintf("%s mentions no registered variable", eq)})
		}
		if literal != "" {
			byValue, ok := s.implications[variable]
			if !ok {
				byValue = make(map[string]Formula)
				s.implications[variable] = byValue
			}
			if existing, ok := byValue[literal]; ok {
				rhs = NewAnd(existing, rhs)
			}
			byValue[literal] = rhs
			return
		}
	}
	s.other = append(s.other, implication{lhs: lhs, rhs: rhs})
}

// AlwaysTrue records a formula that holds in every solution
func (s *Solver) AlwaysTrue(f Formula) {
	s.checkNotSolved("AlwaysTrue")
	s.groundTruth = append(s.groundTruth, f)
}

func (s *Solver) String() string {
	sb := &strings.Builder{}
	for variable := range s.variables.Items() {
		byValue := s.implications[variable]
		for _, value := range slices.Sorted(maps.Keys(byValue)) {
			sb.WriteString(fmt.Sprintf("if %s == %s then %s\n", variable, value, byValue[value]))
		}
	}
	for _, imp := range s.other {
		sb.WriteString(fmt.Sprintf("if %s then %s\n", imp.lhs, imp.rhs))
	}
	for _, f := range s.groundTruth {
		sb.WriteString(fmt.Sprintf("always %s\n", f))
	}
	return sb.String()
}

// allFormulas yields every formula stored in the solver
func (s *Solver) allFormulas(yield func(Formula)) {
	for _, byValue := range s.implications {
		for _, rhs := range byValue {
			yield(rhs)
		}
	}
	for _, imp := range s.other {
		yield(imp.rhs)
	}
	for _, f := range s.groundTruth {
		yield(f)
	}
}

// firstApproximation seeds every variable with the values that some
// implication does not immediately rule out, plus every literal an atom
// compares it with. Variables related by an atom share one set.
func (s *Solver) firstApproximation() (Assignment, *disjointSet) {
	vars := s.variables.Slice()
	seeds := make(map[string]*set.Set[string], len(vars))
	for _, v := range vars {
		seeds[v] = set.New[string](0)
		for value, rhs := range s.implications[v] {
			if rhs != False {
				seeds[v].Insert(value)
			}
		}
	}

	aliases := newDisjointSet(vars)
	s.allFormulas(func(f Formula) {
		Atoms(f, func(eq Eq) {
			variable, literal, ok := classify(eq, s)
			switch {
			case !ok:
			case literal == "":
				aliases.union(eq.left, eq.right)
			default:
				seeds[variable].Insert(literal)
			}
		})
	})

	domains := make(Assignment, len(vars))
	for _, members := range aliases.components() {
		shared := set.New[string](0)
		for _, m := range members {
			shared.InsertSet(seeds[m])
		}
		for _, m := range members {
			domains[m] = shared
		}
	}
	return domains, aliases
}

// complete inserts a TRUE implication for every seeded (variable, value)
// pair that has none, so that every candidate value is accounted for
func (s *Solver) complete(domains Assignment) {
	for variable, values := range domains {
		byValue, ok := s.implications[variable]
		if !ok {
			byValue = make(map[string]Formula)
			s.implications[variable] = byValue
		}
		for value := range values.Items() {
			if _, ok := byValue[value]; !ok {
				byValue[value] = True
			}
		}
	}
}

// restrict removes from variable every value not in allowed and reports whether anything was removed
func restrict(domains Assignment, variable string, allowed *set.Set[string]) bool {
	values, ok := domains[variable]
	if !ok {
		return false
	}
	removed := false
	for _, v := range values.Slice() {
		if !allowed.Contains(v) {
			values.Remove(v)
			removed = true
		}
	}
	return removed
}

// Solve computes, for every registered variable, the values that are not
// ruled out by the implications and ground truths. It never fails: a
// variable no value fits is assigned an empty set.
//
// Solve freezes the Solver. Calling it again returns the same result.
func (s *Solver) Solve() Assignment {
	if s.result != nil {
		return s.result.Copy()
	}
	domains, aliases := s.firstApproximation()
	s.complete(domains)
	vars := s.variables.Slice()

	for changed := true; changed; {
		changed = false

		// rule out values whose implication cannot hold any more
		for _, variable := range vars {
			for _, value := range domains.Values(variable) {
				rhs := Simplify(s.implications[variable][value], domains)
				if rhs == False {
					logger.Debug("ruling out value", "variable", variable, "value", value)
					domains[variable].Remove(value)
					changed = true
				}
			}
		}

		facts := slices.Clone(s.groundTruth)
		for _, imp := range s.other {
			if Holds(imp.lhs, domains) {
				facts = append(facts, imp.rhs)
			}
		}
		for _, fact := range facts {
			changed = s.applyFact(fact, domains, aliases) || changed
		}

		// each variable takes one of its values, so whatever all of
		// its remaining implications agree on must hold
		terms := make([]Formula, 0, len(vars))
		for _, variable := range vars {
			values := domains.Values(variable)
			if len(values) == 0 {
				continue
			}
			options := make([]Formula, 0, len(values))
			for _, value := range values {
				options = append(options, Simplify(s.implications[variable][value], domains))
			}
			terms = append(terms, NewOr(options...))
		}
		for variable, allowed := range ExtractPivots(NewAnd(terms...), domains) {
			changed = restrict(domains, variable, allowed) || changed
		}
	}

	s.result = domains.Copy()
	return s.result.Copy()
}

// applyFact narrows domains so that fact stays satisfiable, and reports
// whether any value was removed
func (s *Solver) applyFact(fact Formula, domains Assignment, aliases *disjointSet) bool {
	simplified := Simplify(fact, domains)
	if simplified == False {
		logger.Error("ground truth cannot be satisfied", "fact", fact.String())
		return false
	}
	changed := false
	for variable, allowed := range ExtractPivots(simplified, domains) {
		changed = restrict(domains, variable, allowed) || changed
	}

	mentioned := set.NewTreeSet[string](cmp.Compare[string])
	Atoms(simplified, func(eq Eq) {
		for _, side := range []string{eq.left, eq.right} {
			if domains.IsVariable(side) {
				mentioned.Insert(side)
			}
		}
	})
	for variable := range mentioned.Items() {
		root := aliases.find(variable)
		for _, value := range domains.Values(variable) {
			pinned := maps.Clone(domains)
			single := set.From([]string{value})
			for other := range pinned {
				if aliases.find(other) == root {
					pinned[other] = single
				}
			}
			if Simplify(simplified, pinned) == False {
				logger.Debug("ground truth rules out value", "variable", variable, "value", value)
				domains[variable].Remove(value)
				changed = true
			}
		}
	}
	return changed
}
