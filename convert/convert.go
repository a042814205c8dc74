package convert

import (
	"github.com/cottand/tysolve/internal/tyerr"
	"github.com/cottand/tysolve/pytd"
)

// Convert solves the unknowns of ast and returns its complete declarations
// with every unknown replaced by a nominal type.
//
// The returned errors hold flawed queries and unresolved names. Neither
// stops the conversion: see tyerr.IsFlawedQuery.
func Convert(ast, builtins *pytd.Unit, settings Settings) (*pytd.Unit, *tyerr.Errors) {
	solution, errs := Solve(ast, builtins, settings)
	lookup := pytd.NewLookup(pytd.Concat(ast.Name, solution.Local, builtins))
	projector := NewProjector(solution.Mapping, lookup, settings)
	result := projector.InsertSolution(solution.Local)
	logger.Info("solve result", "unit", pytd.Print(result))
	return result, errs.Merge(projector.Errors())
}
