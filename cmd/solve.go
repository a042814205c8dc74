package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cottand/tysolve/booleq"
	"github.com/cottand/tysolve/convert"
	"github.com/cottand/tysolve/internal/log"
	"github.com/cottand/tysolve/internal/tyerr"
	"github.com/cottand/tysolve/pytd"
	"github.com/cottand/tysolve/util"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var SolveCmd = &cobra.Command{
	Use:          "solve unit.yaml",
	Short:        "Replace the ~unknowns of a unit with nominal types",
	RunE:         runSolve,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	builtinsPath *string
	logLevel     *int
	logSections  *[]string
	maxDepth     *int
	parallelism  *int
	printMapping *bool
	keepGoing    *bool
)

func init() {
	builtinsPath = SolveCmd.Flags().StringP("builtins", "b", "", "unit with the builtin declarations")
	logLevel = SolveCmd.Flags().IntP("log-level", "l", int(slog.LevelWarn), "log level")
	logSections = SolveCmd.Flags().StringSlice("log-section", nil, "extra sections whose debug and info records are printed")
	maxDepth = SolveCmd.Flags().Int("max-depth", convert.DefaultMaxDepth, "how many levels of template parameters to resolve")
	parallelism = SolveCmd.Flags().IntP("parallelism", "j", 1, "how many matches to run at once")
	printMapping = SolveCmd.Flags().Bool("mapping", false, "print the possible types of every unknown instead of the solved unit")
	keepGoing = SolveCmd.Flags().Bool("keep-going", false, "succeed even when recorded calls contradict their declarations")
}

func runSolve(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))
	log.EnableSections(*logSections...)

	ast, err := pytd.LoadUnitFile(args[0])
	if err != nil {
		return errors.Wrap(err, "could not load unit")
	}
	builtins := &pytd.Unit{Name: "__builtin__"}
	if *builtinsPath != "" {
		builtins, err = pytd.LoadUnitFile(*builtinsPath)
		if err != nil {
			return errors.Wrap(err, "could not load builtins")
		}
	}
	settings := convert.Settings{MaxDepth: *maxDepth, Parallelism: *parallelism}

	out := cmd.OutOrStdout()
	var errs *tyerr.Errors
	if *printMapping {
		var solution convert.Solution
		solution, errs = convert.Solve(ast, builtins, settings)
		writeMapping(out, solution.Mapping)
	} else {
		var result *pytd.Unit
		result, errs = convert.Convert(ast, builtins, settings)
		_, _ = fmt.Fprintln(out, pytd.Print(result))
	}
	return reportErrors(cmd.ErrOrStderr(), errs, *keepGoing)
}

// colorsFor reports whether w is a terminal
func colorsFor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func painter(w io.Writer, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if colorsFor(w) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func writeMapping(w io.Writer, mapping booleq.Assignment) {
	name := painter(w, color.FgCyan, color.Bold)
	types := painter(w, color.FgGreen)
	for _, unknown := range util.SortedKeys(mapping) {
		values := mapping.Values(unknown)
		shown := "?"
		if len(values) > 0 {
			shown = strings.Join(values, ", ")
		}
		_, _ = fmt.Fprintf(w, "%s: %s\n", name.Sprint(unknown), types.Sprint(shown))
	}
}

func reportErrors(w io.Writer, errs *tyerr.Errors, keepGoing bool) error {
	flawed := painter(w, color.FgRed)
	warning := painter(w, color.FgYellow)
	count := 0
	for _, e := range errs.Errors() {
		if tyerr.IsFlawedQuery(e) {
			count++
			_, _ = flawed.Fprintln(w, tyerr.FormatWithCode(e))
			continue
		}
		_, _ = warning.Fprintln(w, tyerr.FormatWithCode(e))
	}
	if count > 0 && !keepGoing {
		return fmt.Errorf("%d recorded uses contradict their declarations", count)
	}
	return nil
}
