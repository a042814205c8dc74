package main

import (
	"os"

	"github.com/cottand/tysolve/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "tysolve [subcommand]",
	Short:        "tysolve\n infer nominal types for the structural ~unknowns of a type declaration unit",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.SolveCmd)
}
