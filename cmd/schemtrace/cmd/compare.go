package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SchemTrace/internal/engine"
	"github.com/piwi3910/SchemTrace/internal/project"
)

var compareCmd = &cobra.Command{
	Use:   "compare <problem.json>",
	Short: "Route a problem under several setting variants",
	Long: `Route the problem with the current settings and with variants that change
guideline use, clearance, elbow overshoot and label strictness, then print
one row per variant.

Examples:
  schemtrace compare board.json
  schemtrace compare board.json --elbow-overshoot 0.4`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	problem, err := project.LoadProblem(args[0])
	if err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	results := engine.CompareScenarios(cmd.Context(), engine.BuildDefaultScenarios(settings), problem, engine.WithLogger(logger))

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tTRACES\tLENGTH\tTURNS\tUNROUTED\tUNPLACED\tOVERLAPS\tSTATUS")
	for _, r := range results {
		status := "solved"
		switch {
		case r.Err != nil:
			status = "error: " + r.Err.Error()
		case !r.Result.Solved:
			status = "partial"
		}
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%d\t%d\t%d\t%d\t%s\n",
			r.Scenario.Name, r.TraceCount, r.TotalLength, r.TotalTurns,
			r.UnroutedPairs, r.UnplacedLabels, r.UnresolvedOverlaps, status)
	}
	return tw.Flush()
}
