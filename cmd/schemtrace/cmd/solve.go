package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SchemTrace/internal/check"
	"github.com/piwi3910/SchemTrace/internal/engine"
	"github.com/piwi3910/SchemTrace/internal/export"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/project"
)

var (
	solveOutput  string
	solveArchive string
	solveCheck   bool
)

var solveCmd = &cobra.Command{
	Use:   "solve <problem.json>",
	Short: "Route traces and place net labels for a problem",
	Long: `Route a problem file and write the routing result as JSON.

Unroutable pairs and unplaced labels are reported in the result; the command
only fails on malformed input or when --fail-on-overlap is set and overlaps
remain.

Examples:
  schemtrace solve board.json
  schemtrace solve board.json -o routed.json --archive run.json
  SCHEMTRACE_PARALLELISM=4 schemtrace solve board.json --check`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)

	solveCmd.Flags().StringVarP(&solveOutput, "output", "o", "", "result file (default stdout)")
	solveCmd.Flags().StringVar(&solveArchive, "archive", "", "also write a run archive with problem, settings and result")
	solveCmd.Flags().BoolVar(&solveCheck, "check", false, "verify the routed layout and report violations")
}

func runSolve(cmd *cobra.Command, args []string) error {
	problem, err := project.LoadProblem(args[0])
	if err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	result, routeErr := engine.Route(cmd.Context(), problem, settings, engine.WithLogger(logger))
	if routeErr != nil && len(result.Stages) == 0 {
		return fmt.Errorf("routing failed: %w", routeErr)
	}
	rememberProblem(args[0])

	if solveOutput == "" {
		if err := export.WriteJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		if err := export.ExportJSON(solveOutput, result); err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), result)
	}
	if solveArchive != "" {
		if err := project.SaveRun(solveArchive, problem, settings, result); err != nil {
			return err
		}
	}

	if solveCheck {
		if err := reportViolations(cmd.ErrOrStderr(), result, check.Options{}); err != nil {
			return err
		}
	}
	if routeErr != nil {
		return fmt.Errorf("routing failed: %w", routeErr)
	}
	return nil
}

func printSummary(w io.Writer, r model.RoutingResult) {
	verdict := "solved"
	switch {
	case r.Failed:
		verdict = "failed"
	case !r.Solved:
		verdict = "partial"
	}
	fmt.Fprintf(w, "Run %s: %s\n", r.RunID, verdict)
	fmt.Fprintf(w, "  Traces: %d (length %.3f)\n", len(r.Traces), r.TotalTraceLength())
	fmt.Fprintf(w, "  Labels: %d\n", len(r.Labels))
	if len(r.PairFailures) > 0 {
		fmt.Fprintf(w, "  Unroutable pairs: %d\n", len(r.PairFailures))
	}
	if len(r.LabelFailures) > 0 {
		fmt.Fprintf(w, "  Unplaced labels: %d\n", len(r.LabelFailures))
	}
	if r.UnresolvedOverlaps > 0 {
		fmt.Fprintf(w, "  Unresolved overlaps: %d\n", r.UnresolvedOverlaps)
	}
}
