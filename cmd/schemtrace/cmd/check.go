package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SchemTrace/internal/check"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/project"
)

var checkClearance float64

var checkCmd = &cobra.Command{
	Use:   "check <result.json>",
	Short: "Verify a routed layout",
	Long: `Check a routing result for non-orthogonal or detached traces, traces that
cross chips, and labels that sit on chips, traces or other labels.

Examples:
  schemtrace check routed.json
  schemtrace check routed.json --min-clearance 0.1`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Float64Var(&checkClearance, "min-clearance", 0, "report trace corners closer than this to a foreign chip")
}

func runCheck(cmd *cobra.Command, args []string) error {
	result, err := project.LoadResult(args[0])
	if err != nil {
		return err
	}
	if err := reportViolations(cmd.OutOrStdout(), result, check.Options{MinClearance: checkClearance}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Layout OK")
	return nil
}

func reportViolations(w io.Writer, r model.RoutingResult, opts check.Options) error {
	violations := check.CheckLayout(r, opts)
	if len(violations) == 0 {
		return nil
	}
	for _, line := range check.FormatViolations(violations) {
		fmt.Fprintln(w, line)
	}
	return fmt.Errorf("%d layout violation(s)", len(violations))
}
