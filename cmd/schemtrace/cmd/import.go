package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SchemTrace/internal/importer"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/project"
)

var (
	importChips  string
	importBase   string
	importOutput string
	importStrict bool
)

var importCmd = &cobra.Command{
	Use:   "import <netlist.csv|netlist.xlsx>",
	Short: "Build a problem from a netlist and chip outlines",
	Long: `Import a netlist from CSV or Excel and merge it with chips drawn in a DXF
file or taken from an existing problem.

Netlist rows are either "net,pin" or "net,pin,pin,...". A Type column set to
"direct" turns a two-pin row into a direct connection; a Label Width column
overrides the net label width.

In the DXF, each closed outline becomes a chip (U1, U2, ... left to right)
and each circle inside it becomes a pin (U1.1, U1.2, ...).

Examples:
  schemtrace import nets.csv --chips board.dxf -o board.json
  schemtrace import nets.xlsx --base chips.json -o board.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importChips, "chips", "", "DXF drawing with chip outlines and pins")
	importCmd.Flags().StringVar(&importBase, "base", "", "existing problem to merge into")
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "problem.json", "problem file to write")
	importCmd.Flags().BoolVar(&importStrict, "strict", false, "treat warnings as errors")
}

func runImport(cmd *cobra.Command, args []string) error {
	var problem model.InputProblem
	if importBase != "" {
		base, err := project.LoadProblem(importBase)
		if err != nil {
			return err
		}
		problem = base
	}

	var warnings []string
	if importChips != "" {
		chips := importer.ImportDXF(importChips)
		if err := importErrors(importChips, chips); err != nil {
			return err
		}
		warnings = append(warnings, chips.Warnings...)
		problem.Chips = append(problem.Chips, chips.Chips...)
	}

	var nets importer.ImportResult
	switch strings.ToLower(filepath.Ext(args[0])) {
	case ".xlsx", ".xlsm":
		nets = importer.ImportExcel(args[0])
	default:
		nets = importer.ImportCSV(args[0])
	}
	if err := importErrors(args[0], nets); err != nil {
		return err
	}
	warnings = append(warnings, nets.Warnings...)
	warnings = append(warnings, importer.MergeInto(&problem, nets)...)

	for _, w := range warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
	if importStrict && len(warnings) > 0 {
		return fmt.Errorf("%d import warning(s)", len(warnings))
	}
	if len(problem.Chips) == 0 {
		return fmt.Errorf("no chips: pass --chips or --base")
	}

	if err := project.SaveProblem(importOutput, problem); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d chip(s), %d net(s), %d direct connection(s)\n",
		importOutput, len(problem.Chips), len(problem.NetConnections), len(problem.DirectConnections))
	return nil
}

func importErrors(path string, res importer.ImportResult) error {
	if len(res.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("cannot import %s:\n  %s", path, strings.Join(res.Errors, "\n  "))
}
