package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/model"
)

// Report sheet names.
const (
	SheetSummary  = "Summary"
	SheetTraces   = "Traces"
	SheetLabels   = "Labels"
	SheetFailures = "Failures"
	SheetStages   = "Stages"
)

// ExportReport writes an XLSX workbook with one sheet per aspect of the
// result.
func ExportReport(path string, result model.RoutingResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetTraces, SheetLabels, SheetFailures, SheetStages} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	verdict := "solved"
	switch {
	case result.Failed:
		verdict = "failed"
	case !result.Solved:
		verdict = "partial"
	}
	summary := [][]interface{}{
		{"Run", result.RunID},
		{"Result", verdict},
		{"Error", result.Error},
		{"Chips", len(result.Chips)},
		{"Traces", len(result.Traces)},
		{"Total trace length", round3(result.TotalTraceLength())},
		{"Labels", len(result.Labels)},
		{"Unroutable pairs", len(result.PairFailures)},
		{"Unplaced labels", len(result.LabelFailures)},
		{"Unresolved overlaps", result.UnresolvedOverlaps},
		{"Detached pins", len(result.DetachedPins)},
	}
	if err := writeRows(f, SheetSummary, nil, summary, bold); err != nil {
		return err
	}

	var traces [][]interface{}
	for _, t := range result.Traces {
		traces = append(traces, []interface{}{
			t.ID, t.NetID, strings.Join(t.PinIDs, " "), len(t.Points),
			geom.TurnCount(t.Points), round3(t.Length()), formatPath(t.Points),
		})
	}
	if err := writeRows(f, SheetTraces, []string{"Trace", "Net", "Pins", "Points", "Turns", "Length", "Path"}, traces, bold); err != nil {
		return err
	}

	var labels [][]interface{}
	for _, l := range result.Labels {
		labels = append(labels, []interface{}{
			l.NetID, l.PinID, string(l.Orientation), round3(l.Center.X), round3(l.Center.Y),
			round3(l.Width), round3(l.Height), l.TraceConflict,
		})
	}
	if err := writeRows(f, SheetLabels, []string{"Net", "Pin", "Orientation", "X", "Y", "Width", "Height", "Trace conflict"}, labels, bold); err != nil {
		return err
	}

	var failures [][]interface{}
	for _, p := range result.PairFailures {
		failures = append(failures, []interface{}{"pair", p.PairID, p.NetID, p.Error})
	}
	for _, l := range result.LabelFailures {
		failures = append(failures, []interface{}{"label", strings.Join(l.PinIDs, " "), l.NetID, l.Error})
	}
	if err := writeRows(f, SheetFailures, []string{"Kind", "Subject", "Net", "Error"}, failures, bold); err != nil {
		return err
	}

	var stages [][]interface{}
	for _, s := range result.Stages {
		stages = append(stages, []interface{}{s.Name, s.Solved, s.Failed, s.Iterations, s.Error})
	}
	if err := writeRows(f, SheetStages, []string{"Stage", "Solved", "Failed", "Iterations", "Error"}, stages, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// writeRows writes an optional bold header row followed by rows.
func writeRows(f *excelize.File, sheet string, header []string, rows [][]interface{}, headerStyle int) error {
	r := 1
	if len(header) > 0 {
		cells := make([]interface{}, len(header))
		for i, h := range header {
			cells[i] = h
		}
		if err := setRow(f, sheet, r, cells); err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style %s header: %w", sheet, err)
		}
		r++
	}
	for _, row := range rows {
		if err := setRow(f, sheet, r, row); err != nil {
			return err
		}
		r++
	}
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return fmt.Errorf("failed to size %s columns: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, r int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, r, err)
	}
	return nil
}

func formatPath(pts []geom.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("(%.3f,%.3f)", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
