package export

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/model"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// ExportPDF generates a PDF with the routed schematic on the first page and
// a summary of the run on the second.
func ExportPDF(path string, result model.RoutingResult, settings model.Settings) error {
	if len(result.Chips) == 0 {
		return fmt.Errorf("no chips to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderLayoutPage(pdf, result)

	pdf.AddPage()
	renderSummaryPage(pdf, result, settings)

	return pdf.OutputFileAndClose(path)
}

// layoutBounds covers every chip, trace and label of the result.
func layoutBounds(r model.RoutingResult) geom.Bounds {
	var pts []geom.Point
	for _, c := range r.Chips {
		b := c.Bounds()
		pts = append(pts, geom.Pt(b.MinX, b.MinY), geom.Pt(b.MaxX, b.MaxY))
	}
	for _, t := range r.Traces {
		pts = append(pts, t.Points...)
	}
	for _, l := range r.Labels {
		b := l.Bounds()
		pts = append(pts, geom.Pt(b.MinX, b.MinY), geom.Pt(b.MaxX, b.MaxY))
	}
	return geom.BoundsOfPoints(pts)
}

// renderLayoutPage draws the schematic scaled to the page.
func renderLayoutPage(pdf *fpdf.Fpdf, r model.RoutingResult) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Routed schematic: %d chips, %d traces, %d labels", len(r.Chips), len(r.Traces), len(r.Labels))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Total trace length: %.2f | Unroutable pairs: %d | Unplaced labels: %d | Run: %s",
		r.TotalTraceLength(), len(r.PairFailures), len(r.LabelFailures), r.RunID)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight

	b := layoutBounds(r)
	scale := math.Min(drawWidth/math.Max(b.Width(), geom.Epsilon), drawHeight/math.Max(b.Height(), geom.Epsilon))
	canvasW := b.Width() * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop
	// Schematic y grows upward, page y downward.
	toPage := func(p geom.Point) (float64, float64) {
		return offsetX + (p.X-b.MinX)*scale, offsetY + (b.MaxY-p.Y)*scale
	}

	for _, c := range r.Chips {
		cb := c.Bounds()
		x, y := toPage(geom.Pt(cb.MinX, cb.MaxY))
		w, h := cb.Width()*scale, cb.Height()*scale
		pdf.SetFillColor(chipFill.R, chipFill.G, chipFill.B)
		pdf.SetDrawColor(chipStroke.R, chipStroke.G, chipStroke.B)
		pdf.SetLineWidth(0.3)
		pdf.Rect(x, y, w, h, "FD")

		if w > 10 && h > 5 {
			pdf.SetFont("Helvetica", "", labelFontSize(w, h))
			pdf.SetTextColor(0, 0, 0)
			tw := pdf.GetStringWidth(c.ChipID)
			if tw < w-2 {
				pdf.SetXY(x+(w-tw)/2, y+h/2-2)
				pdf.CellFormat(tw, 4, c.ChipID, "", 0, "C", false, 0, "")
			}
		}

		pdf.SetFillColor(pinColor.R, pinColor.G, pinColor.B)
		for _, p := range c.Pins {
			px, py := toPage(p.Point())
			pdf.Circle(px, py, 0.6, "F")
		}
	}

	palette := netPalette(r)
	pdf.SetLineWidth(0.5)
	for _, t := range r.Traces {
		col := palette[t.NetID]
		pdf.SetDrawColor(col.R, col.G, col.B)
		for i := 0; i+1 < len(t.Points); i++ {
			x1, y1 := toPage(t.Points[i])
			x2, y2 := toPage(t.Points[i+1])
			pdf.Line(x1, y1, x2, y2)
		}
	}

	pdf.SetFont("Helvetica", "B", 6)
	for _, l := range r.Labels {
		col := palette[l.NetID]
		lb := l.Bounds()
		x, y := toPage(geom.Pt(lb.MinX, lb.MaxY))
		w, h := lb.Width()*scale, lb.Height()*scale
		pdf.SetFillColor(255, 255, 255)
		pdf.SetDrawColor(col.R, col.G, col.B)
		pdf.SetLineWidth(0.3)
		pdf.Rect(x, y, w, h, "FD")
		pdf.SetTextColor(col.R, col.G, col.B)
		tw := pdf.GetStringWidth(l.NetID)
		pdf.SetXY(x+(w-tw)/2, y+h/2-1.5)
		pdf.CellFormat(tw, 3, l.NetID, "", 0, "C", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)

	drawNetLegend(pdf, palette, offsetY+b.Height()*scale+5)
}

// drawNetLegend renders a color swatch per net below the drawing.
func drawNetLegend(pdf *fpdf.Fpdf, palette map[string]rgb, startY float64) {
	if len(palette) == 0 {
		return
	}
	ids := make([]string, 0, len(palette))
	for id := range palette {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(20, 4, "Nets:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 22
	maxX := pageWidth - marginRight
	for _, id := range ids {
		col := palette[id]
		w := pdf.GetStringWidth(id) + 6
		if xPos+w > maxX {
			startY += 5
			xPos = marginLeft
		}
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(w-4, 4, id, "", 0, "L", false, 0, "")
		xPos += w + 2
	}
}

// renderSummaryPage draws run statistics, the stage table, failures and the
// settings that produced the result.
func renderSummaryPage(pdf *fpdf.Fpdf, r model.RoutingResult, settings model.Settings) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Routing Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	verdict := "Solved"
	switch {
	case r.Failed:
		verdict = "Failed"
	case !r.Solved:
		verdict = "Partial"
	}
	y = drawKeyValues(pdf, y, "Overall Statistics", []keyValue{
		{"Result", verdict},
		{"Traces", fmt.Sprintf("%d", len(r.Traces))},
		{"Total Trace Length", fmt.Sprintf("%.2f", r.TotalTraceLength())},
		{"Net Labels", fmt.Sprintf("%d", len(r.Labels))},
		{"Unroutable Pairs", fmt.Sprintf("%d", len(r.PairFailures))},
		{"Unplaced Labels", fmt.Sprintf("%d", len(r.LabelFailures))},
		{"Unresolved Overlaps", fmt.Sprintf("%d", r.UnresolvedOverlaps)},
	})

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Stages", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{40, 25, 25, 30, 147}
	headers := []string{"Stage", "Solved", "Failed", "Iterations", "Error"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, s := range r.Stages {
		row := []string{s.Name, yesNo(s.Solved), yesNo(s.Failed), fmt.Sprintf("%d", s.Iterations), truncate(s.Error, 90)}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos = marginLeft
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	var failures []string
	for _, f := range r.PairFailures {
		failures = append(failures, fmt.Sprintf("- pair %s (net %s): %s", f.PairID, f.NetID, f.Error))
	}
	for _, f := range r.LabelFailures {
		failures = append(failures, fmt.Sprintf("- label for net %s: %s", f.NetID, f.Error))
	}
	if len(failures) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Incomplete Routing", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, line := range failures {
			if y > pageHeight-marginBottom-50 {
				pdf.SetXY(marginLeft+5, y)
				pdf.CellFormat(200, 5, "... and more", "", 0, "L", false, 0, "")
				y += 5
				break
			}
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(250, 5, truncate(line, 140), "", 0, "L", false, 0, "")
			y += 5
		}
	}

	y += 8
	pdf.SetTextColor(0, 0, 0)
	drawKeyValues(pdf, y, "Settings", []keyValue{
		{"Elbow Overshoot", fmt.Sprintf("%.3f", settings.ElbowOvershoot)},
		{"Guideline Clearance", fmt.Sprintf("%.3f", settings.GuidelineClearance)},
		{"Guidelines per Axis", fmt.Sprintf("%d", settings.MaxGuidelinesPerAxis)},
		{"Label Height", fmt.Sprintf("%.3f", settings.NetLabelHeight)},
		{"Overlap Clearance", fmt.Sprintf("%.3f", settings.OverlapClearance)},
	})

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by SchemTrace - Schematic Trace Router", "", 0, "C", false, 0, "")
}

type keyValue struct {
	label string
	value string
}

// drawKeyValues prints a titled two-column block and returns the next y.
func drawKeyValues(pdf *fpdf.Fpdf, y float64, title string, items []keyValue) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, title, "", 0, "L", false, 0, "")
	y += 9

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}
	return y
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 10
	case minDim > 20:
		return 8
	default:
		return 6
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
