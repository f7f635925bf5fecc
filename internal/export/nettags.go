package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/SchemTrace/internal/model"
)

// NetTagInfo holds the data encoded into each net tag's QR code.
type NetTagInfo struct {
	NetID  string   `json:"net"`
	PinIDs []string `json:"pins"`
	Traces int      `json:"traces"`
	Length float64  `json:"length"`
	Labels int      `json:"labels"`
	RunID  string   `json:"run,omitempty"`
}

// Tag layout constants for Avery 5160-compatible sheets (3 columns, 10 rows per page).
const (
	tagMarginTop  = 12.7 // mm
	tagMarginLeft = 4.8  // mm
	tagWidth      = 66.7 // mm per tag
	tagHeight     = 25.4 // mm per tag
	tagCols       = 3
	tagRows       = 10
	tagsPerPage   = tagCols * tagRows
	qrSize        = 20.0 // mm
	tagPadding    = 2.0  // mm
)

// CollectNetTags summarizes every net that has a trace, a label or a
// routing failure, sorted by net ID.
func CollectNetTags(result model.RoutingResult) []NetTagInfo {
	byNet := map[string]*NetTagInfo{}
	pins := map[string]map[string]bool{}
	get := func(netID string) *NetTagInfo {
		if t, ok := byNet[netID]; ok {
			return t
		}
		t := &NetTagInfo{NetID: netID, RunID: result.RunID}
		byNet[netID] = t
		pins[netID] = map[string]bool{}
		return t
	}

	for _, tr := range result.Traces {
		t := get(tr.NetID)
		t.Traces++
		t.Length += tr.Length()
		for _, id := range tr.PinIDs {
			pins[tr.NetID][id] = true
		}
	}
	for _, l := range result.Labels {
		get(l.NetID).Labels++
		pins[l.NetID][l.PinID] = true
	}
	for _, f := range result.LabelFailures {
		get(f.NetID)
		for _, id := range f.PinIDs {
			pins[f.NetID][id] = true
		}
	}
	for _, f := range result.PairFailures {
		get(f.NetID)
	}

	out := make([]NetTagInfo, 0, len(byNet))
	for id, t := range byNet {
		for pin := range pins[id] {
			if pin != "" {
				t.PinIDs = append(t.PinIDs, pin)
			}
		}
		sort.Strings(t.PinIDs)
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NetID < out[j].NetID })
	return out
}

// ExportNetTags generates a PDF of QR-coded tags, one per net, laid out on
// a standard label sheet (Avery 5160 / 3 columns x 10 rows on US Letter).
func ExportNetTags(path string, result model.RoutingResult) error {
	tags := CollectNetTags(result)
	if len(tags) == 0 {
		return fmt.Errorf("no nets to generate tags for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, tag := range tags {
		if i%tagsPerPage == 0 {
			pdf.AddPage()
		}
		pos := i % tagsPerPage
		x := tagMarginLeft + float64(pos%tagCols)*tagWidth
		y := tagMarginTop + float64(pos/tagCols)*tagHeight

		if err := renderNetTag(pdf, x, y, i, tag); err != nil {
			return fmt.Errorf("failed to render tag for net %q: %w", tag.NetID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderNetTag draws a single tag at the given position.
func renderNetTag(pdf *fpdf.Fpdf, x, y float64, index int, info NetTagInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, tagWidth, tagHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal tag info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_net_%d", index)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	qrX := x + tagWidth - qrSize - tagPadding
	qrY := y + (tagHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + tagPadding
	textW := tagWidth - qrSize - 3*tagPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+tagPadding)
	pdf.CellFormat(textW, 4.5, fitText(pdf, info.NetID, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+tagPadding+5)
	summary := fmt.Sprintf("%d pins, %d traces, len %.2f", len(info.PinIDs), info.Traces, info.Length)
	pdf.CellFormat(textW, 3.5, fitText(pdf, summary, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+tagPadding+9)
	pdf.CellFormat(textW, 3, fitText(pdf, strings.Join(info.PinIDs, " "), textW), "", 1, "L", false, 0, "")

	if info.Labels == 0 && info.Traces == 0 {
		pdf.SetXY(textX, y+tagPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(textW, 3, "Not routed", "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// fitText truncates s with an ellipsis until it fits into width.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
