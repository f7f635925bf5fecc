package export

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/graphics"
	"github.com/piwi3910/SchemTrace/internal/importer"
	"github.com/piwi3910/SchemTrace/internal/model"
)

// buildTestResult creates a small routed result with two nets.
func buildTestResult() model.RoutingResult {
	return model.RoutingResult{
		RunID: "run-1",
		Chips: []model.Chip{
			{ChipID: "U1", Center: geom.Pt(0, 0), Width: 1, Height: 1, Pins: []model.Pin{
				{PinID: "U1.1", X: 0.5, Y: 0, ChipID: "U1"},
				{PinID: "U1.2", X: -0.5, Y: 0, ChipID: "U1"},
			}},
			{ChipID: "U2", Center: geom.Pt(4, 0), Width: 1, Height: 2, Pins: []model.Pin{
				{PinID: "U2.1", X: 3.5, Y: 0, ChipID: "U2"},
			}},
		},
		Traces: []model.TracePath{
			{
				ID: "trace:SIG:U2.1-U1.1", NetID: "SIG", PairIDs: []string{"SIG:U2.1-U1.1"},
				PinIDs: []string{"U2.1", "U1.1"}, ChipIDs: []string{"U2", "U1"},
				Points: []geom.Point{{X: 3.5, Y: 0}, {X: 0.5, Y: 0}},
			},
		},
		Labels: []model.NetLabelPlacement{
			{NetID: "SIG", PinID: "U1.1", Orientation: model.DirXPos, Anchor: geom.Pt(0.5, 0),
				Center: geom.Pt(0.75, 0.3), Width: 0.5, Height: 0.2},
			{NetID: "GND", PinID: "U1.2", Orientation: model.DirXNeg, Anchor: geom.Pt(-0.5, 0),
				Center: geom.Pt(-0.75, 0), Width: 0.5, Height: 0.2},
		},
		LabelFailures: []model.LabelFailure{{NetID: "NC", PinIDs: []string{"U2.9"}, Error: "no room"}},
		Stages: []model.StageStatus{
			{Name: "guidelines", Solved: true, Iterations: 1},
			{Name: "lines", Solved: true, Iterations: 2},
		},
		Solved: false,
		Error:  "1 unplaced label(s)",
	}
}

func assertNonEmptyFile(t *testing.T, path string, minSize int64) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file was not created: %v", err)
	}
	if info.Size() < minSize {
		t.Errorf("file seems too small: %d bytes", info.Size())
	}
}

func TestResultGraphics(t *testing.T) {
	g := ResultGraphics(buildTestResult())

	if len(g.Rects) != 4 {
		t.Fatalf("expected 2 chip rects and 2 label rects, got %d", len(g.Rects))
	}
	if len(g.Points) != 3 {
		t.Errorf("expected one point per pin, got %d", len(g.Points))
	}
	if len(g.Lines) != 1 || g.Lines[0].Label != "SIG" {
		t.Errorf("expected one SIG line, got %+v", g.Lines)
	}
	// Two label texts plus the error banner.
	if len(g.Texts) != 3 {
		t.Errorf("expected 3 texts, got %d", len(g.Texts))
	}
	if g.Rects[2].StrokeColor != g.Lines[0].StrokeColor {
		t.Errorf("label and trace of the same net should share a color: %s vs %s", g.Rects[2].StrokeColor, g.Lines[0].StrokeColor)
	}
}

func TestNetPalette_StableOrder(t *testing.T) {
	p := netPalette(buildTestResult())
	if p["GND"] != netColors[0] || p["SIG"] != netColors[1] {
		t.Errorf("colors should follow sorted net order, got %+v", p)
	}
}

func TestViewport_FlipsY(t *testing.T) {
	vp := newViewport(geom.Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 5}, 120, 10)
	x, y := vp.px(geom.Pt(0, 5))
	if x != 10 || y != 10 {
		t.Errorf("top-left should map to the margin, got (%v, %v)", x, y)
	}
	x, y = vp.px(geom.Pt(10, 0))
	if x != 110 || y != 60 {
		t.Errorf("bottom-right mapped to (%v, %v)", x, y)
	}
	w, h := vp.size()
	if w != 120 || h != 70 {
		t.Errorf("unexpected size %vx%v", w, h)
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, ResultGraphics(buildTestResult()), 600); err != nil {
		t.Fatalf("WriteSVG returned error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(out), "<?xml") {
		t.Error("expected an XML prolog")
	}
	for _, want := range []string{"<svg", "<polyline", "<rect", ">SIG</text>", "</svg>"} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG output missing %q", want)
		}
	}
}

func TestWriteSVG_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, graphics.Graphics{}, 0); err == nil {
		t.Fatal("expected error for empty graphics")
	}
}

func TestExportSVG_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.svg")
	if err := ExportSVG(path, ResultGraphics(buildTestResult()), ImageSize); err != nil {
		t.Fatalf("ExportSVG returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 200)
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, ResultGraphics(buildTestResult()), 400); err != nil {
		t.Fatalf("WritePNG returned error: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	b := img.Bounds()
	if b.Dx() < 399 || b.Dx() > 401 {
		t.Errorf("expected the longest edge to be 400px, got %dx%d", b.Dx(), b.Dy())
	}
	if b.Dy() >= b.Dx() {
		t.Errorf("layout is wider than tall, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestExportPNG_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.png")
	if err := ExportPNG(path, ResultGraphics(buildTestResult()), 0); err != nil {
		t.Fatalf("ExportPNG returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 100)
}

func TestExportPDF_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.pdf")
	if err := ExportPDF(path, buildTestResult(), model.DefaultSettings()); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 500)
}

func TestExportPDF_WithPairFailures(t *testing.T) {
	result := buildTestResult()
	for i := 0; i < 40; i++ {
		result.PairFailures = append(result.PairFailures, model.PairFailure{
			PairID: "N:a-b", NetID: "N", Error: "No more candidate elbows, everything had collisions",
		})
	}
	result.Failed = true

	path := filepath.Join(t.TempDir(), "failures.pdf")
	if err := ExportPDF(path, result, model.DefaultSettings()); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 500)
}

func TestExportPDF_EmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := ExportPDF(path, model.RoutingResult{}, model.DefaultSettings()); err == nil {
		t.Fatal("expected error for empty result, got nil")
	}
}

func TestCollectNetTags(t *testing.T) {
	tags := CollectNetTags(buildTestResult())

	if len(tags) != 3 {
		t.Fatalf("expected 3 tags, got %d", len(tags))
	}
	if tags[0].NetID != "GND" || tags[1].NetID != "NC" || tags[2].NetID != "SIG" {
		t.Errorf("tags should be sorted by net, got %s %s %s", tags[0].NetID, tags[1].NetID, tags[2].NetID)
	}
	sig := tags[2]
	if sig.Traces != 1 || sig.Labels != 1 || sig.Length != 3 {
		t.Errorf("unexpected SIG tag: %+v", sig)
	}
	if strings.Join(sig.PinIDs, ",") != "U1.1,U2.1" {
		t.Errorf("unexpected SIG pins: %v", sig.PinIDs)
	}
	if tags[1].Traces != 0 || len(tags[1].PinIDs) != 1 {
		t.Errorf("unexpected NC tag: %+v", tags[1])
	}
	if sig.RunID != "run-1" {
		t.Errorf("expected run id on tag, got %q", sig.RunID)
	}
}

func TestNetTagInfo_JSONKeys(t *testing.T) {
	data, err := json.Marshal(NetTagInfo{NetID: "VCC", PinIDs: []string{"U1.1"}, Traces: 2, Length: 1.5})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	for _, key := range []string{`"net":"VCC"`, `"pins":["U1.1"]`, `"traces":2`, `"length":1.5`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected %s in %s", key, data)
		}
	}
}

func TestExportNetTags_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.pdf")
	if err := ExportNetTags(path, buildTestResult()); err != nil {
		t.Fatalf("ExportNetTags returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 1000)
}

func TestExportNetTags_ManyPages(t *testing.T) {
	result := buildTestResult()
	for i := 0; i < tagsPerPage+5; i++ {
		result.LabelFailures = append(result.LabelFailures, model.LabelFailure{
			NetID: "N" + strings.Repeat("x", i%7) + string(rune('A'+i%26)) + string(rune('a'+i/26)),
		})
	}
	path := filepath.Join(t.TempDir(), "tags.pdf")
	if err := ExportNetTags(path, result); err != nil {
		t.Fatalf("ExportNetTags returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 1000)
}

func TestExportNetTags_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.pdf")
	if err := ExportNetTags(path, model.RoutingResult{}); err == nil {
		t.Fatal("expected error for a result without nets")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 10); got != "abcdef" {
		t.Errorf("short strings are kept, got %q", got)
	}
	if got := truncate("abcdefghijkl", 8); got != "abcde..." {
		t.Errorf("unexpected truncation %q", got)
	}
}

func TestExportDXF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.dxf")
	if err := ExportDXF(path, buildTestResult()); err != nil {
		t.Fatalf("ExportDXF returned error: %v", err)
	}

	drawing, err := dxf.Open(path)
	if err != nil {
		t.Fatalf("cannot reopen DXF: %v", err)
	}
	var lines, circles int
	for _, e := range drawing.Entities() {
		switch e.(type) {
		case *entity.Line:
			lines++
		case *entity.Circle:
			circles++
		}
	}
	// 4 edges per chip plus one trace segment.
	if lines != 9 {
		t.Errorf("expected 9 lines, got %d", lines)
	}
	if circles != 3 {
		t.Errorf("expected 3 pin circles, got %d", circles)
	}
}

func TestExportDXF_RoundTripsChips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.dxf")
	if err := ExportDXF(path, buildTestResult()); err != nil {
		t.Fatalf("ExportDXF returned error: %v", err)
	}

	res := importer.ImportDXF(path)
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected import errors: %v", res.Errors)
	}
	if len(res.Chips) != 2 {
		t.Fatalf("expected 2 chips, got %d", len(res.Chips))
	}
	u2 := res.Chips[1]
	if !u2.Center.Near(geom.Pt(4, 0)) || u2.Width != 1 || u2.Height != 2 {
		t.Errorf("unexpected second chip: %+v", u2)
	}
	if len(res.Chips[0].Pins) != 2 || len(u2.Pins) != 1 {
		t.Errorf("pins were not reassigned to their chips: %+v", res.Chips)
	}
}

func TestExportDXF_Empty(t *testing.T) {
	if err := ExportDXF(filepath.Join(t.TempDir(), "x.dxf"), model.RoutingResult{}); err == nil {
		t.Fatal("expected error for empty result")
	}
}

func TestExportReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := ExportReport(path, buildTestResult()); err != nil {
		t.Fatalf("ExportReport returned error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("cannot reopen report: %v", err)
	}
	defer f.Close()

	want := []string{SheetSummary, SheetTraces, SheetLabels, SheetFailures, SheetStages}
	if got := f.GetSheetList(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("unexpected sheets %v", got)
	}

	rows, err := f.GetRows(SheetTraces)
	if err != nil {
		t.Fatalf("cannot read traces: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one trace, got %d rows", len(rows))
	}
	if rows[1][1] != "SIG" || rows[1][5] != "3" {
		t.Errorf("unexpected trace row %v", rows[1])
	}
	if rows[1][6] != "(3.500,0.000) (0.500,0.000)" {
		t.Errorf("unexpected path %q", rows[1][6])
	}

	summary, _ := f.GetRows(SheetSummary)
	if summary[1][1] != "partial" {
		t.Errorf("expected partial verdict, got %v", summary[1])
	}

	failures, _ := f.GetRows(SheetFailures)
	if len(failures) != 2 || failures[1][0] != "label" {
		t.Errorf("unexpected failures %v", failures)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, buildTestResult()); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}
	var back model.RoutingResult
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if back.RunID != "run-1" || len(back.Traces) != 1 || len(back.Labels) != 2 {
		t.Errorf("unexpected decoded result: %+v", back)
	}
	if !strings.Contains(buf.String(), "\n  \"runId\"") {
		t.Error("expected indented output")
	}
}

func TestExportJSON_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	if err := ExportJSON(path, buildTestResult()); err != nil {
		t.Fatalf("ExportJSON returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 100)
}
