// Package export writes routing results to files: JSON, SVG, PNG, PDF,
// DXF, an XLSX report and QR-coded net tags.
package export

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/graphics"
	"github.com/piwi3910/SchemTrace/internal/model"
)

// rgb is a display color.
type rgb struct {
	R, G, B int
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// netColors cycles across nets in sorted net order.
var netColors = []rgb{
	{R: 33, G: 150, B: 243}, // blue
	{R: 76, G: 175, B: 80},  // green
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 121, G: 85, B: 72},  // brown
	{R: 96, G: 125, B: 139}, // slate
}

var (
	chipFill   = rgb{R: 238, G: 238, B: 238}
	chipStroke = rgb{R: 85, G: 85, B: 85}
	pinColor   = rgb{R: 30, G: 30, B: 30}
)

// netPalette assigns a color to every net that appears in r.
func netPalette(r model.RoutingResult) map[string]rgb {
	seen := map[string]bool{}
	for _, t := range r.Traces {
		seen[t.NetID] = true
	}
	for _, l := range r.Labels {
		seen[l.NetID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make(map[string]rgb, len(ids))
	for i, id := range ids {
		out[id] = netColors[i%len(netColors)]
	}
	return out
}

// ResultGraphics draws chips, pins, traces and labels of a result as
// graphics primitives. Every file exporter except DXF renders from it.
func ResultGraphics(r model.RoutingResult) graphics.Graphics {
	palette := netPalette(r)
	g := graphics.Graphics{Title: "SchemTrace " + r.RunID}

	for _, c := range r.Chips {
		g.Rects = append(g.Rects, graphics.Rect{
			Center: c.Center, Width: c.Width, Height: c.Height,
			FillColor: chipFill.hex(), StrokeColor: chipStroke.hex(), Label: c.ChipID,
		})
		for _, p := range c.Pins {
			g.Points = append(g.Points, graphics.Point{X: p.X, Y: p.Y, Label: p.PinID, Color: pinColor.hex()})
		}
	}
	for _, t := range r.Traces {
		g.Lines = append(g.Lines, graphics.Line{
			Points: t.Points, StrokeColor: palette[t.NetID].hex(), Label: t.NetID,
		})
	}
	for _, l := range r.Labels {
		col := palette[l.NetID].hex()
		g.Rects = append(g.Rects, graphics.Rect{
			Center: l.Center, Width: l.Width, Height: l.Height,
			StrokeColor: col, Label: "label:" + l.NetID,
		})
		g.Texts = append(g.Texts, graphics.Text{X: l.Center.X, Y: l.Center.Y, Text: l.NetID, Color: col})
	}
	if r.Error != "" && !g.IsEmpty() {
		b := g.Bounds()
		g.Texts = append(g.Texts, graphics.Text{X: b.MinX, Y: b.MaxY + 0.5, Text: r.Error, Color: "#cc3333"})
	}
	return g
}

// viewport maps schematic coordinates (y up) onto an image (y down).
type viewport struct {
	bounds geom.Bounds
	scale  float64
	margin float64
}

func newViewport(b geom.Bounds, maxPx, margin float64) viewport {
	span := math.Max(b.Width(), b.Height())
	if span <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		span = 1
	}
	return viewport{bounds: b, scale: (maxPx - 2*margin) / span, margin: margin}
}

func (v viewport) size() (w, h float64) {
	return math.Max(v.bounds.Width(), 0)*v.scale + 2*v.margin,
		math.Max(v.bounds.Height(), 0)*v.scale + 2*v.margin
}

func (v viewport) px(p geom.Point) (x, y float64) {
	return v.margin + (p.X-v.bounds.MinX)*v.scale,
		v.margin + (v.bounds.MaxY-p.Y)*v.scale
}

// rectPx returns the top-left corner and size of r on the image.
func (v viewport) rectPx(r graphics.Rect) (x, y, w, h float64) {
	b := r.Bounds()
	x, y = v.px(geom.Pt(b.MinX, b.MaxY))
	return x, y, b.Width() * v.scale, b.Height() * v.scale
}

func pointOf(p graphics.Point) geom.Point {
	return geom.Pt(p.X, p.Y)
}

func textAnchor(t graphics.Text) geom.Point {
	return geom.Pt(t.X, t.Y)
}
