package export

import (
	"fmt"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/piwi3910/SchemTrace/internal/graphics"
)

// renderPNG rasterizes g onto a new context whose longest edge is size pixels.
func renderPNG(g graphics.Graphics, size int) (*gg.Context, error) {
	if g.IsEmpty() {
		return nil, fmt.Errorf("nothing to draw")
	}
	if size <= 0 {
		size = ImageSize
	}
	vp := newViewport(g.Bounds(), float64(size), imageMargin)
	width, height := vp.size()

	dc := gg.NewContext(int(math.Ceil(width)), int(math.Ceil(height)))
	dc.SetHexColor("#ffffff")
	dc.Clear()

	for _, r := range g.Rects {
		x, y, w, h := vp.rectPx(r)
		dc.DrawRectangle(x, y, w, h)
		if r.FillColor != "" {
			dc.SetHexColor(r.FillColor)
			dc.FillPreserve()
		}
		dc.SetHexColor(colorOr(r.StrokeColor, "#000000"))
		dc.SetLineWidth(1)
		dc.Stroke()
	}

	for _, l := range g.Lines {
		if len(l.Points) < 2 {
			continue
		}
		for i, p := range l.Points {
			x, y := vp.px(p)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		if l.Dashed {
			dc.SetDash(4, 3)
		}
		dc.SetHexColor(colorOr(l.StrokeColor, "#000000"))
		dc.SetLineWidth(strokeWidth(l))
		dc.Stroke()
		dc.SetDash()
	}

	for _, c := range g.Circles {
		x, y := vp.px(c.Center)
		dc.DrawCircle(x, y, math.Max(1, c.Radius*vp.scale))
		dc.SetHexColor(colorOr(c.FillColor, "#888888"))
		dc.Fill()
	}

	for _, p := range g.Points {
		x, y := vp.px(pointOf(p))
		dc.DrawCircle(x, y, 3)
		dc.SetHexColor(colorOr(p.Color, "#1e1e1e"))
		dc.Fill()
	}

	for _, t := range g.Texts {
		x, y := vp.px(textAnchor(t))
		dc.SetHexColor(colorOr(t.Color, "#333333"))
		dc.DrawStringAnchored(t.Text, x, y, 0.5, 0.5)
	}
	return dc, nil
}

// WritePNG encodes g as PNG.
func WritePNG(w io.Writer, g graphics.Graphics, size int) error {
	dc, err := renderPNG(g, size)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// ExportPNG writes g to path as PNG.
func ExportPNG(path string, g graphics.Graphics, size int) error {
	dc, err := renderPNG(g, size)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to write PNG: %w", err)
	}
	return nil
}
