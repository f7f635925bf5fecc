package export

import (
	"fmt"
	"io"
	"math"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/piwi3910/SchemTrace/internal/graphics"
)

// ImageSize is the longest image edge in pixels used by the SVG and PNG
// exporters when none is given.
const ImageSize = 1200

const imageMargin = 40.0

// WriteSVG renders g as an SVG document whose longest edge is size pixels.
func WriteSVG(w io.Writer, g graphics.Graphics, size int) error {
	if g.IsEmpty() {
		return fmt.Errorf("nothing to draw")
	}
	if size <= 0 {
		size = ImageSize
	}
	vp := newViewport(g.Bounds(), float64(size), imageMargin)
	width, height := vp.size()

	canvas := svg.New(w)
	canvas.Start(int(math.Ceil(width)), int(math.Ceil(height)))
	canvas.Rect(0, 0, int(math.Ceil(width)), int(math.Ceil(height)), "fill:white")
	if g.Title != "" {
		canvas.Title(g.Title)
	}

	for _, r := range g.Rects {
		x, y, rw, rh := vp.rectPx(r)
		fill := r.FillColor
		if fill == "" {
			fill = "none"
		}
		stroke := r.StrokeColor
		if stroke == "" {
			stroke = "#000000"
		}
		canvas.Rect(iround(x), iround(y), iround(rw), iround(rh),
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", fill, stroke))
	}

	for _, l := range g.Lines {
		if len(l.Points) < 2 {
			continue
		}
		xs := make([]int, len(l.Points))
		ys := make([]int, len(l.Points))
		for i, p := range l.Points {
			x, y := vp.px(p)
			xs[i], ys[i] = iround(x), iround(y)
		}
		style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.1f", colorOr(l.StrokeColor, "#000000"), strokeWidth(l))
		if l.Dashed {
			style += ";stroke-dasharray:4,3"
		}
		canvas.Polyline(xs, ys, style)
	}

	for _, c := range g.Circles {
		x, y := vp.px(c.Center)
		canvas.Circle(iround(x), iround(y), max(1, iround(c.Radius*vp.scale)),
			fmt.Sprintf("fill:%s;fill-opacity:0.3", colorOr(c.FillColor, "#888888")))
	}

	for _, p := range g.Points {
		x, y := vp.px(pointOf(p))
		canvas.Circle(iround(x), iround(y), 3, "fill:"+colorOr(p.Color, "#1e1e1e"))
	}

	for _, t := range g.Texts {
		x, y := vp.px(textAnchor(t))
		canvas.Text(iround(x), iround(y), t.Text,
			fmt.Sprintf("text-anchor:middle;dominant-baseline:middle;font-family:sans-serif;font-size:11px;fill:%s", colorOr(t.Color, "#333333")))
	}

	canvas.End()
	return nil
}

// ExportSVG writes g to path as SVG whose longest edge is size pixels.
func ExportSVG(path string, g graphics.Graphics, size int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create SVG file: %w", err)
	}
	if err := WriteSVG(f, g, size); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func iround(v float64) int {
	return int(math.Round(v))
}

func colorOr(c, fallback string) string {
	if c == "" {
		return fallback
	}
	return c
}

func strokeWidth(l graphics.Line) float64 {
	if l.StrokeWidth > 0 {
		return l.StrokeWidth
	}
	return 2
}
