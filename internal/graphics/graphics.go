// Package graphics is the read-only visualization export every solver
// produces for external debugging tools and file exporters.
package graphics

import "github.com/piwi3910/SchemTrace/internal/geom"

// Point is a marker.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
	Color string  `json:"color,omitempty"`
	Step  int     `json:"step,omitempty"`
}

// Line is an open polyline.
type Line struct {
	Points      []geom.Point `json:"points"`
	StrokeColor string       `json:"strokeColor,omitempty"`
	StrokeWidth float64      `json:"strokeWidth,omitempty"`
	Dashed      bool         `json:"dashed,omitempty"`
	Label       string       `json:"label,omitempty"`
	Step        int          `json:"step,omitempty"`
}

// Rect is an axis-aligned box given by center and size.
type Rect struct {
	Center      geom.Point `json:"center"`
	Width       float64    `json:"width"`
	Height      float64    `json:"height"`
	FillColor   string     `json:"fill,omitempty"`
	StrokeColor string     `json:"stroke,omitempty"`
	Label       string     `json:"label,omitempty"`
	Step        int        `json:"step,omitempty"`
}

// Bounds returns the rectangle's extent.
func (r Rect) Bounds() geom.Bounds {
	return geom.BoundsFromCenter(r.Center, r.Width, r.Height)
}

// Circle marks a radius around a center.
type Circle struct {
	Center    geom.Point `json:"center"`
	Radius    float64    `json:"radius"`
	FillColor string     `json:"fill,omitempty"`
	Label     string     `json:"label,omitempty"`
	Step      int        `json:"step,omitempty"`
}

// Text is a free-standing annotation.
type Text struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty"`
	Step     int     `json:"step,omitempty"`
}

// Graphics is a bag of primitives.
type Graphics struct {
	Title   string   `json:"title,omitempty"`
	Points  []Point  `json:"points,omitempty"`
	Lines   []Line   `json:"lines,omitempty"`
	Rects   []Rect   `json:"rects,omitempty"`
	Circles []Circle `json:"circles,omitempty"`
	Texts   []Text   `json:"texts,omitempty"`
}

// Merge appends every primitive of others onto g.
func (g *Graphics) Merge(others ...Graphics) {
	for _, o := range others {
		g.Points = append(g.Points, o.Points...)
		g.Lines = append(g.Lines, o.Lines...)
		g.Rects = append(g.Rects, o.Rects...)
		g.Circles = append(g.Circles, o.Circles...)
		g.Texts = append(g.Texts, o.Texts...)
	}
}

// IsEmpty reports whether g holds no primitives.
func (g Graphics) IsEmpty() bool {
	return len(g.Points) == 0 && len(g.Lines) == 0 && len(g.Rects) == 0 &&
		len(g.Circles) == 0 && len(g.Texts) == 0
}

// Bounds returns the extent of all primitives, text anchors included.
func (g Graphics) Bounds() geom.Bounds {
	var pts []geom.Point
	for _, p := range g.Points {
		pts = append(pts, geom.Pt(p.X, p.Y))
	}
	for _, l := range g.Lines {
		pts = append(pts, l.Points...)
	}
	for _, r := range g.Rects {
		b := r.Bounds()
		pts = append(pts, geom.Pt(b.MinX, b.MinY), geom.Pt(b.MaxX, b.MaxY))
	}
	for _, c := range g.Circles {
		pts = append(pts, c.Center.Add(-c.Radius, -c.Radius), c.Center.Add(c.Radius, c.Radius))
	}
	for _, t := range g.Texts {
		pts = append(pts, geom.Pt(t.X, t.Y))
	}
	return geom.BoundsOfPoints(pts)
}

// WithStep returns a copy of g whose primitives are all tagged with step.
func (g Graphics) WithStep(step int) Graphics {
	out := Graphics{Title: g.Title}
	for _, p := range g.Points {
		p.Step = step
		out.Points = append(out.Points, p)
	}
	for _, l := range g.Lines {
		l.Step = step
		out.Lines = append(out.Lines, l)
	}
	for _, r := range g.Rects {
		r.Step = step
		out.Rects = append(out.Rects, r)
	}
	for _, c := range g.Circles {
		c.Step = step
		out.Circles = append(out.Circles, c)
	}
	for _, t := range g.Texts {
		t.Step = step
		out.Texts = append(out.Texts, t)
	}
	return out
}
