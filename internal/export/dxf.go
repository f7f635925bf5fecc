package export

import (
	"fmt"

	"github.com/yofu/dxf"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/model"
)

// DXF layer names.
const (
	LayerChips  = "CHIPS"
	LayerPins   = "PINS"
	LayerTraces = "TRACES"
	LayerLabels = "LABELS"
)

// pinRadius is the circle radius drawn for pins, in schematic units.
const pinRadius = 0.02

// ExportDXF writes the result as a layered DXF drawing: chip outlines and
// traces as LINEs, pins as CIRCLEs and net labels as TEXT at the label center.
// Chips and pins round-trip through importer.ImportDXF.
func ExportDXF(path string, result model.RoutingResult) error {
	if len(result.Chips) == 0 {
		return fmt.Errorf("no chips to export")
	}

	d := dxf.NewDrawing()
	// ACI colors: 8 gray, 7 white/black, 5 blue, 3 green.
	d.AddLayer(LayerChips, 8, dxf.DefaultLineType, true)
	for _, c := range result.Chips {
		b := c.Bounds()
		corners := []geom.Point{
			geom.Pt(b.MinX, b.MinY), geom.Pt(b.MaxX, b.MinY),
			geom.Pt(b.MaxX, b.MaxY), geom.Pt(b.MinX, b.MaxY),
		}
		for i := range corners {
			p, q := corners[i], corners[(i+1)%len(corners)]
			d.Line(p.X, p.Y, 0, q.X, q.Y, 0)
		}
	}

	d.AddLayer(LayerPins, 7, dxf.DefaultLineType, true)
	for _, c := range result.Chips {
		for _, p := range c.Pins {
			d.Circle(p.X, p.Y, 0, pinRadius)
		}
	}

	d.AddLayer(LayerTraces, 5, dxf.DefaultLineType, true)
	for _, t := range result.Traces {
		for i := 0; i+1 < len(t.Points); i++ {
			p, q := t.Points[i], t.Points[i+1]
			d.Line(p.X, p.Y, 0, q.X, q.Y, 0)
		}
	}

	d.AddLayer(LayerLabels, 3, dxf.DefaultLineType, true)
	for _, l := range result.Labels {
		d.Text(l.NetID, l.Center.X, l.Center.Y, 0, l.Height*0.8)
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write DXF: %w", err)
	}
	return nil
}
