package model

import "github.com/piwi3910/SchemTrace/internal/geom"

// Direction is an axis-aligned outward direction. It describes both the
// side of a chip a pin faces and the side a net label extends towards.
type Direction string

const (
	DirXPos Direction = "x+"
	DirXNeg Direction = "x-"
	DirYPos Direction = "y+"
	DirYNeg Direction = "y-"
	// DirUnknown is returned for pins whose chip has no area to face out of.
	DirUnknown Direction = ""
)

// AllDirections lists the four directions in canonical order.
var AllDirections = []Direction{DirXPos, DirXNeg, DirYPos, DirYNeg}

// Vector returns the unit step of d.
func (d Direction) Vector() (dx, dy float64) {
	switch d {
	case DirXPos:
		return 1, 0
	case DirXNeg:
		return -1, 0
	case DirYPos:
		return 0, 1
	case DirYNeg:
		return 0, -1
	default:
		return 0, 0
	}
}

// IsHorizontal reports whether d points along the x axis.
func (d Direction) IsHorizontal() bool {
	return d == DirXPos || d == DirXNeg
}

// IsVertical reports whether d points along the y axis.
func (d Direction) IsVertical() bool {
	return d == DirYPos || d == DirYNeg
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	switch d {
	case DirXPos, DirXNeg, DirYPos, DirYNeg:
		return true
	}
	return false
}

// Pin is a connection point owned by exactly one chip.
type Pin struct {
	PinID  string  `json:"pinId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	ChipID string  `json:"chipId,omitempty"`
}

// Point returns the pin location.
func (p Pin) Point() geom.Point {
	return geom.Point{X: p.X, Y: p.Y}
}

// Chip is a rectangular component with pins on or inside its boundary.
type Chip struct {
	ChipID string     `json:"chipId"`
	Center geom.Point `json:"center"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Pins   []Pin      `json:"pins"`
}

// Bounds returns center ± (width/2, height/2).
func (c Chip) Bounds() geom.Bounds {
	return geom.BoundsFromCenter(c.Center, c.Width, c.Height)
}

// DirectConnection wires exactly two pins.
type DirectConnection struct {
	PinIDs [2]string `json:"pinIds"`
	NetID  string    `json:"netId,omitempty"`
}

// NetConnection groups one or more pins under a named net.
type NetConnection struct {
	PinIDs        []string `json:"pinIds"`
	NetID         string   `json:"netId"`
	NetLabelWidth float64  `json:"netLabelWidth,omitempty"`
}

// InputProblem is the routing request built by the host application.
type InputProblem struct {
	Chips                         []Chip                 `json:"chips"`
	DirectConnections             []DirectConnection     `json:"directConnections"`
	NetConnections                []NetConnection        `json:"netConnections"`
	AvailableNetLabelOrientations map[string][]Direction `json:"availableNetLabelOrientations,omitempty"`
	// MaxMspPairDistance caps the Manhattan length of a spanning-tree pair.
	// Zero disables the cap.
	MaxMspPairDistance float64 `json:"maxMspPairDistance,omitempty"`
}

// Guideline is a candidate alignment coordinate. A horizontal guideline
// fixes y, a vertical one fixes x.
type Guideline struct {
	Orientation geom.Orientation `json:"orientation"`
	Coord       float64          `json:"coord"`
}

// RestrictedCenterLine is a line through a chip center that traces of
// other nets should not cross. Span bounds the line on the other axis.
type RestrictedCenterLine struct {
	NetID       string           `json:"netId"`
	ChipID      string           `json:"chipId"`
	Orientation geom.Orientation `json:"orientation"`
	Coord       float64          `json:"coord"`
	SpanMin     float64          `json:"spanMin"`
	SpanMax     float64          `json:"spanMax"`
}

// Crosses reports whether the segment a-b straddles the line within its span.
func (l RestrictedCenterLine) Crosses(a, b geom.Point) bool {
	return geom.SegmentCrossesLine(a, b, l.Orientation, l.Coord, l.SpanMin, l.SpanMax)
}

// PinRef is a pin as seen by the routing stages.
type PinRef struct {
	PinID  string     `json:"pinId"`
	ChipID string     `json:"chipId"`
	Point  geom.Point `json:"point"`
	Facing Direction  `json:"facing,omitempty"`
}

// ConnectionPair is a pin pair that must be wired directly.
type ConnectionPair struct {
	ID         string    `json:"id"`
	NetID      string    `json:"netId"`
	UserNetIDs []string  `json:"userNetIds,omitempty"`
	Pins       [2]PinRef `json:"pins"`
}

// ChipIDs returns the owning chips of both pins.
func (p ConnectionPair) ChipIDs() []string {
	return []string{p.Pins[0].ChipID, p.Pins[1].ChipID}
}

// TracePath is an orthogonal polyline routed for one or more pairs.
type TracePath struct {
	ID         string       `json:"id"`
	NetID      string       `json:"netId"`
	PairIDs    []string     `json:"pairIds"`
	UserNetIDs []string     `json:"userNetIds,omitempty"`
	PinIDs     []string     `json:"pinIds"`
	ChipIDs    []string     `json:"chipIds"`
	Points     []geom.Point `json:"points"`
}

// Clone returns a deep copy of the trace.
func (t TracePath) Clone() TracePath {
	c := t
	c.PairIDs = append([]string(nil), t.PairIDs...)
	c.UserNetIDs = append([]string(nil), t.UserNetIDs...)
	c.PinIDs = append([]string(nil), t.PinIDs...)
	c.ChipIDs = append([]string(nil), t.ChipIDs...)
	c.Points = append([]geom.Point(nil), t.Points...)
	return c
}

// Length returns the Manhattan length of the trace.
func (t TracePath) Length() float64 {
	return geom.PathLength(t.Points)
}

// NetLabelPlacement is a placed net label.
type NetLabelPlacement struct {
	NetID       string     `json:"netId"`
	PinID       string     `json:"pinId"`
	Orientation Direction  `json:"orientation"`
	Anchor      geom.Point `json:"anchor"`
	Center      geom.Point `json:"center"`
	Width       float64    `json:"width"`
	Height      float64    `json:"height"`
	PairIDs     []string   `json:"pairIds,omitempty"`
	// TraceConflict is set when the label was placed over another net's
	// trace and the overlap stage must move that trace.
	TraceConflict bool `json:"traceConflict,omitempty"`
}

// Bounds returns the label box.
func (l NetLabelPlacement) Bounds() geom.Bounds {
	return geom.BoundsFromCenter(l.Center, l.Width, l.Height)
}

// PairFailure records a connection pair no line solver could route.
type PairFailure struct {
	PairID string `json:"pairId"`
	NetID  string `json:"netId"`
	Error  string `json:"error"`
}

// LabelFailure records a net island no label could be placed for.
type LabelFailure struct {
	NetID  string   `json:"netId"`
	PinIDs []string `json:"pinIds"`
	Error  string   `json:"error"`
}

// StageStatus is the outcome of one pipeline stage.
type StageStatus struct {
	Name       string `json:"name"`
	Solved     bool   `json:"solved"`
	Failed     bool   `json:"failed"`
	Error      string `json:"error,omitempty"`
	Iterations int    `json:"iterations"`
}

// RoutingResult is the pipeline output.
type RoutingResult struct {
	RunID string `json:"runId"`
	// Chips are the routed chips after pin-fit expansion.
	Chips              []Chip                 `json:"chips,omitempty"`
	Traces             []TracePath            `json:"traces"`
	Labels             []NetLabelPlacement    `json:"labels"`
	Guidelines         []Guideline            `json:"guidelines,omitempty"`
	RestrictedLines    []RestrictedCenterLine `json:"restrictedLines,omitempty"`
	Pairs              []ConnectionPair       `json:"pairs,omitempty"`
	PairFailures       []PairFailure          `json:"pairFailures,omitempty"`
	LabelFailures      []LabelFailure         `json:"labelFailures,omitempty"`
	UnresolvedOverlaps int                    `json:"unresolvedOverlaps"`
	DetachedPins       []string               `json:"detachedPins,omitempty"`
	Stages             []StageStatus          `json:"stages"`
	Solved             bool                   `json:"solved"`
	Failed             bool                   `json:"failed"`
	Error              string                 `json:"error,omitempty"`
}

// TotalTraceLength sums the Manhattan length of every trace.
func (r RoutingResult) TotalTraceLength() float64 {
	total := 0.0
	for _, t := range r.Traces {
		total += t.Length()
	}
	return total
}

// Stage returns the status of the named stage.
func (r RoutingResult) Stage(name string) (StageStatus, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageStatus{}, false
}
