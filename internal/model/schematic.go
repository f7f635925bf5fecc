package model

import (
	"fmt"
	"math"
	"sync"

	"github.com/piwi3910/SchemTrace/internal/geom"
)

type pinLoc struct {
	chip int
	pin  int
}

type facingEntry struct {
	version uint64
	dir     Direction
}

// Schematic is a validated, indexed problem. Chips are copies with their
// dimensions already grown to fit every owned pin.
type Schematic struct {
	problem InputProblem
	chips   []Chip
	chipIdx map[string]int
	pinIdx  map[string]pinLoc
	pinIDs  []string

	mu      sync.Mutex
	version uint64
	facing  map[string]facingEntry
}

// NewSchematic validates p and returns its indexed form. Malformed input
// is reported with one of the package's sentinel errors.
func NewSchematic(p InputProblem) (*Schematic, error) {
	s := &Schematic{
		problem: p,
		chips:   make([]Chip, len(p.Chips)),
		chipIdx: make(map[string]int, len(p.Chips)),
		pinIdx:  make(map[string]pinLoc),
		facing:  make(map[string]facingEntry),
		version: 1,
	}

	for ci, c := range p.Chips {
		if c.ChipID == "" {
			return nil, fmt.Errorf("chip %d: empty chipId: %w", ci, ErrDegenerateChip)
		}
		if _, dup := s.chipIdx[c.ChipID]; dup {
			return nil, fmt.Errorf("chip %q: %w", c.ChipID, ErrDuplicateChip)
		}
		if !c.Center.IsFinite() || !finite(c.Width) || !finite(c.Height) || c.Width < 0 || c.Height < 0 {
			return nil, fmt.Errorf("chip %q: center %v size %gx%g: %w",
				c.ChipID, c.Center, c.Width, c.Height, ErrDegenerateChip)
		}
		cc := c
		cc.Pins = make([]Pin, len(c.Pins))
		for pi, pin := range c.Pins {
			if pin.PinID == "" {
				return nil, fmt.Errorf("chip %q pin %d: empty pinId: %w", c.ChipID, pi, ErrDegenerateChip)
			}
			if _, dup := s.pinIdx[pin.PinID]; dup {
				return nil, fmt.Errorf("pin %q: %w", pin.PinID, ErrDuplicatePin)
			}
			if !finite(pin.X) || !finite(pin.Y) {
				return nil, fmt.Errorf("pin %q: non-finite position: %w", pin.PinID, ErrDegenerateChip)
			}
			pin.ChipID = c.ChipID
			cc.Pins[pi] = pin
			s.pinIdx[pin.PinID] = pinLoc{chip: ci, pin: pi}
			s.pinIDs = append(s.pinIDs, pin.PinID)
		}
		fitPins(&cc)
		s.chips[ci] = cc
		s.chipIdx[c.ChipID] = ci
	}

	for i, dc := range p.DirectConnections {
		for _, id := range dc.PinIDs {
			if _, ok := s.pinIdx[id]; !ok {
				return nil, fmt.Errorf("direct connection %d: pin %q: %w", i, id, ErrUnknownPin)
			}
		}
		if dc.PinIDs[0] == dc.PinIDs[1] {
			return nil, fmt.Errorf("direct connection %d joins pin %q to itself: %w",
				i, dc.PinIDs[0], ErrInvalidConnection)
		}
	}
	for i, nc := range p.NetConnections {
		if nc.NetID == "" {
			return nil, fmt.Errorf("net connection %d: empty netId: %w", i, ErrInvalidConnection)
		}
		if len(nc.PinIDs) == 0 {
			return nil, fmt.Errorf("net connection %q has no pins: %w", nc.NetID, ErrInvalidConnection)
		}
		for _, id := range nc.PinIDs {
			if _, ok := s.pinIdx[id]; !ok {
				return nil, fmt.Errorf("net connection %q: pin %q: %w", nc.NetID, id, ErrUnknownPin)
			}
		}
	}
	for netID, dirs := range p.AvailableNetLabelOrientations {
		for _, d := range dirs {
			if !d.Valid() {
				return nil, fmt.Errorf("net %q: orientation %q: %w", netID, d, ErrInvalidOrientation)
			}
		}
	}
	if !finite(p.MaxMspPairDistance) || p.MaxMspPairDistance < 0 {
		return nil, fmt.Errorf("maxMspPairDistance %g: %w", p.MaxMspPairDistance, ErrInvalidConnection)
	}
	return s, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// fitPins grows the chip so every pin lies on or inside its bounds. The
// center stays put; dimensions never shrink.
func fitPins(c *Chip) {
	for _, p := range c.Pins {
		if w := 2 * math.Abs(p.X-c.Center.X); w > c.Width {
			c.Width = w
		}
		if h := 2 * math.Abs(p.Y-c.Center.Y); h > c.Height {
			c.Height = h
		}
	}
}

// Problem returns the input with chips replaced by their fitted copies.
func (s *Schematic) Problem() InputProblem {
	p := s.problem
	p.Chips = s.Chips()
	return p
}

// Chips returns copies of every fitted chip in input order.
func (s *Schematic) Chips() []Chip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Chip, len(s.chips))
	for i, c := range s.chips {
		c.Pins = append([]Pin(nil), c.Pins...)
		out[i] = c
	}
	return out
}

// Chip returns the fitted chip with the given ID.
func (s *Schematic) Chip(id string) (Chip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.chipIdx[id]
	if !ok {
		return Chip{}, false
	}
	return s.chips[i], true
}

// Pin returns the pin with the given ID, its ChipID filled in.
func (s *Schematic) Pin(id string) (Pin, bool) {
	loc, ok := s.pinIdx[id]
	if !ok {
		return Pin{}, false
	}
	return s.chips[loc.chip].Pins[loc.pin], true
}

// PinIDs returns every pin ID in chip then pin order.
func (s *Schematic) PinIDs() []string {
	return append([]string(nil), s.pinIDs...)
}

// PinRef returns the routing view of a pin, facing direction included.
func (s *Schematic) PinRef(id string) (PinRef, bool) {
	p, ok := s.Pin(id)
	if !ok {
		return PinRef{}, false
	}
	return PinRef{PinID: p.PinID, ChipID: p.ChipID, Point: p.Point(), Facing: s.Facing(id)}, true
}

// Version returns the geometry version. It changes whenever a chip moves
// or is resized.
func (s *Schematic) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Facing returns the outward normal of the chip edge nearest the pin. The
// value is cached until the geometry version changes.
func (s *Schematic) Facing(pinID string) Direction {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.pinIdx[pinID]
	if !ok {
		return DirUnknown
	}
	if e, ok := s.facing[pinID]; ok && e.version == s.version {
		return e.dir
	}
	c := s.chips[loc.chip]
	d := FacingDirection(c.Bounds(), c.Pins[loc.pin].Point())
	s.facing[pinID] = facingEntry{version: s.version, dir: d}
	return d
}

// SetChipGeometry moves or resizes a chip. Pins keep their absolute
// positions and the chip is refitted around them. Cached facing
// directions become stale.
func (s *Schematic) SetChipGeometry(chipID string, center geom.Point, width, height float64) error {
	if !center.IsFinite() || !finite(width) || !finite(height) || width < 0 || height < 0 {
		return fmt.Errorf("chip %q: %w", chipID, ErrDegenerateChip)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.chipIdx[chipID]
	if !ok {
		return fmt.Errorf("chip %q: not found", chipID)
	}
	c := &s.chips[i]
	c.Center, c.Width, c.Height = center, width, height
	fitPins(c)
	s.version++
	return nil
}

// FacingDirection picks the outward normal of the edge of b nearest p.
// Ties resolve in x+, x-, y+, y- order. A chip without area faces nowhere.
func FacingDirection(b geom.Bounds, p geom.Point) Direction {
	if b.Width() < geom.Epsilon && b.Height() < geom.Epsilon {
		return DirUnknown
	}
	dists := []struct {
		dir Direction
		d   float64
	}{
		{DirXPos, b.MaxX - p.X},
		{DirXNeg, p.X - b.MinX},
		{DirYPos, b.MaxY - p.Y},
		{DirYNeg, p.Y - b.MinY},
	}
	best := dists[0]
	for _, c := range dists[1:] {
		if c.d < best.d-geom.Epsilon {
			best = c
		}
	}
	return best.dir
}
