package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/graphics"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/solver"
	"github.com/piwi3910/SchemTrace/internal/spatial"
)

// lineOutcome is the routed path or the failure for one pair.
type lineOutcome struct {
	path   []geom.Point
	err    error
	solver string
}

// LinesSolver routes every connection pair. Sequentially each step routes
// one pair; with Parallelism > 1 the first step routes them all on a
// bounded worker set. Results are always assembled in pair order.
type LinesSolver struct {
	solver.Base

	schematic  *model.Schematic
	index      *spatial.Index
	pairs      []model.ConnectionPair
	guidelines []model.Guideline
	settings   model.Settings

	outcomes []lineOutcome
	next     int

	Traces   []model.TracePath
	Failures []model.PairFailure
}

// NewLinesSolver prepares routing for pairs.
func NewLinesSolver(s *model.Schematic, idx *spatial.Index, pairs []model.ConnectionPair,
	guidelines []model.Guideline, settings model.Settings) *LinesSolver {
	return &LinesSolver{
		Base:       solver.Base{Name: "lines", MaxIterations: settings.MaxIterations},
		schematic:  s,
		index:      idx,
		pairs:      pairs,
		guidelines: guidelines,
		settings:   settings,
		outcomes:   make([]lineOutcome, len(pairs)),
	}
}

func (ls *LinesSolver) Step() {
	if ls.settings.Parallelism > 1 && ls.next == 0 && len(ls.pairs) > 1 {
		ls.routeConcurrently()
		ls.next = len(ls.pairs)
	}
	if ls.next < len(ls.pairs) {
		ls.outcomes[ls.next] = ls.route(ls.pairs[ls.next])
		ls.next++
		return
	}
	ls.collect()
	ls.MarkSolved()
}

func (ls *LinesSolver) routeConcurrently() {
	sem := make(chan struct{}, ls.settings.Parallelism)
	var wg sync.WaitGroup
	for i, p := range ls.pairs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p model.ConnectionPair) {
			defer wg.Done()
			defer func() { <-sem }()
			ls.outcomes[i] = ls.route(p)
		}(i, p)
	}
	wg.Wait()
}

// route runs the guideline search and falls back to the direct search.
func (ls *LinesSolver) route(p model.ConnectionPair) lineOutcome {
	primary := NewSingleLineSolver(ls.schematic, ls.index, p, ls.guidelines, ls.settings)
	primary.Logger = ls.Logger
	err := solver.Solve(primary)
	if err == nil {
		return lineOutcome{path: primary.Path, solver: "guideline"}
	}
	if !ls.settings.UseDirectFallback {
		return lineOutcome{err: err}
	}
	fallback := NewDirectLineSolver(ls.schematic, ls.index, p, ls.settings)
	fallback.Logger = ls.Logger
	if ferr := solver.Solve(fallback); ferr != nil {
		// The fixed message wins when both searches simply ran dry.
		if errors.Is(err, ErrNoCandidatePath) {
			return lineOutcome{err: err}
		}
		return lineOutcome{err: fmt.Errorf("%w; fallback: %v", err, ferr)}
	}
	return lineOutcome{path: fallback.Path, solver: "direct"}
}

func (ls *LinesSolver) collect() {
	ls.Traces = ls.Traces[:0]
	ls.Failures = ls.Failures[:0]
	for i, p := range ls.pairs {
		o := ls.outcomes[i]
		if o.err != nil {
			ls.Failures = append(ls.Failures, model.PairFailure{PairID: p.ID, NetID: p.NetID, Error: o.err.Error()})
			ls.Log().Warn("pair unroutable", "pair", p.ID, "error", o.err)
			continue
		}
		ls.Traces = append(ls.Traces, traceForPair(p, o.path))
		ls.Log().Debug("pair routed", "pair", p.ID, "solver", o.solver, "points", len(o.path))
	}
}

func traceForPair(p model.ConnectionPair, pts []geom.Point) model.TracePath {
	chips := []string{p.Pins[0].ChipID}
	if p.Pins[1].ChipID != p.Pins[0].ChipID {
		chips = append(chips, p.Pins[1].ChipID)
	}
	return model.TracePath{
		ID:         "trace:" + p.ID,
		NetID:      p.NetID,
		PairIDs:    []string{p.ID},
		UserNetIDs: append([]string(nil), p.UserNetIDs...),
		PinIDs:     []string{p.Pins[0].PinID, p.Pins[1].PinID},
		ChipIDs:    chips,
		Points:     append([]geom.Point(nil), pts...),
	}
}

func (ls *LinesSolver) Visualize() graphics.Graphics {
	out := graphics.Graphics{Title: ls.Name}
	for i, p := range ls.pairs {
		if i >= ls.next {
			break
		}
		o := ls.outcomes[i]
		if o.err != nil {
			out.Lines = append(out.Lines, graphics.Line{
				Points:      []geom.Point{p.Pins[0].Point, p.Pins[1].Point},
				StrokeColor: "#cc3333",
				Dashed:      true,
				Label:       p.ID,
				Step:        ls.Iterations,
			})
			continue
		}
		out.Lines = append(out.Lines, graphics.Line{Points: o.path, StrokeColor: "#2a6fdb", Label: p.NetID, Step: ls.Iterations})
	}
	return out
}
