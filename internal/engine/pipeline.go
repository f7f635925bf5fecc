package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/piwi3910/SchemTrace/internal/geom"
	"github.com/piwi3910/SchemTrace/internal/graphics"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/solver"
	"github.com/piwi3910/SchemTrace/internal/spatial"
)

// Stage names reported in RoutingResult.Stages.
const (
	StageGuidelines  = "guidelines"
	StagePairs       = "pairs"
	StageLines       = "lines"
	StageLabels      = "net-labels"
	StageLabelsRetry = "net-labels-retry"
	StageOverlap     = "overlap"
	StageMerge       = "merge"
	StageCleanup     = "cleanup"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger routes solver logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.Logger = l }
}

// Pipeline runs every routing stage in order. Each step runs one stage to
// completion; Result is filled in as stages finish, so a failed pipeline
// still carries everything produced before the failure.
type Pipeline struct {
	solver.Base

	Settings model.Settings

	schematic *model.Schematic
	index     *spatial.Index
	nets      []Net
	stage     int
	current   solver.Solver

	Guidelines *GuidelineSolver
	Pairs      *PairSolver
	Lines      *LinesSolver
	Labels     *NetLabelSolver
	Overlap    *OverlapSolver
	Merge      *MergeSolver
	Cleanup    *CleanupSolver

	Result model.RoutingResult
}

// NewPipeline validates the problem and settings and indexes the chips.
// Malformed input is returned as an error before any stage runs.
func NewPipeline(problem model.InputProblem, settings model.Settings, opts ...Option) (*Pipeline, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	s, err := model.NewSchematic(problem)
	if err != nil {
		return nil, fmt.Errorf("invalid problem: %w", err)
	}
	p := &Pipeline{
		Base:      solver.Base{Name: "pipeline", MaxIterations: 32},
		Settings:  settings,
		schematic: s,
	}
	for _, opt := range opts {
		opt(p)
	}

	chips := s.Chips()
	obstacles := make([]spatial.Obstacle, len(chips))
	for i, c := range chips {
		obstacles[i] = spatial.Obstacle{ID: c.ChipID, Bounds: c.Bounds()}
	}
	p.index = spatial.NewIndex(obstacles)
	p.nets = GroupNets(s.Problem())
	p.Result = model.RoutingResult{RunID: uuid.NewString(), Chips: chips}
	return p, nil
}

// Nets returns the nets the pipeline routes.
func (p *Pipeline) Nets() []Net {
	return p.nets
}

func (p *Pipeline) stages() []func() error {
	return []func() error{
		p.runGuidelines,
		p.runPairs,
		p.runLines,
		p.runLabels,
		p.runOverlap,
		p.runMerge,
		p.runCleanup,
	}
}

func (p *Pipeline) Step() {
	stages := p.stages()
	if p.stage >= len(stages) {
		p.finalize()
		return
	}
	run := stages[p.stage]
	p.stage++
	if err := run(); err != nil {
		p.abort(err)
	}
}

// runStage drives sub to completion and records its status.
func (p *Pipeline) runStage(sub solver.Solver) error {
	b := sub.State()
	b.Logger = p.Logger
	p.current = sub
	err := solver.Solve(sub)
	p.Result.Stages = append(p.Result.Stages, model.StageStatus{
		Name:       b.Name,
		Solved:     b.IsSolved(),
		Failed:     b.IsFailed(),
		Error:      b.ErrorString(),
		Iterations: b.Iterations,
	})
	p.Log().Debug("stage finished", "stage", b.Name, "status", b.Status.String(), "iterations", b.Iterations)
	return err
}

func (p *Pipeline) runGuidelines() error {
	p.Guidelines = NewGuidelineSolver(p.schematic, p.nets, p.Settings)
	if err := p.runStage(p.Guidelines); err != nil {
		return err
	}
	p.Result.Guidelines = p.Guidelines.Guidelines
	p.Result.RestrictedLines = p.Guidelines.RestrictedLines
	return nil
}

func (p *Pipeline) runPairs() error {
	p.Pairs = NewPairSolver(p.schematic, p.nets, p.Guidelines.RestrictedLines, p.Settings)
	if err := p.runStage(p.Pairs); err != nil {
		return err
	}
	p.Result.Pairs = p.Pairs.Pairs
	return nil
}

func (p *Pipeline) runLines() error {
	p.Lines = NewLinesSolver(p.schematic, p.index, p.Pairs.Pairs, p.Guidelines.Guidelines, p.Settings)
	if err := p.runStage(p.Lines); err != nil {
		return err
	}
	p.Result.Traces = p.Lines.Traces
	p.Result.PairFailures = p.Lines.Failures
	return nil
}

// runLabels places labels and, when some could not be placed, retries
// once with budgets scaled by RetryBudgetMultiplier. The retry is kept
// only when it places more labels.
func (p *Pipeline) runLabels() error {
	p.Labels = NewNetLabelSolver(p.schematic, p.index, p.nets, p.Result.Traces, p.Settings)
	if err := p.runStage(p.Labels); err != nil {
		return err
	}
	if len(p.Labels.Failures) > 0 && p.Settings.RetryBudgetMultiplier > 1 {
		retry := NewNetLabelSolver(p.schematic, p.index, p.nets, p.Result.Traces,
			p.Settings.ScaleBudgets(p.Settings.RetryBudgetMultiplier))
		retry.Name = StageLabelsRetry
		if err := p.runStage(retry); err == nil && len(retry.Failures) < len(p.Labels.Failures) {
			p.Labels = retry
		}
	}
	p.Result.Labels = p.Labels.Labels
	p.Result.LabelFailures = p.Labels.Failures
	return nil
}

// runOverlap never aborts the pipeline: residual overlaps are counted and
// the best layout found is kept.
func (p *Pipeline) runOverlap() error {
	p.Overlap = NewOverlapSolver(p.schematic, p.index, p.Result.Traces, p.Result.Labels, p.Settings)
	if err := p.runStage(p.Overlap); err != nil {
		p.Log().Warn("overlaps left unresolved", "count", p.Overlap.Unresolved, "error", err)
	}
	p.Result.Traces = p.Overlap.Traces
	p.Result.Labels = p.Overlap.Labels
	p.Result.UnresolvedOverlaps = p.Overlap.Unresolved
	return nil
}

func (p *Pipeline) runMerge() error {
	p.Merge = NewMergeSolver(p.schematic, p.Result.Traces, p.Settings)
	if err := p.runStage(p.Merge); err != nil {
		return err
	}
	p.Result.Traces = p.Merge.Traces
	return nil
}

func (p *Pipeline) runCleanup() error {
	p.Cleanup = NewCleanupSolver(p.schematic, p.index, p.Result.Traces, p.Result.Labels, p.Result.RestrictedLines, p.Settings)
	if err := p.runStage(p.Cleanup); err != nil {
		return err
	}
	p.Result.Traces = p.Cleanup.Traces
	return nil
}

func (p *Pipeline) abort(err error) {
	p.Result.Solved = false
	p.Result.Failed = true
	p.Result.Error = err.Error()
	p.FailWith(err)
}

// finalize sets the overall verdict. Unroutable pairs, unplaced labels,
// residual overlaps and pins a trace claims but does not reach leave Solved
// false; only residual overlaps with
// FailOnUnresolvedOverlap set mark the run failed.
func (p *Pipeline) finalize() {
	var problems []string
	if n := len(p.Result.PairFailures); n > 0 {
		problems = append(problems, fmt.Sprintf("%d unroutable pair(s)", n))
	}
	if n := len(p.Result.LabelFailures); n > 0 {
		problems = append(problems, fmt.Sprintf("%d unplaced label(s)", n))
	}
	if n := p.Result.UnresolvedOverlaps; n > 0 {
		problems = append(problems, fmt.Sprintf("%d unresolved overlap(s)", n))
	}
	p.Result.DetachedPins = DetachedPins(p.schematic, p.Result.Traces)
	if n := len(p.Result.DetachedPins); n > 0 {
		p.Log().Warn("traces miss their pins", "pins", p.Result.DetachedPins)
		problems = append(problems, fmt.Sprintf("%d detached pin(s)", n))
	}
	p.Result.Solved = len(problems) == 0
	p.Result.Error = strings.Join(problems, "; ")
	if p.Result.UnresolvedOverlaps > 0 && p.Settings.FailOnUnresolvedOverlap {
		p.Result.Failed = true
		p.Fail("%s", p.Result.Error)
		return
	}
	p.MarkSolved()
}

// DetachedPins lists the pins some trace claims in PinIDs without its
// polyline reaching them.
func DetachedPins(s *model.Schematic, traces []model.TracePath) []string {
	var out []string
	for _, t := range traces {
		for _, id := range t.PinIDs {
			ref, ok := s.PinRef(id)
			if !ok || geom.OnPath(t.Points, ref.Point) {
				continue
			}
			out = appendUnique(out, id)
		}
	}
	return out
}

// Route solves problem with settings. ctx is checked between stages; on
// cancellation the partial result is returned along with ctx's error.
// Malformed input returns an error before any stage runs.
func Route(ctx context.Context, problem model.InputProblem, settings model.Settings, opts ...Option) (model.RoutingResult, error) {
	p, err := NewPipeline(problem, settings, opts...)
	if err != nil {
		return model.RoutingResult{Failed: true, Error: err.Error()}, err
	}
	for !p.Done() {
		if err := ctx.Err(); err != nil {
			p.abort(err)
			return p.Result, err
		}
		if p.Iterations >= p.MaxIterations {
			p.abort(fmt.Errorf("%s: %w (%d)", p.Name, solver.ErrMaxIterations, p.MaxIterations))
			break
		}
		p.Step()
		p.Iterations++
	}
	p.Log().Info("routing finished",
		"run", p.Result.RunID,
		"traces", len(p.Result.Traces),
		"labels", len(p.Result.Labels),
		"solved", p.Result.Solved,
		"failed", p.Result.Failed,
	)
	if p.Result.Failed {
		return p.Result, p.Err
	}
	return p.Result, nil
}

func (p *Pipeline) Visualize() graphics.Graphics {
	out := graphics.Graphics{Title: p.Name}
	for _, c := range p.Result.Chips {
		out.Rects = append(out.Rects, graphics.Rect{
			Center: c.Center, Width: c.Width, Height: c.Height,
			FillColor: "#eeeeee", StrokeColor: "#555555", Label: c.ChipID, Step: p.Iterations,
		})
		for _, pin := range c.Pins {
			out.Points = append(out.Points, graphics.Point{X: pin.X, Y: pin.Y, Label: pin.PinID, Step: p.Iterations})
		}
	}
	if p.current != nil {
		out.Merge(p.current.Visualize())
	}
	for _, l := range p.Result.Labels {
		out.Texts = append(out.Texts, graphics.Text{X: l.Center.X, Y: l.Center.Y, Text: l.NetID, Step: p.Iterations})
	}
	if p.Result.Failed && !out.IsEmpty() {
		b := out.Bounds()
		out.Texts = append(out.Texts, graphics.Text{X: b.MinX, Y: b.MaxY + 0.5, Text: p.Result.Error, Color: "#cc3333", Step: p.Iterations})
	}
	return out
}
