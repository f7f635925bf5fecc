// Package solver provides the step-driven solver contract shared by every
// routing stage: a tagged status, a bounded Step function and a driver
// loop with an iteration ceiling.
package solver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/piwi3910/SchemTrace/internal/graphics"
)

// ErrMaxIterations is reported when a solver exceeds its iteration ceiling.
var ErrMaxIterations = errors.New("max iterations reached")

// DefaultMaxIterations bounds a solver that did not set its own ceiling.
const DefaultMaxIterations = 100_000

// Status is the tagged state of a solver.
type Status int

const (
	Pending Status = iota
	Solved
	Failed
)

func (s Status) String() string {
	switch s {
	case Solved:
		return "solved"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Solver is implemented by every pipeline stage.
type Solver interface {
	// Step advances the solver by one bounded unit of work.
	Step()
	// State exposes the embedded bookkeeping.
	State() *Base
	// Visualize returns the solver's current debug geometry.
	Visualize() graphics.Graphics
}

// Base carries status, error and iteration count. Embed it in a solver.
type Base struct {
	Name          string
	Status        Status
	Err           error
	Iterations    int
	MaxIterations int
	Logger        *slog.Logger
}

// State returns b itself so embedding types satisfy Solver.
func (b *Base) State() *Base { return b }

// Done reports whether the solver reached a terminal state.
func (b *Base) Done() bool { return b.Status != Pending }

// IsSolved reports whether the solver finished successfully.
func (b *Base) IsSolved() bool { return b.Status == Solved }

// IsFailed reports whether the solver finished with an error.
func (b *Base) IsFailed() bool { return b.Status == Failed }

// MarkSolved moves the solver to the solved state.
func (b *Base) MarkSolved() {
	b.Status = Solved
	b.Err = nil
}

// Fail moves the solver to the failed state with a formatted error.
func (b *Base) Fail(format string, args ...any) {
	b.Status = Failed
	b.Err = fmt.Errorf(format, args...)
}

// FailWith moves the solver to the failed state with err.
func (b *Base) FailWith(err error) {
	b.Status = Failed
	b.Err = err
}

// ErrorString returns the failure message or "".
func (b *Base) ErrorString() string {
	if b.Err == nil {
		return ""
	}
	return b.Err.Error()
}

// Log returns the configured logger or the process default.
func (b *Base) Log() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Solve drives s until it is solved or failed, or until its iteration
// ceiling trips. The returned error is the solver's failure, if any.
func Solve(s Solver) error {
	b := s.State()
	limit := b.MaxIterations
	if limit <= 0 {
		limit = DefaultMaxIterations
	}
	for !b.Done() {
		if b.Iterations >= limit {
			b.FailWith(fmt.Errorf("%s: %w (%d)", b.Name, ErrMaxIterations, limit))
			break
		}
		s.Step()
		b.Iterations++
	}
	b.Log().Debug("solver finished",
		"solver", b.Name,
		"status", b.Status.String(),
		"iterations", b.Iterations,
		"error", b.ErrorString(),
	)
	return b.Err
}
