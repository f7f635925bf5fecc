package solver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/SchemTrace/internal/graphics"
)

type countdown struct {
	Base
	remaining int
	failAt    int
}

func (c *countdown) Step() {
	if c.failAt > 0 && c.Iterations+1 == c.failAt {
		c.Fail("gave up at step %d", c.failAt)
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		c.MarkSolved()
	}
}

func (c *countdown) Visualize() graphics.Graphics { return graphics.Graphics{} }

func TestSolve_ReachesSolved(t *testing.T) {
	s := &countdown{Base: Base{Name: "countdown"}, remaining: 3}
	require.NoError(t, Solve(s))
	assert.True(t, s.IsSolved())
	assert.Equal(t, 3, s.Iterations)
}

func TestSolve_PropagatesFailure(t *testing.T) {
	s := &countdown{Base: Base{Name: "countdown"}, remaining: 10, failAt: 2}
	err := Solve(s)
	require.Error(t, err)
	assert.True(t, s.IsFailed())
	assert.Contains(t, err.Error(), "gave up at step 2")
}

func TestSolve_IterationGuard(t *testing.T) {
	s := &countdown{Base: Base{Name: "countdown", MaxIterations: 5}, remaining: 1_000}
	err := Solve(s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxIterations))
	assert.Equal(t, 5, s.Iterations)
	assert.Equal(t, Failed, s.Status)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "solved", Solved.String())
	assert.Equal(t, "failed", Failed.String())
}
