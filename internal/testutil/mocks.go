// Package testutil provides scriptable problem implementations for tests.
package testutil

import (
	"sync/atomic"
)

// MockProblem is a configurable core.Problem for tests. The zero value is not
// usable; construct it with NewMockProblem and override fields as needed.
type MockProblem struct {
	Dim         int
	LB, UB      []float64
	Objectives  int
	Constraints int
	Stochastic  bool
	ProblemName string
	Fn          func(x []float64) []float64

	evals atomic.Uint64
}

// NewMockProblem returns a deterministic single-objective problem over
// [-10, 10]^dim whose fitness is the sum of squares.
func NewMockProblem(dim int) *MockProblem {
	lb := make([]float64, dim)
	ub := make([]float64, dim)
	for i := range lb {
		lb[i] = -10
		ub[i] = 10
	}
	return &MockProblem{
		Dim:         dim,
		LB:          lb,
		UB:          ub,
		Objectives:  1,
		ProblemName: "mock",
		Fn: func(x []float64) []float64 {
			sum := 0.0
			for _, xi := range x {
				sum += xi * xi
			}
			return []float64{sum}
		},
	}
}

func (m *MockProblem) Fitness(x []float64) []float64 {
	m.evals.Add(1)
	return m.Fn(x)
}

func (m *MockProblem) Bounds() (lb, ub []float64) { return m.LB, m.UB }
func (m *MockProblem) Dimension() int             { return m.Dim }
func (m *MockProblem) NumObjectives() int         { return m.Objectives }
func (m *MockProblem) NumConstraints() int        { return m.Constraints }
func (m *MockProblem) IsStochastic() bool         { return m.Stochastic }
func (m *MockProblem) Evaluations() uint64        { return m.evals.Load() }
func (m *MockProblem) Name() string               { return m.ProblemName }
