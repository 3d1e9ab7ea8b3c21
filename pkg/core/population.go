package core

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/paretolabs/devo/pkg/errors"
)

// Population is a fixed-size indexed set of decision vectors with their
// fitness values, bound to the problem that produced them. It is owned by a
// single caller at a time; optimizers receive it by exclusive transfer for
// the duration of one Evolve call and must not retain it afterwards.
type Population struct {
	id      string
	problem Problem
	x       [][]float64
	f       [][]float64
}

// NewPopulation builds a population of np random individuals drawn uniformly
// within the problem bounds and evaluates each of them once.
func NewPopulation(problem Problem, np int, seed int64) (*Population, error) {
	if np <= 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "population size must be positive"),
			errors.Fields{"size": np})
	}

	dim := problem.Dimension()
	lb, ub := problem.Bounds()
	rng := rand.New(rand.NewSource(seed))

	pop := &Population{
		id:      uuid.New().String(),
		problem: problem,
		x:       make([][]float64, np),
		f:       make([][]float64, np),
	}
	for i := 0; i < np; i++ {
		x := make([]float64, dim)
		for j := 0; j < dim; j++ {
			x[j] = lb[j] + rng.Float64()*(ub[j]-lb[j])
		}
		pop.x[i] = x
		pop.f[i] = append([]float64(nil), problem.Fitness(x)...)
	}
	return pop, nil
}

// ID returns the population identity, assigned at construction.
func (p *Population) ID() string { return p.id }

// Problem returns the problem this population was evaluated against.
func (p *Population) Problem() Problem { return p.problem }

// Size returns the number of individuals.
func (p *Population) Size() int { return len(p.x) }

// X returns a deep copy of all decision vectors.
func (p *Population) X() [][]float64 {
	out := make([][]float64, len(p.x))
	for i, xi := range p.x {
		out[i] = append([]float64(nil), xi...)
	}
	return out
}

// F returns a deep copy of all fitness vectors.
func (p *Population) F() [][]float64 {
	out := make([][]float64, len(p.f))
	for i, fi := range p.f {
		out[i] = append([]float64(nil), fi...)
	}
	return out
}

// XAt returns a copy of the decision vector at index i.
func (p *Population) XAt(i int) []float64 {
	return append([]float64(nil), p.x[i]...)
}

// FAt returns a copy of the fitness vector at index i.
func (p *Population) FAt(i int) []float64 {
	return append([]float64(nil), p.f[i]...)
}

// BestIndex returns the index of the individual with the lowest first
// objective.
func (p *Population) BestIndex() int {
	best := 0
	for i := 1; i < len(p.f); i++ {
		if p.f[i][0] < p.f[best][0] {
			best = i
		}
	}
	return best
}

// WorstIndex returns the index of the individual with the highest first
// objective.
func (p *Population) WorstIndex() int {
	worst := 0
	for i := 1; i < len(p.f); i++ {
		if p.f[i][0] > p.f[worst][0] {
			worst = i
		}
	}
	return worst
}

// SetXF overwrites the individual at index i with copies of x and f. The
// fitness is trusted as-is so callers can avoid re-evaluating vectors they
// have already scored. i must be a valid index and the slices must match the
// problem's dimension and objective count.
func (p *Population) SetXF(i int, x, f []float64) {
	p.x[i] = append([]float64(nil), x...)
	p.f[i] = append([]float64(nil), f...)
}
