// Package problems provides classic continuous benchmark objectives used to
// exercise and compare the optimizers. All problems are single-objective,
// box-bounded, deterministic minimization problems.
package problems

import (
	"math"
	"sync/atomic"
)

// Benchmark is a deterministic single-objective problem defined by a scalar
// function over a fixed box. It implements core.Problem.
type Benchmark struct {
	name  string
	lb    []float64
	ub    []float64
	fn    func(x []float64) float64
	evals atomic.Uint64
}

func (b *Benchmark) Fitness(x []float64) []float64 {
	b.evals.Add(1)
	return []float64{b.fn(x)}
}

func (b *Benchmark) Bounds() (lb, ub []float64) { return b.lb, b.ub }
func (b *Benchmark) Dimension() int             { return len(b.lb) }
func (b *Benchmark) NumObjectives() int         { return 1 }
func (b *Benchmark) NumConstraints() int        { return 0 }
func (b *Benchmark) IsStochastic() bool         { return false }
func (b *Benchmark) Evaluations() uint64        { return b.evals.Load() }
func (b *Benchmark) Name() string               { return b.name }

func uniformBox(dim int, lo, hi float64) (lb, ub []float64) {
	lb = make([]float64, dim)
	ub = make([]float64, dim)
	for i := range lb {
		lb[i] = lo
		ub[i] = hi
	}
	return lb, ub
}

// Sphere is the d-dimensional sphere function, minimum 0 at the origin.
func Sphere(dim int) *Benchmark {
	lb, ub := uniformBox(dim, -5.12, 5.12)
	return &Benchmark{
		name: "sphere",
		lb:   lb,
		ub:   ub,
		fn: func(x []float64) float64 {
			sum := 0.0
			for _, xi := range x {
				sum += xi * xi
			}
			return sum
		},
	}
}

// Rosenbrock is the classic banana-valley function, minimum 0 at (1,...,1).
func Rosenbrock(dim int) *Benchmark {
	lb, ub := uniformBox(dim, -5, 10)
	return &Benchmark{
		name: "rosenbrock",
		lb:   lb,
		ub:   ub,
		fn: func(x []float64) float64 {
			sum := 0.0
			for i := 0; i < len(x)-1; i++ {
				a := x[i+1] - x[i]*x[i]
				b := 1 - x[i]
				sum += 100*a*a + b*b
			}
			return sum
		},
	}
}

// Rastrigin is a highly multimodal function, minimum 0 at the origin.
func Rastrigin(dim int) *Benchmark {
	lb, ub := uniformBox(dim, -5.12, 5.12)
	return &Benchmark{
		name: "rastrigin",
		lb:   lb,
		ub:   ub,
		fn: func(x []float64) float64 {
			sum := 10.0 * float64(len(x))
			for _, xi := range x {
				sum += xi*xi - 10*math.Cos(2*math.Pi*xi)
			}
			return sum
		},
	}
}

// Ackley has a nearly flat outer region and a deep hole at the origin.
func Ackley(dim int) *Benchmark {
	lb, ub := uniformBox(dim, -32.768, 32.768)
	return &Benchmark{
		name: "ackley",
		lb:   lb,
		ub:   ub,
		fn: func(x []float64) float64 {
			n := float64(len(x))
			sumSq, sumCos := 0.0, 0.0
			for _, xi := range x {
				sumSq += xi * xi
				sumCos += math.Cos(2 * math.Pi * xi)
			}
			return -20*math.Exp(-0.2*math.Sqrt(sumSq/n)) -
				math.Exp(sumCos/n) + 20 + math.E
		},
	}
}

// Schwefel places its minimum far from the origin, punishing algorithms that
// drift toward the center of the box.
func Schwefel(dim int) *Benchmark {
	lb, ub := uniformBox(dim, -500, 500)
	return &Benchmark{
		name: "schwefel",
		lb:   lb,
		ub:   ub,
		fn: func(x []float64) float64 {
			sum := 418.9829 * float64(len(x))
			for _, xi := range x {
				sum -= xi * math.Sin(math.Sqrt(math.Abs(xi)))
			}
			return sum
		},
	}
}

// Eggholder is a difficult 2-dimensional function with many deep local
// minima; its global minimum is about -959.64 at (512, 404.2319).
func Eggholder() *Benchmark {
	return &Benchmark{
		name: "eggholder",
		lb:   []float64{-512, -512},
		ub:   []float64{512, 512},
		fn: func(x []float64) float64 {
			a := x[1] + 47
			return -a*math.Sin(math.Sqrt(math.Abs(x[0]/2+a))) -
				x[0]*math.Sin(math.Sqrt(math.Abs(x[0]-a)))
		},
	}
}
