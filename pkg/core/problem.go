package core

// Problem is the objective oracle consumed by the optimizers. Implementations
// describe a box-bounded continuous search space and score decision vectors.
//
// Fitness must return a slice of length NumObjectives. Evaluations must be a
// monotonic counter of Fitness calls; the optimizers use it only for
// reporting.
type Problem interface {
	// Fitness evaluates a decision vector and returns the objective values.
	Fitness(x []float64) []float64
	// Bounds returns the lower and upper box bounds, each of length Dimension.
	Bounds() (lb, ub []float64)
	// Dimension returns the length of a decision vector.
	Dimension() int
	// NumObjectives returns the number of objectives (1 for all problems the
	// self-adaptive DE engine accepts).
	NumObjectives() int
	// NumConstraints returns the number of constraints (0 for box-bounded
	// problems).
	NumConstraints() int
	// IsStochastic reports whether repeated evaluations of the same vector
	// may return different fitness values.
	IsStochastic() bool
	// Evaluations returns the number of Fitness calls made so far.
	Evaluations() uint64
	// Name returns a human-readable problem name used in reports and errors.
	Name() string
}
