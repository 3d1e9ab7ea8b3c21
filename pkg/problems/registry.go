package problems

import (
	"sort"

	"github.com/paretolabs/devo/pkg/errors"
)

// Factory builds a benchmark problem of the requested dimension. Problems
// with a fixed dimension ignore the argument.
type Factory func(dim int) *Benchmark

var registry = map[string]Factory{
	"sphere":     Sphere,
	"rosenbrock": Rosenbrock,
	"rastrigin":  Rastrigin,
	"ackley":     Ackley,
	"schwefel":   Schwefel,
	"eggholder":  func(int) *Benchmark { return Eggholder() },
}

// New builds a registered benchmark problem by name.
func New(name string, dim int) (*Benchmark, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "unknown benchmark problem"),
			errors.Fields{"name": name})
	}
	if dim < 1 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "problem dimension must be positive"),
			errors.Fields{"dim": dim})
	}
	return factory(dim), nil
}

// Names lists the registered problems in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
