package config

import "time"

// DefaultRunConfig returns a configuration that solves the 10-dimensional
// sphere with rand/1/exp under jDE control.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Problem: ProblemConfig{
			Name:      "sphere",
			Dimension: 10,
		},
		Population: PopulationConfig{
			Size: 20,
			Seed: time.Now().UnixNano(),
		},
		Optimizer: OptimizerConfig{
			Generations:  500,
			Variant:      2,
			AdaptVariant: 1,
			FTol:         1e-6,
			XTol:         1e-6,
			Seed:         time.Now().UnixNano(),
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}
