// Package config defines the YAML-backed configuration for solver runs and
// validates it before anything is constructed from it.
package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/paretolabs/devo/pkg/errors"
	"github.com/paretolabs/devo/pkg/optimizers"
)

// RunConfig is the complete configuration of one solver run.
type RunConfig struct {
	Problem    ProblemConfig    `yaml:"problem" validate:"required"`
	Population PopulationConfig `yaml:"population" validate:"required"`
	Optimizer  OptimizerConfig  `yaml:"optimizer" validate:"required"`
	Logging    LoggingConfig    `yaml:"logging,omitempty" validate:"omitempty"`
	Archive    ArchiveConfig    `yaml:"archive,omitempty" validate:"omitempty"`
}

// ProblemConfig selects a registered benchmark problem.
type ProblemConfig struct {
	Name      string `yaml:"name" validate:"required"`
	Dimension int    `yaml:"dimension" validate:"min=1"`
}

// PopulationConfig controls the initial random population.
type PopulationConfig struct {
	Size int   `yaml:"size" validate:"min=7"`
	Seed int64 `yaml:"seed"`
}

// OptimizerConfig mirrors optimizers.SADEConfig with validation tags.
type OptimizerConfig struct {
	Generations  int     `yaml:"generations" validate:"min=0"`
	Variant      int     `yaml:"variant" validate:"min=1,max=18"`
	AdaptVariant int     `yaml:"adapt_variant" validate:"min=1,max=2"`
	FTol         float64 `yaml:"ftol" validate:"min=0"`
	XTol         float64 `yaml:"xtol" validate:"min=0"`
	Memory       bool    `yaml:"memory"`
	Seed         int64   `yaml:"seed"`
	Verbosity    int     `yaml:"verbosity" validate:"min=0"`
}

// LoggingConfig controls the progress stream destination.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`
	File  string `yaml:"file,omitempty"`
}

// ArchiveConfig controls run persistence.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

var validate = validator.New()

// Load reads and validates a RunConfig from a YAML file.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "reading config file")
	}

	cfg := DefaultRunConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "parsing config file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks all field constraints, naming the first offending field.
func (c *RunConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return errors.WithFields(
				errors.New(errors.ValidationFailed, "invalid run configuration"),
				errors.Fields{
					"field":      verrs[0].Namespace(),
					"constraint": verrs[0].Tag(),
				})
		}
		return errors.Wrap(err, errors.ValidationFailed, "invalid run configuration")
	}
	return nil
}

// ToSADEConfig converts the optimizer section to the engine's config type.
func (c OptimizerConfig) ToSADEConfig() optimizers.SADEConfig {
	return optimizers.SADEConfig{
		Generations:  c.Generations,
		Variant:      c.Variant,
		AdaptVariant: c.AdaptVariant,
		FTol:         c.FTol,
		XTol:         c.XTol,
		Memory:       c.Memory,
		Seed:         c.Seed,
		Verbosity:    c.Verbosity,
	}
}
