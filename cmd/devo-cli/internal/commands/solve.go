package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paretolabs/devo/pkg/archive"
	"github.com/paretolabs/devo/pkg/config"
	"github.com/paretolabs/devo/pkg/core"
	"github.com/paretolabs/devo/pkg/optimizers"
	"github.com/paretolabs/devo/pkg/problems"
)

func NewSolveCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Run one optimization against a benchmark problem",
		Long: `Run the self-adaptive Differential Evolution engine once against a
registered benchmark problem and print the best solution found.

All settings can be given by flags or collected in a YAML config file; flags
are ignored when --config is set.`,
		Example: `  # 500 generations of rand/1/exp on the 10-dimensional sphere
  devo-cli solve --problem sphere --dim 10 --generations 500 --verbosity 50

  # rand/1/bin under iDE self-adaptation, archived for later comparison
  devo-cli solve --problem rastrigin --variant 7 --adapt 2 --archive runs.db

  # everything from a config file
  devo-cli solve --config run.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, configPath)
			if err != nil {
				return err
			}
			return runSolve(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration file")
	addRunFlags(cmd)
	return cmd
}

// addRunFlags registers the flags shared by solve and bench.
func addRunFlags(cmd *cobra.Command) {
	defaults := config.DefaultRunConfig()
	cmd.Flags().String("problem", defaults.Problem.Name, "benchmark problem name")
	cmd.Flags().Int("dim", defaults.Problem.Dimension, "problem dimension")
	cmd.Flags().Int("np", defaults.Population.Size, "population size (>= 7)")
	cmd.Flags().Int("generations", defaults.Optimizer.Generations, "generation budget")
	cmd.Flags().Int("variant", defaults.Optimizer.Variant, "mutation variant id in [1, 18]")
	cmd.Flags().Int("adapt", defaults.Optimizer.AdaptVariant, "F/CR adaptation scheme: 1 jDE, 2 iDE")
	cmd.Flags().Float64("ftol", defaults.Optimizer.FTol, "fitness-spread stopping tolerance")
	cmd.Flags().Float64("xtol", defaults.Optimizer.XTol, "decision-spread stopping tolerance")
	cmd.Flags().Int64("seed", 0, "random seed (0 picks a clock-derived seed)")
	cmd.Flags().Int("verbosity", 0, "log one progress line every N generations")
	cmd.Flags().String("archive", "", "SQLite archive path; empty disables archiving")
}

// resolveConfig builds the run configuration from a YAML file or from flags.
func resolveConfig(cmd *cobra.Command, configPath string) (*config.RunConfig, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfg := config.DefaultRunConfig()
	flags := cmd.Flags()
	cfg.Problem.Name, _ = flags.GetString("problem")
	cfg.Problem.Dimension, _ = flags.GetInt("dim")
	cfg.Population.Size, _ = flags.GetInt("np")
	cfg.Optimizer.Generations, _ = flags.GetInt("generations")
	cfg.Optimizer.Variant, _ = flags.GetInt("variant")
	cfg.Optimizer.AdaptVariant, _ = flags.GetInt("adapt")
	cfg.Optimizer.FTol, _ = flags.GetFloat64("ftol")
	cfg.Optimizer.XTol, _ = flags.GetFloat64("xtol")
	cfg.Optimizer.Verbosity, _ = flags.GetInt("verbosity")
	if seed, _ := flags.GetInt64("seed"); seed != 0 {
		cfg.Optimizer.Seed = seed
		cfg.Population.Seed = seed + 1
	}
	if path, _ := flags.GetString("archive"); path != "" {
		cfg.Archive = config.ArchiveConfig{Enabled: true, Path: path}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSolve(cfg *config.RunConfig) error {
	prob, err := problems.New(cfg.Problem.Name, cfg.Problem.Dimension)
	if err != nil {
		return err
	}
	pop, err := core.NewPopulation(prob, cfg.Population.Size, cfg.Population.Seed)
	if err != nil {
		return err
	}
	opt, err := optimizers.NewSADE(cfg.Optimizer.ToSADEConfig())
	if err != nil {
		return err
	}

	pop, err = opt.Evolve(pop)
	if err != nil {
		return err
	}

	best := pop.BestIndex()
	fmt.Printf("problem:      %s (dim %d)\n", prob.Name(), prob.Dimension())
	fmt.Printf("variant:      %s, adaptation %d\n",
		optimizers.VariantName(cfg.Optimizer.Variant), cfg.Optimizer.AdaptVariant)
	fmt.Printf("stop reason:  %s\n", opt.LastStopReason())
	fmt.Printf("evaluations:  %d\n", prob.Evaluations())
	fmt.Printf("best fitness: %g\n", pop.FAt(best)[0])
	fmt.Printf("best vector:  %v\n", pop.XAt(best))

	if cfg.Archive.Enabled {
		arch, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return err
		}
		defer arch.Close()
		id, err := arch.SaveRun(archive.RunRecord{
			Problem:        prob.Name(),
			Dimension:      prob.Dimension(),
			PopulationSize: cfg.Population.Size,
			Variant:        cfg.Optimizer.Variant,
			AdaptVariant:   cfg.Optimizer.AdaptVariant,
			Seed:           cfg.Optimizer.Seed,
			Generations:    cfg.Optimizer.Generations,
			StopReason:     opt.LastStopReason().String(),
			BestFitness:    pop.FAt(best)[0],
			BestVector:     pop.XAt(best),
			Log:            opt.Log(),
		})
		if err != nil {
			return err
		}
		fmt.Printf("archived as:  %s\n", id)
	}
	return nil
}
