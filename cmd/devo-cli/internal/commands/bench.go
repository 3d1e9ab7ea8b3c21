package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paretolabs/devo/pkg/archive"
	"github.com/paretolabs/devo/pkg/config"
	"github.com/paretolabs/devo/pkg/core"
	"github.com/paretolabs/devo/pkg/problems"
	"github.com/paretolabs/devo/pkg/runner"
)

func NewBenchCommand() *cobra.Command {
	var (
		configPath string
		trials     int
		workers    int
		baseSeed   int64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run repeated independent trials and report statistics",
		Long: `Run a batch of independent optimization trials of the same configuration,
each with its own optimizer instance and derived seed, and report best, mean
and standard deviation of the final fitness across trials.`,
		Example: `  # 20 trials of best/2/bin on the eggholder function
  devo-cli bench --problem eggholder --dim 2 --variant 9 --trials 20

  # archive every trial
  devo-cli bench --problem schwefel --dim 10 --trials 50 --archive runs.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, configPath)
			if err != nil {
				return err
			}
			return runBench(cmd.Context(), cfg, trials, workers, baseSeed)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration file")
	cmd.Flags().IntVar(&trials, "trials", 10, "number of independent trials")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrently running trials")
	cmd.Flags().Int64Var(&baseSeed, "base-seed", 1, "base seed for per-trial seed derivation")
	addRunFlags(cmd)
	return cmd
}

func runBench(ctx context.Context, cfg *config.RunConfig, trials, workers int, baseSeed int64) error {
	if _, err := problems.New(cfg.Problem.Name, cfg.Problem.Dimension); err != nil {
		return err
	}

	opts := []runner.Option{runner.WithWorkers(workers)}
	if cfg.Archive.Enabled {
		arch, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return err
		}
		defer arch.Close()
		opts = append(opts, runner.WithArchive(arch))
	}

	name, dim := cfg.Problem.Name, cfg.Problem.Dimension
	batch, err := runner.New(opts...).RunBatch(ctx, runner.BatchSpec{
		NewProblem: func() core.Problem {
			prob, _ := problems.New(name, dim)
			return prob
		},
		Config:     cfg.Optimizer.ToSADEConfig(),
		Trials:     trials,
		Population: cfg.Population.Size,
		BaseSeed:   baseSeed,
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, trial := range batch.Trials {
		if trial.Err != nil {
			failed++
		}
	}

	fmt.Printf("problem: %s (dim %d), %d trials, %d failed\n", name, dim, trials, failed)
	fmt.Printf("best:    %g\n", batch.Best)
	fmt.Printf("mean:    %g\n", batch.Mean)
	fmt.Printf("stddev:  %g\n", batch.Stddev)
	for _, trial := range batch.Trials {
		status := trial.StopReason.String()
		if trial.Err != nil {
			status = "error: " + trial.Err.Error()
		}
		fmt.Printf("  trial %2d  seed %-6d  best %-14g  %s\n",
			trial.Index, trial.Seed, trial.BestFitness, status)
	}
	return nil
}
