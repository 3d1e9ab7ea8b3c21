package runner

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paretolabs/devo/pkg/archive"
	"github.com/paretolabs/devo/pkg/core"
	"github.com/paretolabs/devo/pkg/errors"
	"github.com/paretolabs/devo/pkg/logging"
	"github.com/paretolabs/devo/pkg/optimizers"
	"github.com/paretolabs/devo/pkg/problems"
)

func silentLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Severity: logging.FATAL})
}

func sphereSpec(trials int) BatchSpec {
	return BatchSpec{
		NewProblem: func() core.Problem { return problems.Sphere(5) },
		Config: optimizers.SADEConfig{
			Generations:  50,
			Variant:      2,
			AdaptVariant: optimizers.AdaptJDE,
			Seed:         1,
		},
		Trials:     trials,
		Population: 15,
		BaseSeed:   1000,
	}
}

func TestRunBatch(t *testing.T) {
	t.Run("Runs all trials and aggregates", func(t *testing.T) {
		r := New(WithWorkers(3), WithLogger(silentLogger()))
		batch, err := r.RunBatch(context.Background(), sphereSpec(6))
		require.NoError(t, err)
		require.Len(t, batch.Trials, 6)

		for _, trial := range batch.Trials {
			require.NoError(t, trial.Err)
			assert.Equal(t, optimizers.StopMaxGenerations, trial.StopReason)
			assert.Positive(t, trial.Evaluations)
			assert.LessOrEqual(t, batch.Best, trial.BestFitness)
		}
		assert.False(t, batch.Mean < batch.Best)
		assert.GreaterOrEqual(t, batch.Stddev, 0.0)
	})

	t.Run("Deterministic given base seed", func(t *testing.T) {
		r := New(WithWorkers(4), WithLogger(silentLogger()))
		a, err := r.RunBatch(context.Background(), sphereSpec(4))
		require.NoError(t, err)
		b, err := r.RunBatch(context.Background(), sphereSpec(4))
		require.NoError(t, err)

		for i := range a.Trials {
			assert.Equal(t, a.Trials[i].BestFitness, b.Trials[i].BestFitness,
				"trial %d must reproduce bit for bit", i)
			assert.Equal(t, a.Trials[i].BestVector, b.Trials[i].BestVector)
		}
	})

	t.Run("Invalid specs rejected", func(t *testing.T) {
		r := New(WithLogger(silentLogger()))

		_, err := r.RunBatch(context.Background(), BatchSpec{})
		require.Error(t, err)

		spec := sphereSpec(0)
		_, err = r.RunBatch(context.Background(), spec)
		require.Error(t, err)

		spec = sphereSpec(1)
		spec.Config.Variant = 19
		_, err = r.RunBatch(context.Background(), spec)
		require.Error(t, err)
	})

	t.Run("Cancelled context fails pending trials", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := New(WithWorkers(2), WithLogger(silentLogger()))
		batch, err := r.RunBatch(ctx, sphereSpec(4))
		require.NoError(t, err)

		for _, trial := range batch.Trials {
			require.Error(t, trial.Err)
			assert.Equal(t, errors.Canceled, errors.CodeOf(trial.Err))
		}
		assert.True(t, math.IsNaN(batch.Mean))
	})

	t.Run("Archives finished trials", func(t *testing.T) {
		arch, err := archive.Open(filepath.Join(t.TempDir(), "runs.db"))
		require.NoError(t, err)
		defer arch.Close()

		r := New(WithWorkers(2), WithArchive(arch), WithLogger(silentLogger()))
		batch, err := r.RunBatch(context.Background(), sphereSpec(3))
		require.NoError(t, err)

		for _, trial := range batch.Trials {
			require.NotEmpty(t, trial.RunID)
			rec, err := arch.GetRun(trial.RunID)
			require.NoError(t, err)
			assert.Equal(t, "sphere", rec.Problem)
			assert.Equal(t, 5, rec.Dimension)
			assert.Equal(t, trial.BestFitness, rec.BestFitness)
		}

		runs, err := arch.ListRuns(10)
		require.NoError(t, err)
		assert.Len(t, runs, 3)
	})

	t.Run("Undersized population fails the trial not the batch", func(t *testing.T) {
		spec := sphereSpec(2)
		spec.Population = 6
		r := New(WithLogger(silentLogger()))
		batch, err := r.RunBatch(context.Background(), spec)
		require.NoError(t, err)
		for _, trial := range batch.Trials {
			assert.Error(t, trial.Err)
		}
	})
}
