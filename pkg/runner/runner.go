// Package runner executes batches of independent optimization trials. Each
// trial owns its optimizer instance, random source and population, so trials
// can run concurrently without breaking the engine's single-threaded
// contract; determinism per trial is preserved because seeds are derived
// from the batch base seed by trial index.
package runner

import (
	"context"
	"math"

	"github.com/sourcegraph/conc/pool"

	"github.com/paretolabs/devo/pkg/archive"
	"github.com/paretolabs/devo/pkg/core"
	"github.com/paretolabs/devo/pkg/errors"
	"github.com/paretolabs/devo/pkg/logging"
	"github.com/paretolabs/devo/pkg/optimizers"
)

// BatchSpec describes a batch of repeated trials of one configuration.
type BatchSpec struct {
	// NewProblem constructs a fresh problem per trial so evaluation
	// counters do not bleed across trials.
	NewProblem func() core.Problem
	Config     optimizers.SADEConfig
	Trials     int
	Population int
	// BaseSeed derives per-trial seeds: trial t uses BaseSeed+2t for the
	// population and BaseSeed+2t+1 for the engine.
	BaseSeed int64
}

// TrialResult is the outcome of one independent trial.
type TrialResult struct {
	Index       int
	Seed        int64
	BestFitness float64
	BestVector  []float64
	StopReason  optimizers.StopReason
	Evaluations uint64
	Log         []optimizers.LogLine
	RunID       string // set when the batch was archived
	Err         error
}

// BatchResult aggregates a finished batch.
type BatchResult struct {
	Trials []TrialResult
	Best   float64
	Mean   float64
	Stddev float64
}

// Runner runs batches with bounded concurrency.
type Runner struct {
	workers int
	arch    *archive.Archive
	logger  *logging.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of concurrently running trials.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithArchive persists every finished trial into the given archive.
func WithArchive(a *archive.Archive) Option {
	return func(r *Runner) { r.arch = a }
}

// WithLogger overrides the runner's logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New constructs a Runner; by default 4 workers, no archive.
func New(opts ...Option) *Runner {
	r := &Runner{
		workers: 4,
		logger:  logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunBatch executes all trials of the spec and aggregates their results.
// Individual trial failures are reported in their TrialResult; RunBatch only
// errors when the spec itself is unusable. Cancelling the context fails the
// trials that have not started yet; a running trial always finishes its
// generation budget.
func (r *Runner) RunBatch(ctx context.Context, spec BatchSpec) (*BatchResult, error) {
	if spec.NewProblem == nil {
		return nil, errors.New(errors.InvalidInput, "batch spec has no problem constructor")
	}
	if spec.Trials <= 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "batch needs at least one trial"),
			errors.Fields{"trials": spec.Trials})
	}
	// Fail configuration problems once, before spinning up workers.
	if _, err := optimizers.NewSADE(spec.Config); err != nil {
		return nil, err
	}

	results := make([]TrialResult, spec.Trials)
	p := pool.New().WithMaxGoroutines(r.workers)
	for t := 0; t < spec.Trials; t++ {
		t := t
		p.Go(func() {
			results[t] = r.runTrial(ctx, spec, t)
		})
	}
	p.Wait()

	if r.arch != nil {
		prob := spec.NewProblem()
		name, dim := prob.Name(), prob.Dimension()
		for i := range results {
			if results[i].Err != nil {
				continue
			}
			id, err := r.arch.SaveRun(trialRecord(spec, &results[i], name, dim))
			if err != nil {
				r.logger.Warn("failed to archive trial %d: %v", i, err)
				continue
			}
			results[i].RunID = id
		}
	}

	return aggregate(results), nil
}

func (r *Runner) runTrial(ctx context.Context, spec BatchSpec, t int) TrialResult {
	res := TrialResult{Index: t, Seed: spec.BaseSeed + int64(2*t)}
	if err := errors.CheckContext(ctx, "batch trial"); err != nil {
		res.Err = err
		return res
	}

	prob := spec.NewProblem()
	pop, err := core.NewPopulation(prob, spec.Population, spec.BaseSeed+int64(2*t))
	if err != nil {
		res.Err = err
		return res
	}

	cfg := spec.Config
	cfg.Seed = spec.BaseSeed + int64(2*t) + 1
	opt, err := optimizers.NewSADE(cfg)
	if err != nil {
		res.Err = err
		return res
	}
	opt.SetLogger(r.logger)

	pop, err = opt.Evolve(pop)
	if err != nil {
		res.Err = err
		return res
	}

	best := pop.BestIndex()
	res.BestFitness = pop.FAt(best)[0]
	res.BestVector = pop.XAt(best)
	res.StopReason = opt.LastStopReason()
	res.Evaluations = prob.Evaluations()
	res.Log = opt.Log()
	return res
}

func trialRecord(spec BatchSpec, res *TrialResult, problem string, dim int) archive.RunRecord {
	return archive.RunRecord{
		Problem:        problem,
		Dimension:      dim,
		PopulationSize: spec.Population,
		Variant:        spec.Config.Variant,
		AdaptVariant:   spec.Config.AdaptVariant,
		Seed:           res.Seed,
		Generations:    spec.Config.Generations,
		StopReason:     res.StopReason.String(),
		BestFitness:    res.BestFitness,
		BestVector:     res.BestVector,
		Log:            res.Log,
	}
}

func aggregate(results []TrialResult) *BatchResult {
	batch := &BatchResult{Trials: results, Best: math.Inf(1)}

	n := 0
	sum := 0.0
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if res.BestFitness < batch.Best {
			batch.Best = res.BestFitness
		}
		sum += res.BestFitness
		n++
	}
	if n == 0 {
		batch.Best = math.NaN()
		batch.Mean = math.NaN()
		batch.Stddev = math.NaN()
		return batch
	}

	batch.Mean = sum / float64(n)
	varSum := 0.0
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		d := res.BestFitness - batch.Mean
		varSum += d * d
	}
	batch.Stddev = math.Sqrt(varSum / float64(n))
	return batch
}
