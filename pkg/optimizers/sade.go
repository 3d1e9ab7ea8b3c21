// Package optimizers implements population-based optimizers for box-bounded
// continuous problems.
//
// This file contains SADE, a self-adaptive Differential Evolution engine
// offering 18 mutation/crossover strategies and two schemes for adapting the
// scale factor F and crossover rate CR per individual: parameter control in
// the style of jDE (Brest et al.) and self-adaptation in the style of iDE
// (Elsayed et al.).
package optimizers

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/paretolabs/devo/pkg/core"
	"github.com/paretolabs/devo/pkg/errors"
	"github.com/paretolabs/devo/pkg/logging"
)

// Adaptation scheme ids accepted by SADEConfig.AdaptVariant.
const (
	AdaptJDE = 1 // parameter control: keep F/CR with probability 0.9, else resample
	AdaptIDE = 2 // self-adaptation: recombine stored F/CR like the decision vectors
)

// StopReason identifies why an Evolve call terminated.
type StopReason int

const (
	StopNone StopReason = iota
	StopZeroGenerations
	StopMaxGenerations
	StopXTolerance
	StopFTolerance
)

func (r StopReason) String() string {
	switch r {
	case StopZeroGenerations:
		return "zero-generations"
	case StopMaxGenerations:
		return "max-generations"
	case StopXTolerance:
		return "x-tolerance"
	case StopFTolerance:
		return "f-tolerance"
	default:
		return "none"
	}
}

// LogLine is one record of the evolution log: generation, objective
// evaluations used so far in the call, best fitness in the population, the
// F/CR pair that produced the current iteration best, and the decision- and
// fitness-space spreads between the best and worst individuals.
type LogLine struct {
	Gen    int
	Fevals uint64
	Best   float64
	F      float64
	CR     float64
	Dx     float64
	Df     float64
}

// SADEConfig holds the construction-time configuration for the SADE engine.
// It is validated once by NewSADE and immutable afterwards.
type SADEConfig struct {
	Generations  int     `json:"generations"`   // Number of generations; 0 returns the population untouched
	Variant      int     `json:"variant"`       // Mutation variant id in [1, 18]
	AdaptVariant int     `json:"adapt_variant"` // AdaptJDE or AdaptIDE
	FTol         float64 `json:"ftol"`          // Stop when |f_worst - f_best| falls below this
	XTol         float64 `json:"xtol"`          // Stop when sum |x_worst - x_best| falls below this
	Memory       bool    `json:"memory"`        // Keep adapted F/CR across Evolve calls
	Seed         int64   `json:"seed"`          // Seed for the engine-owned random source
	Verbosity    int     `json:"verbosity"`     // 0 silent; n > 0 logs every n generations
}

// DefaultSADEConfig mirrors the conventional defaults: one generation of
// rand/1/exp under jDE control with 1e-6 tolerances and a clock-derived seed.
func DefaultSADEConfig() SADEConfig {
	return SADEConfig{
		Generations:  1,
		Variant:      2,
		AdaptVariant: AdaptJDE,
		FTol:         1e-6,
		XTol:         1e-6,
		Seed:         time.Now().UnixNano(),
	}
}

// SADE is a self-adaptive Differential Evolution optimizer. An instance owns
// its random source, its per-individual F/CR adaptation state and its log;
// it is not safe for concurrent use, but independent instances may run
// concurrently on different populations.
type SADE struct {
	cfg      SADEConfig
	strat    strategy
	rng      *rand.Rand
	fArr     []float64 // adapted scale factors, one per individual
	crArr    []float64 // adapted crossover rates, one per individual
	log      []LogLine
	lastStop StopReason
	logger   *logging.Logger
}

// NewSADE validates cfg and constructs the engine. The mutation variant and
// adaptation scheme are resolved to fixed handlers here; no per-trial
// dispatch on the ids happens afterwards.
func NewSADE(cfg SADEConfig) (*SADE, error) {
	if cfg.Variant < 1 || cfg.Variant > 18 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration,
				"the Differential Evolution mutation variant must be in [1, 18]"),
			errors.Fields{"variant": cfg.Variant})
	}
	if cfg.AdaptVariant != AdaptJDE && cfg.AdaptVariant != AdaptIDE {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration,
				"the F/CR adaptation variant must be 1 (jDE) or 2 (iDE)"),
			errors.Fields{"adapt_variant": cfg.AdaptVariant})
	}
	if cfg.Generations < 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "generations must be non-negative"),
			errors.Fields{"generations": cfg.Generations})
	}
	if cfg.FTol < 0 || cfg.XTol < 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidConfiguration, "tolerances must be non-negative"),
			errors.Fields{"ftol": cfg.FTol, "xtol": cfg.XTol})
	}

	return &SADE{
		cfg:    cfg,
		strat:  strategyTable[cfg.Variant],
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		logger: logging.GetLogger(),
	}, nil
}

// SetLogger redirects the progress stream; by default the global logger is
// used. The in-memory log is unaffected.
func (o *SADE) SetLogger(l *logging.Logger) { o.logger = l }

// Config returns the configuration the engine was constructed with.
func (o *SADE) Config() SADEConfig { return o.cfg }

// Name returns the optimizer name used in reports and errors.
func (o *SADE) Name() string { return "SADE: Self-adaptive Differential Evolution" }

// Log returns a copy of the log accumulated by the last Evolve call.
func (o *SADE) Log() []LogLine {
	return append([]LogLine(nil), o.log...)
}

// LastStopReason reports why the last Evolve call returned.
func (o *SADE) LastStopReason() StopReason { return o.lastStop }

// checkProblem verifies the population's problem fits the engine. The
// population is left untouched when any check fails.
func (o *SADE) checkProblem(pop *core.Population) error {
	prob := pop.Problem()
	if nc := prob.NumConstraints(); nc != 0 {
		return errors.WithFields(
			errors.New(errors.IncompatibleProblem,
				fmt.Sprintf("constraints detected in %s instance; %s cannot deal with them",
					prob.Name(), o.Name())),
			errors.Fields{"constraints": nc})
	}
	if nobj := prob.NumObjectives(); nobj != 1 {
		return errors.WithFields(
			errors.New(errors.IncompatibleProblem,
				fmt.Sprintf("multiple objectives detected in %s instance; %s cannot deal with them",
					prob.Name(), o.Name())),
			errors.Fields{"objectives": nobj})
	}
	if prob.IsStochastic() {
		return errors.New(errors.IncompatibleProblem,
			fmt.Sprintf("the problem %s appears to be stochastic; %s cannot deal with it",
				prob.Name(), o.Name()))
	}
	return nil
}

// Evolve runs the population for at most the configured number of
// generations, stopping early when the population flatness falls below the x
// or f tolerance. The population is transferred to the engine for the
// duration of the call and returned; the engine keeps no reference to it.
func (o *SADE) Evolve(pop *core.Population) (*core.Population, error) {
	prob := pop.Problem()
	dim := prob.Dimension()
	lb, ub := prob.Bounds()
	np := pop.Size()
	fevals0 := prob.Evaluations()
	count := 1 // regulates the header cadence of the progress stream
	o.lastStop = StopNone

	if err := o.checkProblem(pop); err != nil {
		return pop, err
	}
	// Get out if there is nothing to do.
	if o.cfg.Generations == 0 {
		o.lastStop = StopZeroGenerations
		return pop, nil
	}
	if np < 7 {
		return pop, errors.WithFields(
			errors.New(errors.IncompatibleProblem,
				fmt.Sprintf("%s needs at least 7 individuals in the population", o.Name())),
			errors.Fields{"size": np})
	}

	// No errors past this point: clear the log.
	o.log = o.log[:0]

	tmp := make([]float64, dim) // the mutated candidate
	popold := pop.X()
	fit := pop.F()
	popnew := pop.X()

	// Initialise the global bests.
	bestIdx := pop.BestIndex()
	gbX := append([]float64(nil), popnew[bestIdx]...)
	gbFit := append([]float64(nil), fit[bestIdx]...)
	// The best decision vector of the previous generation.
	gbIter := append([]float64(nil), gbX...)
	r := make([]int, 7) // indices of 7 selected population members
	idxs := make([]int, np)

	// Initialize the F and CR vectors unless memory carries them over.
	if len(o.crArr) != np || len(o.fArr) != np || !o.cfg.Memory {
		o.crArr = make([]float64, np)
		o.fArr = make([]float64, np)
		switch o.cfg.AdaptVariant {
		case AdaptJDE:
			for i := 0; i < np; i++ {
				o.crArr[i] = o.rng.Float64()
				o.fArr[i] = o.rng.Float64()*0.9 + 0.1
			}
		case AdaptIDE:
			for i := 0; i < np; i++ {
				o.crArr[i] = o.rng.NormFloat64()*0.15 + 0.5
				o.fArr[i] = o.rng.NormFloat64()*0.15 + 0.5
			}
		}
	}
	// Seed the global and iteration bests for F and CR with individual 0;
	// both are overwritten by the first accepted trial.
	gbF, gbCR := o.fArr[0], o.crArr[0]
	gbIterF, gbIterCR := gbF, gbCR

	state := &sweepState{gbIter: gbIter}

	for gen := 1; gen <= o.cfg.Generations; gen++ {
		state.popold = popold
		state.gbIter = gbIter

		for i := 0; i < np; i++ {
			// Select 7 distinct members by partial Fisher-Yates. The
			// target's own index is deliberately not excluded, so a
			// sampled neighbor may equal the individual being updated.
			for j := range idxs {
				idxs[j] = j
			}
			for j := 0; j < 7; j++ {
				idx := o.rng.Intn(np - j)
				r[j] = idxs[idx]
				idxs[idx], idxs[np-1-j] = idxs[np-1-j], idxs[idx]
			}

			// Adapt the amplification factor and crossover probability.
			var F, CR float64
			if o.cfg.AdaptVariant == AdaptJDE {
				if o.rng.Float64() < 0.9 {
					F = o.fArr[i]
				} else {
					F = o.rng.Float64()*0.9 + 0.1
				}
				if o.rng.Float64() < 0.9 {
					CR = o.crArr[i]
				} else {
					CR = o.rng.Float64()
				}
			} else {
				F, CR = o.strat.adapt(o.rng, o.fArr, o.crArr, i, r, gbIterF, gbIterCR)
			}

			// Build the trial: start from the target, then overwrite
			// alleles with mutant values per the crossover kind.
			copy(tmp, popold[i])
			n := o.rng.Intn(dim)
			if o.strat.crossover == crossoverExponential {
				// Copy a run of consecutive alleles; each continuation
				// consumes one uniform draw even on the final allele.
				l := 0
				for {
					tmp[n] = o.strat.mutate(state, tmp, i, r, F, n)
					n = (n + 1) % dim
					l++
					if !(o.rng.Float64() < CR && l < dim) {
						break
					}
				}
			} else {
				for l := 0; l < dim; l++ {
					// The draw is consumed on every allele, including the
					// forced final one.
					if o.rng.Float64() < CR || l+1 == dim {
						tmp[n] = o.strat.mutate(state, tmp, i, r, F, n)
					}
					n = (n + 1) % dim
				}
			}

			// Force feasibility: re-randomize out-of-bound alleles.
			for j := 0; j < dim; j++ {
				if tmp[j] < lb[j] || tmp[j] > ub[j] {
					tmp[j] = lb[j] + o.rng.Float64()*(ub[j]-lb[j])
				}
			}

			// Selection: ties favor the trial.
			newFitness := prob.Fitness(tmp)
			if newFitness[0] <= fit[i][0] {
				fit[i] = append([]float64(nil), newFitness...)
				popnew[i] = append([]float64(nil), tmp...)
				// Update the individual in pop without re-evaluating.
				pop.SetXF(i, popnew[i], newFitness)
				// Only accepted trials persist their adapted parameters.
				o.crArr[i] = CR
				o.fArr[i] = F

				if newFitness[0] <= gbFit[0] {
					gbFit = append([]float64(nil), newFitness...)
					gbX = append([]float64(nil), popnew[i]...)
					gbF = F
					gbCR = CR
				}
			} else {
				popnew[i] = popold[i]
			}
		}
		// Freeze the best of this generation for the next sweep's formulas.
		gbIter = gbX
		gbIterF = gbF
		gbIterCR = gbCR
		// Swap population buffers: the new generation becomes the old one.
		popold, popnew = popnew, popold

		// Check the exit conditions every 40 generations, against the live
		// population rather than the running best tracker; the two can
		// transiently disagree.
		var dx, df float64
		if gen%40 == 0 {
			x := pop.X()
			f := pop.F()
			bestIdx = pop.BestIndex()
			worstIdx := pop.WorstIndex()
			for j := 0; j < dim; j++ {
				dx += math.Abs(x[worstIdx][j] - x[bestIdx][j])
			}
			if dx < o.cfg.XTol {
				if o.cfg.Verbosity > 0 {
					o.logger.Info("Exit condition -- xtol < %g", o.cfg.XTol)
				}
				o.lastStop = StopXTolerance
				return pop, nil
			}

			df = math.Abs(f[worstIdx][0] - f[bestIdx][0])
			if df < o.cfg.FTol {
				if o.cfg.Verbosity > 0 {
					o.logger.Info("Exit condition -- ftol < %g", o.cfg.FTol)
				}
				o.lastStop = StopFTolerance
				return pop, nil
			}
		}

		// Logs and prints: one line every Verbosity generations.
		if o.cfg.Verbosity > 0 {
			if gen%o.cfg.Verbosity == 1 || o.cfg.Verbosity == 1 {
				x := pop.X()
				f := pop.F()
				bestIdx = pop.BestIndex()
				worstIdx := pop.WorstIndex()
				dx = 0
				// The population flatness in chromosome.
				for j := 0; j < dim; j++ {
					dx += math.Abs(x[worstIdx][j] - x[bestIdx][j])
				}
				// The population flatness in fitness.
				df = math.Abs(f[worstIdx][0] - f[bestIdx][0])
				fevals := prob.Evaluations() - fevals0
				// Every 50 lines print the column names.
				if count%50 == 1 {
					o.logger.Info("%7s%15s%15s%15s%15s%15s%15s",
						"Gen:", "Fevals:", "Best:", "F:", "CR:", "dx:", "df:")
				}
				o.logger.Progress(pop.ID(), gen, fevals,
					fmt.Sprintf("%7d%15d%15g%15g%15g%15g%15g",
						gen, fevals, f[bestIdx][0], gbIterF, gbIterCR, dx, df))
				count++
				o.log = append(o.log, LogLine{
					Gen:    gen,
					Fevals: fevals,
					Best:   f[bestIdx][0],
					F:      gbIterF,
					CR:     gbIterCR,
					Dx:     dx,
					Df:     df,
				})
			}
		}
	}
	if o.cfg.Verbosity > 0 {
		o.logger.Info("Exit condition -- generations = %d", o.cfg.Generations)
	}
	o.lastStop = StopMaxGenerations
	return pop, nil
}
