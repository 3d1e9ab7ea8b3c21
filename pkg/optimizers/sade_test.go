package optimizers

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paretolabs/devo/internal/testutil"
	"github.com/paretolabs/devo/pkg/core"
	"github.com/paretolabs/devo/pkg/errors"
)

func newTestPopulation(t *testing.T, prob core.Problem, np int, seed int64) *core.Population {
	t.Helper()
	pop, err := core.NewPopulation(prob, np, seed)
	require.NoError(t, err)
	return pop
}

// TestSADE contains the test suite for the SADE engine.
func TestSADE(t *testing.T) {
	t.Run("Constructor and Configuration", func(t *testing.T) {
		testSADEConstructor(t)
	})

	t.Run("Problem Compatibility", func(t *testing.T) {
		testSADECompatibility(t)
	})

	t.Run("Zero Generations", func(t *testing.T) {
		testSADEZeroGenerations(t)
	})

	t.Run("Monotonicity", func(t *testing.T) {
		testSADEMonotonicity(t)
	})

	t.Run("Feasibility Across All Variants", func(t *testing.T) {
		testSADEFeasibility(t)
	})

	t.Run("Mutated Allele Counts", func(t *testing.T) {
		testSADEMutatedAlleles(t)
	})

	t.Run("Determinism", func(t *testing.T) {
		testSADEDeterminism(t)
	})

	t.Run("Reference Trial Reproduction", func(t *testing.T) {
		testSADEReferenceTrial(t)
	})

	t.Run("Stop Reasons", func(t *testing.T) {
		testSADEStopReasons(t)
	})

	t.Run("Logging", func(t *testing.T) {
		testSADELogging(t)
	})
}

func testSADEConstructor(t *testing.T) {
	t.Run("Valid configuration succeeds", func(t *testing.T) {
		for variant := 1; variant <= 18; variant++ {
			cfg := DefaultSADEConfig()
			cfg.Variant = variant
			opt, err := NewSADE(cfg)
			require.NoError(t, err)
			assert.Equal(t, variant, opt.Config().Variant)
		}
	})

	t.Run("Variant out of range fails", func(t *testing.T) {
		for _, variant := range []int{0, 19, -1} {
			cfg := DefaultSADEConfig()
			cfg.Variant = variant
			_, err := NewSADE(cfg)
			require.Error(t, err)
			assert.Equal(t, errors.InvalidConfiguration, errors.CodeOf(err))
		}
	})

	t.Run("Adaptation scheme out of range fails", func(t *testing.T) {
		for _, scheme := range []int{0, 3} {
			cfg := DefaultSADEConfig()
			cfg.AdaptVariant = scheme
			_, err := NewSADE(cfg)
			require.Error(t, err)
			assert.Equal(t, errors.InvalidConfiguration, errors.CodeOf(err))
		}
	})

	t.Run("Negative generations fails", func(t *testing.T) {
		cfg := DefaultSADEConfig()
		cfg.Generations = -1
		_, err := NewSADE(cfg)
		require.Error(t, err)
		assert.Equal(t, errors.InvalidConfiguration, errors.CodeOf(err))
	})

	t.Run("Negative tolerance fails", func(t *testing.T) {
		cfg := DefaultSADEConfig()
		cfg.XTol = -1e-6
		_, err := NewSADE(cfg)
		require.Error(t, err)
	})

	t.Run("Variant names", func(t *testing.T) {
		assert.Equal(t, "rand/1/exp", VariantName(2))
		assert.Equal(t, "rand-to-best-and-current/2/bin", VariantName(18))
		assert.Empty(t, VariantName(0))
		assert.Empty(t, VariantName(19))
	})
}

func testSADECompatibility(t *testing.T) {
	newOpt := func(t *testing.T) *SADE {
		cfg := DefaultSADEConfig()
		cfg.Generations = 5
		cfg.Seed = 123
		opt, err := NewSADE(cfg)
		require.NoError(t, err)
		return opt
	}

	assertUnchanged := func(t *testing.T, pop *core.Population, x [][]float64, f [][]float64) {
		assert.Equal(t, x, pop.X(), "decision vectors must be untouched")
		assert.Equal(t, f, pop.F(), "fitness vectors must be untouched")
	}

	t.Run("Constrained problem rejected", func(t *testing.T) {
		prob := testutil.NewMockProblem(3)
		prob.Constraints = 2
		pop := newTestPopulation(t, prob, 10, 1)
		x, f := pop.X(), pop.F()

		_, err := newOpt(t).Evolve(pop)
		require.Error(t, err)
		assert.Equal(t, errors.IncompatibleProblem, errors.CodeOf(err))
		assert.Contains(t, err.Error(), prob.Name())
		assertUnchanged(t, pop, x, f)
	})

	t.Run("Multi-objective problem rejected", func(t *testing.T) {
		prob := testutil.NewMockProblem(3)
		prob.Objectives = 2
		prob.Fn = func(x []float64) []float64 { return []float64{x[0], x[1]} }
		pop := newTestPopulation(t, prob, 10, 1)
		x, f := pop.X(), pop.F()

		_, err := newOpt(t).Evolve(pop)
		require.Error(t, err)
		assert.Equal(t, errors.IncompatibleProblem, errors.CodeOf(err))
		assertUnchanged(t, pop, x, f)
	})

	t.Run("Stochastic problem rejected", func(t *testing.T) {
		prob := testutil.NewMockProblem(3)
		prob.Stochastic = true
		pop := newTestPopulation(t, prob, 10, 1)
		x, f := pop.X(), pop.F()

		_, err := newOpt(t).Evolve(pop)
		require.Error(t, err)
		assert.Equal(t, errors.IncompatibleProblem, errors.CodeOf(err))
		assertUnchanged(t, pop, x, f)
	})

	t.Run("Population of 6 rejected", func(t *testing.T) {
		prob := testutil.NewMockProblem(3)
		pop := newTestPopulation(t, prob, 6, 1)
		x, f := pop.X(), pop.F()

		_, err := newOpt(t).Evolve(pop)
		require.Error(t, err)
		assert.Equal(t, errors.IncompatibleProblem, errors.CodeOf(err))
		assertUnchanged(t, pop, x, f)
	})

	t.Run("Population of 7 accepted", func(t *testing.T) {
		prob := testutil.NewMockProblem(3)
		pop := newTestPopulation(t, prob, 7, 1)

		_, err := newOpt(t).Evolve(pop)
		require.NoError(t, err)
	})
}

func testSADEZeroGenerations(t *testing.T) {
	prob := testutil.NewMockProblem(4)
	pop := newTestPopulation(t, prob, 8, 7)
	x, f := pop.X(), pop.F()

	cfg := DefaultSADEConfig()
	cfg.Generations = 0
	cfg.Seed = 99
	opt, err := NewSADE(cfg)
	require.NoError(t, err)

	evolved, err := opt.Evolve(pop)
	require.NoError(t, err)
	assert.Same(t, pop, evolved)
	assert.Equal(t, x, evolved.X())
	assert.Equal(t, f, evolved.F())
	assert.Equal(t, StopZeroGenerations, opt.LastStopReason())
	assert.Zero(t, prob.Evaluations()-8, "no trial may be evaluated")
}

func testSADEMonotonicity(t *testing.T) {
	prob := testutil.NewMockProblem(5)
	pop := newTestPopulation(t, prob, 12, 3)

	cfg := DefaultSADEConfig()
	cfg.Generations = 1
	cfg.Memory = true
	cfg.Seed = 5
	opt, err := NewSADE(cfg)
	require.NoError(t, err)

	prevBest := pop.FAt(pop.BestIndex())[0]
	prevFit := pop.F()
	for call := 0; call < 30; call++ {
		_, err := opt.Evolve(pop)
		require.NoError(t, err)

		fit := pop.F()
		for i := range fit {
			assert.LessOrEqual(t, fit[i][0], prevFit[i][0],
				"slot %d worsened on call %d", i, call)
		}
		best := pop.FAt(pop.BestIndex())[0]
		assert.LessOrEqual(t, best, prevBest)
		prevBest = best
		prevFit = fit
	}
}

func testSADEFeasibility(t *testing.T) {
	for variant := 1; variant <= 18; variant++ {
		for _, scheme := range []int{AdaptJDE, AdaptIDE} {
			prob := testutil.NewMockProblem(3)
			pop := newTestPopulation(t, prob, 9, int64(variant))

			cfg := DefaultSADEConfig()
			cfg.Generations = 20
			cfg.Variant = variant
			cfg.AdaptVariant = scheme
			cfg.XTol = 0
			cfg.FTol = 0
			cfg.Seed = int64(100 + variant)
			opt, err := NewSADE(cfg)
			require.NoError(t, err)

			_, err = opt.Evolve(pop)
			require.NoError(t, err)

			lb, ub := prob.Bounds()
			for _, x := range pop.X() {
				for j, xj := range x {
					assert.GreaterOrEqual(t, xj, lb[j],
						"variant %d scheme %d allele %d below bound", variant, scheme, j)
					assert.LessOrEqual(t, xj, ub[j],
						"variant %d scheme %d allele %d above bound", variant, scheme, j)
				}
			}
		}
	}
}

// testSADEMutatedAlleles checks how many alleles one generation changes per
// individual. A flat objective makes every trial an accepted tie, so the diff
// against the previous generation is exactly the set of crossed-over alleles:
// an exponential run covers 1 to dim consecutive positions, a binomial pass
// always forces at least the final drawn position.
func testSADEMutatedAlleles(t *testing.T) {
	const dim = 6
	cases := []struct {
		name    string
		variant int
	}{
		{"rand/1/exp", 2},
		{"best/2/exp", 4},
		{"rand/1/bin", 7},
		{"best/2/bin", 9},
	}

	for _, tc := range cases {
		for _, scheme := range []int{AdaptJDE, AdaptIDE} {
			t.Run(fmt.Sprintf("%s scheme %d", tc.name, scheme), func(t *testing.T) {
				prob := testutil.NewMockProblem(dim)
				prob.Fn = func(x []float64) []float64 { return []float64{0} }
				pop := newTestPopulation(t, prob, 10, int64(tc.variant))
				before := pop.X()

				cfg := DefaultSADEConfig()
				cfg.Generations = 1
				cfg.Variant = tc.variant
				cfg.AdaptVariant = scheme
				cfg.XTol = 0
				cfg.FTol = 0
				cfg.Seed = int64(40 + tc.variant)
				opt, err := NewSADE(cfg)
				require.NoError(t, err)

				_, err = opt.Evolve(pop)
				require.NoError(t, err)

				for i, x := range pop.X() {
					changed := 0
					for j := range x {
						if x[j] != before[i][j] {
							changed++
						}
					}
					assert.GreaterOrEqual(t, changed, 1,
						"individual %d kept all alleles", i)
					assert.LessOrEqual(t, changed, dim,
						"individual %d changed more alleles than it has", i)
				}
			})
		}
	}
}

func testSADEDeterminism(t *testing.T) {
	run := func(seed int64) ([][]float64, [][]float64, []LogLine) {
		prob := testutil.NewMockProblem(4)
		pop, err := core.NewPopulation(prob, 10, 21)
		require.NoError(t, err)

		cfg := DefaultSADEConfig()
		cfg.Generations = 15
		cfg.Variant = 7
		cfg.AdaptVariant = AdaptIDE
		cfg.XTol = 0
		cfg.FTol = 0
		cfg.Verbosity = 1
		cfg.Seed = seed
		opt, err := NewSADE(cfg)
		require.NoError(t, err)
		opt.SetLogger(newSilentLogger())

		_, err = opt.Evolve(pop)
		require.NoError(t, err)
		return pop.X(), pop.F(), opt.Log()
	}

	x1, f1, log1 := run(42)
	x2, f2, log2 := run(42)
	x3, _, _ := run(43)

	assert.Equal(t, x1, x2, "same seed must reproduce decision vectors bit for bit")
	assert.Equal(t, f1, f2, "same seed must reproduce fitness bit for bit")
	assert.Equal(t, log1, log2, "same seed must reproduce the log")
	assert.NotEqual(t, x1, x3, "different seeds should diverge")
}

// testSADEReferenceTrial replays the engine's random stream for the first
// individual of a 1-dimensional rand/1/exp run under jDE and checks the
// produced trial against the closed-form expectation.
func testSADEReferenceTrial(t *testing.T) {
	const (
		seed    = int64(1234)
		popSeed = int64(77)
		np      = 7
	)
	prob := testutil.NewMockProblem(1)
	pop := newTestPopulation(t, prob, np, popSeed)
	popBefore := pop.X()
	fitBefore := pop.F()

	cfg := DefaultSADEConfig()
	cfg.Generations = 1
	cfg.Variant = 2 // rand/1/exp
	cfg.AdaptVariant = AdaptJDE
	cfg.Seed = seed
	opt, err := NewSADE(cfg)
	require.NoError(t, err)
	_, err = opt.Evolve(pop)
	require.NoError(t, err)

	// Twin generator replaying the engine's exact draw sequence.
	rng := rand.New(rand.NewSource(seed))
	crArr := make([]float64, np)
	fArr := make([]float64, np)
	for i := 0; i < np; i++ {
		crArr[i] = rng.Float64()
		fArr[i] = rng.Float64()*0.9 + 0.1
	}

	// Individual 0: partial Fisher-Yates over 7 indices.
	idxs := []int{0, 1, 2, 3, 4, 5, 6}
	r := make([]int, 7)
	for j := 0; j < 7; j++ {
		idx := rng.Intn(np - j)
		r[j] = idxs[idx]
		idxs[idx], idxs[np-1-j] = idxs[np-1-j], idxs[idx]
	}

	var F, CR float64
	if rng.Float64() < 0.9 {
		F = fArr[0]
	} else {
		F = rng.Float64()*0.9 + 0.1
	}
	if rng.Float64() < 0.9 {
		CR = crArr[0]
	} else {
		CR = rng.Float64()
	}
	_ = CR

	_ = rng.Intn(1)   // starting allele index, necessarily 0
	trial := popBefore[r[0]][0] + F*(popBefore[r[1]][0]-popBefore[r[2]][0])
	_ = rng.Float64() // the exponential continuation draw for D=1

	// Repair by re-randomization within the bounds.
	lb, ub := prob.Bounds()
	if trial < lb[0] || trial > ub[0] {
		trial = lb[0] + rng.Float64()*(ub[0]-lb[0])
	}

	trialFit := trial * trial
	if trialFit <= fitBefore[0][0] {
		assert.InDelta(t, trial, pop.XAt(0)[0], 0,
			"accepted trial must equal repair(popold[r0] + F*(popold[r1]-popold[r2]))")
		assert.Equal(t, trialFit, pop.FAt(0)[0])
	} else {
		assert.Equal(t, popBefore[0][0], pop.XAt(0)[0],
			"rejected trial must leave the slot untouched")
	}

	// Re-running with the same seed reproduces the identical population.
	pop2 := newTestPopulation(t, testutil.NewMockProblem(1), np, popSeed)
	cfg2 := cfg
	opt2, err := NewSADE(cfg2)
	require.NoError(t, err)
	_, err = opt2.Evolve(pop2)
	require.NoError(t, err)
	assert.Equal(t, pop.X(), pop2.X())
	assert.Equal(t, pop.F(), pop2.F())
}

func testSADEStopReasons(t *testing.T) {
	t.Run("Generation count exhausted", func(t *testing.T) {
		prob := testutil.NewMockProblem(3)
		pop := newTestPopulation(t, prob, 8, 2)
		cfg := DefaultSADEConfig()
		cfg.Generations = 10
		cfg.XTol = 0
		cfg.FTol = 0
		cfg.Seed = 11
		opt, err := NewSADE(cfg)
		require.NoError(t, err)
		_, err = opt.Evolve(pop)
		require.NoError(t, err)
		assert.Equal(t, StopMaxGenerations, opt.LastStopReason())
	})

	t.Run("X tolerance triggers at the 40-generation check", func(t *testing.T) {
		prob := testutil.NewMockProblem(3)
		pop := newTestPopulation(t, prob, 8, 2)
		cfg := DefaultSADEConfig()
		cfg.Generations = 200
		cfg.XTol = 1e9
		cfg.FTol = 0
		cfg.Seed = 11
		opt, err := NewSADE(cfg)
		require.NoError(t, err)
		_, err = opt.Evolve(pop)
		require.NoError(t, err)
		assert.Equal(t, StopXTolerance, opt.LastStopReason())
		// Exactly 40 generations of np evaluations each were spent.
		assert.Equal(t, uint64(8+40*8), prob.Evaluations())
	})

	t.Run("F tolerance triggers when x tolerance does not", func(t *testing.T) {
		prob := testutil.NewMockProblem(3)
		pop := newTestPopulation(t, prob, 8, 2)
		cfg := DefaultSADEConfig()
		cfg.Generations = 200
		cfg.XTol = 0
		cfg.FTol = 1e9
		cfg.Seed = 11
		opt, err := NewSADE(cfg)
		require.NoError(t, err)
		_, err = opt.Evolve(pop)
		require.NoError(t, err)
		assert.Equal(t, StopFTolerance, opt.LastStopReason())
	})

	t.Run("Failed call clears the previous reason", func(t *testing.T) {
		prob := testutil.NewMockProblem(3)
		pop := newTestPopulation(t, prob, 8, 2)
		cfg := DefaultSADEConfig()
		cfg.Generations = 5
		cfg.Seed = 11
		opt, err := NewSADE(cfg)
		require.NoError(t, err)
		_, err = opt.Evolve(pop)
		require.NoError(t, err)
		require.Equal(t, StopMaxGenerations, opt.LastStopReason())

		bad := testutil.NewMockProblem(3)
		bad.Constraints = 1
		badPop := newTestPopulation(t, bad, 8, 2)
		_, err = opt.Evolve(badPop)
		require.Error(t, err)
		assert.Equal(t, StopNone, opt.LastStopReason())
	})

	t.Run("String rendering", func(t *testing.T) {
		assert.Equal(t, "zero-generations", StopZeroGenerations.String())
		assert.Equal(t, "max-generations", StopMaxGenerations.String())
		assert.Equal(t, "x-tolerance", StopXTolerance.String())
		assert.Equal(t, "f-tolerance", StopFTolerance.String())
		assert.Equal(t, "none", StopNone.String())
	})
}

func testSADELogging(t *testing.T) {
	t.Run("Silent by default", func(t *testing.T) {
		prob := testutil.NewMockProblem(3)
		pop := newTestPopulation(t, prob, 8, 4)
		cfg := DefaultSADEConfig()
		cfg.Generations = 12
		cfg.XTol = 0
		cfg.FTol = 0
		cfg.Seed = 9
		opt, err := NewSADE(cfg)
		require.NoError(t, err)
		_, err = opt.Evolve(pop)
		require.NoError(t, err)
		assert.Empty(t, opt.Log())
	})

	t.Run("One line every verbosity generations", func(t *testing.T) {
		prob := testutil.NewMockProblem(3)
		pop := newTestPopulation(t, prob, 10, 4)
		cfg := DefaultSADEConfig()
		cfg.Generations = 25
		cfg.XTol = 0
		cfg.FTol = 0
		cfg.Verbosity = 10
		cfg.Seed = 9
		opt, err := NewSADE(cfg)
		require.NoError(t, err)
		opt.SetLogger(newSilentLogger())
		_, err = opt.Evolve(pop)
		require.NoError(t, err)

		log := opt.Log()
		require.Len(t, log, 3)
		assert.Equal(t, 1, log[0].Gen)
		assert.Equal(t, 11, log[1].Gen)
		assert.Equal(t, 21, log[2].Gen)
		assert.Equal(t, uint64(10), log[0].Fevals)
		for i := 1; i < len(log); i++ {
			assert.LessOrEqual(t, log[i].Best, log[i-1].Best,
				"best fitness must be non-increasing across the log")
			assert.Greater(t, log[i].Fevals, log[i-1].Fevals)
		}
	})

	t.Run("Log cleared between calls", func(t *testing.T) {
		prob := testutil.NewMockProblem(3)
		pop := newTestPopulation(t, prob, 10, 4)
		cfg := DefaultSADEConfig()
		cfg.Generations = 5
		cfg.XTol = 0
		cfg.FTol = 0
		cfg.Verbosity = 1
		cfg.Seed = 9
		opt, err := NewSADE(cfg)
		require.NoError(t, err)
		opt.SetLogger(newSilentLogger())

		_, err = opt.Evolve(pop)
		require.NoError(t, err)
		first := len(opt.Log())
		assert.Equal(t, 5, first)

		_, err = opt.Evolve(pop)
		require.NoError(t, err)
		assert.Equal(t, 5, len(opt.Log()), "log restarts on every call")
	})
}
