// Package devo is a Go library for self-adaptive Differential Evolution over
// single-objective, box-bounded, deterministic continuous problems.
//
// The engine owns the generational update loop, 18 selectable
// mutation/crossover strategies, two F/CR self-adaptation schemes (jDE
// parameter control and iDE self-adaptation), feasibility repair by
// re-randomization, and tolerance-based early termination.
//
// Key Components:
//
//   - Core: the Problem oracle contract and the Population container that
//     optimizers evolve.
//
//   - Optimizers: the SADE engine. An instance owns its random source and
//     adaptation state; fixed seeds reproduce runs bit for bit, and
//     independent instances can run concurrently.
//
//   - Problems: classic benchmark objectives (sphere, rosenbrock, rastrigin,
//     ackley, schwefel, eggholder) with a name registry for the CLI.
//
//   - Runner: batches of independent trials with bounded concurrency and
//     aggregate statistics.
//
//   - Archive: SQLite-backed persistence of finished runs and their
//     evolution logs.
//
// Example usage:
//
//	prob := problems.Rastrigin(10)
//	pop, err := core.NewPopulation(prob, 20, 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//	cfg := optimizers.DefaultSADEConfig()
//	cfg.Generations = 1000
//	cfg.Variant = 2 // rand/1/exp
//	cfg.Seed = 42
//	opt, err := optimizers.NewSADE(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	pop, err = opt.Evolve(pop)
//	if err != nil {
//		log.Fatal(err)
//	}
//	best := pop.BestIndex()
//	fmt.Println(pop.FAt(best)[0], opt.LastStopReason())
package devo
