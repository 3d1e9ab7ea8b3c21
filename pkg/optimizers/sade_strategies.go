package optimizers

import "math/rand"

// crossoverKind selects how mutant alleles are mixed into the trial vector.
type crossoverKind int

const (
	crossoverExponential crossoverKind = iota
	crossoverBinomial
)

// sweepState carries the read-only vectors a mutation formula may reference
// during one generation sweep: the previous generation's decision vectors and
// the iteration-best vector frozen at the end of the previous generation.
type sweepState struct {
	popold [][]float64
	gbIter []float64
}

// mutantFn computes the mutant value for allele n of target i. trial is the
// trial vector under construction; rand-to-best forms read the current trial
// allele. r holds the 7 sampled neighbor indices, F the scale factor.
type mutantFn func(s *sweepState, trial []float64, i int, r []int, F float64, n int) float64

// adaptFn recomputes F and CR for one trial under the iDE scheme, as a
// variant-specific linear combination of stored parameters at the sampled
// indices. Each term draws its own standard normal scaled by 0.5, mirroring
// the shape of the variant's decision-vector formula.
type adaptFn func(rng *rand.Rand, fv, crv []float64, i int, r []int, gbIterF, gbIterCR float64) (F, CR float64)

// strategy is the handler selection resolved once at construction: one of the
// ten mutation base forms paired with a crossover kind and the matching iDE
// recombination rule.
type strategy struct {
	mutate    mutantFn
	crossover crossoverKind
	adapt     adaptFn
}

func mutateBest1(s *sweepState, _ []float64, _ int, r []int, F float64, n int) float64 {
	return s.gbIter[n] + F*(s.popold[r[1]][n]-s.popold[r[2]][n])
}

func mutateRand1(s *sweepState, _ []float64, _ int, r []int, F float64, n int) float64 {
	return s.popold[r[0]][n] + F*(s.popold[r[1]][n]-s.popold[r[2]][n])
}

func mutateRandToBest1(s *sweepState, trial []float64, _ int, r []int, F float64, n int) float64 {
	return trial[n] + F*(s.gbIter[n]-trial[n]) + F*(s.popold[r[0]][n]-s.popold[r[1]][n])
}

func mutateBest2(s *sweepState, _ []float64, _ int, r []int, F float64, n int) float64 {
	return s.gbIter[n] + (s.popold[r[0]][n]-s.popold[r[1]][n])*F +
		(s.popold[r[2]][n]-s.popold[r[3]][n])*F
}

func mutateRand2(s *sweepState, _ []float64, _ int, r []int, F float64, n int) float64 {
	return s.popold[r[4]][n] + (s.popold[r[0]][n]-s.popold[r[1]][n])*F +
		(s.popold[r[2]][n]-s.popold[r[3]][n])*F
}

func mutateRand3(s *sweepState, _ []float64, _ int, r []int, F float64, n int) float64 {
	return s.popold[r[0]][n] + (s.popold[r[1]][n]-s.popold[r[2]][n])*F +
		(s.popold[r[3]][n]-s.popold[r[4]][n])*F +
		(s.popold[r[5]][n]-s.popold[r[6]][n])*F
}

func mutateBest3(s *sweepState, _ []float64, _ int, r []int, F float64, n int) float64 {
	return s.gbIter[n] + (s.popold[r[1]][n]-s.popold[r[2]][n])*F +
		(s.popold[r[3]][n]-s.popold[r[4]][n])*F +
		(s.popold[r[5]][n]-s.popold[r[6]][n])*F
}

func mutateRandToCurrent2(s *sweepState, _ []float64, i int, r []int, F float64, n int) float64 {
	return s.popold[r[0]][n] + (s.popold[r[1]][n]-s.popold[i][n])*F +
		(s.popold[r[2]][n]-s.popold[r[3]][n])*F
}

func mutateRandToBestAndCurrent2(s *sweepState, _ []float64, i int, r []int, F float64, n int) float64 {
	return s.popold[r[0]][n] + (s.popold[r[1]][n]-s.popold[i][n])*F -
		(s.popold[r[2]][n]-s.gbIter[n])*F
}

// The iDE rules below evaluate all F terms before all CR terms; each draw is
// taken exactly in this order so a fixed seed replays the same stream.

func adaptBest1(rng *rand.Rand, fv, crv []float64, _ int, r []int, gbIterF, gbIterCR float64) (float64, float64) {
	F := gbIterF + rng.NormFloat64()*0.5*(fv[r[1]]-fv[r[2]])
	CR := gbIterCR + rng.NormFloat64()*0.5*(crv[r[1]]-crv[r[2]])
	return F, CR
}

func adaptRand1(rng *rand.Rand, fv, crv []float64, _ int, r []int, _, _ float64) (float64, float64) {
	F := fv[r[0]] + rng.NormFloat64()*0.5*(fv[r[1]]-fv[r[2]])
	CR := crv[r[0]] + rng.NormFloat64()*0.5*(crv[r[1]]-crv[r[2]])
	return F, CR
}

func adaptRandToBest1(rng *rand.Rand, fv, crv []float64, i int, r []int, gbIterF, gbIterCR float64) (float64, float64) {
	F := fv[i] + rng.NormFloat64()*0.5*(gbIterF-fv[i]) +
		rng.NormFloat64()*0.5*(fv[r[0]]-fv[r[1]])
	CR := crv[i] + rng.NormFloat64()*0.5*(gbIterCR-crv[i]) +
		rng.NormFloat64()*0.5*(crv[r[0]]-crv[r[1]])
	return F, CR
}

func adaptBest2(rng *rand.Rand, fv, crv []float64, _ int, r []int, gbIterF, gbIterCR float64) (float64, float64) {
	F := gbIterF + rng.NormFloat64()*0.5*(fv[r[0]]-fv[r[1]]) +
		rng.NormFloat64()*0.5*(fv[r[2]]-fv[r[3]])
	CR := gbIterCR + rng.NormFloat64()*0.5*(crv[r[0]]-crv[r[1]]) +
		rng.NormFloat64()*0.5*(crv[r[2]]-crv[r[3]])
	return F, CR
}

func adaptRand2(rng *rand.Rand, fv, crv []float64, _ int, r []int, _, _ float64) (float64, float64) {
	F := fv[r[4]] + rng.NormFloat64()*0.5*(fv[r[0]]-fv[r[1]]) +
		rng.NormFloat64()*0.5*(fv[r[2]]-fv[r[3]])
	CR := crv[r[4]] + rng.NormFloat64()*0.5*(crv[r[0]]-crv[r[1]]) +
		rng.NormFloat64()*0.5*(crv[r[2]]-crv[r[3]])
	return F, CR
}

// rand/3 recombines F over three difference pairs but collapses CR into one
// four-way term anchored at r[4], exactly as the reference scheme does.
func adaptRand3(rng *rand.Rand, fv, crv []float64, _ int, r []int, _, _ float64) (float64, float64) {
	F := fv[r[0]] + rng.NormFloat64()*0.5*(fv[r[1]]-fv[r[2]]) +
		rng.NormFloat64()*0.5*(fv[r[3]]-fv[r[4]]) +
		rng.NormFloat64()*0.5*(fv[r[5]]-fv[r[6]])
	CR := crv[r[4]] + rng.NormFloat64()*0.5*(crv[r[0]]+crv[r[1]]-crv[r[2]]-crv[r[3]])
	return F, CR
}

func adaptBest3(rng *rand.Rand, fv, crv []float64, _ int, r []int, gbIterF, gbIterCR float64) (float64, float64) {
	F := gbIterF + rng.NormFloat64()*0.5*(fv[r[1]]-fv[r[2]]) +
		rng.NormFloat64()*0.5*(fv[r[3]]-fv[r[4]]) +
		rng.NormFloat64()*0.5*(fv[r[5]]-fv[r[6]])
	CR := gbIterCR + rng.NormFloat64()*0.5*(crv[r[0]]+crv[r[1]]-crv[r[2]]-crv[r[3]])
	return F, CR
}

func adaptRandToCurrent2(rng *rand.Rand, fv, crv []float64, i int, r []int, _, _ float64) (float64, float64) {
	F := fv[r[0]] + rng.NormFloat64()*0.5*(fv[r[1]]-fv[i]) +
		rng.NormFloat64()*0.5*(fv[r[3]]-fv[r[4]])
	CR := crv[r[0]] + rng.NormFloat64()*0.5*(crv[r[1]]-crv[i]) +
		rng.NormFloat64()*0.5*(crv[r[3]]-crv[r[4]])
	return F, CR
}

// rand-to-best-and-current/2 anchors the subtracted F term at r[2] but the
// subtracted CR term at r[3], preserving the reference's asymmetry.
func adaptRandToBestAndCurrent2(rng *rand.Rand, fv, crv []float64, i int, r []int, gbIterF, gbIterCR float64) (float64, float64) {
	F := fv[r[0]] + rng.NormFloat64()*0.5*(fv[r[1]]-fv[i]) -
		rng.NormFloat64()*0.5*(fv[r[2]]-gbIterF)
	CR := crv[r[0]] + rng.NormFloat64()*0.5*(crv[r[1]]-crv[i]) -
		rng.NormFloat64()*0.5*(crv[r[3]]-gbIterCR)
	return F, CR
}

// strategyTable maps mutation variant ids 1..18 to their resolved handlers.
// Index 0 is unused.
var strategyTable = [19]strategy{
	1:  {mutateBest1, crossoverExponential, adaptBest1},
	2:  {mutateRand1, crossoverExponential, adaptRand1},
	3:  {mutateRandToBest1, crossoverExponential, adaptRandToBest1},
	4:  {mutateBest2, crossoverExponential, adaptBest2},
	5:  {mutateRand2, crossoverExponential, adaptRand2},
	6:  {mutateBest1, crossoverBinomial, adaptBest1},
	7:  {mutateRand1, crossoverBinomial, adaptRand1},
	8:  {mutateRandToBest1, crossoverBinomial, adaptRandToBest1},
	9:  {mutateBest2, crossoverBinomial, adaptBest2},
	10: {mutateRand2, crossoverBinomial, adaptRand2},
	11: {mutateRand3, crossoverExponential, adaptRand3},
	12: {mutateRand3, crossoverBinomial, adaptRand3},
	13: {mutateBest3, crossoverExponential, adaptBest3},
	14: {mutateBest3, crossoverBinomial, adaptBest3},
	15: {mutateRandToCurrent2, crossoverExponential, adaptRandToCurrent2},
	16: {mutateRandToCurrent2, crossoverBinomial, adaptRandToCurrent2},
	17: {mutateRandToBestAndCurrent2, crossoverExponential, adaptRandToBestAndCurrent2},
	18: {mutateRandToBestAndCurrent2, crossoverBinomial, adaptRandToBestAndCurrent2},
}

// VariantName returns the conventional name of a mutation variant id, or the
// empty string for ids outside [1, 18].
func VariantName(variant int) string {
	names := [19]string{
		1: "best/1/exp", 2: "rand/1/exp", 3: "rand-to-best/1/exp",
		4: "best/2/exp", 5: "rand/2/exp", 6: "best/1/bin",
		7: "rand/1/bin", 8: "rand-to-best/1/bin", 9: "best/2/bin",
		10: "rand/2/bin", 11: "rand/3/exp", 12: "rand/3/bin",
		13: "best/3/exp", 14: "best/3/bin", 15: "rand-to-current/2/exp",
		16: "rand-to-current/2/bin", 17: "rand-to-best-and-current/2/exp",
		18: "rand-to-best-and-current/2/bin",
	}
	if variant < 1 || variant > 18 {
		return ""
	}
	return names[variant]
}
