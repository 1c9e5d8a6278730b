package engine

import (
	"math"

	"github.com/piwi3910/BarCut/internal/model"
)

// Annealing schedule. Cooling is multiplicative; the run stops when the
// temperature drops below the floor or the iteration cap is hit.
const (
	annealStartTemp  = 1000.0
	annealCooling    = 0.95
	annealMinTemp    = 0.1
	annealIterations = 1000
	barCountPenalty  = 100.0
)

// annealEnergy is the quantity being minimized: total waste plus a penalty
// per open bar.
func annealEnergy(cuts []*model.Cut) float64 {
	var waste float64
	for _, c := range cuts {
		if c.RemainingLength > 0 {
			waste += c.RemainingLength
		}
	}
	return waste + barCountPenalty*float64(len(cuts))
}

func copyCuts(cuts []*model.Cut) []*model.Cut {
	out := make([]*model.Cut, len(cuts))
	for i, c := range cuts {
		cp := *c
		cp.Segments = make([]model.Segment, len(c.Segments))
		copy(cp.Segments, c.Segments)
		out[i] = &cp
	}
	return out
}

// trySwap exchanges one segment between two bars if both bars keep a
// non-negative remainder. Segment positions are left stale and rebuilt once
// the search finishes.
func trySwap(a, b *model.Cut, ai, bi int) bool {
	la := a.Segments[ai].Length
	lb := b.Segments[bi].Length
	if a.RemainingLength+la-lb < 0 || b.RemainingLength+lb-la < 0 {
		return false
	}

	a.Segments[ai], b.Segments[bi] = b.Segments[bi], a.Segments[ai]
	a.UsedLength += lb - la
	a.RemainingLength += la - lb
	b.UsedLength += la - lb
	b.RemainingLength += lb - la
	return true
}

// rebuildPositions recomputes segment positions on a bar from the leading
// edge, charging kerf between adjacent pieces.
func rebuildPositions(c *model.Cut, cons model.Constraints) {
	pos := cons.StartSafety
	for i := range c.Segments {
		if i > 0 {
			pos += cons.KerfWidth
		}
		c.Segments[i].Position = pos
		c.Segments[i].EndPosition = pos + c.Segments[i].Length
		pos += c.Segments[i].Length
	}
}

// runAnnealing refines an FFD seed solution by swapping segments between
// random bars under a cooling schedule. The best solution ever seen is kept
// separately from the current, possibly worse, one. The returned cuts are
// not finalized.
func runAnnealing(items []model.Item, stocks []model.StockLength,
	cons model.Constraints, r *rng) ([]*model.Cut, int, error) {

	current, err := packDecreasing(model.AlgorithmFFD, items, stocks, cons)
	if err != nil {
		return nil, 0, err
	}
	if len(current) < 2 {
		return current, 0, nil
	}

	currentEnergy := annealEnergy(current)
	best := copyCuts(current)
	bestEnergy := currentEnergy

	temp := annealStartTemp
	iterations := 0
	for iter := 0; iter < annealIterations && temp >= annealMinTemp; iter++ {
		iterations = iter + 1

		i := r.Intn(len(current))
		j := r.Intn(len(current))
		if i == j || len(current[i].Segments) == 0 || len(current[j].Segments) == 0 {
			temp *= annealCooling
			continue
		}
		ai := r.Intn(len(current[i].Segments))
		bi := r.Intn(len(current[j].Segments))

		candidate := copyCuts(current)
		if !trySwap(candidate[i], candidate[j], ai, bi) {
			temp *= annealCooling
			continue
		}

		candidateEnergy := annealEnergy(candidate)
		delta := candidateEnergy - currentEnergy
		if delta < 0 || r.Float64() < math.Exp(-delta/temp) {
			current = candidate
			currentEnergy = candidateEnergy
			if currentEnergy < bestEnergy {
				best = copyCuts(current)
				bestEnergy = currentEnergy
			}
		}
		temp *= annealCooling
	}

	for _, c := range best {
		rebuildPositions(c, cons)
	}
	return best, iterations, nil
}
