package engine

import (
	"sort"

	"github.com/piwi3910/BarCut/internal/model"
)

// expandItems splits every item into quantity unit pieces so each piece can
// be placed individually.
func expandItems(items []model.Item) []model.Item {
	var expanded []model.Item
	for _, it := range items {
		for i := 0; i < it.Quantity; i++ {
			piece := it
			piece.Quantity = 1
			piece.TotalLength = it.Length
			expanded = append(expanded, piece)
		}
	}
	return expanded
}

// sortByLengthDesc orders pieces longest first (the "decreasing" in FFD/BFD/
// NFD/WFD). The sort is stable so equal lengths keep input order and runs
// stay deterministic.
func sortByLengthDesc(pieces []model.Item) {
	sort.SliceStable(pieces, func(i, j int) bool {
		return pieces[i].Length > pieces[j].Length
	})
}

// fitPolicy selects which open bar receives the next piece. It returns the
// index of the chosen bar, or -1 to open a new one.
type fitPolicy func(cuts []*model.Cut, length float64, cons model.Constraints) int

// firstFit places into the earliest opened bar with room.
func firstFit(cuts []*model.Cut, length float64, cons model.Constraints) int {
	for i, c := range cuts {
		if fits(c, length, cons) {
			return i
		}
	}
	return -1
}

// bestFit places into the bar that would be left with the least room.
func bestFit(cuts []*model.Cut, length float64, cons model.Constraints) int {
	best := -1
	var bestLeft float64
	for i, c := range cuts {
		if !fits(c, length, cons) {
			continue
		}
		left := c.RemainingLength - length - kerfFor(c, cons)
		if best < 0 || left < bestLeft {
			best = i
			bestLeft = left
		}
	}
	return best
}

// worstFit places into the bar that would be left with the most room.
func worstFit(cuts []*model.Cut, length float64, cons model.Constraints) int {
	best := -1
	var bestLeft float64
	for i, c := range cuts {
		if !fits(c, length, cons) {
			continue
		}
		left := c.RemainingLength - length - kerfFor(c, cons)
		if best < 0 || left > bestLeft {
			best = i
			bestLeft = left
		}
	}
	return best
}

// nextFit only ever considers the most recently opened bar.
func nextFit(cuts []*model.Cut, length float64, cons model.Constraints) int {
	if len(cuts) == 0 {
		return -1
	}
	last := cuts[len(cuts)-1]
	if fits(last, length, cons) {
		return len(cuts) - 1
	}
	return -1
}

func policyFor(alg model.Algorithm) fitPolicy {
	switch alg {
	case model.AlgorithmBFD:
		return bestFit
	case model.AlgorithmNFD:
		return nextFit
	case model.AlgorithmWFD:
		return worstFit
	default:
		return firstFit
	}
}

// packSequence places pieces one at a time in the order given, without
// re-sorting. If no open bar fits, a new bar is opened sized by
// selectBestStockLength. The returned cuts are not finalized.
func packSequence(pieces []model.Item, stocks []model.StockLength, cons model.Constraints, policy fitPolicy) ([]*model.Cut, error) {
	var cuts []*model.Cut
	for _, piece := range pieces {
		idx := policy(cuts, piece.Length, cons)
		if idx < 0 {
			stock := selectBestStockLength(piece.Length, candidatesFor(piece, stocks, cons), cons.KerfWidth, cons.StartSafety, cons.EndSafety)
			cuts = append(cuts, newCut(stock, cons))
			idx = len(cuts) - 1
		}
		c := cuts[idx]
		if err := addSegment(c, piece, kerfFor(c, cons)); err != nil {
			return nil, err
		}
	}
	return cuts, nil
}

// packDecreasing is the shared pipeline of all four greedy heuristics:
// expand, sort longest first, then place with the policy for alg.
func packDecreasing(alg model.Algorithm, items []model.Item, stocks []model.StockLength, cons model.Constraints) ([]*model.Cut, error) {
	pieces := expandItems(items)
	sortByLengthDesc(pieces)
	return packSequence(pieces, stocks, cons, policyFor(alg))
}
