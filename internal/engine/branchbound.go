package engine

import (
	"math"

	"github.com/piwi3910/BarCut/internal/model"
)

// Hard caps that keep the branch-and-bound search a bounded heuristic. Past
// either cap the remaining pieces are completed greedily instead of branched.
const (
	branchMaxDepth = 20
	branchMaxNodes = 10000
)

// branchNode is a partial assignment: the first idx pieces are placed on the
// node's bars.
type branchNode struct {
	cuts []*model.Cut
	idx  int
}

// runBranchAndBound explores partial piece assignments breadth-first. The
// upper bound comes from a BFD packing; nodes whose lower bound cannot beat
// the incumbent bar count are pruned. Caps on depth and explored nodes bound
// the search; capped nodes are completed greedily, so the result is a
// heuristic, not a proven optimum. The returned cuts are not finalized.
func runBranchAndBound(items []model.Item, stocks []model.StockLength,
	cons model.Constraints) ([]*model.Cut, int, error) {

	pieces := expandItems(items)
	sortByLengthDesc(pieces)
	if len(pieces) == 0 {
		return nil, 0, nil
	}

	// Incumbent: BFD solution as the initial upper bound.
	best, err := packDecreasing(model.AlgorithmBFD, items, stocks, cons)
	if err != nil {
		return nil, 0, err
	}
	bestBars := len(best)
	bestWaste := totalRemaining(best)

	maxDepth := len(pieces)
	if maxDepth > branchMaxDepth {
		maxDepth = branchMaxDepth
	}

	var maxStock float64
	for _, s := range stocks {
		if s.StockLength > maxStock {
			maxStock = s.StockLength
		}
	}

	// suffix[i] is the total length of pieces i..n-1 still to place.
	suffix := make([]float64, len(pieces)+1)
	for i := len(pieces) - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + pieces[i].Length
	}
	lowerBound := func(n branchNode) int {
		lb := len(n.cuts)
		if maxStock > 0 {
			lb += int(math.Ceil(suffix[n.idx] / maxStock))
		}
		return lb
	}

	greedyComplete := func(n branchNode) ([]*model.Cut, error) {
		cuts := copyCuts(n.cuts)
		for _, piece := range pieces[n.idx:] {
			idx := firstFit(cuts, piece.Length, cons)
			if idx < 0 {
				stock := selectBestStockLength(piece.Length, candidatesFor(piece, stocks, cons), cons.KerfWidth, cons.StartSafety, cons.EndSafety)
				cuts = append(cuts, newCut(stock, cons))
				idx = len(cuts) - 1
			}
			if err := addSegment(cuts[idx], piece, kerfFor(cuts[idx], cons)); err != nil {
				return nil, err
			}
		}
		return cuts, nil
	}

	consider := func(cuts []*model.Cut) {
		waste := totalRemaining(cuts)
		if len(cuts) < bestBars || (len(cuts) == bestBars && waste < bestWaste) {
			best = cuts
			bestBars = len(cuts)
			bestWaste = waste
		}
	}

	queue := []branchNode{{idx: 0}}
	explored := 0

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		explored++

		if node.idx == len(pieces) {
			consider(node.cuts)
			continue
		}
		if lowerBound(node) >= bestBars {
			continue
		}

		if explored > branchMaxNodes {
			// Node budget exhausted: finish this assignment greedily and
			// abandon the rest of the frontier.
			cuts, err := greedyComplete(node)
			if err != nil {
				return nil, explored, err
			}
			consider(cuts)
			break
		}
		if node.idx >= maxDepth {
			cuts, err := greedyComplete(node)
			if err != nil {
				return nil, explored, err
			}
			consider(cuts)
			continue
		}

		piece := pieces[node.idx]

		// Branch: the piece goes onto each open bar it fits, or a new bar.
		for i, c := range node.cuts {
			if !fits(c, piece.Length, cons) {
				continue
			}
			child := branchNode{cuts: copyCuts(node.cuts), idx: node.idx + 1}
			if err := addSegment(child.cuts[i], piece, kerfFor(child.cuts[i], cons)); err != nil {
				return nil, explored, err
			}
			queue = append(queue, child)
		}

		stock := selectBestStockLength(piece.Length, candidatesFor(piece, stocks, cons), cons.KerfWidth, cons.StartSafety, cons.EndSafety)
		child := branchNode{cuts: copyCuts(node.cuts), idx: node.idx + 1}
		fresh := newCut(stock, cons)
		if err := addSegment(fresh, piece, 0); err != nil {
			return nil, explored, err
		}
		child.cuts = append(child.cuts, fresh)
		queue = append(queue, child)
	}

	return best, explored, nil
}

func totalRemaining(cuts []*model.Cut) float64 {
	var total float64
	for _, c := range cuts {
		if c.RemainingLength > 0 {
			total += c.RemainingLength
		}
	}
	return total
}
