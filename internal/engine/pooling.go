package engine

import (
	"log/slog"
	"math"
	"sort"

	"github.com/piwi3910/BarCut/internal/model"
)

// PoolingThresholds gates adoption of a pooled plan over the per-work-order
// baseline. All three conditions must hold or the baseline is returned
// unchanged; unmet thresholds are a silent fallback, never an error.
type PoolingThresholds struct {
	MinWasteReduction float64 `json:"min_waste_reduction"` // required reduction as a fraction of baseline waste
	MaxEfficiencyDrop float64 `json:"max_efficiency_drop"` // tolerated drop in percentage points
	MaxMixedBarRatio  float64 `json:"max_mixed_bar_ratio"` // tolerated share of bars serving several work orders
}

// DefaultPoolingThresholds returns the stock adoption gate.
func DefaultPoolingThresholds() PoolingThresholds {
	return PoolingThresholds{
		MinWasteReduction: 0.05,
		MaxEfficiencyDrop: 2.0,
		MaxMixedBarRatio:  0.6,
	}
}

// poolKey identifies profiles that may share a bar across work orders.
type poolKey struct {
	profile   string
	die       string
	alloy     string
	surface   string
	tolerance string
}

func keyFor(it model.Item) poolKey {
	k := poolKey{
		profile:   it.ProfileType,
		die:       it.Die,
		alloy:     it.Alloy,
		surface:   it.Surface,
		tolerance: it.Tolerance,
	}
	if k.die == "" {
		k.die = model.DefaultDie
	}
	if k.alloy == "" {
		k.alloy = model.DefaultAlloy
	}
	if k.surface == "" {
		k.surface = model.DefaultSurface
	}
	if k.tolerance == "" {
		k.tolerance = model.DefaultTolerance
	}
	return k
}

// demandEntry is the consolidated requirement for one length within a pool,
// with the per-work-order breakdown needed for redistribution.
type demandEntry struct {
	length   float64
	quantity int
	perOrder map[string]int
}

// pool groups equivalent profiles across work orders and carries their
// consolidated demand vector.
type pool struct {
	key    poolKey
	sample model.Item // attribute carrier for segments cut from this pool
	demand []*demandEntry
}

// buildPools consolidates items into pools and per-pool demand vectors,
// longest length first.
func buildPools(items []model.Item) []*pool {
	byKey := make(map[poolKey]*pool)
	var order []poolKey

	for _, it := range items {
		k := keyFor(it)
		p, ok := byKey[k]
		if !ok {
			p = &pool{key: k, sample: it}
			byKey[k] = p
			order = append(order, k)
		}
		var entry *demandEntry
		for _, e := range p.demand {
			if e.length == it.Length {
				entry = e
				break
			}
		}
		if entry == nil {
			entry = &demandEntry{length: it.Length, perOrder: make(map[string]int)}
			p.demand = append(p.demand, entry)
		}
		entry.quantity += it.Quantity
		entry.perOrder[it.WorkOrderID] += it.Quantity
	}

	pools := make([]*pool, 0, len(byKey))
	for _, k := range order {
		p := byKey[k]
		sort.Slice(p.demand, func(i, j int) bool {
			return p.demand[i].length > p.demand[j].length
		})
		pools = append(pools, p)
	}
	return pools
}

// barPattern is one candidate bar layout for a pool: which lengths to cut
// from which stock, and how much of the bar it consumes.
type barPattern struct {
	stock     model.StockLength
	plan      []model.PlanEntry
	used      float64
	remaining float64
}

// maxRepeats returns how many pieces of length fit on the stock under the
// kerf and safety constraints.
func maxRepeats(stock model.StockLength, length float64, cons model.Constraints) int {
	capacity := stock.StockLength - cons.StartSafety - cons.EndSafety + cons.KerfWidth
	if length+cons.KerfWidth <= 0 {
		return 0
	}
	return int(math.Floor(capacity / (length + cons.KerfWidth)))
}

func patternFrom(stock model.StockLength, plan []model.PlanEntry, cons model.Constraints) barPattern {
	pieces := 0
	var total float64
	for _, e := range plan {
		pieces += e.Count
		total += e.Length * float64(e.Count)
	}
	used := cons.StartSafety + cons.EndSafety + total
	if pieces > 1 {
		used += float64(pieces-1) * cons.KerfWidth
	}
	return barPattern{
		stock:     stock,
		plan:      plan,
		used:      used,
		remaining: stock.StockLength - used,
	}
}

// generatePatterns builds the candidate layouts for a pool: single-length
// patterns (maximum repeats of one demanded length) and mixed patterns
// (greedy pairwise filling of two demanded lengths).
func generatePatterns(p *pool, stocks []model.StockLength, cons model.Constraints) []barPattern {
	var patterns []barPattern

	for _, stock := range stocks {
		for _, e := range p.demand {
			n := maxRepeats(stock, e.length, cons)
			if n < 1 {
				continue
			}
			patterns = append(patterns, patternFrom(stock,
				[]model.PlanEntry{{Length: e.length, Count: n}}, cons))
		}

		for _, e1 := range p.demand {
			for _, e2 := range p.demand {
				if e1.length == e2.length {
					continue
				}
				// Take the most long pieces that still leave room for at
				// least one short piece, then fill the remainder.
				for n1 := maxRepeats(stock, e1.length, cons); n1 >= 1; n1-- {
					base := patternFrom(stock,
						[]model.PlanEntry{{Length: e1.length, Count: n1}}, cons)
					room := base.remaining
					n2 := int(math.Floor(room / (e2.length + cons.KerfWidth)))
					if n2 < 1 {
						continue
					}
					patterns = append(patterns, patternFrom(stock, []model.PlanEntry{
						{Length: e1.length, Count: n1},
						{Length: e2.length, Count: n2},
					}, cons))
					break
				}
			}
		}
	}
	return patterns
}

// satisfiable counts how many pieces of a pattern current unmet demand can
// actually absorb.
func satisfiable(pat barPattern, unmet map[float64]int) int {
	total := 0
	for _, e := range pat.plan {
		n := unmet[e.Length]
		if e.Count < n {
			n = e.Count
		}
		total += n
	}
	return total
}

// distribute hands k produced pieces of one length back to work orders in
// proportion to each order's remaining share of demand, floor-rounded, with
// the leftovers going one by one to the orders with demand still open.
func distribute(k int, perOrder map[string]int) map[string]int {
	orders := make([]string, 0, len(perOrder))
	total := 0
	for wo, n := range perOrder {
		if n > 0 {
			orders = append(orders, wo)
			total += n
		}
	}
	sort.Strings(orders)

	out := make(map[string]int)
	if total == 0 {
		return out
	}
	if k > total {
		k = total
	}

	assigned := 0
	for _, wo := range orders {
		share := k * perOrder[wo] / total // floor
		out[wo] = share
		assigned += share
	}
	for _, wo := range orders {
		if assigned == k {
			break
		}
		if out[wo] < perOrder[wo] {
			out[wo]++
			assigned++
		}
	}
	return out
}

// runPooling consolidates demand across work orders, selects bar patterns
// greedily, redistributes the produced pieces to their originating work
// orders, and adopts the pooled plan only if it beats the per-work-order
// baseline within the configured thresholds. The returned cuts are not
// finalized.
func runPooling(items []model.Item, stocks []model.StockLength,
	cons model.Constraints, costModel model.CostModel,
	thresholds PoolingThresholds, logger *slog.Logger) ([]*model.Cut, bool, error) {

	baseline, err := perWorkOrderBaseline(items, stocks, cons)
	if err != nil {
		return nil, false, err
	}

	pooled, err := packPooled(items, stocks, cons)
	if err != nil {
		return nil, false, err
	}

	baseStats := statsFor(baseline, cons, costModel)
	poolStats := statsFor(pooled, cons, costModel)

	mixed := 0
	for _, c := range pooled {
		if c.IsMixed() {
			mixed++
		}
	}
	mixedRatio := 0.0
	if len(pooled) > 0 {
		mixedRatio = float64(mixed) / float64(len(pooled))
	}

	wasteReduction := baseStats.Waste - poolStats.Waste
	efficiencyDrop := baseStats.Efficiency - poolStats.Efficiency

	adopt := wasteReduction >= thresholds.MinWasteReduction*baseStats.Waste &&
		efficiencyDrop <= thresholds.MaxEfficiencyDrop &&
		mixedRatio <= thresholds.MaxMixedBarRatio

	logger.Debug("pooling decision",
		"adopted", adopt,
		"baseline_waste", baseStats.Waste,
		"pooled_waste", poolStats.Waste,
		"efficiency_drop", efficiencyDrop,
		"mixed_ratio", mixedRatio,
	)

	if !adopt {
		return baseline, false, nil
	}
	return pooled, true, nil
}

// perWorkOrderBaseline packs each work order on its own using FFD.
func perWorkOrderBaseline(items []model.Item, stocks []model.StockLength, cons model.Constraints) ([]*model.Cut, error) {
	byOrder := make(map[string][]model.Item)
	var orders []string
	for _, it := range items {
		if _, ok := byOrder[it.WorkOrderID]; !ok {
			orders = append(orders, it.WorkOrderID)
		}
		byOrder[it.WorkOrderID] = append(byOrder[it.WorkOrderID], it)
	}
	sort.Strings(orders)

	var cuts []*model.Cut
	for _, wo := range orders {
		woCuts, err := packDecreasing(model.AlgorithmFFD, byOrder[wo], stocks, cons)
		if err != nil {
			return nil, err
		}
		cuts = append(cuts, woCuts...)
	}
	return cuts, nil
}

// packPooled builds the pooled cut list: pattern selection per pool, piece
// redistribution, and a greedy sweep for any demand no pattern could cover.
func packPooled(items []model.Item, stocks []model.StockLength, cons model.Constraints) ([]*model.Cut, error) {
	var cuts []*model.Cut

	for _, p := range buildPools(items) {
		candidates := candidatesFor(p.sample, stocks, cons)
		patterns := generatePatterns(p, candidates, cons)

		unmet := make(map[float64]int)
		remaining := make(map[float64]map[string]int)
		for _, e := range p.demand {
			unmet[e.length] = e.quantity
			remaining[e.length] = make(map[string]int, len(e.perOrder))
			for wo, n := range e.perOrder {
				remaining[e.length][wo] = n
			}
		}

		for {
			bestIdx := -1
			bestScore := 0.0
			bestPieces := 0
			for i, pat := range patterns {
				pieces := satisfiable(pat, unmet)
				if pieces == 0 {
					continue
				}
				score := float64(pieces) / (pat.remaining + 1)
				if score > bestScore {
					bestIdx = i
					bestScore = score
					bestPieces = pieces
				}
			}
			if bestIdx < 0 || bestPieces == 0 {
				break
			}

			cut, err := applyPattern(patterns[bestIdx], p, unmet, remaining, cons)
			if err != nil {
				return nil, err
			}
			cuts = append(cuts, cut)
		}

		// Demand no pattern could serve (lengths longer than any single-
		// pattern layout allows) falls back to greedy placement so every
		// piece is still produced.
		leftover := leftoverItems(p, unmet, remaining)
		if len(leftover) > 0 {
			extra, err := packDecreasing(model.AlgorithmFFD, leftover, candidates, cons)
			if err != nil {
				return nil, err
			}
			cuts = append(cuts, extra...)
		}
	}
	return cuts, nil
}

// applyPattern cuts one bar following a pattern, clipped to unmet demand,
// and assigns the produced pieces back to work orders.
func applyPattern(pat barPattern, p *pool, unmet map[float64]int,
	remaining map[float64]map[string]int, cons model.Constraints) (*model.Cut, error) {

	cut := newCut(pat.stock, cons)
	for _, e := range pat.plan {
		k := unmet[e.Length]
		if e.Count < k {
			k = e.Count
		}
		if k == 0 {
			continue
		}

		shares := distribute(k, remaining[e.Length])
		orders := make([]string, 0, len(shares))
		for wo := range shares {
			orders = append(orders, wo)
		}
		sort.Strings(orders)

		for _, wo := range orders {
			for i := 0; i < shares[wo]; i++ {
				piece := p.sample
				piece.Length = e.Length
				piece.Quantity = 1
				piece.TotalLength = e.Length
				piece.WorkOrderID = wo
				if err := addSegment(cut, piece, kerfFor(cut, cons)); err != nil {
					return nil, err
				}
			}
			remaining[e.Length][wo] -= shares[wo]
			unmet[e.Length] -= shares[wo]
		}
	}
	return cut, nil
}

// leftoverItems converts still-unmet demand back into items for the greedy
// fallback sweep.
func leftoverItems(p *pool, unmet map[float64]int, remaining map[float64]map[string]int) []model.Item {
	var items []model.Item
	for _, e := range p.demand {
		if unmet[e.length] <= 0 {
			continue
		}
		orders := make([]string, 0, len(remaining[e.length]))
		for wo := range remaining[e.length] {
			orders = append(orders, wo)
		}
		sort.Strings(orders)
		for _, wo := range orders {
			n := remaining[e.length][wo]
			if n <= 0 {
				continue
			}
			it := p.sample
			it.Length = e.length
			it.Quantity = n
			it.TotalLength = e.length * float64(n)
			it.WorkOrderID = wo
			items = append(items, it)
		}
	}
	return items
}
