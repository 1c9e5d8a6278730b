package engine

import (
	"fmt"
	"time"

	"github.com/piwi3910/BarCut/internal/model"
)

// Nominal machine timings used for the time and cost estimates, in minutes.
const (
	setupMinutesPerBar      = 2.0
	cutMinutesPerSegment    = 0.5
	confidenceCostScale     = 10000.0
	efficiencyWarnBelow     = 85.0
	efficiencyCriticalBelow = 70.0
)

// solutionStats aggregates the objective dimensions of a cut list. It works
// on both in-progress and finalized cuts: the remainder of a bar is the same
// either side of finalization.
type solutionStats struct {
	StockTotal float64
	Waste      float64
	Cost       float64
	Time       float64
	Efficiency float64
	Bars       int
	Segments   int
}

func statsFor(cuts []*model.Cut, cons model.Constraints, costModel model.CostModel) solutionStats {
	var s solutionStats
	var used float64
	for _, c := range cuts {
		s.StockTotal += c.StockLength
		used += c.UsedLength
		if c.RemainingLength > 0 {
			s.Waste += c.RemainingLength
		}
		s.Segments += c.SegmentCount
	}
	s.Bars = len(cuts)

	s.Time = float64(s.Bars)*setupMinutesPerBar + float64(s.Segments)*cutMinutesPerSegment
	s.Cost = used*costModel.MaterialCost +
		float64(s.Segments)*costModel.CuttingCost +
		float64(s.Bars)*costModel.SetupCost +
		s.Waste*costModel.WasteCost +
		s.Time*costModel.TimeCost +
		float64(s.Bars)*cons.EnergyPerStock*costModel.EnergyCost

	if s.StockTotal > 0 {
		s.Efficiency = (s.StockTotal - s.Waste) / s.StockTotal * 100
	}
	return s
}

// synthesize builds the final OptimizationResult from a finalized cut list.
func synthesize(requestID string, alg model.Algorithm, cuts []*model.Cut,
	items []model.Item, stocks []model.StockLength,
	cons model.Constraints, costModel model.CostModel, elapsed time.Duration) *model.OptimizationResult {

	stats := statsFor(cuts, cons, costModel)

	result := &model.OptimizationResult{
		RequestID:   requestID,
		Algorithm:   alg,
		Efficiency:  stats.Efficiency,
		TotalWaste:  stats.Waste,
		TotalLength: stats.StockTotal,
		StockCount:  stats.Bars,
	}

	var used float64
	for _, c := range cuts {
		for i := range c.Segments {
			c.Segments[i].MaterialCost = c.Segments[i].Length * costModel.MaterialCost
			c.Segments[i].CuttingCost = costModel.CuttingCost
		}
		result.Cuts = append(result.Cuts, *c)
		result.TotalKerfLoss += c.KerfLoss
		result.TotalSafetyReserve += c.SafetyMargin
		used += c.UsedLength
	}

	result.CostBreakdown = model.CostBreakdown{
		Material: used * costModel.MaterialCost,
		Cutting:  float64(stats.Segments) * costModel.CuttingCost,
		Setup:    float64(stats.Bars) * costModel.SetupCost,
		Waste:    stats.Waste * costModel.WasteCost,
		Time:     stats.Time * costModel.TimeCost,
		Energy:   float64(stats.Bars) * cons.EnergyPerStock * costModel.EnergyCost,
	}
	cb := &result.CostBreakdown
	cb.Total = cb.Material + cb.Cutting + cb.Setup + cb.Waste + cb.Time + cb.Energy
	result.TotalCost = cb.Total

	result.WasteDistribution = wasteDistribution(cuts)
	result.ParetoFrontier = paretoFrontier(alg, stats, items, stocks, cons, costModel)
	result.Recommendations = recommendations(stats, result.WasteDistribution)
	result.Confidence = confidence(stats)

	complexity, scalability := model.AlgorithmProfile(alg)
	result.PerformanceMetrics = model.PerformanceMetrics{
		Algorithm:   alg,
		DurationMs:  float64(elapsed.Microseconds()) / 1000.0,
		PieceCount:  stats.Segments,
		Complexity:  complexity,
		Scalability: scalability,
	}

	return result
}

func wasteDistribution(cuts []*model.Cut) model.WasteDistribution {
	dist := model.WasteDistribution{Categories: make(map[model.WasteCategory]int)}
	var total, reclaimable float64
	for _, c := range cuts {
		dist.Categories[c.WasteCategory]++
		total += c.RemainingLength
		if c.IsReclaimable {
			reclaimable += c.RemainingLength
		}
	}
	if total > 0 {
		dist.ReclaimablePercent = reclaimable / total * 100
	}
	return dist
}

// paretoFrontier evaluates the four greedy heuristics as cheap candidate
// points alongside the primary solution, then strips every weakly dominated
// point.
func paretoFrontier(alg model.Algorithm, primary solutionStats,
	items []model.Item, stocks []model.StockLength,
	cons model.Constraints, costModel model.CostModel) []model.ParetoPoint {

	points := []model.ParetoPoint{{
		Algorithm:  alg,
		Waste:      primary.Waste,
		Cost:       primary.Cost,
		Time:       primary.Time,
		Efficiency: primary.Efficiency,
	}}

	for _, heuristic := range []model.Algorithm{model.AlgorithmFFD, model.AlgorithmBFD, model.AlgorithmNFD, model.AlgorithmWFD} {
		if heuristic == alg {
			continue
		}
		cuts, err := packDecreasing(heuristic, items, stocks, cons)
		if err != nil {
			continue
		}
		s := statsFor(cuts, cons, costModel)
		points = append(points, model.ParetoPoint{
			Algorithm:  heuristic,
			Waste:      s.Waste,
			Cost:       s.Cost,
			Time:       s.Time,
			Efficiency: s.Efficiency,
		})
	}

	var frontier []model.ParetoPoint
	for i, p := range points {
		dominated := false
		for j, q := range points {
			if i != j && q.Dominates(p) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, p)
		}
	}
	return frontier
}

// confidence combines efficiency, waste and cost factors multiplicatively
// into a [0,100] score.
func confidence(s solutionStats) float64 {
	if s.StockTotal == 0 {
		return 0
	}
	effFactor := s.Efficiency / 100
	wasteFactor := 1 - s.Waste/s.StockTotal
	costFactor := confidenceCostScale / (s.Cost + confidenceCostScale)

	score := 100 * effFactor * wasteFactor * costFactor
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func recommendations(s solutionStats, dist model.WasteDistribution) []model.Recommendation {
	var recs []model.Recommendation

	switch {
	case s.Efficiency < efficiencyCriticalBelow:
		recs = append(recs, model.Recommendation{
			Severity: model.SeverityCritical,
			Message: fmt.Sprintf("efficiency %.1f%% is critically low; review stock lengths against the demanded piece lengths",
				s.Efficiency),
		})
	case s.Efficiency < efficiencyWarnBelow:
		recs = append(recs, model.Recommendation{
			Severity: model.SeverityWarning,
			Message: fmt.Sprintf("efficiency %.1f%% is below target; consider alternative stock lengths or pooling across work orders",
				s.Efficiency),
		})
	}

	if dist.ReclaimablePercent > 50 {
		recs = append(recs, model.Recommendation{
			Severity: model.SeverityInfo,
			Message: fmt.Sprintf("%.0f%% of waste is reclaimable; feed the offcuts back into the stock catalogue",
				dist.ReclaimablePercent),
		})
	}

	return recs
}
