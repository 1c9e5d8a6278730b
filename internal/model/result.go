package model

// Segment is one physical piece cut from a stock bar. Positions are measured
// in mm from the leading end of the bar. A Segment is owned exclusively by its
// parent Cut and never shared.
type Segment struct {
	Length       float64 `json:"length"`
	Position     float64 `json:"position"`
	EndPosition  float64 `json:"end_position"`
	ProfileType  string  `json:"profile_type"`
	WorkOrderID  string  `json:"work_order_id"`
	MaterialCost float64 `json:"material_cost"`
	CuttingCost  float64 `json:"cutting_cost"`
}

// PlanEntry is one row of a cut's summary plan: how many pieces of a length.
type PlanEntry struct {
	Length float64 `json:"length"`
	Count  int     `json:"count"`
}

// WasteCategory classifies the leftover length of a finalized cut.
type WasteCategory string

const (
	WasteMinimal   WasteCategory = "minimal"   // < 50mm
	WasteSmall     WasteCategory = "small"     // < 100mm
	WasteMedium    WasteCategory = "medium"    // < 200mm
	WasteLarge     WasteCategory = "large"     // < 500mm
	WasteExcessive WasteCategory = "excessive" // >= 500mm
)

// ClassifyWaste maps a remaining length in mm to its waste category.
func ClassifyWaste(remaining float64) WasteCategory {
	switch {
	case remaining < 50:
		return WasteMinimal
	case remaining < 100:
		return WasteSmall
	case remaining < 200:
		return WasteMedium
	case remaining < 500:
		return WasteLarge
	default:
		return WasteExcessive
	}
}

// Cut is one stock bar and the segments assigned to it. While an optimization
// is running UsedLength excludes the trailing end safety; Finalize adds it,
// after which UsedLength+RemainingLength equals StockLength within 1e-9.
type Cut struct {
	ID              string        `json:"id"`
	StockLength     float64       `json:"stock_length"`
	ProfileType     string        `json:"profile_type"`
	MaterialGrade   string        `json:"material_grade"`
	Segments        []Segment     `json:"segments"`
	UsedLength      float64       `json:"used_length"`
	RemainingLength float64       `json:"remaining_length"`
	SegmentCount    int           `json:"segment_count"`
	KerfLoss        float64       `json:"kerf_loss"`
	SafetyMargin    float64       `json:"safety_margin"`
	Plan            []PlanEntry   `json:"plan"`
	PlanLabel       string        `json:"plan_label"`
	WasteCategory   WasteCategory `json:"waste_category"`
	IsReclaimable   bool          `json:"is_reclaimable"`
}

// WorkOrders returns the distinct work order ids served by this cut.
func (c *Cut) WorkOrders() []string {
	seen := make(map[string]bool)
	var orders []string
	for _, s := range c.Segments {
		if !seen[s.WorkOrderID] {
			seen[s.WorkOrderID] = true
			orders = append(orders, s.WorkOrderID)
		}
	}
	return orders
}

// IsMixed reports whether the cut serves more than one work order.
func (c *Cut) IsMixed() bool {
	return len(c.WorkOrders()) > 1
}

// CostBreakdown decomposes the total cost of a result by cost driver.
type CostBreakdown struct {
	Material float64 `json:"material"`
	Cutting  float64 `json:"cutting"`
	Setup    float64 `json:"setup"`
	Waste    float64 `json:"waste"`
	Time     float64 `json:"time"`
	Energy   float64 `json:"energy"`
	Total    float64 `json:"total"`
}

// WasteDistribution is the per-category histogram of finalized cuts plus the
// share of total waste that is long enough to reclaim.
type WasteDistribution struct {
	Categories         map[WasteCategory]int `json:"categories"`
	ReclaimablePercent float64               `json:"reclaimable_percent"`
}

// ParetoPoint is one candidate trade-off solution in the objective space.
type ParetoPoint struct {
	Algorithm  Algorithm `json:"algorithm"`
	Waste      float64   `json:"waste"`
	Cost       float64   `json:"cost"`
	Time       float64   `json:"time"`
	Efficiency float64   `json:"efficiency"`
}

// Dominates reports whether p weakly dominates q: no worse in waste, cost and
// time, no worse in efficiency, and strictly better in at least one dimension.
func (p ParetoPoint) Dominates(q ParetoPoint) bool {
	if p.Waste > q.Waste || p.Cost > q.Cost || p.Time > q.Time || p.Efficiency < q.Efficiency {
		return false
	}
	return p.Waste < q.Waste || p.Cost < q.Cost || p.Time < q.Time || p.Efficiency > q.Efficiency
}

// RecommendationSeverity grades how urgently a recommendation should be acted on.
type RecommendationSeverity string

const (
	SeverityInfo     RecommendationSeverity = "info"
	SeverityWarning  RecommendationSeverity = "warning"
	SeverityCritical RecommendationSeverity = "critical"
)

// Recommendation is one actionable suggestion derived from a result.
type Recommendation struct {
	Severity RecommendationSeverity `json:"severity"`
	Message  string                 `json:"message"`
}

// PerformanceMetrics describes how the run behaved and how the chosen
// algorithm scales.
type PerformanceMetrics struct {
	Algorithm   Algorithm `json:"algorithm"`
	DurationMs  float64   `json:"duration_ms"`
	PieceCount  int       `json:"piece_count"`
	Iterations  int       `json:"iterations,omitempty"`
	Complexity  string    `json:"complexity"`
	Scalability string    `json:"scalability"`
}

// AlgorithmProfile returns the static complexity and scalability
// classification for an algorithm id.
func AlgorithmProfile(a Algorithm) (complexity, scalability string) {
	switch a {
	case AlgorithmNFD:
		return "O(n)", "excellent"
	case AlgorithmFFD, AlgorithmBFD, AlgorithmWFD:
		return "O(n^2)", "good"
	case AlgorithmGenetic:
		return "O(g*p*n^2)", "moderate"
	case AlgorithmAnnealing:
		return "O(i*n)", "moderate"
	case AlgorithmBranch:
		return "O(b^d) capped", "poor beyond caps"
	case AlgorithmPooling:
		return "O(n^2)", "good"
	default:
		return "unknown", "unknown"
	}
}

// OptimizationResult is the aggregate outcome of one optimize() call. It is
// immutable once returned.
type OptimizationResult struct {
	RequestID          string             `json:"request_id"`
	Algorithm          Algorithm          `json:"algorithm"`
	Cuts               []Cut              `json:"cuts"`
	Efficiency         float64            `json:"efficiency"`
	TotalWaste         float64            `json:"total_waste"`
	TotalCost          float64            `json:"total_cost"`
	TotalLength        float64            `json:"total_length"`
	StockCount         int                `json:"stock_count"`
	TotalKerfLoss      float64            `json:"total_kerf_loss"`
	TotalSafetyReserve float64            `json:"total_safety_reserve"`
	CostBreakdown      CostBreakdown      `json:"cost_breakdown"`
	WasteDistribution  WasteDistribution  `json:"waste_distribution"`
	PerformanceMetrics PerformanceMetrics `json:"performance_metrics"`
	ParetoFrontier     []ParetoPoint      `json:"pareto_frontier"`
	Recommendations    []Recommendation   `json:"recommendations"`
	Confidence         float64            `json:"confidence"`
}

// TotalSegments returns the number of pieces across all cuts.
func (r *OptimizationResult) TotalSegments() int {
	total := 0
	for i := range r.Cuts {
		total += r.Cuts[i].SegmentCount
	}
	return total
}
