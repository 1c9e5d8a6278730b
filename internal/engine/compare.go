package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/BarCut/internal/model"
)

// ComparisonScenario defines a named request variation to compare.
type ComparisonScenario struct {
	Name        string
	Algorithm   model.Algorithm
	Constraints model.Constraints
}

// ComparisonResult holds the optimization result and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario     ComparisonScenario
	Result       *model.OptimizationResult
	BarsUsed     int
	TotalCuts    int
	WastePercent float64
	Err          error
}

// CompareScenarios runs each scenario against the same items and stock
// catalogue and returns the results in scenario order. This enables
// side-by-side comparison of algorithms and constraint variations.
func (s *Service) CompareScenarios(ctx context.Context, scenarios []ComparisonScenario,
	items []model.Item, stocks []model.StockLength) []ComparisonResult {

	results := make([]ComparisonResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		cons := scenario.Constraints
		result, err := s.Optimize(ctx, model.OptimizationRequest{
			Items:        items,
			StockLengths: stocks,
			Constraints:  &cons,
			Algorithm:    scenario.Algorithm,
		})

		cr := ComparisonResult{Scenario: scenario, Result: result, Err: err}
		if err == nil {
			cr.BarsUsed = result.StockCount
			cr.TotalCuts = result.TotalSegments()
			cr.WastePercent = 100.0 - result.Efficiency
		}
		results = append(results, cr)
	}
	return results
}

// BuildDefaultScenarios generates what-if scenarios from a base setup,
// varying the algorithm and key constraints.
func BuildDefaultScenarios(algorithm model.Algorithm, base model.Constraints) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Algorithm: algorithm, Constraints: base},
	}

	// Scenario: the complementary algorithm class
	if algorithm == model.AlgorithmGenetic || algorithm == model.AlgorithmAnnealing || algorithm == model.AlgorithmBranch {
		scenarios = append(scenarios, ComparisonScenario{
			Name: "Best-Fit Decreasing", Algorithm: model.AlgorithmBFD, Constraints: base,
		})
	} else {
		scenarios = append(scenarios, ComparisonScenario{
			Name: "Genetic Algorithm", Algorithm: model.AlgorithmGenetic, Constraints: base,
		})
	}

	// Scenario: thinner blade
	if base.KerfWidth > 1.0 {
		halfKerf := base
		halfKerf.KerfWidth = base.KerfWidth * 0.5
		scenarios = append(scenarios, ComparisonScenario{
			Name:        fmt.Sprintf("Kerf %.1fmm (half)", halfKerf.KerfWidth),
			Algorithm:   algorithm,
			Constraints: halfKerf,
		})
	}

	// Scenario: no end reserves
	if base.StartSafety > 0 || base.EndSafety > 0 {
		noSafety := base
		noSafety.StartSafety = 0
		noSafety.EndSafety = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name: "No Safety Margins", Algorithm: algorithm, Constraints: noSafety,
		})
	}

	return scenarios
}
