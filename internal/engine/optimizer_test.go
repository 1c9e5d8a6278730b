package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/BarCut/internal/model"
)

// stubProvider serves canned inputs and records whether it was consulted.
type stubProvider struct {
	items       []model.Item
	stocks      []model.StockLength
	constraints *model.Constraints
	itemsErr    error
	stocksErr   error

	itemCalls int
}

func (p *stubProvider) GetOptimizationItems(ctx context.Context, workOrderID string) ([]model.Item, error) {
	p.itemCalls++
	if p.itemsErr != nil {
		return nil, p.itemsErr
	}
	if workOrderID == "" {
		return p.items, nil
	}
	var filtered []model.Item
	for _, it := range p.items {
		if it.WorkOrderID == workOrderID {
			filtered = append(filtered, it)
		}
	}
	return filtered, nil
}

func (p *stubProvider) GetMaterialStockLengths(ctx context.Context) ([]model.StockLength, error) {
	return p.stocks, p.stocksErr
}

func (p *stubProvider) GetConstraints(ctx context.Context) (*model.Constraints, error) {
	return p.constraints, nil
}

func (p *stubProvider) GetWorkOrderItems(ctx context.Context, workOrderID string) ([]model.Item, error) {
	return p.GetOptimizationItems(ctx, workOrderID)
}

func standardRequest(alg model.Algorithm) model.OptimizationRequest {
	return model.OptimizationRequest{
		Algorithm: alg,
		Items: []model.Item{
			{ProfileType: "U-40", Length: 1000, Quantity: 5, WorkOrderID: "WO-1"},
			{ProfileType: "U-40", Length: 750, Quantity: 3, WorkOrderID: "WO-1"},
			{ProfileType: "U-40", Length: 500, Quantity: 8, WorkOrderID: "WO-2"},
		},
		StockLengths: []model.StockLength{{StockLength: 6100}},
	}
}

func TestOptimize_AllAlgorithmsEndToEnd(t *testing.T) {
	for _, alg := range model.Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			svc := NewService(WithSeed(1))

			result, err := svc.Optimize(context.Background(), standardRequest(alg))
			require.NoError(t, err)

			assert.Equal(t, alg, result.Algorithm)
			assert.Equal(t, 16, result.TotalSegments())
			assert.NotEmpty(t, result.RequestID)
			assert.Positive(t, result.StockCount)
			assert.NotEmpty(t, result.ParetoFrontier)

			for _, c := range result.Cuts {
				assert.InDelta(t, c.StockLength, c.UsedLength+c.RemainingLength, 1e-9)
				assert.Equal(t, len(c.Segments), c.SegmentCount)
			}
			assert.InDelta(t,
				(result.TotalLength-result.TotalWaste)/result.TotalLength*100,
				result.Efficiency, 1e-9)
		})
	}
}

func TestOptimize_SinglePieceScenario(t *testing.T) {
	svc := NewService()
	req := model.OptimizationRequest{
		Algorithm:    model.AlgorithmFFD,
		Items:        []model.Item{{Length: 1000, Quantity: 1}},
		StockLengths: []model.StockLength{{StockLength: 6100}},
		Constraints:  &model.Constraints{},
	}

	result, err := svc.Optimize(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, result.Cuts, 1)
	c := result.Cuts[0]
	assert.Equal(t, 1, c.SegmentCount)
	assert.Equal(t, 1000.0, c.UsedLength)
	assert.Equal(t, 5100.0, c.RemainingLength)
}

func TestOptimize_EmptyItemsRejected(t *testing.T) {
	svc := NewService()

	_, err := svc.Optimize(context.Background(), model.OptimizationRequest{
		Algorithm: model.AlgorithmFFD,
	})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "non-empty items")
}

func TestOptimize_BadObjectiveWeightsRejected(t *testing.T) {
	svc := NewService()
	req := standardRequest(model.AlgorithmFFD)
	req.Objectives = []model.Objective{
		{Type: model.ObjectiveMinimizeWaste, Weight: 0.5},
		{Type: model.ObjectiveMinimizeCost, Weight: 0.3},
	}

	_, err := svc.Optimize(context.Background(), req)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "sum to 1")
}

func TestOptimize_NonPositiveLengthRejected(t *testing.T) {
	svc := NewService()
	req := model.OptimizationRequest{
		Algorithm: model.AlgorithmFFD,
		Items:     []model.Item{{Length: -5, Quantity: 1}},
	}

	_, err := svc.Optimize(context.Background(), req)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "items[0].length", validation.Field)
}

func TestOptimize_ZeroQuantityRejected(t *testing.T) {
	svc := NewService()
	req := model.OptimizationRequest{
		Algorithm: model.AlgorithmFFD,
		Items:     []model.Item{{Length: 500, Quantity: 0}},
	}

	_, err := svc.Optimize(context.Background(), req)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "items[0].quantity", validation.Field)
}

func TestOptimize_UnknownAlgorithmRejected(t *testing.T) {
	svc := NewService()
	req := standardRequest("quantum")

	_, err := svc.Optimize(context.Background(), req)

	var unsupported *UnsupportedAlgorithmError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "quantum", unsupported.Algorithm)
}

func TestOptimize_ValidObjectiveWeightsAccepted(t *testing.T) {
	svc := NewService(WithSeed(3))
	req := standardRequest(model.AlgorithmGenetic)
	req.Objectives = []model.Objective{
		{Type: model.ObjectiveMinimizeWaste, Weight: 0.7, Priority: 1},
		{Type: model.ObjectiveMinimizeCost, Weight: 0.3, Priority: 2},
	}

	_, err := svc.Optimize(context.Background(), req)
	assert.NoError(t, err)
}

func TestOptimize_ProviderSuppliesMissingInputs(t *testing.T) {
	provider := &stubProvider{
		items: []model.Item{
			{Length: 1200, Quantity: 2, WorkOrderID: "WO-9"},
			{Length: 800, Quantity: 3, WorkOrderID: "WO-10"},
		},
		stocks:      []model.StockLength{{StockLength: 7000}},
		constraints: &model.Constraints{KerfWidth: 2},
	}
	svc := NewService(WithProvider(provider))

	result, err := svc.Optimize(context.Background(), model.OptimizationRequest{
		Algorithm: model.AlgorithmFFD,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, provider.itemCalls)
	assert.Equal(t, 5, result.TotalSegments())
	for _, c := range result.Cuts {
		assert.Equal(t, 7000.0, c.StockLength)
	}
}

func TestOptimize_ProviderFiltersByWorkOrder(t *testing.T) {
	provider := &stubProvider{
		items: []model.Item{
			{Length: 1200, Quantity: 2, WorkOrderID: "WO-9"},
			{Length: 800, Quantity: 3, WorkOrderID: "WO-10"},
		},
	}
	svc := NewService(WithProvider(provider))

	result, err := svc.Optimize(context.Background(), model.OptimizationRequest{
		Algorithm:   model.AlgorithmFFD,
		WorkOrderID: "WO-9",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalSegments())
}

func TestOptimize_ProviderItemFailureIsConfigurationError(t *testing.T) {
	provider := &stubProvider{itemsErr: errors.New("database offline")}
	svc := NewService(WithProvider(provider))

	_, err := svc.Optimize(context.Background(), model.OptimizationRequest{
		Algorithm: model.AlgorithmFFD,
	})

	var config *ConfigurationError
	require.ErrorAs(t, err, &config)
}

func TestOptimize_ProviderStockFailureFallsBackToDefaults(t *testing.T) {
	provider := &stubProvider{
		items:     []model.Item{{Length: 1000, Quantity: 1}},
		stocksErr: errors.New("catalogue unavailable"),
	}
	svc := NewService(WithProvider(provider))

	result, err := svc.Optimize(context.Background(), model.OptimizationRequest{
		Algorithm: model.AlgorithmFFD,
	})
	require.NoError(t, err)

	require.Len(t, result.Cuts, 1)
	assert.Equal(t, model.DefaultStockBarLength, result.Cuts[0].StockLength)
}

func TestOptimize_ExplicitInputsBeatProvider(t *testing.T) {
	provider := &stubProvider{
		items:       []model.Item{{Length: 9999, Quantity: 9}},
		stocks:      []model.StockLength{{StockLength: 12200}},
		constraints: &model.Constraints{KerfWidth: 50},
	}
	svc := NewService(WithProvider(provider))

	req := standardRequest(model.AlgorithmFFD)
	req.Constraints = &model.Constraints{}

	result, err := svc.Optimize(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, provider.itemCalls, "explicit items must not consult the provider")
	assert.Equal(t, 16, result.TotalSegments())
	for _, c := range result.Cuts {
		assert.Equal(t, 6100.0, c.StockLength)
		assert.Zero(t, c.KerfLoss)
	}
}

// brokenEvaluator fails its startup probe.
type brokenEvaluator struct{}

func (brokenEvaluator) Probe() error { return errors.New("no device") }

func (brokenEvaluator) Evaluate([]model.Item, []model.StockLength, model.Constraints, model.CostModel) (EvaluatorMetrics, error) {
	return EvaluatorMetrics{}, errors.New("no device")
}

func TestNewService_FailedProbeFallsBackToCPU(t *testing.T) {
	svc := NewService(WithEvaluator(brokenEvaluator{}), WithSeed(1))

	result, err := svc.Optimize(context.Background(), standardRequest(model.AlgorithmGenetic))
	require.NoError(t, err)
	assert.Equal(t, 16, result.TotalSegments())
}

func TestOptimize_SameSeedReproducesResults(t *testing.T) {
	run := func() *model.OptimizationResult {
		svc := NewService(WithSeed(1234))
		result, err := svc.Optimize(context.Background(), standardRequest(model.AlgorithmGenetic))
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()

	assert.Equal(t, first.StockCount, second.StockCount)
	assert.Equal(t, first.TotalWaste, second.TotalWaste)
	assert.Equal(t, first.Efficiency, second.Efficiency)
	require.Len(t, second.Cuts, len(first.Cuts))
	for i := range first.Cuts {
		assert.Equal(t, first.Cuts[i].PlanLabel, second.Cuts[i].PlanLabel)
	}
}

func TestOptimize_RequestIDsAreSequential(t *testing.T) {
	svc := NewService()
	req := standardRequest(model.AlgorithmFFD)

	first, err := svc.Optimize(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Optimize(context.Background(), req)
	require.NoError(t, err)

	assert.Regexp(t, `^000001-`, first.RequestID)
	assert.Regexp(t, `^000002-`, second.RequestID)
}

func TestOptimize_IterationsReportedForMetaheuristics(t *testing.T) {
	svc := NewService(WithSeed(1))

	result, err := svc.Optimize(context.Background(), standardRequest(model.AlgorithmAnnealing))
	require.NoError(t, err)

	assert.Positive(t, result.PerformanceMetrics.Iterations)
	assert.Equal(t, model.AlgorithmAnnealing, result.PerformanceMetrics.Algorithm)
	assert.Equal(t, 16, result.PerformanceMetrics.PieceCount)
}
