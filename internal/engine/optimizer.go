package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/piwi3910/BarCut/internal/model"
)

// DataProvider supplies optimization inputs when the caller omits them. Its
// storage backend is outside this package's concern. Provider failures on
// optional data (stock lengths, constraints) fall back to defaults; only a
// missing item source is an error.
type DataProvider interface {
	GetOptimizationItems(ctx context.Context, workOrderID string) ([]model.Item, error)
	GetMaterialStockLengths(ctx context.Context) ([]model.StockLength, error)
	GetConstraints(ctx context.Context) (*model.Constraints, error)
	GetWorkOrderItems(ctx context.Context, workOrderID string) ([]model.Item, error)
}

// Service runs cutting-stock optimizations. The only state it keeps across
// calls is a monotonically increasing request counter and the deterministic
// PRNG stream, both fixed at construction: optimizing the same inputs with
// the same seed, in the same call order, reproduces the same results.
type Service struct {
	provider   DataProvider
	evaluator  Evaluator
	logger     *slog.Logger
	rng        *rng
	thresholds PoolingThresholds
	requests   uint64
}

// Option configures a Service.
type Option func(*Service)

// WithProvider attaches an external data provider consulted when a request
// omits items, stock lengths or constraints.
func WithProvider(p DataProvider) Option {
	return func(s *Service) { s.provider = p }
}

// WithEvaluator supplies an accelerated GA evaluator. It is probed once; if
// the probe or any later evaluation fails the CPU path takes over silently.
func WithEvaluator(e Evaluator) Option {
	return func(s *Service) { s.evaluator = e }
}

// WithLogger attaches a structured logger. Without one, logging is discarded.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithSeed fixes the PRNG seed for the service's lifetime.
func WithSeed(seed int64) Option {
	return func(s *Service) { s.rng = newRNG(seed) }
}

// WithPoolingThresholds overrides the pooled-plan adoption gate.
func WithPoolingThresholds(t PoolingThresholds) Option {
	return func(s *Service) { s.thresholds = t }
}

// NewService creates an optimization service.
func NewService(opts ...Option) *Service {
	s := &Service{
		logger:     slog.New(slog.DiscardHandler),
		rng:        newRNG(1),
		thresholds: DefaultPoolingThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Capability negotiation: probe the accelerated evaluator once, fall
	// back to the CPU evaluator on any failure.
	if s.evaluator != nil {
		if err := s.evaluator.Probe(); err != nil {
			s.logger.Info("accelerated evaluator unavailable, using cpu path", "error", err)
			s.evaluator = nil
		}
	}
	if s.evaluator == nil {
		s.evaluator = cpuEvaluator{}
	}
	return s
}

// Optimize runs one request through validate, merge, dispatch, finalize and
// synthesize. Validation and invariant failures surface as errors wrapped
// with the request id and algorithm; every other fallback is internal.
func (s *Service) Optimize(ctx context.Context, req model.OptimizationRequest) (*model.OptimizationResult, error) {
	s.requests++
	requestID := fmt.Sprintf("%06d-%s", s.requests, uuid.New().String()[:8])
	started := time.Now()

	fail := func(err error) (*model.OptimizationResult, error) {
		return nil, fmt.Errorf("request %s (%s): %w", requestID, req.Algorithm, err)
	}

	if !req.Algorithm.Valid() {
		return fail(&UnsupportedAlgorithmError{Algorithm: string(req.Algorithm)})
	}

	items, stocks, cons, err := s.resolveInputs(ctx, req)
	if err != nil {
		return fail(err)
	}
	if err := validateRequest(items, req.Objectives); err != nil {
		return fail(err)
	}

	costModel := model.DefaultCostModel()
	if req.CostModel != nil {
		costModel = *req.CostModel
	}

	cuts, iterations, err := s.dispatch(items, stocks, cons, costModel, req)
	if err != nil {
		return fail(err)
	}

	if err := finalizeCuts(cuts, cons); err != nil {
		return fail(err)
	}

	result := synthesize(requestID, req.Algorithm, cuts, items, stocks, cons, costModel, time.Since(started))
	result.PerformanceMetrics.Iterations = iterations

	s.logger.Info("optimization complete",
		"request_id", requestID,
		"algorithm", req.Algorithm,
		"bars", result.StockCount,
		"efficiency", result.Efficiency,
		"waste", result.TotalWaste,
	)
	return result, nil
}

// resolveInputs fills missing request data from the provider and defaults,
// in the precedence order explicit > provider > built-in.
func (s *Service) resolveInputs(ctx context.Context, req model.OptimizationRequest) ([]model.Item, []model.StockLength, model.Constraints, error) {
	items := req.Items
	if len(items) == 0 && s.provider != nil {
		fetched, err := s.provider.GetOptimizationItems(ctx, req.WorkOrderID)
		if err != nil {
			return nil, nil, model.Constraints{}, &ConfigurationError{
				Message: fmt.Sprintf("data provider failed to supply items: %v", err),
			}
		}
		items = fetched
	}

	stocks := req.StockLengths
	if len(stocks) == 0 && s.provider != nil {
		if fetched, err := s.provider.GetMaterialStockLengths(ctx); err == nil && len(fetched) > 0 {
			stocks = fetched
		} else if err != nil {
			s.logger.Debug("provider stock lengths unavailable, using default catalogue", "error", err)
		}
	}
	if len(stocks) == 0 {
		stocks = model.DefaultStockLengths()
	}

	cons := model.DefaultConstraints()
	if s.provider != nil && req.Constraints == nil {
		if fetched, err := s.provider.GetConstraints(ctx); err == nil && fetched != nil {
			cons = *fetched
		} else if err != nil {
			s.logger.Debug("provider constraints unavailable, using defaults", "error", err)
		}
	}
	if req.Constraints != nil {
		cons = *req.Constraints
	}

	return items, stocks, cons, nil
}

// validateRequest rejects bad input before any packing work begins.
func validateRequest(items []model.Item, objectives []model.Objective) error {
	if len(items) == 0 {
		return &ValidationError{Field: "items", Message: "non-empty items array is required"}
	}
	for i, it := range items {
		if it.Length <= 0 {
			return &ValidationError{
				Field:   fmt.Sprintf("items[%d].length", i),
				Message: fmt.Sprintf("must be positive, got %g", it.Length),
			}
		}
		if it.Quantity < 1 {
			return &ValidationError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: fmt.Sprintf("must be at least 1, got %d", it.Quantity),
			}
		}
	}

	if len(objectives) > 0 {
		var sum float64
		for _, o := range objectives {
			sum += o.Weight
		}
		if math.Abs(sum-1) > 1e-6 {
			return &ValidationError{
				Field:   "objectives",
				Message: fmt.Sprintf("weights must sum to 1, got %g", sum),
			}
		}
	}
	return nil
}

// dispatch routes to the selected algorithm and returns raw, unfinalized cuts.
func (s *Service) dispatch(items []model.Item, stocks []model.StockLength,
	cons model.Constraints, costModel model.CostModel,
	req model.OptimizationRequest) ([]*model.Cut, int, error) {

	switch req.Algorithm {
	case model.AlgorithmFFD, model.AlgorithmBFD, model.AlgorithmNFD, model.AlgorithmWFD:
		cuts, err := packDecreasing(req.Algorithm, items, stocks, cons)
		return cuts, 0, err

	case model.AlgorithmGenetic:
		return runGenetic(items, stocks, cons, costModel, req.Objectives, req.Performance, s.rng, s.evaluator, s.logger)

	case model.AlgorithmAnnealing:
		return runAnnealing(items, stocks, cons, s.rng)

	case model.AlgorithmBranch:
		return runBranchAndBound(items, stocks, cons)

	case model.AlgorithmPooling:
		cuts, _, err := runPooling(items, stocks, cons, costModel, s.thresholds, s.logger)
		return cuts, 0, err

	default:
		return nil, 0, &UnsupportedAlgorithmError{Algorithm: string(req.Algorithm)}
	}
}
