package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/piwi3910/BarCut/internal/model"
)

// geneticConfig holds parameters for the genetic algorithm optimizer.
type geneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	CrossoverRate  float64
	TournamentSize int
	EliteFraction  float64
	Convergence    float64
}

// Hard caps keep GA runtime bounded no matter what the caller requests.
const (
	maxPopulationSize = 100
	maxGenerations    = 200
)

func defaultGeneticConfig() geneticConfig {
	return geneticConfig{
		PopulationSize: 20,
		Generations:    50,
		MutationRate:   0.15,
		CrossoverRate:  0.8,
		TournamentSize: 3,
		EliteFraction:  0.10,
		Convergence:    0.001,
	}
}

func (cfg geneticConfig) applyPerformance(perf *model.PerformanceOptions) geneticConfig {
	if perf != nil {
		if perf.PopulationSize > 0 {
			cfg.PopulationSize = perf.PopulationSize
		}
		if perf.Generations > 0 {
			cfg.Generations = perf.Generations
		}
		if perf.ConvergenceThreshold > 0 {
			cfg.Convergence = perf.ConvergenceThreshold
		}
	}
	if cfg.PopulationSize > maxPopulationSize {
		cfg.PopulationSize = maxPopulationSize
	}
	if cfg.Generations > maxGenerations {
		cfg.Generations = maxGenerations
	}
	return cfg
}

// EvaluatorMetrics is the objective summary an evaluator reports for one
// candidate ordering.
type EvaluatorMetrics struct {
	StockTotal float64
	Waste      float64
	Cost       float64
	Time       float64
	Efficiency float64
}

// Evaluator scores a candidate piece ordering. An accelerated implementation
// may be supplied at service construction; Probe is called once at startup
// and any failure, then or later, silently falls back to the CPU evaluator.
type Evaluator interface {
	Probe() error
	Evaluate(order []model.Item, stocks []model.StockLength, cons model.Constraints, costModel model.CostModel) (EvaluatorMetrics, error)
}

// cpuEvaluator packs the ordering through the accounting engine and measures
// it. This is the reference path every other evaluator must agree with.
type cpuEvaluator struct{}

func (cpuEvaluator) Probe() error { return nil }

func (cpuEvaluator) Evaluate(order []model.Item, stocks []model.StockLength, cons model.Constraints, costModel model.CostModel) (EvaluatorMetrics, error) {
	cuts, err := packSequence(order, stocks, cons, firstFit)
	if err != nil {
		return EvaluatorMetrics{}, err
	}
	s := statsFor(cuts, cons, costModel)
	return EvaluatorMetrics{
		StockTotal: s.StockTotal,
		Waste:      s.Waste,
		Cost:       s.Cost,
		Time:       s.Time,
		Efficiency: s.Efficiency,
	}, nil
}

// objectiveWeights maps the caller's weighted objectives onto the four
// normalized fitness terms.
type objectiveWeights struct {
	efficiency float64
	waste      float64
	cost       float64
	time       float64
}

func weightsFrom(objectives []model.Objective) objectiveWeights {
	if len(objectives) == 0 {
		objectives = model.DefaultObjectives()
	}
	var w objectiveWeights
	for _, o := range objectives {
		switch o.Type {
		case model.ObjectiveMaximizeEfficiency:
			w.efficiency += o.Weight
		case model.ObjectiveMinimizeWaste:
			w.waste += o.Weight
		case model.ObjectiveMinimizeCost:
			w.cost += o.Weight
		case model.ObjectiveMinimizeTime:
			w.time += o.Weight
		}
	}
	return w
}

// fitness is the weighted sum of normalized objective scores; higher is better.
func (w objectiveWeights) fitness(m EvaluatorMetrics) float64 {
	wasteScore := 0.0
	if m.StockTotal > 0 {
		wasteScore = 1 - m.Waste/m.StockTotal
	}
	return w.efficiency*(m.Efficiency/100) +
		w.waste*wasteScore +
		w.cost*(1-m.Cost/(m.Cost+10000)) +
		w.time*(1-m.Time/(m.Time+1000))
}

// chromosome is a candidate solution: a permutation of the expanded pieces,
// evaluated by packing them in exactly that order.
type chromosome struct {
	order   []model.Item
	fitness float64
}

// geneticOptimizer runs the permutation GA over piece orderings.
type geneticOptimizer struct {
	cfg       geneticConfig
	pieces    []model.Item
	stocks    []model.StockLength
	cons      model.Constraints
	costModel model.CostModel
	weights   objectiveWeights
	rng       *rng
	evaluator Evaluator
	logger    *slog.Logger

	generations int // generations actually run
}

// evaluate scores one ordering. An evaluator failure downgrades to the CPU
// path for the rest of the run; it is never surfaced to the caller.
func (g *geneticOptimizer) evaluate(order []model.Item) (float64, error) {
	metrics, err := g.evaluator.Evaluate(order, g.stocks, g.cons, g.costModel)
	if err != nil {
		if _, onCPU := g.evaluator.(cpuEvaluator); !onCPU {
			g.logger.Debug("accelerated evaluator failed, falling back to cpu", "error", err)
			g.evaluator = cpuEvaluator{}
			return g.evaluate(order)
		}
		return 0, err
	}
	return g.weights.fitness(metrics), nil
}

func (g *geneticOptimizer) optimize() ([]*model.Cut, error) {
	population, err := g.initPopulation()
	if err != nil {
		return nil, err
	}

	eliteCount := int(float64(g.cfg.PopulationSize) * g.cfg.EliteFraction)
	if eliteCount < 1 {
		eliteCount = 1
	}

	for gen := 0; gen < g.cfg.Generations; gen++ {
		g.generations = gen + 1

		sort.SliceStable(population, func(i, j int) bool {
			return population[i].fitness > population[j].fitness
		})

		// Early stop once the population has converged.
		if gen > 10 && fitnessVariance(population) < g.cfg.Convergence {
			break
		}

		newPop := make([]chromosome, 0, g.cfg.PopulationSize)
		for i := 0; i < eliteCount && i < len(population); i++ {
			newPop = append(newPop, copyChromosome(population[i]))
		}

		for len(newPop) < g.cfg.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)

			var child chromosome
			if g.rng.Float64() < g.cfg.CrossoverRate {
				child = g.orderCrossover(parent1, parent2)
			} else {
				child = copyChromosome(parent1)
			}
			g.mutate(&child)

			if child.fitness, err = g.evaluate(child.order); err != nil {
				return nil, err
			}
			newPop = append(newPop, child)
		}
		population = newPop
	}

	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})

	// Repack the winning ordering through the CPU path so the returned cuts
	// always come from the accounting engine.
	return packSequence(population[0].order, g.stocks, g.cons, firstFit)
}

func (g *geneticOptimizer) initPopulation() ([]chromosome, error) {
	n := len(g.pieces)
	population := make([]chromosome, g.cfg.PopulationSize)

	for i := range population {
		order := make([]model.Item, n)
		for j, idx := range g.rng.Perm(n) {
			order[j] = g.pieces[idx]
		}
		population[i] = chromosome{order: order}
	}

	// Seed one chromosome with the longest-first greedy order so the GA
	// starts at least as good as FFD.
	greedy := make([]model.Item, n)
	copy(greedy, g.pieces)
	sortByLengthDesc(greedy)
	population[0] = chromosome{order: greedy}

	var err error
	for i := range population {
		if population[i].fitness, err = g.evaluate(population[i].order); err != nil {
			return nil, err
		}
	}
	return population, nil
}

func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.cfg.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return best
}

// pieceKey is the crossover identity of a piece. Two pieces with the same
// profile, length and work order are interchangeable.
func pieceKey(it model.Item) string {
	return fmt.Sprintf("%s|%g|%s", it.ProfileType, it.Length, it.WorkOrderID)
}

// orderCrossover implements OX1 for orderings that may contain duplicate
// pieces: a contiguous slice is copied from parent1 and the remaining
// positions are filled from parent2 in its relative order, skipping pieces
// whose multiplicity is already covered by the copied slice.
func (g *geneticOptimizer) orderCrossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.order)
	if n <= 2 {
		return copyChromosome(parent1)
	}

	point1 := g.rng.Intn(n)
	point2 := g.rng.Intn(n)
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	child := chromosome{order: make([]model.Item, n)}
	taken := make(map[string]int)
	for i := point1; i <= point2; i++ {
		child.order[i] = parent1.order[i]
		taken[pieceKey(parent1.order[i])]++
	}

	childIdx := (point2 + 1) % n
	for _, piece := range parent2.order {
		key := pieceKey(piece)
		if taken[key] > 0 {
			taken[key]--
			continue
		}
		child.order[childIdx] = piece
		childIdx = (childIdx + 1) % n
	}
	return child
}

// mutate swaps two random positions with the configured probability.
func (g *geneticOptimizer) mutate(c *chromosome) {
	n := len(c.order)
	if n < 2 {
		return
	}
	if g.rng.Float64() < g.cfg.MutationRate {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		c.order[i], c.order[j] = c.order[j], c.order[i]
	}
}

func copyChromosome(c chromosome) chromosome {
	order := make([]model.Item, len(c.order))
	copy(order, c.order)
	return chromosome{order: order, fitness: c.fitness}
}

func fitnessVariance(population []chromosome) float64 {
	if len(population) == 0 {
		return 0
	}
	var mean float64
	for _, c := range population {
		mean += c.fitness
	}
	mean /= float64(len(population))

	var variance float64
	for _, c := range population {
		d := c.fitness - mean
		variance += d * d
	}
	return variance / float64(len(population))
}

// runGenetic expands the items and evolves piece orderings. The returned
// cuts are not finalized.
func runGenetic(items []model.Item, stocks []model.StockLength,
	cons model.Constraints, costModel model.CostModel,
	objectives []model.Objective, perf *model.PerformanceOptions,
	r *rng, evaluator Evaluator, logger *slog.Logger) ([]*model.Cut, int, error) {

	pieces := expandItems(items)
	if len(pieces) == 0 {
		return nil, 0, nil
	}

	g := &geneticOptimizer{
		cfg:       defaultGeneticConfig().applyPerformance(perf),
		pieces:    pieces,
		stocks:    stocks,
		cons:      cons,
		costModel: costModel,
		weights:   weightsFrom(objectives),
		rng:       r,
		evaluator: evaluator,
		logger:    logger,
	}
	cuts, err := g.optimize()
	return cuts, g.generations, err
}
