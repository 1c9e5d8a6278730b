package model

import "github.com/google/uuid"

// Algorithm identifies the optimization strategy to run.
type Algorithm string

const (
	AlgorithmFFD       Algorithm = "ffd"                 // First-Fit Decreasing (fast)
	AlgorithmBFD       Algorithm = "bfd"                 // Best-Fit Decreasing
	AlgorithmNFD       Algorithm = "nfd"                 // Next-Fit Decreasing (fastest, worst packing)
	AlgorithmWFD       Algorithm = "wfd"                 // Worst-Fit Decreasing (balances remnants)
	AlgorithmGenetic   Algorithm = "genetic"             // Genetic algorithm meta-heuristic
	AlgorithmAnnealing Algorithm = "simulated-annealing" // Simulated annealing meta-heuristic
	AlgorithmBranch    Algorithm = "branch-and-bound"    // Bounded branch-and-bound search
	AlgorithmPooling   Algorithm = "pooling"             // Cross-work-order profile pooling
)

// Algorithms lists every supported algorithm identifier.
var Algorithms = []Algorithm{
	AlgorithmFFD, AlgorithmBFD, AlgorithmNFD, AlgorithmWFD,
	AlgorithmGenetic, AlgorithmAnnealing, AlgorithmBranch, AlgorithmPooling,
}

// Valid reports whether a is a known algorithm identifier.
func (a Algorithm) Valid() bool {
	for _, known := range Algorithms {
		if a == known {
			return true
		}
	}
	return false
}

// Item represents a required profile piece: a length to cut, how many times,
// and which work order it belongs to. Lengths are in mm.
type Item struct {
	ID          string  `json:"id" yaml:"id"`
	ProfileType string  `json:"profile_type" yaml:"profile_type"`
	Length      float64 `json:"length" yaml:"length"`
	Quantity    int     `json:"quantity" yaml:"quantity"`
	WorkOrderID string  `json:"work_order_id" yaml:"work_order_id"`
	TotalLength float64 `json:"total_length" yaml:"total_length"`

	// MaterialGrade restricts stock selection when the constraints set
	// RespectMaterialGrades. Empty means any grade.
	MaterialGrade string `json:"material_grade,omitempty" yaml:"material_grade,omitempty"`

	// Profile attributes used for cross-work-order pooling. Empty values
	// fall back to the Default* constants so pool keys are always total.
	Die       string `json:"die,omitempty" yaml:"die,omitempty"`
	Alloy     string `json:"alloy,omitempty" yaml:"alloy,omitempty"`
	Surface   string `json:"surface,omitempty" yaml:"surface,omitempty"`
	Tolerance string `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
}

// Fallback values for pooling attributes left empty on an Item.
const (
	DefaultDie       = "std"
	DefaultAlloy     = "6060"
	DefaultSurface   = "mill"
	DefaultTolerance = "standard"
)

// NewItem creates an Item with a generated ID and computed total length.
func NewItem(profileType string, length float64, quantity int, workOrderID string) Item {
	return Item{
		ID:          uuid.New().String()[:8],
		ProfileType: profileType,
		Length:      length,
		Quantity:    quantity,
		WorkOrderID: workOrderID,
		TotalLength: length * float64(quantity),
	}
}

// StockLength represents one available raw bar length in the catalogue.
type StockLength struct {
	StockLength   float64 `json:"stock_length" yaml:"stock_length"`
	ProfileType   string  `json:"profile_type" yaml:"profile_type"`
	CostPerMm     float64 `json:"cost_per_mm" yaml:"cost_per_mm"`
	CostPerStock  float64 `json:"cost_per_stock" yaml:"cost_per_stock"`
	MaterialGrade string  `json:"material_grade" yaml:"material_grade"`
	Weight        float64 `json:"weight" yaml:"weight"`
}

// DefaultStockBarLength is the standard mill bar length assumed when no
// catalogue is supplied.
const DefaultStockBarLength = 6100.0

// DefaultStockLengths returns the fallback catalogue: a single standard bar.
func DefaultStockLengths() []StockLength {
	return []StockLength{{StockLength: DefaultStockBarLength}}
}

// Constraints holds the physical and policy parameters respected by every
// packing algorithm. All lengths are in mm.
type Constraints struct {
	KerfWidth             float64 `json:"kerf_width" yaml:"kerf_width"`
	StartSafety           float64 `json:"start_safety" yaml:"start_safety"`
	EndSafety             float64 `json:"end_safety" yaml:"end_safety"`
	MinScrapLength        float64 `json:"min_scrap_length" yaml:"min_scrap_length"`
	MaxWastePercentage    float64 `json:"max_waste_percentage" yaml:"max_waste_percentage"`
	MaxCutsPerStock       int     `json:"max_cuts_per_stock" yaml:"max_cuts_per_stock"`
	SafetyMargin          float64 `json:"safety_margin" yaml:"safety_margin"`
	AllowPartialStocks    bool    `json:"allow_partial_stocks" yaml:"allow_partial_stocks"`
	PrioritizeSmallWaste  bool    `json:"prioritize_small_waste" yaml:"prioritize_small_waste"`
	ReclaimWasteOnly      bool    `json:"reclaim_waste_only" yaml:"reclaim_waste_only"`
	BalanceComplexity     bool    `json:"balance_complexity" yaml:"balance_complexity"`
	RespectMaterialGrades bool    `json:"respect_material_grades" yaml:"respect_material_grades"`
	EnergyPerStock        float64 `json:"energy_per_stock" yaml:"energy_per_stock"`
}

// DefaultConstraints returns the built-in constraint set used when neither the
// caller nor a data provider supplies one.
func DefaultConstraints() Constraints {
	return Constraints{
		KerfWidth:            3.5,
		StartSafety:          2.0,
		EndSafety:            2.0,
		MinScrapLength:       500.0,
		MaxWastePercentage:   15.0,
		MaxCutsPerStock:      50,
		AllowPartialStocks:   true,
		PrioritizeSmallWaste: true,
		EnergyPerStock:       0.5,
	}
}

// CostModel holds the per-unit rates used to price a cutting plan.
type CostModel struct {
	MaterialCost float64 `json:"material_cost" yaml:"material_cost"` // per mm of used stock
	CuttingCost  float64 `json:"cutting_cost" yaml:"cutting_cost"`   // per cut segment
	SetupCost    float64 `json:"setup_cost" yaml:"setup_cost"`       // per stock bar
	WasteCost    float64 `json:"waste_cost" yaml:"waste_cost"`       // per mm of waste
	TimeCost     float64 `json:"time_cost" yaml:"time_cost"`         // per minute
	EnergyCost   float64 `json:"energy_cost" yaml:"energy_cost"`     // per kWh
}

// DefaultCostModel returns nominal euro-denominated rates.
func DefaultCostModel() CostModel {
	return CostModel{
		MaterialCost: 0.008,
		CuttingCost:  0.35,
		SetupCost:    1.50,
		WasteCost:    0.008,
		TimeCost:     0.60,
		EnergyCost:   0.25,
	}
}

// ObjectiveType names one optimization objective dimension.
type ObjectiveType string

const (
	ObjectiveMinimizeWaste      ObjectiveType = "minimize-waste"
	ObjectiveMinimizeCost       ObjectiveType = "minimize-cost"
	ObjectiveMinimizeTime       ObjectiveType = "minimize-time"
	ObjectiveMaximizeEfficiency ObjectiveType = "maximize-efficiency"
)

// Objective is one weighted optimization goal. Weights across all objectives
// of a request must sum to 1 within 1e-6.
type Objective struct {
	Type     ObjectiveType `json:"type" yaml:"type"`
	Weight   float64       `json:"weight" yaml:"weight"`
	Priority int           `json:"priority" yaml:"priority"`
}

// DefaultObjectives returns the fixed default weight set used when the caller
// supplies none.
func DefaultObjectives() []Objective {
	return []Objective{
		{Type: ObjectiveMinimizeWaste, Weight: 0.4, Priority: 1},
		{Type: ObjectiveMaximizeEfficiency, Weight: 0.3, Priority: 2},
		{Type: ObjectiveMinimizeCost, Weight: 0.2, Priority: 3},
		{Type: ObjectiveMinimizeTime, Weight: 0.1, Priority: 4},
	}
}

// PerformanceOptions bounds the metaheuristic search effort.
type PerformanceOptions struct {
	MaxIterations        int     `json:"max_iterations" yaml:"max_iterations"`
	ConvergenceThreshold float64 `json:"convergence_threshold" yaml:"convergence_threshold"`
	ParallelProcessing   bool    `json:"parallel_processing" yaml:"parallel_processing"`
	CacheResults         bool    `json:"cache_results" yaml:"cache_results"`
	PopulationSize       int     `json:"population_size,omitempty" yaml:"population_size,omitempty"`
	Generations          int     `json:"generations,omitempty" yaml:"generations,omitempty"`
}

// OptimizationRequest is the full input contract for one optimize() call.
// StockLengths, Constraints, Objectives, Performance and CostModel are all
// optional; missing pieces are filled from the data provider or defaults.
type OptimizationRequest struct {
	Items        []Item              `json:"items" yaml:"items"`
	StockLengths []StockLength       `json:"stock_lengths,omitempty" yaml:"stock_lengths,omitempty"`
	Constraints  *Constraints        `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Objectives   []Objective         `json:"objectives,omitempty" yaml:"objectives,omitempty"`
	Performance  *PerformanceOptions `json:"performance,omitempty" yaml:"performance,omitempty"`
	CostModel    *CostModel          `json:"cost_model,omitempty" yaml:"cost_model,omitempty"`
	Algorithm    Algorithm           `json:"algorithm" yaml:"algorithm"`
	WorkOrderID  string              `json:"work_order_id,omitempty" yaml:"work_order_id,omitempty"`
}
