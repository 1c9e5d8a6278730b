package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/BarCut/internal/model"
)

func noLossConstraints() model.Constraints {
	// Simplify for testing: no kerf, no safeties.
	return model.Constraints{MinScrapLength: 500}
}

func assertAccounting(t *testing.T, cuts []*model.Cut) {
	t.Helper()
	for _, c := range cuts {
		assert.InDelta(t, c.StockLength, c.UsedLength+c.RemainingLength, 1e-9,
			"cut %s: used+remaining must equal stock length", c.ID)
		assert.Equal(t, len(c.Segments), c.SegmentCount, "cut %s", c.ID)

		planCount := 0
		for _, p := range c.Plan {
			planCount += p.Count
		}
		assert.Equal(t, c.SegmentCount, planCount, "cut %s: plan must cover all segments", c.ID)
	}
}

func countSegments(cuts []*model.Cut) int {
	total := 0
	for _, c := range cuts {
		total += c.SegmentCount
	}
	return total
}

func TestPack_SinglePieceOnStandardBar(t *testing.T) {
	items := []model.Item{{Length: 1000, Quantity: 1}}
	stocks := []model.StockLength{{StockLength: 6100}}
	cons := noLossConstraints()

	cuts, err := packDecreasing(model.AlgorithmFFD, items, stocks, cons)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(cuts, cons))

	require.Len(t, cuts, 1)
	require.Len(t, cuts[0].Segments, 1)
	assert.Equal(t, 1000.0, cuts[0].UsedLength)
	assert.Equal(t, 5100.0, cuts[0].RemainingLength)
	assertAccounting(t, cuts)
}

func TestPack_KerfOnlyChargedBetweenPieces(t *testing.T) {
	items := []model.Item{{Length: 1000, Quantity: 3}}
	stocks := []model.StockLength{{StockLength: 6100}}
	cons := model.Constraints{KerfWidth: 5}

	cuts, err := packDecreasing(model.AlgorithmFFD, items, stocks, cons)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(cuts, cons))

	require.Len(t, cuts, 1)
	c := cuts[0]
	// Two gaps between three pieces.
	assert.Equal(t, 10.0, c.KerfLoss)
	assert.Equal(t, 3010.0, c.UsedLength)
	assert.Equal(t, 0.0, c.Segments[0].Position)
	assert.Equal(t, 1005.0, c.Segments[1].Position)
	assert.Equal(t, 2010.0, c.Segments[2].Position)
	assertAccounting(t, cuts)
}

func TestPack_SafetyReservesBothEnds(t *testing.T) {
	items := []model.Item{{Length: 1000, Quantity: 1}}
	stocks := []model.StockLength{{StockLength: 6100}}
	cons := model.Constraints{StartSafety: 2, EndSafety: 2}

	cuts, err := packDecreasing(model.AlgorithmFFD, items, stocks, cons)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(cuts, cons))

	c := cuts[0]
	assert.Equal(t, 2.0, c.Segments[0].Position)
	assert.Equal(t, 1004.0, c.UsedLength)
	assert.Equal(t, 5096.0, c.RemainingLength)
	assert.Equal(t, 4.0, c.SafetyMargin)
	assertAccounting(t, cuts)
}

func TestPack_MaxPiecesPerBarMatchesCapacityFormula(t *testing.T) {
	cons := model.Constraints{KerfWidth: 3.5, StartSafety: 2, EndSafety: 2}
	stock := model.StockLength{StockLength: 6100}

	want := int(math.Floor((6100 - 2 - 2 + 3.5) / (992 + 3.5)))
	require.Equal(t, 6, want)
	assert.Equal(t, want, maxRepeats(stock, 992, cons))

	// Exactly that many pieces fill one bar; one more opens a second.
	items := []model.Item{{Length: 992, Quantity: want}}
	cuts, err := packDecreasing(model.AlgorithmFFD, items, []model.StockLength{stock}, cons)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(cuts, cons))
	require.Len(t, cuts, 1)
	assert.Equal(t, want, cuts[0].SegmentCount)

	items[0].Quantity = want + 1
	cuts, err = packDecreasing(model.AlgorithmFFD, items, []model.StockLength{stock}, cons)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(cuts, cons))
	assert.Len(t, cuts, 2)
	assertAccounting(t, cuts)
}

func TestPack_MaxCutsPerStockLimitsSegments(t *testing.T) {
	items := []model.Item{{Length: 100, Quantity: 10}}
	stocks := []model.StockLength{{StockLength: 6100}}
	cons := model.Constraints{MaxCutsPerStock: 4}

	cuts, err := packDecreasing(model.AlgorithmFFD, items, stocks, cons)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(cuts, cons))

	require.Len(t, cuts, 3)
	for _, c := range cuts[:2] {
		assert.Equal(t, 4, c.SegmentCount)
	}
	assert.Equal(t, 2, cuts[2].SegmentCount)
}

func TestFinalize_WasteClassificationAndReclaim(t *testing.T) {
	items := []model.Item{{Length: 5500, Quantity: 1}}
	stocks := []model.StockLength{{StockLength: 6100}}
	cons := model.Constraints{MinScrapLength: 500}

	cuts, err := packDecreasing(model.AlgorithmFFD, items, stocks, cons)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(cuts, cons))

	c := cuts[0]
	assert.Equal(t, 600.0, c.RemainingLength)
	assert.Equal(t, model.WasteExcessive, c.WasteCategory)
	assert.True(t, c.IsReclaimable)
}

func TestFinalize_BuildsPlanLabel(t *testing.T) {
	items := []model.Item{
		{Length: 992, Quantity: 3},
		{Length: 750, Quantity: 2},
	}
	stocks := []model.StockLength{{StockLength: 6100}}
	cons := noLossConstraints()

	cuts, err := packDecreasing(model.AlgorithmFFD, items, stocks, cons)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(cuts, cons))

	require.Len(t, cuts, 1)
	assert.Equal(t, "3x992 + 2x750", cuts[0].PlanLabel)
	require.Len(t, cuts[0].Plan, 2)
	assert.Equal(t, 992.0, cuts[0].Plan[0].Length)
	assert.Equal(t, 3, cuts[0].Plan[0].Count)
}

func TestValidateCut_DetectsBrokenAccounting(t *testing.T) {
	c := &model.Cut{ID: "bad", StockLength: 6100, UsedLength: 1000, RemainingLength: 4000}

	err := validateCut(c)

	var violation *InvariantViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "bad", violation.CutID)
}

func TestSelectBestStockLength_PrefersSmallestRemainder(t *testing.T) {
	candidates := []model.StockLength{
		{StockLength: 6100},
		{StockLength: 4000},
	}

	// 2000mm pieces: the 4000 bar packs 2 with zero remainder, the 6100 bar
	// packs 3 with 100 left over.
	best := selectBestStockLength(2000, candidates, 0, 0, 0)
	assert.Equal(t, 4000.0, best.StockLength)

	// 3000mm pieces: 6100 leaves 100, 4000 leaves 1000.
	best = selectBestStockLength(3000, candidates, 0, 0, 0)
	assert.Equal(t, 6100.0, best.StockLength)
}

func TestSelectBestStockLength_FallsBackToLongestBar(t *testing.T) {
	candidates := []model.StockLength{
		{StockLength: 1000},
		{StockLength: 2500},
	}

	best := selectBestStockLength(5000, candidates, 0, 0, 0)
	assert.Equal(t, 2500.0, best.StockLength)
}

func TestCandidatesFor_ProfileFiltering(t *testing.T) {
	stocks := []model.StockLength{
		{StockLength: 6100, ProfileType: "U-40"},
		{StockLength: 4000, ProfileType: "L-30"},
		{StockLength: 7000},
	}

	matched := candidatesFor(model.Item{ProfileType: "U-40"}, stocks, model.Constraints{})
	require.Len(t, matched, 2)
	assert.Equal(t, 6100.0, matched[0].StockLength)
	assert.Equal(t, 7000.0, matched[1].StockLength)

	// Untyped items and unknown profiles both see the whole catalogue.
	assert.Len(t, candidatesFor(model.Item{}, stocks, model.Constraints{}), 3)
	assert.Len(t, candidatesFor(model.Item{ProfileType: "Z-99"}, stocks, model.Constraints{}), 3)
}

func TestCandidatesFor_MaterialGradeGate(t *testing.T) {
	stocks := []model.StockLength{
		{StockLength: 6100, MaterialGrade: "EN AW-6060"},
		{StockLength: 6500, MaterialGrade: "EN AW-6082"},
		{StockLength: 7000},
	}
	item := model.Item{MaterialGrade: "EN AW-6082"}

	// Grades are only enforced when the constraints ask for it.
	assert.Len(t, candidatesFor(item, stocks, model.Constraints{}), 3)

	strict := model.Constraints{RespectMaterialGrades: true}
	matched := candidatesFor(item, stocks, strict)
	require.Len(t, matched, 2)
	assert.Equal(t, 6500.0, matched[0].StockLength)
	assert.Equal(t, 7000.0, matched[1].StockLength)

	// Ungraded items see everything even under strict matching, and a grade
	// absent from the catalogue does not strand the item.
	assert.Len(t, candidatesFor(model.Item{}, stocks, strict), 3)
	orphan := model.Item{MaterialGrade: "EN AW-7075"}
	graded := []model.StockLength{{StockLength: 6100, MaterialGrade: "EN AW-6060"}}
	assert.Len(t, candidatesFor(orphan, graded, strict), 1)
}

func TestPack_RespectMaterialGradesSelectsMatchingStock(t *testing.T) {
	items := []model.Item{
		{Length: 1000, Quantity: 2, MaterialGrade: "EN AW-6082"},
	}
	stocks := []model.StockLength{
		{StockLength: 6100, MaterialGrade: "EN AW-6060"},
		{StockLength: 6500, MaterialGrade: "EN AW-6082"},
	}
	cons := model.Constraints{RespectMaterialGrades: true}

	cuts, err := packDecreasing(model.AlgorithmFFD, items, stocks, cons)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(cuts, cons))

	require.Len(t, cuts, 1)
	assert.Equal(t, 6500.0, cuts[0].StockLength)
	assert.Equal(t, "EN AW-6082", cuts[0].MaterialGrade)
}

func TestPack_KerfAndSafetyNeverImproveEfficiency(t *testing.T) {
	// Four pieces exactly fill one bar when nothing is lost to the blade or
	// the bar ends. Any positive kerf or safety forces a second bar.
	items := []model.Item{{Length: 1525, Quantity: 4}}
	stocks := []model.StockLength{{StockLength: 6100}}
	costModel := model.DefaultCostModel()

	base := model.Constraints{}
	baseCuts, err := packDecreasing(model.AlgorithmFFD, items, stocks, base)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(baseCuts, base))
	baseStats := statsFor(baseCuts, base, costModel)
	assert.InDelta(t, 100.0, baseStats.Efficiency, 1e-9)

	withKerf := model.Constraints{KerfWidth: 10}
	kerfCuts, err := packDecreasing(model.AlgorithmFFD, items, stocks, withKerf)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(kerfCuts, withKerf))
	kerfStats := statsFor(kerfCuts, withKerf, costModel)

	var baseKerf, kerfLoss float64
	for _, c := range baseCuts {
		baseKerf += c.KerfLoss
	}
	for _, c := range kerfCuts {
		kerfLoss += c.KerfLoss
	}
	assert.Greater(t, kerfLoss, baseKerf)
	assert.LessOrEqual(t, kerfStats.Efficiency, baseStats.Efficiency)

	withSafety := model.Constraints{StartSafety: 2, EndSafety: 2}
	safetyCuts, err := packDecreasing(model.AlgorithmFFD, items, stocks, withSafety)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(safetyCuts, withSafety))
	safetyStats := statsFor(safetyCuts, withSafety, costModel)

	var baseReserve, reserve float64
	for _, c := range baseCuts {
		baseReserve += c.SafetyMargin
	}
	for _, c := range safetyCuts {
		reserve += c.SafetyMargin
	}
	assert.Greater(t, reserve, baseReserve)
	assert.LessOrEqual(t, safetyStats.Efficiency, baseStats.Efficiency)
}
