package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/BarCut/internal/model"
)

func TestRunBranchAndBound_ProducesValidPacking(t *testing.T) {
	items := []model.Item{
		{Length: 1000, Quantity: 5},
		{Length: 750, Quantity: 3},
		{Length: 500, Quantity: 8},
	}
	stocks := []model.StockLength{{StockLength: 6100}}
	cons := model.DefaultConstraints()

	cuts, explored, err := runBranchAndBound(items, stocks, cons)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(cuts, cons))

	assert.Positive(t, explored)
	assert.Equal(t, 16, countSegments(cuts))
	assertAccounting(t, cuts)
}

func TestRunBranchAndBound_NeverWorseThanBFD(t *testing.T) {
	items := []model.Item{
		{Length: 2100, Quantity: 3},
		{Length: 1700, Quantity: 4},
		{Length: 1300, Quantity: 5},
	}
	stocks := []model.StockLength{{StockLength: 6100}}
	cons := model.DefaultConstraints()

	bfd, err := packDecreasing(model.AlgorithmBFD, items, stocks, cons)
	require.NoError(t, err)

	branched, _, err := runBranchAndBound(items, stocks, cons)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(branched), len(bfd))
}

func TestRunBranchAndBound_FindsExactFill(t *testing.T) {
	// Two 3050s fill one bar exactly with nothing lost to kerf or safeties.
	items := []model.Item{{Length: 3050, Quantity: 2}}
	stocks := []model.StockLength{{StockLength: 6100}}
	cons := noLossConstraints()

	cuts, _, err := runBranchAndBound(items, stocks, cons)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(cuts, cons))

	require.Len(t, cuts, 1)
	assert.Equal(t, 0.0, cuts[0].RemainingLength)
}

func TestRunBranchAndBound_EmptyInput(t *testing.T) {
	cuts, explored, err := runBranchAndBound(nil, model.DefaultStockLengths(), model.DefaultConstraints())

	require.NoError(t, err)
	assert.Empty(t, cuts)
	assert.Zero(t, explored)
}

func TestRunBranchAndBound_LargeInstanceStaysBounded(t *testing.T) {
	// Well past the depth cap; the search must fall back to greedy completion
	// and still conserve every piece.
	items := []model.Item{
		{Length: 930, Quantity: 15},
		{Length: 1240, Quantity: 15},
		{Length: 2070, Quantity: 10},
	}
	stocks := []model.StockLength{{StockLength: 6100}}
	cons := model.DefaultConstraints()

	cuts, explored, err := runBranchAndBound(items, stocks, cons)
	require.NoError(t, err)
	require.NoError(t, finalizeCuts(cuts, cons))

	assert.LessOrEqual(t, explored, branchMaxNodes+1)
	assert.Equal(t, 40, countSegments(cuts))
	assertAccounting(t, cuts)
}
