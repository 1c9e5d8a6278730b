package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePurchaseEstimate_Basic(t *testing.T) {
	items := []Item{
		{Length: 1000, Quantity: 10},
	}
	stock := StockLength{StockLength: 6100, CostPerStock: 25.0}

	est := CalculatePurchaseEstimate(items, stock, 0, 0, 0, 0)

	assert.Equal(t, 10000.0, est.TotalPieceLength)
	assert.Equal(t, 6100.0, est.UsableBarLength)
	assert.InDelta(t, 10000.0/6100.0, est.BarsNeededExact, 1e-9)
	assert.Equal(t, 2, est.BarsNeededMin)
	assert.Equal(t, 2, est.BarsWithWaste)
	assert.Equal(t, 50.0, est.EstimatedCost)
}

func TestCalculatePurchaseEstimate_KerfAndSafetyReduceCapacity(t *testing.T) {
	items := []Item{
		{Length: 1000, Quantity: 6},
	}
	stock := StockLength{StockLength: 6100}

	est := CalculatePurchaseEstimate(items, stock, 5, 50, 50, 0)

	// Each piece carries its kerf allowance; the bar loses both safeties.
	assert.Equal(t, 6030.0, est.TotalPieceLength)
	assert.Equal(t, 6000.0, est.UsableBarLength)
	assert.Equal(t, 2, est.BarsNeededMin)
}

func TestCalculatePurchaseEstimate_WasteFactorAddsBars(t *testing.T) {
	items := []Item{
		{Length: 1000, Quantity: 30},
	}
	stock := StockLength{StockLength: 6100}

	est := CalculatePurchaseEstimate(items, stock, 0, 0, 0, 20)

	// 30000/6100 = 4.92 bars exact, 5 minimum, 20% waste pushes it to 6.
	assert.Equal(t, 5, est.BarsNeededMin)
	assert.Equal(t, 6, est.BarsWithWaste)
	assert.GreaterOrEqual(t, est.BarsWithWaste, est.BarsNeededMin)
}

func TestCalculatePurchaseEstimate_PricingFallsBackToPerMm(t *testing.T) {
	items := []Item{{Length: 1000, Quantity: 1}}
	stock := StockLength{StockLength: 6100, CostPerMm: 0.004}

	est := CalculatePurchaseEstimate(items, stock, 0, 0, 0, 0)

	assert.InDelta(t, 6100*0.004, est.EstimatedCost, 1e-9)
}

func TestCalculatePurchaseEstimate_UnusableBar(t *testing.T) {
	items := []Item{{Length: 1000, Quantity: 1}}
	stock := StockLength{StockLength: 100}

	est := CalculatePurchaseEstimate(items, stock, 0, 60, 60, 10)

	assert.Equal(t, 0.0, est.UsableBarLength)
	assert.Equal(t, 0, est.BarsNeededMin)
	assert.Equal(t, 10.0, est.WastePercent)
}
