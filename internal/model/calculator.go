package model

import "math"

// PurchaseEstimate holds the results of a stock bar purchasing calculation.
type PurchaseEstimate struct {
	TotalPieceLength float64 `json:"total_piece_length"` // Sum of all piece lengths incl. kerf allowance (mm)
	UsableBarLength  float64 `json:"usable_bar_length"`  // Bar length minus start/end safety (mm)
	BarsNeededExact  float64 `json:"bars_needed_exact"`  // Exact fractional number of bars
	BarsNeededMin    int     `json:"bars_needed_min"`    // Minimum bars (ceiling of exact)
	BarsWithWaste    int     `json:"bars_with_waste"`    // Recommended bars including waste factor
	WastePercent     float64 `json:"waste_percent"`      // Waste factor applied (e.g., 10 for 10%)
	EstimatedCost    float64 `json:"estimated_cost"`     // Total cost if pricing available
	KerfWidth        float64 `json:"kerf_width"`         // Kerf width used in calculation
}

// CalculatePurchaseEstimate computes how many bars to buy for a given cut list.
// It accounts for kerf loss per piece and an additional waste percentage
// factor. Pricing uses CostPerStock when set, otherwise CostPerMm.
func CalculatePurchaseEstimate(items []Item, stock StockLength, kerfWidth, startSafety, endSafety, wastePercent float64) PurchaseEstimate {
	var totalPieceLength float64
	for _, it := range items {
		totalPieceLength += (it.Length + kerfWidth) * float64(it.Quantity)
	}

	usable := stock.StockLength - startSafety - endSafety
	if usable <= 0 {
		return PurchaseEstimate{
			TotalPieceLength: totalPieceLength,
			WastePercent:     wastePercent,
			KerfWidth:        kerfWidth,
		}
	}

	exactBars := totalPieceLength / usable
	minBars := int(math.Ceil(exactBars))

	wasteFactor := 1.0 + (wastePercent / 100.0)
	barsWithWaste := int(math.Ceil(exactBars * wasteFactor))
	if barsWithWaste < minBars {
		barsWithWaste = minBars
	}

	pricePerBar := stock.CostPerStock
	if pricePerBar == 0 {
		pricePerBar = stock.StockLength * stock.CostPerMm
	}

	return PurchaseEstimate{
		TotalPieceLength: totalPieceLength,
		UsableBarLength:  usable,
		BarsNeededExact:  exactBars,
		BarsNeededMin:    minBars,
		BarsWithWaste:    barsWithWaste,
		WastePercent:     wastePercent,
		EstimatedCost:    float64(barsWithWaste) * pricePerBar,
		KerfWidth:        kerfWidth,
	}
}
