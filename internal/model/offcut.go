package model

import (
	"sort"

	"github.com/google/uuid"
)

// Offcut represents a usable remnant length left over after cutting a bar.
type Offcut struct {
	ID            string  `json:"id"`
	CutID         string  `json:"cut_id"`         // Which cut it came from
	CutIndex      int     `json:"cut_index"`      // Index of the source cut in the result
	Length        float64 `json:"length"`         // Usable length (mm)
	ProfileType   string  `json:"profile_type"`   // Profile of the source bar
	MaterialGrade string  `json:"material_grade"` // Grade of the source bar
	Value         float64 `json:"value"`          // Inherited value proportional to length (0 if not priced)
}

// ToStockLength converts an offcut into a stock length entry for reuse in a
// future run.
func (o Offcut) ToStockLength(costPerMm float64) StockLength {
	return StockLength{
		StockLength:   o.Length,
		ProfileType:   o.ProfileType,
		MaterialGrade: o.MaterialGrade,
		CostPerMm:     costPerMm,
	}
}

// CollectOffcuts walks a finalized result and returns the reclaimable
// remnants, largest first. Cuts whose remainder is below the reclaim
// threshold were already classified as waste by Finalize and are skipped.
func CollectOffcuts(result *OptimizationResult, costPerMm float64) []Offcut {
	var offcuts []Offcut
	for i := range result.Cuts {
		c := &result.Cuts[i]
		if !c.IsReclaimable || c.RemainingLength <= 0 {
			continue
		}
		offcuts = append(offcuts, Offcut{
			ID:            uuid.New().String()[:8],
			CutID:         c.ID,
			CutIndex:      i,
			Length:        c.RemainingLength,
			ProfileType:   c.ProfileType,
			MaterialGrade: c.MaterialGrade,
			Value:         c.RemainingLength * costPerMm,
		})
	}

	sort.Slice(offcuts, func(i, j int) bool {
		return offcuts[i].Length > offcuts[j].Length
	})
	return offcuts
}

// TotalOffcutLength returns the total length of all offcuts in mm.
func TotalOffcutLength(offcuts []Offcut) float64 {
	var total float64
	for _, o := range offcuts {
		total += o.Length
	}
	return total
}
