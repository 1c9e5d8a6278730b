package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/piwi3910/BarCut/internal/model"
)

// accountingTolerance is the maximum absolute error allowed in the
// used+remaining==stock identity after finalization.
const accountingTolerance = 1e-9

// newCut opens a new stock bar. The start safety is reserved immediately;
// the end safety is held back from the remaining capacity and only added to
// UsedLength by finalizeCuts.
func newCut(stock model.StockLength, cons model.Constraints) *model.Cut {
	return &model.Cut{
		ID:              uuid.New().String()[:8],
		StockLength:     stock.StockLength,
		ProfileType:     stock.ProfileType,
		MaterialGrade:   stock.MaterialGrade,
		UsedLength:      cons.StartSafety,
		RemainingLength: stock.StockLength - cons.StartSafety - cons.EndSafety,
		SafetyMargin:    cons.StartSafety + cons.EndSafety,
	}
}

// kerfFor returns the kerf charged for placing the next piece on c. Kerf is
// only consumed between two pieces, so the first segment on a bar is free.
func kerfFor(c *model.Cut, cons model.Constraints) float64 {
	if len(c.Segments) == 0 {
		return 0
	}
	return cons.KerfWidth
}

// fits reports whether a piece of the given length can be placed on c.
func fits(c *model.Cut, length float64, cons model.Constraints) bool {
	if cons.MaxCutsPerStock > 0 && c.SegmentCount >= cons.MaxCutsPerStock {
		return false
	}
	return c.RemainingLength >= length+kerfFor(c, cons)
}

// addSegment places one piece on c, charging its length plus the supplied
// kerf against the bar's capacity. The segment-count bookkeeping is
// re-asserted on every call; a mismatch is a fatal InvariantViolation.
func addSegment(c *model.Cut, item model.Item, kerfNeeded float64) error {
	pos := c.UsedLength + kerfNeeded
	c.Segments = append(c.Segments, model.Segment{
		Length:      item.Length,
		Position:    pos,
		EndPosition: pos + item.Length,
		ProfileType: item.ProfileType,
		WorkOrderID: item.WorkOrderID,
	})
	c.UsedLength += item.Length + kerfNeeded
	c.RemainingLength -= item.Length + kerfNeeded
	c.KerfLoss += kerfNeeded
	c.SegmentCount++

	if c.SegmentCount != len(c.Segments) {
		return &InvariantViolation{
			CutID:   c.ID,
			Message: fmt.Sprintf("segment count %d does not match %d segments", c.SegmentCount, len(c.Segments)),
		}
	}
	return nil
}

// finalizeCuts closes out every cut: the end safety is added to the used
// length, the remainder is clamped at zero, the accounting identity is
// re-validated, and the waste classification and cutting-plan summary are
// derived. Cuts are immutable afterwards.
func finalizeCuts(cuts []*model.Cut, cons model.Constraints) error {
	for _, c := range cuts {
		c.UsedLength += cons.EndSafety
		if c.RemainingLength < 0 {
			c.RemainingLength = 0
		}

		if err := validateCut(c); err != nil {
			return err
		}

		c.WasteCategory = model.ClassifyWaste(c.RemainingLength)
		c.IsReclaimable = c.RemainingLength >= cons.MinScrapLength
		buildPlan(c)
	}
	return nil
}

// validateCut asserts the accounting identity and segment bookkeeping of a
// finalized cut.
func validateCut(c *model.Cut) error {
	if diff := math.Abs(c.UsedLength + c.RemainingLength - c.StockLength); diff > accountingTolerance {
		return &InvariantViolation{
			CutID: c.ID,
			Message: fmt.Sprintf("used %.4f + remaining %.4f does not equal stock %.4f (off by %.3g)",
				c.UsedLength, c.RemainingLength, c.StockLength, diff),
		}
	}
	if c.SegmentCount != len(c.Segments) {
		return &InvariantViolation{
			CutID:   c.ID,
			Message: fmt.Sprintf("segment count %d does not match %d segments", c.SegmentCount, len(c.Segments)),
		}
	}
	return nil
}

// buildPlan derives the length-to-count summary of a cut, sorted by length
// descending, plus a human-readable label like "3x992 + 2x750".
func buildPlan(c *model.Cut) {
	counts := make(map[float64]int)
	for _, s := range c.Segments {
		counts[s.Length]++
	}

	plan := make([]model.PlanEntry, 0, len(counts))
	for length, count := range counts {
		plan = append(plan, model.PlanEntry{Length: length, Count: count})
	}
	sort.Slice(plan, func(i, j int) bool {
		return plan[i].Length > plan[j].Length
	})
	c.Plan = plan

	parts := make([]string, len(plan))
	for i, p := range plan {
		parts[i] = fmt.Sprintf("%dx%g", p.Count, p.Length)
	}
	c.PlanLabel = strings.Join(parts, " + ")
}

// selectBestStockLength picks the catalogue entry that packs pieces of
// itemLength with the smallest remainder. Ties go to the candidate fitting
// more pieces, then to the shorter bar.
func selectBestStockLength(itemLength float64, candidates []model.StockLength, kerf, startSafety, endSafety float64) model.StockLength {
	best := candidates[0]
	bestPieces := -1
	bestRemainder := math.MaxFloat64

	for _, cand := range candidates {
		capacity := cand.StockLength - startSafety - endSafety + kerf
		pieces := int(math.Floor(capacity / (itemLength + kerf)))
		if pieces < 1 {
			continue
		}
		remainder := capacity - float64(pieces)*(itemLength+kerf)

		better := remainder < bestRemainder ||
			(remainder == bestRemainder && pieces > bestPieces) ||
			(remainder == bestRemainder && pieces == bestPieces && cand.StockLength < best.StockLength)
		if bestPieces < 0 || better {
			best = cand
			bestPieces = pieces
			bestRemainder = remainder
		}
	}

	if bestPieces < 0 {
		// Nothing fits even one piece; fall back to the longest bar so the
		// caller still gets a deterministic choice.
		for _, cand := range candidates {
			if cand.StockLength > best.StockLength {
				best = cand
			}
		}
	}
	return best
}

// candidatesFor filters the catalogue down to entries usable for an item.
// Entries with an empty profile type or grade are universal, mirroring how
// untyped stock is treated as compatible with anything. Each filter is
// skipped when it would leave no candidates at all.
func candidatesFor(item model.Item, stocks []model.StockLength, cons model.Constraints) []model.StockLength {
	matching := stocks

	if item.ProfileType != "" {
		var byProfile []model.StockLength
		for _, s := range matching {
			if s.ProfileType == "" || s.ProfileType == item.ProfileType {
				byProfile = append(byProfile, s)
			}
		}
		if len(byProfile) > 0 {
			matching = byProfile
		}
	}

	if cons.RespectMaterialGrades && item.MaterialGrade != "" {
		var byGrade []model.StockLength
		for _, s := range matching {
			if s.MaterialGrade == "" || s.MaterialGrade == item.MaterialGrade {
				byGrade = append(byGrade, s)
			}
		}
		if len(byGrade) > 0 {
			matching = byGrade
		}
	}

	return matching
}
