package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/piwi3910/BarCut/internal/model"
)

// SelfCheckReport lists every invariant breach found by RunSelfCheck.
type SelfCheckReport struct {
	Passed   bool
	Failures []string
}

func (r *SelfCheckReport) fail(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// RunSelfCheck runs the per-work-order baseline and the pooled strategy on
// identical input and cross-checks the accounting invariants between them.
// It is a regression oracle for tests and debug builds, not a production
// code path.
func RunSelfCheck(items []model.Item, stocks []model.StockLength,
	cons model.Constraints, thresholds PoolingThresholds) (SelfCheckReport, error) {

	report := SelfCheckReport{}
	logger := slog.New(slog.DiscardHandler)
	costModel := model.DefaultCostModel()

	baseline, err := perWorkOrderBaseline(items, stocks, cons)
	if err != nil {
		return report, err
	}
	if err := finalizeCuts(baseline, cons); err != nil {
		return report, err
	}

	pooled, _, err := runPooling(items, stocks, cons, costModel, thresholds, logger)
	if err != nil {
		return report, err
	}
	if err := finalizeCuts(pooled, cons); err != nil {
		return report, err
	}

	lengths := make(map[float64]bool)
	totalPieces := 0
	for _, it := range items {
		lengths[it.Length] = true
		totalPieces += it.Quantity
	}

	for name, cuts := range map[string][]*model.Cut{"baseline": baseline, "pooled": pooled} {
		pieces := 0
		for _, c := range cuts {
			if err := validateCut(c); err != nil {
				report.fail("%s: %v", name, err)
			}
			planCount := 0
			for _, p := range c.Plan {
				planCount += p.Count
			}
			if planCount != c.SegmentCount {
				report.fail("%s: cut %s plan counts %d do not cover %d segments", name, c.ID, planCount, c.SegmentCount)
			}
			for _, seg := range c.Segments {
				if !lengths[seg.Length] {
					report.fail("%s: cut %s contains segment length %g not present in the input", name, c.ID, seg.Length)
				}
			}
			pieces += c.SegmentCount
		}
		if pieces != totalPieces {
			report.fail("%s: %d pieces produced, %d demanded", name, pieces, totalPieces)
		}
	}

	baseWaste := totalRemaining(baseline)
	poolWaste := totalRemaining(pooled)
	if poolWaste > baseWaste+accountingTolerance {
		report.fail("pooled waste %.3f exceeds baseline waste %.3f", poolWaste, baseWaste)
	}

	// An unattainable waste-reduction requirement must force the fallback
	// path: the pooled strategy then returns the baseline unchanged.
	unattainable := thresholds
	unattainable.MinWasteReduction = math.Inf(1)
	fallback, adopted, err := runPooling(items, stocks, cons, costModel, unattainable, logger)
	if err != nil {
		return report, err
	}
	if adopted {
		report.fail("pooling adopted a plan despite an unattainable waste-reduction threshold")
	}
	if err := finalizeCuts(fallback, cons); err != nil {
		return report, err
	}
	if !sameCutList(fallback, baseline) {
		report.fail("fallback result does not equal the per-work-order baseline")
	}

	report.Passed = len(report.Failures) == 0
	return report, nil
}

// sameCutList compares two finalized cut lists structurally: same bars in
// order, each with the same stock length and segment lengths.
func sameCutList(a, b []*model.Cut) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].StockLength != b[i].StockLength || a[i].SegmentCount != b[i].SegmentCount {
			return false
		}
		for j := range a[i].Segments {
			if a[i].Segments[j].Length != b[i].Segments[j].Length {
				return false
			}
		}
	}
	return true
}
