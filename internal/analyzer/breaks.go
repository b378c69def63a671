package analyzer

import "pairhunter/pkg/model"

// degradedPValue is the trailing p-value above which a tradeable pair is
// flagged as degraded
const degradedPValue = 0.10

// BreakMonitor re-validates cointegration over the trailing window
type BreakMonitor struct {
	window int
	tester *CointegrationTester
}

// NewBreakMonitor creates a monitor over the last window periods
func NewBreakMonitor(window int, tester *CointegrationTester) *BreakMonitor {
	return &BreakMonitor{window: window, tester: tester}
}

// Check re-tests the trailing window of spread against the full-history
// result. The outcome is a warning only.
func (m *BreakMonitor) Check(spread []float64, full model.CointegrationResult) model.BreakCheck {
	check := model.BreakCheck{Window: m.window}
	if len(spread) <= m.window {
		return check
	}

	trailing, err := m.tester.Test(spread[len(spread)-m.window:])
	if err != nil {
		return check
	}

	check.Checked = true
	check.TrailingPValue = trailing.PValue
	check.TrailingClass = trailing.Classification
	check.CointegrationDegraded = Degraded(full.Classification, trailing.PValue)
	return check
}

// Degraded reports whether a tradeable full-history class has lost support
// in the trailing window
func Degraded(full model.Classification, trailingP float64) bool {
	return full.Tradeable() && trailingP > degradedPValue
}
