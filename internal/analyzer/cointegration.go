package analyzer

import (
	"errors"

	"pairhunter/internal/stats"
	"pairhunter/pkg/model"
)

// CointegrationTester runs a unit-root test on a pair spread
type CointegrationTester struct {
	lags int
}

// NewCointegrationTester creates a tester using lags augmentation terms
func NewCointegrationTester(lags int) *CointegrationTester {
	return &CointegrationTester{lags: lags}
}

// BuildSpread returns A − β·B, using the estimator path when present
func BuildSpread(p *AlignedPair, hr model.HedgeRatio) []float64 {
	spread := make([]float64, p.Len())
	for t := range spread {
		beta := hr.Beta
		if len(hr.Path) == len(spread) {
			beta = hr.Path[t]
		}
		spread[t] = p.A[t] - beta*p.B[t]
	}
	return spread
}

// TestPair builds the pair spread and tests it
func (c *CointegrationTester) TestPair(p *AlignedPair, hr model.HedgeRatio) ([]float64, model.CointegrationResult, error) {
	spread := BuildSpread(p, hr)
	res, err := c.Test(spread)
	return spread, res, err
}

// Test checks the spread for a unit root. A non-stationary spread is a
// classification, not an error.
func (c *CointegrationTester) Test(spread []float64) (model.CointegrationResult, error) {
	adf, err := stats.ADF(spread, c.lags)
	if err != nil {
		detail := "unit-root regression is singular"
		if errors.Is(err, stats.ErrTooShort) {
			detail = "spread too short for unit-root regression"
		}
		return model.CointegrationResult{}, &model.NumericalInstabilityError{Stage: "cointegration", Detail: detail, Err: err}
	}

	return model.CointegrationResult{
		Statistic: adf.Statistic,
		PValue:    adf.PValue,
		CriticalValues: model.CriticalValues{
			OnePct:  adf.Crit1,
			FivePct: adf.Crit5,
			TenPct:  adf.Crit10,
		},
		Classification: Classify(adf.PValue),
		Observations:   adf.NObs,
	}, nil
}

// Classify maps a p-value to a cointegration class
func Classify(p float64) model.Classification {
	switch {
	case p < 0.01:
		return model.Strong
	case p < 0.05:
		return model.Moderate
	case p < 0.10:
		return model.Weak
	default:
		return model.NotCointegrated
	}
}
