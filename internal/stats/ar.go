package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// AR1 fits s(t) = Alpha + Phi·s(t−1) + ε(t)
type AR1 struct {
	Alpha float64
	Phi   float64

	// UnitRootT is the t-statistic of Phi against 1
	UnitRootT float64
	// Reverting is set when UnitRootT rejects a unit root at 10%
	Reverting bool
}

// FitAR1 estimates an AR(1) model by least squares on lagged pairs
func FitAR1(s []float64) (AR1, error) {
	if len(s) < 4 {
		return AR1{}, ErrTooShort
	}
	x, y := s[:len(s)-1], s[1:]
	fit, err := FitLinear(x, y)
	if err != nil {
		return AR1{}, err
	}

	m := AR1{Alpha: fit.Alpha, Phi: fit.Beta}
	m.UnitRootT = unitRootT(x, y, fit)
	_, _, c10 := MacKinnonCritical(len(x))
	m.Reverting = m.UnitRootT < c10
	return m, nil
}

// HalfLife returns ln2 / −ln φ. It reports false when φ is outside (0, 1)
// or the fit shows no significant mean reversion.
func (m AR1) HalfLife() (float64, bool) {
	if !m.Reverting || !(m.Phi > 0 && m.Phi < 1) {
		return 0, false
	}
	return math.Ln2 / -math.Log(m.Phi), true
}

// unitRootT is (β − 1) / se(β) for the fitted line
func unitRootT(x, y []float64, fit LinearFit) float64 {
	n := len(x)
	sse := 0.0
	for i := range x {
		r := y[i] - fit.Alpha - fit.Beta*x[i]
		sse += r * r
	}
	sxx := stat.Variance(x, nil) * float64(n-1)
	se := math.Sqrt(sse / float64(n-2) / sxx)

	d := fit.Beta - 1
	switch {
	case d == 0:
		return 0
	case se == 0:
		return math.Copysign(math.Inf(1), d)
	}
	return d / se
}
