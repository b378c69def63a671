package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrDegenerate is returned when a regression design cannot be solved reliably
var ErrDegenerate = errors.New("degenerate regression design")

// ErrTooShort is returned when there are not enough points to fit
var ErrTooShort = errors.New("series too short")

// relVarianceFloor is the smallest variance, relative to the squared mean,
// that an explanatory series may have
const relVarianceFloor = 1e-12

// LinearFit is the result of y = Alpha + Beta*x
type LinearFit struct {
	Alpha    float64
	Beta     float64
	RSquared float64
	N        int
}

// FitLinear regresses y on x with an intercept
func FitLinear(x, y []float64) (LinearFit, error) {
	if len(x) != len(y) {
		return LinearFit{}, errors.New("length mismatch")
	}
	if len(x) < 3 {
		return LinearFit{}, ErrTooShort
	}
	if !allFinite(x) || !allFinite(y) {
		return LinearFit{}, ErrDegenerate
	}

	mean, variance := stat.MeanVariance(x, nil)
	if !(variance > relVarianceFloor*math.Max(1, mean*mean)) {
		return LinearFit{}, ErrDegenerate
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(beta, 0) {
		return LinearFit{}, ErrDegenerate
	}

	r2 := stat.RSquared(x, y, nil, alpha, beta)
	if math.IsNaN(r2) {
		// y is constant; a flat fit explains nothing
		r2 = 0
	}

	return LinearFit{
		Alpha:    alpha,
		Beta:     beta,
		RSquared: Clamp(r2, 0, 1),
		N:        len(x),
	}, nil
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func allFinite(v []float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
