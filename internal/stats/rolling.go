package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Correlation returns the Pearson correlation of x and y, or NaN when either
// side has no variance
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// RollingCorrelation returns the correlation over each complete window.
// Element i covers x[i : i+window].
func RollingCorrelation(x, y []float64, window int) []float64 {
	if window < 2 || len(x) != len(y) || len(x) < window {
		return nil
	}
	out := make([]float64, len(x)-window+1)
	for i := range out {
		out[i] = stat.Correlation(x[i:i+window], y[i:i+window], nil)
	}
	return out
}

// RollingZScore returns z(t) = (v(t) − mean) / std over v[t−window+1 .. t].
// The first window−1 entries are NaN. A flat window yields 0.
func RollingZScore(v []float64, window int) []float64 {
	out := make([]float64, len(v))
	for t := range v {
		if window < 2 || t < window-1 {
			out[t] = math.NaN()
			continue
		}
		mean, std := stat.MeanStdDev(v[t-window+1:t+1], nil)
		if std == 0 || math.IsNaN(std) {
			out[t] = 0
			continue
		}
		out[t] = (v[t] - mean) / std
	}
	return out
}

// FiniteMeanStd returns the mean and sample standard deviation of the finite
// values in v, and how many there were
func FiniteMeanStd(v []float64) (mean, std float64, n int) {
	finite := make([]float64, 0, len(v))
	for _, f := range v {
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			finite = append(finite, f)
		}
	}
	if len(finite) == 0 {
		return math.NaN(), math.NaN(), 0
	}
	if len(finite) == 1 {
		return finite[0], 0, 1
	}
	mean, std = stat.MeanStdDev(finite, nil)
	return mean, std, len(finite)
}

// LogReturns converts prices to log returns
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return out
}
