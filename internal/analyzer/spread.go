package analyzer

import (
	"math"

	"pairhunter/internal/stats"
	"pairhunter/pkg/model"
)

// Half-life speed boundaries in periods
const (
	FastHalfLife = 30.0
	SlowHalfLife = 60.0
)

// SpreadStats is the mean-reversion profile of a spread
type SpreadStats struct {
	ZScores       model.ZScoreSeries
	CurrentZ      float64
	PreviousZ     float64 // NaN when the prior point has no full window
	Phi           float64
	HalfLife      *float64
	Speed         model.HalfLifeSpeed
	WeakCandidate bool
}

// SpreadAnalyzer computes rolling z-scores and the AR(1) half-life
type SpreadAnalyzer struct {
	window       int
	weakHalfLife float64
}

// NewSpreadAnalyzer creates an analyzer
func NewSpreadAnalyzer(window int, weakHalfLife float64) *SpreadAnalyzer {
	return &SpreadAnalyzer{window: window, weakHalfLife: weakHalfLife}
}

// ZScores returns the rolling z-score series of spread
func (a *SpreadAnalyzer) ZScores(spread []float64) model.ZScoreSeries {
	return model.ZScoreSeries{
		Window: a.window,
		Values: stats.RollingZScore(spread, a.window),
	}
}

// Analyze profiles the spread
func (a *SpreadAnalyzer) Analyze(spread []float64) (SpreadStats, error) {
	if len(spread) < a.window {
		return SpreadStats{}, &model.NumericalInstabilityError{Stage: "spread", Detail: "spread shorter than z-score window"}
	}

	z := a.ZScores(spread)
	out := SpreadStats{
		ZScores:   z,
		CurrentZ:  z.Current(),
		PreviousZ: math.NaN(),
	}
	if n := len(z.Values); n >= 2 {
		out.PreviousZ = z.Values[n-2]
	}

	ar, err := stats.FitAR1(spread)
	if err != nil {
		return SpreadStats{}, &model.NumericalInstabilityError{Stage: "half_life", Detail: "AR(1) fit failed", Err: err}
	}
	out.Phi = ar.Phi
	if hl, ok := ar.HalfLife(); ok {
		out.HalfLife = &hl
	}
	out.Speed = ClassifySpeed(out.HalfLife)
	out.WeakCandidate = out.HalfLife != nil && *out.HalfLife > a.weakHalfLife

	return out, nil
}

// ClassifySpeed buckets a half-life
func ClassifySpeed(hl *float64) model.HalfLifeSpeed {
	switch {
	case hl == nil:
		return model.SpeedNone
	case *hl < FastHalfLife:
		return model.SpeedFast
	case *hl <= SlowHalfLife:
		return model.SpeedModerate
	default:
		return model.SpeedSlow
	}
}
