package analyzer

import (
	"math"

	"pairhunter/internal/stats"
	"pairhunter/pkg/model"
)

// Screening is the correlation screen verdict for a pair
type Screening struct {
	Candidate model.PairCandidate
	Accepted  bool
	Reason    model.ReasonCode // set when rejected
}

// CorrelationScreener filters pairs by correlation strength and stability
type CorrelationScreener struct {
	cfg Config
}

// NewCorrelationScreener creates a screener
func NewCorrelationScreener(cfg Config) *CorrelationScreener {
	return &CorrelationScreener{cfg: cfg}
}

// Screen computes the full-window correlation and its rolling stability.
//
// Stability is 1 − std/mean of the rolling correlation, clamped to [0,1];
// a non-positive mean rolling correlation scores 0.
func (s *CorrelationScreener) Screen(p *AlignedPair) (Screening, error) {
	if p.Len() < s.cfg.MinObservations {
		return Screening{}, &model.InsufficientHistoryError{
			SymbolA: p.SymbolA,
			SymbolB: p.SymbolB,
			Have:    p.Len(),
			Need:    s.cfg.MinObservations,
		}
	}

	x, y := p.A, p.B
	if s.cfg.Basis == BasisReturns {
		x, y = stats.LogReturns(p.A), stats.LogReturns(p.B)
	}

	corr := stats.Correlation(x, y)
	if math.IsNaN(corr) {
		corr = 0
	}
	stability := Stability(stats.RollingCorrelation(x, y, s.cfg.StabilityWindow))

	res := Screening{
		Candidate: model.PairCandidate{
			SymbolA:     p.SymbolA,
			SymbolB:     p.SymbolB,
			Correlation: corr,
			Stability:   stability,
		},
	}

	switch {
	case corr < s.cfg.MinCorrelation:
		res.Reason = model.ReasonBelowCorrelation
	case stability < s.cfg.MinStability:
		res.Reason = model.ReasonUnstableCorrelation
	default:
		res.Accepted = true
	}
	return res, nil
}

// Stability scores how steady a rolling correlation series is
func Stability(rolling []float64) float64 {
	mean, std, n := stats.FiniteMeanStd(rolling)
	if n == 0 || !(mean > 0) {
		return 0
	}
	return stats.Clamp(1-std/mean, 0, 1)
}
