package analyzer

import (
	"github.com/rs/zerolog"

	"pairhunter/internal/hedge"
	"pairhunter/pkg/model"
)

// Analysis is the statistical profile of one pair
type Analysis struct {
	Pair          *AlignedPair
	Screening     Screening
	Hedge         model.HedgeRatio
	Spread        []float64
	Cointegration model.CointegrationResult
	Stats         SpreadStats
	Break         model.BreakCheck
}

// PairAnalyzer runs the statistical stages for a single pair
type PairAnalyzer struct {
	cfg       Config
	screener  *CorrelationScreener
	estimator hedge.Estimator
	tester    *CointegrationTester
	spread    *SpreadAnalyzer
	monitor   *BreakMonitor
	log       zerolog.Logger
}

// NewPairAnalyzer creates a pair analyzer
func NewPairAnalyzer(cfg Config, est hedge.Estimator, log zerolog.Logger) *PairAnalyzer {
	tester := NewCointegrationTester(cfg.ADFLags)
	return &PairAnalyzer{
		cfg:       cfg,
		screener:  NewCorrelationScreener(cfg),
		estimator: est,
		tester:    tester,
		spread:    NewSpreadAnalyzer(cfg.ZScoreWindow, cfg.WeakHalfLife),
		monitor:   NewBreakMonitor(cfg.TrailingWindow, tester),
		log:       log.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze aligns the two series and runs every stage. A pair rejected by the
// correlation screen returns with Screening.Accepted false and no error.
func (a *PairAnalyzer) Analyze(sa, sb *model.PriceSeries) (*Analysis, error) {
	pair := Align(sa, sb, a.cfg.Lookback)
	out := &Analysis{Pair: pair}

	screening, err := a.screener.Screen(pair)
	if err != nil {
		return out, err
	}
	out.Screening = screening
	if !screening.Accepted {
		a.log.Debug().
			Str("pair", pair.SymbolA+"/"+pair.SymbolB).
			Float64("correlation", screening.Candidate.Correlation).
			Float64("stability", screening.Candidate.Stability).
			Str("reason", string(screening.Reason)).
			Msg("Pair filtered")
		return out, nil
	}

	hr, err := a.estimator.Estimate(pair.A, pair.B)
	if err != nil {
		return out, err
	}
	out.Hedge = hr

	spread, coint, err := a.tester.TestPair(pair, hr)
	if err != nil {
		return out, err
	}
	out.Spread = spread
	out.Cointegration = coint

	st, err := a.spread.Analyze(spread)
	if err != nil {
		return out, err
	}
	out.Stats = st
	out.Break = a.monitor.Check(spread, coint)

	a.log.Debug().
		Str("pair", pair.SymbolA+"/"+pair.SymbolB).
		Float64("beta", hr.Beta).
		Float64("p_value", coint.PValue).
		Str("class", string(coint.Classification)).
		Float64("zscore", st.CurrentZ).
		Bool("degraded", out.Break.CointegrationDegraded).
		Msg("Pair analyzed")

	return out, nil
}
