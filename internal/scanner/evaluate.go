package scanner

import (
	"errors"
	"fmt"
	"math"

	"pairhunter/internal/analyzer"
	"pairhunter/internal/hedge"
	"pairhunter/internal/position"
	"pairhunter/internal/strategy"
	"pairhunter/pkg/model"
)

// evaluator owns one worker's pipeline stages
type evaluator struct {
	analyzer *analyzer.PairAnalyzer
	signals  *strategy.SignalGenerator
	sizer    *position.PositionSizer
}

func (s *Scanner) newEvaluator() *evaluator {
	// validated in NewScanner
	est, _ := hedge.Get(s.opts.HedgeMethod, s.opts.Hedge)
	return &evaluator{
		analyzer: analyzer.NewPairAnalyzer(s.opts.Analyzer, est, s.log),
		signals:  strategy.NewSignalGenerator(s.opts.Thresholds),
		sizer:    position.NewPositionSizer(s.opts.Sizing),
	}
}

// evaluate produces exactly one result for the pair. Failures at any stage
// become a skipped result carrying the reason code.
func (e *evaluator) evaluate(a, b *model.PriceSeries) (res model.PairResult) {
	res = model.PairResult{
		SymbolA: a.Symbol(),
		SymbolB: b.Symbol(),
	}
	defer func() {
		if r := recover(); r != nil {
			res = skip(res, &panicError{value: r})
		}
	}()

	an, err := e.analyzer.Analyze(a, b)
	if an != nil && an.Pair != nil {
		res.Observations = an.Pair.Len()
		res.Correlation = finite(an.Screening.Candidate.Correlation)
		res.Stability = finite(an.Screening.Candidate.Stability)
	}
	if err != nil {
		return skip(res, err)
	}
	if !an.Screening.Accepted {
		res.Status = model.StatusFiltered
		res.Reason = an.Screening.Reason
		return res
	}

	hr := an.Hedge
	hr.Path = nil
	coint := an.Cointegration
	brk := an.Break
	res.Hedge = &hr
	res.Cointegration = &coint
	res.Break = &brk
	res.HalfLife = an.Stats.HalfLife
	res.HalfLifeSpeed = an.Stats.Speed
	res.WeakCandidate = an.Stats.WeakCandidate
	res.CurrentZScore = finite(an.Stats.CurrentZ)

	sig := e.signals.Evaluate(strategy.SignalInput{
		Classification: coint.Classification,
		HalfLife:       an.Stats.HalfLife,
		Speed:          an.Stats.Speed,
		CurrentZ:       res.CurrentZScore,
		PreviousZ:      an.Stats.PreviousZ,
		Degraded:       brk.CointegrationDegraded,
	})
	res.Signal = &sig

	if sig.Direction == model.DirectionNone {
		res.Status = model.StatusNoSignal
		return res
	}

	plan, err := e.sizer.Size(position.SizeRequest{
		SymbolA:   res.SymbolA,
		SymbolB:   res.SymbolB,
		Direction: sig.Direction,
		Beta:      hr.Beta,
		PriceA:    an.Pair.LastA(),
		PriceB:    an.Pair.LastB(),
	})
	if err != nil {
		return skip(res, err)
	}
	res.Plan = plan
	res.Status = model.StatusSignal
	return res
}

func skip(res model.PairResult, err error) model.PairResult {
	res.Status = model.StatusSkipped
	res.Reason = model.ReasonFor(err)
	res.Detail = err.Error()

	var ae *model.AllocationError
	if errors.As(err, &ae) && math.IsInf(ae.NetExposure, 0) {
		res.Detail = fmt.Sprintf("cannot size %s/%s: hedge ratio unusable", ae.SymbolA, ae.SymbolB)
	}
	return res
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("pair evaluation panicked: %v", e.value)
}
