package scanner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pairhunter/internal/analyzer"
	"pairhunter/internal/hedge"
	"pairhunter/internal/position"
	"pairhunter/internal/provider"
	"pairhunter/internal/strategy"
	"pairhunter/pkg/model"
)

// ErrUpstreamUnavailable aborts a run when no symbol history could be loaded
// and the failures were not simply unknown symbols
var ErrUpstreamUnavailable = errors.New("upstream price history unavailable")

// Progress stages
const (
	StageFetch   = "fetch"
	StageAnalyze = "analyze"
)

// ProgressCallback is called with progress updates
type ProgressCallback func(stage string, done, total int)

// Options is everything a run needs besides the provider
type Options struct {
	Analyzer         analyzer.Config
	HedgeMethod      string
	Hedge            hedge.Config
	Thresholds       strategy.Thresholds
	Sizing           position.Config
	Workers          int
	FetchConcurrency int
}

// Scanner screens every pair of a universe in parallel. It holds no state
// between runs; concurrent Screen calls are independent.
type Scanner struct {
	provider     provider.Provider
	opts         Options
	log          zerolog.Logger
	progressFunc ProgressCallback
}

// NewScanner creates a new scanner
func NewScanner(p provider.Provider, opts Options, log zerolog.Logger) (*Scanner, error) {
	if _, err := hedge.Get(opts.HedgeMethod, opts.Hedge); err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.FetchConcurrency < 1 {
		opts.FetchConcurrency = 1
	}
	return &Scanner{
		provider: p,
		opts:     opts,
		log:      log.With().Str("component", "scanner").Logger(),
	}, nil
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(fn ProgressCallback) {
	s.progressFunc = fn
}

func (s *Scanner) progress(stage string, done, total int) {
	if s.progressFunc != nil {
		s.progressFunc(stage, done, total)
	}
}

type pairJob struct {
	a, b *model.PriceSeries
}

// Screen fetches history for symbols and evaluates every unordered pair.
//
// Per-symbol and per-pair failures become skipped results. Cancelling ctx
// abandons pairs that have not started; the partial report is returned
// with Cancelled set. The only error is ErrUpstreamUnavailable.
func (s *Scanner) Screen(ctx context.Context, universe string, symbols []string) (*model.ScreenReport, error) {
	startTime := time.Now()
	symbols = dedupeSorted(symbols)

	report := &model.ScreenReport{
		RunID:      uuid.NewString(),
		Universe:   universe,
		StartedAt:  startTime.UTC(),
		Symbols:    len(symbols),
		PairsTotal: len(symbols) * (len(symbols) - 1) / 2,
		Results:    []model.PairResult{},
	}
	if len(symbols) < 2 {
		report.Duration = time.Since(startTime)
		return report, nil
	}

	log := s.log.With().Str("run_id", report.RunID).Str("universe", universe).Logger()
	log.Info().Int("symbols", len(symbols)).Int("pairs", report.PairsTotal).Msg("Screening started")

	series, failures := s.fetchAll(ctx, symbols)
	report.FetchFailures = failures

	if ctx.Err() != nil {
		report.Cancelled = true
		report.Duration = time.Since(startTime)
		log.Warn().Msg("Screening cancelled during fetch")
		return report, nil
	}
	if err := fatalFetch(symbols, series, failures); err != nil {
		report.Duration = time.Since(startTime)
		log.Error().Err(err).Int("failures", len(failures)).Msg("Screening aborted")
		return report, err
	}

	failed := make(map[string]model.FetchFailure, len(failures))
	for _, f := range failures {
		failed[f.Symbol] = f
	}

	// Pairs touching a failed symbol are recorded without analysis
	var jobs []pairJob
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			a, b := symbols[i], symbols[j]
			if f, ok := failed[a]; ok {
				report.Results = append(report.Results, upstreamSkip(a, b, f))
				continue
			}
			if f, ok := failed[b]; ok {
				report.Results = append(report.Results, upstreamSkip(a, b, f))
				continue
			}
			jobs = append(jobs, pairJob{a: series[a], b: series[b]})
		}
	}

	results, cancelled := s.evaluateAll(ctx, jobs)
	report.Results = append(report.Results, results...)
	report.Cancelled = cancelled
	report.PairsEvaluated = len(report.Results)

	Rank(report.Results)
	report.Duration = time.Since(startTime)

	log.Info().
		Int("evaluated", report.PairsEvaluated).
		Int("signals", report.SignalCount()).
		Int("skipped", report.Count(model.StatusSkipped)).
		Int("fetch_failures", len(failures)).
		Bool("cancelled", report.Cancelled).
		Dur("duration", report.Duration).
		Msg("Screening complete")

	return report, nil
}

// fetchAll loads every symbol with bounded parallelism. A failing symbol
// never cancels the others.
func (s *Scanner) fetchAll(ctx context.Context, symbols []string) (map[string]*model.PriceSeries, []model.FetchFailure) {
	loaded := make([]*model.PriceSeries, len(symbols))
	errs := make([]error, len(symbols))

	var done atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.opts.FetchConcurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return nil
			}
			loaded[i], errs[i] = s.provider.GetDailyHistory(ctx, sym, s.opts.Analyzer.Lookback)
			s.progress(StageFetch, int(done.Add(1)), len(symbols))
			return nil
		})
	}
	_ = g.Wait()

	series := make(map[string]*model.PriceSeries, len(symbols))
	var failures []model.FetchFailure
	for i, sym := range symbols {
		if errs[i] != nil {
			failures = append(failures, model.FetchFailure{
				Symbol: sym,
				Reason: model.ReasonFor(errs[i]),
				Detail: errs[i].Error(),
			})
			s.log.Warn().Err(errs[i]).Str("symbol", sym).Msg("History unavailable")
			continue
		}
		series[sym] = loaded[i]
	}
	return series, failures
}

// fatalFetch reports whether the upstream was unreachable as a whole
func fatalFetch(symbols []string, series map[string]*model.PriceSeries, failures []model.FetchFailure) error {
	if len(series) > 0 || len(failures) == 0 {
		return nil
	}
	for _, f := range failures {
		if f.Reason != model.ReasonUpstreamNotFound {
			return fmt.Errorf("%w: all %d symbols failed, last: %s", ErrUpstreamUnavailable, len(symbols), failures[len(failures)-1].Detail)
		}
	}
	return nil
}

// evaluateAll runs the pair pipeline on a worker pool
func (s *Scanner) evaluateAll(ctx context.Context, jobs []pairJob) ([]model.PairResult, bool) {
	if len(jobs) == 0 {
		return nil, ctx.Err() != nil
	}

	jobChan := make(chan pairJob, len(jobs))
	resultChan := make(chan model.PairResult, len(jobs))

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	var evaluated int64
	var cancelled atomic.Bool

	workers := s.opts.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ev := s.newEvaluator()

			for job := range jobChan {
				select {
				case <-ctx.Done():
					cancelled.Store(true)
					return
				default:
					resultChan <- ev.evaluate(job.a, job.b)

					count := atomic.AddInt64(&evaluated, 1)
					s.progress(StageAnalyze, int(count), len(jobs))
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]model.PairResult, 0, len(jobs))
	for r := range resultChan {
		results = append(results, r)
	}
	return results, cancelled.Load() || (ctx.Err() != nil && len(results) < len(jobs))
}

func upstreamSkip(a, b string, f model.FetchFailure) model.PairResult {
	return model.PairResult{
		SymbolA: a,
		SymbolB: b,
		Status:  model.StatusSkipped,
		Reason:  f.Reason,
		Detail:  fmt.Sprintf("%s: %s", f.Symbol, f.Detail),
	}
}

func dedupeSorted(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
