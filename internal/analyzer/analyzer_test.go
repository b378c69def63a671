package analyzer

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairhunter/internal/hedge"
	"pairhunter/pkg/model"
)

var day0 = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

func tradingDays(n int) []time.Time {
	out := make([]time.Time, 0, n)
	d := day0
	for len(out) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}

func series(t *testing.T, symbol string, dates []time.Time, closes []float64) *model.PriceSeries {
	t.Helper()
	obs := make([]model.Observation, len(closes))
	for i := range closes {
		obs[i] = model.Observation{Date: dates[i], Close: closes[i]}
	}
	s, err := model.NewPriceSeries(symbol, obs)
	require.NoError(t, err)
	return s
}

// cointegratedPair returns A = 10 + beta·B + AR(1) noise over a trending,
// cycling B
func cointegratedPair(t *testing.T, seed int64, n int, beta float64) (*model.PriceSeries, *model.PriceSeries) {
	rng := rand.New(rand.NewSource(seed))
	dates := tradingDays(n)
	a := make([]float64, n)
	b := make([]float64, n)
	walk, noise := 0.0, 0.0
	for i := 0; i < n; i++ {
		walk += 0.3 * rng.NormFloat64()
		noise = 0.5*noise + rng.NormFloat64()
		b[i] = 100 + 0.05*float64(i) + 10*math.Sin(float64(i)/20) + walk
		a[i] = 10 + beta*b[i] + noise
	}
	return series(t, "AAA", dates, a), series(t, "BBB", dates, b)
}

func ar1(seed int64, phi float64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	s := make([]float64, n)
	for i := 1; i < n; i++ {
		s[i] = phi*s[i-1] + rng.NormFloat64()
	}
	return s
}

func walk(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	s := make([]float64, n)
	s[0] = 50
	for i := 1; i < n; i++ {
		s[i] = s[i-1] + rng.NormFloat64()
	}
	return s
}

func TestAlign_InnerJoinAndLookback(t *testing.T) {
	dates := tradingDays(6)
	a := series(t, "A", []time.Time{dates[0], dates[1], dates[2], dates[4], dates[5]}, []float64{1, 2, 3, 5, 6})
	b := series(t, "B", []time.Time{dates[1], dates[2], dates[3], dates[4]}, []float64{20, 30, 40, 50})

	p := Align(a, b, 0)
	require.Equal(t, 3, p.Len())
	assert.Equal(t, []float64{2, 3, 5}, p.A)
	assert.Equal(t, []float64{20, 30, 50}, p.B)
	assert.Equal(t, dates[4], p.Dates[2])

	tail := Align(a, b, 2)
	assert.Equal(t, 2, tail.Len())
	assert.Equal(t, 5.0, tail.LastA())
	assert.Equal(t, 50.0, tail.LastB())
}

func TestScreen_InsufficientHistory(t *testing.T) {
	a, b := cointegratedPair(t, 1, 200, 1.1)
	s := NewCorrelationScreener(DefaultConfig())

	_, err := s.Screen(Align(a, b, 730))
	var ih *model.InsufficientHistoryError
	require.True(t, errors.As(err, &ih))
	assert.Equal(t, 200, ih.Have)
	assert.Equal(t, 252, ih.Need)
	assert.Equal(t, model.ReasonInsufficientHistory, model.ReasonFor(err))
}

func TestScreen_AcceptsLinkedPair(t *testing.T) {
	a, b := cointegratedPair(t, 2, 730, 1.15)

	res, err := NewCorrelationScreener(DefaultConfig()).Screen(Align(a, b, 730))
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Greater(t, res.Candidate.Correlation, 0.9)
	assert.Greater(t, res.Candidate.Stability, 0.7)
	assert.Equal(t, "AAA", res.Candidate.SymbolA)
}

func TestScreen_RejectsUnrelatedPair(t *testing.T) {
	dates := tradingDays(500)
	a := make([]float64, 500)
	b := make([]float64, 500)
	for i := range a {
		a[i] = 100 + 10*math.Sin(float64(i)/7)
		b[i] = 100 + 10*math.Cos(float64(i)/11)
	}

	res, err := NewCorrelationScreener(DefaultConfig()).Screen(Align(series(t, "X", dates, a), series(t, "Y", dates, b), 730))
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, model.ReasonBelowCorrelation, res.Reason)
}

func TestStability(t *testing.T) {
	tests := []struct {
		name    string
		rolling []float64
		want    float64
	}{
		{"steady", []float64{0.9, 0.9, 0.9}, 1},
		{"negative mean", []float64{-0.5, -0.6, -0.4}, 0},
		{"noisy", []float64{0.1, 0.9, -0.5, 0.8}, 0},
		{"empty", nil, 0},
		{"nan ignored", []float64{math.NaN(), 0.8, 0.8}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Stability(tt.rolling), 1e-12)
		})
	}

	got := Stability([]float64{0.8, 0.9, 1.0})
	// mean 0.9, sample std 0.1
	assert.InDelta(t, 1-0.1/0.9, got, 1e-12)
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		p    float64
		want model.Classification
	}{
		{0.0, model.Strong},
		{0.0099, model.Strong},
		{0.01, model.Moderate},
		{0.0499, model.Moderate},
		{0.05, model.Weak},
		{0.0999, model.Weak},
		{0.10, model.NotCointegrated},
		{0.8, model.NotCointegrated},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.p), "p=%v", tt.p)
	}
}

func TestMeanRevertingSpread_IsStrongWithUnitHalfLife(t *testing.T) {
	spread := ar1(5, 0.5, 20000)

	res, err := NewCointegrationTester(1).Test(spread)
	require.NoError(t, err)
	assert.Equal(t, model.Strong, res.Classification)
	assert.Less(t, res.Statistic, res.CriticalValues.OnePct)

	st, err := NewSpreadAnalyzer(90, 90).Analyze(spread)
	require.NoError(t, err)
	require.NotNil(t, st.HalfLife)
	assert.InEpsilon(t, 1.0, *st.HalfLife, 0.10)
	assert.Equal(t, model.SpeedFast, st.Speed)
	assert.False(t, st.WeakCandidate)
}

func TestRandomWalkSpread_IsNotCointegrated(t *testing.T) {
	const walks = 40
	notCoint, nullHalfLife := 0, 0
	for seed := int64(100); seed < 100+walks; seed++ {
		spread := walk(seed, 730)

		res, err := NewCointegrationTester(1).Test(spread)
		require.NoError(t, err)
		if res.Classification == model.NotCointegrated {
			notCoint++
		}

		st, err := NewSpreadAnalyzer(90, 90).Analyze(spread)
		require.NoError(t, err)
		if st.HalfLife == nil {
			nullHalfLife++
			assert.Equal(t, model.SpeedNone, st.Speed)
			assert.False(t, st.WeakCandidate)
		}
	}
	assert.GreaterOrEqual(t, notCoint, 28)
	assert.GreaterOrEqual(t, nullHalfLife, 28)
}

func TestSpreadAnalyzer_NonRevertingHasNullHalfLife(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	spread := make([]float64, 300)
	spread[0] = 5
	for i := 1; i < len(spread); i++ {
		spread[i] = 1.02*spread[i-1] + rng.NormFloat64()
	}

	st, err := NewSpreadAnalyzer(90, 90).Analyze(spread)
	require.NoError(t, err)
	assert.Nil(t, st.HalfLife)
	assert.Equal(t, model.SpeedNone, st.Speed)
	assert.Greater(t, st.Phi, 1.0)
}

func TestSpreadAnalyzer_ZScoresIgnoreFuture(t *testing.T) {
	spread := walk(21, 365)
	an := NewSpreadAnalyzer(90, 90)
	base := an.ZScores(spread)

	mutated := append([]float64(nil), spread...)
	for i := 200; i < len(mutated); i++ {
		mutated[i] = -mutated[i] * 7
	}
	got := an.ZScores(mutated)

	for i := 89; i < 200; i++ {
		assert.Equal(t, base.Values[i], got.Values[i])
	}
	assert.Equal(t, 90, got.Window)
}

func TestClassifySpeed(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	assert.Equal(t, model.SpeedNone, ClassifySpeed(nil))
	assert.Equal(t, model.SpeedFast, ClassifySpeed(f(29.9)))
	assert.Equal(t, model.SpeedModerate, ClassifySpeed(f(30)))
	assert.Equal(t, model.SpeedModerate, ClassifySpeed(f(60)))
	assert.Equal(t, model.SpeedSlow, ClassifySpeed(f(60.1)))
}

func TestBreakMonitor(t *testing.T) {
	stationary := ar1(31, 0.5, 730)

	decayed := append([]float64(nil), stationary[:604]...)
	rng := rand.New(rand.NewSource(32))
	level := 5.0
	for i := 0; i < 126; i++ {
		level = 1.05*level + rng.NormFloat64()
		decayed = append(decayed, level)
	}

	mon := NewBreakMonitor(126, NewCointegrationTester(1))
	moderate := model.CointegrationResult{Classification: model.Moderate, PValue: 0.03}

	t.Run("decayed relationship is flagged", func(t *testing.T) {
		chk := mon.Check(decayed, moderate)
		assert.True(t, chk.Checked)
		assert.Greater(t, chk.TrailingPValue, 0.10)
		assert.True(t, chk.CointegrationDegraded)
	})

	t.Run("weak full history is never flagged", func(t *testing.T) {
		chk := mon.Check(decayed, model.CointegrationResult{Classification: model.Weak, PValue: 0.07})
		assert.True(t, chk.Checked)
		assert.False(t, chk.CointegrationDegraded)
	})

	t.Run("healthy window", func(t *testing.T) {
		chk := mon.Check(stationary, moderate)
		assert.True(t, chk.Checked)
		assert.Less(t, chk.TrailingPValue, 0.10)
		assert.False(t, chk.CointegrationDegraded)
	})

	t.Run("short history is not checked", func(t *testing.T) {
		chk := mon.Check(stationary[:100], moderate)
		assert.False(t, chk.Checked)
		assert.False(t, chk.CointegrationDegraded)
	})
}

func TestDegraded(t *testing.T) {
	assert.True(t, Degraded(model.Moderate, 0.18))
	assert.True(t, Degraded(model.Strong, 0.11))
	assert.False(t, Degraded(model.Strong, 0.10))
	assert.False(t, Degraded(model.NotCointegrated, 0.9))
}

func TestPairAnalyzer_EndToEnd(t *testing.T) {
	a, b := cointegratedPair(t, 3, 800, 1.1523)
	pa := NewPairAnalyzer(DefaultConfig(), hedge.NewStaticOLS(), zerolog.Nop())

	res, err := pa.Analyze(a, b)
	require.NoError(t, err)
	require.True(t, res.Screening.Accepted)

	assert.Equal(t, 730, res.Pair.Len())
	assert.InDelta(t, 1.1523, res.Hedge.Beta, 0.05)
	assert.Equal(t, model.Strong, res.Cointegration.Classification)
	require.NotNil(t, res.Stats.HalfLife)
	assert.Less(t, *res.Stats.HalfLife, FastHalfLife)
	assert.Len(t, res.Spread, 730)
	assert.False(t, math.IsNaN(res.Stats.CurrentZ))
	assert.True(t, res.Break.Checked)
}

func TestPairAnalyzer_Deterministic(t *testing.T) {
	a, b := cointegratedPair(t, 4, 760, 0.9)
	pa := NewPairAnalyzer(DefaultConfig(), hedge.NewStaticOLS(), zerolog.Nop())

	first, err := pa.Analyze(a, b)
	require.NoError(t, err)
	second, err := pa.Analyze(a, b)
	require.NoError(t, err)

	assert.Equal(t, first.Hedge, second.Hedge)
	assert.Equal(t, first.Cointegration, second.Cointegration)
	assert.Equal(t, first.Stats.CurrentZ, second.Stats.CurrentZ)
	assert.Equal(t, *first.Stats.HalfLife, *second.Stats.HalfLife)
	assert.Equal(t, first.Break, second.Break)
}

func TestPairAnalyzer_FlatLegIsInstability(t *testing.T) {
	dates := tradingDays(300)
	a := make([]float64, 300)
	b := make([]float64, 300)
	for i := range a {
		a[i] = 50 + float64(i%7)
		b[i] = 20
	}
	cfg := DefaultConfig()
	cfg.MinCorrelation = -1
	cfg.MinStability = 0
	pa := NewPairAnalyzer(cfg, hedge.NewStaticOLS(), zerolog.Nop())

	_, err := pa.Analyze(series(t, "A", dates, a), series(t, "B", dates, b))
	assert.Equal(t, model.ReasonNumericalInstability, model.ReasonFor(err))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Lookback = 100
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Basis = "levels"
	assert.Error(t, cfg.Validate())
}
