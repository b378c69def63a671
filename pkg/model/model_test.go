package model

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestNewPriceSeries(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s, err := NewPriceSeries("AAPL", []Observation{
		{Date: day("2026-01-02").Add(21 * time.Hour), Close: 10},
		{Date: time.Date(2026, 1, 5, 9, 30, 0, 0, ny), Close: 11},
	})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", s.Symbol())
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, day("2026-01-02"), s.At(0).Date, "dates are truncated to the UTC day")
	assert.Equal(t, []float64{10, 11}, s.Closes())

	tests := []struct {
		name string
		obs  []Observation
	}{
		{"zero close", []Observation{{Date: day("2026-01-02"), Close: 0}}},
		{"negative close", []Observation{{Date: day("2026-01-02"), Close: -1}}},
		{"NaN close", []Observation{{Date: day("2026-01-02"), Close: math.NaN()}}},
		{"infinite close", []Observation{{Date: day("2026-01-02"), Close: math.Inf(1)}}},
		{"duplicate date", []Observation{{Date: day("2026-01-02"), Close: 1}, {Date: day("2026-01-02").Add(time.Hour), Close: 2}}},
		{"out of order", []Observation{{Date: day("2026-01-05"), Close: 1}, {Date: day("2026-01-02"), Close: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPriceSeries("X", tt.obs)
			assert.Error(t, err)
		})
	}
}

func TestPriceSeries_IsImmutable(t *testing.T) {
	obs := []Observation{{Date: day("2026-01-02"), Close: 10}, {Date: day("2026-01-05"), Close: 11}}
	s, err := NewPriceSeries("X", obs)
	require.NoError(t, err)

	obs[0].Close = 99
	assert.Equal(t, 10.0, s.At(0).Close)

	out := s.Observations()
	out[1].Close = 99
	assert.Equal(t, 11.0, s.Last().Close)
}

func TestPriceSeries_Tail(t *testing.T) {
	s, err := NewPriceSeries("X", []Observation{
		{Date: day("2026-01-02"), Close: 1},
		{Date: day("2026-01-05"), Close: 2},
		{Date: day("2026-01-06"), Close: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 3}, s.Tail(2).Closes())
	assert.Same(t, s, s.Tail(5))
	assert.Equal(t, "X", s.Tail(1).Symbol())
}

func TestReasonFor(t *testing.T) {
	tests := []struct {
		err  error
		want ReasonCode
	}{
		{&InsufficientHistoryError{SymbolA: "A", SymbolB: "B", Have: 100, Need: 252}, ReasonInsufficientHistory},
		{fmt.Errorf("pair A/B: %w", &NumericalInstabilityError{Stage: "hedge_ratio", Detail: "flat"}), ReasonNumericalInstability},
		{&AllocationError{SymbolA: "A", SymbolB: "B", NetExposure: 0.2, Tolerance: 0.01}, ReasonAllocation},
		{errors.New("boom"), ReasonInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReasonFor(tt.err), tt.err.Error())
	}

	inner := errors.New("singular matrix")
	ni := &NumericalInstabilityError{Stage: "adf", Detail: "degenerate", Err: inner}
	assert.ErrorIs(t, ni, inner)
	assert.Contains(t, ni.Error(), "singular matrix")
}

func TestScreenReport_Counts(t *testing.T) {
	r := &ScreenReport{Results: []PairResult{
		{Status: StatusSignal},
		{Status: StatusSignal},
		{Status: StatusFiltered},
		{Status: StatusSkipped},
	}}
	assert.Equal(t, 2, r.SignalCount())
	assert.Equal(t, 1, r.Count(StatusFiltered))
	assert.Equal(t, 0, r.Count(StatusNoSignal))
}

func TestPairResult_Accessors(t *testing.T) {
	r := PairResult{SymbolA: "KO", SymbolB: "PEP"}
	assert.Equal(t, "KO/PEP", r.Key())
	assert.Equal(t, DirectionNone, r.Direction())

	r.Signal = &TradeSignal{Direction: DirectionShort}
	assert.Equal(t, DirectionShort, r.Direction())
	assert.Equal(t, "ShortSpread", r.Direction().State())
	assert.Equal(t, "NoSignal", DirectionNone.State())
}

func TestClassification_Tradeable(t *testing.T) {
	assert.True(t, Strong.Tradeable())
	assert.True(t, Moderate.Tradeable())
	assert.False(t, Weak.Tradeable())
	assert.False(t, NotCointegrated.Tradeable())
}

func TestZScoreSeries_Current(t *testing.T) {
	assert.True(t, math.IsNaN(ZScoreSeries{}.Current()))
	assert.Equal(t, -2.5, ZScoreSeries{Window: 2, Values: []float64{math.NaN(), 1, -2.5}}.Current())
}
