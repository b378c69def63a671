package model

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Observation is a single daily adjusted close
type Observation struct {
	Date  time.Time `json:"date" yaml:"date" msgpack:"date"`
	Close float64   `json:"close" yaml:"close" msgpack:"close"`
}

// PriceSeries is an immutable, strictly date-ordered close history for one symbol
type PriceSeries struct {
	symbol string
	obs    []Observation
}

// NewPriceSeries validates and copies observations into a PriceSeries.
// Dates are truncated to the UTC calendar day.
func NewPriceSeries(symbol string, obs []Observation) (*PriceSeries, error) {
	out := make([]Observation, len(obs))
	for i, o := range obs {
		if math.IsNaN(o.Close) || math.IsInf(o.Close, 0) || o.Close <= 0 {
			return nil, fmt.Errorf("%s: invalid close %v at %s", symbol, o.Close, o.Date.Format("2006-01-02"))
		}
		d := DayOf(o.Date)
		if i > 0 && !d.After(out[i-1].Date) {
			return nil, fmt.Errorf("%s: dates not strictly increasing at %s", symbol, d.Format("2006-01-02"))
		}
		out[i] = Observation{Date: d, Close: o.Close}
	}
	return &PriceSeries{symbol: symbol, obs: out}, nil
}

// DayOf truncates t to midnight UTC of its calendar day
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Symbol returns the ticker
func (s *PriceSeries) Symbol() string { return s.symbol }

// Len returns the number of observations
func (s *PriceSeries) Len() int { return len(s.obs) }

// At returns the i-th observation
func (s *PriceSeries) At(i int) Observation { return s.obs[i] }

// Last returns the most recent observation
func (s *PriceSeries) Last() Observation { return s.obs[len(s.obs)-1] }

// Observations returns a copy of the observations
func (s *PriceSeries) Observations() []Observation {
	out := make([]Observation, len(s.obs))
	copy(out, s.obs)
	return out
}

// Closes returns a copy of the close prices
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.obs))
	for i, o := range s.obs {
		out[i] = o.Close
	}
	return out
}

// Tail returns a series holding at most the last n observations
func (s *PriceSeries) Tail(n int) *PriceSeries {
	if n >= len(s.obs) {
		return s
	}
	return &PriceSeries{symbol: s.symbol, obs: s.obs[len(s.obs)-n:]}
}

// PairCandidate is a pair that passed the correlation screen
type PairCandidate struct {
	SymbolA     string  `json:"symbol_a" yaml:"symbol_a" msgpack:"symbol_a"`
	SymbolB     string  `json:"symbol_b" yaml:"symbol_b" msgpack:"symbol_b"`
	Correlation float64 `json:"correlation" yaml:"correlation" msgpack:"correlation"`
	Stability   float64 `json:"stability" yaml:"stability" msgpack:"stability"`
}

// HedgeRatio is the linear relationship priceA ≈ Intercept + Beta*priceB
type HedgeRatio struct {
	Beta       float64 `json:"beta" yaml:"beta" msgpack:"beta"`
	Intercept  float64 `json:"intercept" yaml:"intercept" msgpack:"intercept"`
	FitQuality float64 `json:"fit_quality" yaml:"fit_quality" msgpack:"fit_quality"` // R², [0,1]
	Method     string  `json:"method" yaml:"method" msgpack:"method"`

	// Path holds per-observation betas for time-varying estimators.
	// Entry t uses only data before t.
	Path []float64 `json:"-" yaml:"-" msgpack:"-"`
}

// Classification grades the evidence for a stationary spread
type Classification string

const (
	NotCointegrated Classification = "not_cointegrated"
	Weak            Classification = "weak"
	Moderate        Classification = "moderate"
	Strong          Classification = "strong"
)

// Tradeable reports whether the class qualifies for entry
func (c Classification) Tradeable() bool {
	return c == Moderate || c == Strong
}

// CriticalValues are the ADF critical values at the standard levels
type CriticalValues struct {
	OnePct  float64 `json:"1%" yaml:"1%" msgpack:"1%"`
	FivePct float64 `json:"5%" yaml:"5%" msgpack:"5%"`
	TenPct  float64 `json:"10%" yaml:"10%" msgpack:"10%"`
}

// CointegrationResult is the unit-root test outcome on a spread
type CointegrationResult struct {
	Statistic      float64        `json:"statistic" yaml:"statistic" msgpack:"statistic"`
	PValue         float64        `json:"p_value" yaml:"p_value" msgpack:"p_value"`
	CriticalValues CriticalValues `json:"critical_values" yaml:"critical_values" msgpack:"critical_values"`
	Classification Classification `json:"classification" yaml:"classification" msgpack:"classification"`
	Observations   int            `json:"observations" yaml:"observations" msgpack:"observations"`
}

// HalfLifeSpeed buckets the mean-reversion half-life
type HalfLifeSpeed string

const (
	SpeedNone     HalfLifeSpeed = "none"
	SpeedFast     HalfLifeSpeed = "fast"
	SpeedModerate HalfLifeSpeed = "moderate"
	SpeedSlow     HalfLifeSpeed = "slow"
)

// ZScoreSeries is the rolling z-score of a spread. Values before the
// first complete window are NaN.
type ZScoreSeries struct {
	Window int
	Values []float64
}

// Current returns the latest z-score
func (z ZScoreSeries) Current() float64 {
	if len(z.Values) == 0 {
		return math.NaN()
	}
	return z.Values[len(z.Values)-1]
}

// BreakCheck is the trailing-window re-validation of a pair
type BreakCheck struct {
	Checked               bool           `json:"checked" yaml:"checked" msgpack:"checked"`
	Window                int            `json:"window" yaml:"window" msgpack:"window"`
	TrailingPValue        float64        `json:"trailing_p_value" yaml:"trailing_p_value" msgpack:"trailing_p_value"`
	TrailingClass         Classification `json:"trailing_classification" yaml:"trailing_classification" msgpack:"trailing_classification"`
	CointegrationDegraded bool           `json:"cointegration_degraded" yaml:"cointegration_degraded" msgpack:"cointegration_degraded"`
}

// Direction is the spread position a signal calls for
type Direction string

const (
	DirectionNone  Direction = "none"
	DirectionLong  Direction = "long_spread"
	DirectionShort Direction = "short_spread"
)

// State returns the signal state name for the direction
func (d Direction) State() string {
	switch d {
	case DirectionLong:
		return "LongSpread"
	case DirectionShort:
		return "ShortSpread"
	default:
		return "NoSignal"
	}
}

// TradeSignal is the per-run signal for a pair
type TradeSignal struct {
	Direction      Direction `json:"direction" yaml:"direction" msgpack:"direction"`
	CurrentZScore  float64   `json:"current_zscore" yaml:"current_zscore" msgpack:"current_zscore"`
	EntryThreshold float64   `json:"entry_threshold" yaml:"entry_threshold" msgpack:"entry_threshold"`
	ExitThreshold  float64   `json:"exit_threshold" yaml:"exit_threshold" msgpack:"exit_threshold"`
	StopThreshold  float64   `json:"stop_threshold" yaml:"stop_threshold" msgpack:"stop_threshold"`
	StrengthTier   int       `json:"strength_tier" yaml:"strength_tier" msgpack:"strength_tier"`
	ExitTriggered  bool      `json:"exit_triggered" yaml:"exit_triggered" msgpack:"exit_triggered"`
	StopTriggered  bool      `json:"stop_triggered" yaml:"stop_triggered" msgpack:"stop_triggered"`
	Caution        bool      `json:"caution" yaml:"caution" msgpack:"caution"`
	Notes          []string  `json:"notes,omitempty" yaml:"notes,omitempty" msgpack:"notes,omitempty"`
}

// Side is the direction of a single leg
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Leg is one side of a two-leg position. Dollars and Shares are signed:
// positive for long, negative for short.
type Leg struct {
	Symbol  string          `json:"symbol" yaml:"symbol" msgpack:"symbol"`
	Side    Side            `json:"side" yaml:"side" msgpack:"side"`
	Price   decimal.Decimal `json:"price" yaml:"price" msgpack:"price"`
	Dollars decimal.Decimal `json:"dollars" yaml:"dollars" msgpack:"dollars"`
	Shares  decimal.Decimal `json:"shares" yaml:"shares" msgpack:"shares"`
	Filled  decimal.Decimal `json:"filled" yaml:"filled" msgpack:"filled"` // Shares * Price
}

// PositionPlan is a hedge-ratio neutral two-leg allocation
type PositionPlan struct {
	LegA        Leg             `json:"leg_a" yaml:"leg_a" msgpack:"leg_a"`
	LegB        Leg             `json:"leg_b" yaml:"leg_b" msgpack:"leg_b"`
	Allocation  decimal.Decimal `json:"allocation" yaml:"allocation" msgpack:"allocation"`
	Beta        float64         `json:"beta" yaml:"beta" msgpack:"beta"`
	NetExposure float64         `json:"net_exposure" yaml:"net_exposure" msgpack:"net_exposure"` // fraction of allocation
	Adjusted    bool            `json:"adjusted" yaml:"adjusted" msgpack:"adjusted"`
}

// PairStatus is the outcome of evaluating one pair
type PairStatus string

const (
	StatusSignal   PairStatus = "signal"
	StatusNoSignal PairStatus = "no_signal"
	StatusFiltered PairStatus = "filtered"
	StatusSkipped  PairStatus = "skipped"
)

// PairResult is one record of the screening report
type PairResult struct {
	SymbolA       string               `json:"symbol_a" yaml:"symbol_a" msgpack:"symbol_a"`
	SymbolB       string               `json:"symbol_b" yaml:"symbol_b" msgpack:"symbol_b"`
	Status        PairStatus           `json:"status" yaml:"status" msgpack:"status"`
	Reason        ReasonCode           `json:"reason,omitempty" yaml:"reason,omitempty" msgpack:"reason,omitempty"`
	Detail        string               `json:"detail,omitempty" yaml:"detail,omitempty" msgpack:"detail,omitempty"`
	Observations  int                  `json:"observations" yaml:"observations" msgpack:"observations"`
	Correlation   float64              `json:"correlation" yaml:"correlation" msgpack:"correlation"`
	Stability     float64              `json:"stability" yaml:"stability" msgpack:"stability"`
	Hedge         *HedgeRatio          `json:"hedge_ratio,omitempty" yaml:"hedge_ratio,omitempty" msgpack:"hedge_ratio,omitempty"`
	Cointegration *CointegrationResult `json:"cointegration,omitempty" yaml:"cointegration,omitempty" msgpack:"cointegration,omitempty"`
	HalfLife      *float64             `json:"half_life" yaml:"half_life" msgpack:"half_life"`
	HalfLifeSpeed HalfLifeSpeed        `json:"half_life_speed,omitempty" yaml:"half_life_speed,omitempty" msgpack:"half_life_speed,omitempty"`
	WeakCandidate bool                 `json:"weak_candidate" yaml:"weak_candidate" msgpack:"weak_candidate"`
	CurrentZScore float64              `json:"current_zscore" yaml:"current_zscore" msgpack:"current_zscore"`
	Break         *BreakCheck          `json:"break,omitempty" yaml:"break,omitempty" msgpack:"break,omitempty"`
	Signal        *TradeSignal         `json:"signal,omitempty" yaml:"signal,omitempty" msgpack:"signal,omitempty"`
	Plan          *PositionPlan        `json:"position_plan,omitempty" yaml:"position_plan,omitempty" msgpack:"position_plan,omitempty"`
}

// Key returns "A/B"
func (r PairResult) Key() string {
	return r.SymbolA + "/" + r.SymbolB
}

// Direction returns the signal direction, or none when no signal was produced
func (r PairResult) Direction() Direction {
	if r.Signal == nil {
		return DirectionNone
	}
	return r.Signal.Direction
}

// FetchFailure records a symbol whose history could not be loaded
type FetchFailure struct {
	Symbol string     `json:"symbol" yaml:"symbol" msgpack:"symbol"`
	Reason ReasonCode `json:"reason" yaml:"reason" msgpack:"reason"`
	Detail string     `json:"detail" yaml:"detail" msgpack:"detail"`
}

// ScreenReport is the ranked output of one screening run
type ScreenReport struct {
	RunID          string         `json:"run_id" yaml:"run_id" msgpack:"run_id"`
	Universe       string         `json:"universe" yaml:"universe" msgpack:"universe"`
	StartedAt      time.Time      `json:"started_at" yaml:"started_at" msgpack:"started_at"`
	Duration       time.Duration  `json:"duration" yaml:"duration" msgpack:"duration"`
	Symbols        int            `json:"symbols" yaml:"symbols" msgpack:"symbols"`
	PairsTotal     int            `json:"pairs_total" yaml:"pairs_total" msgpack:"pairs_total"`
	PairsEvaluated int            `json:"pairs_evaluated" yaml:"pairs_evaluated" msgpack:"pairs_evaluated"`
	Cancelled      bool           `json:"cancelled" yaml:"cancelled" msgpack:"cancelled"`
	Results        []PairResult   `json:"results" yaml:"results" msgpack:"results"`
	FetchFailures  []FetchFailure `json:"fetch_failures,omitempty" yaml:"fetch_failures,omitempty" msgpack:"fetch_failures,omitempty"`
}

// Count returns the number of results with the given status
func (r *ScreenReport) Count(status PairStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// SignalCount returns the number of pairs with an actionable signal
func (r *ScreenReport) SignalCount() int {
	return r.Count(StatusSignal)
}
