package strategy

import (
	"fmt"
	"math"

	"pairhunter/pkg/model"
)

// Note texts attached to signals
const (
	NoteExtremeDivergence = "extreme divergence, possible break"
	NoteExitCrossed       = "exit threshold crossed (advisory)"
	NoteDegraded          = "cointegration degraded in trailing window"
)

// Thresholds holds the z-score bands of the spread state machine
type Thresholds struct {
	Entry       float64 `yaml:"entry_z"`
	Exit        float64 `yaml:"exit_z"`
	Stop        float64 `yaml:"stop_z"`
	MaxHalfLife float64 `yaml:"max_half_life"`
}

// DefaultThresholds returns the standard 2/0/3 bands
func DefaultThresholds() Thresholds {
	return Thresholds{
		Entry:       2.0,
		Exit:        0.0,
		Stop:        3.0,
		MaxHalfLife: 90,
	}
}

// Validate requires 0 <= exit < entry < stop
func (t Thresholds) Validate() error {
	if t.Exit < 0 {
		return fmt.Errorf("exit_z must be >= 0, got %v", t.Exit)
	}
	if t.Entry <= t.Exit {
		return fmt.Errorf("entry_z (%v) must exceed exit_z (%v)", t.Entry, t.Exit)
	}
	if t.Stop <= t.Entry {
		return fmt.Errorf("stop_z (%v) must exceed entry_z (%v)", t.Stop, t.Entry)
	}
	if t.MaxHalfLife <= 0 {
		return fmt.Errorf("max_half_life must be positive, got %v", t.MaxHalfLife)
	}
	return nil
}

// SignalInput is what the generator needs from the statistical stages
type SignalInput struct {
	Classification model.Classification
	HalfLife       *float64
	Speed          model.HalfLifeSpeed
	CurrentZ       float64
	PreviousZ      float64 // NaN when unavailable
	Degraded       bool
}

// SignalGenerator maps spread state to a trade signal. It keeps no state
// between evaluations.
type SignalGenerator struct {
	th Thresholds
}

// NewSignalGenerator creates a generator
func NewSignalGenerator(th Thresholds) *SignalGenerator {
	return &SignalGenerator{th: th}
}

// Evaluate returns the signal for the current observation.
//
// The stop band wins over everything and forces no signal. Entry requires a
// Moderate or Strong class and a half-life within MaxHalfLife. The exit band
// is reported when crossed but never changes the direction on its own.
func (g *SignalGenerator) Evaluate(in SignalInput) model.TradeSignal {
	z := in.CurrentZ
	sig := model.TradeSignal{
		Direction:      model.DirectionNone,
		CurrentZScore:  z,
		EntryThreshold: g.th.Entry,
		ExitThreshold:  g.th.Exit,
		StopThreshold:  g.th.Stop,
		StrengthTier:   StrengthTier(in.Classification, in.Speed, z),
		Caution:        in.Degraded,
	}
	if in.Degraded {
		sig.Notes = append(sig.Notes, NoteDegraded)
	}

	if math.Abs(z) >= g.th.Stop {
		sig.StopTriggered = true
		sig.Notes = append(sig.Notes, NoteExtremeDivergence)
		return sig
	}

	eligible := in.Classification.Tradeable() &&
		in.HalfLife != nil && *in.HalfLife <= g.th.MaxHalfLife

	switch {
	case eligible && z <= -g.th.Entry:
		sig.Direction = model.DirectionLong
	case eligible && z >= g.th.Entry:
		sig.Direction = model.DirectionShort
	case g.exitCrossed(in.PreviousZ, z):
		sig.ExitTriggered = true
		sig.Notes = append(sig.Notes, NoteExitCrossed)
	}
	return sig
}

// exitCrossed reports whether z moved into the exit band or through zero
// since the previous observation
func (g *SignalGenerator) exitCrossed(prev, cur float64) bool {
	if math.IsNaN(prev) || math.IsNaN(cur) {
		return false
	}
	if math.Abs(prev) > g.th.Exit && math.Abs(cur) <= g.th.Exit {
		return true
	}
	return prev*cur < 0
}

// StrengthTier grades a pair from 1 (weakest) to 4 (strongest).
//
// 4 needs Strong cointegration, a fast half-life and |z| > 2.5. Weak or
// absent cointegration and slow or missing half-lives score 1. Everything
// else scores 3 or 2 by class, speed and magnitude points.
func StrengthTier(class model.Classification, speed model.HalfLifeSpeed, z float64) int {
	if !class.Tradeable() || speed == model.SpeedSlow || speed == model.SpeedNone {
		return 1
	}

	big := math.Abs(z) > 2.5
	if class == model.Strong && speed == model.SpeedFast && big {
		return 4
	}

	score := 0
	if class == model.Strong {
		score += 2
	} else {
		score++
	}
	if speed == model.SpeedFast {
		score += 2
	} else {
		score++
	}
	if big {
		score++
	}
	if score >= 3 {
		return 3
	}
	return 2
}
