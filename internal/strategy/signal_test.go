package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairhunter/pkg/model"
)

func hl(v float64) *float64 { return &v }

func eligible(z float64) SignalInput {
	return SignalInput{
		Classification: model.Strong,
		HalfLife:       hl(12),
		Speed:          model.SpeedFast,
		CurrentZ:       z,
		PreviousZ:      math.NaN(),
	}
}

func TestEvaluate_EntryBoundary(t *testing.T) {
	g := NewSignalGenerator(DefaultThresholds())

	tests := []struct {
		z    float64
		want model.Direction
	}{
		{-2.0, model.DirectionLong},
		{-1.99, model.DirectionNone},
		{2.0, model.DirectionShort},
		{1.99, model.DirectionNone},
		{-2.99, model.DirectionLong},
		{0.3, model.DirectionNone},
	}
	for _, tt := range tests {
		sig := g.Evaluate(eligible(tt.z))
		assert.Equal(t, tt.want, sig.Direction, "z=%v", tt.z)
		assert.Equal(t, tt.z, sig.CurrentZScore)
	}
}

func TestEvaluate_StopForcesNoSignal(t *testing.T) {
	g := NewSignalGenerator(DefaultThresholds())

	for _, z := range []float64{3.0, -3.0, 4.2, -7} {
		sig := g.Evaluate(eligible(z))
		assert.Equal(t, model.DirectionNone, sig.Direction)
		assert.True(t, sig.StopTriggered)
		assert.Contains(t, sig.Notes, NoteExtremeDivergence)
	}
}

func TestEvaluate_Eligibility(t *testing.T) {
	g := NewSignalGenerator(DefaultThresholds())

	tests := []struct {
		name string
		in   SignalInput
	}{
		{"weak class", SignalInput{Classification: model.Weak, HalfLife: hl(10), Speed: model.SpeedFast, CurrentZ: -2.4, PreviousZ: math.NaN()}},
		{"not cointegrated", SignalInput{Classification: model.NotCointegrated, HalfLife: hl(10), Speed: model.SpeedFast, CurrentZ: -2.4, PreviousZ: math.NaN()}},
		{"no half-life", SignalInput{Classification: model.Strong, Speed: model.SpeedNone, CurrentZ: -2.4, PreviousZ: math.NaN()}},
		{"half-life too slow", SignalInput{Classification: model.Strong, HalfLife: hl(90.5), Speed: model.SpeedSlow, CurrentZ: 2.4, PreviousZ: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := g.Evaluate(tt.in)
			assert.Equal(t, model.DirectionNone, sig.Direction)
			assert.Equal(t, 1, sig.StrengthTier)
		})
	}

	sig := g.Evaluate(SignalInput{Classification: model.Moderate, HalfLife: hl(90), Speed: model.SpeedSlow, CurrentZ: 2.1, PreviousZ: math.NaN()})
	assert.Equal(t, model.DirectionShort, sig.Direction, "half-life of exactly the cap is eligible")
}

func TestEvaluate_ExitIsAdvisory(t *testing.T) {
	g := NewSignalGenerator(DefaultThresholds())

	in := eligible(-0.2)
	in.PreviousZ = 0.4
	sig := g.Evaluate(in)
	assert.True(t, sig.ExitTriggered)
	assert.Equal(t, model.DirectionNone, sig.Direction)
	assert.Contains(t, sig.Notes, NoteExitCrossed)

	in = eligible(-0.5)
	in.PreviousZ = -0.8
	assert.False(t, g.Evaluate(in).ExitTriggered)

	wide := NewSignalGenerator(Thresholds{Entry: 2, Exit: 0.5, Stop: 3, MaxHalfLife: 90})
	in = eligible(0.4)
	in.PreviousZ = 0.9
	assert.True(t, wide.Evaluate(in).ExitTriggered)
}

func TestEvaluate_DegradedKeepsSignal(t *testing.T) {
	g := NewSignalGenerator(DefaultThresholds())

	sig := g.Evaluate(SignalInput{
		Classification: model.Moderate,
		HalfLife:       hl(25),
		Speed:          model.SpeedFast,
		CurrentZ:       -2.2,
		PreviousZ:      -1.9,
		Degraded:       true,
	})
	assert.Equal(t, model.DirectionLong, sig.Direction)
	assert.True(t, sig.Caution)
	assert.Contains(t, sig.Notes, NoteDegraded)
}

func TestEvaluate_ReferencePair(t *testing.T) {
	g := NewSignalGenerator(DefaultThresholds())

	sig := g.Evaluate(SignalInput{
		Classification: model.Strong,
		HalfLife:       hl(42),
		Speed:          model.SpeedModerate,
		CurrentZ:       -2.3,
		PreviousZ:      -2.1,
	})
	require.Equal(t, model.DirectionLong, sig.Direction)
	assert.GreaterOrEqual(t, sig.StrengthTier, 3)
	assert.Equal(t, 2.0, sig.EntryThreshold)
	assert.Equal(t, 0.0, sig.ExitThreshold)
	assert.Equal(t, 3.0, sig.StopThreshold)
}

func TestStrengthTier(t *testing.T) {
	tests := []struct {
		name  string
		class model.Classification
		speed model.HalfLifeSpeed
		z     float64
		want  int
	}{
		{"best", model.Strong, model.SpeedFast, -2.6, 4},
		{"strong fast small z", model.Strong, model.SpeedFast, 2.2, 3},
		{"strong moderate", model.Strong, model.SpeedModerate, 2.2, 3},
		{"moderate fast", model.Moderate, model.SpeedFast, 2.2, 3},
		{"moderate moderate", model.Moderate, model.SpeedModerate, 2.2, 2},
		{"moderate moderate big z", model.Moderate, model.SpeedModerate, -2.8, 3},
		{"weak", model.Weak, model.SpeedFast, 2.8, 1},
		{"slow", model.Strong, model.SpeedSlow, 2.8, 1},
		{"no half-life", model.Strong, model.SpeedNone, 2.8, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StrengthTier(tt.class, tt.speed, tt.z))
		})
	}
}

func TestThresholdsValidate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{Entry: 2, Exit: 2, Stop: 3, MaxHalfLife: 90}.Validate())
	assert.Error(t, Thresholds{Entry: 2, Exit: 0, Stop: 1.5, MaxHalfLife: 90}.Validate())
	assert.Error(t, Thresholds{Entry: 2, Exit: -1, Stop: 3, MaxHalfLife: 90}.Validate())
}
