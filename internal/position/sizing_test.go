package position

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairhunter/pkg/model"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestSize_ReferencePair(t *testing.T) {
	sizer := NewPositionSizer(DefaultConfig())

	plan, err := sizer.Size(SizeRequest{
		SymbolA:   "AAPL",
		SymbolB:   "MSFT",
		Direction: model.DirectionLong,
		Beta:      1.1523,
		PriceA:    200,
		PriceB:    411.54,
	})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", plan.LegA.Symbol)
	assert.Equal(t, model.SideLong, plan.LegA.Side)
	assert.True(t, plan.LegA.Dollars.Equal(dec(5000)), "legA dollars %s", plan.LegA.Dollars)
	assert.True(t, plan.LegA.Shares.Equal(dec(25)))

	assert.Equal(t, "MSFT", plan.LegB.Symbol)
	assert.Equal(t, model.SideShort, plan.LegB.Side)
	assert.True(t, plan.LegB.Dollars.Round(0).Equal(dec(-5762)), "legB dollars %s", plan.LegB.Dollars)
	assert.True(t, plan.LegB.Shares.Equal(dec(-14)))

	assert.False(t, plan.Adjusted)
	assert.Less(t, plan.NetExposure, 0.01)
	assert.InDelta(t, plan.NetExposure, NetExposure(plan), 1e-12)
}

func TestSize_AdjustsRounding(t *testing.T) {
	sizer := NewPositionSizer(DefaultConfig())

	plan, err := sizer.Size(SizeRequest{
		SymbolA:   "AAPL",
		SymbolB:   "MSFT",
		Direction: model.DirectionLong,
		Beta:      1.1523,
		PriceA:    190,
		PriceB:    415,
	})
	require.NoError(t, err)

	// 26 / 14 shares would leave 1.18% exposure
	assert.True(t, plan.Adjusted)
	assert.True(t, plan.LegA.Shares.Equal(dec(25)), "legA shares %s", plan.LegA.Shares)
	assert.True(t, plan.LegB.Shares.Equal(dec(-13)), "legB shares %s", plan.LegB.Shares)
	assert.Less(t, plan.NetExposure, 0.01)
	assert.True(t, plan.LegA.Dollars.Equal(dec(5000)), "targets are unchanged by adjustment")
}

func TestSize_ShortSpread(t *testing.T) {
	plan, err := NewPositionSizer(DefaultConfig()).Size(SizeRequest{
		SymbolA: "XOM", SymbolB: "CVX", Direction: model.DirectionShort, Beta: 0.5, PriceA: 100, PriceB: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, model.SideShort, plan.LegA.Side)
	assert.True(t, plan.LegA.Shares.Equal(dec(-50)))
	assert.Equal(t, model.SideLong, plan.LegB.Side)
	assert.True(t, plan.LegB.Shares.Equal(dec(50)))
	assert.True(t, plan.LegB.Dollars.Equal(dec(2500)))
	assert.InDelta(t, 0, plan.NetExposure, 1e-12)
}

func TestSize_NegativeBetaPutsLegsOnSameSide(t *testing.T) {
	plan, err := NewPositionSizer(DefaultConfig()).Size(SizeRequest{
		SymbolA: "GLD", SymbolB: "UUP", Direction: model.DirectionLong, Beta: -0.8, PriceA: 50, PriceB: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, model.SideLong, plan.LegA.Side)
	assert.Equal(t, model.SideLong, plan.LegB.Side)
	assert.True(t, plan.LegB.Shares.Equal(dec(200)))
	assert.Less(t, NetExposure(plan), 0.01)
}

func TestSize_AllocationError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Allocation = 1000
	_, err := NewPositionSizer(cfg).Size(SizeRequest{
		SymbolA: "F", SymbolB: "BKNG", Direction: model.DirectionLong, Beta: 1, PriceA: 10, PriceB: 900,
	})

	var ae *model.AllocationError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "F", ae.SymbolA)
	assert.Greater(t, ae.NetExposure, ae.Tolerance)
	assert.Equal(t, model.ReasonAllocation, model.ReasonFor(err))
}

func TestSize_FractionalLots(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Allocation = 1000
	cfg.LotSize = 0.001

	plan, err := NewPositionSizer(cfg).Size(SizeRequest{
		SymbolA: "AAA", SymbolB: "BBB", Direction: model.DirectionLong, Beta: 1, PriceA: 3000, PriceB: 5000,
	})
	require.NoError(t, err)
	assert.True(t, plan.LegA.Shares.Equal(dec(0.167)), "legA shares %s", plan.LegA.Shares)
	assert.True(t, plan.LegB.Shares.Equal(dec(-0.1)))
	assert.Less(t, plan.NetExposure, 0.01)
}

func TestSize_RejectsBadInput(t *testing.T) {
	sizer := NewPositionSizer(DefaultConfig())

	_, err := sizer.Size(SizeRequest{SymbolA: "A", SymbolB: "B", Direction: model.DirectionNone, Beta: 1, PriceA: 1, PriceB: 1})
	assert.Error(t, err)

	_, err = sizer.Size(SizeRequest{SymbolA: "A", SymbolB: "B", Direction: model.DirectionLong, Beta: 1, PriceA: 0, PriceB: 1})
	assert.Error(t, err)

	_, err = sizer.Size(SizeRequest{SymbolA: "A", SymbolB: "B", Direction: model.DirectionLong, Beta: 0, PriceA: 1, PriceB: 1})
	var ae *model.AllocationError
	assert.True(t, errors.As(err, &ae))
}

func TestSize_EveryPlanIsNeutral(t *testing.T) {
	rng := rand.New(rand.NewSource(77))
	sizer := NewPositionSizer(DefaultConfig())

	planned := 0
	for i := 0; i < 500; i++ {
		req := SizeRequest{
			SymbolA:   "A",
			SymbolB:   "B",
			Direction: model.DirectionLong,
			Beta:      0.3 + 2.7*rng.Float64(),
			PriceA:    5 + 495*rng.Float64(),
			PriceB:    5 + 495*rng.Float64(),
		}
		if i%2 == 1 {
			req.Direction = model.DirectionShort
		}

		plan, err := sizer.Size(req)
		if err != nil {
			var ae *model.AllocationError
			require.True(t, errors.As(err, &ae), "unexpected error %v", err)
			continue
		}
		planned++
		assert.Less(t, NetExposure(plan), 0.01, "beta=%v pa=%v pb=%v", req.Beta, req.PriceA, req.PriceB)
	}
	assert.Greater(t, planned, 150)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Tolerance = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LotSize = -1
	assert.Error(t, cfg.Validate())
}
