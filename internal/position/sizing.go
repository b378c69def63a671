package position

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"pairhunter/pkg/model"
)

// Config holds pair sizing parameters
type Config struct {
	Allocation  float64 `yaml:"allocation"`   // capital per pair
	Tolerance   float64 `yaml:"tolerance"`    // max |net exposure| / allocation
	LotSize     float64 `yaml:"lot_size"`     // 1 for whole shares
	AdjustSteps int     `yaml:"adjust_steps"` // lots searched either side of the rounded first leg
}

// DefaultConfig returns $10,000 per pair, 1% tolerance, whole shares
func DefaultConfig() Config {
	return Config{
		Allocation:  10000,
		Tolerance:   0.01,
		LotSize:     1,
		AdjustSteps: 5,
	}
}

// Validate checks the sizing parameters
func (c Config) Validate() error {
	if c.Allocation <= 0 {
		return fmt.Errorf("allocation must be positive, got %v", c.Allocation)
	}
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be within (0, 1), got %v", c.Tolerance)
	}
	if c.LotSize <= 0 {
		return fmt.Errorf("lot_size must be positive, got %v", c.LotSize)
	}
	if c.AdjustSteps < 0 {
		return fmt.Errorf("adjust_steps must be >= 0, got %v", c.AdjustSteps)
	}
	return nil
}

// PositionSizer converts a spread signal into a hedge-ratio neutral two-leg plan
type PositionSizer struct {
	allocation decimal.Decimal
	tolerance  float64
	lot        decimal.Decimal
	steps      int
}

// NewPositionSizer creates a sizer
func NewPositionSizer(cfg Config) *PositionSizer {
	return &PositionSizer{
		allocation: decimal.NewFromFloat(cfg.Allocation),
		tolerance:  cfg.Tolerance,
		lot:        decimal.NewFromFloat(cfg.LotSize),
		steps:      cfg.AdjustSteps,
	}
}

// SizeRequest describes the pair to size
type SizeRequest struct {
	SymbolA   string
	SymbolB   string
	Direction model.Direction
	Beta      float64
	PriceA    float64
	PriceB    float64
}

var two = decimal.NewFromInt(2)

// Size allocates half the capital to leg A and half times |beta| to leg B.
//
// A long spread buys A and sells β units of B; a short spread does the
// reverse. A negative beta puts both legs on the same side. When share
// rounding leaves the net exposure |β·A$ − B$| / allocation at or above the
// tolerance, nearby share counts within the gross budget are searched;
// failing that the pair gets an AllocationError.
func (p *PositionSizer) Size(req SizeRequest) (*model.PositionPlan, error) {
	if req.Direction == model.DirectionNone {
		return nil, fmt.Errorf("cannot size %s/%s without a direction", req.SymbolA, req.SymbolB)
	}
	if !(req.PriceA > 0) || !(req.PriceB > 0) {
		return nil, fmt.Errorf("cannot size %s/%s: non-positive price", req.SymbolA, req.SymbolB)
	}
	if math.IsNaN(req.Beta) || math.IsInf(req.Beta, 0) || req.Beta == 0 {
		return nil, &model.AllocationError{SymbolA: req.SymbolA, SymbolB: req.SymbolB, NetExposure: math.Inf(1), Tolerance: p.tolerance}
	}

	beta := decimal.NewFromFloat(math.Abs(req.Beta))
	priceA := decimal.NewFromFloat(req.PriceA)
	priceB := decimal.NewFromFloat(req.PriceB)

	targetA := p.allocation.Div(two)
	targetB := targetA.Mul(beta)
	budget := targetA.Add(targetB)

	sharesA := p.roundLots(targetA.Div(priceA))
	sharesB := p.roundLots(targetB.Div(priceB))
	net := p.netExposure(beta, sharesA.Mul(priceA), sharesB.Mul(priceB))

	adjusted := false
	if net >= p.tolerance || sharesA.IsZero() || sharesB.IsZero() {
		rounded := net
		var ok bool
		sharesA, sharesB, net, ok = p.search(beta, priceA, priceB, sharesA, budget)
		if !ok {
			if math.IsInf(net, 1) {
				net = rounded
			}
			return nil, &model.AllocationError{SymbolA: req.SymbolA, SymbolB: req.SymbolB, NetExposure: net, Tolerance: p.tolerance}
		}
		adjusted = true
	}

	sideA, sideB := legSides(req.Direction, req.Beta)
	return &model.PositionPlan{
		LegA:        buildLeg(req.SymbolA, sideA, priceA, targetA, sharesA),
		LegB:        buildLeg(req.SymbolB, sideB, priceB, targetB, sharesB),
		Allocation:  p.allocation,
		Beta:        req.Beta,
		NetExposure: net,
		Adjusted:    adjusted,
	}, nil
}

// search walks leg A share counts around start and pairs each with the
// floor and ceiling leg B count. Among combinations inside the tolerance and
// the gross budget, the largest gross wins, then the lowest exposure. When
// none qualifies the lowest exposure seen is returned with ok false.
func (p *PositionSizer) search(beta, priceA, priceB, start, budget decimal.Decimal) (sa, sb decimal.Decimal, net float64, ok bool) {
	minNet := math.Inf(1)
	var bestGross decimal.Decimal

	for step := 0; step <= p.steps; step++ {
		for _, sign := range []int64{1, -1} {
			if step == 0 && sign == -1 {
				continue
			}
			candA := start.Add(p.lot.Mul(decimal.NewFromInt(sign * int64(step))))
			if !candA.IsPositive() {
				continue
			}
			dollarsA := candA.Mul(priceA)
			ideal := dollarsA.Mul(beta).Div(priceB).Div(p.lot)
			for _, candB := range []decimal.Decimal{ideal.Floor().Mul(p.lot), ideal.Ceil().Mul(p.lot)} {
				if !candB.IsPositive() {
					continue
				}
				dollarsB := candB.Mul(priceB)
				gross := dollarsA.Add(dollarsB)
				if gross.GreaterThan(budget) {
					continue
				}
				n := p.netExposure(beta, dollarsA, dollarsB)
				if n < minNet {
					minNet = n
				}
				if n >= p.tolerance {
					continue
				}
				if !ok || gross.GreaterThan(bestGross) || (gross.Equal(bestGross) && n < net) {
					ok = true
					sa, sb, net, bestGross = candA, candB, n, gross
				}
			}
		}
	}

	if !ok {
		return start, decimal.Zero, minNet, false
	}
	return sa, sb, net, true
}

func (p *PositionSizer) roundLots(shares decimal.Decimal) decimal.Decimal {
	return shares.Div(p.lot).Round(0).Mul(p.lot)
}

func (p *PositionSizer) netExposure(beta, dollarsA, dollarsB decimal.Decimal) float64 {
	net, _ := beta.Mul(dollarsA).Sub(dollarsB).Abs().Div(p.allocation).Float64()
	return net
}

// NetExposure recomputes a plan's neutrality check from its filled legs
func NetExposure(plan *model.PositionPlan) float64 {
	beta := decimal.NewFromFloat(math.Abs(plan.Beta))
	net, _ := beta.Mul(plan.LegA.Filled.Abs()).Sub(plan.LegB.Filled.Abs()).Abs().Div(plan.Allocation).Float64()
	return net
}

func legSides(dir model.Direction, beta float64) (a, b model.Side) {
	a, b = model.SideLong, model.SideShort
	if dir == model.DirectionShort {
		a, b = model.SideShort, model.SideLong
	}
	if beta < 0 {
		b = a
	}
	return a, b
}

func buildLeg(symbol string, side model.Side, price, target, shares decimal.Decimal) model.Leg {
	if side == model.SideShort {
		target = target.Neg()
		shares = shares.Neg()
	}
	return model.Leg{
		Symbol:  symbol,
		Side:    side,
		Price:   price,
		Dollars: target,
		Shares:  shares,
		Filled:  shares.Mul(price),
	}
}
