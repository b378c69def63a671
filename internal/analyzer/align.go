package analyzer

import (
	"time"

	"pairhunter/pkg/model"
)

// AlignedPair holds two close series joined on calendar date
type AlignedPair struct {
	SymbolA string
	SymbolB string
	Dates   []time.Time
	A       []float64
	B       []float64
}

// Align inner-joins a and b on date and keeps at most the last lookback
// shared observations. Both series are date-ordered, so a merge walk is enough.
func Align(a, b *model.PriceSeries, lookback int) *AlignedPair {
	p := &AlignedPair{SymbolA: a.Symbol(), SymbolB: b.Symbol()}

	i, j := 0, 0
	for i < a.Len() && j < b.Len() {
		oa, ob := a.At(i), b.At(j)
		switch {
		case oa.Date.Equal(ob.Date):
			p.Dates = append(p.Dates, oa.Date)
			p.A = append(p.A, oa.Close)
			p.B = append(p.B, ob.Close)
			i++
			j++
		case oa.Date.Before(ob.Date):
			i++
		default:
			j++
		}
	}

	if lookback > 0 && len(p.Dates) > lookback {
		return p.Tail(lookback)
	}
	return p
}

// Len returns the number of aligned observations
func (p *AlignedPair) Len() int { return len(p.Dates) }

// Tail returns the last n aligned observations
func (p *AlignedPair) Tail(n int) *AlignedPair {
	if n >= p.Len() {
		return p
	}
	k := p.Len() - n
	return &AlignedPair{
		SymbolA: p.SymbolA,
		SymbolB: p.SymbolB,
		Dates:   p.Dates[k:],
		A:       p.A[k:],
		B:       p.B[k:],
	}
}

// LastA returns the latest close of the first leg
func (p *AlignedPair) LastA() float64 { return p.A[len(p.A)-1] }

// LastB returns the latest close of the second leg
func (p *AlignedPair) LastB() float64 { return p.B[len(p.B)-1] }
