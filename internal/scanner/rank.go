package scanner

import (
	"math"
	"sort"

	"pairhunter/pkg/model"
)

var statusOrder = map[model.PairStatus]int{
	model.StatusSignal:   0,
	model.StatusNoSignal: 1,
	model.StatusFiltered: 2,
	model.StatusSkipped:  3,
}

// Rank orders results best first: signals, then strength tier, then
// divergence |z|, then cointegration p-value, then symbols. The order is
// total, so the same results always rank the same way.
func Rank(results []model.PairResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if sa, sb := statusOrder[a.Status], statusOrder[b.Status]; sa != sb {
			return sa < sb
		}
		if ta, tb := tier(a), tier(b); ta != tb {
			return ta > tb
		}
		if za, zb := math.Abs(a.CurrentZScore), math.Abs(b.CurrentZScore); za != zb {
			return za > zb
		}
		if pa, pb := pValue(a), pValue(b); pa != pb {
			return pa < pb
		}
		if a.SymbolA != b.SymbolA {
			return a.SymbolA < b.SymbolA
		}
		return a.SymbolB < b.SymbolB
	})
}

func tier(r model.PairResult) int {
	if r.Signal == nil {
		return 0
	}
	return r.Signal.StrengthTier
}

func pValue(r model.PairResult) float64 {
	if r.Cointegration == nil {
		return 1
	}
	return r.Cointegration.PValue
}
