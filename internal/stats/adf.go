package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// maxCondition bounds the condition number of the ADF normal equations
const maxCondition = 1e13

// ADFResult is the outcome of an augmented Dickey-Fuller test with a constant
type ADFResult struct {
	Statistic float64
	PValue    float64
	Crit1     float64
	Crit5     float64
	Crit10    float64
	Lags      int
	NObs      int
}

// ADF runs the augmented Dickey-Fuller regression
//
//	Δy(t) = c + γ·y(t−1) + Σ δi·Δy(t−i) + ε(t),  i = 1..lags
//
// and returns the t-statistic of γ with its MacKinnon approximate p-value.
func ADF(y []float64, lags int) (ADFResult, error) {
	if lags < 0 {
		return ADFResult{}, fmt.Errorf("negative lag count %d", lags)
	}
	k := 2 + lags
	nobs := len(y) - 1 - lags
	if nobs <= k+2 {
		return ADFResult{}, ErrTooShort
	}
	if !allFinite(y) {
		return ADFResult{}, ErrDegenerate
	}

	dy := make([]float64, len(y)-1)
	for i := range dy {
		dy[i] = y[i+1] - y[i]
	}

	x := mat.NewDense(nobs, k, nil)
	target := mat.NewVecDense(nobs, nil)
	for r := 0; r < nobs; r++ {
		i := lags + r
		target.SetVec(r, dy[i])
		x.Set(r, 0, 1)
		x.Set(r, 1, y[i])
		for j := 1; j <= lags; j++ {
			x.Set(r, 1+j, dy[i-j])
		}
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return ADFResult{}, ErrDegenerate
	}
	if c := chol.Cond(); math.IsInf(c, 0) || math.IsNaN(c) || c > maxCondition {
		return ADFResult{}, ErrDegenerate
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), target)

	var coef mat.VecDense
	if err := chol.SolveVecTo(&coef, &xty); err != nil {
		return ADFResult{}, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &coef)
	var resid mat.VecDense
	resid.SubVec(target, &fitted)
	rss := mat.Dot(&resid, &resid)
	s2 := rss / float64(nobs-k)

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return ADFResult{}, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}
	se := math.Sqrt(s2 * inv.At(1, 1))
	if se == 0 || math.IsNaN(se) || math.IsInf(se, 0) {
		return ADFResult{}, ErrDegenerate
	}

	tstat := coef.AtVec(1) / se
	c1, c5, c10 := MacKinnonCritical(nobs)
	return ADFResult{
		Statistic: tstat,
		PValue:    MacKinnonP(tstat),
		Crit1:     c1,
		Crit5:     c5,
		Crit10:    c10,
		Lags:      lags,
		NObs:      nobs,
	}, nil
}

// MacKinnon (1994) response-surface coefficients for a single series with a
// constant term.
var (
	tauMax      = 2.74
	tauMin      = -18.83
	tauStar     = -1.61
	tauSmallP   = []float64{2.1659, 1.4412, 0.038269}
	tauLargeP   = []float64{1.7339, 0.93202, -0.12745, -0.010368}
	unitNormal  = distuv.UnitNormal
	critSurface = [3][4]float64{
		{-3.43035, -6.5393, -16.786, -79.433}, // 1%
		{-2.86154, -2.8903, -4.234, -40.040},  // 5%
		{-2.56677, -1.5384, -2.809, 0},        // 10%
	}
)

// MacKinnonP returns the approximate asymptotic p-value of an ADF statistic
func MacKinnonP(tstat float64) float64 {
	switch {
	case math.IsNaN(tstat):
		return math.NaN()
	case tstat > tauMax:
		return 1
	case tstat < tauMin:
		return 0
	}
	coef := tauLargeP
	if tstat <= tauStar {
		coef = tauSmallP
	}
	return unitNormal.CDF(polyval(coef, tstat))
}

// MacKinnonCritical returns the 1%, 5% and 10% critical values for nobs
// observations (MacKinnon 2010)
func MacKinnonCritical(nobs int) (c1, c5, c10 float64) {
	t := float64(nobs)
	eval := func(b [4]float64) float64 {
		return b[0] + b[1]/t + b[2]/(t*t) + b[3]/(t*t*t)
	}
	return eval(critSurface[0]), eval(critSurface[1]), eval(critSurface[2])
}

// polyval evaluates c[0] + c[1]x + c[2]x² + ...
func polyval(c []float64, x float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}
