package hedge

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"pairhunter/internal/stats"
	"pairhunter/pkg/model"
)

// TimeVarying estimates a drifting hedge ratio with a Kalman filter over the
// state [beta, intercept], each following a random walk.
type TimeVarying struct {
	cfg Config
}

// NewTimeVarying creates a Kalman-filter estimator
func NewTimeVarying(cfg Config) *TimeVarying {
	if cfg.Delta <= 0 || cfg.Delta >= 1 {
		cfg.Delta = DefaultConfig().Delta
	}
	if cfg.ObservationVariance <= 0 {
		cfg.ObservationVariance = DefaultConfig().ObservationVariance
	}
	if cfg.Warmup < 3 {
		cfg.Warmup = DefaultConfig().Warmup
	}
	return &TimeVarying{cfg: cfg}
}

// Name returns "kalman"
func (*TimeVarying) Name() string { return MethodKalman }

// Estimate runs the filter forward over the pair. Path[t] is the prior beta
// before observing t, so the spread built from it never sees the future.
func (k *TimeVarying) Estimate(a, b []float64) (model.HedgeRatio, error) {
	n := len(a)
	if n != len(b) {
		return model.HedgeRatio{}, &model.NumericalInstabilityError{Stage: "hedge_ratio", Detail: "length mismatch"}
	}

	warm := k.cfg.Warmup
	if warm > n {
		warm = n
	}
	seed, err := stats.FitLinear(b[:warm], a[:warm])
	if err != nil {
		return model.HedgeRatio{}, instability(err)
	}

	// Whole-sample check keeps the filter away from a flat explanatory leg
	if _, err := stats.FitLinear(b, a); err != nil {
		return model.HedgeRatio{}, instability(err)
	}

	theta := mat.NewVecDense(2, []float64{seed.Beta, seed.Alpha})
	p := mat.NewSymDense(2, nil)
	vw := k.cfg.Delta / (1 - k.cfg.Delta)
	ve := k.cfg.ObservationVariance

	path := make([]float64, n)
	forecastErr := make([]float64, n)

	x := mat.NewVecDense(2, nil)
	r := mat.NewSymDense(2, nil)
	var rx, gain mat.VecDense
	for t := 0; t < n; t++ {
		path[t] = theta.AtVec(0)

		// R = P + Vw·I
		r.CopySym(p)
		r.SetSym(0, 0, r.At(0, 0)+vw)
		r.SetSym(1, 1, r.At(1, 1)+vw)

		x.SetVec(0, b[t])
		x.SetVec(1, 1)

		yhat := mat.Dot(x, theta)
		e := a[t] - yhat
		forecastErr[t] = e

		rx.MulVec(r, x)
		q := mat.Dot(x, &rx) + ve
		if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
			return model.HedgeRatio{}, &model.NumericalInstabilityError{Stage: "hedge_ratio", Detail: "filter variance collapsed"}
		}

		// K = R·x / Q ; θ += K·e ; P = R − K·xᵀR
		gain.ScaleVec(1/q, &rx)
		theta.AddScaledVec(theta, e, &gain)
		for i := 0; i < 2; i++ {
			for j := i; j < 2; j++ {
				p.SetSym(i, j, r.At(i, j)-gain.AtVec(i)*rx.AtVec(j))
			}
		}
	}

	beta := theta.AtVec(0)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return model.HedgeRatio{}, &model.NumericalInstabilityError{Stage: "hedge_ratio", Detail: "filter diverged"}
	}

	sst := stat.Variance(a, nil) * float64(n-1)
	sse := 0.0
	for _, e := range forecastErr {
		sse += e * e
	}
	fit := 0.0
	if sst > 0 {
		fit = stats.Clamp(1-sse/sst, 0, 1)
	}

	return model.HedgeRatio{
		Beta:       beta,
		Intercept:  theta.AtVec(1),
		FitQuality: fit,
		Method:     MethodKalman,
		Path:       path,
	}, nil
}
