package hedge

import (
	"errors"

	"pairhunter/internal/stats"
	"pairhunter/pkg/model"
)

// Estimator computes the hedge ratio of priceA against priceB
type Estimator interface {
	// Name returns the registry name of the estimator
	Name() string

	// Estimate fits a and b, which must be aligned and of equal length
	Estimate(a, b []float64) (model.HedgeRatio, error)
}

// Config holds tuning for the registered estimators
type Config struct {
	// Delta is the state noise of the time-varying estimator, as a
	// fraction of a unit random-walk step per period
	Delta float64 `yaml:"delta"`
	// ObservationVariance is the measurement noise of the time-varying estimator
	ObservationVariance float64 `yaml:"observation_variance"`
	// Warmup is the number of leading observations used to seed the
	// time-varying state with an OLS fit
	Warmup int `yaml:"warmup"`
}

// DefaultConfig returns the default estimator tuning
func DefaultConfig() Config {
	return Config{
		Delta:               1e-4,
		ObservationVariance: 1e-3,
		Warmup:              60,
	}
}

// StaticOLS is the ordinary least squares hedge ratio with intercept
type StaticOLS struct{}

// NewStaticOLS creates a static OLS estimator
func NewStaticOLS() *StaticOLS {
	return &StaticOLS{}
}

// Name returns "ols"
func (StaticOLS) Name() string { return MethodOLS }

// Estimate regresses a on b
func (StaticOLS) Estimate(a, b []float64) (model.HedgeRatio, error) {
	fit, err := stats.FitLinear(b, a)
	if err != nil {
		return model.HedgeRatio{}, instability(err)
	}
	return model.HedgeRatio{
		Beta:       fit.Beta,
		Intercept:  fit.Alpha,
		FitQuality: fit.RSquared,
		Method:     MethodOLS,
	}, nil
}

func instability(err error) error {
	detail := "regression failed"
	switch {
	case errors.Is(err, stats.ErrDegenerate):
		detail = "explanatory series has near-zero variance or non-finite values"
	case errors.Is(err, stats.ErrTooShort):
		detail = "too few observations to regress"
	}
	return &model.NumericalInstabilityError{Stage: "hedge_ratio", Detail: detail, Err: err}
}
