package analyzer

import "fmt"

// Correlation bases
const (
	BasisPrice   = "price"
	BasisReturns = "returns"
)

// Config holds the statistical screening parameters
type Config struct {
	Lookback        int     `yaml:"lookback_days"`    // aligned periods kept for analysis
	MinObservations int     `yaml:"min_observations"` // below this a pair is skipped
	MinCorrelation  float64 `yaml:"min_correlation"`
	MinStability    float64 `yaml:"min_stability"`
	StabilityWindow int     `yaml:"stability_window"` // rolling correlation window
	Basis           string  `yaml:"correlation_basis"`
	ZScoreWindow    int     `yaml:"zscore_window"`
	TrailingWindow  int     `yaml:"trailing_window"` // ~6 months of trading days
	ADFLags         int     `yaml:"adf_lags"`
	WeakHalfLife    float64 `yaml:"weak_half_life"` // half-lives above this are weak candidates
}

// DefaultConfig returns the default screening parameters
func DefaultConfig() Config {
	return Config{
		Lookback:        730,
		MinObservations: 252,
		MinCorrelation:  0.70,
		MinStability:    0.70,
		StabilityWindow: 90,
		Basis:           BasisPrice,
		ZScoreWindow:    90,
		TrailingWindow:  126,
		ADFLags:         1,
		WeakHalfLife:    90,
	}
}

// Validate checks the parameters are usable together
func (c Config) Validate() error {
	if c.MinObservations < 30 {
		return fmt.Errorf("min_observations must be at least 30, got %d", c.MinObservations)
	}
	if c.Lookback < c.MinObservations {
		return fmt.Errorf("lookback_days (%d) must be >= min_observations (%d)", c.Lookback, c.MinObservations)
	}
	if c.MinCorrelation < -1 || c.MinCorrelation > 1 {
		return fmt.Errorf("min_correlation must be within [-1, 1], got %v", c.MinCorrelation)
	}
	if c.MinStability < 0 || c.MinStability > 1 {
		return fmt.Errorf("min_stability must be within [0, 1], got %v", c.MinStability)
	}
	if c.StabilityWindow < 10 || c.StabilityWindow >= c.MinObservations {
		return fmt.Errorf("stability_window must be in [10, min_observations), got %d", c.StabilityWindow)
	}
	if c.ZScoreWindow < 2 || c.ZScoreWindow >= c.MinObservations {
		return fmt.Errorf("zscore_window must be in [2, min_observations), got %d", c.ZScoreWindow)
	}
	if c.TrailingWindow < 30 {
		return fmt.Errorf("trailing_window must be at least 30, got %d", c.TrailingWindow)
	}
	if c.ADFLags < 0 || c.ADFLags > 12 {
		return fmt.Errorf("adf_lags must be within [0, 12], got %d", c.ADFLags)
	}
	if c.Basis != BasisPrice && c.Basis != BasisReturns {
		return fmt.Errorf("correlation_basis must be %q or %q, got %q", BasisPrice, BasisReturns, c.Basis)
	}
	return nil
}
