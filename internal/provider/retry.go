package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"pairhunter/pkg/model"
)

// RetryConfig controls per-symbol fetch attempts
type RetryConfig struct {
	Timeout        time.Duration `yaml:"timeout"`         // per attempt
	MaxRetries     int           `yaml:"max_retries"`     // attempts after the first
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// DefaultRetryConfig returns 30s attempts with up to 3 retries
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// Validate checks the retry settings
func (c RetryConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.InitialBackoff <= 0 || c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("backoff must satisfy 0 < initial (%s) <= max (%s)", c.InitialBackoff, c.MaxBackoff)
	}
	return nil
}

// RetryingProvider retries rate-limited and transient failures with
// exponential backoff. NotFound is returned immediately.
type RetryingProvider struct {
	inner Provider
	cfg   RetryConfig
	log   zerolog.Logger
}

// NewRetryingProvider wraps inner
func NewRetryingProvider(inner Provider, cfg RetryConfig, log zerolog.Logger) *RetryingProvider {
	return &RetryingProvider{
		inner: inner,
		cfg:   cfg,
		log:   log.With().Str("component", "fetch").Str("provider", inner.Name()).Logger(),
	}
}

func (r *RetryingProvider) Name() string      { return r.inner.Name() }
func (r *RetryingProvider) IsAvailable() bool { return r.inner.IsAvailable() }
func (r *RetryingProvider) RateLimit() int    { return r.inner.RateLimit() }

// GetDailyHistory fetches with retries
func (r *RetryingProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialBackoff
	b.MaxInterval = r.cfg.MaxBackoff
	b.RandomizationFactor = 0.2
	b.Multiplier = 2

	attempt := 0
	op := func() (*model.PriceSeries, error) {
		attempt++
		actx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()

		series, err := r.inner.GetDailyHistory(actx, symbol, days)
		if err == nil {
			return series, nil
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			// the attempt timed out, the run did not
			return nil, transient(r.inner.Name(), symbol, err)
		}

		var ue *UpstreamDataError
		if errors.As(err, &ue) && !ue.Retryable() {
			return nil, backoff.Permanent(err)
		}
		if !errors.As(err, &ue) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	series, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.cfg.MaxRetries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			r.log.Debug().Err(err).Str("symbol", symbol).Int("attempt", attempt).
				Dur("retry_in", next).Msg("fetch failed, retrying")
		}),
	)
	if err != nil {
		return nil, err
	}
	return series, nil
}
