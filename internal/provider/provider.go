package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"pairhunter/internal/ratelimit"
	"pairhunter/pkg/model"
)

// Provider defines the interface for daily price history sources
type Provider interface {
	// Name returns the provider name
	Name() string

	// GetDailyHistory returns up to the last `days` adjusted closes for symbol,
	// oldest first
	GetDailyHistory(ctx context.Context, symbol string, days int) (*model.PriceSeries, error)

	// IsAvailable checks if the provider is usable (API key, data file present)
	IsAvailable() bool

	// RateLimit returns the rate limit per minute, 0 when unlimited
	RateLimit() int
}

// ErrorKind classifies upstream failures for the retry and skip policy
type ErrorKind string

const (
	KindNotFound    ErrorKind = "not_found"
	KindRateLimited ErrorKind = "rate_limited"
	KindTransient   ErrorKind = "transient"
)

// UpstreamDataError is returned by providers for every failure they can classify
type UpstreamDataError struct {
	Provider string
	Symbol   string
	Kind     ErrorKind
	Err      error
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Provider, e.Symbol, e.Kind, e.Err)
}

func (e *UpstreamDataError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed
func (e *UpstreamDataError) Retryable() bool {
	return e.Kind != KindNotFound
}

// Reason maps the kind to a report reason code
func (e *UpstreamDataError) Reason() model.ReasonCode {
	switch e.Kind {
	case KindNotFound:
		return model.ReasonUpstreamNotFound
	case KindRateLimited:
		return model.ReasonUpstreamRateLimited
	default:
		return model.ReasonUpstreamTransient
	}
}

// KindOf returns the upstream kind of err, or "" when err is not an UpstreamDataError
func KindOf(err error) ErrorKind {
	var ue *UpstreamDataError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}

func notFound(provider, symbol string, err error) error {
	return &UpstreamDataError{Provider: provider, Symbol: symbol, Kind: KindNotFound, Err: err}
}

func rateLimited(provider, symbol string, err error) error {
	return &UpstreamDataError{Provider: provider, Symbol: symbol, Kind: KindRateLimited, Err: err}
}

func transient(provider, symbol string, err error) error {
	return &UpstreamDataError{Provider: provider, Symbol: symbol, Kind: KindTransient, Err: err}
}

// calendarSpan converts a trading-day count into a calendar lookback with
// room for weekends and holidays
func calendarSpan(days int) time.Duration {
	return time.Duration(days*7/5+10) * 24 * time.Hour
}

// getJSON issues a rate-limited GET and decodes the body into out, mapping
// HTTP failures onto UpstreamDataError kinds
func getJSON(ctx context.Context, client *http.Client, limiter *ratelimit.Limiter, provider, symbol, url string, out any) error {
	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return transient(provider, symbol, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		limiter.SignalRateLimited()
		return rateLimited(provider, symbol, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return notFound(provider, symbol, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return transient(provider, symbol, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		// other 4xx responses mean the request itself was rejected
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return notFound(provider, symbol, fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	limiter.ResetBackoff()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return transient(provider, symbol, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// buildSeries sorts, de-duplicates, trims to the last `days` entries and
// validates raw observations
func buildSeries(provider, symbol string, obs []model.Observation, days int) (*model.PriceSeries, error) {
	if len(obs) == 0 {
		return nil, notFound(provider, symbol, fmt.Errorf("no data available"))
	}

	sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	dedup := obs[:0]
	for _, o := range obs {
		o.Date = model.DayOf(o.Date)
		if n := len(dedup); n > 0 && dedup[n-1].Date.Equal(o.Date) {
			dedup[n-1] = o
			continue
		}
		dedup = append(dedup, o)
	}
	if days > 0 && len(dedup) > days {
		dedup = dedup[len(dedup)-days:]
	}

	series, err := model.NewPriceSeries(symbol, dedup)
	if err != nil {
		return nil, transient(provider, symbol, err)
	}
	return series, nil
}

// FallbackProvider tries multiple providers in order
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.IsAvailable() {
			available = append(available, p)
		}
	}
	return &FallbackProvider{providers: available}
}

// Name returns the combined provider name
func (f *FallbackProvider) Name() string {
	return "fallback"
}

// GetDailyHistory returns the first successful history. When every provider
// reports the symbol missing the result is NotFound; otherwise the last
// retryable failure is returned.
func (f *FallbackProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	if len(f.providers) == 0 {
		return nil, transient(f.Name(), symbol, fmt.Errorf("no providers available"))
	}

	var lastErr, lastRetryable error
	for _, p := range f.providers {
		series, err := p.GetDailyHistory(ctx, symbol, days)
		if err == nil {
			return series, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if KindOf(err) != KindNotFound {
			lastRetryable = err
		}
	}

	if lastRetryable != nil {
		return nil, lastRetryable
	}
	return nil, notFound(f.Name(), symbol, lastErr)
}

// IsAvailable returns true if any provider is available
func (f *FallbackProvider) IsAvailable() bool {
	return len(f.providers) > 0
}

// RateLimit returns the highest rate limit among providers
func (f *FallbackProvider) RateLimit() int {
	maxRate := 0
	for _, p := range f.providers {
		if p.RateLimit() > maxRate {
			maxRate = p.RateLimit()
		}
	}
	return maxRate
}

// Providers returns the list of underlying providers
func (f *FallbackProvider) Providers() []Provider {
	return f.providers
}
