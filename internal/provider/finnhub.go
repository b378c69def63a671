package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pairhunter/internal/ratelimit"
	"pairhunter/pkg/model"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubProvider implements the Provider interface for Finnhub API
type FinnhubProvider struct {
	apiKey    string
	baseURL   string
	client    *http.Client
	limiter   *ratelimit.Limiter
	rateLimit int
}

// NewFinnhubProvider creates a new Finnhub provider
func NewFinnhubProvider(apiKey string, rateLimitPerMin int) *FinnhubProvider {
	return &FinnhubProvider{
		apiKey:    apiKey,
		baseURL:   finnhubBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   ratelimit.NewLimiter("finnhub", rateLimitPerMin),
		rateLimit: rateLimitPerMin,
	}
}

// Name returns the provider name
func (p *FinnhubProvider) Name() string {
	return "finnhub"
}

// IsAvailable checks if the provider has an API key
func (p *FinnhubProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// RateLimit returns the rate limit per minute
func (p *FinnhubProvider) RateLimit() int {
	return p.rateLimit
}

// finnhubCandle represents the Finnhub candle response
type finnhubCandle struct {
	C []float64 `json:"c"` // Close prices
	S string    `json:"s"` // Status
	T []int64   `json:"t"` // Timestamps
}

// GetDailyHistory fetches daily closes
func (p *FinnhubProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	now := time.Now()
	from := now.Add(-calendarSpan(days))

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("resolution", "D")
	q.Set("from", fmt.Sprint(from.Unix()))
	q.Set("to", fmt.Sprint(now.Unix()))
	q.Set("token", p.apiKey)
	endpoint := p.baseURL + "/stock/candle?" + q.Encode()

	var data finnhubCandle
	if err := getJSON(ctx, p.client, p.limiter, p.Name(), symbol, endpoint, &data); err != nil {
		return nil, err
	}

	if data.S == "no_data" || len(data.T) == 0 {
		return nil, notFound(p.Name(), symbol, fmt.Errorf("no data available"))
	}
	if data.S != "ok" {
		return nil, transient(p.Name(), symbol, fmt.Errorf("unexpected status %q", data.S))
	}

	obs := make([]model.Observation, 0, len(data.T))
	for i := range data.T {
		if i >= len(data.C) {
			break
		}
		obs = append(obs, model.Observation{Date: time.Unix(data.T[i], 0), Close: data.C[i]})
	}

	return buildSeries(p.Name(), symbol, obs, days)
}
