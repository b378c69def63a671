package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pairhunter/internal/ratelimit"
	"pairhunter/pkg/model"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageProvider implements the Provider interface for Alpha Vantage API
type AlphaVantageProvider struct {
	apiKey    string
	baseURL   string
	client    *http.Client
	limiter   *ratelimit.Limiter
	rateLimit int
}

// NewAlphaVantageProvider creates a new Alpha Vantage provider
func NewAlphaVantageProvider(apiKey string, rateLimitPerMin int) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		apiKey:    apiKey,
		baseURL:   alphaVantageBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   ratelimit.NewLimiter("alphavantage", rateLimitPerMin),
		rateLimit: rateLimitPerMin,
	}
}

// Name returns the provider name
func (p *AlphaVantageProvider) Name() string {
	return "alphavantage"
}

// IsAvailable checks if the provider has an API key
func (p *AlphaVantageProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// RateLimit returns the rate limit per minute
func (p *AlphaVantageProvider) RateLimit() int {
	return p.rateLimit
}

// alphaVantageResponse represents the daily adjusted response structure
type alphaVantageResponse struct {
	MetaData    map[string]string            `json:"Meta Data"`
	TimeSeries  map[string]map[string]string `json:"Time Series (Daily)"`
	Note        string                       `json:"Note"`        // Rate limit message
	Information string                       `json:"Information"` // Also used for quota exhaustion
	Error       string                       `json:"Error Message"`
}

// GetDailyHistory fetches TIME_SERIES_DAILY_ADJUSTED closes
func (p *AlphaVantageProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	outputSize := "compact" // last 100 points
	if days > 100 {
		outputSize = "full"
	}

	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	q.Set("symbol", symbol)
	q.Set("outputsize", outputSize)
	q.Set("apikey", p.apiKey)
	endpoint := p.baseURL + "?" + q.Encode()

	var data alphaVantageResponse
	if err := getJSON(ctx, p.client, p.limiter, p.Name(), symbol, endpoint, &data); err != nil {
		return nil, err
	}

	if data.Note != "" || data.Information != "" {
		p.limiter.SignalRateLimited()
		msg := data.Note
		if msg == "" {
			msg = data.Information
		}
		return nil, rateLimited(p.Name(), symbol, fmt.Errorf("%s", msg))
	}
	if data.Error != "" {
		return nil, notFound(p.Name(), symbol, fmt.Errorf("%s", data.Error))
	}
	if len(data.TimeSeries) == 0 {
		return nil, notFound(p.Name(), symbol, fmt.Errorf("no data available"))
	}

	obs := make([]model.Observation, 0, len(data.TimeSeries))
	for dateStr, values := range data.TimeSeries {
		d, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		raw, ok := values["5. adjusted close"]
		if !ok {
			raw = values["4. close"]
		}
		closePrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		obs = append(obs, model.Observation{Date: d, Close: closePrice})
	}

	return buildSeries(p.Name(), symbol, obs, days)
}
