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

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooProvider implements the Provider interface for Yahoo Finance (unofficial API)
type YahooProvider struct {
	baseURL   string
	client    *http.Client
	limiter   *ratelimit.Limiter
	rateLimit int
}

// NewYahooProvider creates a new Yahoo Finance provider
func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		baseURL:   yahooBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   ratelimit.NewLimiter("yahoo", 30), // Conservative rate limit
		rateLimit: 30,
	}
}

// Name returns the provider name
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// IsAvailable always returns true (no API key needed)
func (p *YahooProvider) IsAvailable() bool {
	return true
}

// RateLimit returns the rate limit per minute
func (p *YahooProvider) RateLimit() int {
	return p.rateLimit
}

// yahooResponse represents the Yahoo Finance chart response. Prices are
// pointers because the API emits null for halted sessions.
type yahooResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetDailyHistory fetches daily adjusted closes, falling back to raw closes
// when the adjusted series is missing
func (p *YahooProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	now := time.Now()
	from := now.Add(-calendarSpan(days))

	endpoint := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d&events=div%%7Csplit",
		p.baseURL, url.PathEscape(symbol), from.Unix(), now.Unix())

	var data yahooResponse
	if err := getJSON(ctx, p.client, p.limiter, p.Name(), symbol, endpoint, &data); err != nil {
		return nil, err
	}

	if data.Chart.Error != nil {
		return nil, notFound(p.Name(), symbol, fmt.Errorf("%s: %s", data.Chart.Error.Code, data.Chart.Error.Description))
	}
	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Timestamp) == 0 {
		return nil, notFound(p.Name(), symbol, fmt.Errorf("no data available"))
	}

	result := data.Chart.Result[0]
	var closes []*float64
	if len(result.Indicators.AdjClose) > 0 {
		closes = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	obs := make([]model.Observation, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		obs = append(obs, model.Observation{Date: time.Unix(ts, 0), Close: *closes[i]})
	}

	return buildSeries(p.Name(), symbol, obs, days)
}
