package provider

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Sources selects which upstreams feed a screening run
type Sources struct {
	FinnhubKey       string
	FinnhubRate      int
	AlphaVantageKey  string
	AlphaVantageRate int
	Yahoo            bool
	CSVGlob          string
	SQLitePath       string
}

// Chain builds the fallback chain used by the CLI and server. Local sources
// come first, then keyed APIs, then Yahoo. Remote sources are wrapped in a
// RetryingProvider. The returned close func releases the SQLite handle.
func Chain(src Sources, retry RetryConfig, log zerolog.Logger) (*FallbackProvider, func() error, error) {
	var chain []Provider
	closer := func() error { return nil }

	if src.SQLitePath != "" {
		db, err := NewSQLiteProvider(src.SQLitePath)
		if err != nil {
			return nil, closer, fmt.Errorf("sqlite source: %w", err)
		}
		chain = append(chain, db)
		closer = db.Close
	}
	if src.CSVGlob != "" {
		chain = append(chain, NewCSVProvider(src.CSVGlob))
	}
	if src.FinnhubKey != "" {
		chain = append(chain, NewRetryingProvider(NewFinnhubProvider(src.FinnhubKey, src.FinnhubRate), retry, log))
	}
	if src.AlphaVantageKey != "" {
		chain = append(chain, NewRetryingProvider(NewAlphaVantageProvider(src.AlphaVantageKey, src.AlphaVantageRate), retry, log))
	}
	if src.Yahoo {
		chain = append(chain, NewRetryingProvider(NewYahooProvider(), retry, log))
	}

	fb := NewFallbackProvider(chain...)
	if !fb.IsAvailable() {
		closer()
		return nil, func() error { return nil }, fmt.Errorf("no price source configured")
	}
	return fb, closer, nil
}
