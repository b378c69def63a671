package provider

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"pairhunter/pkg/model"
)

// CSVProvider reads <SYMBOL>.csv files with a date,close header from any
// directory matched by a glob such as "data/**/*.csv"
type CSVProvider struct {
	pattern string

	once  sync.Once
	files map[string]string
	err   error
}

// NewCSVProvider creates a provider over the files matching pattern
func NewCSVProvider(pattern string) *CSVProvider {
	return &CSVProvider{pattern: pattern}
}

// Name returns the provider name
func (p *CSVProvider) Name() string {
	return "csv"
}

// IsAvailable reports whether the glob matches at least one file
func (p *CSVProvider) IsAvailable() bool {
	if p.pattern == "" {
		return false
	}
	files, err := p.index()
	return err == nil && len(files) > 0
}

// RateLimit returns 0, local files are unlimited
func (p *CSVProvider) RateLimit() int {
	return 0
}

// Symbols lists the tickers available on disk
func (p *CSVProvider) Symbols() []string {
	files, _ := p.index()
	out := make([]string, 0, len(files))
	for sym := range files {
		out = append(out, sym)
	}
	return out
}

func (p *CSVProvider) index() (map[string]string, error) {
	p.once.Do(func() {
		matches, err := doublestar.FilepathGlob(p.pattern)
		if err != nil {
			p.err = fmt.Errorf("csv glob %q: %w", p.pattern, err)
			return
		}
		p.files = make(map[string]string, len(matches))
		for _, m := range matches {
			base := filepath.Base(m)
			sym := strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
			p.files[sym] = m
		}
	})
	return p.files, p.err
}

// GetDailyHistory parses the symbol's file
func (p *CSVProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := p.index()
	if err != nil {
		return nil, transient(p.Name(), symbol, err)
	}
	path, ok := files[strings.ToUpper(symbol)]
	if !ok {
		return nil, notFound(p.Name(), symbol, fmt.Errorf("no file matching %s", p.pattern))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, transient(p.Name(), symbol, err)
	}
	defer f.Close()

	obs, err := readCloses(f)
	if err != nil {
		return nil, transient(p.Name(), symbol, fmt.Errorf("%s: %w", path, err))
	}
	return buildSeries(p.Name(), symbol, obs, days)
}

// readCloses reads a CSV with a header naming a date column and a close
// column. "adj_close" is preferred over "close" when both exist.
func readCloses(r io.Reader) ([]model.Observation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	dateCol, closeCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date":
			dateCol = i
		case "adj_close", "adj close", "adjclose":
			closeCol = i
		case "close":
			if closeCol < 0 {
				closeCol = i
			}
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil, errors.New("header must contain date and close columns")
	}

	var obs []model.Observation
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		d, err := time.Parse("2006-01-02", strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c, err := strconv.ParseFloat(strings.TrimSpace(rec[closeCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		obs = append(obs, model.Observation{Date: d, Close: c})
	}
	return obs, nil
}
