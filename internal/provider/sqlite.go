package provider

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"pairhunter/pkg/model"
)

const priceSchema = `
CREATE TABLE IF NOT EXISTS daily_prices (
	symbol    TEXT NOT NULL,
	date      TEXT NOT NULL,
	adj_close REAL NOT NULL,
	PRIMARY KEY (symbol, date)
)`

// SQLiteProvider serves price history stored in a local daily_prices table
type SQLiteProvider struct {
	db   *sql.DB
	path string
}

// NewSQLiteProvider opens (creating if needed) the database at path
func NewSQLiteProvider(path string) (*SQLiteProvider, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(priceSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteProvider{db: db, path: path}, nil
}

// Close closes the database connection
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

// Name returns the provider name
func (p *SQLiteProvider) Name() string {
	return "sqlite"
}

// IsAvailable returns true once the database is open
func (p *SQLiteProvider) IsAvailable() bool {
	return p.db != nil
}

// RateLimit returns 0, local reads are unlimited
func (p *SQLiteProvider) RateLimit() int {
	return 0
}

// GetDailyHistory returns the most recent `days` rows for symbol
func (p *SQLiteProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*model.PriceSeries, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT date, adj_close FROM daily_prices
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT ?`, symbol, days)
	if err != nil {
		return nil, transient(p.Name(), symbol, fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	var obs []model.Observation
	for rows.Next() {
		var dateStr string
		var closePrice float64
		if err := rows.Scan(&dateStr, &closePrice); err != nil {
			return nil, transient(p.Name(), symbol, fmt.Errorf("scan: %w", err))
		}
		d, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, transient(p.Name(), symbol, fmt.Errorf("bad date %q: %w", dateStr, err))
		}
		obs = append(obs, model.Observation{Date: d, Close: closePrice})
	}
	if err := rows.Err(); err != nil {
		return nil, transient(p.Name(), symbol, err)
	}

	return buildSeries(p.Name(), symbol, obs, days)
}

// Save upserts a series into daily_prices
func (p *SQLiteProvider) Save(ctx context.Context, series *model.PriceSeries) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_prices (symbol, date, adj_close) VALUES (?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET adj_close = excluded.adj_close`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range series.Observations() {
		if _, err := stmt.ExecContext(ctx, series.Symbol(), o.Date.Format("2006-01-02"), o.Close); err != nil {
			return fmt.Errorf("insert %s %s: %w", series.Symbol(), o.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}
