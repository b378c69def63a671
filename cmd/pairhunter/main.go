package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pairhunter/internal/config"
	"pairhunter/internal/scanner"
	"pairhunter/pkg/logger"
	"pairhunter/pkg/model"
)

// Exit codes
const (
	exitOK       = 0
	exitError    = 1
	exitNoSignal = 2
	exitUpstream = 3
)

var (
	cfgFile  string
	logLevel string
	jsonLogs bool
)

// exitCodeError carries a process exit code. A nil err exits silently.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error { return e.err }

// exitCodeFor maps the outcome of a screening run to a process exit code.
// A cancelled run is judged by the signals it found before stopping.
func exitCodeFor(rep *model.ScreenReport, err error) int {
	switch {
	case errors.Is(err, scanner.ErrUpstreamUnavailable):
		return exitUpstream
	case err != nil:
		return exitError
	case rep == nil || rep.SignalCount() == 0:
		return exitNoSignal
	}
	return exitOK
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "pairhunter",
		Short: "Statistical arbitrage pair screener",
		Long: `Pairhunter screens every pair in a stock universe for cointegration and
reports mean-reversion signals with hedge-ratio neutral position plans.

Examples:
  pairhunter --universe technology
  pairhunter --symbols AAPL,MSFT,GOOGL,META --entry-z 2.5
  pairhunter screen --symbols-file watchlist.txt --output reports/today.yaml
  pairhunter serve --addr :8080
  pairhunter watch --universes energy,financials`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit JSON logs instead of console output")

	// screening is the default action
	screen := newScreenCmd()
	rootCmd.RunE = screen.RunE
	rootCmd.Flags().AddFlagSet(screen.Flags())

	rootCmd.AddCommand(
		screen,
		newUniversesCmd(),
		newServeCmd(),
		newWatchCmd(),
		newTokenCmd(),
	)

	err := rootCmd.Execute()
	if err == nil {
		os.Exit(exitOK)
	}

	var ec *exitCodeError
	if errors.As(err, &ec) {
		if ec.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", ec.err)
		}
		os.Exit(ec.code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitError)
}

// loadConfig resolves the configuration once and builds the logger from it
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if jsonLogs {
		cfg.Log.Pretty = false
	}
	return cfg, logger.New(cfg.Log), nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted. Stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
