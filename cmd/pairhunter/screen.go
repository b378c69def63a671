package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"pairhunter/internal/config"
	"pairhunter/internal/hedge"
	"pairhunter/internal/provider"
	"pairhunter/internal/report"
	"pairhunter/internal/scanner"
	"pairhunter/internal/symbols"
)

type screenFlags struct {
	universe    string
	symbolList  string
	symbolsFile string

	minCorrelation float64
	lookback       int
	entryZ         float64
	exitZ          float64
	stopZ          float64
	hedgeMethod    string
	allocation     float64
	workers        int

	output     string
	format     string
	all        bool
	details    int
	noProgress bool
}

func newScreenCmd() *cobra.Command {
	f := &screenFlags{}
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Screen a universe for cointegrated pairs (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScreen(cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.universe, "universe", "", "predefined universe (see 'pairhunter universes')")
	fs.StringVar(&f.symbolList, "symbols", "", "comma-separated symbols to pair")
	fs.StringVar(&f.symbolsFile, "symbols-file", "", "file with one symbol per line")

	fs.Float64Var(&f.minCorrelation, "min-correlation", 0, "minimum correlation to test a pair")
	fs.IntVar(&f.lookback, "lookback", 0, "trading days of history to analyze")
	fs.Float64Var(&f.entryZ, "entry-z", 0, "z-score magnitude that opens a position")
	fs.Float64Var(&f.exitZ, "exit-z", 0, "z-score magnitude reported as the exit level")
	fs.Float64Var(&f.stopZ, "stop-z", 0, "z-score magnitude beyond which no entry is signalled")
	fs.StringVar(&f.hedgeMethod, "hedge", "", "hedge ratio method: "+strings.Join(hedge.List(), ", "))
	fs.Float64Var(&f.allocation, "allocation", 0, "dollars allocated per pair")
	fs.IntVar(&f.workers, "workers", 0, "number of parallel pair workers")

	fs.StringVarP(&f.output, "output", "o", "", "also write the report to this file (.json, .yaml, .msgpack)")
	fs.StringVar(&f.format, "format", "table", "stdout format: table, json, yaml, msgpack")
	fs.BoolVar(&f.all, "all", false, "include filtered and skipped pairs in the table")
	fs.IntVar(&f.details, "details", 5, "signals printed with their position plan")
	fs.BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

// applyFlags overrides configuration with explicitly set flags only
func (f *screenFlags) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("min-correlation") {
		cfg.Screening.MinCorrelation = f.minCorrelation
	}
	if changed("lookback") {
		cfg.Screening.Lookback = f.lookback
	}
	if changed("entry-z") {
		cfg.Signal.Entry = f.entryZ
	}
	if changed("exit-z") {
		cfg.Signal.Exit = f.exitZ
	}
	if changed("stop-z") {
		cfg.Signal.Stop = f.stopZ
	}
	if changed("hedge") {
		cfg.Hedge.Method = f.hedgeMethod
	}
	if changed("allocation") {
		cfg.Sizing.Allocation = f.allocation
	}
	if changed("workers") {
		cfg.Scanner.Workers = f.workers
	}
}

func runScreen(cmd *cobra.Command, f *screenFlags) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	f.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	stdoutFormat := strings.ToLower(f.format)
	if stdoutFormat != "table" {
		if _, err := report.ParseFormat(stdoutFormat); err != nil {
			return err
		}
	}

	sel := symbols.Selection{Universe: f.universe, File: f.symbolsFile}
	if f.symbolList != "" {
		sel.Symbols = symbols.ParseList(f.symbolList)
	}
	if sel.Universe == "" && len(sel.Symbols) == 0 && sel.File == "" {
		return errors.New("choose a universe with --universe, --symbols or --symbols-file")
	}
	universe, err := symbols.Resolve(sel)
	if err != nil {
		return err
	}

	chain, closeChain, err := provider.Chain(cfg.Sources(), cfg.Fetch, log)
	if err != nil {
		return err
	}
	defer closeChain()

	sc, err := scanner.NewScanner(chain, cfg.ScannerOptions(), log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Fprintf(os.Stderr, "Screening %d symbols (%d pairs) in %s via %s...\n",
		len(universe.Symbols), symbols.PairCount(len(universe.Symbols)), universe.Name, providerNames(chain))

	var bars *stageBars
	if !f.noProgress {
		bars = &stageBars{}
		sc.SetProgressCallback(bars.update)
	}

	rep, err := sc.Screen(ctx, universe.Name, universe.Symbols)
	bars.finish()
	if err != nil {
		return &exitCodeError{code: exitCodeFor(nil, err), err: err}
	}

	if f.output != "" {
		if err := report.WriteFile(f.output, rep); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		log.Info().Str("path", f.output).Msg("Report written")
	}

	if stdoutFormat == "table" {
		if err := report.WriteTable(os.Stdout, rep, report.TableOptions{ShowAll: f.all, Details: f.details}); err != nil {
			return err
		}
	} else {
		format, _ := report.ParseFormat(stdoutFormat)
		if err := report.Encode(os.Stdout, rep, format); err != nil {
			return err
		}
	}

	if code := exitCodeFor(rep, nil); code != exitOK {
		return &exitCodeError{code: code}
	}
	return nil
}

func providerNames(fb *provider.FallbackProvider) string {
	var names []string
	for _, p := range fb.Providers() {
		if p.IsAvailable() {
			names = append(names, p.Name())
		}
	}
	return strings.Join(names, " > ")
}

// stageBars shows one progress bar per scanner stage
type stageBars struct {
	mu    sync.Mutex
	stage string
	bar   *progressbar.ProgressBar
}

func (b *stageBars) update(stage string, done, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if stage != b.stage {
		if b.bar != nil {
			b.bar.Finish()
			fmt.Fprintln(os.Stderr)
		}
		b.stage = stage
		b.bar = newBar(total, stageLabel(stage))
	}
	b.bar.Set(done)
}

func (b *stageBars) finish() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		b.bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
}

func stageLabel(stage string) string {
	if stage == scanner.StageFetch {
		return "Fetching "
	}
	return "Analyzing"
}

func newBar(total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
