package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"pairhunter/internal/daemon"
	"pairhunter/internal/provider"
	"pairhunter/internal/report"
	"pairhunter/internal/scanner"
	"pairhunter/internal/symbols"
	"pairhunter/internal/web"
)

func newUniversesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "universes",
		Short: "List predefined universes",
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"Universe", "Symbols", "Pairs", "Description"}),
			)
			for _, u := range symbols.List() {
				table.Append([]string{
					u.Name,
					fmt.Sprintf("%d", u.Size),
					fmt.Sprintf("%d", symbols.PairCount(u.Size)),
					u.Description,
				})
			}
			return table.Render()
		},
	}
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve screening over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			chain, closeChain, err := provider.Chain(cfg.Sources(), cfg.Fetch, log)
			if err != nil {
				return err
			}
			defer closeChain()

			format, _ := report.ParseFormat(cfg.Watch.Format)
			store, err := report.NewStore(cfg.Watch.OutputDir, format, log)
			if err != nil {
				return err
			}

			srv := web.NewServer(cfg, chain, store, log)

			ctx, cancel := signalContext()
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var (
		schedule  string
		universes string
		now       bool
		once      bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-screen universes on a schedule and save each report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("schedule") {
				cfg.Watch.Schedule = schedule
			}
			if cmd.Flags().Changed("universes") {
				cfg.Watch.Universes = strings.Split(universes, ",")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			loc, err := time.LoadLocation(cfg.Watch.Timezone)
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
			format, _ := report.ParseFormat(cfg.Watch.Format)
			store, err := report.NewStore(cfg.Watch.OutputDir, format, log)
			if err != nil {
				return err
			}

			d, err := daemon.New(daemon.Config{
				Schedule:   cfg.Watch.Schedule,
				Location:   loc,
				Universes:  cfg.Watch.Universes,
				RunOnStart: now,
			}, sc, store, log)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			if !once {
				return d.Run(ctx)
			}

			outcomes, err := d.RunOnce(ctx)
			if err != nil {
				return err
			}
			code := exitOK
			for _, o := range outcomes {
				if o.Err != nil {
					fmt.Fprintf(os.Stderr, "%-14s failed: %v\n", o.Universe, o.Err)
					if exitCodeFor(nil, o.Err) == exitUpstream {
						code = exitUpstream
					}
					continue
				}
				fmt.Printf("%-14s %d signals -> %s\n", o.Universe, o.Signals, o.Path)
			}
			if code != exitOK {
				return &exitCodeError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule (5 fields, in watch.timezone)")
	cmd.Flags().StringVar(&universes, "universes", "", "comma-separated universes to watch")
	cmd.Flags().BoolVar(&now, "now", false, "also run immediately on start")
	cmd.Flags().BoolVar(&once, "once", false, "run a single pass and exit")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token signed with server.jwt_secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			tok, err := web.NewToken(cfg.Server.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "pairhunter", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
