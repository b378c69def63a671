package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pairhunter/internal/config"
	"pairhunter/internal/provider"
	"pairhunter/pkg/logger"
)

func main() {
	var (
		cfgFile string
		days    int
		store   string
	)

	cmd := &cobra.Command{
		Use:   "probe SYMBOL [SYMBOL...]",
		Short: "Fetch daily history from each configured source and report what came back",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log)

			chain, closeChain, err := provider.Chain(cfg.Sources(), cfg.Fetch, log)
			if err != nil {
				return err
			}
			defer closeChain()

			var sink *provider.SQLiteProvider
			if store != "" {
				sink, err = provider.NewSQLiteProvider(store)
				if err != nil {
					return err
				}
				defer sink.Close()
			}

			ctx := context.Background()
			fmt.Println("=== Price Source Probe ===")

			for i, p := range chain.Providers() {
				fmt.Printf("\n[%d] %s (available=%v, rate=%d/min)\n", i+1, p.Name(), p.IsAvailable(), p.RateLimit())
				if !p.IsAvailable() {
					continue
				}
				for _, sym := range args {
					start := time.Now()
					series, err := p.GetDailyHistory(ctx, sym, days)
					elapsed := time.Since(start)
					if err != nil {
						fmt.Printf("    %-8s ERROR [%s] %v (%.1fs)\n", sym, provider.KindOf(err), err, elapsed.Seconds())
						continue
					}

					first, last := series.At(0), series.Last()
					fmt.Printf("    %-8s OK: %d closes %s..%s last=%.2f (%.1fs)\n",
						sym, series.Len(), first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"), last.Close, elapsed.Seconds())

					if sink != nil && p.Name() != sink.Name() {
						if err := sink.Save(ctx, series); err != nil {
							fmt.Printf("    %-8s STORE ERROR: %v\n", sym, err)
						}
					}
				}
			}

			fmt.Println("\n=== Probe Complete ===")
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	cmd.Flags().IntVar(&days, "days", 730, "trading days to request")
	cmd.Flags().StringVar(&store, "store", "", "save fetched history into this SQLite file")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
