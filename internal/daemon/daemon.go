package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"pairhunter/internal/report"
	"pairhunter/internal/symbols"
	"pairhunter/pkg/model"
)

// Screener runs one screening. *scanner.Scanner implements it.
type Screener interface {
	Screen(ctx context.Context, universe string, symbols []string) (*model.ScreenReport, error)
}

// Config holds the watch schedule
type Config struct {
	Schedule   string // standard 5-field cron, evaluated in Location
	Location   *time.Location
	Universes  []string
	RunOnStart bool
}

// Outcome is the result of screening one universe in a watch run
type Outcome struct {
	Universe string
	Path     string
	Signals  int
	Err      error
}

// Daemon re-screens a set of universes on a cron schedule and writes each
// report to the store. Runs are skipped on non-trading days.
type Daemon struct {
	cfg       Config
	schedule  cron.Schedule
	calendar  *Calendar
	screener  Screener
	store     *report.Store
	universes []*symbols.Resolved
	log       zerolog.Logger
	now       func() time.Time

	// a run that overlaps the next tick makes the tick a no-op
	running sync.Mutex
}

// New validates the schedule and universes
func New(cfg Config, s Screener, store *report.Store, log zerolog.Logger) (*Daemon, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	sched, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	if len(cfg.Universes) == 0 {
		return nil, errors.New("watch needs at least one universe")
	}

	universes := make([]*symbols.Resolved, 0, len(cfg.Universes))
	for _, name := range cfg.Universes {
		u, err := symbols.Resolve(symbols.Selection{Universe: name})
		if err != nil {
			return nil, err
		}
		universes = append(universes, u)
	}

	return &Daemon{
		cfg:       cfg,
		schedule:  sched,
		calendar:  NewCalendar(cfg.Location),
		screener:  s,
		store:     store,
		universes: universes,
		log:       log.With().Str("component", "watch").Logger(),
		now:       time.Now,
	}, nil
}

// Next returns the next scheduled run after the current time
func (d *Daemon) Next() time.Time {
	return d.schedule.Next(d.now().In(d.cfg.Location))
}

// Run blocks, screening on schedule, until ctx is cancelled
func (d *Daemon) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(d.cfg.Location),
		cron.WithLogger(cronLogger{d.log}),
	)
	c.Schedule(d.schedule, cron.FuncJob(func() {
		if _, err := d.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Error().Err(err).Msg("Watch run failed")
		}
	}))

	d.log.Info().
		Str("schedule", d.cfg.Schedule).
		Str("timezone", d.cfg.Location.String()).
		Strs("universes", d.cfg.Universes).
		Time("next", d.Next()).
		Msg("Watch started")

	if d.cfg.RunOnStart {
		go func() {
			if _, err := d.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.log.Error().Err(err).Msg("Watch run failed")
			}
		}()
	}

	c.Start()
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	d.log.Info().Msg("Watch stopped")
	return nil
}

// RunOnce screens every universe now. It returns no outcomes when today is
// not a trading day or another run is still in progress.
func (d *Daemon) RunOnce(ctx context.Context) ([]Outcome, error) {
	if !d.running.TryLock() {
		d.log.Warn().Msg("Previous watch run still in progress, skipping")
		return nil, nil
	}
	defer d.running.Unlock()

	now := d.now()
	if reason := d.calendar.ClosedReason(now); reason != "" {
		d.log.Info().Str("reason", reason).Str("date", now.In(d.cfg.Location).Format("2006-01-02")).Msg("Market closed, skipping run")
		return nil, nil
	}

	outcomes := make([]Outcome, 0, len(d.universes))
	for _, u := range d.universes {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		out := Outcome{Universe: u.Name}
		rep, err := d.screener.Screen(ctx, u.Name, u.Symbols)
		switch {
		case err != nil:
			out.Err = err
			d.log.Error().Err(err).Str("universe", u.Name).Msg("Screening failed")
		case rep.Cancelled:
			out.Err = context.Canceled
		default:
			out.Signals = rep.SignalCount()
			out.Path, out.Err = d.store.Save(rep)
		}
		outcomes = append(outcomes, out)
	}

	d.log.Info().Int("universes", len(outcomes)).Time("next", d.Next()).Msg("Watch run complete")
	return outcomes, nil
}

// cronLogger routes cron's internal logging through zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
