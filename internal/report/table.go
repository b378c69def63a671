package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"pairhunter/pkg/model"
)

// TableOptions controls the human-readable report
type TableOptions struct {
	ShowAll bool // include filtered and skipped pairs
	Details int  // number of signals printed with their position plan
}

// WriteTable renders the ranked report as a table followed by details for
// the top signals and a summary line
func WriteTable(w io.Writer, r *model.ScreenReport, opts TableOptions) error {
	rows := visible(r.Results, opts.ShowAll)

	if len(rows) == 0 {
		fmt.Fprintln(w, "No pairs passed the correlation screen.")
	} else {
		if n := r.SignalCount(); n > 0 {
			fmt.Fprintf(w, "Found %d pair signals in %s:\n\n", n, r.Universe)
		} else {
			fmt.Fprintf(w, "No actionable signals in %s.\n\n", r.Universe)
		}

		table := tablewriter.NewTable(w,
			tablewriter.WithHeader([]string{"#", "Pair", "Status", "Corr", "Beta", "p-value", "Class", "Half-life", "Z", "Signal", "Tier"}),
		)
		for i, res := range rows {
			table.Append(row(i+1, res))
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if opts.Details > 0 {
		writeDetails(w, r.Results, opts.Details)
	}

	if len(r.FetchFailures) > 0 {
		fmt.Fprintf(w, "\nHistory unavailable for %d symbols:\n", len(r.FetchFailures))
		for _, f := range r.FetchFailures {
			fmt.Fprintf(w, "  %-8s %s\n", f.Symbol, f.Reason)
		}
	}

	fmt.Fprintf(w, "\n%s\n", Summary(r))
	return nil
}

// Summary is the one-line outcome of a run
func Summary(r *model.ScreenReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Screened %d/%d pairs across %d symbols in %s: %d signals, %d no signal, %d filtered, %d skipped",
		r.PairsEvaluated, r.PairsTotal, r.Symbols, r.Duration.Round(time.Millisecond),
		r.SignalCount(),
		r.Count(model.StatusNoSignal),
		r.Count(model.StatusFiltered),
		r.Count(model.StatusSkipped))
	if r.Cancelled {
		b.WriteString(" (cancelled)")
	}
	return b.String()
}

func visible(results []model.PairResult, all bool) []model.PairResult {
	if all {
		return results
	}
	var out []model.PairResult
	for _, r := range results {
		if r.Status == model.StatusSignal || r.Status == model.StatusNoSignal {
			out = append(out, r)
		}
	}
	return out
}

func row(rank int, r model.PairResult) []string {
	out := []string{
		fmt.Sprintf("%d", rank),
		r.Key(),
		string(r.Status),
		fmt.Sprintf("%.3f", r.Correlation),
		"-", "-", "-", "-", "-",
		r.Direction().State(),
		"-",
	}
	if r.Hedge != nil {
		out[4] = fmt.Sprintf("%.4f", r.Hedge.Beta)
	}
	if r.Cointegration != nil {
		out[5] = fmt.Sprintf("%.4f", r.Cointegration.PValue)
		out[6] = string(r.Cointegration.Classification)
		out[8] = fmt.Sprintf("%+.2f", r.CurrentZScore)
	}
	if r.HalfLife != nil {
		out[7] = fmt.Sprintf("%.1fd", *r.HalfLife)
	}
	if r.Signal != nil && r.Signal.Direction != model.DirectionNone {
		out[10] = fmt.Sprintf("%d", r.Signal.StrengthTier)
	}
	if r.Status == model.StatusSkipped || r.Status == model.StatusFiltered {
		out[9] = string(r.Reason)
	}
	return out
}

func writeDetails(w io.Writer, results []model.PairResult, limit int) {
	count := 0
	for _, r := range results {
		if r.Status != model.StatusSignal || r.Plan == nil {
			continue
		}
		if count >= limit {
			break
		}
		if count == 0 {
			fmt.Fprintln(w, "\n--- Position Plans ---")
		}

		p := r.Plan
		fmt.Fprintf(w, "\n[%s] %s  z=%+.2f  tier %d\n", r.Key(), r.Direction().State(), r.CurrentZScore, r.Signal.StrengthTier)
		fmt.Fprintf(w, "  %s\n", legLine(p.LegA))
		fmt.Fprintf(w, "  %s\n", legLine(p.LegB))
		fmt.Fprintf(w, "  Beta %.4f | Net exposure %.3f%% of $%s", p.Beta, p.NetExposure*100, p.Allocation.StringFixed(0))
		if p.Adjusted {
			fmt.Fprint(w, " | rounding adjusted")
		}
		fmt.Fprintln(w)
		if r.Signal.Caution {
			fmt.Fprintln(w, "  !! caution: cointegration weakened over the trailing window")
		}
		for _, n := range r.Signal.Notes {
			fmt.Fprintf(w, "  - %s\n", n)
		}
		count++
	}
}

func legLine(l model.Leg) string {
	return fmt.Sprintf("%-5s %-8s %s sh @ $%s = $%s",
		strings.ToUpper(string(l.Side)), l.Symbol, l.Shares.String(), l.Price.StringFixed(2), l.Filled.StringFixed(2))
}
