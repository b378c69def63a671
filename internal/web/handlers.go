package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pairhunter/internal/config"
	"pairhunter/internal/report"
	"pairhunter/internal/scanner"
	"pairhunter/internal/symbols"
	"pairhunter/pkg/model"
)

// ScreenRequest selects the universe and optionally overrides thresholds
// for a single run. Omitted fields keep the server configuration.
type ScreenRequest struct {
	Universe string   `json:"universe,omitempty"`
	Symbols  []string `json:"symbols,omitempty"`

	HedgeMethod    string   `json:"hedge_method,omitempty"`
	MinCorrelation *float64 `json:"min_correlation,omitempty"`
	LookbackDays   *int     `json:"lookback_days,omitempty"`
	EntryZ         *float64 `json:"entry_z,omitempty"`
	ExitZ          *float64 `json:"exit_z,omitempty"`
	StopZ          *float64 `json:"stop_z,omitempty"`
	Allocation     *float64 `json:"allocation,omitempty"`
}

// apply returns a copy of base with the request overrides
func (req ScreenRequest) apply(base *config.Config) *config.Config {
	cfg := *base
	if req.HedgeMethod != "" {
		cfg.Hedge.Method = req.HedgeMethod
	}
	if req.MinCorrelation != nil {
		cfg.Screening.MinCorrelation = *req.MinCorrelation
	}
	if req.LookbackDays != nil {
		cfg.Screening.Lookback = *req.LookbackDays
	}
	if req.EntryZ != nil {
		cfg.Signal.Entry = *req.EntryZ
	}
	if req.ExitZ != nil {
		cfg.Signal.Exit = *req.ExitZ
	}
	if req.StopZ != nil {
		cfg.Signal.Stop = *req.StopZ
	}
	if req.Allocation != nil {
		cfg.Sizing.Allocation = *req.Allocation
	}
	return &cfg
}

type errorResponse struct {
	Error         string               `json:"error"`
	FetchFailures []model.FetchFailure `json:"fetch_failures,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // response already committed
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// requestFormat reads ?format=, defaulting to JSON
func requestFormat(r *http.Request) (report.Format, error) {
	return report.ParseFormat(r.URL.Query().Get("format"))
}

func writeReport(w http.ResponseWriter, rep *model.ScreenReport, format report.Format) {
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_ = report.Encode(w, rep, format)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"provider":  s.provider.Name(),
		"available": s.provider.IsAvailable(),
		"screening": s.screening.Load(),
	})
}

func (s *Server) handleUniverses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"universes": symbols.List()})
}

// handleScreen runs a screening synchronously and returns the ranked report.
// The run is cancelled if the client goes away.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ScreenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	universe, err := symbols.Resolve(symbols.Selection{Universe: req.Universe, Symbols: req.Symbols})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := req.apply(s.cfg)
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.screening.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, map[string]string{"status": "already_running"})
		return
	}
	defer s.screening.Store(false)

	sc, err := scanner.NewScanner(s.provider, cfg.ScannerOptions(), s.log)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	rep, err := sc.Screen(r.Context(), universe.Name, universe.Symbols)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scanner.ErrUpstreamUnavailable) {
			status = http.StatusBadGateway
		}
		resp := errorResponse{Error: err.Error()}
		if rep != nil {
			resp.FetchFailures = rep.FetchFailures
		}
		writeJSON(w, status, resp)
		return
	}

	s.log.Info().
		Str("universe", universe.Name).
		Str("subject", Subject(r.Context())).
		Int("signals", rep.SignalCount()).
		Dur("duration", time.Since(start)).
		Msg("Screening served")

	if s.store != nil && !rep.Cancelled {
		if _, err := s.store.Save(rep); err != nil {
			s.log.Warn().Err(err).Msg("Could not persist report")
		}
	}
	writeReport(w, rep, format)
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "report storage is not configured")
		return
	}
	format, err := requestFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := s.store.Latest(r.URL.Query().Get("universe"))
	if errors.Is(err, report.ErrNoReports) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeReport(w, rep, format)
}

func (s *Server) handlePurgeCache(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		s.cache.Purge()
	}
	w.WriteHeader(http.StatusNoContent)
}
