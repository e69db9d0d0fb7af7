package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"solana-revival-scanner/internal/domain"
	"solana-revival-scanner/internal/orchestrator"
	"solana-revival-scanner/internal/solana"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.State.Status())
}

func (s *Server) activity(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.opts.State.ActivityLog()))
}

func (s *Server) errorLog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.opts.State.Errors()))
}

func (s *Server) results(w http.ResponseWriter, r *http.Request) {
	cfg := s.opts.Orchestrator.Config()
	minScore := cfg.Revival.MinScore
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			writeError(w, http.StatusBadRequest, "min_score must be a number in [0,1]")
			return
		}
		minScore = v
	}
	writeJSON(w, http.StatusOK, newResultViews(s.opts.State.Results(minScore)))
}

func (s *Server) scanStart(w http.ResponseWriter, _ *http.Request) {
	if err := s.opts.Loop.Start(); err != nil {
		writeError(w, conflictStatus(err, orchestrator.ErrLoopRunning), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"running": true})
}

func (s *Server) scanStop(w http.ResponseWriter, _ *http.Request) {
	stopped := s.opts.Loop.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": false, "stopped": stopped})
}

func (s *Server) scanOnce(w http.ResponseWriter, _ *http.Request) {
	if err := s.opts.Loop.RunOnce(); err != nil {
		writeError(w, conflictStatus(err, orchestrator.ErrScanInProgress), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"started": true})
}

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Orchestrator.Settings())
}

// putSettings applies a partial update on top of the current settings.
func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	next := s.opts.Orchestrator.Settings()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings body: "+err.Error())
		return
	}
	applied, err := s.opts.Orchestrator.UpdateSettings(next)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("settings updated", zap.Any("settings", applied))
	writeJSON(w, http.StatusOK, applied)
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if err := solana.ValidateAddress(address); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.TokenTimeout)
	defer cancel()

	res := s.opts.Orchestrator.Scorer().Score(ctx, address)
	writeJSON(w, http.StatusOK, newResultView(res))
}

func (s *Server) history(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.opts.State.History()))
}

func (s *Server) alerts(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Alerts == nil {
		writeJSON(w, http.StatusOK, summaryView{
			Date:       time.Now().Format("2006-01-02"),
			ByPriority: map[domain.Priority]int{},
			Top:        []*domain.Alert{},
		})
		return
	}
	writeJSON(w, http.StatusOK, newSummaryView(s.opts.Alerts.DailySummary()))
}

func (s *Server) phases(w http.ResponseWriter, _ *http.Request) {
	phases := s.opts.State.Phases()
	out := make(map[domain.Phase][]domain.PhaseToken, len(domain.Phases))
	for _, p := range domain.Phases {
		out[p] = nonNil(phases[p])
	}
	writeJSON(w, http.StatusOK, out)
}

func conflictStatus(err, conflict error) int {
	if errors.Is(err, conflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
