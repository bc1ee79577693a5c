package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/omarshaarawi/superliga/internal/models"
	"github.com/omarshaarawi/superliga/internal/standings"
)

const triggerHTTP = "http"

type Handler struct {
	svc            Service
	refreshTimeout time.Duration
}

func NewHandler(svc Service, refreshTimeout time.Duration) *Handler {
	return &Handler{svc: svc, refreshTimeout: refreshTimeout}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type standingsResponse struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Count       int              `json:"count"`
	Rows        []models.TeamRow `json:"rows"`
}

type refreshResponse struct {
	RunID       string                `json:"run_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Duration    string                `json:"duration"`
	Rows        int                   `json:"rows"`
	Operations  int                   `json:"operations"`
	Failures    []models.FetchFailure `json:"failures"`
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "superliga",
	})
}

// GetStandings serves the latest rows. Query params: q (text filter)
func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Latest(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "standings unavailable", err)
		return
	}
	rows := standings.Filter(report.Rows, r.URL.Query().Get("q"))
	if rows == nil {
		rows = []models.TeamRow{}
	}

	respondJSON(w, http.StatusOK, standingsResponse{
		RunID:       report.RunID,
		GeneratedAt: report.GeneratedAt,
		Count:       len(rows),
		Rows:        rows,
	})
}

// GetTeam serves one row by its "<league>-<roster>" id.
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	rowID := chi.URLParam(r, "rowID")

	report, err := h.svc.Latest(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "standings unavailable", err)
		return
	}
	for _, row := range report.Rows {
		if row.ID == rowID {
			respondJSON(w, http.StatusOK, row)
			return
		}
	}
	respondError(w, http.StatusNotFound, "team not found", nil)
}

func (h *Handler) GetTrades(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.Trades(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "trades unavailable", err)
		return
	}
	if cards == nil {
		cards = []models.TradeCard{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(cards),
		"trades": cards,
	})
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Latest(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "report unavailable", err)
		return
	}
	respondJSON(w, http.StatusOK, summarize(report))
}

// Refresh runs a full refresh synchronously and returns its summary.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.refreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.refreshTimeout)
		defer cancel()
	}

	report, err := h.svc.Refresh(ctx, triggerHTTP)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "refresh failed", err)
		return
	}
	respondJSON(w, http.StatusOK, summarize(report))
}

func summarize(report *models.Report) refreshResponse {
	failures := report.Failures
	if failures == nil {
		failures = []models.FetchFailure{}
	}
	return refreshResponse{
		RunID:       report.RunID,
		GeneratedAt: report.GeneratedAt,
		Duration:    report.Duration.String(),
		Rows:        len(report.Rows),
		Operations:  report.Operations,
		Failures:    failures,
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		slog.Error(message, "error", err)
	}
	respondJSON(w, status, errorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
