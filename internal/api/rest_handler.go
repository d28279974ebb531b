package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"capital_ledger/internal/reconcile"
	"capital_ledger/internal/replay"
	"capital_ledger/internal/repository"
)

// APIHandler exposes read-only inspection endpoints over a replay run,
// plus a stepping endpoint that advances the engine one event at a time.
type APIHandler struct {
	engine         *replay.Engine
	players        repository.PlayerRepository
	plots          repository.PlotRepository
	matcher        *reconcile.Matcher
	logger         *slog.Logger
	requestTimeout time.Duration
}

func NewAPIHandler(
	engine *replay.Engine,
	players repository.PlayerRepository,
	plots repository.PlotRepository,
	matcher *reconcile.Matcher,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		engine:         engine,
		players:        players,
		plots:          plots,
		matcher:        matcher,
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type StepStateResponse struct {
	Done bool                    `json:"done"`
	Next *replay.EventDescriptor `json:"next,omitempty"`
}

func (h *APIHandler) ListPlayersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	players, err := h.players.GetAll(ctx)
	if err != nil {
		h.sendError(w, "Failed to list players", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}
	h.sendJSON(w, players, http.StatusOK)
}

func (h *APIHandler) GetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	player, err := h.players.GetByName(ctx, chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "Player not found", http.StatusNotFound, "NOT_FOUND")
		} else {
			h.sendError(w, "Failed to get player", http.StatusInternalServerError, "SERVER_ERROR")
		}
		return
	}
	h.sendJSON(w, player, http.StatusOK)
}

func (h *APIHandler) ListPlotsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	plots, err := h.plots.GetAll(ctx)
	if err != nil {
		h.sendError(w, "Failed to list plots", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}
	h.sendJSON(w, plots, http.StatusOK)
}

func (h *APIHandler) GetPlotHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	plot, err := h.plots.GetByName(ctx, chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "Plot not found", http.StatusNotFound, "NOT_FOUND")
		} else {
			h.sendError(w, "Failed to get plot", http.StatusInternalServerError, "SERVER_ERROR")
		}
		return
	}
	h.sendJSON(w, plot, http.StatusOK)
}

func (h *APIHandler) GetStepHandler(w http.ResponseWriter, r *http.Request) {
	desc, ok := h.engine.Current()
	if !ok {
		h.sendJSON(w, StepStateResponse{Done: true}, http.StatusOK)
		return
	}
	h.sendJSON(w, StepStateResponse{Done: false, Next: &desc}, http.StatusOK)
}

func (h *APIHandler) AdvanceStepHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	summary, err := h.engine.Advance(ctx)
	if err != nil {
		if errors.Is(err, replay.ErrNoMoreEvents) {
			h.sendError(w, "Replay is complete", http.StatusConflict, "REPLAY_DONE")
			return
		}
		h.logger.Error("Replay step failed", slog.String("error", err.Error()))
		h.sendError(w, "Replay step failed", http.StatusInternalServerError, "STEP_ERROR")
		return
	}

	h.sendJSON(w, summary, http.StatusOK)
}

type MoveFailureResponse struct {
	Move   string `json:"move"`
	Op     string `json:"op"`
	Reason string `json:"reason"`
}

func (h *APIHandler) GetFailuresHandler(w http.ResponseWriter, r *http.Request) {
	failures := h.engine.Failures()
	response := make([]MoveFailureResponse, 0, len(failures))
	for _, f := range failures {
		response = append(response, MoveFailureResponse{
			Move:   f.Move.Ref(),
			Op:     f.Op,
			Reason: f.Err.Error(),
		})
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) GetReconciliationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	report := h.matcher.Match(ctx, h.engine.CashOuts(), h.engine.Settlements())
	h.sendJSON(w, report, http.StatusOK)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"replaying": h.engine.HasNext(),
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.HealthCheckHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/players", h.ListPlayersHandler)
		r.Get("/players/{name}", h.GetPlayerHandler)
		r.Get("/plots", h.ListPlotsHandler)
		r.Get("/plots/{name}", h.GetPlotHandler)
		r.Get("/replay/step", h.GetStepHandler)
		r.Post("/replay/step", h.AdvanceStepHandler)
		r.Get("/replay/failures", h.GetFailuresHandler)
		r.Get("/reconciliation", h.GetReconciliationHandler)
	})

	return r
}
