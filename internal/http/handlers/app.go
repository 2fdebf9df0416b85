// Package handlers holds the HTTP request handlers. Validation happens here,
// at the boundary: the pipeline only ever sees well-formed requests.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"animator/internal/coordinator"
	"animator/internal/domain"
	"animator/internal/history"
	"animator/internal/infra"
	"animator/internal/telemetry"
)

type App struct {
	Pipeline  *coordinator.Coordinator
	Ledger    *history.Ledger
	Telemetry *telemetry.Aggregator
	Logger    infra.Logger
}

func NewApp(pipeline *coordinator.Coordinator, ledger *history.Ledger, tel *telemetry.Aggregator, logger infra.Logger) *App {
	return &App{Pipeline: pipeline, Ledger: ledger, Telemetry: tel, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

// generationError maps a pipeline error to its HTTP representation.
func (a *App) generationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRemoteTimedOut):
		a.error(w, http.StatusGatewayTimeout, "remote_timed_out", err.Error())
	case errors.Is(err, domain.ErrRemoteFailed):
		a.error(w, http.StatusBadGateway, "remote_failed", err.Error())
	default:
		a.error(w, http.StatusInternalServerError, "internal", "generation failed")
	}
}
