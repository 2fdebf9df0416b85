package handlers

import (
	"net/http"
)

// Metrics serves the JSON telemetry summary. Prometheus exposition lives on
// its own route, wired in the router.
func (a *App) Metrics(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Telemetry.Summary())
}
