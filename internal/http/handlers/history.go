package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"animator/internal/history"
)

func (a *App) History(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subject_id")
	if subjectID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "subject_id required")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := a.Ledger.List(r.Context(), subjectID, limit)
	if err != nil {
		a.Logger.Error().Err(err).Str("subject_id", subjectID).Msg("history list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"user_id": subjectID,
		"items":   entries,
	})
}

func (a *App) LastVideo(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subject_id")
	if subjectID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "subject_id required")
		return
	}

	url, err := a.Ledger.Last(r.Context(), subjectID)
	if errors.Is(err, history.ErrNoLast) {
		a.error(w, http.StatusNotFound, "not_found", "no recent artifact for subject")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("subject_id", subjectID).Msg("last artifact lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load last artifact")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"video_url": url})
}
