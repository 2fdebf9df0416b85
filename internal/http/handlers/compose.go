package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"animator/internal/domain"
)

type composeRequest struct {
	UserID   string   `json:"user_id"`
	ImageURL string   `json:"image_url"`
	Actions  []string `json:"actions"`
	Aspect   string   `json:"aspect"`
}

type composeResponse struct {
	VideoURL  string   `json:"video_url"`
	Captions  []string `json:"captions"`
	LatencyMS int64    `json:"latency_ms"`
	CacheHit  bool     `json:"cache_hit"`
}

func (a *App) Compose(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req composeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.UserID == "" || req.ImageURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id and image_url are required")
		return
	}
	if len(req.Actions) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "actions must not be empty")
		return
	}
	actions := make([]domain.Action, 0, len(req.Actions))
	for _, raw := range req.Actions {
		action := domain.Action(raw)
		if !domain.ValidAction(action) {
			a.error(w, http.StatusBadRequest, "bad_request", "actions must each be one of turn, wave, walk")
			return
		}
		actions = append(actions, action)
	}
	if req.Aspect == "" {
		req.Aspect = "9:16"
	}

	artifact, cacheHit, err := a.Pipeline.RequestArtifact(r.Context(), domain.Request{
		Kind:        domain.KindCompose,
		SubjectID:   req.UserID,
		InputRef:    req.ImageURL,
		Actions:     actions,
		AspectRatio: req.Aspect,
	})
	if err != nil {
		a.generationError(w, err)
		return
	}

	a.json(w, http.StatusOK, composeResponse{
		VideoURL:  artifact.ArtifactURL,
		Captions:  artifact.Captions,
		LatencyMS: time.Since(start).Milliseconds(),
		CacheHit:  cacheHit,
	})
}
