package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"animator/internal/domain"
)

type animateRequest struct {
	UserID    string `json:"user_id"`
	ImageURL  string `json:"image_url"`
	Action    string `json:"action"`
	DurationS int    `json:"duration_s"`
	Aspect    string `json:"aspect"`
}

type animateResponse struct {
	VideoURL  string   `json:"video_url"`
	Captions  []string `json:"captions"`
	LatencyMS int64    `json:"latency_ms"`
	CacheHit  bool     `json:"cache_hit"`
}

func (a *App) Animate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req animateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.UserID == "" || req.ImageURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id and image_url are required")
		return
	}
	if req.Action == "" {
		req.Action = string(domain.ActionTurn)
	}
	if !domain.ValidAction(domain.Action(req.Action)) {
		a.error(w, http.StatusBadRequest, "bad_request", "action must be one of turn, wave, walk")
		return
	}
	if req.DurationS == 0 {
		req.DurationS = 4
	}
	if req.DurationS < 3 || req.DurationS > 6 {
		a.error(w, http.StatusBadRequest, "bad_request", "duration_s must be between 3 and 6")
		return
	}
	if req.Aspect == "" {
		req.Aspect = "9:16"
	}

	artifact, cacheHit, err := a.Pipeline.RequestArtifact(r.Context(), domain.Request{
		Kind:            domain.KindAnimate,
		SubjectID:       req.UserID,
		InputRef:        req.ImageURL,
		Actions:         []domain.Action{domain.Action(req.Action)},
		DurationSeconds: req.DurationS,
		AspectRatio:     req.Aspect,
	})
	if err != nil {
		a.generationError(w, err)
		return
	}

	a.json(w, http.StatusOK, animateResponse{
		VideoURL:  artifact.ArtifactURL,
		Captions:  artifact.Captions,
		LatencyMS: time.Since(start).Milliseconds(),
		CacheHit:  cacheHit,
	})
}
