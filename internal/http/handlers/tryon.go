package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"animator/internal/domain"
)

type tryonRequest struct {
	UserID          string `json:"user_id"`
	PersonImageURL  string `json:"person_image_url"`
	GarmentImageURL string `json:"garment_image_url"`
}

type tryonResponse struct {
	ImageURL  string `json:"image_url"`
	LatencyMS int64  `json:"latency_ms"`
	CacheHit  bool   `json:"cache_hit"`
}

func (a *App) TryOn(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req tryonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.UserID == "" || req.PersonImageURL == "" || req.GarmentImageURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id, person_image_url and garment_image_url are required")
		return
	}

	artifact, cacheHit, err := a.Pipeline.RequestArtifact(r.Context(), domain.Request{
		Kind:       domain.KindTryon,
		SubjectID:  req.UserID,
		InputRef:   req.PersonImageURL,
		OverlayRef: req.GarmentImageURL,
	})
	if err != nil {
		a.generationError(w, err)
		return
	}

	a.json(w, http.StatusOK, tryonResponse{
		ImageURL:  artifact.ArtifactURL,
		LatencyMS: time.Since(start).Milliseconds(),
		CacheHit:  cacheHit,
	})
}
