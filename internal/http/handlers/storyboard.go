package handlers

import (
	"encoding/json"
	"net/http"

	"animator/internal/storyboard"
)

type storyboardRequest struct {
	ImageURL     string                `json:"image_url"`
	ProductAttrs storyboard.Attributes `json:"product_attrs"`
}

func (a *App) Storyboard(w http.ResponseWriter, r *http.Request) {
	var req storyboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ImageURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image_url is required")
		return
	}
	a.json(w, http.StatusOK, storyboard.Build(req.ProductAttrs))
}
