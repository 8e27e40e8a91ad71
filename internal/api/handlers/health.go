package handlers

import (
	"net/http"

	"github.com/motomarket/motorag/internal/api"
)

type ReadinessChecker interface {
	IsReady() bool
}

type HealthHandler struct {
	index ReadinessChecker
}

func NewHealthHandler(index ReadinessChecker) *HealthHandler {
	return &HealthHandler{index: index}
}

type HealthResponse struct {
	Status     string `json:"status"`
	IndexReady bool   `json:"indexReady"`
}

// Health always answers 200; an empty index only degrades answers.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.index != nil {
		resp.IndexReady = h.index.IsReady()
	}
	api.JSON(w, http.StatusOK, resp)
}
