package handlers

import (
	"context"
	"net/http"

	"github.com/motomarket/motorag/internal/api"
	"github.com/motomarket/motorag/internal/domain"
	"github.com/motomarket/motorag/internal/service"
	"github.com/sashabaranov/go-openai"
)

type Reindexer interface {
	Rebuild(ctx context.Context) (*service.IndexResult, error)
}

type StatsProvider interface {
	Stats() domain.IndexStats
}

type ToolCatalog interface {
	Definitions() []openai.Tool
}

type AdminHandler struct {
	indexer Reindexer
	stats   StatsProvider
	tools   ToolCatalog
}

func NewAdminHandler(indexer Reindexer, stats StatsProvider, tools ToolCatalog) *AdminHandler {
	return &AdminHandler{indexer: indexer, stats: stats, tools: tools}
}

// Reindex rebuilds the knowledge index from the content store.
func (h *AdminHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if h.indexer == nil {
		api.HandleError(w, domain.ErrIndexUnavailable)
		return
	}

	result, err := h.indexer.Rebuild(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.stats.Stats())
}

// Tools lists the function-calling definitions of the registered tools.
func (h *AdminHandler) Tools(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]any{"tools": h.tools.Definitions()})
}
