package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/motomarket/motorag/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// Registry manages tool registration and execution.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// NewDefaultRegistry registers the built-in tools. Either source may be nil,
// in which case the tools that need it report the source as unavailable.
func NewDefaultRegistry(listings ListingSource, coe COESource) *Registry {
	r := NewRegistry()
	r.Register(NewSearchListingsTool(listings))
	r.Register(NewCOEPriceTool(coe))
	r.Register(NewRoadTaxTool())
	r.Register(NewDepreciationTool(time.Now))
	r.Register(NewCOEStatisticsTool(coe))
	r.Register(NewCompareBikesTool(listings))
	return r
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tool names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns function-calling definitions for every tool.
func (r *Registry) Definitions() []openai.Tool {
	names := r.List()
	defs := make([]openai.Tool, 0, len(names))
	for _, name := range names {
		tool, _ := r.Get(name)
		params := tool.Parameters()
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  params,
			},
		})
	}
	return defs
}

// Execute runs a tool by name with JSON arguments.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrUnknownTool.Message, fmt.Errorf("%q", name))
	}

	start := time.Now()
	res, err := tool.Execute(ctx, args)
	if err != nil {
		log.Printf("tools: %s failed after %s: %v", name, time.Since(start), err)
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}
	log.Printf("tools: %s executed in %s (%s)", name, time.Since(start), res.Kind())
	return res, nil
}
