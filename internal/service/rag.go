package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/motomarket/motorag/internal/domain"
	llm "github.com/motomarket/motorag/internal/openai"
	"github.com/motomarket/motorag/internal/telemetry"
	"github.com/motomarket/motorag/internal/tools"
	"github.com/motomarket/motorag/internal/vectorstore"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
)

const (
	retrievalTopK = 5

	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.7
)

// CompletionClient streams a chat completion as raw server-sent events.
type CompletionClient interface {
	StreamCompletion(ctx context.Context, messages []openai.ChatCompletionMessage, params llm.CompletionParams) (io.ReadCloser, error)
}

// ToolExecutor runs a named tool.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args json.RawMessage) (tools.Result, error)
}

// ChatRequest is one chat turn with its history.
type ChatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
	Context  *domain.ChatContext  `json:"context,omitempty"`
	Locale   string               `json:"locale,omitempty"`
}

// SourceRef identifies a retrieved chunk.
type SourceRef struct {
	Source  string  `json:"source"`
	Section string  `json:"section"`
	Score   float64 `json:"score"`
}

// IntentRef is the part of the classified intent reported to callers.
type IntentRef struct {
	Type     domain.IntentType `json:"type"`
	Category string            `json:"category,omitempty"`
}

// ChatMetadata travels beside the stream, never inside it.
type ChatMetadata struct {
	Sources   []SourceRef `json:"sources"`
	Intent    IntentRef   `json:"intent"`
	ToolsUsed []string    `json:"toolsUsed"`
}

// ChatResponse carries the raw completion stream. The caller must close
// Stream.
type ChatResponse struct {
	Stream   io.ReadCloser
	Metadata ChatMetadata
}

type RAGConfig struct {
	MaxTokens   int
	Temperature float32
}

// RAGService answers chat turns: classify, retrieve and run a tool
// concurrently, build the prompt, then stream the completion.
type RAGService struct {
	index      KnowledgeIndex
	indexer    *Indexer
	tools      ToolExecutor
	completion CompletionClient
	cfg        RAGConfig
	now        func() time.Time

	initMu      sync.Mutex
	initialized bool
}

func NewRAGService(index KnowledgeIndex, indexer *Indexer, toolExec ToolExecutor, completion CompletionClient, cfg RAGConfig) *RAGService {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	return &RAGService{
		index:      index,
		indexer:    indexer,
		tools:      toolExec,
		completion: completion,
		cfg:        cfg,
		now:        time.Now,
	}
}

// EnsureIndex loads the index, building it from source documents when no
// usable snapshot exists. It succeeds at most once per service; a failed
// attempt is retried on the next call.
func (s *RAGService) EnsureIndex(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.initialized {
		return nil
	}
	if err := s.index.Load(ctx); err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	if !s.index.IsReady() {
		if s.indexer == nil {
			return domain.ErrIndexUnavailable
		}
		log.Printf("rag: no usable index on disk, building from source documents")
		if _, err := s.indexer.Rebuild(ctx); err != nil {
			return err
		}
	}
	s.initialized = true
	return nil
}

// Chat runs one turn. Retrieval and tool failures only remove their context
// from the prompt; a completion failure is returned as an upstream error.
func (s *RAGService) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	query, ok := domain.LatestUserMessage(req.Messages)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, domain.ErrNoUserMessage
	}

	intent := ClassifyIntent(query, req.Context)
	meta := ChatMetadata{
		Sources:   []SourceRef{},
		Intent:    IntentRef{Type: intent.Type, Category: intent.Category},
		ToolsUsed: []string{},
	}

	var (
		knowledge  []domain.ScoredChunk
		toolName   string
		toolResult tools.Result
	)

	var g errgroup.Group
	if intent.NeedsRetrieval() {
		g.Go(func() error {
			knowledge = s.retrieve(ctx, query, intent)
			return nil
		})
	}
	if sel, ok := tools.Select(query, intent, req.Context, s.now()); ok && s.tools != nil {
		g.Go(func() error {
			toolResult = s.runTool(ctx, sel)
			if toolResult != nil {
				toolName = sel.Name
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, sc := range knowledge {
		meta.Sources = append(meta.Sources, SourceRef{Source: sc.Chunk.Source, Section: sc.Chunk.Section, Score: sc.Score})
	}
	if toolName != "" {
		meta.ToolsUsed = append(meta.ToolsUsed, toolName)
	}

	system := BuildSystemPrompt(PromptInput{
		Locale:    req.Locale,
		Intent:    intent,
		Context:   req.Context,
		Knowledge: knowledge,
		ToolName:  toolName,
		Tool:      toolResult,
	})

	stream, err := s.complete(ctx, system, req.Messages)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{Stream: stream, Metadata: meta}, nil
}

func (s *RAGService) retrieve(ctx context.Context, query string, intent domain.ClassifiedIntent) []domain.ScoredChunk {
	ctx, span := telemetry.StartSpan(ctx, "rag.retrieve", telemetry.SpanAttributes{
		Intent:   string(intent.Type),
		Category: intent.Category,
	})
	defer span.End()

	if err := s.EnsureIndex(ctx); err != nil {
		log.Printf("rag: retrieval skipped, index unavailable: %v", err)
		span.SetError(err)
		return nil
	}

	opts := vectorstore.SearchOptions{TopK: retrievalTopK}
	if intent.Type == domain.IntentRegulation {
		opts.Category = intent.Category
	}
	results, err := s.index.HybridSearch(ctx, query, opts)
	if err != nil {
		log.Printf("rag: retrieval failed, continuing without knowledge: %v", err)
		span.SetError(err)
		return nil
	}
	return results
}

func (s *RAGService) runTool(ctx context.Context, sel tools.Selection) tools.Result {
	ctx, span := telemetry.StartSpan(ctx, "rag.tool", telemetry.SpanAttributes{Tool: sel.Name})
	defer span.End()

	res, err := s.tools.Execute(ctx, sel.Name, sel.Args)
	if err != nil {
		log.Printf("rag: tool %s failed, continuing without tool data: %v", sel.Name, err)
		span.SetError(err)
		return nil
	}
	return res
}

func (s *RAGService) complete(ctx context.Context, system string, history []domain.ChatMessage) (io.ReadCloser, error) {
	ctx, span := telemetry.StartSpan(ctx, "rag.complete", telemetry.SpanAttributes{Operation: "completion"})
	defer span.End()

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, m := range history {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	stream, err := s.completion.StreamCompletion(ctx, messages, llm.CompletionParams{
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, domain.ErrCompletionFailed.Message, err)
	}
	return stream, nil
}

// Stats reports the knowledge index contents.
func (s *RAGService) Stats() domain.IndexStats {
	return s.index.Stats()
}
