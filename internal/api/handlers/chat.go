package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/motomarket/motorag/internal/api"
	"github.com/motomarket/motorag/internal/cache"
	"github.com/motomarket/motorag/internal/domain"
	llm "github.com/motomarket/motorag/internal/openai"
	"github.com/motomarket/motorag/internal/service"
	"github.com/motomarket/motorag/internal/telemetry"
)

const (
	chatEndpoint     = "chat"
	maxChatMessages  = 50
	streamBufferSize = 4096
)

const (
	HeaderCache   = "X-Cache"
	HeaderSources = "X-RAG-Sources"
	HeaderIntent  = "X-RAG-Intent"
	HeaderTools   = "X-RAG-Tools"
)

type ChatService interface {
	Chat(ctx context.Context, req service.ChatRequest) (*service.ChatResponse, error)
}

// ResponseCache stores complete chat answers.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, endpoint, response string, ttl time.Duration)
}

type ChatHandler struct {
	svc   ChatService
	cache ResponseCache
	ttl   time.Duration
}

// NewChatHandler creates a chat handler. cache may be nil to disable caching.
func NewChatHandler(svc ChatService, cache ResponseCache, ttl time.Duration) *ChatHandler {
	return &ChatHandler{svc: svc, cache: cache, ttl: ttl}
}

type ChatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
	Context  *domain.ChatContext  `json:"context,omitempty"`
	Locale   string               `json:"locale,omitempty"`
}

// cachedChat is what the cache stores for one answer. Metadata is kept so a
// replay carries the same headers as the original response.
type cachedChat struct {
	Text     string               `json:"text"`
	Metadata service.ChatMetadata `json:"metadata"`
}

// Chat answers one turn as a server-sent event stream in the completion
// API's frame format.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Messages) == 0 {
		api.Error(w, http.StatusBadRequest, "messages is required")
		return
	}
	if len(req.Messages) > maxChatMessages {
		api.Error(w, http.StatusBadRequest, "too many messages")
		return
	}
	req.Locale = strings.ToLower(strings.TrimSpace(req.Locale))

	key := h.cacheKey(req)
	if key != "" {
		if hit, ok := h.lookup(r.Context(), key); ok {
			telemetry.AddBreadcrumb(r.Context(), "cache", "chat answer served from cache")
			writeStreamHeaders(w, hit.Metadata, "HIT")
			w.WriteHeader(http.StatusOK)
			stream := llm.SyntheticStream(hit.Text)
			defer stream.Close()
			if _, err := io.Copy(w, stream); err != nil {
				log.Printf("chat: failed to replay cached answer: %v", err)
			}
			return
		}
	}

	resp, err := h.svc.Chat(r.Context(), service.ChatRequest{
		Messages: req.Messages,
		Context:  req.Context,
		Locale:   req.Locale,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}
	defer resp.Stream.Close()

	writeStreamHeaders(w, resp.Metadata, "MISS")
	w.WriteHeader(http.StatusOK)

	raw, err := relay(w, resp.Stream)
	if err != nil {
		// client gone or upstream cut off; a partial answer is never cached
		log.Printf("chat: stream ended early: %v", err)
		return
	}

	if key == "" {
		return
	}
	text, err := llm.CollectAnswer(bytes.NewReader(raw))
	if err != nil {
		// upstream closed cleanly but mid-answer
		log.Printf("chat: not caching answer: %v", err)
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	payload, err := json.Marshal(cachedChat{Text: text, Metadata: resp.Metadata})
	if err != nil {
		return
	}
	h.cache.Set(r.Context(), key, chatEndpoint, string(payload), h.ttl)
}

func (h *ChatHandler) cacheKey(req ChatRequest) string {
	if h.cache == nil || h.ttl <= 0 {
		return ""
	}
	key, err := cache.GenerateKey(chatEndpoint, req)
	if err != nil {
		log.Printf("chat: cache disabled for request: %v", err)
		return ""
	}
	return key
}

func (h *ChatHandler) lookup(ctx context.Context, key string) (*cachedChat, bool) {
	raw, ok := h.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var hit cachedChat
	if err := json.Unmarshal([]byte(raw), &hit); err != nil || hit.Text == "" {
		log.Printf("chat: ignoring unreadable cache entry")
		return nil, false
	}
	return &hit, true
}

// relay copies the upstream stream to the client, flushing after every
// read, and returns everything it forwarded.
func relay(w http.ResponseWriter, stream io.Reader) ([]byte, error) {
	rc := http.NewResponseController(w)
	var captured bytes.Buffer
	buf := make([]byte, streamBufferSize)

	for {
		n, readErr := stream.Read(buf)
		if n > 0 {
			captured.Write(buf[:n])
			if _, err := w.Write(buf[:n]); err != nil {
				return nil, err
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return nil, err
			}
		}
		if readErr == io.EOF {
			return captured.Bytes(), nil
		}
		if readErr != nil {
			return nil, readErr
		}
	}
}

func writeStreamHeaders(w http.ResponseWriter, meta service.ChatMetadata, cacheStatus string) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set(HeaderCache, cacheStatus)

	if sources, err := json.Marshal(meta.Sources); err == nil {
		h.Set(HeaderSources, string(sources))
	}
	h.Set(HeaderIntent, string(meta.Intent.Type))
	if meta.Intent.Category != "" {
		h.Set(HeaderIntent+"-Category", meta.Intent.Category)
	}
	h.Set(HeaderTools, strings.Join(meta.ToolsUsed, ","))
}
