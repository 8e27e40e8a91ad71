package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultChatModel is the model used for chat completions
const DefaultChatModel = openai.GPT4oMini

// responseHeaderTimeout bounds the wait for the first response headers. The
// body is a stream and is bounded only by the request context.
const responseHeaderTimeout = 2 * time.Minute

// StatusError is returned when the completion endpoint answers with a
// non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion api returned status %d: %s", e.StatusCode, e.Body)
}

type ChatConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// CompletionParams are the generation settings sent with each request.
type CompletionParams struct {
	MaxTokens   int
	Temperature float32
}

// ChatClient requests streaming chat completions and hands back the raw
// event stream.
type ChatClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

func NewChatClient(cfg ChatConfig) *ChatClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openai.DefaultConfig("").BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = responseHeaderTimeout
		httpClient = &http.Client{Transport: transport}
	}
	return &ChatClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    httpClient,
	}
}

func (c *ChatClient) Model() string {
	return c.model
}

// StreamCompletion posts a streaming completion request. The caller owns the
// returned body and must close it. Cancelling ctx stops the stream.
func (c *ChatClient) StreamCompletion(ctx context.Context, messages []openai.ChatCompletionMessage, params CompletionParams) (io.ReadCloser, error) {
	payload, err := json.Marshal(openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Stream:      true,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call completion api: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return resp.Body, nil
}
