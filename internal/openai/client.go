package openai

import (
	"context"
	"errors"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	// DefaultEmbeddingModel is the model used for chunk and query embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultBatchSize caps the number of inputs sent per embedding request
	DefaultBatchSize = 16
)

// ErrEmbeddingCount is returned when the API answers with a different
// number of vectors than inputs.
var ErrEmbeddingCount = errors.New("embedding count does not match input count")

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([]openai.Embedding, error)
}

// Client batches texts to the embedding API.
type Client struct {
	api       EmbeddingAPI
	batchSize int
	limiter   *rate.Limiter
}

type OpenAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIAdapter(apiKey, baseURL string, model openai.EmbeddingModel) *OpenAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([]openai.Embedding, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

type Config struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel openai.EmbeddingModel
	BatchSize      int
	// RequestsPerSecond paces embedding batches. Zero means unlimited.
	RequestsPerSecond float64
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	return newClient(NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, cfg.EmbeddingModel), cfg.BatchSize, cfg.RequestsPerSecond)
}

func newClient(api EmbeddingAPI, batchSize int, rps float64) *Client {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		api:       api,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// EmbedTexts embeds texts in sequential batches and returns vectors in
// input order.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		data, err := c.api.CreateEmbeddings(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings for batch %d-%d: %w", start, end, err)
		}
		if len(data) != len(batch) {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrEmbeddingCount, len(data), len(batch))
		}

		sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })
		for _, d := range data {
			out = append(out, d.Embedding)
		}
	}
	return out, nil
}
