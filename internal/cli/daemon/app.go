// Package daemon holds the motoragd commands and the wiring they share.
package daemon

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/motomarket/motorag/internal/cache"
	"github.com/motomarket/motorag/internal/config"
	"github.com/motomarket/motorag/internal/content"
	"github.com/motomarket/motorag/internal/database"
	llm "github.com/motomarket/motorag/internal/openai"
	"github.com/motomarket/motorag/internal/repository"
	"github.com/motomarket/motorag/internal/service"
	"github.com/motomarket/motorag/internal/storage"
	"github.com/motomarket/motorag/internal/tools"
	"github.com/motomarket/motorag/internal/vectorstore"
	openai "github.com/sashabaranov/go-openai"
)

type appOptions struct {
	migrate       bool
	migrationsDir string
}

// app is every long-lived component of the engine, built once per process.
type app struct {
	cfg      *config.Config
	pool     *pgxpool.Pool
	index    *vectorstore.Store
	indexer  *service.Indexer
	registry *tools.Registry
	rag      *service.RAGService
	cache    *cache.ResponseCache
}

func buildApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg}

	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL, MaxConns: cfg.DatabaseMaxConns})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.pool = pool
		log.Println("connected to database")

		if opts.migrate {
			if err := database.Migrate(cfg.DatabaseURL, opts.migrationsDir); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
	} else {
		log.Println("warning: no database configured, data tools disabled and cache is memory only")
	}

	source, err := contentSource(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var embedder vectorstore.Embedder
	if cfg.HasOpenAI() {
		embedder = llm.NewClientWithConfig(llm.Config{
			APIKey:            cfg.OpenAIAPIKey,
			BaseURL:           cfg.OpenAIBaseURL,
			EmbeddingModel:    openai.EmbeddingModel(cfg.EmbeddingModel),
			RequestsPerSecond: cfg.EmbeddingRate,
		})
	} else {
		log.Println("warning: no OpenAI API key configured, retrieval is keyword only")
	}

	a.index = vectorstore.New(cfg.IndexPath, embedder)
	a.indexer = service.NewIndexer(content.NewLoader(source), service.NewChunker(service.DefaultChunkConfig()), a.index)

	var listings tools.ListingSource
	var coe tools.COESource
	var store cache.Store
	if a.pool != nil {
		listings = repository.NewListingRepository(a.pool)
		coe = repository.NewCOERepository(a.pool)
		store = repository.NewResponseCacheRepository(a.pool)
	}
	a.registry = tools.NewDefaultRegistry(listings, coe)

	completion := llm.NewChatClient(llm.ChatConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.ChatModel,
	})
	a.rag = service.NewRAGService(a.index, a.indexer, a.registry, completion, service.RAGConfig{
		MaxTokens:   cfg.ChatMaxTokens,
		Temperature: cfg.ChatTemperature,
	})

	a.cache, err = cache.New(cache.Config{MaxEntries: cfg.CacheMaxEntries}, store)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}

	return a, nil
}

func contentSource(ctx context.Context, cfg *config.Config) (content.Source, error) {
	if !cfg.HasS3Content() {
		log.Printf("content: reading documents from %s", cfg.ContentDir)
		return content.NewDirSource(cfg.ContentDir), nil
	}

	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.ContentS3Bucket,
		UsePathStyle:    cfg.S3Endpoint != "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	log.Printf("content: reading documents from s3://%s/%s", cfg.ContentS3Bucket, cfg.ContentS3Prefix)
	return content.NewS3Source(client, cfg.ContentS3Prefix), nil
}

// Close waits for background cache writes and releases the database pool.
func (a *app) Close() {
	if a.cache != nil {
		a.cache.Wait()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
