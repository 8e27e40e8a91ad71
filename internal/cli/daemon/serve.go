package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/motomarket/motorag/internal/api/handlers"
	"github.com/motomarket/motorag/internal/cli"
	"github.com/motomarket/motorag/internal/config"
	"github.com/motomarket/motorag/internal/database"
	"github.com/motomarket/motorag/internal/jobs"
	"github.com/motomarket/motorag/internal/server"
	"github.com/motomarket/motorag/internal/telemetry"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the motorag chat API on the specified port",
		RunE:  runServe,
		Annotations: map[string]string{
			cli.EnvAnnotation: "MOTORAG_PORT,MOTORAG_DATABASE_URL,MOTORAG_OPENAI_API_KEY,MOTORAG_CONTENT_DIR,MOTORAG_CONTENT_S3_BUCKET,MOTORAG_INDEX_PATH,MOTORAG_CACHE_TTL,MOTORAG_SENTRY_DSN,MOTORAG_ADMIN_TOKEN",
		},
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides MOTORAG_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().String("migrations", database.DefaultMigrationsDir, "Directory holding SQL migrations")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: telemetry.SampleRate(cfg.Environment),
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Printf("telemetry init failed (continuing without tracing): %v", err)
	} else {
		defer shutdownTelemetry()
	}
	if !cfg.HasSentry() {
		log.Println("sentry: MOTORAG_SENTRY_DSN not set, error reporting disabled")
	}

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	migrationsDir, _ := cmd.Flags().GetString("migrations")

	a, err := buildApp(ctx, cfg, appOptions{migrate: !noMigrate, migrationsDir: migrationsDir})
	if err != nil {
		return err
	}
	defer a.Close()

	// Warm the index so the first chat turn does not pay for the build.
	go func() {
		if err := a.rag.EnsureIndex(ctx); err != nil {
			log.Printf("warning: index not ready at startup: %v", err)
		}
	}()

	sweeper := jobs.NewWorker("cache-sweep", jobs.NewCacheSweeper(a.cache), cfg.CacheSweepInterval,
		jobs.WithRunOnStart(), jobs.WithPassTimeout(time.Minute))
	go sweeper.Start(ctx)

	if !cfg.HasAdminToken() {
		log.Println("warning: MOTORAG_ADMIN_TOKEN not set, admin endpoints are disabled")
	}

	router := server.NewRouter(server.RouterConfig{
		AdminToken:    cfg.AdminToken,
		ChatHandler:   handlers.NewChatHandler(a.rag, a.cache, cfg.CacheTTL),
		AdminHandler:  handlers.NewAdminHandler(a.indexer, a.rag, a.registry),
		HealthHandler: handlers.NewHealthHandler(a.index),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
