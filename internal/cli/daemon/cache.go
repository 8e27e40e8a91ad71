package daemon

import (
	"context"
	"fmt"

	"github.com/motomarket/motorag/internal/cache"
	"github.com/motomarket/motorag/internal/cli"
	"github.com/motomarket/motorag/internal/config"
	"github.com/motomarket/motorag/internal/database"
	"github.com/motomarket/motorag/internal/repository"
	"github.com/spf13/cobra"
)

func CacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	cmd.AddCommand(CacheSweepCmd())

	return cmd
}

func CacheSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired cached responses",
		Long:  "Remove every expired row from the persistent response cache",
		Args:  cobra.NoArgs,
		RunE:  runCacheSweep,
		Annotations: map[string]string{
			cli.EnvAnnotation: "MOTORAG_DATABASE_URL",
		},
	}
}

func runCacheSweep(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasDatabase() {
		return fmt.Errorf("MOTORAG_DATABASE_URL is required")
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL, MaxConns: cfg.DatabaseMaxConns})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	rc, err := cache.New(cache.Config{MaxEntries: cfg.CacheMaxEntries}, repository.NewResponseCacheRepository(pool))
	if err != nil {
		return fmt.Errorf("failed to create response cache: %w", err)
	}

	result, err := rc.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep response cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", result.Persistent)
	return nil
}
