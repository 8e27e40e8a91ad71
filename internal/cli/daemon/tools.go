package daemon

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/motomarket/motorag/internal/cli"
	"github.com/motomarket/motorag/internal/config"
	"github.com/motomarket/motorag/internal/database"
	"github.com/motomarket/motorag/internal/repository"
	"github.com/motomarket/motorag/internal/tools"
	"github.com/spf13/cobra"
)

// ToolsCmd prints the function-calling definitions the engine offers.
func ToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print tool definitions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, tools.NewDefaultRegistry(nil, nil).Definitions())
		},
	}

	cmd.AddCommand(ToolsRunCmd())

	return cmd
}

func ToolsRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <name> [json-args]",
		Short: "Execute one tool and print its tagged result",
		Long:  "Execute a tool with JSON arguments. Data tools use MOTORAG_DATABASE_URL when it is set.",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runToolsRun,
		Annotations: map[string]string{
			cli.EnvAnnotation: "MOTORAG_DATABASE_URL",
		},
	}
}

func runToolsRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var listings tools.ListingSource
	var coe tools.COESource
	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL, MaxConns: cfg.DatabaseMaxConns})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		listings = repository.NewListingRepository(pool)
		coe = repository.NewCOERepository(pool)
	}

	rawArgs := json.RawMessage("{}")
	if len(args) == 2 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("arguments must be a JSON object")
		}
		rawArgs = json.RawMessage(args[1])
	}

	res, err := tools.NewDefaultRegistry(listings, coe).Execute(ctx, args[0], rawArgs)
	if err != nil {
		return err
	}
	return printJSON(cmd, tools.Envelope{Tool: args[0], Result: res})
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
