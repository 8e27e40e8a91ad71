package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/motomarket/motorag/internal/cli"
	"github.com/motomarket/motorag/internal/config"
	"github.com/spf13/cobra"
)

// IndexCmd rebuilds the knowledge index from the content store and writes
// the snapshot.
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the knowledge index",
		Long:  "Load every knowledge-base document, chunk and embed it, and persist the index snapshot",
		Args:  cobra.NoArgs,
		RunE:  runIndex,
		Annotations: map[string]string{
			cli.EnvAnnotation: "MOTORAG_OPENAI_API_KEY,MOTORAG_CONTENT_DIR,MOTORAG_CONTENT_S3_BUCKET,MOTORAG_INDEX_PATH",
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a, err := buildApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.indexer.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("Indexed %d documents into %d chunks in %dms\n", result.Documents, result.Chunks, result.DurationMS)
	if !result.Embedded {
		fmt.Printf("Warning: chunks stored without embeddings, retrieval is keyword only")
		if result.EmbedError != "" {
			fmt.Printf(" (%s)", result.EmbedError)
		}
		fmt.Println()
	}
	fmt.Printf("Snapshot: %s\n", cfg.IndexPath)
	return nil
}
