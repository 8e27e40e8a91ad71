package daemon

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/motomarket/motorag/internal/cli"
	"github.com/motomarket/motorag/internal/config"
	"github.com/motomarket/motorag/internal/domain"
	llm "github.com/motomarket/motorag/internal/openai"
	"github.com/motomarket/motorag/internal/service"
	"github.com/spf13/cobra"
)

// AskCmd runs a single chat turn and streams the answer to stdout.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant a question",
		Long:  "Run one chat turn through retrieval and tools, streaming the answer to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
		Annotations: map[string]string{
			cli.EnvAnnotation: "MOTORAG_OPENAI_API_KEY,MOTORAG_DATABASE_URL,MOTORAG_INDEX_PATH",
		},
	}

	cmd.Flags().String("locale", "", "Answer language (en, zh, ms, ta)")
	cmd.Flags().Bool("sources", false, "Print retrieved sources and tools to stderr")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	locale, _ := cmd.Flags().GetString("locale")
	showSources, _ := cmd.Flags().GetBool("sources")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("MOTORAG_OPENAI_API_KEY is required")
	}

	a, err := buildApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.rag.Chat(ctx, service.ChatRequest{
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: strings.Join(args, " ")}},
		Locale:   strings.ToLower(strings.TrimSpace(locale)),
	})
	if err != nil {
		return err
	}
	defer resp.Stream.Close()

	if err := printAnswer(cmd.OutOrStdout(), resp.Stream); err != nil {
		return err
	}

	if showSources {
		printMetadata(os.Stderr, resp.Metadata)
	}
	return nil
}

func printAnswer(w io.Writer, stream io.Reader) error {
	err := llm.ReadDeltas(stream, func(delta string) error {
		_, err := io.WriteString(w, delta)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to read answer: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

func printMetadata(w io.Writer, md service.ChatMetadata) {
	fmt.Fprintf(w, "intent: %s", md.Intent.Type)
	if md.Intent.Category != "" {
		fmt.Fprintf(w, " (%s)", md.Intent.Category)
	}
	fmt.Fprintln(w)
	for _, s := range md.Sources {
		fmt.Fprintf(w, "source: %s#%s (%.3f)\n", s.Source, s.Section, s.Score)
	}
	if len(md.ToolsUsed) > 0 {
		fmt.Fprintf(w, "tools: %s\n", strings.Join(md.ToolsUsed, ", "))
	}
}
