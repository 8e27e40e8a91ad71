package main

import (
	"fmt"
	"os"

	"github.com/motomarket/motorag/internal/cli"
	"github.com/motomarket/motorag/internal/cli/daemon"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "motoragd",
		Short: "Motorcycle marketplace assistant",
		Long:  "motoragd serves the marketplace chat API and manages its knowledge index and response cache",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(daemon.ServeCmd())
	rootCmd.AddCommand(daemon.IndexCmd())
	rootCmd.AddCommand(daemon.AskCmd())
	rootCmd.AddCommand(daemon.CacheCmd())
	rootCmd.AddCommand(daemon.ToolsCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
