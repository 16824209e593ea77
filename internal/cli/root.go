// Package cli implements the shelver CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeanpaul/shelver/internal/config"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "shelver",
	Short: "Deterministic storage routing for AI assistants",
	Long: "shelver routes classified storage requests to backend stores through an\n" +
		"ordered, versioned decision table, and gates rule-set changes with a\n" +
		"replayable validation harness.",
	SilenceUsage: true,
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}
	return cfg
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
