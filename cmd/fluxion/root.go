// Package fluxion hosts the CLI: a root command and the run subcommand
// that drives the design pipeline end to end.
package fluxion

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
)

// NewRootCommand builds the fluxion command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "fluxion",
		Short: "LLM-driven preliminary process design pipeline",
		Long: "Fluxion turns a natural-language process design brief into a preliminary\n" +
			"engineering package: requirements, concept selection, design basis, PFD,\n" +
			"equipment and stream list, sizing, safety review and a final report.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is fine; explicit env vars still apply.
			_ = godotenv.Load()
			setupLogging()
		},
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to YAML config file")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newRunCommand())
	return root
}

func setupLogging() {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Execute runs the CLI and returns a process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
