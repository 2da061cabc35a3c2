package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"storyteller/pkg/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "storyteller",
	Short: "Emotion-driven storytelling service",
	Long: `Storyteller turns a story into an ordered script of dialogue and narration
and hands it to an emotion detection backend.

Stories come from an uploaded .txt or .pdf script or are generated by a
Gemini or OpenAI-compatible model.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./storyteller.yaml if present)",
	)

	rootCmd.AddCommand(serveCmd, normalizeCmd, extractCmd, generateCmd, scriptCmd)
}

// loadConfig reads and validates configuration and installs the root logger
// as the package default.
func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.Logger(os.Stderr)
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
