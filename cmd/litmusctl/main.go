package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/litmus-ai/backend/internal/config"
	"github.com/litmus-ai/backend/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:          "litmusctl",
	Short:        "Operator tooling for the LitmusAI backend",
	Long:         "litmusctl runs schema migrations, seeds catalog fixtures and drafts new assessment questions.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("catalog-dir", "", "Catalog fixture directory (overrides CATALOG_DIR)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(generateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig reads configuration and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level, true)
	if dir, _ := cmd.Flags().GetString("catalog-dir"); dir != "" {
		cfg.Catalog.Dir = dir
	}
	return cfg, nil
}
