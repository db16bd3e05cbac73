package cmd

import (
	"fmt"

	"github.com/mselser95/parimutuel-house/internal/app"
	"github.com/mselser95/parimutuel-house/internal/scenario"
	"github.com/mselser95/parimutuel-house/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the house ledger",
	Long: `Starts the house and serves:
1. Bet, position, pool and reward-rate views under /api
2. Committed ledger events on the /ws/events WebSocket
3. Prometheus metrics, /health and /ready

Events are also written to the configured storage (console or postgres).

Use --seed to replay a scenario file into the served house on start.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("seed", "s", "", "Scenario file replayed into the house on start")
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create logger
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	opts := &app.Options{}

	seedPath, _ := cmd.Flags().GetString("seed")
	if seedPath != "" {
		opts.Seed, err = scenario.Load(seedPath)
		if err != nil {
			return fmt.Errorf("load seed scenario: %w", err)
		}
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	// Run app
	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
