package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ConsensusBot/internal/di"
	"ConsensusBot/pkg/config"
)

// serveCmd runs the engine as a long-lived service.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine with the HTTP control API",
	Long: `Run the engine, the market data feed and the HTTP control API until
interrupted. The engine starts stopped unless engine.auto_start is set;
use POST /api/engine/start to begin trading.

Examples:
  consensusbot serve
  consensusbot serve --config config/paper.yaml
  SYMBOLS=AAPL,MSFT VENUE=paper consensusbot serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx)
}
