package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ConsensusBot/internal/di"
	"ConsensusBot/internal/usecase"
	"ConsensusBot/pkg/config"
	applogger "ConsensusBot/pkg/logger"
	"ConsensusBot/pkg/util"
)

// replayCmd runs the engine over recorded bars with the paper venue.
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a CSV price history through the engine",
	Long: `Run the engine cycle by cycle over a CSV of
timestamp,symbol,open,high,low,close,volume rows using the paper venue,
then print the final performance snapshot and stats as JSON.

Trading days follow engine.timezone; after a daily halt the rest of that
day is skipped. Kafka, Redis and ClickHouse are not used.

Examples:
  consensusbot replay --csv testdata/aapl_1m.csv
  consensusbot replay --csv bars.csv --symbols AAPL,MSFT --balance 25000`,
	RunE: runReplay,
}

var (
	replayCSV     string
	replaySymbols string
	replayBalance float64
	replayOutput  string
)

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVar(&replayCSV, "csv", "", "CSV file with recorded bars")
	replayCmd.Flags().StringVar(&replaySymbols, "symbols", "", "Comma-separated symbols (default: every symbol in the CSV)")
	replayCmd.Flags().Float64Var(&replayBalance, "balance", 0, "Starting balance (default: engine.starting_balance)")
	replayCmd.Flags().StringVar(&replayOutput, "output", "", "Output file (default: stdout)")
	_ = replayCmd.MarkFlagRequired("csv")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithOverrides(configPath, func(c *config.Config) {
		c.Feed.Type = "replay"
		c.Feed.ReplayCSV = replayCSV
		c.Venue.Type = "paper"
		c.Venue.Paper.PollInterval = 0
		c.Kafka.Enabled = false
		c.Redis.Enabled = false
		c.ClickHouse.Enabled = false
		c.Engine.SymbolDelay = 0
		if replayBalance > 0 {
			c.Engine.StartingBalance = replayBalance
		}
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	l, cleanup, err := di.ProvideLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	feed, err := di.ProvideFeed(cfg, nil, l)
	if err != nil {
		return err
	}
	if replaySymbols != "" {
		cfg.Engine.Symbols = util.UpperAll(util.SplitList(replaySymbols))
	} else {
		cfg.Engine.Symbols = feed.Replay.Symbols()
	}
	if len(cfg.Engine.Symbols) == 0 {
		return fmt.Errorf("no bars in %s", replayCSV)
	}

	venue, err := di.ProvideVenue(cfg, feed)
	if err != nil {
		return err
	}
	m := di.ProvideMetrics(di.ProvideRegistry())
	engine, err := di.ProvideEngine(cfg, feed, venue, di.ProvideClassifier(cfg), m, l)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, _ := util.LoadLocation(cfg.Engine.Timezone)
	res, err := usecase.RunReplay(ctx, engine, feed.Replay, loc, l)
	if err != nil {
		l.Error("replay aborted", applogger.Error(err))
		return err
	}
	return writeJSON(res, replayOutput)
}

func writeJSON(v any, path string) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
