package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd is the base command for the ConsensusBot CLI.
var rootCmd = &cobra.Command{
	Use:   "consensusbot",
	Short: "Multi-strategy consensus trading-signal engine",
	Long: `ConsensusBot scans a set of symbols, combines the votes of several
technical strategies into one signal per symbol, sizes and executes trades
and stops for the day once the profit goal, trade cap or loss limit is hit.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to the YAML configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
