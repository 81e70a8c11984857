package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "termlink",
	Short: "Risk-bounded order sizing and paired-order execution for trading terminals",
	Long: `Termlink is a trading-terminal client that sizes orders from account
risk, normalizes them to the instrument's constraints, and runs paired
pending orders to resolution (one leg fills, the other is cancelled).

It provides tools for:
  - Sizing positions from a fixed fraction of account equity
  - Normalizing volumes, prices and protective stops to broker limits
  - Running straddle and hedge order pairs against a terminal gateway
  - Journaling submissions and pair outcomes to CSV or SQLite
  - Exploring the order machinery offline with an in-memory terminal`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
