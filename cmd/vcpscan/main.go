package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "vcpscan",
	Short: "vcpscan - Volatility Contraction Pattern scanner",
	Long: `vcpscan screens an equity watchlist for the Volatility Contraction
Pattern, ranks candidates by composite confidence score, and validates
the setup's historical success rate via backtesting.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
