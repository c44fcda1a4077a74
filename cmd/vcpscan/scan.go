package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/vcpscan/internal/app"
	"github.com/newthinker/vcpscan/internal/config"
	"github.com/newthinker/vcpscan/internal/logger"
	"github.com/newthinker/vcpscan/internal/scanner"
)

var (
	scanFile string
	scanOut  string
)

var scanCmd = &cobra.Command{
	Use:   "scan [tickers...]",
	Short: "Scan a watchlist for VCP setups",
	Long: `Scan ranks tickers by VCP confidence combined with institutional,
market, and sector context. Tickers come from arguments or from a CSV
watchlist with a "ticker" column.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanFile, "file", "f", "", "CSV watchlist file")
	scanCmd.Flags().StringVarP(&scanOut, "out", "o", "", "write ranked results to a CSV file")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	symbols, err := resolveSymbols(args)
	if err != nil {
		return err
	}

	a := app.New(cfg, log, nil)
	results := a.Scan(context.Background(), symbols)

	if len(results) == 0 {
		fmt.Println("No setups found.")
		return nil
	}

	fmt.Printf("%-8s %10s %14s %10s %8s %12s\n",
		"Stock", "VCP Score", "Institutional", "Market", "Sector", "Final Score")
	for _, r := range results {
		sector := "-"
		if r.OutperformsSector {
			sector = "beats"
		}
		fmt.Printf("%-8s %10.2f %14.2f %10.2f %8s %12.2f\n",
			r.Symbol, r.VCPScore, r.Institutional, r.MarketStrength, sector, r.FinalScore)
	}

	if scanOut != "" {
		f, err := os.Create(scanOut)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		if err := scanner.WriteCSV(f, results); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		log.Info("results exported", zap.String("path", scanOut))
	}

	return nil
}

// loadConfig loads and validates configuration, falling back to
// defaults when no file is given.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		cfg.Polygon.APIKey = os.Getenv("POLYGON_API_KEY")
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// resolveSymbols merges command arguments with an optional watchlist
// file.
func resolveSymbols(args []string) ([]string, error) {
	var symbols []string
	for _, a := range args {
		a = strings.ToUpper(strings.TrimSpace(a))
		if a != "" {
			symbols = append(symbols, a)
		}
	}

	if scanFile != "" {
		f, err := os.Open(scanFile)
		if err != nil {
			return nil, fmt.Errorf("opening watchlist: %w", err)
		}
		defer f.Close()

		fromFile, err := scanner.ParseWatchlist(f)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, fromFile...)
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("no tickers given: pass arguments or --file")
	}
	return symbols, nil
}
