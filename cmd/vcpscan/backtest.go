package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/newthinker/vcpscan/internal/app"
	"github.com/newthinker/vcpscan/internal/logger"
)

var (
	btFile string
	btFrom string
	btTo   string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [tickers...]",
	Short: "Backtest VCP entries over a historical window",
	Long: `Backtest replays the scoring pipeline over a historical window and
reports how often qualifying entries reached their price target.`,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVarP(&btFile, "file", "f", "", "CSV watchlist file")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "start date (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "end date (YYYY-MM-DD)")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	scanFile = btFile
	symbols, err := resolveSymbols(args)
	if err != nil {
		return err
	}

	start, err := time.Parse("2006-01-02", btFrom)
	if err != nil {
		return fmt.Errorf("invalid from date: %w", err)
	}
	end, err := time.Parse("2006-01-02", btTo)
	if err != nil {
		return fmt.Errorf("invalid to date: %w", err)
	}
	if !end.After(start) {
		return fmt.Errorf("end date must be after start date")
	}

	a := app.New(cfg, log, nil)
	summary := a.Backtest(context.Background(), symbols, start, end)

	fmt.Printf("Backtest %s to %s\n", btFrom, btTo)
	fmt.Printf("  Entries evaluated: %d\n", summary.Evaluated)
	fmt.Printf("  Success rate:      %.2f%%\n", summary.SuccessRate)
	if len(summary.Records) > 0 {
		fmt.Printf("\n%-8s %10s %10s %10s %10s %10s %8s\n",
			"Stock", "VCP Score", "Entry", "Stop", "Target", "Max Close", "Hit")
		for _, r := range summary.Records {
			hit := "no"
			if r.Success {
				hit = "yes"
			}
			fmt.Printf("%-8s %10.2f %10.2f %10.2f %10.2f %10.2f %8s\n",
				r.Symbol, r.VCPScore, r.EntryPrice, r.StopLoss, r.TargetPrice, r.MaxFuturePrice, hit)
		}
	}

	return nil
}
