package main

import (
	"fmt"
	"io"

	"github.com/ThomasGit2000/trading-bot/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	sweepSymbols []string
	sweepPresets []string
	sweepPeriod  string
	sweepWorkers int
	sweepTop     int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run every preset against every symbol in parallel",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().StringSliceVar(&sweepSymbols, "symbols", nil, "symbols to sweep (default backtest.symbols from config)")
	sweepCmd.Flags().StringSliceVar(&sweepPresets, "presets", nil, "presets to run (default all)")
	sweepCmd.Flags().StringVar(&sweepPeriod, "period", "", "history period")
	sweepCmd.Flags().IntVarP(&sweepWorkers, "workers", "w", 0, "parallel runs (default backtest.workers from config)")
	sweepCmd.Flags().IntVar(&sweepTop, "top", 0, "only print the best N rows")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	a, cfg, log, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	symbols := sweepSymbols
	if len(symbols) == 0 {
		symbols = cfg.Backtest.Symbols
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols: pass --symbols or set backtest.symbols")
	}
	workers := sweepWorkers
	if workers <= 0 {
		workers = cfg.Backtest.Workers
	}

	log.Info("starting sweep",
		zap.Int("symbols", len(symbols)),
		zap.Int("workers", workers),
	)

	rows, err := a.Sweep(cmd.Context(), app.RunRequest{Period: sweepPeriod}, symbols, sweepPresets, workers)
	if err != nil {
		return err
	}
	printSweep(cmd.OutOrStdout(), rows, sweepTop)
	return nil
}

func printSweep(w io.Writer, rows []app.SweepRow, top int) {
	fmt.Fprintf(w, "%-8s %-14s %9s %9s %8s %7s\n", "SYMBOL", "PRESET", "RETURN", "B&H", "MAX DD", "TRADES")

	printed, failed := 0, 0
	for _, row := range rows {
		if row.Err != nil {
			failed++
			continue
		}
		if top > 0 && printed >= top {
			continue
		}
		s := row.Outcome.Result.Stats
		bench := "-"
		if b := row.Outcome.Benchmark; b != nil {
			bench = fmt.Sprintf("%+.2f%%", b.ReturnPct)
		}
		fmt.Fprintf(w, "%-8s %-14s %+8.2f%% %9s %7.2f%% %7d\n",
			row.Symbol, row.Preset, s.TotalReturnPct, bench, s.MaxDrawdownPct, s.TotalTrades)
		printed++
	}

	if failed > 0 {
		fmt.Fprintf(w, "\n%d runs failed:\n", failed)
		for _, row := range rows {
			if row.Err != nil {
				fmt.Fprintf(w, "  %-8s %-14s %v\n", row.Symbol, row.Preset, row.Err)
			}
		}
	}
}
