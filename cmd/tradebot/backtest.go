package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ThomasGit2000/trading-bot/internal/app"
	"github.com/ThomasGit2000/trading-bot/internal/backtest"
	"github.com/spf13/cobra"
)

var (
	backtestPreset   string
	backtestPeriod   string
	backtestCapital  float64
	backtestSize     int
	backtestJSON     bool
	backtestStrategy string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest SYMBOL",
	Short: "Run a backtest on one symbol",
	Long:  "Run a strategy preset against the symbol's daily bars and show performance statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVarP(&backtestPreset, "preset", "p", "", "strategy preset (default from config)")
	backtestCmd.Flags().StringVar(&backtestStrategy, "strategy-file", "", "JSON strategy config used instead of a preset")
	backtestCmd.Flags().StringVar(&backtestPeriod, "period", "", "history period: 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", 0, "initial capital")
	backtestCmd.Flags().IntVar(&backtestSize, "size", 0, "shares bought per entry")
	backtestCmd.Flags().BoolVar(&backtestJSON, "json", false, "print the full result as JSON")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	a, _, log, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	req := app.RunRequest{
		Symbol:         args[0],
		Preset:         backtestPreset,
		Period:         backtestPeriod,
		InitialCapital: backtestCapital,
		PositionSize:   backtestSize,
	}
	if backtestStrategy != "" {
		sc, err := loadStrategyFile(backtestStrategy)
		if err != nil {
			return err
		}
		req.Config = &sc
	}

	out, err := a.Backtest(cmd.Context(), req)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if backtestJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printOutcome(w, out)
	return nil
}

func printOutcome(w io.Writer, out *app.Outcome) {
	backtest.WriteReport(w, out.Result)
	fmt.Fprintln(w)
	if b := out.Benchmark; b != nil {
		fmt.Fprintf(w, "  Buy & Hold:       %+.2f%% (%d @ $%.2f -> $%.2f)\n",
			b.ReturnPct, b.Quantity, b.EntryPrice, b.ExitPrice)
		fmt.Fprintf(w, "  Excess Return:    %+.2f%%\n", out.Result.Stats.TotalReturnPct-b.ReturnPct)
	}
	fmt.Fprintf(w, "  Run ID:           %s\n", out.RunID)
	if out.ArchiveKey != "" {
		fmt.Fprintf(w, "  Archived:         %s\n", out.ArchiveKey)
	}
}
