package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ThomasGit2000/trading-bot/internal/app"
	"github.com/spf13/cobra"
)

var (
	comparePresets []string
	comparePeriod  string
)

var compareCmd = &cobra.Command{
	Use:   "compare SYMBOL",
	Short: "Compare strategy presets on one symbol against buy-and-hold",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringSliceVar(&comparePresets, "presets", nil, "presets to compare (default all)")
	compareCmd.Flags().StringVar(&comparePeriod, "period", "", "history period")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	a, _, log, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	outs, err := a.Compare(cmd.Context(), app.RunRequest{Symbol: args[0], Period: comparePeriod}, comparePresets)
	if err != nil {
		return err
	}
	printComparison(cmd.OutOrStdout(), strings.ToUpper(args[0]), outs)
	return nil
}

func printComparison(w io.Writer, symbol string, outs []*app.Outcome) {
	fmt.Fprintf(w, "=== %s: strategy vs buy & hold ===\n\n", symbol)
	fmt.Fprintf(w, "%-14s %9s %9s %8s %7s %7s  %s\n",
		"PRESET", "RETURN", "B&H", "MAX DD", "SHARPE", "TRADES", "STRATEGY")

	for _, out := range outs {
		s := out.Result.Stats
		bench := "-"
		if out.Benchmark != nil {
			bench = fmt.Sprintf("%+.2f%%", out.Benchmark.ReturnPct)
		}
		fmt.Fprintf(w, "%-14s %+8.2f%% %9s %7.2f%% %7.2f %7d  %s\n",
			out.Preset, s.TotalReturnPct, bench, s.MaxDrawdownPct, s.SharpeRatio, s.TotalTrades, out.Result.Strategy)
	}
}
