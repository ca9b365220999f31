package app

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Compare runs base once per preset, in parallel, and returns the outcomes
// in preset order. The first failure cancels the rest.
func (a *App) Compare(ctx context.Context, base RunRequest, presets []string) ([]*Outcome, error) {
	if len(presets) == 0 {
		presets = a.presets.Names()
	}

	outcomes := make([]*Outcome, len(presets))
	g, gctx := errgroup.WithContext(ctx)
	for i, preset := range presets {
		req := base
		req.Preset = preset
		req.Config = nil
		g.Go(func() error {
			out, err := a.run(gctx, req, nil, false)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	a.notifyBatch(ctx, outcomes)
	return outcomes, nil
}

// SweepRow is one cell of a sweep. Err is set instead of Outcome when the
// run failed.
type SweepRow struct {
	Symbol  string
	Preset  string
	Outcome *Outcome
	Err     error
}

// Sweep runs every preset against every symbol with at most workers runs in
// flight. A failing run is reported in its row and does not stop the sweep.
// Rows are sorted by return, best first, failures last.
func (a *App) Sweep(ctx context.Context, base RunRequest, symbols, presets []string, workers int) ([]SweepRow, error) {
	if len(presets) == 0 {
		presets = a.presets.Names()
	}
	if workers <= 0 {
		workers = 1
	}

	rows := make([]SweepRow, 0, len(symbols)*len(presets))
	for _, symbol := range symbols {
		for _, preset := range presets {
			rows = append(rows, SweepRow{Symbol: symbol, Preset: preset})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range rows {
		row := &rows[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			req := base
			req.Symbol = row.Symbol
			req.Preset = row.Preset
			req.Config = nil
			row.Outcome, row.Err = a.run(gctx, req, nil, false)
			if row.Err != nil {
				a.logger.Debug("sweep run failed",
					zap.String("symbol", row.Symbol),
					zap.String("preset", row.Preset),
					zap.Error(row.Err),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i].Outcome, rows[j].Outcome
		switch {
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return ri.Result.Stats.TotalReturnPct > rj.Result.Stats.TotalReturnPct
		}
	})

	outcomes := make([]*Outcome, 0, len(rows))
	for _, row := range rows {
		outcomes = append(outcomes, row.Outcome)
	}
	a.notifyBatch(ctx, outcomes)
	return rows, nil
}
