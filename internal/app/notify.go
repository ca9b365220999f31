package app

import (
	"context"

	"github.com/ThomasGit2000/trading-bot/internal/alert"
	"github.com/ThomasGit2000/trading-bot/internal/config"
	"github.com/ThomasGit2000/trading-bot/internal/notifier"
	"github.com/ThomasGit2000/trading-bot/internal/notifier/telegram"
	"github.com/ThomasGit2000/trading-bot/internal/notifier/webhook"
	"go.uber.org/zap"
)

// Notifiers builds the registry of configured notifiers. Sections without
// a target are skipped.
func Notifiers(cfg config.NotifyConfig) (*notifier.Registry, error) {
	reg := notifier.NewRegistry()
	if cfg.Webhook.URL != "" {
		w, err := webhook.New(cfg.Webhook)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(w); err != nil {
			return nil, err
		}
	}
	if cfg.Telegram.BotToken != "" {
		t, err := telegram.New(cfg.Telegram)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// alertStats exposes the report to alert rule expressions.
func alertStats(r notifier.Report) map[string]float64 {
	stats := map[string]float64{
		alert.StatReturnPct:      r.ReturnPct,
		alert.StatMaxDrawdownPct: r.MaxDrawdownPct,
		alert.StatSharpeRatio:    r.SharpeRatio,
		alert.StatWinRate:        r.WinRate,
		alert.StatTrades:         float64(r.Trades),
	}
	if r.BenchmarkReturnPct != nil {
		stats[alert.StatBenchmarkReturnPct] = *r.BenchmarkReturnPct
		stats[alert.StatExcessReturnPct] = r.ReturnPct - *r.BenchmarkReturnPct
	}
	return stats
}

func reportFor(out *Outcome) notifier.Report {
	r := out.Result
	report := notifier.Report{
		RunID:          out.RunID,
		Symbol:         r.Symbol,
		Preset:         out.Preset,
		Strategy:       r.Strategy,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		ReturnPct:      r.Stats.TotalReturnPct,
		MaxDrawdownPct: r.Stats.MaxDrawdownPct,
		SharpeRatio:    r.Stats.SharpeRatio,
		WinRate:        r.Stats.WinRate,
		Trades:         r.Stats.TotalTrades,
	}
	if out.Benchmark != nil {
		pct := out.Benchmark.ReturnPct
		report.BenchmarkReturnPct = &pct
	}
	return report
}

// report builds the report of out with the alerts it fired. ok is false
// when alerts are required and none fired.
func (a *App) report(out *Outcome) (notifier.Report, bool) {
	r := reportFor(out)
	if a.alerts != nil && a.alerts.Len() > 0 {
		r.Alerts = a.alerts.Check(r.Symbol+"/"+r.Preset, alertStats(r))
		for _, msg := range r.Alerts {
			a.logger.Warn("run alert", zap.String("run_id", r.RunID), zap.String("alert", msg))
		}
	}
	return r, len(r.Alerts) > 0 || !a.cfg.Notify.OnlyOnAlert
}

func (a *App) notify(ctx context.Context, out *Outcome) {
	if a.notifiers == nil || a.notifiers.Len() == 0 {
		return
	}
	if r, ok := a.report(out); ok {
		a.logNotifyErrors(a.notifiers.NotifyAll(ctx, r))
	}
}

func (a *App) notifyBatch(ctx context.Context, outcomes []*Outcome) {
	if a.notifiers == nil || a.notifiers.Len() == 0 {
		return
	}
	reports := make([]notifier.Report, 0, len(outcomes))
	for _, out := range outcomes {
		if out == nil {
			continue
		}
		if r, ok := a.report(out); ok {
			reports = append(reports, r)
		}
	}
	a.logNotifyErrors(a.notifiers.NotifyAllBatch(ctx, reports))
}

func (a *App) logNotifyErrors(errs map[string]error) {
	for name, err := range errs {
		a.logger.Warn("notification failed", zap.String("notifier", name), zap.Error(err))
	}
}
