// Package alpaca provides daily bars from the Alpaca market-data API.
package alpaca

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/collector"
	"github.com/ThomasGit2000/trading-bot/internal/core"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// Config holds the API credentials and feed selection.
type Config struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	// DataURL overrides the market-data endpoint.
	DataURL string `mapstructure:"data_url"`
	// Feed is "iex" (free) or "sip".
	Feed string `mapstructure:"feed"`
}

// barClient is the part of marketdata.Client the provider uses.
type barClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Alpaca implements collector.HistoryProvider.
type Alpaca struct {
	client barClient
	feed   marketdata.Feed
	now    func() time.Time
}

// New creates a provider from cfg.
func New(cfg Config) *Alpaca {
	opts := marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	}
	if cfg.DataURL != "" {
		opts.BaseURL = cfg.DataURL
	}
	return newWithClient(marketdata.NewClient(opts), cfg.Feed)
}

func newWithClient(client barClient, feed string) *Alpaca {
	return &Alpaca{
		client: client,
		feed:   parseFeed(feed),
		now:    time.Now,
	}
}

func parseFeed(feed string) marketdata.Feed {
	switch strings.ToLower(feed) {
	case "sip":
		return marketdata.SIP
	default:
		return marketdata.IEX
	}
}

func (a *Alpaca) Name() string {
	return "alpaca"
}

// FetchHistory fetches daily bars for the period ending now.
func (a *Alpaca) FetchHistory(ctx context.Context, symbol, period string) ([]core.OHLCV, error) {
	if ctx.Err() != nil {
		return nil, core.WrapError(core.ErrCollectorTimeout, ctx.Err())
	}
	if symbol == "" {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("symbol cannot be empty"))
	}
	if period == "" {
		period = collector.DefaultPeriod
	}
	start, end, err := collector.PeriodRange(period, a.now())
	if err != nil {
		return nil, err
	}

	bars, err := a.client.GetBars(strings.ToUpper(symbol), marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      a.feed,
	})
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("GetBars %s: %w", symbol, err))
	}

	out := make([]core.OHLCV, 0, len(bars))
	for _, b := range bars {
		out = append(out, core.OHLCV{
			Symbol:   symbol,
			Interval: "1d",
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			Volume:   int64(b.Volume),
			Time:     b.Timestamp.UTC(),
		})
	}
	return out, nil
}
