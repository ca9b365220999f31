package backtest

import (
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/strategy"
)

// Action tags an entry in the trade log.
type Action string

const (
	ActionBuy       Action = "BUY"
	ActionSell      Action = "SELL"
	ActionStopLoss  Action = "STOP_LOSS"
	ActionTrailStop Action = "TRAIL_STOP"
	// ActionSellClose liquidates a position still open on the last bar.
	ActionSellClose Action = "SELL_CLOSE"
)

// IsClosing reports whether the action ends a position.
func (a Action) IsClosing() bool {
	switch a {
	case ActionSell, ActionStopLoss, ActionTrailStop, ActionSellClose:
		return true
	}
	return false
}

// exitAction maps an exit signal to its trade log tag.
func exitAction(sig strategy.Signal) Action {
	switch sig {
	case strategy.StopLoss:
		return ActionStopLoss
	case strategy.TrailingStop:
		return ActionTrailStop
	case strategy.Sell:
		return ActionSell
	case strategy.Hold, strategy.Buy, strategy.HoldMarketSelloff, strategy.HoldAwaitingStability:
	}
	return ActionSell
}

// RunConfig is the input of a single backtest.
type RunConfig struct {
	Symbol         string          `json:"symbol" mapstructure:"symbol"`
	Period         string          `json:"period" mapstructure:"period"`
	InitialCapital float64         `json:"initial_capital" mapstructure:"initial_capital"`
	PositionSize   int             `json:"position_size" mapstructure:"position_size"`
	Strategy       strategy.Config `json:"strategy" mapstructure:"strategy"`
}

// DefaultRunConfig returns a run with 10,000 capital and lots of 15 shares.
func DefaultRunConfig(symbol string) RunConfig {
	return RunConfig{
		Symbol:         symbol,
		Period:         "1y",
		InitialCapital: 10000,
		PositionSize:   15,
		Strategy:       strategy.DefaultConfig(),
	}
}

// Trade is one entry in the trade log. PnL is zero for buys.
type Trade struct {
	Date     time.Time `json:"date"`
	Action   Action    `json:"action"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
	Value    float64   `json:"value"`
	PnL      float64   `json:"pnl"`
}

// IsWin returns true if a closing trade was profitable
func (t Trade) IsWin() bool {
	return t.Action.IsClosing() && t.PnL > 0
}

// EquityPoint is the account value entering a bar, before that bar's action.
type EquityPoint struct {
	Date     time.Time `json:"date"`
	Price    float64   `json:"price"`
	Position int       `json:"position"`
	Equity   float64   `json:"equity"`
}

// Result holds the complete backtest output. It is derived from the trade
// log and equity curve and not modified after Run returns.
type Result struct {
	Symbol         string         `json:"symbol"`
	Strategy       string         `json:"strategy"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
	Bars           int            `json:"bars"`
	InitialCapital float64        `json:"initial_capital"`
	FinalCapital   float64        `json:"final_capital"`
	Trades         []Trade        `json:"trades"`
	EquityCurve    []EquityPoint  `json:"equity_curve"`
	Signals        map[string]int `json:"signals"`
	Stats          Stats          `json:"stats"`
}

// Stats holds performance statistics
type Stats struct {
	TotalTrades    int     `json:"total_trades"`
	ClosingTrades  int     `json:"closing_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"` // percent of closing trades
	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"` // annualized
}
