package strategy

// Signal is the decision the policy makes for one bar. The set is closed:
// every switch over Signal in this module handles each value.
type Signal int

const (
	Hold Signal = iota
	Buy
	Sell
	StopLoss
	TrailingStop
	// HoldMarketSelloff suppresses a sell because the whole market is falling.
	HoldMarketSelloff
	// HoldAwaitingStability suppresses a buy until the index stops falling.
	HoldAwaitingStability
)

var signalNames = [...]string{
	Hold:                  "HOLD",
	Buy:                   "BUY",
	Sell:                  "SELL",
	StopLoss:              "STOP_LOSS",
	TrailingStop:          "TRAILING_STOP",
	HoldMarketSelloff:     "HOLD_MARKET_SELLOFF",
	HoldAwaitingStability: "HOLD_AWAITING_STABILITY",
}

// AllSignals lists every signal in declaration order.
var AllSignals = []Signal{Hold, Buy, Sell, StopLoss, TrailingStop, HoldMarketSelloff, HoldAwaitingStability}

func (s Signal) String() string {
	if s < 0 || int(s) >= len(signalNames) {
		return "UNKNOWN"
	}
	return signalNames[s]
}

// MarshalText encodes the signal by name.
func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsExit reports whether the signal closes an open position.
func (s Signal) IsExit() bool {
	switch s {
	case Sell, StopLoss, TrailingStop:
		return true
	case Hold, Buy, HoldMarketSelloff, HoldAwaitingStability:
		return false
	}
	return false
}

// IsHold reports whether the signal leaves the position unchanged.
func (s Signal) IsHold() bool {
	switch s {
	case Hold, HoldMarketSelloff, HoldAwaitingStability:
		return true
	case Buy, Sell, StopLoss, TrailingStop:
		return false
	}
	return false
}
