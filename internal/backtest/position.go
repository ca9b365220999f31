package backtest

import "github.com/ThomasGit2000/trading-bot/internal/strategy"

// position tracks the single open lot of a run. Quantity 0 means flat.
type position struct {
	quantity   int
	entryPrice float64
	entryIndex int
	peakPrice  float64
}

func (p *position) isLong() bool {
	return p.quantity > 0
}

// open enters a lot; the peak restarts at the entry price.
func (p *position) open(quantity int, price float64, index int) {
	p.quantity = quantity
	p.entryPrice = price
	p.entryIndex = index
	p.peakPrice = price
}

// close exits the lot and returns what was held.
func (p *position) close() (quantity int, entryPrice float64) {
	quantity, entryPrice = p.quantity, p.entryPrice
	*p = position{}
	return quantity, entryPrice
}

// markPeak records a new high while long.
func (p *position) markPeak(price float64) {
	if p.isLong() && price > p.peakPrice {
		p.peakPrice = price
	}
}

func (p *position) daysHeld(index int) int {
	if !p.isLong() {
		return 0
	}
	return index - p.entryIndex
}

// view is the read-only state handed to the policy.
func (p *position) view(index int) strategy.Position {
	if !p.isLong() {
		return strategy.Position{}
	}
	return strategy.Position{
		Long:       true,
		EntryPrice: p.entryPrice,
		PeakPrice:  p.peakPrice,
		DaysHeld:   p.daysHeld(index),
	}
}
