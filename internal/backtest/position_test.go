package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition_Lifecycle(t *testing.T) {
	var p position
	assert.False(t, p.isLong())
	assert.Equal(t, 0, p.daysHeld(10))
	assert.False(t, p.view(10).Long)

	p.markPeak(50) // ignored while flat
	assert.Equal(t, 0.0, p.peakPrice)

	p.open(15, 10, 30)
	assert.True(t, p.isLong())
	assert.Equal(t, 10.0, p.peakPrice)

	p.markPeak(12)
	p.markPeak(11)
	assert.Equal(t, 12.0, p.peakPrice)

	view := p.view(33)
	assert.True(t, view.Long)
	assert.Equal(t, 10.0, view.EntryPrice)
	assert.Equal(t, 12.0, view.PeakPrice)
	assert.Equal(t, 3, view.DaysHeld)

	qty, entry := p.close()
	assert.Equal(t, 15, qty)
	assert.Equal(t, 10.0, entry)
	assert.False(t, p.isLong())
	assert.Equal(t, position{}, p)
}

func TestLedger(t *testing.T) {
	l := newLedger(100)
	assert.Equal(t, 8, l.affordable(12))
	assert.Equal(t, 0, l.affordable(0))

	assert.InDelta(t, 96.0, l.debit(8, 12), 1e-12)
	assert.InDelta(t, 4.0, l.balance(), 1e-12)
	assert.InDelta(t, 4.0+8*13, l.equity(8, 13), 1e-12)

	assert.InDelta(t, 104.0, l.credit(8, 13), 1e-12)
	assert.InDelta(t, 108.0, l.balance(), 1e-12)
}

func TestLedger_NoDrift(t *testing.T) {
	l := newLedger(10000)
	for i := 0; i < 1000; i++ {
		l.debit(3, 0.1)
		l.credit(3, 0.1)
	}
	assert.Equal(t, 10000.0, l.balance())
	assert.InDelta(t, 0.3, pnl(3, 0.1, 0.2), 1e-15)
}
