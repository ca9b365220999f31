package backtest

import "github.com/shopspring/decimal"

// ledger is the cash account of a run. Amounts are kept in decimal so a long
// run of buys and sells does not drift from the sum of its trades.
type ledger struct {
	cash decimal.Decimal
}

func newLedger(capital float64) *ledger {
	return &ledger{cash: decimal.NewFromFloat(capital)}
}

// affordable returns how many whole shares at price the cash covers.
func (l *ledger) affordable(price float64) int {
	if price <= 0 {
		return 0
	}
	return int(l.cash.Div(decimal.NewFromFloat(price)).Floor().IntPart())
}

// debit pays for quantity shares and returns the cost.
func (l *ledger) debit(quantity int, price float64) float64 {
	cost := amount(quantity, price)
	l.cash = l.cash.Sub(cost)
	return cost.InexactFloat64()
}

// credit receives the proceeds of selling quantity shares and returns them.
func (l *ledger) credit(quantity int, price float64) float64 {
	proceeds := amount(quantity, price)
	l.cash = l.cash.Add(proceeds)
	return proceeds.InexactFloat64()
}

func (l *ledger) balance() float64 {
	return l.cash.InexactFloat64()
}

// equity is cash plus the market value of quantity shares at price.
func (l *ledger) equity(quantity int, price float64) float64 {
	return l.cash.Add(amount(quantity, price)).InexactFloat64()
}

// pnl is proceeds minus cost basis for a closed lot.
func pnl(quantity int, entryPrice, exitPrice float64) float64 {
	return amount(quantity, exitPrice).Sub(amount(quantity, entryPrice)).InexactFloat64()
}

func amount(quantity int, price float64) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}
