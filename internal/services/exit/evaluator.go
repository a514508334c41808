// Package exit contains the pure exit-decision rule applied on every
// monitoring tick.
package exit

import "github.com/shopspring/decimal"

// Signal is the decision for one observed price change.
type Signal int

const (
	// Hold keeps the position open.
	Hold Signal = iota
	// TakeProfit closes the position at a favorable price.
	TakeProfit
	// StopLoss closes the position at an unfavorable price.
	StopLoss
)

func (s Signal) String() string {
	switch s {
	case TakeProfit:
		return "take_profit"
	case StopLoss:
		return "stop_loss"
	default:
		return "hold"
	}
}

// Evaluate maps a relative price change onto an exit signal. Take-profit is
// checked before stop-loss, so it wins ties under degenerate configurations
// where both thresholds are satisfied at once.
func Evaluate(change, takeProfit, stopLoss decimal.Decimal) Signal {
	if change.GreaterThanOrEqual(takeProfit) {
		return TakeProfit
	}
	if change.LessThanOrEqual(stopLoss) {
		return StopLoss
	}
	return Hold
}
