package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Side of a market order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderRequest describes one market order for the execution boundary.
// Exactly one of QuoteAmount and BaseQty must be positive: QuoteAmount sizes
// the order in quote currency, BaseQty in base quantity.
type OrderRequest struct {
	Pair          Pair
	Side          Side
	QuoteAmount   decimal.Decimal
	BaseQty       decimal.Decimal
	ClientOrderID string
}

// Validate checks the sizing invariant.
func (r OrderRequest) Validate() error {
	quote := r.QuoteAmount.GreaterThan(decimal.Zero)
	base := r.BaseQty.GreaterThan(decimal.Zero)
	if quote == base {
		return errors.Errorf("order for %s must be sized by exactly one of quote amount or base quantity", r.Pair.Symbol())
	}
	return nil
}

// ExecutionResult is the fill report of a market order. Real and simulated
// executions produce the same shape; callers cannot tell them apart.
type ExecutionResult struct {
	FilledBaseQty decimal.Decimal
	AvgPrice      decimal.Decimal
	QuoteAmount   decimal.Decimal
	OrderID       string
}
