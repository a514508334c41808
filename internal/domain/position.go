package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Position is the single open position of a rotation. It exists only for the
// duration of one rotation; the engine never holds two symbols concurrently.
type Position struct {
	Pair       Pair
	EntryPrice decimal.Decimal
	BaseQty    decimal.Decimal
	QuoteSpent decimal.Decimal
	OpenedAt   time.Time
}

// NewPosition constructs a position from a buy fill.
func NewPosition(pair Pair, fill ExecutionResult, openedAt time.Time) (*Position, error) {
	if fill.FilledBaseQty.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("position quantity must be greater than zero")
	}
	if fill.AvgPrice.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("entry price must be greater than zero")
	}

	return &Position{
		Pair:       pair,
		EntryPrice: fill.AvgPrice,
		BaseQty:    fill.FilledBaseQty,
		QuoteSpent: fill.QuoteAmount,
		OpenedAt:   openedAt,
	}, nil
}

// Change returns the relative price change (current - entry) / entry.
func (p *Position) Change(current decimal.Decimal) decimal.Decimal {
	if p.EntryPrice.IsZero() {
		return decimal.Zero
	}
	return current.Sub(p.EntryPrice).Div(p.EntryPrice)
}
