// Package exchange defines the execution boundary between the rotation engine
// and the trading venue. The engine talks only to the Exchange interface; the
// real implementations and the dry-run simulator are selected once at startup
// and injected, so callers never know which one is active.
package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aureonlabs/rotor/internal/domain"
)

// Exchange is the execution boundary consumed by the rotation engine.
type Exchange interface {
	// Balances returns the current account snapshot.
	Balances(ctx context.Context) ([]domain.Balance, error)
	// Price returns the latest price for the pair. Fails when the symbol is
	// unknown or temporarily unavailable.
	Price(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
	// PlaceMarketOrder executes a market order sized by quote amount or base
	// quantity and reports the fill.
	PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.ExecutionResult, error)
	// SymbolInfo returns trading metadata used for pre-flight viability checks.
	SymbolInfo(ctx context.Context, pair domain.Pair) (domain.SymbolInfo, error)
}
