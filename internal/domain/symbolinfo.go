package domain

import "github.com/shopspring/decimal"

// SymbolInfo is the exchange metadata used for pre-flight viability checks.
type SymbolInfo struct {
	Base        string
	Quote       string
	Status      string
	MinNotional decimal.Decimal
	MinQty      decimal.Decimal
	StepSize    decimal.Decimal
}

const statusTrading = "TRADING"

// Tradable reports whether the symbol accepts spot orders.
func (s SymbolInfo) Tradable() bool {
	return s.Status == statusTrading
}

// ViableSpend reports whether a quote spend clears the minimum notional.
func (s SymbolInfo) ViableSpend(spend decimal.Decimal) bool {
	return spend.GreaterThanOrEqual(s.MinNotional)
}
