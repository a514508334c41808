package domain

import "github.com/shopspring/decimal"

// Balance is one asset line of the account snapshot. It is read from the
// boundary and never mutated locally; refresh by re-querying.
type Balance struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
}

// Total returns free plus locked amount.
func (b Balance) Total() decimal.Decimal {
	return b.Free.Add(b.Locked)
}

// FreeBalance returns the free amount for asset in a snapshot, zero when the
// asset is absent.
func FreeBalance(balances []Balance, asset string) decimal.Decimal {
	for _, b := range balances {
		if b.Asset == asset {
			return b.Free
		}
	}
	return decimal.Zero
}
