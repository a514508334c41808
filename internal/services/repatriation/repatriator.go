// Package repatriation converts leftover quote balance back into the reserve
// asset at the end of a run.
package repatriation

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aureonlabs/rotor/internal/domain"
)

const (
	// retainBufferQuote is the quote amount kept aside when retain is set,
	// so the next run starts with working capital already in place.
	retainBufferQuote = 12

	// without retain, 98% goes back, the rest absorbs fees and rounding.
	convertPortionPct = 98
)

type boundary interface {
	Balances(ctx context.Context) ([]domain.Balance, error)
	PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.ExecutionResult, error)
	SymbolInfo(ctx context.Context, pair domain.Pair) (domain.SymbolInfo, error)
}

// Repatriator buys the reserve asset back with the remaining quote balance.
type Repatriator struct {
	boundary    boundary
	reservePair domain.Pair
	l           *zap.Logger
}

func NewRepatriator(l *zap.Logger, b boundary, reservePair domain.Pair) *Repatriator {
	if l == nil {
		l = zap.NewNop()
	}
	return &Repatriator{boundary: b, reservePair: reservePair, l: l}
}

// ConvertBack moves the quote balance back into the reserve asset with a
// single market buy. With retain set, a fixed quote buffer stays behind;
// otherwise 98% of the balance is converted. Amounts below the venue minimum
// are left alone.
func (r *Repatriator) ConvertBack(ctx context.Context, retain bool) error {
	balances, err := r.boundary.Balances(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get balances")
	}
	quoteFree := domain.FreeBalance(balances, r.reservePair.Quote)

	info, err := r.boundary.SymbolInfo(ctx, r.reservePair)
	if err != nil {
		return errors.Wrapf(err, "failed to get symbol info for %s", r.reservePair.Symbol())
	}

	var spend decimal.Decimal
	if retain {
		spend = quoteFree.Sub(decimal.NewFromInt(retainBufferQuote))
		if spend.LessThan(decimal.Zero) {
			spend = decimal.Zero
		}
	} else {
		spend = quoteFree.
			Mul(decimal.NewFromInt(convertPortionPct)).
			Div(decimal.NewFromInt(100))
	}

	if spend.LessThanOrEqual(decimal.Zero) || spend.LessThan(info.MinNotional) {
		r.l.Info("nothing to repatriate",
			zap.String("quote_free", quoteFree.String()),
			zap.String("spend", spend.String()),
			zap.String("min_notional", info.MinNotional.String()))
		return nil
	}

	result, err := r.boundary.PlaceMarketOrder(ctx, domain.OrderRequest{
		Pair:          r.reservePair,
		Side:          domain.SideBuy,
		QuoteAmount:   spend,
		ClientOrderID: uuid.New().String(),
	})
	if err != nil {
		return errors.Wrapf(err, "repatriation buy failed for %s", r.reservePair.Symbol())
	}

	r.l.Info("capital repatriated",
		zap.String("quote_spent", result.QuoteAmount.String()),
		zap.String("reserve_bought", result.FilledBaseQty.String()),
		zap.String("avg_price", result.AvgPrice.String()))

	// post-trade balance is informational only
	if after, err := r.boundary.Balances(ctx); err == nil {
		r.l.Info("post-repatriation balances",
			zap.String("quote_free", domain.FreeBalance(after, r.reservePair.Quote).String()),
			zap.String("reserve_free", domain.FreeBalance(after, r.reservePair.Base).String()))
	}
	return nil
}
