// Package liquidity guarantees the working quote balance meets a minimum
// before a symbol is traded, converting reserve asset when short.
package liquidity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aureonlabs/rotor/internal/domain"
)

const (
	// feeBuffer widens the shortfall so fees never leave the quote balance
	// just under the minimum after conversion.
	feeBufferQuote = 1

	// reserve quantity is truncated, never rounded up, so the conversion
	// cannot overspend the reserve.
	reserveQtyPrecision = 5

	defaultPollInterval = 5 * time.Second
)

type boundary interface {
	Balances(ctx context.Context) ([]domain.Balance, error)
	Price(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
	PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.ExecutionResult, error)
	SymbolInfo(ctx context.Context, pair domain.Pair) (domain.SymbolInfo, error)
}

// Outcome reports what the guarantor did.
type Outcome struct {
	// Converted is true when a reserve sell was executed.
	Converted bool
	// Planned is true when dry-run reported an intended conversion that was
	// not viable against current balances.
	Planned bool
	// ReserveQty is the reserve quantity sold (or planned).
	ReserveQty decimal.Decimal
	// QuoteRaised is the quote amount received from the conversion.
	QuoteRaised decimal.Decimal
}

// Guarantor tops up the quote balance from the reserve asset.
type Guarantor struct {
	boundary    boundary
	reservePair domain.Pair
	dryRun      bool
	l           *zap.Logger

	// interval for the wait-for-funds poll (overridden in tests)
	pollInterval time.Duration
}

// NewGuarantor creates a guarantor selling reservePair.Base into
// reservePair.Quote when the quote balance runs short.
func NewGuarantor(l *zap.Logger, b boundary, reservePair domain.Pair, dryRun bool) *Guarantor {
	if l == nil {
		l = zap.NewNop()
	}
	return &Guarantor{
		boundary:     b,
		reservePair:  reservePair,
		dryRun:       dryRun,
		l:            l,
		pollInterval: defaultPollInterval,
	}
}

// Ensure makes sure the free quote balance reaches minQuote. When wait is
// set and the reserve cannot cover the shortfall, it polls balances until the
// quote clears the minimum, the reserve becomes sufficient, or ctx is done.
func (g *Guarantor) Ensure(ctx context.Context, minQuote decimal.Decimal, wait bool) (Outcome, error) {
	plan, err := g.plan(ctx, minQuote)
	if err != nil {
		return Outcome{}, err
	}
	if plan.satisfied {
		g.l.Debug("quote balance already sufficient",
			zap.String("quote_free", plan.quoteFree.String()),
			zap.String("min_quote", minQuote.String()))
		return Outcome{}, nil
	}

	if !plan.viable() {
		if g.dryRun {
			// simulation assumes infinite liquidity for planning purposes
			g.l.Info("dry-run: intended reserve conversion not viable, assuming funds",
				zap.String("reserve_qty", plan.reserveQty.String()),
				zap.String("shortfall", plan.shortfall.String()),
				zap.String("reserve_free", plan.reserveFree.String()))
			return Outcome{Planned: true, ReserveQty: plan.reserveQty}, nil
		}
		if !wait {
			return Outcome{}, &domain.InsufficientReserveError{
				Asset:     g.reservePair.Base,
				Shortfall: plan.shortfall,
			}
		}
		plan, err = g.waitForFunds(ctx, minQuote)
		if err != nil {
			return Outcome{}, err
		}
		if plan.satisfied {
			return Outcome{}, nil
		}
	}

	result, err := g.boundary.PlaceMarketOrder(ctx, domain.OrderRequest{
		Pair:          g.reservePair,
		Side:          domain.SideSell,
		BaseQty:       plan.reserveQty,
		ClientOrderID: uuid.New().String(),
	})
	if err != nil {
		// no retry here, the failure propagates as-is
		return Outcome{}, errors.Wrapf(err, "reserve conversion failed for %s", g.reservePair.Symbol())
	}

	g.l.Info("reserve converted to quote",
		zap.String("reserve_qty", result.FilledBaseQty.String()),
		zap.String("quote_raised", result.QuoteAmount.String()),
		zap.String("avg_price", result.AvgPrice.String()))

	return Outcome{
		Converted:   true,
		ReserveQty:  result.FilledBaseQty,
		QuoteRaised: result.QuoteAmount,
	}, nil
}

type conversionPlan struct {
	satisfied   bool
	quoteFree   decimal.Decimal
	reserveFree decimal.Decimal
	shortfall   decimal.Decimal
	reserveQty  decimal.Decimal
	notional    decimal.Decimal
	minNotional decimal.Decimal
}

func (p conversionPlan) viable() bool {
	if p.reserveQty.LessThanOrEqual(decimal.Zero) {
		return false
	}
	if p.notional.LessThan(p.minNotional) {
		return false
	}
	return p.reserveQty.LessThanOrEqual(p.reserveFree)
}

func (g *Guarantor) plan(ctx context.Context, minQuote decimal.Decimal) (conversionPlan, error) {
	balances, err := g.boundary.Balances(ctx)
	if err != nil {
		return conversionPlan{}, errors.Wrap(err, "failed to get balances")
	}

	plan := conversionPlan{
		quoteFree:   domain.FreeBalance(balances, g.reservePair.Quote),
		reserveFree: domain.FreeBalance(balances, g.reservePair.Base),
	}
	if plan.quoteFree.GreaterThanOrEqual(minQuote) {
		plan.satisfied = true
		return plan, nil
	}

	price, err := g.boundary.Price(ctx, g.reservePair)
	if err != nil {
		return conversionPlan{}, errors.Wrapf(err, "failed to get price for %s", g.reservePair.Symbol())
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return conversionPlan{}, errors.Errorf("non-positive price for %s", g.reservePair.Symbol())
	}

	info, err := g.boundary.SymbolInfo(ctx, g.reservePair)
	if err != nil {
		return conversionPlan{}, errors.Wrapf(err, "failed to get symbol info for %s", g.reservePair.Symbol())
	}

	plan.shortfall = minQuote.Add(decimal.NewFromInt(feeBufferQuote)).Sub(plan.quoteFree)
	plan.reserveQty = plan.shortfall.Div(price).RoundFloor(reserveQtyPrecision)
	plan.notional = plan.reserveQty.Mul(price)
	plan.minNotional = info.MinNotional
	return plan, nil
}

// waitForFunds polls balances at a fixed interval until the quote balance
// clears the minimum or the reserve covers the shortfall. The loop has no
// internal timeout; cancellation comes from ctx.
func (g *Guarantor) waitForFunds(ctx context.Context, minQuote decimal.Decimal) (conversionPlan, error) {
	g.l.Info("waiting for funds",
		zap.String("min_quote", minQuote.String()),
		zap.Duration("poll_interval", g.pollInterval))

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return conversionPlan{}, ctx.Err()
		case <-ticker.C:
			plan, err := g.plan(ctx, minQuote)
			if err != nil {
				g.l.Warn("balance poll failed while waiting for funds", zap.Error(err))
				continue
			}
			if plan.satisfied || plan.viable() {
				return plan, nil
			}
		}
	}
}
