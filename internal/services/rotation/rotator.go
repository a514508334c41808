// Package rotation runs the single-position rotation state machine:
// fund the quote balance, open a position, monitor it tick by tick, exit.
package rotation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aureonlabs/rotor/internal/domain"
	"github.com/aureonlabs/rotor/internal/services/exit"
	"github.com/aureonlabs/rotor/internal/services/liquidity"
)

const (
	// only 99% of the held quantity is sold, leaving room for fees taken
	// in base currency; the remainder is dust by construction.
	sellPortionPct = 99

	sellQtyPrecision = 5
)

type boundary interface {
	Price(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
	PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.ExecutionResult, error)
}

type funder interface {
	Ensure(ctx context.Context, minQuote decimal.Decimal, wait bool) (liquidity.Outcome, error)
}

// Rotator opens, monitors and closes one position per call. It never holds
// two symbols at once.
type Rotator struct {
	boundary boundary
	funder   funder
	l        *zap.Logger

	spendPerSymbol decimal.Decimal
	takeProfit     decimal.Decimal
	stopLoss       decimal.Decimal
	maxHold        time.Duration
	pollInterval   time.Duration
	waitForFunds   bool
}

// NewRotator wires a rotator against the execution boundary and the
// liquidity guarantor.
func NewRotator(
	l *zap.Logger,
	b boundary,
	f funder,
	spendPerSymbol, takeProfit, stopLoss decimal.Decimal,
	maxHold, pollInterval time.Duration,
	waitForFunds bool,
) *Rotator {
	if l == nil {
		l = zap.NewNop()
	}
	return &Rotator{
		boundary:       b,
		funder:         f,
		l:              l,
		spendPerSymbol: spendPerSymbol,
		takeProfit:     takeProfit,
		stopLoss:       stopLoss,
		maxHold:        maxHold,
		pollInterval:   pollInterval,
		waitForFunds:   waitForFunds,
	}
}

// Rotate runs one full rotation for pair. Funding failures and empty fills
// end the rotation with a skip/no-fill report and a nil error; boundary
// failures after money is at risk are returned to the caller.
func (r *Rotator) Rotate(ctx context.Context, pair domain.Pair) (domain.RotationReport, error) {
	report := domain.RotationReport{Pair: pair}
	l := r.l.With(zap.String("pair", pair.String()))

	if _, err := r.funder.Ensure(ctx, r.spendPerSymbol, r.waitForFunds); err != nil {
		if ctx.Err() != nil {
			report.Outcome = domain.OutcomeFailed
			return report, ctx.Err()
		}
		// nothing is at risk yet, the symbol is skipped for this run
		l.Warn("funding failed, skipping symbol", zap.Error(err))
		report.Outcome = domain.OutcomeSkipped
		return report, nil
	}

	fill, err := r.boundary.PlaceMarketOrder(ctx, domain.OrderRequest{
		Pair:          pair,
		Side:          domain.SideBuy,
		QuoteAmount:   r.spendPerSymbol,
		ClientOrderID: uuid.New().String(),
	})
	if err != nil {
		report.Outcome = domain.OutcomeFailed
		return report, errors.Wrapf(err, "buy failed for %s", pair.Symbol())
	}

	position, err := domain.NewPosition(pair, fill, time.Now())
	if err != nil {
		l.Warn("buy returned no usable fill", zap.Error(err))
		report.Outcome = domain.OutcomeNoFill
		return report, nil
	}

	report.EntryPrice = position.EntryPrice
	report.BaseQty = position.BaseQty
	report.QuoteSpent = position.QuoteSpent
	report.OpenedAt = position.OpenedAt

	l.Info("position opened",
		zap.String("entry_price", position.EntryPrice.String()),
		zap.String("base_qty", position.BaseQty.String()),
		zap.String("quote_spent", position.QuoteSpent.String()))

	reason, lastPrice, err := r.monitor(ctx, position, l)
	if err != nil {
		report.Outcome = domain.OutcomeFailed
		return report, err
	}

	exitResult, err := r.close(ctx, position)
	if err != nil {
		report.Outcome = domain.OutcomeFailed
		return report, errors.Wrapf(err, "exit sell failed for %s", pair.Symbol())
	}

	report.Outcome = domain.OutcomeCompleted
	report.ExitReason = reason
	report.ClosedAt = time.Now()
	report.ExitPrice = exitResult.AvgPrice
	if report.ExitPrice.IsZero() {
		report.ExitPrice = lastPrice
	}

	l.Info("position closed",
		zap.String("exit_reason", string(reason)),
		zap.String("exit_price", report.ExitPrice.String()))
	return report, nil
}

// monitor polls the price until an exit signal fires or the tick budget runs
// out. The budget is maxHold divided by the poll interval; timeout is declared
// on the final tick, not before.
func (r *Rotator) monitor(ctx context.Context, position *domain.Position, l *zap.Logger) (domain.ExitReason, decimal.Decimal, error) {
	ticks := int(r.maxHold / r.pollInterval)
	if ticks < 1 {
		ticks = 1
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	lastPrice := position.EntryPrice
	for tick := 1; tick <= ticks; tick++ {
		select {
		case <-ctx.Done():
			return "", lastPrice, ctx.Err()
		case <-ticker.C:
		}

		price, err := r.boundary.Price(ctx, position.Pair)
		if err != nil {
			l.Warn("price poll failed, skipping tick", zap.Int("tick", tick), zap.Error(err))
			if tick == ticks {
				return domain.ExitTimeout, lastPrice, nil
			}
			continue
		}
		lastPrice = price

		change := position.Change(price)
		switch exit.Evaluate(change, r.takeProfit, r.stopLoss) {
		case exit.TakeProfit:
			return domain.ExitTakeProfit, price, nil
		case exit.StopLoss:
			return domain.ExitStopLoss, price, nil
		}
		l.Debug("holding",
			zap.Int("tick", tick),
			zap.String("price", price.String()),
			zap.String("change", change.String()))
	}
	return domain.ExitTimeout, lastPrice, nil
}

// close sells 99% of the held quantity, truncated. A non-positive computed
// quantity means the position is pure dust and closing is a no-op.
func (r *Rotator) close(ctx context.Context, position *domain.Position) (domain.ExecutionResult, error) {
	sellQty := position.BaseQty.
		Mul(decimal.NewFromInt(sellPortionPct)).
		Div(decimal.NewFromInt(100)).
		RoundFloor(sellQtyPrecision)
	if sellQty.LessThanOrEqual(decimal.Zero) {
		r.l.Info("computed sell quantity is zero, nothing to close",
			zap.String("pair", position.Pair.String()),
			zap.String("base_qty", position.BaseQty.String()))
		return domain.ExecutionResult{}, nil
	}

	return r.boundary.PlaceMarketOrder(ctx, domain.OrderRequest{
		Pair:          position.Pair,
		Side:          domain.SideSell,
		BaseQty:       sellQty,
		ClientOrderID: uuid.New().String(),
	})
}
