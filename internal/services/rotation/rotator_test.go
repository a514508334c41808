package rotation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aureonlabs/rotor/internal/domain"
	"github.com/aureonlabs/rotor/internal/services/liquidity"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type priceStep struct {
	price decimal.Decimal
	err   error
}

type scriptedBoundary struct {
	mu      sync.Mutex
	steps   []priceStep
	idx     int
	buyFill domain.ExecutionResult
	buyErr  error
	sellErr error
	orders  []domain.OrderRequest
}

func (s *scriptedBoundary) Price(_ context.Context, _ domain.Pair) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	step := s.steps[s.idx]
	if s.idx < len(s.steps)-1 {
		s.idx++
	}
	return step.price, step.err
}

func (s *scriptedBoundary) PlaceMarketOrder(_ context.Context, req domain.OrderRequest) (domain.ExecutionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Side == domain.SideBuy {
		if s.buyErr != nil {
			return domain.ExecutionResult{}, s.buyErr
		}
		s.orders = append(s.orders, req)
		return s.buyFill, nil
	}
	if s.sellErr != nil {
		return domain.ExecutionResult{}, s.sellErr
	}
	s.orders = append(s.orders, req)
	last := s.steps[s.idx].price
	return domain.ExecutionResult{
		FilledBaseQty: req.BaseQty,
		AvgPrice:      last,
		QuoteAmount:   req.BaseQty.Mul(last),
		OrderID:       "sell-1",
	}, nil
}

type fakeFunder struct {
	err   error
	calls int
}

func (f *fakeFunder) Ensure(_ context.Context, _ decimal.Decimal, _ bool) (liquidity.Outcome, error) {
	f.calls++
	return liquidity.Outcome{}, f.err
}

func pair(t *testing.T) domain.Pair {
	t.Helper()
	p, err := domain.PairFromString("BNB_USDT")
	require.NoError(t, err)
	return p
}

func buyFill(price, qty, quote string) domain.ExecutionResult {
	return domain.ExecutionResult{
		FilledBaseQty: dec(qty),
		AvgPrice:      dec(price),
		QuoteAmount:   dec(quote),
		OrderID:       "buy-1",
	}
}

func newTestRotator(b *scriptedBoundary, f *fakeFunder, ticks int) *Rotator {
	poll := 5 * time.Millisecond
	return NewRotator(zap.NewNop(), b, f,
		dec("12"), dec("0.006"), dec("-0.005"),
		time.Duration(ticks)*poll, poll, false)
}

func TestRotateTakeProfit(t *testing.T) {
	b := &scriptedBoundary{
		steps:   []priceStep{{price: dec("100.1")}, {price: dec("100.7")}},
		buyFill: buyFill("100", "0.12", "12"),
	}
	f := &fakeFunder{}

	report, err := newTestRotator(b, f, 10).Rotate(context.Background(), pair(t))
	require.NoError(t, err)
	require.Equal(t, 1, f.calls)
	require.Equal(t, domain.OutcomeCompleted, report.Outcome)
	require.Equal(t, domain.ExitTakeProfit, report.ExitReason)
	require.True(t, report.EntryPrice.Equal(dec("100")))
	require.True(t, report.ExitPrice.Equal(dec("100.7")))

	require.Len(t, b.orders, 2)
	buy, sell := b.orders[0], b.orders[1]
	require.Equal(t, domain.SideBuy, buy.Side)
	require.True(t, buy.QuoteAmount.Equal(dec("12")))
	require.Equal(t, domain.SideSell, sell.Side)
	// 99% of 0.12, truncated
	require.True(t, sell.BaseQty.Equal(dec("0.1188")), "got %s", sell.BaseQty)
}

func TestRotateStopLoss(t *testing.T) {
	b := &scriptedBoundary{
		steps:   []priceStep{{price: dec("99.4")}},
		buyFill: buyFill("100", "0.12", "12"),
	}

	report, err := newTestRotator(b, &fakeFunder{}, 10).Rotate(context.Background(), pair(t))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCompleted, report.Outcome)
	require.Equal(t, domain.ExitStopLoss, report.ExitReason)
	require.True(t, report.ExitPrice.Equal(dec("99.4")))
}

func TestRotateTimeoutOnFinalTick(t *testing.T) {
	b := &scriptedBoundary{
		steps:   []priceStep{{price: dec("100.1")}},
		buyFill: buyFill("100", "0.12", "12"),
	}

	report, err := newTestRotator(b, &fakeFunder{}, 3).Rotate(context.Background(), pair(t))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCompleted, report.Outcome)
	require.Equal(t, domain.ExitTimeout, report.ExitReason)
	require.Len(t, b.orders, 2)
}

func TestRotateSkipsOnFundingFailure(t *testing.T) {
	b := &scriptedBoundary{}
	f := &fakeFunder{err: &domain.InsufficientReserveError{Asset: "BTC", Shortfall: dec("7")}}

	report, err := newTestRotator(b, f, 3).Rotate(context.Background(), pair(t))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSkipped, report.Outcome)
	require.Empty(t, b.orders)
}

func TestRotateNoFill(t *testing.T) {
	b := &scriptedBoundary{
		buyFill: domain.ExecutionResult{OrderID: "buy-1"},
	}

	report, err := newTestRotator(b, &fakeFunder{}, 3).Rotate(context.Background(), pair(t))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeNoFill, report.Outcome)
	require.Len(t, b.orders, 1, "no sell after an empty fill")
}

func TestRotateTransientPriceErrorSkipsTick(t *testing.T) {
	b := &scriptedBoundary{
		steps: []priceStep{
			{err: errors.New("ticker unavailable")},
			{price: dec("100.7")},
		},
		buyFill: buyFill("100", "0.12", "12"),
	}

	report, err := newTestRotator(b, &fakeFunder{}, 10).Rotate(context.Background(), pair(t))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCompleted, report.Outcome)
	require.Equal(t, domain.ExitTakeProfit, report.ExitReason)
}

func TestRotatePriceErrorOnFinalTickTimesOut(t *testing.T) {
	b := &scriptedBoundary{
		steps:   []priceStep{{err: errors.New("ticker unavailable")}},
		buyFill: buyFill("100", "0.12", "12"),
	}

	report, err := newTestRotator(b, &fakeFunder{}, 1).Rotate(context.Background(), pair(t))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeCompleted, report.Outcome)
	require.Equal(t, domain.ExitTimeout, report.ExitReason)
	// exit price falls back to entry when no price was ever observed
	require.True(t, report.ExitPrice.GreaterThan(decimal.Zero))
}

func TestRotateBuyFailure(t *testing.T) {
	b := &scriptedBoundary{buyErr: errors.New("venue rejected order")}

	report, err := newTestRotator(b, &fakeFunder{}, 3).Rotate(context.Background(), pair(t))
	require.Error(t, err)
	require.Equal(t, domain.OutcomeFailed, report.Outcome)
}

func TestRotateSellFailure(t *testing.T) {
	b := &scriptedBoundary{
		steps:   []priceStep{{price: dec("100.7")}},
		buyFill: buyFill("100", "0.12", "12"),
		sellErr: errors.New("venue rejected order"),
	}

	report, err := newTestRotator(b, &fakeFunder{}, 3).Rotate(context.Background(), pair(t))
	require.Error(t, err)
	require.Equal(t, domain.OutcomeFailed, report.Outcome)
}

func TestRotateCancelledWhileMonitoring(t *testing.T) {
	b := &scriptedBoundary{
		steps:   []priceStep{{price: dec("100.1")}},
		buyFill: buyFill("100", "0.12", "12"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestRotator(b, &fakeFunder{}, 100).Rotate(ctx, pair(t))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, domain.OutcomeFailed, report.Outcome)
}
