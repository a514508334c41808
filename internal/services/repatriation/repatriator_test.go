package repatriation

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aureonlabs/rotor/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeBoundary struct {
	quoteFree decimal.Decimal
	info      domain.SymbolInfo
	orders    []domain.OrderRequest
	orderErr  error
}

func (f *fakeBoundary) Balances(_ context.Context) ([]domain.Balance, error) {
	return []domain.Balance{
		{Asset: "USDT", Free: f.quoteFree},
		{Asset: "BTC", Free: dec("0.01")},
	}, nil
}

func (f *fakeBoundary) SymbolInfo(_ context.Context, _ domain.Pair) (domain.SymbolInfo, error) {
	return f.info, nil
}

func (f *fakeBoundary) PlaceMarketOrder(_ context.Context, req domain.OrderRequest) (domain.ExecutionResult, error) {
	if f.orderErr != nil {
		return domain.ExecutionResult{}, f.orderErr
	}
	f.orders = append(f.orders, req)
	price := dec("2000")
	return domain.ExecutionResult{
		FilledBaseQty: req.QuoteAmount.Div(price),
		AvgPrice:      price,
		QuoteAmount:   req.QuoteAmount,
		OrderID:       "order-1",
	}, nil
}

func reservePair(t *testing.T) domain.Pair {
	t.Helper()
	pair, err := domain.PairFromString("BTC_USDT")
	require.NoError(t, err)
	return pair
}

func TestConvertBackRetainKeepsBuffer(t *testing.T) {
	b := &fakeBoundary{quoteFree: dec("50"), info: domain.SymbolInfo{MinNotional: dec("5")}}

	r := NewRepatriator(zap.NewNop(), b, reservePair(t))
	require.NoError(t, r.ConvertBack(context.Background(), true))

	require.Len(t, b.orders, 1)
	require.Equal(t, domain.SideBuy, b.orders[0].Side)
	require.True(t, b.orders[0].QuoteAmount.Equal(dec("38")), "got %s", b.orders[0].QuoteAmount)
}

func TestConvertBackFullConvertsNinetyEightPercent(t *testing.T) {
	b := &fakeBoundary{quoteFree: dec("50"), info: domain.SymbolInfo{MinNotional: dec("5")}}

	r := NewRepatriator(zap.NewNop(), b, reservePair(t))
	require.NoError(t, r.ConvertBack(context.Background(), false))

	require.Len(t, b.orders, 1)
	require.True(t, b.orders[0].QuoteAmount.Equal(dec("49")), "got %s", b.orders[0].QuoteAmount)
}

func TestConvertBackBelowMinNotionalIsNoop(t *testing.T) {
	b := &fakeBoundary{quoteFree: dec("4"), info: domain.SymbolInfo{MinNotional: dec("5")}}

	r := NewRepatriator(zap.NewNop(), b, reservePair(t))
	require.NoError(t, r.ConvertBack(context.Background(), false))
	require.Empty(t, b.orders)
}

func TestConvertBackRetainBelowBufferIsNoop(t *testing.T) {
	b := &fakeBoundary{quoteFree: dec("10"), info: domain.SymbolInfo{MinNotional: dec("5")}}

	r := NewRepatriator(zap.NewNop(), b, reservePair(t))
	require.NoError(t, r.ConvertBack(context.Background(), true))
	require.Empty(t, b.orders)
}

func TestConvertBackOrderFailurePropagates(t *testing.T) {
	b := &fakeBoundary{
		quoteFree: dec("50"),
		orderErr:  errors.New("venue rejected order"),
	}

	r := NewRepatriator(zap.NewNop(), b, reservePair(t))
	err := r.ConvertBack(context.Background(), false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "venue rejected order")
}
