package exchange

import (
	"context"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/aureonlabs/rotor/internal/domain"
)

// Bybit implements the execution boundary on the Bybit V5 spot API.
// Market buys are sized in quote currency and market sells in base quantity,
// which matches the V5 spot order semantics directly.
type Bybit struct {
	client *bybit.Client
}

// NewBybit wraps an authenticated Bybit client.
func NewBybit(client *bybit.Client) *Bybit {
	return &Bybit{client: client}
}

func (b *Bybit) Balances(ctx context.Context) ([]domain.Balance, error) {
	res, err := b.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bybit wallet balance")
	}
	if len(res.Result.List) == 0 {
		return nil, errors.New("bybit API returned empty wallet list")
	}

	var balances []domain.Balance
	for _, coin := range res.Result.List[0].Coin {
		free, err := decimal.NewFromString(coin.WalletBalance)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s wallet balance", coin.Coin)
		}
		locked := decimal.Zero
		if coin.Locked != "" {
			locked, err = decimal.NewFromString(coin.Locked)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to parse %s locked balance", coin.Coin)
			}
		}
		balances = append(balances, domain.Balance{Asset: string(coin.Coin), Free: free.Sub(locked), Locked: locked})
	}
	return balances, nil
}

func (b *Bybit) Price(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	symbol := bybit.SymbolV5(pair.Symbol())
	result, err := b.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &symbol,
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	if len(result.Result.Spot.List) == 0 {
		return decimal.Decimal{}, errors.Errorf("bybit API returned empty prices for %s", pair.String())
	}

	return decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
}

func (b *Bybit) PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.ExecutionResult, error) {
	if err := req.Validate(); err != nil {
		return domain.ExecutionResult{}, err
	}

	side := bybit.SideBuy
	qty := req.QuoteAmount
	if req.Side == domain.SideSell {
		side = bybit.SideSell
		qty = req.BaseQty
	}

	res, err := b.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:    "spot",
		Symbol:      bybit.SymbolV5(req.Pair.Symbol()),
		Side:        side,
		OrderType:   bybit.OrderTypeMarket,
		Qty:         qty.String(),
		OrderLinkID: &req.ClientOrderID,
	})
	if err != nil {
		return domain.ExecutionResult{}, errors.Wrapf(err, "bybit rejected %s order for %s", req.Side, req.Pair.Symbol())
	}

	return b.fillByOrderID(ctx, req.Pair, res.Result.OrderID)
}

// fillByOrderID queries the order history to report executed quantity and
// average fill price for a just-placed market order.
func (b *Bybit) fillByOrderID(ctx context.Context, pair domain.Pair, orderID string) (domain.ExecutionResult, error) {
	symbol := bybit.SymbolV5(pair.Symbol())
	res, err := b.client.V5().Order().GetHistoryOrders(bybit.V5GetHistoryOrdersParam{
		Category: "spot",
		Symbol:   &symbol,
		OrderID:  &orderID,
	})
	if err != nil {
		return domain.ExecutionResult{}, errors.Wrapf(err, "failed to query bybit order %s", orderID)
	}
	if len(res.Result.List) == 0 {
		// market order accepted but not yet visible in history; report an
		// empty fill and let the caller treat it as no-fill
		return domain.ExecutionResult{OrderID: orderID}, nil
	}

	order := res.Result.List[0]
	filled, err := decimal.NewFromString(order.CumExecQty)
	if err != nil {
		return domain.ExecutionResult{}, errors.Wrap(err, "failed to parse executed quantity")
	}
	quote := decimal.Zero
	if order.CumExecValue != "" {
		quote, err = decimal.NewFromString(order.CumExecValue)
		if err != nil {
			return domain.ExecutionResult{}, errors.Wrap(err, "failed to parse executed value")
		}
	}

	avgPrice := decimal.Zero
	if order.AvgPrice != "" {
		avgPrice, err = decimal.NewFromString(order.AvgPrice)
		if err != nil {
			return domain.ExecutionResult{}, errors.Wrap(err, "failed to parse average price")
		}
	}
	if avgPrice.IsZero() && filled.GreaterThan(decimal.Zero) {
		avgPrice = quote.Div(filled)
	}

	return domain.ExecutionResult{
		FilledBaseQty: filled,
		AvgPrice:      avgPrice,
		QuoteAmount:   quote,
		OrderID:       orderID,
	}, nil
}

func (b *Bybit) SymbolInfo(ctx context.Context, pair domain.Pair) (domain.SymbolInfo, error) {
	symbol := bybit.SymbolV5(pair.Symbol())
	res, err := b.client.V5().Market().GetInstrumentsInfo(bybit.V5GetInstrumentsInfoParam{
		Category: "spot",
		Symbol:   &symbol,
	})
	if err != nil {
		return domain.SymbolInfo{}, errors.Wrapf(err, "failed to get bybit instrument info for %s", pair.Symbol())
	}
	if len(res.Result.Spot.List) == 0 {
		return domain.SymbolInfo{}, errors.Errorf("symbol %s not found in bybit instrument info", pair.Symbol())
	}

	inst := res.Result.Spot.List[0]
	minQty, _ := decimal.NewFromString(inst.LotSizeFilter.MinOrderQty)
	minNotional, _ := decimal.NewFromString(inst.LotSizeFilter.MinOrderAmt)
	stepSize, _ := decimal.NewFromString(inst.LotSizeFilter.BasePrecision)

	return domain.SymbolInfo{
		Base:        string(inst.BaseCoin),
		Quote:       string(inst.QuoteCoin),
		Status:      statusFromBybit(string(inst.Status)),
		MinNotional: minNotional,
		MinQty:      minQty,
		StepSize:    stepSize,
	}, nil
}

func statusFromBybit(status string) string {
	if status == "Trading" {
		return "TRADING"
	}
	return status
}
