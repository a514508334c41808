package exchange

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/aureonlabs/rotor/internal/domain"
)

// Binance implements the execution boundary on the Binance spot REST API.
type Binance struct {
	client *binance.Client
}

// NewBinance wraps an authenticated Binance client.
func NewBinance(client *binance.Client) *Binance {
	return &Binance{client: client}
}

func (b *Binance) Balances(ctx context.Context) ([]domain.Balance, error) {
	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get binance account snapshot")
	}

	balances := make([]domain.Balance, 0, len(account.Balances))
	for _, bal := range account.Balances {
		free, err := decimal.NewFromString(bal.Free)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse free balance for %s", bal.Asset)
		}
		locked, err := decimal.NewFromString(bal.Locked)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse locked balance for %s", bal.Asset)
		}
		balances = append(balances, domain.Balance{Asset: bal.Asset, Free: free, Locked: locked})
	}
	return balances, nil
}

func (b *Binance) Price(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	prices, err := b.client.NewListPricesService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if len(prices) == 0 {
		return decimal.Decimal{}, errors.Errorf("binance API returned empty prices for %s", pair.String())
	}

	return decimal.NewFromString(prices[0].Price)
}

func (b *Binance) PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.ExecutionResult, error) {
	if err := req.Validate(); err != nil {
		return domain.ExecutionResult{}, err
	}

	side := binance.SideTypeBuy
	if req.Side == domain.SideSell {
		side = binance.SideTypeSell
	}

	svc := b.client.NewCreateOrderService().
		Symbol(req.Pair.Symbol()).
		Side(side).
		Type(binance.OrderTypeMarket).
		NewClientOrderID(req.ClientOrderID)

	if req.QuoteAmount.GreaterThan(decimal.Zero) {
		svc = svc.QuoteOrderQty(req.QuoteAmount.String())
	} else {
		svc = svc.Quantity(req.BaseQty.String())
	}

	resp, err := svc.Do(ctx)
	if err != nil {
		return domain.ExecutionResult{}, errors.Wrapf(err, "binance rejected %s order for %s", req.Side, req.Pair.Symbol())
	}

	filled, err := decimal.NewFromString(resp.ExecutedQuantity)
	if err != nil {
		return domain.ExecutionResult{}, errors.Wrap(err, "failed to parse executed quantity")
	}
	quote, err := decimal.NewFromString(resp.CummulativeQuoteQuantity)
	if err != nil {
		return domain.ExecutionResult{}, errors.Wrap(err, "failed to parse cumulative quote quantity")
	}

	avgPrice := decimal.Zero
	if filled.GreaterThan(decimal.Zero) {
		avgPrice = quote.Div(filled)
	}

	return domain.ExecutionResult{
		FilledBaseQty: filled,
		AvgPrice:      avgPrice,
		QuoteAmount:   quote,
		OrderID:       strconv.FormatInt(resp.OrderID, 10),
	}, nil
}

func (b *Binance) SymbolInfo(ctx context.Context, pair domain.Pair) (domain.SymbolInfo, error) {
	info, err := b.client.NewExchangeInfoService().Symbols(pair.Symbol()).Do(ctx)
	if err != nil {
		return domain.SymbolInfo{}, errors.Wrapf(err, "failed to get exchange info for %s", pair.Symbol())
	}

	for _, s := range info.Symbols {
		if s.Symbol != pair.Symbol() {
			continue
		}
		out := domain.SymbolInfo{
			Base:   s.BaseAsset,
			Quote:  s.QuoteAsset,
			Status: s.Status,
		}
		for _, f := range s.Filters {
			switch filterValue(f, "filterType") {
			case "LOT_SIZE":
				out.MinQty = parseFilterDecimal(f, "minQty")
				out.StepSize = parseFilterDecimal(f, "stepSize")
			case "MIN_NOTIONAL", "NOTIONAL":
				out.MinNotional = parseFilterDecimal(f, "minNotional")
			}
		}
		return out, nil
	}

	return domain.SymbolInfo{}, errors.Errorf("symbol %s not found in exchange info", pair.Symbol())
}

func filterValue(filter map[string]interface{}, key string) string {
	v, ok := filter[key].(string)
	if !ok {
		return ""
	}
	return v
}

func parseFilterDecimal(filter map[string]interface{}, key string) decimal.Decimal {
	d, err := decimal.NewFromString(filterValue(filter, key))
	if err != nil {
		return decimal.Zero
	}
	return d
}
