package exchange

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aureonlabs/rotor/internal/domain"
)

// Pricer supplies the latest observed price for synthetic fills.
type Pricer interface {
	Price(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// Simulator is the dry-run execution path. It computes synthetic fills from
// the latest observed price with zero slippage and zero fees, and tracks
// balances locally so conservation holds across simulated orders. It returns
// the same result shape as a real execution; the engine cannot tell the
// difference.
type Simulator struct {
	mu     sync.Mutex
	pricer Pricer
	logger *zap.Logger
	wallet map[string]decimal.Decimal
	infos  map[string]domain.SymbolInfo
}

// NewSimulator seeds a simulator with initial balances. Symbol metadata may
// be seeded too; unknown symbols get permissive defaults.
func NewSimulator(pricer Pricer, seed map[string]decimal.Decimal, logger *zap.Logger) (*Simulator, error) {
	if pricer == nil {
		return nil, errors.New("pricer is required for Simulator")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	wallet := make(map[string]decimal.Decimal, len(seed))
	for asset, amount := range seed {
		wallet[asset] = amount
	}

	return &Simulator{
		pricer: pricer,
		logger: logger,
		wallet: wallet,
		infos:  make(map[string]domain.SymbolInfo),
	}, nil
}

// SeedSymbolInfo registers metadata returned by SymbolInfo for a pair.
func (s *Simulator) SeedSymbolInfo(pair domain.Pair, info domain.SymbolInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infos[pair.Symbol()] = info
}

func (s *Simulator) Balances(ctx context.Context) ([]domain.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balances := make([]domain.Balance, 0, len(s.wallet))
	for asset, free := range s.wallet {
		balances = append(balances, domain.Balance{Asset: asset, Free: free, Locked: decimal.Zero})
	}
	return balances, nil
}

func (s *Simulator) Price(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	return s.pricer.Price(ctx, pair)
}

func (s *Simulator) PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.ExecutionResult, error) {
	if err := req.Validate(); err != nil {
		return domain.ExecutionResult{}, err
	}

	price, err := s.pricer.Price(ctx, req.Pair)
	if err != nil {
		return domain.ExecutionResult{}, errors.Wrap(err, "failed to get price for simulated fill")
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return domain.ExecutionResult{}, errors.Errorf("no price observed for %s", req.Pair.Symbol())
	}

	// derive both legs from whichever sizing the order specifies
	baseQty := req.BaseQty
	quoteAmount := req.QuoteAmount
	if baseQty.IsZero() {
		baseQty = quoteAmount.Div(price)
	} else {
		quoteAmount = baseQty.Mul(price)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Side {
	case domain.SideBuy:
		if s.wallet[req.Pair.Quote].LessThan(quoteAmount) {
			return domain.ExecutionResult{}, errors.Errorf("insufficient %s balance: have %s need %s",
				req.Pair.Quote, s.wallet[req.Pair.Quote].String(), quoteAmount.String())
		}
		s.wallet[req.Pair.Quote] = s.wallet[req.Pair.Quote].Sub(quoteAmount)
		s.wallet[req.Pair.Base] = s.wallet[req.Pair.Base].Add(baseQty)
	case domain.SideSell:
		if s.wallet[req.Pair.Base].LessThan(baseQty) {
			return domain.ExecutionResult{}, errors.Errorf("insufficient %s balance: have %s need %s",
				req.Pair.Base, s.wallet[req.Pair.Base].String(), baseQty.String())
		}
		s.wallet[req.Pair.Base] = s.wallet[req.Pair.Base].Sub(baseQty)
		s.wallet[req.Pair.Quote] = s.wallet[req.Pair.Quote].Add(quoteAmount)
	default:
		return domain.ExecutionResult{}, errors.Errorf("unknown order side: %s", req.Side)
	}

	orderID := uuid.New().String()
	s.logger.Info("simulated fill",
		zap.String("symbol", req.Pair.Symbol()),
		zap.String("side", string(req.Side)),
		zap.String("base_qty", baseQty.String()),
		zap.String("quote_amount", quoteAmount.String()),
		zap.String("price", price.String()),
		zap.String("order_id", orderID))

	return domain.ExecutionResult{
		FilledBaseQty: baseQty,
		AvgPrice:      price,
		QuoteAmount:   quoteAmount,
		OrderID:       orderID,
	}, nil
}

func (s *Simulator) SymbolInfo(ctx context.Context, pair domain.Pair) (domain.SymbolInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.infos[pair.Symbol()]; ok {
		return info, nil
	}
	return domain.SymbolInfo{
		Base:        pair.Base,
		Quote:       pair.Quote,
		Status:      "TRADING",
		MinNotional: decimal.Zero,
		MinQty:      decimal.Zero,
		StepSize:    decimal.Zero,
	}, nil
}
