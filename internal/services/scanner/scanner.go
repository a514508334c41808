// Package scanner filters the configured universe before trading starts:
// a pair that is not tradable or cannot absorb the configured spend is
// dropped once instead of failing every rotation.
package scanner

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aureonlabs/rotor/internal/domain"
	"github.com/aureonlabs/rotor/pkg/retrier"
)

type boundary interface {
	SymbolInfo(ctx context.Context, pair domain.Pair) (domain.SymbolInfo, error)
}

// Scanner validates universe entries against exchange metadata.
type Scanner struct {
	boundary boundary
	retrier  *retrier.Retrier
	l        *zap.Logger
}

func NewScanner(l *zap.Logger, b boundary) *Scanner {
	if l == nil {
		l = zap.NewNop()
	}
	// metadata fetch happens once per run, outside the trading loop,
	// so retrying it is safe
	return &Scanner{
		boundary: b,
		retrier:  retrier.New(retrier.WithMaxRetries(3)),
		l:        l,
	}
}

// Scan returns the subset of universe that is tradable with the given spend,
// preserving order. An empty result is an error: there is nothing to rotate.
func (s *Scanner) Scan(ctx context.Context, universe []domain.Pair, spend decimal.Decimal) ([]domain.Pair, error) {
	viable := make([]domain.Pair, 0, len(universe))
	for _, pair := range universe {
		info, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) (domain.SymbolInfo, error) {
			return s.boundary.SymbolInfo(ctx, pair)
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get symbol info for %s", pair.Symbol())
		}

		if !info.Tradable() {
			s.l.Warn("dropping symbol: not tradable",
				zap.String("pair", pair.String()),
				zap.String("status", info.Status))
			continue
		}
		if !info.ViableSpend(spend) {
			s.l.Warn("dropping symbol: spend below minimum notional",
				zap.String("pair", pair.String()),
				zap.String("spend", spend.String()),
				zap.String("min_notional", info.MinNotional.String()))
			continue
		}
		viable = append(viable, pair)
	}

	if len(viable) == 0 {
		return nil, errors.New("no tradable symbols left in universe")
	}
	return viable, nil
}
