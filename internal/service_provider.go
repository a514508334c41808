package internal

import (
	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aureonlabs/rotor/config"
	"github.com/aureonlabs/rotor/internal/clients"
	"github.com/aureonlabs/rotor/internal/exchange"
)

// simReserveSeed is the reserve balance granted to the simulated wallet, so
// dry runs exercise the same funding path as live runs.
const simReserveSeed = 1

// newExchange dispatches the platform client to its execution boundary.
// This is the single point where real and simulated execution are selected;
// everything downstream sees one Exchange.
func newExchange(conf config.Config, client any, logger *zap.Logger) (exchange.Exchange, error) {
	switch c := client.(type) {
	case *binance.Client:
		return exchange.NewBinance(c), nil
	case *bybit.Client:
		return exchange.NewBybit(c), nil
	case *clients.SimulateClient:
		// real market prices, local wallet
		pricer := exchange.NewBinance(c.GetBinanceClient())
		seed := map[string]decimal.Decimal{
			conf.ReserveAsset: decimal.NewFromInt(simReserveSeed),
			conf.QuoteAsset:   decimal.Zero,
		}
		return exchange.NewSimulator(pricer, seed, logger)
	default:
		return nil, errors.Errorf("unsupported client type: %T", client)
	}
}
