package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aureonlabs/rotor/internal/domain"
)

type cliFlags struct {
	platform      *string
	universe      *string
	reserve       *string
	quote         *string
	spend         *string
	tp            *string
	sl            *string
	maxHold       *time.Duration
	maxRotations  *int
	pollInterval  *time.Duration
	wait          *bool
	dryRun        *bool
	retain        *bool
	confirmLive   *bool
	dashboardAddr *string
}

// registerCLIFlags declares the single-agent flags. Registration happens
// before flag.Parse in Get so both modes share one parse.
func registerCLIFlags() *cliFlags {
	return &cliFlags{
		platform:      flag.String("platform", "simulate", "trading platform: binance, bybit or simulate"),
		universe:      flag.String("universe", "BNB_USDT,ETH_USDT", "comma-separated rotation universe, order matters"),
		reserve:       flag.String("reserve", "BTC", "reserve asset held as baseline capital"),
		quote:         flag.String("quote", "USDT", "quote currency used to size trades"),
		spend:         flag.String("spend", "12", "quote amount spent per symbol"),
		tp:            flag.String("takeprofit", "0.006", "take-profit fraction, must be positive"),
		sl:            flag.String("stoploss", "-0.005", "stop-loss fraction, must be negative"),
		maxHold:       flag.Duration("maxhold", defaultMaxHold, "max hold duration per position"),
		maxRotations:  flag.Int("maxrotations", 0, "max rotations per run, 0 means one pass over the universe"),
		pollInterval:  flag.Duration("pollinterval", defaultPollInterval, "price poll interval"),
		wait:          flag.Bool("waitforfunds", false, "block until reserve funds appear instead of skipping"),
		dryRun:        flag.Bool("dryrun", true, "simulate execution without placing real orders"),
		retain:        flag.Bool("retainreserve", false, "retain a quote buffer on repatriation"),
		confirmLive:   flag.Bool("confirmlive", false, "explicit confirmation required for live trading"),
		dashboardAddr: flag.String("dashboard", "", "dashboard listen address, empty disables"),
	}
}

// toConfig builds a single-agent configuration from parsed flags.
func (f *cliFlags) toConfig() (Config, error) {
	conf := Config{
		Platform:      *f.platform,
		ReserveAsset:  strings.ToUpper(*f.reserve),
		QuoteAsset:    strings.ToUpper(*f.quote),
		MaxHold:       *f.maxHold,
		MaxRotations:  *f.maxRotations,
		PollInterval:  *f.pollInterval,
		WaitForFunds:  *f.wait,
		DryRun:        *f.dryRun,
		RetainReserve: *f.retain,
		ConfirmLive:   *f.confirmLive,
		DashboardAddr: *f.dashboardAddr,
	}

	for _, s := range strings.Split(*f.universe, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		pair, err := domain.PairFromString(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid --universe provided: %w", err)
		}
		conf.Universe = append(conf.Universe, pair)
	}

	var err error
	conf.SpendPerSymbol, err = decimal.NewFromString(*f.spend)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --spend provided, --spend=%s", *f.spend)
	}
	conf.TakeProfit, err = decimal.NewFromString(*f.tp)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --takeprofit provided, --takeprofit=%s", *f.tp)
	}
	conf.StopLoss, err = decimal.NewFromString(*f.sl)
	if err != nil {
		return Config{}, fmt.Errorf("invalid --stoploss provided, --stoploss=%s", *f.sl)
	}

	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}
