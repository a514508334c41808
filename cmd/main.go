// Command rotor runs the small-capital rotation trading bot. It walks a
// configured universe of spot pairs one position at a time, funding the
// quote balance from a reserve asset and converting profits back when done.
//
// Usage:
//
//	rotor --config config.yaml
//	rotor setup            (interactive wizard, then runs the result)
//	rotor                  (uses CLI arguments, simulation by default)
//
// Live trading requires API credentials in the environment (for Binance:
// BINANCE_API_KEY and BINANCE_API_SECRET, for Bybit: BYBIT_API_KEY and
// BYBIT_API_SECRET) plus the confirm_live flag.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/aureonlabs/rotor/config"
	"github.com/aureonlabs/rotor/internal"
	"github.com/aureonlabs/rotor/internal/clients"
	"github.com/aureonlabs/rotor/internal/domain"
	"github.com/aureonlabs/rotor/internal/setup"
	"github.com/aureonlabs/rotor/internal/storage/journal"
	"github.com/aureonlabs/rotor/internal/supervisor"
	"github.com/aureonlabs/rotor/internal/web"
)

func main() {
	configs, err := loadConfigs()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := supervisor.New(logger)

	for i, conf := range configs {
		client, err := platformClient(conf)
		if err != nil {
			logger.Fatal("pre-flight check failed",
				zap.String("platform", conf.Platform),
				zap.Error(err))
		}

		jrnl, err := journal.Open(agentJournalDir(conf, i))
		if err != nil {
			logger.Fatal("failed to open rotation journal", zap.Error(err))
		}
		defer jrnl.Close()

		orch, err := internal.NewOrchestrator(logger, conf, client, jrnl)
		if err != nil {
			logger.Fatal("failed to create orchestrator", zap.Error(err))
		}

		name := fmt.Sprintf("%s-%d", conf.Platform, i)
		sup.Add(name, orch, time.Duration(i)*conf.StartupStagger)

		if conf.DashboardAddr != "" {
			srv := web.NewServer(conf.DashboardAddr, jrnl)
			go func() {
				if err := srv.Start(ctx); err != nil {
					logger.Error("dashboard server stopped", zap.Error(err))
				}
			}()
			logger.Info("dashboard listening", zap.String("addr", conf.DashboardAddr))
		}
	}

	if err := sup.Run(ctx); err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}
}

func loadConfigs() ([]config.Config, error) {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			return nil, err
		}
		return config.FromYaml("config.gen.yaml")
	}
	return config.Get()
}

// platformClient performs the credential and confirmation gate before any
// boundary call and returns the venue client. Dry runs never need
// credentials: execution is routed to the simulator.
func platformClient(conf config.Config) (any, error) {
	if conf.Platform == "simulate" || conf.DryRun {
		return clients.NewSimulateClient(), nil
	}

	if !conf.ConfirmLive {
		return nil, errors.Wrapf(domain.ErrConfirmationRequired,
			"set confirm_live to trade real funds on %s", conf.Platform)
	}

	keyEnv, secretEnv := conf.CredentialEnv()
	apiKey, apiSecret := os.Getenv(keyEnv), os.Getenv(secretEnv)
	if apiKey == "" || apiSecret == "" {
		return nil, errors.Wrapf(domain.ErrMissingCredentials,
			"%s and %s must be set", keyEnv, secretEnv)
	}

	switch conf.Platform {
	case "binance":
		return clients.NewBinanceClient(apiKey, apiSecret), nil
	case "bybit":
		return clients.NewBybitClient(apiKey, apiSecret), nil
	default:
		return nil, errors.Errorf("unsupported platform: %s", conf.Platform)
	}
}

// agentJournalDir gives every agent its own journal directory so WAL
// segments never interleave.
func agentJournalDir(conf config.Config, idx int) string {
	if idx == 0 {
		return conf.JournalDir
	}
	return fmt.Sprintf("%s/agent%d", conf.JournalDir, idx)
}
