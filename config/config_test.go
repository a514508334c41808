package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aureonlabs/rotor/internal/domain"
)

const yamlConfig = `
- platform: simulate
  universe: [BNB_USDT, ETH_USDT]
  reserve_asset: BTC
  quote_asset: USDT
  spend_per_symbol: "12"
  take_profit: "0.006"
  stop_loss: "-0.005"
  max_hold: 15m
  dry_run: true
- platform: bybit
  universe: [SOL_USDT]
  reserve_asset: BTC
  quote_asset: USDT
  spend_per_symbol: "20"
  take_profit: "0.01"
  stop_loss: "-0.008"
  max_hold: 30m
  max_rotations: 5
  poll_interval: 10s
  confirm_live: true
  api_key_env: BYBIT_SUB_KEY
  api_secret_env: BYBIT_SUB_SECRET
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFromYamlMultiAgent(t *testing.T) {
	configs, err := FromYaml(writeConfig(t, yamlConfig))
	require.NoError(t, err)
	require.Len(t, configs, 2)

	first := configs[0]
	require.Equal(t, "simulate", first.Platform)
	require.Equal(t, []domain.Pair{{Base: "BNB", Quote: "USDT"}, {Base: "ETH", Quote: "USDT"}}, first.Universe)
	require.True(t, first.SpendPerSymbol.Equal(decimal.RequireFromString("12")))
	require.True(t, first.DryRun)

	// defaults fill in what the file omits
	require.Equal(t, 5*time.Second, first.PollInterval)
	require.Equal(t, 2, first.MaxRotations, "defaults to one pass over the universe")
	require.Equal(t, "./journal", first.JournalDir)

	second := configs[1]
	require.Equal(t, 5, second.MaxRotations)
	require.Equal(t, 10*time.Second, second.PollInterval)
	require.True(t, second.ConfirmLive)
}

func TestFromYamlRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"positive stop loss", `
- platform: simulate
  universe: [BNB_USDT]
  reserve_asset: BTC
  quote_asset: USDT
  spend_per_symbol: "12"
  take_profit: "0.006"
  stop_loss: "0.005"
  max_hold: 15m
`},
		{"negative take profit", `
- platform: simulate
  universe: [BNB_USDT]
  reserve_asset: BTC
  quote_asset: USDT
  spend_per_symbol: "12"
  take_profit: "-0.006"
  stop_loss: "-0.005"
  max_hold: 15m
`},
		{"pair not quoted in quote asset", `
- platform: simulate
  universe: [BNB_BTC]
  reserve_asset: BTC
  quote_asset: USDT
  spend_per_symbol: "12"
  take_profit: "0.006"
  stop_loss: "-0.005"
  max_hold: 15m
`},
		{"unknown platform", `
- platform: kraken
  universe: [BNB_USDT]
  reserve_asset: BTC
  quote_asset: USDT
  spend_per_symbol: "12"
  take_profit: "0.006"
  stop_loss: "-0.005"
  max_hold: 15m
`},
		{"empty universe", `
- platform: simulate
  universe: []
  reserve_asset: BTC
  quote_asset: USDT
  spend_per_symbol: "12"
  take_profit: "0.006"
  stop_loss: "-0.005"
  max_hold: 15m
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromYaml(writeConfig(t, tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestCredentialEnv(t *testing.T) {
	conf := Config{Platform: "binance"}
	keyEnv, secretEnv := conf.CredentialEnv()
	require.Equal(t, "BINANCE_API_KEY", keyEnv)
	require.Equal(t, "BINANCE_API_SECRET", secretEnv)

	conf = Config{Platform: "bybit", APIKeyEnv: "BYBIT_SUB_KEY", APISecretEnv: "BYBIT_SUB_SECRET"}
	keyEnv, secretEnv = conf.CredentialEnv()
	require.Equal(t, "BYBIT_SUB_KEY", keyEnv)
	require.Equal(t, "BYBIT_SUB_SECRET", secretEnv)
}
