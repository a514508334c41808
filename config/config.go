// Package config loads and validates the immutable run configuration.
// A Config is constructed once at process start and passed by reference into
// every component; no component reads ambient process state directly.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/aureonlabs/rotor/internal/domain"
)

// Config describes one trading agent for the lifetime of a run.
type Config struct {
	Platform       string
	Universe       []domain.Pair
	ReserveAsset   string
	QuoteAsset     string
	SpendPerSymbol decimal.Decimal
	TakeProfit     decimal.Decimal
	StopLoss       decimal.Decimal
	MaxHold        time.Duration
	MaxRotations   int
	PollInterval   time.Duration
	WaitForFunds   bool
	DryRun         bool
	RetainReserve  bool
	ConfirmLive    bool
	StartupStagger time.Duration
	JournalDir     string
	DashboardAddr  string
	APIKeyEnv      string
	APISecretEnv   string
}

// ConfigTmp is the yaml representation of Config; money fields stay strings
// until parsed into decimals. The setup wizard marshals it back out.
type ConfigTmp struct {
	Platform          string   `yaml:"platform"`
	Universe          []string `yaml:"universe"`
	ReserveAsset      string   `yaml:"reserve_asset"`
	QuoteAsset        string   `yaml:"quote_asset"`
	SpendPerSymbolStr string   `yaml:"spend_per_symbol"`
	TakeProfitStr     string   `yaml:"take_profit"`
	StopLossStr       string   `yaml:"stop_loss"`
	MaxHold           Duration `yaml:"max_hold"`
	MaxRotations      int      `yaml:"max_rotations,omitempty"`
	PollInterval      Duration `yaml:"poll_interval,omitempty"`
	WaitForFunds      bool     `yaml:"wait_for_funds,omitempty"`
	DryRun            bool     `yaml:"dry_run,omitempty"`
	RetainReserve     bool     `yaml:"retain_reserve,omitempty"`
	ConfirmLive       bool     `yaml:"confirm_live,omitempty"`
	StartupStagger    Duration `yaml:"startup_stagger,omitempty"`
	JournalDir        string   `yaml:"journal_dir,omitempty"`
	DashboardAddr     string   `yaml:"dashboard_addr,omitempty"`
	APIKeyEnv         string   `yaml:"api_key_env,omitempty"`
	APISecretEnv      string   `yaml:"api_secret_env,omitempty"`
}

// Duration carries a time.Duration through yaml as a human-readable string
// such as "15m" or "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("incorrect duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxHold      = 15 * time.Minute
	defaultJournalDir   = "./journal"
)

// Get loads agent configurations from the yaml file given by --config, or
// from CLI flags when no file is provided (single agent).
func Get() ([]Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	cli := registerCLIFlags()
	flag.Parse()

	if *configPath != "" {
		return FromYaml(*configPath)
	}
	conf, err := cli.toConfig()
	if err != nil {
		return nil, err
	}
	return []Config{conf}, nil
}

// FromYaml loads agent configurations from a yaml file. The file holds a
// list of agents; each entry is validated independently.
func FromYaml(path string) ([]Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tmps []ConfigTmp
	if err := yaml.Unmarshal(f, &tmps); err != nil {
		return nil, err
	}

	configs := make([]Config, 0, len(tmps))
	for i, tmp := range tmps {
		conf, err := tmp.toConfig()
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
		configs = append(configs, conf)
	}
	return configs, nil
}

func (t ConfigTmp) toConfig() (Config, error) {
	conf := Config{
		Platform:       t.Platform,
		ReserveAsset:   t.ReserveAsset,
		QuoteAsset:     t.QuoteAsset,
		MaxHold:        time.Duration(t.MaxHold),
		MaxRotations:   t.MaxRotations,
		PollInterval:   time.Duration(t.PollInterval),
		WaitForFunds:   t.WaitForFunds,
		DryRun:         t.DryRun,
		RetainReserve:  t.RetainReserve,
		ConfirmLive:    t.ConfirmLive,
		StartupStagger: time.Duration(t.StartupStagger),
		JournalDir:     t.JournalDir,
		DashboardAddr:  t.DashboardAddr,
		APIKeyEnv:      t.APIKeyEnv,
		APISecretEnv:   t.APISecretEnv,
	}

	for _, s := range t.Universe {
		pair, err := domain.PairFromString(s)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'universe' entry in yaml config: %w", err)
		}
		conf.Universe = append(conf.Universe, pair)
	}

	var err error
	conf.SpendPerSymbol, err = decimal.NewFromString(t.SpendPerSymbolStr)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'spend_per_symbol' param in yaml config: %w", err)
	}
	conf.TakeProfit, err = decimal.NewFromString(t.TakeProfitStr)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'take_profit' param in yaml config: %w", err)
	}
	conf.StopLoss, err = decimal.NewFromString(t.StopLossStr)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'stop_loss' param in yaml config: %w", err)
	}

	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.MaxHold <= 0 {
		c.MaxHold = defaultMaxHold
	}
	if c.MaxRotations <= 0 {
		c.MaxRotations = len(c.Universe)
	}
	if c.JournalDir == "" {
		c.JournalDir = defaultJournalDir
	}
}

// CredentialEnv returns the environment variable names holding the API
// credentials, falling back to platform defaults (BINANCE_API_KEY and so on).
func (c *Config) CredentialEnv() (keyEnv, secretEnv string) {
	keyEnv = c.APIKeyEnv
	if keyEnv == "" {
		keyEnv = strings.ToUpper(c.Platform) + "_API_KEY"
	}
	secretEnv = c.APISecretEnv
	if secretEnv == "" {
		secretEnv = strings.ToUpper(c.Platform) + "_API_SECRET"
	}
	return keyEnv, secretEnv
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if len(c.Universe) == 0 {
		return fmt.Errorf("universe must contain at least one pair")
	}
	if c.ReserveAsset == "" || c.QuoteAsset == "" {
		return fmt.Errorf("reserve_asset and quote_asset must be set")
	}
	if c.SpendPerSymbol.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("spend_per_symbol must be positive, got %s", c.SpendPerSymbol.String())
	}
	if c.TakeProfit.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("take_profit must be positive, got %s", c.TakeProfit.String())
	}
	if c.StopLoss.GreaterThanOrEqual(decimal.Zero) {
		return fmt.Errorf("stop_loss must be negative, got %s", c.StopLoss.String())
	}
	for _, pair := range c.Universe {
		if pair.Quote != c.QuoteAsset {
			return fmt.Errorf("pair %s is not quoted in %s", pair.String(), c.QuoteAsset)
		}
	}
	switch c.Platform {
	case "binance", "bybit", "simulate":
	default:
		return fmt.Errorf("unsupported platform: %s", c.Platform)
	}
	return nil
}
