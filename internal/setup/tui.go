package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/aureonlabs/rotor/config"
	"github.com/aureonlabs/rotor/internal/domain"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		platform        string
		universe        string
		reserveAsset    string
		quoteAsset      string
		spendStr        string
		takeProfitStr   string
		stopLossStr     string
		maxHoldStr      string
		pollIntervalStr string
		dryRun          bool
		retainReserve   bool
		waitForFunds    bool
		dashboardAddr   string
		confirm         bool
	)

	// defaults
	universe = "BNB_USDT,ETH_USDT"
	reserveAsset = "BTC"
	quoteAsset = "USDT"
	spendStr = "12"
	takeProfitStr = "0.006"
	stopLossStr = "-0.005"
	maxHoldStr = "15m"
	pollIntervalStr = "5s"
	dryRun = true

	// step 1: platform
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("ROTOR CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Small capital, one rotation at a time.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Simulation", "simulate"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 2: universe and assets
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ROTOR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: UNIVERSE"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Rotation Universe").
				Description("Comma-separated pairs, order matters (e.g. BNB_USDT,ETH_USDT)").
				Value(&universe).
				Validate(validateUniverse),
			huh.NewInput().
				Title("Reserve Asset").
				Description("Baseline capital converted to quote on demand (e.g. BTC)").
				Value(&reserveAsset).
				Validate(notEmpty),
			huh.NewInput().
				Title("Quote Asset").
				Description("Currency used to size trades (e.g. USDT)").
				Value(&quoteAsset).
				Validate(notEmpty),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 3: sizing and thresholds
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ROTOR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: SIZING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Spend Per Symbol").
				Description("Quote amount spent on each rotation (e.g. 12)").
				Value(&spendStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Take Profit Fraction").
				Description("Positive fraction (e.g. 0.006 for 0.6%)").
				Value(&takeProfitStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Stop Loss Fraction").
				Description("Negative fraction (e.g. -0.005 for -0.5%)").
				Value(&stopLossStr).
				Validate(validateNegativeDecimal),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 4: timing
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ROTOR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Max Hold Duration").
				Description("Duration string (e.g. 15m)").
				Value(&maxHoldStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Price Poll Interval").
				Description("Duration string (e.g. 5s)").
				Value(&pollIntervalStr).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 5: behaviour flags
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ROTOR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: BEHAVIOUR"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Dry run?").
				Description("Simulated execution against real prices").
				Value(&dryRun),
			huh.NewConfirm().
				Title("Retain quote buffer on repatriation?").
				Value(&retainReserve),
			huh.NewConfirm().
				Title("Wait for reserve funds instead of skipping?").
				Value(&waitForFunds),
			huh.NewInput().
				Title("Dashboard Address").
				Description("Listen address (e.g. :8080), empty disables").
				Value(&dashboardAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ROTOR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Platform: %s\nUniverse: %s\nReserve: %s\nQuote: %s\nSpend: %s\nTP/SL: %s / %s\nMax hold: %s\nDry run: %t\n",
		platform, universe, reserveAsset, quoteAsset, spendStr, takeProfitStr, stopLossStr, maxHoldStr, dryRun,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	maxHold, _ := time.ParseDuration(maxHoldStr)
	pollInterval, _ := time.ParseDuration(pollIntervalStr)

	cfgTmp := config.ConfigTmp{
		Platform:          platform,
		Universe:          splitUniverse(universe),
		ReserveAsset:      strings.ToUpper(strings.TrimSpace(reserveAsset)),
		QuoteAsset:        strings.ToUpper(strings.TrimSpace(quoteAsset)),
		SpendPerSymbolStr: spendStr,
		TakeProfitStr:     takeProfitStr,
		StopLossStr:       stopLossStr,
		MaxHold:           config.Duration(maxHold),
		PollInterval:      config.Duration(pollInterval),
		DryRun:            dryRun,
		RetainReserve:     retainReserve,
		WaitForFunds:      waitForFunds,
		DashboardAddr:     dashboardAddr,
	}

	data, err := yaml.Marshal([]config.ConfigTmp{cfgTmp})
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting rotor...", filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func splitUniverse(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

func validateUniverse(s string) error {
	pairs := splitUniverse(s)
	if len(pairs) == 0 {
		return fmt.Errorf("universe cannot be empty")
	}
	for _, p := range pairs {
		if _, err := domain.PairFromString(p); err != nil {
			return fmt.Errorf("invalid pair %q: must be BASE_QUOTE (e.g. BNB_USDT)", p)
		}
	}
	return nil
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func validatePositiveDecimal(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateNegativeDecimal(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.GreaterThanOrEqual(decimal.Zero) {
		return fmt.Errorf("must be negative")
	}
	return nil
}

func validateDuration(s string) error {
	_, err := time.ParseDuration(s)
	return err
}
