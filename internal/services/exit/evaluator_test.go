package exit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		change     string
		takeProfit string
		stopLoss   string
		want       Signal
	}{
		{"take profit on threshold crossing", "0.007", "0.006", "-0.005", TakeProfit},
		{"take profit exactly on threshold", "0.006", "0.006", "-0.005", TakeProfit},
		{"stop loss on threshold crossing", "-0.006", "0.006", "-0.005", StopLoss},
		{"stop loss exactly on threshold", "-0.005", "0.006", "-0.005", StopLoss},
		{"hold strictly between thresholds", "0.001", "0.006", "-0.005", Hold},
		{"hold on zero change", "0", "0.006", "-0.005", Hold},
		{"hold just below take profit", "0.0059", "0.006", "-0.005", Hold},
		{"hold just above stop loss", "-0.0049", "0.006", "-0.005", Hold},
		{"large gain regardless of stop loss value", "0.5", "0.006", "0.1", TakeProfit},
		{"take profit wins degenerate tie", "0.01", "0.01", "0.01", TakeProfit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(dec(tt.change), dec(tt.takeProfit), dec(tt.stopLoss))
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateEntryPriceScenarios(t *testing.T) {
	// entry 100, current 100.7 -> change 0.007 >= 0.006 -> take profit
	entry := dec("100")
	change := dec("100.7").Sub(entry).Div(entry)
	require.Equal(t, TakeProfit, Evaluate(change, dec("0.006"), dec("-0.005")))

	// entry 100, current 99.4 -> change -0.006 <= -0.005 -> stop loss
	change = dec("99.4").Sub(entry).Div(entry)
	require.Equal(t, StopLoss, Evaluate(change, dec("0.006"), dec("-0.005")))
}
