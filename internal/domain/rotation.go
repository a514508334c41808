package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome classifies how one rotation ended.
type Outcome string

const (
	// OutcomeCompleted means a position was opened and closed by an exit path.
	OutcomeCompleted Outcome = "completed"
	// OutcomeSkipped means funding failed and the symbol was abandoned for this run.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeNoFill means the buy returned zero quantity; no money was at risk.
	OutcomeNoFill Outcome = "no_fill"
	// OutcomeFailed means a boundary error interrupted the rotation.
	OutcomeFailed Outcome = "failed"
)

// ExitReason names the exit path that closed a position.
type ExitReason string

const (
	ExitTakeProfit ExitReason = "take_profit"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTimeout    ExitReason = "timeout"
)

// RotationReport summarises one rotation for logging and the journal.
type RotationReport struct {
	Pair       Pair
	Outcome    Outcome
	ExitReason ExitReason
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	BaseQty    decimal.Decimal
	QuoteSpent decimal.Decimal
	OpenedAt   time.Time
	ClosedAt   time.Time
}
