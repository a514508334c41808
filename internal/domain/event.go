package domain

import "time"

// RotationEvent is one journal entry describing an engine transition.
// String fields avoid precision issues when rendered in UI layers.
type RotationEvent struct {
	Timestamp   time.Time `json:"ts"`
	Pair        string    `json:"pair"`
	Stage       string    `json:"stage"`
	Outcome     string    `json:"outcome,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Price       string    `json:"price,omitempty"`
	BaseQty     string    `json:"base_qty,omitempty"`
	QuoteAmount string    `json:"quote_amount,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}

// RotationEventRecord bundles an event with the log index it originated from.
type RotationEventRecord struct {
	Index uint64
	Event RotationEvent
}
