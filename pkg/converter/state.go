package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status tracks a fetched value through its lifecycle.
type Status string

const (
	StatusUnset     Status = "unset"
	StatusPending   Status = "pending"
	StatusAvailable Status = "available"
	StatusFailed    Status = "failed"
)

// Value is a fetched quantity together with its status. A failed fetch keeps
// the last good Value so the stale figure stays on screen.
type Value struct {
	Status    Status              `json:"status"`
	Value     decimal.NullDecimal `json:"value"`
	Rate      decimal.NullDecimal `json:"rate"`
	Error     string              `json:"error,omitempty"`
	UpdatedAt *time.Time          `json:"updated_at,omitempty"`
}

// State is a consistent snapshot of a converter view.
type State struct {
	ViewID        string `json:"view_id"`
	Amount        Amount `json:"amount"`
	Source        string `json:"source"`
	Target        string `json:"target"`
	Result        Value  `json:"result"`
	ReferenceBase string `json:"reference_base"`
	ReferenceTo   string `json:"reference_quote"`
	ReferenceRate Value  `json:"reference_rate"`
	// Seq is the number of the latest issued conversion request.
	Seq uint64 `json:"seq"`
	// Version increases on every state change; consumers use it to order
	// snapshots delivered from different goroutines.
	Version uint64 `json:"version"`
	Mounted bool   `json:"mounted"`
}

// EventStateChanged is the bus event type emitted after each change.
const EventStateChanged = "converter.state_changed"

// StateChanged carries the snapshot taken right after a change.
type StateChanged struct {
	ViewID string
	State  State
	Reason string
}

func (e StateChanged) Type() string { return EventStateChanged }
