package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookEvent is the unit of ingestion. Events carry the transport-assigned
// sequence number; deltas apply only when their sequence directly follows
// the book's current sequence.
type BookEvent interface {
	Seq() uint64
	EventType() string
}

const (
	EventTypeSnapshot = "SNAPSHOT"
	EventTypeDelta    = "DELTA"
)

// Snapshot replaces the whole book. Levels may arrive in any order; the
// engine sorts them into side order on apply.
type Snapshot struct {
	Sequence uint64
	Bids     []PriceLevel
	Asks     []PriceLevel
	Ts       time.Time
}

func (s *Snapshot) Seq() uint64       { return s.Sequence }
func (s *Snapshot) EventType() string { return EventTypeSnapshot }

// Delta sets the resting quantity at a single price level.
// NewQuantity of zero removes the level.
type Delta struct {
	Sequence    uint64
	Side        string // "BUY" for a bid level, "SELL" for an ask level
	Price       decimal.Decimal
	NewQuantity decimal.Decimal
	Ts          time.Time
}

func (d *Delta) Seq() uint64       { return d.Sequence }
func (d *Delta) EventType() string { return EventTypeDelta }

// ResyncRequired is emitted by the engine when a sequence gap is detected.
// The transport collaborator must respond with a fresh Snapshot.
type ResyncRequired struct {
	LastKnownSequence uint64
	GapSequence       uint64 // Sequence of the delta that exposed the gap
	DetectedAt        time.Time
}
