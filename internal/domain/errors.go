package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedLevel is returned when an event carries a negative or
	// otherwise invalid quantity. The event is dropped, the book unchanged.
	ErrMalformedLevel = errors.New("malformed price level")

	// ErrSequenceGap is returned when a delta does not directly follow the
	// book's current sequence. The engine goes Stale and requests a resync;
	// this is a recoverable condition, not a fatal one.
	ErrSequenceGap = errors.New("sequence gap")

	// ErrBookNotReady is returned when a simulation is requested before the
	// first snapshot has been applied.
	ErrBookNotReady = errors.New("order book not ready")

	// ErrEmptyBook is returned when the side the simulation must trade
	// against has no levels.
	ErrEmptyBook = errors.New("order book side empty")

	// ErrCrossedBook signals best bid >= best ask inside a Synced book.
	// This should be unreachable; treat it as a bug signal, not user error.
	ErrCrossedBook = errors.New("crossed order book")

	// ErrInvalidRequest is returned for a simulation request that violates
	// the caller contract (unknown side, non-positive quantity).
	ErrInvalidRequest = errors.New("invalid simulation request")
)

// GapError carries the sequence numbers around a detected gap.
// It wraps ErrSequenceGap so callers can match with errors.Is.
type GapError struct {
	Expected uint64
	Got      uint64
}

func (e *GapError) Error() string {
	return fmt.Sprintf("sequence gap: expected %d, got %d", e.Expected, e.Got)
}

func (e *GapError) Unwrap() error {
	return ErrSequenceGap
}
