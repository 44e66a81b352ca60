package event

import (
	"testing"

	"github.com/shopspring/decimal"

	"tradesim_go/internal/domain"
)

func TestDeltaPool_ResetOnRelease(t *testing.T) {
	ev := AcquireDelta()
	ev.Sequence = 42
	ev.Side = domain.SideBuy
	ev.Price = decimal.NewFromInt(100)
	ev.NewQuantity = decimal.NewFromInt(5)

	ReleaseDelta(ev)

	// The same object comes back zeroed (pool behavior is best-effort,
	// but a reused object must never leak the previous event's fields)
	got := AcquireDelta()
	defer ReleaseDelta(got)

	if got.Sequence != 0 || got.Side != "" {
		t.Errorf("Pooled delta not reset: %+v", got)
	}
	if !got.Price.IsZero() || !got.NewQuantity.IsZero() {
		t.Errorf("Pooled delta decimals not reset: %+v", got)
	}
}

func TestReleaseDelta_Nil(t *testing.T) {
	// Must not panic
	ReleaseDelta(nil)
}
