package event

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tradesim_go/internal/domain"
)

// Delta events dominate ingestion volume (hundreds per second on a busy
// book), so they are pooled to reduce GC pressure in the hotpath.
//
// Usage:
//
//	ev := AcquireDelta()
//	ev.Sequence = seq
//	// ... send to engine inbox ...
//	// The engine releases the event after applying it.
var deltaPool = sync.Pool{
	New: func() interface{} {
		return &domain.Delta{}
	},
}

// AcquireDelta gets a Delta from the pool.
// The returned event has zero values and must be initialized.
func AcquireDelta() *domain.Delta {
	return deltaPool.Get().(*domain.Delta)
}

// ReleaseDelta returns a Delta to the pool.
// The event is reset to zero values before being pooled.
func ReleaseDelta(ev *domain.Delta) {
	if ev == nil {
		return
	}
	ev.Sequence = 0
	ev.Side = ""
	ev.Price = decimal.Decimal{}
	ev.NewQuantity = decimal.Decimal{}
	ev.Ts = time.Time{}

	deltaPool.Put(ev)
}

// Warmup pre-allocates delta events to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 1000

	evs := make([]*domain.Delta, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		evs = append(evs, AcquireDelta())
	}
	for _, ev := range evs {
		ReleaseDelta(ev)
	}
}
