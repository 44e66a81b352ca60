package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tradesim_go/internal/book"
	"tradesim_go/internal/domain"
	"tradesim_go/internal/event"
	"tradesim_go/internal/infra"
)

// State is the engine lifecycle state.
type State int32

const (
	StateUninitialized State = iota // No snapshot applied yet
	StateSynced                     // Book is current
	StateStale                      // Gap detected, waiting for resync snapshot
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateSynced:
		return "SYNCED"
	case StateStale:
		return "STALE"
	default:
		return "UNKNOWN"
	}
}

// Engine owns the order book and is its sole mutator. Events are applied
// strictly in arrival order by a single goroutine (Run); concurrent readers
// get deep copies via SnapshotView and can never observe a half-applied
// delta.
//
// Gap policy: a delta that does not directly follow the current sequence
// moves the engine to Stale and emits a ResyncRequired signal. Partial
// deltas cannot reconstruct missing levels, so best-effort repair would
// risk a wrong best price downstream; resync is the only safe recovery.
type Engine struct {
	inbox   chan domain.BookEvent
	resync  chan domain.ResyncRequired
	metrics *infra.Metrics
	logger  *slog.Logger

	mu    sync.RWMutex // Guards bk and state for external readers
	bk    *book.OrderBook
	state State
}

// NewEngine creates an engine with a bounded inbox. The transport
// collaborator is responsible for bounding what it pushes; the engine
// never blocks ingestion on readers.
func NewEngine(inboxSize int, metrics *infra.Metrics) *Engine {
	return &Engine{
		inbox:   make(chan domain.BookEvent, inboxSize),
		resync:  make(chan domain.ResyncRequired, 1),
		metrics: metrics,
		logger:  slog.Default().With("module", "engine"),
		bk:      book.New(),
		state:   StateUninitialized,
	}
}

// Inbox returns the event channel. External workers send events here.
func (e *Engine) Inbox() chan<- domain.BookEvent {
	return e.inbox
}

// ResyncSignals returns the channel on which gap notifications are
// delivered. The transport must respond by pushing a fresh Snapshot.
func (e *Engine) ResyncSignals() <-chan domain.ResyncRequired {
	return e.resync
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Run consumes the inbox until ctx is done. This MUST run in a single
// goroutine; it is the only mutation path.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("Order book engine started (single-writer hotpath)")

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine stopping...")
			return
		case ev := <-e.inbox:
			e.processEvent(ev)
		}
	}
}

func (e *Engine) processEvent(ev domain.BookEvent) {
	start := time.Now()

	switch evt := ev.(type) {
	case *domain.Snapshot:
		if err := e.ApplySnapshot(evt); err != nil {
			e.logger.Error("Snapshot rejected",
				slog.Uint64("seq", evt.Sequence), slog.Any("error", err))
			if e.metrics != nil {
				e.metrics.RecordError()
			}
		}
	case *domain.Delta:
		// Gap and malformed errors are already signaled/counted inside
		// ApplyDelta; nothing more to do here.
		_ = e.ApplyDelta(evt)
		event.ReleaseDelta(evt)
	default:
		e.logger.Warn("Unknown event type", slog.String("type", ev.EventType()))
	}

	if e.metrics != nil {
		e.metrics.RecordApply(time.Since(start).Nanoseconds())
	}
}

// ApplySnapshot replaces the book wholesale and moves the engine to
// Synced. A malformed snapshot (negative quantity, duplicate price,
// crossed top of book) is rejected and the previous book survives intact.
func (e *Engine) ApplySnapshot(s *domain.Snapshot) error {
	fresh := book.New()
	if err := fresh.Bids.Replace(s.Bids); err != nil {
		return fmt.Errorf("snapshot bids: %w", err)
	}
	if err := fresh.Asks.Replace(s.Asks); err != nil {
		return fmt.Errorf("snapshot asks: %w", err)
	}
	if fresh.Crossed() {
		return fmt.Errorf("snapshot seq %d: %w", s.Sequence, domain.ErrCrossedBook)
	}

	fresh.Sequence = s.Sequence
	if s.Ts.IsZero() {
		fresh.LastUpdate = time.Now()
	} else {
		fresh.LastUpdate = s.Ts
	}

	e.mu.Lock()
	wasStale := e.state == StateStale
	e.bk = fresh
	e.state = StateSynced
	e.mu.Unlock()

	if wasStale && e.metrics != nil {
		e.metrics.RecordResync()
	}
	e.logger.Debug("Snapshot applied",
		slog.Uint64("seq", s.Sequence),
		slog.Int("bids", fresh.Bids.Len()), slog.Int("asks", fresh.Asks.Len()))
	return nil
}

// ApplyDelta applies a single-level update. On a sequence gap the engine
// goes Stale, the book is left untouched, and a ResyncRequired signal is
// emitted. While Stale or Uninitialized, deltas are dropped.
//
// In-sequence deltas are applied unconditionally, including ones that
// transiently cross the book: a price moving through the spread arrives
// as an addition through the old best plus a removal on the other side,
// and rejecting the addition would stall the sequence on every such
// move. The net-effect book after the full move is uncrossed; readers
// that do catch the mid-move window are guarded at the view consumer.
func (e *Engine) ApplyDelta(d *domain.Delta) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateUninitialized:
		return domain.ErrBookNotReady
	case StateStale:
		// Already waiting on a snapshot; everything until then is moot.
		return domain.ErrSequenceGap
	}

	if d.Sequence != e.bk.Sequence+1 {
		gap := &domain.GapError{Expected: e.bk.Sequence + 1, Got: d.Sequence}
		e.state = StateStale
		e.signalResync(d.Sequence)
		if e.metrics != nil {
			e.metrics.RecordGap()
		}
		e.logger.Warn("Sequence gap detected, book stale until resync",
			slog.Uint64("expected", gap.Expected), slog.Uint64("got", gap.Got))
		return gap
	}

	side := e.bk.Bids
	if d.Side == domain.SideSell {
		side = e.bk.Asks
	}
	if err := side.Upsert(d.Price, d.NewQuantity); err != nil {
		// Event dropped, book (including sequence) unchanged. The next
		// delta will gap and force a resync, which is the safe outcome
		// when the feed sends garbage.
		if e.metrics != nil {
			e.metrics.RecordError()
		}
		return err
	}

	e.bk.Sequence = d.Sequence
	if d.Ts.IsZero() {
		e.bk.LastUpdate = time.Now()
	} else {
		e.bk.LastUpdate = d.Ts
	}
	return nil
}

// signalResync publishes a ResyncRequired, replacing any pending signal
// so the transport always sees the most recent gap. Caller holds e.mu.
func (e *Engine) signalResync(gapSeq uint64) {
	sig := domain.ResyncRequired{
		LastKnownSequence: e.bk.Sequence,
		GapSequence:       gapSeq,
		DetectedAt:        time.Now(),
	}
	select {
	case e.resync <- sig:
	default:
		select {
		case <-e.resync:
		default:
		}
		e.resync <- sig
	}
}

// SnapshotView returns a deep copy of the current book. While Stale, the
// last synced view is served, still tagged with its sequence, so readers
// can keep estimating against slightly old but internally consistent data.
func (e *Engine) SnapshotView() (*book.OrderBook, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.state == StateUninitialized {
		return nil, domain.ErrBookNotReady
	}
	return e.bk.Clone(), nil
}
