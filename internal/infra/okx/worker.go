package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"tradesim_go/internal/domain"
	"tradesim_go/internal/event"
	"tradesim_go/internal/infra"
)

const (
	baseDelay    = 1 * time.Second
	maxDelay     = 60 * time.Second
	pingInterval = 25 * time.Second
	readTimeout  = 60 * time.Second
)

// Worker maintains the OKX order book subscription and translates wire
// frames into the engine's ordered event stream. It owns the
// engine-facing sequence counter: exchange seqId continuity is checked
// here, and every emitted event carries a locally contiguous sequence.
//
// Resync is pull-by-reconnect: on a gap signal (from the engine or from
// broken seqId continuity) the worker drops the connection; OKX delivers
// a fresh snapshot on re-subscribe.
type Worker struct {
	url     string
	instID  string
	channel string
	inbox   chan<- domain.BookEvent
	resync  <-chan domain.ResyncRequired
	metrics *infra.Metrics
	logger  *slog.Logger

	mu        sync.RWMutex
	writeMu   sync.Mutex
	conn      *websocket.Conn
	connected bool

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Hotpath state, touched only by the read loop
	nextSeq     uint64
	lastExchSeq int64
	synced      bool
}

// NewWorker creates an OKX gateway worker.
func NewWorker(cfg *infra.Config, inbox chan<- domain.BookEvent, resync <-chan domain.ResyncRequired, metrics *infra.Metrics) *Worker {
	channel := cfg.Feed.Channel
	if channel == "" {
		channel = "books"
	}
	return &Worker{
		url:     cfg.Feed.WSURL,
		instID:  cfg.Feed.InstID,
		channel: channel,
		inbox:   inbox,
		resync:  resync,
		metrics: metrics,
		logger:  slog.Default().With("module", "okx_worker"),
	}
}

// Connect starts the connection and resync loops.
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go w.connectionLoop(ctx)
	go w.resyncLoop(ctx)
	return nil
}

// Disconnect stops all loops and closes the connection.
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConn()
	w.wg.Wait()
}

// IsConnected reports the current connection state.
func (w *Worker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()

	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.runConnection(ctx); err != nil {
			retryCount++
			delay := backoff(retryCount)
			w.logger.Warn("Connection lost, reconnecting",
				slog.Any("error", err), slog.Duration("delay", delay), slog.Int("attempt", retryCount))

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		// Clean shutdown
		return
	}
}

func backoff(attempt int) time.Duration {
	delay := baseDelay << uint(attempt-1)
	if delay > maxDelay || delay <= 0 {
		return maxDelay
	}
	return delay
}

// runConnection dials, subscribes, and pumps messages until the
// connection breaks or ctx is done.
func (w *Worker) runConnection(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.url, err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()
	if w.metrics != nil {
		w.metrics.SetFeedConnected(true)
	}

	defer func() {
		w.closeConn()
		if w.metrics != nil {
			w.metrics.SetFeedConnected(false)
		}
	}()

	if err := w.subscribe(conn); err != nil {
		return err
	}
	w.logger.Info("Subscribed to order book feed",
		slog.String("channel", w.channel), slog.String("inst", w.instID))

	// Every (re)connection starts unsynced until the next snapshot frame
	w.synced = false

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pingTicker.C:
				w.writeMu.Lock()
				err := conn.WriteMessage(websocket.TextMessage, []byte("ping"))
				w.writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if string(raw) == "pong" {
			continue
		}
		if err := w.handleMessage(raw); err != nil {
			return err
		}
	}
}

func (w *Worker) subscribe(conn *websocket.Conn) error {
	req := wsRequest{
		Op:   "subscribe",
		Args: []subscriptionArg{{Channel: w.channel, InstID: w.instID}},
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return conn.WriteJSON(req)
}

// resyncLoop reacts to engine gap signals by dropping the connection;
// the reconnect path re-subscribes and OKX replies with a snapshot.
func (w *Worker) resyncLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-w.resync:
			w.logger.Warn("Engine requested resync, forcing reconnect",
				slog.Uint64("last_seq", sig.LastKnownSequence),
				slog.Uint64("gap_seq", sig.GapSequence))
			w.closeConn()
		}
	}
}

func (w *Worker) closeConn() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.connected = false
}

func (w *Worker) handleMessage(raw []byte) error {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		w.logger.Warn("Unparseable frame", slog.Any("error", err))
		return nil // Skip garbage frames, do not kill the connection
	}

	switch {
	case msg.Event == "error":
		return fmt.Errorf("exchange error %s: %s", msg.Code, msg.Msg)
	case msg.Event == "subscribe":
		return nil
	case msg.Action == "":
		return nil
	}

	for _, bd := range msg.Data {
		events, err := w.frameToEvents(msg.Action, bd)
		if err != nil {
			// Continuity broken on the exchange side; force a fresh snapshot
			w.logger.Warn("Feed continuity broken, forcing reconnect", slog.Any("error", err))
			return err
		}
		for i, ev := range events {
			select {
			case w.inbox <- ev:
			default:
				// Inbox full: the engine cannot keep up. Dropping and
				// resyncing beats blocking the read loop indefinitely.
				releaseDeltas(events[i:])
				return fmt.Errorf("engine inbox full, dropping connection to resync")
			}
		}
	}
	return nil
}

// frameToEvents converts one book frame to engine events, assigning the
// locally contiguous sequence numbers the engine expects.
func (w *Worker) frameToEvents(action string, bd bookData) ([]domain.BookEvent, error) {
	ts := parseMillis(bd.Ts)

	switch action {
	case actionSnapshot:
		bids, err := parseLevels(bd.Bids)
		if err != nil {
			return nil, err
		}
		asks, err := parseLevels(bd.Asks)
		if err != nil {
			return nil, err
		}

		w.nextSeq++
		w.lastExchSeq = bd.SeqID
		w.synced = true
		return []domain.BookEvent{&domain.Snapshot{
			Sequence: w.nextSeq,
			Bids:     bids,
			Asks:     asks,
			Ts:       ts,
		}}, nil

	case actionUpdate:
		if !w.synced {
			// Updates before the first snapshot of this connection are useless
			return nil, nil
		}
		if bd.PrevSeqID != w.lastExchSeq {
			w.synced = false
			return nil, fmt.Errorf("exchange seq gap: prev %d, have %d", bd.PrevSeqID, w.lastExchSeq)
		}

		type parsedLevel struct {
			side  string
			price decimal.Decimal
			qty   decimal.Decimal
		}
		var removals, additions []parsedLevel
		for _, side := range []struct {
			levels [][]string
			side   string
		}{
			{bd.Bids, domain.SideBuy},
			{bd.Asks, domain.SideSell},
		} {
			for _, raw := range side.levels {
				price, qty, err := parseLevel(raw)
				if err != nil {
					return nil, err
				}
				pl := parsedLevel{side: side.side, price: price, qty: qty}
				if qty.IsZero() {
					removals = append(removals, pl)
				} else {
					additions = append(additions, pl)
				}
			}
		}

		// Removals first. A price moving through the book arrives as an
		// addition at or through the old best plus the old best's removal
		// in the same frame; removal-first ordering keeps the post-frame
		// book uncrossed at every point of the sequence.
		events := make([]domain.BookEvent, 0, len(removals)+len(additions))
		for _, group := range [][]parsedLevel{removals, additions} {
			for _, pl := range group {
				w.nextSeq++
				dl := event.AcquireDelta()
				dl.Sequence = w.nextSeq
				dl.Side = pl.side
				dl.Price = pl.price
				dl.NewQuantity = pl.qty
				dl.Ts = ts
				events = append(events, dl)
			}
		}
		w.lastExchSeq = bd.SeqID
		return events, nil

	default:
		return nil, nil
	}
}

// releaseDeltas returns every pooled delta in events to the pool.
func releaseDeltas(events []domain.BookEvent) {
	for _, ev := range events {
		if dl, ok := ev.(*domain.Delta); ok {
			event.ReleaseDelta(dl)
		}
	}
}

func parseLevel(raw []string) (price, qty decimal.Decimal, err error) {
	if len(raw) < 2 {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("short level entry: %v", raw)
	}
	price, err = decimal.NewFromString(raw[0])
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("bad price %q: %w", raw[0], err)
	}
	qty, err = decimal.NewFromString(raw[1])
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("bad size %q: %w", raw[1], err)
	}
	return price, qty, nil
}

func parseLevels(raws [][]string) ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(raws))
	for _, raw := range raws {
		price, qty, err := parseLevel(raw)
		if err != nil {
			return nil, err
		}
		if qty.IsZero() {
			continue
		}
		levels = append(levels, domain.PriceLevel{Price: price, Quantity: qty})
	}
	return levels, nil
}

func parseMillis(ts string) time.Time {
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.UnixMilli(ms)
}
