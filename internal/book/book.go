package book

import (
	"time"

	"github.com/shopspring/decimal"

	"tradesim_go/internal/domain"
)

// OrderBook is the full two-sided book plus the sequence number of the
// last applied event. It carries no locking of its own; the engine owns
// mutation and hands out deep copies to readers.
type OrderBook struct {
	Bids       *Ladder
	Asks       *Ladder
	Sequence   uint64
	LastUpdate time.Time
}

// New creates an empty, uninitialized book (sequence 0).
func New() *OrderBook {
	return &OrderBook{
		Bids: NewBidLadder(),
		Asks: NewAskLadder(),
	}
}

// BestBid returns the highest bid level, if any.
func (b *OrderBook) BestBid() (domain.PriceLevel, bool) {
	return b.Bids.Best()
}

// BestAsk returns the lowest ask level, if any.
func (b *OrderBook) BestAsk() (domain.PriceLevel, bool) {
	return b.Asks.Best()
}

// Spread returns bestAsk - bestBid. Second return is false when either
// side is empty.
func (b *OrderBook) Spread() (decimal.Decimal, bool) {
	bid, okB := b.Bids.Best()
	ask, okA := b.Asks.Best()
	if !okB || !okA {
		return decimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}

// MidPrice returns (bestBid + bestAsk) / 2, false when either side is empty.
func (b *OrderBook) MidPrice() (decimal.Decimal, bool) {
	bid, okB := b.Bids.Best()
	ask, okA := b.Asks.Best()
	if !okB || !okA {
		return decimal.Zero, false
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2)), true
}

// Crossed reports best bid >= best ask. Only meaningful when both sides
// are populated; an empty side is never crossed.
func (b *OrderBook) Crossed() bool {
	bid, okB := b.Bids.Best()
	ask, okA := b.Asks.Best()
	if !okB || !okA {
		return false
	}
	return bid.Price.GreaterThanOrEqual(ask.Price)
}

// Opposing returns the ladder an order of the given side trades against:
// asks for BUY, bids for SELL.
func (b *OrderBook) Opposing(orderSide string) *Ladder {
	if orderSide == domain.SideBuy {
		return b.Asks
	}
	return b.Bids
}

// Clone returns an independent deep copy of the whole book.
func (b *OrderBook) Clone() *OrderBook {
	return &OrderBook{
		Bids:       b.Bids.Clone(),
		Asks:       b.Asks.Clone(),
		Sequence:   b.Sequence,
		LastUpdate: b.LastUpdate,
	}
}
