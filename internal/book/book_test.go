package book

import (
	"testing"

	"tradesim_go/internal/domain"
)

func populated() *OrderBook {
	b := New()
	_ = b.Bids.Upsert(d("100.0"), d("10"))
	_ = b.Bids.Upsert(d("99.5"), d("4"))
	_ = b.Asks.Upsert(d("100.5"), d("8"))
	_ = b.Asks.Upsert(d("101.0"), d("6"))
	b.Sequence = 42
	return b
}

func TestOrderBook_Spread(t *testing.T) {
	b := populated()

	spread, ok := b.Spread()
	if !ok || !spread.Equal(d("0.5")) {
		t.Errorf("Expected spread 0.5, got %v (ok=%v)", spread, ok)
	}

	mid, ok := b.MidPrice()
	if !ok || !mid.Equal(d("100.25")) {
		t.Errorf("Expected mid 100.25, got %v", mid)
	}
}

func TestOrderBook_EmptySide(t *testing.T) {
	b := New()
	_ = b.Bids.Upsert(d("100"), d("1"))

	if _, ok := b.Spread(); ok {
		t.Error("Spread should report not-ok with an empty ask side")
	}
	if b.Crossed() {
		t.Error("A one-sided book is never crossed")
	}
}

func TestOrderBook_Crossed(t *testing.T) {
	b := New()
	_ = b.Bids.Upsert(d("101"), d("1"))
	_ = b.Asks.Upsert(d("100"), d("1"))

	if !b.Crossed() {
		t.Error("bid 101 >= ask 100 should report crossed")
	}
}

func TestOrderBook_Opposing(t *testing.T) {
	b := populated()

	best, _ := b.Opposing(domain.SideBuy).Best()
	if !best.Price.Equal(d("100.5")) {
		t.Errorf("BUY should trade against asks, got best %v", best.Price)
	}

	best, _ = b.Opposing(domain.SideSell).Best()
	if !best.Price.Equal(d("100.0")) {
		t.Errorf("SELL should trade against bids, got best %v", best.Price)
	}
}

func TestOrderBook_Clone(t *testing.T) {
	b := populated()
	cp := b.Clone()

	_ = b.Asks.Upsert(d("100.5"), d("999"))
	b.Sequence = 100

	best, _ := cp.BestAsk()
	if !best.Quantity.Equal(d("8")) {
		t.Error("Clone asks should be isolated from the original")
	}
	if cp.Sequence != 42 {
		t.Errorf("Clone sequence should stay 42, got %d", cp.Sequence)
	}
}
