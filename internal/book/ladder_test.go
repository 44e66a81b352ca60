package book

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"tradesim_go/internal/domain"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestLadder_Ordering(t *testing.T) {
	t.Run("Bids descending", func(t *testing.T) {
		l := NewBidLadder()
		for _, p := range []string{"100.5", "101.0", "99.5", "100.0"} {
			if err := l.Upsert(d(p), d("1")); err != nil {
				t.Fatalf("Upsert failed: %v", err)
			}
		}

		best, ok := l.Best()
		if !ok || !best.Price.Equal(d("101.0")) {
			t.Errorf("Expected best bid 101.0, got %v", best.Price)
		}

		levels := l.DepthWithin(4)
		for i := 1; i < len(levels); i++ {
			if !levels[i].Price.LessThan(levels[i-1].Price) {
				t.Errorf("Bids not descending at index %d", i)
			}
		}
	})

	t.Run("Asks ascending", func(t *testing.T) {
		l := NewAskLadder()
		for _, p := range []string{"100.5", "101.0", "99.5", "100.0"} {
			if err := l.Upsert(d(p), d("1")); err != nil {
				t.Fatalf("Upsert failed: %v", err)
			}
		}

		best, ok := l.Best()
		if !ok || !best.Price.Equal(d("99.5")) {
			t.Errorf("Expected best ask 99.5, got %v", best.Price)
		}

		levels := l.DepthWithin(4)
		for i := 1; i < len(levels); i++ {
			if !levels[i].Price.GreaterThan(levels[i-1].Price) {
				t.Errorf("Asks not ascending at index %d", i)
			}
		}
	})
}

func TestLadder_Upsert(t *testing.T) {
	l := NewAskLadder()

	t.Run("Replace existing level", func(t *testing.T) {
		_ = l.Upsert(d("100"), d("5"))
		_ = l.Upsert(d("100"), d("8"))

		if l.Len() != 1 {
			t.Fatalf("Expected 1 level, got %d", l.Len())
		}
		best, _ := l.Best()
		if !best.Quantity.Equal(d("8")) {
			t.Errorf("Expected quantity 8, got %v", best.Quantity)
		}
	})

	t.Run("Zero quantity removes", func(t *testing.T) {
		_ = l.Upsert(d("100"), decimal.Zero)
		if l.Len() != 0 {
			t.Errorf("Expected empty ladder, got %d levels", l.Len())
		}
	})

	t.Run("Removing absent level is a no-op", func(t *testing.T) {
		if err := l.Upsert(d("123"), decimal.Zero); err != nil {
			t.Errorf("Expected nil error, got %v", err)
		}
	})

	t.Run("Negative quantity rejected", func(t *testing.T) {
		err := l.Upsert(d("100"), d("-1"))
		if !errors.Is(err, domain.ErrMalformedLevel) {
			t.Errorf("Expected ErrMalformedLevel, got %v", err)
		}
		if l.Len() != 0 {
			t.Error("Ladder should be unchanged after rejected upsert")
		}
	})

	t.Run("Non-positive price rejected", func(t *testing.T) {
		if err := l.Upsert(decimal.Zero, d("1")); !errors.Is(err, domain.ErrMalformedLevel) {
			t.Errorf("Expected ErrMalformedLevel, got %v", err)
		}
	})
}

func TestLadder_NoZeroQuantityStored(t *testing.T) {
	l := NewBidLadder()
	_ = l.Upsert(d("100"), d("3"))
	_ = l.Upsert(d("99"), d("2"))
	_ = l.Upsert(d("100"), decimal.Zero)

	for _, lv := range l.DepthWithin(l.Len()) {
		if !lv.Quantity.IsPositive() {
			t.Errorf("Level %v has non-positive quantity %v", lv.Price, lv.Quantity)
		}
	}
}

func TestLadder_DepthWithin(t *testing.T) {
	l := NewAskLadder()
	for _, p := range []string{"100", "101", "102", "103"} {
		_ = l.Upsert(d(p), d("2"))
	}

	t.Run("Bounded by maxLevels", func(t *testing.T) {
		levels := l.DepthWithin(2)
		if len(levels) != 2 {
			t.Fatalf("Expected 2 levels, got %d", len(levels))
		}
		if !levels[0].Price.Equal(d("100")) || !levels[1].Price.Equal(d("101")) {
			t.Error("DepthWithin should return top-of-book levels in order")
		}
	})

	t.Run("Snapshot not live cursor", func(t *testing.T) {
		levels := l.DepthWithin(2)
		_ = l.Upsert(d("100"), d("99"))
		if !levels[0].Quantity.Equal(d("2")) {
			t.Error("Returned slice should be isolated from later mutation")
		}
	})

	t.Run("Non-positive maxLevels", func(t *testing.T) {
		if got := l.DepthWithin(0); got != nil {
			t.Errorf("Expected nil, got %v", got)
		}
	})
}

func TestLadder_LevelsInRange(t *testing.T) {
	l := NewBidLadder()
	for _, p := range []string{"100", "101", "102", "103"} {
		_ = l.Upsert(d(p), d("1"))
	}

	got := l.LevelsInRange(d("101"), d("102"))
	if len(got) != 2 {
		t.Fatalf("Expected 2 levels in range, got %d", len(got))
	}
	// Bid side: descending order inside the range
	if !got[0].Price.Equal(d("102")) || !got[1].Price.Equal(d("101")) {
		t.Errorf("Expected [102 101], got [%v %v]", got[0].Price, got[1].Price)
	}

	if l.LevelsInRange(d("105"), d("104")) != nil {
		t.Error("Inverted range should return nil")
	}
}

func TestLadder_TotalQuantity(t *testing.T) {
	l := NewAskLadder()
	_ = l.Upsert(d("100"), d("3"))
	_ = l.Upsert(d("101"), d("4"))
	_ = l.Upsert(d("102"), d("5"))

	if got := l.TotalQuantity(2); !got.Equal(d("7")) {
		t.Errorf("Expected 7, got %v", got)
	}
	if got := l.TotalQuantity(10); !got.Equal(d("12")) {
		t.Errorf("Expected 12, got %v", got)
	}
}

func TestLadder_Replace(t *testing.T) {
	t.Run("Sorts and drops zero levels", func(t *testing.T) {
		l := NewAskLadder()
		err := l.Replace([]domain.PriceLevel{
			{Price: d("102"), Quantity: d("1")},
			{Price: d("100"), Quantity: d("2")},
			{Price: d("101"), Quantity: decimal.Zero},
		})
		if err != nil {
			t.Fatalf("Replace failed: %v", err)
		}
		if l.Len() != 2 {
			t.Fatalf("Expected 2 levels, got %d", l.Len())
		}
		best, _ := l.Best()
		if !best.Price.Equal(d("100")) {
			t.Errorf("Expected best 100, got %v", best.Price)
		}
	})

	t.Run("Duplicate prices rejected", func(t *testing.T) {
		l := NewAskLadder()
		err := l.Replace([]domain.PriceLevel{
			{Price: d("100"), Quantity: d("1")},
			{Price: d("100"), Quantity: d("2")},
		})
		if !errors.Is(err, domain.ErrMalformedLevel) {
			t.Errorf("Expected ErrMalformedLevel, got %v", err)
		}
	})

	t.Run("Negative quantity rejected wholesale", func(t *testing.T) {
		l := NewAskLadder()
		_ = l.Upsert(d("50"), d("1"))
		err := l.Replace([]domain.PriceLevel{
			{Price: d("100"), Quantity: d("1")},
			{Price: d("101"), Quantity: d("-2")},
		})
		if !errors.Is(err, domain.ErrMalformedLevel) {
			t.Fatalf("Expected ErrMalformedLevel, got %v", err)
		}
		// Old contents survive a rejected replace
		best, ok := l.Best()
		if !ok || !best.Price.Equal(d("50")) {
			t.Error("Ladder should be unchanged after rejected replace")
		}
	})
}

func TestLadder_Clone(t *testing.T) {
	l := NewBidLadder()
	_ = l.Upsert(d("100"), d("1"))

	cp := l.Clone()
	_ = l.Upsert(d("100"), d("9"))

	best, _ := cp.Best()
	if !best.Quantity.Equal(d("1")) {
		t.Error("Clone should be isolated from the original")
	}
}
