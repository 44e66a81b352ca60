package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradesim_go/internal/domain"
)

func TestTable_Rates(t *testing.T) {
	table := NewTable()

	t.Run("Known tier", func(t *testing.T) {
		r := table.Rates("VIP 3 (0.06%)")
		assert.Equal(t, 0.0004, r.Maker)
		assert.Equal(t, 0.0006, r.Taker)
	})

	t.Run("Unknown tier falls back to default", func(t *testing.T) {
		r := table.Rates("VIP 99")
		assert.Equal(t, 0.0008, r.Maker)
		assert.Equal(t, 0.0010, r.Taker)
	})

	t.Run("Empty tier falls back to default", func(t *testing.T) {
		r := table.Rates("")
		assert.Equal(t, 0.0010, r.Taker)
	})
}

func TestTable_ExpectedRate(t *testing.T) {
	table := NewTable()

	t.Run("Pure maker", func(t *testing.T) {
		assert.InDelta(t, 0.0008, table.ExpectedRate(DefaultTier, 1.0), 1e-12)
	})

	t.Run("Pure taker", func(t *testing.T) {
		assert.InDelta(t, 0.0010, table.ExpectedRate(DefaultTier, 0.0), 1e-12)
	})

	t.Run("Blended", func(t *testing.T) {
		// 0.0008*0.5 + 0.0010*0.5 = 0.0009
		assert.InDelta(t, 0.0009, table.ExpectedRate(DefaultTier, 0.5), 1e-12)
	})
}

func TestTable_RateFunc(t *testing.T) {
	fn := NewTable().RateFunc()

	assert.Equal(t, 0.0008, fn(domain.SideBuy, DefaultTier, domain.OrderTypeLimit))
	assert.Equal(t, 0.0010, fn(domain.SideSell, DefaultTier, domain.OrderTypeMarket))
}
