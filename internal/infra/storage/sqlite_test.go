package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradesim_go/internal/domain"
)

func memStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(":memory:")
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleResult(seq uint64) domain.SimulationResult {
	return domain.SimulationResult{
		ID:                uuid.NewString(),
		Side:              domain.SideBuy,
		Quantity:          decimal.NewFromInt(5),
		ReferencePrice:    100.5,
		Spread:            0.5,
		MarketDepth:       8,
		TemporaryImpact:   0.00056,
		PermanentImpact:   0.00125,
		ExpectedFee:       0.45,
		MakerProbability:  0.42,
		TakerProbability:  0.58,
		TotalExpectedCost: 0.45181,
		BookSequenceUsed:  seq,
		CreatedAt:         time.Now(),
	}
}

func TestStorage_SaveAndCount(t *testing.T) {
	s := memStorage(t)
	ctx := context.Background()

	if err := s.SaveSimulation(ctx, sampleResult(1)); err != nil {
		t.Fatalf("SaveSimulation failed: %v", err)
	}
	if err := s.SaveSimulation(ctx, sampleResult(2)); err != nil {
		t.Fatalf("SaveSimulation failed: %v", err)
	}

	count, err := s.CountSimulations(ctx)
	if err != nil {
		t.Fatalf("CountSimulations failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 results, got %d", count)
	}
}

func TestStorage_RecentSimulations(t *testing.T) {
	s := memStorage(t)
	ctx := context.Background()

	old := sampleResult(1)
	old.CreatedAt = time.Now().Add(-time.Hour)
	recent := sampleResult(2)

	if err := s.SaveSimulation(ctx, old); err != nil {
		t.Fatalf("SaveSimulation failed: %v", err)
	}
	if err := s.SaveSimulation(ctx, recent); err != nil {
		t.Fatalf("SaveSimulation failed: %v", err)
	}

	results, err := s.RecentSimulations(ctx, 1)
	if err != nil {
		t.Fatalf("RecentSimulations failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].ID != recent.ID {
		t.Error("Expected the newest result first")
	}
	if results[0].BookSequenceUsed != 2 {
		t.Errorf("Expected sequence tag 2, got %d", results[0].BookSequenceUsed)
	}
	if !results[0].Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Quantity should round-trip through SQLite, got %v", results[0].Quantity)
	}
}
