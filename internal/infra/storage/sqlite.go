package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tradesim_go/internal/domain"
)

// Storage is the SQLite-backed audit log of simulation results.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the database at path. Use ":memory:"
// for an ephemeral store in tests.
func NewStorage(path string) (*Storage, error) {
	if !strings.Contains(path, ":memory:") {
		dbDir := filepath.Dir(path)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// Pure Go SQLite driver, no cgo
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.SimulationResult{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// SaveSimulation appends one result to the audit log.
func (s *Storage) SaveSimulation(ctx context.Context, res domain.SimulationResult) error {
	return s.db.WithContext(ctx).Create(&res).Error
}

// RecentSimulations returns the newest results, newest first.
func (s *Storage) RecentSimulations(ctx context.Context, limit int) ([]domain.SimulationResult, error) {
	var results []domain.SimulationResult
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error
	return results, err
}

// CountSimulations returns the total number of stored results.
func (s *Storage) CountSimulations(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.SimulationResult{}).Count(&count).Error
	return count, err
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
