package mocks

import (
	"context"
	"errors"

	"github.com/shiftly/insights-server/internal/repository/models"
)

// MockSnapshotRepository is a mock implementation of the SnapshotRepository
// interface for testing the insights engine.
type MockSnapshotRepository struct {
	GetSnapshotFunc    func(ctx context.Context, lookbackDays int) (models.Snapshot, error)
	GetPerformanceFunc func(ctx context.Context, entityID string, lookbackDays int) (models.PerformanceStats, error)
}

// GetSnapshot implements the SnapshotRepository interface
func (m *MockSnapshotRepository) GetSnapshot(ctx context.Context, lookbackDays int) (models.Snapshot, error) {
	if m.GetSnapshotFunc != nil {
		return m.GetSnapshotFunc(ctx, lookbackDays)
	}
	return models.Snapshot{}, errors.New("GetSnapshotFunc not implemented")
}

// GetPerformance implements the SnapshotRepository interface
func (m *MockSnapshotRepository) GetPerformance(ctx context.Context, entityID string, lookbackDays int) (models.PerformanceStats, error) {
	if m.GetPerformanceFunc != nil {
		return m.GetPerformanceFunc(ctx, entityID, lookbackDays)
	}
	return models.PerformanceStats{}, errors.New("GetPerformanceFunc not implemented")
}
