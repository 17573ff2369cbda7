package insights

import (
	"context"

	"github.com/shiftly/insights-server/internal/repository/models"
)

// SnapshotRepository defines the data-access interface the engine consumes.
type SnapshotRepository interface {
	GetSnapshot(ctx context.Context, lookbackDays int) (models.Snapshot, error)
	GetPerformance(ctx context.Context, entityID string, lookbackDays int) (models.PerformanceStats, error)
}
