package httpapi

import (
	"context"
	"time"

	"github.com/shiftly/insights-server/internal/insights"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// InsightsService is the engine surface the handlers consume.
type InsightsService interface {
	GenerateClientAssignments(ctx context.Context, lookbackDays, topN int) ([]insights.ClientAssignment, error)
	GenerateScheduleSuggestions(ctx context.Context, lookbackDays, weeks int) ([]insights.ScheduleSuggestion, error)
	GenerateActionItems(ctx context.Context, lookbackDays int) ([]insights.ActionItem, error)
	BuildInsights(ctx context.Context, lookbackDays, topN int) (insights.Insights, error)
	AnswerQuery(ctx context.Context, question string, lookbackDays int) (string, error)
}
