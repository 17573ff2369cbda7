package mocks

import (
	"context"
	"errors"

	"github.com/shiftly/insights-server/internal/insights"
)

// MockInsightsService is a mock implementation of the InsightsService
// interface for testing the handler layer.
type MockInsightsService struct {
	GenerateClientAssignmentsFunc   func(ctx context.Context, lookbackDays, topN int) ([]insights.ClientAssignment, error)
	GenerateScheduleSuggestionsFunc func(ctx context.Context, lookbackDays, weeks int) ([]insights.ScheduleSuggestion, error)
	GenerateActionItemsFunc         func(ctx context.Context, lookbackDays int) ([]insights.ActionItem, error)
	BuildInsightsFunc               func(ctx context.Context, lookbackDays, topN int) (insights.Insights, error)
	AnswerQueryFunc                 func(ctx context.Context, question string, lookbackDays int) (string, error)
}

// GenerateClientAssignments implements the InsightsService interface
func (m *MockInsightsService) GenerateClientAssignments(ctx context.Context, lookbackDays, topN int) ([]insights.ClientAssignment, error) {
	if m.GenerateClientAssignmentsFunc != nil {
		return m.GenerateClientAssignmentsFunc(ctx, lookbackDays, topN)
	}
	return nil, errors.New("GenerateClientAssignmentsFunc not implemented")
}

// GenerateScheduleSuggestions implements the InsightsService interface
func (m *MockInsightsService) GenerateScheduleSuggestions(ctx context.Context, lookbackDays, weeks int) ([]insights.ScheduleSuggestion, error) {
	if m.GenerateScheduleSuggestionsFunc != nil {
		return m.GenerateScheduleSuggestionsFunc(ctx, lookbackDays, weeks)
	}
	return nil, errors.New("GenerateScheduleSuggestionsFunc not implemented")
}

// GenerateActionItems implements the InsightsService interface
func (m *MockInsightsService) GenerateActionItems(ctx context.Context, lookbackDays int) ([]insights.ActionItem, error) {
	if m.GenerateActionItemsFunc != nil {
		return m.GenerateActionItemsFunc(ctx, lookbackDays)
	}
	return nil, errors.New("GenerateActionItemsFunc not implemented")
}

// BuildInsights implements the InsightsService interface
func (m *MockInsightsService) BuildInsights(ctx context.Context, lookbackDays, topN int) (insights.Insights, error) {
	if m.BuildInsightsFunc != nil {
		return m.BuildInsightsFunc(ctx, lookbackDays, topN)
	}
	return insights.Insights{}, errors.New("BuildInsightsFunc not implemented")
}

// AnswerQuery implements the InsightsService interface
func (m *MockInsightsService) AnswerQuery(ctx context.Context, question string, lookbackDays int) (string, error) {
	if m.AnswerQueryFunc != nil {
		return m.AnswerQueryFunc(ctx, question, lookbackDays)
	}
	return "", errors.New("AnswerQueryFunc not implemented")
}
