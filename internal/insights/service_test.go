package insights

import (
	"context"
	"errors"
	"testing"

	"github.com/shiftly/insights-server/internal/insights/mocks"
	"github.com/shiftly/insights-server/internal/repository/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubRepo builds a repository mock serving a fixed snapshot and per-entity
// performance stats. Entities absent from perf report no shifts.
func stubRepo(snap models.Snapshot, perf map[string]models.PerformanceStats) *mocks.MockSnapshotRepository {
	return &mocks.MockSnapshotRepository{
		GetSnapshotFunc: func(ctx context.Context, lookbackDays int) (models.Snapshot, error) {
			return snap, nil
		},
		GetPerformanceFunc: func(ctx context.Context, entityID string, lookbackDays int) (models.PerformanceStats, error) {
			return perf[entityID], nil
		},
	}
}

func TestNewService(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		repo := &mocks.MockSnapshotRepository{}
		logger := zap.NewNop()

		svc := NewService(repo, logger)

		assert.NotNil(t, svc)
		assert.Equal(t, repo, svc.storage)
		assert.Equal(t, logger, svc.logger)
	})

	t.Run("nil storage panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewService(nil, zap.NewNop())
		})
	})

	t.Run("nil logger gets default", func(t *testing.T) {
		svc := NewService(&mocks.MockSnapshotRepository{}, nil)

		assert.NotNil(t, svc)
		assert.NotNil(t, svc.logger)
	})
}

func testSnapshot() models.Snapshot {
	return models.Snapshot{
		Clients: []models.Client{
			{ID: "c1", Name: "Dana", Tags: []string{"VIP"}},
			{ID: "c2", Name: "Mia"},
			{ID: "c3", Name: "Robin"},
		},
		Venues: []models.Venue{
			{ID: "v1", Name: "Velvet Room"},
			{ID: "v2", Name: "Neon Lounge"},
			{ID: "v3", Name: "Harbor Club"},
		},
		Shifts: []models.ShiftRecord{
			shift("c1", "v1", 100),
			shift("c1", "v1", 120),
			shift("c2", "v2", 60),
			shift("c3", "v3", 40),
		},
	}
}

func TestGenerateClientAssignments(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("truncates to topN and sorts recommendations", func(t *testing.T) {
		svc := NewService(stubRepo(testSnapshot(), nil), logger)

		assignments, err := svc.GenerateClientAssignments(ctx, 30, 2)
		require.NoError(t, err)
		require.Len(t, assignments, 3)

		for _, a := range assignments {
			assert.LessOrEqual(t, len(a.Recommendations), 2)
			for i := 1; i < len(a.Recommendations); i++ {
				assert.GreaterOrEqual(t, a.Recommendations[i-1].Score, a.Recommendations[i].Score)
			}
		}
	})

	t.Run("clients are ordered by their own top score", func(t *testing.T) {
		svc := NewService(stubRepo(testSnapshot(), nil), logger)

		assignments, err := svc.GenerateClientAssignments(ctx, 30, 3)
		require.NoError(t, err)
		require.Len(t, assignments, 3)

		// Dana's pair average at Velvet Room is the global max and she
		// carries the VIP bonus, so she ranks first.
		assert.Equal(t, "Dana", assignments[0].ClientName)
		for i := 1; i < len(assignments); i++ {
			assert.GreaterOrEqual(t, topScore(assignments[i-1]), topScore(assignments[i]))
		}
	})

	t.Run("clients without venues sort last with score zero", func(t *testing.T) {
		snap := models.Snapshot{
			Clients: []models.Client{{ID: "c1", Name: "Dana"}},
		}
		svc := NewService(stubRepo(snap, nil), logger)

		assignments, err := svc.GenerateClientAssignments(ctx, 30, 3)
		require.NoError(t, err)
		require.Len(t, assignments, 1)
		assert.Empty(t, assignments[0].Recommendations)
		assert.Zero(t, topScore(assignments[0]))
	})

	t.Run("empty snapshot returns empty slice", func(t *testing.T) {
		svc := NewService(stubRepo(models.Snapshot{}, nil), logger)

		assignments, err := svc.GenerateClientAssignments(ctx, 30, 3)
		require.NoError(t, err)
		assert.Empty(t, assignments)
	})

	t.Run("storage error is wrapped", func(t *testing.T) {
		repo := &mocks.MockSnapshotRepository{
			GetSnapshotFunc: func(ctx context.Context, lookbackDays int) (models.Snapshot, error) {
				return models.Snapshot{}, errors.New("disk broke")
			},
		}
		svc := NewService(repo, logger)

		_, err := svc.GenerateClientAssignments(ctx, 30, 3)
		assert.ErrorIs(t, err, ErrStorageFailure)
	})

	t.Run("performance lookup error propagates", func(t *testing.T) {
		repo := stubRepo(testSnapshot(), nil)
		repo.GetPerformanceFunc = func(ctx context.Context, entityID string, lookbackDays int) (models.PerformanceStats, error) {
			return models.PerformanceStats{}, errors.New("timeout")
		}
		svc := NewService(repo, logger)

		_, err := svc.GenerateClientAssignments(ctx, 30, 3)
		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}

func TestGlobalTopPairs(t *testing.T) {
	t.Run("takes at most ten from the truncated lists", func(t *testing.T) {
		assignments := make([]ClientAssignment, 0, 6)
		for i := 0; i < 6; i++ {
			assignments = append(assignments, ClientAssignment{
				ClientID: "c", ClientName: "c",
				Recommendations: []VenueRecommendation{
					{VenueID: "a", Score: float64(i)},
					{VenueID: "b", Score: float64(i) / 2},
				},
			})
		}

		pairs := globalTopPairs(assignments)

		require.Len(t, pairs, 10)
		for i := 1; i < len(pairs); i++ {
			assert.GreaterOrEqual(t, pairs[i-1].Score, pairs[i].Score)
		}
	})

	t.Run("only sees pairs that survived per-client truncation", func(t *testing.T) {
		// a pair dropped by the per-client topN can never appear here,
		// even if it outscores another client's kept pairs
		assignments := []ClientAssignment{
			{ClientID: "c1", Recommendations: []VenueRecommendation{{VenueID: "v1", Score: 0.9}}},
			{ClientID: "c2", Recommendations: []VenueRecommendation{{VenueID: "v2", Score: 0.1}}},
		}

		pairs := globalTopPairs(assignments)

		require.Len(t, pairs, 2)
		assert.Equal(t, "v1", pairs[0].VenueID)
		assert.Equal(t, "v2", pairs[1].VenueID)
	})
}

func TestGenerateScheduleSuggestions(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("uses client best day first", func(t *testing.T) {
		perf := map[string]models.PerformanceStats{
			"c1": {ShiftCount: 2, BestDay: dayPtr(2)},
			"v1": {ShiftCount: 5, BestDay: dayPtr(6)},
		}
		snap := models.Snapshot{
			Clients: []models.Client{{ID: "c1", Name: "Dana"}},
			Venues:  []models.Venue{{ID: "v1", Name: "Velvet Room"}},
			Shifts:  []models.ShiftRecord{shift("c1", "v1", 100)},
		}
		svc := NewService(stubRepo(snap, perf), logger)

		suggestions, err := svc.GenerateScheduleSuggestions(ctx, 30, 2)
		require.NoError(t, err)
		require.Len(t, suggestions, 1)

		assert.Equal(t, 2, suggestions[0].Day)
		assert.Equal(t, "Tuesday", suggestions[0].DayLabel)
		assert.Contains(t, suggestions[0].Text, "Dana")
		assert.Contains(t, suggestions[0].Text, "Velvet Room")
		assert.Contains(t, suggestions[0].Text, "Tuesday")
		assert.Contains(t, suggestions[0].Text, "2 weeks")
	})

	t.Run("falls back to venue best day then friday", func(t *testing.T) {
		perf := map[string]models.PerformanceStats{
			"v1": {ShiftCount: 5, BestDay: dayPtr(6)},
		}
		snap := models.Snapshot{
			Clients: []models.Client{
				{ID: "c1", Name: "Dana"},
				{ID: "c2", Name: "Mia"},
			},
			Venues: []models.Venue{{ID: "v1", Name: "Velvet Room"}},
		}
		svc := NewService(stubRepo(snap, perf), logger)

		suggestions, err := svc.GenerateScheduleSuggestions(ctx, 30, 4)
		require.NoError(t, err)
		require.Len(t, suggestions, 2)

		assert.Equal(t, 6, suggestions[0].Day) // venue best day
		assert.Equal(t, 6, suggestions[1].Day)

		none := map[string]models.PerformanceStats{}
		svc = NewService(stubRepo(snap, none), logger)
		suggestions, err = svc.GenerateScheduleSuggestions(ctx, 30, 4)
		require.NoError(t, err)
		assert.Equal(t, 5, suggestions[0].Day) // Friday default
		assert.Equal(t, "Friday", suggestions[0].DayLabel)
	})

	t.Run("no venues means no suggestions", func(t *testing.T) {
		snap := models.Snapshot{
			Clients: []models.Client{{ID: "c1", Name: "Dana"}},
		}
		svc := NewService(stubRepo(snap, nil), logger)

		suggestions, err := svc.GenerateScheduleSuggestions(ctx, 30, 2)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	})
}

func TestGenerateActionItems(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("high value under-served client gets one high item", func(t *testing.T) {
		perf := map[string]models.PerformanceStats{
			"c1": {ShiftCount: 1},
		}
		snap := models.Snapshot{
			Clients: []models.Client{{ID: "c1", Name: "Dana", ValueScore: 9}},
			Venues:  []models.Venue{{ID: "v1", Name: "Velvet Room"}},
			Shifts: []models.ShiftRecord{
				shift("c1", "v1", 100),
				shift("c2", "v1", 100),
				shift("c2", "v1", 100),
			},
		}
		svc := NewService(stubRepo(snap, perf), logger)

		items, err := svc.GenerateActionItems(ctx, 30)
		require.NoError(t, err)

		var high []ActionItem
		for _, it := range items {
			if it.Priority == "high" {
				high = append(high, it)
			}
		}
		require.Len(t, high, 1)
		assert.Contains(t, high[0].Title, "Dana")
		assert.Contains(t, high[0].Description, "Velvet Room")
	})

	t.Run("vip tag qualifies without a value score", func(t *testing.T) {
		perf := map[string]models.PerformanceStats{}
		snap := models.Snapshot{
			Clients: []models.Client{{ID: "c1", Name: "Dana", Tags: []string{"VIP"}}},
		}
		svc := NewService(stubRepo(snap, perf), logger)

		items, err := svc.GenerateActionItems(ctx, 30)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "high", items[0].Priority)
	})

	t.Run("well-served clients are skipped", func(t *testing.T) {
		perf := map[string]models.PerformanceStats{
			"c1": {ShiftCount: 5},
		}
		snap := models.Snapshot{
			Clients: []models.Client{{ID: "c1", Name: "Dana", ValueScore: 9}},
		}
		svc := NewService(stubRepo(snap, perf), logger)

		items, err := svc.GenerateActionItems(ctx, 30)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("under-utilized high earner gets a medium item", func(t *testing.T) {
		snap := models.Snapshot{
			Venues: []models.Venue{
				{ID: "v1", Name: "Velvet Room"},
				{ID: "v2", Name: "Neon Lounge"},
			},
			Shifts: []models.ShiftRecord{
				// v1: two shifts averaging 200 (above 0.75 of max, under 3 shifts)
				shift("", "v1", 200),
				shift("", "v1", 200),
				// v2: four shifts averaging 100
				shift("", "v2", 100),
				shift("", "v2", 100),
				shift("", "v2", 100),
				shift("", "v2", 100),
			},
		}
		svc := NewService(stubRepo(snap, nil), logger)

		items, err := svc.GenerateActionItems(ctx, 30)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "medium", items[0].Priority)
		assert.Contains(t, items[0].Title, "Velvet Room")
	})

	t.Run("client items precede venue items", func(t *testing.T) {
		perf := map[string]models.PerformanceStats{}
		snap := models.Snapshot{
			Clients: []models.Client{{ID: "c1", Name: "Dana", Tags: []string{"VIP"}}},
			Venues:  []models.Venue{{ID: "v1", Name: "Velvet Room"}},
			Shifts: []models.ShiftRecord{
				shift("", "v1", 200),
			},
		}
		svc := NewService(stubRepo(snap, perf), logger)

		items, err := svc.GenerateActionItems(ctx, 30)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "high", items[0].Priority)
		assert.Equal(t, "medium", items[1].Priority)
	})

	t.Run("empty snapshot returns empty slice", func(t *testing.T) {
		svc := NewService(stubRepo(models.Snapshot{}, nil), logger)

		items, err := svc.GenerateActionItems(ctx, 30)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestBuildInsights(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("combines all derived views", func(t *testing.T) {
		svc := NewService(stubRepo(testSnapshot(), nil), logger)

		out, err := svc.BuildInsights(ctx, 30, 2)
		require.NoError(t, err)

		assert.Len(t, out.Assignments, 3)
		assert.NotEmpty(t, out.TopPairs)
		assert.LessOrEqual(t, len(out.TopPairs), 10)
		assert.Len(t, out.Suggestions, 3)
	})

	t.Run("empty snapshot yields empty views", func(t *testing.T) {
		svc := NewService(stubRepo(models.Snapshot{}, nil), logger)

		out, err := svc.BuildInsights(ctx, 30, 3)
		require.NoError(t, err)

		assert.Empty(t, out.Assignments)
		assert.Empty(t, out.TopPairs)
		assert.Empty(t, out.Suggestions)
		assert.Empty(t, out.ActionItems)
	})
}
