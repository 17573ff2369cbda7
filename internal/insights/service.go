package insights

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shiftly/insights-server/internal/repository/models"
	"go.uber.org/zap"
)

const (
	dbTimeout = 1 * time.Second

	// planner thresholds
	highValueScore        = 8.0
	underServedShifts     = 3
	underUtilizedShifts   = 3
	underUtilizedShare    = 0.75
	defaultBestDay        = 5 // Friday
	combinedTopPairsLimit = 10

	defaultSuggestionWeeks = 2
	defaultQueryTopN       = 3
)

var ErrStorageFailure = errors.New("storage failure")

// Service is the recommendation/insights engine. It holds no derived
// state: every call re-reads the snapshot and recomputes aggregates.
type Service struct {
	storage SnapshotRepository
	logger  *zap.Logger
}

// NewService creates a new insights Service instance.
func NewService(storage SnapshotRepository, logger *zap.Logger) *Service {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

func (s *Service) snapshot(ctx context.Context, lookbackDays int) (models.Snapshot, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	snap, err := s.storage.GetSnapshot(dbCtx, lookbackDays)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return snap, nil
}

func (s *Service) performance(ctx context.Context, entityID string, lookbackDays int) (models.PerformanceStats, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	stats, err := s.storage.GetPerformance(dbCtx, entityID, lookbackDays)
	if err != nil {
		return models.PerformanceStats{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return stats, nil
}

// scorePair fetches both performance lookups and scores one pair. Lookups
// run once per client and once per venue per scoring call, sequentially.
func (s *Service) scorePair(ctx context.Context, client models.Client, venue models.Venue, aggs Aggregates, lookbackDays int) (VenueRecommendation, error) {
	clientPerf, err := s.performance(ctx, client.ID, lookbackDays)
	if err != nil {
		return VenueRecommendation{}, err
	}
	venuePerf, err := s.performance(ctx, venue.ID, lookbackDays)
	if err != nil {
		return VenueRecommendation{}, err
	}
	return compatibility(client, venue, aggs, clientPerf, venuePerf), nil
}

// GenerateClientAssignments scores every venue for every client, keeps the
// topN per client, and orders clients by their own best score. Ties keep
// venue iteration order; clients without recommendations sort last.
func (s *Service) GenerateClientAssignments(ctx context.Context, lookbackDays, topN int) ([]ClientAssignment, error) {
	snap, err := s.snapshot(ctx, lookbackDays)
	if err != nil {
		return nil, err
	}
	aggs := ComputeAggregates(snap)

	assignments := make([]ClientAssignment, 0, len(snap.Clients))
	for _, client := range snap.Clients {
		recs := make([]VenueRecommendation, 0, len(snap.Venues))
		for _, venue := range snap.Venues {
			rec, err := s.scorePair(ctx, client, venue, aggs, lookbackDays)
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		}

		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Score > recs[j].Score
		})
		if len(recs) > topN {
			recs = recs[:topN]
		}

		assignments = append(assignments, ClientAssignment{
			ClientID:        client.ID,
			ClientName:      client.Name,
			Recommendations: recs,
		})
	}

	sort.SliceStable(assignments, func(i, j int) bool {
		return topScore(assignments[i]) > topScore(assignments[j])
	})

	s.logger.Info("generated client assignments",
		zap.Int("clients", len(assignments)),
		zap.Int("lookback_days", lookbackDays),
		zap.Int("top_n", topN))

	return assignments, nil
}

func topScore(a ClientAssignment) float64 {
	if len(a.Recommendations) == 0 {
		return 0
	}
	return a.Recommendations[0].Score
}

// globalTopPairs flattens the already-truncated per-client lists and keeps
// the 10 best pairs. This is intentionally a top-10 of the per-client
// top-N lists, not a true global top-10 over all pairs.
func globalTopPairs(assignments []ClientAssignment) []ScoredPair {
	pairs := make([]ScoredPair, 0)
	for _, a := range assignments {
		for _, rec := range a.Recommendations {
			pairs = append(pairs, ScoredPair{
				ClientID:   a.ClientID,
				ClientName: a.ClientName,
				VenueID:    rec.VenueID,
				VenueName:  rec.VenueName,
				Score:      rec.Score,
			})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Score > pairs[j].Score
	})
	if len(pairs) > combinedTopPairsLimit {
		pairs = pairs[:combinedTopPairsLimit]
	}
	return pairs
}

// bestVenueFor re-scans all venues for a client and returns the single
// best recommendation. Full scan rather than a top-N reuse so the result
// does not depend on an earlier truncation.
func (s *Service) bestVenueFor(ctx context.Context, client models.Client, snap models.Snapshot, aggs Aggregates, lookbackDays int) (VenueRecommendation, bool, error) {
	var best VenueRecommendation
	found := false
	for _, venue := range snap.Venues {
		rec, err := s.scorePair(ctx, client, venue, aggs, lookbackDays)
		if err != nil {
			return VenueRecommendation{}, false, err
		}
		if !found || rec.Score > best.Score {
			best = rec
			found = true
		}
	}
	return best, found, nil
}

func suggestionDay(rec VenueRecommendation) int {
	switch {
	case rec.ClientBestDay != nil:
		return *rec.ClientBestDay
	case rec.VenueBestDay != nil:
		return *rec.VenueBestDay
	default:
		return defaultBestDay
	}
}

// GenerateScheduleSuggestions derives one best-day booking suggestion per
// client for the given number of weeks.
func (s *Service) GenerateScheduleSuggestions(ctx context.Context, lookbackDays, weeks int) ([]ScheduleSuggestion, error) {
	snap, err := s.snapshot(ctx, lookbackDays)
	if err != nil {
		return nil, err
	}
	aggs := ComputeAggregates(snap)

	suggestions := make([]ScheduleSuggestion, 0, len(snap.Clients))
	for _, client := range snap.Clients {
		best, found, err := s.bestVenueFor(ctx, client, snap, aggs, lookbackDays)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}

		day := suggestionDay(best)
		label := dayLabel(day)
		suggestions = append(suggestions, ScheduleSuggestion{
			ClientID:   client.ID,
			ClientName: client.Name,
			VenueID:    best.VenueID,
			VenueName:  best.VenueName,
			Day:        day,
			DayLabel:   label,
			Weeks:      weeks,
			Text: fmt.Sprintf("Book %s at %s on %ss for the next %d weeks.",
				client.Name, best.VenueName, label, weeks),
		})
	}

	return suggestions, nil
}

// GenerateActionItems flags high-value clients who are under-served and
// venues that earn well but are rarely worked. Client items come first.
func (s *Service) GenerateActionItems(ctx context.Context, lookbackDays int) ([]ActionItem, error) {
	snap, err := s.snapshot(ctx, lookbackDays)
	if err != nil {
		return nil, err
	}
	aggs := ComputeAggregates(snap)

	items := make([]ActionItem, 0)
	for _, client := range snap.Clients {
		highValue := client.ValueScore >= highValueScore || hasTag(client, tagVIP)
		if !highValue {
			continue
		}

		perf, err := s.performance(ctx, client.ID, lookbackDays)
		if err != nil {
			return nil, err
		}
		if perf.ShiftCount >= underServedShifts {
			continue
		}

		desc := fmt.Sprintf("%s is high value but has only %d recent shifts.", client.Name, perf.ShiftCount)
		if best, found, err := s.bestVenueFor(ctx, client, snap, aggs, lookbackDays); err != nil {
			return nil, err
		} else if found {
			desc = fmt.Sprintf("%s Best fit: %s on %ss.", desc, best.VenueName, dayLabel(suggestionDay(best)))
		}

		items = append(items, ActionItem{
			Priority:    "high",
			Title:       fmt.Sprintf("Book more shifts for %s", client.Name),
			Description: desc,
		})
	}

	for _, venue := range snap.Venues {
		bucket := aggs.Venue[venue.ID]
		if bucket.Avg() > underUtilizedShare*aggs.VenueMaxAvg && bucket.Count < underUtilizedShifts {
			items = append(items, ActionItem{
				Priority: "medium",
				Title:    fmt.Sprintf("%s is under-utilized", venue.Name),
				Description: fmt.Sprintf("%s averages $%.0f per shift but only has %d recent shifts.",
					venue.Name, bucket.Avg(), bucket.Count),
			})
		}
	}

	return items, nil
}

// BuildInsights assembles the combined dashboard view: assignments, the
// two-stage global top pairs, schedule suggestions and action items.
func (s *Service) BuildInsights(ctx context.Context, lookbackDays, topN int) (Insights, error) {
	assignments, err := s.GenerateClientAssignments(ctx, lookbackDays, topN)
	if err != nil {
		return Insights{}, err
	}
	suggestions, err := s.GenerateScheduleSuggestions(ctx, lookbackDays, defaultSuggestionWeeks)
	if err != nil {
		return Insights{}, err
	}
	items, err := s.GenerateActionItems(ctx, lookbackDays)
	if err != nil {
		return Insights{}, err
	}

	return Insights{
		Assignments: assignments,
		TopPairs:    globalTopPairs(assignments),
		Suggestions: suggestions,
		ActionItems: items,
	}, nil
}
