package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shiftly/insights-server/internal/insights"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheDuration = 10 * time.Minute
	defaultHTTPTimeout   = 10 * time.Second

	defaultLookbackDays = 30
	maxLookbackDays     = 365
	defaultTopN         = 3
	maxTopN             = 20
	defaultWeeks        = 2
	maxWeeks            = 12
)

type cacheKeyType string

const (
	cacheKeyAssignments cacheKeyType = "httpapi:client_assignments"
	cacheKeySchedule    cacheKeyType = "httpapi:schedule_suggestions"
	cacheKeyActions     cacheKeyType = "httpapi:action_items"
	cacheKeyInsights    cacheKeyType = "httpapi:combined_insights"
)

type Handlers struct {
	engine   InsightsService
	cache    Cacher
	logger   *zap.Logger
	sfGroup  singleflight.Group
	cacheTTL time.Duration
}

// NewHandlers initializes the HTTP handlers.
func NewHandlers(engine InsightsService, cache Cacher, logger *zap.Logger, ttl time.Duration) *Handlers {
	if engine == nil {
		panic("nil InsightsService provided to NewHandlers")
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &Handlers{
		engine:   engine,
		cache:    cache,
		logger:   logger.Named("http-handler"),
		cacheTTL: ttl,
	}
}

// Register attaches all API routes to the router.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/v1/assignments", h.Assignments).Methods(http.MethodGet)
	r.HandleFunc("/v1/schedule", h.Schedule).Methods(http.MethodGet)
	r.HandleFunc("/v1/actions", h.Actions).Methods(http.MethodGet)
	r.HandleFunc("/v1/insights", h.Insights).Methods(http.MethodGet)
	r.HandleFunc("/v1/query", h.Query).Methods(http.MethodPost)
}

func parseBoundedInt(r *http.Request, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || v > max {
		return 0, fmt.Errorf("%s must be an integer between 1 and %d", name, max)
	}
	return v, nil
}

func normalizeKey(prefix cacheKeyType, parts ...int) string {
	key := string(prefix)
	for _, p := range parts {
		key = fmt.Sprintf("%s:%d", key, p)
	}
	return key
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handlers) handleError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch ctx.Err() {
	case context.Canceled:
		h.logger.Warn("request canceled", zap.String("op", op))
		writeError(w, http.StatusServiceUnavailable, "request canceled")
		return
	case context.DeadlineExceeded:
		h.logger.Warn("request timeout", zap.String("op", op))
		writeError(w, http.StatusGatewayTimeout, "request timed out")
		return
	}

	switch {
	case errors.Is(err, insights.ErrStorageFailure):
		h.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) Assignments(w http.ResponseWriter, r *http.Request) {
	days, err := parseBoundedInt(r, "days", defaultLookbackDays, maxLookbackDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	topN, err := parseBoundedInt(r, "top", defaultTopN, maxTopN)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	key := normalizeKey(cacheKeyAssignments, days, topN)
	assignments, err := FindAndCache(ctx, h.cache, &h.sfGroup, key, h.cacheTTL, h.logger, func(fetchCtx context.Context) ([]insights.ClientAssignment, error) {
		return h.engine.GenerateClientAssignments(fetchCtx, days, topN)
	})
	if err != nil {
		h.handleError(ctx, w, "Assignments", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}

func (h *Handlers) Schedule(w http.ResponseWriter, r *http.Request) {
	days, err := parseBoundedInt(r, "days", defaultLookbackDays, maxLookbackDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	weeks, err := parseBoundedInt(r, "weeks", defaultWeeks, maxWeeks)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	key := normalizeKey(cacheKeySchedule, days, weeks)
	suggestions, err := FindAndCache(ctx, h.cache, &h.sfGroup, key, h.cacheTTL, h.logger, func(fetchCtx context.Context) ([]insights.ScheduleSuggestion, error) {
		return h.engine.GenerateScheduleSuggestions(fetchCtx, days, weeks)
	})
	if err != nil {
		h.handleError(ctx, w, "Schedule", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (h *Handlers) Actions(w http.ResponseWriter, r *http.Request) {
	days, err := parseBoundedInt(r, "days", defaultLookbackDays, maxLookbackDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	key := normalizeKey(cacheKeyActions, days)
	items, err := FindAndCache(ctx, h.cache, &h.sfGroup, key, h.cacheTTL, h.logger, func(fetchCtx context.Context) ([]insights.ActionItem, error) {
		return h.engine.GenerateActionItems(fetchCtx, days)
	})
	if err != nil {
		h.handleError(ctx, w, "Actions", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"action_items": items})
}

func (h *Handlers) Insights(w http.ResponseWriter, r *http.Request) {
	days, err := parseBoundedInt(r, "days", defaultLookbackDays, maxLookbackDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	topN, err := parseBoundedInt(r, "top", defaultTopN, maxTopN)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	key := normalizeKey(cacheKeyInsights, days, topN)
	combined, err := FindAndCache(ctx, h.cache, &h.sfGroup, key, h.cacheTTL, h.logger, func(fetchCtx context.Context) (insights.Insights, error) {
		return h.engine.BuildInsights(fetchCtx, days, topN)
	})
	if err != nil {
		h.handleError(ctx, w, "Insights", err)
		return
	}

	writeJSON(w, http.StatusOK, combined)
}

type queryRequest struct {
	Question     string `json:"question"`
	LookbackDays int    `json:"lookback_days"`
}

// Query answers a free-text question. Answers are not cached: the question
// text is unbounded and repeat questions are rare.
func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.LookbackDays == 0 {
		req.LookbackDays = defaultLookbackDays
	}
	if req.LookbackDays < 1 || req.LookbackDays > maxLookbackDays {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("lookback_days must be between 1 and %d", maxLookbackDays))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	answer, err := h.engine.AnswerQuery(ctx, req.Question, req.LookbackDays)
	if err != nil {
		h.handleError(ctx, w, "Query", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
