package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shiftly/insights-server/internal/httpapi/mocks"
	"github.com/shiftly/insights-server/internal/insights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(engine InsightsService, cache Cacher) *mux.Router {
	h := NewHandlers(engine, cache, zap.NewNop(), time.Minute)
	r := mux.NewRouter()
	h.Register(r)
	return r
}

func doRequest(t *testing.T, router *mux.Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestNewHandlers(t *testing.T) {
	t.Run("nil engine panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewHandlers(nil, &mocks.MockCacher{}, zap.NewNop(), time.Minute)
		})
	})

	t.Run("non-positive ttl gets a default", func(t *testing.T) {
		h := NewHandlers(&mocks.MockInsightsService{}, &mocks.MockCacher{}, zap.NewNop(), 0)
		assert.Equal(t, defaultCacheDuration, h.cacheTTL)
	})
}

func TestAssignmentsHandler(t *testing.T) {
	t.Run("returns assignments on cache miss", func(t *testing.T) {
		engine := &mocks.MockInsightsService{
			GenerateClientAssignmentsFunc: func(ctx context.Context, days, topN int) ([]insights.ClientAssignment, error) {
				assert.Equal(t, 14, days)
				assert.Equal(t, 5, topN)
				return []insights.ClientAssignment{
					{ClientID: "c1", ClientName: "Dana"},
				}, nil
			},
		}
		router := newTestRouter(engine, &mocks.MockCacher{})

		rec := doRequest(t, router, http.MethodGet, "/v1/assignments?days=14&top=5", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Dana")
	})

	t.Run("serves a cache hit without calling the engine", func(t *testing.T) {
		cached := []insights.ClientAssignment{{ClientID: "c9", ClientName: "Cached"}}
		cache := &mocks.MockCacher{
			GetFunc: func(ctx context.Context, key string, dest any) error {
				data, _ := json.Marshal(cached)
				return json.Unmarshal(data, dest)
			},
		}
		engine := &mocks.MockInsightsService{
			GenerateClientAssignmentsFunc: func(ctx context.Context, days, topN int) ([]insights.ClientAssignment, error) {
				return cached, nil
			},
		}
		router := newTestRouter(engine, cache)

		rec := doRequest(t, router, http.MethodGet, "/v1/assignments", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Cached")
	})

	t.Run("invalid params are rejected", func(t *testing.T) {
		router := newTestRouter(&mocks.MockInsightsService{}, &mocks.MockCacher{})

		for _, target := range []string{
			"/v1/assignments?days=0",
			"/v1/assignments?days=9999",
			"/v1/assignments?days=abc",
			"/v1/assignments?top=0",
			"/v1/assignments?top=100",
		} {
			rec := doRequest(t, router, http.MethodGet, target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		}
	})

	t.Run("storage failure maps to 500", func(t *testing.T) {
		engine := &mocks.MockInsightsService{
			GenerateClientAssignmentsFunc: func(ctx context.Context, days, topN int) ([]insights.ClientAssignment, error) {
				return nil, fmt.Errorf("%w: disk broke", insights.ErrStorageFailure)
			},
		}
		router := newTestRouter(engine, &mocks.MockCacher{})

		rec := doRequest(t, router, http.MethodGet, "/v1/assignments", "")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "database error")
	})
}

func TestScheduleHandler(t *testing.T) {
	engine := &mocks.MockInsightsService{
		GenerateScheduleSuggestionsFunc: func(ctx context.Context, days, weeks int) ([]insights.ScheduleSuggestion, error) {
			return []insights.ScheduleSuggestion{
				{ClientName: "Dana", VenueName: "Velvet Room", DayLabel: "Friday", Weeks: weeks},
			}, nil
		},
	}
	router := newTestRouter(engine, &mocks.MockCacher{})

	rec := doRequest(t, router, http.MethodGet, "/v1/schedule?weeks=4", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Velvet Room")
	assert.Contains(t, rec.Body.String(), `"weeks":4`)
}

func TestActionsHandler(t *testing.T) {
	engine := &mocks.MockInsightsService{
		GenerateActionItemsFunc: func(ctx context.Context, days int) ([]insights.ActionItem, error) {
			return []insights.ActionItem{
				{Priority: "high", Title: "Book more shifts for Dana"},
			}, nil
		},
	}
	router := newTestRouter(engine, &mocks.MockCacher{})

	rec := doRequest(t, router, http.MethodGet, "/v1/actions", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"priority":"high"`)
}

func TestInsightsHandler(t *testing.T) {
	engine := &mocks.MockInsightsService{
		BuildInsightsFunc: func(ctx context.Context, days, topN int) (insights.Insights, error) {
			return insights.Insights{
				TopPairs: []insights.ScoredPair{
					{ClientName: "Dana", VenueName: "Velvet Room", Score: 1.12},
				},
			}, nil
		},
	}
	router := newTestRouter(engine, &mocks.MockCacher{})

	rec := doRequest(t, router, http.MethodGet, "/v1/insights", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "top_pairs")
	assert.Contains(t, rec.Body.String(), "Velvet Room")
}

func TestQueryHandler(t *testing.T) {
	t.Run("answers a question", func(t *testing.T) {
		engine := &mocks.MockInsightsService{
			AnswerQueryFunc: func(ctx context.Context, question string, days int) (string, error) {
				assert.Equal(t, "best venue?", question)
				assert.Equal(t, 30, days)
				return "Your strongest match is Velvet Room.", nil
			},
		}
		router := newTestRouter(engine, &mocks.MockCacher{})

		rec := doRequest(t, router, http.MethodPost, "/v1/query", `{"question":"best venue?"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Velvet Room")
	})

	t.Run("missing question is a 400", func(t *testing.T) {
		router := newTestRouter(&mocks.MockInsightsService{}, &mocks.MockCacher{})

		rec := doRequest(t, router, http.MethodPost, "/v1/query", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		router := newTestRouter(&mocks.MockInsightsService{}, &mocks.MockCacher{})

		rec := doRequest(t, router, http.MethodPost, "/v1/query", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("out of range lookback is a 400", func(t *testing.T) {
		router := newTestRouter(&mocks.MockInsightsService{}, &mocks.MockCacher{})

		rec := doRequest(t, router, http.MethodPost, "/v1/query", `{"question":"hi","lookback_days":5000}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("engine error maps to 500", func(t *testing.T) {
		engine := &mocks.MockInsightsService{
			AnswerQueryFunc: func(ctx context.Context, question string, days int) (string, error) {
				return "", errors.New("boom")
			},
		}
		router := newTestRouter(engine, &mocks.MockCacher{})

		rec := doRequest(t, router, http.MethodPost, "/v1/query", `{"question":"hi"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	router := newTestRouter(&mocks.MockInsightsService{}, &mocks.MockCacher{})

	rec := doRequest(t, router, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "httpapi:client_assignments:30:3", normalizeKey(cacheKeyAssignments, 30, 3))
	assert.Equal(t, "httpapi:action_items:7", normalizeKey(cacheKeyActions, 7))
}
