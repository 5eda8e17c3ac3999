// Package handler exposes the course engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/course-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/middleware"
)

// CacheHeader reports whether a search response came from the result cache.
const CacheHeader = "X-Cache"

// CourseEngine is the part of *engine.Engine the handler serves.
type CourseEngine interface {
	Search(ctx context.Context, query string, limit int, strategy string) (*executor.SearchResult, error)
	SearchByCategory(ctx context.Context, query, category string, limit int) *executor.SearchResult
	MeasurePerformance(ctx context.Context, query string, limit int) *executor.Performance
	Compare(a, b, method string) (float64, error)
	CompareWithMetrics(a, b, method string) (similarity.Metrics, error)
	CompareAll(a, b string) []similarity.Metrics
	FindSimilar(ref string, k int, method string) ([]similarity.Match, error)
	Course(id string) (catalog.Course, bool)
	Statistics() engine.Statistics
}

// CompareResponse is the body of a single-method comparison.
type CompareResponse struct {
	CourseA string  `json:"course_a"`
	CourseB string  `json:"course_b"`
	Method  string  `json:"method"`
	Score   float64 `json:"score"`
}

// SimilarResponse lists the courses closest to CourseID.
type SimilarResponse struct {
	CourseID string             `json:"course_id"`
	Method   string             `json:"method"`
	Results  []similarity.Match `json:"results"`
}

type Handler struct {
	engine          CourseEngine
	cache           *cache.QueryCache
	collector       *analytics.Collector
	metrics         *metrics.Metrics
	defaultLimit    int
	maxResults      int
	defaultStrategy string
	defaultMethod   string
	logger          *slog.Logger
}

// New builds the handler. queryCache, collector and m may each be nil.
func New(eng CourseEngine, queryCache *cache.QueryCache, collector *analytics.Collector, m *metrics.Metrics, cfg config.SearchConfig) *Handler {
	return &Handler{
		engine:          eng,
		cache:           queryCache,
		collector:       collector,
		metrics:         m,
		defaultLimit:    cfg.DefaultLimit,
		maxResults:      cfg.MaxResults,
		defaultStrategy: cfg.DefaultStrategy,
		defaultMethod:   cfg.SimilarityMethod,
		logger:          slog.Default().With("component", "search-handler"),
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/search/category", h.SearchByCategory)
	mux.HandleFunc("GET /api/v1/search/performance", h.Performance)
	mux.HandleFunc("GET /api/v1/compare", h.Compare)
	mux.HandleFunc("GET /api/v1/courses/{id}", h.Course)
	mux.HandleFunc("GET /api/v1/courses/{id}/similar", h.Similar)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	q := r.URL.Query()

	// A blank query is answered by the engine with an empty result list.
	query := q.Get("q")
	limit, err := h.limit(q.Get("limit"), "limit")
	if err != nil {
		h.writeError(w, err)
		return
	}
	strategy, err := ranker.ParseStrategy(withDefault(q.Get("method"), h.defaultStrategy))
	if err != nil {
		h.countSearch("invalid", "invalid")
		h.writeError(w, err)
		return
	}

	key := cache.Key{Kind: "search", Query: query, Strategy: string(strategy), Limit: limit}
	result, hit, err := h.cached(ctx, key, func() (*executor.SearchResult, error) {
		return h.engine.Search(ctx, query, limit, string(strategy))
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.finishSearch(ctx, w, analytics.EventSearch, result, hit, start)
}

func (h *Handler) SearchByCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	q := r.URL.Query()

	query := q.Get("q")
	limit, err := h.limit(q.Get("limit"), "limit")
	if err != nil {
		h.writeError(w, err)
		return
	}
	category := q.Get("category")

	key := cache.Key{Kind: "category", Query: query, Strategy: string(ranker.StrategyCosine), Category: category, Limit: limit}
	result, hit, err := h.cached(ctx, key, func() (*executor.SearchResult, error) {
		return h.engine.SearchByCategory(ctx, query, category, limit), nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.finishSearch(ctx, w, analytics.EventCategorySearch, result, hit, start)
}

// Performance is never cached; its timings describe this request.
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	limit, err := h.limit(q.Get("limit"), "limit")
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.MeasurePerformance(r.Context(), query, limit))
}

// Compare scores ?a= against ?b=. method=all runs every method and
// metrics=true adds the measurement record to a single-method comparison.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	q := r.URL.Query()

	a, err := requiredParam(q.Get("a"), "a")
	if err != nil {
		h.writeError(w, err)
		return
	}
	b, err := requiredParam(q.Get("b"), "b")
	if err != nil {
		h.writeError(w, err)
		return
	}
	method := withDefault(q.Get("method"), h.defaultMethod)

	if strings.EqualFold(strings.TrimSpace(method), "all") {
		all := h.engine.CompareAll(a, b)
		h.observeComparison("all", "compare", start)
		h.writeJSON(w, http.StatusOK, map[string]any{
			"course_a": a,
			"course_b": b,
			"results":  all,
		})
		return
	}

	withMetrics, _ := strconv.ParseBool(q.Get("metrics"))
	var (
		body  any
		score float64
		name  string
	)
	if withMetrics {
		m, err := h.engine.CompareWithMetrics(a, b, method)
		if err != nil {
			h.writeError(w, err)
			return
		}
		body, score, name = m, m.Score, string(m.Method)
	} else {
		parsed, err := similarity.ParseMethod(method)
		if err != nil {
			h.writeError(w, err)
			return
		}
		score, err = h.engine.Compare(a, b, string(parsed))
		if err != nil {
			h.writeError(w, err)
			return
		}
		name = string(parsed)
		body = CompareResponse{CourseA: a, CourseB: b, Method: name, Score: score}
	}

	h.observeComparison(name, "compare", start)
	h.track(analytics.CompareEvent{
		Type:      analytics.EventCompare,
		CourseA:   a,
		CourseB:   b,
		Method:    name,
		Score:     score,
		LatencyMs: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	})
	h.writeJSON(w, http.StatusOK, body)
}

func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	id := r.PathValue("id")
	if _, ok := h.engine.Course(id); !ok {
		h.writeError(w, apperrors.CourseNotFound(id))
		return
	}
	k, err := h.limit(r.URL.Query().Get("k"), "k")
	if err != nil {
		h.writeError(w, err)
		return
	}
	method, err := similarity.ParseMethod(withDefault(r.URL.Query().Get("method"), h.defaultMethod))
	if err != nil {
		h.writeError(w, err)
		return
	}
	matches, err := h.engine.FindSimilar(id, k, string(method))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.observeComparison(string(method), "similar", start)
	h.track(analytics.CompareEvent{
		Type:      analytics.EventSimilar,
		CourseA:   id,
		Method:    string(method),
		Returned:  len(matches),
		LatencyMs: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	})
	h.writeJSON(w, http.StatusOK, SimilarResponse{CourseID: id, Method: string(method), Results: matches})
}

func (h *Handler) Course(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := h.engine.Course(id)
	if !ok {
		h.writeError(w, apperrors.CourseNotFound(id))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"course_id": id, "info": c})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Statistics())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	breaker := h.cache.Breaker()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":             hits,
		"misses":           misses,
		"total":            total,
		"hit_rate":         fmt.Sprintf("%.1f%%", hitRate),
		"circuit_state":    breaker.StateName,
		"circuit_failures": breaker.ConsecutiveFailures,
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrCacheDisabled, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}

	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError, "cache invalidation failed"))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) cached(ctx context.Context, key cache.Key, compute func() (*executor.SearchResult, error)) (*executor.SearchResult, bool, error) {
	if h.cache == nil {
		result, err := compute()
		return result, false, err
	}
	return h.cache.GetOrCompute(ctx, key, compute)
}

func (h *Handler) finishSearch(ctx context.Context, w http.ResponseWriter, kind analytics.EventType, result *executor.SearchResult, hit bool, start time.Time) {
	elapsed := time.Since(start)
	strategy := string(result.Strategy)

	resultType := "results"
	if len(result.Results) == 0 {
		resultType = "zero_result"
	}
	cacheStatus := "miss"
	if hit {
		cacheStatus = "hit"
	}
	h.countSearch(strategy, resultType)
	if h.metrics != nil {
		h.metrics.SearchLatency.WithLabelValues(strategy, cacheStatus).Observe(elapsed.Seconds())
		h.metrics.SearchResultsCount.Observe(float64(len(result.Results)))
	}

	logger.FromContext(ctx).Info("search completed",
		"kind", kind,
		"query", result.Query,
		"strategy", strategy,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", hit,
		"latency_ms", elapsed.Milliseconds(),
	)
	h.track(analytics.QueryEvent{
		Type:      kind,
		Query:     result.Query,
		Tokens:    result.Tokens,
		Strategy:  strategy,
		Category:  result.Category,
		TotalHits: result.TotalHits,
		Returned:  len(result.Results),
		LatencyMs: elapsed.Milliseconds(),
		CacheHit:  hit,
		Timestamp: time.Now().UTC(),
		RequestID: middleware.GetRequestID(ctx),
	})

	if h.cache != nil {
		w.Header().Set(CacheHeader, strings.ToUpper(cacheStatus))
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) countSearch(strategy, resultType string) {
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues(strategy, resultType).Inc()
	}
}

func (h *Handler) observeComparison(method, operation string, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.ComparisonsTotal.WithLabelValues(method, operation).Inc()
	h.metrics.ComparisonLatency.WithLabelValues(method, operation).Observe(time.Since(start).Seconds())
}

func (h *Handler) track(event any) {
	if h.collector != nil {
		h.collector.Track(event)
	}
}

// limit parses a positive count parameter, capped at maxResults.
func (h *Handler) limit(raw, name string) (int, error) {
	if raw == "" {
		return h.defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.InvalidInput("%s must be a positive integer", name)
	}
	if h.maxResults > 0 && n > h.maxResults {
		n = h.maxResults
	}
	return n, nil
}

func requiredParam(value, name string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", apperrors.InvalidInput("query parameter '%s' is required", name)
	}
	return value, nil
}

func withDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to its status code. Server-side failures are logged
// and answered with the generic status text.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", status, "error", err)
		message = http.StatusText(status)
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
