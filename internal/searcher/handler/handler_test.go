package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/course-search/pkg/redis"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", pkgredis.ErrNil
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value.([]byte))
	return nil
}

func (m *memoryStore) FlushByPattern(_ context.Context, _ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.data))
	m.data = make(map[string]string)
	return n, nil
}

var searchConfig = config.SearchConfig{
	DefaultLimit:     10,
	MaxResults:       20,
	DefaultStrategy:  "cosine",
	SimilarityMethod: "combined",
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	courses := write("curso.json", `{
		"python-basico": {"title": "Python básico", "description": "Programación desde cero", "url": "https://x/py"},
		"python-datos": {"title": "Python para datos", "description": "Análisis de datos con Python", "url": "https://x/datos"},
		"marketing": {"title": "Marketing digital", "description": "Campañas en redes sociales", "url": "https://x/mk"}
	}`)
	idx := write("curso.csv", strings.Join([]string{
		"Curso_0001|python", "Curso_0001|programacion", "Curso_0001|cero",
		"Curso_0002|python", "Curso_0002|datos", "Curso_0002|analisis",
		"Curso_0003|marketing", "Curso_0003|digital", "Curso_0003|redes",
	}, "\n"))
	write("curso_mapping.json", `{"formatted_to_original": {
		"Curso_0001": "python-basico", "Curso_0002": "python-datos", "Curso_0003": "marketing"
	}}`)
	e, err := engine.New(context.Background(), engine.Paths{Courses: courses, Index: idx})
	require.NoError(t, err)
	return e
}

func newServer(t *testing.T, h *Handler) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func get(t *testing.T, mux http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestSearch(t *testing.T) {
	mux := newServer(t, New(newEngine(t), nil, nil, nil, searchConfig))

	rec := get(t, mux, "/api/v1/search?q=python+datos&method=smart&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[executor.SearchResult](t, rec)
	assert.EqualValues(t, "smart", res.Strategy)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "python-datos", res.Results[0].CourseID)
	assert.Equal(t, "Python para datos", res.Results[0].Course.Title)
	assert.Empty(t, rec.Header().Get(CacheHeader))
}

func TestSearchValidation(t *testing.T) {
	mux := newServer(t, New(newEngine(t), nil, nil, nil, searchConfig))
	cases := map[string]string{
		"bad limit":         "/api/v1/search?q=python&limit=abc",
		"zero limit":        "/api/v1/search?q=python&limit=0",
		"unknown strategy":  "/api/v1/search?q=python&method=bm25",
		"category limit":    "/api/v1/search/category?q=python&category=datos&limit=-2",
		"compare missing b": "/api/v1/compare?a=python-basico",
		"compare blank a":   "/api/v1/compare?a=+&b=python-basico",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			rec := get(t, mux, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec), "error")
		})
	}
}

func TestSearchBlankQueryReturnsNoResults(t *testing.T) {
	mux := newServer(t, New(newEngine(t), nil, nil, nil, searchConfig))
	for _, target := range []string{
		"/api/v1/search",
		"/api/v1/search?q=",
		"/api/v1/search?q=+&method=smart",
		"/api/v1/search/category?category=datos",
	} {
		rec := get(t, mux, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `"results":[]`, target)
	}

	rec := get(t, mux, "/api/v1/search/performance?q=")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[executor.Performance](t, rec).ResultsReturned)
}

func TestSearchStopWordsOnly(t *testing.T) {
	mux := newServer(t, New(newEngine(t), nil, nil, nil, searchConfig))
	rec := get(t, mux, "/api/v1/search?q=de+la")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestSearchUsesCache(t *testing.T) {
	store := &memoryStore{data: make(map[string]string)}
	m := metrics.New(nil)
	h := New(newEngine(t), cache.New(store, time.Minute, m), nil, m, searchConfig)
	mux := newServer(t, h)

	rec := get(t, mux, "/api/v1/search?q=python")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get(CacheHeader))

	rec = get(t, mux, "/api/v1/search?q=PYTHON")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get(CacheHeader))
	assert.Equal(t, "PYTHON", decode[executor.SearchResult](t, rec).Query)

	rec = get(t, mux, "/api/v1/cache/stats")
	stats := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, stats["hits"])
	assert.Equal(t, "closed", stats["circuit_state"])
	assert.EqualValues(t, 0, stats["circuit_failures"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["keys_deleted"])

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `course_search_queries_total{result_type="results",strategy="cosine"} 2`)
}

func TestCacheDisabled(t *testing.T) {
	mux := newServer(t, New(newEngine(t), nil, nil, nil, searchConfig))
	assert.Contains(t, get(t, mux, "/api/v1/cache/stats").Body.String(), "disabled")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearchByCategory(t *testing.T) {
	mux := newServer(t, New(newEngine(t), nil, nil, nil, searchConfig))
	rec := get(t, mux, "/api/v1/search/category?q=python&category=datos")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[executor.SearchResult](t, rec)
	assert.Equal(t, "datos", res.Category)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "python-datos", res.Results[0].CourseID)
}

func TestPerformance(t *testing.T) {
	mux := newServer(t, New(newEngine(t), nil, nil, nil, searchConfig))
	rec := get(t, mux, "/api/v1/search/performance?q=python&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	perf := decode[executor.Performance](t, rec)
	assert.Equal(t, 2, perf.CandidateCourses)
	assert.Equal(t, 1, perf.ResultsReturned)
	assert.Equal(t, executor.RelevanceThreshold, perf.RelevanceThreshold)
}

func TestCompare(t *testing.T) {
	mux := newServer(t, New(newEngine(t), nil, nil, nil, searchConfig))

	rec := get(t, mux, "/api/v1/compare?a=python-basico&b=python-datos&method=jaccard")
	require.Equal(t, http.StatusOK, rec.Code)
	cmp := decode[CompareResponse](t, rec)
	assert.Equal(t, "jaccard", cmp.Method)
	assert.InDelta(t, 0.2, cmp.Score, 1e-12)

	rec = get(t, mux, "/api/v1/compare?a=python-basico&b=python-datos")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "combined", decode[CompareResponse](t, rec).Method)

	rec = get(t, mux, "/api/v1/compare?a=python-basico&b=python-datos&method=overlap&metrics=true")
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode[similarity.Metrics](t, rec)
	assert.Equal(t, 1, m.SharedWords)
	assert.Equal(t, "O(n + m)", m.Complexity)

	rec = get(t, mux, "/api/v1/compare?a=python-basico&b=python-datos&method=all")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[struct {
		Results []similarity.Metrics `json:"results"`
	}](t, rec)
	assert.Len(t, all.Results, len(similarity.Methods()))

	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/api/v1/compare?a=x&b=y&method=nope").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/api/v1/compare?a=x&b=y&method=nope&metrics=true").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/api/v1/compare?a=x").Code)

	// Unknown ids score zero rather than failing.
	rec = get(t, mux, "/api/v1/compare?a=python-basico&b=missing&method=cosine")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[CompareResponse](t, rec).Score)
}

func TestSimilarAndCourse(t *testing.T) {
	mux := newServer(t, New(newEngine(t), nil, nil, nil, searchConfig))

	rec := get(t, mux, "/api/v1/courses/python-basico/similar?k=1&method=jaccard")
	require.Equal(t, http.StatusOK, rec.Code)
	sim := decode[SimilarResponse](t, rec)
	require.Len(t, sim.Results, 1)
	assert.Equal(t, "python-datos", sim.Results[0].CourseID)

	assert.Equal(t, http.StatusNotFound, get(t, mux, "/api/v1/courses/missing/similar").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/api/v1/courses/python-basico/similar?method=nope").Code)

	rec = get(t, mux, "/api/v1/courses/marketing")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Marketing digital")
	assert.Equal(t, http.StatusNotFound, get(t, mux, "/api/v1/courses/missing").Code)
}

func TestStats(t *testing.T) {
	mux := newServer(t, New(newEngine(t), nil, nil, nil, searchConfig))
	rec := get(t, mux, "/api/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	s := decode[engine.Statistics](t, rec)
	assert.Equal(t, 3, s.TotalCourses)
	assert.Equal(t, 8, s.VocabularySize)
}

func TestAnalyticsTracking(t *testing.T) {
	agg := analytics.NewAggregator()
	collector := analytics.NewCollector(nil, agg, analytics.CollectorConfig{BatchSize: 1, FlushInterval: time.Hour})
	collector.Start(context.Background())
	mux := newServer(t, New(newEngine(t), nil, collector, nil, searchConfig))

	get(t, mux, "/api/v1/search?q=python")
	get(t, mux, "/api/v1/search?q=cocina")
	get(t, mux, "/api/v1/compare?a=python-basico&b=marketing&method=jaccard")
	get(t, mux, "/api/v1/courses/python-basico/similar?k=2")
	collector.Close()

	s := agg.Stats()
	assert.Equal(t, int64(2), s.TotalSearches)
	assert.Equal(t, int64(2), s.TotalComparisons)
	assert.Equal(t, int64(1), s.ZeroResultCount)
	assert.Equal(t, int64(2), s.StrategyUsage["cosine"])
}
