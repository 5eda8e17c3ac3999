// Package engine wires the corpus files into the similarity and search
// engines and exposes the name-based operations used by the CLI and the
// HTTP handler.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/tokenizer"
)

// Paths locates the three corpus files. An empty Mapping is derived from
// Index.
type Paths struct {
	Courses string
	Index   string
	Mapping string
}

// Statistics summarizes the loaded corpus.
type Statistics struct {
	TotalCourses      int     `json:"total_courses"`
	VocabularySize    int     `json:"vocabulary_size"`
	IndexEntries      int     `json:"index_entries"`
	AvgWordsPerCourse float64 `json:"avg_words_per_course"`
}

// CourseURL is one entry of a URL-only search.
type CourseURL struct {
	CourseID string  `json:"course_id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Score    float64 `json:"score"`
}

// LoadReport records what construction read and which files failed.
type LoadReport struct {
	Paths       Paths    `json:"paths"`
	IndexRows   int      `json:"index_rows"`
	SkippedRows int      `json:"skipped_rows"`
	Errors      []string `json:"errors,omitempty"`
}

// Engine is immutable after New and safe for concurrent use.
type Engine struct {
	courses    *catalog.Catalog
	idx        index.WordIndex
	docs       *index.DocumentModel
	idf        index.IDFTable
	similarity *similarity.Engine
	executor   *executor.Executor
	report     LoadReport
	logger     *slog.Logger
}

// New loads the corpus files concurrently and derives every table. Missing or
// corrupt files are logged and replaced by empty structures; New only fails
// when ctx is done before loading completes.
func New(ctx context.Context, paths Paths) (*Engine, error) {
	log := slog.Default().With("component", "engine")
	if paths.Mapping == "" {
		paths.Mapping = catalog.DefaultMappingPath(paths.Index)
	}

	var (
		courses *catalog.Catalog
		idx     index.WordIndex
		stats   index.LoadStats
		mapping catalog.Mapping
		mu      sync.Mutex
		errs    []string
	)
	failed := func(file string, err error) {
		log.Warn("corpus file unavailable, continuing with empty data", "file", file, "error", err)
		mu.Lock()
		errs = append(errs, err.Error())
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if courses, err = catalog.LoadCourses(paths.Courses); err != nil {
			failed(paths.Courses, err)
		}
		return gctx.Err()
	})
	g.Go(func() error {
		var err error
		if idx, stats, err = index.Load(paths.Index); err != nil {
			failed(paths.Index, err)
		}
		return gctx.Err()
	})
	g.Go(func() error {
		var err error
		if mapping, err = catalog.LoadMapping(paths.Mapping); err != nil {
			failed(paths.Mapping, err)
		}
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	if stats.SkippedRows > 0 {
		log.Warn("malformed index rows skipped", "file", paths.Index, "skipped", stats.SkippedRows)
	}

	docs := index.NewDocumentModel(idx, mapping, courses)
	idf := index.ComputeIDF(idx, courses.Len())
	scorer := ranker.NewScorer(courses, docs, idf)

	e := &Engine{
		courses:    courses,
		idx:        idx,
		docs:       docs,
		idf:        idf,
		similarity: similarity.New(courses, docs, idf),
		executor:   executor.New(courses, idx, mapping, scorer),
		report: LoadReport{
			Paths:       paths,
			IndexRows:   stats.Rows,
			SkippedRows: stats.SkippedRows,
			Errors:      errs,
		},
		logger: log,
	}
	log.Info("corpus loaded",
		"courses", courses.Len(),
		"vocabulary", len(idx),
		"index_entries", idx.Entries(),
	)
	return e, nil
}

// Compare scores two courses by id with the named method.
func (e *Engine) Compare(a, b, method string) (float64, error) {
	m, err := similarity.ParseMethod(method)
	if err != nil {
		return 0, err
	}
	return e.similarity.Compare(a, b, m), nil
}

// CompareWithMetrics is Compare plus the measurement record.
func (e *Engine) CompareWithMetrics(a, b, method string) (similarity.Metrics, error) {
	m, err := similarity.ParseMethod(method)
	if err != nil {
		return similarity.Metrics{}, err
	}
	return e.similarity.CompareWithMetrics(a, b, m), nil
}

// CompareAll runs every similarity method on the pair.
func (e *Engine) CompareAll(a, b string) []similarity.Metrics {
	return e.similarity.CompareAll(a, b)
}

func (e *Engine) FindSimilar(ref string, k int, method string) ([]similarity.Match, error) {
	m, err := similarity.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	return e.similarity.FindSimilar(ref, k, m), nil
}

// Search ranks the corpus against query with the named strategy.
func (e *Engine) Search(ctx context.Context, query string, limit int, strategy string) (*executor.SearchResult, error) {
	s, err := ranker.ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	return e.executor.Search(ctx, query, limit, s), nil
}

func (e *Engine) SearchByCategory(ctx context.Context, query, category string, limit int) *executor.SearchResult {
	return e.executor.SearchByCategory(ctx, query, category, limit)
}

func (e *Engine) MeasurePerformance(ctx context.Context, query string, limit int) *executor.Performance {
	return e.executor.MeasurePerformance(ctx, query, limit)
}

// SearchURLs runs a cosine search and keeps the courses that carry a URL.
func (e *Engine) SearchURLs(ctx context.Context, query string, limit int) []CourseURL {
	result := e.executor.Search(ctx, query, limit, ranker.StrategyCosine)
	out := make([]CourseURL, 0, len(result.Results))
	for _, h := range result.Results {
		if h.Course.URL == "" {
			continue
		}
		out = append(out, CourseURL{
			CourseID: h.CourseID,
			Title:    h.Course.Title,
			URL:      h.Course.URL,
			Score:    h.Score,
		})
	}
	return out
}

// KeywordFrequency sums the course's counts for the cleaned query tokens.
func (e *Engine) KeywordFrequency(courseID, query string) int {
	return e.executor.KeywordFrequency(courseID, tokenizer.Preprocess(query))
}

func (e *Engine) Statistics() Statistics {
	s := Statistics{
		TotalCourses:   e.courses.Len(),
		VocabularySize: len(e.idx),
		IndexEntries:   e.idx.Entries(),
	}
	if s.TotalCourses > 0 {
		words := 0
		for _, counts := range e.docs.WordCounts() {
			words += len(counts)
		}
		s.AvgWordsPerCourse = float64(words) / float64(s.TotalCourses)
	}
	return s
}

// Course returns the record for id.
func (e *Engine) Course(id string) (catalog.Course, bool) {
	return e.courses.Get(id)
}

// CourseIDs lists every course id in corpus order.
func (e *Engine) CourseIDs() []string {
	return e.courses.IDs()
}

// Keywords returns the topic keywords found in the course text.
func (e *Engine) Keywords(id string) map[string]struct{} {
	return e.similarity.Keywords(id)
}

// WordSets exposes the derived per-course word sets. Callers must not modify
// them.
func (e *Engine) WordSets() map[string]index.WordSet {
	return e.docs.WordSets()
}

// IDF returns the inverse document frequency of word.
func (e *Engine) IDF(word string) float64 {
	return e.idf.Weight(word)
}

func (e *Engine) LoadReport() LoadReport {
	return e.report
}
