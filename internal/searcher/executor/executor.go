package executor

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/course-search/pkg/tracing"
)

// RelevanceThreshold is the score above which a returned result counts as
// relevant for precision@k.
const RelevanceThreshold = 0.1

// Hit is one ranked course with its record.
type Hit struct {
	CourseID string         `json:"course_id"`
	Score    float64        `json:"score"`
	Course   catalog.Course `json:"info"`
}

type SearchResult struct {
	Query     string          `json:"query"`
	Tokens    []string        `json:"tokens"`
	Strategy  ranker.Strategy `json:"strategy"`
	Category  string          `json:"category,omitempty"`
	TotalHits int             `json:"total_hits"`
	Results   []Hit           `json:"results"`
}

// Performance is the instrumented report of a cosine search.
type Performance struct {
	Query              string   `json:"query"`
	PreprocessingMS    float64  `json:"preprocessing_time_ms"`
	CandidateSearchMS  float64  `json:"candidate_search_time_ms"`
	ScoringMS          float64  `json:"scoring_time_ms"`
	TotalMS            float64  `json:"total_time_ms"`
	QueryWords         []string `json:"query_words"`
	CandidateCourses   int      `json:"candidate_courses"`
	ResultsFound       int      `json:"results_found"`
	ResultsReturned    int      `json:"results_returned"`
	Coverage           float64  `json:"coverage"`
	PrecisionAtK       float64  `json:"precision_at_k"`
	AvgRelevanceScore  float64  `json:"avg_relevance_score"`
	RelevanceThreshold float64  `json:"relevance_threshold"`
}

type Executor struct {
	courses  *catalog.Catalog
	idx      index.WordIndex
	resolver index.Resolver
	scorer   *ranker.Scorer
	logger   *slog.Logger
}

func New(courses *catalog.Catalog, idx index.WordIndex, resolver index.Resolver, scorer *ranker.Scorer) *Executor {
	return &Executor{
		courses:  courses,
		idx:      idx,
		resolver: resolver,
		scorer:   scorer,
		logger:   slog.Default().With("component", "query-executor"),
	}
}

// Candidates returns, in corpus order, every known course holding at least
// one of the tokens.
func (e *Executor) Candidates(tokens []string) []string {
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		for formattedID := range e.idx[tok] {
			id := e.resolver.Resolve(formattedID)
			if e.courses.Has(id) {
				seen[id] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return e.courses.Position(out[i]) < e.courses.Position(out[j])
	})
	return out
}

// Search preprocesses query, scores the candidates with strategy and returns
// the best limit courses with a positive score.
func (e *Executor) Search(ctx context.Context, query string, limit int, strategy ranker.Strategy) *SearchResult {
	tokens := tokenizer.Preprocess(query)
	result := &SearchResult{
		Query:    query,
		Tokens:   tokens,
		Strategy: strategy,
		Results:  []Hit{},
	}
	if len(tokens) == 0 || limit <= 0 {
		return result
	}
	candidates := e.Candidates(tokens)
	result.TotalHits = len(candidates)
	result.Results = e.hits(e.score(candidates, tokens, strategy, limit))

	logger.FromContext(ctx).Info("query executed",
		"component", "query-executor",
		"query", query,
		"tokens", tokens,
		"strategy", strategy,
		"candidates", len(candidates),
		"results", len(result.Results),
	)
	return result
}

// SearchByCategory runs a cosine search for twice the limit and keeps the
// results whose title or description mentions the category or any of its
// words. An empty category disables the filter.
func (e *Executor) SearchByCategory(ctx context.Context, query, category string, limit int) *SearchResult {
	result := e.Search(ctx, query, 2*limit, ranker.StrategyCosine)
	result.Category = category
	if strings.TrimSpace(category) == "" {
		if len(result.Results) > limit {
			result.Results = result.Results[:max(limit, 0)]
		}
		return result
	}
	cat := strings.ToLower(category)
	words := strings.Fields(cat)
	filtered := make([]Hit, 0, len(result.Results))
	for _, h := range result.Results {
		if matchesCategory(h.Course, cat, words) {
			filtered = append(filtered, h)
		}
		if len(filtered) == limit {
			break
		}
	}
	result.Results = filtered
	return result
}

func matchesCategory(c catalog.Course, category string, words []string) bool {
	title := strings.ToLower(c.Title)
	desc := strings.ToLower(c.Description)
	if strings.Contains(title, category) || strings.Contains(desc, category) {
		return true
	}
	text := title + " " + desc
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// MeasurePerformance replays the cosine search with a span per stage and
// reports timings and quality ratios. It does not change any state.
func (e *Executor) MeasurePerformance(ctx context.Context, query string, limit int) *Performance {
	ctx, root := tracing.StartSpan(ctx, "measure_performance", logger.RequestID(ctx))
	perf := &Performance{
		Query:              query,
		QueryWords:         []string{},
		RelevanceThreshold: RelevanceThreshold,
	}

	_, prep := tracing.StartChildSpan(ctx, "preprocessing")
	tokens := tokenizer.Preprocess(query)
	prep.End()
	perf.PreprocessingMS = prep.Milliseconds()

	if len(tokens) == 0 {
		root.End()
		perf.TotalMS = perf.PreprocessingMS
		return perf
	}
	perf.QueryWords = tokens

	_, cand := tracing.StartChildSpan(ctx, "candidate_retrieval")
	candidates := e.Candidates(tokens)
	cand.SetAttr("candidates", len(candidates))
	cand.End()

	_, scoring := tracing.StartChildSpan(ctx, "scoring")
	all := e.score(candidates, tokens, ranker.StrategyCosine, 0)
	returned := all
	if len(returned) > limit {
		returned = returned[:max(limit, 0)]
	}
	scoring.SetAttr("results", len(returned))
	scoring.End()
	root.End()

	perf.CandidateSearchMS = cand.Milliseconds()
	perf.ScoringMS = scoring.Milliseconds()
	perf.TotalMS = root.Milliseconds()
	perf.CandidateCourses = len(candidates)
	perf.ResultsFound = len(all)
	perf.ResultsReturned = len(returned)
	if n := e.courses.Len(); n > 0 {
		perf.Coverage = float64(len(candidates)) / float64(n)
	}
	if len(returned) > 0 {
		relevant, sum := 0, 0.0
		for _, sc := range returned {
			if sc.Score > RelevanceThreshold {
				relevant++
			}
			sum += sc.Score
		}
		perf.PrecisionAtK = float64(relevant) / float64(len(returned))
		perf.AvgRelevanceScore = sum / float64(len(returned))
	}
	root.Log(e.logger)
	return perf
}

// KeywordFrequency exposes the per-course token count sum used by detailed
// search reports.
func (e *Executor) KeywordFrequency(courseID string, tokens []string) int {
	return e.scorer.KeywordFrequency(courseID, tokens)
}

func (e *Executor) score(candidates, tokens []string, strategy ranker.Strategy, limit int) []ranker.ScoredCourse {
	scored := make([]ranker.ScoredCourse, 0, len(candidates))
	for _, id := range candidates {
		scored = append(scored, ranker.ScoredCourse{
			CourseID: id,
			Score:    e.scorer.Score(strategy, id, tokens),
		})
	}
	return ranker.Rank(scored, limit)
}

func (e *Executor) hits(scored []ranker.ScoredCourse) []Hit {
	out := make([]Hit, 0, len(scored))
	for _, sc := range scored {
		c, _ := e.courses.Get(sc.CourseID)
		out = append(out, Hit{CourseID: sc.CourseID, Score: sc.Score, Course: c})
	}
	return out
}
