// Package ranker scores candidate courses against a preprocessed query.
package ranker

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/index"
)

// smartCoverageWeight lifts coverage above cosine's [0,1] range so that
// courses matching more distinct query words rank first. For a query of n
// words coverage moves in steps of 10/n, which keeps buckets apart for n up
// to 10. From 11 words on, a large cosine gap can reorder adjacent buckets.
const smartCoverageWeight = 10.0

// ScoredCourse is a course id with its ranking score.
type ScoredCourse struct {
	CourseID string  `json:"course_id"`
	Score    float64 `json:"score"`
}

// Scorer evaluates every strategy over the document model and IDF table.
// It holds no mutable state.
type Scorer struct {
	courses index.CourseSet
	docs    *index.DocumentModel
	idf     index.IDFTable
	vectors map[string]index.Vector
	norms   map[string]float64
}

// NewScorer precomputes every course's TF-IDF vector (count/total · idf)
// and its norm.
func NewScorer(courses index.CourseSet, docs *index.DocumentModel, idf index.IDFTable) *Scorer {
	s := &Scorer{
		courses: courses,
		docs:    docs,
		idf:     idf,
		vectors: make(map[string]index.Vector, len(docs.WordCounts())),
		norms:   make(map[string]float64, len(docs.WordCounts())),
	}
	for id, counts := range docs.WordCounts() {
		total := s.total(id)
		v := make(index.Vector, len(counts))
		for w, c := range counts {
			v[w] = float64(c) / total * idf.Weight(w)
		}
		s.vectors[id] = v
		s.norms[id] = v.Norm()
	}
	return s
}

// Score dispatches to the function bound to strategy. An empty query or an
// unknown course scores 0.
func (s *Scorer) Score(strategy Strategy, courseID string, query []string) float64 {
	switch strategy {
	case StrategyCosine:
		return s.Cosine(courseID, query)
	case StrategyRelevance:
		return s.Relevance(courseID, query)
	case StrategyTFIDF:
		return s.TFIDF(courseID, query)
	case StrategySmart:
		return s.Smart(courseID, query)
	}
	return 0
}

func (s *Scorer) valid(courseID string, query []string) bool {
	return len(query) > 0 && s.courses.Has(courseID)
}

// total returns the course's summed word counts, guarded to 1.
func (s *Scorer) total(courseID string) float64 {
	if t := s.docs.TotalWords(courseID); t > 0 {
		return float64(t)
	}
	return 1
}

// Cosine compares the query term-count vector with the course TF-IDF vector
// (count/total · idf).
func (s *Scorer) Cosine(courseID string, query []string) float64 {
	if !s.valid(courseID, query) {
		return 0
	}
	qv := make(index.Vector, len(query))
	for _, w := range query {
		qv[w]++
	}
	return index.CosineWithNorms(qv, s.vectors[courseID], qv.Norm(), s.norms[courseID])
}

// Relevance is the share of query tokens, duplicates included, present in
// the course.
func (s *Scorer) Relevance(courseID string, query []string) float64 {
	if !s.valid(courseID, query) {
		return 0
	}
	words := s.docs.WordSet(courseID)
	matches := 0
	for _, w := range query {
		if words.Has(w) {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

// TFIDF sums count/total · idf over the query tokens.
func (s *Scorer) TFIDF(courseID string, query []string) float64 {
	if !s.valid(courseID, query) {
		return 0
	}
	counts := s.docs.WordCount(courseID)
	total := s.total(courseID)
	score := 0.0
	for _, w := range query {
		score += float64(counts[w]) / total * s.idf.Weight(w)
	}
	return score
}

// Coverage is |distinct query words ∩ course words| / |query|.
func (s *Scorer) Coverage(courseID string, query []string) float64 {
	if !s.valid(courseID, query) {
		return 0
	}
	counts := s.docs.WordCount(courseID)
	seen := make(map[string]struct{}, len(query))
	for _, w := range query {
		if _, ok := counts[w]; ok {
			seen[w] = struct{}{}
		}
	}
	return float64(len(seen)) / float64(len(query))
}

// Smart ranks by coverage first and uses cosine to order courses of equal
// coverage.
func (s *Scorer) Smart(courseID string, query []string) float64 {
	if !s.valid(courseID, query) {
		return 0
	}
	return s.Coverage(courseID, query)*smartCoverageWeight + s.Cosine(courseID, query)
}

// KeywordFrequency sums the course counts of every query token.
func (s *Scorer) KeywordFrequency(courseID string, query []string) int {
	if !s.valid(courseID, query) {
		return 0
	}
	counts := s.docs.WordCount(courseID)
	total := 0
	for _, w := range query {
		total += counts[w]
	}
	return total
}

// Rank drops non-positive scores, sorts the rest descending and truncates
// to limit when limit > 0. Callers pass the slice in corpus order; equal
// scores keep that order.
func Rank(scored []ScoredCourse, limit int) []ScoredCourse {
	kept := make([]ScoredCourse, 0, len(scored))
	for _, sc := range scored {
		if sc.Score > 0 {
			kept = append(kept, sc)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// Normalize rescales scores to [0,1] with min-max. When every score is the
// same, positive scores map to 1 and the rest to 0.
func Normalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return []float64{}
	}
	lo, hi := scores[0], scores[0]
	for _, v := range scores[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	out := make([]float64, len(scores))
	for i, v := range scores {
		switch {
		case hi == lo && v > 0:
			out[i] = 1
		case hi == lo:
			out[i] = 0
		default:
			out[i] = (v - lo) / (hi - lo)
		}
	}
	return out
}
