// Package similarity scores pairs of courses with set-theoretic, vector-space
// and topic-keyword metrics.
package similarity

import (
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/index"
)

const (
	semanticKeywordWeight = 0.6
	semanticWordWeight    = 0.4

	combinedJaccardWeight  = 0.3
	combinedCosineWeight   = 0.3
	combinedSemanticWeight = 0.4
)

// Match is one entry of a FindSimilar ranking.
type Match struct {
	CourseID string  `json:"course_id"`
	Score    float64 `json:"score"`
}

// Metrics describes one comparison. It is derived from the two word sets and
// the measured time only; it never feeds back into the score.
type Metrics struct {
	Method            Method        `json:"method"`
	Score             float64       `json:"score"`
	ExecutionTime     time.Duration `json:"execution_time_ns"`
	HeapAllocMB       float64       `json:"heap_alloc_mb"`
	Course1WordCount  int           `json:"course1_word_count"`
	Course2WordCount  int           `json:"course2_word_count"`
	SharedWords       int           `json:"shared_words"`
	VocabularyOverlap float64       `json:"vocabulary_overlap"`
	Complexity        string        `json:"computational_complexity"`
}

// Engine holds the read-only tables every metric needs. It is safe for
// concurrent use.
type Engine struct {
	courses  *catalog.Catalog
	docs     *index.DocumentModel
	idf      index.IDFTable
	keywords map[string]map[string]struct{}
	vectors  map[string]index.Vector
	norms    map[string]float64
	logger   *slog.Logger
}

func New(courses *catalog.Catalog, docs *index.DocumentModel, idf index.IDFTable) *Engine {
	e := &Engine{
		courses:  courses,
		docs:     docs,
		idf:      idf,
		keywords: make(map[string]map[string]struct{}, courses.Len()),
		vectors:  make(map[string]index.Vector, courses.Len()),
		norms:    make(map[string]float64, courses.Len()),
		logger:   slog.Default().With("component", "similarity"),
	}
	for _, id := range courses.IDs() {
		c, _ := courses.Get(id)
		e.keywords[id] = ExtractKeywords(c.Title + " " + c.Description)
		v := e.presenceVector(docs.WordSet(id))
		e.vectors[id] = v
		e.norms[id] = v.Norm()
	}
	return e
}

// Compare scores two courses. Identical ids score 1 and an unknown id scores
// 0 whatever the method; an invalid method also scores 0.
func (e *Engine) Compare(a, b string, method Method) float64 {
	if a == b {
		return 1
	}
	if !e.courses.Has(a) || !e.courses.Has(b) {
		return 0
	}
	switch method {
	case Jaccard:
		return e.Jaccard(a, b)
	case Cosine:
		return e.Cosine(a, b)
	case Overlap:
		return e.Overlap(a, b)
	case Semantic:
		return e.Semantic(a, b)
	case Combined:
		return e.Combined(a, b)
	}
	return 0
}

// CompareWithMetrics scores two courses and reports how the comparison went.
func (e *Engine) CompareWithMetrics(a, b string, method Method) Metrics {
	start := time.Now()
	score := e.Compare(a, b, method)
	return e.metrics(a, b, method, score, time.Since(start))
}

// CompareAll runs every method on the same pair, in Methods() order.
func (e *Engine) CompareAll(a, b string) []Metrics {
	out := make([]Metrics, 0, len(allMethods))
	for _, m := range allMethods {
		out = append(out, e.CompareWithMetrics(a, b, m))
	}
	return out
}

func (e *Engine) metrics(a, b string, method Method, score float64, elapsed time.Duration) Metrics {
	w1, w2 := e.docs.WordSet(a), e.docs.WordSet(b)
	shared := w1.Intersect(w2)
	union := len(w1) + len(w2) - shared
	overlap := 0.0
	if union > 0 {
		overlap = float64(shared) / float64(union)
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return Metrics{
		Method:            method,
		Score:             score,
		ExecutionTime:     elapsed,
		HeapAllocMB:       float64(mem.HeapAlloc) / (1 << 20),
		Course1WordCount:  len(w1),
		Course2WordCount:  len(w2),
		SharedWords:       shared,
		VocabularyOverlap: overlap,
		Complexity:        method.Complexity(),
	}
}

// Jaccard is |A∩B| / |A∪B| over word sets. Two empty sets are identical.
func (e *Engine) Jaccard(a, b string) float64 {
	w1, w2 := e.docs.WordSet(a), e.docs.WordSet(b)
	if len(w1) == 0 && len(w2) == 0 {
		return 1
	}
	if len(w1) == 0 || len(w2) == 0 {
		return 0
	}
	shared := w1.Intersect(w2)
	return float64(shared) / float64(len(w1)+len(w2)-shared)
}

// Overlap is |A∩B| / min(|A|, |B|).
func (e *Engine) Overlap(a, b string) float64 {
	w1, w2 := e.docs.WordSet(a), e.docs.WordSet(b)
	if len(w1) == 0 || len(w2) == 0 {
		return 0
	}
	smaller := min(len(w1), len(w2))
	return float64(w1.Intersect(w2)) / float64(smaller)
}

// Cosine compares the binary TF-IDF vectors (weight idf(word) for every word
// present) of two courses.
func (e *Engine) Cosine(a, b string) float64 {
	v1, v2 := e.vectors[a], e.vectors[b]
	if len(v1) == 0 || len(v2) == 0 {
		return 0
	}
	return index.CosineWithNorms(v1, v2, e.norms[a], e.norms[b])
}

// Semantic blends topic-keyword Jaccard with word-set Jaccard.
func (e *Engine) Semantic(a, b string) float64 {
	k1, ok1 := e.keywords[a]
	k2, ok2 := e.keywords[b]
	if !ok1 || !ok2 {
		return 0
	}
	return semanticKeywordWeight*keywordJaccard(k1, k2) + semanticWordWeight*e.Jaccard(a, b)
}

func (e *Engine) Combined(a, b string) float64 {
	return combinedJaccardWeight*e.Jaccard(a, b) +
		combinedCosineWeight*e.Cosine(a, b) +
		combinedSemanticWeight*e.Semantic(a, b)
}

// Keywords returns the topic keywords extracted for a course.
func (e *Engine) Keywords(courseID string) map[string]struct{} {
	return e.keywords[courseID]
}

// FindSimilar scores ref against every other course and returns the k best.
// Equal scores keep corpus order. An unknown ref yields an empty list.
func (e *Engine) FindSimilar(ref string, k int, method Method) []Match {
	if !e.courses.Has(ref) || k <= 0 {
		return []Match{}
	}
	ids := e.courses.IDs()
	matches := make([]Match, 0, len(ids))
	for _, id := range ids {
		if id == ref {
			continue
		}
		matches = append(matches, Match{CourseID: id, Score: e.Compare(ref, id, method)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	e.logger.Debug("similar courses ranked",
		"course", ref,
		"method", method,
		"compared", len(ids)-1,
		"returned", len(matches),
	)
	return matches
}

func (e *Engine) presenceVector(words index.WordSet) index.Vector {
	v := make(index.Vector, len(words))
	for w := range words {
		v[w] = 1.0 * e.idf.Weight(w)
	}
	return v
}
