package index

// WordSet is the set of distinct words of one course.
type WordSet map[string]struct{}

// Has reports whether word is in the set.
func (s WordSet) Has(word string) bool {
	_, ok := s[word]
	return ok
}

// Intersect returns |s ∩ o|.
func (s WordSet) Intersect(o WordSet) int {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for w := range small {
		if _, ok := large[w]; ok {
			n++
		}
	}
	return n
}

// Union returns |s ∪ o|.
func (s WordSet) Union(o WordSet) int {
	return len(s) + len(o) - s.Intersect(o)
}

// WordCount holds per-word occurrence counts of one course.
type WordCount map[string]int

// Resolver translates a formatted id into an original course id.
type Resolver interface {
	Resolve(formattedID string) string
}

// CourseSet reports whether an original id names a known course.
type CourseSet interface {
	Has(id string) bool
}

// DocumentModel is the per-course view of the inverted index.
//
// Word sets record presence only. Word counts add one for every formatted
// id that resolves to the course, so a word reached through two formatted
// ids of the same course counts twice while appearing once in the set.
type DocumentModel struct {
	sets   map[string]WordSet
	counts map[string]WordCount
	totals map[string]int
}

// NewDocumentModel resolves every (word, formatted id) pair of idx and
// attributes the word to the resolved course. Pairs whose course is unknown
// are dropped.
func NewDocumentModel(idx WordIndex, resolver Resolver, courses CourseSet) *DocumentModel {
	d := &DocumentModel{
		sets:   make(map[string]WordSet),
		counts: make(map[string]WordCount),
		totals: make(map[string]int),
	}
	for word, ids := range idx {
		for formattedID := range ids {
			originalID := resolver.Resolve(formattedID)
			if !courses.Has(originalID) {
				continue
			}
			set, ok := d.sets[originalID]
			if !ok {
				set = make(WordSet)
				d.sets[originalID] = set
				d.counts[originalID] = make(WordCount)
			}
			set[word] = struct{}{}
			d.counts[originalID][word]++
			d.totals[originalID]++
		}
	}
	return d
}

// WordSets returns the course -> word set table. Callers must not modify it.
func (d *DocumentModel) WordSets() map[string]WordSet { return d.sets }

// WordCounts returns the course -> word count table. Callers must not
// modify it.
func (d *DocumentModel) WordCounts() map[string]WordCount { return d.counts }

// WordSet returns the words of one course, nil when it has none.
func (d *DocumentModel) WordSet(courseID string) WordSet { return d.sets[courseID] }

// WordCount returns the word counts of one course, nil when it has none.
func (d *DocumentModel) WordCount(courseID string) WordCount { return d.counts[courseID] }

// TotalWords returns the sum of all word counts of one course.
func (d *DocumentModel) TotalWords(courseID string) int { return d.totals[courseID] }
