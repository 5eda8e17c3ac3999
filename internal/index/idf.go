package index

import "math"

// IDFTable maps a word to its inverse document frequency.
type IDFTable map[string]float64

// IDF returns ln(totalCourses/docFreq), or 0 when either side is zero or
// the ratio would go negative. A negative value can only come from an index
// that lists more formatted ids for a word than there are courses.
func IDF(totalCourses, docFreq int) float64 {
	if docFreq <= 0 || totalCourses <= 0 {
		return 0
	}
	v := math.Log(float64(totalCourses) / float64(docFreq))
	if v < 0 {
		return 0
	}
	return v
}

// ComputeIDF builds the IDF table for every word of idx, using the size of
// the index entry as the document frequency.
func ComputeIDF(idx WordIndex, totalCourses int) IDFTable {
	table := make(IDFTable, len(idx))
	for word, ids := range idx {
		table[word] = IDF(totalCourses, len(ids))
	}
	return table
}

// Weight returns the IDF of word, 0 for words outside the vocabulary.
func (t IDFTable) Weight(word string) float64 {
	return t[word]
}
