package similarity

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/course-search/pkg/errors"
)

// Method names one of the pairwise similarity metrics.
type Method string

const (
	Jaccard  Method = "jaccard"
	Cosine   Method = "cosine"
	Overlap  Method = "overlap"
	Semantic Method = "semantic"
	Combined Method = "combined"
)

var allMethods = []Method{Jaccard, Cosine, Overlap, Semantic, Combined}

var complexity = map[Method]string{
	Jaccard:  "O(n + m)",
	Cosine:   "O(V)",
	Overlap:  "O(n + m)",
	Semantic: "O(n + m + k)",
	Combined: "O(V + n + m + k)",
}

// Methods returns every supported method in report order.
func Methods() []Method {
	out := make([]Method, len(allMethods))
	copy(out, allMethods)
	return out
}

// ParseMethod maps a method name onto the enumeration. Unknown names are
// rejected with an ErrInvalidMethod application error.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	if m.Valid() {
		return m, nil
	}
	names := make([]string, len(allMethods))
	for i, am := range allMethods {
		names[i] = string(am)
	}
	return "", apperrors.InvalidMethod("similarity method", name, names)
}

func (m Method) Valid() bool {
	_, ok := complexity[m]
	return ok
}

// Complexity is the asymptotic cost label reported next to a comparison.
// n and m are the word-set sizes, V the vocabulary size and k the number of
// topic patterns.
func (m Method) Complexity() string {
	if c, ok := complexity[m]; ok {
		return c
	}
	return "O(?)"
}

func (m Method) String() string { return string(m) }
