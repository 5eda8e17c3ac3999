package similarity

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/course-search/pkg/errors"
)

func newEngine(t *testing.T, courses []catalog.Course, rows []string, mapping catalog.Mapping) *Engine {
	t.Helper()
	cat := catalog.New(courses)
	idx, _, err := index.Parse(strings.NewReader(strings.Join(rows, "\n")))
	require.NoError(t, err)
	if mapping == nil {
		mapping = catalog.Mapping{}
	}
	docs := index.NewDocumentModel(idx, mapping, cat)
	return New(cat, docs, index.ComputeIDF(idx, cat.Len()))
}

func fixtureEngine(t *testing.T) *Engine {
	return newEngine(t,
		[]catalog.Course{
			{ID: "c1", Title: "Curso de Programación Python", Description: "Aprenda programación"},
			{ID: "c2", Title: "Marketing Digital", Description: "Estrategias de marketing"},
		},
		[]string{
			"Curso_0001|curso",
			"Curso_0001|programacion",
			"Curso_0001|python",
			"Curso_0001|aprenda",
			"Curso_0002|marketing",
			"Curso_0002|digital",
			"Curso_0002|estrategias",
		},
		catalog.Mapping{"Curso_0001": "c1", "Curso_0002": "c2"},
	)
}

func richEngine(t *testing.T) *Engine {
	return newEngine(t,
		[]catalog.Course{
			{ID: "py", Title: "Python para datos", Description: "Programación y análisis"},
			{ID: "py2", Title: "Python web", Description: "Desarrollo web con python"},
			{ID: "mk", Title: "Marketing digital", Description: "Redes sociales y ventas"},
			{ID: "empty", Title: "Sin palabras", Description: ""},
			{ID: "other-empty", Title: "Tampoco", Description: ""},
		},
		[]string{
			"py|python", "py|datos", "py|programacion", "py|analisis",
			"py2|python", "py2|web", "py2|desarrollo",
			"mk|marketing", "mk|digital", "mk|redes", "mk|ventas",
		},
		nil,
	)
}

func TestFixtureScenario(t *testing.T) {
	e := fixtureEngine(t)
	assert.Equal(t, 0.0, e.Compare("c1", "c2", Jaccard))
	assert.Equal(t, []Match{{CourseID: "c2", Score: 0}}, e.FindSimilar("c1", 1, Combined))
}

func TestCompareShortCircuits(t *testing.T) {
	e := richEngine(t)
	for _, m := range Methods() {
		assert.Equal(t, 1.0, e.Compare("py", "py", m), m)
		assert.Equal(t, 1.0, e.Compare("ghost", "ghost", m), m)
		assert.Equal(t, 0.0, e.Compare("ghost", "py", m), m)
		assert.Equal(t, 0.0, e.Compare("py", "ghost", m), m)
	}
}

func TestSelfSimilarityWithoutShortCircuit(t *testing.T) {
	e := richEngine(t)
	assert.Equal(t, 1.0, e.Jaccard("py", "py"))
	assert.Equal(t, 1.0, e.Overlap("py", "py"))
	assert.InDelta(t, 1.0, e.Cosine("py", "py"), 1e-9)
}

func TestEmptyWordSets(t *testing.T) {
	e := richEngine(t)
	assert.Equal(t, 1.0, e.Jaccard("empty", "other-empty"))
	assert.Equal(t, 0.0, e.Jaccard("empty", "py"))
	assert.Equal(t, 0.0, e.Overlap("empty", "py"))
	assert.Equal(t, 0.0, e.Overlap("empty", "other-empty"))
	assert.Equal(t, 0.0, e.Cosine("empty", "py"))
}

func TestMetricValues(t *testing.T) {
	e := richEngine(t)
	// py ∩ py2 = {python}; union has 6 words; min size is 3.
	assert.InDelta(t, 1.0/6.0, e.Jaccard("py", "py2"), 1e-12)
	assert.InDelta(t, 1.0/3.0, e.Overlap("py", "py2"), 1e-12)
	assert.Equal(t, 0.0, e.Jaccard("py", "mk"))
	assert.Equal(t, 0.0, e.Cosine("py", "mk"))

	c := e.Cosine("py", "py2")
	assert.Greater(t, c, 0.0)
	assert.Less(t, c, 1.0)

	comb := e.Combined("py", "py2")
	want := 0.3*e.Jaccard("py", "py2") + 0.3*e.Cosine("py", "py2") + 0.4*e.Semantic("py", "py2")
	assert.InDelta(t, want, comb, 1e-12)
}

func TestSymmetry(t *testing.T) {
	e := richEngine(t)
	ids := []string{"py", "py2", "mk", "empty"}
	for range 50 {
		for _, m := range Methods() {
			for _, a := range ids {
				for _, b := range ids {
					assert.Equal(t, e.Compare(a, b, m), e.Compare(b, a, m), "%s(%s,%s)", m, a, b)
				}
			}
		}
	}
}

func TestRepeatedCompareIsBitIdentical(t *testing.T) {
	e := richEngine(t)
	want := e.Cosine("py", "py2")
	for range 200 {
		require.Equal(t, want, e.Cosine("py", "py2"))
		require.Equal(t, want, e.Cosine("py2", "py"))
	}
}

// mirroredEngine builds x and y as mirror images around ref: x holds
// s1..s3 and y holds s4..s6 at matching document frequencies, each plus one
// word of its own. Every metric scores them identically against ref.
func mirroredEngine(t *testing.T) *Engine {
	return newEngine(t,
		[]catalog.Course{
			{ID: "ref", Title: "Alfa", Description: "uno"},
			{ID: "x", Title: "Beta", Description: "dos"},
			{ID: "low", Title: "Delta", Description: "cuatro"},
			{ID: "y", Title: "Gamma", Description: "tres"},
		},
		[]string{
			"ref|s1", "ref|s2", "ref|s3", "ref|s4", "ref|s5", "ref|s6",
			"x|s1", "x|s2", "x|s3", "x|x1",
			"y|s4", "y|s5", "y|s6", "y|y1",
			"low|s1", "low|s4", "low|z1", "low|z2", "low|z3", "low|z4", "low|z5",
		},
		nil,
	)
}

func TestFindSimilarNonZeroTiesKeepCorpusOrder(t *testing.T) {
	e := mirroredEngine(t)
	for _, m := range Methods() {
		for range 100 {
			got := e.FindSimilar("ref", 10, m)
			require.Len(t, got, 3, m)
			require.Equal(t, "x", got[0].CourseID, m)
			require.Equal(t, "y", got[1].CourseID, m)
			require.Equal(t, got[0].Score, got[1].Score, m)
			require.Positive(t, got[0].Score, m)
		}
	}
}

func TestScoresInUnitRange(t *testing.T) {
	e := richEngine(t)
	ids := []string{"py", "py2", "mk", "empty", "other-empty"}
	for _, m := range Methods() {
		for _, a := range ids {
			for _, b := range ids {
				s := e.Compare(a, b, m)
				assert.GreaterOrEqual(t, s, 0.0)
				assert.LessOrEqual(t, s, 1.0+1e-12)
			}
		}
	}
}

func TestSemantic(t *testing.T) {
	e := richEngine(t)
	// py keywords {python, programación}; py2 {python, web, desarrollo}
	kj := 1.0 / 4.0
	assert.InDelta(t, 0.6*kj+0.4*e.Jaccard("py", "py2"), e.Semantic("py", "py2"), 1e-12)
	// Neither empty course has a keyword, so only the word-set part differs.
	assert.InDelta(t, 0.6+0.4, e.Semantic("empty", "other-empty"), 1e-12)
}

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("Diseño GRÁFICO para Redes Sociales, javascript y webinar")
	assert.Equal(t, map[string]struct{}{
		"diseño":         {},
		"gráfico":        {},
		"redes sociales": {},
		"javascript":     {},
	}, got)

	assert.Empty(t, ExtractKeywords(""))
	assert.Empty(t, ExtractKeywords("cocina internacional"))
	assert.Contains(t, ExtractKeywords("educación-legal"), "legal")
}

func TestFindSimilarOrderingAndTies(t *testing.T) {
	e := richEngine(t)
	got := e.FindSimilar("py", 10, Jaccard)
	require.Len(t, got, 4)
	assert.Equal(t, "py2", got[0].CourseID)
	// The remaining zero scores keep corpus order.
	assert.Equal(t, []string{"mk", "empty", "other-empty"},
		[]string{got[1].CourseID, got[2].CourseID, got[3].CourseID})
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}

	assert.Len(t, e.FindSimilar("py", 2, Jaccard), 2)
	assert.Empty(t, e.FindSimilar("ghost", 3, Combined))
	assert.Empty(t, e.FindSimilar("py", 0, Combined))
}

func TestCompareWithMetrics(t *testing.T) {
	e := richEngine(t)
	m := e.CompareWithMetrics("py", "py2", Overlap)
	assert.Equal(t, Overlap, m.Method)
	assert.InDelta(t, e.Overlap("py", "py2"), m.Score, 1e-12)
	assert.Equal(t, 4, m.Course1WordCount)
	assert.Equal(t, 3, m.Course2WordCount)
	assert.Equal(t, 1, m.SharedWords)
	assert.InDelta(t, 1.0/6.0, m.VocabularyOverlap, 1e-12)
	assert.Equal(t, "O(n + m)", m.Complexity)

	empty := e.CompareWithMetrics("empty", "other-empty", Jaccard)
	assert.Equal(t, 0.0, empty.VocabularyOverlap)
}

func TestCompareAll(t *testing.T) {
	e := richEngine(t)
	all := e.CompareAll("py", "mk")
	require.Len(t, all, len(Methods()))
	for i, m := range Methods() {
		assert.Equal(t, m, all[i].Method)
		assert.Equal(t, m.Complexity(), all[i].Complexity)
		assert.InDelta(t, e.Compare("py", "mk", m), all[i].Score, 1e-12)
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" Cosine ")
	require.NoError(t, err)
	assert.Equal(t, Cosine, m)

	_, err = ParseMethod("levenshtein")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidMethod))
	assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
	assert.Contains(t, err.Error(), "levenshtein")

	assert.Equal(t, "O(?)", Method("bogus").Complexity())
}
