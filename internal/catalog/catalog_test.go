package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCoursesKeepsFileOrder(t *testing.T) {
	path := writeFile(t, "curso.json", `{
		"zeta": {"title": "Z", "description": "last letter", "url": "https://x/z", "source_page": "https://x"},
		"alpha": {"title": "A", "description": "first letter", "url": "https://x/a", "source_page": "https://x"},
		"mid": {"title": "M"}
	}`)

	cat, err := LoadCourses(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, cat.IDs())
	assert.Equal(t, 3, cat.Len())

	c, ok := cat.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", c.ID)
	assert.Equal(t, "A", c.Title)
	assert.Equal(t, "https://x/a", c.URL)
	assert.Equal(t, "https://x", c.SourcePage)
	assert.Equal(t, 1, cat.Position("alpha"))
	assert.Equal(t, -1, cat.Position("nope"))
}

func TestLoadCoursesFailOpen(t *testing.T) {
	cat, err := LoadCourses(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	require.NotNil(t, cat)
	assert.Zero(t, cat.Len())

	cat, err = LoadCourses(writeFile(t, "bad.json", `{"a": {"title": `))
	require.Error(t, err)
	assert.Zero(t, cat.Len())

	cat, err = LoadCourses(writeFile(t, "array.json", `[1, 2]`))
	require.Error(t, err)
	assert.Zero(t, cat.Len())
}

func TestIDsReturnsCopy(t *testing.T) {
	cat := New([]Course{{ID: "a"}, {ID: "b"}})
	ids := cat.IDs()
	ids[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, cat.IDs())
}

func TestNewDuplicateKeepsFirstPosition(t *testing.T) {
	cat := New([]Course{{ID: "a", Title: "one"}, {ID: "b"}, {ID: "a", Title: "two"}})
	assert.Equal(t, []string{"a", "b"}, cat.IDs())
	c, _ := cat.Get("a")
	assert.Equal(t, "two", c.Title)
}

func TestLoadMapping(t *testing.T) {
	path := writeFile(t, "curso_mapping.json", `{
		"original_to_formatted": {"python-basico": "Curso_0001"},
		"formatted_to_original": {"Curso_0001": "python-basico", "Curso_0002": "marketing"}
	}`)
	m, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, "python-basico", m.Resolve("Curso_0001"))
	assert.Equal(t, "marketing", m.Resolve("Curso_0002"))
	assert.Equal(t, "Curso_0099", m.Resolve("Curso_0099"))
}

func TestLoadMappingFailOpen(t *testing.T) {
	m, err := LoadMapping(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Empty(t, m)
	assert.Equal(t, "Curso_0001", m.Resolve("Curso_0001"))

	m, err = LoadMapping(writeFile(t, "bad.json", `not json`))
	require.Error(t, err)
	assert.Empty(t, m)

	m, err = LoadMapping(writeFile(t, "partial.json", `{"original_to_formatted": {}}`))
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestDefaultMappingPath(t *testing.T) {
	assert.Equal(t, "data/curso_mapping.json", DefaultMappingPath("data/curso.csv"))
	assert.Equal(t, "index.txt_mapping.json", DefaultMappingPath("index.txt"))
}
