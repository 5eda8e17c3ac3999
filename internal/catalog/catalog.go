// Package catalog holds the course records produced by the crawler and the
// formatted-id to original-id translation table that links them to the
// inverted index.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Course is one crawled course, keyed by its original id (slug).
type Course struct {
	ID          string `json:"-"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	SourcePage  string `json:"source_page"`
}

// Catalog is an immutable set of courses that remembers the order in which
// ids appeared in the courses file. That order is the corpus iteration order
// used for tie-breaking everywhere in the engine.
type Catalog struct {
	courses map[string]Course
	order   []string
	pos     map[string]int
}

// New builds a catalog from courses in the given order. A repeated id keeps
// its first position and its last value.
func New(courses []Course) *Catalog {
	c := &Catalog{
		courses: make(map[string]Course, len(courses)),
		order:   make([]string, 0, len(courses)),
		pos:     make(map[string]int, len(courses)),
	}
	for _, course := range courses {
		c.add(course)
	}
	return c
}

func (c *Catalog) add(course Course) {
	if _, exists := c.courses[course.ID]; !exists {
		c.pos[course.ID] = len(c.order)
		c.order = append(c.order, course.ID)
	}
	c.courses[course.ID] = course
}

// LoadCourses parses the courses JSON object. On any failure it returns an
// empty, usable catalog together with the error so the caller can decide to
// carry on.
func LoadCourses(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return New(nil), fmt.Errorf("opening courses file %s: %w", path, err)
	}
	defer f.Close()
	cat, err := decodeCourses(f)
	if err != nil {
		return New(nil), fmt.Errorf("parsing courses file %s: %w", path, err)
	}
	return cat, nil
}

// decodeCourses walks the top-level object token by token so that key order
// is preserved.
func decodeCourses(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}
	cat := New(nil)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		id, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", keyTok)
		}
		var course Course
		if err := dec.Decode(&course); err != nil {
			return nil, fmt.Errorf("course %q: %w", id, err)
		}
		course.ID = id
		cat.add(course)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return cat, nil
}

// Get returns the course with the given original id.
func (c *Catalog) Get(id string) (Course, bool) {
	course, ok := c.courses[id]
	return course, ok
}

// Has reports whether id is a known course.
func (c *Catalog) Has(id string) bool {
	_, ok := c.courses[id]
	return ok
}

// IDs returns a copy of the course ids in corpus order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of courses.
func (c *Catalog) Len() int { return len(c.order) }

// Position returns the corpus-order position of id, or -1.
func (c *Catalog) Position(id string) int {
	if i, ok := c.pos[id]; ok {
		return i
	}
	return -1
}
