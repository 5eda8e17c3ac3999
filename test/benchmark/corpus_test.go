package benchmark

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/similarity"
)

var vocabulary = []string{
	"python", "datos", "analisis", "programacion", "web", "desarrollo", "marketing",
	"digital", "redes", "ventas", "diseno", "grafico", "salud", "terapia", "educacion",
	"derecho", "legal", "fotografia", "finanzas", "gestion", "proyectos", "liderazgo",
	"java", "javascript", "sql", "estadistica", "excel", "contabilidad", "ingles", "musica",
}

type corpus struct {
	courses *catalog.Catalog
	rows    string
	idx     index.WordIndex
	mapping catalog.Mapping
	docs    *index.DocumentModel
	idf     index.IDFTable
}

// buildCorpus generates numCourses courses with wordsPerCourse index words
// each, drawn deterministically from vocabulary.
func buildCorpus(numCourses, wordsPerCourse int) *corpus {
	courses := make([]catalog.Course, 0, numCourses)
	mapping := make(catalog.Mapping, numCourses)
	var rows strings.Builder
	for i := 0; i < numCourses; i++ {
		id := fmt.Sprintf("curso-%d", i)
		formatted := fmt.Sprintf("Curso_%04d", i+1)
		mapping[formatted] = id

		words := make([]string, 0, wordsPerCourse)
		for j := 0; j < wordsPerCourse; j++ {
			w := vocabulary[(i*7+j*3)%len(vocabulary)]
			words = append(words, w)
			fmt.Fprintf(&rows, "%s|%s\n", formatted, w)
		}
		courses = append(courses, catalog.Course{
			ID:          id,
			Title:       "Curso de " + words[0],
			Description: strings.Join(words, " "),
		})
	}

	c := &corpus{courses: catalog.New(courses), rows: rows.String(), mapping: mapping}
	c.idx, _, _ = index.Parse(strings.NewReader(c.rows))
	c.docs = index.NewDocumentModel(c.idx, mapping, c.courses)
	c.idf = index.ComputeIDF(c.idx, c.courses.Len())
	return c
}

func (c *corpus) similarity() *similarity.Engine {
	return similarity.New(c.courses, c.docs, c.idf)
}

func (c *corpus) executor() *executor.Executor {
	return executor.New(c.courses, c.idx, c.mapping, ranker.NewScorer(c.courses, c.docs, c.idf))
}
