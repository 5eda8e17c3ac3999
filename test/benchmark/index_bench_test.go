package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/index"
)

func BenchmarkIndexParse(b *testing.B) {
	for _, n := range []int{100, 1000, 5000} {
		c := buildCorpus(n, 20)
		b.Run(fmt.Sprintf("courses_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(c.rows)))
			for i := 0; i < b.N; i++ {
				idx, _, err := index.Parse(strings.NewReader(c.rows))
				if err != nil {
					b.Fatal(err)
				}
				_ = idx
			}
		})
	}
}

func BenchmarkDocumentModel(b *testing.B) {
	for _, n := range []int{100, 1000, 5000} {
		c := buildCorpus(n, 20)
		b.Run(fmt.Sprintf("courses_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = index.NewDocumentModel(c.idx, c.mapping, c.courses)
			}
		})
	}
}

func BenchmarkComputeIDF(b *testing.B) {
	c := buildCorpus(5000, 20)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = index.ComputeIDF(c.idx, c.courses.Len())
	}
}
