package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/course-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/course-search/internal/similarity"
)

func BenchmarkSearchStrategies(b *testing.B) {
	c := buildCorpus(2000, 20)
	exec := c.executor()
	ctx := context.Background()
	for _, s := range ranker.Strategies() {
		b.Run(string(s), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = exec.Search(ctx, "análisis de datos con Python y SQL", 10, s)
			}
		})
	}
}

func BenchmarkSearchParallel(b *testing.B) {
	c := buildCorpus(2000, 20)
	exec := c.executor()
	ctx := context.Background()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = exec.Search(ctx, "marketing digital en redes", 10, ranker.StrategySmart)
		}
	})
}

func BenchmarkCompare(b *testing.B) {
	c := buildCorpus(500, 30)
	sim := c.similarity()
	for _, m := range similarity.Methods() {
		b.Run(string(m), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = sim.Compare("curso-1", "curso-2", m)
			}
		})
	}
}

func BenchmarkFindSimilar(b *testing.B) {
	for _, n := range []int{100, 1000} {
		c := buildCorpus(n, 20)
		sim := c.similarity()
		b.Run(fmt.Sprintf("courses_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = sim.FindSimilar("curso-0", 10, similarity.Combined)
			}
		})
	}
}
