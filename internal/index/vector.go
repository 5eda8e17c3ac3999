package index

import (
	"maps"
	"math"
	"slices"
)

// Vector is a sparse term-weight vector. Sums over a Vector run in sorted
// word order, so a given pair of vectors always yields the same bits.
type Vector map[string]float64

// Dot returns the inner product of v and o. Only shared words contribute,
// and they are summed in sorted order, so v.Dot(o) == o.Dot(v) exactly.
func (v Vector) Dot(o Vector) float64 {
	small, large := v, o
	if len(large) < len(small) {
		small, large = large, small
	}
	dot := 0.0
	for _, w := range slices.Sorted(maps.Keys(small)) {
		if y, ok := large[w]; ok {
			dot += small[w] * y
		}
	}
	return dot
}

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 {
	sum := 0.0
	for _, w := range slices.Sorted(maps.Keys(v)) {
		sum += v[w] * v[w]
	}
	return math.Sqrt(sum)
}

// Cosine returns dot(v1, v2) / (|v1|·|v2|), or 0 when either norm is zero.
func Cosine(v1, v2 Vector) float64 {
	return CosineWithNorms(v1, v2, v1.Norm(), v2.Norm())
}

// CosineWithNorms is Cosine for callers that keep the norms precomputed.
func CosineWithNorms(v1, v2 Vector, n1, n2 float64) float64 {
	if n1 == 0 || n2 == 0 {
		return 0
	}
	return v1.Dot(v2) / (n1 * n2)
}
