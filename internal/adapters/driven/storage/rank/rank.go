// Package rank implements brute-force cosine ranking shared by the local
// vector store backends (memory, sqlite, bolt).
package rank

import (
	"math"
	"sort"

	"github.com/custodia-labs/owngpt/internal/core/domain"
)

// Candidate is a stored record with its insertion sequence.
type Candidate struct {
	Record domain.Record

	// Seq increases with insertion order and breaks similarity ties.
	Seq uint64
}

// Cosine returns the cosine similarity of a and b.
// Vectors of different length or zero magnitude score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK scores candidates against query and returns the best k in rank order.
// Equal similarities keep insertion order, oldest first.
func TopK(query []float32, candidates []Candidate, k int) []domain.RankedRecord {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	type scored struct {
		c   Candidate
		sim float64
	}
	all := make([]scored, len(candidates))
	for i, c := range candidates {
		all[i] = scored{c: c, sim: Cosine(query, c.Record.Embedding)}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].sim != all[j].sim {
			return all[i].sim > all[j].sim
		}
		return all[i].c.Seq < all[j].c.Seq
	})

	if k > len(all) {
		k = len(all)
	}
	out := make([]domain.RankedRecord, k)
	for i := 0; i < k; i++ {
		out[i] = domain.RankedRecord{
			Record:     all[i].c.Record,
			Similarity: all[i].sim,
			Rank:       i,
		}
	}
	return out
}
