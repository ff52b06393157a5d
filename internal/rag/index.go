package rag

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ragtimehq/ragtime/internal/model"
)

// Index is a brute-force in-memory similarity index. Chunks and vectors are
// index-aligned; both grow together under the lock so the alignment is never
// observable mid-update.
type Index struct {
	mu      sync.RWMutex
	chunks  []model.Chunk
	vectors [][]float32
	origins map[string]struct{}
}

func NewIndex() *Index {
	return &Index{origins: make(map[string]struct{})}
}

type scored struct {
	chunk      model.Chunk
	similarity float64
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Extend appends chunks with their vectors.
func (ix *Index) Extend(chunks []model.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.chunks = append(ix.chunks, chunks...)
	ix.vectors = append(ix.vectors, vectors...)
	for _, c := range chunks {
		ix.origins[c.OriginHash] = struct{}{}
	}
	return nil
}

// ContainsOrigin reports whether chunks from a document with this content
// hash are already indexed.
func (ix *Index) ContainsOrigin(hash string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.origins[hash]
	return ok
}

// Search returns up to k chunks with cosine similarity >= minSim, sorted by
// descending similarity. Ties keep insertion order.
func (ix *Index) Search(query []float32, k int, minSim float64) []scored {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if k <= 0 || len(ix.chunks) == 0 {
		return nil
	}
	results := make([]scored, 0, len(ix.chunks))
	for i, vec := range ix.vectors {
		sim := cosine(query, vec)
		if sim < minSim {
			continue
		}
		results = append(results, scored{chunk: ix.chunks[i], similarity: sim})
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].similarity > results[b].similarity
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
