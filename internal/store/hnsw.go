package store

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"

	"github.com/Aman-CERP/codegraph/internal/hash"
)

// HNSWIndex is an opt-in approximate-nearest-neighbor accelerator over
// the stored embeddings. The exact brute-force scan remains the
// reference behavior; this index trades exactness for speed on large
// repositories and is rebuilt from the store on startup.
type HNSWIndex struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	dimensions int

	idMap   map[hash.ContentHash]uint64
	keyMap  map[uint64]hash.ContentHash
	nextKey uint64
}

// NewHNSWIndex creates an empty HNSW index for vectors of the given
// dimensionality.
func NewHNSWIndex(dimensions int) *HNSWIndex {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 64
	graph.Ml = 0.25

	return &HNSWIndex{
		graph:      graph,
		dimensions: dimensions,
		idMap:      make(map[hash.ContentHash]uint64),
		keyMap:     make(map[uint64]hash.ContentHash),
	}
}

// BuildFromStore loads every stored embedding into the index.
func (x *HNSWIndex) BuildFromStore(ctx context.Context, s *Store) error {
	vectors, err := s.AllEmbeddings(ctx)
	if err != nil {
		return err
	}
	for _, sv := range vectors {
		if err := x.Add(sv.ContentHash, sv.Vector); err != nil {
			return err
		}
	}
	return nil
}

// Add inserts or replaces a vector. Replacement is lazy: the old graph
// node is orphaned rather than removed.
func (x *HNSWIndex) Add(h hash.ContentHash, vec []float32) error {
	if len(vec) != x.dimensions {
		return fmt.Errorf("dimension mismatch: expected %d, got %d", x.dimensions, len(vec))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if oldKey, exists := x.idMap[h]; exists {
		delete(x.keyMap, oldKey)
		delete(x.idMap, h)
	}

	key := x.nextKey
	x.nextKey++

	normalized := make([]float32, len(vec))
	copy(normalized, vec)
	normalizeInPlace(normalized)

	x.graph.Add(hnsw.MakeNode(key, normalized))
	x.idMap[h] = key
	x.keyMap[key] = h
	return nil
}

// Search returns the approximate k nearest neighbors, best first.
func (x *HNSWIndex) Search(query []float32, k int) ([]*SimilarityResult, error) {
	if len(query) != x.dimensions {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", x.dimensions, len(query))
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph.Len() == 0 {
		return []*SimilarityResult{}, nil
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeInPlace(normalized)

	nodes := x.graph.Search(normalized, k)

	results := make([]*SimilarityResult, 0, len(nodes))
	for _, node := range nodes {
		h, ok := x.keyMap[node.Key]
		if !ok {
			// Orphaned by a lazy replacement.
			continue
		}
		// Cosine distance ranges 0..2; similarity is 1 - distance.
		distance := x.graph.Distance(normalized, node.Value)
		results = append(results, &SimilarityResult{
			ContentHash: h,
			Similarity:  1 - distance,
		})
	}
	return results, nil
}

// Count returns the number of live vectors.
func (x *HNSWIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.idMap)
}

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
