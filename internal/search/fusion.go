// Package search provides the hybrid query engine: metadata filters
// narrow a candidate set, vector and full-text stages rank it, and
// Reciprocal Rank Fusion combines the two orderings.
package search

import (
	"sort"

	"github.com/Aman-CERP/codegraph/internal/hash"
)

// DefaultRRFConstant is the standard RRF smoothing parameter.
// k=60 is empirically validated across domains (used by Azure AI Search,
// OpenSearch, and others).
const DefaultRRFConstant = 60

// FusedResult is a candidate after RRF fusion. The fused score is the
// sole final ranking signal; cosine similarity and FTS rank only
// determine positions inside their own lists.
type FusedResult struct {
	ContentHash hash.ContentHash
	Score       float64
	VectorRank  int // 1-indexed position in the vector list, 0 if absent
	FTSRank     int // 1-indexed position in the FTS list, 0 if absent
}

// RRFFusion combines ranked lists using Reciprocal Rank Fusion:
//
//	score(d) = Σ 1 / (k + rank_i)
//
// summed over the lists d appears in, with rank_i the 1-indexed position.
type RRFFusion struct {
	K int
}

// NewRRFFusion creates a fusion instance. k <= 0 falls back to the
// default constant.
func NewRRFFusion(k int) *RRFFusion {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return &RRFFusion{K: k}
}

// Fuse combines the vector and FTS orderings. A candidate receives a
// contribution from each list it appears in; a list a candidate is
// missing from contributes nothing. The result is sorted by fused score
// descending, ties broken by content hash ascending for determinism.
func (f *RRFFusion) Fuse(vectorList, ftsList []hash.ContentHash) []*FusedResult {
	if len(vectorList) == 0 && len(ftsList) == 0 {
		return []*FusedResult{}
	}

	scores := make(map[hash.ContentHash]*FusedResult, len(vectorList)+len(ftsList))

	getOrCreate := func(h hash.ContentHash) *FusedResult {
		if r, ok := scores[h]; ok {
			return r
		}
		r := &FusedResult{ContentHash: h}
		scores[h] = r
		return r
	}

	for i, h := range vectorList {
		r := getOrCreate(h)
		r.VectorRank = i + 1
		r.Score += 1 / float64(f.K+i+1)
	}

	for i, h := range ftsList {
		r := getOrCreate(h)
		r.FTSRank = i + 1
		r.Score += 1 / float64(f.K+i+1)
	}

	results := make([]*FusedResult, 0, len(scores))
	for _, r := range scores {
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ContentHash.Less(results[j].ContentHash)
	})

	return results
}
