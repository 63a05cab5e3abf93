package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codegraph/internal/hash"
	"github.com/Aman-CERP/codegraph/internal/model"
)

func TestHNSWIndex_AddAndSearch(t *testing.T) {
	idx := NewHNSWIndex(3)

	h1 := hash.FromContent([]byte("one"))
	h2 := hash.FromContent([]byte("two"))
	require.NoError(t, idx.Add(h1, []float32{1, 0, 0}))
	require.NoError(t, idx.Add(h2, []float32{0, 1, 0}))

	results, err := idx.Search([]float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, h1, results[0].ContentHash)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-5)
}

func TestHNSWIndex_ReplaceOrphansOld(t *testing.T) {
	idx := NewHNSWIndex(2)

	h := hash.FromContent([]byte("x"))
	require.NoError(t, idx.Add(h, []float32{1, 0}))
	require.NoError(t, idx.Add(h, []float32{0, 1}))

	assert.Equal(t, 1, idx.Count())

	results, err := idx.Search([]float32{0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1, "orphaned node must not surface")
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-5)
}

func TestHNSWIndex_DimensionMismatch(t *testing.T) {
	idx := NewHNSWIndex(3)
	assert.Error(t, idx.Add(hash.FromContent([]byte("x")), []float32{1, 2}))
	_, err := idx.Search([]float32{1}, 1)
	assert.Error(t, err)
}

func TestHNSWIndex_BuildFromStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	h1 := hash.FromContent([]byte("a"))
	h2 := hash.FromContent([]byte("b"))
	require.NoError(t, s.PutEmbedding(ctx, h1, model.NewEmbedding([]float32{1, 0}, "m")))
	require.NoError(t, s.PutEmbedding(ctx, h2, model.NewEmbedding([]float32{0, 1}, "m")))

	idx := NewHNSWIndex(2)
	require.NoError(t, idx.BuildFromStore(ctx, s))
	assert.Equal(t, 2, idx.Count())
}
