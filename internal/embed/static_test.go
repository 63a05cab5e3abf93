package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codegraph/internal/vector"
)

func TestStaticEmbed_Deterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	v1, err := e.Embed(ctx, "authenticate user credentials")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "authenticate user credentials")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, StaticDimensions)
}

func TestStaticEmbed_UnitLength(t *testing.T) {
	e := NewStaticEmbedder()

	v, err := e.Embed(context.Background(), "some code text")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vector.Norm(v), 1e-5)
}

func TestStaticEmbed_Empty(t *testing.T) {
	e := NewStaticEmbedder()

	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, v, StaticDimensions)
	assert.Equal(t, float32(0), vector.Norm(v))
}

func TestStaticEmbed_SimilarTextsScoreHigher(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	auth1, err := e.Embed(ctx, "fn authenticate_user(name, password)")
	require.NoError(t, err)
	auth2, err := e.Embed(ctx, "authenticate user by password")
	require.NoError(t, err)
	render, err := e.Embed(ctx, "render html template page")
	require.NoError(t, err)

	assert.Greater(t, vector.Cosine(auth1, auth2), vector.Cosine(auth1, render))
}

func TestStaticEmbedBatch(t *testing.T) {
	e := NewStaticEmbedder()

	vectors, err := e.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestStaticEmbed_Closed(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "x")
	assert.Error(t, err)
}
