package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codegraph/internal/embed"
	"github.com/Aman-CERP/codegraph/internal/model"
	"github.com/Aman-CERP/codegraph/internal/service"
	"github.com/Aman-CERP/codegraph/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store, embed.Embedder) {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	embedder := embed.NewStaticEmbedder()
	svc := service.New(s, embedder, service.Config{})
	return New(svc, 0), s, embedder
}

func seedSymbol(t *testing.T, s *store.Store, embedder embed.Embedder, symbol, content string) *model.Chunk {
	t.Helper()
	ctx := context.Background()
	c := model.NewChunk(content, model.LangRust, model.KindFunction, symbol)
	c.LineStart, c.LineEnd = 1, 1
	require.NoError(t, s.PutChunk(ctx, c))
	vec, err := embedder.Embed(ctx, c.EmbeddingText())
	require.NoError(t, err)
	require.NoError(t, s.PutEmbedding(ctx, c.ContentHash, model.NewEmbedding(vec, embedder.ModelID())))
	return c
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	srv, s, embedder := newTestServer(t)
	seedSymbol(t, s, embedder, "authenticate_user", "fn authenticate_user() {}")

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/search",
		SearchRequest{Query: "authenticate_user", Limit: 5})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "authenticate_user", resp.Results[0].Chunk.SymbolName)
}

func TestSearchEndpoint_MissingQuery(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/search", SearchRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTreeEndpoint(t *testing.T) {
	srv, s, embedder := newTestServer(t)
	main := seedSymbol(t, s, embedder, "main", "fn main() { helper(); }")
	seedSymbol(t, s, embedder, "helper", "fn helper() {}")
	require.NoError(t, s.AddEdges(context.Background(), []model.Edge{
		{SourceHash: main.ContentHash, TargetQuery: "helper", Kind: model.EdgeCalls},
	}))

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/tree", TreeRequest{Symbol: "main", Depth: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "helper")
}

func TestCyclesEndpoint_Empty(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/cycles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cycles":[]}`, rec.Body.String())
}

func TestContextEndpoint(t *testing.T) {
	srv, s, embedder := newTestServer(t)
	seedSymbol(t, s, embedder, "target", "fn target() {}")

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/context/target", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"target"`)
}

func TestIndexEndpoint_BadPath(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/index",
		IndexRequest{Path: "/does/not/exist"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsAndHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store"`)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
