// Package server binds the service surface to an HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	kgerrors "github.com/Aman-CERP/codegraph/internal/errors"
	"github.com/Aman-CERP/codegraph/internal/service"
)

// Server serves the engine over HTTP.
type Server struct {
	svc  service.Service
	http *http.Server
}

// New creates a server bound to the given port.
func New(svc service.Service, port int) *Server {
	s := &Server{svc: svc}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /tree", s.handleTree)
	mux.HandleFunc("POST /graph", s.handleGraph)
	mux.HandleFunc("GET /cycles", s.handleCycles)
	mux.HandleFunc("GET /context/{symbol}", s.handleContext)
	mux.HandleFunc("GET /related/{symbol}", s.handleRelated)
	mux.HandleFunc("POST /index", s.handleIndex)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe serves until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", slog.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// SearchRequest is the /search request body.
type SearchRequest struct {
	Query     string  `json:"query"`
	Limit     int     `json:"limit,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

// SearchResponse is the /search response body.
type SearchResponse struct {
	Results []*service.SearchResult `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := s.svc.Search(r.Context(), req.Query, service.SearchOptions{
		Limit:     req.Limit,
		Threshold: req.Threshold,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// TreeRequest is the /tree request body.
type TreeRequest struct {
	Symbol string `json:"symbol,omitempty"`
	Depth  int    `json:"depth,omitempty"`
	All    bool   `json:"all,omitempty"`
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	var req TreeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Depth <= 0 {
		req.Depth = 3
	}
	symbol := req.Symbol
	if req.All {
		symbol = ""
	}

	tree, err := s.svc.Tree(r.Context(), symbol, req.Depth)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// GraphRequest is the /graph request body.
type GraphRequest struct {
	Level     string   `json:"level,omitempty"`
	Filters   []string `json:"filters,omitempty"`
	ShowEdges bool     `json:"show_edges,omitempty"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var req GraphRequest
	if !decode(w, r, &req) {
		return
	}

	entries, err := s.svc.ModuleGraph(r.Context(), req.Level, req.Filters, req.ShowEdges)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": entries})
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := s.svc.FindModuleCycles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if cycles == nil {
		cycles = [][]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cycles": cycles})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	chunks, err := s.svc.Context(r.Context(), symbol)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbol": symbol, "chunks": chunks})
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	related, err := s.svc.Related(r.Context(), symbol, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, related)
}

// IndexRequest is the /index request body.
type IndexRequest struct {
	Path string `json:"path"`
	Git  bool   `json:"git,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := os.Stat(req.Path); err != nil {
		writeError(w, http.StatusBadRequest, "path does not exist: "+req.Path)
		return
	}

	if !s.svc.Index(r.Context(), req.Path, req.Git) {
		writeError(w, http.StatusConflict, "an index run is already in progress")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "indexing started in background",
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if kgerrors.IsNotFound(err) {
		status = http.StatusNotFound
	}
	writeError(w, status, err.Error())
}
