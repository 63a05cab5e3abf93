// Package mcp exposes the engine to LLM agents over the Model Context
// Protocol. Each service operation becomes one tool on a stdio server.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/codegraph/internal/export"
	"github.com/Aman-CERP/codegraph/internal/model"
	"github.com/Aman-CERP/codegraph/internal/service"
	"github.com/Aman-CERP/codegraph/pkg/version"
)

// Server is the MCP binding over the service surface.
type Server struct {
	mcp    *mcp.Server
	svc    service.Service
	logger *slog.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(svc service.Service) *Server {
	s := &Server{
		svc:    svc,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "Codegraph",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves on stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server starting", slog.String("transport", "stdio"))
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "code_search",
		Description: "Search indexed code with hybrid semantic + keyword retrieval. Supports inline filters like lang:rust, author:name, file:path, limit:N.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_dependency_tree",
		Description: "Walk the outgoing dependency tree of a symbol, with cycle markers. Omit the symbol to get the forest of root symbols.",
	}, s.handleTree)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_file_context",
		Description: "Return every indexed chunk defining a symbol, including content, signature, and docstring.",
	}, s.handleContext)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_related_symbols",
		Description: "Find related symbols: direct graph neighbors plus the vector-nearest chunks.",
	}, s.handleRelated)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_module_graph",
		Description: "Return the module-level dependency graph at crate or module granularity, optionally with the underlying symbol edges, rendered as JSON, DOT, or Mermaid.",
	}, s.handleModuleGraph)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_module_cycles",
		Description: "Detect circular dependencies between modules. Each cycle lists module ids and closes by repeating the entry.",
	}, s.handleCycles)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_project",
		Description: "Start a background index run over a directory. Check index_stats for completion.",
	}, s.handleIndex)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_stats",
		Description: "Report index contents (chunks, embeddings, edges, modules) and whether an index run is in flight.",
	}, s.handleStats)

	s.logger.Debug("MCP tools registered", slog.Int("count", 8))
}

// SearchInput is the code_search tool input.
type SearchInput struct {
	Query     string  `json:"query" jsonschema:"the search query, with optional key:value filters"`
	Limit     int     `json:"limit,omitempty" jsonschema:"maximum number of results"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"minimum fused score, 0 keeps everything"`
}

// SearchOutput is the code_search tool output.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
}

// SearchResultOutput is one search hit.
type SearchResultOutput struct {
	ContentHash string  `json:"content_hash"`
	Score       float64 `json:"score"`
	Symbol      string  `json:"symbol,omitempty"`
	Kind        string  `json:"kind,omitempty"`
	Language    string  `json:"language,omitempty"`
	Signature   string  `json:"signature,omitempty"`
	Content     string  `json:"content,omitempty"`
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, invalidParams("query parameter is required")
	}

	results, err := s.svc.Search(ctx, input.Query, service.SearchOptions{
		Limit:     input.Limit,
		Threshold: input.Threshold,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{Results: make([]SearchResultOutput, 0, len(results))}
	for _, r := range results {
		item := SearchResultOutput{ContentHash: r.ContentHash, Score: r.Score}
		if r.Chunk != nil {
			item.Symbol = r.Chunk.SymbolName
			item.Kind = string(r.Chunk.Kind)
			item.Language = string(r.Chunk.Language)
			item.Signature = r.Chunk.Signature
			item.Content = r.Chunk.Content
		}
		out.Results = append(out.Results, item)
	}
	return nil, out, nil
}

// TreeInput is the get_dependency_tree tool input.
type TreeInput struct {
	Symbol string `json:"symbol,omitempty" jsonschema:"starting symbol; empty walks every root"`
	Depth  int    `json:"depth,omitempty" jsonschema:"maximum traversal depth, default 3"`
}

// TreeOutput is the get_dependency_tree tool output.
type TreeOutput struct {
	Tree string `json:"tree"`
}

func (s *Server) handleTree(ctx context.Context, req *mcp.CallToolRequest, input TreeInput) (*mcp.CallToolResult, TreeOutput, error) {
	depth := input.Depth
	if depth <= 0 {
		depth = 3
	}

	result, err := s.svc.Tree(ctx, input.Symbol, depth)
	if err != nil {
		return nil, TreeOutput{}, err
	}
	return nil, TreeOutput{Tree: result.Rendered}, nil
}

// ContextInput is the get_file_context tool input.
type ContextInput struct {
	Symbol string `json:"symbol" jsonschema:"the symbol to fetch chunks for"`
}

// ContextOutput is the get_file_context tool output.
type ContextOutput struct {
	Chunks []ChunkOutput `json:"chunks"`
}

// ChunkOutput is one chunk in tool output form.
type ChunkOutput struct {
	ContentHash string `json:"content_hash"`
	Symbol      string `json:"symbol,omitempty"`
	Kind        string `json:"kind"`
	Language    string `json:"language"`
	Signature   string `json:"signature,omitempty"`
	Docstring   string `json:"docstring,omitempty"`
	Content     string `json:"content"`
}

func (s *Server) handleContext(ctx context.Context, req *mcp.CallToolRequest, input ContextInput) (*mcp.CallToolResult, ContextOutput, error) {
	if input.Symbol == "" {
		return nil, ContextOutput{}, invalidParams("symbol parameter is required")
	}

	chunks, err := s.svc.Context(ctx, input.Symbol)
	if err != nil {
		return nil, ContextOutput{}, err
	}

	out := ContextOutput{Chunks: make([]ChunkOutput, 0, len(chunks))}
	for _, c := range chunks {
		out.Chunks = append(out.Chunks, toChunkOutput(c))
	}
	return nil, out, nil
}

// RelatedInput is the get_related_symbols tool input.
type RelatedInput struct {
	Symbol string `json:"symbol" jsonschema:"the symbol to find relatives of"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum semantic relatives, default 5"`
}

func (s *Server) handleRelated(ctx context.Context, req *mcp.CallToolRequest, input RelatedInput) (*mcp.CallToolResult, *service.RelatedResult, error) {
	if input.Symbol == "" {
		return nil, nil, invalidParams("symbol parameter is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}
	related, err := s.svc.Related(ctx, input.Symbol, limit)
	if err != nil {
		return nil, nil, err
	}
	return nil, related, nil
}

// ModuleGraphInput is the get_module_graph tool input.
type ModuleGraphInput struct {
	Level     string   `json:"level,omitempty" jsonschema:"abstraction level: crate or module"`
	Filters   []string `json:"filters,omitempty" jsonschema:"restrict to these module ids"`
	ShowEdges bool     `json:"show_edges,omitempty" jsonschema:"attach symbol-level edges"`
	Format    string   `json:"format,omitempty" jsonschema:"output format: json, dot, or mermaid"`
}

// ModuleGraphOutput is the get_module_graph tool output.
type ModuleGraphOutput struct {
	Graph string `json:"graph"`
}

func (s *Server) handleModuleGraph(ctx context.Context, req *mcp.CallToolRequest, input ModuleGraphInput) (*mcp.CallToolResult, ModuleGraphOutput, error) {
	entries, err := s.svc.ModuleGraph(ctx, input.Level, input.Filters, input.ShowEdges)
	if err != nil {
		return nil, ModuleGraphOutput{}, err
	}

	format := export.Format(input.Format)
	if input.Format == "" {
		format = export.FormatJSON
	}
	rendered, err := export.Render(format, entries)
	if err != nil {
		return nil, ModuleGraphOutput{}, invalidParams(err.Error())
	}
	return nil, ModuleGraphOutput{Graph: rendered}, nil
}

// CyclesOutput is the find_module_cycles tool output.
type CyclesOutput struct {
	Cycles [][]string `json:"cycles"`
}

func (s *Server) handleCycles(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, CyclesOutput, error) {
	cycles, err := s.svc.FindModuleCycles(ctx)
	if err != nil {
		return nil, CyclesOutput{}, err
	}
	if cycles == nil {
		cycles = [][]string{}
	}
	return nil, CyclesOutput{Cycles: cycles}, nil
}

// IndexInput is the index_project tool input.
type IndexInput struct {
	Path string `json:"path" jsonschema:"directory to index"`
	Git  bool   `json:"git,omitempty" jsonschema:"enable git blame attribution"`
}

// IndexOutput is the index_project tool output.
type IndexOutput struct {
	Message string `json:"message"`
}

func (s *Server) handleIndex(ctx context.Context, req *mcp.CallToolRequest, input IndexInput) (*mcp.CallToolResult, IndexOutput, error) {
	if input.Path == "" {
		return nil, IndexOutput{}, invalidParams("path parameter is required")
	}
	if _, err := os.Stat(input.Path); err != nil {
		return nil, IndexOutput{}, invalidParams("path does not exist: " + input.Path)
	}

	if !s.svc.Index(ctx, input.Path, input.Git) {
		return nil, IndexOutput{Message: "an index run is already in progress"}, nil
	}
	return nil, IndexOutput{Message: "indexing started in background"}, nil
}

func (s *Server) handleStats(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, *service.StatsResult, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return nil, nil, err
	}
	return nil, stats, nil
}

func toChunkOutput(c *model.Chunk) ChunkOutput {
	return ChunkOutput{
		ContentHash: c.ContentHash.Hex(),
		Symbol:      c.SymbolName,
		Kind:        string(c.Kind),
		Language:    string(c.Language),
		Signature:   c.Signature,
		Docstring:   c.Docstring,
		Content:     c.Content,
	}
}
