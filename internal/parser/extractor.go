package parser

import (
	"context"
	"strings"

	"github.com/Aman-CERP/codegraph/internal/model"
)

// Extractor parses source bytes into chunks and edges.
type Extractor struct{}

// NewExtractor creates an extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Parse decomposes a file into chunks and their outgoing edges. Chunks
// come back without a module id; the indexing pipeline stamps it. A file
// in an unknown language (or one where the grammar finds no chunkable
// nodes) yields a single whole-file block chunk.
func (e *Extractor) Parse(ctx context.Context, source []byte, language model.Language) ([]*model.Chunk, []model.Edge, error) {
	cfg, ok := languageConfigs[language]
	if !ok {
		return []*model.Chunk{wholeFileChunk(source, language)}, nil, nil
	}

	root, err := parseTree(ctx, source, language)
	if err != nil {
		return nil, nil, err
	}

	var (
		chunks []*model.Chunk
		edges  []model.Edge
	)

	root.Walk(func(n *Node) bool {
		kind, isChunk := cfg.chunkTypes[n.Type]
		if !isChunk {
			return true
		}

		chunk := e.buildChunk(n, source, language, kind, cfg)
		if chunk == nil {
			return true
		}
		chunks = append(chunks, chunk)
		edges = append(edges, e.extractEdges(n, source, chunk, cfg)...)

		// Nested definitions (methods in classes, impl fns) stay part of
		// the enclosing chunk.
		return false
	})

	if len(chunks) == 0 {
		chunks = append(chunks, wholeFileChunk(source, language))
	}

	return chunks, edges, nil
}

// buildChunk constructs a chunk from a definition node.
func (e *Extractor) buildChunk(n *Node, source []byte, language model.Language, kind model.ChunkKind, cfg *languageConfig) *model.Chunk {
	content := n.Content(source)
	if content == "" {
		return nil
	}

	name := e.extractName(n, source, cfg)
	if language == model.LangHcl {
		kind, name = classifyHCLBlock(n, source)
	}

	chunk := model.NewChunk(content, language, kind, name)
	chunk.ByteStart = int(n.StartByte)
	chunk.ByteEnd = int(n.EndByte)
	chunk.LineStart = int(n.StartPoint.Row) + 1
	chunk.LineEnd = int(n.EndPoint.Row) + 1
	chunk.Signature = extractSignature(content)
	chunk.Docstring = extractDocComment(n, source, cfg.docPrefix)
	return chunk
}

// extractName finds the symbol name among direct children, with one
// level of nesting for wrapper nodes like Go's type_spec.
func (e *Extractor) extractName(n *Node, source []byte, cfg *languageConfig) string {
	for _, nameType := range cfg.nameTypes {
		if child := n.FindChildByType(nameType); child != nil {
			return child.Content(source)
		}
	}
	for _, child := range n.Children {
		for _, nameType := range cfg.nameTypes {
			if grand := child.FindChildByType(nameType); grand != nil {
				return grand.Content(source)
			}
		}
	}
	return ""
}

// extractEdges collects call and import references inside a chunk node.
func (e *Extractor) extractEdges(n *Node, source []byte, chunk *model.Chunk, cfg *languageConfig) []model.Edge {
	var edges []model.Edge
	selfName := chunk.SymbolName

	n.Walk(func(inner *Node) bool {
		for _, callType := range cfg.callTypes {
			if inner.Type != callType {
				continue
			}
			target := calleeText(inner, source)
			if target == "" || target == selfName {
				break
			}
			edges = append(edges, model.Edge{
				SourceHash:  chunk.ContentHash,
				TargetQuery: target,
				Kind:        model.EdgeCalls,
				LineNumber:  int(inner.StartPoint.Row) + 1,
			})
			break
		}

		for _, importType := range cfg.importTypes {
			if inner.Type != importType {
				continue
			}
			target := importText(inner, source)
			if target == "" {
				break
			}
			edges = append(edges, model.Edge{
				SourceHash:  chunk.ContentHash,
				TargetQuery: target,
				Kind:        model.EdgeImports,
				LineNumber:  int(inner.StartPoint.Row) + 1,
			})
			break
		}

		return true
	})

	return edges
}

// calleeText extracts the callee identifier of a call node: the full
// dotted / scoped path, without the argument list.
func calleeText(n *Node, source []byte) string {
	if len(n.Children) == 0 {
		return ""
	}

	callee := n.Children[0]
	switch callee.Type {
	case "identifier", "scoped_identifier", "selector_expression",
		"field_expression", "attribute", "member_expression",
		"field_identifier", "scoped_type_identifier":
		return strings.TrimSpace(callee.Content(source))
	}

	// Java method_invocation puts the name deeper; fall back to the text
	// before the argument list.
	text := n.Content(source)
	if idx := strings.IndexByte(text, '('); idx > 0 {
		return strings.TrimSpace(text[:idx])
	}
	return ""
}

// importText extracts the imported path or symbol from an import node.
func importText(n *Node, source []byte) string {
	text := strings.TrimSpace(n.Content(source))
	for _, prefix := range []string{"use ", "import ", "from "} {
		text = strings.TrimPrefix(text, prefix)
	}
	text = strings.TrimSuffix(text, ";")
	text = strings.Trim(text, `"`)
	if idx := strings.IndexByte(text, '\n'); idx > 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// classifyHCLBlock maps a terraform block to its chunk kind and symbol.
// A block's first identifier is its type (resource, variable, ...);
// string labels form the symbol name.
func classifyHCLBlock(n *Node, source []byte) (model.ChunkKind, string) {
	kind := model.KindBlock
	var labels []string

	for _, child := range n.Children {
		switch child.Type {
		case "identifier":
			switch child.Content(source) {
			case "resource":
				kind = model.KindResource
			case "data":
				kind = model.KindDataSource
			case "variable":
				kind = model.KindVariable
			case "output":
				kind = model.KindOutput
			case "module":
				kind = model.KindModule
			}
		case "string_lit", "quoted_template":
			labels = append(labels, strings.Trim(child.Content(source), `"`))
		}
	}

	return kind, strings.Join(labels, ".")
}

// extractSignature returns the declaration's first line, trimmed at the
// opening brace.
func extractSignature(content string) string {
	firstLine, _, _ := strings.Cut(content, "\n")
	firstLine = strings.TrimSpace(firstLine)
	if idx := strings.IndexByte(firstLine, '{'); idx > 0 {
		firstLine = strings.TrimSpace(firstLine[:idx])
	}
	return firstLine
}

// extractDocComment collects the run of comment lines immediately above
// a definition.
func extractDocComment(n *Node, source []byte, docPrefix string) string {
	if n.StartPoint.Row == 0 {
		return ""
	}

	lines := strings.Split(string(source), "\n")
	row := int(n.StartPoint.Row) - 1

	var doc []string
	for row >= 0 {
		trimmed := strings.TrimSpace(lines[row])
		if !strings.HasPrefix(trimmed, docPrefix) {
			break
		}
		text := strings.TrimSpace(strings.TrimPrefix(trimmed, docPrefix))
		doc = append([]string{text}, doc...)
		row--
	}

	return strings.Join(doc, " ")
}
