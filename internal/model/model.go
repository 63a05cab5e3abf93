// Package model defines the domain records shared across the engine:
// chunks, edges, locations, modules, and embeddings. The persistent store
// owns all of them; every other package borrows them via read-only fetches.
package model

import (
	"strings"
	"time"

	"github.com/Aman-CERP/codegraph/internal/hash"
)

// Language is the programming language of a chunk.
type Language string

const (
	LangRust       Language = "rust"
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangGo         Language = "go"
	LangJava       Language = "java"
	LangHcl        Language = "hcl"
	LangUnknown    Language = "unknown"
)

// LanguageFromExtension detects the language from a file extension
// (without the leading dot).
func LanguageFromExtension(ext string) Language {
	switch strings.ToLower(ext) {
	case "rs":
		return LangRust
	case "py", "pyi":
		return LangPython
	case "ts", "tsx":
		return LangTypeScript
	case "js", "jsx", "mjs":
		return LangJavaScript
	case "go":
		return LangGo
	case "java":
		return LangJava
	case "tf", "tfvars", "hcl":
		return LangHcl
	default:
		return LangUnknown
	}
}

// LanguageFromString parses a language name case-insensitively. Anything
// that is not a known variant maps to LangUnknown.
func LanguageFromString(s string) Language {
	switch strings.ToLower(s) {
	case "rust":
		return LangRust
	case "python":
		return LangPython
	case "typescript":
		return LangTypeScript
	case "javascript":
		return LangJavaScript
	case "go":
		return LangGo
	case "java":
		return LangJava
	case "hcl":
		return LangHcl
	default:
		return LangUnknown
	}
}

// ChunkKind is the syntactic kind of a chunk.
type ChunkKind string

const (
	KindFunction   ChunkKind = "function"
	KindClass      ChunkKind = "class"
	KindStruct     ChunkKind = "struct"
	KindTrait      ChunkKind = "trait"
	KindEnum       ChunkKind = "enum"
	KindModule     ChunkKind = "module"
	KindImpl       ChunkKind = "impl"
	KindBlock      ChunkKind = "block"
	KindResource   ChunkKind = "resource"
	KindDataSource ChunkKind = "data_source"
	KindVariable   ChunkKind = "variable"
	KindOutput     ChunkKind = "output"
)

// ChunkKindFromString parses a stored kind value; unrecognized values
// fall back to KindBlock.
func ChunkKindFromString(s string) ChunkKind {
	switch ChunkKind(s) {
	case KindFunction, KindClass, KindStruct, KindTrait, KindEnum,
		KindModule, KindImpl, KindBlock, KindResource, KindDataSource,
		KindVariable, KindOutput:
		return ChunkKind(s)
	default:
		return KindBlock
	}
}

// Chunk is the atomic unit of indexed code. Once written it is immutable;
// put-or-replace is idempotent because the key is the content itself.
type Chunk struct {
	ContentHash hash.ContentHash `json:"content_hash"`
	Content     string           `json:"content"`
	Language    Language         `json:"language"`
	Kind        ChunkKind        `json:"kind"`
	SymbolName  string           `json:"symbol_name,omitempty"` // empty when the chunk has no symbol
	Signature   string           `json:"signature,omitempty"`
	Docstring   string           `json:"docstring,omitempty"`
	ByteSize    int              `json:"byte_size"`
	ByteStart   int              `json:"byte_start,omitempty"` // offset within the source file; locations persist it
	ByteEnd     int              `json:"byte_end,omitempty"`   // exclusive
	LineStart   int              `json:"line_start"` // 1-indexed
	LineEnd     int              `json:"line_end"`   // inclusive
	LineCount   int              `json:"line_count"`
	ModuleID    string           `json:"module_id,omitempty"` // empty until the pipeline stamps it
}

// NewChunk builds a chunk from content, computing the hash, byte size,
// and line count.
func NewChunk(content string, language Language, kind ChunkKind, symbolName string) *Chunk {
	return &Chunk{
		ContentHash: hash.FromContent([]byte(content)),
		Content:     content,
		Language:    language,
		Kind:        kind,
		SymbolName:  symbolName,
		ByteSize:    len(content),
		LineCount:   countLines(content),
	}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// EmbeddingText is the text handed to the embedder for this chunk:
// "{symbol_name} {docstring}\n{content}".
func (c *Chunk) EmbeddingText() string {
	return c.SymbolName + " " + c.Docstring + "\n" + c.Content
}

// EdgeKind classifies a reference between a chunk and a symbol.
type EdgeKind string

const (
	EdgeCalls      EdgeKind = "calls"
	EdgeImports    EdgeKind = "imports"
	EdgeReferences EdgeKind = "references"
)

// EdgeKindFromString parses a stored edge kind; unrecognized values fall
// back to EdgeReferences.
func EdgeKindFromString(s string) EdgeKind {
	switch EdgeKind(s) {
	case EdgeCalls, EdgeImports, EdgeReferences:
		return EdgeKind(s)
	default:
		return EdgeReferences
	}
}

// Edge is a directed reference from a chunk to a textual symbol
// identifier. The target may or may not resolve to an indexed symbol;
// dangling targets are normal. Duplicate triples are distinct call sites.
type Edge struct {
	SourceHash  hash.ContentHash `json:"source_hash"`
	TargetQuery string           `json:"target_query"`
	Kind        EdgeKind         `json:"kind"`
	LineNumber  int              `json:"line_number,omitempty"` // 0 when unknown
}

// ChunkLocation records where a chunk has been seen. The same content
// hash can appear at multiple sites and commits.
type ChunkLocation struct {
	ContentHash hash.ContentHash `json:"content_hash"`
	FilePath    string           `json:"file_path"` // repo-relative
	ByteStart   int              `json:"byte_start"`
	ByteEnd     int              `json:"byte_end"`
	LineStart   int              `json:"line_start"`
	LineEnd     int              `json:"line_end"`
	CommitHash  string           `json:"commit_hash,omitempty"` // empty outside git-aware mode
	Author      string           `json:"author,omitempty"`      // empty when unattributed
	Timestamp   *time.Time       `json:"timestamp,omitempty"`   // nil when unattributed
}

// ProjectType classifies a detected module.
type ProjectType string

const (
	ProjectWorkspace       ProjectType = "workspace"
	ProjectCrate           ProjectType = "crate"
	ProjectPackage         ProjectType = "package"
	ProjectNpmPackage      ProjectType = "npm_package"
	ProjectGoModule        ProjectType = "go_module"
	ProjectJavaProject     ProjectType = "java_project"
	ProjectTerraformModule ProjectType = "terraform_module"
	ProjectDirectory       ProjectType = "directory"
)

// ProjectTypeFromString parses a stored project type; unrecognized values
// fall back to ProjectDirectory.
func ProjectTypeFromString(s string) ProjectType {
	switch ProjectType(s) {
	case ProjectWorkspace, ProjectCrate, ProjectPackage, ProjectNpmPackage,
		ProjectGoModule, ProjectJavaProject, ProjectTerraformModule, ProjectDirectory:
		return ProjectType(s)
	default:
		return ProjectDirectory
	}
}

// Module is a project root or subgroup detected from marker files.
// Modules form a forest via ParentID.
type Module struct {
	ID          string      `json:"id"` // stable, derived from path
	Name        string      `json:"name"`
	Path        string      `json:"path"` // relative to the indexed root
	Language    Language    `json:"language"`
	ProjectType ProjectType `json:"project_type"`
	ParentID    string      `json:"parent_id,omitempty"` // empty for forest roots
}

// ModuleIDForPath derives the stable module ID for a relative path:
// path components joined by "::", or "root" for the root itself.
func ModuleIDForPath(relPath string) string {
	if relPath == "" || relPath == "." {
		return "root"
	}
	id := strings.ReplaceAll(relPath, "\\", "::")
	return strings.ReplaceAll(id, "/", "::")
}

// Embedding is a dense vector paired with a chunk. One embedding is
// stored per content hash; re-embedding with a new model overwrites.
type Embedding struct {
	Vector     []float32 `json:"vector"`
	ModelID    string    `json:"model_id"`
	Dimensions int       `json:"dimensions"`
}

// NewEmbedding builds an embedding, deriving dimensions from the vector.
func NewEmbedding(vec []float32, modelID string) *Embedding {
	return &Embedding{
		Vector:     vec,
		ModelID:    modelID,
		Dimensions: len(vec),
	}
}
