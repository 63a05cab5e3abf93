package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/hcl"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/Aman-CERP/codegraph/internal/model"
)

// grammarFor maps a language to its tree-sitter grammar. Unknown has no
// grammar; callers fall back to whole-file chunking.
func grammarFor(language model.Language) *sitter.Language {
	switch language {
	case model.LangRust:
		return rust.GetLanguage()
	case model.LangGo:
		return golang.GetLanguage()
	case model.LangPython:
		return python.GetLanguage()
	case model.LangTypeScript:
		return typescript.GetLanguage()
	case model.LangJavaScript:
		return javascript.GetLanguage()
	case model.LangJava:
		return java.GetLanguage()
	case model.LangHcl:
		return hcl.GetLanguage()
	default:
		return nil
	}
}

// languageConfig drives generic chunk extraction: which node types form
// chunks, what kind they map to, and where the name identifier lives.
type languageConfig struct {
	// chunkTypes maps AST node types to chunk kinds.
	chunkTypes map[string]model.ChunkKind

	// nameTypes are the child node types that carry the symbol name, in
	// lookup order.
	nameTypes []string

	// callTypes are the node types representing call sites.
	callTypes []string

	// importTypes are the node types representing imports.
	importTypes []string

	// docPrefix marks a doc comment line ("///", "//", "#").
	docPrefix string
}

var languageConfigs = map[model.Language]*languageConfig{
	model.LangRust: {
		chunkTypes: map[string]model.ChunkKind{
			"function_item": model.KindFunction,
			"struct_item":   model.KindStruct,
			"trait_item":    model.KindTrait,
			"enum_item":     model.KindEnum,
			"mod_item":      model.KindModule,
			"impl_item":     model.KindImpl,
		},
		nameTypes:   []string{"identifier", "type_identifier"},
		callTypes:   []string{"call_expression", "macro_invocation"},
		importTypes: []string{"use_declaration"},
		docPrefix:   "///",
	},
	model.LangGo: {
		chunkTypes: map[string]model.ChunkKind{
			"function_declaration": model.KindFunction,
			"method_declaration":   model.KindFunction,
			"type_declaration":     model.KindStruct,
		},
		nameTypes:   []string{"identifier", "field_identifier", "type_identifier"},
		callTypes:   []string{"call_expression"},
		importTypes: []string{"import_spec"},
		docPrefix:   "//",
	},
	model.LangPython: {
		chunkTypes: map[string]model.ChunkKind{
			"function_definition": model.KindFunction,
			"class_definition":    model.KindClass,
		},
		nameTypes:   []string{"identifier"},
		callTypes:   []string{"call"},
		importTypes: []string{"import_statement", "import_from_statement"},
		docPrefix:   "#",
	},
	model.LangTypeScript: {
		chunkTypes: map[string]model.ChunkKind{
			"function_declaration":  model.KindFunction,
			"class_declaration":     model.KindClass,
			"interface_declaration": model.KindTrait,
			"enum_declaration":      model.KindEnum,
		},
		nameTypes:   []string{"identifier", "type_identifier"},
		callTypes:   []string{"call_expression"},
		importTypes: []string{"import_statement"},
		docPrefix:   "//",
	},
	model.LangJavaScript: {
		chunkTypes: map[string]model.ChunkKind{
			"function_declaration": model.KindFunction,
			"class_declaration":    model.KindClass,
		},
		nameTypes:   []string{"identifier"},
		callTypes:   []string{"call_expression"},
		importTypes: []string{"import_statement"},
		docPrefix:   "//",
	},
	model.LangJava: {
		chunkTypes: map[string]model.ChunkKind{
			"method_declaration":    model.KindFunction,
			"class_declaration":     model.KindClass,
			"interface_declaration": model.KindTrait,
			"enum_declaration":      model.KindEnum,
		},
		nameTypes:   []string{"identifier"},
		callTypes:   []string{"method_invocation", "object_creation_expression"},
		importTypes: []string{"import_declaration"},
		docPrefix:   "//",
	},
	model.LangHcl: {
		// HCL blocks are classified by their block-type identifier in
		// the extractor (resource, data, variable, output, module).
		chunkTypes: map[string]model.ChunkKind{
			"block": model.KindBlock,
		},
		nameTypes: []string{"identifier"},
		docPrefix: "#",
	},
}
