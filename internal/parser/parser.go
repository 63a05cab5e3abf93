// Package parser turns source bytes into chunks and edges using
// tree-sitter grammars. It implements the engine's parser contract:
// parse(bytes, language) -> (chunks, edges). Files in unsupported
// languages fall back to a single whole-file block chunk.
package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	kgerrors "github.com/Aman-CERP/codegraph/internal/errors"
	"github.com/Aman-CERP/codegraph/internal/model"
)

// Node is a language-agnostic view of a tree-sitter node.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
}

// Point is a position in the source (0-indexed row).
type Point struct {
	Row    uint32
	Column uint32
}

// Content returns the source slice covered by the node.
func (n *Node) Content(source []byte) string {
	if n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// FindChildByType returns the first direct child with the given type.
func (n *Node) FindChildByType(nodeType string) *Node {
	for _, child := range n.Children {
		if child.Type == nodeType {
			return child
		}
	}
	return nil
}

// Walk traverses depth-first; fn returning false prunes the subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// parseTree parses source with the grammar registered for the language.
func parseTree(ctx context.Context, source []byte, language model.Language) (*Node, error) {
	tsLang := grammarFor(language)
	if tsLang == nil {
		return nil, kgerrors.Parsef("no grammar for language %s", language)
	}

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(tsLang)

	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, kgerrors.Parsef("parse failed: %v", err)
	}
	if tree == nil {
		return nil, kgerrors.Parsef("parse produced no tree")
	}

	return convertNode(tree.RootNode()), nil
}

// convertNode copies a tree-sitter node into our Node type so extraction
// logic carries no tree-sitter lifetimes.
func convertNode(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}

	node := &Node{
		Type:      tsNode.Type(),
		StartByte: tsNode.StartByte(),
		EndByte:   tsNode.EndByte(),
		StartPoint: Point{
			Row:    tsNode.StartPoint().Row,
			Column: tsNode.StartPoint().Column,
		},
		EndPoint: Point{
			Row:    tsNode.EndPoint().Row,
			Column: tsNode.EndPoint().Column,
		},
		Children: make([]*Node, 0, int(tsNode.ChildCount())),
	}

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		if child := tsNode.Child(i); child != nil {
			node.Children = append(node.Children, convertNode(child))
		}
	}

	return node
}

// wholeFileChunk wraps an entire file as one block chunk. Used for the
// Unknown language fallback and for files whose grammar finds nothing.
func wholeFileChunk(source []byte, language model.Language) *model.Chunk {
	c := model.NewChunk(string(source), language, model.KindBlock, "")
	c.ByteEnd = len(source)
	c.LineStart = 1
	if c.LineCount > 0 {
		c.LineEnd = c.LineCount
	} else {
		c.LineEnd = 1
	}
	return c
}
