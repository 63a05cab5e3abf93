package graph

import (
	"strings"
)

// RenderTree renders a dependency tree with box-drawing connectors.
// Presentation only; node order and cycle semantics live in Traverser.
func RenderTree(node *Node) string {
	var b strings.Builder
	renderNode(&b, node, "", true, true)
	return b.String()
}

// RenderForest renders multiple trees separated by blank lines.
func RenderForest(forest []*Node) string {
	var b strings.Builder
	for i, tree := range forest {
		b.WriteString(RenderTree(tree))
		if i < len(forest)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderNode(b *strings.Builder, node *Node, prefix string, isLast, isRoot bool) {
	if node == nil {
		return
	}

	connector := ""
	if !isRoot {
		if isLast {
			connector = "└── "
		} else {
			connector = "├── "
		}
	}

	b.WriteString(prefix)
	b.WriteString(connector)
	b.WriteString(node.Symbol)
	if node.Cycle {
		b.WriteString(" (cycle detected)")
	}
	b.WriteByte('\n')

	childPrefix := prefix
	if !isRoot {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}

	for i, child := range node.Children {
		renderNode(b, child, childPrefix, i == len(node.Children)-1, false)
	}
}
