// Package graph implements the read-side graph engines: dependency-tree
// traversal over symbol edges, and the module-level rollup with cycle
// detection. Both are pure functions over the store; cycles exist only
// in the data and are materialized at read time via visited sets.
package graph

import (
	"context"
)

// DefaultCommonSymbols is the default allowlist of ubiquitous symbols.
// They still stop recursion when revisited, but are not reported as
// cycles. The list is a configuration input; these defaults are not
// normative.
var DefaultCommonSymbols = []string{
	"Ok", "Err", "Some", "None",
	"new", "default", "Default::default",
	"String::from", "Box::new", "Vec::new",
	"println", "format",
}

// Node is one entry in the pre-order dependency tree.
type Node struct {
	Symbol   string  `json:"symbol"`
	Depth    int     `json:"depth"`
	Cycle    bool    `json:"cycle,omitempty"`  // revisited; recursion stopped and reported
	Common   bool    `json:"common,omitempty"` // allowlisted revisit; stopped silently
	Children []*Node `json:"children,omitempty"`
}

// TraversalStore is the slice of the store the traverser reads.
type TraversalStore interface {
	FindSymbolDeps(ctx context.Context, symbol string) ([]string, error)
	GetRoots(ctx context.Context) ([]string, error)
}

// Traverser walks outgoing symbol dependencies with cycle detection and
// a depth cap.
type Traverser struct {
	store  TraversalStore
	common map[string]struct{}
}

// NewTraverser creates a traverser. A nil allowlist selects the
// defaults.
func NewTraverser(store TraversalStore, commonSymbols []string) *Traverser {
	if commonSymbols == nil {
		commonSymbols = DefaultCommonSymbols
	}
	common := make(map[string]struct{}, len(commonSymbols))
	for _, s := range commonSymbols {
		common[s] = struct{}{}
	}
	return &Traverser{store: store, common: common}
}

// Tree builds the pre-order dependency tree rooted at symbol, bounded by
// maxDepth. Depth 0 yields the symbol alone.
func (t *Traverser) Tree(ctx context.Context, symbol string, maxDepth int) (*Node, error) {
	visited := make(map[string]struct{})
	return t.walk(ctx, symbol, 0, maxDepth, visited)
}

// Forest builds trees from every root symbol (defined but never
// referenced). Roots with no outgoing edges are skipped. The visited set
// spans the whole forest, so shared subtrees expand only once.
func (t *Traverser) Forest(ctx context.Context, maxDepth int) ([]*Node, error) {
	roots, err := t.store.GetRoots(ctx)
	if err != nil {
		return nil, err
	}

	visited := make(map[string]struct{})
	var forest []*Node
	for _, root := range roots {
		deps, err := t.store.FindSymbolDeps(ctx, root)
		if err != nil {
			return nil, err
		}
		if len(deps) == 0 {
			continue
		}

		node, err := t.walk(ctx, root, 0, maxDepth, visited)
		if err != nil {
			return nil, err
		}
		if node != nil {
			forest = append(forest, node)
		}
	}
	return forest, nil
}

func (t *Traverser) walk(ctx context.Context, symbol string, depth, maxDepth int, visited map[string]struct{}) (*Node, error) {
	if depth > maxDepth {
		return nil, nil
	}

	node := &Node{Symbol: symbol, Depth: depth}

	if _, seen := visited[symbol]; seen {
		if _, common := t.common[symbol]; common {
			node.Common = true
		} else {
			node.Cycle = true
		}
		return node, nil
	}
	visited[symbol] = struct{}{}

	deps, err := t.store.FindSymbolDeps(ctx, symbol)
	if err != nil {
		return nil, err
	}

	for _, dep := range deps {
		child, err := t.walk(ctx, dep, depth+1, maxDepth, visited)
		if err != nil {
			return nil, err
		}
		if child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node, nil
}

// Flatten returns the pre-order symbol sequence of a tree.
func Flatten(node *Node) []string {
	if node == nil {
		return nil
	}
	out := []string{node.Symbol}
	for _, child := range node.Children {
		out = append(out, Flatten(child)...)
	}
	return out
}
