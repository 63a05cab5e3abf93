// Package export renders module dependency graphs as DOT, Mermaid,
// JSON, or a self-contained HTML page.
package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Aman-CERP/codegraph/internal/graph"
)

// Format names a supported output format.
type Format string

const (
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mermaid"
	FormatJSON    Format = "json"
	FormatHTML    Format = "html"
)

// Render serializes module entries in the requested format.
func Render(format Format, entries []*graph.ModuleEntry) (string, error) {
	switch format {
	case FormatDOT:
		return ToDOT(entries), nil
	case FormatMermaid:
		return ToMermaid(entries), nil
	case FormatJSON:
		return ToJSON(entries)
	case FormatHTML:
		return ToHTML(entries), nil
	default:
		return "", fmt.Errorf("unknown export format: %q", format)
	}
}

// ToDOT renders a Graphviz digraph. With edge details present, modules
// become clusters containing their symbols.
func ToDOT(entries []*graph.ModuleEntry) string {
	var b strings.Builder
	b.WriteString("digraph ModuleGraph {\n")
	b.WriteString("  node [shape=box, fontname=\"Arial\"];\n")
	b.WriteString("  rankdir=LR;\n\n")

	if !hasEdgeDetails(entries) {
		for _, entry := range entries {
			label := fmt.Sprintf("%s (%s)", entry.Module.Name, entry.Module.ProjectType)
			fmt.Fprintf(&b, "  %q [label=%q];\n", entry.Module.ID, label)
			for _, dep := range entry.Dependencies {
				fmt.Fprintf(&b, "  %q -> %q [label=\"%d edges\"];\n",
					entry.Module.ID, dep.TargetID, dep.Count)
			}
		}
		b.WriteString("}\n")
		return b.String()
	}

	// Detailed view: one cluster per module, symbol-level edges.
	for _, entry := range entries {
		fmt.Fprintf(&b, "  subgraph \"cluster_%s\" {\n", sanitizeID(entry.Module.ID))
		fmt.Fprintf(&b, "    label=\"%s (%s)\";\n", entry.Module.Name, entry.Module.ProjectType)
		b.WriteString("    style=filled; color=lightgrey;\n")

		symbols := make(map[string]struct{})
		for _, dep := range entry.Dependencies {
			for _, edge := range dep.Edges {
				symbols[edge.SourceSymbol] = struct{}{}
			}
		}
		for _, sym := range sortedKeys(symbols) {
			symID := sanitizeID(entry.Module.ID) + "_" + sanitizeID(sym)
			fmt.Fprintf(&b, "    %q [label=%q, style=filled, color=white];\n", symID, sym)
		}
		b.WriteString("  }\n")
	}

	for _, entry := range entries {
		for _, dep := range entry.Dependencies {
			for _, edge := range dep.Edges {
				srcID := sanitizeID(entry.Module.ID) + "_" + sanitizeID(edge.SourceSymbol)
				tgtID := sanitizeID(dep.TargetID) + "_" + sanitizeID(edge.TargetSymbol)
				label := ""
				if edge.LineNumber > 0 {
					label = fmt.Sprintf("L%d", edge.LineNumber)
				}
				fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", srcID, tgtID, label)
			}
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// ToMermaid renders a flowchart with nested subgraphs following the
// module parent relation.
func ToMermaid(entries []*graph.ModuleEntry) string {
	var b strings.Builder
	b.WriteString("flowchart LR\n")

	byID := make(map[string]*graph.ModuleEntry, len(entries))
	children := make(map[string][]string)
	for _, entry := range entries {
		byID[entry.Module.ID] = entry
	}
	for _, entry := range entries {
		pid := entry.Module.ParentID
		if pid != "" {
			if _, inSet := byID[pid]; inSet {
				children[pid] = append(children[pid], entry.Module.ID)
			}
		}
	}

	// Roots: no parent, or parent outside the display set.
	var rootIDs []string
	for _, entry := range entries {
		pid := entry.Module.ParentID
		if pid == "" {
			rootIDs = append(rootIDs, entry.Module.ID)
			continue
		}
		if _, inSet := byID[pid]; !inSet {
			rootIDs = append(rootIDs, entry.Module.ID)
		}
	}
	sort.Strings(rootIDs)

	var renderSubgraph func(id, indent string)
	renderSubgraph = func(id, indent string) {
		entry, ok := byID[id]
		if !ok {
			return
		}
		safeID := sanitizeID(id)
		fmt.Fprintf(&b, "%ssubgraph sg_%s\n", indent, safeID)
		fmt.Fprintf(&b, "%s    direction LR\n", indent)
		fmt.Fprintf(&b, "%s    node_%s[\"%s (%s)\"]\n",
			indent, safeID, entry.Module.Name, entry.Module.ProjectType)

		kids := children[id]
		sort.Strings(kids)
		for _, child := range kids {
			renderSubgraph(child, indent+"    ")
		}
		fmt.Fprintf(&b, "%send\n", indent)
	}

	for _, id := range rootIDs {
		renderSubgraph(id, "    ")
	}

	// Structural aggregation edges.
	for _, pid := range sortedKeys(toSet(children)) {
		for _, cid := range children[pid] {
			fmt.Fprintf(&b, "    node_%s -.->|aggregates| node_%s\n",
				sanitizeID(pid), sanitizeID(cid))
		}
	}

	// Dependency edges.
	for _, entry := range entries {
		for _, dep := range entry.Dependencies {
			fmt.Fprintf(&b, "    node_%s -->|%d edges| node_%s\n",
				sanitizeID(entry.Module.ID), dep.Count, sanitizeID(dep.TargetID))
		}
	}

	return b.String()
}

// ToJSON renders a pretty-printed JSON document.
func ToJSON(entries []*graph.ModuleEntry) (string, error) {
	out, err := json.MarshalIndent(map[string]any{"modules": entries}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ToHTML wraps the Mermaid rendering in a standalone page.
func ToHTML(entries []*graph.ModuleEntry) string {
	return fmt.Sprintf(htmlTemplate, ToMermaid(entries))
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Codegraph Module Graph</title>
    <script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
            margin: 0;
            padding: 20px;
            background-color: #f8f9fa;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }
        h1 { color: #333; border-bottom: 2px solid #eee; padding-bottom: 10px; }
        .controls { margin-bottom: 20px; color: #666; font-size: 0.9em; }
        #graph { display: flex; justify-content: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Codegraph Module Graph</h1>
        <div class="controls">
            Interactive dependency visualization. Zoom and pan using your browser.
        </div>
        <div id="graph">
            <pre class="mermaid">
%s
            </pre>
        </div>
    </div>
    <script>
        mermaid.initialize({
            startOnLoad: true,
            theme: 'default',
            maxTextSize: 1000000,
            securityLevel: 'loose',
            flowchart: { useMaxWidth: true, htmlLabels: true, curve: 'basis' }
        });
    </script>
</body>
</html>`

func hasEdgeDetails(entries []*graph.ModuleEntry) bool {
	for _, entry := range entries {
		for _, dep := range entry.Dependencies {
			if len(dep.Edges) > 0 {
				return true
			}
		}
	}
	return false
}

// sanitizeID rewrites a module or symbol id into an identifier safe for
// DOT and Mermaid node names.
func sanitizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "root"
	}
	return b.String()
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toSet(m map[string][]string) map[string]struct{} {
	set := make(map[string]struct{}, len(m))
	for k := range m {
		set[k] = struct{}{}
	}
	return set
}
