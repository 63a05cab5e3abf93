package graph

import (
	"context"
	"sort"
	"strings"

	"github.com/Aman-CERP/codegraph/internal/model"
	"github.com/Aman-CERP/codegraph/internal/store"
)

// Level selects the rollup granularity.
type Level string

const (
	// LevelModule aggregates at detected-module granularity.
	LevelModule Level = "module"
	// LevelCrate collapses Directory modules into their nearest
	// non-Directory ancestor.
	LevelCrate Level = "crate"
)

// ParseLevel normalizes a level string; anything unrecognized falls back
// to LevelCrate, the presentation default.
func ParseLevel(s string) Level {
	if Level(strings.ToLower(s)) == LevelModule {
		return LevelModule
	}
	return LevelCrate
}

// EdgeDetail is one underlying chunk-level edge behind a module edge.
type EdgeDetail struct {
	SourceSymbol string         `json:"source_symbol"`
	TargetSymbol string         `json:"target_symbol"`
	LineNumber   int            `json:"line_number,omitempty"`
	Kind         model.EdgeKind `json:"kind"`
}

// Dependency is an aggregated cross-module edge.
type Dependency struct {
	TargetID   string       `json:"target_id"`
	TargetName string       `json:"target_name"`
	Count      int          `json:"count"`
	Edges      []EdgeDetail `json:"edges,omitempty"`
}

// ModuleEntry is one module (or crate) with its outgoing dependencies.
type ModuleEntry struct {
	Module       *model.Module `json:"module"`
	Dependencies []Dependency  `json:"dependencies"`
}

// RollupStore is the slice of the store the rollup engine reads.
type RollupStore interface {
	ListModules(ctx context.Context) ([]*model.Module, error)
	AllChunkRefs(ctx context.Context) ([]store.ChunkRef, error)
	AllEdgeRows(ctx context.Context) ([]store.EdgeRow, error)
}

// Rollup resolves chunk-level edges into a module-level directed
// multigraph.
type Rollup struct {
	store RollupStore
}

// NewRollup creates a rollup engine.
func NewRollup(s RollupStore) *Rollup {
	return &Rollup{store: s}
}

// rollupState is the loaded snapshot a rollup computes over.
type rollupState struct {
	modules   map[string]*model.Module
	bySymbol  map[string][]store.ChunkRef // exact symbol -> defining chunks
	edgeRows  []store.EdgeRow
	crateMemo map[string]string
}

func (r *Rollup) load(ctx context.Context) (*rollupState, error) {
	modules, err := r.store.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	refs, err := r.store.AllChunkRefs(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := r.store.AllEdgeRows(ctx)
	if err != nil {
		return nil, err
	}

	st := &rollupState{
		modules:   make(map[string]*model.Module, len(modules)),
		bySymbol:  make(map[string][]store.ChunkRef),
		edgeRows:  rows,
		crateMemo: make(map[string]string),
	}
	for _, m := range modules {
		st.modules[m.ID] = m
	}
	for _, ref := range refs {
		if ref.SymbolName != "" {
			st.bySymbol[ref.SymbolName] = append(st.bySymbol[ref.SymbolName], ref)
		}
	}
	return st, nil
}

// crateOf maps a module to its containing crate: the module itself when
// it is not a Directory, otherwise the nearest non-Directory ancestor.
// A Directory with no such ancestor is its own crate.
func (st *rollupState) crateOf(moduleID string) string {
	if crate, ok := st.crateMemo[moduleID]; ok {
		return crate
	}

	crate := moduleID
	m, ok := st.modules[moduleID]
	if ok && m.ProjectType == model.ProjectDirectory && m.ParentID != "" && m.ParentID != moduleID {
		crate = st.crateOf(m.ParentID)
	}

	st.crateMemo[moduleID] = crate
	return crate
}

// targetModules resolves an edge's target query to defining modules.
// Exact symbol matches come first; a "Sym::path" query also matches
// chunks named by any "::"-prefix of the query, and both kinds count.
func (st *rollupState) targetModules(targetQuery string) map[string][]store.ChunkRef {
	out := make(map[string][]store.ChunkRef)

	add := func(refs []store.ChunkRef) {
		for _, ref := range refs {
			if ref.ModuleID != "" {
				out[ref.ModuleID] = append(out[ref.ModuleID], ref)
			}
		}
	}

	add(st.bySymbol[targetQuery])

	// Prefix matches: chunks whose symbol is a "::"-prefix of the query.
	parts := strings.Split(targetQuery, "::")
	prefix := ""
	for i := 0; i < len(parts)-1; i++ {
		if i == 0 {
			prefix = parts[0]
		} else {
			prefix += "::" + parts[i]
		}
		add(st.bySymbol[prefix])
	}

	return out
}

// ModuleGraph computes the aggregated dependency graph at the requested
// level. filterIDs (when non-empty) restricts the returned source
// entries; includeEdges attaches the underlying chunk-level edges.
func (r *Rollup) ModuleGraph(ctx context.Context, level Level, filterIDs []string, includeEdges bool) ([]*ModuleEntry, error) {
	st, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	type pair struct{ src, tgt string }
	counts := make(map[pair]int)
	details := make(map[pair][]EdgeDetail)

	record := func(src, tgt string, row store.EdgeRow, targetSymbol string) {
		p := pair{src, tgt}
		counts[p]++
		if includeEdges {
			details[p] = append(details[p], EdgeDetail{
				SourceSymbol: row.SourceSymbol,
				TargetSymbol: targetSymbol,
				LineNumber:   row.LineNumber,
				Kind:         model.EdgeKindFromString(row.Kind),
			})
		}
	}

	for _, row := range st.edgeRows {
		if row.SourceModule == "" {
			continue
		}

		switch level {
		case LevelModule:
			// One count per edge per distinct target module, self-edges
			// excluded.
			seen := make(map[string]struct{})
			for moduleID, refs := range st.targetModules(row.TargetQuery) {
				if moduleID == row.SourceModule {
					continue
				}
				if _, dup := seen[moduleID]; dup {
					continue
				}
				seen[moduleID] = struct{}{}
				record(row.SourceModule, moduleID, row, refs[0].SymbolName)
			}

		case LevelCrate:
			srcCrate := st.crateOf(row.SourceModule)
			seen := make(map[string]struct{})

			if exact := st.bySymbol[row.TargetQuery]; len(exact) > 0 {
				// Rule (a): the query names an indexed symbol directly.
				for _, ref := range exact {
					if ref.ModuleID == "" {
						continue
					}
					crate := st.crateOf(ref.ModuleID)
					if crate == srcCrate {
						continue
					}
					if _, dup := seen[crate]; dup {
						continue
					}
					seen[crate] = struct{}{}
					record(srcCrate, crate, row, ref.SymbolName)
				}
				break
			}

			// Rule (b): match module names (and their dash-to-underscore
			// variants) only when no chunk owns the exact symbol. The
			// disjointness prevents double counting against rule (a).
			for _, m := range st.modules {
				if !moduleNameMatches(m.Name, row.TargetQuery) {
					continue
				}
				crate := st.crateOf(m.ID)
				if crate == srcCrate {
					continue
				}
				if _, dup := seen[crate]; dup {
					continue
				}
				seen[crate] = struct{}{}
				record(srcCrate, crate, row, row.TargetQuery)
			}
		}
	}

	// Assemble entries. At crate level only crate modules appear.
	entryIDs := make(map[string]struct{})
	for id := range st.modules {
		if level == LevelCrate {
			entryIDs[st.crateOf(id)] = struct{}{}
		} else {
			entryIDs[id] = struct{}{}
		}
	}

	filter := make(map[string]struct{}, len(filterIDs))
	for _, id := range filterIDs {
		filter[id] = struct{}{}
	}

	var entries []*ModuleEntry
	for id := range entryIDs {
		if len(filter) > 0 {
			if _, ok := filter[id]; !ok {
				continue
			}
		}
		m, ok := st.modules[id]
		if !ok {
			continue
		}

		entry := &ModuleEntry{Module: m}
		for p, count := range counts {
			if p.src != id {
				continue
			}
			dep := Dependency{TargetID: p.tgt, Count: count}
			if target, ok := st.modules[p.tgt]; ok {
				dep.TargetName = target.Name
			}
			if includeEdges {
				dep.Edges = details[p]
			}
			entry.Dependencies = append(entry.Dependencies, dep)
		}
		sort.Slice(entry.Dependencies, func(i, j int) bool {
			return entry.Dependencies[i].TargetID < entry.Dependencies[j].TargetID
		})
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Module.ID < entries[j].Module.ID
	})
	return entries, nil
}

// moduleNameMatches reports whether a target query names a module: equal
// to the module name, equal with "-" replaced by "_", or prefixed by
// either followed by "::".
func moduleNameMatches(moduleName, targetQuery string) bool {
	if moduleName == "" {
		return false
	}
	underscored := strings.ReplaceAll(moduleName, "-", "_")
	return targetQuery == moduleName ||
		targetQuery == underscored ||
		strings.HasPrefix(targetQuery, moduleName+"::") ||
		strings.HasPrefix(targetQuery, underscored+"::")
}
