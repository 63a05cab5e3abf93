package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codegraph/internal/model"
	"github.com/Aman-CERP/codegraph/internal/store"
)

func putModule(t *testing.T, s *store.Store, id, name string, ptype model.ProjectType, parent string) {
	t.Helper()
	require.NoError(t, s.PutModule(context.Background(), &model.Module{
		ID: id, Name: name, Path: id, Language: model.LangRust, ProjectType: ptype, ParentID: parent,
	}))
}

func putChunkIn(t *testing.T, s *store.Store, moduleID, symbol, content string) *model.Chunk {
	t.Helper()
	c := model.NewChunk(content, model.LangRust, model.KindFunction, symbol)
	c.ModuleID = moduleID
	c.LineStart, c.LineEnd = 1, 1
	require.NoError(t, s.PutChunk(context.Background(), c))
	return c
}

func addEdge(t *testing.T, s *store.Store, src *model.Chunk, target string, line int) {
	t.Helper()
	require.NoError(t, s.AddEdges(context.Background(), []model.Edge{
		{SourceHash: src.ContentHash, TargetQuery: target, Kind: model.EdgeCalls, LineNumber: line},
	}))
}

func TestModuleGraph_CrateLevelDirect(t *testing.T) {
	// c2 in m2 calls "foo" defined in m1: m2 depends on m1 with count 1.
	s := newGraphStore(t)
	ctx := context.Background()

	putModule(t, s, "m1", "m1", model.ProjectCrate, "")
	putModule(t, s, "m2", "m2", model.ProjectCrate, "")
	putChunkIn(t, s, "m1", "foo", "fn foo() {}")
	c2 := putChunkIn(t, s, "m2", "bar", "fn bar() { foo(); }")
	addEdge(t, s, c2, "foo", 1)

	entries, err := NewRollup(s).ModuleGraph(ctx, LevelCrate, []string{"m2"}, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	deps := entries[0].Dependencies
	require.Len(t, deps, 1)
	assert.Equal(t, "m1", deps[0].TargetID)
	assert.Equal(t, 1, deps[0].Count)
}

func TestModuleGraph_SelfEdgesExcluded(t *testing.T) {
	s := newGraphStore(t)
	ctx := context.Background()

	putModule(t, s, "m1", "m1", model.ProjectCrate, "")
	putChunkIn(t, s, "m1", "foo", "fn foo() {}")
	c := putChunkIn(t, s, "m1", "bar", "fn bar() { foo(); }")
	addEdge(t, s, c, "foo", 1)

	entries, err := NewRollup(s).ModuleGraph(ctx, LevelModule, nil, false)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Empty(t, e.Dependencies, "intra-module calls produce no edges")
	}
}

func TestModuleGraph_DirectoryCollapsesToCrate(t *testing.T) {
	// A chunk in a Directory submodule rolls up to the owning crate.
	s := newGraphStore(t)
	ctx := context.Background()

	putModule(t, s, "app", "app", model.ProjectCrate, "")
	putModule(t, s, "app::sub", "sub", model.ProjectDirectory, "app")
	putModule(t, s, "lib", "lib", model.ProjectCrate, "")

	putChunkIn(t, s, "lib", "util", "fn util() {}")
	c := putChunkIn(t, s, "app::sub", "caller", "fn caller() { util(); }")
	addEdge(t, s, c, "util", 3)

	entries, err := NewRollup(s).ModuleGraph(ctx, LevelCrate, []string{"app"}, true)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "app", entries[0].Module.ID)

	deps := entries[0].Dependencies
	require.Len(t, deps, 1)
	assert.Equal(t, "lib", deps[0].TargetID)
	require.Len(t, deps[0].Edges, 1)
	assert.Equal(t, "caller", deps[0].Edges[0].SourceSymbol)
	assert.Equal(t, "util", deps[0].Edges[0].TargetSymbol)
	assert.Equal(t, 3, deps[0].Edges[0].LineNumber)
}

func TestModuleGraph_PrefixRuleMatchesModuleName(t *testing.T) {
	// "other_crate::thing" resolves via the module-name prefix rule when
	// no chunk owns that exact symbol. Dash/underscore variants match.
	s := newGraphStore(t)
	ctx := context.Background()

	putModule(t, s, "m1", "other-crate", model.ProjectCrate, "")
	putModule(t, s, "m2", "caller", model.ProjectCrate, "")
	c := putChunkIn(t, s, "m2", "go", "fn go() { other_crate::thing(); }")
	addEdge(t, s, c, "other_crate::thing", 1)

	entries, err := NewRollup(s).ModuleGraph(ctx, LevelCrate, []string{"m2"}, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Dependencies, 1)
	assert.Equal(t, "m1", entries[0].Dependencies[0].TargetID)
}

func TestModuleGraph_PrefixRuleSuppressedByExactSymbol(t *testing.T) {
	// A chunk symbol equal to the target query wins over a module with
	// the same name; the edge must count once, not twice.
	s := newGraphStore(t)
	ctx := context.Background()

	putModule(t, s, "m1", "helper", model.ProjectCrate, "")
	putModule(t, s, "m2", "app", model.ProjectCrate, "")
	putChunkIn(t, s, "m1", "helper", "fn helper() {}")
	c := putChunkIn(t, s, "m2", "main", "fn main() { helper(); }")
	addEdge(t, s, c, "helper", 1)

	entries, err := NewRollup(s).ModuleGraph(ctx, LevelCrate, []string{"m2"}, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Dependencies, 1)
	assert.Equal(t, 1, entries[0].Dependencies[0].Count, "disjointness rule prevents double counting")
}

func TestModuleGraph_ModuleLevelSymbolPrefix(t *testing.T) {
	// Module level: "Repo::open" matches a chunk named "Repo".
	s := newGraphStore(t)
	ctx := context.Background()

	putModule(t, s, "m1", "m1", model.ProjectCrate, "")
	putModule(t, s, "m2", "m2", model.ProjectCrate, "")
	putChunkIn(t, s, "m1", "Repo", "struct Repo {}")
	c := putChunkIn(t, s, "m2", "open_all", "fn open_all() { Repo::open(); }")
	addEdge(t, s, c, "Repo::open", 1)

	entries, err := NewRollup(s).ModuleGraph(ctx, LevelModule, []string{"m2"}, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Dependencies, 1)
	assert.Equal(t, "m1", entries[0].Dependencies[0].TargetID)
}

func TestModuleGraph_CountsAggregate(t *testing.T) {
	s := newGraphStore(t)
	ctx := context.Background()

	putModule(t, s, "m1", "m1", model.ProjectCrate, "")
	putModule(t, s, "m2", "m2", model.ProjectCrate, "")
	putChunkIn(t, s, "m1", "foo", "fn foo() {}")
	putChunkIn(t, s, "m1", "baz", "fn baz() {}")
	c := putChunkIn(t, s, "m2", "bar", "fn bar() { foo(); baz(); }")
	addEdge(t, s, c, "foo", 1)
	addEdge(t, s, c, "baz", 2)

	entries, err := NewRollup(s).ModuleGraph(ctx, LevelCrate, []string{"m2"}, false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Dependencies, 1)
	assert.Equal(t, 2, entries[0].Dependencies[0].Count)
}

func TestFindCycles_ThreeModuleRing(t *testing.T) {
	// m1 -> m2 -> m3 -> m1 yields one cycle closed on its entry module.
	s := newGraphStore(t)
	ctx := context.Background()

	putModule(t, s, "m1", "m1", model.ProjectCrate, "")
	putModule(t, s, "m2", "m2", model.ProjectCrate, "")
	putModule(t, s, "m3", "m3", model.ProjectCrate, "")

	f1 := putChunkIn(t, s, "m1", "f1", "fn f1() { f2(); }")
	f2 := putChunkIn(t, s, "m2", "f2", "fn f2() { f3(); }")
	f3 := putChunkIn(t, s, "m3", "f3", "fn f3() { f1(); }")
	addEdge(t, s, f1, "f2", 1)
	addEdge(t, s, f2, "f3", 1)
	addEdge(t, s, f3, "f1", 1)

	cycles, err := NewRollup(s).FindCycles(ctx)
	require.NoError(t, err)
	require.Len(t, cycles, 1)

	cycle := cycles[0]
	require.Len(t, cycle, 4)
	assert.Equal(t, cycle[0], cycle[len(cycle)-1], "last element repeats the entry")
	assert.ElementsMatch(t, []string{"m1", "m2", "m3"}, cycle[:3])

	// Property: every consecutive pair is a real dependency.
	entries, err := NewRollup(s).ModuleGraph(ctx, LevelModule, nil, false)
	require.NoError(t, err)
	deps := make(map[string]map[string]bool)
	for _, e := range entries {
		deps[e.Module.ID] = make(map[string]bool)
		for _, d := range e.Dependencies {
			deps[e.Module.ID][d.TargetID] = true
		}
	}
	for i := 0; i < len(cycle)-1; i++ {
		assert.True(t, deps[cycle[i]][cycle[i+1]], "%s -> %s must be a dependency", cycle[i], cycle[i+1])
	}
}

func TestFindCycles_None(t *testing.T) {
	s := newGraphStore(t)

	putModule(t, s, "m1", "m1", model.ProjectCrate, "")
	putModule(t, s, "m2", "m2", model.ProjectCrate, "")
	putChunkIn(t, s, "m2", "foo", "fn foo() {}")
	c := putChunkIn(t, s, "m1", "bar", "fn bar() { foo(); }")
	addEdge(t, s, c, "foo", 1)

	cycles, err := NewRollup(s).FindCycles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cycles)
}

func TestFindCycles_TwoModuleCycle(t *testing.T) {
	s := newGraphStore(t)

	putModule(t, s, "m1", "m1", model.ProjectCrate, "")
	putModule(t, s, "m2", "m2", model.ProjectCrate, "")
	a := putChunkIn(t, s, "m1", "a", "fn a() { b(); }")
	b := putChunkIn(t, s, "m2", "b", "fn b() { a(); }")
	addEdge(t, s, a, "b", 1)
	addEdge(t, s, b, "a", 1)

	cycles, err := NewRollup(s).FindCycles(context.Background())
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0], 3)
	assert.Equal(t, cycles[0][0], cycles[0][2])
}
