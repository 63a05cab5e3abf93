package graph

import (
	"context"
	"sort"
)

// FindCycles detects circular dependencies in the module-level graph.
// Each reported cycle is a module ID path whose last element repeats the
// entry module; every distinct back-edge found by the depth-first search
// yields one cycle.
func (r *Rollup) FindCycles(ctx context.Context) ([][]string, error) {
	entries, err := r.ModuleGraph(ctx, LevelModule, nil, false)
	if err != nil {
		return nil, err
	}

	adjacency := make(map[string][]string, len(entries))
	var ids []string
	for _, entry := range entries {
		id := entry.Module.ID
		ids = append(ids, id)
		for _, dep := range entry.Dependencies {
			adjacency[id] = append(adjacency[id], dep.TargetID)
		}
	}
	sort.Strings(ids)

	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // fully explored
	)
	color := make(map[string]int, len(ids))
	var stack []string
	var cycles [][]string

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		stack = append(stack, id)

		for _, next := range adjacency[id] {
			switch color[next] {
			case white:
				dfs(next)
			case gray:
				// Back-edge: the path slice from the re-entered ancestor
				// to here, closed by repeating the ancestor.
				for k, ancestor := range stack {
					if ancestor == next {
						cycle := make([]string, 0, len(stack)-k+1)
						cycle = append(cycle, stack[k:]...)
						cycle = append(cycle, next)
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, id := range ids {
		if color[id] == white {
			dfs(id)
		}
	}

	return cycles, nil
}
