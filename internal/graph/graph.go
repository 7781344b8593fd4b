// Package graph builds the ordering graph over discovered setup tasks. Nodes
// are task names; an edge A -> B means A must run before B and comes either
// from B's pre-dependencies or from A's post-dependencies. Build rejects
// dangling references and cycles before anything is allowed to run.
package graph

import (
	"fmt"
	"sort"

	"github.com/kingrea/shopsetup/internal/task"
)

// Edge is an ordering constraint: From runs before To.
type Edge struct {
	From string
	To   string
}

// Graph is an immutable, validated dependency graph.
type Graph struct {
	nodes    []string
	infos    map[string]task.Info
	outgoing map[string][]string
	incoming map[string][]string
}

// Build validates infos and returns the graph. Validation runs fully before
// the graph is returned: duplicate names first, then unknown references,
// then cycles.
func Build(infos []task.Info) (*Graph, error) {
	g := &Graph{
		infos:    make(map[string]task.Info, len(infos)),
		outgoing: map[string][]string{},
		incoming: map[string][]string{},
	}

	sorted := make([]task.Info, len(infos))
	copy(sorted, infos)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, info := range sorted {
		if err := info.Validate(); err != nil {
			return nil, err
		}
		if _, exists := g.infos[info.Name]; exists {
			return nil, &DuplicateTaskError{Task: info.Name}
		}
		g.infos[info.Name] = info
		g.nodes = append(g.nodes, info.Name)
	}

	seen := map[Edge]struct{}{}
	addEdge := func(e Edge) {
		if _, dup := seen[e]; dup {
			return
		}
		seen[e] = struct{}{}
		g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
		g.incoming[e.To] = append(g.incoming[e.To], e.From)
	}

	for _, info := range sorted {
		for _, dep := range sortedCopy(info.Pre) {
			if _, ok := g.infos[dep]; !ok {
				return nil, &UnknownDependencyError{Task: info.Name, Missing: dep}
			}
			addEdge(Edge{From: dep, To: info.Name})
		}
		for _, dep := range sortedCopy(info.Post) {
			if _, ok := g.infos[dep]; !ok {
				return nil, &UnknownDependencyError{Task: info.Name, Missing: dep}
			}
			addEdge(Edge{From: info.Name, To: dep})
		}
	}

	for _, name := range g.nodes {
		sort.Strings(g.outgoing[name])
		sort.Strings(g.incoming[name])
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CyclicDependencyError{Cycle: cycle}
	}
	return g, nil
}

// findCycle runs a three-color DFS in name order and returns the first cycle
// found, without repeating the closing node.
func (g *Graph) findCycle() []string {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.nodes))
	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		path = append(path, name)
		for _, next := range g.outgoing[name] {
			switch color[next] {
			case gray:
				for i, n := range path {
					if n == next {
						cycle = append([]string{}, path[i:]...)
						break
					}
				}
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return false
	}

	for _, name := range g.nodes {
		if color[name] == white && visit(name) {
			return cycle
		}
	}
	return nil
}

// Names returns every task name in ascending order.
func (g *Graph) Names() []string {
	return append([]string{}, g.nodes...)
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Info returns the declaration a node was built from.
func (g *Graph) Info(name string) (task.Info, bool) {
	info, ok := g.infos[name]
	return info, ok
}

// Edges returns every deduplicated edge sorted by (From, To).
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, from := range g.nodes {
		for _, to := range g.outgoing[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// Dependencies returns the tasks that must run directly before name.
func (g *Graph) Dependencies(name string) []string {
	return append([]string{}, g.incoming[name]...)
}

// Dependents returns the tasks that must run directly after name.
func (g *Graph) Dependents(name string) []string {
	return append([]string{}, g.outgoing[name]...)
}

// Queue returns the execution order restricted to targets and everything they
// transitively depend on. No targets means the whole graph.
func (g *Graph) Queue(targets ...string) ([]string, error) {
	if len(targets) == 0 {
		return g.Order(), nil
	}
	keep := map[string]bool{}
	var mark func(string)
	mark = func(name string) {
		if keep[name] {
			return
		}
		keep[name] = true
		for _, dep := range g.incoming[name] {
			mark(dep)
		}
	}
	for _, target := range targets {
		if _, ok := g.infos[target]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTask, target)
		}
		mark(target)
	}
	var out []string
	for _, name := range g.Order() {
		if keep[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

func sortedCopy(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}
