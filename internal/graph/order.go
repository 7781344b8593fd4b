package graph

import "container/heap"

// Order returns a topological order of every task. Among tasks whose
// dependencies are satisfied the smallest name goes first, so the result is
// identical for identical input.
func (g *Graph) Order() []string {
	indegree := make(map[string]int, len(g.nodes))
	ready := &nameHeap{}
	for _, name := range g.nodes {
		indegree[name] = len(g.incoming[name])
		if indegree[name] == 0 {
			heap.Push(ready, name)
		}
	}
	order := make([]string, 0, len(g.nodes))
	for ready.Len() > 0 {
		name := heap.Pop(ready).(string)
		order = append(order, name)
		for _, next := range g.outgoing[name] {
			indegree[next]--
			if indegree[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}
	return order
}

type nameHeap []string

func (h nameHeap) Len() int           { return len(h) }
func (h nameHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h nameHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *nameHeap) Push(x any) { *h = append(*h, x.(string)) }

func (h *nameHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
