package graphutil

import "sort"

// Link is an undirected connection between two node ids.
type Link struct {
	A, B string
}

// ConnectedComponents groups nodes ignoring edge direction. Nodes that only
// appear in links are included.
func ConnectedComponents(nodes []string, links []Link) [][]string {
	uf := NewUnionFind(nodes)
	for _, l := range links {
		uf.Union(l.A, l.B)
	}
	return uf.Components()
}

// Subgraph returns the ids reachable from start by BFS over undirected links,
// sorted. An unknown start yields just the start.
func Subgraph(start string, links []Link) []string {
	adj := map[string][]string{}
	for _, l := range links {
		adj[l.A] = append(adj[l.A], l.B)
		adj[l.B] = append(adj[l.B], l.A)
	}
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
