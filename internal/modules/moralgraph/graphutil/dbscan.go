package graphutil

import "sort"

// Point is an embedded item to cluster.
type Point struct {
	ID     string
	Vector []float32
}

// DBSCAN clusters points by cosine distance. Core points (at least minPts
// neighbours within eps, counting themselves) that are mutually reachable
// share a cluster. A border point joins the cluster of its first core
// neighbour in input order. Noise points come back as singletons.
//
// Groups keep input order internally and are ordered by their first member.
func DBSCAN(points []Point, eps float64, minPts int) [][]string {
	n := len(points)
	if n == 0 {
		return nil
	}
	if minPts < 1 {
		minPts = 1
	}
	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		neighbors[i] = append(neighbors[i], i)
		for j := i + 1; j < n; j++ {
			if CosineDistance(points[i].Vector, points[j].Vector) <= eps {
				neighbors[i] = append(neighbors[i], j)
				neighbors[j] = append(neighbors[j], i)
			}
		}
	}
	core := make([]bool, n)
	for i := range neighbors {
		core[i] = len(neighbors[i]) >= minPts
	}

	ids := make([]string, n)
	for i, p := range points {
		ids[i] = p.ID
	}
	uf := NewUnionFind(ids)
	for i := 0; i < n; i++ {
		if !core[i] {
			continue
		}
		for _, j := range neighbors[i] {
			if core[j] {
				uf.Union(ids[i], ids[j])
			}
		}
	}
	for i := 0; i < n; i++ {
		if core[i] {
			continue
		}
		nbrs := append([]int(nil), neighbors[i]...)
		sort.Ints(nbrs)
		for _, j := range nbrs {
			if core[j] {
				uf.Union(ids[j], ids[i])
				break
			}
		}
	}

	index := make(map[string]int, n)
	for i, id := range ids {
		index[id] = i
	}
	groups := map[string][]string{}
	order := []string{}
	for i := 0; i < n; i++ {
		root := uf.Find(ids[i])
		if _, ok := groups[root]; !ok {
			order = append(order, root)
		}
		groups[root] = append(groups[root], ids[i])
	}
	out := make([][]string, 0, len(order))
	for _, root := range order {
		out = append(out, groups[root])
	}
	return out
}
