package summary

import "sort"

// PageRank ranks nodes over source->wiser edges weighted by EdgeWeight.
// A node's outgoing transition to v is w_uv / max(1, sum_v w_uv); whatever
// mass is left over is treated as dangling and spread uniformly. Scores sum
// to 1 and every node keeps at least (1-d)/N.
func PageRank(nodes []string, edges []EdgeStats, opts Options) map[string]float64 {
	d := opts.Damping
	if d <= 0 || d >= 1 {
		d = DefaultDamping
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	ids := append([]string(nil), nodes...)
	sort.Strings(ids)
	ids = dedupeSorted(ids)
	n := len(ids)
	out := make(map[string]float64, n)
	if n == 0 {
		return out
	}
	index := make(map[string]int, n)
	for i, id := range ids {
		index[id] = i
	}

	type arc struct {
		to int
		w  float64
	}
	outArcs := make([][]arc, n)
	outSum := make([]float64, n)
	for _, e := range edges {
		u, okU := index[e.SourceValueID]
		v, okV := index[e.WiserValueID]
		if !okU || !okV || u == v {
			continue
		}
		w := EdgeWeight(e.Summary)
		if w <= 0 {
			continue
		}
		outArcs[u] = append(outArcs[u], arc{to: v, w: w})
		outSum[u] += w
	}
	kept := make([]float64, n)
	for u := range outArcs {
		denom := outSum[u]
		if denom < 1 {
			denom = 1
		}
		for i := range outArcs[u] {
			outArcs[u][i].w /= denom
			kept[u] += outArcs[u][i].w
		}
	}

	fn := float64(n)
	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1 / fn
	}
	next := make([]float64, n)
	for iter := 0; iter < maxIter; iter++ {
		dangling := 0.0
		for u := 0; u < n; u++ {
			dangling += rank[u] * (1 - kept[u])
		}
		base := (1-d)/fn + d*dangling/fn
		for i := range next {
			next[i] = base
		}
		for u := 0; u < n; u++ {
			for _, a := range outArcs[u] {
				next[a.to] += d * rank[u] * a.w
			}
		}
		residual := 0.0
		for i := range next {
			diff := next[i] - rank[i]
			if diff < 0 {
				diff = -diff
			}
			residual += diff
		}
		rank, next = next, rank
		if residual < tol {
			break
		}
	}

	sum := 0.0
	for _, r := range rank {
		sum += r
	}
	for i, id := range ids {
		if sum > 0 {
			out[id] = rank[i] / sum
		} else {
			out[id] = 1 / fn
		}
	}
	return out
}

func dedupeSorted(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
