package summary

import (
	"math"
	"sort"

	"github.com/yungbote/moralgraph-backend/internal/domain/graph"
)

const (
	DefaultDamping       = 0.85
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-10
)

// Ln4 bounds edge entropy; it is the denominator of the consensus weight.
var Ln4 = math.Log(4)

type ValueInput struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Policies    []string `json:"policies"`
}

// EdgeInput is a single participant vote.
type EdgeInput struct {
	UserID    string         `json:"user_id"`
	FromID    string         `json:"from_value_id"`
	ToID      string         `json:"to_value_id"`
	ContextID string         `json:"context_id"`
	Type      graph.VoteType `json:"type"`
}

type Options struct {
	IncludeRanking       bool
	MarkedWiserThreshold *int
	IncludeAllEdges      bool
	Damping              float64
	MaxIterations        int
	Tolerance            float64
}

type Counts struct {
	MarkedWiser    int `json:"marked_wiser"`
	MarkedNotWiser int `json:"marked_not_wiser"`
	MarkedLessWise int `json:"marked_less_wise"`
	MarkedUnsure   int `json:"marked_unsure"`
	Impressions    int `json:"impressions"`
}

type Stats struct {
	WiserLikelihood float64 `json:"wiser_likelihood"`
	Entropy         float64 `json:"entropy"`
}

type EdgeStats struct {
	SourceValueID string   `json:"source_value_id"`
	WiserValueID  string   `json:"wiser_value_id"`
	Contexts      []string `json:"contexts"`
	Counts        Counts   `json:"counts"`
	Summary       Stats    `json:"summary"`
}

type ValueSummary struct {
	ValueInput
	PageRank *float64 `json:"page_rank,omitempty"`
}

type MoralGraphSummary struct {
	Values []ValueSummary `json:"values"`
	Edges  []EdgeStats    `json:"edges"`
}

type pairKey struct{ lo, hi string }

type pairBucket struct {
	// index 0 is lo->hi, 1 is hi->lo
	upgrades [2]int
	noUpg    [2]int
	notSure  [2]int
	contexts map[string]struct{}
}

func (b *pairBucket) total(dir int) int {
	return b.upgrades[dir] + b.noUpg[dir] + b.notSure[dir]
}

// Summarize aggregates raw votes into per-pair edge statistics and, when asked,
// a PageRank-style ranking. It is a pure function of its input.
func Summarize(values []ValueInput, edges []EdgeInput, opts Options) MoralGraphSummary {
	known := make(map[string]struct{}, len(values))
	for _, v := range values {
		known[v.ID] = struct{}{}
	}

	buckets := map[pairKey]*pairBucket{}
	for _, e := range edges {
		if e.FromID == e.ToID || !e.Type.Valid() {
			continue
		}
		if _, ok := known[e.FromID]; !ok {
			continue
		}
		if _, ok := known[e.ToID]; !ok {
			continue
		}
		key, dir := pairKey{lo: e.FromID, hi: e.ToID}, 0
		if e.ToID < e.FromID {
			key, dir = pairKey{lo: e.ToID, hi: e.FromID}, 1
		}
		b := buckets[key]
		if b == nil {
			b = &pairBucket{contexts: map[string]struct{}{}}
			buckets[key] = b
		}
		switch e.Type {
		case graph.VoteUpgrade:
			b.upgrades[dir]++
		case graph.VoteNoUpgrade:
			b.noUpg[dir]++
		case graph.VoteNotSure:
			b.notSure[dir]++
		}
		if e.ContextID != "" {
			b.contexts[e.ContextID] = struct{}{}
		}
	}

	keys := make([]pairKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lo != keys[j].lo {
			return keys[i].lo < keys[j].lo
		}
		return keys[i].hi < keys[j].hi
	})

	all := make([]EdgeStats, 0, len(keys))
	for _, k := range keys {
		all = append(all, buildEdgeStats(k, buckets[k]))
	}

	ranked := all
	if opts.MarkedWiserThreshold != nil {
		threshold := *opts.MarkedWiserThreshold
		ranked = make([]EdgeStats, 0, len(all))
		for _, e := range all {
			if e.Counts.MarkedWiser >= threshold {
				ranked = append(ranked, e)
			}
		}
	}

	out := MoralGraphSummary{Values: make([]ValueSummary, 0, len(values))}
	if opts.IncludeAllEdges {
		out.Edges = all
	} else {
		out.Edges = ranked
	}

	var scores map[string]float64
	if opts.IncludeRanking {
		ids := make([]string, 0, len(values))
		for _, v := range values {
			ids = append(ids, v.ID)
		}
		scores = PageRank(ids, ranked, opts)
	}
	for _, v := range values {
		vs := ValueSummary{ValueInput: v}
		if scores != nil {
			s := scores[v.ID]
			vs.PageRank = &s
		}
		out.Values = append(out.Values, vs)
	}
	return out
}

func buildEdgeStats(k pairKey, b *pairBucket) EdgeStats {
	// orient by majority upgrades, then by total votes, then lexically
	fwd := 0
	switch {
	case b.upgrades[1] > b.upgrades[0]:
		fwd = 1
	case b.upgrades[1] == b.upgrades[0] && b.total(1) > b.total(0):
		fwd = 1
	}
	rev := 1 - fwd

	src, wiser := k.lo, k.hi
	if fwd == 1 {
		src, wiser = k.hi, k.lo
	}

	c := Counts{
		MarkedWiser:    b.upgrades[fwd],
		MarkedNotWiser: b.noUpg[fwd],
		MarkedLessWise: b.upgrades[rev],
		MarkedUnsure:   b.notSure[fwd] + b.notSure[rev],
	}
	// A reverse no_upgrade is a judgment but says nothing about source->wiser.
	c.Impressions = c.MarkedWiser + c.MarkedNotWiser + c.MarkedLessWise + b.noUpg[rev]

	ctxs := make([]string, 0, len(b.contexts))
	for id := range b.contexts {
		ctxs = append(ctxs, id)
	}
	sort.Strings(ctxs)

	return EdgeStats{
		SourceValueID: src,
		WiserValueID:  wiser,
		Contexts:      ctxs,
		Counts:        c,
		Summary: Stats{
			WiserLikelihood: WiserLikelihood(c),
			Entropy:         Entropy(c),
		},
	}
}

// WiserLikelihood is markedWiser over every vote on the pair. Unsure votes
// dilute agreement.
func WiserLikelihood(c Counts) float64 {
	denom := c.Impressions + c.MarkedUnsure
	if denom == 0 {
		return 0
	}
	return float64(c.MarkedWiser) / float64(denom)
}

// Entropy is the natural-log Shannon entropy over the decisive categories.
func Entropy(c Counts) float64 {
	total := c.MarkedWiser + c.MarkedNotWiser + c.MarkedLessWise
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, n := range []int{c.MarkedWiser, c.MarkedNotWiser, c.MarkedLessWise} {
		if n == 0 {
			continue
		}
		p := float64(n) / float64(total)
		h -= p * math.Log(p)
	}
	if h < 0 {
		return 0
	}
	return h
}

// EdgeWeight is the consensus-weighted strength of an edge used for ranking.
func EdgeWeight(s Stats) float64 {
	w := s.WiserLikelihood * (1 - s.Entropy/Ln4)
	if w < 0 {
		return 0
	}
	return w
}
