package sampler

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
)

type Criterion string

const (
	CriterionPopularity  Criterion = "popularity"
	CriterionConvergence Criterion = "convergence"
	CriterionSparsity    Criterion = "sparsity"
)

const weightTolerance = 1e-6

// Candidate is a live hypothesis with its vote tallies.
type Candidate struct {
	ID          string `json:"id"`
	FromID      string `json:"from_value_id"`
	ToID        string `json:"to_value_id"`
	ContextID   string `json:"context_id"`
	Story       string `json:"story"`
	TotalVotes  int    `json:"total_votes"`
	TotalAgrees int    `json:"total_agrees"`
}

type Weights struct {
	Popularity  float64 `json:"popularity" yaml:"popularity"`
	Convergence float64 `json:"convergence" yaml:"convergence"`
	Sparsity    float64 `json:"sparsity" yaml:"sparsity"`
}

func DefaultWeights() Weights {
	return Weights{Popularity: 0.3, Convergence: 0.3, Sparsity: 0.4}
}

func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"popularity":  w.Popularity,
		"convergence": w.Convergence,
		"sparsity":    w.Sparsity,
	} {
		if v < 0 || math.IsNaN(v) {
			return apierr.InvalidArgument(fmt.Sprintf("weight %s must be >= 0", name))
		}
	}
	sum := w.Popularity + w.Convergence + w.Sparsity
	if math.Abs(sum-1) > weightTolerance {
		return apierr.InvalidArgument(fmt.Sprintf("weights must sum to 1, got %g", sum))
	}
	return nil
}

type Selected struct {
	Candidate
	Criterion        Criterion `json:"criterion"`
	ConvergenceScore float64   `json:"convergence_score"`
}

// Draw picks up to size distinct candidates. Each pick draws r in [0,1) and
// takes the first unselected candidate from the popularity, convergence or
// sparsity ordering depending on the band r falls into. It stops early once
// the chosen ordering is exhausted.
func Draw(pool []Candidate, size int, w Weights, rng *rand.Rand) ([]Selected, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, apierr.InvalidArgument("size must be positive")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if len(pool) == 0 {
		return []Selected{}, nil
	}

	scores := ConvergenceScores(pool)
	popularity := order(pool, func(a, b Candidate) int { return b.TotalAgrees - a.TotalAgrees })
	convergence := order(pool, func(a, b Candidate) int {
		sa, sb := scores[a.ID], scores[b.ID]
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		}
		return 0
	})
	sparsity := order(pool, func(a, b Candidate) int { return a.TotalVotes - b.TotalVotes })

	cursor := map[Criterion]int{}
	lists := map[Criterion][]Candidate{
		CriterionPopularity:  popularity,
		CriterionConvergence: convergence,
		CriterionSparsity:    sparsity,
	}
	taken := make(map[string]struct{}, size)
	out := make([]Selected, 0, size)
	for len(out) < size {
		r := rng.Float64()
		crit := CriterionSparsity
		switch {
		case r < w.Popularity:
			crit = CriterionPopularity
		case r < w.Popularity+w.Convergence:
			crit = CriterionConvergence
		}
		list := lists[crit]
		i := cursor[crit]
		for i < len(list) {
			if _, ok := taken[list[i].ID]; !ok {
				break
			}
			i++
		}
		cursor[crit] = i
		if i >= len(list) {
			break
		}
		c := list[i]
		taken[c.ID] = struct{}{}
		out = append(out, Selected{Candidate: c, Criterion: crit, ConvergenceScore: scores[c.ID]})
	}
	return out, nil
}

// ConvergenceScores rates how far each candidate lags the most agreed-upon
// sibling sharing its target value: (maxAgrees - agrees) / maxAgrees.
func ConvergenceScores(pool []Candidate) map[string]float64 {
	maxByTo := map[string]int{}
	for _, c := range pool {
		if c.TotalAgrees > maxByTo[c.ToID] {
			maxByTo[c.ToID] = c.TotalAgrees
		}
	}
	out := make(map[string]float64, len(pool))
	for _, c := range pool {
		m := maxByTo[c.ToID]
		if m == 0 {
			out[c.ID] = 0
			continue
		}
		out[c.ID] = float64(m-c.TotalAgrees) / float64(m)
	}
	return out
}

func order(pool []Candidate, cmp func(a, b Candidate) int) []Candidate {
	out := append([]Candidate(nil), pool...)
	sort.SliceStable(out, func(i, j int) bool {
		if c := cmp(out[i], out[j]); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}
