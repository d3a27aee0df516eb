package sampler

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
)

func pool() []Candidate {
	return []Candidate{
		{ID: "h1", FromID: "a", ToID: "x", TotalVotes: 10, TotalAgrees: 8},
		{ID: "h2", FromID: "b", ToID: "x", TotalVotes: 4, TotalAgrees: 2},
		{ID: "h3", FromID: "c", ToID: "y", TotalVotes: 0, TotalAgrees: 0},
		{ID: "h4", FromID: "d", ToID: "y", TotalVotes: 6, TotalAgrees: 5},
	}
}

func TestWeightConformance(t *testing.T) {
	w := Weights{Popularity: 0.3, Convergence: 0.3, Sparsity: 0.4}
	rng := rand.New(rand.NewSource(42))
	const n = 10000
	counts := map[Criterion]int{}
	for i := 0; i < n; i++ {
		got, err := Draw(pool(), 1, w, rng)
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected one selection, got %d", len(got))
		}
		counts[got[0].Criterion]++
	}
	want := map[Criterion]float64{
		CriterionPopularity:  w.Popularity,
		CriterionConvergence: w.Convergence,
		CriterionSparsity:    w.Sparsity,
	}
	for crit, p := range want {
		freq := float64(counts[crit]) / n
		if math.Abs(freq-p) > 0.05 {
			t.Fatalf("%s frequency %.3f, want %.2f +/- 0.05", crit, freq, p)
		}
	}
}

func TestOrderings(t *testing.T) {
	cases := []struct {
		w    Weights
		want string
	}{
		{Weights{Popularity: 1}, "h1"},
		{Weights{Sparsity: 1}, "h3"},
		// h2 lags h1 at (8-2)/8; h3 lags h4 at 1.0
		{Weights{Convergence: 1}, "h3"},
	}
	for _, tc := range cases {
		got, err := Draw(pool(), 1, tc.w, rand.New(rand.NewSource(1)))
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if got[0].ID != tc.want {
			t.Fatalf("weights %+v: got %s want %s", tc.w, got[0].ID, tc.want)
		}
	}
}

func TestDrawIsDistinctAndStopsWhenExhausted(t *testing.T) {
	got, err := Draw(pool(), 10, DefaultWeights(), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected all 4 candidates, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, s := range got {
		if seen[s.ID] {
			t.Fatalf("duplicate selection %s", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestConvergenceScores(t *testing.T) {
	s := ConvergenceScores(pool())
	if math.Abs(s["h2"]-0.75) > 1e-9 || s["h1"] != 0 || s["h3"] != 1 {
		t.Fatalf("unexpected scores %v", s)
	}
	zero := ConvergenceScores([]Candidate{{ID: "z", ToID: "q"}})
	if zero["z"] != 0 {
		t.Fatalf("zero max should score 0")
	}
}

func TestInvalidWeights(t *testing.T) {
	bad := []Weights{
		{Popularity: 0.5, Convergence: 0.5, Sparsity: 0.5},
		{Popularity: -0.1, Convergence: 0.6, Sparsity: 0.5},
	}
	for _, w := range bad {
		_, err := Draw(pool(), 1, w, nil)
		if !errors.Is(err, apierr.ErrInvalidArgument) {
			t.Fatalf("weights %+v: expected invalid argument, got %v", w, err)
		}
	}
	if _, err := Draw(pool(), 0, DefaultWeights(), nil); !errors.Is(err, apierr.ErrInvalidArgument) {
		t.Fatalf("size 0: expected invalid argument, got %v", err)
	}
}
