package graphutil

import (
	"math"
	"sort"
)

// CosineSimilarity returns 0 for zero-norm or mismatched vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CosineDistance is 1 - cosine similarity, matching pgvector's <=> operator.
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

// Scored pairs an id with a distance to some target.
type Scored struct {
	ID       string
	Distance float64
}

// Nearest ranks candidates by ascending cosine distance to target, ties by id.
// maxDistance < 0 disables the cutoff; limit <= 0 returns everything.
func Nearest(target []float32, candidates map[string][]float32, limit int, maxDistance float64) []Scored {
	out := make([]Scored, 0, len(candidates))
	for id, vec := range candidates {
		if len(vec) == 0 {
			continue
		}
		d := CosineDistance(target, vec)
		if maxDistance >= 0 && d > maxDistance {
			continue
		}
		out = append(out, Scored{ID: id, Distance: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
