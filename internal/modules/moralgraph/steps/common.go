package steps

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/moralgraph-backend/internal/domain"
)

// ReportFunc receives coarse progress updates; it may be nil.
type ReportFunc func(stage string, pct int, message string)

func (r ReportFunc) report(stage string, pct int, message string) {
	if r == nil {
		return
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 99 {
		pct = 99
	}
	r(stage, pct, message)
}

// valueCard is the shape values and submissions take inside prompts.
type valueCard struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Policies    []string `json:"policies"`
}

func cardForValue(v *types.Value) valueCard {
	return valueCard{
		ID:          v.ID.String(),
		Title:       strings.TrimSpace(v.Title),
		Description: strings.TrimSpace(v.Description),
		Policies:    cleanPolicies(v.Policies),
	}
}

func cardForSubmission(s *types.RawSubmission) valueCard {
	return valueCard{
		ID:          s.ID.String(),
		Title:       strings.TrimSpace(s.Title),
		Description: strings.TrimSpace(s.Description),
		Policies:    cleanPolicies(s.Policies),
	}
}

func cleanPolicies(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func uuidSet(ids []uuid.UUID) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id != uuid.Nil {
			out[id] = true
		}
	}
	return out
}

func sortedStrings(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
