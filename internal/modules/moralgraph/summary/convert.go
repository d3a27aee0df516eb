package summary

import (
	types "github.com/yungbote/moralgraph-backend/internal/domain"
)

// InputsFromModels converts stored values and votes into summarizer input.
func InputsFromModels(values []*types.Value, edges []*types.Edge) ([]ValueInput, []EdgeInput) {
	vin := make([]ValueInput, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		vin = append(vin, ValueInput{
			ID:          v.ID.String(),
			Title:       v.Title,
			Description: v.Description,
			Policies:    append([]string(nil), v.Policies...),
		})
	}
	ein := make([]EdgeInput, 0, len(edges))
	for _, e := range edges {
		if e == nil {
			continue
		}
		ein = append(ein, EdgeInput{
			UserID:    e.UserID,
			FromID:    e.FromValueID.String(),
			ToID:      e.ToValueID.String(),
			ContextID: e.ContextID,
			Type:      e.Type,
		})
	}
	return vin, ein
}
