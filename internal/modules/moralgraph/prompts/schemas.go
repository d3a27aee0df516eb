package prompts

func ValuesClusterSchema() map[string]any {
	cluster := ObjectSchema(map[string]any{
		"representative_id": StringSchema(),
		"member_ids":        StringArraySchema(),
		"rationale":         StringSchema(),
	}, []string{"representative_id", "member_ids", "rationale"})
	return SchemaVersionedObject(1, map[string]any{
		"clusters": ArraySchema(cluster),
	}, []string{"clusters"})
}

func ValuesDedupeMatchSchema() map[string]any {
	return SchemaVersionedObject(1, map[string]any{
		"match_id":  StringOrNullSchema(),
		"rationale": StringSchema(),
	}, []string{"match_id", "rationale"})
}

func ContextsDedupeMatchSchema() map[string]any {
	return SchemaVersionedObject(1, map[string]any{
		"duplicate_ids": StringArraySchema(),
		"rationale":     StringSchema(),
	}, []string{"duplicate_ids", "rationale"})
}

func HypothesesForwardSchema() map[string]any {
	pair := ObjectSchema(map[string]any{
		"from_id": StringSchema(),
		"to_id":   StringSchema(),
		"story":   StringSchema(),
	}, []string{"from_id", "to_id", "story"})
	return SchemaVersionedObject(1, map[string]any{
		"upgrades": ArraySchema(pair),
	}, []string{"upgrades"})
}

func HypothesesReverseSchema() map[string]any {
	return SchemaVersionedObject(1, map[string]any{
		"story": StringSchema(),
	}, []string{"story"})
}
