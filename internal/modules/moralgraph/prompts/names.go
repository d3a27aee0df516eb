package prompts

type PromptName string

const (
	// Deduplication
	PromptValuesCluster       PromptName = "values_cluster"
	PromptValuesDedupeMatch   PromptName = "values_dedupe_match"
	PromptContextsDedupeMatch PromptName = "contexts_dedupe_match"

	// Hypotheses
	PromptHypothesesForward PromptName = "hypotheses_forward"
	PromptHypothesesReverse PromptName = "hypotheses_reverse"
)
