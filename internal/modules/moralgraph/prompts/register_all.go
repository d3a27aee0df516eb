package prompts

// RegisterAll registers every moral graph prompt. Build calls it lazily.
func RegisterAll() {
	// ---------- Deduplication ----------

	RegisterDefinition(Definition{
		Name:       PromptValuesCluster,
		Version:    1,
		SchemaName: "values_cluster",
		Schema:     ValuesClusterSchema,
		System: `
You group participant-submitted values that express the same way of living.
Two submissions belong together only if a person acting on one would make the same choices as a person acting on the other.
Differences in wording, length or tone do not matter. Differences in what the person attends to do.
Return JSON only.`,
		User: `
Submissions (JSON array of {id, title, description, policies}):
{{.SubmissionsJSON}}

Output rules:
- Every input id appears in exactly one cluster's member_ids.
- Use only ids from the input.
- representative_id must be one of that cluster's member_ids: pick the most complete articulation.
- Singletons are allowed.
- rationale: one sentence.`,
		Validators: []Validator{
			RequireNonEmpty("SubmissionsJSON", func(in Input) string { return in.SubmissionsJSON }),
		},
	})

	RegisterDefinition(Definition{
		Name:       PromptValuesDedupeMatch,
		Version:    1,
		SchemaName: "values_dedupe_match",
		Schema:     ValuesDedupeMatchSchema,
		System: `
You decide whether a new value is the same as one of a few existing canonical values.
Same means the attentional policies describe the same way of choosing, even when worded differently.
When in doubt, answer null.
Return JSON only.`,
		User: `
New value:
{{.ValueJSON}}

Existing candidates (JSON array of {id, title, description, policies}):
{{.CandidatesJSON}}

Output rules:
- match_id: the id of the candidate that is the same value, or null.
- rationale: one sentence.`,
		Validators: []Validator{
			RequireNonEmpty("ValueJSON", func(in Input) string { return in.ValueJSON }),
			RequireNonEmpty("CandidatesJSON", func(in Input) string { return in.CandidatesJSON }),
		},
	})

	RegisterDefinition(Definition{
		Name:       PromptContextsDedupeMatch,
		Version:    1,
		SchemaName: "contexts_dedupe_match",
		Schema:     ContextsDedupeMatchSchema,
		System: `
You decide which situational contexts describe the same situation as a target context.
Contexts are short phrases such as "When helping someone in distress".
Two contexts are duplicates only if any choice made in one is a choice made in the other.
Return JSON only.`,
		User: `
Target context: {{.ContextID}}

Candidates (JSON array of context ids):
{{.ContextsJSON}}

Output rules:
- duplicate_ids: candidates that are the same situation as the target. Use only ids from the list.
- rationale: one sentence.`,
		Validators: []Validator{
			RequireNonEmpty("ContextID", func(in Input) string { return in.ContextID }),
			RequireNonEmpty("ContextsJSON", func(in Input) string { return in.ContextsJSON }),
		},
	})

	// ---------- Hypotheses ----------

	RegisterDefinition(Definition{
		Name:       PromptHypothesesForward,
		Version:    1,
		SchemaName: "hypotheses_forward",
		Schema:     HypothesesForwardSchema,
		System: `
You propose plausible moral upgrades between values in a specific context.
An upgrade from A to B means a person who lived by A, on reflection, would see B as a wiser way to act here:
B clarifies what was important about A, or balances it with something A missed.
Write each story as a short first-person account of that transition. Do not invent values.
Return JSON only.`,
		User: `
Context: {{.ContextID}}

Values (JSON array of {id, title, description, policies}):
{{.ValuesJSON}}

Output rules:
- upgrades: zero or more {from_id, to_id, story}.
- from_id and to_id must be different ids from the list.
- List each ordered pair at most once.
- story: 2-5 sentences, concrete, first person.`,
		Validators: []Validator{
			RequireNonEmpty("ContextID", func(in Input) string { return in.ContextID }),
			RequireNonEmpty("ValuesJSON", func(in Input) string { return in.ValuesJSON }),
		},
	})

	RegisterDefinition(Definition{
		Name:       PromptHypothesesReverse,
		Version:    1,
		SchemaName: "hypotheses_reverse",
		Schema:     HypothesesReverseSchema,
		System: `
You write the strongest honest case for a moral transition in one direction.
The person currently lives by the FROM value and comes to see the TO value as wiser in the given context.
Write it as a short first-person story. Argue only this direction.
Return JSON only.`,
		User: `
Context: {{.ContextID}}

FROM value:
{{.FromValueJSON}}

TO value:
{{.ToValueJSON}}

Output rules:
- story: 2-5 sentences, concrete, first person.`,
		Validators: []Validator{
			RequireNonEmpty("ContextID", func(in Input) string { return in.ContextID }),
			RequireNonEmpty("FromValueJSON", func(in Input) string { return in.FromValueJSON }),
			RequireNonEmpty("ToValueJSON", func(in Input) string { return in.ToValueJSON }),
		},
	})
}
