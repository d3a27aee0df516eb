package prompts

// Input is a superset of all fields any prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// Values dedupe
	SubmissionsJSON string
	ValueJSON       string
	CandidatesJSON  string

	// Hypotheses
	ContextID     string
	ValuesJSON    string
	FromValueJSON string
	ToValueJSON   string

	// Contexts dedupe
	ContextsJSON string
}
