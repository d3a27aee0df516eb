package prompts

import (
	"strings"
	"testing"
)

func TestBuildAllPrompts(t *testing.T) {
	in := Input{
		SubmissionsJSON: `[{"id":"a"}]`,
		ValueJSON:       `{"id":"a"}`,
		CandidatesJSON:  `[{"id":"b"}]`,
		ContextID:       "When helping a friend",
		ValuesJSON:      `[{"id":"a"},{"id":"b"}]`,
		FromValueJSON:   `{"id":"a"}`,
		ToValueJSON:     `{"id":"b"}`,
		ContextsJSON:    `["When helping friends"]`,
	}
	names := []PromptName{
		PromptValuesCluster,
		PromptValuesDedupeMatch,
		PromptContextsDedupeMatch,
		PromptHypothesesForward,
		PromptHypothesesReverse,
	}
	for _, name := range names {
		p, err := Build(name, in)
		if err != nil {
			t.Fatalf("Build(%s): %v", name, err)
		}
		if p.SchemaName != string(name) {
			t.Fatalf("%s: schema name %q", name, p.SchemaName)
		}
		if p.Schema["type"] != "object" {
			t.Fatalf("%s: schema not an object", name)
		}
		if strings.Contains(p.User, "<no value>") {
			t.Fatalf("%s: unrendered field in %q", name, p.User)
		}
		if p.Fingerprint() == "" {
			t.Fatalf("%s: empty fingerprint", name)
		}
	}
}

func TestBuildRejectsMissingInput(t *testing.T) {
	if _, err := Build(PromptHypothesesReverse, Input{ContextID: "c"}); err == nil {
		t.Fatalf("expected validator error")
	}
	if _, err := Build(PromptName("nope"), Input{}); err == nil {
		t.Fatalf("expected unknown prompt error")
	}
}

func TestContextRendersIntoUserPrompt(t *testing.T) {
	p, err := Build(PromptHypothesesForward, Input{ContextID: "When grieving", ValuesJSON: "[]"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(p.User, "Context: When grieving") {
		t.Fatalf("context missing from user prompt: %q", p.User)
	}
}

func TestOutputValidation(t *testing.T) {
	bad := &ValuesClusterOutput{Clusters: []ValueCluster{{RepresentativeID: "a"}}}
	if bad.Validate() == nil {
		t.Fatalf("expected empty member_ids to fail")
	}
	empty := ""
	m := &ValuesDedupeMatchOutput{MatchID: &empty}
	if err := m.Validate(); err != nil || m.MatchID != nil {
		t.Fatalf("blank match id should normalize to nil")
	}
	if (&HypothesesReverseOutput{Story: "  "}).Validate() == nil {
		t.Fatalf("expected blank story to fail")
	}
	if (&HypothesesForwardOutput{}).Validate() == nil {
		t.Fatalf("expected missing upgrades to fail")
	}
}
