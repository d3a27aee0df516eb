package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/prompts"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

var reverseInput = prompts.Input{ContextID: "c", FromValueJSON: "{}", ToValueJSON: "{}"}

func TestArbiterRetriesOnceThenSucceeds(t *testing.T) {
	ai := &fakeAI{responses: []map[string]any{
		{"story": ""},
		{"story": "I came to see it differently."},
	}}
	var out prompts.HypothesesReverseOutput
	if err := NewArbiter(logger.Nop(), ai).Generate(context.Background(), prompts.PromptHypothesesReverse, reverseInput, &out); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Story == "" || ai.jsonCalls != 2 {
		t.Fatalf("story=%q calls=%d", out.Story, ai.jsonCalls)
	}
}

func TestArbiterSchemaViolationAfterRetry(t *testing.T) {
	ai := &fakeAI{responses: []map[string]any{{"story": 42}}}
	var out prompts.HypothesesReverseOutput
	err := NewArbiter(logger.Nop(), ai).Generate(context.Background(), prompts.PromptHypothesesReverse, reverseInput, &out)
	if !errors.Is(err, apierr.ErrSchemaViolation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
	if ai.jsonCalls != 2 {
		t.Fatalf("expected exactly one retry, calls=%d", ai.jsonCalls)
	}
}

func TestArbiterGenerateTextTrims(t *testing.T) {
	got, err := NewArbiter(logger.Nop(), &fakeAI{}).GenerateText(context.Background(), "sys", "hi")
	if err != nil || got != "ok" {
		t.Fatalf("got %q err %v", got, err)
	}
}
