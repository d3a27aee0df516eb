package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"user_id", "participant-42",
		"openai_api_key", "sk-live",
		"deliberation_id", "d1",
	})
	if len(out) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(out))
	}
	if s, _ := out[1].(string); !strings.HasPrefix(s, "hash:") {
		t.Fatalf("expected hashed user_id, got %v", out[1])
	}
	if out[3] != "[REDACTED]" {
		t.Fatalf("expected redacted api key, got %v", out[3])
	}
	if out[5] != "d1" {
		t.Fatalf("expected passthrough, got %v", out[5])
	}
}

func TestSanitizeOddKV(t *testing.T) {
	out := sanitizeKVs([]interface{}{"context_id", "c", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output %v", out)
	}
}
