package envutil

import (
	"testing"
	"time"
)

func TestEnvParsing(t *testing.T) {
	t.Setenv("MG_INT", "7")
	t.Setenv("MG_BAD_INT", "x")
	t.Setenv("MG_FLOAT", "0.25")
	t.Setenv("MG_BOOL", "on")
	t.Setenv("MG_DUR", "45s")
	t.Setenv("MG_DUR_SECS", "12")

	if got := Int("MG_INT", 1); got != 7 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Int("MG_BAD_INT", 3); got != 3 {
		t.Fatalf("Int fallback: got %d", got)
	}
	if got := Float("MG_FLOAT", 0); got != 0.25 {
		t.Fatalf("Float: got %v", got)
	}
	if !Bool("MG_BOOL", false) {
		t.Fatalf("Bool: expected true")
	}
	if got := Duration("MG_DUR", 0); got != 45*time.Second {
		t.Fatalf("Duration: got %v", got)
	}
	if got := Duration("MG_DUR_SECS", 0); got != 12*time.Second {
		t.Fatalf("Duration secs: got %v", got)
	}
	if got := String("MG_MISSING", "def"); got != "def" {
		t.Fatalf("String default: got %q", got)
	}
}
