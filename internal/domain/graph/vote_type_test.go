package graph

import "testing"

func TestParseVoteType(t *testing.T) {
	cases := map[string]VoteType{
		"upgrade":     VoteUpgrade,
		" Upgrade ":   VoteUpgrade,
		"no_upgrade":  VoteNoUpgrade,
		"not-sure":    VoteNotSure,
		"unsure":      VoteNotSure,
	}
	for in, want := range cases {
		got, err := ParseVoteType(in)
		if err != nil || got != want {
			t.Fatalf("ParseVoteType(%q) = %q, %v want %q", in, got, err, want)
		}
	}
	if _, err := ParseVoteType("maybe"); err == nil {
		t.Fatalf("expected error for unknown vote")
	}
}
