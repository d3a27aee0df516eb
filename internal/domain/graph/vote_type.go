package graph

import (
	"fmt"
	"strings"
)

type VoteType string

const (
	VoteUpgrade   VoteType = "upgrade"
	VoteNoUpgrade VoteType = "no_upgrade"
	VoteNotSure   VoteType = "not_sure"
)

// ParseVoteType is the only place vote strings are compared.
func ParseVoteType(raw string) (VoteType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "upgrade":
		return VoteUpgrade, nil
	case "no_upgrade", "no-upgrade", "noupgrade":
		return VoteNoUpgrade, nil
	case "not_sure", "not-sure", "notsure", "unsure":
		return VoteNotSure, nil
	default:
		return "", fmt.Errorf("unknown vote type %q", raw)
	}
}

func (v VoteType) Valid() bool {
	switch v {
	case VoteUpgrade, VoteNoUpgrade, VoteNotSure:
		return true
	}
	return false
}
