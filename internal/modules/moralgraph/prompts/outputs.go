package prompts

import (
	"fmt"
	"strings"
)

// Validatable is implemented by every typed prompt output.
type Validatable interface {
	Validate() error
}

type ValueCluster struct {
	RepresentativeID string   `json:"representative_id"`
	MemberIDs        []string `json:"member_ids"`
	Rationale        string   `json:"rationale"`
}

type ValuesClusterOutput struct {
	Version  int            `json:"version"`
	Warnings []string       `json:"warnings"`
	Clusters []ValueCluster `json:"clusters"`
}

func (o *ValuesClusterOutput) Validate() error {
	for i, c := range o.Clusters {
		if len(c.MemberIDs) == 0 {
			return fmt.Errorf("clusters[%d]: member_ids empty", i)
		}
		if strings.TrimSpace(c.RepresentativeID) == "" {
			return fmt.Errorf("clusters[%d]: representative_id empty", i)
		}
	}
	return nil
}

type ValuesDedupeMatchOutput struct {
	Version   int      `json:"version"`
	Warnings  []string `json:"warnings"`
	MatchID   *string  `json:"match_id"`
	Rationale string   `json:"rationale"`
}

func (o *ValuesDedupeMatchOutput) Validate() error {
	if o.MatchID != nil && strings.TrimSpace(*o.MatchID) == "" {
		o.MatchID = nil
	}
	return nil
}

type ContextsDedupeMatchOutput struct {
	Version      int      `json:"version"`
	Warnings     []string `json:"warnings"`
	DuplicateIDs []string `json:"duplicate_ids"`
	Rationale    string   `json:"rationale"`
}

func (o *ContextsDedupeMatchOutput) Validate() error {
	for i, id := range o.DuplicateIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("duplicate_ids[%d] empty", i)
		}
	}
	return nil
}

type UpgradePair struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Story  string `json:"story"`
}

type HypothesesForwardOutput struct {
	Version  int           `json:"version"`
	Warnings []string      `json:"warnings"`
	Upgrades []UpgradePair `json:"upgrades"`
}

// Validate only checks shape. Membership and duplicate filtering happen in the
// caller, which knows the shortlist.
func (o *HypothesesForwardOutput) Validate() error {
	if o.Upgrades == nil {
		return fmt.Errorf("upgrades missing")
	}
	return nil
}

type HypothesesReverseOutput struct {
	Version  int      `json:"version"`
	Warnings []string `json:"warnings"`
	Story    string   `json:"story"`
}

func (o *HypothesesReverseOutput) Validate() error {
	if strings.TrimSpace(o.Story) == "" {
		return fmt.Errorf("story empty")
	}
	return nil
}
