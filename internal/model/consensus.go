package model

import (
	"errors"
	"fmt"
)

// ConsensusAnalysis groups a discussion's responses into themes and names the
// group the participants converged on. Member indices are 1-based positions in
// the ordered response list that was analyzed.
type ConsensusAnalysis struct {
	Question  string           `json:"question" jsonschema:"description=The discussion question exactly as asked"`
	Groups    []ConsensusGroup `json:"groups" jsonschema:"description=Clusters of semantically similar responses"`
	Consensus ConsensusRecord  `json:"consensus"`
}

type ConsensusGroup struct {
	ID       string `json:"id" jsonschema:"description=Short unique identifier for the group such as g1"`
	Label    string `json:"label" jsonschema:"description=Short human readable name of the theme"`
	Criteria string `json:"criteria" jsonschema:"description=What responses in this group have in common"`
	Members  []int  `json:"members" jsonschema:"description=1-based indices of the responses in this group"`
	Count    int    `json:"count" jsonschema:"description=Number of responses in this group"`
}

type ConsensusRecord struct {
	GroupID    string  `json:"group_id" jsonschema:"description=id of the group that represents the consensus"`
	Label      string  `json:"label" jsonschema:"description=Label of the consensus group"`
	Confidence float64 `json:"confidence" jsonschema:"description=Agreement level between 0 and 1"`
	Reasoning  string  `json:"reasoning" jsonschema:"description=Why this group is the consensus"`
}

var ErrInvalidAnalysis = errors.New("invalid consensus analysis")

// Validate checks a ConsensusAnalysis produced for n responses. Every group
// needs an id, label and at least one member; members must lie in 1..n and
// appear in only one group; counts must match members and add up to n; the
// consensus must point at an existing group with confidence in [0,1].
func (a *ConsensusAnalysis) Validate(n int) error {
	if a == nil {
		return fmt.Errorf("%w: missing analysis", ErrInvalidAnalysis)
	}
	if a.Question == "" {
		return fmt.Errorf("%w: missing question", ErrInvalidAnalysis)
	}
	if len(a.Groups) == 0 {
		return fmt.Errorf("%w: no groups", ErrInvalidAnalysis)
	}

	groupIDs := make(map[string]struct{}, len(a.Groups))
	seen := make(map[int]struct{}, n)
	total := 0
	for i, g := range a.Groups {
		if g.ID == "" || g.Label == "" {
			return fmt.Errorf("%w: group %d missing id or label", ErrInvalidAnalysis, i)
		}
		if _, dup := groupIDs[g.ID]; dup {
			return fmt.Errorf("%w: duplicate group id %q", ErrInvalidAnalysis, g.ID)
		}
		groupIDs[g.ID] = struct{}{}

		if len(g.Members) == 0 {
			return fmt.Errorf("%w: group %q has no members", ErrInvalidAnalysis, g.ID)
		}
		if g.Count != len(g.Members) {
			return fmt.Errorf("%w: group %q count %d does not match %d members", ErrInvalidAnalysis, g.ID, g.Count, len(g.Members))
		}
		for _, m := range g.Members {
			if m < 1 || m > n {
				return fmt.Errorf("%w: group %q member %d out of range 1..%d", ErrInvalidAnalysis, g.ID, m, n)
			}
			if _, dup := seen[m]; dup {
				return fmt.Errorf("%w: response %d assigned to more than one group", ErrInvalidAnalysis, m)
			}
			seen[m] = struct{}{}
		}
		total += g.Count
	}

	if total != n {
		return fmt.Errorf("%w: group counts sum to %d, want %d", ErrInvalidAnalysis, total, n)
	}

	c := a.Consensus
	if c.GroupID == "" || c.Label == "" {
		return fmt.Errorf("%w: consensus missing group_id or label", ErrInvalidAnalysis)
	}
	if _, ok := groupIDs[c.GroupID]; !ok {
		return fmt.Errorf("%w: consensus references unknown group %q", ErrInvalidAnalysis, c.GroupID)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidAnalysis, c.Confidence)
	}

	return nil
}

// Group returns the group with the given id, or nil.
func (a *ConsensusAnalysis) Group(id string) *ConsensusGroup {
	for i := range a.Groups {
		if a.Groups[i].ID == id {
			return &a.Groups[i]
		}
	}
	return nil
}
