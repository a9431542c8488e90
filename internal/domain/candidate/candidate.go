// Package candidate models a proposed structure as it moves through the
// screening gates, and holds the scoring and ranking rules applied to it.
package candidate

import (
	"strings"

	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// Prediction is the best-effort property prediction attached to a candidate.
type Prediction = ptypes.PropertyPrediction

// DesiredProfile carries the caller's preferences.  It is immutable input.
type DesiredProfile struct {
	LowToxicity       bool
	HighSolubility    bool
	AvoidBBB          bool
	RequireRuleOfFive bool
}

// DefaultDesiredProfile prefers low toxicity, high solubility and Rule-of-Five
// compliance, and does not care about blood-brain-barrier penetration.
func DefaultDesiredProfile() DesiredProfile {
	return DesiredProfile{LowToxicity: true, HighSolubility: true, RequireRuleOfFive: true}
}

// ProfileFromWire converts the request flags; nil yields the default profile.
func ProfileFromWire(p *ptypes.DesiredProperties) DesiredProfile {
	if p == nil {
		return DefaultDesiredProfile()
	}
	return DesiredProfile{
		LowToxicity:       p.ToxicityLow,
		HighSolubility:    p.SolubilityHigh,
		AvoidBBB:          p.BBBNo,
		RequireRuleOfFive: p.RO5Yes,
	}
}

// Wire converts back to the request flags.
func (d DesiredProfile) Wire() ptypes.DesiredProperties {
	return ptypes.DesiredProperties{
		ToxicityLow:    d.LowToxicity,
		SolubilityHigh: d.HighSolubility,
		BBBNo:          d.AvoidBBB,
		RO5Yes:         d.RequireRuleOfFive,
	}
}

// Constraints bound a generation request.
type Constraints struct {
	MinWeight *int
	MaxWeight *int
	Groups    string
}

func ConstraintsFromWire(c ptypes.GenerationConstraints) Constraints {
	return Constraints{MinWeight: c.MWMin, MaxWeight: c.MWMax, Groups: c.Groups}
}

func (c Constraints) Wire() ptypes.GenerationConstraints {
	return ptypes.GenerationConstraints{MWMin: c.MinWeight, MWMax: c.MaxWeight, Groups: c.Groups}
}

// Candidate is one proposal.  Gate fields are set once as the candidate
// passes each stage and never reverted.  Score is meaningful only when
// Valid && !Filtered.
type Candidate struct {
	Structure     string
	Canonical     string
	Rationale     string
	Valid         bool
	Unique        bool
	Synthesizable bool
	Filtered      bool
	Score         float64
	Properties    *Prediction
}

func NewCandidate(structure, rationale string) *Candidate {
	return &Candidate{Structure: structure, Rationale: rationale}
}

// Scorable reports whether the candidate should be sent to the predictor.
func (c *Candidate) Scorable() bool {
	return c.Valid && !c.Filtered
}

// Reject fixes the terminal filtered state: score 0 and no property data.
func (c *Candidate) Reject() {
	c.Filtered = true
	c.Score = 0
	c.Properties = nil
}

// DedupKey is the canonical form, or the trimmed raw string when no
// canonical form was produced.
func (c *Candidate) DedupKey() string {
	if c.Canonical != "" {
		return c.Canonical
	}
	return strings.TrimSpace(c.Structure)
}

// ToWire renders the candidate for API responses.  Valid candidates are
// reported under their canonical form.
func (c *Candidate) ToWire() ptypes.Candidate {
	smiles := c.Structure
	if c.Valid && c.Canonical != "" {
		smiles = c.Canonical
	}
	return ptypes.Candidate{
		SMILES:        smiles,
		Canonical:     c.Canonical,
		Rationale:     c.Rationale,
		Valid:         c.Valid,
		Unique:        c.Unique,
		Synthesizable: c.Synthesizable,
		Filtered:      c.Filtered,
		Score:         c.Score,
		Properties:    c.Properties,
	}
}

// FromWire rebuilds a candidate from its wire form, as read back from storage.
func FromWire(w ptypes.Candidate) *Candidate {
	return &Candidate{
		Structure:     w.SMILES,
		Canonical:     w.Canonical,
		Rationale:     w.Rationale,
		Valid:         w.Valid,
		Unique:        w.Unique,
		Synthesizable: w.Synthesizable,
		Filtered:      w.Filtered,
		Score:         w.Score,
		Properties:    w.Properties,
	}
}

// ToWireList converts a ranked slice.
func ToWireList(cs []*Candidate) []ptypes.Candidate {
	out := make([]ptypes.Candidate, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ToWire())
	}
	return out
}

//Personal.AI order the ending
