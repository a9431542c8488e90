package candidate

import "math"

// Score weights.
const (
	ToxicityWeight        = 0.25
	SolubilityWeight      = 0.25
	BioavailabilityWeight = 0.25
	RuleOfFivePassBonus   = 25.0
	RuleOfFiveFailBonus   = 5.0
	MaxScore              = 100.0
)

// Score combines a prediction into [0, 100].  Each term is independent and
// additive; a missing or non-finite input contributes nothing.  The weights
// do not depend on desired.
func Score(p *Prediction, desired DesiredProfile) float64 {
	if p == nil {
		return 0
	}

	score := 0.0
	if p.Toxicity != nil && finite(p.Toxicity.Score) {
		score += (100 - *p.Toxicity.Score) * ToxicityWeight
	}
	if p.Solubility != nil && finite(p.Solubility.Score) {
		score += *p.Solubility.Score * SolubilityWeight
	}
	if p.LipinskiRules != nil && p.LipinskiRules.Passes != nil {
		if *p.LipinskiRules.Passes {
			score += RuleOfFivePassBonus
		} else {
			score += RuleOfFiveFailBonus
		}
	}
	if p.Bioavailability != nil && finite(p.Bioavailability.Percentage) {
		score += *p.Bioavailability.Percentage * BioavailabilityWeight
	}
	return math.Max(0, math.Min(score, MaxScore))
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

//Personal.AI order the ending
