// Package screening defines the wire-level data transfer objects exchanged by
// the MolSieve API, its Go client and the Kafka worker.
package screening

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Safety
// ─────────────────────────────────────────────────────────────────────────────

// Severity grades a toxicophore.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// IsValid reports whether s is one of the three known grades.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// ToxicophoreMatch is one library pattern found in a structure.
type ToxicophoreMatch struct {
	Pattern  string   `json:"pattern"`
	Name     string   `json:"name"`
	Severity Severity `json:"severity"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation report
// ─────────────────────────────────────────────────────────────────────────────

// LipinskiProperties is the rounded Rule-of-Five view of a structure.
type LipinskiProperties struct {
	MolecularWeight float64  `json:"molecular_weight"`
	HBondDonors     int      `json:"h_bond_donors"`
	HBondAcceptors  int      `json:"h_bond_acceptors"`
	LogP            float64  `json:"logp"`
	Passes          bool     `json:"passes"`
	Violations      []string `json:"violations"`
}

type ReportProperties struct {
	MolecularFormula *string            `json:"molecular_formula"`
	MolecularWeight  *float64           `json:"molecular_weight"`
	TPSA             *float64           `json:"tpsa"`
	Lipinski         *LipinskiProperties `json:"lipinski"`
}

type ReportSafety struct {
	Toxicophores     []ToxicophoreMatch `json:"toxicophores"`
	PainsMatch       bool               `json:"pains_match"`
	StructuralAlerts []string           `json:"structural_alerts"`
}

type ReportSynthesizability struct {
	Likely bool    `json:"likely"`
	Reason *string `json:"reason"`
}

// ValidationReport bundles every structure-derived fact for one input.
// Fields that could not be computed are null on the wire.
type ValidationReport struct {
	SMILES           string                 `json:"smiles"`
	CanonicalSMILES  *string                `json:"canonical_smiles"`
	Valid            bool                   `json:"valid"`
	Error            *string                `json:"error"`
	Properties       ReportProperties       `json:"properties"`
	Safety           ReportSafety           `json:"safety"`
	Synthesizability ReportSynthesizability `json:"synthesizability"`
}

// BatchItem is the compact per-entry result of a batch validation.
type BatchItem struct {
	SMILES          string             `json:"smiles"`
	Valid           bool               `json:"valid"`
	CanonicalSMILES *string            `json:"canonical_smiles,omitempty"`
	MolecularWeight *float64           `json:"molecular_weight,omitempty"`
	Synthesizable   *bool              `json:"synthesizable,omitempty"`
	Toxicophores    []ToxicophoreMatch `json:"toxicophores,omitempty"`
	PainsMatch      *bool              `json:"pains_match,omitempty"`
	Error           *string            `json:"error,omitempty"`
}

type ValidateStructureRequest struct {
	SMILES string `json:"smiles"`
}

// BatchValidateRequest carries raw JSON values so that non-string entries can
// be reported per item instead of failing the whole request.
type BatchValidateRequest struct {
	SMILESList []interface{} `json:"smiles_list"`
}

type BatchValidateResponse struct {
	Total     int         `json:"total"`
	Validated []BatchItem `json:"validated"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Property prediction
// ─────────────────────────────────────────────────────────────────────────────

type ToxicityPrediction struct {
	Score       *float64 `json:"score,omitempty"`
	Level       string   `json:"level,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

type SolubilityPrediction struct {
	Score   *float64 `json:"score,omitempty"`
	Details string   `json:"details,omitempty"`
}

type DrugLikenessPrediction struct {
	Score  *float64 `json:"score,omitempty"`
	Passes *bool    `json:"passes,omitempty"`
}

type BioavailabilityPrediction struct {
	Percentage  *float64 `json:"percentage,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

type BBBPrediction struct {
	CanCross   *bool  `json:"canCross,omitempty"`
	Confidence string `json:"confidence,omitempty"`
}

type LipinskiPrediction struct {
	Passes     *bool    `json:"passes,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// PropertyPrediction is the best-effort output of a property predictor.  Every
// section is optional; a missing value contributes nothing to a score.
type PropertyPrediction struct {
	Toxicity        *ToxicityPrediction        `json:"toxicity,omitempty"`
	Solubility      *SolubilityPrediction      `json:"solubility,omitempty"`
	DrugLikeness    *DrugLikenessPrediction    `json:"drugLikeness,omitempty"`
	Bioavailability *BioavailabilityPrediction `json:"bioavailability,omitempty"`
	BBBPenetration  *BBBPrediction             `json:"bbbPenetration,omitempty"`
	LipinskiRules   *LipinskiPrediction        `json:"lipinskiRules,omitempty"`
}

// IsEmpty reports whether no section was populated.
func (p *PropertyPrediction) IsEmpty() bool {
	return p == nil || (p.Toxicity == nil && p.Solubility == nil && p.DrugLikeness == nil &&
		p.Bioavailability == nil && p.BBBPenetration == nil && p.LipinskiRules == nil)
}

type PredictRequest struct {
	Molecule string `json:"molecule"`
	SMILES   string `json:"smiles,omitempty"`
}

type PredictionResult struct {
	Success     bool                `json:"success"`
	Molecule    string              `json:"molecule"`
	SMILES      string              `json:"smiles,omitempty"`
	Predictions *PropertyPrediction `json:"predictions"`
	Error       string              `json:"error,omitempty"`
	Heuristic   bool                `json:"heuristic"`
	Cached      bool                `json:"cached"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Generation
// ─────────────────────────────────────────────────────────────────────────────

// DesiredProperties are the caller's preference flags.
type DesiredProperties struct {
	ToxicityLow    bool `json:"toxicityLow"`
	SolubilityHigh bool `json:"solubilityHigh"`
	BBBNo          bool `json:"bbbNo"`
	RO5Yes         bool `json:"ro5Yes"`
}

// DefaultDesiredProperties returns the permissive default profile.
func DefaultDesiredProperties() DesiredProperties {
	return DesiredProperties{ToxicityLow: true, SolubilityHigh: true, BBBNo: false, RO5Yes: true}
}

type GenerationConstraints struct {
	MWMin  *int   `json:"mwMin,omitempty"`
	MWMax  *int   `json:"mwMax,omitempty"`
	Groups string `json:"groups,omitempty"`
}

// Generation strategies accepted by GenerateRequest.
const (
	StrategyGenetic     = "genetic"
	StrategyTransformer = "transformer"
	StrategyRNN         = "rnn"
	StrategyGraphML     = "graph-ml"
)

type GenerateRequest struct {
	Target      string                `json:"target"`
	Properties  *DesiredProperties    `json:"properties,omitempty"`
	Constraints GenerationConstraints `json:"constraints"`
	Count       int                   `json:"count"`
	Strategy    string                `json:"strategy,omitempty"`
	SeedSMILES  string                `json:"seedSmiles,omitempty"`
}

type Candidate struct {
	SMILES        string              `json:"smiles"`
	Canonical     string              `json:"canonical_smiles,omitempty"`
	Rationale     string              `json:"rationale,omitempty"`
	Valid         bool                `json:"valid"`
	Unique        bool                `json:"unique"`
	Synthesizable bool                `json:"synthesizable"`
	Filtered      bool                `json:"filtered"`
	Score         float64             `json:"score"`
	Properties    *PropertyPrediction `json:"properties"`
}

type GenerateResponse struct {
	OK        bool        `json:"ok"`
	Total     int         `json:"total"`
	Generated []Candidate `json:"generated"`
	RunID     string      `json:"run_id,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// RunSummary is the persisted header of a generation run.
type RunSummary struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Target      string    `json:"target"`
	Count       int       `json:"count"`
	Strategy    string    `json:"strategy"`
	FellBack    bool      `json:"fell_back"`
	CacheHit    bool      `json:"cache_hit"`
	Requests    int       `json:"requests"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunDetail is a run with its ranked candidates.
type RunDetail struct {
	RunSummary
	Candidates []Candidate `json:"candidates"`
}

//Personal.AI order the ending
