package screening

import (
	"fmt"
	"strings"

	"github.com/turtacn/MolSieve/internal/domain/molecule"
)

// Synthesizability thresholds.  A value equal to the threshold passes.
const (
	SynthMaxWeight         = 500.0
	SynthMaxLength         = 200
	SynthMaxHalogens       = 8
	SynthMaxRotatableBonds = 15
	SynthMaxAlerts         = 2
)

// Reasons reported without parameters.
const (
	ReasonInvalidStructure = "Invalid SMILES"
	ReasonTooLong          = "SMILES too long (>200 chars)"
	ReasonHighSeverity     = "Contains high-severity toxicophores"
	ReasonInterference     = "Matches PAINS filters"
)

// Assessor is the synthesizability triage gate.  Rules run in a fixed
// priority order and the first failure decides the reason; reordering them
// changes what a borderline structure reports.
type Assessor struct {
	calc   *molecule.PropertyCalculator
	screen *SafetyScreen
}

func NewAssessor(calc *molecule.PropertyCalculator, screen *SafetyScreen) *Assessor {
	return &Assessor{calc: calc, screen: screen}
}

// Assess runs the gate.  The safety screen is evaluated lazily, only when the
// cheaper composition rules pass.
func (a *Assessor) Assess(s string, parsed molecule.ParsedStructure) (bool, string) {
	return a.assess(s, parsed, nil)
}

// AssessScreened is Assess with a precomputed safety result, for callers
// that already screened the structure.
func (a *Assessor) AssessScreened(s string, parsed molecule.ParsedStructure, res Result) (bool, string) {
	return a.assess(s, parsed, &res)
}

func (a *Assessor) assess(s string, parsed molecule.ParsedStructure, res *Result) (bool, string) {
	if parsed == nil {
		return false, ReasonInvalidStructure
	}

	mw, err := a.calc.MolecularWeight(parsed)
	if err != nil {
		return false, checkError(err)
	}
	if mw > SynthMaxWeight {
		return false, fmt.Sprintf("Molecular weight too high (%.0f > 500)", mw)
	}

	if len(s) > SynthMaxLength {
		return false, ReasonTooLong
	}

	halogens, err := a.calc.CountAtoms(parsed, molecule.Halogens...)
	if err != nil {
		return false, checkError(err)
	}
	if halogens > SynthMaxHalogens {
		return false, fmt.Sprintf("Too many halogens (%d > 8)", halogens)
	}

	rotatable, err := a.calc.RotatableBonds(parsed)
	if err != nil {
		return false, checkError(err)
	}
	if rotatable > SynthMaxRotatableBonds {
		return false, fmt.Sprintf("Too many rotatable bonds (%d > 15)", rotatable)
	}

	if res != nil {
		return verdictFromScreen(*res)
	}

	if (Result{Toxicophores: a.screen.Toxicophores(parsed)}).HasHighSeverity() {
		return false, ReasonHighSeverity
	}
	if a.screen.Interference(parsed) {
		return false, ReasonInterference
	}
	return verdictFromScreen(Result{StructuralAlerts: a.screen.StructuralAlerts(parsed)})
}

// verdictFromScreen applies rules 5 to 7 to a screen result.
func verdictFromScreen(res Result) (bool, string) {
	if res.HasHighSeverity() {
		return false, ReasonHighSeverity
	}
	if res.Interference {
		return false, ReasonInterference
	}
	if len(res.StructuralAlerts) > SynthMaxAlerts {
		return false, "Multiple structural alerts: " + strings.Join(res.StructuralAlerts, ", ")
	}
	return true, ""
}

func checkError(err error) string {
	return "Error during synthesis check: " + err.Error()
}

//Personal.AI order the ending
