// Package screening implements the structure-level triage rules: toxicophore
// and assay-interference matching, composition alerts, the synthesizability
// gate and the validation report that bundles them.
package screening

import (
	"github.com/turtacn/MolSieve/internal/domain/molecule"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// ToxicophoreRule is one row of the toxicophore library.
type ToxicophoreRule struct {
	Pattern  string
	Name     string
	Severity ptypes.Severity
}

// ToxicophoreLibrary is evaluated in order; matches are reported in this
// order regardless of significance.
var ToxicophoreLibrary = []ToxicophoreRule{
	{Pattern: "N(=O)=O", Name: "Nitro group", Severity: ptypes.SeverityHigh},
	{Pattern: "N#N", Name: "Diazo group", Severity: ptypes.SeverityHigh},
	{Pattern: "[NX3;H0;!$(NC=O)]~[NX3;H0;!$(NC=O)]", Name: "Azo group", Severity: ptypes.SeverityHigh},
	{Pattern: "ClCl", Name: "Vicinal dichloride", Severity: ptypes.SeverityMedium},
	{Pattern: "S(=O)(=O)", Name: "Sulfonyl", Severity: ptypes.SeverityLow},
	{Pattern: "[N+](=O)[O-]", Name: "Nitro (formal charge)", Severity: ptypes.SeverityHigh},
}

// InterferenceScaffold is a known assay-interference core.  Scaffolds are
// plain structures matched with perceived aromaticity and exact bond orders.
type InterferenceScaffold struct {
	Name      string
	Structure string
}

var InterferenceLibrary = []InterferenceScaffold{
	{Name: "anthracene", Structure: "c1ccc2c(c1)ccc1ccccc12"},
	{Name: "naphthalene", Structure: "c1cc2ccccc2cc1"},
	{Name: "benzoyl", Structure: "C1=CC=C(C=C1)C(=O)"},
}

// Structural alert names.
const (
	AlertHalogenExcess     = "halogen_excess"
	AlertSulfurExcess      = "sulfur_excess"
	AlertPhosphorusPresent = "phosphorus_present"
)

// structuralAlert is a named boolean rule over atom counts.
type structuralAlert struct {
	name      string
	elements  []int
	threshold int // fires when count > threshold
}

var structuralAlerts = []structuralAlert{
	{name: AlertHalogenExcess, elements: molecule.Halogens, threshold: 4},
	{name: AlertSulfurExcess, elements: []int{molecule.AtomicNumberSulfur}, threshold: 2},
	{name: AlertPhosphorusPresent, elements: []int{molecule.AtomicNumberPhosphorus}, threshold: 0},
}

// Result is the outcome of a safety screen.  The zero value means nothing
// was detected.
type Result struct {
	Toxicophores     []ptypes.ToxicophoreMatch
	Interference     bool
	StructuralAlerts []string
}

// HasHighSeverity reports whether any matched toxicophore is graded high.
func (r Result) HasHighSeverity() bool {
	for _, m := range r.Toxicophores {
		if m.Severity == ptypes.SeverityHigh {
			return true
		}
	}
	return false
}

// HasToxicophores reports whether any toxicophore matched, of any grade.
func (r Result) HasToxicophores() bool { return len(r.Toxicophores) > 0 }

// SafetyScreen evaluates the fixed pattern libraries through the injected
// matcher.  It never fails: an unusable pattern or structure contributes
// nothing.
type SafetyScreen struct {
	parser       molecule.Parser
	matcher      molecule.SubstructureMatcher
	composition  molecule.CompositionService
	toxicophores []ToxicophoreRule
	scaffolds    []InterferenceScaffold
	log          logging.Logger
}

// NewSafetyScreen builds a screen over a chemistry toolkit.
func NewSafetyScreen(tk molecule.Toolkit, log logging.Logger) *SafetyScreen {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SafetyScreen{
		parser:       tk,
		matcher:      tk,
		composition:  tk,
		toxicophores: ToxicophoreLibrary,
		scaffolds:    InterferenceLibrary,
		log:          log,
	}
}

// Screen runs all three rule families against an already parsed structure.
func (s *SafetyScreen) Screen(parsed molecule.ParsedStructure) Result {
	if parsed == nil {
		return Result{}
	}
	return Result{
		Toxicophores:     s.Toxicophores(parsed),
		Interference:     s.Interference(parsed),
		StructuralAlerts: s.StructuralAlerts(parsed),
	}
}

// ScreenString parses raw first.  Unparsable input yields the empty result.
func (s *SafetyScreen) ScreenString(raw string) Result {
	parsed, err := s.parser.Parse(raw)
	if err != nil || parsed == nil {
		return Result{}
	}
	return s.Screen(parsed)
}

// Toxicophores returns the library matches in library order.
func (s *SafetyScreen) Toxicophores(parsed molecule.ParsedStructure) []ptypes.ToxicophoreMatch {
	matches := make([]ptypes.ToxicophoreMatch, 0)
	for _, rule := range s.toxicophores {
		ok, err := s.matcher.HasSubstructure(parsed, molecule.Pattern{Expr: rule.Pattern, Kind: molecule.PatternSMARTS})
		if err != nil {
			s.log.Debug("toxicophore pattern skipped",
				logging.String("pattern", rule.Pattern), logging.Err(err))
			continue
		}
		if ok {
			matches = append(matches, ptypes.ToxicophoreMatch{
				Pattern:  rule.Pattern,
				Name:     rule.Name,
				Severity: rule.Severity,
			})
		}
	}
	return matches
}

// Interference reports whether any scaffold is contained in the structure.
func (s *SafetyScreen) Interference(parsed molecule.ParsedStructure) bool {
	for _, sc := range s.scaffolds {
		ok, err := s.matcher.HasSubstructure(parsed, molecule.Pattern{Expr: sc.Structure, Kind: molecule.PatternSMILES})
		if err != nil {
			s.log.Debug("interference scaffold skipped",
				logging.String("scaffold", sc.Name), logging.Err(err))
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// StructuralAlerts returns the names of the composition rules that fired.
func (s *SafetyScreen) StructuralAlerts(parsed molecule.ParsedStructure) []string {
	fired := make([]string, 0)
	for _, a := range structuralAlerts {
		n, err := s.composition.CountAtoms(parsed, a.elements...)
		if err != nil {
			continue
		}
		if n > a.threshold {
			fired = append(fired, a.name)
		}
	}
	return fired
}

//Personal.AI order the ending
