package screening

import (
	"fmt"

	"github.com/turtacn/MolSieve/internal/domain/molecule"
)

// fakeMol is a pre-digested structure: every descriptor and pattern answer
// is stored on the value itself.
type fakeMol struct {
	canonical string
	weight    float64
	logP      float64
	donors    int
	acceptors int
	tpsa      float64
	rotatable int
	formula   string
	atoms     map[int]int
	matches   map[string]bool
}

func (m *fakeMol) count(nums ...int) int {
	n := 0
	for _, z := range nums {
		n += m.atoms[z]
	}
	return n
}

// fakeToolkit resolves strings through a registry of fakeMols.
type fakeToolkit struct {
	mols         map[string]*fakeMol
	badPatterns  map[string]bool
	weightErr    error
	parseCalls   int
	patternCalls int
}

func newFakeToolkit() *fakeToolkit {
	return &fakeToolkit{mols: map[string]*fakeMol{}, badPatterns: map[string]bool{}}
}

func (f *fakeToolkit) add(s string, m *fakeMol) *fakeMol {
	if m.canonical == "" {
		m.canonical = s
	}
	if m.atoms == nil {
		m.atoms = map[int]int{}
	}
	if m.matches == nil {
		m.matches = map[string]bool{}
	}
	f.mols[s] = m
	return m
}

func (f *fakeToolkit) Parse(s string) (molecule.ParsedStructure, error) {
	f.parseCalls++
	m, ok := f.mols[s]
	if !ok {
		return nil, fmt.Errorf("cannot parse %q", s)
	}
	return m, nil
}

func (f *fakeToolkit) Canonicalize(p molecule.ParsedStructure) (string, error) {
	return p.(*fakeMol).canonical, nil
}

func (f *fakeToolkit) MolecularWeight(p molecule.ParsedStructure) (float64, error) {
	if f.weightErr != nil {
		return 0, f.weightErr
	}
	return p.(*fakeMol).weight, nil
}

func (f *fakeToolkit) LogP(p molecule.ParsedStructure) (float64, error) {
	return p.(*fakeMol).logP, nil
}

func (f *fakeToolkit) HBondDonors(p molecule.ParsedStructure) (int, error) {
	return p.(*fakeMol).donors, nil
}

func (f *fakeToolkit) HBondAcceptors(p molecule.ParsedStructure) (int, error) {
	return p.(*fakeMol).acceptors, nil
}

func (f *fakeToolkit) TPSA(p molecule.ParsedStructure) (float64, error) {
	return p.(*fakeMol).tpsa, nil
}

func (f *fakeToolkit) RotatableBonds(p molecule.ParsedStructure) (int, error) {
	return p.(*fakeMol).rotatable, nil
}

func (f *fakeToolkit) CountAtoms(p molecule.ParsedStructure, nums ...int) (int, error) {
	return p.(*fakeMol).count(nums...), nil
}

func (f *fakeToolkit) Formula(p molecule.ParsedStructure) (string, error) {
	return p.(*fakeMol).formula, nil
}

func (f *fakeToolkit) HasSubstructure(p molecule.ParsedStructure, pattern molecule.Pattern) (bool, error) {
	f.patternCalls++
	if f.badPatterns[pattern.Expr] {
		return false, fmt.Errorf("cannot compile %q", pattern.Expr)
	}
	return p.(*fakeMol).matches[pattern.Expr], nil
}

type fixture struct {
	tk       *fakeToolkit
	screen   *SafetyScreen
	assessor *Assessor
	reporter *Reporter
}

func newFixture(opts ...ReporterOption) *fixture {
	tk := newFakeToolkit()
	calc := molecule.NewToolkitCalculator(tk)
	screen := NewSafetyScreen(tk, nil)
	assessor := NewAssessor(calc, screen)
	reporter := NewReporter(molecule.NewValidator(tk), calc, screen, assessor, opts...)
	return &fixture{tk: tk, screen: screen, assessor: assessor, reporter: reporter}
}

//Personal.AI order the ending
