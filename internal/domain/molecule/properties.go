package molecule

import (
	"fmt"
	"math"

	"github.com/turtacn/MolSieve/pkg/errors"
)

// Lipinski limits.  A value equal to the limit passes.
const (
	LipinskiMaxWeight    = 500.0
	LipinskiMaxDonors    = 5
	LipinskiMaxAcceptors = 10
	LipinskiMaxLogP      = 5.0
)

// Atomic numbers used by composition rules.
const (
	AtomicNumberFluorine   = 9
	AtomicNumberPhosphorus = 15
	AtomicNumberSulfur     = 16
	AtomicNumberChlorine   = 17
	AtomicNumberBromine    = 35
	AtomicNumberIodine     = 53
)

// Halogens lists F, Cl, Br and I.
var Halogens = []int{AtomicNumberFluorine, AtomicNumberChlorine, AtomicNumberBromine, AtomicNumberIodine}

// PropertyRecord holds the descriptors of one parsed structure.  It is built
// once by PropertyCalculator and never mutated afterwards.
type PropertyRecord struct {
	MolecularWeight  float64  `json:"molecular_weight"`
	LogP             float64  `json:"logp"`
	HBondDonors      int      `json:"h_bond_donors"`
	HBondAcceptors   int      `json:"h_bond_acceptors"`
	TPSA             float64  `json:"tpsa"`
	RotatableBonds   int      `json:"rotatable_bonds"`
	PassesRuleOfFive bool     `json:"passes"`
	Violations       []string `json:"violations"`
}

// EvaluateRuleOfFive returns the Lipinski verdict and the ordered list of
// violated rules.  Violations is never nil.
func EvaluateRuleOfFive(weight float64, donors, acceptors int, logP float64) (bool, []string) {
	violations := make([]string, 0, 4)
	if weight > LipinskiMaxWeight {
		violations = append(violations, "MW > 500")
	}
	if donors > LipinskiMaxDonors {
		violations = append(violations, "HBD > 5")
	}
	if acceptors > LipinskiMaxAcceptors {
		violations = append(violations, "HBA > 10")
	}
	if logP > LipinskiMaxLogP {
		violations = append(violations, "LogP > 5")
	}
	return len(violations) == 0, violations
}

// Round2 rounds to two decimal places for reporting.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PropertyCalculator is the typed adapter over the external descriptor and
// composition services.
type PropertyCalculator struct {
	descriptors DescriptorService
	composition CompositionService
}

// NewPropertyCalculator builds a calculator.  composition may be nil, in
// which case Formula and CountAtoms report ErrCodeDescriptorFailed.
func NewPropertyCalculator(descriptors DescriptorService, composition CompositionService) *PropertyCalculator {
	return &PropertyCalculator{descriptors: descriptors, composition: composition}
}

// NewToolkitCalculator builds a calculator from a single backend.
func NewToolkitCalculator(tk Toolkit) *PropertyCalculator {
	return NewPropertyCalculator(tk, tk)
}

// Calculate computes the full PropertyRecord.  The first failing descriptor
// aborts the computation.
func (c *PropertyCalculator) Calculate(p ParsedStructure) (*PropertyRecord, error) {
	if p == nil {
		return nil, errors.New(errors.ErrCodeDescriptorFailed, "nil structure")
	}

	rec := &PropertyRecord{}
	var err error

	if rec.MolecularWeight, err = c.descriptors.MolecularWeight(p); err != nil {
		return nil, descriptorErr("molecular weight", err)
	}
	if rec.LogP, err = c.descriptors.LogP(p); err != nil {
		return nil, descriptorErr("logP", err)
	}
	if rec.HBondDonors, err = c.descriptors.HBondDonors(p); err != nil {
		return nil, descriptorErr("h-bond donors", err)
	}
	if rec.HBondAcceptors, err = c.descriptors.HBondAcceptors(p); err != nil {
		return nil, descriptorErr("h-bond acceptors", err)
	}
	if rec.TPSA, err = c.descriptors.TPSA(p); err != nil {
		return nil, descriptorErr("tpsa", err)
	}
	if rec.RotatableBonds, err = c.descriptors.RotatableBonds(p); err != nil {
		return nil, descriptorErr("rotatable bonds", err)
	}

	rec.PassesRuleOfFive, rec.Violations = EvaluateRuleOfFive(
		rec.MolecularWeight, rec.HBondDonors, rec.HBondAcceptors, rec.LogP)
	return rec, nil
}

// MolecularWeight is a single-descriptor shortcut used by the synthesizability
// gate.
func (c *PropertyCalculator) MolecularWeight(p ParsedStructure) (float64, error) {
	w, err := c.descriptors.MolecularWeight(p)
	if err != nil {
		return 0, descriptorErr("molecular weight", err)
	}
	return w, nil
}

// RotatableBonds is a single-descriptor shortcut.
func (c *PropertyCalculator) RotatableBonds(p ParsedStructure) (int, error) {
	n, err := c.descriptors.RotatableBonds(p)
	if err != nil {
		return 0, descriptorErr("rotatable bonds", err)
	}
	return n, nil
}

func (c *PropertyCalculator) Formula(p ParsedStructure) (string, error) {
	if c.composition == nil {
		return "", errors.New(errors.ErrCodeDescriptorFailed, "composition service not configured")
	}
	f, err := c.composition.Formula(p)
	if err != nil {
		return "", descriptorErr("formula", err)
	}
	return f, nil
}

// CountAtoms counts atoms whose atomic number is in atomicNumbers.
func (c *PropertyCalculator) CountAtoms(p ParsedStructure, atomicNumbers ...int) (int, error) {
	if c.composition == nil {
		return 0, errors.New(errors.ErrCodeDescriptorFailed, "composition service not configured")
	}
	n, err := c.composition.CountAtoms(p, atomicNumbers...)
	if err != nil {
		return 0, descriptorErr("atom count", err)
	}
	return n, nil
}

func descriptorErr(what string, err error) error {
	return errors.Wrap(err, errors.ErrCodeDescriptorFailed, fmt.Sprintf("failed to compute %s", what)).
		WithDetail(err.Error())
}

//Personal.AI order the ending
