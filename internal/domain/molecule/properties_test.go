package molecule

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSieve/pkg/errors"
)

func TestEvaluateRuleOfFive(t *testing.T) {
	tests := []struct {
		name       string
		mw         float64
		hbd, hba   int
		logP       float64
		passes     bool
		violations []string
	}{
		{"aspirin", 180.16, 1, 4, 1.31, true, []string{}},
		{"at limits", 500, 5, 10, 5, true, []string{}},
		{"heavy", 612.7, 2, 6, 3.2, false, []string{"MW > 500"}},
		{"everything", 800, 6, 11, 7.5, false, []string{"MW > 500", "HBD > 5", "HBA > 10", "LogP > 5"}},
		{"lipophilic donor", 320, 7, 3, 5.01, false, []string{"HBD > 5", "LogP > 5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passes, violations := EvaluateRuleOfFive(tt.mw, tt.hbd, tt.hba, tt.logP)
			assert.Equal(t, tt.passes, passes)
			assert.Equal(t, tt.violations, violations)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 60.05, Round2(60.052))
	assert.Equal(t, -0.17, Round2(-0.1741))
}

func newDescriptorMock(g ParsedStructure) *MockDescriptors {
	d := new(MockDescriptors)
	d.On("MolecularWeight", g).Return(60.052, nil)
	d.On("LogP", g).Return(0.0909, nil)
	d.On("HBondDonors", g).Return(1, nil)
	d.On("HBondAcceptors", g).Return(2, nil)
	d.On("TPSA", g).Return(37.3, nil)
	d.On("RotatableBonds", g).Return(0, nil)
	return d
}

func TestPropertyCalculator_Calculate(t *testing.T) {
	g := &fakeGraph{src: "CC(=O)O"}
	calc := NewPropertyCalculator(newDescriptorMock(g), nil)

	rec, err := calc.Calculate(g)
	require.NoError(t, err)
	assert.InDelta(t, 60.052, rec.MolecularWeight, 1e-9)
	assert.Equal(t, 1, rec.HBondDonors)
	assert.Equal(t, 2, rec.HBondAcceptors)
	assert.True(t, rec.PassesRuleOfFive)
	assert.Empty(t, rec.Violations)
	assert.NotNil(t, rec.Violations)
}

func TestPropertyCalculator_DescriptorFailure(t *testing.T) {
	g := &fakeGraph{}
	d := new(MockDescriptors)
	d.On("MolecularWeight", g).Return(120.0, nil)
	d.On("LogP", g).Return(0.0, fmt.Errorf("unsupported atom"))

	_, err := NewPropertyCalculator(d, nil).Calculate(g)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDescriptorFailed))
	d.AssertNotCalled(t, "HBondDonors", mock.Anything)
}

func TestPropertyCalculator_NilStructure(t *testing.T) {
	_, err := NewPropertyCalculator(new(MockDescriptors), nil).Calculate(nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDescriptorFailed))
}

func TestPropertyCalculator_Composition(t *testing.T) {
	g := &fakeGraph{}
	comp := new(MockComposition)
	comp.On("Formula", g).Return("C2H4O2", nil)
	comp.On("CountAtoms", g, Halogens).Return(3, nil)

	calc := NewPropertyCalculator(new(MockDescriptors), comp)

	f, err := calc.Formula(g)
	require.NoError(t, err)
	assert.Equal(t, "C2H4O2", f)

	n, err := calc.CountAtoms(g, Halogens...)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPropertyCalculator_CompositionMissing(t *testing.T) {
	calc := NewPropertyCalculator(new(MockDescriptors), nil)

	_, err := calc.Formula(&fakeGraph{})
	assert.Error(t, err)
	_, err = calc.CountAtoms(&fakeGraph{}, AtomicNumberSulfur)
	assert.Error(t, err)
}

//Personal.AI order the ending
