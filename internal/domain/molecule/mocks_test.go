package molecule

import (
	"github.com/stretchr/testify/mock"
)

type MockParser struct {
	mock.Mock
}

func (m *MockParser) Parse(s string) (ParsedStructure, error) {
	args := m.Called(s)
	return args.Get(0), args.Error(1)
}

func (m *MockParser) Canonicalize(p ParsedStructure) (string, error) {
	args := m.Called(p)
	return args.String(0), args.Error(1)
}

type MockDescriptors struct {
	mock.Mock
}

func (m *MockDescriptors) MolecularWeight(p ParsedStructure) (float64, error) {
	args := m.Called(p)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockDescriptors) LogP(p ParsedStructure) (float64, error) {
	args := m.Called(p)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockDescriptors) HBondDonors(p ParsedStructure) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockDescriptors) HBondAcceptors(p ParsedStructure) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockDescriptors) TPSA(p ParsedStructure) (float64, error) {
	args := m.Called(p)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockDescriptors) RotatableBonds(p ParsedStructure) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

type MockComposition struct {
	mock.Mock
}

func (m *MockComposition) CountAtoms(p ParsedStructure, atomicNumbers ...int) (int, error) {
	args := m.Called(p, atomicNumbers)
	return args.Int(0), args.Error(1)
}

func (m *MockComposition) Formula(p ParsedStructure) (string, error) {
	args := m.Called(p)
	return args.String(0), args.Error(1)
}

type mapCache map[string]string

func (c mapCache) Get(key string) (string, bool) {
	v, ok := c[key]
	return v, ok
}

func (c mapCache) Set(key, value string) { c[key] = value }

//Personal.AI order the ending
