// Package chem is a pure-Go SMILES toolkit.  It parses the OpenSMILES subset
// emitted by proposal sources, perceives aromaticity, renders canonical
// SMILES, computes the descriptors used by screening and matches SMARTS
// patterns.  It implements the molecule.Toolkit collaborator contracts.
package chem

// element describes one entry of the periodic table as far as SMILES
// handling is concerned.
type element struct {
	Symbol string
	Number int
	Mass   float64
	// Valences are the allowed valences, lowest first.  Elements without
	// them are never valence-checked.
	Valences []int
}

var elements = []element{
	{"H", 1, 1.008, []int{1}},
	{"He", 2, 4.003, nil},
	{"Li", 3, 6.94, nil},
	{"Be", 4, 9.012, nil},
	{"B", 5, 10.81, []int{3}},
	{"C", 6, 12.011, []int{4}},
	{"N", 7, 14.007, []int{3, 5}},
	{"O", 8, 15.999, []int{2}},
	{"F", 9, 18.998, []int{1}},
	{"Ne", 10, 20.180, nil},
	{"Na", 11, 22.990, nil},
	{"Mg", 12, 24.305, nil},
	{"Al", 13, 26.982, nil},
	{"Si", 14, 28.086, nil},
	{"P", 15, 30.974, []int{3, 5}},
	{"S", 16, 32.067, []int{2, 4, 6}},
	{"Cl", 17, 35.453, []int{1}},
	{"Ar", 18, 39.948, nil},
	{"K", 19, 39.098, nil},
	{"Ca", 20, 40.078, nil},
	{"Mn", 25, 54.938, nil},
	{"Fe", 26, 55.845, nil},
	{"Co", 27, 58.933, nil},
	{"Ni", 28, 58.693, nil},
	{"Cu", 29, 63.546, nil},
	{"Zn", 30, 65.38, nil},
	{"Ga", 31, 69.723, nil},
	{"Ge", 32, 72.630, nil},
	{"As", 33, 74.922, []int{3, 5}},
	{"Se", 34, 78.971, []int{2, 4, 6}},
	{"Br", 35, 79.904, []int{1}},
	{"Kr", 36, 83.798, nil},
	{"Rb", 37, 85.468, nil},
	{"Sr", 38, 87.62, nil},
	{"Ag", 47, 107.868, nil},
	{"Cd", 48, 112.414, nil},
	{"Sn", 50, 118.710, nil},
	{"Sb", 51, 121.760, nil},
	{"Te", 52, 127.60, []int{2, 4, 6}},
	{"I", 53, 126.904, []int{1}},
	{"Xe", 54, 131.293, nil},
	{"Cs", 55, 132.905, nil},
	{"Ba", 56, 137.327, nil},
	{"Pt", 78, 195.084, nil},
	{"Au", 79, 196.967, nil},
	{"Hg", 80, 200.592, nil},
	{"Pb", 82, 207.2, nil},
	{"Bi", 83, 208.980, nil},
}

var (
	bySymbol = make(map[string]*element, len(elements))
	byNumber = make(map[int]*element, len(elements))
)

func init() {
	for i := range elements {
		e := &elements[i]
		bySymbol[e.Symbol] = e
		byNumber[e.Number] = e
	}
}

// organicSubset lists the symbols allowed outside brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true,
}

// aromaticSymbols lists the lowercase symbols accepted for aromatic atoms.
var aromaticSymbols = map[string]string{
	"b": "B", "c": "C", "n": "N", "o": "O", "p": "P", "s": "S",
	"se": "Se", "as": "As", "te": "Te",
}

// lonePairDonors contribute two electrons to an aromatic ring when they carry
// no double bond.
var lonePairDonors = map[int]bool{7: true, 8: true, 15: true, 16: true, 34: true, 52: true}

// chargedValence adjusts the first default valence of an element for a
// formal charge, treating the ion as isoelectronic with its neighbour.
func chargedValence(e *element, charge int) []int {
	if len(e.Valences) == 0 {
		return nil
	}
	if charge == 0 {
		return e.Valences
	}
	switch e.Number {
	case 5: // B- behaves like C, B+ has two bonds
		return []int{e.Valences[0] + sign(-charge)*abs(charge)}
	case 6: // carbocation or carbanion
		return []int{3}
	case 7, 15:
		if charge > 0 {
			return []int{4}
		}
		return []int{2}
	case 8, 16, 34:
		if charge > 0 {
			return []int{3}
		}
		return []int{1}
	}
	v := e.Valences[0] - abs(charge)
	if v < 0 {
		v = 0
	}
	return []int{v}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

//Personal.AI order the ending
