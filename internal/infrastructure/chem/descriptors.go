package chem

import (
	"sort"
	"strconv"
	"strings"
)

const hydrogenMass = 1.008

// MolecularWeight sums average atomic masses including implicit hydrogens.
func MolecularWeight(m *Mol) float64 {
	w := 0.0
	for _, a := range m.Atoms {
		if e := byNumber[a.Number]; e != nil {
			w += e.Mass
		}
		w += float64(a.HCount()) * hydrogenMass
	}
	return w
}

// Formula renders the Hill formula: C then H first when carbon is present,
// everything else alphabetical.  A net charge is appended as +, -, +2...
func Formula(m *Mol) string {
	counts := make(map[string]int)
	for _, a := range m.Atoms {
		counts[a.Symbol]++
		if h := a.HCount(); h > 0 {
			counts["H"] += h
		}
	}

	var sb strings.Builder
	write := func(sym string) {
		n := counts[sym]
		if n == 0 {
			return
		}
		sb.WriteString(sym)
		if n > 1 {
			sb.WriteString(strconv.Itoa(n))
		}
		delete(counts, sym)
	}

	if counts["C"] > 0 {
		write("C")
		write("H")
	}
	rest := make([]string, 0, len(counts))
	for sym := range counts {
		rest = append(rest, sym)
	}
	sort.Strings(rest)
	for _, sym := range rest {
		write(sym)
	}

	switch q := m.NetCharge(); {
	case q == 1:
		sb.WriteByte('+')
	case q == -1:
		sb.WriteByte('-')
	case q > 1:
		sb.WriteString("+" + strconv.Itoa(q))
	case q < -1:
		sb.WriteString(strconv.Itoa(q))
	}
	return sb.String()
}

// CountAtoms counts heavy atoms whose atomic number is in nums.  Hydrogen
// (1) also counts implicit hydrogens.
func CountAtoms(m *Mol, nums ...int) int {
	want := make(map[int]bool, len(nums))
	for _, n := range nums {
		want[n] = true
	}
	c := 0
	for _, a := range m.Atoms {
		if want[a.Number] {
			c++
		}
		if want[1] {
			c += a.HCount()
		}
	}
	return c
}

func isHetero(n int) bool {
	return n != 6 && n != 1
}

func heteroNeighbors(m *Mol, i int) int {
	c := 0
	for _, j := range m.Neighbors(i) {
		if isHetero(m.Atoms[j].Number) {
			c++
		}
	}
	return c
}

func aromaticNeighbors(m *Mol, i int) int {
	c := 0
	for _, j := range m.Neighbors(i) {
		if m.Atoms[j].Aromatic {
			c++
		}
	}
	return c
}

// ─────────────────────────────────────────────────────────────────────────────
// LogP (Wildman-Crippen atom contributions, reduced typing)
// ─────────────────────────────────────────────────────────────────────────────

// LogP estimates the octanol/water partition coefficient by summing
// per-atom contributions for heavy atoms and their hydrogens.
func LogP(m *Mol) float64 {
	total := 0.0
	for i, a := range m.Atoms {
		total += heavyContribution(m, i)
		if h := a.HCount(); h > 0 {
			total += float64(h) * hydrogenContribution(m, i)
		}
	}
	return total
}

func heavyContribution(m *Mol, i int) float64 {
	a := m.Atoms[i]
	switch a.Number {
	case 6:
		return carbonContribution(m, i)
	case 7:
		return nitrogenContribution(m, i)
	case 8:
		return oxygenContribution(m, i)
	case 9:
		return 0.4202
	case 17:
		return 0.6895
	case 35:
		return 0.8456
	case 53:
		return 0.8857
	case 15:
		return 0.8612
	case 16:
		switch {
		case a.Aromatic:
			return 0.6237
		case m.HasDoubleTo(i, 8):
			return -0.0024
		case a.Charge != 0:
			return -0.0024
		}
		return 0.6482
	case 1:
		return 0.1230
	}
	return 0
}

func carbonContribution(m *Mol, i int) float64 {
	a := m.Atoms[i]
	if a.Aromatic {
		hetero := false
		for _, j := range m.Neighbors(i) {
			if !m.Atoms[j].Aromatic && isHetero(m.Atoms[j].Number) {
				hetero = true
			}
		}
		switch {
		case a.HCount() > 0:
			return 0.1581
		case hetero:
			return 0.1360
		case aromaticNeighbors(m, i) == 3:
			return 0.2955
		}
		return 0.2713
	}

	for _, b := range m.AtomBonds(i) {
		switch b.Order {
		case 3:
			return 0.0017
		case 2:
			if isHetero(m.Atoms[b.Other(i)].Number) {
				return -0.2783
			}
			return 0.1551
		}
	}

	if heteroNeighbors(m, i) > 0 {
		if a.HCount() >= 2 {
			return -0.2035
		}
		return -0.2051
	}
	for _, j := range m.Neighbors(i) {
		if m.Atoms[j].Aromatic {
			return 0.08452
		}
	}
	if a.HCount() >= 2 {
		return 0.1441
	}
	return 0.0
}

func nitrogenContribution(m *Mol, i int) float64 {
	a := m.Atoms[i]
	switch {
	case a.Charge > 0:
		return -0.3396
	case a.Aromatic && a.HCount() > 0:
		return -0.4806
	case a.Aromatic:
		return -0.3239
	}
	for _, b := range m.AtomBonds(i) {
		if b.Order >= 2 {
			return -0.4806
		}
	}
	switch a.HCount() {
	case 2:
		return -1.0190
	case 1:
		return -0.7096
	}
	return -0.3187
}

func oxygenContribution(m *Mol, i int) float64 {
	a := m.Atoms[i]
	switch {
	case a.Charge < 0:
		return -1.3260
	case a.Aromatic:
		return 0.1552
	}
	for _, b := range m.AtomBonds(i) {
		if b.Order == 2 {
			if m.Atoms[b.Other(i)].Aromatic || aromaticNeighbors(m, b.Other(i)) > 0 {
				return 0.1129
			}
			return -0.1526
		}
	}
	if a.HCount() > 0 {
		return -0.2893
	}
	if aromaticNeighbors(m, i) > 0 {
		return -0.4195
	}
	return -0.0684
}

func hydrogenContribution(m *Mol, i int) float64 {
	a := m.Atoms[i]
	switch a.Number {
	case 6:
		return 0.1230
	case 7:
		return 0.2142
	case 8:
		for _, j := range m.Neighbors(i) {
			if m.HasDoubleTo(j, 8) {
				return 0.2980
			}
		}
		return -0.2677
	}
	return 0.2980
}

// ─────────────────────────────────────────────────────────────────────────────
// TPSA (Ertl fragment contributions, N and O only)
// ─────────────────────────────────────────────────────────────────────────────

// TPSA sums polar surface contributions of nitrogen and oxygen atoms.
func TPSA(m *Mol) float64 {
	total := 0.0
	for i, a := range m.Atoms {
		switch a.Number {
		case 7:
			total += nitrogenPSA(m, i)
		case 8:
			total += oxygenPSA(m, i)
		}
	}
	return total
}

type bondProfile struct {
	single, double, triple, aromatic int
}

func profile(m *Mol, i int) bondProfile {
	var p bondProfile
	for _, b := range m.AtomBonds(i) {
		switch {
		case b.Aromatic:
			p.aromatic++
		case b.Order == 1:
			p.single++
		case b.Order == 2:
			p.double++
		case b.Order == 3:
			p.triple++
		}
	}
	return p
}

func inThreeRing(m *Mol, i int) bool {
	if !m.Atoms[i].InRing {
		return false
	}
	for _, r := range findRings(m, 3) {
		for _, a := range r {
			if a == i {
				return true
			}
		}
	}
	return false
}

func nitrogenPSA(m *Mol, i int) float64 {
	a := m.Atoms[i]
	p := profile(m, i)
	h := a.HCount()
	heavy := p.single + p.double + p.triple + p.aromatic

	if a.Aromatic {
		switch {
		case a.Charge == 0 && h == 0 && p.aromatic == 2 && heavy == 2:
			return 12.89
		case a.Charge == 0 && h == 0 && p.aromatic == 3:
			return 4.41
		case a.Charge == 0 && h == 0 && p.aromatic == 2 && p.single == 1:
			return 4.93
		case a.Charge == 0 && h == 0 && p.aromatic == 2 && p.double == 1:
			return 8.39
		case a.Charge == 0 && h == 1 && p.aromatic == 2:
			return 15.79
		case a.Charge == 1 && h == 0 && p.aromatic == 3:
			return 4.10
		case a.Charge == 1 && h == 0 && p.aromatic == 2 && p.single == 1:
			return 3.88
		case a.Charge == 1 && h == 1 && p.aromatic == 2:
			return 14.14
		}
		return fallbackPSA(30.5, 8.2, heavy)
	}

	switch a.Charge {
	case 0:
		switch {
		case h == 0 && p.single == 3:
			if inThreeRing(m, i) {
				return 3.01
			}
			return 3.24
		case h == 0 && p.single == 1 && p.double == 1:
			return 12.36
		case h == 0 && p.triple == 1 && heavy == 1:
			return 23.79
		case h == 0 && p.single == 1 && p.double == 2:
			return 11.68
		case h == 0 && p.double == 1 && p.triple == 1:
			return 13.60
		case h == 1 && p.single == 2:
			if inThreeRing(m, i) {
				return 21.94
			}
			return 12.03
		case h == 1 && p.double == 1 && heavy == 1:
			return 23.85
		case h == 2 && p.single == 1:
			return 26.02
		}
	case 1:
		switch {
		case h == 0 && p.single == 4:
			return 0.00
		case h == 0 && p.single == 2 && p.double == 1:
			return 3.01
		case h == 0 && p.single == 1 && p.triple == 1:
			return 4.36
		case h == 1 && p.single == 3:
			return 4.44
		case h == 1 && p.single == 1 && p.double == 1:
			return 13.97
		case h == 2 && p.single == 2:
			return 16.61
		case h == 2 && p.double == 1:
			return 25.59
		case h == 3 && p.single == 1:
			return 27.64
		}
	}
	return fallbackPSA(30.5, 8.2, heavy)
}

func oxygenPSA(m *Mol, i int) float64 {
	a := m.Atoms[i]
	p := profile(m, i)
	h := a.HCount()
	heavy := p.single + p.double + p.triple + p.aromatic

	switch {
	case a.Aromatic && a.Charge == 0 && p.aromatic == 2:
		return 13.14
	case a.Charge == 0 && h == 0 && p.single == 2:
		if inThreeRing(m, i) {
			return 12.53
		}
		return 9.23
	case a.Charge == 0 && h == 0 && p.double == 1 && heavy == 1:
		return 17.07
	case a.Charge == 0 && h == 1 && p.single == 1:
		return 20.23
	case a.Charge == -1 && h == 0 && p.single == 1:
		return 23.06
	}
	return fallbackPSA(28.5, 8.6, heavy)
}

func fallbackPSA(base, perNeighbor float64, heavy int) float64 {
	v := base - perNeighbor*float64(heavy)
	if v < 0 {
		return 0
	}
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// Hydrogen bonding and flexibility
// ─────────────────────────────────────────────────────────────────────────────

// HBondDonors counts N-H, O-H and S-H donors: neutral trivalent N with H,
// N+ with H, neutral O or S with exactly one H, and aromatic [nH].
func HBondDonors(m *Mol) int {
	c := 0
	for i, a := range m.Atoms {
		h := a.HCount()
		if h == 0 {
			continue
		}
		switch a.Number {
		case 7:
			v := m.Valence(i)
			if (a.Charge == 0 && v == 3) || (a.Charge == 1 && v == 4) {
				c++
			}
		case 8, 16:
			if a.Charge == 0 && h == 1 {
				c++
			}
		}
	}
	return c
}

// HBondAcceptors counts O and S that are not acid-like hydroxyls, trivalent
// N that is not amide-like, aromatic n/o/s without H, anions and fluorine.
func HBondAcceptors(m *Mol) int {
	c := 0
	for i, a := range m.Atoms {
		switch a.Number {
		case 8, 16:
			switch {
			case a.Charge < 0:
				c++
			case a.Aromatic && a.Charge == 0:
				c++
			case a.Charge == 0 && m.Valence(i) == 2 && a.HCount() == 0:
				c++
			case a.Charge == 0 && m.Valence(i) == 2 && a.HCount() == 1:
				if !attachedToUnsaturatedHetero(m, i) {
					c++
				}
			}
		case 7:
			switch {
			case a.Aromatic:
				if a.Charge == 0 && a.HCount() == 0 {
					c++
				}
			case a.Charge == 0 && m.Valence(i) == 3 && !attachedToUnsaturatedHetero(m, i):
				c++
			}
		case 9:
			c++
		}
	}
	return c
}

// attachedToUnsaturatedHetero reports whether a single-bonded neighbour of i
// carries a non-ring double bond to O, N, P or S.
func attachedToUnsaturatedHetero(m *Mol, i int) bool {
	for _, b := range m.AtomBonds(i) {
		if b.Order != 1 || b.Aromatic {
			continue
		}
		j := b.Other(i)
		for _, jb := range m.AtomBonds(j) {
			if jb == b || jb.Order != 2 || jb.InRing {
				continue
			}
			switch m.Atoms[jb.Other(j)].Number {
			case 7, 8, 15, 16:
				return true
			}
		}
	}
	return false
}

// RotatableBonds counts acyclic single bonds between non-terminal heavy
// atoms, excluding bonds next to triple bonds and amide C-N bonds.
func RotatableBonds(m *Mol) int {
	c := 0
	for _, b := range m.Bonds {
		if b.Order != 1 || b.Aromatic || b.InRing {
			continue
		}
		if m.Degree(b.A) < 2 || m.Degree(b.B) < 2 {
			continue
		}
		if hasTriple(m, b.A) || hasTriple(m, b.B) {
			continue
		}
		if isAmide(m, b.A, b.B) || isAmide(m, b.B, b.A) {
			continue
		}
		c++
	}
	return c
}

func hasTriple(m *Mol, i int) bool {
	for _, b := range m.AtomBonds(i) {
		if b.Order == 3 {
			return true
		}
	}
	return false
}

func isAmide(m *Mol, c, n int) bool {
	return m.Atoms[c].Number == 6 && m.Atoms[n].Number == 7 && m.HasDoubleTo(c, 8)
}

//Personal.AI order the ending
