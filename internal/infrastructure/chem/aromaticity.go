package chem

import "github.com/turtacn/MolSieve/pkg/errors"

// kekuleBudget caps the backtracking search of kekulize.
const kekuleBudget = 100000

// kekulize turns the aromatic bonds written in the input into an explicit
// single/double assignment and clears the input aromatic flags.  Aromaticity
// is re-derived afterwards from the Kekulé form, so "c1ccccc1" and
// "C1=CC=CC=C1" end up identical.
func kekulize(m *Mol) error {
	hasAromatic := false
	for i, a := range m.Atoms {
		if !a.Aromatic {
			continue
		}
		hasAromatic = true
		if !a.InRing {
			return errors.Newf(errors.ErrCodeMoleculeInvalidSMILES, "non-ring atom %d marked aromatic", i)
		}
	}
	if !hasAromatic {
		for _, b := range m.Bonds {
			b.Aromatic = false
		}
		return nil
	}

	for _, b := range m.Bonds {
		if b.Aromatic && !b.InRing {
			b.Aromatic = false
		}
	}

	need := make([]bool, len(m.Atoms))
	for i, a := range m.Atoms {
		if a.Aromatic {
			need[i] = needsPiBond(m, i)
		}
	}

	k := &kekuleSolver{m: m, need: need, match: make([]int, len(m.Atoms)), budget: kekuleBudget}
	for i := range k.match {
		k.match[i] = -1
	}
	if !k.solve() {
		return errors.New(errors.ErrCodeMoleculeInvalidSMILES, "cannot kekulize aromatic system")
	}

	for _, b := range m.Bonds {
		if b.Aromatic && k.match[b.A] == b.B {
			b.Order = 2
		}
		b.Aromatic = false
	}
	for _, a := range m.Atoms {
		a.Aromatic = false
	}
	return nil
}

// needsPiBond reports whether an input-aromatic atom still has one valence
// left for a double bond after its sigma bonds and hydrogens.
func needsPiBond(m *Mol, i int) bool {
	a := m.Atoms[i]
	vals := chargedValence(bySymbol[a.Symbol], a.Charge)
	if len(vals) == 0 {
		return false
	}
	sigma := a.HCount()
	for _, b := range m.AtomBonds(i) {
		if b.Aromatic {
			sigma++
		} else {
			sigma += b.Order
		}
	}
	return vals[0]-sigma >= 1
}

type kekuleSolver struct {
	m      *Mol
	need   []bool
	match  []int
	budget int
}

func (k *kekuleSolver) partners(i int) []int {
	var out []int
	for _, b := range k.m.AtomBonds(i) {
		if !b.Aromatic {
			continue
		}
		j := b.Other(i)
		if k.need[j] && k.match[j] < 0 {
			out = append(out, j)
		}
	}
	return out
}

// solve is a most-constrained-first perfect matching search.
func (k *kekuleSolver) solve() bool {
	best, bestCount := -1, 0
	var bestPartners []int
	for i := range k.need {
		if !k.need[i] || k.match[i] >= 0 {
			continue
		}
		ps := k.partners(i)
		if len(ps) == 0 {
			return false
		}
		if best < 0 || len(ps) < bestCount {
			best, bestCount, bestPartners = i, len(ps), ps
		}
	}
	if best < 0 {
		return true
	}
	for _, j := range bestPartners {
		k.budget--
		if k.budget <= 0 {
			return false
		}
		k.match[best], k.match[j] = j, best
		if k.solve() {
			return true
		}
		k.match[best], k.match[j] = -1, -1
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Perception
// ─────────────────────────────────────────────────────────────────────────────

// perceiveAromaticity marks five- and six-membered rings that carry 4n+2 pi
// electrons.  A ring atom contributes one electron for a ring double bond,
// none for an exocyclic double bond to N, O or S, and two for a lone pair.
func perceiveAromaticity(m *Mol) {
	for _, ring := range findRings(m, 6) {
		if len(ring) < 5 {
			continue
		}
		total := 0
		ok := true
		for _, i := range ring {
			e := piElectrons(m, i)
			if e < 0 {
				ok = false
				break
			}
			total += e
		}
		if !ok || total%4 != 2 {
			continue
		}
		for idx, i := range ring {
			m.Atoms[i].Aromatic = true
			j := ring[(idx+1)%len(ring)]
			m.BondBetween(i, j).Aromatic = true
		}
	}
}

func piElectrons(m *Mol, i int) int {
	a := m.Atoms[i]
	switch a.Number {
	case 5, 6, 7, 8, 15, 16, 34:
	default:
		return -1
	}

	var double *Bond
	for _, b := range m.AtomBonds(i) {
		switch b.Order {
		case 3:
			return -1
		case 2:
			if double != nil {
				return -1
			}
			double = b
		}
	}

	if double != nil {
		if double.InRing {
			return 1
		}
		switch m.Atoms[double.Other(i)].Number {
		case 7, 8, 16:
			return 0
		}
		return -1
	}

	switch {
	case a.Number == 6:
		switch a.Charge {
		case -1:
			return 2
		case 1:
			return 0
		}
		return -1
	case a.Number == 5:
		if a.Charge == 0 && m.Connectivity(i) == 3 {
			return 0
		}
		return -1
	case lonePairDonors[a.Number]:
		conn := m.Connectivity(i)
		switch {
		case (a.Number == 7 || a.Number == 15) && a.Charge == 0 && conn == 3:
			return 2
		case a.Number != 7 && a.Number != 15 && a.Charge == 0 && conn == 2:
			return 2
		}
	}
	return -1
}

//Personal.AI order the ending
