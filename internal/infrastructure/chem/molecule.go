package chem

// Atom is one heavy atom of a parsed structure.  Hydrogens are never
// materialised as atoms; they are tracked as counts.
type Atom struct {
	Number   int
	Symbol   string
	Aromatic bool
	Charge   int
	Isotope  int
	// Bracket is true when the atom was written inside [...] in the input.
	Bracket bool
	// ExplicitH is the hydrogen count written inside brackets.
	ExplicitH int
	// ImplicitH is derived from the default valence for organic-subset atoms.
	ImplicitH int
	InRing    bool
	// Chirality is ChiralNone, ChiralCCW (@) or ChiralCW (@@) relative to
	// the neighbour order the atom was written with.
	Chirality Chirality

	bonds []int
	// written lists neighbours in SMILES order; HydrogenSlot marks the
	// bracket hydrogen.
	written []int
}

// Chirality is a tetrahedral tag as written.
type Chirality int

const (
	ChiralNone Chirality = iota
	ChiralCCW
	ChiralCW
)

// HydrogenSlot stands for a bracket hydrogen in a neighbour order.
const HydrogenSlot = -1

// HCount is the total number of attached hydrogens.
func (a *Atom) HCount() int {
	return a.ExplicitH + a.ImplicitH
}

// Bond connects two atoms.  Order is always the Kekulé order (1, 2 or 3);
// Aromatic is set by perception.
type Bond struct {
	A, B     int
	Order    int
	Aromatic bool
	InRing   bool

	// Dir is a directional mark ('/' or '\') as written from atom DirFrom.
	Dir     byte
	DirFrom int
	// Stereo is set on double bonds with a configuration.
	Stereo *DoubleBondStereo
}

// DoubleBondStereo fixes a double bond by one reference neighbour per end.
// RefA is attached to Bond.A and RefB to Bond.B.
type DoubleBondStereo struct {
	RefA, RefB int
	Cis        bool
}

// side reports +1 when the neighbour across directional bond b sits above
// atom d and -1 when it sits below.  It returns 0 for plain bonds.
func (b *Bond) side(d int) int {
	if b.Dir == 0 {
		return 0
	}
	up := b.Dir == '/'
	if b.DirFrom != d {
		up = !up
	}
	if up {
		return 1
	}
	return -1
}

// Other returns the atom at the opposite end of the bond.
func (b *Bond) Other(i int) int {
	if b.A == i {
		return b.B
	}
	return b.A
}

// Mol is a parsed molecular graph.
type Mol struct {
	Atoms []*Atom
	Bonds []*Bond
}

func (m *Mol) addAtom(a *Atom) int {
	m.Atoms = append(m.Atoms, a)
	return len(m.Atoms) - 1
}

func (m *Mol) addBond(a, b, order int, aromatic bool) *Bond {
	bd := &Bond{A: a, B: b, Order: order, Aromatic: aromatic}
	idx := len(m.Bonds)
	m.Bonds = append(m.Bonds, bd)
	m.Atoms[a].bonds = append(m.Atoms[a].bonds, idx)
	m.Atoms[b].bonds = append(m.Atoms[b].bonds, idx)
	return bd
}

// BondBetween returns the bond joining i and j, or nil.
func (m *Mol) BondBetween(i, j int) *Bond {
	for _, bi := range m.Atoms[i].bonds {
		if m.Bonds[bi].Other(i) == j {
			return m.Bonds[bi]
		}
	}
	return nil
}

// Neighbors returns the heavy-atom neighbours of i in bond order.
func (m *Mol) Neighbors(i int) []int {
	out := make([]int, 0, len(m.Atoms[i].bonds))
	for _, bi := range m.Atoms[i].bonds {
		out = append(out, m.Bonds[bi].Other(i))
	}
	return out
}

// AtomBonds returns the bonds attached to i.
func (m *Mol) AtomBonds(i int) []*Bond {
	out := make([]*Bond, 0, len(m.Atoms[i].bonds))
	for _, bi := range m.Atoms[i].bonds {
		out = append(out, m.Bonds[bi])
	}
	return out
}

// Degree is the number of heavy-atom neighbours.
func (m *Mol) Degree(i int) int {
	return len(m.Atoms[i].bonds)
}

// Connectivity is the total number of connections including hydrogens.
func (m *Mol) Connectivity(i int) int {
	return m.Degree(i) + m.Atoms[i].HCount()
}

// BondOrderSum sums the Kekulé orders of the bonds at i.
func (m *Mol) BondOrderSum(i int) int {
	sum := 0
	for _, bi := range m.Atoms[i].bonds {
		sum += m.Bonds[bi].Order
	}
	return sum
}

// Valence is the bond-order sum plus hydrogens.
func (m *Mol) Valence(i int) int {
	return m.BondOrderSum(i) + m.Atoms[i].HCount()
}

// HasDoubleTo reports whether atom i has a double bond to an atom whose atomic
// number is in nums.
func (m *Mol) HasDoubleTo(i int, nums ...int) bool {
	for _, bi := range m.Atoms[i].bonds {
		b := m.Bonds[bi]
		if b.Order != 2 {
			continue
		}
		o := m.Atoms[b.Other(i)].Number
		for _, n := range nums {
			if o == n {
				return true
			}
		}
	}
	return false
}

// NetCharge sums the formal charges.
func (m *Mol) NetCharge() int {
	q := 0
	for _, a := range m.Atoms {
		q += a.Charge
	}
	return q
}

//Personal.AI order the ending
