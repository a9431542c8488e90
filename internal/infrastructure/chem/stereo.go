package chem

import (
	"sort"
)

// stereoSet holds the stereo elements that canonical output keeps.  A
// tetrahedral centre is kept when its neighbours fall in distinct symmetry
// classes, a double bond when each end has distinguishable substituents.
type stereoSet struct {
	chiral []bool
	double []bool
}

func perceiveStereo(m *Mol, sym []int) *stereoSet {
	st := &stereoSet{chiral: make([]bool, len(m.Atoms)), double: make([]bool, len(m.Bonds))}
	for i := range m.Atoms {
		st.chiral[i] = isStereoCentre(m, i, sym)
	}
	for bi, b := range m.Bonds {
		if b.Stereo == nil {
			continue
		}
		st.double[bi] = distinctSubstituents(m, b.A, b.B, sym) && distinctSubstituents(m, b.B, b.A, sym)
	}
	return st
}

func isStereoCentre(m *Mol, i int, sym []int) bool {
	a := m.Atoms[i]
	if a.Chirality == ChiralNone || a.HCount() > 1 {
		return false
	}
	want := m.Degree(i)
	if a.HCount() == 1 {
		want++
	}
	if len(a.written) != want || want < 3 || want > 4 {
		return false
	}
	seen := make(map[int]bool, want)
	for _, n := range a.written {
		k := slotKey(n, sym)
		if seen[k] {
			return false
		}
		seen[k] = true
	}
	return true
}

func distinctSubstituents(m *Mol, d, partner int, sym []int) bool {
	var subs []int
	for _, n := range m.Neighbors(d) {
		if n != partner {
			subs = append(subs, n)
		}
	}
	switch len(subs) {
	case 1:
		return true
	case 2:
		return sym[subs[0]] != sym[subs[1]] && m.Atoms[d].HCount() == 0
	}
	return false
}

func slotKey(n int, sym []int) int {
	if n == HydrogenSlot {
		return -1
	}
	return sym[n]
}

// labels gives every atom a stereo label that does not depend on how the
// structure was drawn.  It returns nil when nothing is kept.
func (st *stereoSet) labels(m *Mol, sym []int) []int {
	var out []int
	set := func(i, v int) {
		if out == nil {
			out = make([]int, len(m.Atoms))
		}
		out[i] += v
	}
	for i, ok := range st.chiral {
		if !ok {
			continue
		}
		a := m.Atoms[i]
		sorted := append([]int(nil), a.written...)
		sort.Slice(sorted, func(x, y int) bool { return slotKey(sorted[x], sym) < slotKey(sorted[y], sym) })
		tag := int(a.Chirality-ChiralCCW) ^ permutationParity(a.written, sorted)
		set(i, 3*(1+tag))
	}
	for bi, ok := range st.double {
		if !ok {
			continue
		}
		b := m.Bonds[bi]
		label := 2
		if b.Stereo.cisAcross(b, b.A, topSubstituent(m, b.A, b.B, sym), topSubstituent(m, b.B, b.A, sym)) {
			label = 1
		}
		set(b.A, label)
		set(b.B, label)
	}
	return out
}

func topSubstituent(m *Mol, d, partner int, sym []int) int {
	best := -1
	for _, n := range m.Neighbors(d) {
		if n != partner && (best < 0 || sym[n] > sym[best]) {
			best = n
		}
	}
	return best
}

// cisAcross reports whether x on end d and y on the other end of b sit on
// the same side.
func (s *DoubleBondStereo) cisAcross(b *Bond, d, x, y int) bool {
	if d != b.A {
		x, y = y, x
	}
	cis := s.Cis
	if x != s.RefA {
		cis = !cis
	}
	if y != s.RefB {
		cis = !cis
	}
	return cis
}

// permutationParity is 1 when to is an odd permutation of from.
func permutationParity(from, to []int) int {
	pos := make(map[int]int, len(to))
	for k, v := range to {
		pos[v] = k
	}
	p := make([]int, len(from))
	for k, v := range from {
		p[k] = pos[v]
	}
	parity := 0
	for i := range p {
		for j := i + 1; j < len(p); j++ {
			if p[i] > p[j] {
				parity ^= 1
			}
		}
	}
	return parity
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

type dirMark struct {
	dir  byte
	from int
}

func flipDir(d byte, flip bool) byte {
	if !flip {
		return d
	}
	if d == '/' {
		return '\\'
	}
	return '/'
}

// markFor places the neighbour across a bond on side s of atom d.
func markFor(d, s int) dirMark {
	if s > 0 {
		return dirMark{dir: '/', from: d}
	}
	return dirMark{dir: '\\', from: d}
}

func (mk dirMark) side(d int) int {
	b := Bond{Dir: mk.dir, DirFrom: mk.from}
	return b.side(d)
}

// chirality returns the tag for u in the order the writer emits its
// neighbours: parent, hydrogen, ring closures, then branches.
func (w *writer) chirality(u, parent int, closing, opening []int) Chirality {
	if !w.st.chiral[u] {
		return ChiralNone
	}
	a := w.m.Atoms[u]
	out := make([]int, 0, 4)
	if parent >= 0 {
		out = append(out, parent)
	}
	if a.HCount() == 1 {
		out = append(out, HydrogenSlot)
	}
	for _, bi := range closing {
		out = append(out, w.m.Bonds[bi].Other(u))
	}
	for _, bi := range opening {
		out = append(out, w.m.Bonds[bi].Other(u))
	}
	for _, bi := range w.children[u] {
		out = append(out, w.m.Bonds[bi].Other(u))
	}
	if permutationParity(a.written, out) == 0 {
		return a.Chirality
	}
	if a.Chirality == ChiralCCW {
		return ChiralCW
	}
	return ChiralCCW
}

// assignDirections marks one single bond per end of every kept double bond.
// Bonds are visited in rank order and a mark placed for an earlier double
// bond is reused by a conjugated neighbour.
func (w *writer) assignDirections() {
	var doubles []int
	for bi, ok := range w.st.double {
		if ok {
			doubles = append(doubles, bi)
		}
	}
	lo := func(bi int) (int, int) {
		a, b := w.ranks[w.m.Bonds[bi].A], w.ranks[w.m.Bonds[bi].B]
		return min(a, b), max(a, b)
	}
	sort.Slice(doubles, func(x, y int) bool {
		x1, x2 := lo(doubles[x])
		y1, y2 := lo(doubles[y])
		if x1 != y1 {
			return x1 < y1
		}
		return x2 < y2
	})

	for _, bi := range doubles {
		b := w.m.Bonds[bi]
		first, second := b.A, b.B
		if w.ranks[second] < w.ranks[first] {
			first, second = second, first
		}
		refFirst, sideFirst, markFirst := w.directionRef(first, bi)
		refSecond, sideSecond, markSecond := w.directionRef(second, bi)
		if markFirst < 0 || markSecond < 0 {
			continue
		}
		if sideFirst == 0 {
			sideFirst = 1
			w.dirs[markFirst] = markFor(first, sideFirst)
		}
		want := -sideFirst
		if b.Stereo.cisAcross(b, first, refFirst, refSecond) {
			want = sideFirst
		}
		if sideSecond == 0 {
			w.dirs[markSecond] = markFor(second, want)
		}
	}
}

// directionRef picks the single bond at d that carries the mark for double
// bond skip: one already marked, else the one to the lowest ranked
// neighbour.  It returns the neighbour, its side (0 when unmarked) and the
// bond index, or -1 when d has no single bond.
func (w *writer) directionRef(d, skip int) (ref, side, bond int) {
	ref, bond = -1, -1
	for _, bi := range w.m.Atoms[d].bonds {
		b := w.m.Bonds[bi]
		if bi == skip || b.Order != 1 || b.Aromatic {
			continue
		}
		n := b.Other(d)
		if mk := w.dirs[bi]; mk.dir != 0 {
			return n, mk.side(d), bi
		}
		if ref < 0 || w.ranks[n] < w.ranks[ref] {
			ref, bond = n, bi
		}
	}
	return ref, 0, bond
}

//Personal.AI order the ending
