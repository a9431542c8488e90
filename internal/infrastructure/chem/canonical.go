package chem

import (
	"sort"
	"strconv"
	"strings"
)

// Canonical renders m as canonical SMILES.  Atoms are ranked by iterative
// neighbourhood refinement with tie breaking, then written by a depth-first
// walk that always visits the lowest ranked neighbour first.  Tetrahedral
// centres and double bonds keep their configuration when their neighbours
// are distinguishable; other stereo marks are dropped.  Re-parsing the
// output and rendering it again yields the same string.
func Canonical(m *Mol) string {
	if len(m.Atoms) == 0 {
		return ""
	}
	ranks, st := canonicalRanks(m)
	w := &writer{m: m, ranks: ranks, st: st}
	return w.write()
}

// ─────────────────────────────────────────────────────────────────────────────
// Ranking
// ─────────────────────────────────────────────────────────────────────────────

type invariant [8]int

func atomInvariant(m *Mol, i int) invariant {
	a := m.Atoms[i]
	arom, ring := 0, 0
	if a.Aromatic {
		arom = 1
	}
	if a.InRing {
		ring = 1
	}
	return invariant{m.Degree(i), a.Number, a.Isotope, a.Charge, a.HCount(), arom, ring, m.BondOrderSum(i)}
}

func lessInvariant(a, b invariant) bool {
	for k := range a {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return false
}

func bondCode(b *Bond) int {
	if b.Aromatic {
		return 4
	}
	return b.Order
}

// canonicalRanks returns a permutation rank[i] in [0, n) and the stereo
// elements that survive symmetry perception.  Stereo labels split classes
// before ties are broken, so one configuration ranks the same way however
// it was drawn.
func canonicalRanks(m *Mol) ([]int, *stereoSet) {
	n := len(m.Atoms)
	inv := make([]invariant, n)
	for i := range inv {
		inv[i] = atomInvariant(m, i)
	}
	sym := refine(m, denseRank(n, func(a, b int) bool { return lessInvariant(inv[a], inv[b]) }))
	st := perceiveStereo(m, sym)

	ranks := sym
	if labels := st.labels(m, sym); labels != nil {
		ranks = refine(m, denseRank(n, func(a, b int) bool {
			if sym[a] != sym[b] {
				return sym[a] < sym[b]
			}
			return labels[a] < labels[b]
		}))
	}

	for classes(ranks) < n {
		// Break the lowest tie by promoting its lowest-index member.
		tied := lowestTie(ranks)
		doubled := make([]int, n)
		for i, r := range ranks {
			doubled[i] = 2 * r
		}
		doubled[tied]--
		ranks = denseRank(n, func(a, b int) bool { return doubled[a] < doubled[b] })
		ranks = refine(m, ranks)
	}
	return ranks, st
}

// refine splits rank classes by the sorted ranks of neighbours until stable.
func refine(m *Mol, ranks []int) []int {
	n := len(ranks)
	count := classes(ranks)
	for {
		keys := make([][]int, n)
		for i := range keys {
			nb := make([]int, 0, m.Degree(i))
			for _, b := range m.AtomBonds(i) {
				nb = append(nb, ranks[b.Other(i)]*8+bondCode(b))
			}
			sort.Ints(nb)
			keys[i] = append([]int{ranks[i]}, nb...)
		}
		next := denseRank(n, func(a, b int) bool { return lessInts(keys[a], keys[b]) })
		c := classes(next)
		if c == count {
			return next
		}
		ranks, count = next, c
	}
}

func lessInts(a, b []int) bool {
	for k := 0; k < len(a) && k < len(b); k++ {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return len(a) < len(b)
}

// denseRank assigns 0-based ranks so that equal elements share a rank.
func denseRank(n int, less func(a, b int) bool) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool { return less(idx[x], idx[y]) })
	ranks := make([]int, n)
	r := 0
	for k, i := range idx {
		if k > 0 && less(idx[k-1], i) {
			r++
		}
		ranks[i] = r
	}
	return ranks
}

func classes(ranks []int) int {
	seen := make(map[int]struct{}, len(ranks))
	for _, r := range ranks {
		seen[r] = struct{}{}
	}
	return len(seen)
}

func lowestTie(ranks []int) int {
	count := make(map[int]int, len(ranks))
	for _, r := range ranks {
		count[r]++
	}
	best := -1
	for i, r := range ranks {
		if count[r] < 2 {
			continue
		}
		if best < 0 || r < ranks[best] {
			best = i
		}
	}
	return best
}

// ─────────────────────────────────────────────────────────────────────────────
// Writer
// ─────────────────────────────────────────────────────────────────────────────

type writer struct {
	m     *Mol
	ranks []int
	st    *stereoSet
	dirs  []dirMark

	visited  []bool
	tree     []bool
	ring     []bool
	ringAt   [][]int
	digitOf  map[int]int
	inUse    map[int]bool
	children [][]int
	sb       strings.Builder
}

func (w *writer) write() string {
	n := len(w.m.Atoms)
	w.visited = make([]bool, n)
	w.tree = make([]bool, len(w.m.Bonds))
	w.ring = make([]bool, len(w.m.Bonds))
	w.ringAt = make([][]int, n)
	w.children = make([][]int, n)
	w.digitOf = make(map[int]int)
	w.inUse = make(map[int]bool)
	w.dirs = make([]dirMark, len(w.m.Bonds))
	w.assignDirections()

	starts := make([]int, n)
	for i := range starts {
		starts[i] = i
	}
	sort.Slice(starts, func(a, b int) bool { return w.ranks[starts[a]] < w.ranks[starts[b]] })

	var parts []string
	for _, s := range starts {
		if w.visited[s] {
			continue
		}
		w.plan(s, -1)
		w.sb.Reset()
		w.emit(s, -1)
		parts = append(parts, w.sb.String())
	}
	return strings.Join(parts, ".")
}

// sortedBonds lists the bonds of i ordered by the rank of the far atom.
func (w *writer) sortedBonds(i int) []int {
	bs := append([]int(nil), w.m.Atoms[i].bonds...)
	sort.Slice(bs, func(a, b int) bool {
		return w.ranks[w.m.Bonds[bs[a]].Other(i)] < w.ranks[w.m.Bonds[bs[b]].Other(i)]
	})
	return bs
}

// plan builds the spanning tree and records ring-closure bonds.
func (w *writer) plan(u, from int) {
	w.visited[u] = true
	for _, bi := range w.sortedBonds(u) {
		if bi == from || w.tree[bi] || w.ring[bi] {
			continue
		}
		v := w.m.Bonds[bi].Other(u)
		if w.visited[v] {
			w.ring[bi] = true
			w.ringAt[v] = append(w.ringAt[v], bi)
			w.ringAt[u] = append(w.ringAt[u], bi)
			continue
		}
		w.tree[bi] = true
		w.children[u] = append(w.children[u], bi)
		w.plan(v, bi)
	}
}

func (w *writer) emit(u, from int) {
	parent := -1
	if from >= 0 {
		parent = w.m.Bonds[from].Other(u)
		w.sb.WriteString(w.bondSymbol(from, parent))
	}

	// Close rings first, then open new ones.
	var closing, opening []int
	for _, bi := range w.ringAt[u] {
		if _, ok := w.digitOf[bi]; ok {
			closing = append(closing, bi)
			continue
		}
		opening = append(opening, bi)
	}
	w.sb.WriteString(atomToken(w.m, u, w.chirality(u, parent, closing, opening)))

	for _, bi := range closing {
		d := w.digitOf[bi]
		w.sb.WriteString(ringLabel(d))
		delete(w.digitOf, bi)
		delete(w.inUse, d)
	}
	for _, bi := range opening {
		d := w.freeDigit()
		w.digitOf[bi] = d
		w.inUse[d] = true
		w.sb.WriteString(w.bondSymbol(bi, u))
		w.sb.WriteString(ringLabel(d))
	}

	kids := w.children[u]
	for k, bi := range kids {
		v := w.m.Bonds[bi].Other(u)
		if k < len(kids)-1 {
			w.sb.WriteByte('(')
			w.emit(v, bi)
			w.sb.WriteByte(')')
			continue
		}
		w.emit(v, bi)
	}
}

func (w *writer) freeDigit() int {
	for d := 1; ; d++ {
		if !w.inUse[d] {
			return d
		}
	}
}

func ringLabel(d int) string {
	if d < 10 {
		return strconv.Itoa(d)
	}
	return "%" + strconv.Itoa(d)
}

// bondSymbol writes bond bi as it appears after atom p.
func (w *writer) bondSymbol(bi, p int) string {
	m, b := w.m, w.m.Bonds[bi]
	if mk := w.dirs[bi]; mk.dir != 0 {
		return string(flipDir(mk.dir, mk.from != p))
	}
	if b.Aromatic {
		return ""
	}
	switch b.Order {
	case 2:
		return "="
	case 3:
		return "#"
	}
	if m.Atoms[b.A].Aromatic && m.Atoms[b.B].Aromatic {
		return "-"
	}
	return ""
}

// atomToken writes the organic-subset form when re-parsing it restores the
// same hydrogen count, and a bracket atom otherwise.
func atomToken(m *Mol, i int, chir Chirality) string {
	a := m.Atoms[i]
	sym := a.Symbol
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}

	if chir == ChiralNone && a.Charge == 0 && a.Isotope == 0 && a.Number != 1 && organicSubset[a.Symbol] {
		if h, ok := implicitHydrogens(m, i); ok && h == a.HCount() {
			return sym
		}
	}

	var sb strings.Builder
	sb.WriteByte('[')
	if a.Isotope > 0 {
		sb.WriteString(strconv.Itoa(a.Isotope))
	}
	sb.WriteString(sym)
	switch chir {
	case ChiralCCW:
		sb.WriteByte('@')
	case ChiralCW:
		sb.WriteString("@@")
	}
	switch h := a.HCount(); {
	case h == 1:
		sb.WriteByte('H')
	case h > 1:
		sb.WriteByte('H')
		sb.WriteString(strconv.Itoa(h))
	}
	switch {
	case a.Charge == 1:
		sb.WriteByte('+')
	case a.Charge == -1:
		sb.WriteByte('-')
	case a.Charge > 1:
		sb.WriteString("+" + strconv.Itoa(a.Charge))
	case a.Charge < -1:
		sb.WriteString(strconv.Itoa(a.Charge))
	}
	sb.WriteByte(']')
	return sb.String()
}

//Personal.AI order the ending
