package chem

import (
	"github.com/turtacn/MolSieve/pkg/errors"
)

// Parse reads a SMILES string into a hydrogen-suppressed graph.  The result
// has ring membership, hydrogen counts, a Kekulé bond assignment and
// perceived aromaticity.  Pentavalent nitro groups are rewritten to the
// charge-separated form.  Tetrahedral tags and directional bonds are kept
// with the order they were written in, and double bonds flanked by
// directional bonds carry their configuration.
func Parse(s string) (*Mol, error) {
	if s == "" {
		return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES, "empty SMILES")
	}
	p := &smilesParser{src: s, mol: &Mol{}, prev: -1, rings: make(map[int]ringOpen)}
	if err := p.run(); err != nil {
		return nil, err
	}
	m := p.mol
	markRingBonds(m)
	if err := assignHydrogens(m); err != nil {
		return nil, err
	}
	if err := kekulize(m); err != nil {
		return nil, err
	}
	if err := checkValence(m); err != nil {
		return nil, err
	}
	chargeSeparateNitro(m)
	perceiveAromaticity(m)
	perceiveDoubleBondStereo(m)
	return m, nil
}

type ringOpen struct {
	atom int
	bond byte
	pos  int
	// slot is the index in the opener's written order held for the partner.
	slot int
}

type smilesParser struct {
	src     string
	pos     int
	mol     *Mol
	prev    int
	pending byte
	stack   []int
	rings   map[int]ringOpen
}

func syntaxErr(pos int, format string, args ...interface{}) error {
	args = append([]interface{}{pos}, args...)
	return errors.Newf(errors.ErrCodeMoleculeInvalidSMILES, "position %d: "+format, args...)
}

func isBondChar(c byte) bool {
	switch c {
	case '-', '=', '#', '$', ':', '/', '\\':
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *smilesParser) run() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return syntaxErr(p.pos, "branch without a preceding atom")
			}
			if p.pending != 0 {
				return syntaxErr(p.pos, "bond before branch")
			}
			p.stack = append(p.stack, p.prev)
			p.pos++
		case c == ')':
			if len(p.stack) == 0 {
				return syntaxErr(p.pos, "unbalanced ')'")
			}
			if p.pending != 0 {
				return syntaxErr(p.pos, "bond without a following atom")
			}
			p.prev = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pos++
		case isBondChar(c):
			if p.prev < 0 {
				return syntaxErr(p.pos, "bond without a preceding atom")
			}
			if p.pending != 0 {
				return syntaxErr(p.pos, "consecutive bond symbols")
			}
			p.pending = c
			p.pos++
		case c == '.':
			if p.pending != 0 || p.prev < 0 {
				return syntaxErr(p.pos, "misplaced '.'")
			}
			p.prev = -1
			p.pos++
		case isDigit(c) || c == '%':
			if err := p.ringClosure(); err != nil {
				return err
			}
		case c == '[':
			a, err := p.bracketAtom()
			if err != nil {
				return err
			}
			if err := p.attach(a); err != nil {
				return err
			}
		default:
			a, err := p.organicAtom()
			if err != nil {
				return err
			}
			if err := p.attach(a); err != nil {
				return err
			}
		}
	}

	if p.pending != 0 {
		return syntaxErr(p.pos, "bond without a following atom")
	}
	if len(p.stack) > 0 {
		return syntaxErr(p.pos, "unbalanced '('")
	}
	if len(p.rings) > 0 {
		first := -1
		for n := range p.rings {
			if first < 0 || n < first {
				first = n
			}
		}
		return syntaxErr(p.rings[first].pos, "unclosed ring %d", first)
	}
	if len(p.mol.Atoms) == 0 {
		return syntaxErr(0, "no atoms")
	}
	return nil
}

func (p *smilesParser) attach(a *Atom) error {
	idx := p.mol.addAtom(a)
	if p.prev >= 0 {
		order, aromatic, err := p.bondKind(p.pending, p.prev, idx)
		if err != nil {
			return err
		}
		bd := p.mol.addBond(p.prev, idx, order, aromatic)
		if isDirectional(p.pending, p.pending) {
			bd.Dir, bd.DirFrom = p.pending, p.prev
		}
		prev := p.mol.Atoms[p.prev]
		prev.written = append(prev.written, idx)
		a.written = append(a.written, p.prev)
	}
	if a.Bracket && a.ExplicitH == 1 {
		a.written = append(a.written, HydrogenSlot)
	}
	p.pending = 0
	p.prev = idx
	return nil
}

func (p *smilesParser) bondKind(sym byte, a, b int) (int, bool, error) {
	switch sym {
	case 0:
		if p.mol.Atoms[a].Aromatic && p.mol.Atoms[b].Aromatic {
			return 1, true, nil
		}
		return 1, false, nil
	case '-', '/', '\\':
		return 1, false, nil
	case '=':
		return 2, false, nil
	case '#':
		return 3, false, nil
	case ':':
		return 1, true, nil
	}
	return 0, false, syntaxErr(p.pos, "unsupported bond %q", sym)
}

func (p *smilesParser) ringClosure() error {
	start := p.pos
	if p.prev < 0 {
		return syntaxErr(start, "ring closure without a preceding atom")
	}
	var n int
	if p.src[p.pos] == '%' {
		if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
			return syntaxErr(start, "'%%' must be followed by two digits")
		}
		n = int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
		p.pos += 3
	} else {
		n = int(p.src[p.pos] - '0')
		p.pos++
	}

	open, ok := p.rings[n]
	if !ok {
		opener := p.mol.Atoms[p.prev]
		p.rings[n] = ringOpen{atom: p.prev, bond: p.pending, pos: start, slot: len(opener.written)}
		opener.written = append(opener.written, p.prev)
		p.pending = 0
		return nil
	}
	delete(p.rings, n)

	sym := p.pending
	if sym == 0 {
		sym = open.bond
	} else if open.bond != 0 && open.bond != sym && !isDirectional(sym, open.bond) {
		return syntaxErr(start, "conflicting bonds on ring closure %d", n)
	}
	if open.atom == p.prev {
		return syntaxErr(start, "ring closure %d bonds an atom to itself", n)
	}
	if p.mol.BondBetween(open.atom, p.prev) != nil {
		return syntaxErr(start, "ring closure %d duplicates an existing bond", n)
	}
	order, aromatic, err := p.bondKind(sym, open.atom, p.prev)
	if err != nil {
		return err
	}
	bd := p.mol.addBond(open.atom, p.prev, order, aromatic)
	switch {
	case isDirectional(open.bond, open.bond):
		bd.Dir, bd.DirFrom = open.bond, open.atom
	case isDirectional(p.pending, p.pending):
		bd.Dir, bd.DirFrom = p.pending, p.prev
	}
	p.mol.Atoms[open.atom].written[open.slot] = p.prev
	closer := p.mol.Atoms[p.prev]
	closer.written = append(closer.written, open.atom)
	p.pending = 0
	return nil
}

func isDirectional(a, b byte) bool {
	return (a == '/' || a == '\\') && (b == '/' || b == '\\')
}

func (p *smilesParser) organicAtom() (*Atom, error) {
	rest := p.src[p.pos:]
	if len(rest) >= 2 && (rest[:2] == "Cl" || rest[:2] == "Br") {
		p.pos += 2
		e := bySymbol[rest[:2]]
		return &Atom{Number: e.Number, Symbol: e.Symbol}, nil
	}
	c := rest[:1]
	if organicSubset[c] {
		p.pos++
		e := bySymbol[c]
		return &Atom{Number: e.Number, Symbol: e.Symbol}, nil
	}
	if upper, ok := aromaticSymbols[c]; ok && organicSubset[upper] {
		p.pos++
		e := bySymbol[upper]
		return &Atom{Number: e.Number, Symbol: e.Symbol, Aromatic: true}, nil
	}
	if c == "*" {
		return nil, syntaxErr(p.pos, "wildcard atoms are not supported")
	}
	return nil, syntaxErr(p.pos, "unexpected character %q", c)
}

// bracketAtom reads [isotope symbol chirality hcount charge class].
func (p *smilesParser) bracketAtom() (*Atom, error) {
	start := p.pos
	end := start + 1
	for end < len(p.src) && p.src[end] != ']' {
		if p.src[end] == '[' {
			return nil, syntaxErr(end, "nested '['")
		}
		end++
	}
	if end >= len(p.src) {
		return nil, syntaxErr(start, "unterminated bracket atom")
	}
	body := p.src[start+1 : end]
	p.pos = end + 1

	a := &Atom{Bracket: true}
	i := 0
	for i < len(body) && isDigit(body[i]) {
		a.Isotope = a.Isotope*10 + int(body[i]-'0')
		i++
	}

	sym, aromatic, n := readBracketSymbol(body[i:])
	if n == 0 {
		return nil, syntaxErr(start, "unknown element in %q", "["+body+"]")
	}
	i += n
	e := bySymbol[sym]
	a.Number, a.Symbol, a.Aromatic = e.Number, e.Symbol, aromatic

	a.Chirality, i = readChirality(body, i)

	if i < len(body) && body[i] == 'H' {
		i++
		h := 1
		if i < len(body) && isDigit(body[i]) {
			h = int(body[i] - '0')
			i++
		}
		a.ExplicitH = h
	}

	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		s := 1
		if body[i] == '-' {
			s = -1
		}
		ch := body[i]
		i++
		switch {
		case i < len(body) && isDigit(body[i]):
			v := 0
			for i < len(body) && isDigit(body[i]) {
				v = v*10 + int(body[i]-'0')
				i++
			}
			a.Charge = s * v
		default:
			q := 1
			for i < len(body) && body[i] == ch {
				q++
				i++
			}
			a.Charge = s * q
		}
	}

	if i < len(body) && body[i] == ':' {
		i++
		if i >= len(body) || !isDigit(body[i]) {
			return nil, syntaxErr(start, "atom class must be numeric")
		}
		for i < len(body) && isDigit(body[i]) {
			i++
		}
	}

	if i != len(body) {
		return nil, syntaxErr(start+1+i, "unexpected %q in bracket atom", body[i:])
	}
	return a, nil
}

// readBracketSymbol matches the longest element symbol at the start of s.
func readBracketSymbol(s string) (symbol string, aromatic bool, n int) {
	if s == "" {
		return "", false, 0
	}
	if len(s) >= 2 {
		if up, ok := aromaticSymbols[s[:2]]; ok {
			return up, true, 2
		}
		if _, ok := bySymbol[s[:2]]; ok && s[1] >= 'a' && s[1] <= 'z' {
			return s[:2], false, 2
		}
	}
	if up, ok := aromaticSymbols[s[:1]]; ok {
		return up, true, 1
	}
	if _, ok := bySymbol[s[:1]]; ok {
		return s[:1], false, 1
	}
	return "", false, 0
}

var chiralClasses = []string{"TH", "AL", "SP", "TB", "OH"}

// readChirality reads @, @@ and @TH1/@TH2.  The other classes are skipped
// and read as no tag.
func readChirality(body string, i int) (Chirality, int) {
	if i >= len(body) || body[i] != '@' {
		return ChiralNone, i
	}
	i++
	if i < len(body) && body[i] == '@' {
		return ChiralCW, i + 1
	}
	for _, cls := range chiralClasses {
		if len(body) < i+2 || body[i:i+2] != cls {
			continue
		}
		i += 2
		start := i
		for i < len(body) && isDigit(body[i]) {
			i++
		}
		switch {
		case cls == "TH" && body[start:i] == "1":
			return ChiralCCW, i
		case cls == "TH" && body[start:i] == "2":
			return ChiralCW, i
		}
		return ChiralNone, i
	}
	return ChiralCCW, i
}

// ─────────────────────────────────────────────────────────────────────────────
// Hydrogens and valence
// ─────────────────────────────────────────────────────────────────────────────

// implicitHydrogens applies the organic-subset rule.  Aromatic bonds count
// as one; an aromatic atom reserves one valence for its pi bond when it can.
// ok is false when no allowed valence fits.
func implicitHydrogens(m *Mol, i int) (h int, ok bool) {
	a := m.Atoms[i]
	e := bySymbol[a.Symbol]
	if e == nil || len(e.Valences) == 0 {
		return 0, false
	}
	if a.Aromatic {
		sigma := 0
		for _, b := range m.AtomBonds(i) {
			if b.Aromatic {
				sigma++
			} else {
				sigma += b.Order
			}
		}
		v := e.Valences[0]
		switch {
		case sigma+1 <= v:
			return v - sigma - 1, true
		case sigma <= v:
			return 0, true
		}
		return 0, false
	}
	sum := m.BondOrderSum(i)
	for _, v := range e.Valences {
		if v >= sum {
			return v - sum, true
		}
	}
	return 0, false
}

func assignHydrogens(m *Mol) error {
	for i, a := range m.Atoms {
		if a.Bracket {
			continue
		}
		h, ok := implicitHydrogens(m, i)
		if !ok {
			return errors.Newf(errors.ErrCodeMoleculeInvalidSMILES, "atom %d (%s) exceeds its allowed valence", i, a.Symbol)
		}
		a.ImplicitH = h
	}
	return nil
}

func checkValence(m *Mol) error {
	for i, a := range m.Atoms {
		e := bySymbol[a.Symbol]
		vals := chargedValence(e, a.Charge)
		if len(vals) == 0 {
			continue
		}
		if m.Valence(i) > vals[len(vals)-1] {
			return errors.Newf(errors.ErrCodeMoleculeInvalidSMILES, "atom %d (%s) exceeds its allowed valence", i, a.Symbol)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Normalization and stereo
// ─────────────────────────────────────────────────────────────────────────────

// chargeSeparateNitro rewrites a neutral N carrying two terminal =O as
// [N+](=O)[O-].
func chargeSeparateNitro(m *Mol) {
	for i, a := range m.Atoms {
		if a.Number != 7 || a.Charge != 0 || a.Aromatic || m.Valence(i) != 5 {
			continue
		}
		var oxo []*Bond
		for _, b := range m.AtomBonds(i) {
			o := b.Other(i)
			if b.Order == 2 && !b.Aromatic && m.Atoms[o].Number == 8 && m.Atoms[o].Charge == 0 && m.Degree(o) == 1 {
				oxo = append(oxo, b)
			}
		}
		if len(oxo) < 2 {
			continue
		}
		oxo[1].Order = 1
		a.Charge = 1
		m.Atoms[oxo[1].Other(i)].Charge = -1
	}
}

// perceiveDoubleBondStereo records the configuration of acyclic double bonds
// that have a directional bond at both ends.
func perceiveDoubleBondStereo(m *Mol) {
	for bi, b := range m.Bonds {
		if b.Order != 2 || b.Aromatic || b.InRing {
			continue
		}
		refA, sideA := directionalNeighbor(m, b.A, bi)
		refB, sideB := directionalNeighbor(m, b.B, bi)
		if sideA == 0 || sideB == 0 {
			continue
		}
		b.Stereo = &DoubleBondStereo{RefA: refA, RefB: refB, Cis: sideA == sideB}
	}
}

func directionalNeighbor(m *Mol, d, skip int) (int, int) {
	for _, bi := range m.Atoms[d].bonds {
		if bi == skip {
			continue
		}
		b := m.Bonds[bi]
		if s := b.side(d); s != 0 && b.Order == 1 {
			return b.Other(d), s
		}
	}
	return -1, 0
}

//Personal.AI order the ending
