package chem

import (
	"strings"

	"github.com/turtacn/MolSieve/pkg/errors"
)

type atomPred func(m *Mol, i int) bool

type bondPred func(m *Mol, b *Bond) bool

type queryAtom struct {
	pred  atomPred
	bonds []int
}

type queryBond struct {
	a, b int
	pred bondPred
}

func (qb *queryBond) other(i int) int {
	if qb.a == i {
		return qb.b
	}
	return qb.a
}

// Query is a compiled substructure pattern.
type Query struct {
	atoms []*queryAtom
	bonds []*queryBond

	// order is the visit order used by the matcher; parent[k] is the query
	// bond that reaches order[k] from an earlier atom, or -1.
	order  []int
	parent []int
}

func (q *Query) addAtom(p atomPred) int {
	q.atoms = append(q.atoms, &queryAtom{pred: p})
	return len(q.atoms) - 1
}

func (q *Query) addBond(a, b int, p bondPred) {
	q.bonds = append(q.bonds, &queryBond{a: a, b: b, pred: p})
	idx := len(q.bonds) - 1
	q.atoms[a].bonds = append(q.atoms[a].bonds, idx)
	q.atoms[b].bonds = append(q.atoms[b].bonds, idx)
}

// plan fixes a depth-first visit order so each atom after a component root
// is reached through an already placed neighbour.
func (q *Query) plan() {
	seen := make([]bool, len(q.atoms))
	for root := range q.atoms {
		if seen[root] {
			continue
		}
		type frame struct{ atom, via int }
		stack := []frame{{root, -1}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[f.atom] {
				continue
			}
			seen[f.atom] = true
			q.order = append(q.order, f.atom)
			q.parent = append(q.parent, f.via)
			bs := q.atoms[f.atom].bonds
			for k := len(bs) - 1; k >= 0; k-- {
				next := q.bonds[bs[k]].other(f.atom)
				if !seen[next] {
					stack = append(stack, frame{next, bs[k]})
				}
			}
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Plain structures as queries
// ─────────────────────────────────────────────────────────────────────────────

// CompileStructureQuery uses a SMILES string as a query.  Atoms match on
// element, aromaticity and (when set) charge; bonds match on exact order or
// aromaticity.  Hydrogen counts are not compared.
func CompileStructureQuery(s string) (*Query, error) {
	m, err := Parse(s)
	if err != nil {
		return nil, err
	}
	q := &Query{}
	for _, a := range m.Atoms {
		num, arom, charge := a.Number, a.Aromatic, a.Charge
		q.addAtom(func(t *Mol, i int) bool {
			ta := t.Atoms[i]
			if ta.Number != num || ta.Aromatic != arom {
				return false
			}
			return charge == 0 || ta.Charge == charge
		})
	}
	for _, b := range m.Bonds {
		order, arom := b.Order, b.Aromatic
		q.addBond(b.A, b.B, func(_ *Mol, tb *Bond) bool {
			if arom {
				return tb.Aromatic
			}
			return !tb.Aromatic && tb.Order == order
		})
	}
	q.plan()
	return q, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SMARTS
// ─────────────────────────────────────────────────────────────────────────────

// CompileSMARTS compiles a SMARTS pattern.  Supported atom primitives are
// element symbols (aliphatic upper case, aromatic lower case), *, a, A, #n,
// Dn, Xn, Hn, hn, Rn, rn, vn, xn, charges, isotopes and recursive $(...),
// combined with !, &, ',' and ';'.  Bonds support - = # : ~ @ and the same
// operators.  Chirality marks are accepted and ignored.
func CompileSMARTS(s string) (*Query, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New(errors.ErrCodeSubstructureSearchFailed, "empty SMARTS")
	}
	p := &smartsParser{src: s, q: &Query{}, prev: -1, rings: make(map[int]smartsRing)}
	if err := p.run(); err != nil {
		return nil, err
	}
	p.q.plan()
	return p.q, nil
}

type smartsRing struct {
	atom int
	bond bondPred
}

type smartsParser struct {
	src     string
	pos     int
	q       *Query
	prev    int
	pending bondPred
	stack   []int
	rings   map[int]smartsRing
}

func smartsErr(pos int, format string, args ...interface{}) error {
	args = append([]interface{}{pos}, args...)
	return errors.Newf(errors.ErrCodeSubstructureSearchFailed, "SMARTS position %d: "+format, args...)
}

func isSMARTSBondChar(c byte) bool {
	return strings.IndexByte(`-=#:~@!/\`, c) >= 0
}

func (p *smartsParser) run() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return smartsErr(p.pos, "branch without a preceding atom")
			}
			p.stack = append(p.stack, p.prev)
			p.pos++
		case c == ')':
			if len(p.stack) == 0 {
				return smartsErr(p.pos, "unbalanced ')'")
			}
			p.prev = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pos++
		case isSMARTSBondChar(c):
			if p.prev < 0 || p.pending != nil {
				return smartsErr(p.pos, "misplaced bond")
			}
			start := p.pos
			for p.pos < len(p.src) && strings.IndexByte(`-=#:~@!/\,;&`, p.src[p.pos]) >= 0 {
				p.pos++
			}
			pred, err := parseBondExpr(p.src[start:p.pos])
			if err != nil {
				return smartsErr(start, "%v", err)
			}
			p.pending = pred
		case c == '.':
			p.prev = -1
			p.pending = nil
			p.pos++
		case isDigit(c) || c == '%':
			if err := p.ringClosure(); err != nil {
				return err
			}
		case c == '[':
			end := matchingBracket(p.src, p.pos)
			if end < 0 {
				return smartsErr(p.pos, "unterminated bracket atom")
			}
			body := p.src[p.pos+1 : end]
			pred, err := parseAtomExpr(body)
			if err != nil {
				return smartsErr(p.pos, "%v", err)
			}
			p.pos = end + 1
			p.attach(pred)
		default:
			pred, n := organicQueryAtom(p.src[p.pos:])
			if n == 0 {
				return smartsErr(p.pos, "unexpected character %q", c)
			}
			p.pos += n
			p.attach(pred)
		}
	}
	if len(p.stack) > 0 {
		return smartsErr(p.pos, "unbalanced '('")
	}
	if len(p.rings) > 0 {
		return smartsErr(p.pos, "unclosed ring")
	}
	if p.pending != nil {
		return smartsErr(p.pos, "bond without a following atom")
	}
	if len(p.q.atoms) == 0 {
		return smartsErr(0, "no atoms")
	}
	return nil
}

func (p *smartsParser) attach(pred atomPred) {
	idx := p.q.addAtom(pred)
	if p.prev >= 0 {
		bp := p.pending
		if bp == nil {
			bp = defaultBond
		}
		p.q.addBond(p.prev, idx, bp)
	}
	p.pending = nil
	p.prev = idx
}

func (p *smartsParser) ringClosure() error {
	start := p.pos
	if p.prev < 0 {
		return smartsErr(start, "ring closure without a preceding atom")
	}
	var n int
	if p.src[p.pos] == '%' {
		if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
			return smartsErr(start, "'%%' must be followed by two digits")
		}
		n = int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
		p.pos += 3
	} else {
		n = int(p.src[p.pos] - '0')
		p.pos++
	}

	open, ok := p.rings[n]
	if !ok {
		p.rings[n] = smartsRing{atom: p.prev, bond: p.pending}
		p.pending = nil
		return nil
	}
	delete(p.rings, n)
	bp := p.pending
	if bp == nil {
		bp = open.bond
	}
	if bp == nil {
		bp = defaultBond
	}
	if open.atom == p.prev {
		return smartsErr(start, "ring closure %d bonds an atom to itself", n)
	}
	p.q.addBond(open.atom, p.prev, bp)
	p.pending = nil
	return nil
}

func matchingBracket(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func matchingParen(s string, start int) int {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func elementPred(num int, aromatic bool) atomPred {
	return func(m *Mol, i int) bool {
		a := m.Atoms[i]
		return a.Number == num && a.Aromatic == aromatic
	}
}

func organicQueryAtom(s string) (atomPred, int) {
	if len(s) >= 2 && (s[:2] == "Cl" || s[:2] == "Br") {
		return elementPred(bySymbol[s[:2]].Number, false), 2
	}
	c := s[:1]
	switch c {
	case "*":
		return anyAtom, 1
	case "a":
		return func(m *Mol, i int) bool { return m.Atoms[i].Aromatic }, 1
	case "A":
		return func(m *Mol, i int) bool { return !m.Atoms[i].Aromatic }, 1
	}
	if organicSubset[c] {
		return elementPred(bySymbol[c].Number, false), 1
	}
	if up, ok := aromaticSymbols[c]; ok && organicSubset[up] {
		return elementPred(bySymbol[up].Number, true), 1
	}
	return nil, 0
}

func anyAtom(*Mol, int) bool { return true }

func defaultBond(_ *Mol, b *Bond) bool {
	return b.Aromatic || b.Order == 1
}

// ─────────────────────────────────────────────────────────────────────────────
// Expression grammar shared by atoms and bonds:
//   low  := or (';' or)*
//   or   := high (',' high)*
//   high := not ('&'? not)*
//   not  := '!'* primitive
// ─────────────────────────────────────────────────────────────────────────────

type exprParser[T any] struct {
	src       string
	pos       int
	primitive func(p *exprParser[T]) (T, error)
	and       func(a, b T) T
	or        func(a, b T) T
	not       func(a T) T
}

func (p *exprParser[T]) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *exprParser[T]) low() (T, error) {
	x, err := p.orExpr()
	if err != nil {
		return x, err
	}
	for p.peek() == ';' {
		p.pos++
		y, err := p.orExpr()
		if err != nil {
			return x, err
		}
		x = p.and(x, y)
	}
	return x, nil
}

func (p *exprParser[T]) orExpr() (T, error) {
	x, err := p.high()
	if err != nil {
		return x, err
	}
	for p.peek() == ',' {
		p.pos++
		y, err := p.high()
		if err != nil {
			return x, err
		}
		x = p.or(x, y)
	}
	return x, nil
}

func (p *exprParser[T]) high() (T, error) {
	x, err := p.unary()
	if err != nil {
		return x, err
	}
	for {
		c := p.peek()
		if c == 0 || c == ';' || c == ',' {
			return x, nil
		}
		if c == '&' {
			p.pos++
		}
		y, err := p.unary()
		if err != nil {
			return x, err
		}
		x = p.and(x, y)
	}
}

func (p *exprParser[T]) unary() (T, error) {
	if p.peek() == '!' {
		p.pos++
		x, err := p.unary()
		if err != nil {
			return x, err
		}
		return p.not(x), nil
	}
	return p.primitive(p)
}

func (p *exprParser[T]) parse() (T, error) {
	x, err := p.low()
	if err != nil {
		return x, err
	}
	if p.pos != len(p.src) {
		var zero T
		return zero, errors.Newf(errors.ErrCodeSubstructureSearchFailed, "unexpected %q", p.src[p.pos:])
	}
	return x, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond expressions
// ─────────────────────────────────────────────────────────────────────────────

func parseBondExpr(s string) (bondPred, error) {
	p := &exprParser[bondPred]{
		src:       s,
		primitive: bondPrimitive,
		and:       func(a, b bondPred) bondPred { return func(m *Mol, bd *Bond) bool { return a(m, bd) && b(m, bd) } },
		or:        func(a, b bondPred) bondPred { return func(m *Mol, bd *Bond) bool { return a(m, bd) || b(m, bd) } },
		not:       func(a bondPred) bondPred { return func(m *Mol, bd *Bond) bool { return !a(m, bd) } },
	}
	return p.parse()
}

func bondPrimitive(p *exprParser[bondPred]) (bondPred, error) {
	c := p.peek()
	p.pos++
	switch c {
	case '-', '/', '\\':
		return func(_ *Mol, b *Bond) bool { return !b.Aromatic && b.Order == 1 }, nil
	case '=':
		return func(_ *Mol, b *Bond) bool { return !b.Aromatic && b.Order == 2 }, nil
	case '#':
		return func(_ *Mol, b *Bond) bool { return !b.Aromatic && b.Order == 3 }, nil
	case ':':
		return func(_ *Mol, b *Bond) bool { return b.Aromatic }, nil
	case '~':
		return func(*Mol, *Bond) bool { return true }, nil
	case '@':
		return func(_ *Mol, b *Bond) bool { return b.InRing }, nil
	}
	return nil, errors.Newf(errors.ErrCodeSubstructureSearchFailed, "unknown bond primitive %q", c)
}

// ─────────────────────────────────────────────────────────────────────────────
// Atom expressions
// ─────────────────────────────────────────────────────────────────────────────

func parseAtomExpr(s string) (atomPred, error) {
	if s == "" {
		return nil, errors.New(errors.ErrCodeSubstructureSearchFailed, "empty bracket atom")
	}
	if s == "H" {
		return func(m *Mol, i int) bool { return m.Atoms[i].Number == 1 }, nil
	}
	p := &exprParser[atomPred]{
		src:       s,
		primitive: atomPrimitive,
		and:       func(a, b atomPred) atomPred { return func(m *Mol, i int) bool { return a(m, i) && b(m, i) } },
		or:        func(a, b atomPred) atomPred { return func(m *Mol, i int) bool { return a(m, i) || b(m, i) } },
		not:       func(a atomPred) atomPred { return func(m *Mol, i int) bool { return !a(m, i) } },
	}
	return p.parse()
}

// readNumber consumes digits; ok is false when none follow.
func readNumber(p *exprParser[atomPred]) (int, bool) {
	start := p.pos
	n := 0
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		n = n*10 + int(p.src[p.pos]-'0')
		p.pos++
	}
	return n, p.pos > start
}

func countPred(get func(m *Mol, i int) int, def int, p *exprParser[atomPred]) atomPred {
	n, ok := readNumber(p)
	if !ok {
		n = def
	}
	return func(m *Mol, i int) bool { return get(m, i) == n }
}

func atomPrimitive(p *exprParser[atomPred]) (atomPred, error) {
	c := p.peek()
	rest := p.src[p.pos:]

	// Two-letter element symbols win over single-letter primitives.
	if c >= 'A' && c <= 'Z' && len(rest) >= 2 && rest[1] >= 'a' && rest[1] <= 'z' {
		if e, ok := bySymbol[rest[:2]]; ok {
			p.pos += 2
			return elementPred(e.Number, false), nil
		}
	}
	if len(rest) >= 2 {
		if up, ok := aromaticSymbols[rest[:2]]; ok {
			p.pos += 2
			return elementPred(bySymbol[up].Number, true), nil
		}
	}

	switch {
	case isDigit(c):
		n, _ := readNumber(p)
		return func(m *Mol, i int) bool { return m.Atoms[i].Isotope == n }, nil
	case c == '+' || c == '-':
		return chargePrimitive(p), nil
	case c == '$':
		if len(rest) < 2 || rest[1] != '(' {
			return nil, errors.New(errors.ErrCodeSubstructureSearchFailed, "'$' must open a recursive pattern")
		}
		end := matchingParen(p.src, p.pos+1)
		if end < 0 {
			return nil, errors.New(errors.ErrCodeSubstructureSearchFailed, "unterminated recursive pattern")
		}
		inner, err := CompileSMARTS(p.src[p.pos+2 : end])
		if err != nil {
			return nil, err
		}
		p.pos = end + 1
		return func(m *Mol, i int) bool { return inner.matchAt(m, i) }, nil
	case c == '@':
		p.pos++
		for p.pos < len(p.src) && (p.src[p.pos] == '@' || p.src[p.pos] == '?') {
			p.pos++
		}
		return anyAtom, nil
	}

	p.pos++
	switch c {
	case '*':
		return anyAtom, nil
	case 'a':
		return func(m *Mol, i int) bool { return m.Atoms[i].Aromatic }, nil
	case 'A':
		return func(m *Mol, i int) bool { return !m.Atoms[i].Aromatic }, nil
	case '#':
		n, ok := readNumber(p)
		if !ok {
			return nil, errors.New(errors.ErrCodeSubstructureSearchFailed, "'#' needs an atomic number")
		}
		return func(m *Mol, i int) bool { return m.Atoms[i].Number == n }, nil
	case 'D':
		return countPred(func(m *Mol, i int) int { return m.Degree(i) }, 1, p), nil
	case 'X':
		return countPred(func(m *Mol, i int) int { return m.Connectivity(i) }, 1, p), nil
	case 'H':
		return countPred(func(m *Mol, i int) int { return m.Atoms[i].HCount() }, 1, p), nil
	case 'h':
		return countPred(func(m *Mol, i int) int { return m.Atoms[i].ImplicitH }, 1, p), nil
	case 'v':
		return countPred(func(m *Mol, i int) int { return m.Valence(i) }, 1, p), nil
	case 'x':
		return countPred(ringBondCount, 1, p), nil
	case 'R':
		n, ok := readNumber(p)
		if ok && n == 0 {
			return func(m *Mol, i int) bool { return !m.Atoms[i].InRing }, nil
		}
		return func(m *Mol, i int) bool { return m.Atoms[i].InRing }, nil
	case 'r':
		n, ok := readNumber(p)
		if !ok {
			return func(m *Mol, i int) bool { return m.Atoms[i].InRing }, nil
		}
		if n == 0 {
			return func(m *Mol, i int) bool { return !m.Atoms[i].InRing }, nil
		}
		return func(m *Mol, i int) bool {
			return m.Atoms[i].InRing && ringSizes(m, n)[i][n]
		}, nil
	}

	if c >= 'A' && c <= 'Z' {
		if e, ok := bySymbol[string(c)]; ok {
			return elementPred(e.Number, false), nil
		}
	}
	if up, ok := aromaticSymbols[string(c)]; ok {
		return elementPred(bySymbol[up].Number, true), nil
	}
	return nil, errors.Newf(errors.ErrCodeSubstructureSearchFailed, "unknown atom primitive %q", c)
}

func chargePrimitive(p *exprParser[atomPred]) atomPred {
	ch := p.peek()
	s := 1
	if ch == '-' {
		s = -1
	}
	p.pos++
	q := 1
	if n, ok := readNumber(p); ok {
		q = n
	} else {
		for p.peek() == ch {
			q++
			p.pos++
		}
	}
	want := s * q
	return func(m *Mol, i int) bool { return m.Atoms[i].Charge == want }
}

func ringBondCount(m *Mol, i int) int {
	c := 0
	for _, b := range m.AtomBonds(i) {
		if b.InRing {
			c++
		}
	}
	return c
}

//Personal.AI order the ending
