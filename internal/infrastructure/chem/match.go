package chem

// Matches reports whether q occurs anywhere in m.
func (q *Query) Matches(m *Mol) bool {
	return q.search(m, -1)
}

// matchAt reports whether q occurs with its first atom mapped onto root.
func (q *Query) matchAt(m *Mol, root int) bool {
	return q.search(m, root)
}

func (q *Query) search(m *Mol, root int) bool {
	if len(q.atoms) == 0 || len(m.Atoms) == 0 {
		return false
	}
	s := &matchState{
		q:       q,
		m:       m,
		root:    root,
		mapping: make([]int, len(q.atoms)),
		used:    make([]bool, len(m.Atoms)),
	}
	for i := range s.mapping {
		s.mapping[i] = -1
	}
	return s.extend(0)
}

type matchState struct {
	q       *Query
	m       *Mol
	root    int
	mapping []int
	used    []bool
}

func (s *matchState) candidates(k int) []int {
	qi := s.q.order[k]
	if pb := s.q.parent[k]; pb >= 0 {
		return s.m.Neighbors(s.mapping[s.q.bonds[pb].other(qi)])
	}
	if k == 0 && s.root >= 0 {
		return []int{s.root}
	}
	all := make([]int, len(s.m.Atoms))
	for i := range all {
		all[i] = i
	}
	return all
}

func (s *matchState) extend(k int) bool {
	if k == len(s.q.order) {
		return true
	}
	qi := s.q.order[k]
	for _, t := range s.candidates(k) {
		if s.used[t] || !s.q.atoms[qi].pred(s.m, t) || !s.bondsAgree(qi, t) {
			continue
		}
		s.mapping[qi], s.used[t] = t, true
		if s.extend(k + 1) {
			return true
		}
		s.mapping[qi], s.used[t] = -1, false
	}
	return false
}

// bondsAgree checks every query bond from qi to an already mapped atom.
func (s *matchState) bondsAgree(qi, t int) bool {
	for _, bi := range s.q.atoms[qi].bonds {
		qb := s.q.bonds[bi]
		mo := s.mapping[qb.other(qi)]
		if mo < 0 {
			continue
		}
		tb := s.m.BondBetween(t, mo)
		if tb == nil || !qb.pred(s.m, tb) {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
