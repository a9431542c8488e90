package chem

// markRingBonds flags every bond that is not a bridge, and the atoms on them.
func markRingBonds(m *Mol) {
	n := len(m.Atoms)
	disc := make([]int, n)
	low := make([]int, n)
	bridge := make([]bool, len(m.Bonds))
	timer := 0

	var visit func(u, parentBond int)
	visit = func(u, parentBond int) {
		timer++
		disc[u], low[u] = timer, timer
		for _, bi := range m.Atoms[u].bonds {
			if bi == parentBond {
				continue
			}
			v := m.Bonds[bi].Other(u)
			if disc[v] == 0 {
				visit(v, bi)
				if low[v] < low[u] {
					low[u] = low[v]
				}
				if low[v] > disc[u] {
					bridge[bi] = true
				}
			} else if disc[v] < low[u] {
				low[u] = disc[v]
			}
		}
	}
	for i := range m.Atoms {
		if disc[i] == 0 {
			visit(i, -1)
		}
	}

	for bi, b := range m.Bonds {
		b.InRing = !bridge[bi]
		if b.InRing {
			m.Atoms[b.A].InRing = true
			m.Atoms[b.B].InRing = true
		}
	}
}

// findRings enumerates the simple cycles of at most maxSize atoms.  Each cycle
// is returned once, as atoms in path order starting from its lowest index.
func findRings(m *Mol, maxSize int) [][]int {
	var rings [][]int
	onPath := make([]bool, len(m.Atoms))

	for s := range m.Atoms {
		if !m.Atoms[s].InRing {
			continue
		}
		path := []int{s}
		onPath[s] = true

		var walk func(u int)
		walk = func(u int) {
			for _, bi := range m.Atoms[u].bonds {
				b := m.Bonds[bi]
				if !b.InRing {
					continue
				}
				v := b.Other(u)
				if v == s {
					if len(path) >= 3 && path[1] < path[len(path)-1] {
						rings = append(rings, append([]int(nil), path...))
					}
					continue
				}
				if v < s || onPath[v] || len(path) >= maxSize {
					continue
				}
				onPath[v] = true
				path = append(path, v)
				walk(v)
				path = path[:len(path)-1]
				onPath[v] = false
			}
		}
		walk(s)
		onPath[s] = false
	}
	return rings
}

// ringSizes maps each atom to the sizes of the small rings it belongs to.
func ringSizes(m *Mol, maxSize int) []map[int]bool {
	out := make([]map[int]bool, len(m.Atoms))
	for _, r := range findRings(m, maxSize) {
		for _, a := range r {
			if out[a] == nil {
				out[a] = make(map[int]bool)
			}
			out[a][len(r)] = true
		}
	}
	return out
}

//Personal.AI order the ending
