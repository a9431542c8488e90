package candidate

import "sort"

// RankAndDedupe marks first-seen canonical forms unique, forces filtered
// candidates to score 0 and returns a stably sorted copy, highest score
// first.  Nothing is removed: duplicates stay with Unique=false and filtered
// entries sink to the bottom.
func RankAndDedupe(cs []*Candidate) []*Candidate {
	seen := make(map[string]struct{}, len(cs))
	ranked := make([]*Candidate, 0, len(cs))

	for _, c := range cs {
		if c == nil {
			continue
		}
		key := c.DedupKey()
		_, dup := seen[key]
		c.Unique = !dup
		seen[key] = struct{}{}

		if c.Filtered {
			c.Score = 0
		}
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Top returns at most n leading candidates.
func Top(cs []*Candidate, n int) []*Candidate {
	if n < 0 || n >= len(cs) {
		return cs
	}
	return cs[:n]
}

//Personal.AI order the ending
