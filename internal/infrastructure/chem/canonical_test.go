package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canonical(t *testing.T, s string) string {
	t.Helper()
	return Canonical(mustParse(t, s))
}

func TestCanonical_KnownForms(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"CC(=O)O", "CC(=O)O"},
		{"OC(C)=O", "CC(=O)O"},
		{"OCC", "CCO"},
		{"C1=CC=CC=C1", "c1ccccc1"},
		{"c1ccccc1", "c1ccccc1"},
		{"c1ccccc1C", "Cc1ccccc1"},
		{"C1CCCCC1", "C1CCCCC1"},
		{"[NH4+]", "[NH4+]"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, canonical(t, tc.in))
		})
	}
}

func TestCanonical_Idempotent(t *testing.T) {
	inputs := []string{
		"CC(=O)Nc1ccc(O)cc1",
		"CC(C)Cc1ccc(cc1)C(C)C(=O)O",
		"CN1C=NC2=C1C(=O)N(C(=O)N2C)C",
		"CC(=O)Oc1ccccc1C(=O)O",
		"c1ccc2ccccc2c1",
		"c1ccc2c(c1)ccc1ccccc12",
		"O=C1C=CC(=O)C=C1",
		"C[N+](C)(C)C",
		"[O-][N+](=O)c1ccccc1",
		"c1cc[nH]c1",
		"c1ccccc1c1ccccc1",
		"ClCCl",
		"CS(=O)(=O)C",
		"CN(=O)=O",
		"[Na+].[Cl-]",
		"NC(=O)c1ccc(O)cc1",
	}
	for _, s := range inputs {
		t.Run(s, func(t *testing.T) {
			first := canonical(t, s)
			require.NotEmpty(t, first)
			assert.Equal(t, first, canonical(t, first))
		})
	}
}

func TestCanonical_InputOrderIndependent(t *testing.T) {
	groups := [][]string{
		{"CCO", "OCC", "C(O)C"},
		{"CC(=O)O", "OC(=O)C", "C(C)(O)=O"},
		{"Cc1ccccc1", "c1ccc(C)cc1", "C1=CC=C(C)C=C1"},
		{"CC(=O)Nc1ccc(O)cc1", "Oc1ccc(NC(C)=O)cc1"},
	}
	for _, g := range groups {
		want := canonical(t, g[0])
		for _, s := range g[1:] {
			assert.Equal(t, want, canonical(t, s), s)
		}
	}
}

func TestCanonical_DisconnectedKeepsBothParts(t *testing.T) {
	got := canonical(t, "[Na+].[Cl-]")
	assert.Contains(t, got, "[Na+]")
	assert.Contains(t, got, "[Cl-]")
	assert.Contains(t, got, ".")
}

func TestCanonical_NitroFormsAgree(t *testing.T) {
	want := canonical(t, "[O-][N+](=O)c1ccccc1")
	assert.Equal(t, want, canonical(t, "O=N(=O)c1ccccc1"))
	assert.Equal(t, want, canonical(t, "c1ccccc1N(=O)=O"))
	assert.Contains(t, want, "[N+]")
	assert.Contains(t, want, "[O-]")
}

func TestCanonical_Tetrahedral(t *testing.T) {
	r := canonical(t, "C[C@H](N)O")
	s := canonical(t, "C[C@@H](N)O")
	assert.NotEqual(t, r, s)
	assert.Contains(t, r, "@")
	assert.Contains(t, s, "@")
	assert.NotEqual(t, canonical(t, "CC(N)O"), r)

	// Swapping two neighbours and the tag describes the same centre.
	assert.Equal(t, r, canonical(t, "N[C@@H](C)O"))
	assert.Equal(t, r, canonical(t, "O[C@@H](N)C"))
	assert.Equal(t, s, canonical(t, "N[C@H](C)O"))

	assert.Equal(t, r, canonical(t, r))
	assert.Equal(t, s, canonical(t, s))
}

func TestCanonical_TetrahedralInRing(t *testing.T) {
	r := canonical(t, "C[C@H]1CCCO1")
	s := canonical(t, "C[C@@H]1CCCO1")
	assert.NotEqual(t, r, s)
	assert.Equal(t, r, canonical(t, r))
	assert.Equal(t, s, canonical(t, s))
}

func TestCanonical_SymmetricCentreDropsTag(t *testing.T) {
	plain := canonical(t, "CC(C)O")
	assert.Equal(t, plain, canonical(t, "C[C@H](C)O"))
	assert.Equal(t, plain, canonical(t, "C[C@@H](C)O"))
	assert.NotContains(t, plain, "@")
}

func TestCanonical_DoubleBond(t *testing.T) {
	trans := canonical(t, "F/C=C/F")
	cis := canonical(t, "F/C=C\\F")
	assert.NotEqual(t, trans, cis)
	assert.NotEqual(t, canonical(t, "FC=CF"), trans)

	assert.Equal(t, trans, canonical(t, "F\\C=C\\F"))
	assert.Equal(t, cis, canonical(t, "F\\C=C/F"))
	assert.Equal(t, trans, canonical(t, trans))
	assert.Equal(t, cis, canonical(t, cis))
}

func TestCanonical_DoubleBondWithEquivalentSubstituentsDropsMarks(t *testing.T) {
	assert.Equal(t, canonical(t, "CC(C)=CF"), canonical(t, "C/C(C)=C/F"))
}

func TestCanonicalRanks_Permutation(t *testing.T) {
	m := mustParse(t, "c1ccccc1")
	ranks, _ := canonicalRanks(m)
	seen := make(map[int]bool)
	for _, r := range ranks {
		assert.False(t, seen[r])
		seen[r] = true
	}
	assert.Len(t, seen, 6)
}

//Personal.AI order the ending
