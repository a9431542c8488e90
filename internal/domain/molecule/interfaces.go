package molecule

// ParsedStructure is the opaque molecular graph produced by a Parser.  It is
// owned by the call chain that parsed it and must not be cached across calls.
type ParsedStructure interface{}

// Parser turns a structure string into a ParsedStructure and renders the
// canonical form of a parsed structure.  Canonicalize must be idempotent:
// parsing and canonicalizing a canonical string yields the same string.
type Parser interface {
	Parse(s string) (ParsedStructure, error)
	Canonicalize(p ParsedStructure) (string, error)
}

// DescriptorService computes the numeric descriptors used by screening.
type DescriptorService interface {
	MolecularWeight(p ParsedStructure) (float64, error)
	LogP(p ParsedStructure) (float64, error)
	HBondDonors(p ParsedStructure) (int, error)
	HBondAcceptors(p ParsedStructure) (int, error)
	TPSA(p ParsedStructure) (float64, error)
	RotatableBonds(p ParsedStructure) (int, error)
}

// CompositionService exposes atom-level composition facts.
type CompositionService interface {
	// CountAtoms returns how many atoms carry any of the given atomic numbers.
	CountAtoms(p ParsedStructure, atomicNumbers ...int) (int, error)
	// Formula returns the Hill-order molecular formula, e.g. "C2H4O2".
	Formula(p ParsedStructure) (string, error)
}

// PatternKind tells the matcher how to read Pattern.Expr.
type PatternKind int

const (
	// PatternSMARTS is a query expression (atom primitives, recursive
	// environments, any-bond "~").
	PatternSMARTS PatternKind = iota
	// PatternSMILES is a plain structure used as a query: aromaticity is
	// perceived and bond orders must match exactly.
	PatternSMILES
)

func (k PatternKind) String() string {
	if k == PatternSMILES {
		return "smiles"
	}
	return "smarts"
}

// Pattern is a substructure query.
type Pattern struct {
	Expr string
	Kind PatternKind
}

// SubstructureMatcher answers whether a parsed structure contains a pattern.
// An error means the pattern itself could not be compiled.
type SubstructureMatcher interface {
	HasSubstructure(p ParsedStructure, pattern Pattern) (bool, error)
}

// Toolkit bundles every collaborator a chemistry backend provides.
type Toolkit interface {
	Parser
	DescriptorService
	CompositionService
	SubstructureMatcher
}

// CanonicalCache memoizes canonical forms keyed by the raw input string.
type CanonicalCache interface {
	Get(key string) (string, bool)
	Set(key string, value string)
}

//Personal.AI order the ending
