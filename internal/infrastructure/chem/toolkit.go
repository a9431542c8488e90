package chem

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/turtacn/MolSieve/internal/domain/molecule"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/errors"
)

// DefaultPatternCacheSize bounds the compiled-pattern cache.
const DefaultPatternCacheSize = 256

// Toolkit adapts the package functions to the molecule collaborator
// contracts.  It is safe for concurrent use; parsed structures are not
// shared between calls.
type Toolkit struct {
	patterns *lru.Cache[molecule.Pattern, *Query]
	log      logging.Logger
}

// Option configures a Toolkit.
type Option func(*toolkitOptions)

type toolkitOptions struct {
	cacheSize int
	log       logging.Logger
}

// WithPatternCacheSize overrides DefaultPatternCacheSize.
func WithPatternCacheSize(n int) Option {
	return func(o *toolkitOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithLogger sets the logger used for pattern compilation failures.
func WithLogger(log logging.Logger) Option {
	return func(o *toolkitOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// NewToolkit creates a Toolkit.
func NewToolkit(opts ...Option) (*Toolkit, error) {
	o := toolkitOptions{cacheSize: DefaultPatternCacheSize, log: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	cache, err := lru.New[molecule.Pattern, *Query](o.cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create pattern cache")
	}
	return &Toolkit{patterns: cache, log: o.log}, nil
}

// MustNewToolkit is NewToolkit for static wiring and tests.
func MustNewToolkit(opts ...Option) *Toolkit {
	tk, err := NewToolkit(opts...)
	if err != nil {
		panic(err)
	}
	return tk
}

var _ molecule.Toolkit = (*Toolkit)(nil)

func asMol(p molecule.ParsedStructure) (*Mol, error) {
	m, ok := p.(*Mol)
	if !ok || m == nil {
		return nil, errors.New(errors.ErrCodeMoleculeParsingFailed, fmt.Sprintf("unsupported structure type %T", p))
	}
	return m, nil
}

func (t *Toolkit) Parse(s string) (molecule.ParsedStructure, error) {
	m, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (t *Toolkit) Canonicalize(p molecule.ParsedStructure) (string, error) {
	m, err := asMol(p)
	if err != nil {
		return "", err
	}
	return Canonical(m), nil
}

func (t *Toolkit) MolecularWeight(p molecule.ParsedStructure) (float64, error) {
	m, err := asMol(p)
	if err != nil {
		return 0, err
	}
	return MolecularWeight(m), nil
}

func (t *Toolkit) LogP(p molecule.ParsedStructure) (float64, error) {
	m, err := asMol(p)
	if err != nil {
		return 0, err
	}
	return LogP(m), nil
}

func (t *Toolkit) HBondDonors(p molecule.ParsedStructure) (int, error) {
	m, err := asMol(p)
	if err != nil {
		return 0, err
	}
	return HBondDonors(m), nil
}

func (t *Toolkit) HBondAcceptors(p molecule.ParsedStructure) (int, error) {
	m, err := asMol(p)
	if err != nil {
		return 0, err
	}
	return HBondAcceptors(m), nil
}

func (t *Toolkit) TPSA(p molecule.ParsedStructure) (float64, error) {
	m, err := asMol(p)
	if err != nil {
		return 0, err
	}
	return TPSA(m), nil
}

func (t *Toolkit) RotatableBonds(p molecule.ParsedStructure) (int, error) {
	m, err := asMol(p)
	if err != nil {
		return 0, err
	}
	return RotatableBonds(m), nil
}

func (t *Toolkit) CountAtoms(p molecule.ParsedStructure, atomicNumbers ...int) (int, error) {
	m, err := asMol(p)
	if err != nil {
		return 0, err
	}
	return CountAtoms(m, atomicNumbers...), nil
}

func (t *Toolkit) Formula(p molecule.ParsedStructure) (string, error) {
	m, err := asMol(p)
	if err != nil {
		return "", err
	}
	return Formula(m), nil
}

// HasSubstructure compiles pattern once and caches the query.
func (t *Toolkit) HasSubstructure(p molecule.ParsedStructure, pattern molecule.Pattern) (bool, error) {
	m, err := asMol(p)
	if err != nil {
		return false, err
	}
	q, err := t.compile(pattern)
	if err != nil {
		return false, err
	}
	return q.Matches(m), nil
}

func (t *Toolkit) compile(pattern molecule.Pattern) (*Query, error) {
	if q, ok := t.patterns.Get(pattern); ok {
		return q, nil
	}
	var (
		q   *Query
		err error
	)
	switch pattern.Kind {
	case molecule.PatternSMILES:
		q, err = CompileStructureQuery(pattern.Expr)
	default:
		q, err = CompileSMARTS(pattern.Expr)
	}
	if err != nil {
		t.log.Debug("pattern compilation failed",
			logging.String("pattern", pattern.Expr),
			logging.String("kind", pattern.Kind.String()),
			logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeSubstructureSearchFailed, "invalid pattern").WithDetail(err.Error())
	}
	t.patterns.Add(pattern, q)
	return q, nil
}

//Personal.AI order the ending
