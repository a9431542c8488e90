// Package molecule holds the structure-level building blocks of the screening
// pipeline: the collaborator contracts a chemistry backend must satisfy, the
// Structure Validator and the Property Calculator Adapter.
package molecule

import (
	"fmt"
	"regexp"

	"github.com/turtacn/MolSieve/pkg/errors"
)

// MaxStructureLength is the default input bound enforced before parsing.
const MaxStructureLength = 512

// ErrInvalidStructure is the template for every structure rejection.  Match
// with errors.IsInvalidStructure rather than by identity.
var ErrInvalidStructure = errors.New(errors.ErrCodeMoleculeInvalidSMILES, "invalid SMILES string")

// validSMILESChars is the lexical alphabet of SMILES.  Strings outside it are
// rejected without a parser round-trip.
var validSMILESChars = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]()=#$/\\%.:*]+$`)

// StructureValidator is the contract shared by Validator and its memoized
// decorator.
type StructureValidator interface {
	Validate(s string) (string, error)
}

// Validator checks syntactic validity and returns the canonical form.
// It is a pure function of its input and the parser's behaviour.
type Validator struct {
	parser    Parser
	maxLength int
}

// ValidatorOption customises a Validator.
type ValidatorOption func(*Validator)

// WithMaxLength overrides MaxStructureLength.  Non-positive values are ignored.
func WithMaxLength(n int) ValidatorOption {
	return func(v *Validator) {
		if n > 0 {
			v.maxLength = n
		}
	}
}

// NewValidator wraps parser.
func NewValidator(parser Parser, opts ...ValidatorOption) *Validator {
	v := &Validator{parser: parser, maxLength: MaxStructureLength}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MaxLength reports the active input bound.
func (v *Validator) MaxLength() int { return v.maxLength }

// Validate returns the canonical form of s or an InvalidStructure error.
func (v *Validator) Validate(s string) (string, error) {
	_, canonical, err := v.ValidateParsed(s)
	return canonical, err
}

// ValidateParsed is Validate that also hands back the parsed structure so the
// caller's chain does not parse twice.
func (v *Validator) ValidateParsed(s string) (ParsedStructure, string, error) {
	if err := v.precheck(s); err != nil {
		return nil, "", err
	}

	parsed, err := v.parser.Parse(s)
	if err != nil {
		return nil, "", ErrInvalidStructure.WithDetail(err.Error()).WithCause(err)
	}
	if parsed == nil {
		return nil, "", ErrInvalidStructure.WithDetail("parser returned no structure")
	}

	canonical, err := v.parser.Canonicalize(parsed)
	if err != nil {
		return nil, "", ErrInvalidStructure.WithDetail("canonicalization failed").WithCause(err)
	}
	if canonical == "" {
		return nil, "", ErrInvalidStructure.WithDetail("empty canonical form")
	}
	return parsed, canonical, nil
}

// IsValid is a boolean convenience over Validate.
func (v *Validator) IsValid(s string) bool {
	_, err := v.Validate(s)
	return err == nil
}

// precheck applies the cheap rejections that never reach the parser.
func (v *Validator) precheck(s string) error {
	if s == "" {
		return ErrInvalidStructure.WithDetail("empty input")
	}
	if len(s) > v.maxLength {
		return ErrInvalidStructure.WithDetail(fmt.Sprintf("length %d exceeds %d characters", len(s), v.maxLength))
	}
	if !validSMILESChars.MatchString(s) {
		return ErrInvalidStructure.WithDetail("contains characters outside the SMILES alphabet")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// MemoizedValidator
// ─────────────────────────────────────────────────────────────────────────────

// MemoizedValidator caches successful canonicalizations.  Rejections are not
// cached; they are cheap to recompute and usually fail in precheck.
type MemoizedValidator struct {
	inner *Validator
	cache CanonicalCache
}

// NewMemoizedValidator decorates inner with cache.
func NewMemoizedValidator(inner *Validator, cache CanonicalCache) *MemoizedValidator {
	return &MemoizedValidator{inner: inner, cache: cache}
}

func (m *MemoizedValidator) Validate(s string) (string, error) {
	if canonical, ok := m.cache.Get(s); ok {
		return canonical, nil
	}
	canonical, err := m.inner.Validate(s)
	if err != nil {
		return "", err
	}
	m.cache.Set(s, canonical)
	return canonical, nil
}

// ValidateParsed always parses; parsed structures are never cached.
func (m *MemoizedValidator) ValidateParsed(s string) (ParsedStructure, string, error) {
	parsed, canonical, err := m.inner.ValidateParsed(s)
	if err == nil {
		m.cache.Set(s, canonical)
	}
	return parsed, canonical, err
}

//Personal.AI order the ending
