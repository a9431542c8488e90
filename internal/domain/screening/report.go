package screening

import (
	"fmt"

	"github.com/turtacn/MolSieve/internal/domain/molecule"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/errors"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// MaxBatchSize is the default upper bound of a batch validation call.
const MaxBatchSize = 1000

const (
	msgInvalidStructure = "Invalid SMILES string"
	msgNotAString       = "SMILES must be a string"
)

// ParsingValidator is satisfied by molecule.Validator and
// molecule.MemoizedValidator.
type ParsingValidator interface {
	ValidateParsed(s string) (molecule.ParsedStructure, string, error)
}

// Reporter assembles ValidationReports.  Reports are produced on demand and
// never persisted.
type Reporter struct {
	validator ParsingValidator
	calc      *molecule.PropertyCalculator
	screen    *SafetyScreen
	assessor  *Assessor
	maxBatch  int
	log       logging.Logger
}

// ReporterOption customises a Reporter.
type ReporterOption func(*Reporter)

// WithMaxBatchSize overrides MaxBatchSize.
func WithMaxBatchSize(n int) ReporterOption {
	return func(r *Reporter) {
		if n > 0 {
			r.maxBatch = n
		}
	}
}

// WithLogger sets the reporter logger.
func WithLogger(log logging.Logger) ReporterOption {
	return func(r *Reporter) {
		if log != nil {
			r.log = log
		}
	}
}

func NewReporter(validator ParsingValidator, calc *molecule.PropertyCalculator, screen *SafetyScreen, assessor *Assessor, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		validator: validator,
		calc:      calc,
		screen:    screen,
		assessor:  assessor,
		maxBatch:  MaxBatchSize,
		log:       logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxBatch reports the active batch bound.
func (r *Reporter) MaxBatch() int { return r.maxBatch }

// Validate builds the full report for s.  An invalid structure is reported,
// not returned as an error.
func (r *Reporter) Validate(s string) *ptypes.ValidationReport {
	report := &ptypes.ValidationReport{SMILES: s}

	parsed, canonical, err := r.validator.ValidateParsed(s)
	if err != nil {
		msg := msgInvalidStructure
		report.Error = &msg
		return report
	}

	report.Valid = true
	report.CanonicalSMILES = &canonical

	if formula, err := r.calc.Formula(parsed); err == nil {
		report.Properties.MolecularFormula = &formula
	}
	if rec, err := r.calc.Calculate(parsed); err == nil {
		mw := molecule.Round2(rec.MolecularWeight)
		tpsa := molecule.Round2(rec.TPSA)
		report.Properties.MolecularWeight = &mw
		report.Properties.TPSA = &tpsa
		report.Properties.Lipinski = &ptypes.LipinskiProperties{
			MolecularWeight: mw,
			HBondDonors:     rec.HBondDonors,
			HBondAcceptors:  rec.HBondAcceptors,
			LogP:            molecule.Round2(rec.LogP),
			Passes:          rec.PassesRuleOfFive,
			Violations:      rec.Violations,
		}
	} else {
		r.log.Warn("descriptor calculation failed", logging.String("smiles", s), logging.Err(err))
	}

	safety := r.screen.Screen(parsed)
	report.Safety = ptypes.ReportSafety{
		Toxicophores:     safety.Toxicophores,
		PainsMatch:       safety.Interference,
		StructuralAlerts: safety.StructuralAlerts,
	}

	likely, reason := r.assessor.AssessScreened(s, parsed, safety)
	report.Synthesizability.Likely = likely
	if reason != "" {
		report.Synthesizability.Reason = &reason
	}
	return report
}

// BatchValidate validates raw decoded JSON values.  Non-string entries are
// reported per item; only an empty or oversized list fails the call.
func (r *Reporter) BatchValidate(items []interface{}) ([]ptypes.BatchItem, error) {
	if err := r.checkBatch(len(items)); err != nil {
		return nil, err
	}

	out := make([]ptypes.BatchItem, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			msg := msgNotAString
			out = append(out, ptypes.BatchItem{SMILES: stringify(item), Error: &msg})
			continue
		}
		out = append(out, ToBatchItem(r.Validate(s)))
	}
	return out, nil
}

// BatchValidateStrings is BatchValidate for callers that already hold strings.
func (r *Reporter) BatchValidateStrings(items []string) ([]ptypes.BatchItem, error) {
	raw := make([]interface{}, len(items))
	for i, s := range items {
		raw[i] = s
	}
	return r.BatchValidate(raw)
}

func (r *Reporter) checkBatch(n int) error {
	if n == 0 {
		return errors.New(errors.ErrCodeBatchEmpty, "smiles_list must not be empty")
	}
	if n > r.maxBatch {
		return errors.New(errors.ErrCodeBatchSizeExceeded, fmt.Sprintf("Maximum %d SMILES per batch", r.maxBatch)).
			WithDetail(fmt.Sprintf("received %d", n))
	}
	return nil
}

// ToBatchItem projects a full report onto the compact batch layout.
func ToBatchItem(rep *ptypes.ValidationReport) ptypes.BatchItem {
	item := ptypes.BatchItem{
		SMILES: rep.SMILES,
		Valid:  rep.Valid,
		Error:  rep.Error,
	}
	if !rep.Valid {
		return item
	}
	likely := rep.Synthesizability.Likely
	pains := rep.Safety.PainsMatch
	item.CanonicalSMILES = rep.CanonicalSMILES
	item.MolecularWeight = rep.Properties.MolecularWeight
	item.Synthesizable = &likely
	item.Toxicophores = rep.Safety.Toxicophores
	item.PainsMatch = &pains
	return item
}

func stringify(v interface{}) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}

//Personal.AI order the ending
