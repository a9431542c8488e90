package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolSieve/pkg/errors"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// NewValidateCmd validates a single structure and prints its report.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "validate SMILES",
		Short:   "Validate a structure and report properties, alerts and synthesizability",
		Example: "  molsieve validate 'CC(=O)Oc1ccccc1C(=O)O'\n  molsieve validate CCO -o json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, ctx, done, err := backendFor(cmd)
			if err != nil {
				return err
			}
			defer done()

			report, err := b.ValidateStructure(ctx, args[0])
			if err != nil {
				return err
			}
			return PrintResult(cmd, reportView{report})
		},
	}
}

// NewBatchValidateCmd validates one structure per line of --file.
func NewBatchValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "batch-validate",
		Short: "Validate a list of structures, one SMILES per line",
		Long:  "Reads SMILES from --file (or stdin with --file -). Blank lines and lines\nstarting with '#' are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readSMILESList(cmd, file)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return errors.New(errors.ErrCodeBatchEmpty, "no structures to validate")
			}

			b, ctx, done, err := backendFor(cmd)
			if err != nil {
				return err
			}
			defer done()

			resp, err := b.BatchValidate(ctx, items)
			if err != nil {
				return err
			}
			return PrintResult(cmd, batchView{resp})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one SMILES per line, '-' for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readSMILESList(cmd *cobra.Command, path string) ([]interface{}, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeBadRequest, "cannot open %s", path)
		}
		defer f.Close()
		r = f
	}

	var items []interface{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read structure list")
	}
	return items, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Views
// ─────────────────────────────────────────────────────────────────────────────

type reportView struct{ *ptypes.ValidationReport }

func (v reportView) MarshalJSON() ([]byte, error) { return marshalJSON(v.ValidationReport) }

func (v reportView) Text() string {
	r := v.ValidationReport
	var sb strings.Builder
	fmt.Fprintf(&sb, "SMILES:     %s\n", r.SMILES)
	if !r.Valid {
		fmt.Fprintf(&sb, "Valid:      no (%s)\n", deref(r.Error))
		return sb.String()
	}
	fmt.Fprintf(&sb, "Valid:      yes\n")
	fmt.Fprintf(&sb, "Canonical:  %s\n", deref(r.CanonicalSMILES))
	if r.Properties.MolecularFormula != nil {
		fmt.Fprintf(&sb, "Formula:    %s\n", *r.Properties.MolecularFormula)
	}
	if r.Properties.MolecularWeight != nil {
		fmt.Fprintf(&sb, "MW:         %.2f\n", *r.Properties.MolecularWeight)
	}
	if r.Properties.TPSA != nil {
		fmt.Fprintf(&sb, "TPSA:       %.2f\n", *r.Properties.TPSA)
	}
	if l := r.Properties.Lipinski; l != nil {
		fmt.Fprintf(&sb, "Lipinski:   %s\n", passFail(l.Passes, l.Violations))
	}
	names := make([]string, 0, len(r.Safety.Toxicophores))
	for _, m := range r.Safety.Toxicophores {
		names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.Severity))
	}
	fmt.Fprintf(&sb, "Alerts:     %s\n", orNone(names))
	fmt.Fprintf(&sb, "PAINS:      %t\n", r.Safety.PainsMatch)
	synth := "likely"
	if !r.Synthesizability.Likely {
		synth = "unlikely: " + deref(r.Synthesizability.Reason)
	}
	fmt.Fprintf(&sb, "Synthesis:  %s\n", synth)
	return sb.String()
}

func (v reportView) TableHeaders() []string {
	return []string{"SMILES", "VALID", "CANONICAL", "MW", "ALERTS", "PAINS", "SYNTH"}
}

func (v reportView) TableRows() [][]string {
	r := v.ValidationReport
	return [][]string{{
		r.SMILES,
		strconv.FormatBool(r.Valid),
		deref(r.CanonicalSMILES),
		formatFloat(r.Properties.MolecularWeight),
		strconv.Itoa(len(r.Safety.Toxicophores)),
		strconv.FormatBool(r.Safety.PainsMatch),
		strconv.FormatBool(r.Synthesizability.Likely),
	}}
}

type batchView struct{ *ptypes.BatchValidateResponse }

func (v batchView) MarshalJSON() ([]byte, error) { return marshalJSON(v.BatchValidateResponse) }

func (v batchView) TableHeaders() []string {
	return []string{"#", "SMILES", "VALID", "CANONICAL", "MW", "ALERTS", "ERROR"}
}

func (v batchView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Validated))
	for i, it := range v.Validated {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			it.SMILES,
			strconv.FormatBool(it.Valid),
			deref(it.CanonicalSMILES),
			formatFloat(it.MolecularWeight),
			strconv.Itoa(len(it.Toxicophores)),
			deref(it.Error),
		})
	}
	return rows
}

func (v batchView) Text() string {
	valid := 0
	for _, it := range v.Validated {
		if it.Valid {
			valid++
		}
	}
	return fmt.Sprintf("%d of %d structures valid\n", valid, v.Total) +
		FormatTable(v.TableHeaders(), v.TableRows())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', 2, 64)
}

func passFail(ok bool, violations []string) string {
	if ok {
		return "pass"
	}
	return "fail: " + strings.Join(violations, ", ")
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

//Personal.AI order the ending
