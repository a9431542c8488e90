package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolSieve/pkg/errors"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// NewPredictCmd asks the property predictor about one molecule.
func NewPredictCmd() *cobra.Command {
	var name, smiles string
	cmd := &cobra.Command{
		Use:     "predict",
		Short:   "Predict ADMET-style properties for a molecule",
		Example: "  molsieve predict --name aspirin --smiles 'CC(=O)Oc1ccccc1C(=O)O'",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" && strings.TrimSpace(smiles) == "" {
				return errors.InvalidParam("--name or --smiles is required")
			}
			if name == "" {
				name = smiles
			}

			b, ctx, done, err := backendFor(cmd)
			if err != nil {
				return err
			}
			defer done()

			res, err := b.PredictProperties(ctx, &ptypes.PredictRequest{Molecule: name, SMILES: smiles})
			if err != nil {
				return err
			}
			return PrintResult(cmd, predictView{res})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "molecule name")
	cmd.Flags().StringVar(&smiles, "smiles", "", "molecule SMILES")
	return cmd
}

type predictView struct{ *ptypes.PredictionResult }

func (v predictView) MarshalJSON() ([]byte, error) { return marshalJSON(v.PredictionResult) }

func (v predictView) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Molecule:        %s\n", v.Molecule)
	if !v.Success {
		fmt.Fprintf(&sb, "Error:           %s\n", v.Error)
		return sb.String()
	}
	source := "model"
	if v.Heuristic {
		source = "heuristic"
	}
	if v.Cached {
		source += ", cached"
	}
	fmt.Fprintf(&sb, "Source:          %s\n", source)

	p := v.Predictions
	if p == nil {
		return sb.String()
	}
	if p.Toxicity != nil {
		fmt.Fprintf(&sb, "Toxicity:        %s\n", p.Toxicity.Level)
	}
	if p.Solubility != nil {
		fmt.Fprintf(&sb, "Solubility:      %s\n", formatFloat(p.Solubility.Score))
	}
	if p.DrugLikeness != nil {
		fmt.Fprintf(&sb, "Drug-likeness:   %s\n", formatFloat(p.DrugLikeness.Score))
	}
	if p.Bioavailability != nil {
		fmt.Fprintf(&sb, "Bioavailability: %s%%\n", formatFloat(p.Bioavailability.Percentage))
	}
	if p.BBBPenetration != nil && p.BBBPenetration.CanCross != nil {
		fmt.Fprintf(&sb, "BBB:             %t (%s)\n", *p.BBBPenetration.CanCross, p.BBBPenetration.Confidence)
	}
	if p.LipinskiRules != nil && p.LipinskiRules.Passes != nil {
		fmt.Fprintf(&sb, "Lipinski:        %s\n", passFail(*p.LipinskiRules.Passes, p.LipinskiRules.Violations))
	}
	return sb.String()
}

//Personal.AI order the ending
