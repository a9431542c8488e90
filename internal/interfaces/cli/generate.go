package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolSieve/pkg/errors"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

type generateOptions struct {
	target   string
	count    int
	seed     string
	strategy string
	mwMin    int
	mwMax    int
	groups   string
	allowBBB bool
}

// NewGenerateCmd runs one generation batch and prints the ranked candidates.
func NewGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate, screen and rank candidate structures for a target",
		Example: "  molsieve generate --target EGFR --count 10\n" +
			"  molsieve generate --target 5-HT2A --seed 'c1ccccc1N' --mw-max 450 -o table",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}

			b, ctx, done, err := backendFor(cmd)
			if err != nil {
				return err
			}
			defer done()

			resp, err := b.Generate(ctx, req)
			if err != nil {
				return err
			}
			if err := PrintResult(cmd, generateView{resp}); err != nil {
				return err
			}
			if !resp.OK {
				return errors.New(errors.ErrCodeProposalSourceFailed, resp.Error)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.target, "target", "t", "", "therapeutic target or indication")
	f.IntVarP(&opts.count, "count", "n", 10, "number of candidates to return (1-50)")
	f.StringVar(&opts.seed, "seed", "", "seed SMILES to derive candidates from")
	f.StringVar(&opts.strategy, "strategy", ptypes.StrategyTransformer, "proposal strategy (genetic, transformer, rnn, graph-ml)")
	f.IntVar(&opts.mwMin, "mw-min", 0, "minimum molecular weight")
	f.IntVar(&opts.mwMax, "mw-max", 0, "maximum molecular weight")
	f.StringVar(&opts.groups, "groups", "", "functional groups to favour")
	f.BoolVar(&opts.allowBBB, "bbb", false, "prefer candidates that cross the blood-brain barrier")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func (o *generateOptions) request() (*ptypes.GenerateRequest, error) {
	if strings.TrimSpace(o.target) == "" {
		return nil, errors.InvalidParam("--target must not be empty")
	}
	switch o.strategy {
	case ptypes.StrategyGenetic, ptypes.StrategyTransformer, ptypes.StrategyRNN, ptypes.StrategyGraphML:
	default:
		return nil, errors.InvalidParam(fmt.Sprintf("unknown strategy %q", o.strategy))
	}
	if o.mwMin > 0 && o.mwMax > 0 && o.mwMin > o.mwMax {
		return nil, errors.InvalidParam("--mw-min must not exceed --mw-max")
	}

	props := ptypes.DefaultDesiredProperties()
	props.BBBNo = !o.allowBBB
	req := &ptypes.GenerateRequest{
		Target:      o.target,
		Properties:  &props,
		Count:       o.count,
		Strategy:    o.strategy,
		SeedSMILES:  o.seed,
		Constraints: ptypes.GenerationConstraints{Groups: o.groups},
	}
	if o.mwMin > 0 {
		v := o.mwMin
		req.Constraints.MWMin = &v
	}
	if o.mwMax > 0 {
		v := o.mwMax
		req.Constraints.MWMax = &v
	}
	return req, nil
}

type generateView struct{ *ptypes.GenerateResponse }

func (v generateView) MarshalJSON() ([]byte, error) { return marshalJSON(v.GenerateResponse) }

func (v generateView) TableHeaders() []string {
	return []string{"RANK", "SCORE", "SMILES", "SYNTH", "RATIONALE"}
}

func (v generateView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Generated))
	for i, c := range v.Generated {
		smiles := c.Canonical
		if smiles == "" {
			smiles = c.SMILES
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(c.Score, 'f', 1, 64),
			smiles,
			strconv.FormatBool(c.Synthesizable),
			truncate(c.Rationale, 60),
		})
	}
	return rows
}

func (v generateView) Text() string {
	if !v.OK {
		return fmt.Sprintf("generation failed: %s\n", v.Error)
	}
	head := fmt.Sprintf("%d candidates", v.Total)
	if v.RunID != "" {
		head += " (run " + v.RunID + ")"
	}
	return head + "\n" + FormatTable(v.TableHeaders(), v.TableRows())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func marshalJSON(v interface{}) ([]byte, error) { return json.Marshal(v) }

//Personal.AI order the ending
