package candidate

import "context"

// ProposalRequest is what a proposal source is asked for in one round trip.
type ProposalRequest struct {
	Target      string
	Profile     DesiredProfile
	Constraints Constraints
	Count       int
	Seed        string
	Strategy    string
}

// ProposalSource returns raw text that is expected to carry a JSON object
// with a "candidates" array.  Decoding is the caller's job.
type ProposalSource interface {
	Propose(ctx context.Context, req ProposalRequest) (string, error)
}

// PropertyPredictor returns a best-effort prediction for one structure.
type PropertyPredictor interface {
	Predict(ctx context.Context, name, smiles string) (*Prediction, error)
}

//Personal.AI order the ending
