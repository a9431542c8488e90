package client

import (
	"context"
	"errors"
	"strings"

	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// MoleculesClient covers /api/v1/molecule.
type MoleculesClient struct {
	client *Client
}

// ValidateStructure validates and reports on one SMILES string.
func (m *MoleculesClient) ValidateStructure(ctx context.Context, smiles string) (*ptypes.ValidationReport, error) {
	if strings.TrimSpace(smiles) == "" {
		return nil, errors.New("smiles is required")
	}
	var rep ptypes.ValidationReport
	if err := m.client.post(ctx, "/api/v1/molecule/validate-structure", ptypes.ValidateStructureRequest{SMILES: smiles}, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// PredictProperties asks the server for an ADMET estimate.  A throttled
// call surfaces as an *APIError with IsRateLimited.
func (m *MoleculesClient) PredictProperties(ctx context.Context, req *ptypes.PredictRequest) (*ptypes.PredictionResult, error) {
	if req == nil || strings.TrimSpace(req.Molecule) == "" {
		return nil, errors.New("molecule name is required")
	}
	var res ptypes.PredictionResult
	if err := m.client.post(ctx, "/api/v1/molecule/predict-properties", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

//Personal.AI order the ending
