package cli

import (
	"context"

	"github.com/turtacn/MolSieve/internal/app"
	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/client"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// AppBackend runs commands against services assembled in-process.
func AppBackend(ctx context.Context, cfg *config.Config, log logging.Logger) (Backend, func() error, error) {
	a, err := app.New(ctx, cfg, log, app.WithSource("cli"))
	if err != nil {
		return nil, nil, err
	}
	return localBackend{a: a}, a.Close, nil
}

type localBackend struct{ a *app.App }

func (b localBackend) ValidateStructure(ctx context.Context, smiles string) (*ptypes.ValidationReport, error) {
	return b.a.Screening.ValidateStructure(ctx, smiles)
}

func (b localBackend) BatchValidate(ctx context.Context, items []interface{}) (*ptypes.BatchValidateResponse, error) {
	return b.a.Screening.BatchValidate(ctx, items)
}

func (b localBackend) PredictProperties(ctx context.Context, req *ptypes.PredictRequest) (*ptypes.PredictionResult, error) {
	return b.a.Screening.PredictProperties(ctx, req)
}

func (b localBackend) Generate(ctx context.Context, req *ptypes.GenerateRequest) (*ptypes.GenerateResponse, error) {
	return b.a.Generation.Generate(ctx, req)
}

// remoteBackend forwards to a running API server.
type remoteBackend struct{ c *client.Client }

func (b remoteBackend) ValidateStructure(ctx context.Context, smiles string) (*ptypes.ValidationReport, error) {
	return b.c.Molecules().ValidateStructure(ctx, smiles)
}

func (b remoteBackend) BatchValidate(ctx context.Context, items []interface{}) (*ptypes.BatchValidateResponse, error) {
	return b.c.Generator().ValidateBatch(ctx, items)
}

func (b remoteBackend) PredictProperties(ctx context.Context, req *ptypes.PredictRequest) (*ptypes.PredictionResult, error) {
	return b.c.Molecules().PredictProperties(ctx, req)
}

func (b remoteBackend) Generate(ctx context.Context, req *ptypes.GenerateRequest) (*ptypes.GenerateResponse, error) {
	return b.c.Generator().Run(ctx, req)
}

//Personal.AI order the ending
