package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// GeneratorClient covers /api/v1/generator.
type GeneratorClient struct {
	client *Client
}

// RunList is the body of GET /api/v1/generator/runs.
type RunList struct {
	Runs   []ptypes.RunSummary `json:"runs"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// Run generates, screens and ranks candidates.
func (g *GeneratorClient) Run(ctx context.Context, req *ptypes.GenerateRequest) (*ptypes.GenerateResponse, error) {
	if req == nil {
		return nil, errors.New("generate request is required")
	}
	var resp ptypes.GenerateResponse
	if err := g.client.post(ctx, "/api/v1/generator/run", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateBatch validates a list of SMILES.  Entries are sent as-is, so
// non-string entries come back as invalid items.
func (g *GeneratorClient) ValidateBatch(ctx context.Context, items []interface{}) (*ptypes.BatchValidateResponse, error) {
	var resp ptypes.BatchValidateResponse
	if err := g.client.post(ctx, "/api/v1/generator/validate-batch", ptypes.BatchValidateRequest{SMILESList: items}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *GeneratorClient) GetRun(ctx context.Context, id string) (*ptypes.RunDetail, error) {
	if id == "" {
		return nil, errors.New("run id is required")
	}
	var run ptypes.RunDetail
	if err := g.client.get(ctx, "/api/v1/generator/runs/"+url.PathEscape(id), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (g *GeneratorClient) ListRuns(ctx context.Context, limit, offset int) (*RunList, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/api/v1/generator/runs"
	if len(q) > 0 {
		path = fmt.Sprintf("%s?%s", path, q.Encode())
	}
	var out RunList
	if err := g.client.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
