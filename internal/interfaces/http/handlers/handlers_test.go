package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSieve/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolSieve/pkg/errors"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeScreening struct {
	report   *ptypes.ValidationReport
	batch    *ptypes.BatchValidateResponse
	predict  *ptypes.PredictionResult
	err      error
	gotBatch []interface{}
	gotSMILES string
}

func (f *fakeScreening) ValidateStructure(ctx context.Context, smiles string) (*ptypes.ValidationReport, error) {
	f.gotSMILES = smiles
	return f.report, f.err
}

func (f *fakeScreening) BatchValidate(ctx context.Context, items []interface{}) (*ptypes.BatchValidateResponse, error) {
	f.gotBatch = items
	return f.batch, f.err
}

func (f *fakeScreening) PredictProperties(ctx context.Context, req *ptypes.PredictRequest) (*ptypes.PredictionResult, error) {
	return f.predict, f.err
}

func (f *fakeScreening) HandleBatchJob(ctx context.Context, msg *kafka.Message) error { return f.err }

type fakeGeneration struct {
	resp      *ptypes.GenerateResponse
	run       *ptypes.RunDetail
	runs      []ptypes.RunSummary
	err       error
	gotReq    *ptypes.GenerateRequest
	gotLimit  int
	gotOffset int
}

func (f *fakeGeneration) Generate(ctx context.Context, req *ptypes.GenerateRequest) (*ptypes.GenerateResponse, error) {
	f.gotReq = req
	return f.resp, f.err
}

func (f *fakeGeneration) GetRun(ctx context.Context, id string) (*ptypes.RunDetail, error) {
	if f.run == nil || f.run.ID != id {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run not found")
	}
	return f.run, nil
}

func (f *fakeGeneration) ListRuns(ctx context.Context, limit, offset int) ([]ptypes.RunSummary, error) {
	f.gotLimit, f.gotOffset = limit, offset
	return f.runs, f.err
}

func newAPI(gen *fakeGeneration, scr *fakeScreening) *gin.Engine {
	r := gin.New()
	api := r.Group("/api/v1")
	NewMoleculeHandler(scr, nil).RegisterRoutes(api)
	NewGeneratorHandler(gen, scr, nil).RegisterRoutes(api)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

// ─────────────────────────────────────────────────────────────────────────────
// Molecule
// ─────────────────────────────────────────────────────────────────────────────

func TestMoleculeHandler_ValidateStructure(t *testing.T) {
	canon := "CC(=O)O"
	scr := &fakeScreening{report: &ptypes.ValidationReport{SMILES: "CC(O)=O", CanonicalSMILES: &canon, Valid: true}}
	r := newAPI(&fakeGeneration{}, scr)

	w := doJSON(r, http.MethodPost, "/api/v1/molecule/validate-structure", `{"smiles":"CC(O)=O"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CC(O)=O", scr.gotSMILES)

	var rep ptypes.ValidationReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.True(t, rep.Valid)
	require.NotNil(t, rep.CanonicalSMILES)
	assert.Equal(t, canon, *rep.CanonicalSMILES)
}

func TestMoleculeHandler_ValidateStructure_Errors(t *testing.T) {
	scr := &fakeScreening{err: errors.InvalidParam("SMILES is required for structure validation")}
	r := newAPI(&fakeGeneration{}, scr)

	w := doJSON(r, http.MethodPost, "/api/v1/molecule/validate-structure", `{"smiles":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	e := decodeError(t, w)
	assert.Equal(t, string(errors.ErrCodeBadRequest), e.Code)
	assert.Contains(t, e.Detail, "SMILES is required")

	w = doJSON(r, http.MethodPost, "/api/v1/molecule/validate-structure", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoleculeHandler_PredictProperties(t *testing.T) {
	scr := &fakeScreening{predict: &ptypes.PredictionResult{Success: true, Molecule: "aspirin", Cached: true}}
	r := newAPI(&fakeGeneration{}, scr)

	w := doJSON(r, http.MethodPost, "/api/v1/molecule/predict-properties", `{"molecule":"aspirin"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res ptypes.PredictionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Cached)
	assert.Equal(t, "aspirin", res.Molecule)
}

func TestMoleculeHandler_PredictProperties_Throttled(t *testing.T) {
	scr := &fakeScreening{err: errors.RateLimit("Rate limit exceeded")}
	r := newAPI(&fakeGeneration{}, scr)

	w := doJSON(r, http.MethodPost, "/api/v1/molecule/predict-properties", `{"molecule":"aspirin"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Rate limit exceeded", decodeError(t, w).Detail)
}

func TestWriteAppError_MasksServerErrors(t *testing.T) {
	scr := &fakeScreening{err: errors.New(errors.ErrCodeStorage, "disk at /var/lib/secret failed")}
	r := newAPI(&fakeGeneration{}, scr)

	w := doJSON(r, http.MethodPost, "/api/v1/molecule/validate-structure", `{"smiles":"C"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	e := decodeError(t, w)
	assert.NotContains(t, e.Detail, "secret")
	assert.Equal(t, errors.DefaultMessageForCode(errors.ErrCodeStorage), e.Detail)
}

// ─────────────────────────────────────────────────────────────────────────────
// Generator
// ─────────────────────────────────────────────────────────────────────────────

func TestGeneratorHandler_Run(t *testing.T) {
	gen := &fakeGeneration{resp: &ptypes.GenerateResponse{
		OK: true, Total: 1, RunID: "run-1",
		Generated: []ptypes.Candidate{{SMILES: "CCO", Valid: true, Unique: true, Synthesizable: true, Score: 72}},
	}}
	r := newAPI(gen, &fakeScreening{})

	w := doJSON(r, http.MethodPost, "/api/v1/generator/run", `{"target":"EGFR","count":1,"strategy":"genetic"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gen.gotReq)
	assert.Equal(t, "EGFR", gen.gotReq.Target)
	assert.Equal(t, 1, gen.gotReq.Count)

	var resp ptypes.GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "run-1", resp.RunID)
	require.Len(t, resp.Generated, 1)
	assert.Equal(t, 72.0, resp.Generated[0].Score)
}

func TestGeneratorHandler_Run_FailureKeepsShape(t *testing.T) {
	gen := &fakeGeneration{err: errors.New(errors.ErrCodeGenerationCountRange, "count must be between 1 and 200")}
	r := newAPI(gen, &fakeScreening{})

	w := doJSON(r, http.MethodPost, "/api/v1/generator/run", `{"target":"EGFR","count":500}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, float64(0), body["total"])
	assert.Equal(t, []interface{}{}, body["generated"])
	assert.Equal(t, "count must be between 1 and 200", body["error"])

	w = doJSON(r, http.MethodPost, "/api/v1/generator/run", `{"target":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeneratorHandler_ValidateBatch(t *testing.T) {
	scr := &fakeScreening{batch: &ptypes.BatchValidateResponse{Total: 2, Validated: []ptypes.BatchItem{{}, {}}}}
	r := newAPI(&fakeGeneration{}, scr)

	w := doJSON(r, http.MethodPost, "/api/v1/generator/validate-batch", `{"smiles_list":["CCO", 42]}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, scr.gotBatch, 2)
	assert.Equal(t, "CCO", scr.gotBatch[0])
	assert.Equal(t, float64(42), scr.gotBatch[1])

	scr.err = errors.New(errors.ErrCodeBatchSizeExceeded, "Maximum 100 SMILES per batch")
	w = doJSON(r, http.MethodPost, "/api/v1/generator/validate-batch", `{"smiles_list":["C"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(errors.ErrCodeBatchSizeExceeded), decodeError(t, w).Code)

	w = doJSON(r, http.MethodPost, "/api/v1/generator/validate-batch", `{"smiles_list":"CCO"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeneratorHandler_Runs(t *testing.T) {
	gen := &fakeGeneration{
		run:  &ptypes.RunDetail{RunSummary: ptypes.RunSummary{ID: "run-7", Target: "EGFR"}},
		runs: []ptypes.RunSummary{{ID: "run-7"}},
	}
	r := newAPI(gen, &fakeScreening{})

	w := doJSON(r, http.MethodGet, "/api/v1/generator/runs/run-7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"target":"EGFR"`)

	w = doJSON(r, http.MethodGet, "/api/v1/generator/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(errors.ErrCodeRunNotFound), decodeError(t, w).Code)

	w = doJSON(r, http.MethodGet, "/api/v1/generator/runs?limit=5&offset=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, gen.gotLimit)
	assert.Equal(t, 10, gen.gotOffset)

	w = doJSON(r, http.MethodGet, "/api/v1/generator/runs?limit=1000&offset=-3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, gen.gotLimit)
	assert.Equal(t, 0, gen.gotOffset)
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

func TestHealthHandler(t *testing.T) {
	healthy := true
	h := NewHealthHandler("1.2.3",
		CheckFunc{Label: "redis", Fn: func(ctx context.Context) error {
			if healthy {
				return nil
			}
			return errors.New(errors.ErrCodeCacheError, "down")
		}},
	)
	r := gin.New()
	h.RegisterRoutes(r)

	w := doJSON(r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	var live LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &live))
	assert.Equal(t, "1.2.3", live.Version)

	w = doJSON(r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	healthy = false
	w = doJSON(r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis")
}

//Personal.AI order the ending
