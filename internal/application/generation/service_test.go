package generation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/messaging/kafka"
	pkgerrors "github.com/turtacn/MolSieve/pkg/errors"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

type fakeRunRepo struct {
	mu    sync.Mutex
	saved []*ptypes.RunDetail
	err   error
}

func (r *fakeRunRepo) SaveRun(ctx context.Context, run *ptypes.RunDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, run)
	return nil
}

func (r *fakeRunRepo) GetRun(ctx context.Context, id string) (*ptypes.RunDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.saved {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.ErrCodeRunNotFound, "run not found")
}

func (r *fakeRunRepo) ListRuns(ctx context.Context, limit, offset int) ([]ptypes.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []ptypes.RunSummary{}
	for _, run := range r.saved {
		out = append(out, run.RunSummary)
	}
	return out, nil
}

type fakeArchive struct {
	objects map[string][]byte
	err     error
}

func (a *fakeArchive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if a.err != nil {
		return a.err
	}
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = data
	return nil
}

func (a *fakeArchive) Ping(context.Context) error { return nil }

type publishedEvent struct {
	topic, eventType, key string
	payload               interface{}
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (p *fakePublisher) PublishEvent(ctx context.Context, topic, eventType, key string, payload interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{topic, eventType, key, payload})
	return nil
}

type serviceFixture struct {
	svc     Service
	src     *stubSource
	repo    *fakeRunRepo
	archive *fakeArchive
	events  *fakePublisher
}

func newServiceFixture(t *testing.T, persist bool) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		src: &stubSource{reply: func(n int32, req ProposalRequest) (string, error) {
			return proposalJSON("CC(=O)O", req.Count), nil
		}},
		repo:    &fakeRunRepo{},
		archive: &fakeArchive{},
		events:  &fakePublisher{},
	}
	f.svc = NewService(Deps{
		Orchestrator: NewOrchestrator(f.src, nil),
		Pipeline:     newTestPipeline(t, &stubPredictor{}),
		Repo:         f.repo,
		Archive:      f.archive,
		Events:       f.events,
		Config:       config.GenerationConfig{DefaultCount: 10, MaxCount: 200, MaxBatch: 25, Persist: persist},
		Clock:        func() time.Time { return time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC) },
	})
	return f
}

func TestService_Generate(t *testing.T) {
	f := newServiceFixture(t, true)

	resp, err := f.svc.Generate(context.Background(), &ptypes.GenerateRequest{Target: "  COX-2 ", Count: 3})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Generated, 3)
	assert.True(t, resp.Generated[0].Unique)
	assert.False(t, resp.Generated[1].Unique)
	assert.InDelta(t, 85.0, resp.Generated[0].Score, 1e-9)
	require.NotEmpty(t, resp.RunID)

	require.Len(t, f.repo.saved, 1)
	saved := f.repo.saved[0]
	assert.Equal(t, resp.RunID, saved.ID)
	assert.Equal(t, "COX-2", saved.Target)
	assert.Equal(t, 1, saved.Requests)
	assert.NotEmpty(t, saved.Fingerprint)

	key := "runs/2026/03/08/" + resp.RunID + ".json"
	require.Contains(t, f.archive.objects, key)
	var archived ptypes.RunDetail
	require.NoError(t, json.Unmarshal(f.archive.objects[key], &archived))
	assert.Len(t, archived.Candidates, 3)

	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, kafka.TopicGenerationCompleted, ev.topic)
	assert.Equal(t, kafka.EventGenerationCompleted, ev.eventType)
	assert.Equal(t, resp.RunID, ev.key)
	payload := ev.payload.(kafka.GenerationCompletedPayload)
	assert.Equal(t, 3, payload.Requested)
	assert.Equal(t, 3, payload.Returned)
	assert.InDelta(t, 85.0, payload.TopScore, 1e-9)

	got, err := f.svc.GetRun(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, "COX-2", got.Target)
}

func TestService_GenerateDefaultsCount(t *testing.T) {
	f := newServiceFixture(t, false)

	resp, err := f.svc.Generate(context.Background(), &ptypes.GenerateRequest{Target: "EGFR"})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Total)
	assert.Empty(t, f.repo.saved)
	assert.Empty(t, f.archive.objects)
	assert.Len(t, f.events.events, 1)
}

func TestService_GenerateSurvivesSinkFailures(t *testing.T) {
	f := newServiceFixture(t, true)
	f.repo.err = errors.New("db down")
	f.archive.err = errors.New("bucket gone")
	f.events.err = errors.New("broker down")

	resp, err := f.svc.Generate(context.Background(), &ptypes.GenerateRequest{Target: "EGFR", Count: 2})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, 2, resp.Total)
}

func TestService_GenerateFallsBackOnSourceFailure(t *testing.T) {
	f := newServiceFixture(t, false)
	f.src.reply = func(int32, ProposalRequest) (string, error) { return "", errors.New("quota exceeded") }

	resp, err := f.svc.Generate(context.Background(), &ptypes.GenerateRequest{Target: "EGFR", Count: 12})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, 12, resp.Total)

	payload := f.events.events[0].payload.(kafka.GenerationCompletedPayload)
	assert.True(t, payload.FellBack)
}

func TestService_GenerateRejectsBadInput(t *testing.T) {
	f := newServiceFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))

	_, err = f.svc.Generate(ctx, &ptypes.GenerateRequest{Target: "   "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))

	_, err = f.svc.Generate(ctx, &ptypes.GenerateRequest{Target: "EGFR", Count: 201})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeGenerationCountRange))

	_, err = f.svc.Generate(ctx, &ptypes.GenerateRequest{Target: "EGFR", Count: -1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeGenerationCountRange))

	_, err = f.svc.Generate(ctx, &ptypes.GenerateRequest{Target: "EGFR", Strategy: "diffusion"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))

	assert.Zero(t, f.src.calls.Load())
}

func TestService_RunHistory(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.GetRun(ctx, "missing")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = f.svc.GetRun(ctx, " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))

	_, err = f.svc.Generate(ctx, &ptypes.GenerateRequest{Target: "EGFR", Count: 1})
	require.NoError(t, err)
	runs, err := f.svc.ListRuns(ctx, 0, -5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	bare := NewService(Deps{Orchestrator: NewOrchestrator(f.src, nil), Pipeline: newTestPipeline(t, nil)})
	_, err = bare.GetRun(ctx, "x")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeServiceUnavailable))
	_, err = bare.ListRuns(ctx, 10, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeServiceUnavailable))
}

func TestService_TargetIsTrimmedInProposalRequest(t *testing.T) {
	f := newServiceFixture(t, false)
	var seen string
	f.src.reply = func(n int32, req ProposalRequest) (string, error) {
		seen = req.Target
		return proposalJSON("CCO", req.Count), nil
	}
	_, err := f.svc.Generate(context.Background(), &ptypes.GenerateRequest{Target: "\tBRAF\n", Count: 1})
	require.NoError(t, err)
	assert.False(t, strings.ContainsAny(seen, " \t\n"))
	assert.Equal(t, "BRAF", seen)
}

//Personal.AI order the ending
