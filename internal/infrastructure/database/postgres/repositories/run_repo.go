package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MolSieve/internal/domain/candidate"
	"github.com/turtacn/MolSieve/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/errors"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

const (
	insertRunSQL = `
		INSERT INTO generation_runs (
			id, fingerprint, target, count, strategy, fell_back, cache_hit, requests, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	insertCandidateSQL = `
		INSERT INTO run_candidates (
			run_id, position, smiles, canonical, rationale,
			valid, is_unique, synthesizable, filtered, score, properties
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	selectRunSQL = `
		SELECT id, fingerprint, target, count, strategy, fell_back, cache_hit, requests, created_at
		FROM generation_runs WHERE id = $1`

	selectCandidatesSQL = `
		SELECT smiles, canonical, rationale, valid, is_unique, synthesizable, filtered, score, properties
		FROM run_candidates WHERE run_id = $1 ORDER BY position ASC`

	listRunsSQL = `
		SELECT id, fingerprint, target, count, strategy, fell_back, cache_hit, requests, created_at
		FROM generation_runs ORDER BY created_at DESC, id ASC LIMIT $1 OFFSET $2`
)

type runRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

var _ candidate.RunRepository = (*runRepo)(nil)

func NewRunRepository(conn *postgres.Connection, log logging.Logger) candidate.RunRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &runRepo{conn: conn, log: log, executor: conn.DB()}
}

// SaveRun writes the run header and its candidates in one transaction.  A
// missing ID or timestamp is filled in on run.
func (r *runRepo) SaveRun(ctx context.Context, run *ptypes.RunDetail) error {
	if run == nil {
		return errors.InvalidParam("run is nil")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}

	if _, err := tx.ExecContext(ctx, insertRunSQL,
		run.ID, run.Fingerprint, run.Target, run.Count, run.Strategy,
		run.FellBack, run.CacheHit, run.Requests, run.CreatedAt,
	); err != nil {
		_ = tx.Rollback()
		r.log.Error("failed to insert run", logging.String("run_id", run.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert run")
	}

	for i, c := range run.Candidates {
		props, err := encodeProperties(c.Properties)
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode candidate properties")
		}
		if _, err := tx.ExecContext(ctx, insertCandidateSQL,
			run.ID, i, c.SMILES, c.Canonical, c.Rationale,
			c.Valid, c.Unique, c.Synthesizable, c.Filtered, c.Score, props,
		); err != nil {
			_ = tx.Rollback()
			r.log.Error("failed to insert candidate",
				logging.String("run_id", run.ID), logging.Int("position", i), logging.Err(err))
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert candidate")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	r.log.Debug("run saved", logging.String("run_id", run.ID), logging.Int("candidates", len(run.Candidates)))
	return nil
}

func (r *runRepo) GetRun(ctx context.Context, id string) (*ptypes.RunDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run not found").WithDetail(id)
	}

	summary, err := scanSummary(r.executor.QueryRowContext(ctx, selectRunSQL, id))
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run not found").WithDetail(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load run")
	}

	rows, err := r.executor.QueryContext(ctx, selectCandidatesSQL, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load run candidates")
	}
	defer rows.Close()

	detail := &ptypes.RunDetail{RunSummary: *summary, Candidates: []ptypes.Candidate{}}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan run candidate")
		}
		detail.Candidates = append(detail.Candidates, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate run candidates")
	}
	return detail, nil
}

// ListRuns returns run headers newest first.
func (r *runRepo) ListRuns(ctx context.Context, limit, offset int) ([]ptypes.RunSummary, error) {
	limit, offset = clampPage(limit, offset)

	rows, err := r.executor.QueryContext(ctx, listRunsSQL, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list runs")
	}
	defer rows.Close()

	out := make([]ptypes.RunSummary, 0, limit)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan run")
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate runs")
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Row mapping
// ─────────────────────────────────────────────────────────────────────────────

func scanSummary(row scanner) (*ptypes.RunSummary, error) {
	var s ptypes.RunSummary
	if err := row.Scan(
		&s.ID, &s.Fingerprint, &s.Target, &s.Count, &s.Strategy,
		&s.FellBack, &s.CacheHit, &s.Requests, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanCandidate(row scanner) (*ptypes.Candidate, error) {
	var (
		c     ptypes.Candidate
		props sql.NullString
	)
	if err := row.Scan(
		&c.SMILES, &c.Canonical, &c.Rationale,
		&c.Valid, &c.Unique, &c.Synthesizable, &c.Filtered, &c.Score, &props,
	); err != nil {
		return nil, err
	}
	if props.Valid && props.String != "" && props.String != "null" {
		var p ptypes.PropertyPrediction
		if err := json.Unmarshal([]byte(props.String), &p); err != nil {
			return nil, err
		}
		c.Properties = &p
	}
	return &c, nil
}

// encodeProperties returns nil for absent predictions so the column stays
// NULL.
func encodeProperties(p *ptypes.PropertyPrediction) (interface{}, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

//Personal.AI order the ending
