package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/errors"
)

func TestRunRepository_SQLiteRoundTrip(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: postgres.DriverSQLite, Path: filepath.Join(t.TempDir(), "runs.db")}
	log := logging.NewNopLogger()

	migrator := postgres.NewMigrator(cfg, log)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Up(), "second run is a no-op")
	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	conn, err := postgres.NewConnection(cfg, log)
	require.NoError(t, err)
	defer conn.Close()

	repo := NewRunRepository(conn, log)
	ctx := context.Background()

	older := sampleRun()
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.SaveRun(ctx, older))

	newer := sampleRun()
	newer.Target = "BRAF"
	require.NoError(t, repo.SaveRun(ctx, newer))

	got, err := repo.GetRun(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "EGFR", got.Target)
	assert.Equal(t, 2, got.Count)
	assert.WithinDuration(t, older.CreatedAt, got.CreatedAt, time.Second)
	require.Len(t, got.Candidates, 2)
	assert.Equal(t, "CC(=O)O", got.Candidates[0].Canonical)
	assert.True(t, got.Candidates[0].Synthesizable)
	require.NotNil(t, got.Candidates[0].Properties)
	assert.Equal(t, 30.0, *got.Candidates[0].Properties.Toxicity.Score)
	assert.True(t, got.Candidates[1].Filtered)
	assert.Nil(t, got.Candidates[1].Properties)

	runs, err := repo.ListRuns(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)

	_, err = repo.GetRun(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, migrator.Down(1))
	version, _, err = migrator.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestClampPage(t *testing.T) {
	l, o := clampPage(0, -1)
	assert.Equal(t, DefaultListLimit, l)
	assert.Zero(t, o)

	l, _ = clampPage(1000, 0)
	assert.Equal(t, MaxListLimit, l)

	l, o = clampPage(7, 14)
	assert.Equal(t, 7, l)
	assert.Equal(t, 14, o)
}

//Personal.AI order the ending
