package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/MolSieve/pkg/errors"
)

func stubOpen(t *testing.T, db *sql.DB, err error) *[]string {
	t.Helper()
	var calls []string
	original := sqlOpen
	t.Cleanup(func() { sqlOpen = original })
	sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
		calls = append(calls, driverName, dataSourceName)
		return db, err
	}
	return &calls
}

func pgConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:   DriverPostgres,
		Host:     "localhost",
		Port:     5432,
		User:     "user",
		Password: "pw",
		DBName:   "molsieve",
		SSLMode:  "disable",
	}
}

func TestNewConnection_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	calls := stubOpen(t, db, nil)

	mock.ExpectPing()

	conn, err := NewConnection(pgConfig(), logging.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, db, conn.DB())
	assert.Equal(t, DriverPostgres, conn.Driver())
	assert.Equal(t, []string{"pgx", "postgres://user:pw@localhost:5432/molsieve?sslmode=disable"}, *calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewConnection_SQLite(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	calls := stubOpen(t, db, nil)

	mock.ExpectPing()

	conn, err := NewConnection(config.DatabaseConfig{Driver: DriverSQLite, Path: "/tmp/runs.db"}, nil)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, conn.Driver())
	assert.Equal(t, []string{"sqlite", "/tmp/runs.db"}, *calls)
}

func TestNewConnection_PingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	stubOpen(t, db, nil)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	conn, err := NewConnection(pgConfig(), logging.NewNopLogger())
	assert.Nil(t, conn)

	var appErr *pkgerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, pkgerrors.ErrCodeDatabaseError, appErr.Code)
	assert.Equal(t, "database connection failed", appErr.Message)
	assert.Contains(t, appErr.Cause.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewConnection_OpenFailure(t *testing.T) {
	stubOpen(t, nil, errors.New("open failed"))

	conn, err := NewConnection(pgConfig(), logging.NewNopLogger())
	assert.Error(t, err)
	assert.Nil(t, conn)
}

func TestConnection_HealthCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	conn := NewConnectionWithDB(db, DriverPostgres, logging.NewNopLogger())

	mock.ExpectPing()
	assert.NoError(t, conn.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("timeout"))
	err = conn.HealthCheck(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnection_Close_Idempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	conn := NewConnectionWithDB(db, DriverPostgres, logging.NewNopLogger())
	mock.ExpectClose()

	assert.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationURL(t *testing.T) {
	assert.Equal(t, "pgx5://user:pw@localhost:5432/molsieve?sslmode=disable", MigrationURL(pgConfig()))
	assert.Equal(t, "sqlite:///var/lib/molsieve.db",
		MigrationURL(config.DatabaseConfig{Driver: DriverSQLite, Path: "/var/lib/molsieve.db"}))
}

func TestMigrator_DownRejectsNonPositiveSteps(t *testing.T) {
	err := NewMigrator(pgConfig(), nil).Down(0)
	assert.Error(t, err)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	for _, dir := range []string{"migrations/postgres", "migrations/sqlite"} {
		entries, err := migrationFS.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2, dir)
	}
}

//Personal.AI order the ending
