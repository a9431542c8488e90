package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/errors"
)

func newMiniClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "test:"}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_Success(t *testing.T) {
	client, _ := newMiniClient(t)
	assert.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "test:k", client.Key("k"))
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	client, err := NewClient(config.RedisConfig{Addr: "localhost:99999"}, logging.NewNopLogger())
	assert.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheError))
	assert.Nil(t, client)
}

func TestClient_Close(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, nil)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.NoError(t, client.Close(), "second close is a no-op")
	assert.Equal(t, ErrClientClosed, client.Ping(context.Background()))
}

//Personal.AI order the ending
