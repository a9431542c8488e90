package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle_FixedWindow(t *testing.T) {
	client, mr := newMiniClient(t)
	th := NewThrottle(client, 2, 10*time.Second, nil)

	assert.Equal(t, 2, th.Remaining("predict"))
	assert.True(t, th.Allow("predict"))
	assert.True(t, th.Allow("predict"))
	assert.False(t, th.Allow("predict"))
	assert.False(t, th.Allow("predict"))

	// Denials do not consume quota.
	raw, err := mr.Get("test:throttle:predict")
	require.NoError(t, err)
	assert.Equal(t, "2", raw)
	assert.Zero(t, th.Remaining("predict"))

	reset := th.ResetAt("predict")
	assert.False(t, reset.IsZero())
	assert.WithinDuration(t, time.Now().Add(10*time.Second), reset, 2*time.Second)

	mr.FastForward(11 * time.Second)
	assert.True(t, th.Allow("predict"))
	assert.Equal(t, 1, th.Remaining("predict"))
}

func TestThrottle_KeysAreIndependent(t *testing.T) {
	client, _ := newMiniClient(t)
	th := NewThrottle(client, 1, time.Minute, nil)

	assert.True(t, th.Allow("a"))
	assert.False(t, th.Allow("a"))
	assert.True(t, th.Allow("b"))
	assert.Equal(t, 1, th.Limit())
}

func TestThrottle_FailsOpenWhenClosed(t *testing.T) {
	client, _ := newMiniClient(t)
	th := NewThrottle(client, 1, 0, nil)
	require.NoError(t, client.Close())

	assert.True(t, th.Allow("k"))
	assert.True(t, th.Allow("k"))
	assert.True(t, th.ResetAt("k").IsZero())
	assert.Equal(t, 1, th.Remaining("k"))
}

//Personal.AI order the ending
