package redis

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
)

type prediction struct {
	Toxicity float64 `json:"toxicity"`
	Level    string  `json:"level"`
}

type CacheTestSuite struct {
	suite.Suite
	client *Client
}

func (s *CacheTestSuite) SetupTest() {
	s.client, _ = newMiniClient(s.T())
}

func (s *CacheTestSuite) TestRoundTrip() {
	c := NewCache[prediction](s.client, time.Minute, nil)

	_, ok := c.Get("molecule:props:aspirin")
	s.False(ok)

	c.Set("molecule:props:aspirin", prediction{Toxicity: 30, Level: "low"})
	got, ok := c.Get("molecule:props:aspirin")
	s.Require().True(ok)
	s.Equal(prediction{Toxicity: 30, Level: "low"}, got)
}

func (s *CacheTestSuite) TestOverwrite() {
	c := NewCache[string](s.client, time.Minute, nil)
	c.Set("k", "a")
	c.Set("k", "b")
	got, _ := c.Get("k")
	s.Equal("b", got)
}

func (s *CacheTestSuite) TestDelete() {
	c := NewCache[string](s.client, time.Minute, nil)
	c.Set("k", "a")
	c.Delete("k")
	_, ok := c.Get("k")
	s.False(ok)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestCache_ExpiresServerSide(t *testing.T) {
	client, mr := newMiniClient(t)
	c := NewCache[string](client, 10*time.Second, nil)

	c.Set("k", "v")
	assert.True(t, mr.Exists("test:k"))
	assert.Equal(t, 10*time.Second, mr.TTL("test:k"))

	mr.FastForward(11 * time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_UndecodableEntryIsMiss(t *testing.T) {
	client, mr := newMiniClient(t)
	require.NoError(t, mr.Set("test:k", "{not json"))

	c := NewCache[prediction](client, time.Minute, nil)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_StoreErrorIsMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewClientFromUniversal(db, "p:", logging.NewNopLogger())
	c := NewCache[string](client, time.Minute, nil)

	mock.ExpectGet("p:k").SetErr(fmt.Errorf("connection reset"))
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_ClosedClientIsMiss(t *testing.T) {
	client, _ := newMiniClient(t)
	c := NewCache[string](client, time.Minute, nil)
	c.Set("k", "v")

	require.NoError(t, client.Close())
	_, ok := c.Get("k")
	assert.False(t, ok)
}

//Personal.AI order the ending
