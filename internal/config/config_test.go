package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig_IsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultHTTPPort, cfg.Server.HTTP.Port)
	assert.Equal(t, 600*time.Second, cfg.Screening.CacheTTL)
	assert.Equal(t, 60, cfg.Screening.PredictPerMinute)
	assert.Equal(t, time.Minute, cfg.Screening.ThrottleWindow)
	assert.Equal(t, 1000, cfg.Screening.MaxBatchSize)
	assert.Equal(t, 512, cfg.Screening.MaxStructureLength)
	assert.Equal(t, 10, cfg.Generation.DefaultCount)
	assert.Equal(t, 200, cfg.Generation.MaxCount)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.HTTP.Port = 7000
	cfg.LLM.Provider = "google"
	ApplyDefaults(cfg)

	assert.Equal(t, 7000, cfg.Server.HTTP.Port)
	assert.Equal(t, "google", cfg.LLM.Provider)
	assert.Equal(t, DefaultRedisAddr, cfg.Redis.Addr)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.HTTP.Port = 70000 }, "server.http.port"},
		{"bad driver", func(c *Config) { c.Database.Enabled = true; c.Database.Driver = "mysql" }, "database.driver"},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"bad storage", func(c *Config) { c.Storage.Backend = "gcs" }, "storage.backend"},
		{"missing bucket", func(c *Config) { c.Storage.Backend = "s3"; c.Storage.Bucket = "" }, "storage.bucket"},
		{"bad provider", func(c *Config) { c.LLM.Provider = "cohere" }, "llm.provider"},
		{"redis memo without redis", func(c *Config) { c.Screening.MemoBackend = "redis" }, "memo_backend"},
		{"count above max", func(c *Config) { c.Generation.DefaultCount = 500 }, "default_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "molsieve", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/molsieve?sslmode=disable", d.DSN())
}

//Personal.AI order the ending
