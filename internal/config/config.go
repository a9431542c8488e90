// Package config provides configuration loading, defaults, and validation for
// MolSieve.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
)

// Version, GitCommit and BuildDate are injected with -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Database   DatabaseConfig    `mapstructure:"database"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Kafka      KafkaConfig       `mapstructure:"kafka"`
	Storage    StorageConfig     `mapstructure:"storage"`
	LLM        LLMConfig         `mapstructure:"llm"`
	Screening  ScreeningConfig   `mapstructure:"screening"`
	Generation GenerationConfig  `mapstructure:"generation"`
	Log        logging.LogConfig `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Server
// ─────────────────────────────────────────────────────────────────────────────

type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
	// FrontendURL is allowed by the CORS middleware.
	FrontendURL string `mapstructure:"frontend_url"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RequestsPerMinute bounds each client IP; 0 disables the middleware.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

type GRPCConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Infrastructure
// ─────────────────────────────────────────────────────────────────────────────

// DatabaseConfig selects the run repository backend.  Driver "postgres" uses
// the pgx stdlib driver; "sqlite" opens Path with modernc.org/sqlite.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN renders a postgres URL for pgx and golang-migrate.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

type KafkaConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Brokers       []string `mapstructure:"brokers"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	MaxRetries    int      `mapstructure:"max_retries"`
	// DeadLetterTopic receives messages whose handler exhausted its retries.
	DeadLetterTopic string `mapstructure:"dead_letter_topic"`
}

// StorageConfig selects the run archive backend: "minio", "s3" or "none".
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Domain
// ─────────────────────────────────────────────────────────────────────────────

// LLMConfig configures the language-model proposal source and property
// predictor.  API keys fall back to OPENAI_API_KEY / ANTHROPIC_API_KEY /
// GOOGLE_API_KEY when empty.
type LLMConfig struct {
	Provider              string        `mapstructure:"provider"`
	Model                 string        `mapstructure:"model"`
	APIKey                string        `mapstructure:"api_key"`
	BaseURL               string        `mapstructure:"base_url"`
	Timeout               time.Duration `mapstructure:"timeout"`
	GenerationTemperature float64       `mapstructure:"generation_temperature"`
	GenerationMaxTokens   int           `mapstructure:"generation_max_tokens"`
	PredictionTemperature float64       `mapstructure:"prediction_temperature"`
	PredictionMaxTokens   int           `mapstructure:"prediction_max_tokens"`
}

// ScreeningConfig holds validation, memoization and throttling limits.
type ScreeningConfig struct {
	MaxStructureLength int           `mapstructure:"max_structure_length"`
	MaxBatchSize       int           `mapstructure:"max_batch_size"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	CacheCapacity      int           `mapstructure:"cache_capacity"`
	PredictPerMinute   int           `mapstructure:"predict_per_minute"`
	ThrottleWindow     time.Duration `mapstructure:"throttle_window"`
	// MemoBackend is "memory" (per process) or "redis" (shared).
	MemoBackend string `mapstructure:"memo_backend"`
}

type GenerationConfig struct {
	DefaultCount int `mapstructure:"default_count"`
	MaxCount     int `mapstructure:"max_count"`
	MaxBatch     int `mapstructure:"max_batch"`
	// Persist writes completed runs to the database and archive.
	Persist bool `mapstructure:"persist"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

var (
	validDrivers      = map[string]bool{"postgres": true, "sqlite": true}
	validProviders    = map[string]bool{"openai": true, "anthropic": true, "google": true, "none": true}
	validStorage      = map[string]bool{"minio": true, "s3": true, "none": true}
	validMemoBackends = map[string]bool{"memory": true, "redis": true}
)

// Validate checks cross-field consistency.  It assumes ApplyDefaults ran.
func (c *Config) Validate() error {
	if c.Server.HTTP.Port <= 0 || c.Server.HTTP.Port > 65535 {
		return fmt.Errorf("config: server.http.port %d out of range", c.Server.HTTP.Port)
	}
	if c.Server.GRPC.Port < 0 || c.Server.GRPC.Port > 65535 {
		return fmt.Errorf("config: server.grpc.port %d out of range", c.Server.GRPC.Port)
	}
	if c.Database.Enabled && !validDrivers[c.Database.Driver] {
		return fmt.Errorf("config: database.driver %q must be postgres or sqlite", c.Database.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must not be empty when kafka is enabled")
	}
	if !validStorage[c.Storage.Backend] {
		return fmt.Errorf("config: storage.backend %q must be minio, s3 or none", c.Storage.Backend)
	}
	if c.Storage.Backend != "none" && c.Storage.Bucket == "" {
		return fmt.Errorf("config: storage.bucket is required for backend %s", c.Storage.Backend)
	}
	if !validProviders[strings.ToLower(c.LLM.Provider)] {
		return fmt.Errorf("config: llm.provider %q must be openai, anthropic, google or none", c.LLM.Provider)
	}
	if c.Screening.MaxStructureLength <= 0 {
		return fmt.Errorf("config: screening.max_structure_length must be positive")
	}
	if c.Screening.MaxBatchSize <= 0 {
		return fmt.Errorf("config: screening.max_batch_size must be positive")
	}
	if !validMemoBackends[c.Screening.MemoBackend] {
		return fmt.Errorf("config: screening.memo_backend %q must be memory or redis", c.Screening.MemoBackend)
	}
	if c.Screening.MemoBackend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("config: screening.memo_backend redis requires redis.enabled")
	}
	if c.Generation.DefaultCount < 1 || c.Generation.DefaultCount > c.Generation.MaxCount {
		return fmt.Errorf("config: generation.default_count %d must be within [1, %d]",
			c.Generation.DefaultCount, c.Generation.MaxCount)
	}
	return nil
}

//Personal.AI order the ending
