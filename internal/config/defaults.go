package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultHTTPHost          = "0.0.0.0"
	DefaultHTTPPort          = 8080
	DefaultGRPCPort          = 9090
	DefaultServerMode        = "release"
	DefaultRequestsPerMinute = 600
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultHTTPTimeout       = 120 * time.Second

	DefaultDBDriver   = "postgres"
	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "molsieve"
	DefaultDBSSLMode  = "disable"
	DefaultDBPath     = "molsieve.db"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 10
	DefaultRedisKeyPrefix = "molsieve:"

	DefaultKafkaBroker     = "localhost:9092"
	DefaultKafkaGroup      = "molsieve-worker"
	DefaultKafkaMaxRetries = 3
	DefaultDeadLetterTopic = "molsieve.dlq"

	DefaultStorageBackend = "none"
	DefaultStorageBucket  = "molsieve-runs"
	DefaultStorageRegion  = "us-east-1"

	DefaultLLMProvider           = "openai"
	DefaultLLMModel              = "gpt-4o"
	DefaultLLMTimeout            = 60 * time.Second
	DefaultGenerationTemperature = 0.6
	DefaultGenerationMaxTokens   = 1200
	DefaultPredictionTemperature = 0.3
	DefaultPredictionMaxTokens   = 600

	DefaultMaxStructureLength = 512
	DefaultMaxBatchSize       = 1000
	DefaultCacheTTL           = 600 * time.Second
	DefaultCacheCapacity      = 4096
	DefaultPredictPerMinute   = 60
	DefaultThrottleWindow     = 60 * time.Second
	DefaultMemoBackend        = "memory"

	DefaultGenerationCount = 10
	DefaultGenerationMax   = 200
	DefaultGenerationBatch = 25

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg.  Explicit values win.
// Booleans are left alone; their defaults are registered with viper.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	setString(&cfg.Server.HTTP.Host, DefaultHTTPHost)
	setInt(&cfg.Server.HTTP.Port, DefaultHTTPPort)
	setString(&cfg.Server.HTTP.Mode, DefaultServerMode)
	setDuration(&cfg.Server.HTTP.ReadTimeout, DefaultHTTPTimeout)
	setDuration(&cfg.Server.HTTP.WriteTimeout, DefaultHTTPTimeout)
	setDuration(&cfg.Server.HTTP.ShutdownTimeout, DefaultShutdownTimeout)
	setInt(&cfg.Server.GRPC.Port, DefaultGRPCPort)
	setString(&cfg.Server.Environment, "development")

	// ── Database ──────────────────────────────────────────────────────────────
	setString(&cfg.Database.Driver, DefaultDBDriver)
	setString(&cfg.Database.Host, DefaultDBHost)
	setInt(&cfg.Database.Port, DefaultDBPort)
	setString(&cfg.Database.DBName, DefaultDBName)
	setString(&cfg.Database.SSLMode, DefaultDBSSLMode)
	setString(&cfg.Database.Path, DefaultDBPath)
	setInt(&cfg.Database.MaxOpenConns, DefaultDBMaxConns)
	setInt(&cfg.Database.MaxIdleConns, DefaultDBMaxConns/2)
	setDuration(&cfg.Database.ConnMaxLifetime, 30*time.Minute)

	// ── Redis ─────────────────────────────────────────────────────────────────
	setString(&cfg.Redis.Addr, DefaultRedisAddr)
	setInt(&cfg.Redis.PoolSize, DefaultRedisPoolSize)
	setDuration(&cfg.Redis.DialTimeout, 5*time.Second)
	setDuration(&cfg.Redis.ReadTimeout, 3*time.Second)
	setDuration(&cfg.Redis.WriteTimeout, 3*time.Second)
	setString(&cfg.Redis.KeyPrefix, DefaultRedisKeyPrefix)

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	setString(&cfg.Kafka.ConsumerGroup, DefaultKafkaGroup)
	setInt(&cfg.Kafka.MaxRetries, DefaultKafkaMaxRetries)
	setString(&cfg.Kafka.DeadLetterTopic, DefaultDeadLetterTopic)

	// ── Storage ───────────────────────────────────────────────────────────────
	setString(&cfg.Storage.Backend, DefaultStorageBackend)
	setString(&cfg.Storage.Bucket, DefaultStorageBucket)
	setString(&cfg.Storage.Region, DefaultStorageRegion)

	// ── LLM ───────────────────────────────────────────────────────────────────
	setString(&cfg.LLM.Provider, DefaultLLMProvider)
	setString(&cfg.LLM.Model, DefaultLLMModel)
	setDuration(&cfg.LLM.Timeout, DefaultLLMTimeout)
	setFloat(&cfg.LLM.GenerationTemperature, DefaultGenerationTemperature)
	setInt(&cfg.LLM.GenerationMaxTokens, DefaultGenerationMaxTokens)
	setFloat(&cfg.LLM.PredictionTemperature, DefaultPredictionTemperature)
	setInt(&cfg.LLM.PredictionMaxTokens, DefaultPredictionMaxTokens)

	// ── Screening ─────────────────────────────────────────────────────────────
	setInt(&cfg.Screening.MaxStructureLength, DefaultMaxStructureLength)
	setInt(&cfg.Screening.MaxBatchSize, DefaultMaxBatchSize)
	setDuration(&cfg.Screening.CacheTTL, DefaultCacheTTL)
	setInt(&cfg.Screening.CacheCapacity, DefaultCacheCapacity)
	setInt(&cfg.Screening.PredictPerMinute, DefaultPredictPerMinute)
	setDuration(&cfg.Screening.ThrottleWindow, DefaultThrottleWindow)
	setString(&cfg.Screening.MemoBackend, DefaultMemoBackend)

	// ── Generation ────────────────────────────────────────────────────────────
	setInt(&cfg.Generation.DefaultCount, DefaultGenerationCount)
	setInt(&cfg.Generation.MaxCount, DefaultGenerationMax)
	setInt(&cfg.Generation.MaxBatch, DefaultGenerationBatch)

	// ── Log ───────────────────────────────────────────────────────────────────
	setString(&cfg.Log.Level, DefaultLogLevel)
	setString(&cfg.Log.Format, DefaultLogFormat)
}

// NewDefaultConfig returns a Config populated purely from defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Database.AutoMigrate = true
	cfg.Server.HTTP.RequestsPerMinute = DefaultRequestsPerMinute
	ApplyDefaults(cfg)
	return cfg
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setFloat(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}

//Personal.AI order the ending
