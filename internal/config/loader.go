package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for every setting.
const envPrefix = "MOLSIEVE"

// registeredKeys lists the keys viper must know for AutomaticEnv to resolve
// MOLSIEVE_* overrides during Unmarshal.  Values are the viper-level defaults;
// nil means "leave to ApplyDefaults".
var registeredKeys = map[string]interface{}{
	"server.http.host":                nil,
	"server.http.port":                nil,
	"server.http.mode":                nil,
	"server.http.read_timeout":        nil,
	"server.http.write_timeout":       nil,
	"server.http.shutdown_timeout":    nil,
	"server.http.requests_per_minute": DefaultRequestsPerMinute,
	"server.grpc.port":                nil,
	"server.grpc.debug":               false,
	"server.frontend_url":             nil,
	"server.environment":              nil,

	"database.enabled":           false,
	"database.driver":            nil,
	"database.host":              nil,
	"database.port":              nil,
	"database.user":              nil,
	"database.password":          nil,
	"database.dbname":            nil,
	"database.sslmode":           nil,
	"database.path":              nil,
	"database.max_open_conns":    nil,
	"database.max_idle_conns":    nil,
	"database.conn_max_lifetime": nil,
	"database.auto_migrate":      true,

	"redis.enabled":    false,
	"redis.addr":       nil,
	"redis.password":   nil,
	"redis.db":         nil,
	"redis.pool_size":  nil,
	"redis.key_prefix": nil,

	"kafka.enabled":           false,
	"kafka.brokers":           nil,
	"kafka.consumer_group":    nil,
	"kafka.max_retries":       nil,
	"kafka.dead_letter_topic": nil,

	"storage.backend":    nil,
	"storage.endpoint":   nil,
	"storage.region":     nil,
	"storage.access_key": nil,
	"storage.secret_key": nil,
	"storage.bucket":     nil,
	"storage.use_ssl":    false,

	"llm.provider":               nil,
	"llm.model":                  nil,
	"llm.api_key":                nil,
	"llm.base_url":               nil,
	"llm.timeout":                nil,
	"llm.generation_temperature": nil,
	"llm.generation_max_tokens":  nil,
	"llm.prediction_temperature": nil,
	"llm.prediction_max_tokens":  nil,

	"screening.max_structure_length": nil,
	"screening.max_batch_size":       nil,
	"screening.cache_ttl":            nil,
	"screening.cache_capacity":       nil,
	"screening.predict_per_minute":   nil,
	"screening.memo_backend":         nil,
	"screening.throttle_window":      nil,

	"generation.default_count": nil,
	"generation.max_count":     nil,
	"generation.max_batch":     nil,
	"generation.persist":       false,

	"log.level":       nil,
	"log.format":      nil,
	"log.development": false,
}

// newViper builds a Viper instance with YAML file type, MOLSIEVE_ env prefix,
// automatic env binding and a "." → "_" key replacer, so "database.host"
// resolves to MOLSIEVE_DATABASE_HOST.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, def := range registeredKeys {
		if def != nil {
			v.SetDefault(key, def)
			continue
		}
		_ = v.BindEnv(key)
	}
	return v
}

// loadDotEnv reads a .env file from the working directory if one exists.
// Variables already present in the environment are not overwritten.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// Load reads the YAML file at configPath, merges MOLSIEVE_* overrides, applies
// defaults and validates the result.
func Load(configPath string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromFile is Load under the name the CLI and binaries use.
func LoadFromFile(configPath string) (*Config, error) {
	return Load(configPath)
}

// LoadFromEnv builds a Config from MOLSIEVE_* environment variables only.
//
//	MOLSIEVE_<SECTION>_<FIELD>   e.g.  MOLSIEVE_REDIS_ADDR, MOLSIEVE_LLM_PROVIDER
func LoadFromEnv() (*Config, error) {
	loadDotEnv()
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Watch re-parses configPath whenever it changes on disk and passes the new
// Config to onChange.  Invalid revisions are reported to onError (if non-nil)
// and never reach onChange.  Only throttle limits, log level and cache TTL
// are safe to apply at runtime.
func Watch(configPath string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad panics if Load fails.  For main() only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
