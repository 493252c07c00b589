// Package config loads the application configuration from the environment.
//
// Values are read from MICROCHIP_* environment variables (a `.env` file in
// the working directory is loaded first), decoded into Config with koanf and
// checked with go-playground/validator before the app starts.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	// Loads `.env` into the process environment before anything reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix shared by every configuration variable.
//
// Nesting uses a double underscore:
//
//	MICROCHIP_SERVER__PORT          -> server.port
//	MICROCHIP_STORAGE__FILE_PATH    -> storage.file_path
//	MICROCHIP_DATABASE__SSL_MODE    -> database.ssl_mode
const EnvPrefix = "MICROCHIP_"

// Storage drivers accepted by StorageConfig.Driver.
const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config is the root configuration object.
//
// Database and Redis are pointers because they are only needed by some
// storage drivers; StorageConfig.Validate decides which ones must be set.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Storage       StorageConfig        `koanf:"storage" validate:"required"`
	Database      *DatabaseConfig      `koanf:"database"`
	Redis         *RedisConfig         `koanf:"redis"`
	Jobs          JobsConfig           `koanf:"jobs"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups the HTTP server settings. Timeouts are in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	// RateLimit is the allowed requests per second per client IP. Zero disables it.
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`
	// StaticDir holds openapi.html and openapi.json, served under /static.
	StaticDir string `koanf:"static_dir" validate:"required"`
}

// StorageConfig selects where the microchip collection document lives.
type StorageConfig struct {
	Driver   string `koanf:"driver" validate:"required,oneof=file redis postgres"`
	FilePath string `koanf:"file_path"`
	// RedisKey is the key holding the JSON document for the redis driver.
	RedisKey string `koanf:"redis_key"`
	// Collection is the row name used by the postgres driver.
	Collection string `koanf:"collection"`
	// MaxRetries bounds optimistic transaction retries of the redis driver.
	MaxRetries int `koanf:"max_retries" validate:"min=1"`
}

type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig holds the Redis address ("host:port").
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// JobsConfig toggles the asynq worker that audits collection changes.
// It needs Redis.
type JobsConfig struct {
	Enabled     bool `koanf:"enabled"`
	Concurrency int  `koanf:"concurrency" validate:"min=1"`
}

// Validate checks the driver-specific requirements that struct tags cannot
// express.
func (s StorageConfig) Validate(cfg *Config) error {
	switch s.Driver {
	case DriverFile:
		if s.FilePath == "" {
			return fmt.Errorf("storage.file_path is required for the %s driver", DriverFile)
		}
	case DriverRedis:
		if cfg.Redis == nil {
			return fmt.Errorf("redis config is required for the %s driver", DriverRedis)
		}
		if s.RedisKey == "" {
			return fmt.Errorf("storage.redis_key is required for the %s driver", DriverRedis)
		}
	case DriverPostgres:
		if cfg.Database == nil {
			return fmt.Errorf("database config is required for the %s driver", DriverPostgres)
		}
		if s.Collection == "" {
			return fmt.Errorf("storage.collection is required for the %s driver", DriverPostgres)
		}
	}
	return nil
}

// DefaultConfig returns the configuration used for every key that is not
// present in the environment.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
			RateLimit:          20,
			StaticDir:          "static",
		},
		Storage: StorageConfig{
			Driver:     DriverFile,
			FilePath:   "data/microchips.json",
			RedisKey:   "microchips",
			Collection: "default",
			MaxRetries: 5,
		},
		Jobs: JobsConfig{
			Enabled:     false,
			Concurrency: 2,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// envKey maps MICROCHIP_SERVER__READ_TIMEOUT to server.read_timeout.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// LoadConfig reads the environment, applies defaults and validates the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	// Unmarshal only overwrites keys that are present, so defaults survive.
	// Comma separated values decode into slices (cors_allowed_origins).
	mainConfig := DefaultConfig()
	err := k.UnmarshalWithConf("", mainConfig, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           mainConfig,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Storage.Validate(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Jobs.Enabled && mainConfig.Redis == nil {
		return nil, fmt.Errorf("config validation failed: jobs require redis config")
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	mainConfig.Observability.ServiceName = "microchip-api"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
