package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers for storage.driver and storage.balances.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"` // debug, release, test
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	PoolSize       int    `mapstructure:"pool_size"`
	ConnectRetries uint64 `mapstructure:"connect_retries"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// NATSConfig configures the ledger event publisher. An empty URL disables it.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// StorageConfig selects backends. Driver covers every repository; Balances
// may move account balances alone to Redis.
type StorageConfig struct {
	Driver   string `mapstructure:"driver"`    // postgres, memory
	Balances string `mapstructure:"balances"`  // postgres, redis, memory; empty follows Driver
	SeedFile string `mapstructure:"seed_file"` // memory driver catalog
}

// BalanceDriver resolves the backend used for account balances.
func (s StorageConfig) BalanceDriver() string {
	if s.Balances == "" {
		return s.Driver
	}
	return s.Balances
}

// LedgerConfig tunes transfer pricing and retry behavior.
type LedgerConfig struct {
	TokenPerVote     int64         `mapstructure:"token_per_vote"`
	TransferRetries  uint64        `mapstructure:"transfer_retries"`
	RetryInterval    time.Duration `mapstructure:"retry_interval"`
	EffectRetries    uint64        `mapstructure:"effect_retries"`
	IdempotencyTTL   time.Duration `mapstructure:"idempotency_ttl"`
	ClaimTTL         time.Duration `mapstructure:"claim_ttl"`
	LogRetryAttempts uint64        `mapstructure:"log_retry_attempts"`
	LogRetryInterval time.Duration `mapstructure:"log_retry_interval"`
	LogRetryQueue    int           `mapstructure:"log_retry_queue"`
}

type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Spend   int64         `mapstructure:"spend"`
	Read    int64         `mapstructure:"read"`
	Topup   int64         `mapstructure:"topup"`
	Window  time.Duration `mapstructure:"window"`
}

// Load reads configuration from .env, file and environment variables.
// Environment variables override file values. Prefix: ETL_ (Event Token Ledger).
// Nested keys use underscore: ETL_DATABASE_HOST, ETL_LEDGER_TOKEN_PER_VOTE, etc.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.max_body_bytes", 64<<10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "event_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.connect_retries", 3)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "ledger")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "event-token-ledger")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("storage.balances", "")
	v.SetDefault("storage.seed_file", "")
	v.SetDefault("ledger.token_per_vote", 1)
	v.SetDefault("ledger.transfer_retries", 3)
	v.SetDefault("ledger.retry_interval", "200ms")
	v.SetDefault("ledger.effect_retries", 3)
	v.SetDefault("ledger.idempotency_ttl", "24h")
	v.SetDefault("ledger.claim_ttl", "30s")
	v.SetDefault("ledger.log_retry_attempts", 10)
	v.SetDefault("ledger.log_retry_interval", "2s")
	v.SetDefault("ledger.log_retry_queue", 1024)
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.spend", 120)
	v.SetDefault("ratelimit.read", 300)
	v.SetDefault("ratelimit.topup", 20)
	v.SetDefault("ratelimit.window", "1m")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: ETL_DATABASE_HOST -> database.host
	v.SetEnvPrefix("ETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the ledger cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("storage.driver %q: must be postgres or memory", c.Storage.Driver)
	}
	switch c.Storage.BalanceDriver() {
	case DriverPostgres, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("storage.balances %q: must be postgres, redis or memory", c.Storage.Balances)
	}
	if c.Ledger.TokenPerVote <= 0 {
		return fmt.Errorf("ledger.token_per_vote must be positive, got %d", c.Ledger.TokenPerVote)
	}
	return nil
}
