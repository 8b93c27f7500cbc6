// Package config loads tenantauthd settings from an optional .env file, an
// optional YAML file and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MrEthical07/tenantauth"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DevJWTSecret is the fallback secret. Validate refuses it outside dev.
const DevJWTSecret = "dev_secret_change_in_production_!!!"

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

type Config struct {
	Env        string           `yaml:"env" env:"API_ENV" env-default:"dev"`
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Pagination PaginationConfig `yaml:"pagination"`
	Redis      RedisConfig      `yaml:"redis"`
	Log        LogConfig        `yaml:"log"`
	Audit      AuditConfig      `yaml:"audit"`
}

type HTTPConfig struct {
	Addr              string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8000"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"HTTP_READ_HEADER_TIMEOUT" env-default:"5s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" env:"HTTP_MAX_BODY_BYTES" env-default:"1048576"`
	// TrustForwardedFor takes the client IP from X-Forwarded-For for the
	// pre-auth throttle. Enable only behind a proxy that sets it.
	TrustForwardedFor bool `yaml:"trust_forwarded_for" env:"TRUST_FORWARDED_FOR" env-default:"false"`
}

type AuthConfig struct {
	JWTSecret                string `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"dev_secret_change_in_production_!!!"`
	JWTAlgorithm             string `yaml:"jwt_algorithm" env:"JWT_ALGORITHM" env-default:"HS256"`
	AccessTokenExpireMinutes int    `yaml:"access_token_expire_minutes" env:"ACCESS_TOKEN_EXPIRE_MINUTES" env-default:"30"`
	RefreshTokenExpireDays   int    `yaml:"refresh_token_expire_days" env:"REFRESH_TOKEN_EXPIRE_DAYS" env-default:"7"`
	PasswordAlgorithm        string `yaml:"password_algorithm" env:"PASSWORD_ALGORITHM" env-default:"bcrypt"`
	BcryptCost               int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"10"`
	// AuthPerSecond and AuthBurst size the per-IP bucket on /auth routes.
	AuthPerSecond float64       `yaml:"auth_per_second" env:"AUTH_THROTTLE_PER_SECOND" env-default:"5"`
	AuthBurst     int           `yaml:"auth_burst" env:"AUTH_THROTTLE_BURST" env-default:"20"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL" env-default:"5m"`
}

type PaginationConfig struct {
	DefaultPageSize int `yaml:"default_page_size" env:"DEFAULT_PAGE_SIZE" env-default:"20"`
	MaxPageSize     int `yaml:"max_page_size" env:"MAX_PAGE_SIZE" env-default:"100"`
}

// RedisConfig enables the shared revocation registry when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"ta:rv"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type AuditConfig struct {
	Enabled    bool `yaml:"enabled" env:"AUDIT_ENABLED" env-default:"true"`
	BufferSize int  `yaml:"buffer_size" env:"AUDIT_BUFFER_SIZE" env-default:"1024"`
}

// Load reads configuration. A .env file in the working directory is loaded
// first without overriding variables already set. The YAML file is path, or
// CONFIG_PATH when path is empty; with neither, only the environment is used.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load that panics.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvStage, EnvProd:
	default:
		return fmt.Errorf("API_ENV must be one of dev, stage, prod; got %q", c.Env)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.Env != EnvDev && c.Auth.JWTSecret == DevJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in %s", c.Env)
	}
	if c.Auth.AccessTokenExpireMinutes <= 0 || c.Auth.RefreshTokenExpireDays <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.RateLimit.PerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.Pagination.DefaultPageSize <= 0 || c.Pagination.MaxPageSize < c.Pagination.DefaultPageSize {
		return errors.New("page sizes must satisfy 0 < DEFAULT_PAGE_SIZE <= MAX_PAGE_SIZE")
	}
	return nil
}

// AccessTTL is the access token lifetime.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.Auth.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTTL is the refresh token lifetime.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.Auth.RefreshTokenExpireDays) * 24 * time.Hour
}

// EngineConfig maps the service settings onto the library configuration.
func (c *Config) EngineConfig() tenantauth.Config {
	cfg := tenantauth.DefaultConfig()
	cfg.JWT.Secret = []byte(c.Auth.JWTSecret)
	cfg.JWT.Algorithm = c.Auth.JWTAlgorithm
	cfg.JWT.AccessTTL = c.AccessTTL()
	cfg.JWT.RefreshTTL = c.RefreshTTL()
	cfg.Password.Algorithm = c.Auth.PasswordAlgorithm
	cfg.Password.BcryptCost = c.Auth.BcryptCost
	cfg.RateLimit.Limit = c.RateLimit.PerMinute
	cfg.RateLimit.Window = time.Minute
	cfg.Revocation.SweepInterval = c.RateLimit.SweepInterval
	cfg.Revocation.RedisPrefix = c.Redis.Prefix
	cfg.Audit.Enabled = c.Audit.Enabled
	if c.Audit.BufferSize > 0 {
		cfg.Audit.BufferSize = c.Audit.BufferSize
	}
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}
