package tenantauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/tenantauth/jwt"
	"github.com/MrEthical07/tenantauth/password"
	"golang.org/x/crypto/bcrypt"
)

// Config is the full Engine configuration. Start from [DefaultConfig] and
// override sections; the Builder clones it, so later edits by the caller have
// no effect on a built Engine.
type Config struct {
	JWT        JWTConfig
	Password   PasswordConfig
	RateLimit  RateLimitConfig
	Revocation RevocationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures token signing and lifetimes.
type JWTConfig struct {
	Secret     []byte
	Algorithm  string // "HS256" (default), "HS384", "HS512"
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the credential hasher.
type PasswordConfig struct {
	Algorithm  string // "bcrypt" (default) or "argon2id"
	BcryptCost int
	Argon2     password.Config
}

/*
====================================
ADMISSION AND CLEANUP
====================================
*/

// RateLimitConfig is the per-principal, per-operation sliding window.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RevocationConfig controls registry housekeeping.
type RevocationConfig struct {
	// SweepInterval drives RunJanitor when no interval is passed. Zero
	// disables background sweeping.
	SweepInterval time.Duration
	// RedisPrefix namespaces keys when a Redis registry is built from config.
	RedisPrefix string
}

/*
====================================
OBSERVABILITY
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a configuration that validates once a JWT secret is
// set.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Algorithm:  string(jwt.MethodHS256),
			AccessTTL:  jwt.DefaultAccessTTL,
			RefreshTTL: jwt.DefaultRefreshTTL,
		},
		Password: PasswordConfig{
			Algorithm:  string(password.AlgorithmBcrypt),
			BcryptCost: bcrypt.DefaultCost,
			Argon2:     password.DefaultArgon2Config(),
		},
		RateLimit: RateLimitConfig{
			Limit:  10,
			Window: time.Minute,
		},
		Revocation: RevocationConfig{
			SweepInterval: 5 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT Secret must not be empty")
	}
	if _, err := jwt.ParseMethod(c.JWT.Algorithm); err != nil {
		return fmt.Errorf("JWT Algorithm: %w", err)
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}

	// Password
	switch password.Algorithm(c.Password.Algorithm) {
	case "", password.AlgorithmBcrypt:
		if c.Password.BcryptCost != 0 &&
			(c.Password.BcryptCost < bcrypt.MinCost || c.Password.BcryptCost > bcrypt.MaxCost) {
			return fmt.Errorf("Password BcryptCost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
		}
	case password.AlgorithmArgon2id:
		if _, err := password.NewArgon2(c.Password.Argon2); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported Password Algorithm %q", c.Password.Algorithm)
	}

	// Rate limit
	if c.RateLimit.Limit <= 0 {
		return errors.New("RateLimit Limit must be > 0")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("RateLimit Window must be > 0")
	}

	// Revocation
	if c.Revocation.SweepInterval < 0 {
		return errors.New("Revocation SweepInterval must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
