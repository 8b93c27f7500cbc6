package tenantauth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	internalaudit "github.com/MrEthical07/tenantauth/internal/audit"
	"github.com/MrEthical07/tenantauth/internal/flows"
	"github.com/MrEthical07/tenantauth/internal/rate"
	"github.com/MrEthical07/tenantauth/jwt"
	"github.com/MrEthical07/tenantauth/password"
	"github.com/MrEthical07/tenantauth/revocation"
	"github.com/rs/zerolog"
)

// Builder assembles an [Engine]. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config     Config
	users      UserStore
	revocation revocation.Store
	auditSink  AuditSink
	logger     zerolog.Logger
	clock      Clock

	built bool
}

// New starts a Builder from [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the credential lookup used by Login and Refresh. It is
// required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithRevocationStore replaces the default in-memory registry.
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.revocation = store
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for backend warnings and janitor activity.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for token timestamps, expiry checks and rate
// windows.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	method, err := jwt.ParseMethod(cfg.JWT.Algorithm)
	if err != nil {
		return nil, err
	}
	codec, err := jwt.NewCodec(jwt.CodecConfig{
		Secret: cfg.JWT.Secret,
		Method: method,
		Now:    clock,
	})
	if err != nil {
		return nil, err
	}
	issuer, err := jwt.NewIssuer(codec, jwt.IssuerConfig{
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.New(password.Options{
		Algorithm:  password.Algorithm(cfg.Password.Algorithm),
		BcryptCost: cfg.Password.BcryptCost,
		Argon2:     cfg.Password.Argon2,
	})
	if err != nil {
		return nil, err
	}
	dummy, err := dummyHash(hasher)
	if err != nil {
		return nil, err
	}

	limiter, err := rate.New(rate.Config{
		Limit:  cfg.RateLimit.Limit,
		Window: cfg.RateLimit.Window,
	})
	if err != nil {
		return nil, err
	}

	registry := b.revocation
	if registry == nil {
		registry = revocation.NewMemory()
	}

	engine := &Engine{
		config:     cfg,
		now:        clock,
		codec:      codec,
		issuer:     issuer,
		hasher:     hasher,
		limiter:    limiter,
		revocation: registry,
		users:      b.users,
		logger:     b.logger.With().Str("component", "tenantauth").Logger(),
		metrics:    NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}
	engine.flows = engine.buildFlowDeps(dummy)

	b.built = true
	return engine, nil
}

func (e *Engine) buildFlowDeps(dummy string) flows.Deps {
	validate := flows.ValidateDeps{
		Decode:   e.codec.Decode,
		Registry: e.revocation,
	}
	return flows.Deps{
		Validate: validate,
		Refresh: flows.RefreshDeps{
			Validate:  validate,
			LoadUser:  e.loadUserByID,
			IssuePair: e.issuePair,
			Registry:  e.revocation,
		},
		Login: flows.LoginDeps{
			LookupUser:     e.loadUserByName,
			VerifyPassword: e.hasher.Verify,
			DummyHash:      dummy,
			IssuePair:      e.issuePair,
		},
		Logout: flows.LogoutDeps{
			Validate: validate,
			Registry: e.revocation,
		},
	}
}

func dummyHash(h password.Hasher) (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("dummy hash: %w", err)
	}
	return h.Hash(hex.EncodeToString(buf[:]))
}
