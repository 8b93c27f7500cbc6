package tenantauth

import (
	"context"
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

// Engine is the security and admission core. It is safe for concurrent use
// once built.
type Engine struct {
	config     Config
	now        Clock
	codec      *jwt.Codec
	issuer     *jwt.Issuer
	hasher     password.Hasher
	limiter    *rate.Limiter
	revocation revocation.Store
	users      UserStore
	logger     zerolog.Logger
	metrics    *Metrics
	audit      *internalaudit.Dispatcher
	flows      flows.Deps
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events discarded because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Config returns a copy of the active configuration without the secret.
func (e *Engine) Config() Config {
	cfg := cloneConfig(e.config)
	cfg.JWT.Secret = nil
	return cfg
}

// HashPassword hashes a new password with the configured hasher.
func (e *Engine) HashPassword(plain string) (string, error) {
	if e == nil || e.hasher == nil {
		return "", ErrEngineNotReady
	}
	return e.hasher.Hash(plain)
}

// SweepStats reports what one Sweep removed.
type SweepStats struct {
	Revocations int
	RateWindows int
}

type sweeper interface {
	Sweep(now time.Time) int
}

// Sweep drops revocation entries whose token has expired and rate windows
// with no request inside the window. Backends that expire entries on their
// own, such as Redis, are skipped.
func (e *Engine) Sweep(now time.Time) SweepStats {
	var stats SweepStats
	if s, ok := e.revocation.(sweeper); ok {
		stats.Revocations = s.Sweep(now)
	}
	stats.RateWindows = e.limiter.Sweep(now)

	if e.metrics != nil {
		e.metrics.Add(MetricRevocationSwept, uint64(stats.Revocations))
		e.metrics.Add(MetricRateWindowsEvicted, uint64(stats.RateWindows))
	}
	return stats
}

// RunJanitor calls Sweep every interval until ctx is done. A non-positive
// interval falls back to Revocation.SweepInterval; if that is zero too,
// RunJanitor returns immediately.
func (e *Engine) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = e.config.Revocation.SweepInterval
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := e.Sweep(e.now())
			if stats.Revocations > 0 || stats.RateWindows > 0 {
				e.logger.Debug().
					Int("revocations", stats.Revocations).
					Int("rate_windows", stats.RateWindows).
					Msg("swept expired state")
			}
		}
	}
}

func (e *Engine) issuePair(userID, tenantID, username, role string) (jwt.Pair, error) {
	return e.issuer.IssuePair(userID, tenantID, username, role, e.now())
}

func (e *Engine) loadUserByID(ctx context.Context, userID string) (flows.User, bool, error) {
	rec, err := e.users.GetByID(ctx, userID)
	return flowUser(rec, err)
}

func (e *Engine) loadUserByName(ctx context.Context, username string) (flows.User, bool, error) {
	rec, err := e.users.GetByUsername(ctx, username)
	return flowUser(rec, err)
}

func flowUser(rec CredentialRecord, err error) (flows.User, bool, error) {
	if errors.Is(err, ErrUserNotFound) {
		return flows.User{}, false, nil
	}
	if err != nil {
		return flows.User{}, false, fmt.Errorf("user store: %w", err)
	}
	return flows.User{
		UserID:       rec.UserID,
		TenantID:     rec.TenantID,
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		Role:         rec.Role,
		Active:       rec.IsActive,
	}, true, nil
}

func tokenPair(p jwt.Pair) TokenPair {
	return TokenPair{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(p.ExpiresIn / time.Second),
	}
}
