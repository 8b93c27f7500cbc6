package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTTL is the access token lifetime when none is configured.
	DefaultAccessTTL = 30 * time.Minute
	// DefaultRefreshTTL is the refresh token lifetime when none is configured.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// IssuerConfig sets token lifetimes. Zero values select the defaults.
type IssuerConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Pair is a freshly minted access/refresh token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access token lifetime.
	ExpiresIn time.Duration
}

// Issuer builds access and refresh claim sets and signs them through a [Codec].
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer returns an issuer over codec.
func NewIssuer(codec *Codec, cfg IssuerConfig) (*Issuer, error) {
	if codec == nil {
		return nil, errors.New("jwt issuer requires a codec")
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Issuer{codec: codec, accessTTL: cfg.AccessTTL, refreshTTL: cfg.RefreshTTL}, nil
}

// AccessTTL reports the configured access token lifetime.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueAccess mints an access token expiring at now + AccessTTL.
func (i *Issuer) IssueAccess(userID, tenantID, username, role string, now time.Time) (string, error) {
	return i.codec.Encode(&Claims{
		UserID:           userID,
		TenantID:         tenantID,
		Username:         username,
		Role:             role,
		Type:             KindAccess,
		RegisteredClaims: registered(now, i.accessTTL),
	})
}

// IssueRefresh mints a refresh token expiring at now + RefreshTTL. It carries
// no username or role.
func (i *Issuer) IssueRefresh(userID, tenantID string, now time.Time) (string, error) {
	return i.codec.Encode(&Claims{
		UserID:           userID,
		TenantID:         tenantID,
		Type:             KindRefresh,
		RegisteredClaims: registered(now, i.refreshTTL),
	})
}

// IssuePair mints both tokens at the same instant.
func (i *Issuer) IssuePair(userID, tenantID, username, role string, now time.Time) (Pair, error) {
	access, err := i.IssueAccess(userID, tenantID, username, role, now)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.IssueRefresh(userID, tenantID, now)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh, ExpiresIn: i.accessTTL}, nil
}

func registered(now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}
