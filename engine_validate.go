package tenantauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/tenantauth/internal/flows"
	"github.com/MrEthical07/tenantauth/jwt"
)

// ValidateAccess turns an access token into a Principal. Failures wrap
// [ErrUnauthenticated] together with the specific cause: one of
// [ErrTokenExpired], [ErrTokenSignatureInvalid], [ErrTokenMalformed] or
// [ErrWrongKind].
func (e *Engine) ValidateAccess(ctx context.Context, token string) (Principal, error) {
	if e == nil || e.codec == nil {
		return Principal{}, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()
	}

	res := flows.RunValidate(ctx, token, jwt.KindAccess, e.flows.Validate)
	if res.Failure != flows.ValidateFailureNone {
		e.metricInc(MetricValidateFailure)
		return Principal{}, e.validateError(res.Failure, res.Err)
	}

	c := res.Claims
	if c.Role != RoleUser && c.Role != RoleAdmin {
		e.metricInc(MetricValidateFailure)
		return Principal{}, unauthenticated(ErrTokenMalformed)
	}

	e.metricInc(MetricValidateSuccess)
	return Principal{
		UserID:    c.UserID,
		TenantID:  c.TenantID,
		Username:  c.Username,
		Role:      c.Role,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// ValidateRefresh checks a refresh token without consuming it. Beyond the
// ValidateAccess failures it reports [ErrTokenRevoked]. Expiry is checked
// before revocation, so an expired token that is also revoked reports
// [ErrTokenExpired].
func (e *Engine) ValidateRefresh(ctx context.Context, token string) (RefreshSubject, error) {
	if e == nil || e.codec == nil {
		return RefreshSubject{}, ErrEngineNotReady
	}

	res := flows.RunValidate(ctx, token, jwt.KindRefresh, e.flows.Validate)
	if res.Failure != flows.ValidateFailureNone {
		e.metricInc(MetricValidateFailure)
		return RefreshSubject{}, e.validateError(res.Failure, res.Err)
	}

	e.metricInc(MetricValidateSuccess)
	return RefreshSubject{
		UserID:    res.Claims.UserID,
		TenantID:  res.Claims.TenantID,
		ExpiresAt: res.Claims.ExpiresAt.Time,
	}, nil
}

func (e *Engine) validateError(kind flows.ValidateFailureKind, cause error) error {
	switch kind {
	case flows.ValidateFailureDecode:
		if errors.Is(cause, jwt.ErrExpired) {
			e.metricInc(MetricTokenExpired)
		}
		return unauthenticated(cause)
	case flows.ValidateFailureWrongKind:
		return unauthenticated(ErrWrongKind)
	case flows.ValidateFailureRevoked:
		return unauthenticated(ErrTokenRevoked)
	case flows.ValidateFailureRegistry:
		e.logger.Error().Err(cause).Msg("revocation lookup failed")
		return fmt.Errorf("tenantauth: revocation lookup: %w", cause)
	default:
		return unauthenticated(cause)
	}
}
