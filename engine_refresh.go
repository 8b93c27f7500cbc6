package tenantauth

import (
	"context"
	"fmt"

	"github.com/MrEthical07/tenantauth/internal/flows"
)

// Refresh rotates a refresh token. The user record is re-read so the new
// access token carries the current role. Exactly one of several concurrent
// calls with the same token succeeds; the others get [ErrTokenRevoked].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil || e.users == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	res := flows.RunRefresh(ctx, refreshToken, e.flows.Refresh)

	var userID, tenantID string
	if res.Claims != nil {
		userID, tenantID = res.Claims.UserID, res.Claims.TenantID
	}

	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, userID, tenantID, nil, nil)
		return tokenPair(res.Pair), nil

	case flows.RefreshFailureValidate:
		err := e.validateError(res.ValidateFailure, res.Err)
		if res.ValidateFailure == flows.ValidateFailureRevoked {
			e.reuseDetected(ctx, userID, tenantID, "revoked")
		} else {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, userID, tenantID, err, nil)
		}
		return TokenPair{}, err

	case flows.RefreshFailureLostRace:
		e.reuseDetected(ctx, userID, tenantID, "concurrent_rotation")
		return TokenPair{}, unauthenticated(ErrTokenRevoked)

	case flows.RefreshFailureUserMissing, flows.RefreshFailureUserInactive:
		e.metricInc(MetricRefreshFailure)
		err := unauthenticated(ErrUserUnavailable)
		e.emitAudit(ctx, auditEventRefreshFailure, false, userID, tenantID, err, nil)
		return TokenPair{}, err

	default:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, userID, tenantID, res.Err, nil)
		e.logger.Error().Err(res.Err).Int("failure", int(res.Failure)).Msg("refresh failed")
		return TokenPair{}, fmt.Errorf("tenantauth: refresh: %w", res.Err)
	}
}

func (e *Engine) reuseDetected(ctx context.Context, userID, tenantID, reason string) {
	e.metricInc(MetricRefreshRevoked)
	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, auditEventRefreshReuse, false, userID, tenantID, ErrTokenRevoked, func() map[string]string {
		return map[string]string{"reason": reason}
	})
}
