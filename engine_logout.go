package tenantauth

import (
	"context"
	"fmt"

	"github.com/MrEthical07/tenantauth/internal/flows"
)

// Logout revokes refreshToken on behalf of p. The token must be a valid
// refresh token issued to p; a foreign token yields [ErrForbidden]. An empty
// refreshToken is a successful no-op, and logging out an already revoked
// token succeeds.
func (e *Engine) Logout(ctx context.Context, p Principal, refreshToken string) error {
	if e == nil || e.revocation == nil {
		return ErrEngineNotReady
	}

	res := flows.RunLogout(ctx, p.UserID, p.TenantID, refreshToken, e.flows.Logout)
	switch res.Failure {
	case flows.LogoutFailureNone:
		e.metricInc(MetricLogout)
		e.emitAudit(ctx, auditEventLogout, true, p.UserID, p.TenantID, nil, func() map[string]string {
			if res.Revoked {
				return map[string]string{"refresh_revoked": "true"}
			}
			return nil
		})
		return nil
	case flows.LogoutFailureValidate:
		err := e.validateError(res.ValidateFailure, res.Err)
		e.emitAudit(ctx, auditEventLogout, false, p.UserID, p.TenantID, err, nil)
		return err
	case flows.LogoutFailureForeign:
		e.emitAudit(ctx, auditEventLogout, false, p.UserID, p.TenantID, ErrForbidden, nil)
		return ErrForbidden
	default:
		e.logger.Error().Err(res.Err).Msg("logout revocation failed")
		return fmt.Errorf("tenantauth: logout: %w", res.Err)
	}
}
