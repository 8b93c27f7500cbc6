package tenantauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/tenantauth/internal/flows"
)

// Login verifies credentials and issues a token pair. Unknown usernames and
// wrong passwords both yield [ErrInvalidCredentials]; a deactivated account
// with the correct password yields [ErrAccountDisabled].
func (e *Engine) Login(ctx context.Context, username, password string) (TokenPair, error) {
	if e == nil || e.users == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	res := flows.RunLogin(ctx, username, password, e.flows.Login)
	switch res.Failure {
	case flows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, true, res.User.UserID, res.User.TenantID, nil, nil)
		return tokenPair(res.Pair), nil

	case flows.LoginFailureUnknownUser, flows.LoginFailureBadPassword:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.User.UserID, res.User.TenantID, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"username": username}
		})
		return TokenPair{}, ErrInvalidCredentials

	case flows.LoginFailureInactive:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.User.UserID, res.User.TenantID, ErrAccountDisabled, nil)
		return TokenPair{}, ErrAccountDisabled

	default:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.User.UserID, res.User.TenantID, res.Err, nil)
		if res.Err == nil {
			res.Err = errors.New("login failed")
		}
		return TokenPair{}, fmt.Errorf("tenantauth: login: %w", res.Err)
	}
}
