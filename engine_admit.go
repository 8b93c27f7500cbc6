package tenantauth

import (
	"context"
	"strconv"
)

// Admit applies the sliding-window limit to one request by principalID for
// operation. A rejection returns a [*RateLimitError] that matches
// [ErrRateLimited]. The Admission is populated either way.
func (e *Engine) Admit(ctx context.Context, principalID, operation string) (Admission, error) {
	if e == nil || e.limiter == nil {
		return Admission{}, ErrEngineNotReady
	}

	d := e.limiter.Check(admissionKey(principalID, operation), e.now())
	adm := Admission{
		Allowed:    d.Allowed,
		Limit:      d.Limit,
		Remaining:  d.Remaining,
		RetryAfter: d.RetryAfter,
		ResetAt:    d.ResetAt,
	}
	if d.Allowed {
		e.metricInc(MetricAdmissionAllowed)
		return adm, nil
	}

	e.metricInc(MetricAdmissionRejected)
	rlErr := &RateLimitError{RetryAfter: d.RetryAfter}
	e.emitAudit(WithOperation(ctx, operation), auditEventAdmissionRejected, false, principalID, "", rlErr, func() map[string]string {
		return map[string]string{"retry_after": strconv.FormatInt(rlErr.RetryAfterSeconds(), 10)}
	})
	return adm, rlErr
}

// admissionKey encodes the (principal, operation) pair injectively. The
// principal is length-prefixed so separators inside either part cannot make
// two pairs share a window.
func admissionKey(principalID, operation string) string {
	return strconv.Itoa(len(principalID)) + ":" + principalID + ":" + operation
}
