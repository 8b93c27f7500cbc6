package internaldefs

import (
	"github.com/MrEthical07/tenantauth"
)

// CounterDef names one Engine counter for export.
type CounterDef struct {
	ID   tenantauth.MetricID
	Name string
	Help string
}

// HistogramDef names one Engine histogram for export.
type HistogramDef struct {
	ID   tenantauth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: tenantauth.MetricLoginSuccess, Name: "tenantauth_login_success_total", Help: "Successful logins."},
	{ID: tenantauth.MetricLoginFailure, Name: "tenantauth_login_failure_total", Help: "Failed logins."},
	{ID: tenantauth.MetricRefreshSuccess, Name: "tenantauth_refresh_success_total", Help: "Successful refresh token rotations."},
	{ID: tenantauth.MetricRefreshFailure, Name: "tenantauth_refresh_failure_total", Help: "Failed refresh token rotations."},
	{ID: tenantauth.MetricRefreshRevoked, Name: "tenantauth_refresh_revoked_total", Help: "Presentations of consumed or logged-out refresh tokens."},
	{ID: tenantauth.MetricValidateSuccess, Name: "tenantauth_validate_success_total", Help: "Tokens that validated."},
	{ID: tenantauth.MetricValidateFailure, Name: "tenantauth_validate_failure_total", Help: "Tokens that failed validation."},
	{ID: tenantauth.MetricTokenExpired, Name: "tenantauth_token_expired_total", Help: "Tokens rejected as expired."},
	{ID: tenantauth.MetricAdmissionAllowed, Name: "tenantauth_admission_allowed_total", Help: "Requests admitted by the rate limiter."},
	{ID: tenantauth.MetricAdmissionRejected, Name: "tenantauth_admission_rejected_total", Help: "Requests rejected by the rate limiter."},
	{ID: tenantauth.MetricForbiddenRole, Name: "tenantauth_forbidden_role_total", Help: "Requests denied for missing role."},
	{ID: tenantauth.MetricTenantMismatch, Name: "tenantauth_tenant_mismatch_total", Help: "Cross-tenant resource accesses."},
	{ID: tenantauth.MetricLogout, Name: "tenantauth_logout_total", Help: "Logouts."},
	{ID: tenantauth.MetricRevocationSwept, Name: "tenantauth_revocation_swept_total", Help: "Expired revocation entries removed."},
	{ID: tenantauth.MetricRateWindowsEvicted, Name: "tenantauth_rate_windows_evicted_total", Help: "Idle rate windows removed."},
}

var HistogramDefs = []HistogramDef{
	{ID: tenantauth.MetricValidateLatency, Name: "tenantauth_validate_latency_seconds", Help: "Access token validation latency."},
}

const AuditDroppedName = "tenantauth_audit_dropped_total"

const AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."

// BucketCount is the number of histogram buckets including +Inf.
const BucketCount = len(tenantauth.HistogramBucketBounds) + 1

// HistogramBoundSuffix names each bucket for exporters that flatten
// histograms into gauges.
var HistogramBoundSuffix = [BucketCount]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// UpperBounds returns the finite bucket bounds in seconds.
func UpperBounds() []float64 {
	out := make([]float64, len(tenantauth.HistogramBucketBounds))
	for i, b := range tenantauth.HistogramBucketBounds {
		out[i] = b.Seconds()
	}
	return out
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := range raw {
		running += raw[i]
		out[i] = running
	}
	return out
}
