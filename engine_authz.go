package tenantauth

import "context"

// RequireRole reports [ErrForbidden] unless p holds role.
func RequireRole(p Principal, role Role) error {
	if p.Role != role {
		return ErrForbidden
	}
	return nil
}

// RequireSameTenant reports [ErrNotFound] when the resource's tenant differs
// from p's. The error is the one used for a genuinely absent resource, so a
// caller cannot discover records in other tenants.
func RequireSameTenant(p Principal, tenantID string) error {
	if p.TenantID != tenantID {
		return ErrNotFound
	}
	return nil
}

// CheckRole is RequireRole with metrics and an audit event on denial.
func (e *Engine) CheckRole(ctx context.Context, p Principal, role Role) error {
	if err := RequireRole(p, role); err != nil {
		e.metricInc(MetricForbiddenRole)
		e.emitAudit(ctx, auditEventRoleDenied, false, p.UserID, p.TenantID, err, func() map[string]string {
			return map[string]string{"required_role": role, "role": p.Role}
		})
		return err
	}
	return nil
}

// CheckTenant is RequireSameTenant with metrics and an audit event on
// mismatch.
func (e *Engine) CheckTenant(ctx context.Context, p Principal, tenantID string) error {
	if err := RequireSameTenant(p, tenantID); err != nil {
		e.metricInc(MetricTenantMismatch)
		e.emitAudit(ctx, auditEventTenantMismatch, false, p.UserID, p.TenantID, err, func() map[string]string {
			return map[string]string{"resource_tenant_id": tenantID}
		})
		return err
	}
	return nil
}
