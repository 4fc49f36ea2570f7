package shared

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/interco/internal/platform/httpx"
)

type principalContextKey struct{}

// Principal identifies the authenticated API caller.
type Principal struct {
	KeyPrefix string
	TenantID  int64
}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// ActorFromContext names the caller for audit records.
func ActorFromContext(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok && p.KeyPrefix != "" {
		return "api_key:" + p.KeyPrefix
	}
	return "anonymous"
}

// AuthorizeTenant rejects requests addressing a tenant other than the
// authenticated caller's. Requests without a principal pass, which is the
// case when API authentication is disabled.
func AuthorizeTenant(ctx context.Context, tenantID int64) error {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.TenantID == tenantID {
		return nil
	}
	return fmt.Errorf("%w: tenant %d is not accessible with this key", httpx.ErrForbidden, tenantID)
}
