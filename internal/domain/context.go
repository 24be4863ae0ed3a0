package domain

import "context"

type contextKey string

const (
	tenantIDKey    contextKey = "tenant_id"
	environmentKey contextKey = "environment"
)

// WithTenantID stores the tenant ID in the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// GetTenantIDFromContext returns the tenant ID, or "" when absent.
func GetTenantIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		return v
	}
	return ""
}

// WithEnvironment stores the provider environment in the context.
func WithEnvironment(ctx context.Context, env Environment) context.Context {
	return context.WithValue(ctx, environmentKey, env)
}

// GetEnvironmentFromContext returns the provider environment, defaulting to
// sandbox when absent.
func GetEnvironmentFromContext(ctx context.Context) Environment {
	if v, ok := ctx.Value(environmentKey).(Environment); ok {
		return v
	}
	return EnvironmentSandbox
}
