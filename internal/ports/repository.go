package ports

import (
	"context"

	"commerce-core-square-layer/internal/domain"
)

// IntegrationRepository defines the persistence interface for tenant
// integrations.
type IntegrationRepository interface {
	// GetByTenantID retrieves the integration for a tenant and environment.
	// Returns (nil, nil) when no integration exists.
	GetByTenantID(ctx context.Context, tenantID string, env domain.Environment) (*domain.TenantIntegration, error)

	// Create creates a new integration. The tenant+environment pair is
	// unique; creating a duplicate is an error.
	Create(ctx context.Context, integration *domain.TenantIntegration) error

	// Update persists token and status changes for an existing integration.
	Update(ctx context.Context, integration *domain.TenantIntegration) error

	// Delete removes an integration. Product mappings are left in place.
	Delete(ctx context.Context, tenantID string, env domain.Environment) error
}

// ProductMappingRepository defines the persistence interface for
// platform-to-provider product links.
type ProductMappingRepository interface {
	GetByProviderObjectID(ctx context.Context, tenantID, providerObjectID string) (*domain.ProductMapping, error)
	GetByVariationID(ctx context.Context, tenantID, variationID string) (*domain.ProductMapping, error)
	GetByPlatformProductID(ctx context.Context, tenantID, platformProductID string) (*domain.ProductMapping, error)

	// Upsert creates the mapping or updates the identifiers on either side.
	Upsert(ctx context.Context, mapping *domain.ProductMapping) error

	ListByTenant(ctx context.Context, tenantID string) ([]*domain.ProductMapping, error)
}

// SyncLogRepository defines the append-only persistence interface for sync
// run records.
type SyncLogRepository interface {
	Create(ctx context.Context, entry *domain.SyncLogEntry) error

	// GetLastByTenant returns the most recent entry for a tenant, or
	// (nil, nil) when the tenant has never synced.
	GetLastByTenant(ctx context.Context, tenantID string) (*domain.SyncLogEntry, error)
}
