package ports

import (
	"context"

	"commerce-core-square-layer/internal/domain"
)

// PlatformStore defines read/write access to the platform's canonical
// product and inventory records.
type PlatformStore interface {
	ListProducts(ctx context.Context, tenantID string) ([]*domain.PlatformProduct, error)

	// GetProduct returns (nil, nil) when the product does not exist.
	GetProduct(ctx context.Context, tenantID, productID string) (*domain.PlatformProduct, error)

	UpsertProduct(ctx context.Context, tenantID string, product *domain.PlatformProduct) error

	// GetInventory returns (nil, nil) when no record exists for the product.
	GetInventory(ctx context.Context, tenantID, productID string) (*domain.PlatformInventory, error)

	UpsertInventory(ctx context.Context, tenantID string, inventory *domain.PlatformInventory) error

	ListInventory(ctx context.Context, tenantID string) ([]*domain.PlatformInventory, error)
}
