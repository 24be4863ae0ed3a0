package ports

import (
	"context"
	"time"

	"commerce-core-square-layer/internal/domain"
)

// TokenPair is the result of an OAuth code exchange or token refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	MerchantID   string
	Scopes       []string
}

// ProviderClient defines the operations this core needs from the Square API.
// Implementations own transport, authentication headers, and environment
// selection; the core never assumes a specific transport.
type ProviderClient interface {
	// OAuth
	AuthorizationURL(scopes []string, state string) string
	ExchangeCode(ctx context.Context, code string) (*TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	RevokeToken(ctx context.Context, accessToken string) error

	// Catalog
	ListCatalogItems(ctx context.Context, accessToken string) ([]domain.ProviderCatalogItem, error)
	UpsertCatalogItem(ctx context.Context, accessToken string, item *domain.ProviderCatalogItem) (*domain.ProviderCatalogItem, error)

	// Inventory
	ListInventoryCounts(ctx context.Context, accessToken, locationID string) ([]domain.ProviderInventoryCount, error)
	SetInventoryCount(ctx context.Context, accessToken, locationID, catalogObjectID string, quantity int) error

	// ListLocations returns the merchant's location IDs; the first one is
	// used as the integration's default location.
	ListLocations(ctx context.Context, accessToken string) ([]string, error)
}
