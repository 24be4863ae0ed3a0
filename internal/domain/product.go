package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProviderCatalogItem is a Square catalog object as this core sees it: an item
// with zero or more purchasable variations. Money is carried as integer
// minor units plus a currency code, exactly as the provider reports it.
type ProviderCatalogItem struct {
	ID          string
	Name        string
	Description string
	Variations  []ProviderVariation
	Version     int64
	UpdatedAt   string
}

// ProviderVariation is one purchasable variation of a catalog item.
type ProviderVariation struct {
	ID         string
	SKU        string
	PriceMinor int64
	Currency   string
}

// PlatformProduct is the platform's canonical product record. Prices are
// decimal major-unit amounts.
type PlatformProduct struct {
	ID          string
	Name        string
	Description string
	SKUs        []PlatformSKU
}

// PlatformSKU is one sellable unit of a platform product.
type PlatformSKU struct {
	Code        string
	VariationID string
	Price       decimal.Decimal
	Currency    string
}

// PrimarySKU returns the first SKU, or nil when the product has none.
func (p *PlatformProduct) PrimarySKU() *PlatformSKU {
	if len(p.SKUs) == 0 {
		return nil
	}
	return &p.SKUs[0]
}

// ProductMapping links a platform product to its Square catalog object. It is
// created the first time a product is matched or synced and updated when
// either side's identifier changes. Mappings are kept for audit even after an
// integration is disconnected.
type ProductMapping struct {
	ID                string    `bson:"_id"`
	TenantID          string    `bson:"tenant_id"`
	PlatformProductID string    `bson:"platform_product_id"`
	ProviderObjectID  string    `bson:"provider_object_id"`
	VariationID       string    `bson:"variation_id"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
}
