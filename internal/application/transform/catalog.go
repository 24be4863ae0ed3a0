// Package transform holds the pure mappings between Square catalog/inventory
// records and the platform's canonical records. Nothing here performs I/O.
package transform

import (
	"github.com/shopspring/decimal"

	"commerce-core-square-layer/internal/domain"
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// ProviderToPlatformProduct maps a Square catalog item to a platform product.
// Prices arrive as integer minor units and are converted to decimal
// major-unit amounts, truncated at two decimal places. An item with zero
// variations yields a product with no SKUs; multiple variations become
// multiple SKUs.
func ProviderToPlatformProduct(item *domain.ProviderCatalogItem) *domain.PlatformProduct {
	product := &domain.PlatformProduct{
		Name:        item.Name,
		Description: item.Description,
	}
	for _, v := range item.Variations {
		product.SKUs = append(product.SKUs, domain.PlatformSKU{
			Code:        v.SKU,
			VariationID: v.ID,
			Price:       MinorToMajor(v.PriceMinor),
			Currency:    v.Currency,
		})
	}
	return product
}

// PlatformToProviderItem is the structural inverse of
// ProviderToPlatformProduct: any value representable on both sides
// round-trips exactly.
func PlatformToProviderItem(product *domain.PlatformProduct) *domain.ProviderCatalogItem {
	item := &domain.ProviderCatalogItem{
		Name:        product.Name,
		Description: product.Description,
	}
	for _, sku := range product.SKUs {
		item.Variations = append(item.Variations, domain.ProviderVariation{
			ID:         sku.VariationID,
			SKU:        sku.Code,
			PriceMinor: MajorToMinor(sku.Price),
			Currency:   sku.Currency,
		})
	}
	return item
}

// MinorToMajor converts an integer minor-unit amount to a decimal major-unit
// amount. Exact for currencies with two decimal places.
func MinorToMajor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(minorUnitsPerMajor).Truncate(2)
}

// MajorToMinor converts a decimal major-unit amount back to minor units.
// Sub-cent precision is truncated; Square never supplies it.
func MajorToMinor(major decimal.Decimal) int64 {
	return major.Mul(minorUnitsPerMajor).Truncate(0).IntPart()
}
