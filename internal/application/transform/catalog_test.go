package transform

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-core-square-layer/internal/domain"
)

func TestProviderToPlatformProduct(t *testing.T) {
	item := &domain.ProviderCatalogItem{
		ID:          "sq-item-1",
		Name:        "Test Product",
		Description: "A product for testing",
		Variations: []domain.ProviderVariation{
			{ID: "sq-var-1", SKU: "TEST-SKU", PriceMinor: 1999, Currency: "USD"},
		},
	}

	product := ProviderToPlatformProduct(item)

	assert.Equal(t, "Test Product", product.Name)
	assert.Equal(t, "A product for testing", product.Description)
	require.Len(t, product.SKUs, 1)
	assert.Equal(t, "TEST-SKU", product.SKUs[0].Code)
	assert.True(t, product.SKUs[0].Price.Equal(decimal.RequireFromString("19.99")),
		"expected 19.99, got %s", product.SKUs[0].Price)
	assert.Equal(t, "USD", product.SKUs[0].Currency)
}

func TestProviderToPlatformProductZeroVariations(t *testing.T) {
	item := &domain.ProviderCatalogItem{ID: "sq-item-2", Name: "No Variations"}

	product := ProviderToPlatformProduct(item)

	assert.Empty(t, product.SKUs)
	assert.Nil(t, product.PrimarySKU())
}

func TestProviderToPlatformProductMultipleVariations(t *testing.T) {
	item := &domain.ProviderCatalogItem{
		Name: "Shirt",
		Variations: []domain.ProviderVariation{
			{ID: "v1", SKU: "SHIRT-S", PriceMinor: 1500, Currency: "USD"},
			{ID: "v2", SKU: "SHIRT-M", PriceMinor: 1500, Currency: "USD"},
			{ID: "v3", SKU: "SHIRT-L", PriceMinor: 1700, Currency: "USD"},
		},
	}

	product := ProviderToPlatformProduct(item)

	require.Len(t, product.SKUs, 3, "variations must not be collapsed")
	assert.Equal(t, "SHIRT-S", product.SKUs[0].Code)
	assert.Equal(t, "SHIRT-L", product.SKUs[2].Code)
}

func TestCatalogRoundTrip(t *testing.T) {
	prices := []string{"19.99", "0.01", "100.00", "0.99", "12345.67"}
	for _, price := range prices {
		t.Run(price, func(t *testing.T) {
			product := &domain.PlatformProduct{
				Name: "Round Trip",
				SKUs: []domain.PlatformSKU{
					{Code: "RT-1", Price: decimal.RequireFromString(price), Currency: "USD"},
				},
			}

			back := ProviderToPlatformProduct(PlatformToProviderItem(product))

			require.Len(t, back.SKUs, 1)
			assert.True(t, back.SKUs[0].Price.Equal(product.SKUs[0].Price),
				"round trip changed %s to %s", product.SKUs[0].Price, back.SKUs[0].Price)
		})
	}
}

func TestMinorToMajorConversion(t *testing.T) {
	tests := []struct {
		minor int64
		major string
	}{
		{1999, "19.99"},
		{0, "0"},
		{1, "0.01"},
		{100, "1"},
		{999999, "9999.99"},
	}
	for _, tt := range tests {
		assert.True(t, MinorToMajor(tt.minor).Equal(decimal.RequireFromString(tt.major)),
			"minor %d should become %s, got %s", tt.minor, tt.major, MinorToMajor(tt.minor))
	}
}
