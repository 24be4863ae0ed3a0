package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-core-square-layer/internal/domain"
)

func TestDetectSingleFieldConflict(t *testing.T) {
	provider := map[string]any{"name": "Product A", "price": "19.99", "sku": "SKU-A"}
	platform := map[string]any{"name": "Product A", "price": "24.99", "sku": "SKU-A"}

	conflicts := Detect(provider, platform)

	require.Len(t, conflicts, 1)
	assert.Equal(t, "price", conflicts[0].Field)
	assert.Equal(t, "19.99", conflicts[0].ProviderValue)
	assert.Equal(t, "24.99", conflicts[0].PlatformValue)
}

func TestDetectNoConflicts(t *testing.T) {
	fields := map[string]any{"name": "Same", "price": "10.00"}
	assert.Empty(t, Detect(fields, map[string]any{"name": "Same", "price": "10.00"}))
}

func TestDetectMissingFieldCountsAsConflict(t *testing.T) {
	provider := map[string]any{"name": "A", "description": "rich text"}
	platform := map[string]any{"name": "A"}

	conflicts := Detect(provider, platform)

	require.Len(t, conflicts, 1)
	assert.Equal(t, "description", conflicts[0].Field)
	assert.Equal(t, Missing, conflicts[0].PlatformValue)
}

func TestDetectSymmetry(t *testing.T) {
	a := map[string]any{"name": "X", "price": "1.00", "sku": "S-1", "extra": true}
	b := map[string]any{"name": "Y", "price": "2.00", "sku": "S-1"}

	forward := Detect(a, b)
	backward := Detect(b, a)

	names := func(cs []domain.Conflict) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.Field
		}
		return out
	}
	assert.ElementsMatch(t, names(forward), names(backward),
		"conflicting field set must not depend on argument order")
}

func TestResolvePolicyTable(t *testing.T) {
	tests := []struct {
		field  string
		source domain.ConflictSource
	}{
		{"price", domain.SourcePlatform},
		{"sku", domain.SourcePlatform},
		{"name", domain.SourceProvider},
		{"description", domain.SourceProvider},
		{"never_seen_before", domain.SourcePlatform},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			r := Resolve(domain.Conflict{Field: tt.field, ProviderValue: "a", PlatformValue: "b"})
			assert.Equal(t, tt.field, r.Field)
			assert.Equal(t, tt.source, r.Source)
			assert.NotEmpty(t, r.Reason)
		})
	}
}

func TestResolveDeterminism(t *testing.T) {
	c := domain.Conflict{Field: "price", ProviderValue: "19.99", PlatformValue: "24.99"}
	assert.Equal(t, Resolve(c), Resolve(c))
}

func TestResolvePriceConflictScenario(t *testing.T) {
	provider := map[string]any{"name": "Product A", "price": "19.99", "sku": "SKU-A"}
	platform := map[string]any{"name": "Product A", "price": "24.99", "sku": "SKU-A"}

	conflicts := Detect(provider, platform)
	require.Len(t, conflicts, 1)

	r := Resolve(conflicts[0])
	assert.Equal(t, domain.SourcePlatform, r.Source)
	assert.Equal(t, "platform is source of truth for pricing", r.Reason)
}

func TestProductFields(t *testing.T) {
	product := &domain.PlatformProduct{
		Name:        "Widget",
		Description: "desc",
	}
	fields := ProductFields(product)
	assert.Equal(t, "Widget", fields["name"])
	_, hasSKU := fields["sku"]
	assert.False(t, hasSKU, "products without SKUs must not expose sku/price fields")
}
