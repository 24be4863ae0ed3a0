// Package conflict detects and adjudicates field-level divergence between the
// provider's and the platform's version of the same logical entity.
package conflict

import (
	"sort"

	"github.com/shopspring/decimal"

	"commerce-core-square-layer/internal/domain"
)

// Missing is the sentinel compared against when a field exists on one side
// only.
const Missing = "<missing>"

// policy names which side wins a field and why. Resolution is a fixed table,
// not a runtime heuristic, so identical conflicts always resolve identically.
type policy struct {
	source domain.ConflictSource
	reason string
}

var fieldPolicies = map[string]policy{
	"price":       {domain.SourcePlatform, "platform is source of truth for pricing"},
	"sku":         {domain.SourcePlatform, "platform is source of truth for SKUs"},
	"name":        {domain.SourceProvider, "provider has more complete data"},
	"description": {domain.SourceProvider, "provider has more complete data"},
}

var defaultPolicy = policy{
	source: domain.SourcePlatform,
	reason: "no policy defined, defaulting to authoritative source",
}

// Detect compares two same-shaped field maps and returns one conflict per
// field whose values differ under strict inequality. A field present on one
// side only conflicts against the Missing sentinel. The reported field set is
// symmetric in the argument order.
func Detect(provider, platform map[string]any) []domain.Conflict {
	fields := make(map[string]struct{}, len(provider)+len(platform))
	for f := range provider {
		fields[f] = struct{}{}
	}
	for f := range platform {
		fields[f] = struct{}{}
	}

	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)

	var conflicts []domain.Conflict
	for _, f := range names {
		providerValue, providerOK := provider[f]
		platformValue, platformOK := platform[f]
		if !providerOK {
			providerValue = Missing
		}
		if !platformOK {
			platformValue = Missing
		}
		if equal(providerValue, platformValue) {
			continue
		}
		conflicts = append(conflicts, domain.Conflict{
			Field:         f,
			ProviderValue: providerValue,
			PlatformValue: platformValue,
		})
	}
	return conflicts
}

// Resolve applies the policy table to one conflict. It is deterministic and
// side-effect-free, and never fails: unknown fields fall back to the default
// policy.
func Resolve(c domain.Conflict) domain.Resolution {
	p, ok := fieldPolicies[c.Field]
	if !ok {
		p = defaultPolicy
	}
	return domain.Resolution{
		Field:  c.Field,
		Source: p.source,
		Reason: p.reason,
	}
}

// ResolveAll adjudicates every conflict in order.
func ResolveAll(conflicts []domain.Conflict) []domain.Resolution {
	resolutions := make([]domain.Resolution, len(conflicts))
	for i, c := range conflicts {
		resolutions[i] = Resolve(c)
	}
	return resolutions
}

// ProductFields builds the comparable field map for a platform product. The
// first SKU carries the product-level sku/price fields, matching how the
// provider's primary variation is compared.
func ProductFields(p *domain.PlatformProduct) map[string]any {
	fields := map[string]any{
		"name":        p.Name,
		"description": p.Description,
	}
	if sku := p.PrimarySKU(); sku != nil {
		fields["sku"] = sku.Code
		fields["price"] = sku.Price.String()
	}
	return fields
}

// equal applies strict comparison with one carve-out: decimal values compare
// by numeric equality so 19.99 and 19.990 do not register as a conflict.
func equal(a, b any) bool {
	da, aOK := a.(decimal.Decimal)
	db, bOK := b.(decimal.Decimal)
	if aOK && bOK {
		return da.Equal(db)
	}
	return a == b
}
