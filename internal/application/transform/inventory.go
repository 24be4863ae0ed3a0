package transform

import (
	"strconv"
	"strings"

	"commerce-core-square-layer/internal/domain"
)

// providerStates maps Square inventory states onto the platform enum.
// Unrecognized states map to unknown rather than failing the transform.
var providerStates = map[string]domain.InventoryState{
	"IN_STOCK":   domain.InventoryStateInStock,
	"RESERVED":   domain.InventoryStateInStock,
	"SOLD_OUT":   domain.InventoryStateOutOfStock,
	"SOLD":       domain.InventoryStateOutOfStock,
	"WASTE":      domain.InventoryStateOutOfStock,
	"NONE":       domain.InventoryStateOutOfStock,
	"ORDERED":    domain.InventoryStateBackorder,
	"IN_TRANSIT": domain.InventoryStateBackorder,
	"UNLINKED":   domain.InventoryStateUnknown,
}

// ProviderToPlatformInventory maps a Square inventory count to a platform
// inventory record. Square reports quantity as a numeric string; a value
// that does not parse becomes quantity zero with QuantityParsed set false so
// the caller can log a warning. The transform never fails.
func ProviderToPlatformInventory(count *domain.ProviderInventoryCount, platformProductID string) *domain.PlatformInventory {
	inventory := &domain.PlatformInventory{
		ProductID:      platformProductID,
		State:          mapState(count.State),
		QuantityParsed: true,
	}

	qty, err := strconv.Atoi(strings.TrimSpace(count.Quantity))
	if err != nil {
		inventory.Quantity = 0
		inventory.QuantityParsed = false
		return inventory
	}
	inventory.Quantity = qty
	return inventory
}

func mapState(state string) domain.InventoryState {
	if mapped, ok := providerStates[strings.ToUpper(strings.TrimSpace(state))]; ok {
		return mapped
	}
	return domain.InventoryStateUnknown
}
