package domain

// InventoryState is the platform's inventory-state enum.
type InventoryState string

const (
	InventoryStateInStock    InventoryState = "in_stock"
	InventoryStateOutOfStock InventoryState = "out_of_stock"
	InventoryStateBackorder  InventoryState = "backorder"
	InventoryStateUnknown    InventoryState = "unknown"
)

// ProviderInventoryCount is an inventory count as Square reports it: the
// quantity arrives as a numeric string and the state uses provider vocabulary
// (IN_STOCK, SOLD_OUT, ...).
type ProviderInventoryCount struct {
	CatalogObjectID string
	LocationID      string
	Quantity        string
	State           string
	CalculatedAt    string
}

// PlatformInventory is the platform's canonical inventory record for one
// product.
type PlatformInventory struct {
	ProductID string
	Quantity  int
	State     InventoryState
	// QuantityParsed is false when the provider quantity could not be parsed
	// and the quantity was defaulted to zero.
	QuantityParsed bool
}
