package models

// InventorySummary is the reduced view of one location's inventory.
// Derived on every query, never persisted.
type InventorySummary struct {
	LocationID             string   `json:"locationId"`
	TotalItems             int      `json:"totalItems"`
	TotalAvailableQuantity int      `json:"totalAvailableQuantity"`
	UniqueProducts         int      `json:"uniqueProducts"`
	ItemsWithStock         int      `json:"itemsWithStock"`
	ItemsOutOfStock        int      `json:"itemsOutOfStock"`
	OutOfStockNames        []string `json:"outOfStockNames"`
}
