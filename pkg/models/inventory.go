package models

import "github.com/angelmondragon/cartengine/pkg/enums"

type InventoryLineReport struct {
	ProductID         int64               `json:"product_id"`
	ProductName       string              `json:"product_name"`
	RequestedQuantity int                 `json:"requested_quantity"`
	AvailableQuantity int                 `json:"available_quantity"`
	InStock           bool                `json:"in_stock"`
	Status            enums.ProductStatus `json:"status"`
}

// InventoryReport is the outcome of reconciling a cart against the catalog.
type InventoryReport struct {
	AllInStock bool                  `json:"all_in_stock"`
	Items      []InventoryLineReport `json:"items"`
	Issues     []string              `json:"issues"`
}
