// Package entity holds the records exchanged with the REST backend. Relation fields
// are pointers or slices and are only populated when requested through include.
package entity

import (
	"time"

	"StockDesk/internal/query"
)

// Endpoint paths, relative to the API base URL.
const (
	PathWarehouses         = "warehouses"
	PathSuppliers          = "suppliers"
	PathProducts           = "products"
	PathInventory          = "inventory"
	PathInventoryMovements = "inventory_movements"
	PathTransfers          = "transfers"
	PathTransferItems      = "transfer_items"
	PathUsers              = "users"
	PathRoles              = "roles"
)

// Timestamps is embedded by every persisted record.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchFilter is the filter of entities that only support free-text search.
type SearchFilter struct {
	Q string
}

func (f SearchFilter) FilterFields() query.Fields {
	return query.Fields{{Key: "q", Value: f.Q}}
}
