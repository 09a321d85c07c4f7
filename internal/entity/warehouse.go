package entity

import (
	"github.com/shopspring/decimal"

	"StockDesk/internal/query"
)

type WarehouseRelation string

const (
	WarehouseInventory WarehouseRelation = "inventory"
)

type Warehouse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Address string `json:"address,omitempty"`
	Active  bool   `json:"active"`
	Timestamps

	Inventory []InventoryItem `json:"inventory,omitempty"`
}

type WarehouseFilter struct {
	Active *bool
	Code   string
	IDs    []string
	Q      string
}

func (f WarehouseFilter) FilterFields() query.Fields {
	return query.Fields{
		{Key: "active", Value: f.Active},
		{Key: "code", Value: f.Code},
		{Key: "id", Value: f.IDs},
		{Key: "q", Value: f.Q},
	}
}

type InventoryRelation string

const (
	InventoryWarehouse InventoryRelation = "warehouse"
	InventoryProduct   InventoryRelation = "product"
)

// InventoryItem is the stock level of one product in one warehouse.
type InventoryItem struct {
	ID          string          `json:"id"`
	WarehouseID string          `json:"warehouse_id"`
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Timestamps

	Warehouse *Warehouse `json:"warehouse,omitempty"`
	Product   *Product   `json:"product,omitempty"`
}

type InventoryFilter struct {
	WarehouseID string
	ProductIDs  []string
}

func (f InventoryFilter) FilterFields() query.Fields {
	return query.Fields{
		{Key: "warehouse_id", Value: f.WarehouseID},
		{Key: "product_id", Value: f.ProductIDs},
	}
}

type MovementRelation string

const (
	MovementWarehouse MovementRelation = "warehouse"
	MovementProduct   MovementRelation = "product"
	MovementTransfer  MovementRelation = "transfer"
)

type MovementKind string

const (
	MovementKindIn       MovementKind = "in"
	MovementKindOut      MovementKind = "out"
	MovementKindTransfer MovementKind = "transfer"
	MovementKindAdjust   MovementKind = "adjustment"
)

// InventoryMovement is one ledger line. Quantity is signed.
type InventoryMovement struct {
	ID          string          `json:"id"`
	WarehouseID string          `json:"warehouse_id"`
	ProductID   string          `json:"product_id"`
	TransferID  *string         `json:"transfer_id,omitempty"`
	Kind        MovementKind    `json:"kind"`
	Quantity    decimal.Decimal `json:"quantity"`
	Timestamps

	Warehouse *Warehouse `json:"warehouse,omitempty"`
	Product   *Product   `json:"product,omitempty"`
	Transfer  *Transfer  `json:"transfer,omitempty"`
}
