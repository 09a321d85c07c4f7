package entity

import (
	"github.com/shopspring/decimal"

	"StockDesk/internal/query"
)

type TransferRelation string

const (
	TransferFrom  TransferRelation = "from_warehouse"
	TransferTo    TransferRelation = "to_warehouse"
	TransferItems TransferRelation = "items"
)

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

type Transfer struct {
	ID              string         `json:"id"`
	FromWarehouseID string         `json:"from_warehouse_id"`
	ToWarehouseID   string         `json:"to_warehouse_id"`
	Status          TransferStatus `json:"status"`
	Notes           string         `json:"notes,omitempty"`
	Timestamps

	FromWarehouse *Warehouse     `json:"from_warehouse,omitempty"`
	ToWarehouse   *Warehouse     `json:"to_warehouse,omitempty"`
	Items         []TransferItem `json:"items,omitempty"`
}

type TransferItemRelation string

const (
	TransferItemProduct TransferItemRelation = "product"
)

type TransferItem struct {
	ID         string          `json:"id,omitempty"`
	TransferID string          `json:"transfer_id,omitempty"`
	ProductID  string          `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`

	Product *Product `json:"product,omitempty"`
}

type TransferFilter struct {
	FromWarehouseID string
	ToWarehouseID   string
	Status          TransferStatus
}

func (f TransferFilter) FilterFields() query.Fields {
	return query.Fields{
		{Key: "from_warehouse_id", Value: f.FromWarehouseID},
		{Key: "to_warehouse_id", Value: f.ToWarehouseID},
		{Key: "status", Value: string(f.Status)},
	}
}
