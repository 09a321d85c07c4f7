package entity

import (
	"github.com/shopspring/decimal"

	"StockDesk/internal/query"
)

type ProductRelation string

const (
	ProductSupplier ProductRelation = "supplier"
)

type Product struct {
	ID         string          `json:"id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Unit       string          `json:"unit"`
	Price      decimal.Decimal `json:"price"`
	SupplierID *string         `json:"supplier_id,omitempty"`
	Image      string          `json:"image,omitempty"`
	Timestamps

	Supplier *Supplier `json:"supplier,omitempty"`
}

type ProductFilter struct {
	SupplierID string
	SKU        string
	Q          string
}

func (f ProductFilter) FilterFields() query.Fields {
	return query.Fields{
		{Key: "supplier_id", Value: f.SupplierID},
		{Key: "sku", Value: f.SKU},
		{Key: "q", Value: f.Q},
	}
}

type SupplierRelation string

const (
	SupplierProducts SupplierRelation = "products"
)

type Supplier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Timestamps

	Products []Product `json:"products,omitempty"`
}
