package transfer

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"StockDesk/internal/entity"
	"StockDesk/internal/logger"
	"StockDesk/internal/query"
	"StockDesk/internal/resource"
)

var submitAudit = resource.Audit{Module: "transfers", Action: "create"}

// LoadAvailability returns the stock of every product in warehouseID. Rows of the same
// product are summed.
func LoadAvailability(ctx context.Context, c *resource.Client, warehouseID string) (map[string]decimal.Decimal, error) {
	page, err := resource.List[entity.InventoryItem](ctx, c, entity.PathInventory, query.Options[entity.InventoryRelation]{
		Filter:       entity.InventoryFilter{WarehouseID: warehouseID},
		NoPagination: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load availability for %s: %w", warehouseID, err)
	}
	out := make(map[string]decimal.Decimal, len(page.Data))
	for _, item := range page.Data {
		out[item.ProductID] = out[item.ProductID].Add(item.Quantity)
	}
	return out, nil
}

type submitBody struct {
	FromWarehouseID string                `json:"from_warehouse_id"`
	ToWarehouseID   string                `json:"to_warehouse_id"`
	Status          entity.TransferStatus `json:"status"`
	Notes           string                `json:"notes,omitempty"`
	Items           []entity.TransferItem `json:"items"`
}

// Submit creates the transfer with all of its items in one request.
func Submit(ctx context.Context, c *resource.Client, p Plan) (entity.Transfer, error) {
	if len(p.Items) == 0 {
		return entity.Transfer{}, fmt.Errorf("%w: no items", ErrInvalidDraft)
	}
	body := submitBody{
		FromWarehouseID: p.FromWarehouseID,
		ToWarehouseID:   p.ToWarehouseID,
		Status:          entity.TransferPending,
		Notes:           p.Notes,
		Items:           p.Items,
	}
	t, err := resource.Create[entity.Transfer](ctx, c, entity.PathTransfers, resource.JSON(body), submitAudit)
	if err != nil {
		return entity.Transfer{}, err
	}
	logger.Info("transfer_submitted", map[string]any{
		"transfer_id": t.ID,
		"from":        p.FromWarehouseID,
		"to":          p.ToWarehouseID,
		"items":       len(p.Items),
	})
	return t, nil
}

// Run loads availability, reconciles and submits. It is the whole workflow behind the
// transfer form.
func Run(ctx context.Context, c *resource.Client, d Draft) (entity.Transfer, error) {
	if err := d.Validate(); err != nil {
		return entity.Transfer{}, err
	}
	available, err := LoadAvailability(ctx, c, d.FromWarehouseID)
	if err != nil {
		return entity.Transfer{}, err
	}
	plan, err := Reconcile(d, available)
	if err != nil {
		return entity.Transfer{}, err
	}
	return Submit(ctx, c, plan)
}
