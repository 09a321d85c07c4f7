// Package transfer moves stock between warehouses: a draft with possibly repeated
// product rows is reconciled against the source warehouse's stock and then submitted
// as a single transfer.
package transfer

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"StockDesk/internal/entity"
)

var ErrInvalidDraft = errors.New("invalid transfer draft")

type Line struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
}

type Draft struct {
	FromWarehouseID string `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   string `json:"to_warehouse_id" validate:"required,nefield=FromWarehouseID"`
	Notes           string `json:"notes" validate:"max=500"`
	Lines           []Line `json:"lines" validate:"required,min=1,dive"`
}

// Plan is a reconciled draft: one item per product, in first-seen order.
type Plan struct {
	FromWarehouseID string
	ToWarehouseID   string
	Notes           string
	Items           []entity.TransferItem
}

// DraftError carries one message per offending field or product id.
type DraftError struct {
	Fields map[string]string
}

func (e *DraftError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("%s: %s", ErrInvalidDraft, strings.Join(parts, "; "))
}

func (e *DraftError) Unwrap() error { return ErrInvalidDraft }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// decimals are checked as floats so numeric tags like gt apply to them
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the structural rules of a draft, before any stock is looked at.
func (d Draft) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	out := &DraftError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Draft.")
		out.Fields[key] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + fe.Param() + " item(s)"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than zero"
	case "nefield":
		return "must differ from the source warehouse"
	default:
		return "failed validation: " + fe.Tag()
	}
}

// Reconcile merges repeated product rows and checks each total against available,
// the stock of the source warehouse keyed by product id.
func Reconcile(d Draft, available map[string]decimal.Decimal) (Plan, error) {
	if err := d.Validate(); err != nil {
		return Plan{}, err
	}

	var order []string
	totals := make(map[string]decimal.Decimal, len(d.Lines))
	for _, l := range d.Lines {
		if _, seen := totals[l.ProductID]; !seen {
			order = append(order, l.ProductID)
		}
		totals[l.ProductID] = totals[l.ProductID].Add(l.Quantity)
	}

	problems := make(map[string]string)
	items := make([]entity.TransferItem, 0, len(order))
	for _, id := range order {
		total := totals[id]
		stock := available[id]
		if total.GreaterThan(stock) {
			problems[id] = fmt.Sprintf("requested %s, only %s available", total, stock)
			continue
		}
		items = append(items, entity.TransferItem{ProductID: id, Quantity: total})
	}
	if len(problems) > 0 {
		return Plan{}, &DraftError{Fields: problems}
	}

	return Plan{
		FromWarehouseID: d.FromWarehouseID,
		ToWarehouseID:   d.ToWarehouseID,
		Notes:           d.Notes,
		Items:           items,
	}, nil
}
