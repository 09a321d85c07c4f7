package itests

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"StockDesk/internal/entity"
	"StockDesk/internal/query"
	"StockDesk/internal/resource"
)

func seedWarehouses(t *testing.T, c *resource.Client, n int) []entity.Warehouse {
	t.Helper()
	out := make([]entity.Warehouse, 0, n)
	for i := 1; i <= n; i++ {
		w, err := resource.Create[entity.Warehouse](testCtx(t), c, entity.PathWarehouses, resource.JSON(map[string]any{
			"name":   fmt.Sprintf("Depot %02d", i),
			"code":   fmt.Sprintf("D%02d", i),
			"active": i%2 == 1,
		}))
		if err != nil {
			t.Fatalf("create warehouse %d: %v", i, err)
		}
		out = append(out, w)
	}
	return out
}

func names(ws []entity.Warehouse) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Name
	}
	return out
}

func Test_List_Warehouses_Pagination(t *testing.T) {
	truncate(t)
	c := newClient(t)
	seedWarehouses(t, c, 5)

	page, err := resource.List[entity.Warehouse](testCtx(t), c, entity.PathWarehouses, query.Options[entity.WarehouseRelation]{
		Page:    2,
		PerPage: 2,
		Sort:    query.Asc("name"),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"Depot 03", "Depot 04"}, names(page.Data)); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if page.Meta == nil {
		t.Fatalf("meta missing")
	}
	if page.Meta.CurrentPage != 2 || page.Meta.LastPage != 3 || page.Meta.Total != 5 {
		t.Fatalf("unexpected meta: %+v", *page.Meta)
	}
	if !page.HasNext() {
		t.Fatalf("page 2 of 3 must have a next page")
	}
}

func Test_List_Warehouses_FiltersAndSearch(t *testing.T) {
	truncate(t)
	c := newClient(t)
	seedWarehouses(t, c, 5)
	active := true

	page, err := resource.List[entity.Warehouse](testCtx(t), c, entity.PathWarehouses, query.Options[entity.WarehouseRelation]{
		Filter: entity.WarehouseFilter{Active: &active},
		Sort:   query.Desc("name"),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"Depot 05", "Depot 03", "Depot 01"}, names(page.Data)); diff != "" {
		t.Fatalf("active filter mismatch (-want +got):\n%s", diff)
	}

	page, err = resource.List[entity.Warehouse](testCtx(t), c, entity.PathWarehouses, query.Options[entity.WarehouseRelation]{
		Filter: entity.WarehouseFilter{Q: "d04"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if diff := cmp.Diff([]string{"Depot 04"}, names(page.Data)); diff != "" {
		t.Fatalf("search mismatch (-want +got):\n%s", diff)
	}
}

func Test_List_Warehouses_NoPagination(t *testing.T) {
	truncate(t)
	c := newClient(t)
	seedWarehouses(t, c, 12)

	page, err := resource.List[entity.Warehouse](testCtx(t), c, entity.PathWarehouses, query.Options[entity.WarehouseRelation]{
		NoPagination: true,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) != 12 {
		t.Fatalf("expected every row, got %d", len(page.Data))
	}
	if page.Meta != nil || page.HasNext() {
		t.Fatalf("unpaginated list must not carry meta")
	}
}

func Test_List_UnknownFilterIsRejected(t *testing.T) {
	c := newClient(t)
	_, err := resource.List[entity.Warehouse](testCtx(t), c, entity.PathWarehouses, query.Options[entity.WarehouseRelation]{
		Filter: query.Fields{{Key: "secret", Value: "x"}},
	})
	rerr, ok := resource.AsError(err)
	if !ok || rerr.Status != 400 {
		t.Fatalf("expected 400, got %v", err)
	}
	if rerr.FieldError("filter[secret]") == "" {
		t.Fatalf("expected field error for filter[secret], got %+v", rerr.Fields)
	}
}

func Test_Update_DuplicateCodeIsValidationError(t *testing.T) {
	truncate(t)
	c := newClient(t)
	ws := seedWarehouses(t, c, 2)

	_, err := resource.Update[entity.Warehouse](testCtx(t), c, resource.Path(entity.PathWarehouses, ws[1].ID),
		resource.JSON(map[string]any{"code": ws[0].Code}))
	rerr, ok := resource.AsError(err)
	if !ok || !rerr.IsValidation() {
		t.Fatalf("expected validation error, got %v", err)
	}
	if rerr.FieldError("code") == "" {
		t.Fatalf("expected field error for code, got %+v", rerr.Fields)
	}
}
