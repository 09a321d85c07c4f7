package main

import (
	"context"
	"strings"
	"testing"

	"StockDesk/internal/config"
)

func TestPairsFlag(t *testing.T) {
	var p pairs
	for _, s := range []string{"active=true", "name__start=De", "q="} {
		if err := p.Set(s); err != nil {
			t.Fatalf("Set(%q): %v", s, err)
		}
	}
	if got := p.String(); got != "active=true,name__start=De,q=" {
		t.Fatalf("unexpected pairs %q", got)
	}
	if err := p.Set("novalue"); err == nil {
		t.Fatalf("expected error for missing '='")
	}
}

func TestRunListRejectsBadInput(t *testing.T) {
	e := env{cfg: &config.Config{}}
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-resource", "nope"}, "nope"},
		{[]string{"-resource", "warehouses", "-filter", "secret=1"}, "not filterable"},
		{[]string{"-resource", "warehouses", "-include", "owner"}, "unknown relation"},
		{[]string{"-resource", "warehouses", "-sort", "-weight"}, "unknown sort column"},
	}
	for _, tt := range tests {
		args := append([]string{"-resources", "../../resources"}, tt.args...)
		err := runList(context.Background(), e, args)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%v: expected error containing %q, got %v", tt.args, tt.want, err)
		}
	}
}
