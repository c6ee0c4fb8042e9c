package model

import (
	"errors"
	"testing"
)

func TestDefaultInventoryHasStocks(t *testing.T) {
	inv := DefaultInventory()
	if len(inv.Stocks) == 0 {
		t.Fatal("expected default stock presets")
	}
	ids := map[string]bool{}
	for _, s := range inv.Stocks {
		if ids[s.ID] {
			t.Errorf("duplicate preset id %s", s.ID)
		}
		ids[s.ID] = true
		if s.Length <= 0 {
			t.Errorf("preset %s has no length", s.Name)
		}
	}
}

func TestInventoryLookupItem(t *testing.T) {
	inv := Inventory{}
	inv.UpsertItem(CatalogItem{ItemCode: "TUBE", ValuationRate: 4})
	inv.UpsertItem(CatalogItem{ItemCode: "TUBE", ValuationRate: 5})
	if len(inv.Items) != 1 {
		t.Fatalf("expected upsert to replace, got %d items", len(inv.Items))
	}
	it, err := inv.LookupItem("TUBE")
	if err != nil || it.ValuationRate != 5 {
		t.Errorf("unexpected lookup result %+v %v", it, err)
	}
	if _, err := inv.LookupItem("NOPE"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
	if !inv.HasItem("TUBE") || inv.HasItem("NOPE") {
		t.Error("HasItem mismatch")
	}
}

func TestStockPresetToStockItem(t *testing.T) {
	sp := NewStockPreset("Tube 6m", 6000, 42, 13.9, "Steel")
	unlimited := sp.ToStockItem(0)
	if unlimited.Available != nil {
		t.Error("expected unlimited stock for qty 0")
	}
	limited := sp.ToStockItem(3)
	if limited.Available == nil || *limited.Available != 3 {
		t.Error("expected availability 3")
	}
	if limited.ID != "Tube 6m" || limited.Cost != 42 {
		t.Errorf("unexpected stock item %+v", limited)
	}
}

func TestInventoryFindStock(t *testing.T) {
	inv := DefaultInventory()
	first := inv.Stocks[0]
	if inv.FindStockByID(first.ID) == nil {
		t.Error("expected to find preset by id")
	}
	if inv.FindStockByName(first.Name) == nil {
		t.Error("expected to find preset by name")
	}
	if inv.FindStockByName("missing") != nil {
		t.Error("expected nil for unknown name")
	}
	if len(inv.StockNames()) != len(inv.Stocks) {
		t.Error("expected one name per preset")
	}
}
