package project

import (
	"path/filepath"
	"testing"

	"github.com/piwi3910/barcut/internal/model"
)

func TestLoadInventoryCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")

	inv, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}
	if len(inv.Stocks) != len(model.DefaultInventory().Stocks) {
		t.Errorf("expected default stock presets, got %d", len(inv.Stocks))
	}

	// The default was written, so a second load reads the same IDs back.
	again, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("second LoadInventory failed: %v", err)
	}
	if again.Stocks[0].ID != inv.Stocks[0].ID {
		t.Error("expected saved default inventory to be reloaded")
	}
}

func TestSaveAndLoadInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	inv := model.Inventory{
		Items: []model.CatalogItem{
			{ItemCode: "TUBE-40", ValuationRate: 7, WeightPerUnit: 2.3, UOMs: []model.UOMConversion{{UOM: "ks", ConversionFactor: 6}}},
		},
		Stocks: []model.StockPreset{model.NewStockPreset("Tube 6m", 6000, 42, 13.8, "Steel")},
	}
	if err := SaveInventory(path, inv); err != nil {
		t.Fatalf("SaveInventory failed: %v", err)
	}

	loaded, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}
	item, err := loaded.LookupItem("TUBE-40")
	if err != nil {
		t.Fatalf("LookupItem failed: %v", err)
	}
	if item.PieceLengthMeters() != 6 {
		t.Errorf("expected 6 m piece length, got %f", item.PieceLengthMeters())
	}
}

func TestImportInventoryMerges(t *testing.T) {
	dir := t.TempDir()
	existing := model.Inventory{
		Items:  []model.CatalogItem{{ItemCode: "A", ValuationRate: 1}},
		Stocks: []model.StockPreset{{ID: "s1", Name: "Bar 6m", Length: 6000}},
	}
	imported := model.Inventory{
		Items: []model.CatalogItem{{ItemCode: "A", ValuationRate: 2}, {ItemCode: "B", ValuationRate: 3}},
		Stocks: []model.StockPreset{
			{ID: "s1", Name: "Duplicate", Length: 1},
			{ID: "s2", Name: "Bar 3m", Length: 3000},
		},
	}
	path := filepath.Join(dir, "import.json")
	if err := SaveInventory(path, imported); err != nil {
		t.Fatal(err)
	}

	merged, err := ImportInventory(path, existing)
	if err != nil {
		t.Fatalf("ImportInventory failed: %v", err)
	}
	if len(merged.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(merged.Items))
	}
	if merged.FindItem("A").ValuationRate != 2 {
		t.Error("imported item should replace the existing entry")
	}
	if len(merged.Stocks) != 2 || merged.FindStockByID("s1").Name != "Bar 6m" {
		t.Errorf("duplicate stock preset should be skipped: %+v", merged.Stocks)
	}
}

func TestImportInventoryMissingFile(t *testing.T) {
	existing := model.DefaultInventory()
	got, err := ImportInventory(filepath.Join(t.TempDir(), "missing.json"), existing)
	if err == nil {
		t.Error("expected error for missing file")
	}
	if len(got.Stocks) != len(existing.Stocks) {
		t.Error("existing inventory should be returned unchanged")
	}
}
