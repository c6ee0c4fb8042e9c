package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrItemNotFound is returned when an item code is not in the catalog.
var ErrItemNotFound = errors.New("item not found")

// StockPreset represents a reusable bar definition.
type StockPreset struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Length   float64 `json:"length"`
	Cost     float64 `json:"cost"`
	Weight   float64 `json:"weight"`
	Material string  `json:"material"`
}

// NewStockPreset creates a new StockPreset with a generated ID.
func NewStockPreset(name string, length, cost, weight float64, material string) StockPreset {
	return StockPreset{
		ID:       uuid.New().String()[:8],
		Name:     name,
		Length:   length,
		Cost:     cost,
		Weight:   weight,
		Material: material,
	}
}

// ToStockItem converts a StockPreset into a stock item. qty <= 0 means unlimited.
func (sp StockPreset) ToStockItem(qty int) StockItem {
	item := NewStockItem(sp.Name, sp.Length, sp.Cost, sp.Weight)
	if qty > 0 {
		item = item.WithAvailable(qty)
	}
	return item
}

// Inventory holds the item catalog and saved stock presets.
type Inventory struct {
	Items  []CatalogItem `json:"items"`
	Stocks []StockPreset `json:"stocks"`
}

// DefaultInventory returns an inventory populated with common defaults.
func DefaultInventory() Inventory {
	return Inventory{
		Items: []CatalogItem{},
		Stocks: []StockPreset{
			NewStockPreset("Steel tube 40x40x2 6m", 6000, 42.0, 13.9, "Steel"),
			NewStockPreset("Steel flat 40x5 6m", 6000, 18.5, 9.42, "Steel"),
			NewStockPreset("Aluminium profile 30x30 6m", 6000, 35.0, 5.1, "Aluminium"),
			NewStockPreset("Aluminium profile 30x30 3m", 3000, 19.0, 2.55, "Aluminium"),
			NewStockPreset("Timber 45x70 4.8m", 4800, 9.6, 8.2, "Timber"),
		},
	}
}

// LookupItem implements ItemLookup.
func (inv *Inventory) LookupItem(itemCode string) (CatalogItem, error) {
	if it := inv.FindItem(itemCode); it != nil {
		return *it, nil
	}
	return CatalogItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemCode)
}

// HasItem reports whether the catalog contains itemCode.
func (inv *Inventory) HasItem(itemCode string) bool {
	return inv.FindItem(itemCode) != nil
}

// FindItem returns a pointer to the catalog item with the given code, or nil.
func (inv *Inventory) FindItem(itemCode string) *CatalogItem {
	for i := range inv.Items {
		if inv.Items[i].ItemCode == itemCode {
			return &inv.Items[i]
		}
	}
	return nil
}

// UpsertItem adds item or replaces the entry with the same code.
func (inv *Inventory) UpsertItem(item CatalogItem) {
	if existing := inv.FindItem(item.ItemCode); existing != nil {
		*existing = item
		return
	}
	inv.Items = append(inv.Items, item)
}

// FindStockByID returns a pointer to the stock preset with the given ID, or nil.
func (inv *Inventory) FindStockByID(id string) *StockPreset {
	for i := range inv.Stocks {
		if inv.Stocks[i].ID == id {
			return &inv.Stocks[i]
		}
	}
	return nil
}

// StockNames returns the stock preset names in order.
func (inv *Inventory) StockNames() []string {
	names := make([]string, len(inv.Stocks))
	for i, s := range inv.Stocks {
		names[i] = s.Name
	}
	return names
}

// FindStockByName returns a pointer to the first stock preset with the given name, or nil.
func (inv *Inventory) FindStockByName(name string) *StockPreset {
	for i := range inv.Stocks {
		if inv.Stocks[i].Name == name {
			return &inv.Stocks[i]
		}
	}
	return nil
}
