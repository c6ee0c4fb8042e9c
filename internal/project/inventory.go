package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/barcut/internal/model"
)

// DefaultInventoryPath returns the default file path for the inventory file.
// This is located at ~/.barcut/inventory.json.
func DefaultInventoryPath() string {
	return filepath.Join(DefaultConfigDir(), "inventory.json")
}

// SaveInventory writes the inventory to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveInventory(path string, inv model.Inventory) error {
	return writeJSON(path, inv)
}

// LoadInventory reads the inventory from the specified JSON file.
// If the file does not exist, it returns the default inventory and saves it.
func LoadInventory(path string) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			inv := model.DefaultInventory()
			if saveErr := SaveInventory(path, inv); saveErr != nil {
				return inv, saveErr
			}
			return inv, nil
		}
		return model.Inventory{}, err
	}
	var inv model.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return model.Inventory{}, err
	}
	if inv.Items == nil {
		inv.Items = []model.CatalogItem{}
	}
	return inv, nil
}

// ImportInventory imports an inventory from a user-specified JSON file,
// merging it with the existing inventory. Catalog items replace existing
// entries with the same item code; stock presets with a known ID are skipped.
func ImportInventory(path string, existing model.Inventory) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, err
	}
	var imported model.Inventory
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, err
	}
	return MergeInventory(existing, imported), nil
}

// MergeInventory adds the items and stock presets of imported to existing.
func MergeInventory(existing, imported model.Inventory) model.Inventory {
	for _, item := range imported.Items {
		existing.UpsertItem(item)
	}

	stockIDs := make(map[string]bool, len(existing.Stocks))
	for _, s := range existing.Stocks {
		stockIDs[s.ID] = true
	}
	for _, s := range imported.Stocks {
		if !stockIDs[s.ID] {
			existing.Stocks = append(existing.Stocks, s)
			stockIDs[s.ID] = true
		}
	}
	return existing
}
