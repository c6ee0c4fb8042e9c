package model

import (
	"sort"
	"time"
)

// PieceUOM is the unit of measure whose conversion factor holds a bar length in meters.
const PieceUOM = "ks"

// OrderItem is one line of a sales order.
type OrderItem struct {
	ItemCode string  `json:"item_code"`
	Qty      float64 `json:"qty"`
}

// Order is a sales order together with its mirrored optimizer config.
type Order struct {
	Name            string      `json:"name"`
	Customer        string      `json:"customer,omitempty"`
	Items           []OrderItem `json:"items"`
	OptimizerOutput string      `json:"optimizer_output"`
	Modified        time.Time   `json:"modified"`
}

// Config parses the order's optimizer output, falling back to a fresh config.
func (o Order) Config() OptimizerConfig {
	return ParseOptimizerConfig(o.OptimizerOutput)
}

// SetConfig stores cfg as the order's optimizer output.
func (o *Order) SetConfig(cfg OptimizerConfig) error {
	raw, err := cfg.Encode()
	if err != nil {
		return err
	}
	o.OptimizerOutput = raw
	return nil
}

// ItemsFromStockUsage returns order lines for every consumed bar kind. Item codes
// the catalog does not know are reported separately and left out.
func ItemsFromStockUsage(used map[string]int, known func(string) bool) ([]OrderItem, []string) {
	codes := make([]string, 0, len(used))
	for code := range used {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var items []OrderItem
	var unknown []string
	for _, code := range codes {
		qty := used[code]
		if qty <= 0 {
			continue
		}
		if !known(code) {
			unknown = append(unknown, code)
			continue
		}
		items = append(items, OrderItem{ItemCode: code, Qty: float64(qty)})
	}
	return items, unknown
}

// UOMConversion is one alternate unit of measure of a catalog item.
type UOMConversion struct {
	UOM              string  `json:"uom"`
	ConversionFactor float64 `json:"conversion_factor"`
}

// CatalogItem is the subset of an item master record the optimizer needs.
type CatalogItem struct {
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name,omitempty"`
	ValuationRate float64         `json:"valuation_rate"`  // per meter
	WeightPerUnit float64         `json:"weight_per_unit"` // kg per meter
	UOMs          []UOMConversion `json:"uoms,omitempty"`
}

// PieceLengthMeters returns the conversion factor of the piece unit, or 0.
func (c CatalogItem) PieceLengthMeters() float64 {
	for _, u := range c.UOMs {
		if u.UOM == PieceUOM {
			return u.ConversionFactor
		}
	}
	return 0
}
