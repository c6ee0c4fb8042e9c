package model

import (
	"sort"

	"github.com/google/uuid"
)

// Offcut represents a usable bar remnant left over after cutting a pattern.
type Offcut struct {
	ID        string  `json:"id"`
	StockID   string  `json:"stock_id"`   // Which stock item it came from
	PatternID string  `json:"pattern_id"` // Pattern that leaves this remnant
	Length    float64 `json:"length"`     // Usable length (mm)
	Quantity  int     `json:"quantity"`   // One per bar cut with the pattern
	Value     float64 `json:"value"`      // Share of the bar cost proportional to length (0 if not priced)
	Weight    float64 `json:"weight"`     // kg per remnant
}

// ToStockItem converts an offcut into a limited stock item for reuse in later runs.
func (o Offcut) ToStockItem() StockItem {
	item := NewStockItem("offcut-"+o.StockID+"-"+o.ID, o.Length, o.Value, o.Weight)
	return item.WithAvailable(o.Quantity)
}

// MinOffcutLength is the minimum remnant length (in mm) worth keeping.
// Shorter remnants are waste.
const MinOffcutLength = 300.0

// DetectOffcuts lists the remnants of every used pattern that are long enough
// to be reused, longest first.
func DetectOffcuts(sol Solution, stock map[string]StockItem) []Offcut {
	var offcuts []Offcut
	for _, id := range sol.UsedPatternIDs() {
		p, ok := sol.Patterns[id]
		if !ok || p.WasteLength < MinOffcutLength {
			continue
		}
		o := Offcut{
			ID:        uuid.New().String()[:8],
			StockID:   p.StockID,
			PatternID: p.ID,
			Length:    p.WasteLength,
			Quantity:  sol.PatternUsage[id],
		}
		if s, ok := stock[p.StockID]; ok && s.Length > 0 {
			o.Value = p.WasteLength * s.Cost / s.Length
			if s.Weight > 0 {
				o.Weight = p.WasteLength * s.Weight / s.Length
			}
		}
		offcuts = append(offcuts, o)
	}

	sort.SliceStable(offcuts, func(i, j int) bool {
		return offcuts[i].Length > offcuts[j].Length
	})
	return offcuts
}

// TotalOffcutLength returns the summed length of all offcut pieces in mm.
func TotalOffcutLength(offcuts []Offcut) float64 {
	var total float64
	for _, o := range offcuts {
		total += o.Length * float64(o.Quantity)
	}
	return total
}
