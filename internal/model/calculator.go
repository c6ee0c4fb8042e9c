package model

import "math"

// PurchaseEstimate holds the results of a bar purchasing calculation.
type PurchaseEstimate struct {
	TotalPartLength float64 `json:"total_part_length"` // Total length of all parts incl. one kerf each (mm)
	TotalPieces     int     `json:"total_pieces"`      // Number of pieces to cut
	BarLength       float64 `json:"bar_length"`        // Length of one bar (mm)
	BarsNeededExact float64 `json:"bars_needed_exact"` // Exact fractional number of bars
	BarsNeededMin   int     `json:"bars_needed_min"`   // Minimum bars (ceiling of exact)
	BarsWithWaste   int     `json:"bars_with_waste"`   // Recommended bars including waste factor
	WastePercent    float64 `json:"waste_percent"`     // Waste factor applied (e.g., 15 for 15%)
	EstimatedCost   float64 `json:"estimated_cost"`    // Total cost if pricing available
	EstimatedWeight float64 `json:"estimated_weight"`  // Total weight if known (kg)
	CostPerBar      float64 `json:"cost_per_bar"`      // Price used for estimation
	KerfWidth       float64 `json:"kerf_width"`        // Kerf width used in calculation
}

// CalculatePurchaseEstimate computes how many bars to buy for a parts list
// without running the optimizer. Every piece is charged one kerf.
func CalculatePurchaseEstimate(parts []Part, stock StockItem, kerfWidth, wastePercent float64) PurchaseEstimate {
	var totalLength float64
	pieces := 0
	for _, p := range parts {
		totalLength += (p.Length + kerfWidth) * float64(p.Demand)
		pieces += p.Demand
	}

	if stock.Length <= 0 {
		return PurchaseEstimate{
			TotalPartLength: totalLength,
			TotalPieces:     pieces,
			WastePercent:    wastePercent,
			KerfWidth:       kerfWidth,
		}
	}

	exactBars := totalLength / stock.Length
	minBars := int(math.Ceil(exactBars))

	// Apply waste factor
	wasteFactor := 1.0 + (wastePercent / 100.0)
	barsWithWaste := int(math.Ceil(exactBars * wasteFactor))
	if barsWithWaste < minBars {
		barsWithWaste = minBars
	}

	return PurchaseEstimate{
		TotalPartLength: totalLength,
		TotalPieces:     pieces,
		BarLength:       stock.Length,
		BarsNeededExact: exactBars,
		BarsNeededMin:   minBars,
		BarsWithWaste:   barsWithWaste,
		WastePercent:    wastePercent,
		EstimatedCost:   float64(barsWithWaste) * stock.Cost,
		EstimatedWeight: float64(barsWithWaste) * stock.Weight,
		CostPerBar:      stock.Cost,
		KerfWidth:       kerfWidth,
	}
}
