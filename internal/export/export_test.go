package export

import (
	"github.com/piwi3910/barcut/internal/model"
)

// buildTestReport returns a two-pattern plan: 3 x 2000 and 2 x 1500 cut from
// two 6000 mm bars with a 3 mm kerf.
func buildTestReport() Report {
	req := model.Request{
		ProjectDescription: "Hall frame",
		Stock: map[string]model.StockItem{
			"S6000": model.NewStockItem("S6000", 6000, 30, 12),
		},
		Parts: []model.Part{
			model.NewPart("A", 2000, 3),
			model.NewPart("B", 1500, 2),
		},
		Settings: model.Settings{SawKerf: 3},
	}
	p0 := model.Pattern{
		ID:          "S6000_p1d0",
		StockID:     "S6000",
		Yield:       map[string]int{"A": 2, "B": 1},
		Layout:      []model.LayoutPiece{{PartID: "A", Length: 2000}, {PartID: "A", Length: 2000}, {PartID: "B", Length: 1500}},
		PartsLength: 5500,
		KerfLength:  9,
		UsedLength:  5509,
		WasteLength: 491,
		NumCuts:     3,
	}
	p1 := model.Pattern{
		ID:          "S6000_p1d1",
		StockID:     "S6000",
		Yield:       map[string]int{"A": 1, "B": 1},
		Layout:      []model.LayoutPiece{{PartID: "A", Length: 2000}, {PartID: "B", Length: 1500}},
		PartsLength: 3500,
		KerfLength:  6,
		UsedLength:  3506,
		WasteLength: 2494,
		NumCuts:     2,
	}
	sol := model.Solution{
		Status:           model.StatusOptimal,
		Algorithm:        model.AlgorithmExact,
		PatternUsage:     map[string]int{p0.ID: 1, p1.ID: 1},
		Patterns:         map[string]model.Pattern{p0.ID: p0, p1.ID: p1},
		StockUsed:        map[string]int{"S6000": 2},
		PartsProduced:    map[string]int{"A": 3, "B": 2},
		WeightPerPart:    map[string]float64{"A": 12, "B": 6},
		TotalStockCost:   60,
		TotalStockLength: 12000,
		TotalStockWeight: 24,
		TotalPartsLength: 9000,
		TotalPartsWeight: 18,
		TotalKerfLength:  15,
		TotalWasteLength: 2985,
		TotalCuts:        5,
	}
	return Report{Request: req, Solution: sol}
}
