package engine

import (
	"github.com/piwi3910/barcut/internal/model"
)

// buildSolution turns a pattern usage into the reported totals. Weights are
// derived from each stock item's weight per mm.
func buildSolution(req model.Request, ps *patternSet, usage map[int]int) model.Solution {
	sol := model.Solution{
		PatternUsage:  make(map[string]int),
		Patterns:      make(map[string]model.Pattern),
		StockUsed:     make(map[string]int, len(req.Stock)),
		PartsProduced: make(map[string]int, len(req.Parts)),
		WeightPerPart: make(map[string]float64, len(req.Parts)),
	}
	partLength := make(map[string]float64, len(req.Parts))
	for id := range req.Stock {
		sol.StockUsed[id] = 0
	}
	for _, p := range req.Parts {
		sol.PartsProduced[p.Name] = 0
		sol.WeightPerPart[p.Name] = 0
		partLength[p.Name] = p.Length
	}

	for idx, n := range usage {
		if n <= 0 {
			continue
		}
		pattern := ps.patterns[idx]
		stock := ps.prob.stock[pattern.StockID]
		count := float64(n)

		sol.PatternUsage[pattern.ID] = n
		sol.Patterns[pattern.ID] = pattern
		sol.StockUsed[pattern.StockID] += n
		sol.TotalStockCost += stock.Cost * count
		sol.TotalStockLength += stock.Length * count
		sol.TotalStockWeight += stock.Weight * count
		sol.TotalKerfLength += pattern.KerfLength * count
		sol.TotalPartsLength += pattern.PartsLength * count
		sol.TotalWasteLength += pattern.WasteLength * count
		sol.TotalCuts += pattern.NumCuts * n

		perMM := stock.WeightPerMM()
		sol.TotalKerfWeight += pattern.KerfLength * perMM * count
		for name, yielded := range pattern.Yield {
			sol.PartsProduced[name] += yielded * n
			w := partLength[name] * perMM * float64(yielded) * count
			sol.WeightPerPart[name] += w
			sol.TotalPartsWeight += w
		}
	}

	sol.TotalWasteWeight = sol.TotalStockWeight - sol.TotalPartsWeight - sol.TotalKerfWeight
	sol.Objective = sol.TotalStockCost
	sol.Offcuts = model.DetectOffcuts(sol, ps.prob.stock)
	return sol
}
