package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/barcut/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.Settings
}

// ComparisonResult holds the solution and headline figures of one scenario.
type ComparisonResult struct {
	Scenario     ComparisonScenario
	Solution     model.Solution
	Err          error
	BarsUsed     int
	TotalCost    float64
	TotalCuts    int
	WastePercent float64
}

// CompareScenarios solves req once per scenario and returns the results in
// scenario order. A failing scenario is reported in its result's Err.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, req model.Request) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		r := req
		r.Settings = scenario.Settings
		sol, err := New(scenario.Settings).Optimize(ctx, r)

		res := ComparisonResult{Scenario: scenario, Solution: sol, Err: err}
		if err == nil {
			res.BarsUsed = sol.BarsUsed()
			res.TotalCost = sol.TotalStockCost
			res.TotalCuts = sol.TotalCuts
			if sol.TotalStockLength > 0 {
				res.WastePercent = sol.TotalWasteLength / sol.TotalStockLength * 100.0
			}
		}
		results = append(results, res)
	}

	return results
}

// BuildDefaultScenarios generates what-if alternatives to the given settings:
// the other algorithms, a thinner blade and the opposite overproduction choice.
func BuildDefaultScenarios(baseSettings model.Settings) []ComparisonScenario {
	base := baseSettings.WithDefaults()
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: base,
		},
	}

	for _, algo := range []model.Algorithm{model.AlgorithmExact, model.AlgorithmGreedy, model.AlgorithmGenetic} {
		if algo == base.Algorithm {
			continue
		}
		alt := base
		alt.Algorithm = algo
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("%s algorithm", algo),
			Settings: alt,
		})
	}

	// Scenario: Tighter kerf (simulate thinner blade)
	if base.SawKerf > 1.0 {
		tightKerf := base
		tightKerf.SawKerf = base.SawKerf * 0.5
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Kerf %.1fmm (half)", tightKerf.SawKerf),
			Settings: tightKerf,
		})
	}

	over := base
	over.AllowOverproduction = !base.AllowOverproduction
	name := "Allow Overproduction"
	if base.AllowOverproduction {
		name = "Exact Demand"
	}
	scenarios = append(scenarios, ComparisonScenario{
		Name:     name,
		Settings: over,
	})

	return scenarios
}
