package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/barcut/internal/model"
)

func TestBuildDefaultScenarios(t *testing.T) {
	scenarios := BuildDefaultScenarios(model.DefaultSettings())
	require.Len(t, scenarios, 5)

	assert.Equal(t, "Current Settings", scenarios[0].Name)
	assert.Equal(t, model.AlgorithmGreedy, scenarios[1].Settings.Algorithm)
	assert.Equal(t, model.AlgorithmGenetic, scenarios[2].Settings.Algorithm)
	assert.Equal(t, 1.5, scenarios[3].Settings.SawKerf)
	assert.True(t, scenarios[4].Settings.AllowOverproduction)
}

func TestBuildDefaultScenarios_ThinBladeSkipsKerfScenario(t *testing.T) {
	s := model.DefaultSettings()
	s.SawKerf = 1.0
	s.AllowOverproduction = true
	scenarios := BuildDefaultScenarios(s)
	require.Len(t, scenarios, 4)
	assert.Equal(t, "Exact Demand", scenarios[3].Name)
	assert.False(t, scenarios[3].Settings.AllowOverproduction)
}

func TestCompareScenarios(t *testing.T) {
	req := ffdTrap(model.AlgorithmExact)
	scenarios := []ComparisonScenario{
		{Name: "exact", Settings: req.Settings},
		{Name: "greedy", Settings: model.Settings{Algorithm: model.AlgorithmGreedy}},
	}

	results := CompareScenarios(context.Background(), scenarios, req)
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)

	assert.Equal(t, 2, results[0].BarsUsed)
	assert.Equal(t, 3, results[1].BarsUsed)
	assert.Equal(t, 0.0, results[0].WastePercent)
	assert.Greater(t, results[1].WastePercent, 0.0)
	assert.Less(t, results[0].TotalCost, results[1].TotalCost)
}

func TestCompareScenarios_ReportsErrors(t *testing.T) {
	req := testRequest(model.AlgorithmExact, 0, oneStock(100, 1), model.Part{Name: "X", Length: 200, Demand: 1})
	results := CompareScenarios(context.Background(), []ComparisonScenario{{Name: "x", Settings: req.Settings}}, req)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrNoPatterns)
	assert.Zero(t, results[0].BarsUsed)
}
