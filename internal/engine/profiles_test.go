package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/barcut/internal/model"
)

func testConfig() model.OptimizerConfig {
	cfg := model.NewOptimizerConfig()
	cfg.Settings.SawKerf = 0
	cfg.Profiles["TUBE"] = model.Profile{
		ItemCode:       "TUBE",
		StockLengthMM:  6000,
		CostPerPiece:   30,
		WeightPerPiece: 12,
		Parts:          []model.ProfilePart{{Length: 1000, Demand: 6}},
	}
	cfg.Profiles["FLAT"] = model.Profile{
		ItemCode:      "FLAT",
		StockLengthMM: 3000,
		CostPerPiece:  10,
		Parts:         []model.ProfilePart{{Length: 1400, Demand: 3}},
	}
	cfg.Profiles["EMPTY"] = model.Profile{ItemCode: "EMPTY", StockLengthMM: 6000, Parts: []model.ProfilePart{}, Solution: &model.Solution{}}
	cfg.Results["EMPTY"] = &model.Solution{}
	return cfg
}

func TestOptimizeConfig_SolvesEveryProfile(t *testing.T) {
	cfg := testConfig()
	opt := New(model.DefaultSettings())

	require.NoError(t, opt.OptimizeConfig(context.Background(), &cfg))

	require.Contains(t, cfg.Results, "TUBE")
	require.Contains(t, cfg.Results, "FLAT")
	assert.NotContains(t, cfg.Results, "EMPTY", "profiles without parts drop stale results")
	assert.Nil(t, cfg.Profiles["EMPTY"].Solution)

	tube := cfg.Results["TUBE"]
	assert.Equal(t, 1, tube.StockUsed["TUBE"])
	assert.Equal(t, 6, tube.PartsProduced["1000mm"])
	assert.Equal(t, 30.0, tube.TotalStockCost)
	assert.InDelta(t, 12.0, tube.TotalPartsWeight, 1e-9)

	flat := cfg.Results["FLAT"]
	assert.Equal(t, 2, flat.StockUsed["FLAT"])

	require.NotNil(t, cfg.Profiles["TUBE"].Solution)
	assert.Equal(t, tube.PatternUsage, cfg.Profiles["TUBE"].Solution.PatternUsage)

	assert.Equal(t, map[string]int{"TUBE": 1, "FLAT": 2}, TotalStockUsed(cfg))
}

func TestOptimizeConfig_FailingProfile(t *testing.T) {
	cfg := testConfig()
	cfg.Profiles["SHORT"] = model.Profile{
		ItemCode:      "SHORT",
		StockLengthMM: 500,
		CostPerPiece:  1,
		Parts:         []model.ProfilePart{{Length: 800, Demand: 1}},
	}

	err := New(model.DefaultSettings()).OptimizeConfig(context.Background(), &cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPatterns)
	assert.ErrorContains(t, err, "profile SHORT")
}

func TestConfigRequests(t *testing.T) {
	reqs := ConfigRequests(testConfig())
	assert.Len(t, reqs, 2)
	assert.Equal(t, 6000.0, reqs["TUBE"].Stock["TUBE"].Length)
}
