package model

import (
	"testing"
	"time"
)

func TestDefaultAppConfigMatchesSettings(t *testing.T) {
	cfg := DefaultAppConfig()
	defaults := DefaultSettings()
	if cfg.DefaultSawKerf != defaults.SawKerf {
		t.Errorf("expected kerf %f, got %f", defaults.SawKerf, cfg.DefaultSawKerf)
	}
	if cfg.UpdateOrderItems {
		t.Error("order item replacement must be off by default")
	}
	if got := cfg.Settings(); got != defaults {
		t.Errorf("expected %+v, got %+v", defaults, got)
	}
}

func TestApplyToSettingsOnlyFillsUnset(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.DefaultAlgorithm = AlgorithmGreedy
	cfg.DefaultTimeLimitSeconds = 5

	s := Settings{SawKerf: 1, Algorithm: AlgorithmGenetic}
	cfg.ApplyToSettings(&s)
	if s.Algorithm != AlgorithmGenetic {
		t.Errorf("explicit algorithm overwritten: %s", s.Algorithm)
	}
	if s.TimeLimit != 5*time.Second {
		t.Errorf("expected 5s, got %s", s.TimeLimit)
	}
	if s.SawKerf != 1 {
		t.Errorf("kerf must not change, got %f", s.SawKerf)
	}

	empty := Settings{}
	cfg.ApplyToSettings(&empty)
	if empty.Algorithm != AlgorithmGreedy {
		t.Errorf("expected greedy default, got %s", empty.Algorithm)
	}
}
