package model

import (
	"encoding/json"
	"fmt"
	"testing"
)

type fakeCatalog map[string]CatalogItem

func (f fakeCatalog) LookupItem(code string) (CatalogItem, error) {
	it, ok := f[code]
	if !ok {
		return CatalogItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, code)
	}
	return it, nil
}

func TestParseOptimizerConfigFallsBackToInitial(t *testing.T) {
	for _, raw := range []string{
		"",
		"not json",
		`{"version":"1.0","profiles":{}}`,
		`{"version":"2.0"}`,
		`{"version":"2.0","profiles":null}`,
	} {
		cfg := ParseOptimizerConfig(raw)
		if cfg.Version != ConfigVersion {
			t.Errorf("%q: expected version 2.0, got %s", raw, cfg.Version)
		}
		if len(cfg.Profiles) != 0 || cfg.Profiles == nil {
			t.Errorf("%q: expected empty profiles map", raw)
		}
		if cfg.Settings.SawKerf != 3.0 || cfg.Settings.AllowOverproduction {
			t.Errorf("%q: unexpected settings %+v", raw, cfg.Settings)
		}
	}
}

func TestParseOptimizerConfigKeepsValid(t *testing.T) {
	raw := `{
		"version": "2.0",
		"profiles": {"TUBE-40": {"item_code": "TUBE-40", "stock_length_mm": 6000,
			"parts": [{"length": 1200, "demand": 4}], "solution": {}}},
		"settings": {"saw_kerf": 2.5, "allow_overproduction": 1},
		"results": {}
	}`
	cfg := ParseOptimizerConfig(raw)
	p, ok := cfg.Profiles["TUBE-40"]
	if !ok {
		t.Fatal("expected profile TUBE-40")
	}
	if p.TotalPieces() != 4 {
		t.Errorf("expected 4 pieces, got %d", p.TotalPieces())
	}
	if cfg.Settings.SawKerf != 2.5 || !cfg.Settings.AllowOverproduction {
		t.Errorf("unexpected settings %+v", cfg.Settings)
	}
}

func TestFlagAcceptsNumbersAndBools(t *testing.T) {
	cases := map[string]bool{`1`: true, `0`: false, `true`: true, `false`: false, `"1"`: true, `null`: false}
	for in, want := range cases {
		var f Flag
		if err := json.Unmarshal([]byte(in), &f); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if bool(f) != want {
			t.Errorf("%s: expected %v, got %v", in, want, f)
		}
	}
	var f Flag
	if err := json.Unmarshal([]byte(`"yes please"`), &f); err == nil {
		t.Error("expected error for non-numeric string")
	}
	out, _ := json.Marshal(Flag(true))
	if string(out) != "1" {
		t.Errorf("expected 1, got %s", out)
	}
}

func TestSyncProfilesAddsAndRemoves(t *testing.T) {
	catalog := fakeCatalog{
		"TUBE-40": {ItemCode: "TUBE-40", ValuationRate: 5, WeightPerUnit: 2, UOMs: []UOMConversion{{UOM: "m", ConversionFactor: 1}, {UOM: "ks", ConversionFactor: 6.5}}},
		"FLAT-20": {ItemCode: "FLAT-20", ValuationRate: 3, WeightPerUnit: 1.5},
	}
	cfg := NewOptimizerConfig()
	cfg.Profiles["OLD"] = Profile{ItemCode: "OLD"}
	cfg.Results["OLD"] = &Solution{}

	skipped := cfg.SyncProfiles([]OrderItem{
		{ItemCode: "TUBE-40", Qty: 1},
		{ItemCode: ""},
		{ItemCode: "FLAT-20", Qty: 2},
		{ItemCode: "TUBE-40", Qty: 3},
		{ItemCode: "MISSING", Qty: 1},
	}, catalog)

	if len(skipped) != 1 || skipped[0].ItemCode != "MISSING" {
		t.Fatalf("expected MISSING to be skipped, got %+v", skipped)
	}
	if _, ok := cfg.Profiles["OLD"]; ok {
		t.Error("expected stale profile to be removed")
	}
	if _, ok := cfg.Results["OLD"]; ok {
		t.Error("expected stale result to be removed")
	}

	tube := cfg.Profiles["TUBE-40"]
	if tube.StockLengthMM != 6500 {
		t.Errorf("expected 6500mm from ks factor, got %f", tube.StockLengthMM)
	}
	if tube.CostPerPiece != 32.5 || tube.WeightPerPiece != 13 {
		t.Errorf("unexpected per-piece values %+v", tube)
	}

	flat := cfg.Profiles["FLAT-20"]
	if flat.StockLengthMM != DefaultStockLengthMM {
		t.Errorf("expected default length, got %f", flat.StockLengthMM)
	}
	if flat.CostPerPiece != 3 || flat.WeightPerPiece != 1.5 {
		t.Errorf("expected per-meter values when length unknown, got %+v", flat)
	}
}

func TestSyncProfilesKeepsExisting(t *testing.T) {
	cfg := NewOptimizerConfig()
	cfg.Profiles["TUBE-40"] = Profile{ItemCode: "TUBE-40", StockLengthMM: 3000, Parts: []ProfilePart{{Length: 500, Demand: 2}}}
	skipped := cfg.SyncProfiles([]OrderItem{{ItemCode: "TUBE-40"}}, fakeCatalog{})
	if len(skipped) != 0 {
		t.Errorf("expected no lookups for existing profile, got %+v", skipped)
	}
	if cfg.Profiles["TUBE-40"].StockLengthMM != 3000 {
		t.Error("existing profile must not be overwritten")
	}
}

func TestProfileToRequestMergesLengths(t *testing.T) {
	p := Profile{
		ItemCode:       "TUBE-40",
		StockLengthMM:  6000,
		CostPerPiece:   30,
		WeightPerPiece: 12,
		Parts: []ProfilePart{
			{Length: 1200, Demand: 2},
			{Length: 800, Demand: 1},
			{Length: 1200, Demand: 3},
			{Length: 0, Demand: 5},
			{Length: 400, Demand: 0},
		},
	}
	req := p.ToRequest(ConfigSettings{SawKerf: 4, AllowOverproduction: true})
	if len(req.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %+v", req.Parts)
	}
	if req.Parts[0].Name != "1200mm" || req.Parts[0].Demand != 5 {
		t.Errorf("expected merged 1200mm x5, got %+v", req.Parts[0])
	}
	s := req.Stock["TUBE-40"]
	if s.Length != 6000 || s.Cost != 30 || s.Weight != 12 {
		t.Errorf("unexpected stock %+v", s)
	}
	if req.Settings.SawKerf != 4 || !req.Settings.AllowOverproduction {
		t.Errorf("unexpected settings %+v", req.Settings)
	}
}

func TestOrderConfigRoundTrip(t *testing.T) {
	var o Order
	cfg := NewOptimizerConfig()
	cfg.Profiles["X"] = Profile{ItemCode: "X", StockLengthMM: 6000}
	if err := o.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
	back := o.Config()
	if back.Profiles["X"].StockLengthMM != 6000 {
		t.Errorf("expected profile to survive, got %+v", back.Profiles)
	}
}

func TestItemsFromStockUsageSkipsUnknown(t *testing.T) {
	known := func(code string) bool { return code != "GHOST" }
	items, unknown := ItemsFromStockUsage(map[string]int{"B": 2, "A": 1, "GHOST": 3, "Z": 0}, known)
	if len(items) != 2 || items[0].ItemCode != "A" || items[1].Qty != 2 {
		t.Errorf("unexpected items %+v", items)
	}
	if len(unknown) != 1 || unknown[0] != "GHOST" {
		t.Errorf("unexpected unknown %v", unknown)
	}
}
