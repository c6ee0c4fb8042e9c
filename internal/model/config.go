package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// ConfigVersion is the only optimizer config layout understood by this package.
const ConfigVersion = "2.0"

// DefaultStockLengthMM is used for profiles whose catalog item has no length unit.
const DefaultStockLengthMM = 6000.0

// Flag is a boolean that also accepts the 0/1 form written by form-based clients.
type Flag bool

// UnmarshalJSON accepts true, false, numbers and numeric strings.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", `""`:
		*f = false
		return nil
	case "true":
		*f = true
		return nil
	case "false":
		*f = false
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	if b, err := strconv.ParseBool(s); err == nil {
		*f = Flag(b)
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid flag value %s", data)
	}
	*f = n != 0
	return nil
}

// MarshalJSON writes the flag as 0 or 1.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// ProfilePart is one required length in a profile's parts list.
type ProfilePart struct {
	Length float64 `json:"length"`
	Demand int     `json:"demand"`
}

// Profile is the per item code configuration: which bar is cut and what is cut from it.
type Profile struct {
	ItemCode       string        `json:"item_code"`
	StockLengthMM  float64       `json:"stock_length_mm"`
	CostPerMeter   float64       `json:"cost_per_meter"`
	WeightPerMeter float64       `json:"weight_per_meter"`
	CostPerPiece   float64       `json:"cost_per_piece"`
	WeightPerPiece float64       `json:"weight_per_piece"`
	Parts          []ProfilePart `json:"parts"`
	Solution       *Solution     `json:"solution,omitempty"`
}

// TotalPieces returns the number of pieces requested in this profile.
func (p Profile) TotalPieces() int {
	total := 0
	for _, part := range p.Parts {
		total += part.Demand
	}
	return total
}

// ToRequest builds the single-bar cutting problem for this profile.
// Parts are named after their length; repeated lengths are merged. Tuning
// settings are left unset for the optimizer to fill in.
func (p Profile) ToRequest(settings ConfigSettings) Request {
	stock := StockItem{
		ID:     p.ItemCode,
		Length: p.StockLengthMM,
		Cost:   p.CostPerPiece,
		Weight: p.WeightPerPiece,
	}
	index := make(map[string]int)
	var parts []Part
	for _, pp := range p.Parts {
		if pp.Length <= 0 || pp.Demand <= 0 {
			continue
		}
		name := LengthName(pp.Length)
		if i, ok := index[name]; ok {
			parts[i].Demand += pp.Demand
			continue
		}
		index[name] = len(parts)
		parts = append(parts, Part{Name: name, Length: pp.Length, Demand: pp.Demand})
	}
	return Request{
		ProjectDescription: p.ItemCode,
		Stock:              map[string]StockItem{stock.ID: stock},
		Parts:              parts,
		Settings: Settings{
			SawKerf:             settings.SawKerf,
			AllowOverproduction: bool(settings.AllowOverproduction),
		},
	}
}

// ConfigSettings are the settings shared by all profiles of a config.
type ConfigSettings struct {
	SawKerf             float64 `json:"saw_kerf"`
	AllowOverproduction Flag    `json:"allow_overproduction"`
}

// OptimizerConfig is the document mirrored into an order's optimizer output field.
type OptimizerConfig struct {
	Version  string               `json:"version"`
	Profiles map[string]Profile   `json:"profiles"`
	Settings ConfigSettings       `json:"settings"`
	Results  map[string]*Solution `json:"results"`
}

// NewOptimizerConfig returns a fresh, empty config.
func NewOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		Version:  ConfigVersion,
		Profiles: map[string]Profile{},
		Settings: ConfigSettings{SawKerf: 3.0},
		Results:  map[string]*Solution{},
	}
}

// ParseOptimizerConfig decodes a stored config. Empty or invalid input, a
// different version, or a missing profiles map all yield a fresh config.
func ParseOptimizerConfig(raw string) OptimizerConfig {
	cfg, err := DecodeOptimizerConfig([]byte(raw))
	if err != nil {
		return NewOptimizerConfig()
	}
	return cfg
}

// DecodeOptimizerConfig is the strict form of ParseOptimizerConfig.
func DecodeOptimizerConfig(data []byte) (OptimizerConfig, error) {
	var cfg OptimizerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return OptimizerConfig{}, fmt.Errorf("failed to decode optimizer config: %w", err)
	}
	if cfg.Version != ConfigVersion {
		return OptimizerConfig{}, fmt.Errorf("unsupported optimizer config version %q", cfg.Version)
	}
	if cfg.Profiles == nil {
		return OptimizerConfig{}, fmt.Errorf("optimizer config has no profiles")
	}
	if cfg.Results == nil {
		cfg.Results = map[string]*Solution{}
	}
	return cfg, nil
}

// Encode renders the config the way it is stored on an order.
func (c OptimizerConfig) Encode() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode optimizer config: %w", err)
	}
	return string(data), nil
}

// ItemCodes returns the profile keys in sorted order.
func (c OptimizerConfig) ItemCodes() []string {
	codes := make([]string, 0, len(c.Profiles))
	for code := range c.Profiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ItemLookup resolves catalog items by item code.
type ItemLookup interface {
	LookupItem(itemCode string) (CatalogItem, error)
}

// SkippedItem records an order item code whose profile could not be created.
type SkippedItem struct {
	ItemCode string
	Err      error
}

// SyncProfiles aligns the config's profiles with the order's item codes.
// Missing profiles are created from the catalog; lookup failures are returned
// and the item is skipped. Profiles for item codes no longer on the order are removed.
func (c *OptimizerConfig) SyncProfiles(items []OrderItem, catalog ItemLookup) []SkippedItem {
	if c.Profiles == nil {
		c.Profiles = map[string]Profile{}
	}
	codes := make(map[string]bool)
	var ordered []string
	for _, it := range items {
		if it.ItemCode == "" || codes[it.ItemCode] {
			continue
		}
		codes[it.ItemCode] = true
		ordered = append(ordered, it.ItemCode)
	}

	var skipped []SkippedItem
	for _, code := range ordered {
		if _, ok := c.Profiles[code]; ok {
			continue
		}
		item, err := catalog.LookupItem(code)
		if err != nil {
			skipped = append(skipped, SkippedItem{ItemCode: code, Err: err})
			continue
		}
		c.Profiles[code] = NewProfileFromItem(item)
	}

	for code := range c.Profiles {
		if !codes[code] {
			delete(c.Profiles, code)
			delete(c.Results, code)
		}
	}
	return skipped
}

// NewProfileFromItem derives a profile from a catalog item. The bar length comes
// from the "ks" (piece) unit conversion factor in meters.
func NewProfileFromItem(item CatalogItem) Profile {
	meters := item.PieceLengthMeters()
	length := DefaultStockLengthMM
	if meters > 0 {
		length = meters * 1000
	}
	factor := meters
	if factor == 0 {
		factor = 1
	}
	return Profile{
		ItemCode:       item.ItemCode,
		StockLengthMM:  length,
		CostPerMeter:   item.ValuationRate,
		WeightPerMeter: item.WeightPerUnit,
		CostPerPiece:   item.ValuationRate * factor,
		WeightPerPiece: item.WeightPerUnit * factor,
		Parts:          []ProfilePart{},
	}
}
