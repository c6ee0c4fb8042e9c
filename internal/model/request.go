package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// wireStock is a stock entry as sent by clients; the id is the map key.
type wireStock struct {
	Length    float64 `json:"length"`
	Cost      float64 `json:"cost"`
	Weight    float64 `json:"weight,omitempty"`
	Available *int    `json:"available,omitempty"`
}

type wirePart struct {
	Name   string  `json:"name,omitempty"`
	Length float64 `json:"length"`
	Demand int     `json:"demand"`
}

type wireRequest struct {
	ProjectDescription  string               `json:"project_description"`
	StockData           map[string]wireStock `json:"stock_data"`
	PartsData           json.RawMessage      `json:"parts_data"`
	SawKerf             *float64             `json:"saw_kerf,omitempty"`
	AllowOverproduction Flag                 `json:"allow_overproduction"`
	Algorithm           Algorithm            `json:"algorithm,omitempty"`
	TimeLimitSeconds    float64              `json:"time_limit_seconds,omitempty"`
	MaxPatterns         int                  `json:"max_patterns,omitempty"`
}

// UnmarshalJSON decodes the flat request layout. parts_data may be either an
// object keyed by part name or a list of parts.
func (r *Request) UnmarshalJSON(data []byte) error {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parts, err := decodeParts(w.PartsData)
	if err != nil {
		return err
	}

	// Tuning fields stay zero unless sent so configured defaults can fill them.
	settings := Settings{SawKerf: DefaultSettings().SawKerf}
	if w.SawKerf != nil {
		settings.SawKerf = *w.SawKerf
	}
	settings.AllowOverproduction = bool(w.AllowOverproduction)
	if w.Algorithm != "" {
		settings.Algorithm = w.Algorithm
	}
	if w.TimeLimitSeconds > 0 {
		settings.TimeLimit = time.Duration(w.TimeLimitSeconds * float64(time.Second))
	}
	if w.MaxPatterns > 0 {
		settings.MaxPatterns = w.MaxPatterns
	}

	stock := make(map[string]StockItem, len(w.StockData))
	for id, s := range w.StockData {
		stock[id] = StockItem{ID: id, Length: s.Length, Cost: s.Cost, Weight: s.Weight, Available: s.Available}
	}

	*r = Request{
		ProjectDescription: w.ProjectDescription,
		Stock:              stock,
		Parts:              parts,
		Settings:           settings,
	}
	return nil
}

// MarshalJSON writes the flat request layout with parts_data keyed by name.
func (r Request) MarshalJSON() ([]byte, error) {
	stock := make(map[string]wireStock, len(r.Stock))
	for id, s := range r.Stock {
		stock[id] = wireStock{Length: s.Length, Cost: s.Cost, Weight: s.Weight, Available: s.Available}
	}
	parts := make(map[string]wirePart, len(r.Parts))
	for _, p := range r.Parts {
		parts[p.Name] = wirePart{Length: p.Length, Demand: p.Demand}
	}
	rawParts, err := json.Marshal(parts)
	if err != nil {
		return nil, err
	}
	kerf := r.Settings.SawKerf
	return json.Marshal(wireRequest{
		ProjectDescription:  r.ProjectDescription,
		StockData:           stock,
		PartsData:           rawParts,
		SawKerf:             &kerf,
		AllowOverproduction: Flag(r.Settings.AllowOverproduction),
		Algorithm:           r.Settings.Algorithm,
		TimeLimitSeconds:    r.Settings.TimeLimit.Seconds(),
		MaxPatterns:         r.Settings.MaxPatterns,
	})
}

func decodeParts(raw json.RawMessage) ([]Part, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var byName map[string]wirePart
	if err := json.Unmarshal(raw, &byName); err == nil {
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]Part, 0, len(names))
		for _, name := range names {
			p := byName[name]
			parts = append(parts, Part{Name: name, Length: p.Length, Demand: p.Demand})
		}
		return parts, nil
	}
	var list []wirePart
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parts_data must be an object or a list: %w", err)
	}
	parts := make([]Part, 0, len(list))
	for _, p := range list {
		parts = append(parts, NewPart(p.Name, p.Length, p.Demand))
	}
	return parts, nil
}
