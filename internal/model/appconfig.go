package model

import "time"

// AppConfig holds application-wide preferences and default optimizer settings.
type AppConfig struct {
	// Defaults applied to requests that leave them unset
	DefaultSawKerf             float64   `json:"default_saw_kerf"`
	DefaultAllowOverproduction bool      `json:"default_allow_overproduction"`
	DefaultAlgorithm           Algorithm `json:"default_algorithm"`
	DefaultTimeLimitSeconds    int       `json:"default_time_limit_seconds"`
	DefaultMaxPatterns         int       `json:"default_max_patterns"`
	DefaultWastePercent        float64   `json:"default_waste_percent"` // purchase estimates

	// Job behaviour
	UpdateOrderItems bool     `json:"update_order_items"` // replace order lines with consumed bars
	ExportFormats    []string `json:"export_formats"`     // "pdf", "xlsx", "dxf", "labels"
}

// DefaultAppConfig returns an AppConfig populated with defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultSawKerf:             defaults.SawKerf,
		DefaultAllowOverproduction: defaults.AllowOverproduction,
		DefaultAlgorithm:           defaults.Algorithm,
		DefaultTimeLimitSeconds:    int(defaults.TimeLimit / time.Second),
		DefaultMaxPatterns:         defaults.MaxPatterns,
		DefaultWastePercent:        10,
		UpdateOrderItems:           false,
		ExportFormats:              []string{"pdf"},
	}
}

// Settings returns optimizer settings built from the saved defaults.
func (c AppConfig) Settings() Settings {
	s := Settings{
		SawKerf:             c.DefaultSawKerf,
		AllowOverproduction: c.DefaultAllowOverproduction,
		Algorithm:           c.DefaultAlgorithm,
		TimeLimit:           time.Duration(c.DefaultTimeLimitSeconds) * time.Second,
		MaxPatterns:         c.DefaultMaxPatterns,
	}
	return s.WithDefaults()
}

// ApplyToSettings copies the tuning defaults into s where s leaves them unset.
// Kerf and overproduction belong to the request and are not touched.
func (c AppConfig) ApplyToSettings(s *Settings) {
	if s.Algorithm == "" {
		s.Algorithm = c.DefaultAlgorithm
	}
	if s.TimeLimit <= 0 && c.DefaultTimeLimitSeconds > 0 {
		s.TimeLimit = time.Duration(c.DefaultTimeLimitSeconds) * time.Second
	}
	if s.MaxPatterns <= 0 {
		s.MaxPatterns = c.DefaultMaxPatterns
	}
	*s = s.WithDefaults()
}
