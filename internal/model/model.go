package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Algorithm represents the optimizer algorithm to use.
type Algorithm string

const (
	AlgorithmExact   Algorithm = "exact"   // Branch-and-bound over generated patterns (default)
	AlgorithmGreedy  Algorithm = "greedy"  // First-fit decreasing (fast)
	AlgorithmGenetic Algorithm = "genetic" // Genetic algorithm over piece orderings
)

// Status reports how good a solution is known to be.
type Status string

const (
	StatusOptimal  Status = "optimal"
	StatusFeasible Status = "feasible"
)

// Part represents a required piece to be cut from bar stock.
type Part struct {
	Name   string  `json:"name" yaml:"name"`
	Length float64 `json:"length" yaml:"length"` // mm
	Demand int     `json:"demand" yaml:"demand"`
}

// NewPart creates a part named after its length when no name is given.
func NewPart(name string, length float64, demand int) Part {
	if name == "" {
		name = LengthName(length)
	}
	return Part{Name: name, Length: length, Demand: demand}
}

// LengthName returns the canonical part name for a length, e.g. "1250mm".
func LengthName(length float64) string {
	return fmt.Sprintf("%gmm", length)
}

// StockItem represents one kind of raw bar that parts are cut from.
type StockItem struct {
	ID        string  `json:"id" yaml:"id"`
	Length    float64 `json:"length" yaml:"length"` // mm
	Cost      float64 `json:"cost" yaml:"cost"`     // per bar
	Weight    float64 `json:"weight" yaml:"weight"` // kg per bar
	Available *int    `json:"available,omitempty" yaml:"available,omitempty"`
}

// NewStockItem creates an unlimited stock item. An empty id gets a short generated one.
func NewStockItem(id string, length, cost, weight float64) StockItem {
	if id == "" {
		id = uuid.New().String()[:8]
	}
	return StockItem{ID: id, Length: length, Cost: cost, Weight: weight}
}

// WithAvailable returns a copy limited to n bars.
func (s StockItem) WithAvailable(n int) StockItem {
	s.Available = &n
	return s
}

// WeightPerMM returns the bar weight per millimetre, or 0 when unknown.
func (s StockItem) WeightPerMM() float64 {
	if s.Length <= 0 || s.Weight <= 0 {
		return 0
	}
	return s.Weight / s.Length
}

// Settings holds optimizer configuration.
type Settings struct {
	SawKerf             float64       `json:"saw_kerf" yaml:"saw_kerf"` // Blade width in mm
	AllowOverproduction bool          `json:"allow_overproduction" yaml:"allow_overproduction"`
	Algorithm           Algorithm     `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	TimeLimit           time.Duration `json:"time_limit,omitempty" yaml:"time_limit,omitempty"`
	MaxPatterns         int           `json:"max_patterns,omitempty" yaml:"max_patterns,omitempty"`
}

// DefaultSettings returns the settings used when nothing else is configured.
func DefaultSettings() Settings {
	return Settings{
		SawKerf:             3.0,
		AllowOverproduction: false,
		Algorithm:           AlgorithmExact,
		TimeLimit:           30 * time.Second,
		MaxPatterns:         20000,
	}
}

// WithDefaults fills zero-valued tuning fields from DefaultSettings.
// SawKerf and AllowOverproduction are taken as given.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.Algorithm == "" {
		s.Algorithm = d.Algorithm
	}
	if s.TimeLimit <= 0 {
		s.TimeLimit = d.TimeLimit
	}
	if s.MaxPatterns <= 0 {
		s.MaxPatterns = d.MaxPatterns
	}
	return s
}

// Request is a single cutting-stock problem. Its JSON form is the flat
// stock_data/parts_data layout handled in request.go.
type Request struct {
	ProjectDescription string
	Stock              map[string]StockItem
	Parts              []Part
	Settings           Settings
}

// Validate checks the request for values the optimizer cannot work with.
func (r Request) Validate() error {
	if len(r.Stock) == 0 {
		return fmt.Errorf("no stock items")
	}
	if len(r.Parts) == 0 {
		return fmt.Errorf("no parts")
	}
	for id, s := range r.Stock {
		if s.Length <= 0 {
			return fmt.Errorf("stock %q: length must be positive", id)
		}
		if s.Cost < 0 {
			return fmt.Errorf("stock %q: cost must not be negative", id)
		}
		if s.Available != nil && *s.Available < 0 {
			return fmt.Errorf("stock %q: available must not be negative", id)
		}
	}
	seen := make(map[string]bool, len(r.Parts))
	for _, p := range r.Parts {
		if p.Name == "" {
			return fmt.Errorf("part with length %g has no name", p.Length)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate part %q", p.Name)
		}
		seen[p.Name] = true
		if p.Length <= 0 {
			return fmt.Errorf("part %q: length must be positive", p.Name)
		}
		if p.Demand < 0 {
			return fmt.Errorf("part %q: demand must not be negative", p.Name)
		}
	}
	if r.Settings.SawKerf < 0 {
		return fmt.Errorf("saw kerf must not be negative")
	}
	return nil
}

// TotalDemand returns the number of pieces requested across all parts.
func (r Request) TotalDemand() int {
	total := 0
	for _, p := range r.Parts {
		total += p.Demand
	}
	return total
}

// LayoutPiece is one piece in the order it is cut from the bar.
type LayoutPiece struct {
	PartID string  `json:"part_id"`
	Length float64 `json:"length"`
}

// Pattern describes how a single bar of one stock item is cut.
type Pattern struct {
	ID          string         `json:"pattern_id"`
	StockID     string         `json:"stock_id_used"`
	Yield       map[string]int `json:"yield"`
	Layout      []LayoutPiece  `json:"layout_pieces"`
	PartsLength float64        `json:"total_parts_length_in_pattern"`
	KerfLength  float64        `json:"total_kerf_length_in_pattern"`
	UsedLength  float64        `json:"total_used_length_in_pattern"`
	WasteLength float64        `json:"waste_length_in_pattern"`
	NumCuts     int            `json:"num_cuts_in_pattern"`
}

// PieceCount returns the number of pieces cut from one bar.
func (p Pattern) PieceCount() int {
	return len(p.Layout)
}

// Solution holds the full result of one optimization.
type Solution struct {
	Status           Status             `json:"status"`
	Algorithm        Algorithm          `json:"algorithm"`
	Objective        float64            `json:"total_objective_value"`
	PatternUsage     map[string]int     `json:"pattern_usage"`
	Patterns         map[string]Pattern `json:"patterns"`
	StockUsed        map[string]int     `json:"total_stock_items_used"`
	PartsProduced    map[string]int     `json:"total_parts_produced"`
	TotalStockCost   float64            `json:"total_stock_cost"`
	TotalStockLength float64            `json:"total_length_all_stock_used_mm"`
	TotalStockWeight float64            `json:"total_weight_all_stock_used_kg"`
	TotalPartsLength float64            `json:"total_length_all_parts_produced_mm"`
	TotalPartsWeight float64            `json:"total_weight_all_parts_produced_kg"`
	TotalKerfLength  float64            `json:"total_kerf_length_mm"`
	TotalWasteLength float64            `json:"total_waste_length_mm"`
	TotalKerfWeight  float64            `json:"total_weight_kerf_kg"`
	TotalWasteWeight float64            `json:"total_weight_waste_kg"`
	TotalCuts        int                `json:"total_number_of_cuts"`
	WeightPerPart    map[string]float64 `json:"weight_produced_per_part_kg"`
	Offcuts          []Offcut           `json:"offcuts,omitempty"`
	Truncated        bool               `json:"patterns_truncated,omitempty"`
}

// BarsUsed returns the total number of bars consumed across all stock items.
func (s Solution) BarsUsed() int {
	total := 0
	for _, n := range s.StockUsed {
		total += n
	}
	return total
}

// Efficiency returns the share of consumed stock length that ended up in parts, in percent.
func (s Solution) Efficiency() float64 {
	if s.TotalStockLength == 0 {
		return 0
	}
	return s.TotalPartsLength / s.TotalStockLength * 100.0
}

// UsedPatternIDs returns the ids of patterns with non-zero usage, in stable order.
func (s Solution) UsedPatternIDs() []string {
	ids := make([]string, 0, len(s.PatternUsage))
	for id, n := range s.PatternUsage {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	SortPatternIDs(ids)
	return ids
}

// SortPatternIDs sorts ids of the form "<stock>_p1d<n>" by stock, then by n numerically.
// Ids that do not follow the form sort lexically after their stock prefix.
func SortPatternIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		si, ni := splitPatternID(ids[i])
		sj, nj := splitPatternID(ids[j])
		if si != sj {
			return si < sj
		}
		if ni != nj {
			return ni < nj
		}
		return ids[i] < ids[j]
	})
}

// PatternID formats the id of the n-th pattern generated for a stock item.
func PatternID(stockID string, n int) string {
	return fmt.Sprintf("%s_p1d%d", stockID, n)
}

func splitPatternID(id string) (string, int) {
	i := strings.LastIndex(id, "_p1d")
	if i < 0 {
		return id, -1
	}
	n, err := strconv.Atoi(id[i+len("_p1d"):])
	if err != nil {
		return id, -1
	}
	return id[:i], n
}
