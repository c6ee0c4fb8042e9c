package model

import (
	"reflect"
	"testing"
	"time"
)

func TestNewPartNamesByLength(t *testing.T) {
	p := NewPart("", 1250, 3)
	if p.Name != "1250mm" {
		t.Errorf("expected name 1250mm, got %s", p.Name)
	}
	p = NewPart("", 812.5, 1)
	if p.Name != "812.5mm" {
		t.Errorf("expected name 812.5mm, got %s", p.Name)
	}
	p = NewPart("rail", 900, 2)
	if p.Name != "rail" {
		t.Errorf("expected explicit name to be kept, got %s", p.Name)
	}
}

func TestStockItemWeightPerMM(t *testing.T) {
	s := NewStockItem("bar", 6000, 30, 12)
	if got := s.WeightPerMM(); got != 0.002 {
		t.Errorf("expected 0.002 kg/mm, got %f", got)
	}
	s.Weight = 0
	if got := s.WeightPerMM(); got != 0 {
		t.Errorf("expected 0 for unknown weight, got %f", got)
	}
}

func TestNewStockItemGeneratesID(t *testing.T) {
	s := NewStockItem("", 6000, 1, 0)
	if len(s.ID) != 8 {
		t.Errorf("expected 8 character id, got %q", s.ID)
	}
	if s.Available != nil {
		t.Error("expected unlimited stock by default")
	}
	limited := s.WithAvailable(4)
	if limited.Available == nil || *limited.Available != 4 {
		t.Error("expected availability of 4")
	}
	if s.Available != nil {
		t.Error("WithAvailable must not modify the receiver")
	}
}

func TestSettingsWithDefaults(t *testing.T) {
	s := Settings{SawKerf: 0}.WithDefaults()
	if s.SawKerf != 0 {
		t.Errorf("zero kerf must be kept, got %f", s.SawKerf)
	}
	if s.Algorithm != AlgorithmExact {
		t.Errorf("expected exact algorithm, got %s", s.Algorithm)
	}
	if s.TimeLimit != 30*time.Second {
		t.Errorf("expected 30s time limit, got %s", s.TimeLimit)
	}
	if s.MaxPatterns != 20000 {
		t.Errorf("expected 20000 max patterns, got %d", s.MaxPatterns)
	}
}

func TestRequestValidate(t *testing.T) {
	valid := Request{
		Stock: map[string]StockItem{"S": {ID: "S", Length: 6000, Cost: 10}},
		Parts: []Part{{Name: "A", Length: 1000, Demand: 2}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	cases := map[string]func(r *Request){
		"no stock":        func(r *Request) { r.Stock = nil },
		"no parts":        func(r *Request) { r.Parts = nil },
		"zero length bar": func(r *Request) { r.Stock = map[string]StockItem{"S": {Length: 0}} },
		"negative cost":   func(r *Request) { r.Stock = map[string]StockItem{"S": {Length: 10, Cost: -1}} },
		"duplicate part": func(r *Request) {
			r.Parts = []Part{{Name: "A", Length: 1, Demand: 1}, {Name: "A", Length: 2, Demand: 1}}
		},
		"negative demand": func(r *Request) { r.Parts = []Part{{Name: "A", Length: 1, Demand: -1}} },
		"negative kerf":   func(r *Request) { r.Settings.SawKerf = -1 },
	}
	for name, mutate := range cases {
		r := valid
		r.Parts = append([]Part(nil), valid.Parts...)
		mutate(&r)
		if err := r.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestSortPatternIDsNumeric(t *testing.T) {
	ids := []string{"B_p1d2", "A_p1d10", "A_p1d2", "A_p1d0"}
	SortPatternIDs(ids)
	want := []string{"A_p1d0", "A_p1d2", "A_p1d10", "B_p1d2"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
	if PatternID("STK", 3) != "STK_p1d3" {
		t.Errorf("unexpected pattern id %s", PatternID("STK", 3))
	}
}

func TestSolutionHelpers(t *testing.T) {
	sol := Solution{
		PatternUsage:     map[string]int{"S_p1d1": 2, "S_p1d0": 1, "S_p1d4": 0},
		StockUsed:        map[string]int{"S": 3, "T": 1},
		TotalStockLength: 2000,
		TotalPartsLength: 1500,
	}
	if sol.BarsUsed() != 4 {
		t.Errorf("expected 4 bars, got %d", sol.BarsUsed())
	}
	if sol.Efficiency() != 75 {
		t.Errorf("expected 75%% efficiency, got %f", sol.Efficiency())
	}
	if got := sol.UsedPatternIDs(); !reflect.DeepEqual(got, []string{"S_p1d0", "S_p1d1"}) {
		t.Errorf("unexpected used patterns %v", got)
	}
	if (Solution{}).Efficiency() != 0 {
		t.Error("expected zero efficiency for empty solution")
	}
}
