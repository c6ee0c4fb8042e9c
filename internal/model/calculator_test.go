package model

import "testing"

func TestCalculatePurchaseEstimate(t *testing.T) {
	parts := []Part{
		{Name: "a", Length: 997, Demand: 6},  // 6 x 1000 with kerf
		{Name: "b", Length: 497, Demand: 10}, // 10 x 500 with kerf
	}
	stock := StockItem{ID: "S", Length: 6000, Cost: 40, Weight: 10}
	est := CalculatePurchaseEstimate(parts, stock, 3, 10)

	if est.TotalPartLength != 11000 {
		t.Errorf("expected 11000mm, got %f", est.TotalPartLength)
	}
	if est.TotalPieces != 16 {
		t.Errorf("expected 16 pieces, got %d", est.TotalPieces)
	}
	if est.BarsNeededMin != 2 {
		t.Errorf("expected 2 bars minimum, got %d", est.BarsNeededMin)
	}
	// 11000/6000*1.1 = 2.0167
	if est.BarsWithWaste != 3 {
		t.Errorf("expected 3 bars with waste, got %d", est.BarsWithWaste)
	}
	if est.EstimatedCost != 120 || est.EstimatedWeight != 30 {
		t.Errorf("unexpected cost/weight %f/%f", est.EstimatedCost, est.EstimatedWeight)
	}
}

func TestCalculatePurchaseEstimateZeroWaste(t *testing.T) {
	parts := []Part{{Name: "a", Length: 3000, Demand: 2}}
	est := CalculatePurchaseEstimate(parts, StockItem{Length: 6000}, 0, 0)
	if est.BarsNeededMin != 1 || est.BarsWithWaste != 1 {
		t.Errorf("expected exactly 1 bar, got %+v", est)
	}
}

func TestCalculatePurchaseEstimateInvalidBar(t *testing.T) {
	parts := []Part{{Name: "a", Length: 100, Demand: 1}}
	est := CalculatePurchaseEstimate(parts, StockItem{}, 3, 10)
	if est.BarsWithWaste != 0 || est.TotalPartLength != 103 {
		t.Errorf("unexpected estimate for zero-length bar %+v", est)
	}
}
