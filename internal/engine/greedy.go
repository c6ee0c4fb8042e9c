package engine

import (
	"sort"
)

// bar is one cut bar built by the heuristics.
type bar struct {
	stockID string
	pieces  []int   // part indices in cut order
	used    float64 // parts plus inter-piece kerfs
}

// fits reports whether a piece of the given length can still be cut from b.
func (b *bar) fits(length, stockLength, kerf float64) bool {
	needed := length
	if len(b.pieces) > 0 {
		needed += kerf
	}
	return b.used+needed <= stockLength+fitEpsilon
}

func (b *bar) cut(pi int, length, kerf float64) {
	if len(b.pieces) > 0 {
		b.used += kerf
	}
	b.used += length
	b.pieces = append(b.pieces, pi)
}

// packer assigns pieces to bars first-fit, opening the cheapest bar per mm
// that can still hold the piece.
type packer struct {
	prob      *problem
	remaining map[string]int // bars left per stock item
	bars      []*bar
}

func newPacker(prob *problem) *packer {
	total := prob.totalDemand()
	remaining := make(map[string]int, len(prob.stockIDs))
	for _, id := range prob.stockIDs {
		remaining[id] = prob.available(id, total)
	}
	return &packer{prob: prob, remaining: remaining}
}

// place cuts one piece. It returns false when no bar can take it.
func (pk *packer) place(pi int) bool {
	length := pk.prob.parts[pi].Length
	for _, b := range pk.bars {
		if b.fits(length, pk.prob.stock[b.stockID].Length, pk.prob.kerf) {
			b.cut(pi, length, pk.prob.kerf)
			return true
		}
	}
	id := pk.selectStock(length)
	if id == "" {
		return false
	}
	pk.remaining[id]--
	b := &bar{stockID: id}
	b.cut(pi, length, pk.prob.kerf)
	pk.bars = append(pk.bars, b)
	return true
}

// selectStock picks the stock item with the lowest cost per mm among those
// long enough for the piece and not used up. Ties go to the longer bar.
func (pk *packer) selectStock(length float64) string {
	best := ""
	var bestRate, bestLen float64
	for _, id := range pk.prob.stockIDs {
		s := pk.prob.stock[id]
		if pk.remaining[id] <= 0 || s.Length+fitEpsilon < length {
			continue
		}
		rate := pk.prob.barCost[id] / s.Length
		if best == "" || rate < bestRate-1e-12 || (rate <= bestRate+1e-12 && s.Length > bestLen) {
			best, bestRate, bestLen = id, rate, s.Length
		}
	}
	return best
}

// rightSize moves each bar to the cheapest stock item that still holds its
// pieces, freeing the original bar for reuse.
func (pk *packer) rightSize() {
	for _, b := range pk.bars {
		bestID := b.stockID
		bestCost := pk.prob.barCost[b.stockID]
		for _, id := range pk.prob.stockIDs {
			if id == b.stockID || pk.remaining[id] <= 0 {
				continue
			}
			s := pk.prob.stock[id]
			if b.used > s.Length+fitEpsilon {
				continue
			}
			if c := pk.prob.barCost[id]; c < bestCost-1e-12 {
				bestID, bestCost = id, c
			}
		}
		if bestID != b.stockID {
			pk.remaining[b.stockID]++
			pk.remaining[bestID]--
			b.stockID = bestID
		}
	}
}

// pack runs first-fit over the pieces in the given order. It returns the
// bars and the pieces that could not be placed.
func (pk *packer) pack(order []int) ([]*bar, []int) {
	var unplaced []int
	for _, pi := range order {
		if !pk.place(pi) {
			unplaced = append(unplaced, pi)
		}
	}
	pk.rightSize()
	return pk.bars, unplaced
}

// expandPieces lists one part index per demanded piece.
func expandPieces(prob *problem) []int {
	var pieces []int
	for i, part := range prob.parts {
		for n := 0; n < part.Demand; n++ {
			pieces = append(pieces, i)
		}
	}
	return pieces
}

// firstFitDecreasing packs the pieces longest first.
func firstFitDecreasing(prob *problem) ([]*bar, []int) {
	pieces := expandPieces(prob)
	// Parts are already sorted longest first, so a stable sort keeps that order.
	sort.SliceStable(pieces, func(i, j int) bool {
		return prob.parts[pieces[i]].Length > prob.parts[pieces[j]].Length
	})
	return newPacker(prob).pack(pieces)
}

// barsCost returns the objective value of a set of bars without registering
// their layouts as patterns.
func barsCost(prob *problem, bars []*bar) float64 {
	var cost float64
	for _, b := range bars {
		cost += prob.barCost[b.stockID]
		if prob.avgPerMM == 0 {
			continue
		}
		stockLen := prob.stock[b.stockID].Length
		var partsLen float64
		for _, pi := range b.pieces {
			partsLen += prob.parts[pi].Length
		}
		kerfs := len(b.pieces) - 1
		if stockLen-(partsLen+float64(kerfs)*prob.kerf) > trailingKerfThreshold {
			kerfs++
		}
		waste := stockLen - partsLen - float64(kerfs)*prob.kerf
		cost += prob.avgPerMM * (waste + partsLen)
	}
	if prob.avgPerMM > 0 {
		for _, part := range prob.parts {
			cost -= prob.avgPerMM * part.Length * float64(part.Demand)
		}
	}
	return cost
}

// barsToUsage registers the layout of each bar as a pattern and counts how
// often each pattern is used.
func barsToUsage(ps *patternSet, bars []*bar) map[int]int {
	usage := make(map[int]int)
	for _, b := range bars {
		idx := ps.add(b.stockID, b.pieces)
		usage[idx]++
	}
	return usage
}
