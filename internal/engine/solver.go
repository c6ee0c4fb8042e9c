package engine

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sort"
	"time"
)

var (
	// ErrNoPatterns is returned when no part fits on any stock item.
	ErrNoPatterns = errors.New("no valid cutting patterns could be generated")
	// ErrInfeasible is returned when demand cannot be met with the available stock.
	ErrInfeasible = errors.New("no feasible cutting plan found")
)

// maxMemoEntries bounds the transposition table of the branch and bound search.
const maxMemoEntries = 1 << 20

// checkEvery is how many search nodes pass between deadline checks.
const checkEvery = 1024

// patternCost is the objective contribution of one use of pattern idx. With
// overproduction the parts and waste length are charged at the average cost
// per mm; this equals the overproduction plus waste penalty up to a constant.
func patternCost(prob *problem, ps *patternSet, idx int) float64 {
	p := ps.patterns[idx]
	c := prob.barCost[p.StockID]
	if prob.avgPerMM > 0 {
		c += prob.avgPerMM * (p.WasteLength + p.PartsLength)
	}
	return c
}

// usageCost evaluates the full objective of a pattern usage.
func usageCost(prob *problem, ps *patternSet, usage map[int]int) float64 {
	var cost float64
	for idx, n := range usage {
		cost += float64(n) * patternCost(prob, ps, idx)
	}
	if prob.avgPerMM > 0 {
		for _, part := range prob.parts {
			cost -= prob.avgPerMM * part.Length * float64(part.Demand)
		}
	}
	return cost
}

// branchAndBound searches pattern combinations exactly. Each node picks the
// longest part still open and branches over every pattern that yields it.
type branchAndBound struct {
	prob *problem
	ps   *patternSet

	// byPart[i] lists usable patterns yielding part i, cheapest per mm first.
	byPart    [][]int
	cost      []float64
	stockIdx  []int // pattern -> index into prob.stockIDs
	bestRatio float64
	maxParts  float64 // longest parts length of any usable pattern
	minCost   float64 // cheapest usable pattern

	remaining []int
	used      []int
	limit     []int
	stack     []int

	best      float64
	bestStack []int
	found     bool

	memo     map[string]float64
	nodes    int
	deadline time.Time
	ctx      context.Context
	aborted  bool
}

func newBranchAndBound(ctx context.Context, prob *problem, ps *patternSet, deadline time.Time) *branchAndBound {
	bb := &branchAndBound{
		prob:      prob,
		ps:        ps,
		byPart:    make([][]int, len(prob.parts)),
		cost:      make([]float64, len(ps.patterns)),
		stockIdx:  make([]int, len(ps.patterns)),
		bestRatio: math.Inf(1),
		minCost:   math.Inf(1),
		remaining: prob.demand(),
		used:      make([]int, len(prob.stockIDs)),
		limit:     make([]int, len(prob.stockIDs)),
		best:      math.Inf(1),
		memo:      make(map[string]float64),
		deadline:  deadline,
		ctx:       ctx,
	}
	stockPos := make(map[string]int, len(prob.stockIDs))
	total := prob.totalDemand()
	for i, id := range prob.stockIDs {
		stockPos[id] = i
		bb.limit[i] = prob.available(id, total)
	}

	ratio := make([]float64, len(ps.patterns))
	for idx, p := range ps.patterns {
		bb.cost[idx] = patternCost(prob, ps, idx)
		bb.stockIdx[idx] = stockPos[p.StockID]
		if bb.limit[bb.stockIdx[idx]] == 0 || p.PartsLength <= 0 {
			continue
		}
		ratio[idx] = bb.cost[idx] / p.PartsLength
		if ratio[idx] < bb.bestRatio {
			bb.bestRatio = ratio[idx]
		}
		bb.maxParts = math.Max(bb.maxParts, p.PartsLength)
		bb.minCost = math.Min(bb.minCost, bb.cost[idx])
		for pi, n := range ps.yields[idx] {
			if n > 0 {
				bb.byPart[pi] = append(bb.byPart[pi], idx)
			}
		}
	}
	for pi := range bb.byPart {
		list := bb.byPart[pi]
		sort.SliceStable(list, func(a, b int) bool {
			ra, rb := ratio[list[a]], ratio[list[b]]
			if ra != rb {
				return ra < rb
			}
			return ps.patterns[list[a]].PartsLength > ps.patterns[list[b]].PartsLength
		})
	}
	return bb
}

// seed installs a known solution as the incumbent.
func (bb *branchAndBound) seed(usage map[int]int) {
	var cost float64
	var stack []int
	for idx, n := range usage {
		cost += float64(n) * bb.cost[idx]
		for k := 0; k < n; k++ {
			stack = append(stack, idx)
		}
	}
	if cost < bb.best {
		bb.best = cost
		bb.bestStack = stack
		bb.found = true
	}
}

// lowerBound is the cheapest possible cost of covering the open demand: the
// larger of the cost per mm bound and whole bars times the cheapest bar.
func (bb *branchAndBound) lowerBound() float64 {
	if math.IsInf(bb.bestRatio, 1) {
		return 0
	}
	var length float64
	for pi, r := range bb.remaining {
		length += float64(r) * bb.prob.parts[pi].Length
	}
	bound := length * bb.bestRatio
	if length > 0 && bb.minCost > 0 {
		bars := math.Ceil(length/bb.maxParts - 1e-9)
		bound = math.Max(bound, bars*bb.minCost)
	}
	return bound
}

func (bb *branchAndBound) stateKey() string {
	buf := make([]byte, 0, 2*(len(bb.remaining)+len(bb.used)))
	for _, r := range bb.remaining {
		buf = binary.AppendUvarint(buf, uint64(r))
	}
	for _, u := range bb.used {
		buf = binary.AppendUvarint(buf, uint64(u))
	}
	return string(buf)
}

func (bb *branchAndBound) expired() bool {
	if bb.aborted {
		return true
	}
	bb.nodes++
	if bb.nodes%checkEvery != 0 {
		return false
	}
	if bb.ctx.Err() != nil || (!bb.deadline.IsZero() && time.Now().After(bb.deadline)) {
		bb.aborted = true
	}
	return bb.aborted
}

func (bb *branchAndBound) search(cost float64) {
	if bb.expired() {
		return
	}

	open := -1
	for pi, r := range bb.remaining {
		if r > 0 {
			open = pi
			break
		}
	}
	if open < 0 {
		if cost < bb.best-1e-9 {
			bb.best = cost
			bb.bestStack = append(bb.bestStack[:0], bb.stack...)
			bb.found = true
		}
		return
	}

	if cost+bb.lowerBound() >= bb.best-1e-9 {
		return
	}
	key := bb.stateKey()
	if seen, ok := bb.memo[key]; ok && seen <= cost+1e-9 {
		return
	}
	if len(bb.memo) < maxMemoEntries {
		bb.memo[key] = cost
	}

	for _, idx := range bb.byPart[open] {
		si := bb.stockIdx[idx]
		if bb.used[si] >= bb.limit[si] {
			continue
		}
		yield := bb.ps.yields[idx]
		if !bb.prob.overprod && !fitsDemand(yield, bb.remaining) {
			continue
		}

		saved := bb.apply(yield, si)
		bb.stack = append(bb.stack, idx)
		bb.search(cost + bb.cost[idx])
		bb.stack = bb.stack[:len(bb.stack)-1]
		bb.undo(saved, si)

		if bb.aborted {
			return
		}
	}
}

func fitsDemand(yield, remaining []int) bool {
	for pi, n := range yield {
		if n > remaining[pi] {
			return false
		}
	}
	return true
}

// apply consumes one bar of the pattern and returns the previous demand.
func (bb *branchAndBound) apply(yield []int, si int) []int {
	saved := append([]int(nil), bb.remaining...)
	for pi, n := range yield {
		bb.remaining[pi] -= n
		if bb.remaining[pi] < 0 {
			bb.remaining[pi] = 0
		}
	}
	bb.used[si]++
	return saved
}

func (bb *branchAndBound) undo(saved []int, si int) {
	copy(bb.remaining, saved)
	bb.used[si]--
}

// run searches for the cheapest usage. It reports whether the search was
// exhaustive, which proves the incumbent optimal.
func (bb *branchAndBound) run() (map[int]int, bool) {
	bb.search(0)
	if !bb.found {
		return nil, !bb.aborted
	}
	usage := make(map[int]int)
	for _, idx := range bb.bestStack {
		usage[idx]++
	}
	return usage, !bb.aborted
}
