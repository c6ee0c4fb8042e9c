package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/piwi3910/barcut/internal/model"
)

// trailingKerfThreshold is the remnant length above which the bar needs a
// final cut to free the last piece.
const trailingKerfThreshold = 0.01

// fitEpsilon absorbs floating point noise when checking whether a piece fits.
const fitEpsilon = 1e-9

// problem is the normalized form of a request that the algorithms work on.
// Parts are sorted longest first; part indices below refer to that order.
type problem struct {
	parts     []model.Part
	partIndex map[string]int
	stockIDs  []string // sorted
	stock     map[string]model.StockItem
	kerf      float64
	overprod  bool
	barCost   map[string]float64
	avgPerMM  float64
}

func newProblem(req model.Request) *problem {
	p := &problem{
		partIndex: make(map[string]int),
		stock:     make(map[string]model.StockItem, len(req.Stock)),
		kerf:      req.Settings.SawKerf,
		overprod:  req.Settings.AllowOverproduction,
		barCost:   make(map[string]float64, len(req.Stock)),
	}
	for _, part := range req.Parts {
		if part.Demand > 0 {
			p.parts = append(p.parts, part)
		}
	}
	sort.SliceStable(p.parts, func(i, j int) bool {
		if p.parts[i].Length != p.parts[j].Length {
			return p.parts[i].Length > p.parts[j].Length
		}
		return p.parts[i].Name < p.parts[j].Name
	})
	for i, part := range p.parts {
		p.partIndex[part.Name] = i
	}

	allFree := true
	for id, s := range req.Stock {
		s.ID = id
		p.stock[id] = s
		p.stockIDs = append(p.stockIDs, id)
		if s.Cost > 0 {
			allFree = false
		}
	}
	sort.Strings(p.stockIDs)

	// With no prices at all the cheapest plan is the one with the fewest bars.
	for _, id := range p.stockIDs {
		if allFree {
			p.barCost[id] = 1
		} else {
			p.barCost[id] = req.Stock[id].Cost
		}
	}

	if p.overprod && !allFree {
		var sum float64
		for _, id := range p.stockIDs {
			s := req.Stock[id]
			sum += s.Cost / s.Length
		}
		p.avgPerMM = sum / float64(len(p.stockIDs))
	}
	return p
}

// available returns how many bars of a stock item may be used in total.
func (p *problem) available(stockID string, totalDemand int) int {
	s := p.stock[stockID]
	if s.Available == nil || *s.Available > totalDemand {
		return totalDemand
	}
	return *s.Available
}

func (p *problem) demand() []int {
	d := make([]int, len(p.parts))
	for i, part := range p.parts {
		d[i] = part.Demand
	}
	return d
}

func (p *problem) totalDemand() int {
	total := 0
	for _, part := range p.parts {
		total += part.Demand
	}
	return total
}

// patternSet holds generated patterns with their per-part yields by index.
type patternSet struct {
	prob     *problem
	patterns []model.Pattern
	yields   [][]int // yields[pattern][part]
	byKey    map[string]int
	perStock map[string]int
}

func newPatternSet(prob *problem) *patternSet {
	return &patternSet{
		prob:     prob,
		byKey:    make(map[string]int),
		perStock: make(map[string]int),
	}
}

func yieldKey(stockID string, counts []int) string {
	var b strings.Builder
	b.WriteString(stockID)
	for i, c := range counts {
		if c == 0 {
			continue
		}
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(i))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(c))
	}
	return b.String()
}

// add records the layout as a pattern of stockID unless the same yield is
// already known. It returns the index of the pattern.
func (ps *patternSet) add(stockID string, layout []int) int {
	counts := make([]int, len(ps.prob.parts))
	for _, pi := range layout {
		counts[pi]++
	}
	key := yieldKey(stockID, counts)
	if idx, ok := ps.byKey[key]; ok {
		return idx
	}

	n := ps.perStock[stockID]
	ps.perStock[stockID] = n + 1
	pattern := buildPattern(model.PatternID(stockID, n), ps.prob.stock[stockID], layout, ps.prob.parts, ps.prob.kerf)

	idx := len(ps.patterns)
	ps.patterns = append(ps.patterns, pattern)
	ps.yields = append(ps.yields, counts)
	ps.byKey[key] = idx
	return idx
}

// buildPattern computes the length, kerf and waste figures of one cut bar.
// Every piece after the first needs a kerf, and one more kerf is taken when a
// remnant is left behind.
func buildPattern(id string, stock model.StockItem, layout []int, parts []model.Part, kerf float64) model.Pattern {
	p := model.Pattern{
		ID:      id,
		StockID: stock.ID,
		Yield:   make(map[string]int),
		Layout:  make([]model.LayoutPiece, 0, len(layout)),
	}
	for _, pi := range layout {
		part := parts[pi]
		p.Yield[part.Name]++
		p.Layout = append(p.Layout, model.LayoutPiece{PartID: part.Name, Length: part.Length})
		p.PartsLength += part.Length
	}

	kerfs := 0
	if len(layout) > 0 {
		kerfs = len(layout) - 1
	}
	remaining := stock.Length - (p.PartsLength + float64(kerfs)*kerf)
	if len(layout) > 0 && remaining > trailingKerfThreshold {
		kerfs++
	}
	p.NumCuts = kerfs
	p.KerfLength = float64(kerfs) * kerf
	p.UsedLength = p.PartsLength + p.KerfLength
	p.WasteLength = stock.Length - p.UsedLength
	return p
}

// generate enumerates every distinct yield that fits each stock item.
// Parts are tried longest first and may repeat. It reports whether the
// enumeration was cut short by maxPatterns.
func (ps *patternSet) generate(maxPatterns int) bool {
	if len(ps.prob.parts) == 0 || len(ps.prob.stockIDs) == 0 {
		return false
	}
	// Each stock item gets an equal share so later items are not starved.
	share := maxPatterns / len(ps.prob.stockIDs)
	if share < 1 {
		share = 1
	}

	truncated := false
	for _, id := range ps.prob.stockIDs {
		stock := ps.prob.stock[id]
		limit := len(ps.patterns) + share
		layout := make([]int, 0, 16)
		counts := make([]int, len(ps.prob.parts))
		if !ps.enumerate(id, stock.Length, 0, layout, counts, limit) {
			truncated = true
		}
	}
	return truncated
}

// enumerate walks the pattern tree depth first. Without overproduction a
// part is never repeated beyond its demand. It returns false once the pattern
// limit is reached.
func (ps *patternSet) enumerate(stockID string, remaining float64, from int, layout, counts []int, limit int) bool {
	if len(layout) > 0 {
		if len(ps.patterns) >= limit {
			return false
		}
		ps.add(stockID, layout)
	}
	for i := from; i < len(ps.prob.parts); i++ {
		needed := ps.prob.parts[i].Length
		if len(layout) > 0 {
			needed += ps.prob.kerf
		}
		if needed > remaining+fitEpsilon {
			continue
		}
		if !ps.prob.overprod && counts[i] >= ps.prob.parts[i].Demand {
			continue
		}
		counts[i]++
		ok := ps.enumerate(stockID, remaining-needed, i, append(layout, i), counts, limit)
		counts[i]--
		if !ok {
			return false
		}
	}
	return true
}

// GeneratePatterns lists the cutting patterns of a request in generation order.
// The boolean reports whether maxPatterns cut the enumeration short.
func GeneratePatterns(req model.Request, maxPatterns int) ([]model.Pattern, bool) {
	ps := newPatternSet(newProblem(req))
	truncated := ps.generate(maxPatterns)
	return ps.patterns, truncated
}
