package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/samber/lo"

	"github.com/piwi3910/barcut/internal/engine"
	"github.com/piwi3910/barcut/internal/importer"
	"github.com/piwi3910/barcut/internal/model"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	bad     = color.New(color.FgRed)
	dim     = color.New(color.Faint)
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printSolution(w io.Writer, title string, req model.Request, sol model.Solution) {
	heading.Fprintf(w, "%s\n", title)
	fmt.Fprintf(w, "  status:     %s (%s)\n", sol.Status, sol.Algorithm)
	if sol.Truncated {
		warn.Fprintf(w, "  pattern enumeration was truncated, the plan may not be optimal\n")
	}
	fmt.Fprintf(w, "  bars used:  %d\n", sol.BarsUsed())
	fmt.Fprintf(w, "  cost:       %.2f\n", sol.TotalStockCost)
	fmt.Fprintf(w, "  efficiency: %.1f%%\n", sol.Efficiency())
	fmt.Fprintf(w, "  waste:      %.0f mm, kerf %.0f mm, %d cuts\n", sol.TotalWasteLength, sol.TotalKerfLength, sol.TotalCuts)

	tw := newTable(w)
	fmt.Fprintln(tw, "  PATTERN\tSTOCK\tCOUNT\tLAYOUT\tWASTE")
	for _, id := range sol.UsedPatternIDs() {
		p := sol.Patterns[id]
		layout := lo.Map(p.Layout, func(piece model.LayoutPiece, _ int) string {
			return fmt.Sprintf("%s %.0f", piece.PartID, piece.Length)
		})
		fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\t%.0f\n", id, p.StockID, sol.PatternUsage[id], strings.Join(layout, " | "), p.WasteLength)
	}
	_ = tw.Flush()

	short := lo.Filter(req.Parts, func(p model.Part, _ int) bool {
		return sol.PartsProduced[p.Name] < p.Demand
	})
	for _, p := range short {
		bad.Fprintf(w, "  part %s: produced %d of %d\n", p.Name, sol.PartsProduced[p.Name], p.Demand)
	}
	if len(sol.Offcuts) > 0 {
		dim.Fprintf(w, "  %d reusable offcuts, %.0f mm in total\n", len(sol.Offcuts), model.TotalOffcutLength(sol.Offcuts))
	}
}

func printComparison(w io.Writer, results []engine.ComparisonResult) {
	tw := newTable(w)
	fmt.Fprintln(tw, "SCENARIO\tBARS\tCOST\tCUTS\tWASTE %")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%s\n", r.Scenario.Name, r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%d\t%.1f\n", r.Scenario.Name, r.BarsUsed, r.TotalCost, r.TotalCuts, r.WastePercent)
	}
	_ = tw.Flush()

	ok := lo.Filter(results, func(r engine.ComparisonResult, _ int) bool { return r.Err == nil })
	if len(ok) == 0 {
		bad.Fprintln(w, "no scenario produced a plan")
		return
	}
	best := lo.MinBy(ok, func(a, b engine.ComparisonResult) bool { return a.TotalCost < b.TotalCost })
	good.Fprintf(w, "cheapest: %s (%.2f)\n", best.Scenario.Name, best.TotalCost)
}

func printEstimate(w io.Writer, stockID string, est model.PurchaseEstimate) {
	heading.Fprintf(w, "%s (%.0f mm)\n", stockID, est.BarLength)
	fmt.Fprintf(w, "  pieces:        %d, %.0f mm incl. kerf\n", est.TotalPieces, est.TotalPartLength)
	fmt.Fprintf(w, "  bars (exact):  %.2f\n", est.BarsNeededExact)
	fmt.Fprintf(w, "  bars (min):    %d\n", est.BarsNeededMin)
	fmt.Fprintf(w, "  bars to buy:   %d (+%.0f%% waste)\n", est.BarsWithWaste, est.WastePercent)
	if est.EstimatedCost > 0 {
		fmt.Fprintf(w, "  cost:          %.2f\n", est.EstimatedCost)
	}
	if est.EstimatedWeight > 0 {
		fmt.Fprintf(w, "  weight:        %.1f kg\n", est.EstimatedWeight)
	}
}

func printImport(w io.Writer, res importer.ImportResult) {
	for _, msg := range res.Warnings {
		warn.Fprintf(w, "warning: %s\n", msg)
	}
	for _, msg := range res.Errors {
		bad.Fprintf(w, "error: %s\n", msg)
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "PART\tLENGTH\tDEMAND")
	for _, p := range res.Parts {
		fmt.Fprintf(tw, "%s\t%.1f\t%d\n", p.Name, p.Length, p.Demand)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d parts, %d pieces\n", len(res.Parts), lo.SumBy(res.Parts, func(p model.Part) int { return p.Demand }))
}

func printStockUsed(w io.Writer, used map[string]int) {
	codes := lo.Keys(used)
	sort.Strings(codes)
	tw := newTable(w)
	fmt.Fprintln(tw, "STOCK\tBARS")
	for _, code := range codes {
		if used[code] > 0 {
			fmt.Fprintf(tw, "%s\t%d\n", code, used[code])
		}
	}
	_ = tw.Flush()
}

func printInventory(w io.Writer, inv model.Inventory) {
	heading.Fprintln(w, "Stock presets")
	tw := newTable(w)
	fmt.Fprintln(tw, "  NAME\tLENGTH\tCOST\tWEIGHT\tMATERIAL")
	for _, s := range inv.Stocks {
		fmt.Fprintf(tw, "  %s\t%.0f\t%.2f\t%.2f\t%s\n", s.Name, s.Length, s.Cost, s.Weight, s.Material)
	}
	_ = tw.Flush()

	heading.Fprintln(w, "Catalog items")
	if len(inv.Items) == 0 {
		dim.Fprintln(w, "  none")
		return
	}
	tw = newTable(w)
	fmt.Fprintln(tw, "  ITEM\tBAR LENGTH\tRATE/M\tKG/M")
	for _, it := range inv.Items {
		length := "-"
		if m := it.PieceLengthMeters(); m > 0 {
			length = fmt.Sprintf("%.0f mm", m*1000)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%.2f\t%.2f\n", it.ItemCode, length, it.ValuationRate, it.WeightPerUnit)
	}
	_ = tw.Flush()
}
