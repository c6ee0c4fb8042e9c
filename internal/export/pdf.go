// Package export renders cutting plans to PDF reports, cut list workbooks,
// DXF drawings and QR-coded piece labels.
package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/barcut/internal/model"
)

// Report is one solved request shown in a report. Profile is empty for a
// single-request report and holds the item code in a multi-profile report.
type Report struct {
	Profile  string
	Request  model.Request
	Solution model.Solution
}

// ProfileReports builds one report per solved profile of an optimizer config,
// ordered by item code.
func ProfileReports(cfg model.OptimizerConfig) []Report {
	var reports []Report
	for _, code := range cfg.ItemCodes() {
		sol, ok := cfg.Results[code]
		if !ok || sol == nil {
			continue
		}
		reports = append(reports, Report{
			Profile:  code,
			Request:  cfg.Profiles[code].ToRequest(cfg.Settings),
			Solution: *sol,
		})
	}
	return reports
}

// partColor represents an RGB color for a part in the bar diagrams.
type partColor struct {
	R, G, B int
}

var partColors = []partColor{
	{R: 173, G: 216, B: 230}, // light blue
	{R: 144, G: 238, B: 144}, // light green
	{R: 255, G: 182, B: 193}, // light pink
	{R: 230, G: 230, B: 250}, // lavender
	{R: 255, G: 222, B: 173}, // navajo white
	{R: 175, G: 238, B: 238}, // pale turquoise
	{R: 240, G: 230, B: 140}, // khaki
	{R: 221, G: 160, B: 221}, // plum
	{R: 255, G: 153, B: 153},
	{R: 102, G: 179, B: 255},
	{R: 153, G: 255, B: 153},
	{R: 255, G: 204, B: 153},
	{R: 194, G: 194, B: 240},
	{R: 255, G: 179, B: 230},
}

// Page layout constants in mm.
const (
	portraitWidth    = 210.0
	portraitHeight   = 297.0
	landscapeWidth   = 297.0
	landscapeHeight  = 210.0
	marginLeft       = 20.0
	marginTop        = 25.0
	marginBottom     = 20.0
	lineHeight       = 5.5
	valueRightX      = portraitWidth - 25.0
	legendRows       = 16
	patternsPerPage  = 4
	patternTopOffset = 30.0
	barHeight        = 15.0
	wasteLabelMin    = 0.1
)

var unsafeFileChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// ReportFileName returns the attachment name for a report generated at now.
func ReportFileName(project string, now time.Time) string {
	name := unsafeFileChars.ReplaceAllString(project, "")
	if r := []rune(name); len(r) > 50 {
		name = string(r[:50])
	}
	return fmt.Sprintf("1D-Cut-Plan_%s_%s.pdf", name, now.Format("2006-01-02_15-04-05"))
}

// ExportPDF writes the report for the given solutions to path.
func ExportPDF(path, project string, reports []Report) error {
	pdf, err := buildPDF(project, reports, time.Now())
	if err != nil {
		return err
	}
	return pdf.OutputFileAndClose(path)
}

// WritePDF writes the report for the given solutions to w.
func WritePDF(w io.Writer, project string, reports []Report) error {
	pdf, err := buildPDF(project, reports, time.Now())
	if err != nil {
		return err
	}
	return pdf.Output(w)
}

// RenderPDF returns the report as bytes.
func RenderPDF(project string, reports []Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, project, reports); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type legendEntry struct {
	shortID string
	length  float64
	color   partColor
}

// pdfReport tracks the write position while the portrait pages are laid out.
type pdfReport struct {
	pdf     *fpdf.Fpdf
	y       float64
	legend  map[string]legendEntry
	ordered []string
}

func buildPDF(project string, reports []Report, now time.Time) (*fpdf.Fpdf, error) {
	if len(reports) == 0 {
		return nil, fmt.Errorf("no solutions to export")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle("1D Cutting Optimizer Report", false)
	pdf.AddPage()

	r := &pdfReport{pdf: pdf, legend: make(map[string]legendEntry)}
	r.header(now)
	r.y = marginTop + 10

	for _, rep := range reports {
		r.summary(project, rep)
		r.stockTable(rep)
		r.partsTable(rep)
		r.y += lineHeight
		for _, p := range rep.Request.Parts {
			r.addLegend(p)
		}
	}
	r.partLegend()

	for _, rep := range reports {
		drawPatternPages(pdf, rep, r.legend)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return pdf, nil
}

func (r *pdfReport) header(now time.Time) {
	r.pdf.SetFont("Helvetica", "B", 14)
	r.pdf.SetXY(0, marginTop-12)
	r.pdf.CellFormat(portraitWidth, 7, "1D Cutting Optimizer Report", "", 0, "C", false, 0, "")
	r.pdf.SetFont("Helvetica", "", 8)
	r.pdf.SetXY(portraitWidth-60, 10)
	r.pdf.CellFormat(50, 4, "Generated "+now.Format("2006-01-02 15:04"), "", 0, "R", false, 0, "")
}

// ensure starts a new portrait page when less than need mm remain.
func (r *pdfReport) ensure(need float64) {
	if r.y+need > portraitHeight-marginBottom {
		r.pdf.AddPage()
		r.y = marginTop
	}
}

func (r *pdfReport) text(x float64, s string) {
	r.pdf.SetXY(x, r.y)
	r.pdf.CellFormat(0, 4, s, "", 0, "L", false, 0, "")
}

func (r *pdfReport) textRight(right float64, s string) {
	w := r.pdf.GetStringWidth(s) + 1
	r.pdf.SetXY(right-w, r.y)
	r.pdf.CellFormat(w, 4, s, "", 0, "R", false, 0, "")
}

func (r *pdfReport) heading(s string) {
	r.ensure(lineHeight * 3)
	r.pdf.SetFont("Helvetica", "B", 11)
	r.text(marginLeft, s)
	r.y += lineHeight * 1.5
}

func (r *pdfReport) summary(project string, rep Report) {
	if rep.Profile != "" {
		r.heading("Summary for Profile: " + rep.Profile)
	} else {
		r.heading("Summary of Optimization (1D)")
	}
	sol := rep.Solution
	items := []struct {
		label string
		value string
	}{
		{"Project Description:", project},
		{"Total Stock Cost:", fmt.Sprintf("%.2f", sol.TotalStockCost)},
		{"Unique Patterns Used:", fmt.Sprintf("%d", len(sol.UsedPatternIDs()))},
		{"Total Parts Length:", fmt.Sprintf("%.0f mm", sol.TotalPartsLength)},
		{"Total Stock Used Length:", fmt.Sprintf("%.0f mm", sol.TotalStockLength)},
		{"Total Parts Weight:", fmt.Sprintf("%.2f kg", sol.TotalPartsWeight)},
		{"Total Stock Used Weight:", fmt.Sprintf("%.2f kg", sol.TotalStockWeight)},
		{"Total Waste Length:", fmt.Sprintf("%.0f mm", sol.TotalWasteLength)},
		{"Total Kerf Length:", fmt.Sprintf("%.0f mm", sol.TotalKerfLength)},
		{"Total Kerf Weight:", fmt.Sprintf("%.2f kg", sol.TotalKerfWeight)},
		{"Total Number of Cuts:", fmt.Sprintf("%d", sol.TotalCuts)},
	}

	r.pdf.SetFont("Helvetica", "", 9)
	for _, item := range items {
		r.ensure(lineHeight)
		r.text(marginLeft+5, item.label)
		r.textRight(valueRightX, item.value)
		r.y += lineHeight
	}
	r.y += lineHeight
}

var stockColumns = []float64{5, 50, 85, 115, 140, 165}

func (r *pdfReport) stockTable(rep Report) {
	r.heading("Stock Items Consumption")
	r.pdf.SetFont("Helvetica", "B", 9)
	for i, h := range []string{"Stock ID", "Length (mm)", "Cost/Item", "Used Qty", "Total Cost", "Total Wt (kg)"} {
		r.text(marginLeft+stockColumns[i], h)
	}
	r.y += lineHeight

	ids := make([]string, 0, len(rep.Solution.StockUsed))
	for id, n := range rep.Solution.StockUsed {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	r.pdf.SetFont("Helvetica", "", 8)
	if len(ids) == 0 {
		r.text(marginLeft+5, "No stock items were consumed in this solution.")
		r.y += lineHeight
		return
	}

	var totalCost, totalWeight float64
	for _, id := range ids {
		r.ensure(lineHeight)
		n := rep.Solution.StockUsed[id]
		stock, ok := rep.Request.Stock[id]
		if !ok {
			r.text(marginLeft+5, id+" (Info N/A)")
			r.y += lineHeight
			continue
		}
		cost := float64(n) * stock.Cost
		weight := float64(n) * stock.Weight
		totalCost += cost
		totalWeight += weight
		row := []string{
			fitText(r.pdf, id, stockColumns[1]-stockColumns[0]-2),
			fmt.Sprintf("%g", stock.Length),
			fmt.Sprintf("%.2f", stock.Cost),
			fmt.Sprintf("%d", n),
			fmt.Sprintf("%.2f", cost),
			fmt.Sprintf("%.2f", weight),
		}
		for i, cell := range row {
			r.text(marginLeft+stockColumns[i], cell)
		}
		r.y += lineHeight
	}

	r.ensure(lineHeight)
	r.pdf.SetFont("Helvetica", "B", 8)
	r.text(marginLeft+stockColumns[3], "Total:")
	r.text(marginLeft+stockColumns[4], fmt.Sprintf("%.2f", totalCost))
	r.text(marginLeft+stockColumns[5], fmt.Sprintf("%.2f", totalWeight))
	r.y += lineHeight * 1.5
}

var partColumns = []float64{5, 40, 70, 100, 130, 160}

func (r *pdfReport) partsTable(rep Report) {
	r.heading("Parts Production Summary")
	r.pdf.SetFont("Helvetica", "B", 9)
	for i, h := range []string{"Part ID", "Length (mm)", "Demand", "Produced", "Delta (+/-)", "Total Wt (kg)"} {
		r.text(marginLeft+partColumns[i], h)
	}
	r.y += lineHeight

	r.pdf.SetFont("Helvetica", "", 8)
	for _, p := range rep.Request.Parts {
		r.ensure(lineHeight)
		produced := rep.Solution.PartsProduced[p.Name]
		row := []string{
			fitText(r.pdf, p.Name, partColumns[1]-partColumns[0]-2),
			fmt.Sprintf("%g", p.Length),
			fmt.Sprintf("%d", p.Demand),
			fmt.Sprintf("%d", produced),
			fmt.Sprintf("%+.0f", float64(produced-p.Demand)),
			fmt.Sprintf("%.2f", rep.Solution.WeightPerPart[p.Name]),
		}
		for i, cell := range row {
			r.text(marginLeft+partColumns[i], cell)
		}
		r.y += lineHeight
	}
}

func (r *pdfReport) addLegend(p model.Part) {
	if _, ok := r.legend[p.Name]; ok {
		return
	}
	i := len(r.ordered)
	r.legend[p.Name] = legendEntry{
		shortID: fmt.Sprintf("P%d", i+1),
		length:  p.Length,
		color:   partColors[i%len(partColors)],
	}
	r.ordered = append(r.ordered, p.Name)
}

// partLegend lists the parts in two columns of up to 16 entries per block.
func (r *pdfReport) partLegend() {
	if len(r.ordered) == 0 {
		return
	}
	r.heading("Part Legend")
	r.pdf.SetFont("Helvetica", "", 8)

	colWidth := (portraitWidth - 2*marginLeft) / 2
	rowHeight := lineHeight * 0.8
	for start := 0; start < len(r.ordered); start += 2 * legendRows {
		r.ensure(rowHeight * legendRows)
		top := r.y
		rows := 0
		for i := start; i < len(r.ordered) && i < start+2*legendRows; i++ {
			k := i - start
			col, row := k/legendRows, k%legendRows
			if row+1 > rows {
				rows = row + 1
			}
			name := r.ordered[i]
			e := r.legend[name]
			x := marginLeft + float64(col)*colWidth
			y := top + float64(row)*rowHeight

			r.pdf.SetFillColor(e.color.R, e.color.G, e.color.B)
			r.pdf.SetDrawColor(0, 0, 0)
			r.pdf.SetLineWidth(0.2)
			r.pdf.Rect(x+2, y, 4, 3.5, "FD")
			r.pdf.SetXY(x+8, y)
			label := fmt.Sprintf("%s: %s (%.1fmm)", e.shortID, name, e.length)
			r.pdf.CellFormat(colWidth-10, 3.5, fitText(r.pdf, label, colWidth-10), "", 0, "L", false, 0, "")
		}
		r.y = top + float64(rows)*rowHeight + lineHeight
	}
}

// drawPatternPages draws the used patterns of one report, four per landscape page.
func drawPatternPages(pdf *fpdf.Fpdf, rep Report, legend map[string]legendEntry) {
	ids := rep.Solution.UsedPatternIDs()
	layoutHeight := (landscapeHeight - 40) / patternsPerPage
	kerf := rep.Request.Settings.SawKerf

	for i, id := range ids {
		if i%patternsPerPage == 0 {
			pdf.AddPageFormat("L", fpdf.SizeType{Wd: portraitWidth, Ht: portraitHeight})
		}
		pattern, ok := rep.Solution.Patterns[id]
		if !ok {
			continue
		}
		y := patternTopOffset + float64(i%patternsPerPage)*layoutHeight
		drawPattern(pdf, y, pattern, rep, legend, kerf)
	}
}

func drawPattern(pdf *fpdf.Fpdf, y float64, pattern model.Pattern, rep Report, legend map[string]legendEntry, kerf float64) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	title := fmt.Sprintf("Pattern: %s (used %d times on stock '%s')",
		pattern.ID, rep.Solution.PatternUsage[pattern.ID], pattern.StockID)
	pdf.CellFormat(0, 5, title, "", 0, "L", false, 0, "")

	stockLength := rep.Request.Stock[pattern.StockID].Length
	if stockLength <= 0 {
		return
	}
	scale := (landscapeWidth - 2*marginLeft) / stockLength
	barY := y + 8

	pdf.SetFillColor(211, 211, 211)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.3)
	pdf.Rect(marginLeft, barY, stockLength*scale, barHeight, "FD")

	kerfs := 0
	if kerf > 0 {
		kerfs = int(math.Round(pattern.KerfLength / kerf))
	}
	x := marginLeft
	for i, piece := range pattern.Layout {
		e, ok := legend[piece.PartID]
		if !ok {
			e = legendEntry{shortID: "?", color: partColor{R: 245, G: 245, B: 245}}
		}
		w := piece.Length * scale
		pdf.SetFillColor(e.color.R, e.color.G, e.color.B)
		pdf.SetDrawColor(0, 0, 0)
		pdf.Rect(x, barY, w, barHeight, "FD")

		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(0, 0, 0)
		label := fmt.Sprintf("%s (%.0fmm)", e.shortID, piece.Length)
		if pdf.GetStringWidth(label) > w {
			label = e.shortID
		}
		pdf.SetXY(x, barY+barHeight+1)
		pdf.CellFormat(w, 4, label, "", 0, "C", false, 0, "")
		x += w

		if i < kerfs {
			kw := kerf * scale
			kh := barHeight * 1.2
			pdf.SetAlpha(0.5, "Normal")
			pdf.SetFillColor(255, 0, 0)
			pdf.Rect(x, barY-(kh-barHeight)/2, kw, kh, "F")
			pdf.SetAlpha(1, "Normal")
			x += kw
		}
	}

	if pattern.WasteLength > wasteLabelMin {
		w := pattern.WasteLength * scale
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(139, 0, 0)
		pdf.SetXY(x, barY+barHeight+1)
		pdf.CellFormat(w, 4, fmt.Sprintf("Waste: %.1fmm", pattern.WasteLength), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
}

// fitText truncates s with an ellipsis so it fits width w in the current font.
func fitText(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}
