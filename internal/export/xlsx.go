package export

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary  = "Summary"
	sheetPatterns = "Patterns"
	sheetParts    = "Parts"
)

// ExportXLSX writes a cut list workbook with Summary, Patterns and Parts sheets.
func ExportXLSX(path, project string, reports []Report) error {
	f, err := buildWorkbook(project, reports)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// RenderXLSX returns the cut list workbook as bytes.
func RenderXLSX(project string, reports []Report) ([]byte, error) {
	f, err := buildWorkbook(project, reports)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func buildWorkbook(project string, reports []Report) (*excelize.File, error) {
	if len(reports) == 0 {
		return nil, fmt.Errorf("no solutions to export")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetPatterns, sheetParts} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, bold: bold}
	w.summary(project, reports)
	w.patterns(reports)
	w.parts(reports)
	if w.err != nil {
		return nil, fmt.Errorf("failed to build workbook: %w", w.err)
	}
	return f, nil
}

// sheetWriter appends rows to workbook sheets and keeps the first error.
type sheetWriter struct {
	f    *excelize.File
	bold int
	rows map[string]int
	err  error
}

func (w *sheetWriter) row(sheet string, header bool, values ...any) {
	if w.err != nil {
		return
	}
	if w.rows == nil {
		w.rows = make(map[string]int)
	}
	w.rows[sheet]++
	cell, err := excelize.CoordinatesToCellName(1, w.rows[sheet])
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = err
		return
	}
	if header {
		last, _ := excelize.CoordinatesToCellName(len(values), w.rows[sheet])
		w.err = w.f.SetCellStyle(sheet, cell, last, w.bold)
	}
}

func (w *sheetWriter) summary(project string, reports []Report) {
	w.row(sheetSummary, true, "Project", project)
	w.row(sheetSummary, true, "Profile", "Status", "Algorithm", "Bars", "Stock Cost",
		"Stock Length (mm)", "Parts Length (mm)", "Waste (mm)", "Kerf (mm)", "Cuts", "Efficiency (%)")
	for _, rep := range reports {
		sol := rep.Solution
		w.row(sheetSummary, false, rep.Profile, string(sol.Status), string(sol.Algorithm), sol.BarsUsed(),
			sol.TotalStockCost, sol.TotalStockLength, sol.TotalPartsLength, sol.TotalWasteLength,
			sol.TotalKerfLength, sol.TotalCuts, sol.Efficiency())
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(sheetSummary, "A", "K", 16)
	}
}

func (w *sheetWriter) patterns(reports []Report) {
	w.row(sheetPatterns, true, "Profile", "Pattern", "Stock", "Used", "Pieces", "Layout (mm)", "Waste (mm)", "Cuts")
	for _, rep := range reports {
		for _, id := range rep.Solution.UsedPatternIDs() {
			p := rep.Solution.Patterns[id]
			layout := ""
			for i, piece := range p.Layout {
				if i > 0 {
					layout += " | "
				}
				layout += fmt.Sprintf("%g", piece.Length)
			}
			w.row(sheetPatterns, false, rep.Profile, id, p.StockID, rep.Solution.PatternUsage[id],
				p.PieceCount(), layout, p.WasteLength, p.NumCuts)
		}
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(sheetPatterns, "F", "F", 40)
	}
}

func (w *sheetWriter) parts(reports []Report) {
	w.row(sheetParts, true, "Profile", "Part", "Length (mm)", "Demand", "Produced", "Delta", "Weight (kg)")
	for _, rep := range reports {
		parts := partRows(rep)
		sort.SliceStable(parts, func(i, j int) bool { return parts[i].length > parts[j].length })
		for _, p := range parts {
			w.row(sheetParts, false, rep.Profile, p.name, p.length, p.demand, p.produced, p.produced-p.demand, p.weight)
		}
	}
}

type partRow struct {
	name     string
	length   float64
	demand   int
	produced int
	weight   float64
}

func partRows(rep Report) []partRow {
	rows := make([]partRow, 0, len(rep.Request.Parts))
	for _, p := range rep.Request.Parts {
		rows = append(rows, partRow{
			name:     p.Name,
			length:   p.Length,
			demand:   p.Demand,
			produced: rep.Solution.PartsProduced[p.Name],
			weight:   rep.Solution.WeightPerPart[p.Name],
		})
	}
	return rows
}
