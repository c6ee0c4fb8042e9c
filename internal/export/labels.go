package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// LabelInfo holds the data encoded into each piece label's QR code.
type LabelInfo struct {
	Profile   string  `json:"profile,omitempty"`
	PartID    string  `json:"part"`
	Length    float64 `json:"length_mm"`
	StockID   string  `json:"stock"`
	PatternID string  `json:"pattern"`
	Bar       int     `json:"bar"`
	Position  int     `json:"position"`
	Offset    float64 `json:"offset_mm"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7  // mm
	labelMarginLeft = 4.8   // mm
	labelWidth      = 66.7  // mm per label
	labelHeight     = 25.4  // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// CollectLabelInfos lists one label per cut piece. Bars are numbered from 1
// across each report in pattern order; offsets are measured from the bar start.
func CollectLabelInfos(reports []Report) []LabelInfo {
	var labels []LabelInfo
	for _, rep := range reports {
		kerf := rep.Request.Settings.SawKerf
		bar := 0
		for _, id := range rep.Solution.UsedPatternIDs() {
			p := rep.Solution.Patterns[id]
			for n := 0; n < rep.Solution.PatternUsage[id]; n++ {
				bar++
				offset := 0.0
				for pos, piece := range p.Layout {
					labels = append(labels, LabelInfo{
						Profile:   rep.Profile,
						PartID:    piece.PartID,
						Length:    piece.Length,
						StockID:   p.StockID,
						PatternID: id,
						Bar:       bar,
						Position:  pos + 1,
						Offset:    offset,
					})
					offset += piece.Length + kerf
				}
			}
		}
	}
	return labels
}

// ExportLabels generates a PDF of QR-coded labels, one per cut piece, laid out
// on a standard label sheet (Avery 5160, 3 columns x 10 rows on US Letter).
func ExportLabels(path string, reports []Report) error {
	labels := CollectLabelInfos(reports)
	if len(labels) == 0 {
		return fmt.Errorf("no pieces to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, i, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.PartID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, index int, info LabelInfo) error {
	// Light border as a cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", index)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, fitText(pdf, info.PartID, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%g mm", info.Length), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, fitText(pdf, fmt.Sprintf("Bar %d #%d @ %.0f mm", info.Bar, info.Position, info.Offset), textW), "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+labelPadding+12.5)
	pdf.CellFormat(textW, 3, fitText(pdf, info.PatternID, textW), "", 1, "L", false, 0, "")

	if info.Profile != "" {
		pdf.SetXY(textX, y+labelPadding+16)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.CellFormat(textW, 3, fitText(pdf, info.Profile, textW), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return pdf.Error()
}
