package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
)

// DXF layer names.
const (
	LayerStock  = "STOCK"
	LayerPieces = "PIECES"
	LayerKerf   = "KERF"
	LayerLabels = "LABELS"
)

const (
	dxfRowHeight  = 100.0 // bar height in drawing units (mm)
	dxfRowSpacing = 150.0
	dxfTextHeight = 25.0
)

// ExportDXF draws one row per used pattern: the stock outline, every piece as a
// rectangle and a label with the pattern id and usage count.
func ExportDXF(path string, reports []Report) error {
	d, err := buildDrawing(reports)
	if err != nil {
		return err
	}
	return d.SaveAs(path)
}

func buildDrawing(reports []Report) (*drawing.Drawing, error) {
	d := dxf.NewDrawing()
	layers := []struct {
		name string
		col  color.ColorNumber
	}{
		{LayerStock, color.White},
		{LayerPieces, color.Green},
		{LayerKerf, color.Red},
		{LayerLabels, color.Cyan},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.col, dxf.DefaultLineType, false); err != nil {
			return nil, fmt.Errorf("failed to add layer %s: %w", l.name, err)
		}
	}

	rows := 0
	y := 0.0
	for _, rep := range reports {
		kerf := rep.Request.Settings.SawKerf
		for _, id := range rep.Solution.UsedPatternIDs() {
			p := rep.Solution.Patterns[id]
			stockLength := rep.Request.Stock[p.StockID].Length
			if stockLength <= 0 {
				continue
			}

			if err := d.ChangeLayer(LayerStock); err != nil {
				return nil, err
			}
			if err := rect(d, 0, y, stockLength, dxfRowHeight); err != nil {
				return nil, err
			}

			x := 0.0
			for i, piece := range p.Layout {
				if err := d.ChangeLayer(LayerPieces); err != nil {
					return nil, err
				}
				if err := rect(d, x, y, piece.Length, dxfRowHeight); err != nil {
					return nil, err
				}
				if err := d.ChangeLayer(LayerLabels); err != nil {
					return nil, err
				}
				if _, err := d.Text(fmt.Sprintf("%g", piece.Length), x+5, y+dxfRowHeight/2, 0, dxfTextHeight); err != nil {
					return nil, err
				}
				x += piece.Length
				if i < len(p.Layout)-1 && kerf > 0 {
					if err := d.ChangeLayer(LayerKerf); err != nil {
						return nil, err
					}
					if _, err := d.Line(x+kerf/2, y, 0, x+kerf/2, y+dxfRowHeight, 0); err != nil {
						return nil, err
					}
					x += kerf
				}
			}

			if err := d.ChangeLayer(LayerLabels); err != nil {
				return nil, err
			}
			title := fmt.Sprintf("%s x%d (%s)", id, rep.Solution.PatternUsage[id], p.StockID)
			if _, err := d.Text(title, 0, y+dxfRowHeight+10, 0, dxfTextHeight); err != nil {
				return nil, err
			}

			y -= dxfRowHeight + dxfRowSpacing
			rows++
		}
	}
	if rows == 0 {
		return nil, fmt.Errorf("no patterns to draw")
	}
	return d, nil
}

func rect(d *drawing.Drawing, x, y, w, h float64) error {
	corners := [][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return err
		}
	}
	return nil
}
