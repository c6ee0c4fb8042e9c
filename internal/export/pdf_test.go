package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/piwi3910/barcut/internal/model"
)

func TestExportPDF_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.pdf")

	if err := ExportPDF(path, "Hall frame", []Report{buildTestReport()}); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output does not look like a PDF")
	}
}

func TestRenderPDF_NoReports(t *testing.T) {
	if _, err := RenderPDF("x", nil); err == nil {
		t.Error("expected error for empty report list")
	}
}

func TestRenderPDF_NothingConsumed(t *testing.T) {
	rep := buildTestReport()
	rep.Solution = model.Solution{StockUsed: map[string]int{"S6000": 0}}

	data, err := RenderPDF("Empty", []Report{rep})
	if err != nil {
		t.Fatalf("RenderPDF returned error: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty PDF")
	}
}

func TestRenderPDF_ManyPatternsAndParts(t *testing.T) {
	rep := buildTestReport()
	// Forty parts push the legend past one block and nine patterns need three
	// landscape pages.
	for i := 0; i < 40; i++ {
		rep.Request.Parts = append(rep.Request.Parts, model.NewPart("", float64(100+i), 1))
	}
	base := rep.Solution.Patterns["S6000_p1d0"]
	for i := 2; i < 9; i++ {
		p := base
		p.ID = model.PatternID("S6000", i)
		rep.Solution.Patterns[p.ID] = p
		rep.Solution.PatternUsage[p.ID] = 1
	}

	if _, err := RenderPDF("Large", []Report{rep, rep}); err != nil {
		t.Fatalf("RenderPDF returned error: %v", err)
	}
}

func TestReportFileName(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	got := ReportFileName(`Order: "A/B" <x>|y?*`, now)
	want := "1D-Cut-Plan_Order AB xy_2024-03-09_14-05-07.pdf"
	if got != want {
		t.Errorf("ReportFileName = %q, want %q", got, want)
	}

	long := ReportFileName(strings.Repeat("x", 80), now)
	if !strings.HasPrefix(long, "1D-Cut-Plan_"+strings.Repeat("x", 50)+"_2024") {
		t.Errorf("project name not truncated to 50 characters: %q", long)
	}
}

func TestProfileReports(t *testing.T) {
	rep := buildTestReport()
	cfg := model.NewOptimizerConfig()
	cfg.Profiles["B-PIPE"] = model.Profile{ItemCode: "B-PIPE", StockLengthMM: 6000, Parts: []model.ProfilePart{{Length: 1000, Demand: 2}}}
	cfg.Profiles["A-TUBE"] = model.Profile{ItemCode: "A-TUBE", StockLengthMM: 6000, Parts: []model.ProfilePart{{Length: 2000, Demand: 1}}}
	cfg.Profiles["C-FLAT"] = model.Profile{ItemCode: "C-FLAT", StockLengthMM: 6000}
	cfg.Results["B-PIPE"] = &rep.Solution
	cfg.Results["A-TUBE"] = &rep.Solution

	reports := ProfileReports(cfg)
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].Profile != "A-TUBE" || reports[1].Profile != "B-PIPE" {
		t.Errorf("unexpected report order: %s, %s", reports[0].Profile, reports[1].Profile)
	}
	if _, ok := reports[0].Request.Stock["A-TUBE"]; !ok {
		t.Error("expected stock keyed by item code")
	}
}
