package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/piwi3910/barcut/internal/engine"
	"github.com/piwi3910/barcut/internal/export"
	"github.com/piwi3910/barcut/internal/model"
	"github.com/piwi3910/barcut/internal/project"
)

var reportFormats = []string{"pdf", "xlsx", "dxf", "labels"}

type solveFlags struct {
	algorithm string
	timeLimit time.Duration
	outDir    string
	formats   []string
}

func (f *solveFlags) register(cmd *cobra.Command, withReports bool) {
	cmd.Flags().StringVar(&f.algorithm, "algorithm", "", "exact, greedy or genetic (default from app config)")
	cmd.Flags().DurationVar(&f.timeLimit, "time-limit", 0, "solver time limit (default from app config)")
	if withReports {
		cmd.Flags().StringVarP(&f.outDir, "out", "o", ".", "directory for the report files")
		cmd.Flags().StringSliceVar(&f.formats, "formats", nil, "report formats: pdf, xlsx, dxf, labels (default from app config)")
	}
}

// apply overrides the tuning settings of s with the flags that were given.
func (f *solveFlags) apply(s *model.Settings) {
	if f.algorithm != "" {
		s.Algorithm = model.Algorithm(f.algorithm)
	}
	if f.timeLimit > 0 {
		s.TimeLimit = f.timeLimit
	}
}

func (f *solveFlags) reportFormats(appCfg model.AppConfig) ([]string, error) {
	formats := f.formats
	if len(formats) == 0 {
		formats = appCfg.ExportFormats
	}
	formats = lo.Uniq(lo.Map(formats, func(s string, _ int) string {
		return strings.ToLower(strings.TrimSpace(s))
	}))
	if unknown := lo.Without(formats, reportFormats...); len(unknown) > 0 {
		return nil, fmt.Errorf("unknown report format %q", unknown[0])
	}
	return formats, nil
}

// writeReports renders each format next to the others under one base name.
func writeReports(dir, projectName string, reports []export.Report, formats []string, now time.Time) ([]string, error) {
	base := filepath.Join(dir, strings.TrimSuffix(export.ReportFileName(projectName, now), ".pdf"))
	var written []string
	for _, format := range formats {
		var path string
		var err error
		switch format {
		case "pdf":
			path = base + ".pdf"
			err = export.ExportPDF(path, projectName, reports)
		case "xlsx":
			path = base + ".xlsx"
			err = export.ExportXLSX(path, projectName, reports)
		case "dxf":
			path = base + ".dxf"
			err = export.ExportDXF(path, reports)
		case "labels":
			path = base + "_labels.pdf"
			err = export.ExportLabels(path, reports)
		default:
			err = fmt.Errorf("unknown report format %q", format)
		}
		if err != nil {
			return written, fmt.Errorf("failed to write %s report: %w", format, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func (c *cli) loadRequest(path string, flags *solveFlags) (model.Request, model.AppConfig, error) {
	appCfg, err := c.appConfig()
	if err != nil {
		return model.Request{}, model.AppConfig{}, err
	}
	req, err := project.LoadRequest(path)
	if err != nil {
		return model.Request{}, model.AppConfig{}, err
	}
	flags.apply(&req.Settings)
	appCfg.ApplyToSettings(&req.Settings)
	return req, appCfg, nil
}

func (c *cli) optimizeCmd() *cobra.Command {
	flags := &solveFlags{}
	cmd := &cobra.Command{
		Use:   "optimize <request.json|request.yaml>",
		Short: "Optimize a single request and write its reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, appCfg, err := c.loadRequest(args[0], flags)
			if err != nil {
				return err
			}
			formats, err := flags.reportFormats(appCfg)
			if err != nil {
				return err
			}

			sol, err := engine.New(req.Settings).WithLogger(c.log).Optimize(cmd.Context(), req)
			if err != nil {
				return err
			}
			printSolution(c.out, req.ProjectDescription, req, sol)

			projectName := req.ProjectDescription
			if projectName == "" {
				projectName = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			written, err := writeReports(flags.outDir, projectName, []export.Report{{Request: req, Solution: sol}}, formats, time.Now())
			for _, path := range written {
				good.Fprintf(c.out, "wrote %s\n", path)
			}
			return err
		},
	}
	flags.register(cmd, true)
	return cmd
}

func (c *cli) planCmd() *cobra.Command {
	flags := &solveFlags{}
	var save bool
	cmd := &cobra.Command{
		Use:   "plan <optimizer-config.json>",
		Short: "Optimize every profile of an optimizer config",
		Long: `Solves each item code profile of an optimizer config, the document stored
on a sales order, and writes one combined report. With --save the results are
written back into the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := c.appConfig()
			if err != nil {
				return err
			}
			formats, err := flags.reportFormats(appCfg)
			if err != nil {
				return err
			}
			cfg, err := project.LoadOptimizerConfig(args[0])
			if err != nil {
				return err
			}

			settings := appCfg.Settings()
			flags.apply(&settings)
			if err := engine.New(settings).WithLogger(c.log).OptimizeConfig(cmd.Context(), &cfg); err != nil {
				return err
			}

			reports := export.ProfileReports(cfg)
			if len(reports) == 0 {
				warn.Fprintln(c.out, "no profile has parts to cut")
				return nil
			}
			for _, rep := range reports {
				printSolution(c.out, rep.Profile, rep.Request, rep.Solution)
			}
			printStockUsed(c.out, engine.TotalStockUsed(cfg))

			if save {
				if err := project.SaveOptimizerConfig(args[0], cfg); err != nil {
					return err
				}
				good.Fprintf(c.out, "saved results to %s\n", args[0])
			}
			name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			written, err := writeReports(flags.outDir, name, reports, formats, time.Now())
			for _, path := range written {
				good.Fprintf(c.out, "wrote %s\n", path)
			}
			return err
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&save, "save", false, "write the results back into the config file")
	return cmd
}

func (c *cli) compareCmd() *cobra.Command {
	flags := &solveFlags{}
	cmd := &cobra.Command{
		Use:   "compare <request.json|request.yaml>",
		Short: "Compare the request's settings against what-if alternatives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, _, err := c.loadRequest(args[0], flags)
			if err != nil {
				return err
			}
			results := engine.CompareScenarios(cmd.Context(), engine.BuildDefaultScenarios(req.Settings), req)
			printComparison(c.out, results)
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func (c *cli) estimateCmd() *cobra.Command {
	var waste float64
	cmd := &cobra.Command{
		Use:   "estimate <request.json|request.yaml>",
		Short: "Estimate how many bars of each stock item to buy without optimizing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := c.appConfig()
			if err != nil {
				return err
			}
			req, err := project.LoadRequest(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("waste") {
				waste = appCfg.DefaultWastePercent
			}

			ids := lo.Keys(req.Stock)
			sort.Strings(ids)
			for _, id := range ids {
				est := model.CalculatePurchaseEstimate(req.Parts, req.Stock[id], req.Settings.SawKerf, waste)
				printEstimate(c.out, id, est)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&waste, "waste", 0, "extra waste allowance in percent (default from app config)")
	return cmd
}
