package engine

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/barcut/internal/model"
)

// OptimizeConfig solves every profile of cfg that has parts, in parallel, and
// stores each solution both in cfg.Results and on the profile. Profiles
// without parts are skipped and lose any earlier result. The first failing
// profile cancels the others and its error is returned.
func (o *Optimizer) OptimizeConfig(ctx context.Context, cfg *model.OptimizerConfig) error {
	if cfg.Results == nil {
		cfg.Results = map[string]*model.Solution{}
	}

	type job struct {
		code string
		req  model.Request
	}
	var jobs []job
	for _, code := range cfg.ItemCodes() {
		profile := cfg.Profiles[code]
		req := profile.ToRequest(cfg.Settings)
		if len(req.Parts) == 0 {
			delete(cfg.Results, code)
			if profile.Solution != nil {
				profile.Solution = nil
				cfg.Profiles[code] = profile
			}
			continue
		}
		jobs = append(jobs, job{code: code, req: req})
	}

	solutions := make([]model.Solution, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, j := range jobs {
		g.Go(func() error {
			sol, err := o.Optimize(ctx, j.req)
			if err != nil {
				return fmt.Errorf("profile %s: %w", j.code, err)
			}
			solutions[i] = sol
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, j := range jobs {
		sol := solutions[i]
		cfg.Results[j.code] = &sol
		profile := cfg.Profiles[j.code]
		profile.Solution = &sol
		cfg.Profiles[j.code] = profile
	}
	return nil
}

// ConfigRequests returns the request of every profile with parts, keyed by item code.
func ConfigRequests(cfg model.OptimizerConfig) map[string]model.Request {
	out := make(map[string]model.Request)
	for code, profile := range cfg.Profiles {
		req := profile.ToRequest(cfg.Settings)
		if len(req.Parts) > 0 {
			out[code] = req
		}
	}
	return out
}

// TotalStockUsed sums the bars consumed across all profile results.
func TotalStockUsed(cfg model.OptimizerConfig) map[string]int {
	total := make(map[string]int)
	for _, sol := range cfg.Results {
		if sol == nil {
			continue
		}
		for id, n := range sol.StockUsed {
			total[id] += n
		}
	}
	return total
}
