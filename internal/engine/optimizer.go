package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/barcut/internal/model"
)

// Observer receives a notification after every optimization run.
type Observer interface {
	ObserveSolve(algorithm model.Algorithm, status string, patterns int, elapsed time.Duration)
}

// Optimizer runs the 1D cutting-stock algorithms.
type Optimizer struct {
	Settings model.Settings

	log      *zap.SugaredLogger
	observer Observer
}

func New(settings model.Settings) *Optimizer {
	return &Optimizer{Settings: settings.WithDefaults(), log: zap.NewNop().Sugar()}
}

// WithLogger sets the logger used for run summaries.
func (o *Optimizer) WithLogger(log *zap.SugaredLogger) *Optimizer {
	if log != nil {
		o.log = log
	}
	return o
}

// WithObserver sets the receiver of run notifications.
func (o *Optimizer) WithObserver(obs Observer) *Optimizer {
	o.observer = obs
	return o
}

// Solve is a shortcut for New(req.Settings).Optimize(ctx, req).
func Solve(ctx context.Context, req model.Request) (model.Solution, error) {
	return New(req.Settings).Optimize(ctx, req)
}

// Optimize finds the cheapest set of cut bars that meets the demand of req.
// Saw kerf and overproduction come from req; the algorithm, time limit and
// pattern cap come from req when set and from the optimizer otherwise.
func (o *Optimizer) Optimize(ctx context.Context, req model.Request) (sol model.Solution, err error) {
	start := time.Now()
	req.Settings = o.mergeSettings(req.Settings)
	settings := req.Settings

	patterns := 0
	defer func() {
		status := string(sol.Status)
		if err != nil {
			status = "error"
		}
		if o.observer != nil {
			o.observer.ObserveSolve(settings.Algorithm, status, patterns, time.Since(start))
		}
	}()

	if err := req.Validate(); err != nil {
		return model.Solution{}, fmt.Errorf("invalid request: %w", err)
	}

	prob := newProblem(req)
	ps := newPatternSet(prob)
	if len(prob.parts) == 0 {
		sol = buildSolution(req, ps, nil)
		sol.Status = model.StatusOptimal
		sol.Algorithm = settings.Algorithm
		return sol, nil
	}
	if !anyPartFits(prob) {
		return model.Solution{}, ErrNoPatterns
	}

	ctx, cancel := context.WithTimeout(ctx, settings.TimeLimit)
	defer cancel()

	var usage map[int]int
	status := model.StatusFeasible
	switch settings.Algorithm {
	case model.AlgorithmGreedy:
		bars, unplaced := firstFitDecreasing(prob)
		if len(unplaced) > 0 {
			return model.Solution{}, fmt.Errorf("%d pieces could not be placed: %w", len(unplaced), ErrInfeasible)
		}
		usage = barsToUsage(ps, bars)

	case model.AlgorithmGenetic:
		ga := newGeneticOptimizer(prob, scaledGeneticConfig(prob.totalDemand()))
		bars, unplaced := ga.optimize(ctx)
		if len(unplaced) > 0 {
			return model.Solution{}, fmt.Errorf("%d pieces could not be placed: %w", len(unplaced), ErrInfeasible)
		}
		usage = barsToUsage(ps, bars)

	case model.AlgorithmExact:
		sol.Truncated = ps.generate(settings.MaxPatterns)
		if sol.Truncated {
			o.log.Warnw("pattern enumeration truncated",
				"project", req.ProjectDescription,
				"max_patterns", settings.MaxPatterns)
		}
		if len(ps.patterns) == 0 {
			return model.Solution{}, ErrNoPatterns
		}

		deadline, _ := ctx.Deadline()
		// The first-fit plan is added to the pattern set before the search so
		// it can serve as the starting incumbent.
		bars, unplaced := firstFitDecreasing(prob)
		var incumbent map[int]int
		if len(unplaced) == 0 {
			incumbent = barsToUsage(ps, bars)
		}
		bb := newBranchAndBound(ctx, prob, ps, deadline)
		if incumbent != nil {
			bb.seed(incumbent)
		}
		var exhaustive bool
		usage, exhaustive = bb.run()
		if usage == nil {
			if !exhaustive {
				return model.Solution{}, fmt.Errorf("time limit reached without a plan: %w", ErrInfeasible)
			}
			return model.Solution{}, ErrInfeasible
		}
		// A finished search over a truncated pattern set proves nothing.
		if exhaustive && !sol.Truncated {
			status = model.StatusOptimal
		}

	default:
		return model.Solution{}, fmt.Errorf("unknown algorithm %q", settings.Algorithm)
	}
	patterns = len(ps.patterns)

	truncated := sol.Truncated
	sol = buildSolution(req, ps, usage)
	sol.Status = status
	sol.Algorithm = settings.Algorithm
	sol.Truncated = truncated

	o.log.Infow("optimization finished",
		"project", req.ProjectDescription,
		"algorithm", settings.Algorithm,
		"status", sol.Status,
		"patterns", patterns,
		"bars", sol.BarsUsed(),
		"cost", sol.TotalStockCost,
		"elapsed", time.Since(start))
	return sol, nil
}

func (o *Optimizer) mergeSettings(s model.Settings) model.Settings {
	if s.Algorithm == "" {
		s.Algorithm = o.Settings.Algorithm
	}
	if s.TimeLimit <= 0 {
		s.TimeLimit = o.Settings.TimeLimit
	}
	if s.MaxPatterns <= 0 {
		s.MaxPatterns = o.Settings.MaxPatterns
	}
	return s.WithDefaults()
}

// anyPartFits reports whether at least one open part fits on some stock item.
func anyPartFits(prob *problem) bool {
	for _, part := range prob.parts {
		for _, id := range prob.stockIDs {
			if part.Length <= prob.stock[id].Length+fitEpsilon {
				return true
			}
		}
	}
	return false
}
