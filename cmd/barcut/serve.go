package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/barcut/internal/engine"
	"github.com/piwi3910/barcut/internal/jobs"
	"github.com/piwi3910/barcut/internal/logger"
	"github.com/piwi3910/barcut/internal/metrics"
	"github.com/piwi3910/barcut/internal/server"
	"github.com/piwi3910/barcut/internal/store"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the optimization workers",
		Long: `Serves the order and job API and runs queued optimizations in the
background. Settings come from the environment (BARCUT_ADDR, BARCUT_DB_PATH,
BARCUT_WORKERS, BARCUT_QUEUE, BARCUT_JOB_TIMEOUT, LOG_LEVEL), optionally
loaded from .env files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	appCfg, err := c.appConfig()
	if err != nil {
		return err
	}
	inv, err := c.inventory()
	if err != nil {
		return err
	}

	st, err := store.Open(c.env.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	emitter := metrics.InitMetricsAndEmitter(registry)

	optimizer := engine.New(appCfg.Settings()).
		WithLogger(logger.Named("engine")).
		WithObserver(emitter)

	queue := jobs.NewQueue(st, jobs.Options{
		Queue:   c.env.Queue,
		Workers: c.env.Workers,
		Timeout: c.env.JobTimeout,
	}, logger.Named("jobs")).WithObserver(emitter)

	handlers := &jobs.Handlers{
		Store:     st,
		Catalog:   &inv,
		Optimizer: optimizer,
		Config:    appCfg,
		Log:       logger.Named("jobs"),
	}
	handlers.Register(queue)

	api := server.New(st, queue, &inv,
		server.WithLogger(logger.Named("http")),
		server.WithMetrics(emitter, registry))

	c.log.Infow("starting barcut",
		"addr", c.env.Addr,
		"db", c.env.DBPath,
		"data_dir", c.dataDir,
		"workers", c.env.Workers,
		"queue", c.env.Queue,
		"job_timeout", c.env.JobTimeout)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return queue.Run(ctx)
	})
	g.Go(func() error {
		return server.ListenAndServe(ctx, c.env.Addr, api.Handler(), logger.Named("http"))
	})
	return g.Wait()
}
