// Package server exposes orders, optimization jobs and their reports over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/piwi3910/barcut/internal/model"
)

// UserHeader names the user that enqueues a job and receives its alert.
const UserHeader = "X-Barcut-User"

// Store is the persistence the API reads and writes.
type Store interface {
	Ping(ctx context.Context) error
	GetOrder(ctx context.Context, name string) (model.Order, error)
	SaveOrder(ctx context.Context, o *model.Order) error
	SaveOrderConfig(ctx context.Context, name string, cfg model.OptimizerConfig) error
	ListAttachments(ctx context.Context, doctype, docname string) ([]model.Attachment, error)
	GetAttachment(ctx context.Context, id string) (model.Attachment, error)
	ListAlerts(ctx context.Context, user string) ([]model.Alert, error)
}

// Jobs enqueues and reports background jobs.
type Jobs interface {
	Enqueue(ctx context.Context, kind string, payload any, user string) (string, error)
	Get(ctx context.Context, id string) (model.JobResult, error)
}

// RequestObserver is told about every served request.
type RequestObserver interface {
	HTTPRequest(method, route string, code int)
}

// Server holds the API dependencies.
type Server struct {
	store    Store
	jobs     Jobs
	catalog  model.ItemLookup
	log      *zap.SugaredLogger
	observer RequestObserver
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Server) { s.log = log }
}

// WithMetrics counts requests with obs and serves gatherer on /metrics.
func WithMetrics(obs RequestObserver, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.observer = obs
		s.gatherer = gatherer
	}
}

func New(store Store, jobs Jobs, catalog model.ItemLookup, opts ...Option) *Server {
	s := &Server{
		store:   store,
		jobs:    jobs,
		catalog: catalog,
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.healthz)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/optimize", s.enqueueSingle)
		r.Get("/jobs/{id}", s.getJob)

		r.Route("/orders/{name}", func(r chi.Router) {
			r.Get("/", s.getOrder)
			r.Put("/", s.putOrder)
			r.Get("/config", s.getConfig)
			r.Put("/config", s.putConfig)
			r.Post("/optimize", s.enqueueFull)
			r.Get("/attachments", s.listAttachments)
		})

		r.Get("/attachments/{id}", s.downloadAttachment)
		r.Get("/users/{user}/alerts", s.listAlerts)
	})
	return r
}

// instrument logs each request and reports it to the observer under its route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		if s.observer != nil {
			s.observer.HTTPRequest(r.Method, route, code)
		}
		s.log.Debugw("request served",
			"method", r.Method,
			"route", route,
			"code", code,
			"request_id", middleware.GetReqID(r.Context()),
			"elapsed", time.Since(start))
	})
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log *zap.SugaredLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Infow("http server stopped")
	return nil
}
