// Package app wires the stores, plugins, services and background workers of the
// formflow server from one Config.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"formflow/internal/forms"
	"formflow/internal/platform/config"
	"formflow/internal/platform/httpserver"
	"formflow/internal/platform/metrics"
	"formflow/internal/platform/ratelimit"
	"formflow/internal/prefill"
	prefillmetrics "formflow/internal/prefill/metrics"
	"formflow/internal/registrations"
	regmetrics "formflow/internal/registrations/metrics"
	"formflow/internal/submissions/service"
	"formflow/internal/tasks"
	taskmetrics "formflow/internal/tasks/metrics"
	httptransport "formflow/internal/transport/http"
	"formflow/pkg/platform/audit/publisher"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const auditBufferSize = 1024

// App is a fully wired formflow process. Build constructs it, Run serves it and
// Close releases what Build opened.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	Forms         forms.Store
	Submissions   *service.Service
	Registrations *registrations.Service
	Sweeper       *tasks.Sweeper

	handler http.Handler
	server  *http.Server
	workers []func(ctx context.Context) error
	closers []func()
	health  map[string]httptransport.HealthCheck
}

// Build opens the configured backends and wires every service. On error whatever was
// already opened is closed again.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, logger: logger, health: make(map[string]httptransport.HealthCheck)}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// Module metrics go to a registry per App; the default registry carries the Go
	// runtime collectors and the lock counters.
	reg := prometheus.NewRegistry()

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}
	a.Forms = st.forms
	if err := a.seedForms(ctx, st.forms); err != nil {
		return nil, err
	}

	auditor := publisher.NewPublisher(st.audit,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(logger),
	)
	a.closers = append(a.closers, auditor.Close)

	sh, err := a.openShared(ctx)
	if err != nil {
		return nil, err
	}

	prefillPlugins, err := a.prefillPlugins()
	if err != nil {
		return nil, err
	}
	registrationPlugins, err := a.registrationPlugins(st)
	if err != nil {
		return nil, err
	}

	prefillSvc := prefill.New(prefillPlugins, st.values,
		prefill.WithLogger(logger),
		prefill.WithAuditPublisher(auditor),
		prefill.WithMetrics(prefillmetrics.NewWithRegisterer(reg)),
	)

	a.Registrations = registrations.New(st.submissions, registrationPlugins, sh.locker, cfg.Registration,
		registrations.WithLogger(logger),
		registrations.WithAuditPublisher(auditor),
		registrations.WithMetrics(regmetrics.NewWithRegisterer(reg)),
	)

	taskMetrics := taskmetrics.NewWithRegisterer(reg)
	queue, err := a.openQueue(ctx, taskMetrics)
	if err != nil {
		return nil, err
	}
	dispatcher := tasks.NewDispatcher(st.submissions, st.forms, prefillSvc, a.Registrations, queue.queue,
		tasks.WithLogger(logger),
		tasks.WithMetrics(taskMetrics),
	)
	a.workers = append(a.workers, func(ctx context.Context) error {
		return queue.run(ctx, dispatcher)
	})
	scheduler := tasks.NewScheduler(queue.queue)

	a.Submissions = service.New(st.submissions, st.forms, st.values, prefillSvc, scheduler,
		service.WithLogger(logger),
		service.WithAuditPublisher(auditor),
	)

	a.Sweeper = tasks.NewSweeper(a.Registrations, cfg.Registration.RetryInterval, logger)
	if cfg.Registration.RetryInterval > 0 {
		a.workers = append(a.workers, a.Sweeper.Run)
	}

	httpOpts := []httptransport.Option{
		httptransport.WithLogger(logger),
		httptransport.WithMetrics(metrics.NewWithRegisterer(reg)),
		httptransport.WithGatherer(prometheus.Gatherers{reg, prometheus.DefaultGatherer}),
		httptransport.WithRateLimit(
			ratelimit.New(sh.limiter, "submission_start", cfg.RateLimit.StartPerWindow, cfg.RateLimit.Window, ratelimit.WithLogger(logger)),
			ratelimit.New(sh.limiter, "registration_retry", cfg.RateLimit.RetryPerWindow, cfg.RateLimit.Window, ratelimit.WithLogger(logger)),
		),
	}
	for name, check := range a.health {
		httpOpts = append(httpOpts, httptransport.WithHealthCheck(name, check))
	}
	a.handler = httptransport.New(a.Submissions, a.Registrations, scheduler, httpOpts...).Router()
	a.server = httpserver.New(cfg.Server.Addr, a.handler)
	return a, nil
}

// Handler returns the HTTP router.
func (a *App) Handler() http.Handler { return a.handler }

// Run serves HTTP and runs the background workers until ctx is cancelled or one of
// them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(ctx, a.server, a.shutdownGrace(), a.logger)
	})
	for _, work := range a.workers {
		g.Go(func() error { return work(ctx) })
	}
	return g.Wait()
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) shutdownGrace() time.Duration {
	if a.cfg.Server.ShutdownGrace > 0 {
		return a.cfg.Server.ShutdownGrace
	}
	return 10 * time.Second
}
