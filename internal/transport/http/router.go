// Package httptransport exposes the submission wizard and the operator registration
// endpoints over HTTP. Handlers only decode, delegate and encode.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"formflow/internal/platform/metrics"
	"formflow/internal/platform/ratelimit"
	"formflow/pkg/platform/httputil"
	"formflow/pkg/platform/middleware/request"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves every formflow endpoint.
type Handler struct {
	submissions   SubmissionService
	registrations RegistrationService
	events        EventScheduler
	logger        *slog.Logger
	metrics       *metrics.Metrics
	gatherer      prometheus.Gatherer
	startLimit    *ratelimit.Middleware
	retryLimit    *ratelimit.Middleware
	checks        map[string]HealthCheck
}

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithGatherer selects the registry served at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// WithRateLimit limits starting submissions and manual retries per client. Either
// may be nil.
func WithRateLimit(start, retry *ratelimit.Middleware) Option {
	return func(h *Handler) {
		h.startLimit = start
		h.retryLimit = retry
	}
}

// WithHealthCheck adds a dependency check to /healthz.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handler) { h.checks[name] = check }
}

func New(submissions SubmissionService, registrations RegistrationService, events EventScheduler, opts ...Option) *Handler {
	h := &Handler{
		submissions:   submissions,
		registrations: registrations,
		events:        events,
		logger:        slog.Default(),
		gatherer:      prometheus.DefaultGatherer,
		checks:        make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router wires the routes with the shared middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(request.Middleware)
	r.Use(h.metrics.Middleware)

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Route("/submissions", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.With(h.startLimit.Handler).Post("/", h.handleStart)
		r.Route("/{submissionID}", func(r chi.Router) {
			r.Get("/steps/{slug}", h.handleGetStep)
			r.Put("/steps/{slug}", h.handleSubmitStep)
			r.Post("/complete", h.handleComplete)
			r.Get("/registration", h.handleRegistrationStatus)
			r.With(h.retryLimit.Handler).Post("/registration/retry", h.handleRetry)
			r.Post("/events/{event}", h.handleEvent)
		})
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
			results[name] = "unavailable"
			status, code = "unavailable", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	httputil.WriteJSON(w, code, map[string]any{"status": status, "checks": results})
}

// writeError logs server-side failures before writing the error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httputil.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
