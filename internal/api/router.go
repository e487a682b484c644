// Package api wires the HTTP surface of the analysis service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/adapters/identity"
	"github.com/mikey/scamguard/internal/api/handlers"
	apimiddleware "github.com/mikey/scamguard/internal/api/middleware"
	"github.com/mikey/scamguard/internal/metrics"
)

// Options configures the router. Limiter and Metrics may be nil.
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Authenticator  apimiddleware.Authenticator
	Limiter        apimiddleware.RateLimiter
	Metrics        *metrics.Recorder
}

// Router holds dependencies for the API router
type Router struct {
	opts     Options
	handlers *handlers.Handlers
	logger   *zap.Logger
}

// NewRouter creates a new Router instance
func NewRouter(h *handlers.Handlers, opts Options, logger *zap.Logger) *Router {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.Authenticator == nil {
		opts.Authenticator = identity.NewJWTProvider("", "")
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Router{
		opts:     opts,
		handlers: h,
		logger:   logger.Named("router"),
	}
}

// Setup builds the chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	if r.opts.Metrics != nil {
		router.Use(r.opts.Metrics.Middleware)
	}
	router.Use(middleware.Timeout(r.opts.RequestTimeout))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: r.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	router.Get("/health", r.handlers.Health.Check)
	if r.opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", r.opts.Metrics.Handler())
	}

	router.Route("/api", func(api chi.Router) {
		api.Use(apimiddleware.Authenticate(r.opts.Authenticator, r.logger))
		if r.opts.Limiter != nil {
			api.Use(apimiddleware.RateLimit(r.opts.Limiter, r.logger))
		}

		api.Post("/analyze", r.handlers.Analysis.Analyze)

		api.Route("/dashboard", func(dash chi.Router) {
			dash.Use(apimiddleware.RequireUser)
			dash.Get("/history", r.handlers.Dashboard.History)
			dash.Get("/stats", r.handlers.Dashboard.Stats)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(apimiddleware.RequireAdmin)
			admin.Get("/stats", r.handlers.Admin.Stats)
			admin.Get("/users", r.handlers.Admin.Users)
		})
	})

	return router
}
