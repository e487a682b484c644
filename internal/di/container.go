package di

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/adapters/identity"
	"github.com/mikey/scamguard/internal/adapters/ratelimit"
	"github.com/mikey/scamguard/internal/api"
	"github.com/mikey/scamguard/internal/api/handlers"
	"github.com/mikey/scamguard/internal/config"
	"github.com/mikey/scamguard/internal/core"
	"github.com/mikey/scamguard/internal/factory"
	"github.com/mikey/scamguard/internal/logging"
	"github.com/mikey/scamguard/internal/metrics"
	"github.com/mikey/scamguard/internal/scoring"
	"github.com/mikey/scamguard/internal/sender"
	"github.com/mikey/scamguard/internal/validation"
)

// BuildContainer creates and configures the dependency injection container
// for the server
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Configuration and logging
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Optional infrastructure
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewEventsFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewRateLimitFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}

	if err := container.Provide(func(f *factory.StoreFactory) (core.AnalysisStore, error) {
		return f.CreateAnalysisStore(context.Background())
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.EventsFactory) (core.EventPublisher, error) {
		return f.CreatePublisher()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.RateLimitFactory) (*ratelimit.Limiter, *redis.Client, error) {
		return f.CreateLimiter(context.Background())
	}); err != nil {
		return nil, err
	}

	// Analysis service
	if err := container.Provide(newAnalysisService); err != nil {
		return nil, err
	}

	// HTTP surface
	if err := container.Provide(newHTTPServer); err != nil {
		return nil, err
	}

	if err := container.Provide(NewApplication); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCore registers the components shared by the server and the CLI
func provideCore(container *dig.Container) error {
	if err := container.Provide(factory.NewEngineFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.EngineFactory) (*scoring.Engine, error) {
		return f.CreateEngine()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.TextProcessorFactory) core.ContentProcessor {
		return f.CreateContentProcessor()
	}); err != nil {
		return err
	}
	if err := container.Provide(validation.NewRequestValidator); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *sender.Checker {
		domains := cfg.GetStringSlice("analysis.trusted_domains")
		if len(domains) > 0 {
			logger.Info("Loaded trusted sender domains", zap.Strings("domains", domains))
		}
		return sender.NewChecker(domains, logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config) *identity.JWTProvider {
		ac := cfg.GetAuth()
		return identity.NewJWTProvider(ac.JWTSecret, ac.Issuer)
	}); err != nil {
		return err
	}
	return container.Provide(metrics.NewRecorder)
}

type serviceParams struct {
	dig.In

	Config    *config.Config
	Logger    *zap.Logger
	Engine    *scoring.Engine
	Validator *validation.RequestValidator
	Identity  *identity.JWTProvider
	Store     core.AnalysisStore
	Publisher core.EventPublisher
	Checker   *sender.Checker
	Processor core.ContentProcessor
	Metrics   *metrics.Recorder
}

func newAnalysisService(p serviceParams) (*core.AnalysisService, error) {
	ac, err := p.Config.GetAnalysis()
	if err != nil {
		return nil, err
	}
	return core.NewAnalysisService(
		p.Engine,
		p.Validator,
		p.Identity,
		p.Store,
		p.Publisher,
		p.Checker,
		p.Processor,
		p.Metrics,
		p.Logger,
		core.ServiceOptions{
			MaxContentBytes: ac.MaxContentBytes,
			PersistTimeout:  ac.PersistTimeout,
		},
	), nil
}

type serverParams struct {
	dig.In

	Config   *config.Config
	Logger   *zap.Logger
	Service  *core.AnalysisService
	Identity *identity.JWTProvider
	Metrics  *metrics.Recorder
	Store    core.AnalysisStore
	Limiter  *ratelimit.Limiter
	Redis    *redis.Client
}

func newHTTPServer(p serverParams) (*http.Server, error) {
	sc, err := p.Config.GetServer()
	if err != nil {
		return nil, err
	}

	checks := map[string]handlers.HealthCheck{}
	if pinger, ok := p.Store.(interface{ Ping(context.Context) error }); ok {
		checks["store"] = pinger.Ping
	}
	if p.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return p.Redis.Ping(ctx).Err() }
	}

	opts := api.Options{
		AllowedOrigins: p.Config.GetCORS().AllowedOrigins,
		RequestTimeout: sc.RequestTimeout,
		Authenticator:  p.Identity,
		Metrics:        p.Metrics,
	}
	// A nil *Limiter must not become a non-nil interface
	if p.Limiter != nil {
		opts.Limiter = p.Limiter
	}

	router := api.NewRouter(handlers.NewHandlers(p.Service, checks, p.Logger), opts, p.Logger)

	return &http.Server{
		Addr:         sc.ListenAddress,
		Handler:      router.Setup(),
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
	}, nil
}
