package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/config"
	"github.com/mikey/scamguard/internal/core"
	"github.com/mikey/scamguard/internal/factory"
	"github.com/mikey/scamguard/internal/ports"
)

// Application is the assembled server: the HTTP API, the optional SMTP
// ingest filter and the resources released on shutdown
type Application struct {
	Server  *http.Server
	Service *core.AnalysisService
	Ingest  ports.MessageFilter
	logger  *zap.Logger
	closers []func()
}

type applicationParams struct {
	dig.In

	Config        *config.Config
	Logger        *zap.Logger
	Server        *http.Server
	Service       *core.AnalysisService
	FilterFactory *factory.FilterFactory
	Store         core.AnalysisStore
	Publisher     core.EventPublisher
	Redis         *redis.Client
}

// NewApplication assembles the application and collects its closers
func NewApplication(p applicationParams) (*Application, error) {
	app := &Application{
		Server:  p.Server,
		Service: p.Service,
		logger:  p.Logger,
	}

	if p.Config.GetIngest().Enabled {
		ingest, err := p.FilterFactory.CreateMessageFilter()
		if err != nil {
			return nil, fmt.Errorf("failed to create ingest filter: %w", err)
		}
		app.Ingest = ingest
	}

	if s, ok := p.Store.(interface{ Stop() }); ok {
		app.closers = append(app.closers, s.Stop)
	}
	if c, ok := p.Publisher.(interface{ Close() }); ok {
		app.closers = append(app.closers, c.Close)
	}
	if p.Redis != nil {
		app.closers = append(app.closers, func() {
			if err := p.Redis.Close(); err != nil {
				p.Logger.Warn("Failed to close Redis client", zap.Error(err))
			}
		})
	}
	return app, nil
}

// Run serves until ctx is cancelled or the HTTP server fails, then shuts
// everything down
func (a *Application) Run(ctx context.Context) error {
	if a.Ingest != nil {
		if err := a.Ingest.Start(); err != nil {
			return fmt.Errorf("failed to start ingest filter: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", zap.String("address", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("HTTP server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	a.Shutdown(shutdownCtx)
	return runErr
}

// Shutdown stops accepting work, waits for background writes and releases
// resources
func (a *Application) Shutdown(ctx context.Context) {
	if err := a.Server.Shutdown(ctx); err != nil {
		a.logger.Warn("HTTP server shutdown failed", zap.Error(err))
	}
	if a.Ingest != nil {
		if err := a.Ingest.Stop(); err != nil {
			a.logger.Warn("Ingest filter shutdown failed", zap.Error(err))
		}
	}

	a.Service.Wait()

	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.logger.Info("Shutdown complete")
}
