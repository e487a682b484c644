package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/adapters/events"
	"github.com/mikey/scamguard/internal/config"
	"github.com/mikey/scamguard/internal/core"
)

// EventsFactory creates the analysis event publisher
type EventsFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEventsFactory creates a new events factory
func NewEventsFactory(cfg *config.Config, logger *zap.Logger) *EventsFactory {
	return &EventsFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreatePublisher connects to NATS. It returns a nil publisher when events
// are disabled.
func (f *EventsFactory) CreatePublisher() (core.EventPublisher, error) {
	ec := f.cfg.GetEvents()
	if !ec.Enabled {
		return nil, nil
	}
	publisher, err := events.NewNATSPublisher(ec.NATSURL, ec.Subject, f.logger)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}
