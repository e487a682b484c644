package factory

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/adapters/filter"
	"github.com/mikey/scamguard/internal/config"
	"github.com/mikey/scamguard/internal/core"
	"github.com/mikey/scamguard/internal/ports"
)

// FilterFactory creates message filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.AnalysisService
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.AnalysisService) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateMessageFilter creates the filter named by filter.type
func (f *FilterFactory) CreateMessageFilter() (ports.MessageFilter, error) {
	filterType := f.cfg.GetString("filter.type")

	switch filterType {
	case "smtp":
		ic := f.cfg.GetIngest()
		return filter.NewSMTPFilter(f.service, f.logger, filter.SMTPOptions{
			ListenAddress:    ic.ListenAddress,
			BlockFraud:       ic.BlockFraud,
			StatusHeader:     ic.Headers.Status,
			ConfidenceHeader: ic.Headers.Confidence,
			KeywordsHeader:   ic.Headers.Keywords,
			ForwardEnabled:   ic.ForwardEnabled,
			ForwardAddress:   ic.ForwardAddress,
			ForwardPort:      ic.ForwardPort,
			SubjectPrefix:    ic.SubjectPrefix,
			ModifySubject:    ic.ModifySubject,
		}), nil
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.logger,
			os.Stdout,
			f.cfg.GetBool("cli.verbose"),
			f.cfg.GetBool("cli.json"),
		), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
