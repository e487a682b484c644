package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
	"github.com/mikey/scamguard/internal/utils"
)

// TextProcessorFactory creates text processors
type TextProcessorFactory struct {
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		logger: logger,
	}
}

// CreateContentProcessor creates the processor that bounds and normalises
// message content before scoring
func (f *TextProcessorFactory) CreateContentProcessor() core.ContentProcessor {
	return utils.NewTextProcessor(f.logger)
}
