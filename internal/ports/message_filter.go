package ports

import (
	"context"

	"github.com/mikey/scamguard/internal/core"
)

// MessageFilter is an entry point that feeds messages into the analysis
// service
type MessageFilter interface {
	// ProcessMessage analyzes a single message and returns the result
	ProcessMessage(ctx context.Context, req *core.AnalysisRequest) (*core.AnalysisResult, error)

	// Start starts the filter
	Start() error

	// Stop stops the filter
	Stop() error
}
