package scoring

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
	"github.com/mikey/scamguard/internal/rules"
)

// Engine is the rule based implementation of core.Analyzer. It holds only
// compiled, read-only rules and may be shared between goroutines.
type Engine struct {
	rules  *rules.Compiled
	logger *zap.Logger
}

// NewEngine creates a scoring engine for a compiled rule set
func NewEngine(r *rules.Compiled, logger *zap.Logger) *Engine {
	return &Engine{
		rules:  r,
		logger: logger.Named("scoring"),
	}
}

// Analyze scores a single message
func (e *Engine) Analyze(ctx context.Context, req *core.AnalysisRequest) (result *core.AnalysisResult, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = fmt.Errorf("scoring panicked: %v", p)
		}
	}()

	content := req.Content
	matches := matchLexical(e.rules, content)
	entities := extractEntities(e.rules, content)
	applyEntitySignals(&matches.signals, entities)

	verdict, branch := classify(req.Type, matches)
	risk := assessRisk(e.rules, content, matches, entities)

	e.logger.Debug("Scored message",
		zap.String("type", string(req.Type)),
		zap.String("branch", string(branch)),
		zap.Int("suspicious", len(matches.suspicious)),
		zap.Int("legitimate", len(matches.legitimate)),
		zap.Bool("legit_bank_format", matches.signals.HasLegitBankFormat),
		zap.Bool("shortened_url", matches.signals.HasSuspiciousShortenedURL),
		zap.Float64("confidence", verdict.Confidence))

	return assemble(e.rules, req, matches, entities, verdict, risk), nil
}

// Signals returns the structural flags for content. Used by tooling that
// wants to explain a verdict.
func (e *Engine) Signals(content string) core.StructuralSignals {
	m := matchLexical(e.rules, content)
	applyEntitySignals(&m.signals, extractEntities(e.rules, content))
	return m.signals
}
