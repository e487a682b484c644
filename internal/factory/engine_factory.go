package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/config"
	"github.com/mikey/scamguard/internal/rules"
	"github.com/mikey/scamguard/internal/scoring"
)

// EngineFactory builds the scoring engine from the configured rule set
type EngineFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEngineFactory creates a new engine factory
func NewEngineFactory(cfg *config.Config, logger *zap.Logger) *EngineFactory {
	return &EngineFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRules loads analysis.rules_file when set, otherwise the built-in
// rule set, and compiles it
func (f *EngineFactory) CreateRules() (*rules.Compiled, error) {
	rs := rules.Default()
	if path := f.cfg.GetString("analysis.rules_file"); path != "" {
		loaded, err := rules.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}
		rs = loaded
		f.logger.Info("Loaded rule set", zap.String("file", path))
	}

	compiled, err := rules.Compile(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}
	return compiled, nil
}

// CreateEngine builds the scoring engine
func (f *EngineFactory) CreateEngine() (*scoring.Engine, error) {
	compiled, err := f.CreateRules()
	if err != nil {
		return nil, err
	}
	return scoring.NewEngine(compiled, f.logger), nil
}
