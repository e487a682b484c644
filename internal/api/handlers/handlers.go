// Package handlers implements the HTTP endpoints of the analysis API.
package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
)

// AnalysisService is the part of core.AnalysisService used over HTTP
type AnalysisService interface {
	Analyze(ctx context.Context, req *core.AnalysisRequest) (*core.AnalysisResult, error)
	History(ctx context.Context, user *core.User, limit int) ([]*core.AnalysisRecord, error)
	Dashboard(ctx context.Context, user *core.User) (*core.Dashboard, error)
	AdminStats(ctx context.Context) (*core.GlobalStats, error)
	AdminUsers(ctx context.Context) ([]*core.UserSummary, error)
}

// Handlers groups all endpoint handlers
type Handlers struct {
	Analysis  *AnalysisHandler
	Dashboard *DashboardHandler
	Admin     *AdminHandler
	Health    *HealthHandler
}

// NewHandlers creates all handlers over one service
func NewHandlers(service AnalysisService, checks map[string]HealthCheck, logger *zap.Logger) *Handlers {
	return &Handlers{
		Analysis:  NewAnalysisHandler(service, logger),
		Dashboard: NewDashboardHandler(service, logger),
		Admin:     NewAdminHandler(service, logger),
		Health:    NewHealthHandler(checks),
	}
}
