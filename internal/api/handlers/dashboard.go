package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/adapters/identity"
)

// DashboardHandler serves a user's own analysis history
type DashboardHandler struct {
	service AnalysisService
	logger  *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(service AnalysisService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.Named("dashboard"),
	}
}

// History handles GET /api/dashboard/history
func (h *DashboardHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, msgInvalidLimit)
			return
		}
		limit = n
	}

	user, _ := identity.UserFromContext(r.Context())
	records, err := h.service.History(r.Context(), user, limit)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": records,
		"count":    len(records),
	})
}

// Stats handles GET /api/dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.UserFromContext(r.Context())
	dashboard, err := h.service.Dashboard(r.Context(), user)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}
