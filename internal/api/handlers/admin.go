package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// AdminHandler serves cross-user statistics
type AdminHandler struct {
	service AnalysisService
	logger  *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AnalysisService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.Named("admin"),
	}
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.AdminStats(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Users handles GET /api/admin/users
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.AdminUsers(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}
