package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
)

// MaxBodyBytes caps the size of an analysis request body
const MaxBodyBytes = 1 << 20

// AnalysisHandler handles message analysis
type AnalysisHandler struct {
	service AnalysisService
	logger  *zap.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(service AnalysisService, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  logger.Named("analyze"),
	}
}

// Analyze handles POST /api/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var req core.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		respondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	// Accept "EMAIL" and "SMS" as well as the lower-case forms
	if t, err := core.ParseMessageType(string(req.Type)); err == nil {
		req.Type = t
	}

	result, err := h.service.Analyze(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
