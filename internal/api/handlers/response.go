package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/core"
	"github.com/mikey/scamguard/internal/validation"
)

const (
	msgInternal      = "Internal server error"
	msgInvalidBody   = "Invalid request body"
	msgBodyTooLarge  = "Request body too large"
	msgAuthRequired  = "Authentication required"
	msgStoreDisabled = "Analysis history is not available"
	msgInvalidLimit  = "limit must be a positive integer"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP responses
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verr *validation.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, verr)
	case errors.Is(err, core.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, msgAuthRequired)
	case errors.Is(err, core.ErrStoreDisabled):
		respondError(w, http.StatusServiceUnavailable, msgStoreDisabled)
	default:
		logger.Error("Request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, msgInternal)
	}
}
