package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"agriweather/backend/services/insights-service/internal/models"
	"agriweather/backend/services/insights-service/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeViewError maps engine errors. A failed store read fails the whole view.
func writeViewError(w http.ResponseWriter, logger *zap.Logger, view string, err error) {
	switch {
	case errors.Is(err, service.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "data unavailable",
			"view":  view,
		})
	case errors.Is(err, models.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("view failed", zap.String("view", view), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
