package handlers

import (
	"net/http"

	"agriweather/backend/services/insights-service/internal/cache"
)

// LatestWeather handles GET /api/weather/latest. The body is keyed by unit id.
func (h *InsightsHandler) LatestWeather(w http.ResponseWriter, r *http.Request) {
	latest, err := cache.Load(r.Context(), h.cache, cache.Key(ViewLatestWeather), h.views.LatestObservationPerUnit)
	if err != nil {
		writeViewError(w, h.logger, ViewLatestWeather, err)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// CurrentState handles GET /api/current-state.
func (h *InsightsHandler) CurrentState(w http.ResponseWriter, r *http.Request) {
	states, err := cache.Load(r.Context(), h.cache, cache.Key(ViewCurrentState), h.views.MergedCurrentState)
	if err != nil {
		writeViewError(w, h.logger, ViewCurrentState, err)
		return
	}
	writeJSON(w, http.StatusOK, states)
}
