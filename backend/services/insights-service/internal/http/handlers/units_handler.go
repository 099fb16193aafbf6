package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"agriweather/backend/services/insights-service/internal/cache"
	"agriweather/backend/services/insights-service/internal/models"
)

type historyQuery struct {
	From  time.Time
	To    time.Time
	Limit int `validate:"gte=0,lte=10000"`
}

// ListUnits handles GET /api/units.
func (h *InsightsHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := cache.Load(r.Context(), h.cache, cache.Key(ViewUnits), h.views.ListUnits)
	if err != nil {
		writeViewError(w, h.logger, ViewUnits, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

// ObservationHistory handles GET /api/units/{id}/observations.
func (h *InsightsHandler) ObservationHistory(w http.ResponseWriter, r *http.Request) {
	unitID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid unit id")
		return
	}

	q, err := parseHistoryQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be between 0 and 10000")
		return
	}

	filter := models.HistoryFilter{From: q.From, To: q.To, Limit: q.Limit}
	key := cache.Key(ViewHistory, unitID, q.From.UnixNano(), q.To.UnixNano(), q.Limit)
	history, err := cache.Load(r.Context(), h.cache, key, func(ctx context.Context) ([]models.Observation, error) {
		return h.views.ObservationHistory(ctx, unitID, filter)
	})
	if err != nil {
		writeViewError(w, h.logger, ViewHistory, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func parseHistoryQuery(r *http.Request) (historyQuery, error) {
	var q historyQuery
	values := r.URL.Query()

	if raw := strings.TrimSpace(values.Get("from")); raw != "" {
		from, err := parseTime(raw)
		if err != nil {
			return q, err
		}
		q.From = from
	}
	if raw := strings.TrimSpace(values.Get("to")); raw != "" {
		to, err := parseTime(raw)
		if err != nil {
			return q, err
		}
		q.To = to
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.New("invalid limit")
		}
		q.Limit = limit
	}
	return q, nil
}

func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
