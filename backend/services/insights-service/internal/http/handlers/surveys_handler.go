package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	libconfig "agriweather/backend/libs/config"
	"agriweather/backend/services/insights-service/internal/cache"
	"agriweather/backend/services/insights-service/internal/models"
	"agriweather/backend/services/insights-service/internal/service"
)

type metricsQuery struct {
	Keys []string `validate:"max=20,dive,required,max=32,alphanum"`
}

type surveyMetricsResponse struct {
	ExternalCode int                   `json:"external_code"`
	SurveyYear   *int                  `json:"survey_year"`
	Metrics      []models.SurveyMetric `json:"metrics"`
}

// LatestSurveys handles GET /api/surveys/latest.
func (h *InsightsHandler) LatestSurveys(w http.ResponseWriter, r *http.Request) {
	views, err := cache.Load(r.Context(), h.cache, cache.Key(ViewLatestSurveys), h.views.UnitsWithLatestSurvey)
	if err != nil {
		writeViewError(w, h.logger, ViewLatestSurveys, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// SurveyMetrics handles GET /api/units/by-code/{code}/survey-metrics.
// Without keys the cereal gross products are returned.
func (h *InsightsHandler) SurveyMetrics(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid external code")
		return
	}

	q := metricsQuery{Keys: libconfig.SplitList(r.URL.Query().Get("keys"))}
	if len(q.Keys) == 0 {
		q.Keys = service.CerealKeys()
	}
	if err := h.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid metric keys")
		return
	}

	type lookup struct {
		View  models.UnitWithSurvey `json:"view"`
		Found bool                  `json:"found"`
	}
	key := cache.Key(ViewSurveyMetrics, code)
	res, err := cache.Load(r.Context(), h.cache, key, func(ctx context.Context) (lookup, error) {
		view, found, err := h.views.UnitSurvey(ctx, code)
		return lookup{View: view, Found: found}, err
	})
	if err != nil {
		writeViewError(w, h.logger, ViewSurveyMetrics, err)
		return
	}
	if !res.Found {
		writeError(w, http.StatusNotFound, "unit not found")
		return
	}

	writeJSON(w, http.StatusOK, surveyMetricsResponse{
		ExternalCode: res.View.ExternalCode,
		SurveyYear:   res.View.SurveyYear,
		Metrics:      service.SurveyMetrics(res.View, q.Keys),
	})
}
