package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"agriweather/backend/services/insights-service/internal/cache"
	"agriweather/backend/services/insights-service/internal/models"
)

// View names reported in error bodies and used as cache keys.
const (
	ViewUnits         = "units"
	ViewLatestWeather = "latest_weather"
	ViewHistory       = "observation_history"
	ViewCurrentState  = "current_state"
	ViewLatestSurveys = "latest_surveys"
	ViewSurveyMetrics = "survey_metrics"
)

// Views is the read side served over HTTP.
type Views interface {
	ListUnits(ctx context.Context) ([]models.Unit, error)
	LatestObservationPerUnit(ctx context.Context) (map[uuid.UUID]models.LatestWeather, error)
	ObservationHistory(ctx context.Context, unitID uuid.UUID, filter models.HistoryFilter) ([]models.Observation, error)
	UnitsWithLatestSurvey(ctx context.Context) ([]models.UnitWithSurvey, error)
	MergedCurrentState(ctx context.Context) ([]models.CurrentState, error)
	UnitSurvey(ctx context.Context, externalCode int) (models.UnitWithSurvey, bool, error)
}

// InsightsHandler serves the analytical views.
type InsightsHandler struct {
	views    Views
	cache    *cache.ViewCache
	validate *validator.Validate
	logger   *zap.Logger
}

// NewInsightsHandler returns handler.
func NewInsightsHandler(views Views, viewCache *cache.ViewCache, logger *zap.Logger) *InsightsHandler {
	return &InsightsHandler{
		views:    views,
		cache:    viewCache,
		validate: validator.New(),
		logger:   logger,
	}
}
