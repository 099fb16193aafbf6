package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agriweather/backend/services/insights-service/internal/aggregate"
	"agriweather/backend/services/insights-service/internal/models"
)

// ErrStoreUnavailable marks any failure of an underlying store read.
var ErrStoreUnavailable = errors.New("store unavailable")

const defaultQueryTimeout = 5 * time.Second

// UnitStore reads units.
type UnitStore interface {
	List(ctx context.Context) ([]models.Unit, error)
	GetByExternalCode(ctx context.Context, code int) (models.Unit, bool, error)
}

// ObservationStore reads weather observations.
type ObservationStore interface {
	LatestPerUnit(ctx context.Context) ([]models.Observation, error)
	History(ctx context.Context, unitID uuid.UUID, filter models.HistoryFilter) ([]models.Observation, error)
}

// SurveyStore reads survey snapshots.
type SurveyStore interface {
	LatestPerCode(ctx context.Context) ([]models.SurveySnapshot, error)
	ForCode(ctx context.Context, code int) ([]models.SurveySnapshot, error)
}

// InsightsService builds the read views over units, weather and surveys.
type InsightsService struct {
	units        UnitStore
	observations ObservationStore
	surveys      SurveyStore
	queryTimeout time.Duration
	logger       *zap.Logger
}

// NewInsightsService builds service.
func NewInsightsService(
	units UnitStore,
	observations ObservationStore,
	surveys SurveyStore,
	queryTimeout time.Duration,
	logger *zap.Logger,
) *InsightsService {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &InsightsService{
		units:        units,
		observations: observations,
		surveys:      surveys,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

// ListUnits returns every unit.
func (s *InsightsService) ListUnits(ctx context.Context) ([]models.Unit, error) {
	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	units, err := s.units.List(qctx)
	if err != nil {
		return nil, s.storeError("list units", err)
	}
	if units == nil {
		units = []models.Unit{}
	}
	return units, nil
}

// LatestObservationPerUnit returns the newest reading of each unit that has one.
func (s *InsightsService) LatestObservationPerUnit(ctx context.Context) (map[uuid.UUID]models.LatestWeather, error) {
	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.observations.LatestPerUnit(qctx)
	if err != nil {
		return nil, s.storeError("latest weather", err)
	}

	latest := latestObservations(rows)
	out := make(map[uuid.UUID]models.LatestWeather, len(latest))
	for unitID, o := range latest {
		out[unitID] = o.Latest()
	}
	return out, nil
}

// ObservationHistory returns a unit's readings in non-decreasing time order.
// Unknown units and units without readings yield an empty slice.
func (s *InsightsService) ObservationHistory(ctx context.Context, unitID uuid.UUID, filter models.HistoryFilter) ([]models.Observation, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.observations.History(qctx, unitID, filter)
	if err != nil {
		return nil, s.storeError("weather history", err)
	}

	history := make([]models.Observation, 0, len(rows))
	for _, o := range rows {
		if o.UnitID == unitID && filter.Match(o.ObservedAt) {
			history = append(history, o)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		if !history[i].ObservedAt.Equal(history[j].ObservedAt) {
			return history[i].ObservedAt.Before(history[j].ObservedAt)
		}
		return history[i].Seq < history[j].Seq
	})
	if filter.Limit > 0 && len(history) > filter.Limit {
		history = history[:filter.Limit]
	}
	return history, nil
}

// UnitsWithLatestSurvey joins every unit with the newest survey of its external code.
func (s *InsightsService) UnitsWithLatestSurvey(ctx context.Context) ([]models.UnitWithSurvey, error) {
	var (
		units     []models.Unit
		snapshots []models.SurveySnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		units, err = s.ListUnits(gctx)
		return err
	})
	g.Go(func() error {
		qctx, cancel := context.WithTimeout(gctx, s.queryTimeout)
		defer cancel()
		var err error
		snapshots, err = s.surveys.LatestPerCode(qctx)
		if err != nil {
			return s.storeError("latest surveys", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	latest := latestSurveys(snapshots)
	out := make([]models.UnitWithSurvey, 0, len(units))
	for _, u := range units {
		view := models.UnitWithSurvey{
			ID:           u.ID,
			ExternalCode: u.ExternalCode,
			Latitude:     u.Latitude,
			Longitude:    u.Longitude,
		}
		if snap, ok := latest[u.ExternalCode]; ok {
			attachSurvey(&view, snap)
		}
		out = append(out, view)
	}
	return out, nil
}

// MergedCurrentState joins every unit with its latest weather. Units without
// readings keep a nil Weather.
func (s *InsightsService) MergedCurrentState(ctx context.Context) ([]models.CurrentState, error) {
	var (
		units   []models.Unit
		weather map[uuid.UUID]models.LatestWeather
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		units, err = s.ListUnits(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		weather, err = s.LatestObservationPerUnit(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.CurrentState, 0, len(units))
	for _, u := range units {
		state := models.CurrentState{
			ID:           u.ID,
			ExternalCode: u.ExternalCode,
			Latitude:     u.Latitude,
			Longitude:    u.Longitude,
		}
		if w, ok := weather[u.ID]; ok {
			state.Weather = &w
		}
		out = append(out, state)
	}
	return out, nil
}

// UnitSurvey returns the unit with the given external code joined with its
// latest survey. The bool is false when no unit carries the code.
func (s *InsightsService) UnitSurvey(ctx context.Context, externalCode int) (models.UnitWithSurvey, bool, error) {
	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	unit, ok, err := s.units.GetByExternalCode(qctx, externalCode)
	if err != nil {
		return models.UnitWithSurvey{}, false, s.storeError("unit by code", err)
	}
	if !ok {
		return models.UnitWithSurvey{}, false, nil
	}

	snapshots, err := s.surveys.ForCode(qctx, externalCode)
	if err != nil {
		return models.UnitWithSurvey{}, false, s.storeError("surveys by code", err)
	}

	view := models.UnitWithSurvey{
		ID:           unit.ID,
		ExternalCode: unit.ExternalCode,
		Latitude:     unit.Latitude,
		Longitude:    unit.Longitude,
	}
	if snap, ok := latestSurveys(snapshots)[externalCode]; ok {
		attachSurvey(&view, snap)
	}
	return view, true, nil
}

func (s *InsightsService) storeError(op string, err error) error {
	s.logger.Warn("store read failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func latestObservations(rows []models.Observation) map[uuid.UUID]models.Observation {
	return aggregate.LatestBy(rows,
		func(o models.Observation) uuid.UUID { return o.UnitID },
		func(o models.Observation) aggregate.Rank { return aggregate.TimeRank(o.ObservedAt, o.Seq) },
	)
}

func latestSurveys(rows []models.SurveySnapshot) map[int]models.SurveySnapshot {
	return aggregate.LatestBy(rows,
		func(s models.SurveySnapshot) int { return s.ExternalCode },
		func(s models.SurveySnapshot) aggregate.Rank {
			return aggregate.Rank{Primary: int64(s.Year), Seq: s.Seq}
		},
	)
}

func attachSurvey(view *models.UnitWithSurvey, snap models.SurveySnapshot) {
	year := snap.Year
	view.SurveyYear = &year
	view.SurveyPayload = snap.Payload
	if view.SurveyPayload == nil {
		view.SurveyPayload = models.SurveyPayload{}
	}
}
