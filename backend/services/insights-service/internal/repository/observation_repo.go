package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"agriweather/backend/services/insights-service/internal/models"
)

var observationColumns = []string{
	"id",
	"seq",
	"agricultural_unit_id",
	"created_at",
	"temperature",
	"humidity",
	"wind_speed",
	"clouds",
	"weather_main",
	"weather_desc",
}

// ObservationRepository reads weather observations.
type ObservationRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// NewObservationRepository returns repository.
func NewObservationRepository(db *sql.DB) *ObservationRepository {
	return &ObservationRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// LatestPerUnit returns the newest observation of every unit that has one.
// Ordering matches the in-memory reduction: created_at, then seq.
func (r *ObservationRepository) LatestPerUnit(ctx context.Context) ([]models.Observation, error) {
	const query = `
		SELECT DISTINCT ON (agricultural_unit_id)
			id, seq, agricultural_unit_id, created_at, temperature, humidity,
			wind_speed, clouds, weather_main, weather_desc
		FROM weather
		ORDER BY agricultural_unit_id, created_at DESC, seq DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest weather: %w", err)
	}
	return scanObservations(rows)
}

// History returns observations of a unit in ascending time order.
func (r *ObservationRepository) History(ctx context.Context, unitID uuid.UUID, filter models.HistoryFilter) ([]models.Observation, error) {
	builder := r.builder.
		Select(observationColumns...).
		From("weather").
		Where(sq.Eq{"agricultural_unit_id": unitID.String()})

	if !filter.From.IsZero() {
		builder = builder.Where(sq.GtOrEq{"created_at": filter.From})
	}
	if !filter.To.IsZero() {
		builder = builder.Where(sq.LtOrEq{"created_at": filter.To})
	}
	builder = builder.OrderBy("created_at ASC", "seq ASC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query weather history: %w", err)
	}
	return scanObservations(rows)
}

func scanObservations(rows *sql.Rows) ([]models.Observation, error) {
	defer rows.Close()

	observations := make([]models.Observation, 0)
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(
			&o.ID,
			&o.Seq,
			&o.UnitID,
			&o.ObservedAt,
			&o.Temperature,
			&o.Humidity,
			&o.WindSpeed,
			&o.CloudCover,
			&o.ConditionLabel,
			&o.ConditionDetail,
		); err != nil {
			return nil, fmt.Errorf("scan weather: %w", err)
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weather: %w", err)
	}
	return observations, nil
}
