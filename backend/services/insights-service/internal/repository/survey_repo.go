package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"agriweather/backend/services/insights-service/internal/models"
)

// SurveyRepository reads survey snapshots.
type SurveyRepository struct {
	db *sql.DB
}

// NewSurveyRepository returns repository.
func NewSurveyRepository(db *sql.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// LatestPerCode returns the newest snapshot of every external code.
func (r *SurveyRepository) LatestPerCode(ctx context.Context) ([]models.SurveySnapshot, error) {
	const query = `
		SELECT DISTINCT ON (id_num) id, seq, id_num, year, data
		FROM agricultural_unit_surveys
		ORDER BY id_num, year DESC, seq DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest surveys: %w", err)
	}
	defer rows.Close()

	snapshots := make([]models.SurveySnapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate surveys: %w", err)
	}
	return snapshots, nil
}

// ForCode returns every snapshot of one external code.
func (r *SurveyRepository) ForCode(ctx context.Context, code int) ([]models.SurveySnapshot, error) {
	const query = `
		SELECT id, seq, id_num, year, data
		FROM agricultural_unit_surveys
		WHERE id_num = $1
		ORDER BY year DESC, seq DESC
	`
	rows, err := r.db.QueryContext(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("query surveys by code: %w", err)
	}
	defer rows.Close()

	snapshots := make([]models.SurveySnapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate surveys: %w", err)
	}
	return snapshots, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (models.SurveySnapshot, error) {
	var (
		s    models.SurveySnapshot
		data []byte
	)
	if err := row.Scan(&s.ID, &s.Seq, &s.ExternalCode, &s.Year, &data); err != nil {
		return models.SurveySnapshot{}, fmt.Errorf("scan survey: %w", err)
	}

	s.Payload = models.SurveyPayload{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.Payload); err != nil {
			return models.SurveySnapshot{}, fmt.Errorf("decode survey %s payload: %w", s.ID, err)
		}
		if s.Payload == nil {
			// jsonb null
			s.Payload = models.SurveyPayload{}
		}
	}
	return s, nil
}
