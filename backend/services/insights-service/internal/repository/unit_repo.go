package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agriweather/backend/services/insights-service/internal/models"
)

// UnitRepository reads agricultural units.
type UnitRepository struct {
	db *sql.DB
}

// NewUnitRepository returns repository.
func NewUnitRepository(db *sql.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// List returns every unit ordered by external code.
func (r *UnitRepository) List(ctx context.Context) ([]models.Unit, error) {
	const query = `
		SELECT id, id_num, latitude, longitude, created_at
		FROM agricultural_units
		ORDER BY id_num, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}
	defer rows.Close()

	units := make([]models.Unit, 0)
	for rows.Next() {
		var u models.Unit
		if err := rows.Scan(&u.ID, &u.ExternalCode, &u.Latitude, &u.Longitude, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}
	return units, nil
}

// GetByExternalCode returns the unit carrying the code. The bool is false when none does.
func (r *UnitRepository) GetByExternalCode(ctx context.Context, code int) (models.Unit, bool, error) {
	const query = `
		SELECT id, id_num, latitude, longitude, created_at
		FROM agricultural_units
		WHERE id_num = $1
		ORDER BY created_at, id
		LIMIT 1
	`
	var u models.Unit
	err := r.db.QueryRowContext(ctx, query, code).Scan(&u.ID, &u.ExternalCode, &u.Latitude, &u.Longitude, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Unit{}, false, nil
	}
	if err != nil {
		return models.Unit{}, false, fmt.Errorf("query unit by code: %w", err)
	}
	return u, true, nil
}
