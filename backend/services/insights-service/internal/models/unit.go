package models

import (
	"time"

	"github.com/google/uuid"
)

// Unit is a geolocated agricultural unit. ExternalCode links it to survey records.
type Unit struct {
	ID           uuid.UUID `json:"id"`
	ExternalCode int       `json:"external_code"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	CreatedAt    time.Time `json:"created_at"`
}
