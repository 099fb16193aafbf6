package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidFilter is returned for history filters with inverted bounds or negative limits.
var ErrInvalidFilter = errors.New("invalid history filter")

// Observation is one weather reading for a unit.
type Observation struct {
	ID              uuid.UUID `json:"id"`
	Seq             int64     `json:"seq"`
	UnitID          uuid.UUID `json:"unit_id"`
	ObservedAt      time.Time `json:"observed_at"`
	Temperature     float64   `json:"temperature"`
	Humidity        int       `json:"humidity"`
	WindSpeed       float64   `json:"wind_speed"`
	CloudCover      int       `json:"cloud_cover"`
	ConditionLabel  string    `json:"condition_label"`
	ConditionDetail string    `json:"condition_detail"`
}

// LatestWeather is the most recent reading of a unit.
type LatestWeather struct {
	UnitID          uuid.UUID `json:"unit_id"`
	Temperature     float64   `json:"temperature"`
	Humidity        int       `json:"humidity"`
	WindSpeed       float64   `json:"wind_speed"`
	CloudCover      int       `json:"cloud_cover"`
	ConditionLabel  string    `json:"condition_label"`
	ConditionDetail string    `json:"condition_detail"`
	ObservedAt      time.Time `json:"observed_at"`
}

// Latest projects an observation to the latest-weather view.
func (o Observation) Latest() LatestWeather {
	return LatestWeather{
		UnitID:          o.UnitID,
		Temperature:     o.Temperature,
		Humidity:        o.Humidity,
		WindSpeed:       o.WindSpeed,
		CloudCover:      o.CloudCover,
		ConditionLabel:  o.ConditionLabel,
		ConditionDetail: o.ConditionDetail,
		ObservedAt:      o.ObservedAt,
	}
}

// HistoryFilter narrows a history read. Zero value means everything.
// From and To are inclusive; Limit keeps the earliest N rows.
type HistoryFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// Validate reports inverted bounds or a negative limit.
func (f HistoryFilter) Validate() error {
	if f.Limit < 0 {
		return ErrInvalidFilter
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return ErrInvalidFilter
	}
	return nil
}

// Match reports whether t lies within the bounds.
func (f HistoryFilter) Match(t time.Time) bool {
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.After(f.To) {
		return false
	}
	return true
}
