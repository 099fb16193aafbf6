package models

import (
	"sort"

	"github.com/google/uuid"
)

// SurveyPayload holds the variables of one survey record.
type SurveyPayload map[string]SurveyValue

// Metric returns the numeric value under key, or 0 when the key is missing or not numeric.
func (p SurveyPayload) Metric(key string) float64 {
	if p == nil {
		return 0
	}
	return p[key].NumberOrZero()
}

// Keys returns payload keys in sorted order.
func (p SurveyPayload) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SurveySnapshot is one yearly survey record keyed by external code.
type SurveySnapshot struct {
	ID           uuid.UUID     `json:"id"`
	Seq          int64         `json:"seq"`
	ExternalCode int           `json:"external_code"`
	Year         int           `json:"year"`
	Payload      SurveyPayload `json:"payload"`
}

// UnitWithSurvey is a unit joined with its latest survey, when one exists.
type UnitWithSurvey struct {
	ID            uuid.UUID     `json:"id"`
	ExternalCode  int           `json:"external_code"`
	Latitude      float64       `json:"latitude"`
	Longitude     float64       `json:"longitude"`
	SurveyYear    *int          `json:"survey_year"`
	SurveyPayload SurveyPayload `json:"survey_payload"`
}

// HasSurvey reports whether a survey was joined. An empty payload still counts.
func (u UnitWithSurvey) HasSurvey() bool {
	return u.SurveyYear != nil
}

// SurveyMetric is a labelled numeric value taken from a survey payload.
type SurveyMetric struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// CurrentState is a unit with its latest weather, or nil weather when none was recorded.
type CurrentState struct {
	ID           uuid.UUID      `json:"id"`
	ExternalCode int            `json:"external_code"`
	Latitude     float64        `json:"latitude"`
	Longitude    float64        `json:"longitude"`
	Weather      *LatestWeather `json:"weather"`
}
