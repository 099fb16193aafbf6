package jobs

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Job is one scheduled ingestion call.
type Job struct {
	Name       string        `yaml:"name" json:"name" validate:"required,max=64"`
	Schedule   string        `yaml:"schedule" json:"schedule" validate:"required"`
	Method     string        `yaml:"method" json:"method" validate:"required,oneof=GET POST PUT"`
	URL        string        `yaml:"url" json:"url" validate:"required,url"`
	Body       string        `yaml:"body" json:"body,omitempty" validate:"omitempty,json"`
	Retries    int           `yaml:"retries" json:"retries" validate:"gte=0,lte=10"`
	RetryDelay time.Duration `yaml:"retryDelay" json:"retry_delay" validate:"gte=0"`
}

// Ingestion defaults.
const (
	DefaultRetries    = 1
	DefaultRetryDelay = time.Minute

	surveyArchiveURL = "https://agreste.agriculture.gouv.fr/agreste-web/download/service/SV-Accès micro données RICA/RicaMicrodonnées2023_v2.zip"
	surveyCSVName    = "Rica_France_micro_Donnees_ex2023.csv"
)

// DefaultJobs returns the weather and survey ingestion jobs.
func DefaultJobs() []Job {
	return []Job{
		{
			Name:       "weather-ingest",
			Schedule:   "* * * * *",
			Method:     "POST",
			URL:        "http://weather-ingestor:8080/ingest",
			Retries:    DefaultRetries,
			RetryDelay: DefaultRetryDelay,
		},
		{
			Name:       "survey-ingest",
			Schedule:   "*/5 * * * *",
			Method:     "POST",
			URL:        "http://agreste-ingestor:8080/ingest",
			Body:       fmt.Sprintf(`{"zipUrl": %q, "csvFileName": %q}`, surveyArchiveURL, surveyCSVName),
			Retries:    DefaultRetries,
			RetryDelay: DefaultRetryDelay,
		},
	}
}

var validate = validator.New()

// Normalize upper-cases the method and trims fields.
func (j Job) Normalize() Job {
	j.Name = strings.TrimSpace(j.Name)
	j.Schedule = strings.TrimSpace(j.Schedule)
	j.Method = strings.ToUpper(strings.TrimSpace(j.Method))
	j.URL = strings.TrimSpace(j.URL)
	j.Body = strings.TrimSpace(j.Body)
	return j
}

// Validate checks the job definition including its cron expression.
func (j Job) Validate() error {
	if err := validate.Struct(j); err != nil {
		return fmt.Errorf("job %q: %w", j.Name, err)
	}
	if _, err := cron.ParseStandard(j.Schedule); err != nil {
		return fmt.Errorf("job %q: schedule: %w", j.Name, err)
	}
	return nil
}

// ValidateAll normalizes and validates jobs and rejects duplicate names.
func ValidateAll(list []Job) ([]Job, error) {
	seen := make(map[string]bool, len(list))
	out := make([]Job, 0, len(list))
	for _, j := range list {
		j = j.Normalize()
		if err := j.Validate(); err != nil {
			return nil, err
		}
		if seen[j.Name] {
			return nil, fmt.Errorf("job %q: duplicate name", j.Name)
		}
		seen[j.Name] = true
		out = append(out, j)
	}
	return out, nil
}
