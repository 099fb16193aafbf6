package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trigger.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsToIngestionJobs(t *testing.T) {
	cfg, err := LoadFrom("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Jobs) != 2 || cfg.Jobs[0].Name != "weather-ingest" || cfg.Jobs[1].Name != "survey-ingest" {
		t.Fatalf("unexpected jobs %+v", cfg.Jobs)
	}
	if cfg.HTTPAddress() != ":8086" || cfg.Breaker.FailureThreshold != 5 || cfg.Client.Timeout != 30*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadJobsFromFile(t *testing.T) {
	path := writeFile(t, `
jobs:
  - name: weather-ingest
    schedule: "*/2 * * * *"
    method: post
    url: http://weather:8080/ingest
    retries: 3
    retryDelay: 30s
`)
	t.Setenv("TRIGGER_HTTP_PORT", "9000")
	t.Setenv("TRIGGER_BREAKER_OPEN_TIMEOUT", "2m")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Jobs) != 1 {
		t.Fatalf("file jobs must replace defaults, got %+v", cfg.Jobs)
	}
	job := cfg.Jobs[0]
	if job.Method != "POST" || job.Retries != 3 || job.RetryDelay != 30*time.Second {
		t.Fatalf("unexpected job %+v", job)
	}
	if cfg.HTTPAddress() != ":9000" || cfg.Breaker.OpenTimeout != 2*time.Minute {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidJob(t *testing.T) {
	path := writeFile(t, `
jobs:
  - name: broken
    schedule: "* * * * *"
    method: DELETE
    url: http://weather:8080/ingest
`)
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected validation error")
	}
}
