package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"agriweather/backend/libs/auth"
	"agriweather/backend/services/trigger-service/internal/http/handlers"
	"agriweather/backend/services/trigger-service/internal/jobs"
)

type fakeTrigger struct {
	triggered []string
}

func (f *fakeTrigger) Trigger(name string) error {
	if name == "survey-ingest" {
		return errors.Join(jobs.ErrJobRunning, errors.New(name))
	}
	if name != "weather-ingest" {
		return errors.Join(jobs.ErrUnknownJob, errors.New(name))
	}
	f.triggered = append(f.triggered, name)
	return nil
}

func newTestRouter(t *testing.T, tokens *auth.TokenService) (http.Handler, *fakeTrigger) {
	t.Helper()
	registry := jobs.NewRegistry()
	registry.Register(jobs.Job{Name: "weather-ingest", Schedule: "* * * * *"})
	trigger := &fakeTrigger{}
	h := handlers.NewJobsHandler(registry, trigger, zap.NewNop())
	routes := Routes{Jobs: h.List, RunJob: h.Run, Health: handlers.NewHealthHandler()}
	if tokens != nil {
		routes.Protect = auth.Middleware(tokens)
	}
	return NewRouter(routes), trigger
}

func TestJobsListed(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Jobs []jobs.Status `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Jobs) != 1 || body.Jobs[0].Name != "weather-ingest" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRunJob(t *testing.T) {
	router, trigger := newTestRouter(t, nil)

	cases := []struct {
		target string
		status int
	}{
		{"/jobs/run?name=weather-ingest", http.StatusAccepted},
		{"/jobs/run?name=nope", http.StatusNotFound},
		{"/jobs/run?name=survey-ingest", http.StatusConflict},
		{"/jobs/run", http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.target, nil))
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.target, tc.status, rec.Code)
		}
	}
	if len(trigger.triggered) != 1 {
		t.Fatalf("expected one trigger, got %v", trigger.triggered)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/run?name=weather-ingest", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestRunJobRequiresToken(t *testing.T) {
	tokens := auth.NewTokenService("secret", 0)
	router, trigger := newTestRouter(t, tokens)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/run?name=weather-ingest", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	token, err := tokens.GenerateToken("operator", "admin")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/jobs/run?name=weather-ingest", nil)
	req.Header.Set("Authorization", auth.BearerHeader(token))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted || len(trigger.triggered) != 1 {
		t.Fatalf("expected accepted run, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health must stay open, got %d", rec.Code)
	}
}
