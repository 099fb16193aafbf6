package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"agriweather/backend/services/trigger-service/internal/jobs"
)

// StatusSource lists job run statuses.
type StatusSource interface {
	Snapshot() []jobs.Status
}

// Trigger starts a job run out of schedule.
type Trigger interface {
	Trigger(name string) error
}

// JobsHandler serves job status and manual runs.
type JobsHandler struct {
	statuses StatusSource
	trigger  Trigger
	logger   *zap.Logger
}

// NewJobsHandler returns handler.
func NewJobsHandler(statuses StatusSource, trigger Trigger, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{statuses: statuses, trigger: trigger, logger: logger}
}

// List returns every job with its last outcome.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": h.statuses.Snapshot(),
	})
}

// Run queues an immediate run of the job named by ?name=.
func (h *JobsHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := h.trigger.Trigger(name); err != nil {
		if errors.Is(err, jobs.ErrUnknownJob) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		if errors.Is(err, jobs.ErrJobRunning) {
			writeError(w, http.StatusConflict, "job already running")
			return
		}
		h.logger.Warn("manual run rejected", zap.String("job", name), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "scheduler stopping")
		return
	}
	h.logger.Info("manual run queued", zap.String("job", name))
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "job": name})
}
