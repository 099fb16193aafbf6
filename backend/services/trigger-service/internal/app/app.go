package app

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agriweather/backend/libs/auth"
	"agriweather/backend/services/trigger-service/internal/config"
	httpserver "agriweather/backend/services/trigger-service/internal/http"
	"agriweather/backend/services/trigger-service/internal/http/handlers"
	"agriweather/backend/services/trigger-service/internal/jobs"
	"agriweather/backend/services/trigger-service/internal/scheduler"
)

// App wires trigger-service dependencies.
type App struct {
	server    *httpserver.Server
	scheduler *scheduler.Scheduler
	logger    *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	var (
		token   jobs.TokenFunc
		protect func(http.Handler) http.Handler
	)
	if cfg.Auth.Secret != "" {
		tokens := auth.NewTokenService(cfg.Auth.Secret, 0)
		subject := cfg.Auth.Subject
		token = func() (string, error) {
			return tokens.GenerateToken(subject, "service")
		}
		protect = auth.Middleware(tokens)
	} else {
		logger.Warn("auth secret not set, ingestion calls are unauthenticated")
	}

	runner := jobs.NewRunner(
		&http.Client{Timeout: cfg.Client.Timeout},
		token,
		jobs.BreakerSettings{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			OpenTimeout:      cfg.Breaker.OpenTimeout,
		},
		jobs.NewRegistry(),
		logger,
	)

	sched := scheduler.New(runner, logger)
	for _, job := range cfg.Jobs {
		if err := sched.Add(job); err != nil {
			return nil, err
		}
		runner.Register(job)
	}

	jobsHandler := handlers.NewJobsHandler(runner.Registry(), sched, logger)
	router := httpserver.NewRouter(httpserver.Routes{
		Jobs:    jobsHandler.List,
		RunJob:  jobsHandler.Run,
		Health:  handlers.NewHealthHandler(),
		Protect: protect,
	})

	return &App{
		server:    httpserver.NewServer(cfg.HTTPAddress(), router, logger),
		scheduler: sched,
		logger:    logger,
	}, nil
}

// Run starts HTTP server and scheduler.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("trigger service started", zap.Int("jobs", a.scheduler.Len()))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Run(gctx)
	})
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	return g.Wait()
}
