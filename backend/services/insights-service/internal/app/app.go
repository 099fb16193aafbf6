package app

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agriweather/backend/libs/auth"
	libdb "agriweather/backend/libs/db"
	libredis "agriweather/backend/libs/redis"
	"agriweather/backend/services/insights-service/internal/cache"
	"agriweather/backend/services/insights-service/internal/config"
	httpserver "agriweather/backend/services/insights-service/internal/http"
	"agriweather/backend/services/insights-service/internal/http/handlers"
	"agriweather/backend/services/insights-service/internal/models"
	"agriweather/backend/services/insights-service/internal/repository"
	"agriweather/backend/services/insights-service/internal/service"
	"agriweather/backend/services/insights-service/internal/ws"
)

// App wires insights-service dependencies.
type App struct {
	server      *httpserver.Server
	hub         *ws.Hub
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	sqlDB, err := libdb.NewPostgresDBWithOptions(dsn, libdb.Options{MaxOpenConns: cfg.Database.MaxOpenConns})
	if err != nil {
		return nil, err
	}

	var (
		redisClient  *redis.Client
		cacheBackend cache.Backend
	)
	if cfg.Redis.Enabled {
		redisClient, err = libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		cacheBackend = cache.NewRedisBackend(redisClient)
	} else {
		logger.Info("redis disabled, views are read through")
	}
	viewCache := cache.New(cacheBackend, cfg.CacheTTL(), logger)

	insights := service.NewInsightsService(
		repository.NewUnitRepository(sqlDB),
		repository.NewObservationRepository(sqlDB),
		repository.NewSurveyRepository(sqlDB),
		cfg.QueryTimeout(),
		logger,
	)

	hub := ws.NewHub(func(ctx context.Context) ([]models.CurrentState, error) {
		return cache.Load(ctx, viewCache, cache.Key(handlers.ViewCurrentState), insights.MergedCurrentState)
	}, cfg.StreamInterval(), logger)

	var (
		authMW func(http.Handler) http.Handler
		login  http.HandlerFunc
	)
	if cfg.Auth.Secret != "" {
		tokens := auth.NewTokenService(cfg.Auth.Secret, 0)
		authMW = auth.Middleware(tokens)
		if len(cfg.Auth.Operators) > 0 {
			login = handlers.NewTokenHandler(auth.NewOperators(cfg.Auth.Operators, tokens).Login)
		}
	} else {
		logger.Warn("auth secret not set, api is open")
	}

	routes := httpserver.Routes{
		Insights:       handlers.NewInsightsHandler(insights, viewCache, logger),
		Stream:         hub,
		Health:         handlers.NewHealthHandler(),
		Login:          login,
		Auth:           authMW,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Logger:         logger,
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		hub:         hub,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts HTTP server and stream hub.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Run(gctx)
	})
	g.Go(func() error {
		return a.hub.Run(gctx)
	})
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
