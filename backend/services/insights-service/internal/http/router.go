package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"agriweather/backend/services/insights-service/internal/http/handlers"
)

// Routes groups handlers.
type Routes struct {
	Insights       *handlers.InsightsHandler
	Stream         http.Handler
	Health         http.HandlerFunc
	Login          http.HandlerFunc
	Auth           func(http.Handler) http.Handler
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if routes.Logger != nil {
		r.Use(requestLogger(routes.Logger))
	}

	origins := routes.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	if routes.Health != nil {
		r.Get("/health", routes.Health)
	}
	if routes.Login != nil {
		r.Post("/auth/token", routes.Login)
	}

	r.Group(func(pr chi.Router) {
		if routes.Auth != nil {
			pr.Use(routes.Auth)
		}

		if h := routes.Insights; h != nil {
			pr.Route("/api", func(api chi.Router) {
				api.Get("/units", h.ListUnits)
				api.Get("/units/{id}/observations", h.ObservationHistory)
				api.Get("/units/by-code/{code}/survey-metrics", h.SurveyMetrics)
				api.Get("/weather/latest", h.LatestWeather)
				api.Get("/current-state", h.CurrentState)
				api.Get("/surveys/latest", h.LatestSurveys)
			})
		}

		if routes.Stream != nil {
			pr.Method(http.MethodGet, "/ws/current-state", routes.Stream)
		}
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
