package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"jobboard/backend/internal/api/middleware"
	"jobboard/backend/internal/services"
	"jobboard/backend/internal/storage"
	"jobboard/backend/pkg/utils"
)

// Version версия API в health check
const Version = "1.0.0"

// RouterDeps зависимости HTTP слоя
type RouterDeps struct {
	DB           *storage.Database
	Redis        *storage.RedisClient // nil - без кэша и rate limit
	Auth         *middleware.Auth
	Jobs         *services.JobService
	Applications *services.ApplicationService
	Search       *services.SearchService
	Catalogs     *services.CatalogService
	Comments     *services.CommentService
	RateLimit    int // запросов в минуту на пользователя, 0 - без ограничения
	Logger       *zap.Logger
}

// NewRouter собирает chi роутер со всеми маршрутами
func NewRouter(d RouterDeps) chi.Router {
	jobHandler := NewJobHandler(d.Jobs, d.Comments, d.Logger)
	applicationHandler := NewApplicationHandler(d.Applications, d.Logger)
	searchHandler := NewSearchHandler(d.Search, d.Catalogs, d.Logger)

	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(d.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(chimiddleware.Compress(5))

	r.Get("/health", healthHandler(d.DB, d.Redis, d.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(d.Auth.Middleware)
		if d.Redis != nil && d.RateLimit > 0 {
			r.Use(middleware.RateLimitMiddleware(d.Redis, d.RateLimit, time.Minute, d.Logger))
		}

		r.Mount("/jobs", jobHandler.Routes())
		r.Mount("/applications", applicationHandler.Routes())
		searchHandler.Register(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteMessage(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

func healthHandler(db *storage.Database, redis *storage.RedisClient, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "healthy"
		servicesStatus := map[string]string{
			"server":  "running",
			"version": Version,
		}

		// Проверка базы данных
		if err := db.HealthCheck(ctx); err == nil {
			servicesStatus["database"] = "healthy"
		} else {
			servicesStatus["database"] = "unhealthy"
			status = "unhealthy"
			logger.Error("Database health check failed", zap.Error(err))
		}

		// Redis необязателен: без него отключены кэш и rate limit
		switch {
		case redis == nil:
			servicesStatus["redis"] = "not_configured"
		case redis.HealthCheck(ctx) == nil:
			servicesStatus["redis"] = "healthy"
		default:
			servicesStatus["redis"] = "unhealthy"
			logger.Warn("Redis health check failed")
		}

		utils.WriteHealthCheck(w, status, servicesStatus)
	}
}
