package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"jobboard/backend/internal/api/handlers"
	"jobboard/backend/internal/api/middleware"
	"jobboard/backend/internal/config"
	"jobboard/backend/internal/services"
	"jobboard/backend/internal/storage"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Инициализация логгера
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting job board backend...")

	// Инициализация базы данных
	db, err := storage.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx)
	cancel()
	if err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis необязателен
	var redisClient *storage.RedisClient
	if cfg.RedisAddress != "" {
		redisClient, err = storage.NewRedisClient(cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	files, err := newCVStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to init CV storage", zap.Error(err))
	}

	// Инициализация сервисов
	catalogService := services.NewCatalogService(db, redisClient, cfg.CacheTTL, logger)
	jobService := services.NewJobService(db, files, catalogService,
		services.JobServiceConfig{CatalogAutoCreate: cfg.CatalogAutoCreate}, logger)
	applicationService := services.NewApplicationService(db, files, logger)
	searchService := services.NewSearchService(db, logger)
	commentService := services.NewCommentService(db, logger)

	var sweeper *services.Sweeper
	if cfg.JobExpirySchedule != "" {
		sweeper, err = services.NewSweeper(db, cfg.JobExpirySchedule, logger)
		if err != nil {
			logger.Fatal("Failed to start deadline sweeper", zap.Error(err))
		}
		sweeper.Start()
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		DB:           db,
		Redis:        redisClient,
		Auth:         middleware.NewAuth(cfg.JWTSecret, logger),
		Jobs:         jobService,
		Applications: applicationService,
		Search:       searchService,
		Catalogs:     catalogService,
		Comments:     commentService,
		RateLimit:    cfg.RateLimit,
		Logger:       logger,
	})

	// Настройка сервера
	server := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     zap.NewStdLog(logger.Named("http")),
	}

	// Запуск сервера в горутине
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("address", cfg.ServerAddress),
			zap.String("env", cfg.Environment),
			zap.String("database", cfg.DatabaseDriver))

		if cfg.IsDevelopment() {
			serverErrors <- server.ListenAndServe()
		} else {
			serverErrors <- server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		}
	}()

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("Server failed to start", zap.Error(err))

	case sig := <-shutdown:
		logger.Info("Shutdown signal received",
			zap.String("signal", sig.String()))

		// Даем время на завершение текущих запросов
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Error("Force shutdown failed", zap.Error(err))
			}
		}

		if sweeper != nil {
			sweeper.Stop()
		}

		logger.Info("Server stopped gracefully")
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newCVStore диск или S3/MinIO по CV_STORAGE
func newCVStore(cfg *config.Config, logger *zap.Logger) (storage.CVStore, error) {
	if cfg.CVStorage == "s3" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewMinioStore(ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
			cfg.S3.Bucket, cfg.S3.UseSSL, logger)
	}
	return storage.NewDiskStore(cfg.CVStorageDir, logger)
}
