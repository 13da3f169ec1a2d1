package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/config"
	"github.com/SergeiKhy/blog-analytics/internal/handler"
	"github.com/SergeiKhy/blog-analytics/internal/metrics"
	"github.com/SergeiKhy/blog-analytics/internal/middleware"
	"github.com/SergeiKhy/blog-analytics/internal/repository"
	"github.com/SergeiKhy/blog-analytics/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", ".env", "path to .env file")
	flag.Parse()

	// Загрузка конфига
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.App.AutoMigrate {
		if err := repository.MigrateUp(cfg.DB); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		logger.Info("Migrations applied")
	}

	// Подключение к БД (postgres)
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	loc, err := cfg.Analytics.Location()
	if err != nil {
		logger.Fatal("Invalid stats timezone", zap.Error(err))
	}

	m := metrics.New(nil)
	opts := []service.Option{service.WithLogger(logger)}

	// Окно дедупликации: в памяти процесса или общее в Redis
	var window service.DedupWindow
	switch cfg.Analytics.DedupBackend {
	case config.DedupBackendRedis:
		redis, err := repository.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redis.Close() }()
		logger.Info("Connected to Redis")

		window = service.NewRedisDedupWindow(repository.NewDedupRepository(redis), cfg.Analytics.DedupTTL, opts...)
	default:
		window = service.NewMemoryDedupWindow(cfg.Analytics.DedupTTL, opts...)
	}
	defer window.Close()

	// Инициализация репозиториев
	visitRepo := repository.NewVisitRepository(db)
	postRepo := repository.NewPostRepository(db)

	// Запись посещений (Worker Pool)
	recorder := service.NewVisitRecorder(visitRepo, service.RecorderConfig{
		Workers: cfg.Analytics.RecorderWorkers,
		Buffer:  cfg.Analytics.RecorderBuffer,
	}, m, opts...)
	recorder.Start()
	defer recorder.Stop()

	retention := service.NewRetentionSweeper(visitRepo, m, opts...)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go retention.RunSchedule(bgCtx, cfg.Analytics.RetentionInterval, cfg.Analytics.RetentionDays)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
	})
	defer rateLimiter.Stop()

	validator := service.NewSessionValidator(cfg.Auth.SessionSecret)

	// Настройка роутера
	router := handler.NewRouter(handler.Dependencies{
		Logs:        service.NewLogQueryService(visitRepo, cfg.Analytics.LogQueryMaxLimit),
		Retention:   retention,
		Stats:       service.NewStatsService(visitRepo, loc, opts...),
		Search:      service.NewSearchService(postRepo, opts...),
		Posts:       postRepo,
		Visits:      middleware.NewVisitLogger(window, recorder, m),
		Sessions:    middleware.NewSessionGate(validator, cfg.Auth.SessionCookie, logger),
		RateLimiter: rateLimiter,
		Logger:      logger,
	})

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// отложенные вызовы дописывают очередь посещений до закрытия пула БД
	logger.Info("Server exited")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
