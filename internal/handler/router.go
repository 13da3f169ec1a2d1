package handler

import (
	"github.com/SergeiKhy/blog-analytics/internal/middleware"
	"github.com/SergeiKhy/blog-analytics/internal/repository"
	"github.com/SergeiKhy/blog-analytics/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies сервисы и middleware, из которых собирается роутер
type Dependencies struct {
	Logs        service.LogQueryService
	Retention   service.RetentionSweeper
	Stats       service.StatsService
	Search      service.SearchService
	Posts       repository.PostRepository
	Visits      *middleware.VisitLogger
	Sessions    *middleware.SessionGate
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))

	// Учёт посещений до маршрутизации: страницы блога обрабатываются вне этого роутера
	router.Use(deps.Visits.Middleware())

	analyticsHandler := NewAnalyticsHandler(deps.Logs, deps.Retention, deps.Stats, logger)
	searchHandler := NewSearchHandler(deps.Search, deps.Sessions, logger)
	postHandler := NewPostHandler(deps.Posts, deps.Sessions, logger)

	router.GET("/api/v1/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Middleware())
	}
	{
		api.GET("/search", searchHandler.Search)
		api.GET("/posts/:id", postHandler.GetPost)

		// API админки
		admin := api.Group("", deps.Sessions.Require())
		admin.GET("/logs", analyticsHandler.GetLogs)
		admin.DELETE("/logs/clear", analyticsHandler.ClearLogs)
		admin.GET("/stats", analyticsHandler.GetStats)
	}

	router.NoRoute(NotFound)

	return router
}
