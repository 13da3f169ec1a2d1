package handler

import (
	"net/http"

	"github.com/SergeiKhy/blog-analytics/internal/middleware"
	"github.com/SergeiKhy/blog-analytics/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SearchHandler struct {
	search service.SearchService
	gate   *middleware.SessionGate
	logger *zap.Logger
}

func NewSearchHandler(search service.SearchService, gate *middleware.SessionGate, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		search: search,
		gate:   gate,
		logger: logger,
	}
}

// Search godoc
// @Summary Search posts
// @Description Substring search over title, content and tags. admin=true includes drafts and requires a session
// @Tags posts
// @Produce json
// @Param q query string true "Search term, at least 2 characters"
// @Param admin query bool false "Include unpublished posts"
// @Success 200 {array} models.SearchResult
// @Failure 403 {object} ErrorResponse
// @Router /api/search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	admin := c.Query("admin") == "true"

	// сессия проверяется до обращения к хранилищу
	if admin && !h.gate.Check(c) {
		return
	}

	results, err := h.search.Search(c.Request.Context(), query, admin)
	if err != nil {
		h.logger.Error("Search failed", zap.String("query", query), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Search failed",
		})
		return
	}

	h.logger.Debug("Search completed",
		zap.String("query", query),
		zap.Bool("admin", admin),
		zap.Int("results", len(results)),
	)

	c.JSON(http.StatusOK, results)
}
