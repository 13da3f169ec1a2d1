package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/models"
	"github.com/SergeiKhy/blog-analytics/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type AnalyticsHandler struct {
	logs      service.LogQueryService
	retention service.RetentionSweeper
	stats     service.StatsService
	logger    *zap.Logger
}

func NewAnalyticsHandler(
	logs service.LogQueryService,
	retention service.RetentionSweeper,
	stats service.StatsService,
	logger *zap.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		logs:      logs,
		retention: retention,
		stats:     stats,
		logger:    logger,
	}
}

type ClearLogsResponse struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	DeletedCount int64     `json:"deletedCount"`
	CutoffDate   time.Time `json:"cutoffDate"`
}

type ClearLogsErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// GetLogs godoc
// @Summary List visitor logs
// @Description Paginated visitor log, newest first
// @Tags analytics
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(100)
// @Param path query string false "Path substring"
// @Param ip query string false "IP substring"
// @Param start query string false "Lower bound, RFC3339 or YYYY-MM-DD"
// @Param end query string false "Upper bound, RFC3339 or YYYY-MM-DD"
// @Success 200 {object} models.LogPage
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/logs [get]
func (h *AnalyticsHandler) GetLogs(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		badRequest(c, "invalid_page", err)
		return
	}
	limit, err := queryInt(c, "limit", service.DefaultLogLimit)
	if err != nil {
		badRequest(c, "invalid_limit", err)
		return
	}

	filters := models.LogFilters{
		Path: c.Query("path"),
		IP:   c.Query("ip"),
	}
	if filters.Start, err = queryTime(c, "start"); err != nil {
		badRequest(c, "invalid_start", err)
		return
	}
	if filters.End, err = queryTime(c, "end"); err != nil {
		badRequest(c, "invalid_end", err)
		return
	}

	result, err := h.logs.Query(c.Request.Context(), filters, page, limit)
	if err != nil {
		h.logger.Error("Failed to query logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to query logs",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ClearLogs godoc
// @Summary Delete old visitor logs
// @Description Deletes log records older than the given number of days; 0 clears everything
// @Tags analytics
// @Produce json
// @Param days query int false "Days to keep" default(30)
// @Success 200 {object} ClearLogsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ClearLogsErrorResponse
// @Router /api/logs/clear [delete]
func (h *AnalyticsHandler) ClearLogs(c *gin.Context) {
	days, err := queryInt(c, "days", service.DefaultRetentionDays)
	if err != nil {
		badRequest(c, "invalid_days", err)
		return
	}

	result, err := h.retention.Purge(c.Request.Context(), days)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRetention) {
			badRequest(c, "invalid_days", err)
			return
		}

		h.logger.Error("Failed to clear logs", zap.Int("days", days), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ClearLogsErrorResponse{
			Success: false,
			Message: "Failed to clear logs",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, ClearLogsResponse{
		Success:      true,
		Message:      fmt.Sprintf("Successfully deleted %d logs older than %d days", result.DeletedCount, days),
		DeletedCount: result.DeletedCount,
		CutoffDate:   result.CutoffDate,
	})
}

// GetStats godoc
// @Summary Visitor statistics
// @Description Visit counts by calendar window, top pages and top referrers
// @Tags analytics
// @Produce json
// @Success 200 {object} models.StatsSnapshot
// @Failure 403 {object} ErrorResponse
// @Router /api/stats [get]
func (h *AnalyticsHandler) GetStats(c *gin.Context) {
	snapshot, err := h.stats.Snapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to build stats",
		})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// queryInt целое из query, def если параметр не передан
func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

// queryTime время из query в RFC3339 или как дата YYYY-MM-DD (полночь UTC)
func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, dateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be RFC3339 or YYYY-MM-DD", key)
}

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}
