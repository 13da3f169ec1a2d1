package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const serviceName = "blog-analytics"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthCheck godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/v1/health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
	})
}

// NotFound ответ для путей без обработчика. Страницы блога отдаются вне этого сервиса.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: "Resource not found",
	})
}
