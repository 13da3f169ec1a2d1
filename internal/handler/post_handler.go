package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SergeiKhy/blog-analytics/internal/middleware"
	"github.com/SergeiKhy/blog-analytics/internal/models"
	"github.com/SergeiKhy/blog-analytics/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PostHandler struct {
	posts  repository.PostRepository
	gate   *middleware.SessionGate
	logger *zap.Logger
}

func NewPostHandler(posts repository.PostRepository, gate *middleware.SessionGate, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		posts:  posts,
		gate:   gate,
		logger: logger,
	}
}

// GetPost godoc
// @Summary Get a post
// @Description Returns a post with decoded tags. Unpublished posts require a session
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Post not found",
		})
		return
	}

	post, err := h.posts.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Post not found",
			})
			return
		}

		h.logger.Error("Failed to get post", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get post",
		})
		return
	}

	if !post.Published && !h.gate.Check(c) {
		return
	}

	tags, err := models.DecodeTags(post.Tags)
	if err != nil {
		h.logger.Warn("Failed to decode post tags", zap.Int64("id", id), zap.Error(err))
		tags = []string{}
	}

	c.JSON(http.StatusOK, models.PostView{Post: *post, Tags: tags})
}
