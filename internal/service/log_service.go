package service

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/blog-analytics/internal/models"
	"github.com/SergeiKhy/blog-analytics/internal/repository"
)

// Параметры пагинации журнала
const (
	DefaultLogLimit    = 100
	DefaultLogMaxLimit = 500
)

type LogQueryService interface {
	Query(ctx context.Context, filters models.LogFilters, page, limit int) (*models.LogPage, error)
}

type logQueryService struct {
	repo     repository.VisitRepository
	maxLimit int
}

// NewLogQueryService создаёт сервис чтения журнала. maxLimit <= 0 - значение по умолчанию.
func NewLogQueryService(repo repository.VisitRepository, maxLimit int) LogQueryService {
	if maxLimit <= 0 {
		maxLimit = DefaultLogMaxLimit
	}
	return &logQueryService{
		repo:     repo,
		maxLimit: maxLimit,
	}
}

// Query возвращает страницу журнала, новые записи первыми
func (s *logQueryService) Query(ctx context.Context, filters models.LogFilters, page, limit int) (*models.LogPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLogLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	filter := models.VisitFilter{
		PathContains: filters.Path,
		IPContains:   filters.IP,
		Since:        filters.Start,
		Until:        filters.End,
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count logs: %w", err)
	}

	logs, err := s.repo.Find(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}

	return &models.LogPage{
		Logs: logs,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
		},
	}, nil
}
