package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/metrics"
	"github.com/SergeiKhy/blog-analytics/internal/models"
	"github.com/SergeiKhy/blog-analytics/internal/repository"
	"go.uber.org/zap"
)

// DefaultRetentionDays срок хранения журнала, если в запросе не указан
const DefaultRetentionDays = 30

var ErrInvalidRetention = errors.New("retention days must not be negative")

type RetentionSweeper interface {
	// Purge удаляет записи старше olderThanDays дней. 0 - удалить всё до текущего момента.
	Purge(ctx context.Context, olderThanDays int) (*models.PurgeResult, error)
	// RunSchedule периодически вызывает Purge, пока ctx не отменён
	RunSchedule(ctx context.Context, interval time.Duration, olderThanDays int)
}

type retentionSweeper struct {
	repo    repository.VisitRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     Clock
}

func NewRetentionSweeper(repo repository.VisitRepository, m *metrics.Metrics, opts ...Option) RetentionSweeper {
	if m == nil {
		m = metrics.NewNop()
	}
	o := applyOptions(opts)
	return &retentionSweeper{
		repo:    repo,
		metrics: m,
		logger:  o.logger,
		now:     o.now,
	}
}

func (s *retentionSweeper) Purge(ctx context.Context, olderThanDays int) (*models.PurgeResult, error) {
	if olderThanDays < 0 {
		return nil, ErrInvalidRetention
	}

	// календарные дни: переход на летнее время не сдвигает час отсечки
	cutoff := s.now().AddDate(0, 0, -olderThanDays)

	deleted, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to purge logs: %w", err)
	}

	s.metrics.Purged.Add(float64(deleted))
	s.logger.Info("Журнал посещений очищен",
		zap.Int("days", olderThanDays),
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
	)

	return &models.PurgeResult{
		DeletedCount: deleted,
		CutoffDate:   cutoff,
	}, nil
}

func (s *retentionSweeper) RunSchedule(ctx context.Context, interval time.Duration, olderThanDays int) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Плановая очистка журнала запущена",
		zap.Duration("interval", interval),
		zap.Int("days", olderThanDays),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Плановая очистка журнала остановлена")
			return
		case <-ticker.C:
			if _, err := s.Purge(ctx, olderThanDays); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("Плановая очистка журнала не удалась", zap.Error(err))
			}
		}
	}
}
