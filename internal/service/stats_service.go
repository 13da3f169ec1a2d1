package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/models"
	"github.com/SergeiKhy/blog-analytics/internal/repository"
	"golang.org/x/sync/errgroup"
)

// TopLimit размер топов страниц и источников
const TopLimit = 10

type StatsService interface {
	Snapshot(ctx context.Context) (*models.StatsSnapshot, error)
}

type statsService struct {
	repo repository.VisitRepository
	loc  *time.Location
	now  Clock
}

// NewStatsService создаёт агрегатор статистики. Окна считаются от полуночи в loc (nil - time.Local).
func NewStatsService(repo repository.VisitRepository, loc *time.Location, opts ...Option) StatsService {
	if loc == nil {
		loc = time.Local
	}
	o := applyOptions(opts)
	return &statsService{
		repo: repo,
		loc:  loc,
		now:  o.now,
	}
}

func (s *statsService) Snapshot(ctx context.Context) (*models.StatsSnapshot, error) {
	now := s.now().In(s.loc)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -7)
	monthStart := todayStart.AddDate(0, -1, 0)

	var snapshot models.StatsSnapshot

	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int64, filter models.VisitFilter) {
		g.Go(func() error {
			n, err := s.repo.Count(ctx, filter)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	count(&snapshot.Visitors.Today, models.VisitFilter{Since: &todayStart})
	count(&snapshot.Visitors.Yesterday, models.VisitFilter{Since: &yesterdayStart, Before: &todayStart})
	count(&snapshot.Visitors.Week, models.VisitFilter{Since: &weekStart})
	count(&snapshot.Visitors.Month, models.VisitFilter{Since: &monthStart})
	count(&snapshot.Visitors.Total, models.VisitFilter{})

	g.Go(func() error {
		pages, err := s.repo.TopPaths(ctx, TopLimit)
		if err != nil {
			return err
		}
		snapshot.PopularPages = pages
		return nil
	})

	g.Go(func() error {
		referrers, err := s.repo.TopReferrers(ctx, TopLimit)
		if err != nil {
			return err
		}
		// пустая строка в referrer не считается источником
		filtered := make([]models.ReferrerCount, 0, len(referrers))
		for _, r := range referrers {
			if r.Referrer != "" {
				filtered = append(filtered, r)
			}
		}
		snapshot.TopReferrers = filtered
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build stats: %w", err)
	}

	if snapshot.PopularPages == nil {
		snapshot.PopularPages = []models.PathCount{}
	}

	return &snapshot, nil
}
