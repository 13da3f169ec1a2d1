package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/models"
)

// VisitRepository журнал посещений: только добавление, выборка и удаление по условию
type VisitRepository interface {
	Create(ctx context.Context, record *models.VisitRecord) error
	Find(ctx context.Context, filter models.VisitFilter, limit, offset int) ([]models.VisitRecord, error)
	Count(ctx context.Context, filter models.VisitFilter) (int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	TopPaths(ctx context.Context, limit int) ([]models.PathCount, error)
	TopReferrers(ctx context.Context, limit int) ([]models.ReferrerCount, error)
}

type visitRepository struct {
	db *PostgresDB
}

func NewVisitRepository(db *PostgresDB) VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(ctx context.Context, record *models.VisitRecord) error {
	query := `
		INSERT INTO visitor_logs (ip_address, user_agent, path, referrer, visited_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		record.IPAddress,
		record.UserAgent,
		record.Path,
		record.Referrer,
		record.VisitedAt,
	).Scan(&record.ID)

	if err != nil {
		return fmt.Errorf("failed to record visit: %w", err)
	}

	return nil
}

func (r *visitRepository) Find(ctx context.Context, filter models.VisitFilter, limit, offset int) ([]models.VisitRecord, error) {
	where, args := buildVisitWhere(filter)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT id, ip_address, user_agent, path, referrer, visited_at
		FROM visitor_logs%s
		ORDER BY visited_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	records := make([]models.VisitRecord, 0, limit)
	for rows.Next() {
		var rec models.VisitRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.IPAddress,
			&rec.UserAgent,
			&rec.Path,
			&rec.Referrer,
			&rec.VisitedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visits: %w", err)
	}

	return records, nil
}

func (r *visitRepository) Count(ctx context.Context, filter models.VisitFilter) (int64, error) {
	where, args := buildVisitWhere(filter)

	var total int64
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM visitor_logs"+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}

	return total, nil
}

// DeleteBefore удаляет записи с visited_at строго раньше cutoff
func (r *visitRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	where, args := buildVisitWhere(models.VisitFilter{Before: &cutoff})

	result, err := r.db.Pool.Exec(ctx, "DELETE FROM visitor_logs"+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete visits: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *visitRepository) TopPaths(ctx context.Context, limit int) ([]models.PathCount, error) {
	query := `
		SELECT path, COUNT(*) AS visits
		FROM visitor_logs
		GROUP BY path
		ORDER BY visits DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular pages: %w", err)
	}
	defer rows.Close()

	pages := make([]models.PathCount, 0, limit)
	for rows.Next() {
		var pc models.PathCount
		if err := rows.Scan(&pc.Path, &pc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan popular page: %w", err)
		}
		pages = append(pages, pc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating popular pages: %w", err)
	}

	return pages, nil
}

func (r *visitRepository) TopReferrers(ctx context.Context, limit int) ([]models.ReferrerCount, error) {
	query := `
		SELECT referrer, COUNT(*) AS visits
		FROM visitor_logs
		WHERE referrer IS NOT NULL
		GROUP BY referrer
		ORDER BY visits DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top referrers: %w", err)
	}
	defer rows.Close()

	referrers := make([]models.ReferrerCount, 0, limit)
	for rows.Next() {
		var rc models.ReferrerCount
		if err := rows.Scan(&rc.Referrer, &rc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan referrer: %w", err)
		}
		referrers = append(referrers, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referrers: %w", err)
	}

	return referrers, nil
}

// buildVisitWhere собирает WHERE с нумерованными плейсхолдерами.
// strpos вместо LIKE: подстрока ищется буквально, без экранирования % и _.
func buildVisitWhere(filter models.VisitFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.PathContains != "" {
		add("strpos(path, $%d) > 0", filter.PathContains)
	}
	if filter.IPContains != "" {
		add("strpos(ip_address, $%d) > 0", filter.IPContains)
	}
	if filter.Since != nil {
		add("visited_at >= $%d", *filter.Since)
	}
	if filter.Until != nil {
		add("visited_at <= $%d", *filter.Until)
	}
	if filter.Before != nil {
		add("visited_at < $%d", *filter.Before)
	}

	if len(conds) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}
