package models

import (
	"time"
)

// VisitRecord запись журнала посещений. После записи не изменяется.
type VisitRecord struct {
	ID        int64     `json:"id"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	Path      string    `json:"path"`
	Referrer  *string   `json:"referrer"`
	VisitedAt time.Time `json:"visitedAt"`
}

// VisitEvent данные запроса, принятого к учёту. VisitedAt назначается при записи.
type VisitEvent struct {
	IPAddress string
	UserAgent string
	Path      string
	Referrer  *string
}

// VisitFilter условия выборки из журнала, все поля объединяются через AND
type VisitFilter struct {
	PathContains string
	IPContains   string
	Since        *time.Time // visited_at >= Since
	Until        *time.Time // visited_at <= Until
	Before       *time.Time // visited_at < Before
}

// LogFilters фильтры запроса журнала из админки
type LogFilters struct {
	Path  string
	IP    string
	Start *time.Time
	End   *time.Time
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type LogPage struct {
	Logs       []VisitRecord `json:"logs"`
	Pagination Pagination    `json:"pagination"`
}

// PurgeResult результат очистки журнала
type PurgeResult struct {
	DeletedCount int64
	CutoffDate   time.Time
}
