package models

// VisitorCounts количество посещений по календарным окнам
type VisitorCounts struct {
	Today     int64 `json:"today"`
	Yesterday int64 `json:"yesterday"`
	Week      int64 `json:"week"`
	Month     int64 `json:"month"`
	Total     int64 `json:"total"`
}

type PathCount struct {
	Path  string `json:"path"`
	Count int64  `json:"count"`
}

type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int64  `json:"count"`
}

// StatsSnapshot сводная статистика, вычисляется на лету и не хранится
type StatsSnapshot struct {
	Visitors     VisitorCounts   `json:"visitors"`
	PopularPages []PathCount     `json:"popularPages"`
	TopReferrers []ReferrerCount `json:"topReferrers"`
}
