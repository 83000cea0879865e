package models

import "time"

// SystemMetrics aggregates runtime counters for the admin stats
// endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"avg_db_query_duration_ms"`
	MatchPasses              uint64    `json:"match_passes"`
	MatchesCreated           uint64    `json:"matches_created"`
	DuplicatesSuppressed     uint64    `json:"duplicates_suppressed"`
	NotificationsCreated     uint64    `json:"notifications_created"`
	ItemsExpired             uint64    `json:"items_expired"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
