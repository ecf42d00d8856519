package models

import "time"

// SystemMetrics is a JSON-friendly snapshot of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	RecomputesSucceeded      uint64    `json:"recomputes_succeeded"`
	RecomputesFailed         uint64    `json:"recomputes_failed"`
	AverageRecomputeMs       float64   `json:"average_recompute_ms"`
	SkippedRecords           uint64    `json:"skipped_records"`
	RecommendationsServed    uint64    `json:"recommendations_served"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
