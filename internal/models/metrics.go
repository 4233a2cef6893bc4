package models

import "time"

// SystemMetrics is an aggregated snapshot for the admin dashboard.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	MatchingRuns             uint64    `json:"matching_runs"`
	ServiceTransitions       uint64    `json:"service_transitions"`
	SensorAlerts             uint64    `json:"sensor_alerts"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
