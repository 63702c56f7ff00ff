package models

import "time"

// SystemMetrics is a lightweight aggregate snapshot served on the admin
// dashboard alongside the raw Prometheus endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ActivePreviews           int       `json:"active_previews"`
	AgreementsSigned         uint64    `json:"agreements_signed"`
	CorrectionsSubmitted     uint64    `json:"corrections_submitted"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
