package api

import (
	"database/sql"
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the body of GET /metrics.
type SystemMetrics struct {
	Timestamp     string              `json:"timestamp"`
	Version       string              `json:"version"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	Runtime       RuntimeMetrics      `json:"runtime"`
	Integrations  IntegrationMetrics  `json:"integrations"`
	RateLimiter   *RateLimiterMetrics `json:"rate_limiter,omitempty"`
	Database      *DatabaseMetrics    `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// IntegrationMetrics reports the optional outbound integrations.
type IntegrationMetrics struct {
	EventsEnabled    bool `json:"events_enabled"`
	EventsConnected  bool `json:"events_connected"`
	MetricsEnabled   bool `json:"metrics_enabled"`
	MetricsConnected bool `json:"metrics_connected"`
	AuditQueued      int  `json:"audit_queued"`
}

// RateLimiterMetrics reports the login limiter.
type RateLimiterMetrics struct {
	TrackedClients int `json:"tracked_clients"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// connectivity is implemented by the MQTT and InfluxDB clients.
type connectivity interface {
	IsConnected() bool
}

// poolStats is implemented by *database.DB through the embedded *sql.DB.
type poolStats interface {
	Stats() sql.DBStats
}

// handleMetrics returns process, integration and database statistics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Integrations: IntegrationMetrics{
			EventsEnabled:  s.events != nil,
			MetricsEnabled: s.metrics != nil,
			AuditQueued:    len(s.auditCh),
		},
	}

	if c, ok := s.events.(connectivity); ok {
		metrics.Integrations.EventsConnected = c.IsConnected()
	}
	if c, ok := s.metrics.(connectivity); ok {
		metrics.Integrations.MetricsConnected = c.IsConnected()
	}

	if s.loginLimiter != nil {
		s.loginLimiter.mu.Lock()
		metrics.RateLimiter = &RateLimiterMetrics{TrackedClients: len(s.loginLimiter.visitors)}
		s.loginLimiter.mu.Unlock()
	}

	if p, ok := s.db.(poolStats); ok {
		st := p.Stats()
		metrics.Database = &DatabaseMetrics{
			OpenConnections: st.OpenConnections,
			InUse:           st.InUse,
			Idle:            st.Idle,
			WaitCount:       st.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
