package api

import (
	"context"
	"net/http"
	"runtime"
	"time"
)

// healthCheckTimeout bounds the database ping in /health.
const healthCheckTimeout = 2 * time.Second

// Dependency states reported by /health.
const (
	checkOK       = "ok"
	checkDown     = "down"
	checkDisabled = "disabled"
)

// SystemMetrics is the /system/metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptimeSeconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Database      DatabaseMetrics `json:"database"`
	Sessions      SessionMetrics  `json:"sessions"`
	MQTT          LinkMetrics     `json:"mqtt"`
	InfluxDB      LinkMetrics     `json:"influxdb"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memoryAllocMb"`
	MemoryTotalMB float64 `json:"memoryTotalMb"`
	NumGC         uint32  `json:"numGc"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"openConnections"`
	InUse           int   `json:"inUse"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"waitCount"`
}

// SessionMetrics counts live session rows.
type SessionMetrics struct {
	Active int `json:"active"`
}

// LinkMetrics reports an optional outbound connection.
type LinkMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// handleHealth reports the state of the database and the optional MQTT and
// InfluxDB links. Only a database failure makes the service unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{
		"database": checkOK,
		"mqtt":     linkState(s.mqtt != nil, s.mqtt.IsConnected()),
		"influxdb": linkState(s.influx != nil, s.influx.IsConnected()),
	}

	status, code := "ok", http.StatusOK
	if err := s.db.HealthCheck(ctx); err != nil {
		s.logger.Warn("database health check failed", "error", err)
		checks["database"] = checkDown
		status, code = "unavailable", http.StatusServiceUnavailable
	} else if checks["mqtt"] == checkDown || checks["influxdb"] == checkDown {
		status = "degraded"
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}

func linkState(enabled, connected bool) string {
	switch {
	case !enabled:
		return checkDisabled
	case connected:
		return checkOK
	default:
		return checkDown
	}
}

// handleSystemMetrics returns runtime, pool and session statistics.
func (s *Server) handleSystemMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	active, err := s.sessions.Count(r.Context())
	if err != nil {
		s.logger.Error("counting sessions failed", "error", err)
		writeInternalError(w, "failed to collect metrics", err)
		return
	}

	dbStats := s.db.Stats()
	writeJSON(w, http.StatusOK, SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Database: DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		},
		Sessions: SessionMetrics{Active: active},
		MQTT:     LinkMetrics{Enabled: s.mqtt != nil, Connected: s.mqtt.IsConnected()},
		InfluxDB: LinkMetrics{Enabled: s.influx != nil, Connected: s.influx.IsConnected()},
	})
}
