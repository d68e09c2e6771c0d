// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
)

// HealthHandler reports the inventory service's dependencies
type HealthHandler struct {
	db          ports.DatabaseHealth
	redis       *redis.Client
	asynq       *asynq.Inspector
	version     string
	environment string
	logger      *slog.Logger
	startTime   time.Time
}

// NewHealthHandler creates a new health handler. inspector may be nil when
// the task queue is not in use.
func NewHealthHandler(database ports.DatabaseHealth, redisClient *redis.Client, inspector *asynq.Inspector,
	version, environment string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:          database,
		redis:       redisClient,
		asynq:       inspector,
		version:     version,
		environment: environment,
		logger:      logger.With(slog.String("handler", "health")),
		startTime:   time.Now(),
	}
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo represents process-level information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

// Health handles GET /health. Any unhealthy dependency answers 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      statusHealthy,
		Version:     h.version,
		Environment: h.environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services: map[string]ServiceInfo{
			"database": h.checkDatabase(ctx),
			"redis":    h.checkRedis(ctx),
		},
		System: systemInfo(),
	}
	if h.asynq != nil {
		health.Services["asynq"] = h.checkAsynq(ctx)
	}

	for _, svc := range health.Services {
		if svc.Status != statusHealthy {
			health.Status = statusDegraded
		}
	}

	status := http.StatusOK
	if health.Status != statusHealthy {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, h.logger, status, health)
}

// Readiness handles GET /ready: database and redis answer a ping
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := map[string]string{"database": "ready", "redis": "ready"}

	if err := h.db.Ping(ctx); err != nil {
		ready = false
		details["database"] = "not ready"
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		ready = false
		details["redis"] = "not ready"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, h.logger, status, map[string]interface{}{
		"ready":   ready,
		"details": details,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	start := time.Now()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: statusUnhealthy, Message: err.Error()}
	}

	return ServiceInfo{
		Status:       statusHealthy,
		Details:      h.db.Health(ctx),
		ResponseTime: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkRedis(ctx context.Context) ServiceInfo {
	start := time.Now()

	pong, err := h.redis.Ping(ctx).Result()
	if err != nil {
		h.logger.ErrorContext(ctx, "redis health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: statusUnhealthy, Message: err.Error()}
	}

	stats := h.redis.PoolStats()
	return ServiceInfo{
		Status: statusHealthy,
		Details: map[string]interface{}{
			"ping":        pong,
			"total_conns": stats.TotalConns,
			"idle_conns":  stats.IdleConns,
			"stale_conns": stats.StaleConns,
		},
		ResponseTime: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkAsynq(ctx context.Context) ServiceInfo {
	start := time.Now()

	queues, err := h.asynq.Queues()
	if err != nil {
		h.logger.ErrorContext(ctx, "asynq health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: statusUnhealthy, Message: err.Error()}
	}

	queueStats := make(map[string]interface{}, len(queues))
	for _, queue := range queues {
		if q, err := h.asynq.GetQueueInfo(queue); err == nil {
			queueStats[queue] = map[string]interface{}{
				"size":     q.Size,
				"pending":  q.Pending,
				"active":   q.Active,
				"retry":    q.Retry,
				"archived": q.Archived,
			}
		}
	}

	details := map[string]interface{}{"queues": queueStats}
	if servers, err := h.asynq.Servers(); err == nil {
		details["workers"] = len(servers)
	}

	return ServiceInfo{
		Status:       statusHealthy,
		Details:      details,
		ResponseTime: time.Since(start).String(),
	}
}

func systemInfo() SystemInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemoryAllocMB: mem.Alloc / 1024 / 1024,
		NumGC:         mem.NumGC,
	}
}
