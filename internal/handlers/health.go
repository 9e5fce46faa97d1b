package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"scriptvault/internal/contextutil"
	"scriptvault/internal/vault"
)

// CacheSizer reports how many entries a cache currently holds. The
// read-through store cache satisfies it.
type CacheSizer interface {
	Len() int
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	svc     vault.Service
	cache   CacheSizer // nil when caching is disabled
	started time.Time
}

// NewHealthHandler creates a new HealthHandler. cache may be nil.
func NewHealthHandler(svc vault.Service, cache CacheSizer) *HealthHandler {
	return &HealthHandler{
		svc:     svc,
		cache:   cache,
		started: time.Now(),
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "ok" or "degraded"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Time since the process started
	Uptime string `json:"uptime"`

	// Total number of stored scripts
	Scripts int `json:"scripts"`

	// Cache entry count (only present when caching is enabled)
	CacheSize *int `json:"cache_size,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
// Returns 200 OK when the storage backend answers, 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}

	httpStatus := http.StatusOK
	count, err := h.svc.CountScripts(ctx)
	if err != nil {
		logger.WarnContext(ctx, "storage health check failed", "error", err)
		response.Status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else {
		response.Scripts = count
	}

	if h.cache != nil {
		n := h.cache.Len()
		response.CacheSize = &n
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
