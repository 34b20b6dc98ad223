package handlers

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/sblp/sblpd/internal/errors"
)

// HealthResponse represents the aggregate health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProbeResponse represents an individual probe response
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker defines the interface for health checkable components
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthManager manages health checks and probe states
type HealthManager struct {
	checkers map[string]HealthChecker
	version  string
}

// NewHealthManager creates a new health manager
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]HealthChecker),
		version:  version,
	}
}

// RegisterChecker registers a health checker
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.checkers[name] = checker
}

func (hm *HealthManager) runHealthChecks(ctx context.Context) map[string]string {
	checks := make(map[string]string)

	for name, checker := range hm.checkers {
		select {
		case <-ctx.Done():
			checks[name] = "timeout"
			return checks
		default:
			if err := checker.CheckHealth(ctx); err != nil {
				checks[name] = "unhealthy"
			} else {
				checks[name] = "healthy"
			}
		}
	}

	return checks
}

func (hm *HealthManager) determineOverallStatus(checks map[string]string) string {
	degraded := false
	for _, status := range checks {
		if status == "unhealthy" {
			return "unhealthy"
		}
		if status == "degraded" || status == "timeout" {
			degraded = true
		}
	}

	if degraded {
		return "degraded"
	}
	return "healthy"
}

// HealthHandler handles aggregate health check requests
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := hm.runHealthChecks(checkCtx)
	status := hm.determineOverallStatus(checks)

	if status == "unhealthy" {
		respondWithError(w, r, apperrors.NewServiceUnavailableError("aggregate health check failed"))
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   hm.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// LivenessHandler handles liveness probe requests
func (hm *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProbeResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
	})
}

// ReadinessHandler handles readiness probe requests
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := hm.runHealthChecks(checkCtx)
	if hm.determineOverallStatus(checks) == "unhealthy" {
		respondWithError(w, r, apperrors.NewServiceUnavailableError("readiness probe failed"))
		return
	}

	writeJSON(w, http.StatusOK, ProbeResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
	})
}

// --- package-level manager, wired by the serve command ---

var healthManager *HealthManager

// InitHealthManager initializes the package-level health manager.
func InitHealthManager(version string) {
	healthManager = NewHealthManager(version)
}

// GetHealthManager returns the package-level health manager.
func GetHealthManager() *HealthManager {
	if healthManager == nil {
		healthManager = NewHealthManager("dev")
	}
	return healthManager
}

// HealthHandler delegates to the package-level manager.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	GetHealthManager().HealthHandler(w, r)
}

// LivenessHandler delegates to the package-level manager.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	GetHealthManager().LivenessHandler(w, r)
}

// ReadinessHandler delegates to the package-level manager.
func ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	GetHealthManager().ReadinessHandler(w, r)
}
