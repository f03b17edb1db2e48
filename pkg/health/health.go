package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/vaultkv/server/pkg/storage"
)

// Status is the JSON body served by the health endpoints.
type Status struct {
	Status     string            `json:"status"` // "healthy", "unhealthy", "ready", "not_ready"
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
	Message    string            `json:"message,omitempty"`
	Version    string            `json:"version,omitempty"`
	Uptime     string            `json:"uptime,omitempty"`
	StartTime  time.Time         `json:"-"`
}

// Component tracks the health of a single named part of the facade.
type Component struct {
	Name    string
	Healthy bool
	Message string
	Updated time.Time
}

// criticalComponents must all be healthy before Readiness reports ready.
var criticalComponents = []string{"storage", "registry", "nonce_ledger"}

// Registry tracks component health for a running facade instance.
type Registry struct {
	mu         sync.RWMutex
	components map[string]Component
	startTime  time.Time
	version    string
}

// NewRegistry returns an empty registry with its start time set to now.
func NewRegistry() *Registry {
	return &Registry{
		components: make(map[string]Component),
		startTime:  time.Now(),
	}
}

// SetVersion records the version string reported in health responses.
func (r *Registry) SetVersion(version string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.version = version
}

// Update records the current health of a named component.
func (r *Registry) Update(name string, healthy bool, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[name] = Component{
		Name:    name,
		Healthy: healthy,
		Message: message,
		Updated: time.Now(),
	}
}

// Health returns the aggregate health: unhealthy if any component is.
func (r *Registry) Health() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := "healthy"
	components := make(map[string]string, len(r.components))
	for name, comp := range r.components {
		if !comp.Healthy {
			status = "unhealthy"
			components[name] = "unhealthy: " + comp.Message
		} else {
			components[name] = "healthy"
		}
	}

	return Status{
		Status:     status,
		Timestamp:  time.Now(),
		Components: components,
		Version:    r.version,
		Uptime:     time.Since(r.startTime).String(),
		StartTime:  r.startTime,
	}
}

// Readiness returns not_ready unless every component in criticalComponents
// has been reported and its latest report is healthy.
func (r *Registry) Readiness() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := "ready"
	message := ""
	components := make(map[string]string, len(criticalComponents))

	for _, name := range criticalComponents {
		comp, exists := r.components[name]
		switch {
		case !exists:
			status = "not_ready"
			message = "waiting for " + name + " initialization"
			components[name] = "not registered"
		case !comp.Healthy:
			status = "not_ready"
			message = "waiting for " + name
			components[name] = "not ready: " + comp.Message
		default:
			components[name] = "ready"
		}
	}

	return Status{
		Status:     status,
		Timestamp:  time.Now(),
		Components: components,
		Message:    message,
		Version:    r.version,
		Uptime:     time.Since(r.startTime).String(),
		StartTime:  r.startTime,
	}
}

// CheckStorage probes env by issuing a Sync and records the outcome under
// the "storage" component. Callers run this on a schedule or before
// serving readiness, not on every request — each Sync opens a read
// transaction.
func (r *Registry) CheckStorage(env *storage.Env) {
	if err := env.Sync(); err != nil {
		r.Update("storage", false, err.Error())
		return
	}
	r.Update("storage", true, "")
}

// HealthHandler serves GET /healthz.
func (r *Registry) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		status := r.Health()
		w.Header().Set("Content-Type", "application/json")
		code := http.StatusOK
		if status.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}

// ReadyHandler serves GET /readyz.
func (r *Registry) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		status := r.Readiness()
		w.Header().Set("Content-Type", "application/json")
		code := http.StatusOK
		if status.Status != "ready" {
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}

// LiveHandler serves GET /livez — always 200 while the process runs.
func (r *Registry) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r.mu.RLock()
		uptime := time.Since(r.startTime).String()
		r.mu.RUnlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "alive",
			"uptime": uptime,
		})
	}
}
