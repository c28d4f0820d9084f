package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthOK           = "ok"
	healthNotReady     = "not ready"
	healthShuttingDown = "shutting down"
)

// HealthChecker backs the liveness and readiness probes of the HTTP
// transport. Liveness only proves the process answers; readiness also
// reflects the shutdown sequence so a draining instance stops receiving
// traffic before the listener closes.
type HealthChecker struct {
	ready atomic.Bool
	sc    *ServerContext
	since time.Time
}

// NewHealthChecker creates a checker bound to the server context. The
// server reports ready until SetReady(false) or shutdown.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{sc: sc, since: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady flips the readiness state. Called with false at the start of
// graceful shutdown.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the server accepts traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

func (h *HealthChecker) shuttingDown() bool {
	return h.sc != nil && h.sc.IsShutdown()
}

type healthStatus struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeHealth(w http.ResponseWriter, code int, status healthStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

// LivenessHandler serves /healthz. It answers ok as long as the process is
// able to serve HTTP at all.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, healthStatus{Status: healthOK})
	})
}

// ReadinessHandler serves /readyz. Not ready during startup gating and once
// shutdown has begun.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks := map[string]string{
			"ready":    healthOK,
			"shutdown": healthOK,
		}
		ok := true
		if !h.ready.Load() {
			checks["ready"] = healthNotReady
			ok = false
		}
		if h.shuttingDown() {
			checks["shutdown"] = healthShuttingDown
			ok = false
		}

		status := healthStatus{Status: healthOK, Checks: checks}
		code := http.StatusOK
		if !ok {
			status.Status = healthNotReady
			code = http.StatusServiceUnavailable
		}
		writeHealth(w, code, status)
	})
}

// DetailedHealthHandler serves /healthz/detailed with uptime and the state
// of the shared dependencies.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status := healthStatus{
			Status: healthOK,
			Uptime: time.Since(h.since).Truncate(time.Second).String(),
		}
		if h.sc != nil {
			status.Checks = map[string]string{
				"response_cache": healthOK,
			}
			if h.sc.Cache() == nil {
				status.Checks["response_cache"] = "disabled"
			}
		}

		code := http.StatusOK
		switch {
		case !h.ready.Load():
			status.Status = healthNotReady
			code = http.StatusServiceUnavailable
		case h.shuttingDown():
			status.Status = healthShuttingDown
			code = http.StatusServiceUnavailable
		}
		writeHealth(w, code, status)
	})
}

// RegisterHealthEndpoints mounts the probe handlers on the mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}
