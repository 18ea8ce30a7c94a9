// Package rest serves the operational HTTP endpoints of long-running
// commands.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

const probeTimeout = 3 * time.Second

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness, readiness and health probes.
type HealthHandler struct {
	deps    map[string]Pinger
	ready   func() bool
	version string
}

// NewHealthHandler creates a HealthHandler over the named dependencies.
// ready gates /ready on top of the dependency checks; nil means always
// ready.
func NewHealthHandler(version string, deps map[string]Pinger, ready func() bool) *HealthHandler {
	if ready == nil {
		ready = func() bool { return true }
	}
	return &HealthHandler{deps: deps, ready: ready, version: version}
}

// HealthResponse is the JSON body of every probe.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the state of one dependency.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Live always answers 200.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now()})
}

// Ready answers 200 when every dependency responds and the process reports
// itself ready, 503 otherwise.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	comps := h.check(r.Context())
	status := http.StatusOK
	resp := HealthResponse{Status: "ok", Timestamp: time.Now()}
	if !allUp(comps) || !h.ready() {
		status = http.StatusServiceUnavailable
		resp.Status = "down"
	}
	writeJSON(w, status, resp)
}

// Health reports every dependency with its latency and the build version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	comps := h.check(r.Context())
	status := http.StatusOK
	resp := HealthResponse{Status: "ok", Version: h.version, Components: comps, Timestamp: time.Now()}
	if !allUp(comps) {
		status = http.StatusServiceUnavailable
		resp.Status = "down"
	}
	writeJSON(w, status, resp)
}

func (h *HealthHandler) check(ctx context.Context) map[string]CompStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	comps := make(map[string]CompStatus, len(names))
	for _, name := range names {
		start := time.Now()
		if err := h.deps[name].Ping(ctx); err != nil {
			comps[name] = CompStatus{Status: "down", Error: err.Error()}
			continue
		}
		comps[name] = CompStatus{Status: "ok", Latency: time.Since(start).String()}
	}
	return comps
}

func allUp(comps map[string]CompStatus) bool {
	for _, c := range comps {
		if c.Status != "ok" {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
