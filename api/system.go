package api

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"sort"
	"time"
)

// healthTimeout bounds each dependency check of /health.
const healthTimeout = 2 * time.Second

// HealthCheck reports whether one dependency of the directory is usable.
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

type versionResponse struct {
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// SystemHandler serves liveness and build information. Checks are keyed by
// the dependency they probe, e.g. "database" or "attachments".
type SystemHandler struct {
	checks map[string]HealthCheck
}

func NewSystemHandler(checks map[string]HealthCheck) *SystemHandler {
	return &SystemHandler{checks: checks}
}

// HealthHandler runs every check and answers 503 when any of them fails.
func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Service: "staffdir", Checks: make(map[string]string, len(h.checks))}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			logger.Warn("health check failed", slog.String("check", name), slog.Any("err", err))
			resp.Status = "unavailable"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, resp, status)
}

func (h *SystemHandler) VersionHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, versionResponse{Version: version, BuildTime: buildTime, GoVersion: runtime.Version()}, http.StatusOK)
	}
}
