package handlers

import (
	"net/http"
	"time"

	"github.com/aromelle/api/internal/services"
)

// HealthHandlers serves the liveness and readiness probes.
type HealthHandlers struct {
	system services.SystemService
}

// NewHealthHandlers builds the health endpoints. A nil system service leaves
// /readyz reporting ok without dependency checks.
func NewHealthHandlers(system services.SystemService) *HealthHandlers {
	return &HealthHandlers{system: system}
}

type healthPayload struct {
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	Version     string `json:"version,omitempty"`
	CommitSHA   string `json:"commit_sha,omitempty"`
	Environment string `json:"environment,omitempty"`
	UptimeSec   int64  `json:"uptime_seconds,omitempty"`
	GeneratedAt string `json:"generated_at,omitempty"`
}

// Healthz reports process liveness only.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, healthPayload{Status: "ok"})
}

// Readyz probes the backing store and reports dependency readiness.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.system == nil {
		writeJSONResponse(w, http.StatusOK, healthPayload{Status: "ok"})
		return
	}

	report, err := h.system.HealthReport(r.Context())
	if err != nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, healthPayload{Status: "error", Detail: err.Error()})
		return
	}

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, healthPayload{
		Status:      report.Status,
		Detail:      report.Detail,
		Version:     report.Version,
		CommitSHA:   report.CommitSHA,
		Environment: report.Environment,
		UptimeSec:   int64(report.Uptime / time.Second),
		GeneratedAt: formatTime(report.GeneratedAt),
	})
}
