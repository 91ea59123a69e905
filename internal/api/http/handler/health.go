package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/userhub/internal/model"
)

// HealthChecker runs readiness probes.
type HealthChecker interface {
	Ready(ctx context.Context) model.HealthReport
}

// Health serves liveness and readiness probes.
type Health struct {
	checker   HealthChecker
	startTime time.Time
	version   string
}

func NewHealth(checker HealthChecker, version string) *Health {
	return &Health{checker: checker, startTime: time.Now(), version: version}
}

// Livez godoc
//
//	@Summary	Liveness probe
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/livez [get]
func (h *Health) Livez(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Version: h.version,
	})
}

// Readyz godoc
//
//	@Summary	Readiness probe
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/readyz [get]
func (h *Health) Readyz(c *gin.Context) {
	report := h.checker.Ready(c.Request.Context())

	resp := HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Version: h.version,
		Checks:  report.Checks,
	}
	status := http.StatusOK
	if !report.Healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}
