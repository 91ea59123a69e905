package service

import (
	"context"
	"sync"
	"time"

	"github.com/dtroode/userhub/internal/logger"
	"github.com/dtroode/userhub/internal/model"
)

const defaultProbeTimeout = 3 * time.Second

type probeFunc struct {
	name  string
	check func(ctx context.Context) error
}

func (p probeFunc) Name() string                    { return p.name }
func (p probeFunc) Check(ctx context.Context) error { return p.check(ctx) }

// NewProbe adapts a plain check function to model.Probe.
func NewProbe(name string, check func(ctx context.Context) error) model.Probe {
	return probeFunc{name: name, check: check}
}

// Health runs readiness probes against the service dependencies.
type Health struct {
	probes  []model.Probe
	timeout time.Duration
	logger  *logger.Logger
}

func NewHealth(logger *logger.Logger, probes ...model.Probe) *Health {
	return &Health{probes: probes, timeout: defaultProbeTimeout, logger: logger}
}

// Ready runs every probe concurrently, each with its own timeout.
func (h *Health) Ready(ctx context.Context) model.HealthReport {
	report := model.HealthReport{Healthy: true, Checks: make(map[string]string, len(h.probes))}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, p := range h.probes {
		wg.Add(1)
		go func(p model.Probe) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			err := p.Check(probeCtx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Healthy = false
				report.Checks[p.Name()] = err.Error()
				h.logger.Warn("Health service: probe failed", "probe", p.Name(), "error", err.Error())
				return
			}
			report.Checks[p.Name()] = "ok"
		}(p)
	}
	wg.Wait()

	return report
}
