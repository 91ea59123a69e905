package model

import "context"

// Probe checks a single dependency.
type Probe interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthReport is the outcome of running all readiness probes. Checks maps a
// probe name to "ok" or the failure message.
type HealthReport struct {
	Healthy bool
	Checks  map[string]string
}
